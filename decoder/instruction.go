package decoder

// Kind tags which per-format payload an Instruction carries. This is the
// tagged-sum shape spec.md §9 asks for in place of per-instruction dynamic
// dispatch: one struct, one active field selected by Kind, one switch in
// the consuming dispatcher.
type Kind uint8

// The instruction kinds a bundle slot can decode to.
const (
	KindMemory Kind = iota
	KindInteger
	KindFloating
	KindBranch
	KindALU
	KindLongImmediate
)

// Instruction is a single decoded, pre-fielded instruction ready for the
// processor core to dispatch on its Kind. Only the field named by Kind is
// meaningful; the others are zero value.
type Instruction struct {
	Kind Kind

	Memory        MFormat
	Integer       IFormat
	Floating      FFormat
	Branch        BFormat
	ALU           AFormat
	LongImmediate LXFormat
}

// QP returns the qualifying predicate index carried by whichever format is
// active, so the processor core can gate execution without a type switch.
func (in Instruction) QP() uint8 {
	switch in.Kind {
	case KindMemory:
		return in.Memory.QP
	case KindInteger:
		return in.Integer.QP
	case KindFloating:
		return in.Floating.QP
	case KindBranch:
		return in.Branch.QP
	case KindALU:
		return in.ALU.QP
	case KindLongImmediate:
		return in.LongImmediate.QP
	default:
		return 0
	}
}

func instructionForUnit(u Unit, raw uint64) Instruction {
	switch u {
	case UnitM:
		return Instruction{Kind: KindMemory, Memory: DecodeMFormat(raw)}
	case UnitI:
		return Instruction{Kind: KindInteger, Integer: DecodeIFormat(raw)}
	case UnitF:
		return Instruction{Kind: KindFloating, Floating: DecodeFFormat(raw)}
	case UnitB:
		return Instruction{Kind: KindBranch, Branch: DecodeBFormat(raw)}
	case UnitA:
		return Instruction{Kind: KindALU, ALU: DecodeAFormat(raw)}
	default:
		// UnitL/UnitX never reach here individually; DecodeInstructions
		// combines them before calling instructionForUnit.
		return Instruction{}
	}
}

// DecodeInstructions expands a decoded Bundle into its constituent
// Instructions. An MII/MIB/MMI/MMF/FBI/BBB/AAA bundle yields three
// Instructions, one per slot; an MLX bundle yields two, since its L and X
// slots together form a single logical long-immediate instruction.
func DecodeInstructions(b *Bundle) []Instruction {
	if b.Template == TemplateMLX {
		lRaw, xRaw, _ := b.LongImmediate()
		return []Instruction{
			instructionForUnit(b.Slots[0].Unit, b.Slots[0].Raw),
			{Kind: KindLongImmediate, LongImmediate: DecodeLXFormat(lRaw, xRaw)},
		}
	}

	out := make([]Instruction, 0, 3)
	for _, slot := range b.Slots {
		out = append(out, instructionForUnit(slot.Unit, slot.Raw))
	}
	return out
}
