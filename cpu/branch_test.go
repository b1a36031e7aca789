package cpu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/paigeadelethompson/ia64emu/cpu"
	"github.com/paigeadelethompson/ia64emu/decoder"
	"github.com/paigeadelethompson/ia64emu/memory"
)

var _ = Describe("Branch", func() {
	var core *cpu.Core

	BeforeEach(func() {
		core = cpu.New(0x10000, 256)
		Expect(core.Memory.Map(0x0, 0x10000, memory.PermReadWrite)).To(Succeed())
		Expect(core.Memory.Map(0x10000, 0x10000, memory.PermReadWrite)).To(Succeed())
	})

	It("takes a conditional branch by adding the scaled displacement to IP", func() {
		core.SetIP(0x1000)
		Expect(core.Registers.SetPR(0, true)).To(Succeed())
		in := decoder.Instruction{
			Kind: decoder.KindBranch,
			Branch: decoder.BFormat{
				QP:    0,
				BType: uint8(decoder.BranchCond),
				Imm20: 2,
			},
		}
		Expect(core.Execute(in)).To(Succeed())
		Expect(core.IP()).To(Equal(uint64(0x1000 + 2*16)))
	})

	It("sign-extends a negative displacement backwards", func() {
		core.SetIP(0x1000)
		Expect(core.Registers.SetPR(0, true)).To(Succeed())
		in := decoder.Instruction{
			Kind: decoder.KindBranch,
			Branch: decoder.BFormat{
				QP:    0,
				BType: uint8(decoder.BranchCond),
				Imm20: 0xFFFFF,
			},
		}
		Expect(core.Execute(in)).To(Succeed())
		Expect(core.IP()).To(Equal(uint64(0x1000 - 16)))
	})

	It("does not move IP when the qualifying predicate is false", func() {
		core.SetIP(0x1000)
		Expect(core.Registers.SetPR(1, false)).To(Succeed())
		in := decoder.Instruction{
			Kind: decoder.KindBranch,
			Branch: decoder.BFormat{
				QP:    1,
				BType: uint8(decoder.BranchCond),
				Imm20: 5,
			},
		}
		Expect(core.Execute(in)).To(Succeed())
		Expect(core.IP()).To(Equal(uint64(0x1000)))
	})

	It("calls indirectly through a branch register and links the return address", func() {
		core.SetIP(0x2000)
		Expect(core.Registers.SetPR(0, true)).To(Succeed())
		Expect(core.Registers.SetBR(2, 0x5000)).To(Succeed())
		in := decoder.Instruction{
			Kind: decoder.KindBranch,
			Branch: decoder.BFormat{
				QP:    0,
				BType: uint8(decoder.BranchCall),
				Major: 2 | (0 << 3),
				D:     false,
			},
		}
		Expect(core.Execute(in)).To(Succeed())
		Expect(core.IP()).To(Equal(uint64(0x5000)))
		link, err := core.Registers.BR(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(link).To(Equal(uint64(0x2000 + 16)))
	})

	Describe("AllocateFrame and Return", func() {
		It("overwrites CFM with the new frame marker when growing the frame", func() {
			Expect(core.AllocateFrame(4, 2, 0)).To(Succeed())
			cfm := core.Registers.CFM()
			Expect(cfm.SOF).To(Equal(uint8(4)))
			Expect(cfm.SOL).To(Equal(uint8(2)))
		})

		It("restores the previous frame marker on Return", func() {
			pfsMarker := core.Registers.CFM()
			Expect(core.Registers.SetPFS(pfsMarker)).To(Succeed())
			Expect(core.AllocateFrame(2, 1, 0)).To(Succeed())

			Expect(core.Registers.SetBR(0, 0x9000)).To(Succeed())
			target, err := core.Registers.BR(0)
			Expect(err).NotTo(HaveOccurred())

			in := decoder.Instruction{
				Kind: decoder.KindBranch,
				Branch: decoder.BFormat{
					BType: uint8(decoder.BranchCall),
					Major: 0,
					D:     true,
				},
			}
			Expect(core.Registers.SetPR(0, true)).To(Succeed())
			Expect(core.Execute(in)).To(Succeed())
			Expect(core.IP()).To(Equal(target))
			Expect(core.Registers.CFM()).To(Equal(pfsMarker))
		})
	})
})
