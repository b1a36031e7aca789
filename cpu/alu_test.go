package cpu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/paigeadelethompson/ia64emu/cpu"
	"github.com/paigeadelethompson/ia64emu/registers"
)

var _ = Describe("ALU", func() {
	var (
		bank *registers.Bank
		alu  *cpu.ALU
	)

	BeforeEach(func() {
		bank = registers.NewBank()
		alu = cpu.NewALU(bank)
	})

	It("adds two general registers", func() {
		Expect(bank.SetGR(1, 5)).To(Succeed())
		Expect(bank.SetGR(2, 3)).To(Succeed())
		Expect(alu.Add(3, 1, 2)).To(Succeed())
		v, err := bank.GR(3)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint64(8)))
	})

	It("wraps on overflowing add", func() {
		Expect(bank.SetGR(1, ^uint64(0))).To(Succeed())
		Expect(bank.SetGR(2, 1)).To(Succeed())
		Expect(alu.Add(3, 1, 2)).To(Succeed())
		v, _ := bank.GR(3)
		Expect(v).To(Equal(uint64(0)))
	})

	It("subtracts, ANDs, ORs, and XORs", func() {
		Expect(bank.SetGR(1, 0xF0)).To(Succeed())
		Expect(bank.SetGR(2, 0x0F)).To(Succeed())

		Expect(alu.Sub(3, 1, 2)).To(Succeed())
		v, _ := bank.GR(3)
		Expect(v).To(Equal(uint64(0xE1)))

		Expect(alu.And(4, 1, 2)).To(Succeed())
		v, _ = bank.GR(4)
		Expect(v).To(Equal(uint64(0)))

		Expect(alu.Or(5, 1, 2)).To(Succeed())
		v, _ = bank.GR(5)
		Expect(v).To(Equal(uint64(0xFF)))

		Expect(alu.Xor(6, 1, 2)).To(Succeed())
		v, _ = bank.GR(6)
		Expect(v).To(Equal(uint64(0xFF)))
	})

	DescribeTable("Compare writes the expected boolean to PR",
		func(kind cpu.CompareKind, x, y uint64, want bool) {
			Expect(bank.SetGR(1, x)).To(Succeed())
			Expect(bank.SetGR(2, y)).To(Succeed())
			Expect(alu.Compare(kind, 10, 1, 2)).To(Succeed())
			got, err := bank.PR(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("Equal true", cpu.CompareEqual, uint64(4), uint64(4), true),
		Entry("Equal false", cpu.CompareEqual, uint64(4), uint64(5), false),
		Entry("NotEqual", cpu.CompareNotEqual, uint64(4), uint64(5), true),
		Entry("signed LessThan, -1 < 0", cpu.CompareLessThan, ^uint64(0), uint64(0), true),
		Entry("signed LessEqual", cpu.CompareLessEqual, uint64(3), uint64(3), true),
		Entry("signed GreaterThan", cpu.CompareGreaterThan, uint64(5), uint64(3), true),
		Entry("signed GreaterEqual", cpu.CompareGreaterEqual, uint64(3), uint64(3), true),
		Entry("unsigned LessThan, maxuint not < 0", cpu.CompareLessThanUnsigned, ^uint64(0), uint64(0), false),
		Entry("unsigned LessEqual", cpu.CompareLessEqualUnsigned, uint64(3), uint64(3), true),
		Entry("unsigned GreaterThan", cpu.CompareGreaterThanUnsigned, ^uint64(0), uint64(0), true),
		Entry("unsigned GreaterEqual", cpu.CompareGreaterEqualUnsigned, uint64(3), uint64(3), true),
	)

	Describe("TestBit", func() {
		It("reports a set bit", func() {
			Expect(bank.SetGR(1, 0x8)).To(Succeed())
			Expect(alu.TestBit(10, 1, 3)).To(Succeed())
			v, _ := bank.PR(10)
			Expect(v).To(BeTrue())
		})

		It("treats position 64 and beyond as false", func() {
			Expect(bank.SetGR(1, ^uint64(0))).To(Succeed())
			Expect(alu.TestBit(10, 1, 64)).To(Succeed())
			v, _ := bank.PR(10)
			Expect(v).To(BeFalse())
		})
	})

	Describe("Shift", func() {
		It("shifts left, masking the amount to 6 bits", func() {
			Expect(bank.SetGR(1, 1)).To(Succeed())
			Expect(alu.Shift(cpu.ShiftLeft, 2, 1, 4)).To(Succeed())
			v, _ := bank.GR(2)
			Expect(v).To(Equal(uint64(16)))
		})

		It("shifts arithmetic right, sign-extending", func() {
			Expect(bank.SetGR(1, 0xF000000000000000)).To(Succeed())
			Expect(alu.Shift(cpu.ShiftRightArithmetic, 2, 1, 4)).To(Succeed())
			v, _ := bank.GR(2)
			Expect(v).To(Equal(uint64(0xFF00000000000000)))
		})

		It("shifts logical right, zero-filling", func() {
			Expect(bank.SetGR(1, 0xF000000000000000)).To(Succeed())
			Expect(alu.Shift(cpu.ShiftRightLogical, 2, 1, 4)).To(Succeed())
			v, _ := bank.GR(2)
			Expect(v).To(Equal(uint64(0x0F00000000000000)))
		})

		It("wraps a shift amount of 64 or more into the low 6 bits", func() {
			Expect(bank.SetGR(1, 1)).To(Succeed())
			Expect(alu.Shift(cpu.ShiftLeft, 2, 1, 64)).To(Succeed())
			v, _ := bank.GR(2)
			Expect(v).To(Equal(uint64(1)))
		})
	})

	Describe("Deposit and Extract", func() {
		It("deposits a field into a register", func() {
			Expect(bank.SetGR(1, 0)).To(Succeed())
			Expect(bank.SetGR(2, 0xFF)).To(Succeed())
			Expect(alu.Deposit(3, 1, 2, 8, 8)).To(Succeed())
			v, _ := bank.GR(3)
			Expect(v).To(Equal(uint64(0xFF00)))
		})

		It("extracts a field from a register", func() {
			Expect(bank.SetGR(1, 0xABFF00)).To(Succeed())
			Expect(alu.Extract(2, 1, 8, 8)).To(Succeed())
			v, _ := bank.GR(2)
			Expect(v).To(Equal(uint64(0xFF)))
		})
	})

	It("counts set bits", func() {
		Expect(bank.SetGR(1, 0xFF)).To(Succeed())
		Expect(alu.PopCount(2, 1)).To(Succeed())
		v, _ := bank.GR(2)
		Expect(v).To(Equal(uint64(8)))
	})

	Describe("ParallelAdd", func() {
		It("adds byte lanes independently, each wrapping on its own", func() {
			Expect(bank.SetGR(1, 0x01FF)).To(Succeed())
			Expect(bank.SetGR(2, 0x0101)).To(Succeed())
			Expect(alu.ParallelAdd(cpu.LaneByte, 3, 1, 2)).To(Succeed())
			v, _ := bank.GR(3)
			Expect(v).To(Equal(uint64(0x0200)))
		})
	})

	Describe("SaturatingAdd", func() {
		It("clamps signed overflow to MaxInt64", func() {
			Expect(bank.SetGR(1, 0x7FFFFFFFFFFFFFFF)).To(Succeed())
			Expect(bank.SetGR(2, 1)).To(Succeed())
			Expect(alu.SaturatingAdd(true, 3, 1, 2)).To(Succeed())
			v, _ := bank.GR(3)
			Expect(v).To(Equal(uint64(0x7FFFFFFFFFFFFFFF)))
		})

		It("clamps unsigned overflow to MaxUint64", func() {
			Expect(bank.SetGR(1, ^uint64(0))).To(Succeed())
			Expect(bank.SetGR(2, 1)).To(Succeed())
			Expect(alu.SaturatingAdd(false, 3, 1, 2)).To(Succeed())
			v, _ := bank.GR(3)
			Expect(v).To(Equal(^uint64(0)))
		})
	})

	It("rotates left", func() {
		Expect(bank.SetGR(1, 1)).To(Succeed())
		Expect(alu.RotateMask(2, 1, 1)).To(Succeed())
		v, _ := bank.GR(2)
		Expect(v).To(Equal(uint64(2)))
	})

	DescribeTable("MinMax",
		func(kind cpu.MinMaxKind, x, y, want uint64) {
			Expect(bank.SetGR(1, x)).To(Succeed())
			Expect(bank.SetGR(2, y)).To(Succeed())
			Expect(alu.MinMax(kind, 3, 1, 2)).To(Succeed())
			v, _ := bank.GR(3)
			Expect(v).To(Equal(want))
		},
		Entry("signed min picks the negative", cpu.MinMaxMinSigned, ^uint64(0), uint64(1), ^uint64(0)),
		Entry("signed max picks the positive", cpu.MinMaxMaxSigned, ^uint64(0), uint64(1), uint64(1)),
		Entry("unsigned min picks the smaller bit pattern", cpu.MinMaxMinUnsigned, ^uint64(0), uint64(1), uint64(1)),
		Entry("unsigned max picks the larger bit pattern", cpu.MinMaxMaxUnsigned, ^uint64(0), uint64(1), ^uint64(0)),
	)

	DescribeTable("Extend",
		func(kind cpu.ExtendKind, in, want uint64) {
			Expect(bank.SetGR(1, in)).To(Succeed())
			Expect(alu.Extend(kind, 2, 1)).To(Succeed())
			v, _ := bank.GR(2)
			Expect(v).To(Equal(want))
		},
		Entry("zero-extend byte", cpu.ExtendZeroByte, uint64(0xFF), uint64(0xFF)),
		Entry("sign-extend byte", cpu.ExtendSignByte, uint64(0xFF), ^uint64(0)),
		Entry("zero-extend half", cpu.ExtendZeroHalf, uint64(0xFFFF), uint64(0xFFFF)),
		Entry("sign-extend half", cpu.ExtendSignHalf, uint64(0xFFFF), ^uint64(0)),
		Entry("zero-extend word", cpu.ExtendZeroWord, uint64(0xFFFFFFFF), uint64(0xFFFFFFFF)),
		Entry("sign-extend word", cpu.ExtendSignWord, uint64(0xFFFFFFFF), ^uint64(0)),
	)

	It("merges two registers under a mask", func() {
		Expect(bank.SetGR(1, 0xFF00)).To(Succeed())
		Expect(bank.SetGR(2, 0x00FF)).To(Succeed())
		Expect(alu.Merge(3, 1, 2, 0xFF00)).To(Succeed())
		v, _ := bank.GR(3)
		Expect(v).To(Equal(uint64(0xFFFF)))
	})
})
