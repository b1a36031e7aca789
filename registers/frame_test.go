package registers_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/paigeadelethompson/ia64emu/registers"
)

var _ = Describe("Frame markers", func() {
	var b *registers.Bank

	BeforeEach(func() {
		b = registers.NewBank()
	})

	It("accepts a write satisfying sof >= sol >= sor", func() {
		fm := registers.FrameMarker{SOF: 10, SOL: 6, SOR: 2}
		Expect(b.SetCFM(fm)).To(Succeed())
		Expect(b.CFM()).To(Equal(fm))
	})

	It("rejects sof < sol", func() {
		err := b.SetCFM(registers.FrameMarker{SOF: 2, SOL: 6, SOR: 0})
		Expect(err).To(HaveOccurred())
	})

	It("rejects sol < sor", func() {
		err := b.SetPFS(registers.FrameMarker{SOF: 10, SOL: 2, SOR: 6})
		Expect(err).To(HaveOccurred())
	})

	It("round-trips through the packed bit image", func() {
		fm := registers.FrameMarker{SOF: 127, SOL: 64, SOR: 3}
		bits := fm.ToBits()
		Expect(registers.FrameMarkerFromBits(bits)).To(Equal(fm))
	})
})
