package impel

import (
	. "github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = Describe("Registry", func() {
	var r *Registry

	BeforeEach(func() {
		r = NewRegistry()
		gomega.Expect(r.Register(tagLinear, func() Processor { return newLinearProcessor() })).To(gomega.Succeed())
	})

	It("creates a processor for a registered tag", func() {
		p, err := r.CreateProcessor(tagLinear)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(p.Tag()).To(gomega.Equal(tagLinear))
		gomega.Expect(p.Len()).To(gomega.BeZero())
	})

	It("returns independent processors per call", func() {
		a, _ := r.CreateProcessor(tagLinear)
		b, _ := r.CreateProcessor(tagLinear)
		_, err := a.Create(linearInit{})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(a.Len()).To(gomega.Equal(1))
		gomega.Expect(b.Len()).To(gomega.BeZero())
	})

	It("fails with ErrUnknownModel for an unregistered tag", func() {
		p, err := r.CreateProcessor(TagOvershoot)
		gomega.Expect(err).To(gomega.MatchError(ErrUnknownModel))
		gomega.Expect(p).To(gomega.BeNil())
	})

	It("rejects a second factory for the same tag", func() {
		err := r.Register(tagLinear, func() Processor { return newLinearProcessor() })
		gomega.Expect(err).To(gomega.MatchError(ErrDuplicateModel))
	})

	It("rejects the invalid tag and nil factories", func() {
		gomega.Expect(r.Register(TagInvalid, func() Processor { return newLinearProcessor() })).NotTo(gomega.Succeed())
		gomega.Expect(r.Register(Tag(7), nil)).NotTo(gomega.Succeed())
	})

	It("seals on first use", func() {
		gomega.Expect(r.Sealed()).To(gomega.BeFalse())
		_, _ = r.CreateProcessor(tagLinear)
		gomega.Expect(r.Sealed()).To(gomega.BeTrue())

		err := r.Register(Tag(7), func() Processor { return newLinearProcessor() })
		gomega.Expect(err).To(gomega.MatchError(ErrRegistrySealed))
		gomega.Expect(r.Has(Tag(7))).To(gomega.BeFalse())
	})

	It("diagnoses a factory that builds the wrong model", func() {
		gomega.Expect(r.Register(Tag(7), func() Processor { return newLinearProcessor() })).To(gomega.Succeed())
		_, err := r.CreateProcessor(Tag(7))
		gomega.Expect(err).To(gomega.MatchError(ErrModelMismatch))
	})

	It("lists tags in order", func() {
		gomega.Expect(r.Register(Tag(3), func() Processor { return newLinearProcessor() })).To(gomega.Succeed())
		gomega.Expect(r.Register(Tag(1), func() Processor { return newLinearProcessor() })).To(gomega.Succeed())
		gomega.Expect(r.Tags()).To(gomega.Equal([]Tag{1, 3, tagLinear}))
	})
})

var _ = Describe("Tag", func() {
	It("round-trips built-in names", func() {
		for _, tag := range []Tag{TagOvershoot, TagSmooth, TagSpring} {
			parsed, err := ParseTag(tag.String())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(parsed).To(gomega.Equal(tag))
		}
	})

	It("accepts surrounding space and case", func() {
		gomega.Expect(ParseTag(" Overshoot ")).To(gomega.Equal(TagOvershoot))
	})

	It("rejects unknown names", func() {
		_, err := ParseTag("bounce")
		gomega.Expect(err).To(gomega.MatchError(ErrUnknownModel))
	})

	It("formats custom tags", func() {
		gomega.Expect(Tag(9).String()).To(gomega.Equal("tag(9)"))
	})
})
