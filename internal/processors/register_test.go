package processors

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/impel/internal/impel"
)

func TestRegisterAll(t *testing.T) {
	g := NewWithT(t)

	r := impel.NewRegistry()
	g.Expect(RegisterAll(r)).To(Succeed())
	g.Expect(r.Tags()).To(Equal([]impel.Tag{impel.TagOvershoot, impel.TagSmooth, impel.TagSpring}))

	p, err := r.CreateProcessor(impel.TagOvershoot)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(p).To(BeAssignableToTypeOf(&OvershootProcessor{}))

	p, err = r.CreateProcessor(impel.TagSpring)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(p).To(BeAssignableToTypeOf(&SpringProcessor{}))
}

func TestRegisterAll_Twice(t *testing.T) {
	g := NewWithT(t)

	r := impel.NewRegistry()
	g.Expect(RegisterAll(r)).To(Succeed())
	g.Expect(RegisterAll(r)).To(MatchError(impel.ErrDuplicateModel))
}

func TestCreateProcessor_UnknownModel(t *testing.T) {
	g := NewWithT(t)

	r := impel.NewRegistry()
	g.Expect(RegisterAll(r)).To(Succeed())

	p, err := r.CreateProcessor(impel.Tag(99))
	g.Expect(err).To(MatchError(impel.ErrUnknownModel))
	g.Expect(p).To(BeNil())
}

func TestRegisterDefaults_Idempotent(t *testing.T) {
	g := NewWithT(t)

	g.Expect(RegisterDefaults()).To(Succeed())
	g.Expect(RegisterDefaults()).To(Succeed())

	p, err := impel.CreateProcessor(impel.TagSmooth)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(p.Tag()).To(Equal(impel.TagSmooth))
}
