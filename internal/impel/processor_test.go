package impel

import (
	. "github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = Describe("VelocityProcessor", func() {
	var (
		p    *linearProcessor
		init linearInit
	)

	BeforeEach(func() {
		p = newLinearProcessor()
		init = linearInit{VelocityInit{Kinematics: Kinematics{Value: 1, Velocity: 2}, Target: 10}}
	})

	Context("uninitialized instances", func() {
		It("reject accessors until Initialize", func() {
			h := p.New()
			gomega.Expect(p.Len()).To(gomega.Equal(1))

			_, err := p.Value(h)
			gomega.Expect(err).To(gomega.MatchError(ErrUninitialized))
			gomega.Expect(p.SetTarget(h, 5)).To(gomega.MatchError(ErrUninitialized))
			gomega.Expect(p.UpdateInit(h, init)).To(gomega.MatchError(ErrUninitialized))
		})

		It("are skipped by AdvanceFrame", func() {
			idle := p.New()
			live, err := p.Create(init)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			p.AdvanceFrame(3)

			gomega.Expect(p.Value(live)).To(gomega.Equal(7.0))
			gomega.Expect(p.Initialized(idle)).To(gomega.BeFalse())
		})

		It("become active after Initialize", func() {
			h := p.New()
			gomega.Expect(p.Initialize(h, init)).To(gomega.Succeed())
			gomega.Expect(p.Value(h)).To(gomega.Equal(1.0))
			gomega.Expect(p.Velocity(h)).To(gomega.Equal(2.0))
			gomega.Expect(p.Target(h)).To(gomega.Equal(10.0))
		})
	})

	Context("handles", func() {
		It("rejects the zero handle", func() {
			_, err := p.Value(Handle{})
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidHandle))
		})

		It("rejects handles of another processor", func() {
			other := newLinearProcessor()
			h, _ := other.Create(init)
			_, _ = p.Create(init)

			_, err := p.Value(h)
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidHandle))
		})

		It("invalidates removed handles even after slot reuse", func() {
			old, _ := p.Create(init)
			gomega.Expect(p.Remove(old)).To(gomega.Succeed())
			gomega.Expect(p.Remove(old)).To(gomega.MatchError(ErrInvalidHandle))

			fresh, _ := p.Create(init)
			gomega.Expect(fresh).NotTo(gomega.Equal(old))
			gomega.Expect(p.Slots()).To(gomega.Equal(1))

			_, err := p.Value(old)
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidHandle))
			gomega.Expect(p.Value(fresh)).To(gomega.Equal(1.0))
		})

		It("does not touch other instances", func() {
			a, _ := p.Create(init)
			b, _ := p.Create(init)
			gomega.Expect(p.SetTarget(a, -3)).To(gomega.Succeed())
			gomega.Expect(p.Target(b)).To(gomega.Equal(10.0))
		})
	})

	Context("init validation", func() {
		It("refuses inits of another model", func() {
			_, err := p.Create(otherInit{})
			gomega.Expect(err).To(gomega.MatchError(ErrModelMismatch))
			gomega.Expect(p.Len()).To(gomega.BeZero())
		})

		It("refuses invalid tuning without holding a slot", func() {
			bad := init
			bad.MaxVelocity = -1
			_, err := p.Create(bad)
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidInit))

			var initErr *InitError
			gomega.Expect(err).To(gomega.BeAssignableToTypeOf(initErr))
			gomega.Expect(p.Len()).To(gomega.BeZero())
		})

		It("refuses a nil init", func() {
			h := p.New()
			gomega.Expect(p.Initialize(h, nil)).To(gomega.MatchError(ErrInvalidInit))
			gomega.Expect(p.Initialized(h)).To(gomega.BeFalse())
		})
	})

	It("keeps runtime state across UpdateInit", func() {
		h, _ := p.Create(init)
		p.AdvanceFrame(2)

		next := init
		next.Velocity = 100
		next.MaxVelocity = 50
		gomega.Expect(p.UpdateInit(h, next)).To(gomega.Succeed())

		gomega.Expect(p.Value(h)).To(gomega.Equal(5.0))
		gomega.Expect(p.Velocity(h)).To(gomega.Equal(2.0))
		gomega.Expect(p.Target(h)).To(gomega.Equal(10.0))
	})

	It("normalizes value and target into a new range on UpdateInit", func() {
		h, _ := p.Create(init)
		gomega.Expect(p.SetTarget(h, 370)).To(gomega.Succeed())

		next := init
		next.Range = Range{Min: 0, Max: 360, Modular: true}
		gomega.Expect(p.UpdateInit(h, next)).To(gomega.Succeed())

		gomega.Expect(p.Value(h)).To(gomega.Equal(1.0))
		gomega.Expect(p.Target(h)).To(gomega.BeNumerically("~", 10, 1e-9))
		gomega.Expect(p.Range(h)).To(gomega.Equal(next.Range))
	})

	It("normalizes targets into the instance range", func() {
		init.Range = Range{Min: 0, Max: 360, Modular: true}
		h, _ := p.Create(init)
		gomega.Expect(p.SetTarget(h, 370)).To(gomega.Succeed())
		gomega.Expect(p.Target(h)).To(gomega.BeNumerically("~", 10, 1e-9))
	})
})
