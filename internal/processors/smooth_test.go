package processors

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/impel/internal/impel"
)

func TestSmooth_ApproachesWithoutOvershoot(t *testing.T) {
	g := NewWithT(t)

	p := NewSmoothProcessor()
	h, err := p.Create(SmoothInit{
		VelocityInit: impel.VelocityInit{Target: 100},
		SmoothTime:   100,
	})
	g.Expect(err).NotTo(HaveOccurred())

	prev := 0.0
	for i := 0; i < 125; i++ {
		p.AdvanceFrame(16)
		value, _ := state(t, p, h)
		g.Expect(value).To(BeNumerically(">=", prev))
		g.Expect(value).To(BeNumerically("<=", 100))
		prev = value
	}
	g.Expect(prev).To(BeNumerically("~", 100, 0.01))
}

func TestSmooth_StopsAtTargetWhenThrownPast(t *testing.T) {
	g := NewWithT(t)

	p := NewSmoothProcessor()
	h, _ := p.Create(SmoothInit{
		VelocityInit: impel.VelocityInit{
			Kinematics: impel.Kinematics{Value: 90, Velocity: 50},
			Target:     100,
		},
		SmoothTime: 200,
	})

	p.AdvanceFrame(16)
	value, velocity := state(t, p, h)
	g.Expect(value).To(Equal(100.0))
	g.Expect(velocity).To(Equal(0.0))
}

func TestSmooth_FollowsRetarget(t *testing.T) {
	g := NewWithT(t)

	p := NewSmoothProcessor()
	h, _ := p.Create(SmoothInit{VelocityInit: impel.VelocityInit{Target: 10}, SmoothTime: 50})
	for i := 0; i < 60; i++ {
		p.AdvanceFrame(16)
	}
	g.Expect(p.SetTarget(h, -10)).To(Succeed())
	for i := 0; i < 120; i++ {
		p.AdvanceFrame(16)
	}

	value, _ := state(t, p, h)
	g.Expect(value).To(BeNumerically("~", -10, 0.01))
}

func TestSmooth_ValidateRejectsSmoothTime(t *testing.T) {
	g := NewWithT(t)

	for _, st := range []float64{0, -1} {
		err := SmoothInit{SmoothTime: st}.Validate()
		g.Expect(err).To(MatchError(impel.ErrInvalidInit))
	}
}
