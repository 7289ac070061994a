package forces

import (
	"fmt"

	"github.com/san-kum/psim/internal/sim"
)

// AOPotential is an Asakura-Oosawa depletion attraction on top of a steep
// r^-36 core. The well depth is set at contact and the attraction vanishes
// at the cutoff:
//
//	U(r) = r^-36 + a1 (1 + a2 r + a3 r^3),  r < c
//	F(r) = 36 r^-38 + coEff1/r + coEff2 r
//
// F is the classic ClusteredCore force magnitude, which is -dU/dr divided
// by r.
type AOPotential struct {
	WellDepth float64
	KT        float64
	CutOff    float64

	a1, a2, a3     float64
	coEff1, coEff2 float64
}

func NewAOPotential() *AOPotential {
	a := &AOPotential{WellDepth: 0.261, KT: 1.0, CutOff: 1.1}
	a.update()
	return a
}

func (a *AOPotential) update() {
	c := a.CutOff
	ratio := c / (c - 1.0)
	a.a1 = -a.KT * a.WellDepth * ratio * ratio * ratio
	a.a2 = -3.0 / (2.0 * c)
	a.a3 = 1.0 / (2.0 * c * c * c)
	a.coEff1 = -a.a1 * a.a2
	a.coEff2 = -3.0 * a.a1 * a.a3
}

func (a *AOPotential) Name() string    { return "ao" }
func (a *AOPotential) Cutoff() float64 { return a.CutOff }

func (a *AOPotential) Pair(r, contact float64) (Pair, error) {
	if err := checkOverlap(r, contact); err != nil {
		return Pair{}, err
	}
	rInv := 1.0 / r
	r36 := sim.IntPow(rInv, 36)
	r38 := r36 * rInv * rInv

	p := Pair{
		Force:   36.0*r38 + a.coEff1*rInv + a.coEff2*r,
		Energy:  r36 + a.a1*(1.0+a.a2*r+a.a3*r*r*r),
		Counted: r < a.CutOff,
	}
	return p, checkFinite(a.Name(), p)
}

func (a *AOPotential) GetParams() map[string]float64 {
	return map[string]float64{
		"wellDepth": a.WellDepth,
		"kT":        a.KT,
		"cutOff":    a.CutOff,
	}
}

func (a *AOPotential) SetParam(name string, v float64) error {
	switch name {
	case "wellDepth":
		a.WellDepth = v
	case "kT":
		a.KT = v
	case "cutOff":
		if v <= 1.0 {
			return fmt.Errorf("%s: cutOff must exceed contact, got %g: %w", a.Name(), v, sim.ErrInput)
		}
		a.CutOff = v
	default:
		return unknownParam(a.Name(), name)
	}
	a.update()
	return nil
}
