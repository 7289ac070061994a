package forces

import (
	"github.com/san-kum/psim/internal/sim"
)

// LennardJones is a generalized n-2n Lennard-Jones potential scaled by the
// contact distance:
//
//	U(r) = 4 kT [(σ/r)^2n - (σ/r)^n]
type LennardJones struct {
	KT         float64
	Exponent   int
	CutOff     float64
	CountRange float64
}

func NewLennardJones() *LennardJones {
	return &LennardJones{
		KT:         1.0,
		Exponent:   18,
		CutOff:     2.5,
		CountRange: 1.1,
	}
}

func (l *LennardJones) Name() string    { return "lennard-jones" }
func (l *LennardJones) Cutoff() float64 { return l.CutOff }

func (l *LennardJones) Pair(r, contact float64) (Pair, error) {
	if err := checkOverlap(r, contact); err != nil {
		return Pair{}, err
	}
	f, u := l.eval(r, contact)
	p := Pair{Force: l.KT * f, Energy: l.KT * u, Counted: r < l.CountRange}
	return p, checkFinite(l.Name(), p)
}

// eval returns force and energy in units of kT.
func (l *LennardJones) eval(r, contact float64) (float64, float64) {
	lj := sim.IntPow(contact/r, l.Exponent)
	force := 4.0 * float64(l.Exponent) * lj * (2.0*lj - 1.0) / r
	energy := 4.0 * lj * (lj - 1.0)
	return force, energy
}

func (l *LennardJones) GetParams() map[string]float64 {
	return map[string]float64{
		"kT":         l.KT,
		"ljNum":      float64(l.Exponent),
		"cutOff":     l.CutOff,
		"countRange": l.CountRange,
	}
}

func (l *LennardJones) SetParam(name string, v float64) error {
	switch name {
	case "kT":
		l.KT = v
	case "ljNum":
		if err := positiveParam(l.Name(), name, v); err != nil {
			return err
		}
		l.Exponent = int(v)
	case "cutOff":
		if err := positiveParam(l.Name(), name, v); err != nil {
			return err
		}
		l.CutOff = v
	case "countRange":
		l.CountRange = v
	default:
		return unknownParam(l.Name(), name)
	}
	return nil
}
