package forces

import "math"

// Yukawa is a screened electrostatic repulsion:
//
//	U(r) = kT s λ exp(-r/λ) / r
type Yukawa struct {
	KT          float64
	Strength    float64
	DebyeLength float64
	CutOff      float64
	CountRange  float64
}

func NewYukawa() *Yukawa {
	return &Yukawa{
		KT:          1.0,
		Strength:    8.0,
		DebyeLength: 0.5,
		CutOff:      2.5,
		CountRange:  1.1,
	}
}

func (y *Yukawa) Name() string    { return "yukawa" }
func (y *Yukawa) Cutoff() float64 { return y.CutOff }

func (y *Yukawa) Pair(r, contact float64) (Pair, error) {
	if err := checkOverlap(r, contact); err != nil {
		return Pair{}, err
	}
	f, u := y.eval(r)
	p := Pair{Force: y.KT * f, Energy: y.KT * u, Counted: r < y.CountRange}
	return p, checkFinite(y.Name(), p)
}

func (y *Yukawa) eval(r float64) (float64, float64) {
	e := math.Exp(-r / y.DebyeLength)
	force := e * (y.DebyeLength + r) * y.Strength / (r * r)
	energy := y.DebyeLength * y.Strength * e / r
	return force, energy
}

func (y *Yukawa) GetParams() map[string]float64 {
	return map[string]float64{
		"kT":             y.KT,
		"yukawaStrength": y.Strength,
		"debyeLength":    y.DebyeLength,
		"cutOff":         y.CutOff,
		"countRange":     y.CountRange,
	}
}

func (y *Yukawa) SetParam(name string, v float64) error {
	switch name {
	case "kT":
		y.KT = v
	case "yukawaStrength":
		y.Strength = v
	case "debyeLength":
		if err := positiveParam(y.Name(), name, v); err != nil {
			return err
		}
		y.DebyeLength = v
	case "cutOff":
		if err := positiveParam(y.Name(), name, v); err != nil {
			return err
		}
		y.CutOff = v
	case "countRange":
		y.CountRange = v
	default:
		return unknownParam(y.Name(), name)
	}
	return nil
}
