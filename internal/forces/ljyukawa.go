package forces

// LJYukawa combines a short-range Lennard-Jones well with a screened
// Yukawa repulsion sharing one energy scale. It supports a quench that
// deepens the effective attraction by shortening the screening length.
type LJYukawa struct {
	lj  *LennardJones
	yuk *Yukawa
}

func NewLJYukawa() *LJYukawa {
	l := &LJYukawa{lj: NewLennardJones(), yuk: NewYukawa()}
	l.setKT(10.0)
	return l
}

func (l *LJYukawa) Name() string { return "lj-yukawa" }

func (l *LJYukawa) Cutoff() float64 { return l.lj.CutOff }

func (l *LJYukawa) setKT(v float64) {
	l.lj.KT = v
	l.yuk.KT = v
}

func (l *LJYukawa) setCutoff(v float64) {
	l.lj.CutOff = v
	l.yuk.CutOff = v
}

func (l *LJYukawa) Pair(r, contact float64) (Pair, error) {
	if err := checkOverlap(r, contact); err != nil {
		return Pair{}, err
	}
	fl, ul := l.lj.eval(r, contact)
	fy, uy := l.yuk.eval(r)

	counted := r < l.lj.CountRange
	p := Pair{Force: l.lj.KT * (fl + fy), Counted: counted}
	// energy is only tallied inside the bonding range
	if counted {
		p.Energy = l.lj.KT * (ul + uy)
	}
	return p, checkFinite(l.Name(), p)
}

// Quench switches to a lower temperature, a shorter cutoff and a short
// screening length.
func (l *LJYukawa) Quench() {
	l.setKT(3.0)
	l.setCutoff(1.5)
	l.yuk.DebyeLength = 1.0 / 6.0
}

func (l *LJYukawa) GetParams() map[string]float64 {
	return map[string]float64{
		"kT":             l.lj.KT,
		"ljNum":          float64(l.lj.Exponent),
		"yukawaStrength": l.yuk.Strength,
		"debyeLength":    l.yuk.DebyeLength,
		"cutOff":         l.lj.CutOff,
		"countRange":     l.lj.CountRange,
	}
}

func (l *LJYukawa) SetParam(name string, v float64) error {
	switch name {
	case "kT":
		l.setKT(v)
	case "cutOff":
		if err := positiveParam(l.Name(), name, v); err != nil {
			return err
		}
		l.setCutoff(v)
	case "ljNum", "countRange":
		return l.lj.SetParam(name, v)
	case "yukawaStrength", "debyeLength":
		return l.yuk.SetParam(name, v)
	default:
		return unknownParam(l.Name(), name)
	}
	return nil
}
