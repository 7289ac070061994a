package forces

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/psim/internal/sim"
)

var constructors = map[string]func() Potential{
	"lennard-jones": func() Potential { return NewLennardJones() },
	"yukawa":        func() Potential { return NewYukawa() },
	"lj-yukawa":     func() Potential { return NewLJYukawa() },
	"ao":            func() Potential { return NewAOPotential() },
	"calibration":   func() Potential { return NewCalibration() },
}

// New builds the named potential and applies params on top of its
// defaults. Names joined with "+" build a Composite whose parameters are
// addressed as "member.param".
func New(name string, params map[string]float64) (Potential, error) {
	var p Potential
	if strings.Contains(name, "+") {
		var members []Potential
		for _, part := range strings.Split(name, "+") {
			m, err := New(strings.TrimSpace(part), nil)
			if err != nil {
				return nil, err
			}
			members = append(members, m)
		}
		p = NewComposite(members...)
	} else {
		ctor, ok := constructors[name]
		if !ok {
			return nil, fmt.Errorf("unknown force: %s: %w", name, sim.ErrInput)
		}
		p = ctor()
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := p.SetParam(k, params[k]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
