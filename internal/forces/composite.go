package forces

import (
	"fmt"
	"strings"

	"github.com/san-kum/psim/internal/sim"
)

// Composite sums several potentials into one. Each member only
// contributes inside its own cutoff.
type Composite struct {
	members []Potential
}

func NewComposite(members ...Potential) *Composite {
	return &Composite{members: members}
}

func (c *Composite) Name() string {
	names := make([]string, len(c.members))
	for i, m := range c.members {
		names[i] = m.Name()
	}
	return strings.Join(names, "+")
}

func (c *Composite) Cutoff() float64 {
	cut := 0.0
	for _, m := range c.members {
		if m.Cutoff() > cut {
			cut = m.Cutoff()
		}
	}
	return cut
}

func (c *Composite) Pair(r, contact float64) (Pair, error) {
	var total Pair
	for _, m := range c.members {
		if r >= m.Cutoff() {
			continue
		}
		p, err := m.Pair(r, contact)
		if err != nil {
			return Pair{}, err
		}
		total.Force += p.Force
		total.Energy += p.Energy
		total.Counted = total.Counted || p.Counted
	}
	return total, nil
}

func (c *Composite) Quench() {
	for _, m := range c.members {
		if q, ok := m.(Quencher); ok {
			q.Quench()
		}
	}
}

// GetParams prefixes each member parameter with the member name.
func (c *Composite) GetParams() map[string]float64 {
	out := make(map[string]float64)
	for _, m := range c.members {
		for k, v := range m.GetParams() {
			out[m.Name()+"."+k] = v
		}
	}
	return out
}

func (c *Composite) SetParam(name string, v float64) error {
	member, param, ok := strings.Cut(name, ".")
	if !ok {
		return fmt.Errorf("%s: parameter %q needs a member prefix: %w", c.Name(), name, sim.ErrInput)
	}
	for _, m := range c.members {
		if m.Name() == member {
			return m.SetParam(param, v)
		}
	}
	return unknownParam(c.Name(), name)
}
