package forces

import "github.com/san-kum/psim/internal/sim"

// Calibration is a purely repulsive r^-36 core, useful for relaxing an
// initial configuration or checking diffusion without attraction.
type Calibration struct {
	CutOff float64
}

func NewCalibration() *Calibration {
	return &Calibration{CutOff: 1.1}
}

func (c *Calibration) Name() string    { return "calibration" }
func (c *Calibration) Cutoff() float64 { return c.CutOff }

func (c *Calibration) Pair(r, contact float64) (Pair, error) {
	if err := checkOverlap(r, contact); err != nil {
		return Pair{}, err
	}
	rInv := 1.0 / r
	r36 := sim.IntPow(rInv, 36)
	p := Pair{Force: 36.0 * r36 * rInv, Energy: r36, Counted: r <= c.CutOff}
	return p, checkFinite(c.Name(), p)
}

func (c *Calibration) GetParams() map[string]float64 {
	return map[string]float64{"cutOff": c.CutOff}
}

func (c *Calibration) SetParam(name string, v float64) error {
	if name != "cutOff" {
		return unknownParam(c.Name(), name)
	}
	if err := positiveParam(c.Name(), name, v); err != nil {
		return err
	}
	c.CutOff = v
	return nil
}
