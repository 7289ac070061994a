package sim

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Particle is a single colloid. Pos is always wrapped into the box; Prev is
// the previous position shifted by a periodic image so that Pos-Prev is the
// real displacement of the last step.
type Particle struct {
	ID        int
	Pos       r3.Vec
	Prev      r3.Vec
	Vel       r3.Vec
	Force     r3.Vec
	PrevForce r3.Vec
	Radius    float64
	Mass      float64

	// Cell holds the grid coordinates assigned by the last rebuild.
	Cell [3]int

	Coordination int
	Interactions []int
	Potential    float64
}

func NewParticle(id int, pos r3.Vec, radius, mass float64) *Particle {
	return &Particle{
		ID:     id,
		Pos:    pos,
		Prev:   pos,
		Radius: radius,
		Mass:   mass,
		Cell:   [3]int{-1, -1, -1},
	}
}

// SetPos moves the particle to pos, wrapping it back into [0, box) and
// keeping Prev as the image of the old position nearest the new one.
func (p *Particle) SetPos(pos r3.Vec, box float64) error {
	old := p.Pos
	p.Pos = WrapVec(pos, box)
	p.Prev = r3.Vec{
		X: Image(old.X, p.Pos.X, box),
		Y: Image(old.Y, p.Pos.Y, box),
		Z: Image(old.Z, p.Pos.Z, box),
	}
	return p.checkBounds(box)
}

// Place puts the particle at pos with no history. Used for initial
// placement and when restoring from a snapshot.
func (p *Particle) Place(pos r3.Vec, box float64) error {
	p.Pos = WrapVec(pos, box)
	p.Prev = p.Pos
	return p.checkBounds(box)
}

func (p *Particle) checkBounds(box float64) error {
	if !InBox(p.Pos, box) {
		return &ParticleError{ID: p.ID, Pos: p.Pos, Err: ErrParticleBounds}
	}
	return nil
}

func (p *Particle) AddForce(f r3.Vec) {
	p.Force = r3.Add(p.Force, f)
}

func (p *Particle) AddInteraction(id int) {
	p.Coordination++
	p.Interactions = append(p.Interactions, id)
}

// NextIter rolls the force history forward and clears per-step bookkeeping.
func (p *Particle) NextIter() {
	p.PrevForce = p.Force
	p.Force = r3.Vec{}
	p.Interactions = p.Interactions[:0]
	p.Coordination = 0
	p.Potential = 0
}

func (p *Particle) Displacement() r3.Vec {
	return r3.Sub(p.Pos, p.Prev)
}

// Work is the potential estimate of the last step: Prev·d + d·(F-F0)/2,
// summed over the axes, with d the displacement.
func (p *Particle) Work() float64 {
	d := p.Displacement()
	df := r3.Sub(p.Force, p.PrevForce)
	return r3.Dot(p.Prev, d) + 0.5*r3.Dot(d, df)
}

func (p *Particle) KineticEnergy() float64 {
	return 0.5 * p.Mass * r3.Norm2(p.Vel)
}

func (p *Particle) String() string {
	return fmt.Sprintf("particle %d at (%.4f, %.4f, %.4f)", p.ID, p.Pos.X, p.Pos.Y, p.Pos.Z)
}
