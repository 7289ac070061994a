package sim

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestParticleSetPos(t *testing.T) {
	p := NewParticle(0, r3.Vec{X: 9.9, Y: 5, Z: 0.1}, 0.5, 1)

	if err := p.SetPos(r3.Vec{X: 10.2, Y: 5.1, Z: -0.2}, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := r3.Vec{X: 0.2, Y: 5.1, Z: 9.8}
	if r3.Norm(r3.Sub(p.Pos, want)) > 1e-9 {
		t.Errorf("expected wrapped position %v, got %v", want, p.Pos)
	}

	disp := p.Displacement()
	wantDisp := r3.Vec{X: 0.3, Y: 0.1, Z: -0.3}
	if r3.Norm(r3.Sub(disp, wantDisp)) > 1e-9 {
		t.Errorf("expected displacement %v, got %v", wantDisp, disp)
	}
}

func TestParticleSetPosOutOfBounds(t *testing.T) {
	p := NewParticle(3, r3.Vec{X: 1, Y: 1, Z: 1}, 0.5, 1)

	err := p.SetPos(r3.Vec{X: 25, Y: 1, Z: 1}, 10)
	if !errors.Is(err, ErrParticleBounds) {
		t.Fatalf("expected ErrParticleBounds, got %v", err)
	}
	if Code(err) != 7703 {
		t.Errorf("expected code 7703, got %d", Code(err))
	}
}

func TestParticleNextIter(t *testing.T) {
	p := NewParticle(0, r3.Vec{}, 0.5, 1)
	p.AddForce(r3.Vec{X: 1, Y: 2, Z: 3})
	p.AddForce(r3.Vec{X: 1})
	p.AddInteraction(4)
	p.AddInteraction(7)
	p.Potential = 2

	if p.Coordination != 2 || len(p.Interactions) != 2 {
		t.Fatalf("expected 2 interactions, got %d", p.Coordination)
	}

	p.NextIter()

	if p.PrevForce != (r3.Vec{X: 2, Y: 2, Z: 3}) {
		t.Errorf("expected previous force to roll over, got %v", p.PrevForce)
	}
	if p.Force != (r3.Vec{}) {
		t.Errorf("expected zero force, got %v", p.Force)
	}
	if p.Coordination != 0 || len(p.Interactions) != 0 || p.Potential != 0 {
		t.Error("expected bookkeeping cleared")
	}
}

func TestParticleWork(t *testing.T) {
	tests := []struct {
		name     string
		from, to r3.Vec
		f0, f    r3.Vec
		want     float64
	}{
		// 1*0.5 + 0.5*0.5*2
		{"force rises", r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 1.5, Y: 1, Z: 1}, r3.Vec{}, r3.Vec{X: 2}, 1.0},
		// 2*(-1) + 0.5*(-1)*(1-3)
		{"force falls", r3.Vec{Y: 2}, r3.Vec{Y: 1}, r3.Vec{Y: 3}, r3.Vec{Y: 1}, -1.0},
		{"at rest", r3.Vec{X: 4, Y: 4, Z: 4}, r3.Vec{X: 4, Y: 4, Z: 4}, r3.Vec{X: 1}, r3.Vec{X: 5}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParticle(0, tt.from, 0.5, 1)
			if err := p.SetPos(tt.to, 10); err != nil {
				t.Fatal(err)
			}
			p.PrevForce = tt.f0
			p.Force = tt.f
			if got := p.Work(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("expected work %g, got %g", tt.want, got)
			}
		})
	}
}

func TestParticleKineticEnergy(t *testing.T) {
	p := NewParticle(0, r3.Vec{}, 0.5, 2)
	p.Vel = r3.Vec{X: 1, Y: 2, Z: 2}
	if got := p.KineticEnergy(); math.Abs(got-9) > 1e-12 {
		t.Errorf("expected kinetic energy 9, got %f", got)
	}
}
