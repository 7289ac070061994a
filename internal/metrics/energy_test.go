package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/psim/internal/sim"
)

func state(vels ...r3.Vec) *sim.State {
	ps := make([]*sim.Particle, len(vels))
	for i, v := range vels {
		ps[i] = sim.NewParticle(i, r3.Vec{X: 5, Y: 5, Z: 5}, 0.5, 1)
		ps[i].Vel = v
	}
	return &sim.State{Particles: ps, Box: 10}
}

func TestPotentialEnergyAverage(t *testing.T) {
	m := NewPotentialEnergy()
	s := state(r3.Vec{}, r3.Vec{})

	s.Particles[0].Potential = -1
	m.Observe(s)
	s.Particles[0].Potential = -3
	m.Observe(s)

	// per-particle means -0.5 and -1.5
	if math.Abs(m.Value()+1.0) > 1e-12 {
		t.Errorf("expected -1.0, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift()
	s := state(r3.Vec{X: 2})

	m.Observe(s)
	if m.Value() != 0 {
		t.Errorf("expected no drift on first sample, got %f", m.Value())
	}

	s.Particles[0].Vel = r3.Vec{X: 1}
	m.Observe(s)
	s.Particles[0].Vel = r3.Vec{X: 2}
	m.Observe(s)

	// energy went 2 -> 0.5 -> 2, worst drift 0.75
	if math.Abs(m.Value()-0.75) > 1e-12 {
		t.Errorf("expected max drift 0.75, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestStability(t *testing.T) {
	m := NewStability(0.1)
	s := state(r3.Vec{})
	if m.Value() != 1 {
		t.Error("expected full stability before samples")
	}

	m.Observe(s)
	if err := s.Particles[0].SetPos(r3.Vec{X: 5.5, Y: 5, Z: 5}, s.Box); err != nil {
		t.Fatal(err)
	}
	m.Observe(s)

	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected stability 0.5, got %f", m.Value())
	}
}

func TestThermoMetrics(t *testing.T) {
	s := state(r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 1, Y: 1, Z: 1})
	for i := range s.Particles {
		for j := range s.Particles {
			if i != j {
				s.Particles[i].AddInteraction(j)
			}
		}
	}

	tests := []struct {
		metric   sim.Metric
		name     string
		expected float64
	}{
		{NewTemperature(), "temperature", 1},
		{NewMeanDisplacement(), "msd", 0},
		{NewCoordination(), "mean_coordination", 1},
		{NewClusterCount(1), "clusters", 1},
		{NewClusterCount(4), "clusters", 0},
	}

	for _, tt := range tests {
		tt.metric.Observe(s)
		if tt.metric.Name() != tt.name {
			t.Errorf("expected name %s, got %s", tt.name, tt.metric.Name())
		}
		if math.Abs(tt.metric.Value()-tt.expected) > 1e-12 {
			t.Errorf("%s: expected %f, got %f", tt.name, tt.expected, tt.metric.Value())
		}
		tt.metric.Reset()
		if tt.metric.Value() != 0 {
			t.Errorf("%s: expected zero after reset", tt.name)
		}
	}
}
