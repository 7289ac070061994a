package sim

import (
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"init", ErrInitialization, 7701},
		{"cell", fmt.Errorf("rebuild: %w", ErrCellBounds), 7702},
		{"bounds", &ParticleError{ID: 1, Err: ErrParticleBounds}, 7703},
		{"overlap", &OverlapError{I: 1, J: 2, R: 0.3}, 7704},
		{"infinite", ErrInfiniteForce, 7705},
		{"input", fmt.Errorf("config: %w", ErrInput), 7706},
		{"unrelated", errors.New("boom"), 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.code {
				t.Errorf("Code() = %d, want %d", got, tt.code)
			}
		})
	}
}

func TestSimulationErrorUnwrap(t *testing.T) {
	err := &SimulationError{Step: 12, Time: 0.012, Wrapped: &OverlapError{I: 0, J: 1, R: 0.5}}

	if !errors.Is(err, ErrOverlap) {
		t.Error("expected SimulationError to unwrap to ErrOverlap")
	}

	var oe *OverlapError
	if !errors.As(err, &oe) || oe.J != 1 {
		t.Error("expected OverlapError via errors.As")
	}
}
