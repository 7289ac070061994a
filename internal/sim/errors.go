package sim

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Domain errors for simulation operations.
var (
	// ErrInitialization indicates particles could not be placed without overlap.
	ErrInitialization = errors.New("sim: failed to place particles without overlap")

	// ErrCellBounds indicates a particle hashed to a cell outside the grid.
	ErrCellBounds = errors.New("sim: particle outside cell grid")

	// ErrParticleBounds indicates a particle left the box after wrapping.
	ErrParticleBounds = errors.New("sim: particle outside box")

	// ErrOverlap indicates two particles came closer than allowed.
	ErrOverlap = errors.New("sim: particle overlap")

	// ErrInfiniteForce indicates a force evaluated to NaN or Inf.
	ErrInfiniteForce = errors.New("sim: infinite force")

	// ErrInput indicates invalid configuration or input data.
	ErrInput = errors.New("sim: invalid input")
)

var codes = map[error]int{
	ErrInitialization: 7701,
	ErrCellBounds:     7702,
	ErrParticleBounds: 7703,
	ErrOverlap:        7704,
	ErrInfiniteForce:  7705,
	ErrInput:          7706,
}

// Code returns the numeric code for err, or 0 if err wraps none of the
// domain errors.
func Code(err error) int {
	for target, code := range codes {
		if errors.Is(err, target) {
			return code
		}
	}
	return 0
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// ParticleError reports a single misplaced particle.
type ParticleError struct {
	ID  int
	Pos r3.Vec
	Err error
}

func (e *ParticleError) Error() string {
	return fmt.Sprintf("%v: particle %d at (%.4f, %.4f, %.4f)", e.Err, e.ID, e.Pos.X, e.Pos.Y, e.Pos.Z)
}

func (e *ParticleError) Unwrap() error { return e.Err }

// OverlapError reports a pair closer than the overlap threshold.
type OverlapError struct {
	I, J int
	R    float64
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%v: particles %d and %d at r=%.5f", ErrOverlap, e.I, e.J, e.R)
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }
