// Package sim provides the core primitives shared by every part of the
// particle engine.
//
//   - [Particle]: position, velocity, force history and neighbor list of one colloid
//   - [State]: box geometry, clock and particle set handed between stages
//   - [Integrator], [Observer], [Metric]: interfaces implemented by other packages
//   - [Wrap], [Image], [Separation]: periodic boundary helpers
//
// # Periodic boundaries
//
// Positions live in the half-open cube [0, Box). A particle's Prev field is
// stored as the image of its previous position closest to the current one,
// so Pos-Prev is always the true displacement and integrators can work in
// unwrapped coordinates without tracking box crossings.
//
// # Errors
//
// Domain errors are sentinels that carry stable numeric codes through [Code].
// Failures inside a run are wrapped in [SimulationError] with the step and
// time at which they happened.
package sim
