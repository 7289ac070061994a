// Package forces implements the pair potentials and the manager that turns
// them into per-particle forces.
//
// Available potentials:
//
//   - lennard-jones: n-2n Lennard-Jones well scaled by the contact distance
//   - yukawa: screened electrostatic repulsion
//   - lj-yukawa: both of the above with a shared kT, quenchable
//   - ao: Asakura-Oosawa depletion well with an r^-36 core
//   - calibration: bare r^-36 core
//
// # Conventions
//
// Pair forces are scalars along the separation vector, positive when
// repulsive. A pair closer than 0.8 of the contact distance is an overlap
// and aborts the force evaluation with [sim.ErrOverlap].
//
// # Parameters
//
// Every potential exposes GetParams and SetParam using the same names as
// the run configuration (kT, cutOff, wellDepth, debyeLength, ...).
package forces
