// Package integrators advances particle positions given the forces stored
// on each particle.
//
//   - brownian: van Gunsteren-Berendsen stochastic dynamics with friction gamma
//   - verlet: velocity Verlet, energy conserving for testing potentials
//   - euler: semi-implicit Euler
//
// All integrators satisfy [sim.Integrator] and spread per-particle work over
// a [compute.Backend].
package integrators
