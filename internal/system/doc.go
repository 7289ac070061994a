// Package system ties particles, the cell grid, the force manager and an
// integrator together and runs them.
//
// A run is New, Init, then Run. Each step clears per-particle bookkeeping,
// evaluates forces over the grid, advances positions, rebuilds the grid and
// advances the clock. Metrics see every step; observers such as the trial
// recorder see every OutputFreq steps and the final state.
//
// Snapshot and Restore support resuming a trial from its recovery files.
package system
