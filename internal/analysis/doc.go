// Package analysis measures structure and dynamics of a particle
// configuration.
//
//   - [Temperature], [MeanDisplacement], [MeanCoordination]: per-step observables
//   - [Tracker]: mean squared displacement since the start of a run
//   - [FindClusters]: connected groups over the interaction graph
//   - [IntHistogram] and friends: coordination and cluster size distributions
//   - [RunTest]: named post-run tests over a snapshot and the recorded series
//
// # Clusters
//
// Two particles are bonded when either lists the other as an interaction.
// A cluster is a connected component of the bond graph larger than
// [DefaultMinClusterSize]:
//
//	clusters := analysis.FindClusters(state.Particles, analysis.DefaultMinClusterSize)
//	bins := analysis.ClusterSizeHistogram(clusters)
package analysis
