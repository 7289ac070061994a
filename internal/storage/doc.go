// Package storage keeps trials on disk. A trial directory holds:
//
//	metadata.json                     run description and final metrics
//	sysConfig.yaml                    the config the run used
//	series.csv                        one row of observables per output
//	snapshots/time-<t>/recovery.txt   restart data
//	movie/system-<t>.xyz[.zst]        positions per output, optionally zstd
//	histograms/<name>-<t>.txt         coordination and cluster histograms
//	initialState.xyz, finalState.xyz
//
// [Recorder] fills a trial during a run; [Trial.ReadRecovery] and
// [Trial.Rewind] support resuming one.
package storage
