// Package sampler captures point-in-time snapshots of the host process table.
//
// A Sampler is stateful: it retains the cumulative CPU time observed for each
// process identity (pid plus start time) so that the next sample can report CPU
// utilisation as a delta over elapsed wall time. A process reports 0% on the
// first sample it appears in, and again whenever its pid is reused by a new
// process. One fully busy core is reported as 100%.
//
// Processes whose metrics cannot be read by the caller (typically because they
// belong to another user) are omitted from the snapshot rather than failing the
// whole sample.
package sampler
