// Package control delivers termination requests to a single process identity
// and classifies the outcome.
//
// Graceful termination sends SIGTERM and returns immediately; it never waits
// for the process to exit. Forced termination sends SIGKILL. Escalating from
// one to the other is left to the operator.
//
// On Windows there is no cooperative termination primitive for arbitrary
// processes, so both modes map to TerminateProcess and a graceful request
// behaves exactly like a forced one.
package control
