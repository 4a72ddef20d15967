// Package params holds the programmable pacing parameters and the active
// mode.
//
// Every parameter has clinically safe bounds and a programming step; writes
// outside the declared value set are rejected outright, never clamped. The
// store hands out consistent snapshots under a single lock acquisition so
// the pacing engine's reset observes either the fully-old or fully-new value
// set, never a mix.
package params
