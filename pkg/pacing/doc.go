// Package pacing implements the real-time pacing core: per-chamber sense
// and pace channels and the mode state machine that decides when to deliver
// a pulse.
//
// The engine is a single-consumer event loop. Interrupt-level sources
// (sense hardware, timer service, pulse driver acknowledgements, the
// telemetry gateway) only enqueue events; one goroutine processes them to
// completion one at a time, so state machine logic never needs locks and
// never observes a half-applied configuration.
//
// Nothing in the engine is fatal. A pulse that is never acknowledged, or a
// timer that fires late, is surfaced as a fault event and scheduling
// continues: withholding all future pacing is more dangerous than one
// missed beat.
package pacing
