// Package log provides the device event record and logging for pacer-go.
//
// Every observable action of the pacing core (sensed beats, delivered pulses,
// parameter writes, mode switches, device faults) is captured as an Event and
// handed to a Logger. Events use integer-keyed CBOR so the same record that
// feeds local diagnostics can be shipped to the DCM inside telemetry frames
// without re-encoding.
//
// Implementations:
//   - NoopLogger: discards everything.
//   - MemoryLogger: bounded ring buffer, backs the telemetry recent-event log.
//   - FileLogger: appends CBOR-encoded events to a file.
//   - MultiLogger: fans out to several loggers.
package log
