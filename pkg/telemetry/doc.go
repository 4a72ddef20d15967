// Package telemetry implements the command gateway between the DCM link
// and the pacing core.
//
// Inbound command frames are decoded and dispatched to the parameter store;
// every command gets an explicit ack or reject response. Outbound frames
// are built from the store snapshot and the recent device event log.
// Malformed frames are answered with a specific error and mutate nothing.
//
// The gateway is the only writer of the parameter store. The pacing engine
// observes applied writes through the store's change hook and performs its
// own timing reset; the gateway never touches engine state directly.
package telemetry
