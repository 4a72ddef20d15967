// Package wire defines the decoded command and telemetry frames exchanged
// between the device and the DCM, and their CBOR codec.
//
// Frames use integer map keys and canonical encoding so the same bytes are
// produced for the same frame on both ends. Transport framing, checksums,
// and byte-level serial encoding are the transport collaborator's job; this
// package only concerns the decoded structures.
//
// Frame kinds:
//   - Request (DCM -> device): SetParameter, SetMode, RequestTelemetry,
//     SetClock, RequestDeviceInfo.
//   - Response (device -> DCM): per-request Ack/Reject with status code.
//   - Notification (device -> DCM, MessageID 0): unsolicited fault push.
package wire
