// Package transport carries DCM frames over a byte stream.
//
// Frames are length-prefixed (4-byte big-endian) CBOR payloads. On the
// implanted device this link is a serial line owned by the board support
// layer; the bench rendition here runs the same framing over TCP so the
// DCM client can talk to the device simulator. Checksums and byte-level
// serial encoding are the underlying stream's concern, not this package's.
//
// Server is the device side: it accepts one DCM connection at a time,
// hands each inbound frame to a Handler, and writes the response back.
// Client is the DCM side: request/response correlation by message ID plus
// a callback for unsolicited notifications.
package transport
