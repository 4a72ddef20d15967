package wire

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/openpacer/pacer-go/pkg/log"
)

// MessageID 0 is reserved to indicate a notification message.
const NotificationMessageID uint32 = 0

// Request represents a DCM command frame.
//
// CBOR encoding:
//
//	{
//	  1: messageId,  // uint32, non-zero
//	  2: opcode,     // uint8
//	  3: field,      // uint8: parameter field (SetParameter)
//	  4: mode,       // uint8: pacing mode (SetMode)
//	  5: value,      // float64: parameter value (SetParameter)
//	  6: clock       // timestamp (SetClock)
//	}
type Request struct {
	MessageID uint32    `cbor:"1,keyasint"`
	Opcode    Opcode    `cbor:"2,keyasint"`
	Field     uint8     `cbor:"3,keyasint,omitempty"`
	Mode      uint8     `cbor:"4,keyasint,omitempty"`
	Value     float64   `cbor:"5,keyasint,omitempty"`
	Clock     time.Time `cbor:"6,keyasint,omitempty"`
}

// Validate checks frame-level validity. Parameter semantics (bounds,
// constraints) are the gateway's job; this only rejects frames that cannot
// be dispatched at all.
func (r *Request) Validate() error {
	if r.MessageID == NotificationMessageID {
		return fmt.Errorf("messageId 0 is reserved for notifications")
	}
	if !r.Opcode.IsValid() {
		return fmt.Errorf("invalid opcode: %d", r.Opcode)
	}
	return nil
}

// Response represents a device reply frame.
//
// CBOR encoding:
//
//	{
//	  1: messageId,  // uint32: matches request
//	  2: status,     // uint8: 0=success, or rejection code
//	  3: payload     // operation-specific response data
//	}
//
// Payload stays raw CBOR so callers decode it into the typed payload
// matching the request they sent.
type Response struct {
	MessageID uint32          `cbor:"1,keyasint"`
	Status    Status          `cbor:"2,keyasint"`
	Payload   cbor.RawMessage `cbor:"3,keyasint,omitempty"`
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// TelemetryPayload is the response payload for RequestTelemetry.
//
// CBOR encoding:
//
//	{
//	  1: mode,        // uint8
//	  2: parameters,  // map field -> value
//	  3: events       // array of device events, oldest first
//	}
type TelemetryPayload struct {
	Mode       uint8             `cbor:"1,keyasint"`
	Parameters map[uint8]float64 `cbor:"2,keyasint"`
	Events     []log.Event       `cbor:"3,keyasint,omitempty"`
}

// DeviceInfoPayload is the response payload for RequestDeviceInfo.
type DeviceInfoPayload struct {
	DeviceID        string    `cbor:"1,keyasint"`
	Model           string    `cbor:"2,keyasint,omitempty"`
	FirmwareVersion string    `cbor:"3,keyasint,omitempty"`
	Clock           time.Time `cbor:"4,keyasint,omitempty"`
}

// RejectPayload carries a human-readable rejection reason.
type RejectPayload struct {
	Reason string `cbor:"1,keyasint,omitempty"`
}

// Notification represents an unsolicited device-to-DCM frame.
// MessageID 0 on the wire marks it as a notification.
//
// CBOR encoding:
//
//	{
//	  1: 0,      // messageId 0 = notification
//	  2: kind,   // uint8
//	  3: event   // the device event (faults)
//	}
type Notification struct {
	Kind  NotificationKind `cbor:"2,keyasint"`
	Event *log.Event       `cbor:"3,keyasint,omitempty"`
}

// NotificationKind classifies unsolicited frames.
type NotificationKind uint8

const (
	// NotifyFault pushes a device fault to the DCM operator. Faults never
	// silently disappear.
	NotifyFault NotificationKind = 1
)

// String returns the notification kind name.
func (k NotificationKind) String() string {
	switch k {
	case NotifyFault:
		return "FAULT"
	default:
		return "UNKNOWN"
	}
}
