package wire

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/openpacer/pacer-go/pkg/log"
)

// encMode is the CBOR encoder mode for DCM frames.
// Configured for deterministic encoding with integer keys. Timestamps keep
// nanosecond precision; pacing event times are meaningful to the microsecond.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for DCM frames.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical, // Deterministic key ordering
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet, // Ignore duplicate keys (last wins)
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder creates a CBOR encoder that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// EncodeRequest encodes a request frame.
func EncodeRequest(req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return Marshal(req)
}

// DecodeRequest decodes a request frame. A frame that fails here is
// malformed: the gateway answers StatusMalformed and mutates nothing.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &req, nil
}

// EncodeResponse encodes a response frame. payload may be nil; otherwise it
// is CBOR-encoded into the raw payload slot.
func EncodeResponse(messageID uint32, status Status, payload any) ([]byte, error) {
	resp := Response{MessageID: messageID, Status: status}
	if payload != nil {
		raw, err := Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
		resp.Payload = raw
	}
	return Marshal(&resp)
}

// DecodeResponse decodes a response frame. The payload stays raw; use the
// typed payload decoders.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// DecodeTelemetryPayload decodes a telemetry response payload.
func DecodeTelemetryPayload(raw cbor.RawMessage) (*TelemetryPayload, error) {
	var p TelemetryPayload
	if err := Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode telemetry payload: %w", err)
	}
	return &p, nil
}

// DecodeDeviceInfoPayload decodes a device-info response payload.
func DecodeDeviceInfoPayload(raw cbor.RawMessage) (*DeviceInfoPayload, error) {
	var p DeviceInfoPayload
	if err := Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode device info payload: %w", err)
	}
	return &p, nil
}

// DecodeRejectPayload decodes a rejection reason payload. Returns an empty
// payload when raw is nil.
func DecodeRejectPayload(raw cbor.RawMessage) (*RejectPayload, error) {
	if len(raw) == 0 {
		return &RejectPayload{}, nil
	}
	var p RejectPayload
	if err := Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode reject payload: %w", err)
	}
	return &p, nil
}

// EncodeNotification encodes a notification frame.
// Notifications carry messageId 0, which is added automatically.
func EncodeNotification(notif *Notification) ([]byte, error) {
	wireMsg := struct {
		MessageID uint32           `cbor:"1,keyasint"`
		Kind      NotificationKind `cbor:"2,keyasint"`
		Event     any              `cbor:"3,keyasint,omitempty"`
	}{
		MessageID: NotificationMessageID,
		Kind:      notif.Kind,
	}
	if notif.Event != nil {
		wireMsg.Event = notif.Event
	}
	return Marshal(wireMsg)
}

// DecodeNotification decodes a notification frame.
func DecodeNotification(data []byte) (*Notification, error) {
	var wireMsg struct {
		MessageID uint32           `cbor:"1,keyasint"`
		Kind      NotificationKind `cbor:"2,keyasint"`
		Event     cbor.RawMessage  `cbor:"3,keyasint,omitempty"`
	}
	if err := Unmarshal(data, &wireMsg); err != nil {
		return nil, fmt.Errorf("failed to decode notification: %w", err)
	}
	if wireMsg.MessageID != NotificationMessageID {
		return nil, fmt.Errorf("not a notification message: messageId=%d", wireMsg.MessageID)
	}

	notif := &Notification{Kind: wireMsg.Kind}
	if len(wireMsg.Event) > 0 {
		var ev log.Event
		if err := Unmarshal(wireMsg.Event, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode notification event: %w", err)
		}
		notif.Event = &ev
	}
	return notif, nil
}

// PeekMessageID returns the message ID without fully decoding the frame.
// ID 0 identifies a notification; anything else is a response on the DCM
// side or a request on the device side.
func PeekMessageID(data []byte) (uint32, error) {
	var peek struct {
		MessageID uint32 `cbor:"1,keyasint"`
	}
	if err := Unmarshal(data, &peek); err != nil {
		return 0, fmt.Errorf("failed to peek message: %w", err)
	}
	return peek.MessageID, nil
}
