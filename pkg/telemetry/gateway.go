package telemetry

import (
	"errors"
	"sync"
	"time"

	"github.com/openpacer/pacer-go/pkg/log"
	"github.com/openpacer/pacer-go/pkg/params"
	"github.com/openpacer/pacer-go/pkg/wire"
)

// DefaultRecentEvents is how many recent events a telemetry frame carries.
const DefaultRecentEvents = 32

// Config configures a Gateway.
type Config struct {
	// Store is the parameter store (required).
	Store *params.Store

	// Events is the ring logger backing the telemetry recent-event log.
	// Nil means telemetry frames carry no events.
	Events *log.MemoryLogger

	// DeviceID reported in device info.
	DeviceID string

	// Model reported in device info.
	Model string

	// FirmwareVersion reported in device info.
	FirmwareVersion string

	// RecentEvents overrides how many events a telemetry frame carries.
	RecentEvents int
}

// Gateway decodes DCM command frames into parameter store writes or mode
// switches and encodes responses and telemetry. Safe for concurrent use,
// though the link delivers one frame at a time.
type Gateway struct {
	store        *params.Store
	events       *log.MemoryLogger
	deviceID     string
	model        string
	firmware     string
	recentEvents int

	// clockOffset adjusts the device clock relative to the host clock,
	// set by the DCM's SetClock command.
	mu          sync.Mutex
	clockOffset time.Duration
}

// NewGateway creates a gateway over the given store.
func NewGateway(cfg Config) (*Gateway, error) {
	if cfg.Store == nil {
		return nil, errors.New("gateway requires a parameter store")
	}
	recent := cfg.RecentEvents
	if recent <= 0 {
		recent = DefaultRecentEvents
	}
	return &Gateway{
		store:        cfg.Store,
		events:       cfg.Events,
		deviceID:     cfg.DeviceID,
		model:        cfg.Model,
		firmware:     cfg.FirmwareVersion,
		recentEvents: recent,
	}, nil
}

// HandleFrame processes one inbound command frame and returns the encoded
// response frame. Every command gets an explicit answer; a frame that
// cannot be decoded is answered with StatusMalformed and mutates nothing.
func (g *Gateway) HandleFrame(data []byte) []byte {
	req, err := wire.DecodeRequest(data)
	if err != nil {
		// Best-effort correlation: the message ID may still be readable
		// even when the rest of the frame is not.
		id, _ := wire.PeekMessageID(data)
		return g.respond(id, wire.StatusMalformed, &wire.RejectPayload{Reason: err.Error()})
	}

	switch req.Opcode {
	case wire.OpSetParameter:
		return g.handleSetParameter(req)
	case wire.OpSetMode:
		return g.handleSetMode(req)
	case wire.OpRequestTelemetry:
		return g.respond(req.MessageID, wire.StatusSuccess, g.telemetryPayload())
	case wire.OpSetClock:
		return g.handleSetClock(req)
	case wire.OpRequestDeviceInfo:
		return g.respond(req.MessageID, wire.StatusSuccess, g.deviceInfoPayload())
	default:
		return g.respond(req.MessageID, wire.StatusUnknownOpcode, nil)
	}
}

// handleSetParameter validates and applies one parameter write.
func (g *Gateway) handleSetParameter(req *wire.Request) []byte {
	err := g.store.Write(params.Field(req.Field), req.Value)
	if err == nil {
		return g.respond(req.MessageID, wire.StatusSuccess, nil)
	}

	status := wire.StatusInternal
	switch {
	case errors.Is(err, params.ErrUnknownField):
		status = wire.StatusUnknownParameter
	case errors.Is(err, params.ErrOutOfRange):
		status = wire.StatusValueOutOfRange
	case errors.Is(err, params.ErrConstraint):
		status = wire.StatusConstraintViolation
	}
	return g.respond(req.MessageID, status, &wire.RejectPayload{Reason: err.Error()})
}

// handleSetMode validates and applies a mode switch.
func (g *Gateway) handleSetMode(req *wire.Request) []byte {
	if err := g.store.SetMode(params.Mode(req.Mode)); err != nil {
		return g.respond(req.MessageID, wire.StatusInvalidMode, &wire.RejectPayload{Reason: err.Error()})
	}
	return g.respond(req.MessageID, wire.StatusSuccess, nil)
}

// handleSetClock sets the device clock used for operator-facing timestamps.
func (g *Gateway) handleSetClock(req *wire.Request) []byte {
	if req.Clock.IsZero() {
		return g.respond(req.MessageID, wire.StatusMalformed, &wire.RejectPayload{Reason: "clock not set"})
	}
	g.mu.Lock()
	g.clockOffset = time.Until(req.Clock)
	g.mu.Unlock()
	return g.respond(req.MessageID, wire.StatusSuccess, nil)
}

// DeviceClock returns the device clock reading.
func (g *Gateway) DeviceClock() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return time.Now().Add(g.clockOffset)
}

// telemetryPayload builds the telemetry frame content from the current
// store snapshot and the recent event log.
func (g *Gateway) telemetryPayload() *wire.TelemetryPayload {
	snap := g.store.Snapshot()

	values := make(map[uint8]float64, len(snap.Values))
	for f, v := range snap.Values {
		values[uint8(f)] = v
	}

	p := &wire.TelemetryPayload{
		Mode:       uint8(snap.Mode),
		Parameters: values,
	}
	if g.events != nil {
		p.Events = g.events.Recent(g.recentEvents)
	}
	return p
}

// deviceInfoPayload builds the device-info frame content.
func (g *Gateway) deviceInfoPayload() *wire.DeviceInfoPayload {
	return &wire.DeviceInfoPayload{
		DeviceID:        g.deviceID,
		Model:           g.model,
		FirmwareVersion: g.firmware,
		Clock:           g.DeviceClock(),
	}
}

// respond encodes a response frame. Encoding only fails for programming
// errors in the payload types; a failure degrades to a bare internal-error
// response so the DCM always receives an answer.
func (g *Gateway) respond(messageID uint32, status wire.Status, payload any) []byte {
	data, err := wire.EncodeResponse(messageID, status, payload)
	if err != nil {
		data, _ = wire.EncodeResponse(messageID, wire.StatusInternal, nil)
	}
	return data
}
