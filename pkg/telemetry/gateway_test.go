package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openpacer/pacer-go/pkg/log"
	"github.com/openpacer/pacer-go/pkg/params"
	"github.com/openpacer/pacer-go/pkg/wire"
)

func newTestGateway(t *testing.T) (*Gateway, *params.Store, *log.MemoryLogger) {
	t.Helper()

	store := params.NewStore()
	events := log.NewMemoryLogger(0)
	gw, err := NewGateway(Config{
		Store:           store,
		Events:          events,
		DeviceID:        "11111111-2222-3333-4444-555555555555",
		Model:           "PACER-100",
		FirmwareVersion: "1.0",
	})
	require.NoError(t, err)
	return gw, store, events
}

// roundTrip encodes the request, runs it through the gateway and decodes the
// response.
func roundTrip(t *testing.T, gw *Gateway, req *wire.Request) *wire.Response {
	t.Helper()

	if req.MessageID == 0 {
		req.MessageID = 1
	}
	frame, err := wire.EncodeRequest(req)
	require.NoError(t, err)

	respFrame := gw.HandleFrame(frame)
	require.NotNil(t, respFrame)

	resp, err := wire.DecodeResponse(respFrame)
	require.NoError(t, err)
	require.Equal(t, req.MessageID, resp.MessageID)
	return resp
}

func TestGatewaySetParameter(t *testing.T) {
	gw, store, _ := newTestGateway(t)

	resp := roundTrip(t, gw, &wire.Request{
		Opcode: wire.OpSetParameter,
		Field:  uint8(params.FieldLowerRateLimit),
		Value:  70,
	})
	require.Equal(t, wire.StatusSuccess, resp.Status)

	v, err := store.Read(params.FieldLowerRateLimit)
	require.NoError(t, err)
	require.Equal(t, 70.0, v)
}

func TestGatewaySetParameterRejections(t *testing.T) {
	tests := []struct {
		name   string
		field  uint8
		value  float64
		status wire.Status
	}{
		{"unknown field", 99, 1, wire.StatusUnknownParameter},
		{"out of range", uint8(params.FieldLowerRateLimit), 42, wire.StatusValueOutOfRange},
		{"constraint violation", uint8(params.FieldLowerRateLimit), 150, wire.StatusConstraintViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, store, _ := newTestGateway(t)
			before := store.Snapshot()

			resp := roundTrip(t, gw, &wire.Request{
				Opcode: wire.OpSetParameter,
				Field:  tt.field,
				Value:  tt.value,
			})
			require.Equal(t, tt.status, resp.Status)

			// Every rejection carries a human-readable reason.
			reject, err := wire.DecodeRejectPayload(resp.Payload)
			require.NoError(t, err)
			require.NotEmpty(t, reject.Reason)

			// Rejected commands mutate nothing.
			after := store.Snapshot()
			require.Equal(t, before.Values, after.Values)
			require.Equal(t, before.Revision, after.Revision)
		})
	}
}

func TestGatewaySetMode(t *testing.T) {
	gw, store, _ := newTestGateway(t)

	resp := roundTrip(t, gw, &wire.Request{Opcode: wire.OpSetMode, Mode: uint8(params.ModeAOO)})
	require.Equal(t, wire.StatusSuccess, resp.Status)
	require.Equal(t, params.ModeAOO, store.Mode())

	resp = roundTrip(t, gw, &wire.Request{Opcode: wire.OpSetMode, Mode: 9})
	require.Equal(t, wire.StatusInvalidMode, resp.Status)
	require.Equal(t, params.ModeAOO, store.Mode())
}

func TestGatewayTelemetry(t *testing.T) {
	gw, store, events := newTestGateway(t)

	require.NoError(t, store.Write(params.FieldLowerRateLimit, 70))
	events.Log(log.Event{
		Timestamp: time.Now(),
		Category:  log.CategoryPace,
		Pace:      &log.PaceEvent{Chamber: log.ChamberVentricle, Amplitude: 3.5, Width: 0.4},
	})

	resp := roundTrip(t, gw, &wire.Request{Opcode: wire.OpRequestTelemetry})
	require.Equal(t, wire.StatusSuccess, resp.Status)

	payload, err := wire.DecodeTelemetryPayload(resp.Payload)
	require.NoError(t, err)

	require.Equal(t, uint8(params.ModeVVI), payload.Mode)
	require.Len(t, payload.Parameters, len(params.AllFields()))
	require.Equal(t, 70.0, payload.Parameters[uint8(params.FieldLowerRateLimit)])

	require.Len(t, payload.Events, 1)
	require.Equal(t, log.CategoryPace, payload.Events[0].Category)
}

func TestGatewayTelemetryEventLimit(t *testing.T) {
	store := params.NewStore()
	events := log.NewMemoryLogger(0)
	gw, err := NewGateway(Config{Store: store, Events: events, RecentEvents: 2})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		events.Log(log.Event{Category: log.CategorySense, Sense: &log.SenseEvent{Chamber: log.ChamberVentricle}})
	}

	resp := roundTrip(t, gw, &wire.Request{Opcode: wire.OpRequestTelemetry})
	payload, err := wire.DecodeTelemetryPayload(resp.Payload)
	require.NoError(t, err)
	require.Len(t, payload.Events, 2)
}

func TestGatewayDeviceInfo(t *testing.T) {
	gw, _, _ := newTestGateway(t)

	resp := roundTrip(t, gw, &wire.Request{Opcode: wire.OpRequestDeviceInfo})
	require.Equal(t, wire.StatusSuccess, resp.Status)

	info, err := wire.DecodeDeviceInfoPayload(resp.Payload)
	require.NoError(t, err)
	require.Equal(t, "11111111-2222-3333-4444-555555555555", info.DeviceID)
	require.Equal(t, "PACER-100", info.Model)
	require.Equal(t, "1.0", info.FirmwareVersion)
	require.False(t, info.Clock.IsZero())
}

func TestGatewaySetClock(t *testing.T) {
	gw, _, _ := newTestGateway(t)

	target := time.Now().Add(-3 * time.Hour)
	resp := roundTrip(t, gw, &wire.Request{Opcode: wire.OpSetClock, Clock: target})
	require.Equal(t, wire.StatusSuccess, resp.Status)

	got := gw.DeviceClock()
	require.InDelta(t, 0, got.Sub(target).Seconds(), 1.0)

	// A zero clock is malformed.
	resp = roundTrip(t, gw, &wire.Request{Opcode: wire.OpSetClock})
	require.Equal(t, wire.StatusMalformed, resp.Status)
}

func TestGatewayMalformedFrame(t *testing.T) {
	gw, store, _ := newTestGateway(t)
	before := store.Snapshot()

	respFrame := gw.HandleFrame([]byte{0xde, 0xad, 0xbe, 0xef})
	require.NotNil(t, respFrame)

	resp, err := wire.DecodeResponse(respFrame)
	require.NoError(t, err)
	require.Equal(t, wire.StatusMalformed, resp.Status)

	after := store.Snapshot()
	require.Equal(t, before.Values, after.Values)
	require.Equal(t, before.Revision, after.Revision)
	require.Equal(t, before.Mode, after.Mode)
}

func TestGatewayUnknownOpcode(t *testing.T) {
	gw, _, _ := newTestGateway(t)

	// An unknown opcode fails request validation, so it surfaces as a
	// malformed frame rather than dispatching.
	frame, err := wire.Marshal(&wire.Request{MessageID: 8, Opcode: wire.Opcode(42)})
	require.NoError(t, err)

	resp, err := wire.DecodeResponse(gw.HandleFrame(frame))
	require.NoError(t, err)
	require.Equal(t, uint32(8), resp.MessageID)
	require.Equal(t, wire.StatusMalformed, resp.Status)
}
