package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openpacer/pacer-go/pkg/log"
	"github.com/openpacer/pacer-go/pkg/wire"
)

func TestFaultForwarderPushesFaults(t *testing.T) {
	var frames [][]byte
	fw := NewFaultForwarder(func(frame []byte) { frames = append(frames, frame) })

	fault := log.Event{
		Timestamp: time.Now(),
		DeviceID:  "dev-1",
		Category:  log.CategoryFault,
		Fault: &log.FaultEvent{
			Code:    log.FaultTimerOverrun,
			Chamber: log.ChamberVentricle,
			Message: "interval timer fired late",
		},
	}
	fw.Log(fault)

	require.Len(t, frames, 1)

	notif, err := wire.DecodeNotification(frames[0])
	require.NoError(t, err)
	require.Equal(t, wire.NotifyFault, notif.Kind)
	require.NotNil(t, notif.Event)
	require.NotNil(t, notif.Event.Fault)
	require.Equal(t, log.FaultTimerOverrun, notif.Event.Fault.Code)
	require.Equal(t, "interval timer fired late", notif.Event.Fault.Message)
}

func TestFaultForwarderIgnoresOtherCategories(t *testing.T) {
	var frames [][]byte
	fw := NewFaultForwarder(func(frame []byte) { frames = append(frames, frame) })

	fw.Log(log.Event{Category: log.CategorySense, Sense: &log.SenseEvent{Chamber: log.ChamberAtrium}})
	fw.Log(log.Event{Category: log.CategoryPace, Pace: &log.PaceEvent{Chamber: log.ChamberVentricle}})
	fw.Log(log.Event{Category: log.CategoryState, State: &log.StateEvent{NewState: "RUNNING"}})

	require.Empty(t, frames)
}

func TestFaultForwarderNilSend(t *testing.T) {
	fw := NewFaultForwarder(nil)

	// Must not panic.
	fw.Log(log.Event{Category: log.CategoryFault, Fault: &log.FaultEvent{Code: log.FaultHardware}})
}
