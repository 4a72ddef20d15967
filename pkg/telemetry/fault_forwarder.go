package telemetry

import (
	"github.com/openpacer/pacer-go/pkg/log"
	"github.com/openpacer/pacer-go/pkg/wire"
)

// FaultForwarder is a log.Logger that pushes fault events to the DCM as
// unsolicited notification frames. Non-fault events pass through untouched
// to whatever else is in the logger fan-out.
type FaultForwarder struct {
	send func(frame []byte)
}

// NewFaultForwarder creates a forwarder. send delivers an encoded
// notification frame to the connected DCM; it is called inline and must
// not block (the transport server's push path buffers internally).
func NewFaultForwarder(send func(frame []byte)) *FaultForwarder {
	return &FaultForwarder{send: send}
}

// Log forwards fault events as notification frames.
func (f *FaultForwarder) Log(event log.Event) {
	if event.Category != log.CategoryFault || f.send == nil {
		return
	}

	ev := event
	frame, err := wire.EncodeNotification(&wire.Notification{
		Kind:  wire.NotifyFault,
		Event: &ev,
	})
	if err != nil {
		return
	}
	f.send(frame)
}

var _ log.Logger = (*FaultForwarder)(nil)
