package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/openpacer/pacer-go/pkg/wire"
)

// Client errors.
var (
	// ErrClientClosed indicates the client connection was closed.
	ErrClientClosed = errors.New("client closed")

	// ErrRequestTimeout indicates no response arrived within the timeout.
	ErrRequestTimeout = errors.New("request timed out")
)

// DefaultRequestTimeout bounds how long Send waits for a response.
const DefaultRequestTimeout = 5 * time.Second

// Client is the DCM side of the link: it correlates responses to requests
// by message ID and delivers unsolicited notifications to a callback.
type Client struct {
	conn   net.Conn
	framer *Framer

	mu       sync.Mutex
	nextID   uint32
	pending  map[uint32]chan *wire.Response
	onNotify func(*wire.Notification)
	closed   bool

	done chan struct{}
}

// Dial connects to a device at addr.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to device: %w", err)
	}

	c := &Client{
		conn:    conn,
		framer:  NewFramer(conn),
		pending: make(map[uint32]chan *wire.Response),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// OnNotification sets the callback for unsolicited device frames.
// The callback runs on the read loop goroutine; keep it short.
func (c *Client) OnNotification(fn func(*wire.Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onNotify = fn
}

// readLoop demultiplexes inbound frames into responses and notifications.
func (c *Client) readLoop() {
	defer c.closeInternal()

	for {
		frame, err := c.framer.ReadFrame()
		if err != nil {
			return
		}

		id, err := wire.PeekMessageID(frame)
		if err != nil {
			continue // undecodable frame; the link stays up
		}

		if id == wire.NotificationMessageID {
			notif, err := wire.DecodeNotification(frame)
			if err != nil {
				continue
			}
			c.mu.Lock()
			fn := c.onNotify
			c.mu.Unlock()
			if fn != nil {
				fn(notif)
			}
			continue
		}

		resp, err := wire.DecodeResponse(frame)
		if err != nil {
			continue
		}
		c.mu.Lock()
		ch := c.pending[resp.MessageID]
		delete(c.pending, resp.MessageID)
		c.mu.Unlock()
		if ch != nil {
			ch <- resp
		}
	}
}

// Send transmits a request and waits for the matching response. The
// request's MessageID is assigned by the client. A timeout <= 0 uses
// DefaultRequestTimeout.
func (c *Client) Send(req *wire.Request, timeout time.Duration) (*wire.Response, error) {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	c.nextID++
	if c.nextID == wire.NotificationMessageID {
		c.nextID++
	}
	req.MessageID = c.nextID
	ch := make(chan *wire.Response, 1)
	c.pending[req.MessageID] = ch
	c.mu.Unlock()

	data, err := wire.EncodeRequest(req)
	if err != nil {
		c.abandon(req.MessageID)
		return nil, err
	}
	if err := c.framer.WriteFrame(data); err != nil {
		c.abandon(req.MessageID)
		return nil, err
	}

	select {
	case resp := <-ch:
		if resp == nil {
			return nil, ErrClientClosed
		}
		return resp, nil
	case <-time.After(timeout):
		c.abandon(req.MessageID)
		return nil, ErrRequestTimeout
	case <-c.done:
		return nil, ErrClientClosed
	}
}

// abandon drops a pending request registration.
func (c *Client) abandon(id uint32) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// SetParameter writes one parameter on the device.
func (c *Client) SetParameter(field uint8, value float64, timeout time.Duration) (*wire.Response, error) {
	return c.Send(&wire.Request{Opcode: wire.OpSetParameter, Field: field, Value: value}, timeout)
}

// SetMode switches the device pacing mode.
func (c *Client) SetMode(mode uint8, timeout time.Duration) (*wire.Response, error) {
	return c.Send(&wire.Request{Opcode: wire.OpSetMode, Mode: mode}, timeout)
}

// Telemetry fetches the current mode, parameter snapshot and recent events.
func (c *Client) Telemetry(timeout time.Duration) (*wire.TelemetryPayload, error) {
	resp, err := c.Send(&wire.Request{Opcode: wire.OpRequestTelemetry}, timeout)
	if err != nil {
		return nil, err
	}
	if resp.Status.IsError() {
		return nil, fmt.Errorf("telemetry request rejected: %s", resp.Status)
	}
	return wire.DecodeTelemetryPayload(resp.Payload)
}

// DeviceInfo fetches device identity and firmware version.
func (c *Client) DeviceInfo(timeout time.Duration) (*wire.DeviceInfoPayload, error) {
	resp, err := c.Send(&wire.Request{Opcode: wire.OpRequestDeviceInfo}, timeout)
	if err != nil {
		return nil, err
	}
	if resp.Status.IsError() {
		return nil, fmt.Errorf("device info request rejected: %s", resp.Status)
	}
	return wire.DecodeDeviceInfoPayload(resp.Payload)
}

// SetClock sets the device clock.
func (c *Client) SetClock(t time.Time, timeout time.Duration) (*wire.Response, error) {
	return c.Send(&wire.Request{Opcode: wire.OpSetClock, Clock: t}, timeout)
}

// closeInternal tears down the connection and fails pending requests.
func (c *Client) closeInternal() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	close(c.done)
	c.conn.Close()
}

// Close closes the connection. Pending requests fail with ErrClientClosed.
func (c *Client) Close() error {
	c.closeInternal()
	return nil
}
