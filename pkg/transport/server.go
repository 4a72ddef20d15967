package transport

import (
	"errors"
	"io"
	"net"
	"sync"
)

// Handler processes one inbound frame and returns the response frame.
// The telemetry gateway satisfies this.
type Handler interface {
	HandleFrame(data []byte) []byte
}

// Server is the device side of the DCM link. It accepts one DCM connection
// at a time; a newly accepted connection replaces the previous one, the
// same way re-seating the bedside cable would.
type Server struct {
	handler Handler

	mu      sync.Mutex
	ln      net.Listener
	current *serverConn
	closed  bool
	wg      sync.WaitGroup
}

// writeQueueSize bounds the per-connection outbound buffer. Unsolicited
// pushes overflowing it are dropped rather than ever blocking the caller.
const writeQueueSize = 16

type serverConn struct {
	conn   net.Conn
	framer *Framer
	writes chan []byte
	done   chan struct{}
}

func newServerConn(conn net.Conn) *serverConn {
	return &serverConn{
		conn:   conn,
		framer: NewFramer(conn),
		writes: make(chan []byte, writeQueueSize),
		done:   make(chan struct{}),
	}
}

// writeLoop is the connection's single writer. Responses and pushes are
// serialized here so frames never interleave on the wire. After a write
// error it keeps draining so senders are never stranded.
func (sc *serverConn) writeLoop() {
	failed := false
	for {
		select {
		case frame := <-sc.writes:
			if failed {
				continue
			}
			if err := sc.framer.WriteFrame(frame); err != nil {
				failed = true
				sc.conn.Close()
			}
		case <-sc.done:
			return
		}
	}
}

// push queues an unsolicited frame. Never blocks; a full buffer drops the
// frame.
func (sc *serverConn) push(frame []byte) bool {
	select {
	case sc.writes <- frame:
		return true
	default:
		return false
	}
}

// NewServer creates a server dispatching frames to handler.
func NewServer(handler Handler) *Server {
	return &Server{handler: handler}
}

// Listen starts accepting DCM connections on addr ("host:port").
// Returns the bound address, useful with port 0.
func (s *Server) Listen(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return nil, errors.New("server closed")
	}
	s.ln = ln
	s.mu.Unlock()

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return ln.Addr(), nil
}

// acceptLoop accepts connections until the listener closes.
func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}

		sc := newServerConn(conn)

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		if s.current != nil {
			s.current.conn.Close()
		}
		s.current = sc
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serveConn(sc)
	}
}

// serveConn reads frames and queues responses until the connection drops.
func (s *Server) serveConn(sc *serverConn) {
	defer s.wg.Done()
	defer sc.conn.Close()
	defer close(sc.done)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sc.writeLoop()
	}()

	for {
		frame, err := sc.framer.ReadFrame()
		if err != nil {
			if err == io.EOF {
				break
			}
			// Framing errors on a serial-style link are unrecoverable for
			// this session; drop the connection and wait for a reconnect.
			break
		}

		resp := s.handler.HandleFrame(frame)
		if resp == nil {
			continue
		}
		// Responses may wait on the buffer; only unsolicited pushes must
		// never block.
		sc.writes <- resp
	}

	s.mu.Lock()
	if s.current == sc {
		s.current = nil
	}
	s.mu.Unlock()
}

// Push queues an unsolicited frame (fault notification) for the connected
// DCM. Never blocks: the frame is handed to the connection's writer through
// a bounded buffer and dropped when the buffer is full or no DCM is
// connected; faults remain in the device event log either way.
func (s *Server) Push(frame []byte) {
	s.mu.Lock()
	sc := s.current
	s.mu.Unlock()

	if sc == nil {
		return
	}
	sc.push(frame)
}

// Connected reports whether a DCM is currently connected.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Close stops the listener and drops the current connection.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln := s.ln
	sc := s.current
	s.current = nil
	s.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
	if sc != nil {
		sc.conn.Close()
	}
	s.wg.Wait()
	return nil
}
