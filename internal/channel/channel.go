// Package channel implements the local output channel the bridge writes
// packets to. The bridge is the server side; one consumer is connected at a
// time, and frames written while none is connected are dropped.
package channel

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"
)

// DefaultPipeName is the named pipe the game-side consumer opens.
const DefaultPipeName = `\\.\pipe\FNVRTracker`

var (
	// ErrNoConsumer is returned when a frame is dropped because no consumer
	// is connected.
	ErrNoConsumer = errors.New("no consumer connected")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("channel closed")
)

// Server accepts consumers on a listener and writes packets to the current one.
type Server struct {
	ln           net.Listener
	writeTimeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	closed bool
	done   chan struct{}

	onConnect    func(remote string)
	onDisconnect func(err error)
}

// Listen opens a listener and starts accepting consumers. network is
// "unix", "tcp" or "pipe" (Windows named pipes).
func Listen(network, address string) (*Server, error) {
	ln, err := listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s %s: %w", network, address, err)
	}
	return Serve(ln), nil
}

// Serve starts accepting consumers on an existing listener.
func Serve(ln net.Listener) *Server {
	s := &Server{
		ln:   ln,
		done: make(chan struct{}),
	}
	go s.acceptLoop()
	return s
}

// Notify registers callbacks run from the accept and write paths when a
// consumer connects or is dropped. Either may be nil.
func (s *Server) Notify(onConnect func(remote string), onDisconnect func(err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnect = onConnect
	s.onDisconnect = onDisconnect
}

// SetWriteTimeout sets a per-packet write deadline after which a slow
// consumer is dropped. The default of zero lets a write block until the
// consumer reads, stalling the frame loop.
func (s *Server) SetWriteTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeTimeout = d
}

// Addr returns the listener address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

func (s *Server) acceptLoop() {
	defer close(s.done)

	for {
		c, err := s.ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			log.Printf("Error accepting consumer: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			c.Close()
			return
		}
		old := s.conn
		s.conn = c
		cb := s.onConnect
		s.mu.Unlock()

		// Newest consumer wins.
		if old != nil {
			old.Close()
		}
		log.Printf("Consumer connected")
		if cb != nil {
			cb(c.RemoteAddr().String())
		}
	}
}

// Connected reports whether a consumer is currently connected.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Write sends one packet to the connected consumer. It returns ErrNoConsumer
// when nobody is connected. On a write failure the connection is torn down
// and the server keeps accepting, so the next consumer picks up the stream.
// Write is meant to be called from a single goroutine.
func (s *Server) Write(p []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	c := s.conn
	timeout := s.writeTimeout
	s.mu.Unlock()
	if c == nil {
		return ErrNoConsumer
	}

	// The lock is released so Close and a newer consumer can interrupt a
	// blocked write.
	if timeout > 0 {
		c.SetWriteDeadline(time.Now().Add(timeout))
	}
	_, err := c.Write(p)
	if err == nil {
		return nil
	}

	s.mu.Lock()
	current := s.conn == c
	if current {
		s.conn = nil
	}
	closed := s.closed
	cb := s.onDisconnect
	s.mu.Unlock()
	c.Close()

	if closed {
		return ErrClosed
	}
	if current {
		log.Printf("Consumer disconnected: %v", err)
		if cb != nil {
			cb(err)
		}
	}
	return fmt.Errorf("failed to write packet: %w", err)
}

// Close stops accepting and disconnects the consumer.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	c := s.conn
	s.conn = nil
	s.mu.Unlock()

	if c != nil {
		c.Close()
	}
	err := s.ln.Close()
	<-s.done
	return err
}

// Dial connects to a bridge as a consumer.
func Dial(network, address string) (net.Conn, error) {
	return dial(network, address)
}

func listenSocket(network, address string) (net.Listener, error) {
	if network == "unix" {
		// A stale socket file from an earlier run blocks the bind.
		if fi, err := os.Stat(address); err == nil && fi.Mode()&os.ModeSocket != 0 {
			os.Remove(address)
		}
	}
	return net.Listen(network, address)
}
