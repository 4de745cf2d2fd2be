package chat

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// State is the lifecycle state of a session.
type State int32

const (
	StateActive State = iota
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Session bridges one Conn to the Registry.
type Session struct {
	id       string
	key      uuid.UUID
	conn     Conn
	registry *Registry

	state    atomic.Int32
	teardown sync.Once
	done     chan struct{}
}

// NewSession creates an unregistered session over conn. Most callers want Serve.
func NewSession(registry *Registry, id string, conn Conn) *Session {
	return &Session{
		id:       id,
		key:      uuid.New(),
		conn:     conn,
		registry: registry,
		done:     make(chan struct{}),
	}
}

// Serve onboards conn: the session is registered before Serve returns and its read
// loop runs in its own goroutine.
func Serve(registry *Registry, id string, conn Conn) *Session {
	s := NewSession(registry, id, conn)
	registry.Register(s)
	s.Start()
	return s
}

// ID returns the display name used in announcements and message prefixes.
func (s *Session) ID() string { return s.id }

// Key uniquely identifies the session; display ids may collide.
func (s *Session) Key() uuid.UUID { return s.key }

// State reports whether the session is still active.
func (s *Session) State() State { return State(s.state.Load()) }

// Done is closed once teardown has finished.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start announces the session and spawns its read loop. It does not block.
func (s *Session) Start() {
	go s.run()
}

// Send writes one line to the session's connection.
func (s *Session) Send(line string) error {
	if s.State() != StateActive {
		return ErrSessionClosed
	}
	if err := s.conn.WriteLine(line); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, s.id, err)
	}
	return nil
}

// Close cuts the connection; the read loop then runs the teardown.
func (s *Session) Close() error {
	s.state.Store(int32(StateDisconnected))
	return s.conn.Close()
}

func (s *Session) run() {
	defer s.finish()

	logger := s.registry.logger
	if !s.registry.Contains(s) {
		return
	}
	logger.Printf("chat: %s joined (session %s, %d online)", s.id, s.key, s.registry.Len())
	s.registry.Broadcast(ConnectedMessage(s.id))

	if err := s.readLoop(); err != nil && s.State() == StateActive {
		logger.Printf("chat: session %s (%s): %v", s.id, s.key, err)
	}
}

func (s *Session) readLoop() error {
	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("%w: %w", ErrRead, err)
		}
		s.registry.Broadcast(UserMessage(s.id, line))
	}
}

// finish runs once on any terminal read condition: deregister, close and announce together.
func (s *Session) finish() {
	s.teardown.Do(func() {
		s.registry.Leave(s)
		_ = s.Close()
		s.registry.logger.Printf("chat: %s left (session %s, %d online)", s.id, s.key, s.registry.Len())
		close(s.done)
	})
}
