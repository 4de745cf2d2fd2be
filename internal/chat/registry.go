package chat

import (
	"errors"
	"log"
	"slices"
	"sync"
)

// Member is the capability the Registry needs from a participant: an id for
// announcements, a way to deliver one line, and a way to cut it off.
//
// Members are used as set keys, so implementations must be comparable (pointers in practice).
type Member interface {
	ID() string
	Send(line string) error
	Close() error
}

// Registry is the single authority over the set of live members and all fan-out.
type Registry struct {
	mu      sync.RWMutex
	members []Member
	index   map[Member]struct{}

	logger *log.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger routes registry and session logs to logger.
func WithLogger(logger *log.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		index:  make(map[Member]struct{}),
		logger: log.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register adds m to the live set. It reports false if m was already present.
func (r *Registry) Register(m Member) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[m]; ok {
		return false
	}
	r.index[m] = struct{}{}
	r.members = append(r.members, m)
	return true
}

// Remove drops m from the live set. Removing an absent member is a no-op and reports false.
func (r *Registry) Remove(m Member) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[m]; !ok {
		return false
	}
	delete(r.index, m)
	if i := slices.Index(r.members, m); i >= 0 {
		r.members = slices.Delete(r.members, i, i+1)
	}
	return true
}

// Contains reports whether m is currently registered.
func (r *Registry) Contains(m Member) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[m]
	return ok
}

// Len returns the number of live members.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Snapshot returns the live members in registration order.
func (r *Registry) Snapshot() []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.members)
}

// Broadcast delivers msg to every member, in registration order, that is registered
// when the call starts and still registered when its turn comes. Empty messages are dropped.
//
// A failed delivery never stops the fan-out: once every other member has been
// served, each failed recipient is taken through Leave.
func (r *Registry) Broadcast(msg string) {
	if msg == "" {
		return
	}

	var failed []Member
	for _, m := range r.Snapshot() {
		if !r.Contains(m) {
			continue
		}
		if err := m.Send(msg); err != nil {
			if !errors.Is(err, ErrSessionClosed) {
				r.logger.Printf("chat: deliver to %s failed: %v", m.ID(), err)
			}
			failed = append(failed, m)
		}
	}

	for _, m := range failed {
		r.Leave(m)
	}
}

// Leave is the teardown path shared by read-side and write-side failures: it removes m,
// closes it and announces the disconnect to the remaining members. Only the first call
// for a given member has any effect.
func (r *Registry) Leave(m Member) {
	if !r.Remove(m) {
		return
	}
	if err := m.Close(); err != nil {
		r.logger.Printf("chat: close %s: %v", m.ID(), err)
	}
	r.Broadcast(DisconnectedMessage(m.ID()))
}
