package chat

import "sync"

// lineBuffer stores the input line a terminal user is still typing.
type lineBuffer struct {
	mu   sync.RWMutex
	data []rune
}

func newLineBuffer(capacity int) *lineBuffer {
	if capacity <= 0 {
		capacity = 128
	}
	return &lineBuffer{
		data: make([]rune, 0, capacity),
	}
}

func (b *lineBuffer) Append(r rune) {
	b.mu.Lock()
	b.data = append(b.data, r)
	b.mu.Unlock()
}

// TrimLast drops the last rune and reports whether there was one.
func (b *lineBuffer) TrimLast() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.data)
	if n == 0 {
		return false
	}
	b.data = b.data[:n-1]
	return true
}

func (b *lineBuffer) Drain() string {
	b.mu.Lock()
	text := string(b.data)
	b.data = b.data[:0]
	b.mu.Unlock()
	return text
}

func (b *lineBuffer) Snapshot() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.data)
}
