// Package memory holds the short-term conversational context for a chat
// session: a fixed-capacity ring of the most recent query/answer turns.
// When the ring is full the oldest turn is evicted. It is intentionally
// separate from persisted chat history — this is what the model sees,
// not what the citizen can scroll back through.
package memory

import (
	"sync"
	"time"
)

// Turn is one completed exchange: the citizen's query and the answer given.
type Turn struct {
	// Query is the citizen's question as asked.
	Query string

	// Answer is the reply that was returned for it.
	Answer string

	// At is when the turn completed.
	At time.Time
}

// Buffer is a fixed-capacity ring of turns, safe for concurrent use.
type Buffer struct {
	mu    sync.Mutex
	turns []Turn
	start int // index of the oldest turn
	size  int // number of stored turns
}

// DefaultCapacity keeps three full exchanges in the prompt window.
const DefaultCapacity = 6

// NewBuffer creates a Buffer holding at most capacity turns. A capacity
// of zero or less falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{turns: make([]Turn, capacity)}
}

// Append records a completed turn, evicting the oldest when full.
func (b *Buffer) Append(t Turn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size < len(b.turns) {
		b.turns[(b.start+b.size)%len(b.turns)] = t
		b.size++
		return
	}
	b.turns[b.start] = t
	b.start = (b.start + 1) % len(b.turns)
}

// Recent returns up to n turns in chronological order, oldest first.
// n <= 0 returns all stored turns.
func (b *Buffer) Recent(n int) []Turn {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 || n > b.size {
		n = b.size
	}

	out := make([]Turn, 0, n)
	first := b.size - n
	for i := first; i < b.size; i++ {
		out = append(out, b.turns[(b.start+i)%len(b.turns)])
	}
	return out
}

// Len returns the number of stored turns.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Clear drops all stored turns.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.start = 0
	b.size = 0
}
