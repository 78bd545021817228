package chat

import (
	"sync"
	"time"
)

const (
	MaxReconnectAttempts = 5
	ReconnectStep        = 2 * time.Second
)

// Backoff is the reconnect schedule: attempt n waits n*Step, at most Max attempts,
// no jitter. Reset after a successful connection.
type Backoff struct {
	mu       sync.Mutex
	attempts int
	Max      int
	Step     time.Duration
}

func NewBackoff() *Backoff {
	return &Backoff{Max: MaxReconnectAttempts, Step: ReconnectStep}
}

// Next reserves the next attempt and returns its delay, or false once the ceiling is reached.
func (b *Backoff) Next() (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attempts >= b.Max {
		return 0, false
	}
	b.attempts++
	return time.Duration(b.attempts) * b.Step, true
}

func (b *Backoff) Reset() {
	b.mu.Lock()
	b.attempts = 0
	b.mu.Unlock()
}

func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}
