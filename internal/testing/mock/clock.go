package mock

import (
	"sync"
	"time"
)

// Clock is the time source shared by the fakes. Token expirations are epoch
// milliseconds, so fakes read time through it rather than time.Now.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system time.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock is a Clock that only moves when told to. Its Now method value
// can be handed to oauth.WithClock and oauth.WithClientClock.
type MockClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewMockClock starts the clock at start, or at the current time when start
// is zero.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

func (c *MockClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set jumps to t.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// ExpirationIn returns the epoch-millisecond expiration d after the clock's
// current time, in the form stored on oauth.Token.
func (c *MockClock) ExpirationIn(d time.Duration) int64 {
	return c.Now().Add(d).UnixMilli()
}
