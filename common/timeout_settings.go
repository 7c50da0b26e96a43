package common

import (
	"sync"
	"time"
)

// DefaultTimeout applies to every operation without an explicit timeout.
const DefaultTimeout = 30 * time.Second

// TimeoutSettings carries the default deadlines of a context or page.
// Settings cascade: a page without its own override falls back to its
// context's. Deadlines are enforced locally by racing the call future
// against the caller's context; the outbound request is not retracted on
// expiry.
type TimeoutSettings struct {
	parent *TimeoutSettings

	mu                       sync.RWMutex
	defaultTimeout           *time.Duration
	defaultNavigationTimeout *time.Duration
}

// NewTimeoutSettings creates timeout settings chained to parent (nil for
// the top of the chain).
func NewTimeoutSettings(parent *TimeoutSettings) *TimeoutSettings {
	return &TimeoutSettings{parent: parent}
}

// SetDefaultTimeout overrides the default timeout of all operations.
func (t *TimeoutSettings) SetDefaultTimeout(timeout time.Duration) {
	t.mu.Lock()
	t.defaultTimeout = &timeout
	t.mu.Unlock()
}

// SetDefaultNavigationTimeout overrides the default navigation timeout.
func (t *TimeoutSettings) SetDefaultNavigationTimeout(timeout time.Duration) {
	t.mu.Lock()
	t.defaultNavigationTimeout = &timeout
	t.mu.Unlock()
}

// Timeout returns the effective default timeout.
func (t *TimeoutSettings) Timeout() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.defaultTimeout != nil {
		return *t.defaultTimeout
	}
	if t.parent != nil {
		return t.parent.Timeout()
	}
	return DefaultTimeout
}

// NavigationTimeout returns the effective navigation timeout, falling back
// to the general default.
func (t *TimeoutSettings) NavigationTimeout() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.defaultNavigationTimeout != nil {
		return *t.defaultNavigationTimeout
	}
	if t.parent != nil {
		return t.parent.NavigationTimeout()
	}
	if t.defaultTimeout != nil {
		return *t.defaultTimeout
	}
	return DefaultTimeout
}
