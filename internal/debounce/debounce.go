// Package debounce coalesces a burst of calls into one deferred call
// carrying the arguments of the last burst member.  The position-update
// path uses it to turn tens of drag events per second into a single
// follow-up write once motion has paused; the visible state is updated
// on every call regardless, only the deferred work is coalesced.
package debounce

import (
	"sync"
	"time"
)

// Debouncer defers invocations of fn until delay has elapsed with no
// further Call.  Each Call cancels and replaces any pending invocation,
// so only the last arguments within a window are ever delivered.
//
// time.AfterFunc fires on its own goroutine, so the pending timer
// reference is guarded by a mutex.
type Debouncer[T any] struct {
	mu      sync.Mutex
	fn      func(T)
	delay   time.Duration
	timer   *time.Timer
	stopped bool
}

// New returns a Debouncer invoking fn after delay of inactivity.
func New[T any](fn func(T), delay time.Duration) *Debouncer[T] {
	return &Debouncer[T]{fn: fn, delay: delay}
}

// Call schedules fn(v) after the configured delay, replacing any
// scheduled-but-not-yet-fired invocation.  Arguments of superseded
// calls are discarded.
func (d *Debouncer[T]) Call(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.stopped {
			d.mu.Unlock()
			return
		}
		// A Call may land between this timer expiring and the callback
		// taking the lock; only clear the reference if it is still ours,
		// otherwise the newer timer could no longer be stopped.
		if d.timer == t {
			d.timer = nil
		}
		d.mu.Unlock()
		d.fn(v)
	})
	d.timer = t
}

// Stop cancels any pending invocation and rejects further calls.  It is
// called on consumer teardown so fn never runs against a torn-down
// context.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Flush fires any pending invocation immediately with the most recent
// arguments instead of waiting out the delay.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	t := d.timer
	d.mu.Unlock()
	if t != nil && t.Stop() {
		// Timer was pending; Reset(0) fires the stored invocation now.
		t.Reset(0)
	}
}
