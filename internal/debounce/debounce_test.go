package debounce

import (
	"sync"
	"testing"
	"time"
)

// recorder collects delivered values behind a mutex so tests can assert
// on call counts and arguments.
type recorder struct {
	mu   sync.Mutex
	got  []int
	fire chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fire: make(chan struct{}, 16)}
}

func (r *recorder) fn(v int) {
	r.mu.Lock()
	r.got = append(r.got, v)
	r.mu.Unlock()
	r.fire <- struct{}{}
}

func (r *recorder) values() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.got))
	copy(out, r.got)
	return out
}

func waitFire(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case <-r.fire:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced function never fired")
	}
}

func TestCall_BurstDeliversOnlyLastArgs(t *testing.T) {
	r := newRecorder()
	d := New(r.fn, 40*time.Millisecond)
	defer d.Stop()

	for i := 1; i <= 5; i++ {
		d.Call(i)
		time.Sleep(5 * time.Millisecond) // well inside the window
	}
	waitFire(t, r)

	got := r.values()
	if len(got) != 1 {
		t.Fatalf("expected exactly one invocation, got %d (%v)", len(got), got)
	}
	if got[0] != 5 {
		t.Fatalf("expected last call's args (5), got %d", got[0])
	}
}

func TestCall_SeparateWindowsFireSeparately(t *testing.T) {
	r := newRecorder()
	d := New(r.fn, 20*time.Millisecond)
	defer d.Stop()

	d.Call(1)
	waitFire(t, r)
	d.Call(2)
	waitFire(t, r)

	got := r.values()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected [1 2], got %v", got)
	}
}

func TestStop_CancelsPending(t *testing.T) {
	r := newRecorder()
	d := New(r.fn, 30*time.Millisecond)

	d.Call(1)
	d.Stop()
	time.Sleep(80 * time.Millisecond)

	if got := r.values(); len(got) != 0 {
		t.Fatalf("expected no invocation after Stop, got %v", got)
	}

	// Calls after Stop are rejected outright.
	d.Call(2)
	time.Sleep(80 * time.Millisecond)
	if got := r.values(); len(got) != 0 {
		t.Fatalf("expected Call after Stop to be ignored, got %v", got)
	}
}

func TestCall_AroundExpiryNeverDeliversSuperseded(t *testing.T) {
	r := &recorder{fire: make(chan struct{}, 256)}
	d := New(r.fn, 10*time.Millisecond)
	defer d.Stop()

	// Repeatedly land a pair of back-to-back calls right as a previous
	// window is expiring.  Whatever the interleaving with the expiring
	// timer's callback, the first of the pair is superseded within
	// microseconds and must never be delivered: the replacing Call has
	// to be able to stop its timer.
	const rounds = 100
	for i := 0; i < rounds; i++ {
		base := i * 10
		d.Call(base)
		time.Sleep(10 * time.Millisecond) // straddle the expiry of base
		d.Call(base + 1)
		d.Call(base + 2)
		time.Sleep(15 * time.Millisecond)
	}

	for _, v := range r.values() {
		if v%10 == 1 {
			t.Fatalf("superseded value %d was delivered", v)
		}
	}
}

func TestFlush_FiresPendingImmediately(t *testing.T) {
	r := newRecorder()
	d := New(r.fn, 5*time.Second) // long enough that only Flush can fire it
	defer d.Stop()

	d.Call(7)
	d.Flush()
	waitFire(t, r)

	got := r.values()
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("expected [7], got %v", got)
	}
}
