package donation

import (
	"sync"
	"time"
)

// maxThrottleEntries bounds the number of groups remembered at once.
const maxThrottleEntries = 4096

// throttle remembers when each group was last donated. A window of zero
// lets everything through.
type throttle struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

func newThrottle(window time.Duration, now func() time.Time) *throttle {
	return &throttle{window: window, last: make(map[string]time.Time), now: now}
}

// reserve claims the group's slot and returns the claim. ok is false if
// the group was claimed less than window ago.
func (t *throttle) reserve(groupID string) (claim time.Time, ok bool) {
	if t == nil || t.window <= 0 {
		return time.Time{}, true
	}
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if at, held := t.last[groupID]; held && now.Sub(at) < t.window {
		return time.Time{}, false
	}
	if len(t.last) >= maxThrottleEntries {
		t.prune(now)
	}
	t.last[groupID] = now
	return now, true
}

// release gives back a claim so the next attempt for the group goes
// through. A newer claim for the same group is left alone.
func (t *throttle) release(groupID string, claim time.Time) {
	if t == nil || t.window <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if at, held := t.last[groupID]; held && at.Equal(claim) {
		delete(t.last, groupID)
	}
}

// prune drops expired claims. If every claim is still live the map is
// reset; losing a claim only costs a duplicate donation.
func (t *throttle) prune(now time.Time) {
	for id, at := range t.last {
		if now.Sub(at) >= t.window {
			delete(t.last, id)
		}
	}
	if len(t.last) >= maxThrottleEntries {
		clear(t.last)
	}
}

func (t *throttle) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.last)
}
