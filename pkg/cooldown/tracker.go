package cooldown

import (
	"context"
	"fmt"
	"time"
)

// Decision is the outcome of one Hit.
type Decision struct {
	Allowed    bool
	ExpiresAt  time.Time
	ExecutedAt time.Time
}

// Tracker applies window rules to a Store.
type Tracker struct {
	Store Store
	Clock Clock
}

// NewTracker returns a Tracker over store. A nil clock means time.Now.
func NewTracker(store Store, clock Clock) *Tracker {
	return &Tracker{Store: store, Clock: clock}
}

// Hit records one invocation for key under limit.
//
// Only the first call in a fresh window is allowed. Every later call while
// an entry exists is denied, including calls still under the allowed use
// count; those calls still bump the counter and push the window out. Once
// the counter is saturated, calls inside the window are denied without
// touching the entry, and the first call after the window closes resets the
// counter before bumping it.
func (t *Tracker) Hit(ctx context.Context, key Key, limit Limit) (Decision, error) {
	if t == nil || t.Store == nil {
		return Decision{}, ErrNilStore
	}

	now := t.Clock.now()
	expires := now.Add(limit.Window)
	allowed := false

	err := t.Store.Update(ctx, key, func(cur Entry, found bool) (Entry, bool) {
		// Stores may retry fn, so derive the result from this attempt only.
		allowed = !found
		if !found {
			return Entry{Used: 1, ExpiresAt: expires}, true
		}
		if cur.Used >= limit.Uses() {
			if !cur.Expired(now) {
				return cur, false
			}
			cur.Used = 0
		}
		return Entry{Used: cur.Used + 1, ExpiresAt: expires}, true
	})
	if err != nil {
		return Decision{}, fmt.Errorf("cooldown update %s: %w", key, err)
	}

	return Decision{Allowed: allowed, ExpiresAt: expires, ExecutedAt: now}, nil
}
