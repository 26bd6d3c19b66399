// Package cooldown tracks per-actor, per-command usage inside a time window.
//
// A Tracker applies the window rules against a Store. The in-memory Store is
// the default; any Store that can run Update atomically per key will do (see
// internal/redisstore for a shared one). Expired entries are freed by a
// Sweeper running as a background job.
package cooldown

import (
	"errors"
	"strings"
	"time"
)

// ErrNilStore is returned when a Tracker is used without a Store.
var ErrNilStore = errors.New("cooldown: nil store")

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// Limit configures how many uses fit in one window.
type Limit struct {
	AllowedUses int
	Window      time.Duration
}

// Uses returns the effective allowed use count. Zero or negative means one.
func (l Limit) Uses() int {
	if l.AllowedUses <= 0 {
		return 1
	}
	return l.AllowedUses
}

// Key identifies one actor's usage of one command.
type Key struct {
	Actor   string
	Command string
}

// String renders the key for stores that need a flat string. Colons and
// backslashes in the actor are escaped so two different keys never render
// to the same string.
func (k Key) String() string {
	return escaper.Replace(k.Actor) + ":" + k.Command
}

var escaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`)

// Entry is the stored state for one key.
type Entry struct {
	Used      int
	ExpiresAt time.Time
}

// Expired reports whether the window has closed at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}
