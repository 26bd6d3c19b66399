package discord

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ReplyThrottle limits how often the bot answers denials per channel, so a
// user hammering a command on cooldown cannot make the bot spam back.
type ReplyThrottle struct {
	mu      sync.Mutex
	entries map[string]*throttleEntry
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type throttleEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewReplyThrottle allows perSecond replies per channel with the given burst.
func NewReplyThrottle(perSecond float64, burst int) *ReplyThrottle {
	if burst < 1 {
		burst = 1
	}
	return &ReplyThrottle{
		entries: make(map[string]*throttleEntry),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether a reply to channelID may be sent now.
func (t *ReplyThrottle) Allow(channelID string) bool {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	ent, ok := t.entries[channelID]
	if !ok {
		ent = &throttleEntry{lim: rate.NewLimiter(t.limit, t.burst)}
		t.entries[channelID] = ent
	}
	ent.lastSeen = now
	return ent.lim.AllowN(now, 1)
}

// Prune forgets channels idle for longer than idle.
func (t *ReplyThrottle) Prune(idle time.Duration) int {
	cutoff := t.now().Add(-idle)

	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for k, ent := range t.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(t.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked channels.
func (t *ReplyThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
