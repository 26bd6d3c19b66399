package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func entry(t *testing.T, s Store, k Key) (Entry, bool) {
	t.Helper()
	e, ok, err := s.Get(context.Background(), k)
	require.NoError(t, err)
	return e, ok
}

func TestHitFirstCallAllows(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	tr := NewTracker(store, clock.Now)
	key := Key{Actor: "u1", Command: "ping"}

	d, err := tr.Hit(context.Background(), key, Limit{AllowedUses: 3, Window: 10 * time.Second})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, clock.now, d.ExecutedAt)
	assert.Equal(t, clock.now.Add(10*time.Second), d.ExpiresAt)

	e, ok := entry(t, store, key)
	require.True(t, ok)
	assert.Equal(t, 1, e.Used)
	assert.Equal(t, clock.now.Add(10*time.Second), e.ExpiresAt)
}

// Calls after the first in an open window are denied even while under the
// allowed use count. This is the long-standing behaviour and is kept as is.
func TestHitSecondCallUnderLimitStillDenies(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	tr := NewTracker(store, clock.Now)
	key := Key{Actor: "u1", Command: "ping"}
	limit := Limit{AllowedUses: 3, Window: 10 * time.Second}

	_, err := tr.Hit(context.Background(), key, limit)
	require.NoError(t, err)
	before, _ := entry(t, store, key)

	clock.Advance(2 * time.Second)
	d, err := tr.Hit(context.Background(), key, limit)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, clock.now, d.ExecutedAt)
	assert.Equal(t, clock.now.Add(10*time.Second), d.ExpiresAt)

	after, _ := entry(t, store, key)
	assert.Equal(t, 2, after.Used)
	assert.True(t, after.ExpiresAt.After(before.ExpiresAt))
}

func TestHitSaturatedWindowDeniesWithoutMutation(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	tr := NewTracker(store, clock.Now)
	key := Key{Actor: "u1", Command: "ping"}
	limit := Limit{AllowedUses: 2, Window: 10 * time.Second}

	for i := 0; i < 2; i++ {
		_, err := tr.Hit(context.Background(), key, limit)
		require.NoError(t, err)
	}
	saturated, _ := entry(t, store, key)
	require.Equal(t, 2, saturated.Used)

	clock.Advance(time.Second)
	d, err := tr.Hit(context.Background(), key, limit)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, clock.now.Add(10*time.Second), d.ExpiresAt)

	after, _ := entry(t, store, key)
	assert.Equal(t, saturated, after)
}

func TestHitAfterExpiryResetsCounter(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	tr := NewTracker(store, clock.Now)
	key := Key{Actor: "u1", Command: "ping"}
	limit := Limit{AllowedUses: 1, Window: 5 * time.Second}

	d, err := tr.Hit(context.Background(), key, limit)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	clock.Advance(5 * time.Second)
	d, err = tr.Hit(context.Background(), key, limit)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	e, _ := entry(t, store, key)
	assert.Equal(t, 1, e.Used)
	assert.Equal(t, clock.now.Add(5*time.Second), e.ExpiresAt)
}

func TestHitZeroAllowedUsesMeansOne(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	tr := NewTracker(store, clock.Now)
	key := Key{Actor: "u1", Command: "ping"}
	limit := Limit{Window: time.Minute}

	_, err := tr.Hit(context.Background(), key, limit)
	require.NoError(t, err)
	_, err = tr.Hit(context.Background(), key, limit)
	require.NoError(t, err)

	e, _ := entry(t, store, key)
	assert.Equal(t, 1, e.Used)
}

func TestHitKeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(NewMemoryStore(), clock.Now)
	limit := Limit{AllowedUses: 1, Window: time.Minute}

	// Would collide under plain concatenation: "1"+"23" == "12"+"3".
	d, err := tr.Hit(context.Background(), Key{Actor: "1", Command: "23"}, limit)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = tr.Hit(context.Background(), Key{Actor: "12", Command: "3"}, limit)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestHitNilStore(t *testing.T) {
	var tr *Tracker
	_, err := tr.Hit(context.Background(), Key{}, Limit{})
	require.ErrorIs(t, err, ErrNilStore)
}

func TestKeyStringIsInjective(t *testing.T) {
	a := Key{Actor: "a:b", Command: "c"}
	b := Key{Actor: "a", Command: "b:c"}
	assert.NotEqual(t, a.String(), b.String())
	assert.Equal(t, `a\:b:c`, a.String())
	assert.Equal(t, "a:b:c", b.String())
}
