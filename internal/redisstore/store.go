// Package redisstore keeps cooldown entries in Redis so several bot
// processes (shards) share one set of cooldowns.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keshon/inhibitor/pkg/cooldown"
)

// ErrTxFailed is returned when optimistic retries are exhausted.
var ErrTxFailed = errors.New("redisstore: transaction retries exhausted")

const (
	fieldUsed    = "used"
	fieldExpires = "expires_at"
)

// Store implements cooldown.Store on Redis hashes.
type Store struct {
	rdb        redis.UniversalClient
	prefix     string
	grace      time.Duration
	maxRetries int
	scanCount  int64
}

type Option func(*Store)

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = strings.Trim(prefix, ":") }
}

// WithGrace sets how long after its window closes Redis keeps an entry
// before evicting it on its own.
func WithGrace(d time.Duration) Option {
	return func(s *Store) { s.grace = d }
}

// WithMaxRetries bounds optimistic transaction retries per Update.
func WithMaxRetries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

func New(rdb redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		rdb:        rdb,
		prefix:     "inhibitor:cooldown",
		grace:      cooldown.DefaultSweepInterval,
		maxRetries: 10,
		scanCount:  100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) redisKey(k cooldown.Key) string {
	return s.prefix + ":" + k.String()
}

// Update runs fn inside a WATCH/MULTI transaction and retries when another
// client modified the key in between.
func (s *Store) Update(ctx context.Context, key cooldown.Key, fn cooldown.UpdateFunc) error {
	rk := s.redisKey(key)

	txf := func(tx *redis.Tx) error {
		vals, err := tx.HGetAll(ctx, rk).Result()
		if err != nil {
			return err
		}
		cur, found, err := decode(vals)
		if err != nil {
			return fmt.Errorf("decode %s: %w", rk, err)
		}

		next, write := fn(cur, found)
		if !write {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, rk, fieldUsed, next.Used, fieldExpires, next.ExpiresAt.UnixMilli())
			pipe.PExpireAt(ctx, rk, next.ExpiresAt.Add(s.grace))
			return nil
		})
		return err
	}

	for i := 0; i < s.maxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, rk)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrTxFailed
}

func (s *Store) Get(ctx context.Context, key cooldown.Key) (cooldown.Entry, bool, error) {
	vals, err := s.rdb.HGetAll(ctx, s.redisKey(key)).Result()
	if err != nil {
		return cooldown.Entry{}, false, err
	}
	return decode(vals)
}

// Sweep deletes entries whose window closed at or before now. Redis TTLs
// evict entries eventually anyway; this keeps parity with the memory store.
func (s *Store) Sweep(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	err := s.scan(ctx, func(rk string) error {
		deleted, err := s.deleteExpired(ctx, rk, now)
		if err != nil {
			return err
		}
		if deleted {
			removed++
		}
		return nil
	})
	return removed, err
}

// deleteExpired removes rk only if it is still expired when the delete
// commits. An Update from another client in between aborts the transaction
// and the entry is left alone.
func (s *Store) deleteExpired(ctx context.Context, rk string, now time.Time) (bool, error) {
	deleted := false
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		deleted = false
		ms, err := tx.HGet(ctx, rk, fieldExpires).Int64()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if time.UnixMilli(ms).After(now) {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, rk)
			return nil
		})
		if err == nil {
			deleted = true
		}
		return err
	}, rk)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sweep %s: %w", rk, err)
	}
	return deleted, nil
}

func (s *Store) Len(ctx context.Context) (int, error) {
	n := 0
	err := s.scan(ctx, func(string) error {
		n++
		return nil
	})
	return n, err
}

func (s *Store) scan(ctx context.Context, fn func(rk string) error) error {
	iter := s.rdb.Scan(ctx, 0, s.prefix+":*", s.scanCount).Iterator()
	for iter.Next(ctx) {
		if err := fn(iter.Val()); err != nil {
			return err
		}
	}
	return iter.Err()
}

func decode(vals map[string]string) (cooldown.Entry, bool, error) {
	if len(vals) == 0 {
		return cooldown.Entry{}, false, nil
	}
	used, err := strconv.Atoi(vals[fieldUsed])
	if err != nil {
		return cooldown.Entry{}, false, fmt.Errorf("field %s: %w", fieldUsed, err)
	}
	ms, err := strconv.ParseInt(vals[fieldExpires], 10, 64)
	if err != nil {
		return cooldown.Entry{}, false, fmt.Errorf("field %s: %w", fieldExpires, err)
	}
	return cooldown.Entry{Used: used, ExpiresAt: time.UnixMilli(ms)}, true, nil
}
