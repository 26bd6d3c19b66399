// Package jobmgr runs named background jobs with cancellation and in-memory
// tracking of what is running.
//
// Typical usage:
//
//	jm := jobmgr.NewManager(logger)
//
//	err := jm.StartAsync("cooldown-sweeper", sweeper.Run)
//
//	// later...
//	_ = jm.Stop("cooldown-sweeper")
//
// Jobs run in their own goroutines and are removed from the manager when they
// return. There is no retry logic and no persistence.
package jobmgr

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Runner is the body of a job. It must return once ctx is cancelled.
type Runner func(ctx context.Context) error

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager starts, stops and tracks jobs. It is safe for concurrent use.
type Manager struct {
	mu   sync.Mutex
	jobs map[string]*job
	log  zerolog.Logger
}

// NewManager creates a Manager that reports job lifecycle to log.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		jobs: make(map[string]*job),
		log:  log.With().Str("component", "jobmgr").Logger(),
	}
}

// StartAsync runs a job in a separate goroutine and returns immediately.
// If a job with the same name is already running, an error is returned.
func (m *Manager) StartAsync(name string, runner Runner) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[name]; exists {
		return fmt.Errorf("job '%s' is already running", name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = j

	go func() {
		defer close(j.done)
		m.log.Info().Str("job", name).Msg("running")

		if err := runner(ctx); err != nil {
			m.log.Error().Str("job", name).Err(err).Msg("job failed")
		} else {
			m.log.Info().Str("job", name).Msg("done")
		}

		m.mu.Lock()
		if m.jobs[name] == j {
			delete(m.jobs, name)
		}
		m.mu.Unlock()
	}()

	return nil
}

// Stop cancels a running job by name and waits for it to return.
// If the job is not running, an error is returned.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	j, ok := m.jobs[name]
	if ok {
		delete(m.jobs, name)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("job '%s' not running", name)
	}

	j.cancel()
	<-j.done
	return nil
}

// StopAll cancels every running job and waits for all of them.
func (m *Manager) StopAll() {
	for _, name := range m.List() {
		_ = m.Stop(name)
	}
}

// Running reports whether the named job is active.
func (m *Manager) Running(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jobs[name]
	return ok
}

// List returns the names of active jobs, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
