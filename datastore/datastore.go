// Package datastore persists cooldown entries to a JSON file so a restart
// does not hand every user a fresh window.
package datastore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/keshon/inhibitor/pkg/cooldown"
)

// Record is one persisted entry.
type Record struct {
	Actor     string    `json:"actor"`
	Command   string    `json:"command"`
	Used      int       `json:"used"`
	ExpiresAt time.Time `json:"expires_at"`
}

type file struct {
	SavedAt time.Time `json:"saved_at"`
	Entries []Record  `json:"entries"`
}

// Save writes entries to path atomically: a synced temp file renamed over
// the target.
func Save(path string, entries map[cooldown.Key]cooldown.Entry, now time.Time) error {
	f := file{SavedAt: now, Entries: make([]Record, 0, len(entries))}
	for k, e := range entries {
		f.Entries = append(f.Entries, Record{Actor: k.Actor, Command: k.Command, Used: e.Used, ExpiresAt: e.ExpiresAt})
	}
	sort.Slice(f.Entries, func(i, j int) bool {
		if f.Entries[i].Actor != f.Entries[j].Actor {
			return f.Entries[i].Actor < f.Entries[j].Actor
		}
		return f.Entries[i].Command < f.Entries[j].Command
	})

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return writeFileAtomic(path, data)
}

// Load reads a snapshot. A missing file yields an empty map.
func Load(path string) (map[cooldown.Key]cooldown.Entry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[cooldown.Key]cooldown.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid snapshot %s: %w", path, err)
	}

	out := make(map[cooldown.Key]cooldown.Entry, len(f.Entries))
	for _, r := range f.Entries {
		out[cooldown.Key{Actor: r.Actor, Command: r.Command}] = cooldown.Entry{Used: r.Used, ExpiresAt: r.ExpiresAt}
	}
	return out, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
