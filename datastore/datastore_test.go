package datastore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/inhibitor/pkg/cooldown"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cooldowns.json")
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	in := map[cooldown.Key]cooldown.Entry{
		{Actor: "u1", Command: "ping"}: {Used: 2, ExpiresAt: at},
		{Actor: "u2", Command: "help"}: {Used: 1, ExpiresAt: at.Add(time.Minute)},
	}

	require.NoError(t, Save(path, in, at))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	out, err := Load(path)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for k, e := range in {
		got, ok := out[k]
		require.True(t, ok, k.String())
		assert.Equal(t, e.Used, got.Used)
		assert.True(t, e.ExpiresAt.Equal(got.ExpiresAt))
	}
}

func TestLoadMissingFile(t *testing.T) {
	out, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
