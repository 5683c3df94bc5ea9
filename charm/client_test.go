package charm

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingKV struct {
	KV
	syncs int
}

func (k *countingKV) Sync() error {
	k.syncs++
	return nil
}

func TestRefreshSyncsOnlyWhenStale(t *testing.T) {
	local, cleanup := NewTestClient(t)
	defer cleanup()

	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	kv := &countingKV{KV: local.kv}
	c := &Client{
		kv:       kv,
		config:   &Config{AutoSync: true, StaleThreshold: time.Minute},
		now:      func() time.Time { return now },
		lastSync: now,
	}

	require.NoError(t, c.Refresh())
	assert.Zero(t, kv.syncs)

	now = now.Add(2 * time.Minute)
	require.NoError(t, c.Refresh())
	assert.Equal(t, 1, kv.syncs)

	// Writes push and reset the window
	now = now.Add(2 * time.Minute)
	require.NoError(t, c.Set([]byte("k"), []byte("v")))
	assert.Equal(t, 2, kv.syncs)
	require.NoError(t, c.Refresh())
	assert.Equal(t, 2, kv.syncs)

	c.config.AutoSync = false
	now = now.Add(time.Hour)
	require.NoError(t, c.Refresh())
	assert.Equal(t, 2, kv.syncs)
}

func TestConfigLoadAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charm", configFileName)

	cfg, err := loadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultCharmHost, cfg.Host)
	assert.True(t, cfg.AutoSync)

	cfg.Host = "charm.example.com"
	require.NoError(t, cfg.SetAutoSync(false))

	loaded, err := loadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "charm.example.com", loaded.Host)
	assert.False(t, loaded.AutoSync)
	assert.Positive(t, loaded.StaleThreshold)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	_, err = loadConfigFrom(path)
	assert.ErrorContains(t, err, "invalid charm config")
}
