// ABOUTME: Tests for configuration loading, logging setup and backend opening
// ABOUTME: Uses t.Setenv and temp directories only

package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harperreed/dealflow/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"DEALFLOW_BACKEND", "DEALFLOW_DB_PATH", "DEALFLOW_LOG_LEVEL", "SENTRY_DSN"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "dealflow.db", filepath.Base(cfg.DBPath))
	assert.Empty(t, cfg.SentryDSN)
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DEALFLOW_BACKEND", "")
	t.Setenv("DEALFLOW_WEB_ADDR", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DEALFLOW_BACKEND=Badger\nDEALFLOW_WEB_ADDR=:9000\n"), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, cfg.Backend)
	assert.Equal(t, ":9000", cfg.WebAddr)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DEALFLOW_BACKEND", "postgres")

	_, err := Load()
	assert.ErrorContains(t, err, "unknown backend")
}

func TestSetupLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogging("debug", &buf)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.InfoLevel)
	})

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	Component("test").Info("hello")
	assert.Contains(t, buf.String(), `"component":"test"`)

	SetupLogging("nonsense", &buf)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestOpenBackendSQLite(t *testing.T) {
	cfg := &Config{Backend: BackendSQLite, DBPath: filepath.Join(t.TempDir(), "test.db")}

	b, err := cfg.OpenBackend()
	require.NoError(t, err)
	defer b.Close()

	resp, err := b.CreateRecords(context.Background(), store.TableContacts, []store.Record{{"Name": "Ada"}})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, cfg.DBPath, cfg.Location())
}

func TestOpenBackendBadger(t *testing.T) {
	cfg := &Config{Backend: BackendBadger, KVPath: filepath.Join(t.TempDir(), "kv")}

	b, err := cfg.OpenBackend()
	require.NoError(t, err)
	defer b.Close()

	resp, err := b.FetchRecords(context.Background(), store.TableDeals, store.Query{})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Data)
}
