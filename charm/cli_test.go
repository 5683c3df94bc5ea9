package charm

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/harperreed/dealflow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// localOpener reopens the same BadgerDB on every call, as each command
// closes its client when done.
func localOpener(t *testing.T) Opener {
	dir := filepath.Join(t.TempDir(), AppName)
	return func() (*Client, error) { return OpenLocal(dir) }
}

func seed(t *testing.T, open Opener) {
	t.Helper()
	c, err := open()
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	s := NewRecordStore(c)
	_, err = s.CreateRecords(context.Background(), store.TableDeals, []store.Record{{"Name": "Engine"}, {"Name": "Compiler"}})
	require.NoError(t, err)
	_, err = s.CreateRecords(context.Background(), store.TableContacts, []store.Record{{"Name": "Ada Lovelace"}})
	require.NoError(t, err)
}

func TestStatusCommandCountsRecords(t *testing.T) {
	open := localOpener(t)
	seed(t, open)

	var out bytes.Buffer
	require.NoError(t, Command(&out, open, []string{"status"}))
	assert.Contains(t, out.String(), "Charm Sync Status")
	assert.Contains(t, out.String(), "deal_c:      2 records")
	assert.Contains(t, out.String(), "contact_c:   1 records")
	assert.Contains(t, out.String(), "task_c:      0 records")
}

func TestWipeCommand(t *testing.T) {
	open := localOpener(t)
	seed(t, open)

	var out bytes.Buffer
	require.NoError(t, Command(&out, open, []string{"wipe"}))
	assert.Contains(t, out.String(), "--confirm")

	out.Reset()
	require.NoError(t, Command(&out, open, []string{"wipe", "--confirm"}))
	assert.Contains(t, out.String(), "✓ Wiped 3 records")

	c, err := open()
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	counts, err := c.Counts()
	require.NoError(t, err)
	assert.Zero(t, counts[store.TableDeals])

	// Sequences restart after a wipe
	resp, err := NewRecordStore(c).CreateRecords(context.Background(), store.TableDeals, []store.Record{{"Name": "Fresh"}})
	require.NoError(t, err)
	assert.Equal(t, float64(1), resp.Results[0].Data["Id"])
}

func TestSyncNowLocal(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Command(&out, localOpener(t), []string{"now"}))
	assert.Contains(t, out.String(), "✓ Synced")
}

func TestCommandUsage(t *testing.T) {
	var out bytes.Buffer
	open := localOpener(t)

	assert.ErrorContains(t, Command(&out, open, nil), "usage: charm")
	assert.ErrorContains(t, Command(&out, open, []string{"teleport"}), "unknown charm command")
	assert.ErrorContains(t, Command(&out, open, []string{"auto"}), "--enable|--disable")
}
