package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harperreed/dealflow/config"
	"github.com/harperreed/dealflow/store"
	"github.com/harperreed/dealflow/store/storetest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededSource() *storetest.Fake {
	src := storetest.New()
	src.Seed(store.TableContacts, 5, store.Record{"Name": "Ada Lovelace", "email_c": "ada@example.com"})
	src.Seed(store.TableContacts, 9, store.Record{"Name": "Grace Hopper"})
	src.Seed(store.TableDeals, 3, store.Record{"Name": "Engine", "stage_c": "proposal", "value_c": 1200.0, "contact_id_c": 9})
	src.Seed(store.TableTasks, 2, store.Record{"Name": "Send notes", "contact_id_c": 5, "deal_id_c": 3})
	src.Seed(store.TableActivities, 7, store.Record{"Name": "Intro call", "contact_id_c": 42, "deal_id_c": 3})
	return src
}

func refID(t *testing.T, rec store.Record, field string) int64 {
	t.Helper()
	id, ok := store.ID(rec[field])
	require.True(t, ok, "%s should be set", field)
	return id
}

func TestCopyTablesRemapsReferences(t *testing.T) {
	src := seededSource()
	dst := storetest.New()
	log := logrus.NewEntry(logrus.New())

	counts, err := copyTables(context.Background(), src, dst, options{}, log)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[store.TableContacts])
	assert.Equal(t, 1, counts[store.TableActivities])

	grace, ok := dst.Stored(store.TableContacts, 2)
	require.True(t, ok)
	assert.Equal(t, "Grace Hopper", grace["Name"])

	deal, ok := dst.Stored(store.TableDeals, 1)
	require.True(t, ok)
	assert.Equal(t, "proposal", deal["stage_c"])
	assert.Equal(t, int64(2), refID(t, deal, "contact_id_c"))

	task, ok := dst.Stored(store.TableTasks, 1)
	require.True(t, ok)
	assert.Equal(t, int64(1), refID(t, task, "contact_id_c"))
	assert.Equal(t, int64(1), refID(t, task, "deal_id_c"))

	activity, ok := dst.Stored(store.TableActivities, 1)
	require.True(t, ok)
	assert.Nil(t, activity["contact_id_c"])
	assert.Equal(t, int64(1), refID(t, activity, "deal_id_c"))

	_, err = copyTables(context.Background(), src, dst, options{}, log)
	assert.ErrorContains(t, err, "use -force")

	_, err = copyTables(context.Background(), src, dst, options{force: true}, log)
	require.NoError(t, err)
	_, ok = dst.Stored(store.TableContacts, 4)
	assert.True(t, ok)
}

func TestCopyTablesDryRun(t *testing.T) {
	src := seededSource()
	dst := storetest.New()

	counts, err := copyTables(context.Background(), src, dst, options{dryRun: true}, logrus.NewEntry(logrus.New()))
	require.NoError(t, err)
	assert.Equal(t, 1, counts[store.TableDeals])
	assert.Zero(t, dst.Calls("create"))
}

func TestCopyTablesStopsOnRejectedRecord(t *testing.T) {
	src := storetest.New()
	src.Seed(store.TableContacts, 1, store.Record{"Name": ""})

	_, err := copyTables(context.Background(), src, storetest.New(), options{}, logrus.NewEntry(logrus.New()))
	assert.ErrorContains(t, err, "record 1 of contact_c rejected")
}

func TestSide(t *testing.T) {
	base := &config.Config{Backend: config.BackendSQLite, DBPath: "/tmp/a.db", KVPath: "/tmp/kv"}

	c, err := side(base, "BADGER", "/tmp/other")
	require.NoError(t, err)
	assert.Equal(t, config.BackendBadger, c.Backend)
	assert.Equal(t, "/tmp/other", c.KVPath)
	assert.Equal(t, "/tmp/a.db", c.DBPath)
	assert.Equal(t, config.BackendSQLite, base.Backend)

	_, err = side(base, "postgres", "")
	assert.Error(t, err)
}

func TestMigrateSQLiteToBadger(t *testing.T) {
	dir := t.TempDir()
	log := logrus.NewEntry(logrus.New())

	src := &config.Config{Backend: config.BackendSQLite, DBPath: filepath.Join(dir, "src.db")}
	backend, err := src.OpenBackend()
	require.NoError(t, err)
	created, err := backend.CreateRecords(context.Background(), store.TableContacts, []store.Record{{"Name": "Ada Lovelace"}})
	require.NoError(t, err)
	require.True(t, created.Results[0].Success)
	require.NoError(t, backend.Close())

	dst := &config.Config{Backend: config.BackendBadger, KVPath: filepath.Join(dir, "kv")}
	require.NoError(t, migrate(context.Background(), src, dst, options{backup: true}, log))

	out, err := dst.OpenBackend()
	require.NoError(t, err)
	defer func() { _ = out.Close() }()
	resp, err := out.FetchRecords(context.Background(), store.TableContacts, store.Query{})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Ada Lovelace", resp.Data[0]["Name"])

	_, err = os.Stat(src.DBPath)
	assert.NoError(t, err)
}
