// ABOUTME: Tests for the key/value record store
// ABOUTME: Runs against a temporary BadgerDB through NewTestClient

package charm

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/dealflow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *RecordStore {
	t.Helper()
	c, cleanup := NewTestClient(t)
	t.Cleanup(cleanup)

	s := NewRecordStore(c)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }
	return s
}

func TestRecordStoreCreateAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	resp, err := s.CreateRecords(ctx, store.TableDeals, []store.Record{
		{"Name": "One", "stage_c": "lead"},
		{"Name": "Two", "stage_c": "qualified"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, float64(1), resp.Results[0].Data["Id"])
	assert.Equal(t, float64(2), resp.Results[1].Data["Id"])
	assert.Equal(t, "2024-05-01T08:00:00Z", resp.Results[0].Data["CreatedOn"])

	// Sequences are per table
	other, err := s.CreateRecords(ctx, store.TableTasks, []store.Record{{"Name": "Follow up"}})
	require.NoError(t, err)
	assert.Equal(t, float64(1), other.Results[0].Data["Id"])
}

func TestRecordStoreFetchOrdersByID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 12; i++ {
		_, err := s.CreateRecords(ctx, store.TableContacts, []store.Record{{"Name": "c"}})
		require.NoError(t, err)
	}

	resp, err := s.FetchRecords(ctx, store.TableContacts, store.Query{Fields: []string{"Name"}})
	require.NoError(t, err)
	require.Len(t, resp.Data, 12)
	for i, rec := range resp.Data {
		assert.Equal(t, float64(i+1), rec["Id"])
	}
}

func TestRecordStoreUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateRecords(ctx, store.TableDeals, []store.Record{{"Name": "Acme", "stage_c": "lead"}})
	require.NoError(t, err)

	upd, err := s.UpdateRecords(ctx, store.TableDeals, []store.Record{
		{"Id": float64(1), "stage_c": "negotiation"},
		{"Id": float64(5), "stage_c": "negotiation"},
	})
	require.NoError(t, err)
	require.Len(t, upd.Results, 2)
	assert.True(t, upd.Results[0].Success)
	assert.Equal(t, "negotiation", upd.Results[0].Data["stage_c"])
	assert.Equal(t, "Acme", upd.Results[0].Data["Name"])
	assert.False(t, upd.Results[1].Success)

	got, err := s.GetRecordByID(ctx, store.TableDeals, 1, store.Query{})
	require.NoError(t, err)
	require.Len(t, got.Data, 1)
	assert.Equal(t, "negotiation", got.Data[0]["stage_c"])

	del, err := s.DeleteRecords(ctx, store.TableDeals, []int64{1, 2})
	require.NoError(t, err)
	assert.True(t, del.Results[0].Success)
	assert.False(t, del.Results[1].Success)

	gone, err := s.GetRecordByID(ctx, store.TableDeals, 1, store.Query{})
	require.NoError(t, err)
	assert.Empty(t, gone.Data)
}

func TestRecordStoreRejectsMissingName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	resp, err := s.CreateRecords(ctx, store.TableActivities, []store.Record{{"type_c": "call"}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].Success)
	assert.Equal(t, "Name", resp.Results[0].Errors[0].FieldLabel)

	unknown, err := s.FetchRecords(ctx, "nope", store.Query{})
	require.NoError(t, err)
	assert.False(t, unknown.Success)
}
