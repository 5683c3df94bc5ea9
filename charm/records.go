// ABOUTME: Key/value implementation of the remote record store
// ABOUTME: Stores records as JSON under records/<table>/<id> with a per-table id sequence

package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/dealflow/store"
)

const (
	recordPrefix   = "records/"
	sequencePrefix = "seq/"
)

var ErrRecordNotFound = errors.New("record not found")

// RecordStore serves store.Client over a charm Client.
type RecordStore struct {
	client *Client
	now    func() time.Time

	// Writes read-modify-write the sequence and record keys
	mu sync.Mutex
}

// NewRecordStore wraps c.
func NewRecordStore(c *Client) *RecordStore {
	return &RecordStore{client: c, now: time.Now}
}

func recordKey(table string, id int64) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d", recordPrefix, table, id))
}

func unknownTable(table string) string {
	return fmt.Sprintf("%v: %s", store.ErrUnknownTable, table)
}

// FetchRecords returns every record of table in id order.
func (s *RecordStore) FetchRecords(ctx context.Context, table string, q store.Query) (*store.Response, error) {
	if !store.KnownTable(table) {
		return &store.Response{Success: false, Message: unknownTable(table)}, nil
	}

	// A failed pull still serves the local copy
	_ = s.client.Refresh()

	keys, err := s.client.KeysWithPrefix(recordPrefix + table + "/")
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		raw := strings.TrimPrefix(string(k), recordPrefix+table+"/")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	data := make([]store.Record, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := s.get(table, id)
		if errors.Is(err, ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		data = append(data, store.Project(rec, q.Fields))
	}

	return &store.Response{Success: true, Data: data}, nil
}

// GetRecordByID returns a response holding zero or one record.
func (s *RecordStore) GetRecordByID(ctx context.Context, table string, id int64, q store.Query) (*store.Response, error) {
	if !store.KnownTable(table) {
		return &store.Response{Success: false, Message: unknownTable(table)}, nil
	}

	rec, err := s.get(table, id)
	if errors.Is(err, ErrRecordNotFound) {
		return &store.Response{Success: true, Data: []store.Record{}}, nil
	}
	if err != nil {
		return nil, err
	}

	return &store.Response{Success: true, Data: []store.Record{store.Project(rec, q.Fields)}}, nil
}

// CreateRecords stores each record under a freshly allocated id.
func (s *RecordStore) CreateRecords(ctx context.Context, table string, records []store.Record) (*store.BatchResponse, error) {
	if !store.KnownTable(table) {
		return &store.BatchResponse{Success: false, Message: unknownTable(table)}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]store.Result, 0, len(records))
	for _, in := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if errs := store.MissingRequired(table, in); len(errs) > 0 {
			results = append(results, store.Result{Success: false, Message: "required fields missing", Errors: errs})
			continue
		}

		id, err := s.nextID(table)
		if err != nil {
			return nil, err
		}

		now := s.now().UTC().Format(time.RFC3339Nano)
		rec := store.Merge(store.Record{}, in)
		rec[store.FieldCreatedOn] = now
		rec[store.FieldModifiedOn] = now

		created, err := s.put(table, id, rec)
		if err != nil {
			return nil, err
		}
		results = append(results, store.Result{Success: true, Data: created})
	}

	return &store.BatchResponse{Success: true, Results: results}, nil
}

// UpdateRecords merges each record's fields into the stored record named by its Id.
func (s *RecordStore) UpdateRecords(ctx context.Context, table string, records []store.Record) (*store.BatchResponse, error) {
	if !store.KnownTable(table) {
		return &store.BatchResponse{Success: false, Message: unknownTable(table)}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]store.Result, 0, len(records))
	for _, patch := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id, ok := store.ID(patch[store.FieldID])
		if !ok {
			results = append(results, store.Result{Success: false, Message: "Id is required for update"})
			continue
		}

		existing, err := s.get(table, id)
		if errors.Is(err, ErrRecordNotFound) {
			results = append(results, store.Result{Success: false, Message: ErrRecordNotFound.Error()})
			continue
		}
		if err != nil {
			return nil, err
		}

		createdOn := existing[store.FieldCreatedOn]
		merged := store.Merge(existing, patch)
		if errs := store.MissingRequired(table, merged); len(errs) > 0 {
			results = append(results, store.Result{Success: false, Message: "required fields missing", Errors: errs})
			continue
		}
		merged[store.FieldCreatedOn] = createdOn
		merged[store.FieldModifiedOn] = s.now().UTC().Format(time.RFC3339Nano)

		updated, err := s.put(table, id, merged)
		if err != nil {
			return nil, err
		}
		results = append(results, store.Result{Success: true, Data: updated})
	}

	return &store.BatchResponse{Success: true, Results: results}, nil
}

// DeleteRecords removes records by id; missing ids fail individually.
func (s *RecordStore) DeleteRecords(ctx context.Context, table string, ids []int64) (*store.BatchResponse, error) {
	if !store.KnownTable(table) {
		return &store.BatchResponse{Success: false, Message: unknownTable(table)}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]store.Result, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if _, err := s.get(table, id); errors.Is(err, ErrRecordNotFound) {
			results = append(results, store.Result{Success: false, Message: ErrRecordNotFound.Error()})
			continue
		} else if err != nil {
			return nil, err
		}

		if err := s.client.Delete(recordKey(table, id)); err != nil {
			return nil, err
		}
		results = append(results, store.Result{Success: true, Data: store.Record{store.FieldID: float64(id)}})
	}

	return &store.BatchResponse{Success: true, Results: results}, nil
}

func (s *RecordStore) get(table string, id int64) (store.Record, error) {
	data, err := s.client.Get(recordKey(table, id))
	if errors.Is(err, badger.ErrKeyNotFound) || (err == nil && data == nil) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	rec := store.Record{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt record %s/%d: %w", table, id, err)
	}
	rec[store.FieldID] = float64(id)
	return rec, nil
}

// put writes rec and returns it as a subsequent read would see it.
func (s *RecordStore) put(table string, id int64, rec store.Record) (store.Record, error) {
	delete(rec, store.FieldID)
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	if err := s.client.Set(recordKey(table, id), data); err != nil {
		return nil, err
	}

	out := store.Record{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	out[store.FieldID] = float64(id)
	return out, nil
}

func (s *RecordStore) nextID(table string) (int64, error) {
	key := []byte(sequencePrefix + table)

	var current int64
	data, err := s.client.Get(key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return 0, err
	case len(data) > 0:
		current, err = strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("corrupt sequence for %s: %w", table, err)
		}
	}

	next := current + 1
	if err := s.client.Set(key, []byte(strconv.FormatInt(next, 10))); err != nil {
		return 0, err
	}
	return next, nil
}
