// ABOUTME: In-memory store.Client for tests with scripted failure injection
// ABOUTME: Counts calls per operation and can block updates until released

package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/harperreed/dealflow/store"
)

// ErrInjected is returned by operations configured to fail at the transport level.
var ErrInjected = errors.New("injected transport failure")

// Fake is a thread-safe in-memory record store.
type Fake struct {
	mu     sync.Mutex
	tables map[string]map[int64]store.Record
	nextID map[string]int64
	calls  map[string]int

	// FailOps makes the named operation ("fetch", "get", "create", "update",
	// "delete") return the given error instead of touching data.
	FailOps map[string]error

	// RejectOps makes the named operation answer with a Success:false envelope.
	RejectOps map[string]string

	// RejectRecords makes updates of these ids fail per record.
	RejectRecords map[int64]string

	// UpdateGate, when set, blocks every update until a value is received.
	UpdateGate chan struct{}
}

func New() *Fake {
	return &Fake{
		tables:        map[string]map[int64]store.Record{},
		nextID:        map[string]int64{},
		calls:         map[string]int{},
		FailOps:       map[string]error{},
		RejectOps:     map[string]string{},
		RejectRecords: map[int64]string{},
	}
}

// Seed stores rec under id directly, bypassing call accounting.
func (f *Fake) Seed(table string, id int64, rec store.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tables[table] == nil {
		f.tables[table] = map[int64]store.Record{}
	}
	f.tables[table][id] = normalize(rec)
	if id > f.nextID[table] {
		f.nextID[table] = id
	}
}

// Calls reports how many times op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Stored returns a copy of the stored record, if present.
func (f *Fake) Stored(table string, id int64) (store.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.tables[table][id]
	if !ok {
		return nil, false
	}
	return withID(rec, id), true
}

func (f *Fake) begin(op string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.RejectOps[op], f.FailOps[op]
}

func (f *Fake) FetchRecords(ctx context.Context, table string, q store.Query) (*store.Response, error) {
	if msg, err := f.begin("fetch"); err != nil {
		return nil, err
	} else if msg != "" {
		return &store.Response{Success: false, Message: msg}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int64, 0, len(f.tables[table]))
	for id := range f.tables[table] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	data := make([]store.Record, 0, len(ids))
	for _, id := range ids {
		data = append(data, store.Project(withID(f.tables[table][id], id), q.Fields))
	}
	return &store.Response{Success: true, Data: data}, nil
}

func (f *Fake) GetRecordByID(ctx context.Context, table string, id int64, q store.Query) (*store.Response, error) {
	if msg, err := f.begin("get"); err != nil {
		return nil, err
	} else if msg != "" {
		return &store.Response{Success: false, Message: msg}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.tables[table][id]
	if !ok {
		return &store.Response{Success: true, Data: []store.Record{}}, nil
	}
	return &store.Response{Success: true, Data: []store.Record{store.Project(withID(rec, id), q.Fields)}}, nil
}

func (f *Fake) CreateRecords(ctx context.Context, table string, records []store.Record) (*store.BatchResponse, error) {
	if msg, err := f.begin("create"); err != nil {
		return nil, err
	} else if msg != "" {
		return &store.BatchResponse{Success: false, Message: msg}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tables[table] == nil {
		f.tables[table] = map[int64]store.Record{}
	}

	results := make([]store.Result, 0, len(records))
	for _, rec := range records {
		if errs := store.MissingRequired(table, rec); len(errs) > 0 {
			results = append(results, store.Result{Success: false, Message: "required fields missing", Errors: errs})
			continue
		}
		f.nextID[table]++
		id := f.nextID[table]
		stored := normalize(store.Merge(store.Record{}, rec))
		f.tables[table][id] = stored
		results = append(results, store.Result{Success: true, Data: withID(stored, id)})
	}
	return &store.BatchResponse{Success: true, Results: results}, nil
}

func (f *Fake) UpdateRecords(ctx context.Context, table string, records []store.Record) (*store.BatchResponse, error) {
	msg, err := f.begin("update")

	if f.UpdateGate != nil {
		select {
		case <-f.UpdateGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	} else if msg != "" {
		return &store.BatchResponse{Success: false, Message: msg}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	results := make([]store.Result, 0, len(records))
	for _, patch := range records {
		id, ok := store.ID(patch[store.FieldID])
		if !ok {
			results = append(results, store.Result{Success: false, Message: "Id is required for update"})
			continue
		}
		if reason, rejected := f.RejectRecords[id]; rejected {
			results = append(results, store.Result{Success: false, Message: reason})
			continue
		}
		existing, ok := f.tables[table][id]
		if !ok {
			results = append(results, store.Result{Success: false, Message: "record not found"})
			continue
		}
		merged := normalize(store.Merge(copyRecord(existing), patch))
		f.tables[table][id] = merged
		results = append(results, store.Result{Success: true, Data: withID(merged, id)})
	}
	return &store.BatchResponse{Success: true, Results: results}, nil
}

func (f *Fake) DeleteRecords(ctx context.Context, table string, ids []int64) (*store.BatchResponse, error) {
	if msg, err := f.begin("delete"); err != nil {
		return nil, err
	} else if msg != "" {
		return &store.BatchResponse{Success: false, Message: msg}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	results := make([]store.Result, 0, len(ids))
	for _, id := range ids {
		if _, ok := f.tables[table][id]; !ok {
			results = append(results, store.Result{Success: false, Message: "record not found"})
			continue
		}
		delete(f.tables[table], id)
		results = append(results, store.Result{Success: true, Data: store.Record{store.FieldID: float64(id)}})
	}
	return &store.BatchResponse{Success: true, Results: results}, nil
}

// normalize round-trips rec through JSON so values look like a real backend's.
func normalize(rec store.Record) store.Record {
	delete(rec, store.FieldID)
	data, err := json.Marshal(rec)
	if err != nil {
		return copyRecord(rec)
	}
	out := store.Record{}
	_ = json.Unmarshal(data, &out)
	return out
}

func copyRecord(rec store.Record) store.Record {
	out := make(store.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func withID(rec store.Record, id int64) store.Record {
	out := copyRecord(rec)
	out[store.FieldID] = float64(id)
	return out
}
