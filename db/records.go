// ABOUTME: SQLite-backed implementation of the remote record store
// ABOUTME: Stores each row as a JSON body keyed by table and an autoincrement id
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/dealflow/store"
)

var ErrRecordNotFound = errors.New("record not found")

// RecordStore serves store.Client over a local SQLite database.
type RecordStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewRecordStore wraps an open database. The schema must already exist.
func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db, now: time.Now}
}

// FetchRecords returns every row of table in id order.
func (s *RecordStore) FetchRecords(ctx context.Context, table string, q store.Query) (*store.Response, error) {
	if !store.KnownTable(table) {
		return &store.Response{Success: false, Message: fmt.Sprintf("%v: %s", store.ErrUnknownTable, table)}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data FROM records
		WHERE tbl = ?
		ORDER BY id
	`, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	data := make([]store.Record, 0)
	for rows.Next() {
		var id int64
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}

		rec, err := decodeBody(id, body)
		if err != nil {
			return nil, err
		}
		data = append(data, store.Project(rec, q.Fields))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &store.Response{Success: true, Data: data}, nil
}

// GetRecordByID returns a response holding zero or one record.
func (s *RecordStore) GetRecordByID(ctx context.Context, table string, id int64, q store.Query) (*store.Response, error) {
	if !store.KnownTable(table) {
		return &store.Response{Success: false, Message: fmt.Sprintf("%v: %s", store.ErrUnknownTable, table)}, nil
	}

	rec, err := s.get(ctx, s.db, table, id)
	if errors.Is(err, ErrRecordNotFound) {
		return &store.Response{Success: true, Data: []store.Record{}}, nil
	}
	if err != nil {
		return nil, err
	}

	return &store.Response{Success: true, Data: []store.Record{store.Project(rec, q.Fields)}}, nil
}

// CreateRecords inserts each record, assigning ids and timestamps.
// Records missing required fields fail individually without aborting the batch.
func (s *RecordStore) CreateRecords(ctx context.Context, table string, records []store.Record) (*store.BatchResponse, error) {
	if !store.KnownTable(table) {
		return &store.BatchResponse{Success: false, Message: fmt.Sprintf("%v: %s", store.ErrUnknownTable, table)}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	results := make([]store.Result, 0, len(records))
	for _, in := range records {
		if errs := store.MissingRequired(table, in); len(errs) > 0 {
			results = append(results, store.Result{Success: false, Message: "required fields missing", Errors: errs})
			continue
		}

		now := s.now().UTC()
		rec := store.Merge(store.Record{}, in)
		rec[store.FieldCreatedOn] = now.Format(time.RFC3339Nano)
		rec[store.FieldModifiedOn] = now.Format(time.RFC3339Nano)

		body, err := json.Marshal(rec)
		if err != nil {
			results = append(results, store.Result{Success: false, Message: err.Error()})
			continue
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO records (tbl, data, created_on, modified_on)
			VALUES (?, ?, ?, ?)
		`, table, body, now, now)
		if err != nil {
			return nil, err
		}

		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}

		// Round-trip through JSON so callers see the same value types a fetch returns
		created, err := decodeBody(id, body)
		if err != nil {
			return nil, err
		}
		results = append(results, store.Result{Success: true, Data: created})
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &store.BatchResponse{Success: true, Results: results}, nil
}

// UpdateRecords merges each record's fields into the stored row named by its Id.
func (s *RecordStore) UpdateRecords(ctx context.Context, table string, records []store.Record) (*store.BatchResponse, error) {
	if !store.KnownTable(table) {
		return &store.BatchResponse{Success: false, Message: fmt.Sprintf("%v: %s", store.ErrUnknownTable, table)}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	results := make([]store.Result, 0, len(records))
	for _, patch := range records {
		id, ok := store.ID(patch[store.FieldID])
		if !ok {
			results = append(results, store.Result{Success: false, Message: "Id is required for update"})
			continue
		}

		existing, err := s.get(ctx, tx, table, id)
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

		// CreatedOn is server-owned; restore it from the stored row
		now := s.now().UTC()
		merged[store.FieldCreatedOn] = createdOn
		merged[store.FieldModifiedOn] = now.Format(time.RFC3339Nano)
		delete(merged, store.FieldID)

		body, err := json.Marshal(merged)
		if err != nil {
			results = append(results, store.Result{Success: false, Message: err.Error()})
			continue
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE records SET data = ?, modified_on = ?
			WHERE tbl = ? AND id = ?
		`, body, now, table, id); err != nil {
			return nil, err
		}

		updated, err := decodeBody(id, body)
		if err != nil {
			return nil, err
		}
		results = append(results, store.Result{Success: true, Data: updated})
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &store.BatchResponse{Success: true, Results: results}, nil
}

// DeleteRecords removes rows by id; missing ids fail individually.
func (s *RecordStore) DeleteRecords(ctx context.Context, table string, ids []int64) (*store.BatchResponse, error) {
	if !store.KnownTable(table) {
		return &store.BatchResponse{Success: false, Message: fmt.Sprintf("%v: %s", store.ErrUnknownTable, table)}, nil
	}

	results := make([]store.Result, 0, len(ids))
	for _, id := range ids {
		res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE tbl = ? AND id = ?`, table, id)
		if err != nil {
			return nil, err
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}

		if rows == 0 {
			results = append(results, store.Result{Success: false, Message: ErrRecordNotFound.Error()})
			continue
		}
		results = append(results, store.Result{Success: true, Data: store.Record{store.FieldID: float64(id)}})
	}

	return &store.BatchResponse{Success: true, Results: results}, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *RecordStore) get(ctx context.Context, q queryer, table string, id int64) (store.Record, error) {
	var body []byte
	err := q.QueryRowContext(ctx, `
		SELECT data FROM records
		WHERE tbl = ? AND id = ?
	`, table, id).Scan(&body)

	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	return decodeBody(id, body)
}

func decodeBody(id int64, body []byte) (store.Record, error) {
	rec := store.Record{}
	if len(body) > 0 && string(body) != "null" {
		if err := json.Unmarshal(body, &rec); err != nil {
			return nil, fmt.Errorf("corrupt record %d: %w", id, err)
		}
	}
	rec[store.FieldID] = float64(id)
	return rec, nil
}
