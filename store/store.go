// ABOUTME: Remote record-store contract shared by every backend
// ABOUTME: Defines the tabular Record shape and success/data/message envelopes
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Record is a flat remote row. Values are whatever the backend decoded
// from JSON: strings, float64, bool, nil, or nested maps for relations.
type Record map[string]any

// System field names present on every table.
const (
	FieldID         = "Id"
	FieldName       = "Name"
	FieldTags       = "Tags"
	FieldCreatedOn  = "CreatedOn"
	FieldModifiedOn = "ModifiedOn"
)

// Table names.
const (
	TableContacts   = "contact_c"
	TableDeals      = "deal_c"
	TableTasks      = "task_c"
	TableActivities = "activity_c"
)

// Tables lists every table the application reads and writes.
var Tables = []string{TableContacts, TableDeals, TableTasks, TableActivities}

// Query narrows what a fetch returns. An empty Fields list returns every field.
type Query struct {
	Fields []string
}

// Response is the envelope for reads.
type Response struct {
	Success bool
	Message string
	Data    []Record
}

// FieldError describes why one field of one record was rejected.
type FieldError struct {
	FieldLabel string
	Message    string
}

// Result is the per-record outcome of a batch write.
type Result struct {
	Success bool
	Message string
	Data    Record
	Errors  []FieldError
}

// BatchResponse is the envelope for creates, updates and deletes.
type BatchResponse struct {
	Success bool
	Message string
	Results []Result
}

// Client is the remote record store.
type Client interface {
	FetchRecords(ctx context.Context, table string, q Query) (*Response, error)
	GetRecordByID(ctx context.Context, table string, id int64, q Query) (*Response, error)
	CreateRecords(ctx context.Context, table string, records []Record) (*BatchResponse, error)
	UpdateRecords(ctx context.Context, table string, records []Record) (*BatchResponse, error)
	DeleteRecords(ctx context.Context, table string, ids []int64) (*BatchResponse, error)
}

// ErrUnknownTable is returned by backends for tables outside Tables.
var ErrUnknownTable = errors.New("unknown table")

// RequiredFields lists the fields a backend rejects records without.
var RequiredFields = map[string][]string{
	TableContacts:   {FieldName},
	TableDeals:      {FieldName},
	TableTasks:      {FieldName},
	TableActivities: {FieldName},
}

// KnownTable reports whether table is served by the backends.
func KnownTable(table string) bool {
	for _, t := range Tables {
		if t == table {
			return true
		}
	}
	return false
}

// Project returns a copy of rec limited to fields plus the system id.
// A nil or empty fields list copies everything.
func Project(rec Record, fields []string) Record {
	out := make(Record, len(rec))
	if len(fields) == 0 {
		for k, v := range rec {
			out[k] = v
		}
		return out
	}
	out[FieldID] = rec[FieldID]
	for _, f := range fields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}

// MissingRequired returns the required fields absent or blank in rec.
func MissingRequired(table string, rec Record) []FieldError {
	var errs []FieldError
	for _, f := range RequiredFields[table] {
		v, ok := rec[f]
		if !ok || v == nil {
			errs = append(errs, FieldError{FieldLabel: f, Message: f + " is required"})
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			errs = append(errs, FieldError{FieldLabel: f, Message: f + " is required"})
		}
	}
	return errs
}

// Merge copies patch fields into base, skipping the id, and returns base.
func Merge(base, patch Record) Record {
	for k, v := range patch {
		if k == FieldID {
			continue
		}
		base[k] = v
	}
	return base
}

// ID extracts an integer id from a bare value or from an object holding
// an "Id" or "id" key. It reports false for nil, empty or unparseable input.
func ID(v any) (int64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		if x != float64(int64(x)) {
			return 0, false
		}
		return int64(x), true
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	case Record:
		return ID(map[string]any(x))
	case map[string]any:
		if inner, ok := x["Id"]; ok {
			return ID(inner)
		}
		if inner, ok := x["id"]; ok {
			return ID(inner)
		}
	}
	return 0, false
}
