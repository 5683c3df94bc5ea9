// ABOUTME: Generic entity service over the remote record store
// ABOUTME: One CRUD implementation shared by contacts, deals, tasks and activities

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/notify"
	"github.com/harperreed/dealflow/records"
	"github.com/harperreed/dealflow/store"
	"github.com/sirupsen/logrus"
)

// Service implements list/get/create/update/delete for one entity kind.
// It holds no cached state; every read is a fresh fetch.
type Service[E models.Entity, P any] struct {
	client   store.Client
	codec    records.Codec[E, P]
	sink     notify.Sink
	log      *logrus.Entry
	validate *validator.Validate
	now      func() time.Time
	noun     string

	// Kind-specific hooks
	prepare func(e E, now time.Time) E
	order   func([]E)
}

type options struct {
	log *logrus.Entry
	now func() time.Time
}

// Option configures a service at construction.
type Option func(*options)

// WithLogger sets the logger entry the service logs through.
func WithLogger(log *logrus.Entry) Option {
	return func(o *options) { o.log = log }
}

// WithClock overrides the time source used for timestamps and "today".
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds a service. A nil client yields a service whose reads are
// empty and whose writes fail with ErrNotInitialized.
func New[E models.Entity, P any](client store.Client, codec records.Codec[E, P], sink notify.Sink, opts ...Option) *Service[E, P] {
	o := options{
		log: logrus.NewEntry(logrus.StandardLogger()),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if sink == nil {
		sink = notify.Discard
	}

	return &Service[E, P]{
		client:   client,
		codec:    codec,
		sink:     sink,
		log:      o.log.WithField("table", codec.Table()),
		validate: newValidator(),
		now:      o.now,
		noun:     nounFor(codec.Table()),
	}
}

func nounFor(table string) string {
	switch table {
	case store.TableContacts:
		return "Contact"
	case store.TableDeals:
		return "Deal"
	case store.TableTasks:
		return "Task"
	case store.TableActivities:
		return "Activity"
	}
	return table
}

// Table returns the remote table this service owns.
func (s *Service[E, P]) Table() string {
	return s.codec.Table()
}

// Now returns the service clock's current time.
func (s *Service[E, P]) Now() time.Time {
	return s.now()
}

func (s *Service[E, P]) fail(op string, err error) error {
	s.log.WithFields(logrus.Fields{"op": op, "error": err}).Error("record store operation failed")
	s.sink.ReportError(op, err)
	return err
}

func (s *Service[E, P]) op(verb string) string {
	return verb + " " + s.codec.Table()
}

// Fetch loads every record and reports failures as errors without notifying.
func (s *Service[E, P]) Fetch(ctx context.Context) ([]E, error) {
	if s.client == nil {
		return nil, ErrNotInitialized
	}

	op := s.op("fetch")
	resp, err := s.client.FetchRecords(ctx, s.codec.Table(), store.Query{Fields: s.codec.Fields()})
	if err != nil {
		return nil, &RemoteFailureError{Op: op, Message: err.Error(), Err: err}
	}
	if !resp.Success {
		return nil, &RemoteFailureError{Op: op, Message: resp.Message}
	}

	out := make([]E, 0, len(resp.Data))
	for _, rec := range resp.Data {
		out = append(out, s.codec.Decode(rec))
	}
	if s.order != nil {
		s.order(out)
	}
	return out, nil
}

// List returns every entity in default order. It never fails: errors are
// logged and reported, and an empty slice is returned.
func (s *Service[E, P]) List(ctx context.Context) []E {
	out, err := s.Fetch(ctx)
	if err != nil {
		_ = s.fail(s.op("fetch"), err)
		return []E{}
	}
	return out
}

// Filter lists once and keeps the entities matching keep.
func (s *Service[E, P]) Filter(ctx context.Context, keep func(E) bool) []E {
	return filter(s.List(ctx), keep)
}

// GetByID returns the entity with id, or a NotFoundError.
func (s *Service[E, P]) GetByID(ctx context.Context, id int64) (E, error) {
	var zero E
	if s.client == nil {
		return zero, ErrNotInitialized
	}

	op := s.op("get")
	resp, err := s.client.GetRecordByID(ctx, s.codec.Table(), id, store.Query{Fields: s.codec.Fields()})
	if err != nil {
		return zero, s.fail(op, &RemoteFailureError{Op: op, Message: err.Error(), Err: err})
	}
	if !resp.Success {
		return zero, s.fail(op, &RemoteFailureError{Op: op, Message: resp.Message})
	}
	if len(resp.Data) == 0 {
		return zero, &NotFoundError{Table: s.codec.Table(), ID: id}
	}

	return s.codec.Decode(resp.Data[0]), nil
}

// encodeNew prepares, validates and encodes e for creation.
func (s *Service[E, P]) encodeNew(e E) (store.Record, error) {
	if s.prepare != nil {
		e = s.prepare(e, s.now())
	}
	if err := validate(s.validate, e); err != nil {
		return nil, err
	}

	rec := s.codec.Encode(e)
	delete(rec, store.FieldID)
	delete(rec, store.FieldCreatedOn)
	delete(rec, store.FieldModifiedOn)
	return rec, nil
}

// Create validates e, sends it and returns the stored entity.
func (s *Service[E, P]) Create(ctx context.Context, e E) (E, error) {
	var zero E
	op := s.op("create")
	if s.client == nil {
		return zero, s.fail(op, ErrNotInitialized)
	}

	rec, err := s.encodeNew(e)
	if err != nil {
		return zero, s.fail(op, err)
	}

	resp, err := s.client.CreateRecords(ctx, s.codec.Table(), []store.Record{rec})
	if err != nil {
		return zero, s.fail(op, &RemoteFailureError{Op: op, Message: err.Error(), Err: err})
	}
	if !resp.Success {
		return zero, s.fail(op, &RemoteFailureError{Op: op, Message: resp.Message})
	}
	if len(resp.Results) == 0 {
		return zero, s.fail(op, &RemoteFailureError{Op: op, Message: "no result returned"})
	}

	result := resp.Results[0]
	if !result.Success {
		return zero, s.fail(op, &RemoteFailureError{Op: op, Message: resultMessage(result)})
	}

	created := s.codec.Decode(result.Data)
	s.log.WithField("id", created.GetID()).Debug("created")
	s.sink.ReportSuccess(s.noun + " created successfully")
	return created, nil
}

// CreateMany sends every valid entity in one batch. Per-record failures are
// reported individually; the created entities are returned in input order.
// It fails only when the batch as a whole failed or nothing was created.
func (s *Service[E, P]) CreateMany(ctx context.Context, items []E) ([]E, error) {
	op := s.op("create")
	if s.client == nil {
		return nil, s.fail(op, ErrNotInitialized)
	}
	if len(items) == 0 {
		return []E{}, nil
	}

	recs := make([]store.Record, 0, len(items))
	for i, e := range items {
		rec, err := s.encodeNew(e)
		if err != nil {
			_ = s.fail(fmt.Sprintf("%s[%d]", op, i), err)
			continue
		}
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return nil, &RemoteFailureError{Op: op, Message: "no valid records to create"}
	}

	resp, err := s.client.CreateRecords(ctx, s.codec.Table(), recs)
	if err != nil {
		return nil, s.fail(op, &RemoteFailureError{Op: op, Message: err.Error(), Err: err})
	}
	if !resp.Success {
		return nil, s.fail(op, &RemoteFailureError{Op: op, Message: resp.Message})
	}

	created := make([]E, 0, len(resp.Results))
	for i, result := range resp.Results {
		if !result.Success {
			_ = s.fail(fmt.Sprintf("%s[%d]", op, i), &RemoteFailureError{Op: op, Message: resultMessage(result)})
			continue
		}
		created = append(created, s.codec.Decode(result.Data))
	}

	if len(created) == 0 {
		return nil, &RemoteFailureError{Op: op, Message: "every record was rejected"}
	}

	s.sink.ReportSuccess(fmt.Sprintf("%d %s records created", len(created), strings.ToLower(s.noun)))
	return created, nil
}

// Update sends only the fields set in patch and returns the stored entity.
func (s *Service[E, P]) Update(ctx context.Context, id int64, patch P) (E, error) {
	return s.update(ctx, id, patch, s.noun+" updated successfully")
}

func (s *Service[E, P]) update(ctx context.Context, id int64, patch P, success string) (E, error) {
	var zero E
	op := s.op("update")
	if s.client == nil {
		return zero, s.fail(op, ErrNotInitialized)
	}
	if err := validate(s.validate, patch); err != nil {
		return zero, s.fail(op, err)
	}

	rec := s.codec.EncodePatch(id, patch)
	resp, err := s.client.UpdateRecords(ctx, s.codec.Table(), []store.Record{rec})
	if err != nil {
		return zero, s.fail(op, &RemoteFailureError{Op: op, Message: err.Error(), Err: err})
	}
	if !resp.Success {
		return zero, s.fail(op, &RemoteFailureError{Op: op, Message: resp.Message})
	}

	if len(resp.Results) == 0 || !resp.Results[0].Success {
		msg := "no result returned"
		if len(resp.Results) > 0 {
			msg = resultMessage(resp.Results[0])
		}
		return zero, s.fail(op, s.classifyUpdateFailure(ctx, op, id, msg))
	}

	updated := s.codec.Decode(resp.Results[0].Data)
	if success != "" {
		s.sink.ReportSuccess(success)
	}
	return updated, nil
}

// classifyUpdateFailure probes for the record so a missing id surfaces as
// NotFound rather than a generic rejection.
func (s *Service[E, P]) classifyUpdateFailure(ctx context.Context, op string, id int64, msg string) error {
	probe, err := s.client.GetRecordByID(ctx, s.codec.Table(), id, store.Query{Fields: []string{store.FieldName}})
	if err == nil && probe.Success && len(probe.Data) == 0 {
		return &NotFoundError{Table: s.codec.Table(), ID: id}
	}
	return &RemoteFailureError{Op: op, Message: msg}
}

// Delete removes id. It reports false without error when nothing was removed.
func (s *Service[E, P]) Delete(ctx context.Context, id int64) (bool, error) {
	op := s.op("delete")
	if s.client == nil {
		return false, s.fail(op, ErrNotInitialized)
	}

	resp, err := s.client.DeleteRecords(ctx, s.codec.Table(), []int64{id})
	if err != nil {
		return false, s.fail(op, &RemoteFailureError{Op: op, Message: err.Error(), Err: err})
	}
	if !resp.Success {
		return false, s.fail(op, &RemoteFailureError{Op: op, Message: resp.Message})
	}

	if len(resp.Results) != 1 || !resp.Results[0].Success {
		s.log.WithField("id", id).Debug("delete removed nothing")
		return false, nil
	}

	s.sink.ReportSuccess(s.noun + " deleted successfully")
	return true, nil
}

func resultMessage(r store.Result) string {
	if len(r.Errors) == 0 {
		if r.Message == "" {
			return "record rejected"
		}
		return r.Message
	}

	parts := make([]string, 0, len(r.Errors))
	for _, fe := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.FieldLabel, fe.Message))
	}
	return strings.Join(parts, "; ")
}

func filter[E any](items []E, keep func(E) bool) []E {
	out := make([]E, 0, len(items))
	for _, e := range items {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
