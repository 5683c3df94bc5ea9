// ABOUTME: User-facing notification sinks for operation outcomes
// ABOUTME: Log, Sentry, fan-out and recording implementations of one small interface

package notify

import (
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// Sink receives the outcome of user-visible operations. Services report
// failures and successes through it in addition to returning errors.
type Sink interface {
	ReportError(op string, err error)
	ReportSuccess(message string)
}

// Discard drops every notification.
var Discard Sink = discard{}

type discard struct{}

func (discard) ReportError(string, error) {}
func (discard) ReportSuccess(string)      {}

// LogSink writes notifications as structured log lines.
type LogSink struct {
	Log *logrus.Entry
}

func NewLogSink(log *logrus.Entry) *LogSink {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &LogSink{Log: log}
}

func (s *LogSink) ReportError(op string, err error) {
	s.Log.WithFields(logrus.Fields{
		"op":    op,
		"error": err,
	}).Error("operation failed")
}

func (s *LogSink) ReportSuccess(message string) {
	s.Log.WithField("event_type", "success").Info(message)
}

// SentrySink captures failures as Sentry exceptions and successes as breadcrumbs.
type SentrySink struct {
	Hub *sentry.Hub
}

// NewSentrySink initializes the Sentry SDK for dsn. An empty dsn yields Discard.
func NewSentrySink(dsn, environment, release string) (Sink, error) {
	if dsn == "" {
		return Discard, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	})
	if err != nil {
		return nil, err
	}

	return &SentrySink{Hub: sentry.CurrentHub()}, nil
}

func (s *SentrySink) ReportError(op string, err error) {
	s.Hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("op", op)
		s.Hub.CaptureException(err)
	})
}

func (s *SentrySink) ReportSuccess(message string) {
	s.Hub.AddBreadcrumb(&sentry.Breadcrumb{
		Type:      "info",
		Category:  "success",
		Message:   message,
		Timestamp: time.Now(),
	}, nil)
}

// Flush waits up to timeout for buffered events to be sent.
func (s *SentrySink) Flush(timeout time.Duration) bool {
	return s.Hub.Flush(timeout)
}

// Multi fans notifications out to every sink in order.
type Multi []Sink

func (m Multi) ReportError(op string, err error) {
	for _, s := range m {
		s.ReportError(op, err)
	}
}

func (m Multi) ReportSuccess(message string) {
	for _, s := range m {
		s.ReportSuccess(message)
	}
}

// Event is one recorded notification.
type Event struct {
	Op      string
	Err     error
	Message string
	At      time.Time
}

// IsError reports whether the event was a failure.
func (e Event) IsError() bool {
	return e.Err != nil
}

// Recorder keeps notifications in memory for status lines and tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) ReportError(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Op: op, Err: err, Message: err.Error(), At: time.Now()})
}

func (r *Recorder) ReportSuccess(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Message: message, At: time.Now()})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Errors returns only the failure events.
func (r *Recorder) Errors() []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.IsError() {
			out = append(out, e)
		}
	}
	return out
}

// Successes returns the success messages in order.
func (r *Recorder) Successes() []string {
	var out []string
	for _, e := range r.Events() {
		if !e.IsError() {
			out = append(out, e.Message)
		}
	}
	return out
}

// Last returns the most recent event, if any.
func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}
