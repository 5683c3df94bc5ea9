// ABOUTME: Record mapper between remote store records and domain entities
// ABOUTME: Shared field readers/writers used by every per-kind codec

package records

import (
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/store"
	"github.com/shopspring/decimal"
)

// Codec converts one entity kind to and from its remote representation.
// Decode is total: missing or malformed fields fall back to defaults.
type Codec[E models.Entity, P any] interface {
	Table() string
	Fields() []string
	Decode(rec store.Record) E
	Encode(e E) store.Record
	EncodePatch(id int64, p P) store.Record
}

const dateLayout = "2006-01-02"

func getString(rec store.Record, key string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func stringOr(rec store.Record, key, fallback string) string {
	if s := getString(rec, key); s != "" {
		return s
	}
	return fallback
}

func getInt(rec store.Record, key string) (int, bool) {
	switch v := rec[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

func getIntPtr(rec store.Record, key string) *int {
	if n, ok := getInt(rec, key); ok {
		return &n
	}
	return nil
}

func getDecimal(rec store.Record, key string) decimal.Decimal {
	switch v := rec[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return decimal.Zero
}

// getRef reads a relation that may be a bare id or an object carrying one.
func getRef(rec store.Record, key string) *int64 {
	id, ok := store.ID(rec[key])
	if !ok {
		return nil
	}
	return &id
}

func getTime(rec store.Record, key string) time.Time {
	s := getString(rec, key)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t
	}
	return time.Time{}
}

func getTimePtr(rec store.Record, key string) *time.Time {
	t := getTime(rec, key)
	if t.IsZero() {
		return nil
	}
	return &t
}

// getDate normalizes a calendar date to YYYY-MM-DD so it compares lexically.
func getDate(rec store.Record, key string) string {
	s := strings.TrimSpace(getString(rec, key))
	if len(s) > len(dateLayout) {
		if _, err := time.Parse(dateLayout, s[:len(dateLayout)]); err == nil {
			return s[:len(dateLayout)]
		}
	}
	return s
}

// SplitTags parses the remote comma-separated tag list.
func SplitTags(s string) []string {
	tags := []string{}
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// JoinTags renders tags in the remote comma-separated form.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func getTags(rec store.Record) []string {
	switch v := rec[store.FieldTags].(type) {
	case []any:
		tags := []string{}
		for _, t := range v {
			if s, ok := t.(string); ok && strings.TrimSpace(s) != "" {
				tags = append(tags, strings.TrimSpace(s))
			}
		}
		return tags
	default:
		return SplitTags(getString(rec, store.FieldTags))
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// recordID decodes the system id; records without one decode to 0.
func recordID(rec store.Record) int64 {
	id, _ := store.ID(rec[store.FieldID])
	return id
}

// fieldWriter accumulates encoded fields, skipping absent values.
type fieldWriter store.Record

func (w fieldWriter) str(key, v string) {
	if v != "" {
		w[key] = v
	}
}

func (w fieldWriter) ref(key string, v *int64) {
	if v != nil {
		w[key] = *v
	}
}

func (w fieldWriter) timestamp(key string, t time.Time) {
	if !t.IsZero() {
		w[key] = formatTime(t)
	}
}

func (w fieldWriter) system(id int64, created, modified time.Time) {
	if id != 0 {
		w[store.FieldID] = id
	}
	w.timestamp(store.FieldCreatedOn, created)
	w.timestamp(store.FieldModifiedOn, modified)
}

// patchWriter writes only the fields a patch provides.
type patchWriter store.Record

func (w patchWriter) str(key string, v *string) {
	if v != nil {
		w[key] = *v
	}
}

// ref writes a reference, or null when clear is set.
func (w patchWriter) ref(key string, v *int64, clear bool) {
	switch {
	case clear:
		w[key] = nil
	case v != nil:
		w[key] = *v
	}
}

func (w patchWriter) timestamp(key string, v *time.Time) {
	if v != nil {
		w[key] = formatTime(*v)
	}
}

func (w patchWriter) tags(v *[]string) {
	if v != nil {
		w[store.FieldTags] = JoinTags(*v)
	}
}

func newPatch(id int64) patchWriter {
	return patchWriter{store.FieldID: id}
}
