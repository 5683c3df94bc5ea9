// ABOUTME: Tests for record-store helpers shared by backends
// ABOUTME: Covers id extraction, projection, required-field checks and merging
package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{"int", 7, 7, true},
		{"int64", int64(8), 8, true},
		{"float", float64(9), 9, true},
		{"fractional float", 9.5, 0, false},
		{"json number", json.Number("10"), 10, true},
		{"numeric string", " 11 ", 11, true},
		{"garbage string", "eleven", 0, false},
		{"object with Id", map[string]any{"Id": float64(12), "Name": "Jo"}, 12, true},
		{"object with id", map[string]any{"id": "13"}, 13, true},
		{"record", Record{"Id": 14}, 14, true},
		{"object without id", map[string]any{"Name": "Jo"}, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ID(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProject(t *testing.T) {
	rec := Record{"Id": float64(1), "Name": "Deal", "stage_c": "lead", "value_c": float64(10)}

	all := Project(rec, nil)
	assert.Equal(t, rec, all)

	some := Project(rec, []string{"stage_c", "missing_c"})
	assert.Equal(t, Record{"Id": float64(1), "stage_c": "lead"}, some)

	// Projection copies; the source stays intact
	some["stage_c"] = "proposal"
	assert.Equal(t, "lead", rec["stage_c"])
}

func TestMissingRequired(t *testing.T) {
	assert.Empty(t, MissingRequired(TableDeals, Record{"Name": "Deal"}))
	assert.Len(t, MissingRequired(TableDeals, Record{}), 1)
	assert.Len(t, MissingRequired(TableDeals, Record{"Name": ""}), 1)
	assert.Len(t, MissingRequired(TableDeals, Record{"Name": nil}), 1)
	assert.Empty(t, MissingRequired("unknown_c", Record{}))
}

func TestMerge(t *testing.T) {
	base := Record{"Id": 1, "Name": "Old", "stage_c": "lead"}
	Merge(base, Record{"Id": 99, "stage_c": "proposal"})

	assert.Equal(t, 1, base["Id"])
	assert.Equal(t, "Old", base["Name"])
	assert.Equal(t, "proposal", base["stage_c"])
}

func TestKnownTable(t *testing.T) {
	assert.True(t, KnownTable(TableDeals))
	assert.False(t, KnownTable("companies"))
}
