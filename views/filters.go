// ABOUTME: List filters for the task and activity pages
// ABOUTME: Search, status (including overdue), priority, type and outcome

package views

import (
	"strings"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/services"
)

// FilterAll disables a filter dimension.
const FilterAll = "all"

// StatusOverdue selects pending tasks due before today.
const StatusOverdue = "overdue"

func isAll(v string) bool {
	return v == "" || v == FilterAll
}

type TaskFilter struct {
	Search   string `json:"search,omitempty"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// Apply keeps the tasks matching every set dimension.
func (f TaskFilter) Apply(tasks []models.Task, today string) []models.Task {
	q := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if q != "" &&
			!strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			continue
		}

		switch {
		case isAll(f.Status):
		case f.Status == StatusOverdue:
			if !services.IsOverdue(t, today) {
				continue
			}
		case t.Status != f.Status:
			continue
		}

		if !isAll(f.Priority) && t.Priority != f.Priority {
			continue
		}

		out = append(out, t)
	}
	return out
}

type ActivityFilter struct {
	Type    string `json:"type,omitempty"`
	Outcome string `json:"outcome,omitempty"`
}

func (f ActivityFilter) Apply(activities []models.Activity) []models.Activity {
	out := make([]models.Activity, 0, len(activities))
	for _, a := range activities {
		if !isAll(f.Type) && a.Type != f.Type {
			continue
		}
		if !isAll(f.Outcome) && a.Outcome != f.Outcome {
			continue
		}
		out = append(out, a)
	}
	return out
}

// ActivityTypeCounts counts activities per type, with every known type present.
func ActivityTypeCounts(activities []models.Activity) map[string]int {
	counts := make(map[string]int, len(models.ActivityTypes))
	for _, t := range models.ActivityTypes {
		counts[t] = 0
	}
	for _, a := range activities {
		counts[a.Type]++
	}
	return counts
}
