// ABOUTME: Date-based grouping of tasks and activities for list views
// ABOUTME: Completed tasks always group as completed; activities group by calendar day

package views

import (
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/services"
)

// TaskGroups splits tasks the way the task list renders them.
type TaskGroups struct {
	Overdue   []models.Task `json:"overdue"`
	Today     []models.Task `json:"today"`
	Upcoming  []models.Task `json:"upcoming"`
	Completed []models.Task `json:"completed"`
}

// Len is the number of tasks across every group.
func (g TaskGroups) Len() int {
	return len(g.Overdue) + len(g.Today) + len(g.Upcoming) + len(g.Completed)
}

// GroupTasksByDate buckets tasks against today (YYYY-MM-DD). Completed
// status wins over any date; pending tasks without a due date are upcoming.
func GroupTasksByDate(tasks []models.Task, today string) TaskGroups {
	g := TaskGroups{
		Overdue:   []models.Task{},
		Today:     []models.Task{},
		Upcoming:  []models.Task{},
		Completed: []models.Task{},
	}

	for _, t := range tasks {
		switch {
		case t.Status == models.TaskStatusCompleted:
			g.Completed = append(g.Completed, t)
		case t.DueDate == "":
			g.Upcoming = append(g.Upcoming, t)
		case t.DueDate < today:
			g.Overdue = append(g.Overdue, t)
		case t.DueDate == today:
			g.Today = append(g.Today, t)
		default:
			g.Upcoming = append(g.Upcoming, t)
		}
	}

	return g
}

// ActivityGroup is one day's activities under its display label.
type ActivityGroup struct {
	Label      string            `json:"label"`
	Activities []models.Activity `json:"activities"`
}

// GroupActivitiesByDate sorts activities newest first and groups them by
// calendar day in now's location. Group order follows the sorted activities.
func GroupActivitiesByDate(activities []models.Activity, now time.Time) []ActivityGroup {
	sorted := append([]models.Activity(nil), activities...)
	services.SortActivities(sorted)

	groups := []ActivityGroup{}
	index := map[string]int{}
	for _, a := range sorted {
		label := DayLabel(a.Timestamp, now)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, ActivityGroup{Label: label})
		}
		groups[i].Activities = append(groups[i].Activities, a)
	}

	return groups
}
