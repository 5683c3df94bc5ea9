// ABOUTME: Human-readable date labels for tasks and activities
// ABOUTME: Today/Yesterday/Tomorrow relative to a supplied clock

package views

import (
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/services"
)

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayLabel names the calendar day of t as seen from now.
func DayLabel(t, now time.Time) string {
	t = t.In(now.Location())
	switch {
	case sameDay(t, now):
		return "Today"
	case sameDay(t, now.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return t.Format("January 02, 2006")
	}
}

// ActivityTimeLabel renders an activity timestamp like "Today at 3:04 PM".
func ActivityTimeLabel(t, now time.Time) string {
	t = t.In(now.Location())
	clock := t.Format("3:04 PM")
	switch {
	case sameDay(t, now):
		return "Today at " + clock
	case sameDay(t, now.AddDate(0, 0, -1)):
		return "Yesterday at " + clock
	default:
		return t.Format("Jan 02") + " at " + clock
	}
}

// TaskDateLabel renders a task's due date relative to now: Overdue,
// Today, Tomorrow or "Jan 02". Tasks without a due date get "".
func TaskDateLabel(t models.Task, now time.Time) string {
	if t.DueDate == "" {
		return ""
	}
	due, err := time.ParseInLocation(services.DateLayout, t.DueDate, now.Location())
	if err != nil {
		return t.DueDate
	}

	today := services.Today(now)
	switch {
	case services.IsOverdue(t, today):
		return "Overdue"
	case t.DueDate == today:
		return "Today"
	case sameDay(due, now.AddDate(0, 0, 1)):
		return "Tomorrow"
	default:
		return due.Format("Jan 02")
	}
}
