// ABOUTME: Pure snapshot queries behind the kind-specific derived reads
// ABOUTME: Filter, sort and slice fetched collections without touching the store

package services

import (
	"sort"
	"strings"
	"time"

	"github.com/harperreed/dealflow/models"
)

// DateLayout is the calendar-date form due dates are stored and compared in.
const DateLayout = "2006-01-02"

// Today returns now's calendar date in DateLayout.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

func ContactsByStatus(contacts []models.Contact, status string) []models.Contact {
	return filter(contacts, func(c models.Contact) bool { return c.Status == status })
}

// SearchContacts matches query case-insensitively against name, email and company.
// An empty query matches everything.
func SearchContacts(contacts []models.Contact, query string) []models.Contact {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return contacts
	}
	return filter(contacts, func(c models.Contact) bool {
		for _, field := range []string{c.FirstName, c.LastName, c.Email, c.Company} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	})
}

func DealsByStage(deals []models.Deal, stage string) []models.Deal {
	return filter(deals, func(d models.Deal) bool { return d.Stage == stage })
}

func TasksByStatus(tasks []models.Task, status string) []models.Task {
	return filter(tasks, func(t models.Task) bool { return t.Status == status })
}

// IsOverdue reports whether a pending task's due date is before today.
func IsOverdue(t models.Task, today string) bool {
	return t.Status == models.TaskStatusPending && t.DueDate != "" && t.DueDate < today
}

// IsDueToday reports whether a pending task is due on today.
func IsDueToday(t models.Task, today string) bool {
	return t.Status == models.TaskStatusPending && t.DueDate == today
}

func OverdueTasks(tasks []models.Task, today string) []models.Task {
	return filter(tasks, func(t models.Task) bool { return IsOverdue(t, today) })
}

func TodayTasks(tasks []models.Task, today string) []models.Task {
	return filter(tasks, func(t models.Task) bool { return IsDueToday(t, today) })
}

// UpcomingTasks returns up to limit pending tasks ordered by due date,
// undated tasks last. A limit of 0 or less returns all of them.
func UpcomingTasks(tasks []models.Task, limit int) []models.Task {
	pending := TasksByStatus(tasks, models.TaskStatusPending)
	sort.SliceStable(pending, func(i, j int) bool {
		a, b := pending[i].DueDate, pending[j].DueDate
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a < b
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending
}

// SortActivities orders activities newest first, in place.
func SortActivities(activities []models.Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
}

func ActivitiesByContact(activities []models.Activity, contactID int64) []models.Activity {
	return filter(activities, func(a models.Activity) bool {
		return a.ContactID != nil && *a.ContactID == contactID
	})
}

func ActivitiesByDeal(activities []models.Activity, dealID int64) []models.Activity {
	return filter(activities, func(a models.Activity) bool {
		return a.DealID != nil && *a.DealID == dealID
	})
}

func ActivitiesByType(activities []models.Activity, activityType string) []models.Activity {
	return filter(activities, func(a models.Activity) bool { return a.Type == activityType })
}

// RecentActivities returns the newest limit activities from an already sorted slice.
func RecentActivities(activities []models.Activity, limit int) []models.Activity {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if len(activities) > limit {
		return activities[:limit]
	}
	return activities
}
