// ABOUTME: Calendar event importer from Google Calendar API
// ABOUTME: Logs past meetings with known contacts as meeting activities
package sync

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/services"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	maxResults = 250 // Google Calendar API max per page

	skipNil       = "nil event"
	skipNoStart   = "missing start time"
	skipAllDay    = "all-day event"
	skipCancelled = "cancelled"
	skipDeclined  = "declined"
	skipSolo      = "solo event"
	skipUnknown   = "no known attendee"
	skipLogged    = "already logged"
	skipFuture    = "not yet happened"
)

// EventSource pages through primary-calendar events starting at since.
type EventSource interface {
	Events(ctx context.Context, since time.Time, pageToken string) (*calendar.Events, error)
}

type calendarSource struct {
	svc *calendar.Service
}

// NewCalendarSource creates a Calendar API source on an authorized client.
func NewCalendarSource(ctx context.Context, client *http.Client) (EventSource, error) {
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &calendarSource{svc: svc}, nil
}

func (c *calendarSource) Events(ctx context.Context, since time.Time, pageToken string) (*calendar.Events, error) {
	call := c.svc.Events.List("primary").
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(since.Format(time.RFC3339)).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

// shouldSkipEvent reports whether event is not a real meeting and why.
func shouldSkipEvent(event *calendar.Event) (bool, string) {
	if event == nil {
		return true, skipNil
	}
	if event.Start == nil {
		return true, skipNoStart
	}
	// All-day events set Start.Date instead of DateTime
	if event.Start.Date != "" {
		return true, skipAllDay
	}
	if event.Status == "cancelled" {
		return true, skipCancelled
	}
	for _, attendee := range event.Attendees {
		if attendee.Self && attendee.ResponseStatus == "declined" {
			return true, skipDeclined
		}
	}
	if len(event.Attendees) <= 1 {
		return true, skipSolo
	}
	return false, ""
}

// CalendarStats counts what a calendar import did.
type CalendarStats struct {
	Fetched int
	Logged  int
	Skipped map[string]int
}

func (s CalendarStats) TotalSkipped() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

type CalendarImporter struct {
	contacts   *services.ContactService
	activities *services.ActivityService
	log        *logrus.Entry
}

func NewCalendarImporter(contacts *services.ContactService, activities *services.ActivityService, log *logrus.Entry) *CalendarImporter {
	if log == nil {
		log = logrus.WithField("component", "sync")
	}
	return &CalendarImporter{contacts: contacts, activities: activities, log: log.WithField("source", "calendar")}
}

// Import logs every finished meeting since the given time that includes a
// known contact. Meetings already logged with the same subject and start
// time are skipped, so reruns are safe.
func (ci *CalendarImporter) Import(ctx context.Context, src EventSource, since time.Time) (CalendarStats, error) {
	stats := CalendarStats{Skipped: map[string]int{}}

	contacts, err := ci.contacts.Fetch(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load contacts: %w", err)
	}
	existing, err := ci.activities.Fetch(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load activities: %w", err)
	}

	matcher := NewContactMatcher(contacts)
	logged := make(map[string]bool, len(existing))
	for _, a := range existing {
		logged[activityKey(a.Subject, a.Timestamp)] = true
	}

	now := ci.activities.Now()
	pageToken := ""
	for {
		events, err := src.Events(ctx, since, pageToken)
		if err != nil {
			return stats, fmt.Errorf("failed to fetch calendar events: %w", err)
		}
		if events == nil {
			break
		}
		stats.Fetched += len(events.Items)

		var batch []models.Activity
		for _, event := range events.Items {
			activity, reason := ci.toActivity(event, matcher, now)
			if reason == "" && logged[activityKey(activity.Subject, activity.Timestamp)] {
				reason = skipLogged
			}
			if reason != "" {
				stats.Skipped[reason]++
				continue
			}
			logged[activityKey(activity.Subject, activity.Timestamp)] = true
			batch = append(batch, activity)
		}

		if len(batch) > 0 {
			created, err := ci.activities.CreateMany(ctx, batch)
			if err != nil {
				return stats, fmt.Errorf("failed to log meetings: %w", err)
			}
			stats.Logged += len(created)
		}

		pageToken = events.NextPageToken
		if pageToken == "" {
			break
		}
	}

	ci.log.WithFields(logrus.Fields{
		"fetched": stats.Fetched,
		"logged":  stats.Logged,
		"skipped": stats.TotalSkipped(),
	}).Info("calendar import finished")
	return stats, nil
}

// toActivity converts event, or returns the reason it is skipped.
func (ci *CalendarImporter) toActivity(event *calendar.Event, matcher *ContactMatcher, now time.Time) (models.Activity, string) {
	if skip, reason := shouldSkipEvent(event); skip {
		return models.Activity{}, reason
	}

	start, err := time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		return models.Activity{}, skipNoStart
	}
	if start.After(now) {
		return models.Activity{}, skipFuture
	}

	contact, ok := attendeeContact(event, matcher)
	if !ok {
		return models.Activity{}, skipUnknown
	}

	subject := event.Summary
	if subject == "" {
		subject = "Meeting with " + contact.FullName()
	}

	a := models.Activity{
		Type:        models.ActivityMeeting,
		Subject:     subject,
		Description: event.Description,
		Timestamp:   start.UTC(),
		ContactID:   models.Ptr(contact.ID),
		CreatedBy:   "calendar",
	}
	if event.End != nil {
		if end, err := time.Parse(time.RFC3339, event.End.DateTime); err == nil && end.After(start) {
			a.Duration = models.Ptr(int(end.Sub(start).Minutes()))
		}
	}
	return a, ""
}

// attendeeContact returns the first known contact among the other
// attendees, preferring people outside the organizer's own domain.
func attendeeContact(event *calendar.Event, matcher *ContactMatcher) (models.Contact, bool) {
	ownDomain := ""
	for _, attendee := range event.Attendees {
		if attendee.Self {
			ownDomain = extractDomain(normalizeEmail(attendee.Email))
		}
	}

	var internal *models.Contact
	for _, attendee := range event.Attendees {
		if attendee.Self {
			continue
		}
		c, ok := matcher.FindMatch(attendee.Email)
		if !ok || c.ID == 0 {
			continue
		}
		if ownDomain != "" && extractDomain(normalizeEmail(attendee.Email)) == ownDomain {
			if internal == nil {
				internal = &c
			}
			continue
		}
		return c, true
	}
	if internal != nil {
		return *internal, true
	}
	return models.Contact{}, false
}

func activityKey(subject string, t time.Time) string {
	return fmt.Sprintf("%s|%d", subject, t.Unix())
}
