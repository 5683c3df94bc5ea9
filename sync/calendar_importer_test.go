// ABOUTME: Tests for the calendar meeting importer
// ABOUTME: Covers event filtering, contact matching and rerun deduplication
package sync

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/services"
	"github.com/harperreed/dealflow/store"
	"github.com/harperreed/dealflow/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

var calendarNow = time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)

type fakeEvents struct {
	pages []*calendar.Events
	since time.Time
	calls int
}

func (f *fakeEvents) Events(_ context.Context, since time.Time, _ string) (*calendar.Events, error) {
	f.since = since
	f.calls++
	if f.calls > len(f.pages) {
		return &calendar.Events{}, nil
	}
	return f.pages[f.calls-1], nil
}

func meeting(summary, start string, attendees ...string) *calendar.Event {
	e := &calendar.Event{
		Summary: summary,
		Status:  "confirmed",
		Start:   &calendar.EventDateTime{DateTime: start},
		End:     &calendar.EventDateTime{DateTime: start[:11] + "23:30:00Z"},
	}
	e.Attendees = append(e.Attendees, &calendar.EventAttendee{Email: "me@dealflow.dev", Self: true})
	for _, a := range attendees {
		e.Attendees = append(e.Attendees, &calendar.EventAttendee{Email: a})
	}
	return e
}

func TestShouldSkipEvent(t *testing.T) {
	allDay := &calendar.Event{Start: &calendar.EventDateTime{Date: "2024-03-01"}}
	cancelled := meeting("x", "2024-03-01T10:00:00Z", "a@b.com")
	cancelled.Status = "cancelled"
	declined := meeting("x", "2024-03-01T10:00:00Z", "a@b.com")
	declined.Attendees[0].ResponseStatus = "declined"

	tests := []struct {
		name   string
		event  *calendar.Event
		reason string
	}{
		{"nil", nil, skipNil},
		{"no start", &calendar.Event{}, skipNoStart},
		{"all day", allDay, skipAllDay},
		{"cancelled", cancelled, skipCancelled},
		{"declined", declined, skipDeclined},
		{"solo", meeting("x", "2024-03-01T10:00:00Z"), skipSolo},
		{"meeting", meeting("x", "2024-03-01T10:00:00Z", "a@b.com"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, reason := shouldSkipEvent(tt.event)
			assert.Equal(t, tt.reason != "", skip)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestImportCalendar(t *testing.T) {
	fake := storetest.New()
	fake.Seed(store.TableContacts, 1, store.Record{"Name": "Ada Lovelace", "first_name_c": "Ada", "last_name_c": "Lovelace", "email_c": "ada@example.com"})
	fake.Seed(store.TableContacts, 2, store.Record{"Name": "Colleague One", "first_name_c": "Colleague", "last_name_c": "One", "email_c": "col@dealflow.dev"})

	clock := services.WithClock(func() time.Time { return calendarNow })
	importer := NewCalendarImporter(
		services.NewContactService(fake, nil, clock),
		services.NewActivityService(fake, nil, clock),
		nil,
	)

	src := &fakeEvents{pages: []*calendar.Events{
		{
			Items: []*calendar.Event{
				meeting("Kickoff", "2024-03-08T22:00:00Z", "col@dealflow.dev", "ada@example.com"),
				meeting("Stranger", "2024-03-08T09:00:00Z", "who@else.com"),
				meeting("", "2024-03-09T23:00:00Z", "col@dealflow.dev"),
			},
			NextPageToken: "next",
		},
		{
			Items: []*calendar.Event{
				meeting("Tomorrow", "2024-03-11T09:00:00Z", "ada@example.com"),
			},
		},
	}}

	since := calendarNow.AddDate(0, 0, -30)
	stats, err := importer.Import(context.Background(), src, since)
	require.NoError(t, err)
	assert.Equal(t, since, src.since)
	assert.Equal(t, 4, stats.Fetched)
	assert.Equal(t, 2, stats.Logged)
	assert.Equal(t, map[string]int{skipUnknown: 1, skipFuture: 1}, stats.Skipped)

	activities, err := importer.activities.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, activities, 2)

	byContact := map[int64]models.Activity{}
	for _, a := range activities {
		require.NotNil(t, a.ContactID)
		byContact[*a.ContactID] = a
	}

	kickoff := byContact[1]
	assert.Equal(t, "Kickoff", kickoff.Subject, "external attendees win over colleagues")
	assert.Equal(t, models.ActivityMeeting, kickoff.Type)
	require.NotNil(t, kickoff.Duration)
	assert.Equal(t, 90, *kickoff.Duration)

	assert.Equal(t, "Meeting with Colleague One", byContact[2].Subject)

	rerun := &fakeEvents{pages: src.pages}
	stats, err = importer.Import(context.Background(), rerun, since)
	require.NoError(t, err)
	assert.Zero(t, stats.Logged)
	assert.Equal(t, 2, stats.Skipped[skipLogged])
}
