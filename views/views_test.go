// ABOUTME: Tests for grouping, labels, filters and page loaders
// ABOUTME: Uses fixed clocks and an in-memory record store

package views

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/services"
	"github.com/harperreed/dealflow/state"
	"github.com/harperreed/dealflow/store"
	"github.com/harperreed/dealflow/store/storetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 10, 15, 4, 0, 0, time.UTC)

func TestGroupTasksByDate(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Status: models.TaskStatusCompleted, DueDate: "2024-01-01"},
		{ID: 2, Status: models.TaskStatusPending, DueDate: "2024-03-09"},
		{ID: 3, Status: models.TaskStatusPending, DueDate: "2024-03-10"},
		{ID: 4, Status: models.TaskStatusPending, DueDate: "2024-03-11"},
		{ID: 5, Status: models.TaskStatusPending},
	}

	g := GroupTasksByDate(tasks, "2024-03-10")
	assert.Equal(t, []int64{1}, ids(g.Completed))
	assert.Equal(t, []int64{2}, ids(g.Overdue))
	assert.Equal(t, []int64{3}, ids(g.Today))
	assert.Equal(t, []int64{4, 5}, ids(g.Upcoming))
	assert.Equal(t, len(tasks), g.Len())
}

func ids(tasks []models.Task) []int64 {
	out := []int64{}
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestGroupActivitiesByDate(t *testing.T) {
	acts := []models.Activity{
		{ID: 1, Timestamp: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		{ID: 2, Timestamp: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)},
		{ID: 3, Timestamp: time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC)},
		{ID: 4, Timestamp: time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC)},
	}

	groups := GroupActivitiesByDate(acts, now)
	require.Len(t, groups, 3)
	assert.Equal(t, "Today", groups[0].Label)
	assert.Equal(t, int64(4), groups[0].Activities[0].ID)
	assert.Equal(t, int64(2), groups[0].Activities[1].ID)
	assert.Equal(t, "Yesterday", groups[1].Label)
	assert.Equal(t, "March 01, 2024", groups[2].Label)

	// Input order is left alone
	assert.Equal(t, int64(1), acts[0].ID)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Today at 9:30 AM", ActivityTimeLabel(time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC), now))
	assert.Equal(t, "Yesterday at 6:00 PM", ActivityTimeLabel(time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "Feb 28 at 8:05 AM", ActivityTimeLabel(time.Date(2024, 2, 28, 8, 5, 0, 0, time.UTC), now))

	assert.Equal(t, "Overdue", TaskDateLabel(models.Task{Status: models.TaskStatusPending, DueDate: "2024-03-09"}, now))
	assert.Equal(t, "Today", TaskDateLabel(models.Task{Status: models.TaskStatusPending, DueDate: "2024-03-10"}, now))
	assert.Equal(t, "Tomorrow", TaskDateLabel(models.Task{Status: models.TaskStatusPending, DueDate: "2024-03-11"}, now))
	assert.Equal(t, "Apr 01", TaskDateLabel(models.Task{Status: models.TaskStatusPending, DueDate: "2024-04-01"}, now))
	assert.Equal(t, "Mar 01", TaskDateLabel(models.Task{Status: models.TaskStatusCompleted, DueDate: "2024-03-01"}, now))
	assert.Equal(t, "", TaskDateLabel(models.Task{}, now))
}

func TestTaskFilter(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Title: "Call Acme", Status: models.TaskStatusPending, Priority: models.PriorityHigh, DueDate: "2024-03-01"},
		{ID: 2, Title: "Email", Description: "acme follow-up", Status: models.TaskStatusCompleted, Priority: models.PriorityLow},
		{ID: 3, Title: "Prep deck", Status: models.TaskStatusPending, Priority: models.PriorityHigh, DueDate: "2024-03-20"},
	}
	today := "2024-03-10"

	assert.Len(t, TaskFilter{}.Apply(tasks, today), 3)
	assert.Equal(t, []int64{1, 2}, ids(TaskFilter{Search: "ACME"}.Apply(tasks, today)))
	assert.Equal(t, []int64{1}, ids(TaskFilter{Status: StatusOverdue}.Apply(tasks, today)))
	assert.Equal(t, []int64{2}, ids(TaskFilter{Status: models.TaskStatusCompleted}.Apply(tasks, today)))
	assert.Equal(t, []int64{1, 3}, ids(TaskFilter{Status: FilterAll, Priority: models.PriorityHigh}.Apply(tasks, today)))
}

func TestActivityFilterAndCounts(t *testing.T) {
	acts := []models.Activity{
		{ID: 1, Type: models.ActivityCall, Outcome: "positive"},
		{ID: 2, Type: models.ActivityCall, Outcome: "negative"},
		{ID: 3, Type: models.ActivityEmail, Outcome: "positive"},
	}

	assert.Len(t, ActivityFilter{Type: models.ActivityCall}.Apply(acts), 2)
	assert.Len(t, ActivityFilter{Outcome: "positive"}.Apply(acts), 2)
	assert.Len(t, ActivityFilter{Type: models.ActivityCall, Outcome: "positive"}.Apply(acts), 1)

	counts := ActivityTypeCounts(acts)
	assert.Equal(t, 2, counts[models.ActivityCall])
	assert.Equal(t, 0, counts[models.ActivityMeeting])
}

func seeded(t *testing.T) (*storetest.Fake, Services) {
	t.Helper()
	fake := storetest.New()
	fake.Seed(store.TableContacts, 1, store.Record{"Name": "Ada Lovelace", "first_name_c": "Ada", "last_name_c": "Lovelace", "status_c": "active"})
	fake.Seed(store.TableContacts, 2, store.Record{"Name": "Bob Byte", "first_name_c": "Bob", "last_name_c": "Byte", "status_c": "inactive"})
	fake.Seed(store.TableDeals, 1, store.Record{"Name": "Acme", "stage_c": "lead", "value_c": 1000.0})
	fake.Seed(store.TableDeals, 2, store.Record{"Name": "Won", "stage_c": "closed-won", "value_c": 5000.0})
	fake.Seed(store.TableTasks, 1, store.Record{"Name": "Call", "due_date_c": "2024-03-09", "status_c": "pending", "contact_id_c": 1})
	fake.Seed(store.TableTasks, 2, store.Record{"Name": "Done", "due_date_c": "2024-03-01", "status_c": "completed", "contact_id_c": 99})
	fake.Seed(store.TableActivities, 1, store.Record{"Name": "Intro", "type_c": "call", "timestamp_c": "2024-03-10T09:00:00Z", "deal_id_c": 1})

	clock := services.WithClock(func() time.Time { return now })
	return fake, Services{
		Contacts:   services.NewContactService(fake, nil, clock),
		Deals:      services.NewDealService(fake, nil, clock),
		Tasks:      services.NewTaskService(fake, nil, clock),
		Activities: services.NewActivityService(fake, nil, clock),
	}
}

func TestDashboard(t *testing.T) {
	_, svc := seeded(t)

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, d.Metrics.TotalContacts)
	assert.Equal(t, 1, d.Metrics.ActiveContacts)
	assert.Equal(t, 2, d.Metrics.TotalDeals)
	assert.True(t, decimal.NewFromInt(1000).Equal(d.Metrics.PipelineValue))
	assert.Equal(t, 50, d.Metrics.ConversionRate)
	assert.Equal(t, 1, d.Metrics.PendingTasks)
	assert.Len(t, d.UpcomingTasks, 1)
	assert.Len(t, d.RecentActivities, 1)
	assert.Equal(t, 1, d.Pipeline.Bucket(models.StageLead).Count)
}

func TestDashboardDegradesOnFetchFailure(t *testing.T) {
	fake, svc := seeded(t)
	fake.FailOps["fetch"] = storetest.ErrInjected

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Zero(t, d.Metrics.TotalDeals)
	assert.Empty(t, d.UpcomingTasks)
}

func TestTaskPage(t *testing.T) {
	_, svc := seeded(t)

	page, err := svc.TaskPage(context.Background(), TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", page.Today)
	require.Len(t, page.Groups.Overdue, 1)
	require.Len(t, page.Groups.Completed, 1)
	assert.Equal(t, "Ada Lovelace", page.ContactName(page.Groups.Overdue[0]))
	assert.Equal(t, "Unknown", page.ContactName(page.Groups.Completed[0]))
	assert.Equal(t, "Unassigned", page.ContactName(models.Task{}))
}

func TestActivityPage(t *testing.T) {
	_, svc := seeded(t)

	page, err := svc.ActivityPage(context.Background(), ActivityFilter{}, now)
	require.NoError(t, err)
	require.Len(t, page.Groups, 1)
	assert.Equal(t, "Today", page.Groups[0].Label)
	a := page.Groups[0].Activities[0]
	assert.Equal(t, "Acme", page.DealName(a))
	assert.Equal(t, "Unknown", page.ContactName(a))
	assert.Equal(t, 1, page.TypeCounts[models.ActivityCall])
}

func TestCompleteTaskOptimistic(t *testing.T) {
	fake, svc := seeded(t)
	ctx := context.Background()
	tasks := state.NewCollection(svc.Tasks.List(ctx))

	done, err := CompleteTask(ctx, tasks, svc.Tasks, 1)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, done.Status)

	fake.RejectRecords[2] = "locked"
	_, err = CompleteTask(ctx, tasks, svc.Tasks, 2)
	require.Error(t, err)

	// Task 2 was already completed; its original state is restored untouched
	got, _ := tasks.Find(2)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
	assert.Nil(t, got.CompletedAt)
}
