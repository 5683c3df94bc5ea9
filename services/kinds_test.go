// ABOUTME: Tests for the contact, task and activity services and pure queries
// ABOUTME: Covers derived reads, completion rules and single-fetch behavior

package services

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/notify"
	"github.com/harperreed/dealflow/store"
	"github.com/harperreed/dealflow/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactSearchAndStatus(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()
	fake.Seed(store.TableContacts, 1, store.Record{"Name": "Ada Lovelace", "first_name_c": "Ada", "last_name_c": "Lovelace", "company_c": "Analytical Engines", "status_c": "active"})
	fake.Seed(store.TableContacts, 2, store.Record{"Name": "Grace Hopper", "first_name_c": "Grace", "last_name_c": "Hopper", "email_c": "grace@navy.mil", "status_c": "inactive"})
	contacts := NewContactService(fake, nil)

	found := contacts.Search(ctx, "NAVY")
	require.Len(t, found, 1)
	assert.Equal(t, "Grace", found[0].FirstName)

	assert.Len(t, contacts.Search(ctx, "engines"), 1)
	assert.Len(t, contacts.Search(ctx, "  "), 2)
	assert.Len(t, contacts.GetByStatus(ctx, models.ContactStatusInactive), 1)

	// Each derived read is exactly one fetch
	assert.Equal(t, 4, fake.Calls("fetch"))
}

func TestResolveContact(t *testing.T) {
	names := ContactNames([]models.Contact{{ID: 1, FirstName: "Ada", LastName: "Lovelace"}})

	assert.Equal(t, "Ada Lovelace", ResolveContact(names, models.Ptr(int64(1)), "Unassigned"))
	assert.Equal(t, "Unknown", ResolveContact(names, models.Ptr(int64(2)), "Unassigned"))
	assert.Equal(t, "Unassigned", ResolveContact(names, nil, "Unassigned"))
}

func newTasks(t *testing.T) (*storetest.Fake, *TaskService) {
	t.Helper()
	fake := storetest.New()
	fake.Seed(store.TableTasks, 1, store.Record{"Name": "Past due", "due_date_c": "2024-03-09", "status_c": "pending"})
	fake.Seed(store.TableTasks, 2, store.Record{"Name": "Due today", "due_date_c": "2024-03-10", "status_c": "pending"})
	fake.Seed(store.TableTasks, 3, store.Record{"Name": "Done late", "due_date_c": "2024-03-01", "status_c": "completed"})
	fake.Seed(store.TableTasks, 4, store.Record{"Name": "Later", "due_date_c": "2024-04-01"})
	return fake, NewTaskService(fake, nil, WithClock(clock))
}

func TestTaskDateQueries(t *testing.T) {
	ctx := context.Background()
	_, tasks := newTasks(t)

	overdue := tasks.GetOverdueTasks(ctx)
	require.Len(t, overdue, 1)
	assert.Equal(t, "Past due", overdue[0].Title)

	today := tasks.GetTodayTasks(ctx)
	require.Len(t, today, 1)
	assert.Equal(t, "Due today", today[0].Title)

	assert.Len(t, tasks.GetByStatus(ctx, models.TaskStatusPending), 3)
}

func TestCompleteTask(t *testing.T) {
	ctx := context.Background()
	fake, tasks := newTasks(t)
	rec := &notify.Recorder{}
	tasks.sink = rec

	done, err := tasks.CompleteTask(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(fixedNow))
	assert.Equal(t, []string{"Task completed!"}, rec.Successes())

	stored, _ := fake.Stored(store.TableTasks, 1)
	assert.Equal(t, "completed", stored["status_c"])
}

func TestTaskUpdateKeepsCompletionInStep(t *testing.T) {
	ctx := context.Background()
	fake, tasks := newTasks(t)

	reopened, err := tasks.Update(ctx, 3, models.TaskPatch{Status: models.Ptr(models.TaskStatusPending)})
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)

	stored, _ := fake.Stored(store.TableTasks, 3)
	assert.Contains(t, stored, "completed_at_c")
	assert.Nil(t, stored["completed_at_c"])

	closed, err := tasks.Update(ctx, 4, models.TaskPatch{Status: models.Ptr(models.TaskStatusCompleted)})
	require.NoError(t, err)
	require.NotNil(t, closed.CompletedAt)

	// Patches that leave status alone leave completed_at alone
	p := CompletionPatch(models.TaskPatch{Title: models.Ptr("x")}, fixedNow)
	assert.Nil(t, p.CompletedAt)
	assert.False(t, p.ClearCompletedAt)
}

func TestCreateTaskStampsCompletion(t *testing.T) {
	ctx := context.Background()
	tasks := NewTaskService(storetest.New(), nil, WithClock(clock))

	created, err := tasks.Create(ctx, models.Task{Title: "Already done", Status: models.TaskStatusCompleted})
	require.NoError(t, err)
	require.NotNil(t, created.CompletedAt)
	assert.Equal(t, models.PriorityMedium, created.Priority)
}

func TestActivityOrderingAndLookups(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()
	fake.Seed(store.TableActivities, 1, store.Record{"Name": "Oldest", "type_c": "call", "timestamp_c": "2024-03-01T10:00:00Z", "contact_id_c": 7})
	fake.Seed(store.TableActivities, 2, store.Record{"Name": "Newest", "type_c": "email", "timestamp_c": "2024-03-09T10:00:00Z", "deal_id_c": map[string]any{"Id": 3}})
	fake.Seed(store.TableActivities, 3, store.Record{"Name": "Middle", "type_c": "call", "timestamp_c": "2024-03-05T10:00:00Z", "contact_id_c": "7"})
	activities := NewActivityService(fake, nil)

	all := activities.List(ctx)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Newest", "Middle", "Oldest"}, []string{all[0].Subject, all[1].Subject, all[2].Subject})

	byContact := activities.GetByContact(ctx, 7)
	require.Len(t, byContact, 2)
	assert.Equal(t, "Middle", byContact[0].Subject)

	assert.Len(t, activities.GetByDeal(ctx, 3), 1)
	assert.Len(t, activities.GetByType(ctx, models.ActivityCall), 2)

	recent := activities.GetRecent(ctx, 2)
	assert.Equal(t, []string{"Newest", "Middle"}, []string{recent[0].Subject, recent[1].Subject})
	assert.Len(t, activities.GetRecent(ctx, 0), 3)
}

func TestCreateActivityDefaultsTimestamp(t *testing.T) {
	ctx := context.Background()
	activities := NewActivityService(storetest.New(), nil, WithClock(clock))

	created, err := activities.Create(ctx, models.Activity{Subject: "Quick note"})
	require.NoError(t, err)
	assert.Equal(t, models.ActivityOther, created.Type)
	assert.True(t, created.Timestamp.Equal(fixedNow))
}

func TestUpcomingTasks(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Status: models.TaskStatusPending, DueDate: "2024-03-20"},
		{ID: 2, Status: models.TaskStatusPending},
		{ID: 3, Status: models.TaskStatusCompleted, DueDate: "2024-03-01"},
		{ID: 4, Status: models.TaskStatusPending, DueDate: "2024-03-11"},
	}

	got := UpcomingTasks(tasks, 5)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{4, 1, 2}, []int64{got[0].ID, got[1].ID, got[2].ID})
	assert.Len(t, UpcomingTasks(tasks, 1), 1)
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	assert.Equal(t, "2024-03-09", Today(time.Date(2024, 3, 9, 23, 30, 0, 0, loc)))
}
