// ABOUTME: Tests for the entity collection and optimistic updates
// ABOUTME: Covers patch/replace/remove, change callbacks, rollback and detach

package state

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/dealflow/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tasks() []models.Task {
	return []models.Task{
		{ID: 1, Title: "Call", Status: models.TaskStatusPending},
		{ID: 2, Title: "Email", Status: models.TaskStatusPending},
	}
}

func TestCollectionMutations(t *testing.T) {
	c := NewCollection(tasks())
	changes := 0
	c.OnChange(func() { changes++ })

	prev, ok := c.Patch(1, func(t models.Task) models.Task {
		t.Status = models.TaskStatusCompleted
		return t
	})
	require.True(t, ok)
	assert.Equal(t, models.TaskStatusPending, prev.Status)

	got, ok := c.Find(1)
	require.True(t, ok)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)

	assert.True(t, c.Replace(models.Task{ID: 2, Title: "Email v2"}))
	assert.False(t, c.Replace(models.Task{ID: 9}))
	assert.True(t, c.Add(models.Task{ID: 3}))

	removed, ok := c.Remove(1)
	require.True(t, ok)
	assert.Equal(t, "Call", removed.Title)
	assert.Equal(t, 2, c.Len())

	_, ok = c.Patch(42, func(t models.Task) models.Task { return t })
	assert.False(t, ok)

	assert.Equal(t, 4, changes)
}

func TestCollectionSnapshotIsCopy(t *testing.T) {
	c := NewCollection(tasks())
	snap := c.Snapshot()
	snap[0].Title = "mutated"

	got, _ := c.Find(1)
	assert.Equal(t, "Call", got.Title)
}

func TestCollectionDetach(t *testing.T) {
	c := NewCollection(tasks())
	c.Detach()

	assert.True(t, c.Detached())
	assert.False(t, c.Add(models.Task{ID: 3}))
	assert.False(t, c.Replace(models.Task{ID: 1, Title: "late"}))
	assert.False(t, c.Set(nil))

	got, _ := c.Find(1)
	assert.Equal(t, "Call", got.Title)
}

func complete(t models.Task) models.Task {
	t.Status = models.TaskStatusCompleted
	return t
}

func TestOptimisticSuccess(t *testing.T) {
	c := NewCollection(tasks())

	saved, err := Optimistic(context.Background(), c, 1, complete, func(ctx context.Context) (models.Task, error) {
		// The local change is visible while the commit is in flight
		inFlight, _ := c.Find(1)
		assert.Equal(t, models.TaskStatusCompleted, inFlight.Status)
		return models.Task{ID: 1, Title: "Call", Status: models.TaskStatusCompleted, Description: "server"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "server", saved.Description)

	got, _ := c.Find(1)
	assert.Equal(t, "server", got.Description)
}

func TestOptimisticRollback(t *testing.T) {
	c := NewCollection(tasks())
	boom := errors.New("boom")

	_, err := Optimistic(context.Background(), c, 1, complete, func(ctx context.Context) (models.Task, error) {
		return models.Task{}, boom
	})
	require.ErrorIs(t, err, boom)

	got, _ := c.Find(1)
	assert.Equal(t, models.TaskStatusPending, got.Status)
}

func TestOptimisticRollbackKeepsNewerWrite(t *testing.T) {
	boom := errors.New("boom")

	c := NewCollection(tasks())
	_, err := Optimistic(context.Background(), c, 1, complete, func(ctx context.Context) (models.Task, error) {
		// A reload lands while the commit is in flight
		c.Set([]models.Task{{ID: 1, Title: "Call back", Status: models.TaskStatusPending}, {ID: 2, Title: "Email"}})
		return models.Task{}, boom
	})
	require.ErrorIs(t, err, boom)
	got, _ := c.Find(1)
	assert.Equal(t, "Call back", got.Title)

	c = NewCollection(tasks())
	_, err = Optimistic(context.Background(), c, 1, complete, func(ctx context.Context) (models.Task, error) {
		c.Replace(models.Task{ID: 1, Title: "Renamed", Status: models.TaskStatusCompleted})
		return models.Task{}, boom
	})
	require.ErrorIs(t, err, boom)
	got, _ = c.Find(1)
	assert.Equal(t, "Renamed", got.Title)

	// Changes to other entities do not block the rollback
	c = NewCollection(tasks())
	_, err = Optimistic(context.Background(), c, 1, complete, func(ctx context.Context) (models.Task, error) {
		c.Patch(2, complete)
		return models.Task{}, boom
	})
	require.ErrorIs(t, err, boom)
	got, _ = c.Find(1)
	assert.Equal(t, models.TaskStatusPending, got.Status)
	other, _ := c.Find(2)
	assert.Equal(t, models.TaskStatusCompleted, other.Status)
}

func TestOptimisticMissingAndDetached(t *testing.T) {
	c := NewCollection(tasks())
	commits := 0
	commit := func(ctx context.Context) (models.Task, error) {
		commits++
		return models.Task{}, nil
	}

	_, err := Optimistic(context.Background(), c, 99, complete, commit)
	assert.ErrorIs(t, err, ErrMissing)

	c.Detach()
	_, err = Optimistic(context.Background(), c, 1, complete, commit)
	assert.ErrorIs(t, err, ErrDetached)
	assert.Zero(t, commits)
}
