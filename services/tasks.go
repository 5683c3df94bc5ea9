// ABOUTME: Task service with status/date lookups and completion
// ABOUTME: Keeps completed_at consistent with status on every update

package services

import (
	"context"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/notify"
	"github.com/harperreed/dealflow/records"
	"github.com/harperreed/dealflow/store"
)

type TaskService struct {
	*Service[models.Task, models.TaskPatch]
}

func NewTaskService(client store.Client, sink notify.Sink, opts ...Option) *TaskService {
	s := New[models.Task, models.TaskPatch](client, records.TaskCodec{}, sink, opts...)
	s.prepare = func(t models.Task, now time.Time) models.Task {
		if t.Priority == "" {
			t.Priority = models.PriorityMedium
		}
		if t.Status == "" {
			t.Status = models.TaskStatusPending
		}
		return withCompletion(t, now)
	}
	return &TaskService{Service: s}
}

// withCompletion stamps completed tasks and clears the stamp on pending ones.
func withCompletion(t models.Task, now time.Time) models.Task {
	switch t.Status {
	case models.TaskStatusCompleted:
		if t.CompletedAt == nil {
			stamp := now.UTC()
			t.CompletedAt = &stamp
		}
	case models.TaskStatusPending:
		t.CompletedAt = nil
	}
	return t
}

// CompletionPatch applies the completed_at rule to a status change.
func CompletionPatch(p models.TaskPatch, now time.Time) models.TaskPatch {
	if p.Status == nil {
		return p
	}
	switch *p.Status {
	case models.TaskStatusCompleted:
		if p.CompletedAt == nil {
			stamp := now.UTC()
			p.CompletedAt = &stamp
		}
		p.ClearCompletedAt = false
	case models.TaskStatusPending:
		p.CompletedAt = nil
		p.ClearCompletedAt = true
	}
	return p
}

// Update patches a task, keeping completed_at in step with status.
func (s *TaskService) Update(ctx context.Context, id int64, p models.TaskPatch) (models.Task, error) {
	return s.Service.Update(ctx, id, CompletionPatch(p, s.now()))
}

// CompleteTask marks id completed now.
func (s *TaskService) CompleteTask(ctx context.Context, id int64) (models.Task, error) {
	p := CompletionPatch(models.TaskPatch{Status: models.Ptr(models.TaskStatusCompleted)}, s.now())
	return s.update(ctx, id, p, "Task completed!")
}

func (s *TaskService) GetByStatus(ctx context.Context, status string) []models.Task {
	return TasksByStatus(s.List(ctx), status)
}

func (s *TaskService) GetOverdueTasks(ctx context.Context) []models.Task {
	return OverdueTasks(s.List(ctx), Today(s.now()))
}

func (s *TaskService) GetTodayTasks(ctx context.Context) []models.Task {
	return TodayTasks(s.List(ctx), Today(s.now()))
}
