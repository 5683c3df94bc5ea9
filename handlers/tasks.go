// ABOUTME: Task MCP tool handlers
// ABOUTME: Implements list_tasks (grouped by due date), complete_task and update_task
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type TaskHandlers struct {
	svc views.Services
}

func NewTaskHandlers(svc views.Services) *TaskHandlers {
	return &TaskHandlers{svc: svc}
}

type ListTasksInput struct {
	Search   string `json:"search,omitempty" jsonschema:"Text matched against title and description"`
	Status   string `json:"status,omitempty" jsonschema:"Filter by status: pending, completed, overdue"`
	Priority string `json:"priority,omitempty" jsonschema:"Filter by priority: low, medium, high"`
}

type TaskOutput struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	DueLabel    string `json:"due_label,omitempty"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Contact     string `json:"contact"`
	DealID      *int64 `json:"deal_id,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
}

type ListTasksOutput struct {
	Today     string       `json:"today"`
	Overdue   []TaskOutput `json:"overdue"`
	DueToday  []TaskOutput `json:"due_today"`
	Upcoming  []TaskOutput `json:"upcoming"`
	Completed []TaskOutput `json:"completed"`
}

func (h *TaskHandlers) ListTasks(ctx context.Context, request *mcp.CallToolRequest, input ListTasksInput) (*mcp.CallToolResult, ListTasksOutput, error) {
	page, err := h.svc.TaskPage(ctx, views.TaskFilter{
		Search:   input.Search,
		Status:   input.Status,
		Priority: input.Priority,
	})
	if err != nil {
		return nil, ListTasksOutput{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	now := h.svc.Tasks.Now()
	convert := func(tasks []models.Task) []TaskOutput {
		out := make([]TaskOutput, len(tasks))
		for i, t := range tasks {
			out[i] = taskToOutput(t, page.ContactName(t))
			out[i].DueLabel = views.TaskDateLabel(t, now)
		}
		return out
	}

	return nil, ListTasksOutput{
		Today:     page.Today,
		Overdue:   convert(page.Groups.Overdue),
		DueToday:  convert(page.Groups.Today),
		Upcoming:  convert(page.Groups.Upcoming),
		Completed: convert(page.Groups.Completed),
	}, nil
}

type CompleteTaskInput struct {
	ID int64 `json:"id" jsonschema:"Task ID (required)"`
}

func (h *TaskHandlers) CompleteTask(ctx context.Context, request *mcp.CallToolRequest, input CompleteTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	if input.ID == 0 {
		return nil, TaskOutput{}, fmt.Errorf("id is required")
	}

	task, err := h.svc.Tasks.CompleteTask(ctx, input.ID)
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to complete task: %w", err)
	}
	return nil, taskToOutput(task, ""), nil
}

type UpdateTaskInput struct {
	ID          int64   `json:"id" jsonschema:"Task ID (required)"`
	Title       *string `json:"title,omitempty" jsonschema:"New title"`
	Description *string `json:"description,omitempty" jsonschema:"New description"`
	DueDate     *string `json:"due_date,omitempty" jsonschema:"New due date as YYYY-MM-DD; empty clears it"`
	Priority    *string `json:"priority,omitempty" jsonschema:"New priority: low, medium, high"`
	Status      *string `json:"status,omitempty" jsonschema:"New status: pending, completed"`
	ContactID   *int64  `json:"contact_id,omitempty" jsonschema:"New linked contact ID"`
	DealID      *int64  `json:"deal_id,omitempty" jsonschema:"New linked deal ID"`
}

func (h *TaskHandlers) UpdateTask(ctx context.Context, request *mcp.CallToolRequest, input UpdateTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	if input.ID == 0 {
		return nil, TaskOutput{}, fmt.Errorf("id is required")
	}

	task, err := h.svc.Tasks.Update(ctx, input.ID, models.TaskPatch{
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    input.Priority,
		Status:      input.Status,
		ContactID:   input.ContactID,
		DealID:      input.DealID,
	})
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to update task: %w", err)
	}
	return nil, taskToOutput(task, ""), nil
}

func taskToOutput(t models.Task, contact string) TaskOutput {
	out := TaskOutput{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    t.Priority,
		Status:      t.Status,
		Contact:     contact,
		DealID:      t.DealID,
	}
	if t.CompletedAt != nil {
		out.CompletedAt = formatTime(*t.CompletedAt)
	}
	return out
}
