// ABOUTME: Activity and dashboard MCP tool handlers
// ABOUTME: Implements log_activity, recent_activities and dashboard
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/services"
	"github.com/harperreed/dealflow/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"
)

type ActivityHandlers struct {
	svc views.Services
}

func NewActivityHandlers(svc views.Services) *ActivityHandlers {
	return &ActivityHandlers{svc: svc}
}

type LogActivityInput struct {
	Type        string `json:"type,omitempty" jsonschema:"Type: call, email, meeting, note, demo, follow_up, other (default other)"`
	Subject     string `json:"subject" jsonschema:"Short subject (required)"`
	Description string `json:"description,omitempty" jsonschema:"Details"`
	Outcome     string `json:"outcome,omitempty" jsonschema:"Outcome such as positive, neutral, negative"`
	Timestamp   string `json:"timestamp,omitempty" jsonschema:"When it happened, RFC3339 (default now)"`
	Duration    int    `json:"duration,omitempty" jsonschema:"Duration in minutes"`
	ContactID   int64  `json:"contact_id,omitempty" jsonschema:"Linked contact ID"`
	DealID      int64  `json:"deal_id,omitempty" jsonschema:"Linked deal ID"`
}

type ActivityOutput struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	Outcome     string `json:"outcome,omitempty"`
	Timestamp   string `json:"timestamp"`
	When        string `json:"when,omitempty"`
	Duration    *int   `json:"duration,omitempty"`
	ContactID   *int64 `json:"contact_id,omitempty"`
	DealID      *int64 `json:"deal_id,omitempty"`
}

func (h *ActivityHandlers) LogActivity(ctx context.Context, request *mcp.CallToolRequest, input LogActivityInput) (*mcp.CallToolResult, ActivityOutput, error) {
	if strings.TrimSpace(input.Subject) == "" {
		return nil, ActivityOutput{}, fmt.Errorf("subject is required")
	}

	activity := models.Activity{
		Type:        input.Type,
		Subject:     input.Subject,
		Description: input.Description,
		Outcome:     input.Outcome,
	}
	if input.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, input.Timestamp)
		if err != nil {
			return nil, ActivityOutput{}, fmt.Errorf("invalid timestamp format (use RFC3339): %w", err)
		}
		activity.Timestamp = ts
	}
	if input.Duration > 0 {
		activity.Duration = &input.Duration
	}
	if input.ContactID != 0 {
		activity.ContactID = &input.ContactID
	}
	if input.DealID != 0 {
		activity.DealID = &input.DealID
	}

	created, err := h.svc.Activities.Create(ctx, activity)
	if err != nil {
		return nil, ActivityOutput{}, fmt.Errorf("failed to log activity: %w", err)
	}
	return nil, activityToOutput(created, time.Time{}), nil
}

type RecentActivitiesInput struct {
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum activities (default 10)"`
	Type      string `json:"type,omitempty" jsonschema:"Filter by activity type"`
	ContactID int64  `json:"contact_id,omitempty" jsonschema:"Only activities for this contact"`
	DealID    int64  `json:"deal_id,omitempty" jsonschema:"Only activities for this deal"`
}

type ActivityDayOutput struct {
	Label      string           `json:"label"`
	Activities []ActivityOutput `json:"activities"`
}

type RecentActivitiesOutput struct {
	Days  []ActivityDayOutput `json:"days"`
	Total int                 `json:"total"`
}

func (h *ActivityHandlers) RecentActivities(ctx context.Context, request *mcp.CallToolRequest, input RecentActivitiesInput) (*mcp.CallToolResult, RecentActivitiesOutput, error) {
	activities, err := h.svc.Activities.Fetch(ctx)
	if err != nil {
		return nil, RecentActivitiesOutput{}, fmt.Errorf("failed to load activities: %w", err)
	}

	if input.Type != "" {
		activities = services.ActivitiesByType(activities, input.Type)
	}
	if input.ContactID != 0 {
		activities = services.ActivitiesByContact(activities, input.ContactID)
	}
	if input.DealID != 0 {
		activities = services.ActivitiesByDeal(activities, input.DealID)
	}
	activities = services.RecentActivities(activities, input.Limit)

	now := h.svc.Activities.Now()
	out := RecentActivitiesOutput{Days: []ActivityDayOutput{}, Total: len(activities)}
	for _, group := range views.GroupActivitiesByDate(activities, now) {
		day := ActivityDayOutput{Label: group.Label, Activities: make([]ActivityOutput, len(group.Activities))}
		for i, a := range group.Activities {
			day.Activities[i] = activityToOutput(a, now)
		}
		out.Days = append(out.Days, day)
	}
	return nil, out, nil
}

type DashboardInput struct{}

type DashboardOutput struct {
	TotalContacts    int              `json:"total_contacts"`
	ActiveContacts   int              `json:"active_contacts"`
	TotalDeals       int              `json:"total_deals"`
	PipelineValue    string           `json:"pipeline_value"`
	ConversionRate   int              `json:"conversion_rate"`
	PendingTasks     int              `json:"pending_tasks"`
	UpcomingTasks    []TaskOutput     `json:"upcoming_tasks"`
	RecentActivities []ActivityOutput `json:"recent_activities"`
	Pipeline         []StageOutput    `json:"pipeline"`
}

func (h *ActivityHandlers) Dashboard(ctx context.Context, request *mcp.CallToolRequest, input DashboardInput) (*mcp.CallToolResult, DashboardOutput, error) {
	d, err := h.svc.Dashboard(ctx)
	if err != nil {
		return nil, DashboardOutput{}, fmt.Errorf("failed to load dashboard: %w", err)
	}

	now := h.svc.Activities.Now()
	out := DashboardOutput{
		TotalContacts:    d.Metrics.TotalContacts,
		ActiveContacts:   d.Metrics.ActiveContacts,
		TotalDeals:       d.Metrics.TotalDeals,
		PipelineValue:    money(d.Metrics.PipelineValue),
		ConversionRate:   d.Metrics.ConversionRate,
		PendingTasks:     d.Metrics.PendingTasks,
		UpcomingTasks:    make([]TaskOutput, len(d.UpcomingTasks)),
		RecentActivities: make([]ActivityOutput, len(d.RecentActivities)),
		Pipeline:         summaryToOutput(d.Pipeline, nil).Stages,
	}
	for i, t := range d.UpcomingTasks {
		out.UpcomingTasks[i] = taskToOutput(t, services.ResolveContact(d.ContactNames, t.ContactID, "Unassigned"))
		out.UpcomingTasks[i].DueLabel = views.TaskDateLabel(t, now)
	}
	for i, a := range d.RecentActivities {
		out.RecentActivities[i] = activityToOutput(a, now)
	}
	return nil, out, nil
}

// activityToOutput renders a; a zero now leaves the relative label off.
func activityToOutput(a models.Activity, now time.Time) ActivityOutput {
	out := ActivityOutput{
		ID:          a.ID,
		Type:        a.Type,
		Subject:     a.Subject,
		Description: a.Description,
		Outcome:     a.Outcome,
		Timestamp:   formatTime(a.Timestamp),
		Duration:    a.Duration,
		ContactID:   a.ContactID,
		DealID:      a.DealID,
	}
	if !now.IsZero() {
		out.When = views.ActivityTimeLabel(a.Timestamp, now)
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
