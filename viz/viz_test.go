// ABOUTME: Tests for pipeline graphs and the terminal dashboard
// ABOUTME: Checks DOT output node names and ASCII rendering
package viz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
	"github.com/harperreed/dealflow/views"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func sampleDeals() []models.Deal {
	return []models.Deal{
		{ID: 1, Name: "Engine", Stage: models.StageLead, Value: decimal.NewFromInt(1200)},
		{ID: 2, Name: "Compiler", Stage: models.StageLead, Value: decimal.NewFromInt(300)},
		{ID: 3, Name: "Loom", Stage: models.StageProposal, Value: decimal.NewFromInt(800), ContactID: ptr(1)},
		{ID: 4, Name: "Mystery", Stage: "archived", Value: decimal.NewFromInt(50)},
	}
}

func TestGeneratePipelineGraph(t *testing.T) {
	g := NewGraphGenerator(nil)
	summary := pipeline.Aggregate(sampleDeals(), models.OrderedStages())

	dot, err := g.GeneratePipelineGraph(context.Background(), summary)
	require.NoError(t, err)

	assert.Contains(t, dot, "stage_lead")
	assert.Contains(t, dot, "stage_closed-lost")
	assert.Contains(t, dot, "deal_3")
	assert.Contains(t, dot, "stage_unrecognized")
	assert.Contains(t, dot, "->")
}

func TestGenerateCompleteGraph(t *testing.T) {
	g := NewGraphGenerator(nil)

	dot, err := g.GenerateCompleteGraph(context.Background(), Entities{
		Contacts: []models.Contact{{ID: 1, FirstName: "Ada", LastName: "Lovelace"}},
		Deals:    sampleDeals(),
		Tasks: []models.Task{
			{ID: 1, Title: "Call back", Status: models.TaskStatusPending, ContactID: ptr(1)},
			{ID: 2, Title: "Done already", Status: models.TaskStatusCompleted, ContactID: ptr(1)},
		},
		Activities: []models.Activity{{ID: 1, Subject: "Intro", ContactID: ptr(1)}},
	})
	require.NoError(t, err)

	assert.Contains(t, dot, "contact_1")
	assert.Contains(t, dot, "Ada Lovelace")
	assert.Contains(t, dot, "Call back")
	assert.NotContains(t, dot, "Done already")
}

func TestRenderPipeline(t *testing.T) {
	out := RenderPipeline(pipeline.Aggregate(sampleDeals(), models.OrderedStages()))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	require.Len(t, lines, len(models.OrderedStages())+1)
	assert.Contains(t, lines[0], "Lead")
	assert.Contains(t, lines[0], "██████████")
	assert.Contains(t, lines[0], "($1500)")
	assert.Contains(t, lines[2], "█████░░░░░")
	assert.Contains(t, lines[len(lines)-1], "1 deals in unknown stages")
}

func TestRenderPipelineEmpty(t *testing.T) {
	out := RenderPipeline(pipeline.Aggregate(nil, models.OrderedStages()))
	assert.Contains(t, out, "░░░░░░░░░░   0 ($0)")
	assert.NotContains(t, out, "unknown stages")
}

func TestRenderDashboard(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 4, 0, 0, time.UTC)
	deals := sampleDeals()
	d := views.BuildDashboard(
		[]models.Contact{{ID: 1, FirstName: "Ada", LastName: "Lovelace", Status: models.ContactStatusActive}},
		deals,
		[]models.Task{{ID: 1, Title: "Send notes", Status: models.TaskStatusPending, DueDate: "2024-03-10", ContactID: ptr(1)}},
		[]models.Activity{{ID: 1, Subject: "Intro call", Type: models.ActivityCall, Timestamp: now.Add(-time.Hour)}},
	)

	out := RenderDashboard(d, now)
	assert.Contains(t, out, "DEALFLOW DASHBOARD")
	assert.Contains(t, out, "1 contacts (1 active)")
	assert.Contains(t, out, "4 deals")
	assert.Contains(t, out, "Send notes (Ada Lovelace)")
	assert.Contains(t, out, "Intro call")
	assert.NotContains(t, out, "No pending tasks")
}

func TestRenderDashboardEmpty(t *testing.T) {
	out := RenderDashboard(views.BuildDashboard(nil, nil, nil, nil), time.Now())
	assert.Contains(t, out, "No pending tasks")
	assert.Contains(t, out, "No activity yet")
}
