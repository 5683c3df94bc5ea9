// ABOUTME: Terminal dashboard rendering
// ABOUTME: Provides an ASCII overview of metrics, pipeline, tasks and activity
package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
	"github.com/harperreed/dealflow/services"
	"github.com/harperreed/dealflow/views"
)

func RenderDashboard(d views.Dashboard, now time.Time) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  DEALFLOW DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  📇 %d contacts (%d active)  💼 %d deals  ✅ %d pending tasks\n",
		d.Metrics.TotalContacts, d.Metrics.ActiveContacts, d.Metrics.TotalDeals, d.Metrics.PendingTasks))
	out.WriteString(fmt.Sprintf("  Open pipeline $%s  Conversion %d%%\n\n",
		d.Metrics.PipelineValue.StringFixed(2), d.Metrics.ConversionRate))

	out.WriteString("PIPELINE OVERVIEW\n")
	out.WriteString(RenderPipeline(d.Pipeline))
	out.WriteString("\n")

	out.WriteString("UPCOMING TASKS\n")
	if len(d.UpcomingTasks) == 0 {
		out.WriteString("  No pending tasks\n")
	}
	for _, t := range d.UpcomingTasks {
		label := views.TaskDateLabel(t, now)
		if label == "" {
			label = "No date"
		}
		out.WriteString(fmt.Sprintf("  %-9s %s (%s)\n", label, t.Title,
			services.ResolveContact(d.ContactNames, t.ContactID, "Unassigned")))
	}
	out.WriteString("\n")

	out.WriteString("RECENT ACTIVITY\n")
	if len(d.RecentActivities) == 0 {
		out.WriteString("  No activity yet\n")
	}
	for _, a := range d.RecentActivities {
		out.WriteString(fmt.Sprintf("  %-22s %-9s %s\n", views.ActivityTimeLabel(a.Timestamp, now), a.Type, a.Subject))
	}

	return out.String()
}

// RenderPipeline draws one bar per stage scaled to the busiest stage.
func RenderPipeline(summary pipeline.Summary) string {
	var out strings.Builder

	maxCount := 0
	for _, stage := range summary.Stages {
		if c := summary.Bucket(stage).Count; c > maxCount {
			maxCount = c
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, stage := range summary.Stages {
		b := summary.Bucket(stage)
		barLength := (b.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-12s %s  %2d ($%s)\n",
			models.StageName(stage), bar, b.Count, b.TotalValue.StringFixed(0)))
	}
	if summary.Unrecognized.Count > 0 {
		out.WriteString(fmt.Sprintf("  %-12s %d deals in unknown stages\n", "Other", summary.Unrecognized.Count))
	}

	return out.String()
}
