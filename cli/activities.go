// ABOUTME: Activity and dashboard CLI commands
// ABOUTME: Logs activities, prints the feed grouped by day and renders the dashboard
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/views"
	"github.com/harperreed/dealflow/viz"
)

// LogActivityCommand records a call, email, meeting or other activity.
func LogActivityCommand(ctx context.Context, svc views.Services, args []string) error {
	fs := flag.NewFlagSet("log-activity", flag.ContinueOnError)
	kind := fs.String("type", models.ActivityCall, "Type (call, email, meeting, note, demo, follow_up, other)")
	subject := fs.String("subject", "", "Subject (required)")
	outcome := fs.String("outcome", "", "Outcome")
	description := fs.String("description", "", "Description")
	at := fs.String("at", "", "When it happened (RFC3339, default now)")
	duration := fs.Int("duration", 0, "Duration in minutes")
	contact := fs.Int64("contact", 0, "Contact ID")
	deal := fs.Int64("deal", 0, "Deal ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *subject == "" {
		return fmt.Errorf("--subject is required")
	}

	activity := models.Activity{
		Type:        *kind,
		Subject:     *subject,
		Outcome:     *outcome,
		Description: *description,
	}
	if *at != "" {
		ts, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("invalid --at %q: %w", *at, err)
		}
		activity.Timestamp = ts.UTC()
	}
	if *duration > 0 {
		activity.Duration = duration
	}
	if *contact != 0 {
		activity.ContactID = contact
	}
	if *deal != 0 {
		activity.DealID = deal
	}

	created, err := svc.Activities.Create(ctx, activity)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Activity logged: %s (ID: %d)\n", created.Subject, created.ID)
	fmt.Fprintf(stdout, "  %s, %s\n", created.Type, views.ActivityTimeLabel(created.Timestamp, svc.Activities.Now()))
	return nil
}

// ListActivitiesCommand prints the activity feed grouped by day.
func ListActivitiesCommand(ctx context.Context, svc views.Services, args []string) error {
	fs := flag.NewFlagSet("list-activities", flag.ContinueOnError)
	kind := fs.String("type", views.FilterAll, "Filter by type")
	outcome := fs.String("outcome", views.FilterAll, "Filter by outcome")
	if err := fs.Parse(args); err != nil {
		return err
	}

	now := svc.Activities.Now()
	page, err := svc.ActivityPage(ctx, views.ActivityFilter{Type: *kind, Outcome: *outcome}, now)
	if err != nil {
		return err
	}
	if len(page.Groups) == 0 {
		fmt.Fprintln(stdout, "No activities found")
		return nil
	}

	for _, g := range page.Groups {
		fmt.Fprintln(stdout, strings.ToUpper(g.Label))
		for _, a := range g.Activities {
			line := fmt.Sprintf("  %s  %-9s %s (%s)", a.Timestamp.In(now.Location()).Format("3:04 PM"), a.Type, a.Subject, page.ContactName(a))
			if deal := page.DealName(a); deal != "" {
				line += " [" + deal + "]"
			}
			if a.Outcome != "" {
				line += " → " + a.Outcome
			}
			fmt.Fprintln(stdout, line)
		}
		fmt.Fprintln(stdout)
	}

	counts := make([]string, 0, len(models.ActivityTypes))
	for _, t := range models.ActivityTypes {
		counts = append(counts, fmt.Sprintf("%s %d", t, page.TypeCounts[t]))
	}
	fmt.Fprintf(stdout, "By type: %s\n", strings.Join(counts, ", "))
	return nil
}

// DashboardCommand renders the text dashboard.
func DashboardCommand(ctx context.Context, svc views.Services, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := svc.Dashboard(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, viz.RenderDashboard(d, svc.Tasks.Now()))
	return nil
}
