// ABOUTME: Task CLI commands
// ABOUTME: Adds tasks, lists them grouped by due date and marks them complete
package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/views"
)

// AddTaskCommand adds a new task.
func AddTaskCommand(ctx context.Context, svc views.Services, args []string) error {
	fs := flag.NewFlagSet("add-task", flag.ContinueOnError)
	title := fs.String("title", "", "Task title (required)")
	description := fs.String("description", "", "Description")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	priority := fs.String("priority", models.PriorityMedium, "Priority (low, medium, high)")
	assignee := fs.String("assign", "", "Assignee")
	contact := fs.Int64("contact", 0, "Contact ID")
	deal := fs.Int64("deal", 0, "Deal ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *title == "" {
		return fmt.Errorf("--title is required")
	}

	task := models.Task{
		Title:       *title,
		Description: *description,
		DueDate:     *due,
		Priority:    *priority,
		AssignedTo:  *assignee,
	}
	if *contact != 0 {
		task.ContactID = contact
	}
	if *deal != 0 {
		task.DealID = deal
	}

	created, err := svc.Tasks.Create(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Task created: %s (ID: %d)\n", created.Title, created.ID)
	if created.DueDate != "" {
		fmt.Fprintf(stdout, "  Due: %s\n", views.TaskDateLabel(created, svc.Tasks.Now()))
	}
	return nil
}

// UpdateTaskCommand changes the fields given as flags. Setting --status
// keeps the completion time in step.
func UpdateTaskCommand(ctx context.Context, svc views.Services, args []string) error {
	fs := flag.NewFlagSet("update-task", flag.ContinueOnError)
	title := fs.String("title", "", "Task title")
	description := fs.String("description", "", "Description")
	due := fs.String("due", "", "Due date (YYYY-MM-DD), empty to clear")
	priority := fs.String("priority", "", "Priority (low, medium, high)")
	status := fs.String("status", "", "Status (pending, completed)")
	assignee := fs.String("assign", "", "Assignee")
	contact := fs.Int64("contact", 0, "Contact ID")
	noContact := fs.Bool("no-contact", false, "Unlink the contact")
	deal := fs.Int64("deal", 0, "Deal ID")
	noDeal := fs.Bool("no-deal", false, "Unlink the deal")

	id, err := parseIDAndFlags(fs, args)
	if err != nil {
		return err
	}

	set := setFlags(fs)
	if len(set) == 0 {
		return fmt.Errorf("nothing to update; pass at least one flag")
	}
	if (set["contact"] && *noContact) || (set["deal"] && *noDeal) {
		return fmt.Errorf("a reference cannot be set and cleared at once")
	}

	var patch models.TaskPatch
	optString(set, "title", title, &patch.Title)
	optString(set, "description", description, &patch.Description)
	optString(set, "due", due, &patch.DueDate)
	optString(set, "priority", priority, &patch.Priority)
	optString(set, "status", status, &patch.Status)
	optString(set, "assign", assignee, &patch.AssignedTo)
	if set["contact"] {
		patch.ContactID = contact
	}
	if set["deal"] {
		patch.DealID = deal
	}
	patch.ClearContactID = *noContact
	patch.ClearDealID = *noDeal

	task, err := svc.Tasks.Update(ctx, id, patch)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Task updated: %s (ID: %d)\n", task.Title, task.ID)
	fmt.Fprintf(stdout, "  Status: %s  Priority: %s\n", task.Status, task.Priority)
	if task.DueDate != "" {
		fmt.Fprintf(stdout, "  Due: %s\n", views.TaskDateLabel(task, svc.Tasks.Now()))
	}
	return nil
}

// ListTasksCommand prints tasks grouped into overdue, today, upcoming and completed.
func ListTasksCommand(ctx context.Context, svc views.Services, args []string) error {
	fs := flag.NewFlagSet("list-tasks", flag.ContinueOnError)
	search := fs.String("search", "", "Search title and description")
	status := fs.String("status", views.FilterAll, "Status (all, pending, completed, overdue)")
	priority := fs.String("priority", views.FilterAll, "Priority (all, low, medium, high)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	page, err := svc.TaskPage(ctx, views.TaskFilter{Search: *search, Status: *status, Priority: *priority})
	if err != nil {
		return err
	}
	if page.Groups.Len() == 0 {
		fmt.Fprintln(stdout, "No tasks found")
		return nil
	}

	now := svc.Tasks.Now()
	sections := []struct {
		title string
		tasks []models.Task
	}{
		{"OVERDUE", page.Groups.Overdue},
		{"TODAY", page.Groups.Today},
		{"UPCOMING", page.Groups.Upcoming},
		{"COMPLETED", page.Groups.Completed},
	}
	for _, s := range sections {
		if len(s.tasks) == 0 {
			continue
		}
		fmt.Fprintf(stdout, "%s (%d)\n", s.title, len(s.tasks))
		w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		for _, t := range s.tasks {
			_, _ = fmt.Fprintf(w, "  %d\t%s\t%s\t%s\t%s\n",
				t.ID, t.Title, dash(views.TaskDateLabel(t, now)), t.Priority, page.ContactName(t))
		}
		_ = w.Flush()
		fmt.Fprintln(stdout)
	}

	fmt.Fprintf(stdout, "Total: %d task(s)\n", page.Groups.Len())
	return nil
}

// CompleteTaskCommand marks a task completed.
func CompleteTaskCommand(ctx context.Context, svc views.Services, args []string) error {
	id, err := parseID("complete-task", args)
	if err != nil {
		return err
	}

	task, err := svc.Tasks.CompleteTask(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Task completed: %s\n", task.Title)
	return nil
}
