// ABOUTME: Page loaders that fetch collections in parallel and derive views
// ABOUTME: Dashboard metrics, grouped task and activity pages, optimistic completion

package views

import (
	"context"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
	"github.com/harperreed/dealflow/services"
	"github.com/harperreed/dealflow/state"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DashboardRecentLimit and DashboardUpcomingLimit size the dashboard lists.
const (
	DashboardRecentLimit   = 5
	DashboardUpcomingLimit = 5
)

// Services bundles the entity services a page needs.
type Services struct {
	Contacts   *services.ContactService
	Deals      *services.DealService
	Tasks      *services.TaskService
	Activities *services.ActivityService
}

type Metrics struct {
	TotalContacts  int             `json:"total_contacts"`
	ActiveContacts int             `json:"active_contacts"`
	TotalDeals     int             `json:"total_deals"`
	PipelineValue  decimal.Decimal `json:"pipeline_value"`
	ConversionRate int             `json:"conversion_rate"`
	PendingTasks   int             `json:"pending_tasks"`
}

type Dashboard struct {
	Metrics          Metrics           `json:"metrics"`
	Pipeline         pipeline.Summary  `json:"pipeline"`
	UpcomingTasks    []models.Task     `json:"upcoming_tasks"`
	RecentActivities []models.Activity `json:"recent_activities"`
	ContactNames     map[int64]string  `json:"contact_names"`
}

// BuildDashboard derives the dashboard from already loaded collections.
func BuildDashboard(contacts []models.Contact, deals []models.Deal, tasks []models.Task, activities []models.Activity) Dashboard {
	sorted := append([]models.Activity(nil), activities...)
	services.SortActivities(sorted)

	return Dashboard{
		Metrics: Metrics{
			TotalContacts:  len(contacts),
			ActiveContacts: len(services.ContactsByStatus(contacts, models.ContactStatusActive)),
			TotalDeals:     len(deals),
			PipelineValue:  pipeline.OpenPipelineValue(deals),
			ConversionRate: pipeline.ConversionRate(deals),
			PendingTasks:   len(services.TasksByStatus(tasks, models.TaskStatusPending)),
		},
		Pipeline:         pipeline.Aggregate(deals, models.OrderedStages()),
		UpcomingTasks:    services.UpcomingTasks(tasks, DashboardUpcomingLimit),
		RecentActivities: services.RecentActivities(sorted, DashboardRecentLimit),
		ContactNames:     services.ContactNames(contacts),
	}
}

// Dashboard loads every collection concurrently and builds the dashboard.
// Failed fetches are reported by the services and show up as empty lists.
func (s Services) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		contacts   []models.Contact
		deals      []models.Deal
		tasks      []models.Task
		activities []models.Activity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		contacts = s.Contacts.List(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		deals = s.Deals.List(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		tasks = s.Tasks.List(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		activities = s.Activities.List(gctx)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	return BuildDashboard(contacts, deals, tasks, activities), nil
}

// TaskPage is the grouped, filtered task list with contact names resolved.
type TaskPage struct {
	Groups       TaskGroups       `json:"groups"`
	ContactNames map[int64]string `json:"contact_names"`
	Today        string           `json:"today"`
}

// ContactName resolves a task's contact: "Unassigned" when unset.
func (p TaskPage) ContactName(t models.Task) string {
	return services.ResolveContact(p.ContactNames, t.ContactID, "Unassigned")
}

func (s Services) TaskPage(ctx context.Context, filter TaskFilter) (TaskPage, error) {
	return s.TaskPageInto(ctx, state.NewCollection[models.Task](nil), filter)
}

// TaskPageInto loads tasks into c and builds the page from it, so later
// optimistic edits against c can be regrouped with BuildTaskPage.
func (s Services) TaskPageInto(ctx context.Context, c *state.Collection[models.Task], filter TaskFilter) (TaskPage, error) {
	var (
		tasks    []models.Task
		contacts []models.Contact
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks = s.Tasks.List(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		contacts = s.Contacts.List(gctx)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return TaskPage{}, err
	}

	c.Set(tasks)
	return BuildTaskPage(c.Snapshot(), services.ContactNames(contacts), filter, s.Tasks.Now()), nil
}

// BuildTaskPage filters and groups tasks as of now.
func BuildTaskPage(tasks []models.Task, contactNames map[int64]string, filter TaskFilter, now time.Time) TaskPage {
	today := services.Today(now)
	return TaskPage{
		Groups:       GroupTasksByDate(filter.Apply(tasks, today), today),
		ContactNames: contactNames,
		Today:        today,
	}
}

// ActivityPage is the filtered activity feed grouped by day.
type ActivityPage struct {
	Groups       []ActivityGroup  `json:"groups"`
	TypeCounts   map[string]int   `json:"type_counts"`
	ContactNames map[int64]string `json:"contact_names"`
	DealNames    map[int64]string `json:"deal_names"`
}

// ContactName resolves an activity's contact: "Unknown" when unset.
func (p ActivityPage) ContactName(a models.Activity) string {
	return services.ResolveContact(p.ContactNames, a.ContactID, "Unknown")
}

// DealName returns the linked deal's name, or "" when unset or dangling.
func (p ActivityPage) DealName(a models.Activity) string {
	if a.DealID == nil {
		return ""
	}
	return p.DealNames[*a.DealID]
}

func (s Services) ActivityPage(ctx context.Context, filter ActivityFilter, now time.Time) (ActivityPage, error) {
	var (
		activities []models.Activity
		contacts   []models.Contact
		deals      []models.Deal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		activities = s.Activities.List(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		contacts = s.Contacts.List(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		deals = s.Deals.List(gctx)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return ActivityPage{}, err
	}

	dealNames := make(map[int64]string, len(deals))
	for _, d := range deals {
		dealNames[d.ID] = d.Name
	}

	return ActivityPage{
		Groups:       GroupActivitiesByDate(filter.Apply(activities), now),
		TypeCounts:   ActivityTypeCounts(activities),
		ContactNames: services.ContactNames(contacts),
		DealNames:    dealNames,
	}, nil
}

// CompleteTask marks id completed in tasks right away, then persists it.
// The local task reverts if the store rejects the change.
func CompleteTask(ctx context.Context, tasks *state.Collection[models.Task], svc *services.TaskService, id int64) (models.Task, error) {
	now := svc.Now()
	return state.Optimistic(ctx, tasks, id,
		func(t models.Task) models.Task {
			t.Status = models.TaskStatusCompleted
			stamp := now.UTC()
			t.CompletedAt = &stamp
			return t
		},
		func(ctx context.Context) (models.Task, error) {
			return svc.CompleteTask(ctx, id)
		},
	)
}
