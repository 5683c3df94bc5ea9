// ABOUTME: MCP prompt handlers for reusable CRM workflow templates
// ABOUTME: Provides contact-summary, deal-analysis and task-triage prompts
package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/services"
	"github.com/harperreed/dealflow/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	svc views.Services
}

func NewPromptHandlers(svc views.Services) *PromptHandlers {
	return &PromptHandlers{svc: svc}
}

// Register adds every prompt to server.
func (h *PromptHandlers) Register(server *mcp.Server) {
	server.AddPrompt(&mcp.Prompt{
		Name:        "contact-summary",
		Description: "Summarize a contact with their deals, open tasks and recent activity",
		Arguments: []*mcp.PromptArgument{
			{Name: "contact_id", Description: "Contact ID", Required: true},
		},
	}, h.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "deal-analysis",
		Description: "Analyze pipeline health stage by stage",
	}, h.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "task-triage",
		Description: "Prioritize overdue and due-today tasks",
	}, h.GetPrompt)
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "contact-summary":
		return h.getContactSummaryPrompt(ctx, request.Params.Arguments)
	case "deal-analysis":
		return h.getDealAnalysisPrompt(ctx)
	case "task-triage":
		return h.getTaskTriagePrompt(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getContactSummaryPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, err := strconv.ParseInt(args["contact_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid contact_id: %w", err)
	}

	contact, err := h.svc.Contacts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	var deals []models.Deal
	for _, d := range h.svc.Deals.List(ctx) {
		if d.ContactID != nil && *d.ContactID == id {
			deals = append(deals, d)
		}
	}
	var openTasks []models.Task
	for _, t := range h.svc.Tasks.GetByStatus(ctx, models.TaskStatusPending) {
		if t.ContactID != nil && *t.ContactID == id {
			openTasks = append(openTasks, t)
		}
	}
	activities := services.RecentActivities(h.svc.Activities.GetByContact(ctx, id), 5)

	var promptText strings.Builder
	promptText.WriteString("Please provide a comprehensive summary of this contact:\n\n")
	promptText.WriteString(fmt.Sprintf("Name: %s\n", contact.FullName()))
	if contact.Email != "" {
		promptText.WriteString(fmt.Sprintf("Email: %s\n", contact.Email))
	}
	if contact.Company != "" {
		promptText.WriteString(fmt.Sprintf("Company: %s\n", contact.Company))
	}
	promptText.WriteString(fmt.Sprintf("Status: %s\n", contact.Status))

	if len(deals) > 0 {
		promptText.WriteString("\nDeals:\n")
		for _, d := range deals {
			promptText.WriteString(fmt.Sprintf("  - %s (%s, %s %s)\n", d.Name, models.StageName(d.Stage), money(d.Value), d.Currency))
		}
	}
	if len(openTasks) > 0 {
		promptText.WriteString(fmt.Sprintf("\nOpen tasks: %d\n", len(openTasks)))
	}
	if len(activities) > 0 {
		promptText.WriteString("\nRecent activity:\n")
		for _, a := range activities {
			promptText.WriteString(fmt.Sprintf("  - %s %s: %s\n", a.Timestamp.Format("2006-01-02"), a.Type, a.Subject))
		}
	}

	promptText.WriteString("\nPlease analyze this contact and provide:")
	promptText.WriteString("\n1. A brief summary of where the relationship stands")
	promptText.WriteString("\n2. Recommendations for next steps or follow-up actions")
	promptText.WriteString("\n3. Any risks to the open deals")

	return userPrompt(fmt.Sprintf("Summary for contact: %s", contact.FullName()), promptText.String()), nil
}

func (h *PromptHandlers) getDealAnalysisPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	deals, err := h.svc.Deals.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deals: %w", err)
	}
	summary := summaryToOutput(aggregate(deals), deals)

	var promptText strings.Builder
	promptText.WriteString("Please analyze the current deal pipeline:\n\n")
	promptText.WriteString(fmt.Sprintf("Total Deals: %d\n", summary.TotalDeals))
	promptText.WriteString(fmt.Sprintf("Open Pipeline Value: %s\n", summary.OpenValue))
	promptText.WriteString(fmt.Sprintf("Conversion Rate: %d%%\n\n", summary.ConversionRate))
	promptText.WriteString("Pipeline by Stage:\n")
	for _, s := range summary.Stages {
		promptText.WriteString(fmt.Sprintf("  - %s: %d deals, %s\n", s.Name, s.Count, s.TotalValue))
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. Analysis of pipeline health and distribution")
	promptText.WriteString("\n2. Recommendations for deals that may need attention")
	promptText.WriteString("\n3. Suggestions for improving conversion rates")

	return userPrompt("Deal pipeline analysis", promptText.String()), nil
}

func (h *PromptHandlers) getTaskTriagePrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	page, err := h.svc.TaskPage(ctx, views.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Today is %s. Please help triage these tasks:\n", page.Today))
	for _, section := range []struct {
		title string
		tasks []models.Task
	}{
		{"Overdue", page.Groups.Overdue},
		{"Due today", page.Groups.Today},
	} {
		promptText.WriteString(fmt.Sprintf("\n%s (%d):\n", section.title, len(section.tasks)))
		for _, t := range section.tasks {
			promptText.WriteString(fmt.Sprintf("  - [%s] %s (due %s, contact: %s)\n", t.Priority, t.Title, t.DueDate, page.ContactName(t)))
		}
	}

	promptText.WriteString("\nSuggest an order to work through them and anything that can be dropped.")

	return userPrompt("Task triage", promptText.String()), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}
