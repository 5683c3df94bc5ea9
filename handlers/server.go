// ABOUTME: MCP server assembly for the dealflow tools, resources and prompts
// ABOUTME: Every handler works through the entity services and pipeline controller

package handlers

import (
	"github.com/harperreed/dealflow/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

// NewServer builds an MCP server with every dealflow tool registered.
func NewServer(svc views.Services, version string, log *logrus.Entry) *mcp.Server {
	if log == nil {
		log = logrus.WithField("component", "mcp")
	}

	contacts := NewContactHandlers(svc)
	deals := NewDealHandlers(svc, log)
	tasks := NewTaskHandlers(svc)
	activities := NewActivityHandlers(svc)
	graphs := NewVizHandlers(svc, log)
	resources := NewResourceHandlers(svc)
	prompts := NewPromptHandlers(svc)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "dealflow",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_contacts",
		Description: "Search contacts by name, email or company, optionally filtered by status",
	}, contacts.FindContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_contact",
		Description: "Add a new contact to the CRM",
	}, contacts.CreateContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_contact",
		Description: "Change fields of an existing contact; omitted fields are left as they are",
	}, contacts.UpdateContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_deals",
		Description: "List deals, optionally filtered by pipeline stage",
	}, deals.ListDeals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_deal",
		Description: "Create a new deal in the pipeline",
	}, deals.CreateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_deal",
		Description: "Change fields of an existing deal; omitted fields are left as they are",
	}, deals.UpdateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pipeline_summary",
		Description: "Deal counts and total value for every pipeline stage",
	}, deals.PipelineSummary)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_deal",
		Description: "Move a deal to another pipeline stage; the move is rolled back if the store rejects it",
	}, deals.MoveDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks grouped into overdue, today, upcoming and completed",
	}, tasks.ListTasks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task as completed",
	}, tasks.CompleteTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_task",
		Description: "Change fields of an existing task; status changes keep the completion time in step",
	}, tasks.UpdateTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_activity",
		Description: "Record a call, email, meeting or other activity against a contact or deal",
	}, activities.LogActivity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "recent_activities",
		Description: "Most recent activities, newest first, grouped by day",
	}, activities.RecentActivities)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dashboard",
		Description: "Headline CRM metrics with upcoming tasks and recent activities",
	}, activities.Dashboard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz DOT graph of the pipeline or of every contact with their deals and tasks",
	}, graphs.GenerateGraph)

	resources.Register(server)
	prompts.Register(server)

	return server
}
