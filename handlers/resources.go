// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Provides read-only JSON views of deals, the pipeline, tasks and the dashboard
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
	"github.com/harperreed/dealflow/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const scheme = "dealflow://"

type ResourceHandlers struct {
	svc views.Services
}

func NewResourceHandlers(svc views.Services) *ResourceHandlers {
	return &ResourceHandlers{svc: svc}
}

// Register adds the fixed resources to server.
func (h *ResourceHandlers) Register(server *mcp.Server) {
	for _, r := range []struct{ path, description string }{
		{"contacts", "All contacts"},
		{"deals", "All deals"},
		{"pipeline", "Deals bucketed by pipeline stage"},
		{"tasks", "Tasks grouped by due date"},
		{"dashboard", "Headline CRM metrics"},
	} {
		server.AddResource(&mcp.Resource{
			URI:         scheme + r.path,
			Name:        r.path,
			Description: r.description,
			MIMEType:    "application/json",
		}, h.ReadResource)
	}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, scheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", scheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, scheme), "/")

	var payload any
	switch parts[0] {
	case "contacts":
		contacts, err := h.svc.Contacts.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		payload = contacts

	case "deals":
		if len(parts) > 1 {
			id, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid deal id: %w", err)
			}
			deal, err := h.svc.Deals.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			payload = dealToOutput(deal)
			break
		}
		deals, err := h.svc.Deals.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		payload = deals

	case "pipeline":
		deals, err := h.svc.Deals.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		payload = summaryToOutput(aggregate(deals), deals)

	case "tasks":
		page, err := h.svc.TaskPage(ctx, views.TaskFilter{})
		if err != nil {
			return nil, err
		}
		payload = page.Groups

	case "dashboard":
		d, err := h.svc.Dashboard(ctx)
		if err != nil {
			return nil, err
		}
		payload = d.Metrics

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

func aggregate(deals []models.Deal) pipeline.Summary {
	return pipeline.Aggregate(deals, models.OrderedStages())
}
