// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_graph tool for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/dealflow/views"
	"github.com/harperreed/dealflow/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

type VizHandlers struct {
	svc       views.Services
	generator *viz.GraphGenerator
}

func NewVizHandlers(svc views.Services, log *logrus.Entry) *VizHandlers {
	return &VizHandlers{svc: svc, generator: viz.NewGraphGenerator(log)}
}

type GenerateGraphInput struct {
	Type string `json:"type" jsonschema:"Graph type: pipeline or complete"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, request *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}

	var dot string
	var err error

	switch input.Type {
	case "pipeline":
		deals, ferr := h.svc.Deals.Fetch(ctx)
		if ferr != nil {
			return nil, GenerateGraphOutput{}, fmt.Errorf("failed to load deals: %w", ferr)
		}
		dot, err = h.generator.GeneratePipelineGraph(ctx, aggregate(deals))

	case "complete":
		dot, err = h.generator.GenerateCompleteGraph(ctx, viz.Entities{
			Contacts:   h.svc.Contacts.List(ctx),
			Deals:      h.svc.Deals.List(ctx),
			Tasks:      h.svc.Tasks.List(ctx),
			Activities: h.svc.Activities.List(ctx),
		})

	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: pipeline, complete)", input.Type)
	}

	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: strings.Count(dot, "[label="),
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}
