// ABOUTME: Deal MCP tool handlers
// ABOUTME: Implements list_deals, create_deal, update_deal, pipeline_summary and move_deal tools
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
	"github.com/harperreed/dealflow/services"
	"github.com/harperreed/dealflow/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type DealHandlers struct {
	deals *services.DealService
	log   *logrus.Entry
}

func NewDealHandlers(svc views.Services, log *logrus.Entry) *DealHandlers {
	return &DealHandlers{deals: svc.Deals, log: log}
}

type CreateDealInput struct {
	Name              string   `json:"name" jsonschema:"Deal name (required)"`
	Value             float64  `json:"value,omitempty" jsonschema:"Deal value in the deal currency"`
	Currency          string   `json:"currency,omitempty" jsonschema:"Currency code (default USD)"`
	Stage             string   `json:"stage,omitempty" jsonschema:"Stage: lead, qualified, proposal, negotiation, closed-won, closed-lost (default lead)"`
	Probability       int      `json:"probability,omitempty" jsonschema:"Win probability 0-100"`
	ExpectedCloseDate string   `json:"expected_close_date,omitempty" jsonschema:"Expected close date as YYYY-MM-DD"`
	ContactID         int64    `json:"contact_id,omitempty" jsonschema:"Linked contact ID"`
	Description       string   `json:"description,omitempty" jsonschema:"Deal description"`
	Tags              []string `json:"tags,omitempty" jsonschema:"Tags"`
}

type DealOutput struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name"`
	Value             string   `json:"value"`
	Currency          string   `json:"currency"`
	Stage             string   `json:"stage"`
	StageName         string   `json:"stage_name"`
	Probability       int      `json:"probability"`
	ExpectedCloseDate string   `json:"expected_close_date,omitempty"`
	ContactID         *int64   `json:"contact_id,omitempty"`
	Description       string   `json:"description,omitempty"`
	Tags              []string `json:"tags"`
	UpdatedAt         string   `json:"updated_at,omitempty"`
}

func (h *DealHandlers) CreateDeal(ctx context.Context, request *mcp.CallToolRequest, input CreateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, DealOutput{}, fmt.Errorf("name is required")
	}
	if input.Stage != "" && !models.IsKnownStage(input.Stage) {
		return nil, DealOutput{}, fmt.Errorf("invalid stage: %s (valid: %s)", input.Stage, strings.Join(models.OrderedStages(), ", "))
	}

	deal := models.Deal{
		Name:              input.Name,
		Value:             decimal.NewFromFloat(input.Value),
		Currency:          input.Currency,
		Stage:             input.Stage,
		Probability:       input.Probability,
		ExpectedCloseDate: input.ExpectedCloseDate,
		Description:       input.Description,
		Tags:              input.Tags,
	}
	if input.ContactID != 0 {
		deal.ContactID = &input.ContactID
	}

	created, err := h.deals.Create(ctx, deal)
	if err != nil {
		return nil, DealOutput{}, fmt.Errorf("failed to create deal: %w", err)
	}
	return nil, dealToOutput(created), nil
}

type ListDealsInput struct {
	Stage string `json:"stage,omitempty" jsonschema:"Filter by stage"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum results (default 50)"`
}

type ListDealsOutput struct {
	Deals []DealOutput `json:"deals"`
	Total int          `json:"total"`
}

func (h *DealHandlers) ListDeals(ctx context.Context, request *mcp.CallToolRequest, input ListDealsInput) (*mcp.CallToolResult, ListDealsOutput, error) {
	deals, err := h.deals.Fetch(ctx)
	if err != nil {
		return nil, ListDealsOutput{}, fmt.Errorf("failed to load deals: %w", err)
	}
	if input.Stage != "" {
		deals = services.DealsByStage(deals, input.Stage)
	}

	total := len(deals)
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if len(deals) > limit {
		deals = deals[:limit]
	}

	out := make([]DealOutput, len(deals))
	for i, d := range deals {
		out[i] = dealToOutput(d)
	}
	return nil, ListDealsOutput{Deals: out, Total: total}, nil
}

type PipelineSummaryInput struct{}

type StageOutput struct {
	Stage      string `json:"stage"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
	TotalValue string `json:"total_value"`
}

type PipelineSummaryOutput struct {
	Stages         []StageOutput `json:"stages"`
	Unrecognized   int           `json:"unrecognized"`
	TotalDeals     int           `json:"total_deals"`
	OpenValue      string        `json:"open_value"`
	ConversionRate int           `json:"conversion_rate"`
}

func (h *DealHandlers) PipelineSummary(ctx context.Context, request *mcp.CallToolRequest, input PipelineSummaryInput) (*mcp.CallToolResult, PipelineSummaryOutput, error) {
	deals, err := h.deals.Fetch(ctx)
	if err != nil {
		return nil, PipelineSummaryOutput{}, fmt.Errorf("failed to load deals: %w", err)
	}
	return nil, summaryToOutput(aggregate(deals), deals), nil
}

func summaryToOutput(summary pipeline.Summary, deals []models.Deal) PipelineSummaryOutput {
	out := PipelineSummaryOutput{
		Stages:         make([]StageOutput, 0, len(summary.Stages)),
		Unrecognized:   summary.Unrecognized.Count,
		TotalDeals:     summary.Count(),
		OpenValue:      money(summary.OpenValue()),
		ConversionRate: pipeline.ConversionRate(deals),
	}
	for _, stage := range summary.Stages {
		b := summary.Bucket(stage)
		out.Stages = append(out.Stages, StageOutput{
			Stage:      stage,
			Name:       models.StageName(stage),
			Count:      b.Count,
			TotalValue: money(b.TotalValue),
		})
	}
	return out
}

type MoveDealInput struct {
	ID    int64  `json:"id" jsonschema:"Deal ID (required)"`
	Stage string `json:"stage" jsonschema:"Target stage (required)"`
}

type MoveDealOutput struct {
	Outcome string     `json:"outcome"`
	From    string     `json:"from"`
	To      string     `json:"to"`
	Deal    DealOutput `json:"deal"`
}

// MoveDeal runs one drag-and-drop gesture on a board loaded for the call.
func (h *DealHandlers) MoveDeal(ctx context.Context, request *mcp.CallToolRequest, input MoveDealInput) (*mcp.CallToolResult, MoveDealOutput, error) {
	if input.ID == 0 {
		return nil, MoveDealOutput{}, fmt.Errorf("id is required")
	}
	if input.Stage == "" {
		return nil, MoveDealOutput{}, fmt.Errorf("stage is required")
	}

	deals, err := h.deals.Fetch(ctx)
	if err != nil {
		return nil, MoveDealOutput{}, fmt.Errorf("failed to load deals: %w", err)
	}
	board := pipeline.NewBoard(deals)
	defer board.Detach()

	before, ok := board.Find(input.ID)
	if !ok {
		return nil, MoveDealOutput{}, fmt.Errorf("deal %d not found", input.ID)
	}

	outcome, err := pipeline.NewController(board, h.deals, h.log).Move(ctx, input.ID, input.Stage)
	if err != nil {
		return nil, MoveDealOutput{}, fmt.Errorf("failed to move deal: %w", err)
	}

	after, _ := board.Find(input.ID)
	return nil, MoveDealOutput{
		Outcome: outcome.String(),
		From:    before.Stage,
		To:      after.Stage,
		Deal:    dealToOutput(after),
	}, nil
}

// UpdateDealInput leaves omitted fields untouched. Value is a decimal
// string so large amounts keep every digit.
type UpdateDealInput struct {
	ID                int64     `json:"id" jsonschema:"Deal ID (required)"`
	Name              *string   `json:"name,omitempty" jsonschema:"New deal name"`
	Value             *string   `json:"value,omitempty" jsonschema:"New value as a decimal string, e.g. 1250.50"`
	Currency          *string   `json:"currency,omitempty" jsonschema:"New currency code"`
	Stage             *string   `json:"stage,omitempty" jsonschema:"New stage: lead, qualified, proposal, negotiation, closed-won, closed-lost"`
	Probability       *int      `json:"probability,omitempty" jsonschema:"New win probability 0-100"`
	ExpectedCloseDate *string   `json:"expected_close_date,omitempty" jsonschema:"New expected close date as YYYY-MM-DD; empty clears it"`
	ContactID         *int64    `json:"contact_id,omitempty" jsonschema:"New linked contact ID"`
	ClearContact      bool      `json:"clear_contact,omitempty" jsonschema:"Unlink the contact"`
	Description       *string   `json:"description,omitempty" jsonschema:"New description"`
	Tags              *[]string `json:"tags,omitempty" jsonschema:"Replacement tag list"`
}

func (h *DealHandlers) UpdateDeal(ctx context.Context, request *mcp.CallToolRequest, input UpdateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if input.ID == 0 {
		return nil, DealOutput{}, fmt.Errorf("id is required")
	}
	if input.ClearContact && input.ContactID != nil {
		return nil, DealOutput{}, fmt.Errorf("contact_id and clear_contact are mutually exclusive")
	}

	patch := models.DealPatch{
		Name:              input.Name,
		Currency:          input.Currency,
		Stage:             input.Stage,
		Probability:       input.Probability,
		ExpectedCloseDate: input.ExpectedCloseDate,
		ContactID:         input.ContactID,
		ClearContactID:    input.ClearContact,
		Description:       input.Description,
		Tags:              input.Tags,
	}
	if input.Value != nil {
		value, err := decimal.NewFromString(strings.TrimSpace(*input.Value))
		if err != nil {
			return nil, DealOutput{}, fmt.Errorf("invalid value %q: %w", *input.Value, err)
		}
		patch.Value = &value
	}

	updated, err := h.deals.Update(ctx, input.ID, patch)
	if err != nil {
		return nil, DealOutput{}, fmt.Errorf("failed to update deal: %w", err)
	}
	return nil, dealToOutput(updated), nil
}

func dealToOutput(d models.Deal) DealOutput {
	out := DealOutput{
		ID:                d.ID,
		Name:              d.Name,
		Value:             money(d.Value),
		Currency:          d.Currency,
		Stage:             d.Stage,
		StageName:         models.StageName(d.Stage),
		Probability:       d.Probability,
		ExpectedCloseDate: d.ExpectedCloseDate,
		ContactID:         d.ContactID,
		Description:       d.Description,
		Tags:              d.Tags,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if !d.UpdatedAt.IsZero() {
		out.UpdatedAt = formatTime(d.UpdatedAt)
	}
	return out
}
