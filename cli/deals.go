// ABOUTME: Deal CLI commands
// ABOUTME: Human-friendly commands for managing deals and moving them through the pipeline
package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
	"github.com/harperreed/dealflow/services"
	"github.com/harperreed/dealflow/views"
	"github.com/harperreed/dealflow/viz"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AddDealCommand adds a new deal.
func AddDealCommand(ctx context.Context, svc views.Services, args []string) error {
	fs := flag.NewFlagSet("add-deal", flag.ContinueOnError)
	name := fs.String("name", "", "Deal name (required)")
	value := fs.String("value", "0", "Deal value, e.g. 1250.50")
	currency := fs.String("currency", models.DefaultCurrency, "Currency code")
	stage := fs.String("stage", models.StageLead, "Stage (lead, qualified, proposal, negotiation, closed-won, closed-lost)")
	probability := fs.Int("probability", 0, "Win probability 0-100")
	closeDate := fs.String("close-date", "", "Expected close date (YYYY-MM-DD)")
	contact := fs.Int64("contact", 0, "Contact ID")
	description := fs.String("description", "", "Description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	amount, err := decimal.NewFromString(*value)
	if err != nil {
		return fmt.Errorf("invalid --value %q: %w", *value, err)
	}

	deal := models.Deal{
		Name:              *name,
		Value:             amount,
		Currency:          *currency,
		Stage:             *stage,
		Probability:       *probability,
		ExpectedCloseDate: *closeDate,
		Description:       *description,
	}
	if *contact != 0 {
		deal.ContactID = contact
	}

	created, err := svc.Deals.Create(ctx, deal)
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Deal created: %s (ID: %d)\n", created.Name, created.ID)
	fmt.Fprintf(stdout, "  Value: $%s %s\n", created.Value.StringFixed(2), created.Currency)
	fmt.Fprintf(stdout, "  Stage: %s\n", models.StageName(created.Stage))
	return nil
}

// ListDealsCommand lists deals.
func ListDealsCommand(ctx context.Context, svc views.Services, args []string) error {
	fs := flag.NewFlagSet("list-deals", flag.ContinueOnError)
	stage := fs.String("stage", "", "Filter by stage")
	limit := fs.Int("limit", defaultLimit, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deals, err := svc.Deals.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to load deals: %w", err)
	}
	if *stage != "" {
		deals = services.DealsByStage(deals, *stage)
	}
	if *limit > 0 && len(deals) > *limit {
		deals = deals[:*limit]
	}

	if len(deals) == 0 {
		fmt.Fprintln(stdout, "No deals found")
		return nil
	}

	names := services.ContactNames(svc.Contacts.List(ctx))

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCONTACT\tVALUE\tSTAGE")
	_, _ = fmt.Fprintln(w, "--\t----\t-------\t-----\t-----")
	total := decimal.Zero
	for _, d := range deals {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t$%s\t%s\n",
			d.ID, d.Name, services.ResolveContact(names, d.ContactID, "Unknown"), d.Value.StringFixed(2), models.StageName(d.Stage))
		total = total.Add(d.Value)
	}
	_ = w.Flush()

	fmt.Fprintf(stdout, "\nTotal: %d deal(s) - $%s\n", len(deals), total.StringFixed(2))
	return nil
}

// MoveDealCommand moves a deal to another stage through the stage
// transition controller, so a rejected update leaves the deal where it was.
func MoveDealCommand(ctx context.Context, svc views.Services, log *logrus.Entry, args []string) error {
	fs := flag.NewFlagSet("move-deal", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: move-deal <id> <stage>")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid deal ID %q: %w", fs.Arg(0), err)
	}
	stage := fs.Arg(1)

	deals, err := svc.Deals.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to load deals: %w", err)
	}

	board := pipeline.NewBoard(deals)
	defer board.Detach()

	outcome, err := pipeline.NewController(board, svc.Deals, log).Move(ctx, id, stage)
	deal, _ := board.Find(id)
	switch outcome {
	case pipeline.OutcomeMoved:
		fmt.Fprintf(stdout, "✓ Deal moved: %s → %s\n", deal.Name, models.StageName(deal.Stage))
		return nil
	case pipeline.OutcomeRolledBack:
		fmt.Fprintf(stdout, "✗ Move rolled back; %s stays in %s\n", deal.Name, models.StageName(deal.Stage))
		return err
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Deal %s is already in %s\n", deal.Name, models.StageName(deal.Stage))
	return nil
}

// UpdateDealCommand changes the fields given as flags. Stage changes made
// here skip the board; move-deal is the interactive path.
func UpdateDealCommand(ctx context.Context, svc views.Services, args []string) error {
	fs := flag.NewFlagSet("update-deal", flag.ContinueOnError)
	name := fs.String("name", "", "Deal name")
	value := fs.String("value", "", "Deal value, e.g. 1250.50")
	currency := fs.String("currency", "", "Currency code")
	stage := fs.String("stage", "", "Stage (lead, qualified, proposal, negotiation, closed-won, closed-lost)")
	probability := fs.Int("probability", 0, "Win probability 0-100")
	closeDate := fs.String("close-date", "", "Expected close date (YYYY-MM-DD), empty to clear")
	contact := fs.Int64("contact", 0, "Contact ID")
	noContact := fs.Bool("no-contact", false, "Unlink the contact")
	description := fs.String("description", "", "Description")
	tags := fs.String("tags", "", "Comma-separated tags, replacing the current ones")

	id, err := parseIDAndFlags(fs, args)
	if err != nil {
		return err
	}

	set := setFlags(fs)
	if len(set) == 0 {
		return fmt.Errorf("nothing to update; pass at least one flag")
	}
	if set["contact"] && *noContact {
		return fmt.Errorf("--contact and --no-contact are mutually exclusive")
	}

	var patch models.DealPatch
	optString(set, "name", name, &patch.Name)
	optString(set, "currency", currency, &patch.Currency)
	optString(set, "stage", stage, &patch.Stage)
	optString(set, "close-date", closeDate, &patch.ExpectedCloseDate)
	optString(set, "description", description, &patch.Description)
	if set["value"] {
		amount, err := decimal.NewFromString(*value)
		if err != nil {
			return fmt.Errorf("invalid --value %q: %w", *value, err)
		}
		patch.Value = &amount
	}
	if set["probability"] {
		patch.Probability = probability
	}
	if set["contact"] {
		patch.ContactID = contact
	}
	patch.ClearContactID = *noContact
	if set["tags"] {
		list := splitTags(*tags)
		patch.Tags = &list
	}

	deal, err := svc.Deals.Update(ctx, id, patch)
	if err != nil {
		return fmt.Errorf("failed to update deal: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Deal updated: %s (ID: %d)\n", deal.Name, deal.ID)
	fmt.Fprintf(stdout, "  Value: $%s %s\n", deal.Value.StringFixed(2), deal.Currency)
	fmt.Fprintf(stdout, "  Stage: %s\n", models.StageName(deal.Stage))
	return nil
}

// DeleteDealCommand deletes a deal.
func DeleteDealCommand(ctx context.Context, svc views.Services, args []string) error {
	id, err := parseID("delete-deal", args)
	if err != nil {
		return err
	}

	deleted, err := svc.Deals.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	if !deleted {
		return fmt.Errorf("deal %d was not deleted", id)
	}

	fmt.Fprintf(stdout, "✓ Deleted deal: %d\n", id)
	return nil
}

// PipelineCommand prints the pipeline as one bar per stage.
func PipelineCommand(ctx context.Context, svc views.Services, args []string) error {
	fs := flag.NewFlagSet("pipeline", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	deals, err := svc.Deals.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to load deals: %w", err)
	}
	summary := pipeline.Aggregate(deals, models.OrderedStages())

	fmt.Fprintln(stdout, "PIPELINE")
	fmt.Fprint(stdout, viz.RenderPipeline(summary))
	fmt.Fprintf(stdout, "\nOpen value: $%s  Conversion: %d%%\n",
		summary.OpenValue().StringFixed(2), pipeline.ConversionRate(deals))
	return nil
}
