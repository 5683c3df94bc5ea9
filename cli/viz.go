// ABOUTME: Visualization CLI commands
// ABOUTME: Handles viz dashboard and graph generation commands
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-graphviz"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
	"github.com/harperreed/dealflow/views"
	"github.com/harperreed/dealflow/viz"
	"github.com/sirupsen/logrus"
)

func graphFormat(name string) (graphviz.Format, error) {
	switch name {
	case "dot", "":
		return graphviz.XDOT, nil
	case "svg":
		return graphviz.SVG, nil
	case "png":
		return graphviz.PNG, nil
	}
	return "", fmt.Errorf("unknown format %q (valid: dot, svg, png)", name)
}

// openOutput returns stdout when path is empty.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}

// VizPipelineCommand renders the deal pipeline graph.
func VizPipelineCommand(ctx context.Context, svc views.Services, log *logrus.Entry, args []string) error {
	fs := flag.NewFlagSet("viz pipeline", flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	format := fs.String("format", "dot", "Output format (dot, svg, png)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := graphFormat(*format)
	if err != nil {
		return err
	}
	deals, err := svc.Deals.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to load deals: %w", err)
	}

	w, closeFn, err := openOutput(*output)
	if err != nil {
		return err
	}
	summary := pipeline.Aggregate(deals, models.OrderedStages())
	if err := viz.NewGraphGenerator(log).RenderPipeline(ctx, summary, f, w); err != nil {
		_ = closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}

	if *output != "" {
		fmt.Fprintf(stdout, "✓ Pipeline graph written to %s\n", *output)
	}
	return nil
}

// VizAllCommand generates a complete graph with all entities.
func VizAllCommand(ctx context.Context, svc views.Services, log *logrus.Entry, args []string) error {
	fs := flag.NewFlagSet("viz all", flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dot, err := viz.NewGraphGenerator(log).GenerateCompleteGraph(ctx, viz.Entities{
		Contacts:   svc.Contacts.List(ctx),
		Deals:      svc.Deals.List(ctx),
		Tasks:      svc.Tasks.List(ctx),
		Activities: svc.Activities.List(ctx),
	})
	if err != nil {
		return err
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(dot), 0644); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "✓ Graph written to %s\n", *output)
		return nil
	}

	fmt.Fprintln(stdout, dot)
	return nil
}
