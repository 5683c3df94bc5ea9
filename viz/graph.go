// ABOUTME: GraphViz pipeline graph generation
// ABOUTME: Stage nodes chained in board order with each deal hanging off its stage
package viz

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
	"github.com/sirupsen/logrus"
)

// GraphGenerator renders CRM data as GraphViz graphs.
type GraphGenerator struct {
	log *logrus.Entry
}

func NewGraphGenerator(log *logrus.Entry) *GraphGenerator {
	if log == nil {
		log = logrus.WithField("component", "viz")
	}
	return &GraphGenerator{log: log}
}

// build creates a graphviz instance and graph, fills it, and renders it.
func (g *GraphGenerator) build(ctx context.Context, format graphviz.Format, w io.Writer, fill func(*cgraph.Graph) error) error {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() {
		if err := gv.Close(); err != nil {
			g.log.WithError(err).Warn("closing graphviz")
		}
	}()

	graph, err := gv.Graph()
	if err != nil {
		return fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() {
		if err := graph.Close(); err != nil {
			g.log.WithError(err).Warn("closing graph")
		}
	}()

	if err := fill(graph); err != nil {
		return err
	}

	if err := gv.Render(ctx, graph, format, w); err != nil {
		return fmt.Errorf("failed to render graph: %w", err)
	}
	return nil
}

// GeneratePipelineGraph returns DOT source for the pipeline.
func (g *GraphGenerator) GeneratePipelineGraph(ctx context.Context, summary pipeline.Summary) (string, error) {
	var buf bytes.Buffer
	if err := g.RenderPipeline(ctx, summary, graphviz.XDOT, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderPipeline writes the pipeline graph to w in format (DOT, SVG, PNG).
func (g *GraphGenerator) RenderPipeline(ctx context.Context, summary pipeline.Summary, format graphviz.Format, w io.Writer) error {
	return g.build(ctx, format, w, func(graph *cgraph.Graph) error {
		graph.SetLabel("Deal Pipeline")
		graph.SetRankDir(cgraph.LRRank)

		var prev *cgraph.Node
		for _, stage := range summary.Stages {
			bucket := summary.Bucket(stage)
			node, err := graph.CreateNodeByName("stage_" + stage)
			if err != nil {
				return fmt.Errorf("failed to create stage node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%d deals\n$%s", models.StageName(stage), bucket.Count, bucket.TotalValue.StringFixed(0)))
			node.SetShape("box")
			node.SetStyle("filled")
			node.SetFillColor(stageColor(stage))

			if prev != nil {
				if _, err := graph.CreateEdgeByName("next_"+stage, prev, node); err != nil {
					return fmt.Errorf("failed to create stage edge: %w", err)
				}
			}
			prev = node

			for _, deal := range bucket.Deals {
				if err := addDeal(graph, node, deal); err != nil {
					return err
				}
			}
		}

		if summary.Unrecognized.Count > 0 {
			node, err := graph.CreateNodeByName("stage_unrecognized")
			if err != nil {
				return fmt.Errorf("failed to create stage node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("Other\n%d deals", summary.Unrecognized.Count))
			node.SetShape("box")
			node.SetStyle("dashed")
			for _, deal := range summary.Unrecognized.Deals {
				if err := addDeal(graph, node, deal); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func addDeal(graph *cgraph.Graph, stage *cgraph.Node, deal models.Deal) error {
	node, err := graph.CreateNodeByName(fmt.Sprintf("deal_%d", deal.ID))
	if err != nil {
		return fmt.Errorf("failed to create deal node: %w", err)
	}
	node.SetLabel(fmt.Sprintf("%s\n$%s", deal.Name, deal.Value.StringFixed(0)))
	node.SetShape("ellipse")

	edge, err := graph.CreateEdgeByName(fmt.Sprintf("in_%d", deal.ID), stage, node)
	if err != nil {
		return fmt.Errorf("failed to create deal edge: %w", err)
	}
	edge.SetStyle("dotted")
	edge.SetDir("none")
	return nil
}

func stageColor(stage string) string {
	switch stage {
	case models.StageClosedWon:
		return "palegreen"
	case models.StageClosedLost:
		return "lightpink"
	case models.StageNegotiation, models.StageProposal:
		return "lightyellow"
	default:
		return "lightblue"
	}
}
