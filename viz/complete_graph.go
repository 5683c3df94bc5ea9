// ABOUTME: Complete graph generation combining all entities
// ABOUTME: Contacts linked to their deals, open tasks and activity counts
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/dealflow/models"
)

// Entities is everything the complete graph draws.
type Entities struct {
	Contacts   []models.Contact
	Deals      []models.Deal
	Tasks      []models.Task
	Activities []models.Activity
}

// GenerateCompleteGraph returns DOT source linking contacts to their deals
// and pending tasks. Contact labels carry their activity count.
func (g *GraphGenerator) GenerateCompleteGraph(ctx context.Context, e Entities) (string, error) {
	activityCount := make(map[int64]int)
	for _, a := range e.Activities {
		if a.ContactID != nil {
			activityCount[*a.ContactID]++
		}
	}

	var buf bytes.Buffer
	err := g.build(ctx, graphviz.XDOT, &buf, func(graph *cgraph.Graph) error {
		graph.SetLabel("Complete CRM Graph")

		contactNodes := make(map[int64]*cgraph.Node)
		for _, contact := range e.Contacts {
			node, err := graph.CreateNodeByName(fmt.Sprintf("contact_%d", contact.ID))
			if err != nil {
				return fmt.Errorf("failed to create contact node: %w", err)
			}
			label := contact.FullName()
			if contact.Company != "" {
				label += "\n" + contact.Company
			}
			if n := activityCount[contact.ID]; n > 0 {
				label += fmt.Sprintf("\n%d activities", n)
			}
			node.SetLabel(label)
			node.SetShape("ellipse")
			node.SetStyle("filled")
			node.SetFillColor("lightgreen")
			contactNodes[contact.ID] = node
		}

		for _, deal := range e.Deals {
			node, err := graph.CreateNodeByName(fmt.Sprintf("deal_%d", deal.ID))
			if err != nil {
				return fmt.Errorf("failed to create deal node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n$%s\n(%s)", deal.Name, deal.Value.StringFixed(0), models.StageName(deal.Stage)))
			node.SetShape("diamond")
			node.SetStyle("filled")
			node.SetFillColor("lightyellow")

			if deal.ContactID == nil {
				continue
			}
			if contactNode, ok := contactNodes[*deal.ContactID]; ok {
				edge, err := graph.CreateEdgeByName(fmt.Sprintf("deal_%d_contact", deal.ID), contactNode, node)
				if err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
				edge.SetLabel("deal")
			}
		}

		for _, task := range e.Tasks {
			if task.Status != models.TaskStatusPending || task.ContactID == nil {
				continue
			}
			contactNode, ok := contactNodes[*task.ContactID]
			if !ok {
				continue
			}
			node, err := graph.CreateNodeByName(fmt.Sprintf("task_%d", task.ID))
			if err != nil {
				return fmt.Errorf("failed to create task node: %w", err)
			}
			label := task.Title
			if task.DueDate != "" {
				label += "\ndue " + task.DueDate
			}
			node.SetLabel(label)
			node.SetShape("note")

			edge, err := graph.CreateEdgeByName(fmt.Sprintf("task_%d_contact", task.ID), contactNode, node)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetStyle("dashed")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
