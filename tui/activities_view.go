package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/dealflow/models"
)

func (m Model) renderActivitiesView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("ACTIVITY FEED"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	page := m.activityPage
	if len(page.Groups) == 0 {
		s.WriteString(mutedStyle.Render("No activities yet"))
		s.WriteString("\n")
	}

	now := m.svc.Activities.Now()
	for _, group := range page.Groups {
		s.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", group.Label, len(group.Activities))))
		s.WriteString("\n")
		for _, a := range group.Activities {
			line := fmt.Sprintf("  %-9s %s (%s)", a.Type, a.Subject, page.ContactName(a))
			if deal := page.DealName(a); deal != "" {
				line += " [" + deal + "]"
			}
			s.WriteString(line)
			s.WriteString(mutedStyle.Render("  " + a.Timestamp.In(now.Location()).Format("3:04 PM")))
			s.WriteString("\n")
		}
		s.WriteString("\n")
	}

	var counts []string
	for _, typ := range models.ActivityTypes {
		if n := page.TypeCounts[typ]; n > 0 {
			counts = append(counts, fmt.Sprintf("%s %d", typ, n))
		}
	}
	if len(counts) > 0 {
		s.WriteString(mutedStyle.Render("By type: " + strings.Join(counts, ", ")))
		s.WriteString("\n")
	}

	s.WriteString(m.renderStatus())
	s.WriteString("\n")
	s.WriteString(renderHelp("r: Reload", "Tab: Switch view", "q: Quit"))

	return s.String()
}

func (m Model) handleActivityKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "r" {
		return m, m.loadActivities()
	}
	return m, nil
}
