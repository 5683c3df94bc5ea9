package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealflow/viz"
)

func (m Model) renderGraphView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("GRAPH VIEW"))
	s.WriteString("\n\n")

	// DOT source (scrollable in future)
	if m.graphDOT == "" && m.err == nil {
		s.WriteString("Generating graph...\n")
	} else {
		s.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Render(m.graphDOT))
	}

	s.WriteString("\n\n")
	s.WriteString(m.renderStatus())

	// Help
	s.WriteString(m.renderGraphHelp())

	return s.String()
}

func (m Model) renderGraphHelp() string {
	return renderHelp("Esc: Back", "q: Quit")
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewBoard
		m.graphDOT = ""
		m.err = nil
	}

	return m, nil
}

func (m Model) generateGraph() tea.Cmd {
	summary := m.board.Summary()
	return func() tea.Msg {
		dot, err := viz.NewGraphGenerator(m.log).GeneratePipelineGraph(m.ctx, summary)
		return graphLoadedMsg{dot: dot, err: err}
	}
}
