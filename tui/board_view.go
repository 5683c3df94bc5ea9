// ABOUTME: Kanban pipeline board view
// ABOUTME: One column per stage; space picks a deal up, arrows choose a column, enter drops
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
)

const minColumnWidth = 16

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	targetColumnStyle = columnStyle.
				BorderForeground(lipgloss.Color("170"))

	cardStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	draggedStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("214"))
)

type dropResultMsg struct {
	deal    models.Deal
	stage   string
	outcome pipeline.Outcome
	err     error
}

func (m Model) renderBoardView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("DEALFLOW PIPELINE"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.loading {
		s.WriteString("Loading deals...\n")
	} else {
		s.WriteString(m.renderColumns())
		s.WriteString("\n")
	}

	s.WriteString(m.renderStatus())
	s.WriteString("\n")
	s.WriteString(m.renderBoardHelp())

	return s.String()
}

func (m Model) columnWidth() int {
	w := m.width/len(m.stages) - 4
	if w < minColumnWidth {
		return minColumnWidth
	}
	return w
}

func (m Model) renderColumns() string {
	summary := m.board.Summary()
	st := m.controller.State()
	width := m.columnWidth()

	columns := make([]string, 0, len(m.stages))
	for i, stage := range m.stages {
		bucket := summary.Bucket(stage)

		var col strings.Builder
		col.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", models.StageName(stage), bucket.Count)))
		col.WriteString("\n")
		col.WriteString(mutedStyle.Render("$" + bucket.TotalValue.StringFixed(2)))
		col.WriteString("\n")

		for j, deal := range bucket.Deals {
			col.WriteString("\n")
			col.WriteString(m.renderCard(deal, st, i == m.col && j == m.row, width))
		}

		style := columnStyle
		if st.Phase != pipeline.Idle && stage == st.Target {
			style = targetColumnStyle
		}
		columns = append(columns, style.Width(width).Render(col.String()))
	}

	board := lipgloss.JoinHorizontal(lipgloss.Top, columns...)
	if summary.Unrecognized.Count > 0 {
		board += "\n" + mutedStyle.Render(fmt.Sprintf("%d deal(s) in unknown stages ($%s)",
			summary.Unrecognized.Count, summary.Unrecognized.TotalValue.StringFixed(2)))
	}
	return board
}

func (m Model) renderCard(deal models.Deal, st pipeline.State, selected bool, width int) string {
	label := truncate(deal.Name, width-2)
	switch {
	case st.Phase != pipeline.Idle && deal.ID == st.DealID:
		return draggedStyle.Render("» " + label)
	case selected && st.Phase == pipeline.Idle:
		return selectedStyle.Render("  " + label)
	}
	return cardStyle.Render("  " + label)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (m Model) renderBoardHelp() string {
	switch m.controller.State().Phase {
	case pipeline.Dragging:
		return renderHelp("←/→: Choose stage", "Enter: Drop", "Esc: Cancel")
	case pipeline.Dropping:
		return renderHelp("Saving...")
	}
	return renderHelp("←/→/↑/↓: Navigate", "Space: Pick up", "g: Graph", "r: Reload", "Tab: Switch view", "q: Quit")
}

func (m Model) selectedDeal() (models.Deal, bool) {
	deals := m.board.Summary().Bucket(m.stages[m.col]).Deals
	if m.row < 0 || m.row >= len(deals) {
		return models.Deal{}, false
	}
	return deals[m.row], true
}

func (m *Model) clampBoardCursor() {
	n := m.board.Summary().Bucket(m.stages[m.col]).Count
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.controller.State()

	switch msg.String() {
	case "left", "h":
		if st.Phase == pipeline.Dragging {
			m.hover(m.targetCol - 1)
		} else if st.Phase == pipeline.Idle && m.col > 0 {
			m.col--
			m.clampBoardCursor()
		}
	case "right", "l":
		if st.Phase == pipeline.Dragging {
			m.hover(m.targetCol + 1)
		} else if st.Phase == pipeline.Idle && m.col < len(m.stages)-1 {
			m.col++
			m.clampBoardCursor()
		}
	case "up", "k":
		if st.Phase == pipeline.Idle && m.row > 0 {
			m.row--
		}
	case "down", "j":
		if st.Phase == pipeline.Idle {
			m.row++
			m.clampBoardCursor()
		}
	case " ", "space":
		if st.Phase != pipeline.Idle {
			return m, nil
		}
		deal, ok := m.selectedDeal()
		if !ok {
			return m, nil
		}
		if err := m.controller.StartDrag(deal.ID); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.hover(m.col)
		m.status = fmt.Sprintf("Moving %s from %s", deal.Name, models.StageName(deal.Stage))
	case "enter":
		if st.Phase != pipeline.Dragging {
			return m, nil
		}
		deal, _ := m.board.Find(st.DealID)
		return m, tea.Batch(m.drop(deal, m.stages[m.targetCol]), refreshTick())
	case "esc":
		if st.Phase == pipeline.Dragging {
			m.controller.CancelDrag()
			m.status = "Move cancelled"
		}
	case "r":
		if st.Phase == pipeline.Idle {
			m.loading = true
			m.status = ""
			return m, m.loadBoard()
		}
	case "g":
		if st.Phase == pipeline.Idle {
			m.viewMode = ViewGraph
			m.graphDOT = ""
			return m, m.generateGraph()
		}
	}

	return m, nil
}

func (m *Model) hover(col int) {
	if col < 0 || col >= len(m.stages) {
		return
	}
	if err := m.controller.Hover(m.stages[col]); err != nil {
		return
	}
	m.targetCol = col
}

// drop resolves the gesture off the update loop; the board changes
// optimistically as soon as the controller starts the transition.
func (m Model) drop(deal models.Deal, stage string) tea.Cmd {
	return func() tea.Msg {
		outcome, err := m.controller.Drop(m.ctx, stage)
		return dropResultMsg{deal: deal, stage: stage, outcome: outcome, err: err}
	}
}

func (m Model) handleDropResult(msg dropResultMsg) (tea.Model, tea.Cmd) {
	name := msg.deal.Name
	switch msg.outcome {
	case pipeline.OutcomeMoved:
		m.err = nil
		m.status = fmt.Sprintf("✓ Deal moved: %s → %s", name, models.StageName(msg.stage))
		m.col = m.targetCol
		m.row = 0
		for i, d := range m.board.Summary().Bucket(msg.stage).Deals {
			if d.ID == msg.deal.ID {
				m.row = i
			}
		}
	case pipeline.OutcomeRolledBack:
		m.err = nil
		m.status = fmt.Sprintf("✗ Move rolled back; %s stays in %s", name, models.StageName(msg.deal.Stage))
	case pipeline.OutcomeDiscarded:
		return m, nil
	default:
		m.err = msg.err
		if msg.err == nil {
			m.status = fmt.Sprintf("%s is already in %s", name, models.StageName(msg.stage))
		}
	}
	m.clampBoardCursor()
	return m, nil
}
