// ABOUTME: Task list view grouped into overdue, today, upcoming and completed
// ABOUTME: Completes the selected task optimistically with c
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/views"
)

type taskCompletedMsg struct {
	task models.Task
	err  error
}

type taskSection struct {
	label string
	tasks []models.Task
}

func (m Model) taskSections() []taskSection {
	g := m.taskPage.Groups
	return []taskSection{
		{"Overdue", g.Overdue},
		{"Today", g.Today},
		{"Upcoming", g.Upcoming},
		{"Completed", g.Completed},
	}
}

// visibleTasks is the task list in display order, matching the table rows.
func (m Model) visibleTasks() []models.Task {
	var out []models.Task
	for _, sec := range m.taskSections() {
		out = append(out, sec.tasks...)
	}
	return out
}

func (m Model) renderTasksView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("TASKS"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	g := m.taskPage.Groups
	s.WriteString(mutedStyle.Render(fmt.Sprintf("%d overdue • %d today • %d upcoming • %d completed",
		len(g.Overdue), len(g.Today), len(g.Upcoming), len(g.Completed))))
	s.WriteString("\n\n")
	s.WriteString(m.renderTaskTable())
	s.WriteString("\n\n")

	s.WriteString(m.renderStatus())
	s.WriteString("\n")
	s.WriteString(renderHelp("↑/↓: Navigate", "c: Complete", "r: Reload", "Tab: Switch view", "q: Quit"))

	return s.String()
}

func (m Model) renderTaskTable() string {
	columns := []table.Column{
		{Title: "Group", Width: 10},
		{Title: "Task", Width: 30},
		{Title: "Due", Width: 10},
		{Title: "Priority", Width: 8},
		{Title: "Contact", Width: 20},
	}

	now := m.svc.Tasks.Now()
	var rows []table.Row
	for _, sec := range m.taskSections() {
		for _, t := range sec.tasks {
			rows = append(rows, table.Row{
				sec.label,
				t.Title,
				views.TaskDateLabel(t, now),
				t.Priority,
				m.taskPage.ContactName(t),
			})
		}
	}

	height := m.height - 12
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	// Set selected row
	if m.taskRow < len(rows) {
		t.SetCursor(m.taskRow)
	}

	return t.View()
}

func (m *Model) clampTaskCursor() {
	n := len(m.visibleTasks())
	if m.taskRow >= n {
		m.taskRow = n - 1
	}
	if m.taskRow < 0 {
		m.taskRow = 0
	}
}

func (m Model) handleTaskKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.taskRow > 0 {
			m.taskRow--
		}
	case "down", "j":
		m.taskRow++
		m.clampTaskCursor()
	case "r":
		m.status = ""
		return m, m.loadTasks()
	case "c":
		tasks := m.visibleTasks()
		if m.taskRow >= len(tasks) {
			return m, nil
		}
		task := tasks[m.taskRow]
		if task.Status == models.TaskStatusCompleted {
			m.status = fmt.Sprintf("%s is already completed", task.Title)
			return m, nil
		}
		return m, m.completeTask(task.ID)
	}
	return m, nil
}

func (m Model) completeTask(id int64) tea.Cmd {
	return func() tea.Msg {
		task, err := views.CompleteTask(m.ctx, m.tasks, m.svc.Tasks, id)
		return taskCompletedMsg{task: task, err: err}
	}
}

func (m Model) handleTaskCompleted(msg taskCompletedMsg) (tea.Model, tea.Cmd) {
	m.taskPage = views.BuildTaskPage(m.tasks.Snapshot(), m.taskPage.ContactNames, views.TaskFilter{}, m.svc.Tasks.Now())
	m.clampTaskCursor()
	if msg.err != nil {
		m.status = "✗ Task completion rolled back"
		return m, nil
	}
	m.err = nil
	m.status = "✓ Task completed: " + msg.task.Title
	return m, nil
}
