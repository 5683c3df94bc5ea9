// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Kanban pipeline board with drag and drop, plus task and activity tabs
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/notify"
	"github.com/harperreed/dealflow/pipeline"
	"github.com/harperreed/dealflow/state"
	"github.com/harperreed/dealflow/views"
	"github.com/sirupsen/logrus"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewBoard ViewMode = iota
	ViewTasks
	ViewActivities
	ViewGraph
)

var tabNames = []string{"Pipeline", "Tasks", "Activities"}

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	svc      views.Services
	log      *logrus.Entry
	recorder *notify.Recorder
	viewMode ViewMode

	// Board state
	board      *pipeline.Board
	controller *pipeline.Controller
	stages     []string
	col        int
	row        int
	targetCol  int

	// Task state
	tasks    *state.Collection[models.Task]
	taskPage views.TaskPage
	taskRow  int

	// Activity state
	activityPage views.ActivityPage

	// Graph view state
	graphDOT string

	// UI state
	status  string
	loading bool
	width   int
	height  int
	err     error
}

// NewModel creates a new TUI model. recorder should also be one of the
// sinks behind svc so the status line sees service notifications.
func NewModel(ctx context.Context, svc views.Services, recorder *notify.Recorder, log *logrus.Entry) Model {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if recorder == nil {
		recorder = &notify.Recorder{}
	}
	board := pipeline.NewBoard(nil)
	return Model{
		ctx:        ctx,
		svc:        svc,
		log:        log.WithField("component", "tui"),
		recorder:   recorder,
		viewMode:   ViewBoard,
		board:      board,
		controller: pipeline.NewController(board, svc.Deals, log),
		stages:     models.OrderedStages(),
		tasks:      state.NewCollection[models.Task](nil),
		loading:    true,
		width:      80,
		height:     24,
	}
}

// Run starts the full-screen program and detaches the board on exit so a
// drop still resolving cannot touch it afterwards.
func Run(ctx context.Context, svc views.Services, recorder *notify.Recorder, log *logrus.Entry) error {
	m := NewModel(ctx, svc, recorder, log)
	defer m.board.Detach()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

type boardLoadedMsg struct {
	deals []models.Deal
	err   error
}

type tasksLoadedMsg struct {
	page views.TaskPage
	err  error
}

type activitiesLoadedMsg struct {
	page views.ActivityPage
	err  error
}

type graphLoadedMsg struct {
	dot string
	err error
}

// refreshMsg redraws while an optimistic change is resolving.
type refreshMsg struct{}

func (m Model) loadBoard() tea.Cmd {
	return func() tea.Msg {
		deals, err := m.svc.Deals.Fetch(m.ctx)
		return boardLoadedMsg{deals: deals, err: err}
	}
}

func (m Model) loadTasks() tea.Cmd {
	return func() tea.Msg {
		page, err := m.svc.TaskPageInto(m.ctx, m.tasks, views.TaskFilter{})
		return tasksLoadedMsg{page: page, err: err}
	}
}

func (m Model) loadActivities() tea.Cmd {
	return func() tea.Msg {
		page, err := m.svc.ActivityPage(m.ctx, views.ActivityFilter{}, m.svc.Activities.Now())
		return activitiesLoadedMsg{page: page, err: err}
	}
}

func refreshTick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m Model) Init() tea.Cmd {
	return m.loadBoard()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case boardLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.board.Reload(msg.deals)
			m.clampBoardCursor()
		}
		return m, nil
	case tasksLoadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.taskPage = msg.page
			m.clampTaskCursor()
		}
		return m, nil
	case activitiesLoadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.activityPage = msg.page
		}
		return m, nil
	case graphLoadedMsg:
		m.err = msg.err
		m.graphDOT = msg.dot
		return m, nil
	case dropResultMsg:
		return m.handleDropResult(msg)
	case taskCompletedMsg:
		return m.handleTaskCompleted(msg)
	case refreshMsg:
		if m.controller.State().Phase == pipeline.Dropping {
			return m, refreshTick()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewBoard:
		return m.renderBoardView()
	case ViewTasks:
		return m.renderTasksView()
	case ViewActivities:
		return m.renderActivitiesView()
	case ViewGraph:
		return m.renderGraphView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.controller.CancelDrag()
		return m, tea.Quit
	case "tab":
		if m.viewMode != ViewGraph && m.controller.State().Phase == pipeline.Idle {
			return m.switchTab((int(m.viewMode) + 1) % len(tabNames))
		}
	case "1", "2", "3":
		if m.viewMode != ViewGraph && m.controller.State().Phase == pipeline.Idle {
			return m.switchTab(int(msg.String()[0] - '1'))
		}
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewBoard:
		return m.handleBoardKeys(msg)
	case ViewTasks:
		return m.handleTaskKeys(msg)
	case ViewActivities:
		return m.handleActivityKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	}

	return m, nil
}

func (m Model) switchTab(i int) (tea.Model, tea.Cmd) {
	m.viewMode = ViewMode(i)
	m.status = ""
	switch m.viewMode {
	case ViewTasks:
		return m, m.loadTasks()
	case ViewActivities:
		return m, m.loadActivities()
	}
	return m, nil
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, tab := range tabNames {
		if ViewMode(i) == m.viewMode {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// renderStatus shows the local status, or else the latest notification.
func (m Model) renderStatus() string {
	if m.err != nil {
		return errorStyle.Render("✗ " + m.err.Error())
	}
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	if e, ok := m.recorder.Last(); ok {
		if e.IsError() {
			return errorStyle.Render(fmt.Sprintf("✗ %s: %s", e.Op, e.Message))
		}
		return successStyle.Render("✓ " + e.Message)
	}
	return ""
}

func renderHelp(help ...string) string {
	return helpStyle.Render(strings.Join(help, " • "))
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)
