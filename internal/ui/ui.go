// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a three-view workflow for batch migrations:
//  1. [ConfirmView] : Review the planned run before anything touches the destination
//  2. [RunView] : Monitor real-time batch progress updates
//  3. [ResultView] : Display the final migration summary and failed records
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the Engine, providing non-blocking
// status reporting during long runs.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sportsdesk/cmx/internal/models"
	"github.com/sportsdesk/cmx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ConfirmView ViewState = iota
	RunView
	ResultView
)

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	yes  key.Binding
	no   key.Binding
	quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		yes:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "start")),
		no:   key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
		quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.yes, k.no, k.quit},
	}
}

type progressUpdateMsg tasks.ProgressUpdate

type runCompleteMsg struct {
	summary *models.MigrationSummary
	err     error
}

// Model represents the TUI application state for one migration run.
type Model struct {
	ctx    context.Context
	view   ViewState
	engine *tasks.Engine
	opts   tasks.Options

	width  int
	height int

	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	summary      *models.MigrationSummary
	err          error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model for the given run options.
func NewModel(ctx context.Context, engine *tasks.Engine, opts tasks.Options) *Model {
	return &Model{
		ctx:    ctx,
		view:   ConfirmView,
		engine: engine,
		opts:   opts,
		bar:    progress.New(progress.WithDefaultGradient()),
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init implements tea.Model. The confirm view needs no startup command.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		default:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		}
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ConfirmView:
		return m.renderConfirm()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		return m, tea.Quit
	case "y":
		m.view = RunView
		return m, m.startRun()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	ch := m.progressChan

	go func() {
		summary, err := m.engine.Run(m.ctx, m.opts, ch)
		m.summary = summary
		m.err = err
		close(ch)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	ch := m.progressChan
	return func() tea.Msg {
		if ch == nil {
			return runCompleteMsg{summary: m.summary, err: m.err}
		}

		update, ok := <-ch
		if !ok {
			return runCompleteMsg{summary: m.summary, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Migrate %s?", m.opts.Kind))
	info := fmt.Sprintf(
		"\nQuery variant: %s\nBatch size: %d\nStart offset: %d\n",
		m.opts.Variant, m.opts.BatchSize, m.opts.StartOffset,
	)
	if m.opts.MaxBatches > 0 {
		info += fmt.Sprintf("Max batches: %d\n", m.opts.MaxBatches)
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderRun() string {
	title := styles.title.Render(fmt.Sprintf("Migrating %s", m.opts.Kind))

	var phase string
	switch m.progress.Phase {
	case tasks.Initializing:
		phase = "Loading reference snapshot..."
	case tasks.CountingTotal:
		phase = "Counting source records..."
	case tasks.ProcessingBatches:
		phase = fmt.Sprintf("Processing batches (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Reporting:
		phase = "Summarizing..."
	default:
		phase = "Working..."
	}

	bar := ""
	if m.progress.Phase == tasks.ProcessingBatches && m.progress.Total > 0 {
		bar = "\n" + m.bar.ViewAs(float64(m.progress.Step)/float64(m.progress.Total))
	}

	return fmt.Sprintf("%s\n\n%s%s\n%s", title, phase, bar, styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Migration failed: %v\n\nPress q to quit", m.err))
	}
	if m.summary == nil {
		return styles.err.Render("No summary available\n\nPress q to quit")
	}

	title := styles.ok.Render(fmt.Sprintf("✓ %s migration complete", m.summary.Kind))
	info := fmt.Sprintf(
		"\nMigrated: %d\nAlready present: %d\nSkipped: %d\nFailed: %d\nProcessed: %d/%d\nDuration: %s",
		m.summary.Success,
		m.summary.Existing,
		m.summary.Skipped,
		m.summary.Errors,
		m.summary.Processed(),
		m.summary.TotalAvailable,
		m.summary.Duration.Round(time.Millisecond),
	)

	var failed string
	if len(m.summary.Failed) > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d records failed:", len(m.summary.Failed))))
		for _, detail := range m.summary.Failed {
			failed += fmt.Sprintf("\n  • %s [%s]: %s", detail.SourceID, detail.Stage, detail.Reason)
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
