// internal/tui/app.go
//
// This is the terminal UI for kondate. It uses bubbletea, which follows The
// Elm Architecture:
//
// 1. Model: the App and its two screens
// 2. Update: applies messages (keys, finished API calls) to the model
// 3. View: renders the model to a string
//
// Store mutations only happen inside Update. API calls run in tea.Cmd
// functions and come back as *FinishedMsg values.

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/kondate/internal/config"
	"github.com/kingrea/kondate/internal/logbook"
	"github.com/kingrea/kondate/internal/selection"
	"github.com/kingrea/kondate/internal/store"
)

const logPanelLines = 6

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithConfig applies project settings such as the number of day columns.
func WithConfig(cfg *config.Config) AppOption {
	return func(a *App) {
		if cfg != nil {
			a.days = cfg.Days()
		}
	}
}

// WithLogbook shows the session journal under the main screen.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		if lb != nil {
			a.logbook = lb
		}
	}
}

// WithClock overrides the clock used for day labels.
func WithClock(now func() time.Time) AppOption {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// WithContext sets the parent context for API calls.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// WithInitialPath opens the app on path instead of the selection screen.
func WithInitialPath(path string) AppOption {
	return func(a *App) {
		a.initialPath = path
	}
}

type createFinishedMsg struct {
	result store.CreateResult
}

type fetchFinishedMsg struct {
	result store.FetchResult
}

type toggleFinishedMsg struct {
	result store.ToggleResult
}

// App is the root model.
type App struct {
	ctx     context.Context
	store   *store.Store
	logbook *logbook.Logbook
	now     func() time.Time
	days    int

	route       Route
	initialPath string
	form        *formView
	result      *resultView

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	statusMsg string
	width     int
	height    int
}

// NewApp creates the app around a plan store.
func NewApp(st *store.Store, opts ...AppOption) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	app := &App{
		ctx:     context.Background(),
		store:   st,
		now:     time.Now,
		days:    selection.DefaultDays,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: sp,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.form = newFormView(app)
	app.result = newResultView(app)
	return app
}

// Route returns the screen currently shown.
func (a *App) Route() Route { return a.route }

// Store returns the plan store the app renders.
func (a *App) Store() *store.Store { return a.store }

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

// Init opens the initial route.
func (a *App) Init() tea.Cmd {
	a.logInfo("Session opened")
	return a.Navigate(a.initialPath)
}

// Navigate switches screens. Leaving a result screen discards any fetch it
// started.
func (a *App) Navigate(path string) tea.Cmd {
	next := ParseRoute(path)
	if a.route.IsPlan() && (!next.IsPlan() || next.PlanID != a.route.PlanID) {
		if a.store.Phase() == store.PhaseFetching {
			a.store.Cancel()
		}
	}
	a.route = next
	a.statusMsg = ""
	if !next.IsPlan() {
		a.store.ClearError()
		return nil
	}
	a.logInfo("Opened %s", next.Path())
	return a.result.enter(next.PlanID)
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.result.resize(msg.Width, msg.Height)
		return a, nil

	case spinner.TickMsg:
		if !a.store.Loading() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case createFinishedMsg:
		return a, a.handleCreateFinished(msg)

	case fetchFinishedMsg:
		// Failures are already reflected in the store and the journal.
		_ = a.store.FinishFetch(msg.result)
		a.result.clampCursor()
		return a, nil

	case toggleFinishedMsg:
		_ = a.store.FinishToggle(msg.result)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if msg.String() == "q" {
			a.logInfo("Session closed")
			return a, tea.Quit
		}
		if a.route.IsPlan() {
			return a, a.result.Update(msg)
		}
		return a, a.form.Update(msg)
	}
	return a, nil
}

func (a *App) handleCreateFinished(msg createFinishedMsg) tea.Cmd {
	if err := a.store.FinishCreate(msg.result); err != nil {
		return nil
	}
	a.form.reset()
	id := a.store.PlanID()
	if id == "" {
		return nil
	}
	return a.Navigate(PlanRoute(id).Path())
}

func (a *App) startSpinner() tea.Cmd {
	return a.spinner.Tick
}

func (a *App) createPlanCmd(op *store.CreateOp) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		return createFinishedMsg{result: op.Run(ctx)}
	}
}

func (a *App) fetchPlanCmd(op *store.FetchOp) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		return fetchFinishedMsg{result: op.Run(ctx)}
	}
}

func (a *App) toggleCmd(t *store.Toggle) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		return toggleFinishedMsg{result: t.Run(ctx)}
	}
}

// View renders the current screen.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	var content, helpLine string
	if a.route.IsPlan() {
		content = a.result.View()
		helpLine = a.help.View(resultHelp{keys: a.keys})
	} else {
		content = a.form.View()
		helpLine = a.help.View(formHelp{keys: a.keys})
	}
	return a.renderFrame(content, helpLine, width)
}

func (a *App) renderFrame(content, helpLine string, width int) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("◆ KONDATE")
	body := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, width-4)).
		Render(content)
	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	if a.statusMsg != "" {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Render(a.statusMsg))
	}
	sections = append(sections, helpLine)
	return strings.Join(sections, "\n")
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s (%d)", fileName, total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
