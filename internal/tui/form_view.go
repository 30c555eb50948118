package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/kondate/internal/plan"
	"github.com/kingrea/kondate/internal/selection"
	"github.com/kingrea/kondate/internal/store"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

const (
	dayColumnWidth    = 16
	periodColumnWidth = 11
)

type formView struct {
	app       *App
	selection *selection.Selection
	periods   []plan.MealPeriod
	day       int
	period    int
	notice    string
}

func newFormView(app *App) *formView {
	return &formView{
		app:       app,
		selection: selection.New(app.days),
		periods:   plan.Periods(),
	}
}

// busy reports whether a create is in flight; the grid ignores input until
// it finishes.
func (v *formView) busy() bool {
	return v.app.store.Phase() == store.PhaseCreating
}

func (v *formView) reset() {
	v.selection.Clear()
	v.notice = ""
	v.day, v.period = 0, 0
}

func (v *formView) Update(msg tea.KeyMsg) tea.Cmd {
	if v.busy() {
		return nil
	}
	keys := v.app.keys
	switch {
	case key.Matches(msg, keys.Up):
		if v.day > 0 {
			v.day--
		}
	case key.Matches(msg, keys.Down):
		if v.day < v.selection.Days()-1 {
			v.day++
		}
	case key.Matches(msg, keys.Left):
		if v.period > 0 {
			v.period--
		}
	case key.Matches(msg, keys.Right):
		if v.period < len(v.periods)-1 {
			v.period++
		}
	case key.Matches(msg, keys.Toggle):
		if _, err := v.selection.Toggle(v.day, v.periods[v.period]); err != nil {
			v.notice = err.Error()
			return nil
		}
		v.notice = ""
	case key.Matches(msg, keys.Dismiss):
		v.app.store.ClearError()
	case key.Matches(msg, keys.Submit):
		return v.submit()
	}
	return nil
}

func (v *formView) submit() tea.Cmd {
	if err := v.selection.Validate(); err != nil {
		v.notice = err.Error()
		return nil
	}
	op, err := v.app.store.BeginCreate(v.selection.PlannedMeals())
	if err != nil {
		if !errors.Is(err, store.ErrBusy) {
			v.notice = err.Error()
		}
		return nil
	}
	v.notice = ""
	return tea.Batch(v.app.createPlanCmd(op), v.app.startSpinner())
}

func (v *formView) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Pick the meals you will cook"))
	b.WriteString("\n")
	b.WriteString(detailStyle.Render("Check the meals you plan to cook, then press enter to create a plan."))
	b.WriteString("\n\n")

	busy := v.busy()
	b.WriteString(strings.Repeat(" ", dayColumnWidth))
	for _, p := range v.periods {
		b.WriteString(fmt.Sprintf("%-*s", periodColumnWidth, p.Label()))
	}
	b.WriteString("\n")
	for _, day := range selection.Days(v.app.now(), v.selection.Days()) {
		b.WriteString(fmt.Sprintf("%-*s", dayColumnWidth, day.Label))
		for i, p := range v.periods {
			box := "[ ]"
			if v.selection.IsSelected(day.Offset, p) {
				box = "[x]"
			}
			cell := fmt.Sprintf("%-*s", periodColumnWidth, box)
			switch {
			case busy:
				cell = disabledStyle.Render(cell)
			case day.Offset == v.day && i == v.period:
				cell = cursorStyle.Render(fmt.Sprintf("%-*s", periodColumnWidth, ">"+box))
			}
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	count := v.selection.Count()
	switch {
	case busy:
		b.WriteString(fmt.Sprintf("%s Creating plan for %d meal(s)...", v.app.spinner.View(), count))
	case count == 0:
		b.WriteString(disabledStyle.Render("[ Create plan ]  nothing selected"))
	default:
		b.WriteString(cursorStyle.Render("[ Create plan ]"))
		b.WriteString(fmt.Sprintf("  %d meal(s) selected", count))
	}
	if v.notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(v.notice))
	}
	if msg := v.app.store.Err(); msg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(msg))
	}
	return b.String()
}
