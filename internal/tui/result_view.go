package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/kondate/internal/plan"
	"github.com/kingrea/kondate/internal/result"
	"github.com/kingrea/kondate/internal/store"
)

const (
	notFoundMessage = "Plan not found. Create one from the selection screen."
	backHint        = "esc: back to selection"
)

var (
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	groupStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50"))
	boughtStyle  = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("#777777"))
)

type resultView struct {
	app      *App
	planID   string
	cursor   int
	viewport viewport.Model
}

func newResultView(app *App) *resultView {
	return &resultView{app: app, viewport: viewport.New(96, 20)}
}

func (v *resultView) resize(width, height int) {
	v.viewport.Width = max(20, width-8)
	v.viewport.Height = max(5, height-16)
}

// enter runs when the screen opens for planID. It fetches only when the
// store holds a different plan.
func (v *resultView) enter(planID string) tea.Cmd {
	v.planID = planID
	v.cursor = 0
	v.viewport.GotoTop()
	if planID == v.app.store.PlanID() && !v.app.store.Loading() {
		return nil
	}
	return v.fetch()
}

func (v *resultView) fetch() tea.Cmd {
	op, err := v.app.store.BeginFetch(v.planID)
	if err != nil {
		v.app.logWarn("Cannot load plan: %v", err)
		return nil
	}
	return tea.Batch(v.app.fetchPlanCmd(op), v.app.startSpinner())
}

// ready reports whether the store holds the plan this screen shows.
func (v *resultView) ready() bool {
	return !v.app.store.Loading() && v.app.store.PlanID() == v.planID
}

// items returns the shopping list in display order.
func (v *resultView) items() []plan.Ingredient {
	var out []plan.Ingredient
	for _, group := range result.GroupIngredientsByType(v.app.store.Ingredients()) {
		out = append(out, group.Items...)
	}
	return out
}

func (v *resultView) clampCursor() {
	n := len(v.items())
	if v.cursor >= n {
		v.cursor = n - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

func (v *resultView) Update(msg tea.KeyMsg) tea.Cmd {
	keys := v.app.keys
	st := v.app.store
	switch {
	case key.Matches(msg, keys.Back):
		return v.app.Navigate("/")
	case key.Matches(msg, keys.Refresh):
		if st.Loading() {
			return nil
		}
		return v.fetch()
	case key.Matches(msg, keys.Dismiss):
		st.ClearError()
		return nil
	}
	if !v.ready() {
		return nil
	}
	switch {
	case key.Matches(msg, keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}
	case key.Matches(msg, keys.Down):
		if v.cursor < len(v.items())-1 {
			v.cursor++
		}
	case key.Matches(msg, keys.Toggle):
		return v.toggleSelected()
	}
	return nil
}

func (v *resultView) toggleSelected() tea.Cmd {
	items := v.items()
	if v.cursor < 0 || v.cursor >= len(items) {
		return nil
	}
	item := items[v.cursor]
	t, err := v.app.store.BeginToggle(item.ID, item.Bought)
	if errors.Is(err, store.ErrToggleInFlight) {
		v.app.statusMsg = fmt.Sprintf("%s is still being updated", item.Name)
		return nil
	}
	if err != nil {
		v.app.logWarn("Toggle refused: %v", err)
		return nil
	}
	v.app.statusMsg = ""
	return v.app.toggleCmd(t)
}

func (v *resultView) View() string {
	st := v.app.store
	switch {
	case st.Loading():
		return fmt.Sprintf("%s Loading plan %s...", v.app.spinner.View(), v.planID)
	case st.Err() != "" && st.PlanID() != v.planID:
		return lipgloss.JoinVertical(lipgloss.Left,
			errorStyle.Render(st.Err()),
			detailStyle.Render(backHint),
		)
	case st.PlanID() != v.planID:
		return lipgloss.JoinVertical(lipgloss.Left,
			noticeStyle.Render(notFoundMessage),
			detailStyle.Render(backHint),
		)
	}
	content, cursorLine := v.renderPlan()
	v.viewport.SetContent(content)
	v.follow(cursorLine)
	view := v.viewport.View()
	if msg := st.Err(); msg != "" {
		view = lipgloss.JoinVertical(lipgloss.Left,
			errorStyle.Render(msg+"  (x to dismiss)"),
			view,
		)
	}
	return view
}

// follow scrolls the viewport so the cursor line stays visible.
func (v *resultView) follow(line int) {
	if line < 0 || v.viewport.Height <= 0 {
		return
	}
	if line < v.viewport.YOffset {
		v.viewport.SetYOffset(line)
	} else if line >= v.viewport.YOffset+v.viewport.Height {
		v.viewport.SetYOffset(line - v.viewport.Height + 1)
	}
}

func (v *resultView) renderPlan() (string, int) {
	st := v.app.store
	var lines []string
	lines = append(lines, sectionStyle.Render("Your menu"))
	for _, group := range result.GroupMealsByDate(st.Meals()) {
		lines = append(lines, groupStyle.Render(group.Label()))
		for _, meal := range group.Meals {
			lines = append(lines, fmt.Sprintf("  %s · %s", meal.MealPeriod.Label(), meal.MenuName))
			for _, ing := range meal.Ingredients {
				lines = append(lines, detailStyle.Render("    - "+result.IngredientLine(ing.Name, ing.Amount, ing.Unit)))
			}
		}
	}
	lines = append(lines, "")

	ingredients := st.Ingredients()
	lines = append(lines, sectionStyle.Render("Shopping list · "+result.Summary(ingredients)))
	cursorLine := -1
	idx := 0
	for _, group := range result.GroupIngredientsByType(ingredients) {
		lines = append(lines, groupStyle.Render(group.Type))
		for _, item := range group.Items {
			box := "[ ]"
			if item.Bought {
				box = "[x]"
			}
			label := result.IngredientLine(item.Name, item.Amount, item.Unit)
			if item.Bought {
				label = boughtStyle.Render(label)
			}
			marker := "  "
			if idx == v.cursor {
				marker = cursorStyle.Render("> ")
				cursorLine = len(lines)
			}
			line := marker + box + " " + label
			if st.InFlight(item.ID) {
				line += detailStyle.Render(" ·")
			}
			lines = append(lines, line)
			idx++
		}
	}
	if len(ingredients) == 0 {
		lines = append(lines, detailStyle.Render("Nothing to buy."))
	}
	return strings.Join(lines, "\n"), cursorLine
}
