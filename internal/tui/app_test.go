package tui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/kondate/internal/api"
	"github.com/kingrea/kondate/internal/fakeapi"
	"github.com/kingrea/kondate/internal/plan"
	"github.com/kingrea/kondate/internal/selection"
	"github.com/kingrea/kondate/internal/store"
)

func TestSubmitWithoutSelectionIssuesNoCall(t *testing.T) {
	fake, app := newTestApp(t)
	_, cmd := app.Update(keyMsg("enter"))
	if cmd != nil {
		t.Fatalf("empty submit must not return a command")
	}
	if app.form.notice != selection.EmptyMessage {
		t.Fatalf("notice = %q", app.form.notice)
	}
	if fake.Calls(fakeapi.RouteCreatePlan) != 0 {
		t.Fatalf("expected no create calls")
	}
	if !strings.Contains(app.View(), selection.EmptyMessage) {
		t.Fatalf("view should show the validation message")
	}
}

func TestCreatePlanNavigatesToResult(t *testing.T) {
	fake, app := newTestApp(t)
	// (0, MORNING) then (2, DINNER).
	app = press(t, app, " ", "down", "down", "right", "right", " ")
	model, cmd := app.Update(keyMsg("enter"))
	if !app.store.Loading() {
		t.Fatalf("store should be creating after submit")
	}
	app = runCommands(t, model, cmd)

	if !app.Route().IsPlan() || app.Route().PlanID != app.store.PlanID() {
		t.Fatalf("expected result route for %q, got %q", app.store.PlanID(), app.Route().Path())
	}
	reqs := fake.CreateRequests()
	if len(reqs) != 1 {
		t.Fatalf("expected one create request, got %d", len(reqs))
	}
	want := []plan.PlannedMeal{{DateOffset: 0, MealPeriod: plan.Morning}, {DateOffset: 2, MealPeriod: plan.Dinner}}
	got := reqs[0].PlannedMeals
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("planned_meals = %+v, want %+v", got, want)
	}
	if fake.Calls(fakeapi.RouteMenuList) != 0 || fake.Calls(fakeapi.RouteIngredientList) != 0 {
		t.Fatalf("a freshly created plan must not be fetched again")
	}
	if !app.form.selection.Empty() {
		t.Fatalf("selection should be discarded after submission")
	}
	view := app.View()
	if !strings.Contains(view, "Your menu") || !strings.Contains(view, "Shopping list") {
		t.Fatalf("result view missing sections:\n%s", view)
	}
}

func TestFormIgnoresInputWhileCreating(t *testing.T) {
	_, app := newTestApp(t)
	app = press(t, app, " ")
	model, cmd := app.Update(keyMsg("enter"))
	app = press(t, app, "down", " ")
	if app.form.selection.Count() != 1 || app.form.day != 0 {
		t.Fatalf("grid changed while creating")
	}
	if _, again := app.Update(keyMsg("enter")); again != nil {
		t.Fatalf("double submit must not start another create")
	}
	runCommands(t, model, cmd)
}

func TestCreateFailureStaysOnForm(t *testing.T) {
	fake, app := newTestApp(t)
	fake.Fail(fakeapi.RouteCreatePlan, http.StatusInternalServerError, 1)
	app = press(t, app, " ")
	model, cmd := app.Update(keyMsg("enter"))
	app = runCommands(t, model, cmd)
	if app.Route().IsPlan() {
		t.Fatalf("failed create must not navigate")
	}
	if app.store.Err() != store.MsgCreateFailed {
		t.Fatalf("error = %q", app.store.Err())
	}
	if app.form.selection.Count() != 1 {
		t.Fatalf("selection should survive a failed create")
	}
	if !strings.Contains(app.View(), store.MsgCreateFailed) {
		t.Fatalf("view should show the create error")
	}

	model, cmd = app.Update(keyMsg("enter"))
	app = runCommands(t, model, cmd)
	if !app.Route().IsPlan() {
		t.Fatalf("retry should navigate to the plan")
	}
}

func TestDirectNavigationFetchesPlan(t *testing.T) {
	fake, app := newTestApp(t)
	id := fake.Seed(sampleMeals(), sampleIngredients())
	app = runCommands(t, app, app.Navigate("/plan/"+id))
	if app.store.PlanID() != id {
		t.Fatalf("store plan id = %q, want %q", app.store.PlanID(), id)
	}
	if fake.Calls(fakeapi.RouteMenuList) != 1 || fake.Calls(fakeapi.RouteIngredientList) != 1 {
		t.Fatalf("expected one fetch of each list")
	}
	view := app.View()
	for _, want := range []string{"Thu, Jun 13", "Miso soup", "vegetable", "other", "1/3 bought"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}

	// Re-entering the same plan does not fetch again.
	app.Navigate("/")
	if cmd := app.Navigate("/plan/" + id); cmd != nil {
		t.Fatalf("entry guard should skip fetching a held plan")
	}
}

func TestInitialPathOpensPlan(t *testing.T) {
	fake, _ := newTestApp(t)
	id := fake.Seed(sampleMeals(), sampleIngredients())
	app := newAppFor(t, fake, WithInitialPath("/plan/"+id))
	app = runCommands(t, app, app.Init())
	if !app.Route().IsPlan() || app.store.PlanID() != id {
		t.Fatalf("initial path not honoured: route=%q id=%q", app.Route().Path(), app.store.PlanID())
	}
}

func TestUnknownPlanShowsNotFound(t *testing.T) {
	_, app := newTestApp(t)
	app = runCommands(t, app, app.Navigate("/plan/missing"))
	if !app.store.NotFound() {
		t.Fatalf("expected not-found state")
	}
	view := app.View()
	if !strings.Contains(view, notFoundMessage) || !strings.Contains(view, backHint) {
		t.Fatalf("view should show not found:\n%s", view)
	}
}

func TestPartialFetchFailureShowsError(t *testing.T) {
	fake, app := newTestApp(t)
	id := fake.Seed(sampleMeals(), sampleIngredients())
	fake.Fail(fakeapi.RouteMenuList, http.StatusInternalServerError, 1)
	app = runCommands(t, app, app.Navigate("/plan/"+id))
	if app.store.PlanID() != "" {
		t.Fatalf("plan id must stay unset, got %q", app.store.PlanID())
	}
	view := app.View()
	if !strings.Contains(view, store.MsgFetchFailed) || strings.Contains(view, "Shopping list") {
		t.Fatalf("view should show the error and no partial data:\n%s", view)
	}

	model, cmd := app.Update(keyMsg("r"))
	app = runCommands(t, model, cmd)
	if app.store.PlanID() != id {
		t.Fatalf("reload should recover the plan")
	}

	model, cmd = app.Update(keyMsg("esc"))
	app = runCommands(t, model, cmd)
	if app.Route().IsPlan() || app.store.Err() != "" {
		t.Fatalf("esc should return to the form with no error")
	}
}

func TestLeavingResultDiscardsPendingFetch(t *testing.T) {
	fake, app := newTestApp(t)
	id := fake.Seed(sampleMeals(), sampleIngredients())
	fetch := app.Navigate("/plan/" + id)
	model, cmd := app.Update(keyMsg("esc"))
	app = runCommands(t, model, cmd)
	app = runCommands(t, app, fetch)
	if app.store.PlanID() != "" || app.store.Loading() {
		t.Fatalf("late fetch result must be discarded, got id=%q", app.store.PlanID())
	}
}

func TestToggleIsOptimisticAndRollsBack(t *testing.T) {
	fake, app := newTestApp(t)
	id := fake.Seed(sampleMeals(), sampleIngredients())
	app = runCommands(t, app, app.Navigate("/plan/"+id))

	// Display order groups vegetables first: the cursor starts on "abc".
	first := app.result.items()[0]
	if first.ID != "abc" || first.Bought {
		t.Fatalf("unexpected first item %+v", first)
	}
	model, cmd := app.Update(keyMsg(" "))
	if item, _ := app.store.Ingredient("abc"); !item.Bought {
		t.Fatalf("toggle should apply before the remote call")
	}
	app = runCommands(t, model, cmd)
	if remote, _ := fake.Ingredient("abc"); !remote.Bought {
		t.Fatalf("server should have received the update")
	}

	fake.Fail(fakeapi.RouteUpdateIngredient, http.StatusInternalServerError, 1)
	app = press(t, app, "down")
	second := app.result.items()[1]
	model, cmd = app.Update(keyMsg(" "))
	app = runCommands(t, model, cmd)
	if item, _ := app.store.Ingredient(second.ID); item.Bought != second.Bought {
		t.Fatalf("failed toggle should roll back %s", second.ID)
	}
	if item, _ := app.store.Ingredient("abc"); !item.Bought {
		t.Fatalf("rollback must not touch other items")
	}
	if !strings.Contains(app.View(), store.MsgUpdateFailed) {
		t.Fatalf("view should show the update error")
	}
	app = press(t, app, "x")
	if app.store.Err() != "" {
		t.Fatalf("x should dismiss the error")
	}
}

func TestToggleSameItemWhileInFlight(t *testing.T) {
	fake, app := newTestApp(t)
	id := fake.Seed(sampleMeals(), sampleIngredients())
	app = runCommands(t, app, app.Navigate("/plan/"+id))
	model, cmd := app.Update(keyMsg(" "))
	if _, again := app.Update(keyMsg(" ")); again != nil {
		t.Fatalf("second toggle of an in-flight item must be refused")
	}
	if !strings.Contains(app.statusMsg, "still being updated") {
		t.Fatalf("status = %q", app.statusMsg)
	}
	runCommands(t, model, cmd)
}

func TestParseRoute(t *testing.T) {
	cases := []struct {
		path   string
		isPlan bool
		id     string
	}{
		{"", false, ""},
		{"/", false, ""},
		{"/plan/abc", true, "abc"},
		{"/plan/abc/", true, "abc"},
		{"/plan/", false, ""},
		{"/plan/a/b", false, ""},
		{"/plan/a%2Fb", true, "a/b"},
		{"/elsewhere", false, ""},
	}
	for _, tc := range cases {
		r := ParseRoute(tc.path)
		if r.IsPlan() != tc.isPlan || r.PlanID != tc.id {
			t.Fatalf("ParseRoute(%q) = %+v", tc.path, r)
		}
	}
	if got := PlanRoute("a/b").Path(); got != "/plan/a%2Fb" {
		t.Fatalf("Path = %q", got)
	}
}

func newTestApp(t *testing.T) (*fakeapi.Server, *App) {
	t.Helper()
	fake := fakeapi.NewServer(fakeapi.DefaultSettings())
	return fake, newAppFor(t, fake)
}

func newAppFor(t *testing.T, fake *fakeapi.Server, opts ...AppOption) *App {
	t.Helper()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	st := store.New(api.New(srv.URL, api.WithTimeout(2*time.Second)))
	clock := func() time.Time { return time.Date(2024, 6, 13, 9, 0, 0, 0, time.UTC) }
	opts = append([]AppOption{WithClock(clock)}, opts...)
	app := NewApp(st, opts...)
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 60})
	return app
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends keys whose commands are not needed by the test.
func press(t *testing.T, app *App, keys ...string) *App {
	t.Helper()
	for _, k := range keys {
		model, _ := app.Update(keyMsg(k))
		var ok bool
		app, ok = model.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", model)
		}
	}
	return app
}

func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		switch m := msg.(type) {
		case nil, spinner.TickMsg:
			continue
		case tea.BatchMsg:
			queue = append(queue, m...)
			continue
		}
		nextModel, nextCmd := app.Update(msg)
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		queue = append(queue, nextCmd)
	}
	return app
}

func sampleMeals() []plan.Meal {
	return []plan.Meal{
		{Date: "2024-06-13", MealPeriod: plan.Morning, MenuName: "Miso soup", Ingredients: []plan.MenuIngredient{{Name: "Tofu", Amount: 1, Unit: "block"}}},
		{Date: "2024-06-14", MealPeriod: plan.Dinner, MenuName: "Nikujaga", Ingredients: []plan.MenuIngredient{{Name: "Potato", Amount: 3, Unit: "pc"}}},
	}
}

func sampleIngredients() []plan.Ingredient {
	veg := "vegetable"
	return []plan.Ingredient{
		{ID: "abc", Name: "Potato", Type: &veg, Amount: 3, Unit: "pc"},
		{ID: "def", Name: "Tofu", Amount: 1, Unit: "block"},
		{ID: "ghi", Name: "Leek", Type: &veg, Amount: 1, Unit: "pc", Bought: true},
	}
}
