package store

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kingrea/kondate/internal/api"
	"github.com/kingrea/kondate/internal/fakeapi"
	"github.com/kingrea/kondate/internal/plan"
)

func TestCreatePlanIssuesOneCallWithEverySelectedCell(t *testing.T) {
	gw := &stubGateway{create: samplePlan("plan-1")}
	s := New(gw)
	meals := []plan.PlannedMeal{
		{DateOffset: 0, MealPeriod: plan.Morning},
		{DateOffset: 2, MealPeriod: plan.Dinner},
		{DateOffset: 6, MealPeriod: plan.Lunch},
	}
	if err := s.CreatePlan(context.Background(), meals); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if gw.createCalls != 1 {
		t.Fatalf("create calls = %d, want 1", gw.createCalls)
	}
	if len(gw.lastCreate) != len(meals) {
		t.Fatalf("planned_meals length = %d, want %d", len(gw.lastCreate), len(meals))
	}
	for i := range meals {
		if gw.lastCreate[i] != meals[i] {
			t.Fatalf("planned_meals[%d] = %+v, want %+v", i, gw.lastCreate[i], meals[i])
		}
	}
	if s.PlanID() != "plan-1" || s.Phase() != PhaseReady {
		t.Fatalf("store not ready: id=%q phase=%s", s.PlanID(), s.Phase())
	}
	if len(s.Meals()) != 2 || len(s.Ingredients()) != 3 {
		t.Fatalf("snapshot not stored: %+v", s.Snapshot())
	}
	if s.Loading() || s.Err() != "" {
		t.Fatalf("unexpected loading=%v err=%q", s.Loading(), s.Err())
	}
}

func TestCreatePlanWithEmptySelectionIssuesNoCalls(t *testing.T) {
	gw := &stubGateway{}
	s := New(gw)
	if err := s.CreatePlan(context.Background(), nil); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	if gw.createCalls != 0 {
		t.Fatalf("expected zero calls, got %d", gw.createCalls)
	}
	if s.Loading() || s.Phase() != PhaseEmpty {
		t.Fatalf("empty selection must not change state")
	}
}

func TestCreatePlanFailureKeepsPriorStateAndAllowsRetry(t *testing.T) {
	gw := &stubGateway{createErr: errors.New("boom")}
	s := New(gw)
	meals := []plan.PlannedMeal{{DateOffset: 1, MealPeriod: plan.Lunch}}

	op, err := s.BeginCreate(meals)
	if err != nil {
		t.Fatalf("BeginCreate: %v", err)
	}
	if s.Phase() != PhaseCreating || !s.Loading() {
		t.Fatalf("expected creating phase, got %s", s.Phase())
	}
	if _, err := s.BeginCreate(meals); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy for a double submit, got %v", err)
	}
	if err := s.FinishCreate(op.Run(context.Background())); err == nil {
		t.Fatalf("expected failure")
	}
	if s.PlanID() != "" || s.Phase() != PhaseEmpty {
		t.Fatalf("failed create must leave the plan empty, got %q", s.PlanID())
	}
	if s.Err() != MsgCreateFailed {
		t.Fatalf("error = %q, want %q", s.Err(), MsgCreateFailed)
	}

	gw.createErr = nil
	gw.create = samplePlan("plan-2")
	if err := s.CreatePlan(context.Background(), meals); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if s.PlanID() != "plan-2" || s.Err() != "" {
		t.Fatalf("retry did not recover: id=%q err=%q", s.PlanID(), s.Err())
	}
}

func TestFetchPlanDataSetsIDOnlyWhenBothListsArrive(t *testing.T) {
	gw := &stubGateway{
		meals:       samplePlan("p").Meals,
		ingredients: samplePlan("p").Ingredients,
		menuErr:     errors.New("menu unavailable"),
	}
	s := New(gw)
	if err := s.FetchPlanData(context.Background(), "plan-9"); err == nil {
		t.Fatalf("expected error")
	}
	if s.PlanID() != "" {
		t.Fatalf("plan id must stay unset on partial failure, got %q", s.PlanID())
	}
	if s.Err() != MsgFetchFailed {
		t.Fatalf("error = %q, want %q", s.Err(), MsgFetchFailed)
	}
	if len(s.Ingredients()) != 0 {
		t.Fatalf("partial data leaked into the store")
	}

	gw.menuErr = nil
	if err := s.FetchPlanData(context.Background(), "plan-9"); err != nil {
		t.Fatalf("FetchPlanData: %v", err)
	}
	if s.PlanID() != "plan-9" || len(s.Meals()) != 2 || len(s.Ingredients()) != 3 {
		t.Fatalf("fetch did not store snapshot: %+v", s.Snapshot())
	}
	// Idempotent re-hydration of the same id.
	if err := s.FetchPlanData(context.Background(), "plan-9"); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if s.PlanID() != "plan-9" {
		t.Fatalf("refetch changed id to %q", s.PlanID())
	}
}

func TestFetchPlanDataNotFound(t *testing.T) {
	gw := &stubGateway{ingredientErr: &api.StatusError{Op: "ingredient list", StatusCode: http.StatusNotFound}}
	s := New(gw)
	err := s.FetchPlanData(context.Background(), "missing")
	if !api.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !s.NotFound() || s.PlanID() != "" {
		t.Fatalf("expected not-found state, got notFound=%v id=%q", s.NotFound(), s.PlanID())
	}
	if s.Err() != "" {
		t.Fatalf("not found is not a generic error, got %q", s.Err())
	}
}

func TestStaleResultsAreDiscarded(t *testing.T) {
	gw := &stubGateway{meals: samplePlan("p").Meals, ingredients: samplePlan("p").Ingredients}
	s := New(gw)
	first, err := s.BeginFetch("plan-a")
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.BeginFetch("plan-b")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.FinishFetch(first.Run(context.Background())); !errors.Is(err, ErrStale) {
		t.Fatalf("expected stale first fetch, got %v", err)
	}
	if !s.Loading() {
		t.Fatalf("stale result must not end the newer fetch")
	}
	if err := s.FinishFetch(second.Run(context.Background())); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if s.PlanID() != "plan-b" {
		t.Fatalf("plan id = %q, want plan-b", s.PlanID())
	}

	op, err := s.BeginFetch("plan-c")
	if err != nil {
		t.Fatal(err)
	}
	s.Cancel()
	if s.Loading() {
		t.Fatalf("cancel must clear loading")
	}
	if err := s.FinishFetch(op.Run(context.Background())); !errors.Is(err, ErrStale) {
		t.Fatalf("expected cancelled fetch to be stale, got %v", err)
	}
	if s.PlanID() != "plan-b" {
		t.Fatalf("cancelled fetch mutated state: %q", s.PlanID())
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := New(&stubGateway{create: samplePlan("plan-1")})
	if err := s.CreatePlan(context.Background(), []plan.PlannedMeal{{DateOffset: 0, MealPeriod: plan.Lunch}}); err != nil {
		t.Fatal(err)
	}
	items := s.Ingredients()
	items[0].Bought = true
	meals := s.Meals()
	meals[0].Ingredients[0].Name = "changed"
	if got, _ := s.Ingredient(items[0].ID); got.Bought {
		t.Fatalf("ingredient slice shared with caller")
	}
	if s.Meals()[0].Ingredients[0].Name == "changed" {
		t.Fatalf("meal slice shared with caller")
	}
}

func TestStoreAgainstFakeServer(t *testing.T) {
	fake := fakeapi.NewServer(fakeapi.DefaultSettings())
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	s := New(api.New(srv.URL))
	ctx := context.Background()

	if err := s.CreatePlan(ctx, []plan.PlannedMeal{{DateOffset: 0, MealPeriod: plan.Morning}, {DateOffset: 2, MealPeriod: plan.Dinner}}); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	id := s.PlanID()

	other := New(api.New(srv.URL))
	fake.Fail(fakeapi.RouteMenuList, http.StatusInternalServerError, 1)
	if err := other.FetchPlanData(ctx, id); err == nil {
		t.Fatalf("expected menu failure")
	}
	if other.PlanID() != "" || other.Err() != MsgFetchFailed {
		t.Fatalf("partial failure state: id=%q err=%q", other.PlanID(), other.Err())
	}
	if err := other.FetchPlanData(ctx, id); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if len(other.Ingredients()) != len(s.Ingredients()) {
		t.Fatalf("rehydrated list differs from created list")
	}

	first := s.Ingredients()[0]
	if err := s.ToggleIngredientBought(ctx, first.ID, first.Bought); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if remote, _ := fake.Ingredient(first.ID); remote.Bought != !first.Bought {
		t.Fatalf("server did not receive the update")
	}
}

type stubGateway struct {
	create      plan.CreatePlanResponse
	createErr   error
	createCalls int
	lastCreate  []plan.PlannedMeal

	meals         []plan.Meal
	ingredients   []plan.Ingredient
	menuErr       error
	ingredientErr error

	updateErr   error
	updateCalls []updateCall
}

type updateCall struct {
	id     string
	bought bool
}

func (g *stubGateway) CreatePlan(_ context.Context, meals []plan.PlannedMeal) (plan.CreatePlanResponse, error) {
	g.createCalls++
	g.lastCreate = append([]plan.PlannedMeal(nil), meals...)
	if g.createErr != nil {
		return plan.CreatePlanResponse{}, g.createErr
	}
	return g.create, nil
}

func (g *stubGateway) MenuList(context.Context, string) ([]plan.Meal, error) {
	if g.menuErr != nil {
		return nil, g.menuErr
	}
	return plan.CloneMeals(g.meals), nil
}

func (g *stubGateway) IngredientList(context.Context, string) ([]plan.Ingredient, error) {
	if g.ingredientErr != nil {
		return nil, g.ingredientErr
	}
	return plan.CloneIngredients(g.ingredients), nil
}

func (g *stubGateway) UpdateIngredient(_ context.Context, id string, bought bool) (plan.Ingredient, error) {
	g.updateCalls = append(g.updateCalls, updateCall{id: id, bought: bought})
	if g.updateErr != nil {
		return plan.Ingredient{}, g.updateErr
	}
	return plan.Ingredient{ID: id, Bought: bought}, nil
}

func samplePlan(id string) plan.CreatePlanResponse {
	veg := "vegetable"
	return plan.CreatePlanResponse{
		ShoppingPlanID: id,
		Meals: []plan.Meal{
			{Date: "2024-06-13", MealPeriod: plan.Morning, MenuName: "Miso soup", Ingredients: []plan.MenuIngredient{{Name: "Tofu", Amount: 1, Unit: "block"}}},
			{Date: "2024-06-15", MealPeriod: plan.Dinner, MenuName: "Nikujaga", Ingredients: []plan.MenuIngredient{{Name: "Potato", Amount: 3, Unit: "pc"}}},
		},
		Ingredients: []plan.Ingredient{
			{ID: "abc", Name: "Tofu", Amount: 1, Unit: "block"},
			{ID: "def", Name: "Potato", Type: &veg, Amount: 3, Unit: "pc"},
			{ID: "ghi", Name: "Leek", Type: &veg, Amount: 1, Unit: "pc", Bought: true},
		},
	}
}
