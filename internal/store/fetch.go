package store

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kingrea/kondate/internal/api"
	"github.com/kingrea/kondate/internal/plan"
)

// FetchOp rehydrates a plan the store does not hold, for example when the
// result screen is opened directly with a plan id.
type FetchOp struct {
	gen     uint64
	planID  string
	gateway Gateway
}

// FetchResult carries both lists back to the store.
type FetchResult struct {
	gen         uint64
	PlanID      string
	Meals       []plan.Meal
	Ingredients []plan.Ingredient
	Err         error
}

// PlanID returns the id being fetched.
func (op *FetchOp) PlanID() string { return op.planID }

// BeginFetch marks the store as fetching planID.
func (s *Store) BeginFetch(planID string) (*FetchOp, error) {
	planID = cleanID(planID)
	if planID == "" {
		return nil, fmt.Errorf("store: plan id is required")
	}
	gen := s.begin(opFetch)
	s.journal.Info("Loading plan %s", planID)
	return &FetchOp{gen: gen, planID: planID, gateway: s.gateway}, nil
}

// Run fetches the menu and the shopping list concurrently. The first failure
// cancels the other request.
func (op *FetchOp) Run(ctx context.Context) FetchResult {
	res := FetchResult{gen: op.gen, PlanID: op.planID}
	if op.gateway == nil {
		res.Err = fmt.Errorf("store: no gateway configured")
		return res
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var (
		meals       []plan.Meal
		ingredients []plan.Ingredient
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meals, err = op.gateway.MenuList(gctx, op.planID)
		return err
	})
	g.Go(func() error {
		var err error
		ingredients, err = op.gateway.IngredientList(gctx, op.planID)
		return err
	})
	if err := g.Wait(); err != nil {
		res.Err = err
		return res
	}
	res.Meals = meals
	res.Ingredients = ingredients
	return res
}

// FinishFetch applies a fetch result. The plan id is set only when both
// lists arrived; otherwise the held state is left as it was.
func (s *Store) FinishFetch(res FetchResult) error {
	if !s.finish(res.gen) {
		s.journal.Warn("Discarded stale result for plan %s", res.PlanID)
		return ErrStale
	}
	if res.Err != nil {
		if api.IsNotFound(res.Err) {
			s.notFound = true
			s.journal.Warn("Plan %s not found", res.PlanID)
		} else {
			s.errMsg = MsgFetchFailed
			s.journal.Error("Loading plan %s failed: %v", res.PlanID, res.Err)
		}
		return res.Err
	}
	s.replace(plan.Snapshot{PlanID: res.PlanID, Meals: res.Meals, Ingredients: res.Ingredients})
	s.journal.Info("Plan %s loaded · %d meal(s), %d item(s)", s.planID, len(s.meals), len(s.ingredients))
	return nil
}

// FetchPlanData runs a whole fetch synchronously.
func (s *Store) FetchPlanData(ctx context.Context, planID string) error {
	op, err := s.BeginFetch(planID)
	if err != nil {
		return err
	}
	return s.FinishFetch(op.Run(ctx))
}
