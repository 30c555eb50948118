package store

import (
	"context"
	"fmt"

	"github.com/kingrea/kondate/internal/plan"
)

// CreateOp is a plan creation waiting to be sent.
type CreateOp struct {
	gen     uint64
	meals   []plan.PlannedMeal
	gateway Gateway
}

// CreateResult carries the server's answer back to the store.
type CreateResult struct {
	gen      uint64
	Response plan.CreatePlanResponse
	Err      error
}

// Meals returns the cells the request will carry.
func (op *CreateOp) Meals() []plan.PlannedMeal {
	return append([]plan.PlannedMeal(nil), op.meals...)
}

// BeginCreate validates the selection and marks the store as creating. An
// empty selection is rejected before any request exists.
func (s *Store) BeginCreate(meals []plan.PlannedMeal) (*CreateOp, error) {
	if len(meals) == 0 {
		return nil, ErrEmptySelection
	}
	for i, m := range meals {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("store: planned meal %d: %w", i, err)
		}
	}
	if s.loading && s.pending == opCreate {
		return nil, ErrBusy
	}
	gen := s.begin(opCreate)
	s.journal.Info("Creating plan for %d meal(s)", len(meals))
	return &CreateOp{
		gen:     gen,
		meals:   append([]plan.PlannedMeal(nil), meals...),
		gateway: s.gateway,
	}, nil
}

// Run issues the create call. It touches no store state.
func (op *CreateOp) Run(ctx context.Context) CreateResult {
	if op.gateway == nil {
		return CreateResult{gen: op.gen, Err: fmt.Errorf("store: no gateway configured")}
	}
	resp, err := op.gateway.CreatePlan(ctx, op.meals)
	return CreateResult{gen: op.gen, Response: resp, Err: err}
}

// FinishCreate applies a create result. On failure the previous plan state
// stays untouched and a generic message is set.
func (s *Store) FinishCreate(res CreateResult) error {
	if !s.finish(res.gen) {
		s.journal.Warn("Discarded stale plan creation result")
		return ErrStale
	}
	if res.Err != nil {
		s.errMsg = MsgCreateFailed
		s.journal.Error("Plan creation failed: %v", res.Err)
		return res.Err
	}
	s.replace(res.Response.Snapshot())
	s.journal.Info("Plan %s created · %d meal(s), %d item(s)", s.planID, len(s.meals), len(s.ingredients))
	return nil
}

// CreatePlan runs a whole creation synchronously.
func (s *Store) CreatePlan(ctx context.Context, meals []plan.PlannedMeal) error {
	op, err := s.BeginCreate(meals)
	if err != nil {
		return err
	}
	return s.FinishCreate(op.Run(ctx))
}
