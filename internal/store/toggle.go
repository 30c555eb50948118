package store

import (
	"context"
	"fmt"

	"github.com/kingrea/kondate/internal/plan"
)

type toggleState int

const (
	togglePending toggleState = iota
	toggleApplied
	toggleCommitted
	toggleRolledBack
)

// Toggle is an optimistic flip of one item's bought flag. Apply changes the
// store immediately; the remote update then either commits it or rolls it
// back.
type Toggle struct {
	store   *Store
	gateway Gateway
	planID  string
	state   toggleState

	// ItemID is the shopping list entry being flipped.
	ItemID string
	// Bought is the value being written.
	Bought bool
	// Previous is the shopping list as it was before Apply.
	Previous []plan.Ingredient
	before   plan.Ingredient
}

// ToggleResult carries the remote update outcome.
type ToggleResult struct {
	Toggle  *Toggle
	Updated plan.Ingredient
	Err     error
}

// BeginToggle snapshots the shopping list and flips itemID to
// !currentStatus right away. A second toggle of the same item is refused
// until the first one finishes.
func (s *Store) BeginToggle(itemID string, currentStatus bool) (*Toggle, error) {
	itemID = cleanID(itemID)
	idx := s.indexOf(itemID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIngredient, itemID)
	}
	if s.InFlight(itemID) {
		return nil, ErrToggleInFlight
	}
	t := &Toggle{
		store:    s,
		gateway:  s.gateway,
		planID:   s.planID,
		ItemID:   itemID,
		Bought:   !currentStatus,
		Previous: plan.CloneIngredients(s.ingredients),
		before:   plan.CloneIngredients(s.ingredients[idx : idx+1])[0],
	}
	t.Apply()
	return t, nil
}

// Apply writes the new value into the store.
func (t *Toggle) Apply() {
	if t.state != togglePending {
		return
	}
	s := t.store
	idx := s.indexOf(t.ItemID)
	if idx < 0 {
		return
	}
	s.ingredients[idx].Bought = t.Bought
	s.inFlight[t.ItemID] = t
	t.state = toggleApplied
	s.journal.Info("%s marked %s", s.ingredients[idx].Name, boughtLabel(t.Bought))
}

// Run sends the update. It touches no store state.
func (t *Toggle) Run(ctx context.Context) ToggleResult {
	if t.gateway == nil {
		return ToggleResult{Toggle: t, Err: fmt.Errorf("store: no gateway configured")}
	}
	updated, err := t.gateway.UpdateIngredient(ctx, t.ItemID, t.Bought)
	return ToggleResult{Toggle: t, Updated: updated, Err: err}
}

// Commit accepts the applied value. The store already shows it.
func (t *Toggle) Commit() {
	if t.state != toggleApplied {
		return
	}
	t.state = toggleCommitted
	t.release()
}

// Rollback restores the item to its value before Apply and reports the
// failure. Other items keep whatever changed since.
func (t *Toggle) Rollback() {
	if t.state != toggleApplied {
		return
	}
	t.state = toggleRolledBack
	s := t.store
	if t.live() {
		if idx := s.indexOf(t.ItemID); idx >= 0 {
			s.ingredients[idx].Bought = t.before.Bought
		}
		s.errMsg = MsgUpdateFailed
	}
	t.release()
}

// live reports whether the store still holds the plan and the in-flight
// slot this toggle was started with.
func (t *Toggle) live() bool {
	s := t.store
	return s.planID == t.planID && s.inFlight[t.ItemID] == t
}

func (t *Toggle) release() {
	s := t.store
	if s.inFlight[t.ItemID] == t {
		delete(s.inFlight, t.ItemID)
	}
}

// FinishToggle commits or rolls back according to the remote result.
// Results for a plan the store no longer holds are discarded.
func (s *Store) FinishToggle(res ToggleResult) error {
	t := res.Toggle
	if t == nil || t.store != s {
		return fmt.Errorf("store: toggle result does not belong to this store")
	}
	if !t.live() {
		t.state = toggleCommitted
		s.journal.Warn("Discarded stale update for item %s", t.ItemID)
		return ErrStale
	}
	if res.Err != nil {
		name := t.before.Name
		t.Rollback()
		s.journal.Error("Updating %s failed, reverted: %v", name, res.Err)
		return res.Err
	}
	t.Commit()
	return nil
}

// ToggleIngredientBought runs a whole optimistic toggle synchronously.
func (s *Store) ToggleIngredientBought(ctx context.Context, itemID string, currentStatus bool) error {
	t, err := s.BeginToggle(itemID, currentStatus)
	if err != nil {
		return err
	}
	return s.FinishToggle(t.Run(ctx))
}

func boughtLabel(bought bool) string {
	if bought {
		return "bought"
	}
	return "not bought"
}
