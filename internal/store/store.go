// Package store holds the plan state shared by the selection and result
// screens.
//
// Every operation that talks to the server is split in three steps so the
// network call can run off the UI loop:
//
//	op, err := s.BeginCreate(meals) // synchronous: validate, mark loading
//	res := op.Run(ctx)              // I/O only, safe on any goroutine
//	s.FinishCreate(res)             // synchronous: apply or discard
//
// Begin and Finish must be called from a single goroutine (the Bubble Tea
// update loop). CreatePlan, FetchPlanData and ToggleIngredientBought compose
// the three steps for callers without an event loop.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kingrea/kondate/internal/plan"
)

// User-facing messages. Remote failures collapse to one message per
// operation; details go to the journal.
const (
	MsgCreateFailed = "Failed to create the plan."
	MsgFetchFailed  = "Failed to load the plan."
	MsgUpdateFailed = "Failed to update the item."
)

var (
	// ErrEmptySelection is returned when createPlan is asked for no meals.
	ErrEmptySelection = errors.New("store: select at least one meal")
	// ErrBusy is returned when a create is requested while one is running.
	ErrBusy = errors.New("store: plan creation already in progress")
	// ErrStale marks a result whose operation was superseded or cancelled.
	ErrStale = errors.New("store: stale result discarded")
	// ErrUnknownIngredient is returned when toggling an id the store does not hold.
	ErrUnknownIngredient = errors.New("store: unknown ingredient")
	// ErrToggleInFlight is returned when the same item is toggled again before
	// its previous update completed.
	ErrToggleInFlight = errors.New("store: update already in flight for this item")
)

// Gateway is the remote API used by the store.
type Gateway interface {
	CreatePlan(ctx context.Context, meals []plan.PlannedMeal) (plan.CreatePlanResponse, error)
	MenuList(ctx context.Context, planID string) ([]plan.Meal, error)
	IngredientList(ctx context.Context, planID string) ([]plan.Ingredient, error)
	UpdateIngredient(ctx context.Context, itemID string, bought bool) (plan.Ingredient, error)
}

// Journal records what happened to the plan. *logbook.Logbook satisfies it.
type Journal interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopJournal struct{}

func (nopJournal) Info(string, ...any)  {}
func (nopJournal) Warn(string, ...any)  {}
func (nopJournal) Error(string, ...any) {}

// Phase is the plan lifecycle derived from the store's state.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseCreating
	PhaseFetching
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseCreating:
		return "creating"
	case PhaseFetching:
		return "fetching"
	case PhaseReady:
		return "ready"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

type opKind int

const (
	opNone opKind = iota
	opCreate
	opFetch
)

// Store is the plan state container.
type Store struct {
	gateway Gateway
	journal Journal

	planID      string
	meals       []plan.Meal
	ingredients []plan.Ingredient
	loading     bool
	pending     opKind
	errMsg      string
	notFound    bool

	// gen is bumped by every begin and by Cancel; results carrying an older
	// generation are discarded.
	gen      uint64
	inFlight map[string]*Toggle
}

// Option customizes store construction.
type Option func(*Store)

// WithJournal records plan events.
func WithJournal(j Journal) Option {
	return func(s *Store) {
		if j != nil {
			s.journal = j
		}
	}
}

// New creates an empty store backed by gateway.
func New(gateway Gateway, opts ...Option) *Store {
	s := &Store{
		gateway:  gateway,
		journal:  nopJournal{},
		inFlight: map[string]*Toggle{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// PlanID returns the current plan id, or "" when no plan is held.
func (s *Store) PlanID() string { return s.planID }

// Meals returns a copy of the current menu.
func (s *Store) Meals() []plan.Meal { return plan.CloneMeals(s.meals) }

// Ingredients returns a copy of the current shopping list.
func (s *Store) Ingredients() []plan.Ingredient { return plan.CloneIngredients(s.ingredients) }

// Snapshot returns the plan id, menu and shopping list together.
func (s *Store) Snapshot() plan.Snapshot {
	return plan.Snapshot{PlanID: s.planID, Meals: s.Meals(), Ingredients: s.Ingredients()}
}

// Ingredient looks up one shopping list entry by id.
func (s *Store) Ingredient(id string) (plan.Ingredient, bool) {
	if idx := s.indexOf(id); idx >= 0 {
		return plan.CloneIngredients(s.ingredients[idx : idx+1])[0], true
	}
	return plan.Ingredient{}, false
}

// Loading reports whether a create or fetch is in flight.
func (s *Store) Loading() bool { return s.loading }

// Err returns the current user-facing error message.
func (s *Store) Err() string { return s.errMsg }

// NotFound reports whether the last fetch was answered with 404.
func (s *Store) NotFound() bool { return s.notFound }

// InFlight reports whether an update for itemID has not completed yet.
func (s *Store) InFlight(itemID string) bool {
	_, ok := s.inFlight[itemID]
	return ok
}

// Phase derives the lifecycle phase.
func (s *Store) Phase() Phase {
	if s.loading {
		if s.pending == opFetch {
			return PhaseFetching
		}
		return PhaseCreating
	}
	if s.planID != "" {
		return PhaseReady
	}
	return PhaseEmpty
}

// ClearError dismisses the current message.
func (s *Store) ClearError() {
	s.errMsg = ""
}

// Cancel discards the result of any create or fetch still in flight. Views
// call it when they stop displaying the plan they asked for.
func (s *Store) Cancel() {
	if !s.loading {
		return
	}
	s.gen++
	s.loading = false
	s.pending = opNone
	s.journal.Warn("Pending plan request cancelled")
}

func (s *Store) begin(kind opKind) uint64 {
	s.gen++
	s.loading = true
	s.pending = kind
	s.errMsg = ""
	s.notFound = false
	return s.gen
}

func (s *Store) finish(gen uint64) bool {
	if gen != s.gen {
		return false
	}
	s.loading = false
	s.pending = opNone
	return true
}

// replace swaps in a new plan snapshot as a single unit.
func (s *Store) replace(snap plan.Snapshot) {
	s.planID = snap.PlanID
	s.meals = plan.CloneMeals(snap.Meals)
	s.ingredients = plan.CloneIngredients(snap.Ingredients)
	if s.meals == nil {
		s.meals = []plan.Meal{}
	}
	if s.ingredients == nil {
		s.ingredients = []plan.Ingredient{}
	}
	s.inFlight = map[string]*Toggle{}
}

func (s *Store) indexOf(id string) int {
	for i := range s.ingredients {
		if s.ingredients[i].ID == id {
			return i
		}
	}
	return -1
}

func cleanID(id string) string {
	return strings.TrimSpace(id)
}
