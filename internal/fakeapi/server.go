// Package fakeapi is an in-process stand-in for the shopping plan server. It
// serves the same four endpoints from memory, lets tests inject failures and
// delays per route, and counts calls so tests can assert how many requests a
// client issued.
package fakeapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/kondate/internal/plan"
)

// Route names one of the served endpoints.
type Route string

const (
	RouteCreatePlan       Route = "create-plan"
	RouteMenuList         Route = "menu-list"
	RouteIngredientList   Route = "ingredient-list"
	RouteUpdateIngredient Route = "update-ingredient"
)

// Logger receives server diagnostics.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

type planRecord struct {
	meals       []plan.Meal
	ingredients []plan.Ingredient
}

type fault struct {
	status  int
	message string
	// remaining < 0 means the fault never expires.
	remaining int
}

// Server serves the plan API from memory.
type Server struct {
	settings Settings
	logger   Logger
	clock    func() time.Time
	newID    func() string

	mu       sync.RWMutex
	server   *http.Server
	listener net.Listener
	plans    map[string]*planRecord
	owners   map[string]string
	faults   map[Route]*fault
	delays   map[Route]time.Duration
	calls    map[Route]int
	created  []plan.CreatePlanRequest
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock fixes "today" for generated meal dates.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDs overrides the id generator used for plans and shopping items.
func WithIDs(gen func() string) Option {
	return func(s *Server) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewServer prepares a server using the provided settings.
func NewServer(settings Settings, opts ...Option) *Server {
	settings.normalize()
	s := &Server{
		settings: settings,
		logger:   nopLogger{},
		clock:    time.Now,
		newID:    func() string { return uuid.New().String() },
		plans:    map[string]*planRecord{},
		owners:   map[string]string{},
		faults:   map[Route]*fault{},
		delays:   map[Route]time.Duration{},
		calls:    map[Route]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("fakeapi: server is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("fakeapi: server already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("fakeapi: listen %s: %w", addr, err)
	}
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.listener = listener
	s.server = server
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("fakeapi: serve error: %v", err)
		}
	}()
	s.logger.Printf("fakeapi: listening on %s", listener.Addr().String())
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	server := s.server
	s.listener = nil
	s.server = nil
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	return server.Shutdown(ctx)
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL (scheme + host:port) for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		addr = s.settings.Address()
	}
	return "http://" + addr
}

// Fail makes the next n calls to route answer with status. n < 0 fails
// every call until Reset.
func (s *Server) Fail(route Route, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n == 0 {
		delete(s.faults, route)
		return
	}
	s.faults[route] = &fault{status: status, message: "injected failure", remaining: n}
}

// Delay holds every call to route for d before answering.
func (s *Server) Delay(route Route, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d <= 0 {
		delete(s.delays, route)
		return
	}
	s.delays[route] = d
}

// Reset clears injected faults, delays and call counters. Stored plans stay.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = map[Route]*fault{}
	s.delays = map[Route]time.Duration{}
	s.calls = map[Route]int{}
	s.created = nil
}

// Calls returns how many requests reached route.
func (s *Server) Calls(route Route) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[route]
}

// CreateRequests returns every accepted create-plan body in arrival order.
func (s *Server) CreateRequests() []plan.CreatePlanRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]plan.CreatePlanRequest, len(s.created))
	copy(out, s.created)
	return out
}

// Seed stores a plan directly and returns its id.
func (s *Server) Seed(meals []plan.Meal, ingredients []plan.Ingredient) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.storeLocked(id, meals, ingredients)
	return id
}

// Ingredient returns the server's copy of a shopping list entry.
func (s *Server) Ingredient(itemID string) (plan.Ingredient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.plans[s.owners[itemID]]
	if !ok {
		return plan.Ingredient{}, false
	}
	for _, item := range rec.ingredients {
		if item.ID == itemID {
			return plan.CloneIngredients([]plan.Ingredient{item})[0], true
		}
	}
	return plan.Ingredient{}, false
}

func (s *Server) storeLocked(id string, meals []plan.Meal, ingredients []plan.Ingredient) {
	rec := &planRecord{
		meals:       plan.CloneMeals(meals),
		ingredients: plan.CloneIngredients(ingredients),
	}
	if rec.meals == nil {
		rec.meals = []plan.Meal{}
	}
	if rec.ingredients == nil {
		rec.ingredients = []plan.Ingredient{}
	}
	s.plans[id] = rec
	for _, item := range rec.ingredients {
		s.owners[item.ID] = id
	}
}

// enter records the call and reports any injected fault and delay.
func (s *Server) enter(route Route) (*fault, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[route]++
	delay := s.delays[route]
	f, ok := s.faults[route]
	if !ok {
		return nil, delay
	}
	hit := *f
	if f.remaining > 0 {
		f.remaining--
		if f.remaining == 0 {
			delete(s.faults, route)
		}
	}
	return &hit, delay
}
