// Package api talks to the shopping plan server. Every operation is a single
// request/response: no retries, no caching and no de-duplication of
// concurrent identical calls.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/kondate/internal/plan"
)

const (
	// DefaultTimeout bounds every call made by a Client.
	DefaultTimeout = 10 * time.Second

	// RequestIDHeader carries a per-call id the server can log.
	RequestIDHeader = "X-Request-Id"

	maxErrorBody = 64 << 10
)

// Logger receives one line per request.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Client maps plan operations onto HTTP calls.
type Client struct {
	baseURL   string
	http      *http.Client
	logger    Logger
	requestID func() string
	clock     func() time.Time
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is kept
// as given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger records each request and its outcome.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRequestIDs overrides the X-Request-Id generator.
func WithRequestIDs(gen func() string) Option {
	return func(c *Client) {
		if gen != nil {
			c.requestID = gen
		}
	}
}

// New prepares a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:      &http.Client{Timeout: DefaultTimeout},
		logger:    nopLogger{},
		requestID: func() string { return uuid.New().String() },
		clock:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreatePlan asks the server to generate a plan for the selected meals.
func (c *Client) CreatePlan(ctx context.Context, meals []plan.PlannedMeal) (plan.CreatePlanResponse, error) {
	const op = "create plan"
	var out plan.CreatePlanResponse
	if len(meals) == 0 {
		return out, fmt.Errorf("api: %s: planned_meals is empty", op)
	}
	for i, m := range meals {
		if err := m.Validate(); err != nil {
			return out, fmt.Errorf("api: %s: planned_meals[%d]: %w", op, i, err)
		}
	}
	body := plan.CreatePlanRequest{PlannedMeals: meals}
	if err := c.do(ctx, op, http.MethodPost, "/api/create-new-plan", body, &out); err != nil {
		return plan.CreatePlanResponse{}, err
	}
	if strings.TrimSpace(out.ShoppingPlanID) == "" {
		return plan.CreatePlanResponse{}, fmt.Errorf("api: %s: %w: missing shopping_plan_id", op, ErrDecode)
	}
	return out, nil
}

// MenuList fetches the meals of a plan.
func (c *Client) MenuList(ctx context.Context, planID string) ([]plan.Meal, error) {
	const op = "menu list"
	path, err := joinPath("/api/menu-list", planID)
	if err != nil {
		return nil, fmt.Errorf("api: %s: %w", op, err)
	}
	var out plan.MenuListResponse
	if err := c.do(ctx, op, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Meals, nil
}

// IngredientList fetches the shopping list of a plan.
func (c *Client) IngredientList(ctx context.Context, planID string) ([]plan.Ingredient, error) {
	const op = "ingredient list"
	path, err := joinPath("/api/ingredient-list", planID)
	if err != nil {
		return nil, fmt.Errorf("api: %s: %w", op, err)
	}
	var out plan.IngredientListResponse
	if err := c.do(ctx, op, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Ingredients, nil
}

// UpdateIngredient sets the bought flag of one shopping list entry.
func (c *Client) UpdateIngredient(ctx context.Context, itemID string, bought bool) (plan.Ingredient, error) {
	const op = "update ingredient"
	path, err := joinPath("/api/shopping_ingredient_items", itemID)
	if err != nil {
		return plan.Ingredient{}, fmt.Errorf("api: %s: %w", op, err)
	}
	var out plan.Ingredient
	body := plan.UpdateIngredientRequest{Bought: bought}
	if err := c.do(ctx, op, http.MethodPatch, path, body, &out); err != nil {
		return plan.Ingredient{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: %s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("api: %s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := c.requestID()
	req.Header.Set(RequestIDHeader, reqID)

	start := c.clock()
	resp, err := c.http.Do(req)
	elapsed := c.clock().Sub(start).Round(time.Millisecond)
	if err != nil {
		c.logger.Printf("%s %s id=%s failed after %s: %v", method, path, reqID, elapsed, err)
		return fmt.Errorf("api: %s: %w: %w", op, ErrNetwork, err)
	}
	defer resp.Body.Close()
	c.logger.Printf("%s %s id=%s -> %d in %s", method, path, reqID, resp.StatusCode, elapsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: %s: %w: %w", op, ErrDecode, err)
	}
	return nil
}

func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error)
}

func joinPath(prefix, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("id is required")
	}
	return prefix + "/" + url.PathEscape(id), nil
}
