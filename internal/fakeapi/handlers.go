package fakeapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kingrea/kondate/internal/plan"
)

// Handler exposes the API routes without binding a listener, for use with
// net/http/httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/create-new-plan", s.guard(RouteCreatePlan, http.MethodPost, s.handleCreatePlan))
	mux.HandleFunc("/api/menu-list/", s.guard(RouteMenuList, http.MethodGet, s.handleMenuList))
	mux.HandleFunc("/api/ingredient-list/", s.guard(RouteIngredientList, http.MethodGet, s.handleIngredientList))
	mux.HandleFunc("/api/shopping_ingredient_items/", s.guard(RouteUpdateIngredient, http.MethodPatch, s.handleUpdateIngredient))
	return mux
}

// guard checks the method, counts the call and applies injected delays and faults.
func (s *Server) guard(route Route, method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
			return
		}
		f, delay := s.enter(route)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-r.Context().Done():
				timer.Stop()
				return
			}
		}
		if f != nil {
			writeJSON(w, f.status, errorBody(f.message))
			return
		}
		next(w, r)
	}
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlannedMeals *[]struct {
			DateOffset int    `json:"date_offset"`
			MealPeriod string `json:"meal_period"`
		} `json:"planned_meals"`
	}
	if err := s.decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid request body: "+err.Error()))
		return
	}
	if req.PlannedMeals == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid request body: planned_meals is required"))
		return
	}
	if len(*req.PlannedMeals) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("planned_meals must not be empty"))
		return
	}
	planned := make([]plan.PlannedMeal, 0, len(*req.PlannedMeals))
	for _, m := range *req.PlannedMeals {
		pm := plan.PlannedMeal{DateOffset: m.DateOffset, MealPeriod: plan.MealPeriod(m.MealPeriod)}
		if pm.DateOffset < 0 {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody("date_offset cannot be negative"))
			return
		}
		if !pm.MealPeriod.Valid() {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody("invalid meal_period"))
			return
		}
		planned = append(planned, pm)
	}

	s.mu.Lock()
	meals, ingredients := generate(s.clock(), planned, s.newID)
	id := s.newID()
	s.storeLocked(id, meals, ingredients)
	s.created = append(s.created, plan.CreatePlanRequest{PlannedMeals: planned})
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, plan.CreatePlanResponse{
		ShoppingPlanID: id,
		Meals:          meals,
		Ingredients:    ingredients,
	})
}

func (s *Server) handleMenuList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "/api/menu-list/")
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("Plan not found"))
		return
	}
	s.mu.RLock()
	rec, found := s.plans[id]
	var meals []plan.Meal
	if found {
		meals = plan.CloneMeals(rec.meals)
	}
	s.mu.RUnlock()
	if !found {
		writeJSON(w, http.StatusNotFound, errorBody("Plan not found"))
		return
	}
	writeJSON(w, http.StatusOK, plan.MenuListResponse{Meals: meals})
}

func (s *Server) handleIngredientList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "/api/ingredient-list/")
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("Plan not found"))
		return
	}
	s.mu.RLock()
	rec, found := s.plans[id]
	var items []plan.Ingredient
	if found {
		items = plan.CloneIngredients(rec.ingredients)
	}
	s.mu.RUnlock()
	if !found {
		writeJSON(w, http.StatusNotFound, errorBody("Plan not found"))
		return
	}
	writeJSON(w, http.StatusOK, plan.IngredientListResponse{Ingredients: items})
}

func (s *Server) handleUpdateIngredient(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "/api/shopping_ingredient_items/")
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("Item not found"))
		return
	}
	var req struct {
		Bought *bool `json:"bought"`
	}
	if err := s.decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid request body: "+err.Error()))
		return
	}
	if req.Bought == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid request body: bought is required"))
		return
	}

	s.mu.Lock()
	var (
		updated plan.Ingredient
		found   bool
	)
	if rec, ok := s.plans[s.owners[itemID]]; ok {
		for i := range rec.ingredients {
			if rec.ingredients[i].ID == itemID {
				rec.ingredients[i].Bought = *req.Bought
				updated = plan.CloneIngredients(rec.ingredients[i : i+1])[0]
				found = true
				break
			}
		}
	}
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, errorBody("Item not found"))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("payload exceeds limit")
		}
		return fmt.Errorf("unable to read body")
	}
	if len(body) == 0 {
		return errors.New("empty body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid JSON")
	}
	return nil
}

func pathID(r *http.Request, prefix string) (string, bool) {
	raw := strings.TrimPrefix(r.URL.EscapedPath(), prefix)
	if raw == "" || strings.Contains(raw, "/") {
		return "", false
	}
	id, err := url.PathUnescape(raw)
	if err != nil || strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
