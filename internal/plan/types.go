// Package plan defines the shopping plan domain shared by the API client,
// the state store and the terminal views.
package plan

import (
	"fmt"
	"strings"
)

// MealPeriod identifies one meal of the day.
type MealPeriod string

const (
	Morning MealPeriod = "MORNING"
	Lunch   MealPeriod = "LUNCH"
	Dinner  MealPeriod = "DINNER"
)

// OtherCategory labels ingredients the server did not categorize.
const OtherCategory = "other"

var periods = []MealPeriod{Morning, Lunch, Dinner}

// Periods returns the meal periods in the order they happen during a day.
func Periods() []MealPeriod {
	out := make([]MealPeriod, len(periods))
	copy(out, periods)
	return out
}

// Valid reports whether p is one of the known periods.
func (p MealPeriod) Valid() bool {
	switch p {
	case Morning, Lunch, Dinner:
		return true
	}
	return false
}

// Label returns the human name for the period.
func (p MealPeriod) Label() string {
	switch p {
	case Morning:
		return "Breakfast"
	case Lunch:
		return "Lunch"
	case Dinner:
		return "Dinner"
	}
	return string(p)
}

// ParseMealPeriod accepts a period name in any case.
func ParseMealPeriod(value string) (MealPeriod, error) {
	p := MealPeriod(strings.ToUpper(strings.TrimSpace(value)))
	if !p.Valid() {
		return "", fmt.Errorf("plan: unknown meal period %q", value)
	}
	return p, nil
}

// MenuIngredient is one line of a recipe inside a Meal.
type MenuIngredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Meal is one generated dish for a date and period.
type Meal struct {
	Date        string           `json:"date"`
	MealPeriod  MealPeriod       `json:"meal_period"`
	MenuName    string           `json:"menu_name"`
	Ingredients []MenuIngredient `json:"ingredients"`
}

// Ingredient is an entry of the shopping list. Bought is the only field the
// client ever changes.
type Ingredient struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Type   *string `json:"type"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
	Bought bool    `json:"bought"`
}

// Category returns the shopping list group for the ingredient.
func (i Ingredient) Category() string {
	if i.Type == nil {
		return OtherCategory
	}
	if t := strings.TrimSpace(*i.Type); t != "" {
		return t
	}
	return OtherCategory
}

// PlannedMeal is one selected (day, period) cell sent to the server.
type PlannedMeal struct {
	DateOffset int        `json:"date_offset"`
	MealPeriod MealPeriod `json:"meal_period"`
}

// Validate checks the offset and period before a request is built.
func (m PlannedMeal) Validate() error {
	if m.DateOffset < 0 {
		return fmt.Errorf("plan: date_offset cannot be negative")
	}
	if !m.MealPeriod.Valid() {
		return fmt.Errorf("plan: invalid meal_period %q", m.MealPeriod)
	}
	return nil
}

// Snapshot is a plan id with its meals and shopping list. The three are
// always replaced together.
type Snapshot struct {
	PlanID      string
	Meals       []Meal
	Ingredients []Ingredient
}

// Clone returns a deep copy that shares no slices with s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		PlanID:      s.PlanID,
		Meals:       CloneMeals(s.Meals),
		Ingredients: CloneIngredients(s.Ingredients),
	}
}

// CloneMeals copies meals and their ingredient slices.
func CloneMeals(meals []Meal) []Meal {
	if meals == nil {
		return nil
	}
	out := make([]Meal, len(meals))
	for i, m := range meals {
		out[i] = m
		if m.Ingredients != nil {
			out[i].Ingredients = append([]MenuIngredient(nil), m.Ingredients...)
		}
	}
	return out
}

// CloneIngredients copies the shopping list, including Type pointers.
func CloneIngredients(items []Ingredient) []Ingredient {
	if items == nil {
		return nil
	}
	out := make([]Ingredient, len(items))
	for i, item := range items {
		out[i] = item
		if item.Type != nil {
			t := *item.Type
			out[i].Type = &t
		}
	}
	return out
}
