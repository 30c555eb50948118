// Package result derives what the result screen shows from a plan snapshot.
package result

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/kondate/internal/plan"
)

const (
	dateLayout    = "2006-01-02"
	displayLayout = "Mon, Jan 2"
	// InvalidDate replaces dates the server sent in an unexpected format.
	InvalidDate = "invalid date"
)

// MealGroup is one day of the menu.
type MealGroup struct {
	Date  string
	Meals []plan.Meal
}

// Label is the formatted date heading.
func (g MealGroup) Label() string { return FormatDate(g.Date) }

// IngredientGroup is one category of the shopping list.
type IngredientGroup struct {
	Type  string
	Items []plan.Ingredient
}

// GroupMealsByDate groups meals by date. Dates appear in the order they are
// first seen and meals keep their original order within a date.
func GroupMealsByDate(meals []plan.Meal) []MealGroup {
	var groups []MealGroup
	index := map[string]int{}
	for _, meal := range meals {
		i, ok := index[meal.Date]
		if !ok {
			i = len(groups)
			index[meal.Date] = i
			groups = append(groups, MealGroup{Date: meal.Date})
		}
		groups[i].Meals = append(groups[i].Meals, meal)
	}
	return groups
}

// GroupIngredientsByType groups the shopping list by category, falling back
// to "other" for uncategorized items. Ordering is stable like
// GroupMealsByDate.
func GroupIngredientsByType(items []plan.Ingredient) []IngredientGroup {
	var groups []IngredientGroup
	index := map[string]int{}
	for _, item := range items {
		category := item.Category()
		i, ok := index[category]
		if !ok {
			i = len(groups)
			index[category] = i
			groups = append(groups, IngredientGroup{Type: category})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// FormatDate turns "2024-06-13" into "Thu, Jun 13".
func FormatDate(date string) string {
	t, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return InvalidDate
	}
	return t.Format(displayLayout)
}

// FormatAmount renders an amount without trailing zeros, followed by unit.
func FormatAmount(amount float64, unit string) string {
	n := strconv.FormatFloat(amount, 'f', -1, 64)
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return n
	}
	return n + " " + unit
}

// IngredientLine is "Rice (300 g)".
func IngredientLine(name string, amount float64, unit string) string {
	return fmt.Sprintf("%s (%s)", name, FormatAmount(amount, unit))
}

// Counts returns how many items are bought out of the total.
func Counts(items []plan.Ingredient) (bought, total int) {
	for _, item := range items {
		if item.Bought {
			bought++
		}
	}
	return bought, len(items)
}

// Summary is the one-line progress shown above the shopping list.
func Summary(items []plan.Ingredient) string {
	bought, total := Counts(items)
	return fmt.Sprintf("%d/%d bought", bought, total)
}
