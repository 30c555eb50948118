// Package selection models the meal selection grid: one column per upcoming
// day, one checkbox per meal period.
package selection

import (
	"errors"
	"fmt"
	"time"

	"github.com/kingrea/kondate/internal/plan"
)

// DefaultDays is the number of day columns shown when none is configured.
const DefaultDays = 7

// EmptyMessage is shown when the user submits without checking anything.
const EmptyMessage = "Select at least one meal you will cook."

// ErrEmpty is returned by Validate for an empty selection.
var ErrEmpty = errors.New(EmptyMessage)

// Day is one column of the grid.
type Day struct {
	Offset int
	Date   time.Time
	Label  string
}

// Days builds n columns starting at base. The first two are labelled
// "Today" and "Tomorrow", the rest by month/day.
func Days(base time.Time, n int) []Day {
	if n <= 0 {
		return nil
	}
	y, m, d := base.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, base.Location())
	out := make([]Day, n)
	for i := range out {
		date := start.AddDate(0, 0, i)
		out[i] = Day{Offset: i, Date: date, Label: dayLabel(i, date)}
	}
	return out
}

func dayLabel(offset int, date time.Time) string {
	weekday := date.Format("Mon")
	switch offset {
	case 0:
		return fmt.Sprintf("Today (%s)", weekday)
	case 1:
		return fmt.Sprintf("Tomorrow (%s)", weekday)
	}
	return fmt.Sprintf("%d/%d (%s)", int(date.Month()), date.Day(), weekday)
}

// Cell addresses one checkbox.
type Cell struct {
	Offset int
	Period plan.MealPeriod
}

// Selection is the set of checked cells. It remembers the order in which
// cells were checked so the request lists them the same way.
type Selection struct {
	days    int
	order   []Cell
	checked map[Cell]struct{}
}

// New returns an empty selection over days columns.
func New(days int) *Selection {
	if days <= 0 {
		days = DefaultDays
	}
	return &Selection{days: days, checked: map[Cell]struct{}{}}
}

// Days returns the number of columns.
func (s *Selection) Days() int { return s.days }

// Toggle flips a cell and returns its new state.
func (s *Selection) Toggle(offset int, period plan.MealPeriod) (bool, error) {
	if offset < 0 || offset >= s.days {
		return false, fmt.Errorf("selection: offset %d outside 0..%d", offset, s.days-1)
	}
	if !period.Valid() {
		return false, fmt.Errorf("selection: invalid meal period %q", period)
	}
	cell := Cell{Offset: offset, Period: period}
	if _, ok := s.checked[cell]; ok {
		delete(s.checked, cell)
		for i, c := range s.order {
			if c == cell {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return false, nil
	}
	s.checked[cell] = struct{}{}
	s.order = append(s.order, cell)
	return true, nil
}

// IsSelected reports whether a cell is checked.
func (s *Selection) IsSelected(offset int, period plan.MealPeriod) bool {
	_, ok := s.checked[Cell{Offset: offset, Period: period}]
	return ok
}

// Count returns the number of checked cells.
func (s *Selection) Count() int { return len(s.order) }

// Empty reports whether nothing is checked.
func (s *Selection) Empty() bool { return len(s.order) == 0 }

// Clear unchecks everything.
func (s *Selection) Clear() {
	s.order = nil
	s.checked = map[Cell]struct{}{}
}

// Validate blocks submission of an empty selection.
func (s *Selection) Validate() error {
	if s.Empty() {
		return ErrEmpty
	}
	return nil
}

// PlannedMeals returns the checked cells in wire form.
func (s *Selection) PlannedMeals() []plan.PlannedMeal {
	out := make([]plan.PlannedMeal, 0, len(s.order))
	for _, c := range s.order {
		out = append(out, plan.PlannedMeal{DateOffset: c.Offset, MealPeriod: c.Period})
	}
	return out
}
