package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/kondate/internal/api"
	"github.com/kingrea/kondate/internal/plan"
	"github.com/kingrea/kondate/internal/result"
	"github.com/kingrea/kondate/internal/selection"
)

func createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a plan from the meals you will cook",
		Example: `  kondate create --meal 0:MORNING --meal 2:dinner
  kondate create -m 1:lunch --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, _ := cmd.Flags().GetStringArray("meal")
			asJSON, _ := cmd.Flags().GetBool("json")
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			sel := selection.New(env.cfg.Days())
			for _, value := range values {
				meal, err := parseMeal(value)
				if err != nil {
					return err
				}
				checked, err := sel.Toggle(meal.DateOffset, meal.MealPeriod)
				if err != nil {
					return err
				}
				if !checked {
					return fmt.Errorf("meal %q listed twice", value)
				}
			}
			if err := sel.Validate(); err != nil {
				return err
			}
			if err := env.store.CreatePlan(cmd.Context(), sel.PlannedMeals()); err != nil {
				return fmt.Errorf("%s %w", env.store.Err(), err)
			}
			return printPlan(cmd.OutOrStdout(), env.store.Snapshot(), asJSON)
		},
	}
	cmd.Flags().StringArrayP("meal", "m", nil, "meal to cook as OFFSET:PERIOD, e.g. 0:MORNING (repeatable)")
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	return cmd
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [plan-id]",
		Short: "Print the menu and shopping list of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()
			if err := env.store.FetchPlanData(cmd.Context(), args[0]); err != nil {
				return fetchError(args[0], env.store.Err(), err)
			}
			return printPlan(cmd.OutOrStdout(), env.store.Snapshot(), asJSON)
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	return cmd
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [plan-id] [item-id]",
		Short: "Flip the bought flag of a shopping list item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()
			st := env.store
			if err := st.FetchPlanData(cmd.Context(), args[0]); err != nil {
				return fetchError(args[0], st.Err(), err)
			}
			item, ok := st.Ingredient(args[1])
			if !ok {
				return fmt.Errorf("item %s is not on plan %s", args[1], args[0])
			}
			if err := st.ToggleIngredientBought(cmd.Context(), item.ID, item.Bought); err != nil {
				return fmt.Errorf("%s %w", st.Err(), err)
			}
			updated, _ := st.Ingredient(item.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", result.IngredientLine(updated.Name, updated.Amount, updated.Unit), boughtWord(updated.Bought))
			return nil
		},
	}
}

func fetchError(planID, message string, err error) error {
	if api.IsNotFound(err) {
		return fmt.Errorf("plan %s not found", planID)
	}
	return fmt.Errorf("%s %w", message, err)
}

// parseMeal reads "OFFSET:PERIOD", for example "2:dinner".
func parseMeal(value string) (plan.PlannedMeal, error) {
	offsetText, periodText, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return plan.PlannedMeal{}, fmt.Errorf("meal %q: expected OFFSET:PERIOD", value)
	}
	offset, err := strconv.Atoi(strings.TrimSpace(offsetText))
	if err != nil {
		return plan.PlannedMeal{}, fmt.Errorf("meal %q: invalid offset: %w", value, err)
	}
	period, err := plan.ParseMealPeriod(periodText)
	if err != nil {
		return plan.PlannedMeal{}, fmt.Errorf("meal %q: %w", value, err)
	}
	meal := plan.PlannedMeal{DateOffset: offset, MealPeriod: period}
	if err := meal.Validate(); err != nil {
		return plan.PlannedMeal{}, fmt.Errorf("meal %q: %w", value, err)
	}
	return meal, nil
}

func printPlan(w io.Writer, snap plan.Snapshot, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plan.CreatePlanResponse{
			ShoppingPlanID: snap.PlanID,
			Meals:          snap.Meals,
			Ingredients:    snap.Ingredients,
		})
	}
	fmt.Fprintf(w, "Plan %s\n\nMenu\n", snap.PlanID)
	for _, group := range result.GroupMealsByDate(snap.Meals) {
		fmt.Fprintf(w, "  %s\n", group.Label())
		for _, meal := range group.Meals {
			fmt.Fprintf(w, "    %s · %s\n", meal.MealPeriod.Label(), meal.MenuName)
		}
	}
	fmt.Fprintf(w, "\nShopping list (%s)\n", result.Summary(snap.Ingredients))
	for _, group := range result.GroupIngredientsByType(snap.Ingredients) {
		fmt.Fprintf(w, "  %s\n", group.Type)
		for _, item := range group.Items {
			box := "[ ]"
			if item.Bought {
				box = "[x]"
			}
			fmt.Fprintf(w, "    %s %s  %s\n", box, result.IngredientLine(item.Name, item.Amount, item.Unit), item.ID)
		}
	}
	return nil
}

func boughtWord(bought bool) string {
	if bought {
		return "bought"
	}
	return "not bought"
}
