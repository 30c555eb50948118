package plan

// CreatePlanRequest is the body of POST /api/create-new-plan.
type CreatePlanRequest struct {
	PlannedMeals []PlannedMeal `json:"planned_meals"`
}

// CreatePlanResponse is returned by POST /api/create-new-plan.
type CreatePlanResponse struct {
	ShoppingPlanID string       `json:"shopping_plan_id"`
	Meals          []Meal       `json:"meals"`
	Ingredients    []Ingredient `json:"ingredients"`
}

// Snapshot converts the response into a store snapshot.
func (r CreatePlanResponse) Snapshot() Snapshot {
	return Snapshot{PlanID: r.ShoppingPlanID, Meals: r.Meals, Ingredients: r.Ingredients}
}

// MenuListResponse is returned by GET /api/menu-list/{plan_id}.
type MenuListResponse struct {
	Meals []Meal `json:"meals"`
}

// IngredientListResponse is returned by GET /api/ingredient-list/{plan_id}.
type IngredientListResponse struct {
	Ingredients []Ingredient `json:"ingredients"`
}

// UpdateIngredientRequest is the body of PATCH /api/shopping_ingredient_items/{item_id}.
type UpdateIngredientRequest struct {
	Bought bool `json:"bought"`
}
