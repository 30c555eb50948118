package fakeapi

import (
	"time"

	"github.com/kingrea/kondate/internal/plan"
)

type recipeItem struct {
	name   string
	amount float64
	unit   string
	kind   string
}

type recipe struct {
	name  string
	items []recipeItem
}

// Small fixed menus per period. An empty kind is sent as a null type.
var catalogue = map[plan.MealPeriod][]recipe{
	plan.Morning: {
		{name: "Miso soup and rice", items: []recipeItem{
			{"Rice", 150, "g", "grain"}, {"Miso", 1, "tbsp", "seasoning"}, {"Tofu", 0.5, "block", "protein"}, {"Green onion", 1, "stalk", "vegetable"},
		}},
		{name: "Tamagoyaki set", items: []recipeItem{
			{"Egg", 2, "pc", "protein"}, {"Rice", 150, "g", "grain"}, {"Soy sauce", 1, "tsp", "seasoning"},
		}},
		{name: "Toast and salad", items: []recipeItem{
			{"Bread", 2, "slice", "grain"}, {"Lettuce", 0.25, "head", "vegetable"}, {"Tomato", 1, "pc", "vegetable"}, {"Butter", 10, "g", ""},
		}},
	},
	plan.Lunch: {
		{name: "Chicken rice bowl", items: []recipeItem{
			{"Chicken thigh", 200, "g", "protein"}, {"Rice", 200, "g", "grain"}, {"Green onion", 1, "stalk", "vegetable"}, {"Soy sauce", 1, "tbsp", "seasoning"},
		}},
		{name: "Udon with vegetables", items: []recipeItem{
			{"Udon", 1, "pack", "grain"}, {"Carrot", 0.5, "pc", "vegetable"}, {"Cabbage", 0.125, "head", "vegetable"}, {"Dashi", 1, "pack", ""},
		}},
		{name: "Tuna onigiri", items: []recipeItem{
			{"Rice", 200, "g", "grain"}, {"Canned tuna", 1, "can", "protein"}, {"Nori", 2, "sheet", ""},
		}},
	},
	plan.Dinner: {
		{name: "Ginger pork", items: []recipeItem{
			{"Pork loin", 250, "g", "protein"}, {"Ginger", 1, "knob", "vegetable"}, {"Cabbage", 0.25, "head", "vegetable"}, {"Soy sauce", 2, "tbsp", "seasoning"},
		}},
		{name: "Salmon teriyaki", items: []recipeItem{
			{"Salmon", 2, "fillet", "protein"}, {"Mirin", 2, "tbsp", "seasoning"}, {"Soy sauce", 2, "tbsp", "seasoning"}, {"Spinach", 1, "bunch", "vegetable"},
		}},
		{name: "Nikujaga", items: []recipeItem{
			{"Beef", 200, "g", "protein"}, {"Potato", 3, "pc", "vegetable"}, {"Carrot", 1, "pc", "vegetable"}, {"Onion", 1, "pc", "vegetable"}, {"Dashi", 1, "pack", ""},
		}},
	},
}

// generate builds meals in request order and a shopping list that merges
// repeated (name, unit) pairs, keeping first-seen order.
func generate(today time.Time, planned []plan.PlannedMeal, newID func() string) ([]plan.Meal, []plan.Ingredient) {
	meals := make([]plan.Meal, 0, len(planned))
	index := map[string]int{}
	var ingredients []plan.Ingredient
	for _, pm := range planned {
		options := catalogue[pm.MealPeriod]
		r := options[pm.DateOffset%len(options)]
		meal := plan.Meal{
			Date:       today.AddDate(0, 0, pm.DateOffset).Format("2006-01-02"),
			MealPeriod: pm.MealPeriod,
			MenuName:   r.name,
		}
		for _, item := range r.items {
			meal.Ingredients = append(meal.Ingredients, plan.MenuIngredient{Name: item.name, Amount: item.amount, Unit: item.unit})
			key := item.name + "\x00" + item.unit
			if pos, ok := index[key]; ok {
				ingredients[pos].Amount += item.amount
				continue
			}
			entry := plan.Ingredient{ID: newID(), Name: item.name, Amount: item.amount, Unit: item.unit}
			if item.kind != "" {
				kind := item.kind
				entry.Type = &kind
			}
			index[key] = len(ingredients)
			ingredients = append(ingredients, entry)
		}
		meals = append(meals, meal)
	}
	if ingredients == nil {
		ingredients = []plan.Ingredient{}
	}
	return meals, ingredients
}
