package nutrisense

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type PrimaryIntent string

const (
	IntentSingleRecipe           PrimaryIntent = "single_recipe"
	IntentDietPlan               PrimaryIntent = "diet_plan"
	IntentNutritionalInfo        PrimaryIntent = "nutritional_info"
	IntentIngredientSubstitution PrimaryIntent = "ingredient_substitution"
	IntentMealPrep               PrimaryIntent = "meal_prep"
)

var PrimaryIntents = []PrimaryIntent{
	IntentSingleRecipe, IntentDietPlan, IntentNutritionalInfo, IntentIngredientSubstitution, IntentMealPrep,
}

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

type TimeContext string

const (
	TimeSingleMeal TimeContext = "single_meal"
	TimeDailyPlan  TimeContext = "daily_plan"
	TimeWeeklyPlan TimeContext = "weekly_plan"
	TimeMealPrep   TimeContext = "meal_prep"
	TimeNone       TimeContext = "none"
)

var TimeContexts = []TimeContext{TimeSingleMeal, TimeDailyPlan, TimeWeeklyPlan, TimeMealPrep, TimeNone}

type RecipeSpecificity string

const (
	SpecificRecipe RecipeSpecificity = "specific_recipe"
	GeneralDish    RecipeSpecificity = "general_dish"
	FoodCategory   RecipeSpecificity = "food_category"
)

var RecipeSpecificities = []RecipeSpecificity{SpecificRecipe, GeneralDish, FoodCategory}

// Intent is the structured classification of a user request.
type Intent struct {
	PrimaryIntent           PrimaryIntent     `json:"primary_intent"`
	MealType                []MealType        `json:"meal_type"`
	DietaryRestrictions     []string          `json:"dietary_restrictions"`
	NutritionalRequirements string            `json:"nutritional_requirements"`
	HealthGoals             []string          `json:"health_goals"`
	SpecificFoods           []string          `json:"specific_foods"`
	ExcludedIngredients     []string          `json:"excluded_ingredients"`
	TimeContext             TimeContext       `json:"time_context"`
	RecipeSpecificity       RecipeSpecificity `json:"recipe_specificity"`
}

// DefaultIntent is substituted when extraction fails so routing can proceed.
func DefaultIntent() *Intent {
	return &Intent{
		PrimaryIntent:       IntentSingleRecipe,
		MealType:            []MealType{MealBreakfast},
		DietaryRestrictions: []string{},
		HealthGoals:         []string{},
		SpecificFoods:       []string{},
		ExcludedIngredients: []string{},
		TimeContext:         TimeSingleMeal,
		RecipeSpecificity:   GeneralDish,
	}
}

func (i *Intent) Validate() error {
	if !slices.Contains(PrimaryIntents, i.PrimaryIntent) {
		return fmt.Errorf("unknown primary_intent %q", i.PrimaryIntent)
	}
	for _, m := range i.MealType {
		if !slices.Contains(MealTypes, m) {
			return fmt.Errorf("unknown meal_type %q", m)
		}
	}
	if !slices.Contains(TimeContexts, i.TimeContext) {
		return fmt.Errorf("unknown time_context %q", i.TimeContext)
	}
	if !slices.Contains(RecipeSpecificities, i.RecipeSpecificity) {
		return fmt.Errorf("unknown recipe_specificity %q", i.RecipeSpecificity)
	}
	return nil
}

// Recipe is a single generated recipe.
type Recipe struct {
	Name            string   `json:"name"`
	Ingredients     []string `json:"ingredients"`
	Instructions    []string `json:"instructions"`
	PrepTime        string   `json:"prep_time"`
	CookTime        string   `json:"cook_time"`
	TotalTime       string   `json:"total_time"`
	Servings        int      `json:"servings"`
	NutritionalInfo string   `json:"nutritional_info"`
}

func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("recipe name is empty")
	}
	if len(r.Ingredients) == 0 {
		return fmt.Errorf("recipe %q has no ingredients", r.Name)
	}
	if r.Servings <= 0 {
		return fmt.Errorf("recipe %q has servings %d, want > 0", r.Name, r.Servings)
	}
	return nil
}

// DayPlan holds one day of meals.
type DayPlan struct {
	Day       string   `json:"day"`
	Breakfast []Recipe `json:"breakfast"`
	Lunch     []Recipe `json:"lunch"`
	Dinner    []Recipe `json:"dinner"`
	Snack     []Recipe `json:"snack,omitempty"`
}

// Meals returns the day's meals in display order, skipping empty slots.
func (d DayPlan) Meals() []MealSlot {
	var out []MealSlot
	for _, slot := range []MealSlot{
		{Type: MealBreakfast, Recipes: d.Breakfast},
		{Type: MealLunch, Recipes: d.Lunch},
		{Type: MealDinner, Recipes: d.Dinner},
		{Type: MealSnack, Recipes: d.Snack},
	} {
		if len(slot.Recipes) > 0 {
			out = append(out, slot)
		}
	}
	return out
}

type MealSlot struct {
	Type    MealType
	Recipes []Recipe
}

// DietPlan is a multi-day plan.
type DietPlan struct {
	PlanName             string    `json:"plan_name"`
	Duration             string    `json:"duration"`
	DailyPlans           []DayPlan `json:"daily_plans"`
	TotalNutritionalInfo string    `json:"total_nutritional_info"`
	ShoppingList         []string  `json:"shopping_list"`
}

func (p *DietPlan) Validate() error {
	if len(p.DailyPlans) == 0 {
		return errors.New("diet plan has no days")
	}
	for _, day := range p.DailyPlans {
		for _, slot := range day.Meals() {
			for i := range slot.Recipes {
				if slot.Recipes[i].Servings <= 0 {
					return fmt.Errorf("%s %s recipe %q has servings %d, want > 0",
						day.Day, slot.Type, slot.Recipes[i].Name, slot.Recipes[i].Servings)
				}
			}
		}
	}
	return nil
}

// Recipes flattens every recipe in the plan, day by day.
func (p *DietPlan) Recipes() []Recipe {
	var out []Recipe
	for _, day := range p.DailyPlans {
		for _, slot := range day.Meals() {
			out = append(out, slot.Recipes...)
		}
	}
	return out
}

// NutritionalInfo answers a nutrition question. The maps keep the order the
// model produced them in.
type NutritionalInfo struct {
	QuerySummary         string                                   `json:"query_summary"`
	FoodRecommendations  []string                                 `json:"food_recommendations"`
	NutritionalBreakdown *orderedmap.OrderedMap[string, string]   `json:"nutritional_breakdown"`
	FoodSources          *orderedmap.OrderedMap[string, []string] `json:"food_sources"`
	AdditionalNotes      string                                   `json:"additional_notes"`
}

func (n *NutritionalInfo) Validate() error {
	if strings.TrimSpace(n.QuerySummary) == "" && len(n.FoodRecommendations) == 0 {
		return errors.New("nutritional info has neither summary nor recommendations")
	}
	return nil
}

// FlattenBreakdown renders the breakdown as "nutrient: value" entries joined
// by commas, in order.
func (n *NutritionalInfo) FlattenBreakdown() string {
	if n == nil || n.NutritionalBreakdown == nil {
		return ""
	}
	parts := make([]string, 0, n.NutritionalBreakdown.Len())
	for pair := n.NutritionalBreakdown.Oldest(); pair != nil; pair = pair.Next() {
		parts = append(parts, pair.Key+": "+pair.Value)
	}
	return strings.Join(parts, ", ")
}

// ClinicalCheck is the guardrail classification.
type ClinicalCheck struct {
	IsClinical  bool    `json:"is_clinical"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

func (c *ClinicalCheck) Validate() error {
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence %.2f outside [0,1]", c.Confidence)
	}
	return nil
}

// GroceryItem is one consolidated shopping entry.
type GroceryItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Category string  `json:"category"`
	Optional bool    `json:"optional,omitempty"`
}
