package mock

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"nutrisense"
)

var (
	clinicalTerms = []string{
		"diabetes", "insulin", "medication", "prescription", "disease", "diagnos",
		"cancer", "kidney", "hypertension", "blood pressure", "eating disorder", "symptom",
	}
	infoTerms   = []string{"which foods", "what foods", "how much", "rich in", "sources of", "nutrient", "vitamin", "mineral"}
	planTerms   = []string{"plan", "week", "day"}
	restrictors = []string{"vegetarian", "vegan", "gluten-free", "dairy-free", "keto", "low-carb"}

	excludedRe = regexp.MustCompile(`(?i)\b(?:without|no|avoid)\s+([a-z]+)`)
	exactDays  = regexp.MustCompile(`EXACTLY (\d+) days`)
)

func demo(req nutrisense.ModelRequest) (json.RawMessage, error) {
	text := lastUser(req.Messages)
	lower := strings.ToLower(text)

	var v any
	switch req.Name {
	case nutrisense.RequestClinicalCheck:
		v = demoClinical(lower)
	case nutrisense.RequestIntent:
		v = demoIntent(lower)
	case nutrisense.RequestRecipe:
		v = demoRecipe("Spinach Chickpea Bowl")
	case nutrisense.RequestDietPlan:
		v = demoPlan(text)
	case nutrisense.RequestNutritionalInfo:
		v = demoInfo()
	default:
		return nil, &nutrisense.ModelError{Model: req.Name, Kind: nutrisense.ModelErrorUnavailable, Err: fmt.Errorf("demo has no answer for %q", req.Name)}
	}
	return json.Marshal(v)
}

func lastUser(msgs []nutrisense.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == nutrisense.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func demoClinical(q string) nutrisense.ClinicalCheck {
	if containsAny(q, clinicalTerms) {
		return nutrisense.ClinicalCheck{
			IsClinical:  true,
			Confidence:  0.92,
			Explanation: "The request involves managing a medical condition.",
		}
	}
	return nutrisense.ClinicalCheck{Confidence: 0.95, Explanation: "General nutrition request."}
}

func demoIntent(q string) nutrisense.Intent {
	intent := nutrisense.Intent{
		PrimaryIntent:       nutrisense.IntentSingleRecipe,
		MealType:            []nutrisense.MealType{},
		DietaryRestrictions: []string{},
		HealthGoals:         []string{},
		SpecificFoods:       []string{},
		ExcludedIngredients: []string{},
		TimeContext:         nutrisense.TimeSingleMeal,
		RecipeSpecificity:   nutrisense.GeneralDish,
	}

	switch {
	case containsAny(q, infoTerms):
		intent.PrimaryIntent = nutrisense.IntentNutritionalInfo
		intent.TimeContext = nutrisense.TimeNone
		intent.RecipeSpecificity = nutrisense.FoodCategory
	case containsAny(q, planTerms):
		intent.PrimaryIntent = nutrisense.IntentDietPlan
		intent.TimeContext = nutrisense.TimeDailyPlan
		if strings.Contains(q, "week") {
			intent.TimeContext = nutrisense.TimeWeeklyPlan
		}
		intent.MealType = []nutrisense.MealType{nutrisense.MealBreakfast, nutrisense.MealLunch, nutrisense.MealDinner}
	}

	for _, mt := range nutrisense.MealTypes {
		if strings.Contains(q, string(mt)) && intent.PrimaryIntent == nutrisense.IntentSingleRecipe {
			intent.MealType = append(intent.MealType, mt)
		}
	}
	if len(intent.MealType) == 0 {
		intent.MealType = []nutrisense.MealType{nutrisense.MealDinner}
	}

	for _, r := range restrictors {
		if strings.Contains(q, r) {
			intent.DietaryRestrictions = append(intent.DietaryRestrictions, r)
		}
	}
	for _, m := range excludedRe.FindAllStringSubmatch(q, -1) {
		intent.ExcludedIngredients = append(intent.ExcludedIngredients, m[1])
	}
	if strings.Contains(q, "protein") {
		intent.NutritionalRequirements = "high protein"
	}
	if strings.Contains(q, "weight") {
		intent.HealthGoals = append(intent.HealthGoals, "weight loss")
	}
	return intent
}

func demoRecipe(name string) nutrisense.Recipe {
	return nutrisense.Recipe{
		Name: name,
		Ingredients: []string{
			"1 cup cooked chickpeas",
			"2 cups spinach",
			"0.5 cup quinoa",
			"1 tbsp olive oil",
			"1 tsp cumin",
			"1 lemon",
		},
		Instructions: []string{
			"Cook the quinoa according to package directions.",
			"Warm the olive oil and wilt the spinach with cumin.",
			"Toss chickpeas, quinoa and spinach; finish with lemon juice.",
		},
		PrepTime:        "10 minutes",
		CookTime:        "15 minutes",
		TotalTime:       "25 minutes",
		Servings:        2,
		NutritionalInfo: "Calories: Approximately 476 calories, Protein: 18g, Carbohydrates: 62g, Fat: 16g, Fiber: 14g",
	}
}

func demoPlan(text string) nutrisense.DietPlan {
	days := 1
	if m := exactDays.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			days = n
		}
	}

	plan := nutrisense.DietPlan{
		PlanName:             fmt.Sprintf("%d-Day Balanced Plan", days),
		Duration:             fmt.Sprintf("%d days", days),
		TotalNutritionalInfo: "Calories: 1850 kcal, Protein: 95g, Carbohydrates: 210g, Fat: 60g",
		ShoppingList:         []string{"oats", "berries", "chickpeas", "spinach", "quinoa", "salmon", "broccoli"},
	}
	for d := 1; d <= days; d++ {
		breakfast := demoRecipe("Berry Overnight Oats")
		breakfast.Ingredients = []string{"0.5 cup oats", "1 cup milk", "0.5 cup berries"}
		dinner := demoRecipe("Lemon Salmon with Broccoli")
		dinner.Ingredients = []string{"6 oz salmon", "2 cups broccoli", "1 tbsp olive oil"}

		plan.DailyPlans = append(plan.DailyPlans, nutrisense.DayPlan{
			Day:       fmt.Sprintf("Day %d", d),
			Breakfast: []nutrisense.Recipe{breakfast},
			Lunch:     []nutrisense.Recipe{demoRecipe("Spinach Chickpea Bowl")},
			Dinner:    []nutrisense.Recipe{dinner},
		})
	}
	return plan
}

func demoInfo() map[string]any {
	return map[string]any{
		"query_summary":        "Foods rich in calcium",
		"food_recommendations": []string{"Kale", "Tofu", "Yogurt", "Sardines", "Almonds"},
		"nutritional_breakdown": map[string]string{
			"Calcium": "1000mg daily",
			"Protein": "50g daily",
		},
		"food_sources": map[string][]string{
			"Leafy greens": {"kale", "bok choy"},
			"Dairy":        {"yogurt", "cheese"},
		},
		"additional_notes": "Pair calcium sources with vitamin D for absorption.",
	}
}
