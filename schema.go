package nutrisense

import "github.com/modelcontextprotocol/go-sdk/jsonschema"

func stringSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func stringListSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Description: desc, Items: &jsonschema.Schema{Type: "string"}}
}

func enumSchema[T ~string](desc string, values []T) *jsonschema.Schema {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = string(v)
	}
	return &jsonschema.Schema{Type: "string", Description: desc, Enum: enum}
}

// ClinicalCheckSchema constrains the guardrail classification.
func ClinicalCheckSchema() *jsonschema.Schema {
	zero, one := 0.0, 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"is_clinical": {Type: "boolean", Description: "Whether the query asks for medical or clinical advice"},
			"confidence":  {Type: "number", Minimum: &zero, Maximum: &one},
			"explanation": stringSchema("Brief explanation of the decision"),
		},
		Required: []string{"is_clinical", "confidence", "explanation"},
	}
}

func IntentSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"primary_intent": enumSchema("Main purpose of the request", PrimaryIntents),
			"meal_type": {
				Type:  "array",
				Items: enumSchema("", MealTypes),
			},
			"dietary_restrictions":     stringListSchema("e.g. vegetarian, gluten-free"),
			"nutritional_requirements": stringSchema("e.g. high protein, low calorie"),
			"health_goals":             stringListSchema("e.g. weight loss, muscle gain"),
			"specific_foods":           stringListSchema("Foods the user wants included"),
			"excluded_ingredients":     stringListSchema("Foods the user lacks or wants to avoid"),
			"time_context":             enumSchema("Temporal scope of the request", TimeContexts),
			"recipe_specificity":       enumSchema("How specific the dish request is", RecipeSpecificities),
		},
		Required: []string{
			"primary_intent", "meal_type", "dietary_restrictions", "nutritional_requirements",
			"health_goals", "specific_foods", "excluded_ingredients", "time_context", "recipe_specificity",
		},
	}
}

func RecipeSchema() *jsonschema.Schema {
	one := 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name":             stringSchema("Recipe name"),
			"ingredients":      stringListSchema("Ingredients with quantities, e.g. \"2 cups spinach\""),
			"instructions":     stringListSchema("Ordered preparation steps"),
			"prep_time":        stringSchema(""),
			"cook_time":        stringSchema(""),
			"total_time":       stringSchema(""),
			"servings":         {Type: "integer", Minimum: &one},
			"nutritional_info": stringSchema("Per serving, comma separated, e.g. \"Calories: 450 kcal, Protein: 30g\""),
		},
		Required: []string{"name", "ingredients", "instructions", "prep_time", "cook_time", "total_time", "servings", "nutritional_info"},
	}
}

func DietPlanSchema() *jsonschema.Schema {
	meals := &jsonschema.Schema{Type: "array", Items: RecipeSchema()}
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"plan_name": stringSchema(""),
			"duration":  stringSchema("e.g. \"3 days\", \"1 week\""),
			"daily_plans": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"day":       stringSchema("e.g. \"Day 1\""),
						"breakfast": meals,
						"lunch":     meals,
						"dinner":    meals,
						"snack":     meals,
					},
					Required: []string{"day", "breakfast", "lunch", "dinner"},
				},
			},
			"total_nutritional_info": stringSchema("Daily average, comma separated, e.g. \"Calories: 1800 kcal, Protein: 90g\""),
			"shopping_list":          stringListSchema(""),
		},
		Required: []string{"plan_name", "duration", "daily_plans", "total_nutritional_info", "shopping_list"},
	}
}

func NutritionalInfoSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query_summary":        stringSchema(""),
			"food_recommendations": stringListSchema(""),
			"nutritional_breakdown": {
				Type:                 "object",
				Description:          "Nutrient to amount, e.g. {\"Calcium\": \"1000mg daily\"}",
				AdditionalProperties: &jsonschema.Schema{Type: "string"},
			},
			"food_sources": {
				Type:                 "object",
				Description:          "Category to foods, e.g. {\"Leafy greens\": [\"kale\"]}",
				AdditionalProperties: &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			},
			"additional_notes": stringSchema(""),
		},
		Required: []string{"query_summary", "food_recommendations", "nutritional_breakdown", "food_sources", "additional_notes"},
	}
}
