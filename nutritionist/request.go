package nutritionist

import (
	"fmt"
	"strings"

	"nutrisense"
	"nutrisense/dataset"
	"nutrisense/tools"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// generator carries what the content steps share: the model, the system
// prompt with the dataset filled in, and the tools offered to the model.
type generator struct {
	model  nutrisense.Model
	prompt string
	tools  []tools.Tool
}

func newGenerator(m nutrisense.Model, prompt string, ds *dataset.Dataset, tp nutrisense.ToolProvider) generator {
	var markdown string
	if ds != nil {
		markdown = ds.Markdown()
	}
	var available []tools.Tool
	if tp != nil {
		available = tp.GetTools()
	}
	return generator{model: m, prompt: withDataset(prompt, markdown), tools: available}
}

func (g generator) request(name, text string, schema *jsonschema.Schema) nutrisense.ModelRequest {
	return nutrisense.ModelRequest{
		Name:         name,
		SystemPrompt: g.prompt,
		Messages:     []nutrisense.Message{nutrisense.UserMessage(text)},
		Schema:       schema,
		Tools:        g.tools,
	}
}

func joined(items []string) string { return strings.Join(items, ", ") }

func mealTypes(mt []nutrisense.MealType) string {
	out := make([]string, len(mt))
	for i, m := range mt {
		out[i] = string(m)
	}
	return joined(out)
}

func recipeRequest(query string, intent *nutrisense.Intent) string {
	parts := []string{"RECIPE REQUEST: " + query}

	if intent != nil {
		parts = append(parts, "\n🎯 ANALYSIS RESULTS:")
		switch intent.RecipeSpecificity {
		case nutrisense.SpecificRecipe:
			parts = append(parts,
				"⚠️ SPECIFIC RECIPE REQUESTED: Create the EXACT dish mentioned in the request.",
				"   - Do NOT substitute with similar dishes",
				"   - Match the exact format (bowl vs salad vs dressing)")
		case nutrisense.GeneralDish:
			parts = append(parts, "📋 GENERAL DISH: Create a suitable recipe that meets the criteria.")
		}
		if len(intent.ExcludedIngredients) > 0 {
			parts = append(parts, "🚫 EXCLUDED INGREDIENTS: "+joined(intent.ExcludedIngredients))
		}
		if len(intent.SpecificFoods) > 0 {
			parts = append(parts, "✅ INCLUDE THESE FOODS: "+joined(intent.SpecificFoods))
		}
		if len(intent.DietaryRestrictions) > 0 {
			parts = append(parts, "🥗 DIETARY RESTRICTIONS: "+joined(intent.DietaryRestrictions))
		}
		if intent.NutritionalRequirements != "" {
			parts = append(parts, "📊 NUTRITIONAL FOCUS: "+intent.NutritionalRequirements)
		}
		if len(intent.HealthGoals) > 0 {
			parts = append(parts, "💪 HEALTH GOALS: "+joined(intent.HealthGoals))
		}
		if len(intent.MealType) > 0 {
			parts = append(parts, "🍽️ MEAL TYPE: "+mealTypes(intent.MealType))
		}
	}

	parts = append(parts, `
📝 RECIPE REQUIREMENTS:
1. Create the EXACT dish type requested
2. Include complete ingredients with precise measurements
3. Provide clear step-by-step instructions
4. Calculate detailed nutritional information per serving
5. Respect all dietary restrictions and excluded ingredients
6. Search first if the dish is unfamiliar`)
	return strings.Join(parts, "\n")
}

func dietPlanRequest(query string, days int, intent *nutrisense.Intent) string {
	parts := []string{"DIET PLAN REQUEST: " + query}

	if days > 0 {
		parts = append(parts,
			fmt.Sprintf("\n⚠️ CRITICAL: Create EXACTLY %d days of meal plans!", days),
			fmt.Sprintf("The user asked for %d days, so daily_plans must have exactly %d entries.", days, days))
	}

	if intent != nil {
		parts = append(parts, "\n🎯 PLAN REQUIREMENTS:")
		if len(intent.MealType) > 0 {
			parts = append(parts, "🍽️ Meal types needed: "+mealTypes(intent.MealType))
		} else {
			parts = append(parts, "🍽️ Meal types needed: breakfast, lunch, dinner, snack")
		}
		if len(intent.DietaryRestrictions) > 0 {
			parts = append(parts, "🥗 Dietary restrictions: "+joined(intent.DietaryRestrictions))
		}
		if len(intent.ExcludedIngredients) > 0 {
			parts = append(parts, "🚫 Excluded ingredients: "+joined(intent.ExcludedIngredients))
		}
		if intent.NutritionalRequirements != "" {
			parts = append(parts, "📊 Nutritional focus: "+intent.NutritionalRequirements)
		}
		if len(intent.HealthGoals) > 0 {
			parts = append(parts, "💪 Health goals: "+joined(intent.HealthGoals))
		}
		if len(intent.SpecificFoods) > 0 {
			parts = append(parts, "✅ Include these foods: "+joined(intent.SpecificFoods))
		}
	}

	count := "the requested number of"
	if days > 0 {
		count = fmt.Sprint(days)
	}
	parts = append(parts, fmt.Sprintf(`
📝 DIET PLAN REQUIREMENTS:
1. Create EXACTLY %s days
2. Give each day breakfast, lunch, dinner and snack arrays
3. Give each recipe complete ingredients, instructions, timing and nutrition
4. Keep variety across days while meeting calorie and dietary requirements
5. Provide a complete shopping list
6. Summarize the daily nutrition totals`, count))
	return strings.Join(parts, "\n")
}

func nutritionRequest(query string, intent *nutrisense.Intent) string {
	parts := []string{"NUTRITION QUESTION: " + query}

	if intent != nil {
		parts = append(parts, "\nContext from intent analysis:")
		if intent.NutritionalRequirements != "" {
			parts = append(parts, "- Nutritional focus: "+intent.NutritionalRequirements)
		}
		if len(intent.DietaryRestrictions) > 0 {
			parts = append(parts, "- Dietary restrictions: "+joined(intent.DietaryRestrictions))
		}
		if len(intent.ExcludedIngredients) > 0 {
			parts = append(parts, "- Excluded ingredients: "+joined(intent.ExcludedIngredients))
		}
		if len(intent.SpecificFoods) > 0 {
			parts = append(parts, "- Specific foods mentioned: "+joined(intent.SpecificFoods))
		}
		if len(intent.HealthGoals) > 0 {
			parts = append(parts, "- Health goals: "+joined(intent.HealthGoals))
		}
	}

	parts = append(parts, `
Please provide:
1. Specific foods (not recipes) that meet the criteria
2. Nutritional information with quantities where possible
3. Food sources organized by category
4. Important nutritional context`)
	return strings.Join(parts, "\n")
}
