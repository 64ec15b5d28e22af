package nutritionist

import (
	"context"
	"log/slog"

	"nutrisense"
	"nutrisense/dataset"
)

const (
	// MetadataGroceryList is the state metadata key holding []nutrisense.GroceryItem.
	MetadataGroceryList = "grocery_list"
	// MetadataGroceryByCategory holds the same items grouped by GroceryByCategory.
	MetadataGroceryByCategory = "grocery_by_category"
)

type RecipeGenerator struct {
	generator
}

func NewRecipeGenerator(m nutrisense.Model, ds *dataset.Dataset, tp nutrisense.ToolProvider) *RecipeGenerator {
	return &RecipeGenerator{generator: newGenerator(m, recipeSystemPrompt, ds, tp)}
}

func (r *RecipeGenerator) Run(ctx context.Context, state *nutrisense.State) (nutrisense.Update, error) {
	text := recipeRequest(state.Query(), state.Intent)
	recipe, err := nutrisense.InvokeStructured[nutrisense.Recipe](ctx, r.model,
		r.request(nutrisense.RequestRecipe, text, nutrisense.RecipeSchema()))
	if err != nil {
		return nutrisense.Update{
			Messages: []nutrisense.Message{nutrisense.AssistantMessage(StepGenerateRecipe, "Error generating recipe: "+err.Error())},
		}, err
	}

	slog.Info("RESULT: Recipe generated", "session_id", state.SessionID, "name", recipe.Name,
		"ingredients", len(recipe.Ingredients), "servings", recipe.Servings)
	warnExcluded(state, *recipe)

	groceries := BuildGroceryList(*recipe)
	if wanted := RequestedServings(state.Query()); wanted > 0 && recipe.Servings > 0 && wanted != recipe.Servings {
		groceries = ScaleGroceryList(groceries, recipe.Servings, wanted)
		slog.Info("RESULT: Grocery list scaled", "session_id", state.SessionID, "from", recipe.Servings, "to", wanted)
	}

	return nutrisense.Update{
		Recipe:   recipe,
		Messages: []nutrisense.Message{nutrisense.AssistantMessage(StepGenerateRecipe, "Generated recipe: "+recipe.Name)},
		Metadata: groceryMetadata(groceries),
	}, nil
}

func groceryMetadata(items []nutrisense.GroceryItem) map[string]any {
	return map[string]any{
		MetadataGroceryList:       items,
		MetadataGroceryByCategory: GroceryByCategory(items),
	}
}

// warnExcluded logs recipes that mention an ingredient the user asked to
// avoid. Generation is not retried.
func warnExcluded(state *nutrisense.State, recipes ...nutrisense.Recipe) {
	if state.Intent == nil || len(state.Intent.ExcludedIngredients) == 0 {
		return
	}
	for _, recipe := range recipes {
		if v := ExcludedIngredientViolations(recipe, state.Intent.ExcludedIngredients); len(v) > 0 {
			slog.Warn("RESULT: Recipe mentions excluded ingredients",
				"session_id", state.SessionID, "recipe", recipe.Name, "violations", v)
		}
	}
}
