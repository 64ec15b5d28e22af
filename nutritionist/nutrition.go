package nutritionist

import (
	"context"
	"log/slog"

	"nutrisense"
	"nutrisense/dataset"
)

// NutritionAdvisor answers questions about foods and nutrients without
// producing recipes.
type NutritionAdvisor struct {
	generator
}

func NewNutritionAdvisor(m nutrisense.Model, ds *dataset.Dataset, tp nutrisense.ToolProvider) *NutritionAdvisor {
	return &NutritionAdvisor{generator: newGenerator(m, nutritionSystemPrompt, ds, tp)}
}

func (a *NutritionAdvisor) Run(ctx context.Context, state *nutrisense.State) (nutrisense.Update, error) {
	text := nutritionRequest(state.Query(), state.Intent)
	info, err := nutrisense.InvokeStructured[nutrisense.NutritionalInfo](ctx, a.model,
		a.request(nutrisense.RequestNutritionalInfo, text, nutrisense.NutritionalInfoSchema()))
	if err != nil {
		return nutrisense.Update{
			Messages: []nutrisense.Message{nutrisense.AssistantMessage(StepGenerateNutritionalInfo, "Error getting nutritional information: "+err.Error())},
		}, err
	}

	breakdown := 0
	if info.NutritionalBreakdown != nil {
		breakdown = info.NutritionalBreakdown.Len()
	}
	slog.Info("RESULT: Nutritional info generated", "session_id", state.SessionID,
		"recommendations", len(info.FoodRecommendations), "breakdown", breakdown)

	return nutrisense.Update{
		NutritionalInfo: info,
		Messages:        []nutrisense.Message{nutrisense.AssistantMessage(StepGenerateNutritionalInfo, "Answered: "+info.QuerySummary)},
	}, nil
}
