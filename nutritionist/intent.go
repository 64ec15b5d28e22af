package nutritionist

import (
	"context"
	"log/slog"

	"nutrisense"
)

// IntentExtractor classifies the request. It never leaves the intent unset:
// on failure the default intent routes the run to a single recipe.
type IntentExtractor struct {
	model nutrisense.Model
}

func NewIntentExtractor(m nutrisense.Model) *IntentExtractor {
	return &IntentExtractor{model: m}
}

func (e *IntentExtractor) Run(ctx context.Context, state *nutrisense.State) (nutrisense.Update, error) {
	intent, err := nutrisense.InvokeStructured[nutrisense.Intent](ctx, e.model, nutrisense.ModelRequest{
		Name:         nutrisense.RequestIntent,
		SystemPrompt: intentSystemPrompt,
		Messages:     []nutrisense.Message{nutrisense.UserMessage(state.Query())},
		Schema:       nutrisense.IntentSchema(),
	})
	if err != nil {
		slog.Warn("STEP: Falling back to default intent", "session_id", state.SessionID, "error", err)
		return nutrisense.Update{
			Intent:   nutrisense.DefaultIntent(),
			Messages: []nutrisense.Message{nutrisense.AssistantMessage(StepExtractIntent, "Intent analysis error: "+err.Error())},
		}, err
	}

	slog.Info("RESULT: Intent extracted",
		"session_id", state.SessionID,
		"primary_intent", intent.PrimaryIntent,
		"time_context", intent.TimeContext,
		"specificity", intent.RecipeSpecificity,
		"excluded", intent.ExcludedIngredients,
	)
	return nutrisense.Update{Intent: intent}, nil
}
