package nutritionist

import (
	"log/slog"

	"nutrisense"
	"nutrisense/workflow"
)

func ShouldContinueAfterGuardrail(state *nutrisense.State) string {
	if state.Terminal() {
		return workflow.End
	}
	return StepExtractIntent
}

// RouteAfterIntent sends the run to the content step matching the primary
// intent. Anything that is not a plan or a nutrition question gets a recipe.
func RouteAfterIntent(state *nutrisense.State) string {
	if state.Intent == nil {
		return StepGenerateRecipe
	}
	switch state.Intent.PrimaryIntent {
	case nutrisense.IntentNutritionalInfo:
		return StepGenerateNutritionalInfo
	case nutrisense.IntentDietPlan:
		return StepGenerateDietPlan
	default:
		return StepGenerateRecipe
	}
}

// RouteToVisualization charts the run's content when exactly one kind was
// generated.
func RouteToVisualization(state *nutrisense.State) string {
	content, err := state.Content()
	if err != nil {
		slog.Error("WORKFLOW: Conflicting content, skipping visualization", "session_id", state.SessionID, "error", err)
		return workflow.End
	}
	if content.Kind == nutrisense.ContentNone {
		return workflow.End
	}
	return StepRenderVisualization
}
