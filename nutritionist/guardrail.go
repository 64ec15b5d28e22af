// Package nutritionist holds the workflow steps, routers and prompts that
// turn a nutrition request into a recipe, diet plan or nutrition answer.
package nutritionist

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"nutrisense"
)

// Node names.
const (
	StepClinicalCheck           = "clinical_check"
	StepExtractIntent           = "extract_intent"
	StepGenerateRecipe          = "generate_recipe"
	StepGenerateDietPlan        = "generate_diet_plan"
	StepGenerateNutritionalInfo = "generate_nutritional_info"
	StepRenderVisualization     = "render_visualization"
)

const (
	emptyQueryMessage   = "⚠️ Please provide a valid question."
	emptyQueryReason    = "Empty or invalid query"
	guardrailErrMessage = "⚠️ Error processing your request. Please try again."
)

// Guardrail stops requests that ask for diagnosis or treatment before any
// content is generated.
type Guardrail struct {
	model nutrisense.Model
}

func NewGuardrail(m nutrisense.Model) *Guardrail {
	return &Guardrail{model: m}
}

func (g *Guardrail) Run(ctx context.Context, state *nutrisense.State) (nutrisense.Update, error) {
	if strings.TrimSpace(state.LastMessage()) == "" {
		slog.Warn("STEP: Empty query", "session_id", state.SessionID, "step", StepClinicalCheck)
		return nutrisense.Update{
			Messages: []nutrisense.Message{nutrisense.AssistantMessage(StepClinicalCheck, emptyQueryMessage)},
			Blocked:  emptyQueryReason,
		}, nutrisense.ErrEmptyQuery
	}

	check, err := nutrisense.InvokeStructured[nutrisense.ClinicalCheck](ctx, g.model, nutrisense.ModelRequest{
		Name:         nutrisense.RequestClinicalCheck,
		SystemPrompt: clinicalSystemPrompt,
		Messages:     slices.Clone(state.Messages),
		Schema:       nutrisense.ClinicalCheckSchema(),
	})
	if err != nil {
		return nutrisense.Update{
			Messages: []nutrisense.Message{nutrisense.AssistantMessage(StepClinicalCheck, guardrailErrMessage)},
		}, err
	}

	slog.Info("RESULT: Clinical check", "session_id", state.SessionID, "is_clinical", check.IsClinical, "confidence", check.Confidence)
	if !check.IsClinical {
		return nutrisense.Update{ClinicalCheck: check}, nil
	}

	reason := strings.TrimSpace(check.Explanation)
	if reason == "" {
		reason = "Clinical query"
	}
	return nutrisense.Update{
		Messages:      []nutrisense.Message{nutrisense.AssistantMessage(StepClinicalCheck, clinicalRedirect(check.Explanation))},
		Blocked:       reason,
		ClinicalCheck: check,
	}, nil
}

func clinicalRedirect(explanation string) string {
	return fmt.Sprintf("⚠️ I understand you're asking about a medical condition. %s\n\n"+
		"For medical advice, diagnosis, or treatment recommendations, please consult with a qualified healthcare professional. "+
		"I'm here to help with nutrition and recipe recommendations instead!\n\n"+
		"Is there anything nutrition-related I can help you with today?", strings.TrimSpace(explanation))
}
