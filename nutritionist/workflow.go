package nutritionist

import (
	"errors"

	"nutrisense"
	"nutrisense/dataset"
	"nutrisense/workflow"
)

// Deps are the collaborators injected into every step. Dataset and Tools
// are optional.
type Deps struct {
	Model    nutrisense.Model
	Dataset  *dataset.Dataset
	Tools    nutrisense.ToolProvider
	Renderer ChartRenderer
}

// NewWorkflow wires the nutrition graph:
//
//	clinical_check -> extract_intent -> {recipe | diet plan | nutritional info} -> render_visualization
func NewWorkflow(deps Deps, opts ...workflow.Option) (*workflow.Graph, error) {
	if deps.Model == nil {
		return nil, errors.New("nutritionist: model is required")
	}
	if deps.Renderer == nil {
		return nil, errors.New("nutritionist: chart renderer is required")
	}

	content := []string{StepGenerateRecipe, StepGenerateDietPlan, StepGenerateNutritionalInfo}

	b := workflow.NewBuilder().
		AddNode(StepClinicalCheck, NewGuardrail(deps.Model).Run, workflow.FailClosed()).
		AddNode(StepExtractIntent, NewIntentExtractor(deps.Model).Run).
		AddNode(StepGenerateRecipe, NewRecipeGenerator(deps.Model, deps.Dataset, deps.Tools).Run).
		AddNode(StepGenerateDietPlan, NewDietPlanner(deps.Model, deps.Dataset, deps.Tools).Run).
		AddNode(StepGenerateNutritionalInfo, NewNutritionAdvisor(deps.Model, deps.Dataset, deps.Tools).Run).
		AddNode(StepRenderVisualization, NewVisualizer(deps.Renderer).Run).
		SetEntry(StepClinicalCheck).
		AddConditionalEdges(StepClinicalCheck, ShouldContinueAfterGuardrail, StepExtractIntent).
		AddConditionalEdges(StepExtractIntent, RouteAfterIntent, content...).
		AddEdge(StepRenderVisualization, workflow.End)
	for _, step := range content {
		b.AddConditionalEdges(step, RouteToVisualization, StepRenderVisualization)
	}
	return b.Compile(opts...)
}
