package nutritionist

import (
	"context"
	"errors"
	"log/slog"

	"nutrisense"
)

// ErrNoNutritionData is returned when the generated content carries no
// nutritional text to chart.
var ErrNoNutritionData = errors.New("no nutritional data found")

// ChartRenderer draws nutritional text to an image and returns its path.
type ChartRenderer interface {
	Render(title, text string) (string, error)
}

type Visualizer struct {
	renderer ChartRenderer
}

func NewVisualizer(r ChartRenderer) *Visualizer {
	return &Visualizer{renderer: r}
}

// ChartSource picks the text to chart and its title from content.
func ChartSource(c nutrisense.Content) (title, text string) {
	switch c.Kind {
	case nutrisense.ContentRecipe:
		return "Nutritional Information - " + c.Recipe.Name, c.Recipe.NutritionalInfo
	case nutrisense.ContentDietPlan:
		return "Nutritional Summary - " + c.DietPlan.PlanName, c.DietPlan.TotalNutritionalInfo
	case nutrisense.ContentNutritionalInfo:
		return "Nutritional Breakdown", c.NutritionalInfo.FlattenBreakdown()
	default:
		return "", ""
	}
}

func (v *Visualizer) Run(ctx context.Context, state *nutrisense.State) (nutrisense.Update, error) {
	content, err := state.Content()
	if err != nil {
		return nutrisense.Update{}, err
	}

	title, text := ChartSource(content)
	if text == "" {
		return nutrisense.Update{
			Messages: []nutrisense.Message{nutrisense.AssistantMessage(StepRenderVisualization, "No nutritional information available to visualize")},
		}, ErrNoNutritionData
	}

	slog.Info("VIZ: Rendering chart", "session_id", state.SessionID, "kind", content.Kind, "title", title)
	path, err := v.renderer.Render(title, text)
	if err != nil {
		return nutrisense.Update{
			Messages: []nutrisense.Message{nutrisense.AssistantMessage(StepRenderVisualization, "Error creating visualization: "+err.Error())},
		}, err
	}

	return nutrisense.Update{
		Visualization: path,
		Messages:      []nutrisense.Message{nutrisense.AssistantMessage(StepRenderVisualization, "Created nutrition visualization: "+path)},
	}, nil
}
