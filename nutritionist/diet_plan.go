package nutritionist

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"nutrisense"
	"nutrisense/dataset"
)

type DietPlanner struct {
	generator
}

func NewDietPlanner(m nutrisense.Model, ds *dataset.Dataset, tp nutrisense.ToolProvider) *DietPlanner {
	return &DietPlanner{generator: newGenerator(m, dietPlanSystemPrompt, ds, tp)}
}

var requestedDayPatterns = []struct {
	re   *regexp.Regexp
	days int
}{
	{regexp.MustCompile(`\b3[- ]days?\b`), 3},
	{regexp.MustCompile(`\b5[- ]days?\b`), 5},
	{regexp.MustCompile(`\bweek(ly)?\b|\b7[- ]days?\b`), 7},
}

// RequestedDays returns the plan length named in text, or 0 when none is.
func RequestedDays(text string) int {
	t := strings.ToLower(text)
	for _, p := range requestedDayPatterns {
		if p.re.MatchString(t) {
			return p.days
		}
	}
	return 0
}

func (p *DietPlanner) Run(ctx context.Context, state *nutrisense.State) (nutrisense.Update, error) {
	query := state.Query()
	days := RequestedDays(query)

	plan, err := nutrisense.InvokeStructured[nutrisense.DietPlan](ctx, p.model,
		p.request(nutrisense.RequestDietPlan, dietPlanRequest(query, days, state.Intent), nutrisense.DietPlanSchema()))
	if err == nil {
		err = enforceDays(state.SessionID, plan, days)
	}
	if err != nil {
		return nutrisense.Update{
			Messages: []nutrisense.Message{nutrisense.AssistantMessage(StepGenerateDietPlan,
				fmt.Sprintf("I encountered an issue creating your diet plan: %v. Let me try creating a single recipe instead.", err))},
		}, err
	}

	recipes := plan.Recipes()
	slog.Info("RESULT: Diet plan generated", "session_id", state.SessionID, "plan", plan.PlanName,
		"days", len(plan.DailyPlans), "recipes", len(recipes))
	warnExcluded(state, recipes...)

	return nutrisense.Update{
		DietPlan: plan,
		Messages: []nutrisense.Message{nutrisense.AssistantMessage(StepGenerateDietPlan,
			fmt.Sprintf("Generated diet plan: %s (%d days)", plan.PlanName, len(plan.DailyPlans)))},
		Metadata: groceryMetadata(BuildGroceryList(recipes...)),
	}, nil
}

// enforceDays truncates a plan longer than requested and rejects a shorter one.
func enforceDays(sessionID string, plan *nutrisense.DietPlan, days int) error {
	if days <= 0 {
		return nil
	}
	got := len(plan.DailyPlans)
	switch {
	case got > days:
		slog.Warn("RESULT: Truncating diet plan", "session_id", sessionID, "requested_days", days, "returned_days", got)
		plan.DailyPlans = plan.DailyPlans[:days]
	case got < days:
		return fmt.Errorf("diet plan has %d days, want %d", got, days)
	}
	return nil
}
