// Package present turns workflow snapshots into chat messages and drives a
// run for a single request.
package present

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"nutrisense"
	"nutrisense/nutritionist"
)

const (
	maxShoppingItems   = 25
	maxRecommendations = 12
	maxSourcesPerGroup = 8
	fieldBlocked       = "blocked"
	fieldIntent        = "intent"
	fieldVisualization = "visualization"
	fieldError         = "error"
)

// Presenter renders each state field at most once per run. It is not safe
// for concurrent use; create one per run.
type Presenter struct {
	displayed map[string]bool
	maxLen    int
}

func NewPresenter() *Presenter {
	return &Presenter{displayed: map[string]bool{}, maxLen: MaxMessageLen}
}

func (p *Presenter) once(field string) bool {
	if p.displayed[field] {
		return false
	}
	p.displayed[field] = true
	return true
}

// Displayed reports whether field has been rendered.
func (p *Presenter) Displayed(field string) bool { return p.displayed[field] }

// Present returns the messages for whatever in state has not been shown yet.
// A terminal state yields only its block message.
func (p *Presenter) Present(state nutrisense.State) []string {
	if state.Terminal() {
		if !p.once(fieldBlocked) {
			return nil
		}
		return p.chunk(blockedMessage(state))
	}

	var sections []string
	if state.Intent != nil && p.once(fieldIntent) {
		sections = append(sections, IntentSummary(state.Intent))
	}

	content, err := state.Content()
	if err != nil {
		slog.Error("PRESENTER: Cannot render content", "session_id", state.SessionID, "error", err)
	} else if content.Kind != nutrisense.ContentNone && p.once(content.Kind.String()) {
		switch content.Kind {
		case nutrisense.ContentRecipe:
			sections = append(sections, RecipeSections(content.Recipe)...)
		case nutrisense.ContentDietPlan:
			sections = append(sections, DietPlanSections(content.DietPlan)...)
		case nutrisense.ContentNutritionalInfo:
			sections = append(sections, NutritionalInfoSections(content.NutritionalInfo)...)
		}
	}

	if state.Visualization != "" && p.once(fieldVisualization) {
		sections = append(sections, visualizationSection(state.Visualization))
	}
	return p.chunk(sections...)
}

// Finish reports a failed run that produced nothing else, so every request
// gets at least one reply when a step failed.
func (p *Presenter) Finish(state nutrisense.State) []string {
	if state.Error == "" || p.displayed[fieldBlocked] {
		return nil
	}
	for _, kind := range []nutrisense.ContentKind{nutrisense.ContentRecipe, nutrisense.ContentDietPlan, nutrisense.ContentNutritionalInfo} {
		if p.displayed[kind.String()] {
			return nil
		}
	}
	if !p.once(fieldError) {
		return nil
	}

	msg := state.Error
	if last := lastAssistant(state, ""); last != "" {
		msg = last
	}
	return p.chunk("❌ **Error**: " + msg)
}

func (p *Presenter) chunk(sections ...string) []string {
	var out []string
	for _, s := range sections {
		out = append(out, Chunk(s, p.maxLen)...)
	}
	return out
}

func lastAssistant(state nutrisense.State, step string) string {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		m := state.Messages[i]
		if m.Role == nutrisense.RoleAssistant && (step == "" || m.Name == step) {
			return m.Content
		}
	}
	return ""
}

func blockedMessage(state nutrisense.State) string {
	if msg := lastAssistant(state, nutritionist.StepClinicalCheck); msg != "" {
		return msg
	}
	return "⚠️ **Safety Notice**: " + state.Blocked
}

func titleWords(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func IntentSummary(intent *nutrisense.Intent) string {
	var b strings.Builder
	b.WriteString("## 🎯 Request Analysis\n\n")
	fmt.Fprintf(&b, "**Type:** %s\n", titleWords(string(intent.PrimaryIntent)))
	fmt.Fprintf(&b, "**Specificity:** %s\n", titleWords(string(intent.RecipeSpecificity)))
	if len(intent.MealType) > 0 {
		meals := make([]string, len(intent.MealType))
		for i, m := range intent.MealType {
			meals[i] = titleWords(string(m))
		}
		fmt.Fprintf(&b, "**Meal:** %s\n", strings.Join(meals, ", "))
	}
	if len(intent.DietaryRestrictions) > 0 {
		fmt.Fprintf(&b, "**Restrictions:** %s\n", strings.Join(intent.DietaryRestrictions, ", "))
	}
	if len(intent.ExcludedIngredients) > 0 {
		fmt.Fprintf(&b, "**Avoiding:** %s\n", strings.Join(intent.ExcludedIngredients, ", "))
	}
	if intent.NutritionalRequirements != "" {
		fmt.Fprintf(&b, "**Focus:** %s\n", intent.NutritionalRequirements)
	}
	return b.String()
}

// RecipeSections renders the header with nutrition, the ingredients and the
// instructions as separate messages.
func RecipeSections(r *nutrisense.Recipe) []string {
	header := fmt.Sprintf("# 🍳 %s\n\n⏱️ **Prep:** %s | 🔥 **Cook:** %s | 🍽️ **Serves:** %d\n\n## 📊 Nutritional Information\n%s\n",
		r.Name, r.PrepTime, r.CookTime, r.Servings, r.NutritionalInfo)

	var ing strings.Builder
	ing.WriteString("## 🛒 Ingredients\n")
	for _, i := range r.Ingredients {
		fmt.Fprintf(&ing, "• %s\n", i)
	}

	var steps strings.Builder
	steps.WriteString("## 👨‍🍳 Instructions\n")
	for i, s := range r.Instructions {
		fmt.Fprintf(&steps, "**%d.** %s\n\n", i+1, s)
	}
	return []string{header, ing.String(), steps.String()}
}

var mealLabels = map[nutrisense.MealType]string{
	nutrisense.MealBreakfast: "🌅 Breakfast",
	nutrisense.MealLunch:     "🌞 Lunch",
	nutrisense.MealDinner:    "🌙 Dinner",
	nutrisense.MealSnack:     "🍎 Snacks",
}

// DietPlanSections renders the plan header, one message per day and the
// shopping list.
func DietPlanSections(plan *nutrisense.DietPlan) []string {
	header := fmt.Sprintf("# 📅 %s\n\n**Duration:** %s\n", plan.PlanName, plan.Duration)
	if plan.TotalNutritionalInfo != "" {
		header += fmt.Sprintf("**Nutritional Summary:** %s\n", plan.TotalNutritionalInfo)
	}
	out := []string{header}

	for _, day := range plan.DailyPlans {
		var b strings.Builder
		fmt.Fprintf(&b, "## %s\n\n", day.Day)
		for _, slot := range day.Meals() {
			fmt.Fprintf(&b, "### %s\n\n", mealLabels[slot.Type])
			for _, r := range slot.Recipes {
				writePlanRecipe(&b, r)
			}
		}
		out = append(out, b.String())
	}

	if len(plan.ShoppingList) > 0 {
		var b strings.Builder
		b.WriteString("## 🛒 Complete Shopping List\n\n")
		for i, item := range plan.ShoppingList {
			if i == maxShoppingItems {
				fmt.Fprintf(&b, "\n*...and %d more items*\n", len(plan.ShoppingList)-maxShoppingItems)
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, item)
		}
		out = append(out, b.String())
	}
	return out
}

func writePlanRecipe(b *strings.Builder, r nutrisense.Recipe) {
	fmt.Fprintf(b, "#### 🍳 %s\n\n", r.Name)
	fmt.Fprintf(b, "⏱️ **Prep:** %s | 🔥 **Cook:** %s | 🍽️ **Serves:** %d\n", r.PrepTime, r.CookTime, r.Servings)
	if r.NutritionalInfo != "" {
		fmt.Fprintf(b, "📊 **Nutrition:** %s\n", r.NutritionalInfo)
	}
	b.WriteString("\n**🛒 Ingredients:**\n")
	for _, i := range r.Ingredients {
		fmt.Fprintf(b, "• %s\n", i)
	}
	if len(r.Instructions) > 0 {
		b.WriteString("\n**👨‍🍳 Instructions:**\n")
		for i, s := range r.Instructions {
			fmt.Fprintf(b, "%d. %s\n", i+1, s)
		}
	}
	b.WriteString("\n")
}

func NutritionalInfoSections(info *nutrisense.NutritionalInfo) []string {
	out := []string{fmt.Sprintf("# 🥗 Nutritional Information\n\n**Your Question:** %s\n", info.QuerySummary)}

	if len(info.FoodRecommendations) > 0 {
		var b strings.Builder
		b.WriteString("## 🍎 Top Food Recommendations\n\n")
		for i, food := range info.FoodRecommendations {
			if i == maxRecommendations {
				fmt.Fprintf(&b, "\n*...and %d more options*\n", len(info.FoodRecommendations)-maxRecommendations)
				break
			}
			fmt.Fprintf(&b, "%d. **%s**\n", i+1, food)
		}
		out = append(out, b.String())
	}

	if info.NutritionalBreakdown != nil && info.NutritionalBreakdown.Len() > 0 {
		var b strings.Builder
		b.WriteString("## 📊 Nutritional Details\n\n")
		for pair := info.NutritionalBreakdown.Oldest(); pair != nil; pair = pair.Next() {
			fmt.Fprintf(&b, "**%s:** %s\n\n", titleWords(pair.Key), pair.Value)
		}
		out = append(out, b.String())
	}

	if info.FoodSources != nil && info.FoodSources.Len() > 0 {
		var b strings.Builder
		b.WriteString("## 🌱 Food Sources by Category\n\n")
		for pair := info.FoodSources.Oldest(); pair != nil; pair = pair.Next() {
			foods := pair.Value
			shown := foods[:min(len(foods), maxSourcesPerGroup)]
			fmt.Fprintf(&b, "**%s:** %s", titleWords(pair.Key), strings.Join(shown, ", "))
			if extra := len(foods) - len(shown); extra > 0 {
				fmt.Fprintf(&b, " *(+%d more)*", extra)
			}
			b.WriteString("\n\n")
		}
		out = append(out, b.String())
	}

	if info.AdditionalNotes != "" {
		out = append(out, "## 💡 Additional Tips\n\n"+info.AdditionalNotes)
	}
	return out
}

func visualizationSection(path string) string {
	if _, err := os.Stat(path); err != nil {
		return "📊 Visualization saved to: " + path
	}
	return fmt.Sprintf("## 📈 Nutritional Visualization\n\n![nutrition chart](%s)", path)
}
