package present

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"nutrisense"
	"nutrisense/nutritionist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func sampleRecipe() *nutrisense.Recipe {
	return &nutrisense.Recipe{
		Name:            "Tahini Power Bowl",
		Ingredients:     []string{"1 cup quinoa", "2 tbsp tahini"},
		Instructions:    []string{"Cook quinoa.", "Drizzle tahini."},
		PrepTime:        "10 minutes",
		CookTime:        "15 minutes",
		Servings:        2,
		NutritionalInfo: "Calories: 450 kcal, Protein: 18g",
	}
}

func TestPresenter_Priority(t *testing.T) {
	chart := filepath.Join(t.TempDir(), "plot.png")
	require.NoError(t, os.WriteFile(chart, []byte("png"), 0o644))

	state := nutrisense.NewState("s1", "tahini bowl")
	state.Intent = &nutrisense.Intent{
		PrimaryIntent:       nutrisense.IntentSingleRecipe,
		RecipeSpecificity:   nutrisense.SpecificRecipe,
		MealType:            []nutrisense.MealType{nutrisense.MealLunch, nutrisense.MealDinner},
		ExcludedIngredients: []string{"dairy"},
	}
	state.Recipe = sampleRecipe()
	state.Visualization = chart

	got := NewPresenter().Present(state.Snapshot())

	require.Len(t, got, 5)
	assert.Equal(t, "## 🎯 Request Analysis\n\n**Type:** Single Recipe\n**Specificity:** Specific Recipe\n**Meal:** Lunch, Dinner\n**Avoiding:** dairy\n", got[0])
	assert.Equal(t, "# 🍳 Tahini Power Bowl\n\n⏱️ **Prep:** 10 minutes | 🔥 **Cook:** 15 minutes | 🍽️ **Serves:** 2\n\n## 📊 Nutritional Information\nCalories: 450 kcal, Protein: 18g\n", got[1])
	assert.Equal(t, "## 🛒 Ingredients\n• 1 cup quinoa\n• 2 tbsp tahini\n", got[2])
	assert.Equal(t, "## 👨‍🍳 Instructions\n**1.** Cook quinoa.\n\n**2.** Drizzle tahini.\n\n", got[3])
	assert.Equal(t, fmt.Sprintf("## 📈 Nutritional Visualization\n\n![nutrition chart](%s)", chart), got[4])
}

func TestPresenter_Idempotent(t *testing.T) {
	state := nutrisense.NewState("s1", "bowl")
	state.Intent = nutrisense.DefaultIntent()
	p := NewPresenter()

	first := p.Present(state.Snapshot())
	require.Len(t, first, 1)
	assert.Empty(t, p.Present(state.Snapshot()), "same snapshot twice")

	state.Recipe = sampleRecipe()
	second := p.Present(state.Snapshot())
	assert.Len(t, second, 3, "only the new recipe sections")
	assert.Empty(t, p.Present(state.Snapshot()))
	assert.True(t, p.Displayed("recipe"))

	state.Visualization = "missing.png"
	assert.Equal(t, []string{"📊 Visualization saved to: missing.png"}, p.Present(state.Snapshot()))
}

func TestPresenter_Blocked(t *testing.T) {
	t.Run("clinical message", func(t *testing.T) {
		state := nutrisense.NewState("s1", "Do I have diabetes?")
		state.Apply(nutrisense.Update{
			Messages:      []nutrisense.Message{nutrisense.AssistantMessage(nutritionist.StepClinicalCheck, "⚠️ Please see a doctor.")},
			Blocked:       "diagnosis",
			ClinicalCheck: &nutrisense.ClinicalCheck{IsClinical: true, Confidence: 0.9},
		})
		state.Intent = nutrisense.DefaultIntent()
		p := NewPresenter()

		assert.Equal(t, []string{"⚠️ Please see a doctor."}, p.Present(state.Snapshot()), "terminal state shows only the block")
		assert.Empty(t, p.Present(state.Snapshot()))
		assert.Empty(t, p.Finish(state.Snapshot()))
	})

	t.Run("safety notice fallback", func(t *testing.T) {
		state := nutrisense.NewState("s1", "x")
		state.Blocked = "Processing error: boom"

		assert.Equal(t, []string{"⚠️ **Safety Notice**: Processing error: boom"}, NewPresenter().Present(state.Snapshot()))
	})
}

func TestPresenter_ConflictingContentSkipped(t *testing.T) {
	state := nutrisense.NewState("s1", "x")
	state.Recipe = sampleRecipe()
	state.NutritionalInfo = &nutrisense.NutritionalInfo{QuerySummary: "x"}

	assert.Empty(t, NewPresenter().Present(state.Snapshot()))
}

func TestPresenter_Finish(t *testing.T) {
	state := nutrisense.NewState("s1", "soup")
	state.Apply(nutrisense.Update{
		Messages: []nutrisense.Message{nutrisense.AssistantMessage(nutritionist.StepGenerateRecipe, "Error generating recipe: quota")},
		Error:    "step generate_recipe: quota",
	})
	p := NewPresenter()

	assert.Empty(t, p.Present(state.Snapshot()))
	assert.Equal(t, []string{"❌ **Error**: Error generating recipe: quota"}, p.Finish(state.Snapshot()))
	assert.Empty(t, p.Finish(state.Snapshot()))

	ok := nutrisense.NewState("s2", "soup")
	assert.Empty(t, NewPresenter().Finish(ok.Snapshot()), "silent when nothing failed")
}

func TestDietPlanSections(t *testing.T) {
	var shopping []string
	for i := range 30 {
		shopping = append(shopping, fmt.Sprintf("item %d", i+1))
	}
	breakfast := *sampleRecipe()
	plan := &nutrisense.DietPlan{
		PlanName:             "3-Day Plan",
		Duration:             "3 days",
		TotalNutritionalInfo: "Calories: 1800 kcal",
		ShoppingList:         shopping,
		DailyPlans: []nutrisense.DayPlan{
			{Day: "Day 1", Breakfast: []nutrisense.Recipe{breakfast}, Snack: []nutrisense.Recipe{breakfast}},
			{Day: "Day 2", Dinner: []nutrisense.Recipe{breakfast}},
		},
	}

	got := DietPlanSections(plan)

	require.Len(t, got, 4)
	assert.Equal(t, "# 📅 3-Day Plan\n\n**Duration:** 3 days\n**Nutritional Summary:** Calories: 1800 kcal\n", got[0])
	assert.True(t, strings.HasPrefix(got[1], "## Day 1\n\n### 🌅 Breakfast\n\n#### 🍳 Tahini Power Bowl\n"))
	assert.Contains(t, got[1], "### 🍎 Snacks")
	assert.NotContains(t, got[1], "Lunch")
	assert.Contains(t, got[2], "### 🌙 Dinner")
	assert.Contains(t, got[3], "25. item 25\n")
	assert.NotContains(t, got[3], "item 26")
	assert.True(t, strings.HasSuffix(got[3], "*...and 5 more items*\n"))
}

func TestNutritionalInfoSections(t *testing.T) {
	var recs []string
	for i := range 14 {
		recs = append(recs, fmt.Sprintf("food %d", i+1))
	}
	breakdown := orderedmap.New[string, string]()
	breakdown.Set("vitamin_d", "600 IU")
	breakdown.Set("Calcium", "1000mg")
	sources := orderedmap.New[string, []string]()
	sources.Set("leafy greens", []string{"kale", "bok choy"})
	sources.Set("fish", []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"})

	got := NutritionalInfoSections(&nutrisense.NutritionalInfo{
		QuerySummary:         "Calcium sources",
		FoodRecommendations:  recs,
		NutritionalBreakdown: breakdown,
		FoodSources:          sources,
		AdditionalNotes:      "Pair with vitamin D.",
	})

	require.Len(t, got, 5)
	assert.Equal(t, "# 🥗 Nutritional Information\n\n**Your Question:** Calcium sources\n", got[0])
	assert.Contains(t, got[1], "12. **food 12**\n")
	assert.NotContains(t, got[1], "food 13")
	assert.Contains(t, got[1], "*...and 2 more options*")
	assert.Equal(t, "## 📊 Nutritional Details\n\n**Vitamin D:** 600 IU\n\n**Calcium:** 1000mg\n\n", got[2])
	assert.Equal(t, "## 🌱 Food Sources by Category\n\n**Leafy Greens:** kale, bok choy\n\n**Fish:** a, b, c, d, e, f, g, h *(+2 more)*\n\n", got[3])
	assert.Equal(t, "## 💡 Additional Tips\n\nPair with vitamin D.", got[4])
}

func TestNutritionalInfoSections_NonASCIIKeys(t *testing.T) {
	breakdown := orderedmap.New[string, string]()
	breakdown.Set("ácido fólico", "400 mcg")
	breakdown.Set("β-carotene", "3 mg")
	sources := orderedmap.New[string, []string]()
	sources.Set("ñame_y_yuca", []string{"yam"})

	got := NutritionalInfoSections(&nutrisense.NutritionalInfo{
		QuerySummary:         "folate",
		NutritionalBreakdown: breakdown,
		FoodSources:          sources,
	})

	require.Len(t, got, 3)
	for _, section := range got {
		assert.True(t, utf8.ValidString(section), "section %q", section)
	}
	assert.Equal(t, "## 📊 Nutritional Details\n\n**Ácido Fólico:** 400 mcg\n\n**Β-carotene:** 3 mg\n\n", got[1])
	assert.Equal(t, "## 🌱 Food Sources by Category\n\n**Ñame Y Yuca:** yam\n\n", got[2])
}

func TestNutritionalInfoSections_Minimal(t *testing.T) {
	got := NutritionalInfoSections(&nutrisense.NutritionalInfo{QuerySummary: "iron"})
	assert.Len(t, got, 1)
}
