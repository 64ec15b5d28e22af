package mock

import (
	"context"
	"errors"
	"testing"

	"nutrisense"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func req(name, text string) nutrisense.ModelRequest {
	return nutrisense.ModelRequest{Name: name, Messages: []nutrisense.Message{nutrisense.UserMessage(text)}}
}

func TestModel_Scripted(t *testing.T) {
	boom := errors.New("boom")
	m := New().
		On("recipe", `{"name":"first"}`).
		On("recipe", map[string]any{"name": "second"}).
		OnError("intent", boom)
	ctx := context.Background()

	got, err := m.Invoke(ctx, req("recipe", "x"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"first"}`, string(got))

	for range 2 {
		got, err = m.Invoke(ctx, req("recipe", "x"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"second"}`, string(got), "last reply repeats")
	}

	_, err = m.Invoke(ctx, req("intent", "x"))
	assert.ErrorIs(t, err, boom)

	_, err = m.Invoke(ctx, req("diet_plan", "x"))
	assert.True(t, nutrisense.IsModelError(err, nutrisense.ModelErrorUnavailable))

	assert.Equal(t, 3, m.Calls("recipe"))
	assert.Len(t, m.Requests(), 5)
}

func TestModel_CancelledContext(t *testing.T) {
	m := New().On("recipe", `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Invoke(ctx, req("recipe", "x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDemo_ClinicalCheck(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{query: "How should I adjust my insulin dose around meals?", want: true},
		{query: "What diet should I follow for kidney disease?", want: true},
		{query: "Give me a vegan lunch recipe", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := nutrisense.InvokeStructured[nutrisense.ClinicalCheck](context.Background(), NewDemo(), req(nutrisense.RequestClinicalCheck, tt.query))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.IsClinical)
		})
	}
}

func TestDemo_Intent(t *testing.T) {
	tests := []struct {
		query        string
		wantIntent   nutrisense.PrimaryIntent
		wantExcluded []string
	}{
		{query: "Which foods are rich in calcium?", wantIntent: nutrisense.IntentNutritionalInfo, wantExcluded: []string{}},
		{query: "Create a 3-day vegetarian meal plan", wantIntent: nutrisense.IntentDietPlan, wantExcluded: []string{}},
		{query: "A quick dinner without dairy", wantIntent: nutrisense.IntentSingleRecipe, wantExcluded: []string{"dairy"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := nutrisense.InvokeStructured[nutrisense.Intent](context.Background(), NewDemo(), req(nutrisense.RequestIntent, tt.query))
			require.NoError(t, err)
			assert.Equal(t, tt.wantIntent, got.PrimaryIntent)
			assert.Equal(t, tt.wantExcluded, got.ExcludedIngredients)
		})
	}
}

func TestDemo_DietPlanHonoursDayCount(t *testing.T) {
	for _, days := range []int{3, 5, 7} {
		text := "DIET PLAN REQUEST\nCRITICAL: Create EXACTLY " + string(rune('0'+days)) + " days"
		got, err := nutrisense.InvokeStructured[nutrisense.DietPlan](context.Background(), NewDemo(), req(nutrisense.RequestDietPlan, text))
		require.NoError(t, err)
		assert.Len(t, got.DailyPlans, days)
	}
}

func TestDemo_ContentValidates(t *testing.T) {
	ctx := context.Background()
	m := NewDemo()

	recipe, err := nutrisense.InvokeStructured[nutrisense.Recipe](ctx, m, req(nutrisense.RequestRecipe, "salad"))
	require.NoError(t, err)
	assert.Equal(t, 2, recipe.Servings)

	info, err := nutrisense.InvokeStructured[nutrisense.NutritionalInfo](ctx, m, req(nutrisense.RequestNutritionalInfo, "calcium"))
	require.NoError(t, err)
	assert.Equal(t, 2, info.NutritionalBreakdown.Len())
}
