package tools

import (
	"context"
	"strings"
	"testing"

	"nutrisense/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Parse(strings.NewReader("food,calories_kcal,calcium_mg\nKale,49,150\nBaby Kale,45,140\nTofu,76,350\n"))
	require.NoError(t, err)
	return ds
}

func TestFoodLookup_Run(t *testing.T) {
	tool := NewFoodLookup(testDataset(t))

	tests := []struct {
		name        string
		input       map[string]any
		wantFoods   []string
		expectError bool
	}{
		{
			name:      "matches by substring",
			input:     map[string]any{"food": "kale"},
			wantFoods: []string{"Kale", "Baby Kale"},
		},
		{
			name:      "limit from float input",
			input:     map[string]any{"food": "kale", "limit": 1.0},
			wantFoods: []string{"Kale"},
		},
		{
			name:      "non-positive limit falls back to default",
			input:     map[string]any{"food": "kale", "limit": 0},
			wantFoods: []string{"Kale", "Baby Kale"},
		},
		{
			name:      "no matches returns empty list",
			input:     map[string]any{"food": "salmon"},
			wantFoods: []string{},
		},
		{
			name:        "missing food",
			input:       map[string]any{},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tool.Run(context.Background(), tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			matches, ok := out["matches"].([]map[string]string)
			require.True(t, ok)
			foods := []string{}
			for _, m := range matches {
				foods = append(foods, m["food"])
			}
			assert.Equal(t, tt.wantFoods, foods)
		})
	}
}

func TestFoodLookup_Metadata(t *testing.T) {
	tool := NewFoodLookup(testDataset(t))
	assert.Equal(t, "food_lookup", tool.Name())
	assert.NotEmpty(t, tool.Title())
	assert.NotEmpty(t, tool.Description())
	assert.Equal(t, []string{"food"}, tool.InputSchema().Required)
	assert.Contains(t, tool.OutputSchema().Properties, "matches")
}
