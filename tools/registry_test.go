package tools

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	lookup := NewFoodLookup(testDataset(t))
	search := NewWebSearch("https://api.duckduckgo.com/", http.DefaultClient)

	registry, err := NewRegistry(search, lookup, nil)
	require.NoError(t, err)

	names := []string{}
	for _, tool := range registry.GetTools() {
		names = append(names, tool.Name())
	}
	assert.Equal(t, []string{"food_lookup", "web_search"}, names)

	got, err := registry.GetTool("web_search")
	require.NoError(t, err)
	assert.Same(t, search, got)

	_, err = registry.GetTool("recipe_search")
	assert.EqualError(t, err, `tool "recipe_search" not found in registry`)
}

func TestRegistry_Duplicate(t *testing.T) {
	lookup := NewFoodLookup(testDataset(t))
	_, err := NewRegistry(lookup, lookup)
	assert.EqualError(t, err, `tool "food_lookup" registered twice`)
}

func TestExecute(t *testing.T) {
	available := []Tool{NewFoodLookup(testDataset(t))}

	tests := []struct {
		name string
		call Call
		want map[string]any
	}{
		{
			name: "runs matching tool",
			call: Call{Name: "food_lookup", Input: map[string]any{"food": "tofu"}},
			want: map[string]any{"matches": []map[string]string{
				{"food": "Tofu", "calories_kcal": "76", "calcium_mg": "350"},
			}},
		},
		{
			name: "tool error becomes output",
			call: Call{Name: "food_lookup", Input: map[string]any{}},
			want: map[string]any{"error": "food is required"},
		},
		{
			name: "unknown tool",
			call: Call{Name: "recipe_search"},
			want: map[string]any{"error": `tool "recipe_search" is not available`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Execute(context.Background(), available, tt.call))
		})
	}
}
