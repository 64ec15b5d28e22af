package tools

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"nutrisense/dataset"
)

const defaultLookupLimit = 5

// FoodLookup queries the nutrition dataset by food name.
type FoodLookup struct{ ds *dataset.Dataset }

func NewFoodLookup(ds *dataset.Dataset) *FoodLookup { return &FoodLookup{ds: ds} }

func (t *FoodLookup) Name() string  { return "food_lookup" }
func (t *FoodLookup) Title() string { return "Look Up Food Nutrition" }
func (t *FoodLookup) Description() string {
	return "Looks up nutritional values for a food in the reference dataset. Matches by name substring."
}

func (t *FoodLookup) InputSchema() *jsonschema.Schema {
	one := 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"food":  {Type: "string", Description: "Food name, e.g. \"spinach\""},
			"limit": {Type: "integer", Minimum: &one},
		},
		Required: []string{"food"},
	}
}

func (t *FoodLookup) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"matches": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "object"},
			},
		},
		Required: []string{"matches"},
	}
}

func (t *FoodLookup) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	food, _ := input["food"].(string)
	if food == "" {
		return nil, errors.New("food is required")
	}

	limit := defaultLookupLimit
	switch v := input["limit"].(type) {
	case int:
		limit = v
	case float64:
		limit = int(v)
	}
	if limit <= 0 {
		limit = defaultLookupLimit
	}

	matches := t.ds.Lookup(food, limit)
	if matches == nil {
		matches = []map[string]string{}
	}
	return map[string]any{"matches": matches}, nil
}
