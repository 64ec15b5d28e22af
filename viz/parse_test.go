package viz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	type entry struct {
		name   string
		amount Amount
	}

	tests := []struct {
		name  string
		input string
		want  []entry
	}{
		{
			name:  "approximately and units",
			input: "Calories: Approximately 476 calories, Protein: 38.15g",
			want: []entry{
				{"Calories", Amount{476, "kcal"}},
				{"Protein", Amount{38.15, "g"}},
			},
		},
		{
			name:  "milligrams and spaced units",
			input: "Sodium: 320 mg, Fiber: 6 grams",
			want: []entry{
				{"Sodium", Amount{320, "mg"}},
				{"Fiber", Amount{6, "g"}},
			},
		},
		{
			name:  "bare number defaults to grams",
			input: "Sugar: 12",
			want:  []entry{{"Sugar", Amount{12, "g"}}},
		},
		{
			name:  "unknown unit becomes grams",
			input: "Vitamin C: 40 iu",
			want:  []entry{{"Vitamin C", Amount{40, "g"}}},
		},
		{
			name:  "entries without colon or number are skipped",
			input: "lots of protein, Carbs: 50g, Fat: some",
			want:  []entry{{"Carbs", Amount{50, "g"}}},
		},
		{
			name:  "approximately in the name is dropped",
			input: "Approximately Calories: 300 kcal",
			want:  []entry{{"Calories", Amount{300, "kcal"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			require.Equal(t, len(tt.want), got.Len())

			i := 0
			for pair := got.Oldest(); pair != nil; pair = pair.Next() {
				assert.Equal(t, tt.want[i].name, pair.Key)
				assert.InDelta(t, tt.want[i].amount.Value, pair.Value.Value, 1e-9)
				assert.Equal(t, tt.want[i].amount.Unit, pair.Value.Unit)
				i++
			}
		})
	}
}

func TestParse_NothingParsed(t *testing.T) {
	for _, input := range []string{"", "not parseable", "Protein: high"} {
		t.Run(input, func(t *testing.T) {
			got, err := Parse(input)
			assert.Nil(t, got)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, input, perr.Input)
		})
	}
}

func TestNormalizeUnit(t *testing.T) {
	tests := map[string]string{
		"calories":  "kcal",
		"Calorie":   "kcal",
		" kcal ":    "kcal",
		"gram":      "g",
		"mg":        "mg",
		"milligram": "mg",
		"oz":        "g",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeUnit(in), in)
	}
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "476.0 kcal", Amount{476, "kcal"}.String())
	assert.Equal(t, "38.1 g", Amount{38.14, "g"}.String())
}
