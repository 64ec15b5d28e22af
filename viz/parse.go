// Package viz turns free-text nutrition summaries into chart images.
package viz

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Amount is a parsed quantity with a normalized unit.
type Amount struct {
	Value float64
	Unit  string
}

func (a Amount) String() string {
	return strconv.FormatFloat(a.Value, 'f', 1, 64) + " " + a.Unit
}

// ParseError reports text with no parseable entries.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no nutrient entries found in %q", truncate(e.Input, 80))
}

var (
	valueWithUnit = regexp.MustCompile(`(?:approximately\s+)?([\d.]+)\s*([a-z]+)`)
	bareValue     = regexp.MustCompile(`([\d.]+)`)
)

var unitAliases = map[string]string{
	"calories":   "kcal",
	"calorie":    "kcal",
	"kcal":       "kcal",
	"grams":      "g",
	"gram":       "g",
	"g":          "g",
	"mg":         "mg",
	"milligram":  "mg",
	"milligrams": "mg",
}

// NormalizeUnit maps a unit word to kcal, g or mg. Anything else is grams.
func NormalizeUnit(unit string) string {
	if u, ok := unitAliases[strings.ToLower(strings.TrimSpace(unit))]; ok {
		return u
	}
	return "g"
}

// Parse extracts "Name: [approximately] number[unit]" entries separated by
// commas. Entries without a colon or a number are skipped. A repeated name
// keeps its first position and takes the later value.
func Parse(text string) (*orderedmap.OrderedMap[string, Amount], error) {
	out := orderedmap.New[string, Amount]()

	for _, item := range strings.Split(text, ",") {
		item = strings.TrimSpace(item)
		name, raw, ok := strings.Cut(item, ":")
		if !ok {
			continue
		}

		name = strings.TrimSpace(strings.ReplaceAll(name, "Approximately", ""))
		if name == "" {
			continue
		}

		amount, ok := parseAmount(strings.ToLower(strings.TrimSpace(raw)))
		if !ok {
			continue
		}
		out.Set(name, amount)
	}

	if out.Len() == 0 {
		return nil, &ParseError{Input: text}
	}
	return out, nil
}

func parseAmount(s string) (Amount, bool) {
	if m := valueWithUnit.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return Amount{Value: v, Unit: NormalizeUnit(m[2])}, true
		}
	}
	if m := bareValue.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return Amount{Value: v, Unit: "g"}, true
		}
	}
	return Amount{}, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
