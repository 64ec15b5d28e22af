package nutritionist

import (
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"nutrisense"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var ingredientRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([a-zA-Z]+)?\s+(.+)$`)

var units = map[string]string{
	"cup": "cup", "cups": "cup",
	"tbsp": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp",
	"tsp": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
	"oz": "oz", "ounce": "oz", "ounces": "oz",
	"lb": "lb", "lbs": "lb", "pound": "lb", "pounds": "lb",
	"g": "g", "gram": "g", "grams": "g",
	"ml": "ml", "milliliter": "ml", "milliliters": "ml",
}

const otherCategory = "Other"

// Checked in order; the first category with a matching keyword wins.
var groceryCategories = []struct {
	name     string
	keywords []string
}{
	{"Produce", []string{"apple", "banana", "berr", "lettuce", "spinach", "kale", "broccoli", "tomato", "onion", "garlic", "lemon", "lime", "carrot", "pepper", "avocado", "vegetable", "fruit"}},
	{"Dairy", []string{"milk", "cheese", "yogurt", "cream", "butter", "paneer"}},
	{"Meat", []string{"chicken", "beef", "pork", "turkey", "lamb", "fish", "salmon", "tuna", "shrimp", "meat"}},
	{"Pantry", []string{"flour", "sugar", "salt", "oil", "spice", "herb", "cumin", "honey", "vinegar", "sauce", "tahini"}},
	{"Grains", []string{"rice", "pasta", "bread", "cereal", "oat", "quinoa", "tortilla"}},
}

// ParseIngredient turns a line such as "2 cups milk" into a grocery item.
// Lines without a leading quantity become one unit-less item.
func ParseIngredient(line string) nutrisense.GroceryItem {
	line = strings.TrimSpace(line)
	m := ingredientRe.FindStringSubmatch(line)
	if m == nil {
		return nutrisense.GroceryItem{Name: line, Quantity: 1, Category: categorize(line)}
	}

	qty, _ := strconv.ParseFloat(m[1], 64)
	unit, name := strings.ToLower(m[2]), strings.TrimSpace(m[3])
	if std, ok := units[unit]; ok {
		unit = std
	} else if unit != "" {
		// "2 large eggs": the word is part of the name, not a unit.
		name = m[2] + " " + name
		unit = ""
	}
	return nutrisense.GroceryItem{Name: name, Quantity: qty, Unit: unit, Category: categorize(name)}
}

func categorize(name string) string {
	lower := strings.ToLower(name)
	for _, c := range groceryCategories {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.name
			}
		}
	}
	return otherCategory
}

// BuildGroceryList consolidates the ingredients of recipes. Items with the
// same name and unit are summed and keep their first position.
func BuildGroceryList(recipes ...nutrisense.Recipe) []nutrisense.GroceryItem {
	var out []nutrisense.GroceryItem
	index := map[string]int{}
	for _, r := range recipes {
		for _, line := range r.Ingredients {
			if strings.TrimSpace(line) == "" {
				continue
			}
			item := ParseIngredient(line)
			key := strings.ToLower(item.Name) + "|" + item.Unit
			if i, ok := index[key]; ok {
				out[i].Quantity += item.Quantity
				continue
			}
			index[key] = len(out)
			out = append(out, item)
		}
	}
	return out
}

// ScaleGroceryList returns a copy of items with quantities scaled from the
// servings a recipe was written for to the servings wanted. Either count
// being unknown (<= 0) leaves quantities unchanged.
func ScaleGroceryList(items []nutrisense.GroceryItem, servings, wanted int) []nutrisense.GroceryItem {
	out := slices.Clone(items)
	if servings <= 0 || wanted <= 0 || servings == wanted {
		return out
	}
	factor := float64(wanted) / float64(servings)
	for i := range out {
		out[i].Quantity *= factor
	}
	return out
}

// GroceryByCategory groups items by category. Categories appear in aisle
// order with "Other" last, and items keep their list order within one.
func GroceryByCategory(items []nutrisense.GroceryItem) *orderedmap.OrderedMap[string, []nutrisense.GroceryItem] {
	grouped := map[string][]nutrisense.GroceryItem{}
	for _, item := range items {
		grouped[item.Category] = append(grouped[item.Category], item)
	}

	out := orderedmap.New[string, []nutrisense.GroceryItem]()
	for _, c := range groceryCategories {
		if g, ok := grouped[c.name]; ok {
			out.Set(c.name, g)
			delete(grouped, c.name)
		}
	}
	if g, ok := grouped[otherCategory]; ok {
		out.Set(otherCategory, g)
		delete(grouped, otherCategory)
	}
	// Categories set by hand rather than by categorize.
	rest := slices.Sorted(maps.Keys(grouped))
	for _, name := range rest {
		out.Set(name, grouped[name])
	}
	return out
}

var servingsRe = regexp.MustCompile(`\b(?:serves|feeds)\s+(\d+)\b|\b(\d+)\s+(?:servings|people|persons|portions)\b`)

// RequestedServings returns the number of servings named in text, such as
// "serves 4" or "for 6 people", or 0 when none is.
func RequestedServings(text string) int {
	m := servingsRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1] + m[2])
	if err != nil {
		return 0
	}
	return n
}

// Terms implied by a broader excluded ingredient.
var exclusionFamilies = map[string][]string{
	"dairy":   {"milk", "cheese", "butter", "cream", "yogurt", "paneer", "ghee", "whey"},
	"meat":    {"chicken", "beef", "pork", "lamb", "turkey", "bacon", "ham", "sausage"},
	"gluten":  {"wheat", "flour", "bread", "pasta", "barley", "rye", "couscous"},
	"nuts":    {"almond", "walnut", "cashew", "pecan", "pistachio", "hazelnut", "peanut"},
	"seafood": {"fish", "salmon", "tuna", "shrimp", "prawn", "crab", "cod"},
	"fish":    {"salmon", "tuna", "cod", "trout", "sardine", "anchov"},
	"eggs":    {"egg"},
	"soy":     {"tofu", "tempeh", "edamame", "soy"},
}

// ExcludedIngredientViolations returns the ingredient lines of recipe that
// mention an excluded term or a member of its family, e.g. "milk" for
// "dairy". Lines that negate the term, such as "dairy-free milk", still count.
func ExcludedIngredientViolations(recipe nutrisense.Recipe, excluded []string) []string {
	var terms []string
	for _, e := range excluded {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		terms = append(terms, e, strings.TrimSuffix(e, "s"))
		terms = append(terms, exclusionFamilies[e]...)
	}
	if len(terms) == 0 {
		return nil
	}

	var out []string
	for _, line := range recipe.Ingredients {
		lower := strings.ToLower(line)
		for _, t := range terms {
			if t != "" && strings.Contains(lower, t) {
				out = append(out, line)
				break
			}
		}
	}
	return out
}
