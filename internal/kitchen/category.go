// Package kitchen holds the static lookup tables used when items arrive
// without full metadata: a name→category guess and a category→storage
// location default.
package kitchen

import "strings"

// Categories.
const (
	Vegetables = "vegetables"
	Fruits     = "fruits"
	Proteins   = "proteins"
	Dairy      = "dairy"
	Grains     = "grains"
	Spices     = "spices"
	Condiments = "condiments"
	Frozen     = "frozen"
	Other      = "other"
)

// Categories lists the closed category set in display order.
var Categories = []string{Vegetables, Fruits, Proteins, Dairy, Grains, Spices, Condiments, Frozen, Other}

// NormalizeCategory folds a free-text category into the closed set.
// Unknown or empty values become Other.
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	for _, known := range Categories {
		if c == known {
			return c
		}
	}
	if alias, ok := categoryAliases[c]; ok {
		return alias
	}
	return Other
}

var categoryAliases = map[string]string{
	"meat":      Proteins,
	"fish":      Proteins,
	"seafood":   Proteins,
	"produce":   Vegetables,
	"vegetable": Vegetables,
	"fruit":     Fruits,
	"grain":     Grains,
	"bakery":    Grains,
	"spice":     Spices,
	"condiment": Condiments,
	"ice cream": Frozen,
}

// GuessCategory returns the category for an ingredient name.
// It performs case-insensitive matching: exact match first, then substring match.
// Falls back to Other if no match is found.
func GuessCategory(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Other
	}

	if cat, ok := exactCategory[n]; ok {
		return cat
	}

	// ordered longer/more-specific first
	for _, entry := range substringCategory {
		if strings.Contains(n, entry.keyword) {
			return entry.category
		}
	}

	return Other
}

var exactCategory = map[string]string{
	"tomato":       Vegetables,
	"tomatoes":     Vegetables,
	"onion":        Vegetables,
	"onions":       Vegetables,
	"garlic":       Vegetables,
	"carrot":       Vegetables,
	"carrots":      Vegetables,
	"potato":       Vegetables,
	"potatoes":     Vegetables,
	"spinach":      Vegetables,
	"lettuce":      Vegetables,
	"broccoli":     Vegetables,
	"celery":       Vegetables,
	"cucumber":     Vegetables,
	"zucchini":     Vegetables,
	"mushrooms":    Vegetables,
	"kale":         Vegetables,
	"corn":         Vegetables,
	"apple":        Fruits,
	"apples":       Fruits,
	"banana":       Fruits,
	"bananas":      Fruits,
	"orange":       Fruits,
	"oranges":      Fruits,
	"lemon":        Fruits,
	"lemons":       Fruits,
	"lime":         Fruits,
	"limes":        Fruits,
	"avocado":      Fruits,
	"grapes":       Fruits,
	"strawberries": Fruits,
	"blueberries":  Fruits,
	"eggs":         Proteins,
	"egg":          Proteins,
	"tofu":         Proteins,
	"chicken":      Proteins,
	"beef":         Proteins,
	"pork":         Proteins,
	"bacon":        Proteins,
	"salmon":       Proteins,
	"shrimp":       Proteins,
	"tuna":         Proteins,
	"milk":         Dairy,
	"butter":       Dairy,
	"cheese":       Dairy,
	"yogurt":       Dairy,
	"cream":        Dairy,
	"sour cream":   Dairy,
	"rice":         Grains,
	"pasta":        Grains,
	"bread":        Grains,
	"flour":        Grains,
	"oats":         Grains,
	"tortillas":    Grains,
	"salt":         Spices,
	"pepper":       Spices,
	"cumin":        Spices,
	"paprika":      Spices,
	"cinnamon":     Spices,
	"oregano":      Spices,
	"olive oil":    Condiments,
	"soy sauce":    Condiments,
	"ketchup":      Condiments,
	"mustard":      Condiments,
	"mayonnaise":   Condiments,
	"vinegar":      Condiments,
	"honey":        Condiments,
	"ice cream":    Frozen,
	"frozen peas":  Frozen,
}

var substringCategory = []struct {
	keyword  string
	category string
}{
	{"frozen", Frozen},
	{"ice cream", Frozen},
	{"cream cheese", Dairy},
	{"bell pepper", Vegetables},
	{"chicken", Proteins},
	{"ground beef", Proteins},
	{"ground turkey", Proteins},
	{"steak", Proteins},
	{"sausage", Proteins},
	{"fish", Proteins},
	{"yogurt", Dairy},
	{"cheese", Dairy},
	{"milk", Dairy},
	{"bread", Grains},
	{"noodle", Grains},
	{"cereal", Grains},
	{"sauce", Condiments},
	{"oil", Condiments},
	{"dressing", Condiments},
	{"powder", Spices},
	{"seasoning", Spices},
	{"berries", Fruits},
	{"lettuce", Vegetables},
	{"onion", Vegetables},
	{"pepper", Spices},
}
