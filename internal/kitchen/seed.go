package kitchen

// SeedIngredient is one entry of the default catalog.
type SeedIngredient struct {
	Name       string
	Category   string
	CommonUnit string
}

// DefaultIngredients is loaded into an empty catalog by `larderctl ingredients seed`.
var DefaultIngredients = []SeedIngredient{
	{"Tomatoes", Vegetables, "pieces"},
	{"Onions", Vegetables, "pieces"},
	{"Garlic", Vegetables, "cloves"},
	{"Carrots", Vegetables, "pieces"},
	{"Potatoes", Vegetables, "pieces"},
	{"Bell Peppers", Vegetables, "pieces"},
	{"Spinach", Vegetables, "grams"},
	{"Lettuce", Vegetables, "pieces"},

	{"Chicken Breast", Proteins, "grams"},
	{"Ground Beef", Proteins, "grams"},
	{"Salmon", Proteins, "grams"},
	{"Eggs", Proteins, "pieces"},
	{"Tofu", Proteins, "grams"},

	{"Milk", Dairy, "ml"},
	{"Cheese", Dairy, "grams"},
	{"Butter", Dairy, "grams"},
	{"Yogurt", Dairy, "ml"},

	{"Rice", Grains, "grams"},
	{"Pasta", Grains, "grams"},
	{"Bread", Grains, "slices"},
	{"Flour", Grains, "grams"},

	{"Salt", Spices, "grams"},
	{"Pepper", Spices, "grams"},
	{"Olive Oil", Condiments, "ml"},
	{"Soy Sauce", Condiments, "ml"},
}
