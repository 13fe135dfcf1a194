package ingest

import (
	"fmt"
	"strings"
)

const itemFields = `For each item, provide:
- name: the ingredient/item name, standardized (e.g. "Milk", not "MLKWHL2%")
- quantity: numeric quantity (1 if not stated)
- unit: measurement unit (pieces, kg, grams, liters, ml, etc.)
- estimatedExpirationDays: estimated shelf life in whole days
- category: one of vegetables, fruits, proteins, dairy, grains, spices, condiments, frozen, other`

const shelfLife = `Shelf life guidelines:
- Fresh produce: 5-10 days
- Dairy: 7-14 days
- Fresh meat/fish: 3-5 days
- Frozen items: 90 days
- Canned goods: 365 days
- Dry goods (pasta, rice): 365 days
- Bread: 5-7 days
- Eggs: 21 days`

const itemsEnvelope = `Return ONLY a JSON object of this shape, with no other text:
{"items": [{"name": "Milk", "quantity": 1, "unit": "liters", "estimatedExpirationDays": 10, "category": "dairy"}]}`

func textListPrompt(text string) string {
	return fmt.Sprintf(`Parse this shopping list into individual items:

%q

%s

%s

Examples:
"2kg flour" -> {"name": "Flour", "quantity": 2, "unit": "kg", "estimatedExpirationDays": 365, "category": "grains"}
"dozen eggs" -> {"name": "Eggs", "quantity": 12, "unit": "pieces", "estimatedExpirationDays": 21, "category": "proteins"}

%s`, text, itemFields, shelfLife, itemsEnvelope)
}

var receiptPrompt = `Analyze this grocery receipt image and extract every food or grocery item.

` + itemFields + `
- price: the line price if visible

` + shelfLife + `

` + itemsEnvelope

const draftShape = `{
  "title": "Recipe name",
  "description": "Brief description",
  "prepTime": minutes,
  "cookTime": minutes,
  "servings": number,
  "difficulty": "easy" | "medium" | "hard",
  "cuisine": "cuisine type",
  "ingredients": [{"name": "ingredient", "quantity": number, "unit": "unit", "notes": "diced, chopped, ..."}],
  "instructions": ["step 1", "step 2"]
}`

var recipeImagePrompt = `Extract the recipe from this image. Return ONLY a JSON object of this shape, with no other text:
` + draftShape

func searchPrompt(query string, pantry []string) string {
	have := "(nothing)"
	if len(pantry) > 0 {
		have = strings.Join(pantry, ", ")
	}
	return fmt.Sprintf(`I'm looking for recipe ideas matching %q.

The ingredients in my pantry are: %s

Suggest 5 recipes that match the request, preferring ones I can make with what I have.
Return ONLY a JSON array, with no other text. Each element has the fields of
%s
plus "canMakeWithPantry" (boolean), "matchPercentage" (0-100) and
"missingIngredients" (array of ingredient names I don't have).`, query, have, draftShape)
}
