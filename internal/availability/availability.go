// Package availability decides which recipes a pantry can cover.
package availability

import (
	"math"
	"sort"

	"github.com/dukerupert/larder/internal/model"
)

// Candidate is a recipe together with its required ingredients.
type Candidate struct {
	Recipe      model.Recipe
	Ingredients []model.RecipeIngredient
}

// Evaluate annotates each candidate with how much of it the pantry covers.
//
// pantry maps ingredient id to stocked quantity; absent ids count as zero.
// Recipes without ingredients, and recipes sharing no stocked ingredient
// with the pantry, are left out. The result is ordered by descending match
// percentage, keeping candidate order among equals.
func Evaluate(pantry map[int64]float64, candidates []Candidate) []model.RecipeMatch {
	matches := make([]model.RecipeMatch, 0, len(candidates))

	for _, c := range candidates {
		if len(c.Ingredients) == 0 {
			continue
		}

		m := model.RecipeMatch{
			Recipe:                  c.Recipe,
			MissingIngredients:      []model.MissingIngredient{},
			InsufficientIngredients: []model.InsufficientIngredient{},
			TotalIngredients:        len(c.Ingredients),
		}

		for _, ri := range c.Ingredients {
			have := pantry[ri.IngredientID]
			switch {
			case have >= ri.Quantity:
				m.SufficientCount++
			case have > 0:
				m.InsufficientIngredients = append(m.InsufficientIngredients, model.InsufficientIngredient{
					Name:   ri.IngredientName,
					Needed: ri.Quantity,
					Have:   have,
					Unit:   ri.Unit,
				})
			default:
				m.MissingIngredients = append(m.MissingIngredients, model.MissingIngredient{
					Name:   ri.IngredientName,
					Needed: ri.Quantity,
					Unit:   ri.Unit,
				})
			}
		}

		available := m.SufficientCount + len(m.InsufficientIngredients)
		if available == 0 {
			continue
		}

		m.MatchPercentage = int(math.Round(100 * float64(m.SufficientCount) / float64(m.TotalIngredients)))
		m.CanMake = m.SufficientCount == m.TotalIngredients
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchPercentage > matches[j].MatchPercentage
	})
	return matches
}

// Dedupe merges recipe lists by id, keeping the first occurrence and the
// order in which ids were first seen.
func Dedupe(lists ...[]model.Recipe) []model.Recipe {
	seen := make(map[int64]bool)
	var out []model.Recipe
	for _, list := range lists {
		for _, r := range list {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, r)
		}
	}
	return out
}
