package kitchen

import (
	"strings"

	"github.com/dukerupert/larder/internal/model"
)

var locationByCategory = map[string]string{
	"dairy":      model.LocationFridge,
	"proteins":   model.LocationFridge,
	"meat":       model.LocationFridge,
	"fish":       model.LocationFridge,
	"seafood":    model.LocationFridge,
	"vegetables": model.LocationFridge,
	"fruits":     model.LocationFridge,
	"frozen":     model.LocationFreezer,
	"ice cream":  model.LocationFreezer,
	"grains":     model.LocationPantry,
	"spices":     model.LocationPantry,
	"condiments": model.LocationPantry,
	"other":      model.LocationPantry,
}

// DefaultLocation returns where an item of the given category is usually
// stored. Unknown categories go to the pantry.
func DefaultLocation(category string) string {
	if loc, ok := locationByCategory[strings.ToLower(strings.TrimSpace(category))]; ok {
		return loc
	}
	return model.LocationPantry
}
