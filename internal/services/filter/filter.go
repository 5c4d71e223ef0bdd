// Package filter narrows the transaction log by the dashboard's dropdown
// selections and derives the values those dropdowns offer.
package filter

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"ridership/internal/models"
)

// Filter returns the rows matching every non-empty selection.
// A nil or empty selection places no restriction on its dimension.
func Filter(ds *models.Dataset, cities, depots, routes []string) *models.Dataset {
	citySet := toSet(cities)
	depotSet := toSet(depots)
	routeSet := toSet(routes)

	return ds.Where(func(t *models.Transaction) bool {
		return matches(citySet, t.CityName) &&
			matches(depotSet, t.DepotName) &&
			matches(routeSet, t.RouteName)
	})
}

// BySelection applies a models.Selection
func BySelection(ds *models.Dataset, sel models.Selection) *models.Dataset {
	return Filter(ds, sel.Cities, sel.Depots, sel.Routes)
}

// AvailableRoutes lists the routes present once only the city and depot
// selections are applied. The route selection never constrains its own options.
func AvailableRoutes(ds *models.Dataset, cities, depots []string) []string {
	subset := Filter(ds, cities, depots, nil)
	if subset.IsEmpty() {
		return []string{}
	}
	return options(subset, func(t *models.Transaction) string { return t.RouteName })
}

// CityOptions lists every non-blank city in the dataset
func CityOptions(ds *models.Dataset) []string {
	return options(ds, func(t *models.Transaction) string { return t.CityName })
}

// DepotOptions lists every non-blank depot in the dataset
func DepotOptions(ds *models.Dataset) []string {
	return options(ds, func(t *models.Transaction) string { return t.DepotName })
}

// options returns the sorted, deduplicated, trimmed non-blank values of one field
func options(ds *models.Dataset, field func(t *models.Transaction) string) []string {
	values := lo.FilterMap(ds.Transactions, func(t models.Transaction, _ int) (string, bool) {
		v := strings.TrimSpace(field(&t))
		return v, v != ""
	})
	values = lo.Uniq(values)
	sort.Strings(values)
	return values
}

// toSet builds a membership set; nil means no restriction
func toSet(values []string) map[string]struct{} {
	values = lo.Compact(lo.Map(values, func(v string, _ int) string {
		return strings.TrimSpace(v)
	}))
	if len(values) == 0 {
		return nil
	}
	return lo.SliceToMap(values, func(v string) (string, struct{}) {
		return v, struct{}{}
	})
}

func matches(set map[string]struct{}, value string) bool {
	if set == nil {
		return true
	}
	_, ok := set[value]
	return ok
}
