package filter

import (
	"reflect"
	"testing"

	"ridership/internal/models"
	"ridership/internal/testutil"
)

func TestFilterNoSelectionIsIdentity(t *testing.T) {
	ds := testutil.ScenarioDataset()

	for _, empty := range [][]string{nil, {}} {
		got := Filter(ds, empty, empty, empty)
		if !reflect.DeepEqual(got.Transactions, ds.Transactions) {
			t.Errorf("Filter with %v selections changed the rows: got %d, want %d", empty, got.Len(), ds.Len())
		}
	}
}

func TestFilter(t *testing.T) {
	ds := testutil.ScenarioDataset()

	tests := []struct {
		name      string
		cities    []string
		depots    []string
		routes    []string
		wantCount int
		wantSum   int
	}{
		{"single city", []string{"A"}, nil, nil, 2, 15},
		{"city and depot", []string{"A"}, []string{"X"}, nil, 1, 10},
		{"depot only", nil, []string{"X"}, nil, 2, 13},
		{"route across cities", nil, nil, []string{"1"}, 2, 13},
		{"multi-select city", []string{"A", "B"}, nil, nil, 3, 18},
		{"no match", []string{"C"}, nil, nil, 0, 0},
		{"conflicting dimensions", []string{"B"}, []string{"Y"}, nil, 0, 0},
		{"padded selection", []string{" A "}, nil, nil, 2, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(ds, tt.cities, tt.depots, tt.routes)
			if got.Len() != tt.wantCount {
				t.Errorf("Expected %d rows, got %d", tt.wantCount, got.Len())
			}
			if got.SumPassengers() != tt.wantSum {
				t.Errorf("Expected %d passengers, got %d", tt.wantSum, got.SumPassengers())
			}
		})
	}
}

func TestFilterOrderIndependent(t *testing.T) {
	ds := testutil.ScenarioDataset()
	cities := []string{"A"}
	depots := []string{"X", "Y"}
	routes := []string{"1"}

	all := Filter(ds, cities, depots, routes)
	stepwise := Filter(Filter(Filter(ds, nil, nil, routes), nil, depots, nil), cities, nil, nil)
	reversed := Filter(Filter(ds, cities, nil, nil), nil, depots, routes)

	if !reflect.DeepEqual(all.Transactions, stepwise.Transactions) {
		t.Error("Route-then-depot-then-city filtering differs from combined filter")
	}
	if !reflect.DeepEqual(all.Transactions, reversed.Transactions) {
		t.Error("City-then-rest filtering differs from combined filter")
	}
}

func TestFilterDoesNotMutateBase(t *testing.T) {
	ds := testutil.ScenarioDataset()
	before := append([]models.Transaction(nil), ds.Transactions...)

	sub := Filter(ds, []string{"A"}, nil, nil)
	sub.Transactions[0].PassengerCount = 999

	if !reflect.DeepEqual(ds.Transactions, before) {
		t.Error("Filtered view shares rows with the base dataset")
	}
}

func TestAvailableRoutes(t *testing.T) {
	ds := models.NewDataset(append(testutil.ScenarioDataset().Transactions,
		testutil.Txn("A", "X", " 10 ", 9, 1, 10, "CASH", "General"),
		testutil.Txn("A", "X", "", 9, 1, 10, "CASH", "General"),
		testutil.Txn("B", "Z", "1", 9, 1, 10, "CASH", "General"),
	), true)

	tests := []struct {
		name   string
		cities []string
		depots []string
		want   []string
	}{
		{"no selection returns all routes", nil, nil, []string{"1", "10", "2"}},
		{"city A", []string{"A"}, nil, []string{"1", "10", "2"}},
		{"city B", []string{"B"}, nil, []string{"1"}},
		{"depot Y", nil, []string{"Y"}, []string{"2"}},
		{"city and depot", []string{"A"}, []string{"Z"}, []string{}},
		{"unknown city", []string{"Q"}, nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AvailableRoutes(ds, tt.cities, tt.depots)
			if got == nil {
				t.Fatal("AvailableRoutes returned nil, want a non-nil slice")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AvailableRoutes(%v, %v) = %v, want %v", tt.cities, tt.depots, got, tt.want)
			}
		})
	}
}

func TestAvailableRoutesWithinSubset(t *testing.T) {
	ds := testutil.ScenarioDataset()
	cities := []string{"A"}

	subset := Filter(ds, cities, nil, nil)
	present := make(map[string]bool)
	for _, tx := range subset.Transactions {
		present[tx.RouteName] = true
	}

	for _, route := range AvailableRoutes(ds, cities, nil) {
		if !present[route] {
			t.Errorf("Route %q offered but not present in the city subset", route)
		}
	}
}

func TestCityAndDepotOptions(t *testing.T) {
	ds := models.NewDataset(append(testutil.ScenarioDataset().Transactions,
		testutil.Txn("", "", "5", 9, 1, 10, "CASH", "General"),
		testutil.Txn(" C ", "W", "5", 9, 1, 10, "CASH", "General"),
	), true)

	if got, want := CityOptions(ds), []string{"A", "B", "C"}; !reflect.DeepEqual(got, want) {
		t.Errorf("CityOptions = %v, want %v", got, want)
	}
	if got, want := DepotOptions(ds), []string{"W", "X", "Y"}; !reflect.DeepEqual(got, want) {
		t.Errorf("DepotOptions = %v, want %v", got, want)
	}
}

func TestOptionsOnEmptyDataset(t *testing.T) {
	ds := models.EmptyDataset()

	if got := CityOptions(ds); len(got) != 0 {
		t.Errorf("Expected no cities, got %v", got)
	}
	if got := AvailableRoutes(ds, nil, nil); len(got) != 0 {
		t.Errorf("Expected no routes, got %v", got)
	}
}
