package models

// Selection holds the current dropdown values. Empty slices mean "no restriction".
type Selection struct {
	Cities []string `json:"cities"`
	Depots []string `json:"depots"`
	Routes []string `json:"routes"`
}

// Cards contains the four KPI values shown at the top of the dashboard
type Cards struct {
	TotalRidership int     `json:"total_ridership"`
	TotalRevenue   float64 `json:"total_revenue"`
	PeakLabel      string  `json:"peak_label"`
	OffPeakLabel   string  `json:"off_peak_label"`
}

// BandTotal is one bar of the ridership-by-time-band chart
type BandTotal struct {
	Label string `json:"label"`
	Total int    `json:"total"`
}

// HourTotal is one point of the ridership-by-hour area chart
type HourTotal struct {
	Hour  int `json:"hour"`
	Total int `json:"total"`
}

// HourWindow is a half-open [Start, End) range of hours
type HourWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// DashboardData is everything the dashboard renders for one selection.
// PassengerTypes is nil when the dataset has no passenger type column.
type DashboardData struct {
	Cards          Cards              `json:"cards"`
	PaymentModes   map[string]int     `json:"payment_modes"`
	TimeBands      []BandTotal        `json:"time_bands"`
	PassengerTypes map[string]float64 `json:"passenger_types"`
}

// HasPassengerTypes reports whether the passenger type chart has a data source
func (d *DashboardData) HasPassengerTypes() bool {
	return d.PassengerTypes != nil
}

// RouteOptions is the result of recomputing the route dropdown.
// Value is always empty: the caller clears any previously selected routes.
type RouteOptions struct {
	Options []string `json:"options"`
	Value   []string `json:"value"`
}

// FilterOptions lists the values offered by the city and depot dropdowns
type FilterOptions struct {
	Cities []string `json:"cities"`
	Depots []string `json:"depots"`
}

// ChartData represents data for a single chart trace
type ChartData struct {
	Type   string    `json:"type"` // bar, pie, area
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Name   string    `json:"name"`
}

// ChartLayout defines chart presentation options
type ChartLayout struct {
	Title      string `json:"title,omitempty"`
	XAxisTitle string `json:"xaxis_title,omitempty"`
	YAxisTitle string `json:"yaxis_title,omitempty"`

	// Fixed x range; ignored unless XMax > XMin
	XMin float64 `json:"xaxis_min,omitempty"`
	XMax float64 `json:"xaxis_max,omitempty"`
}
