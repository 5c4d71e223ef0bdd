// Package dashboard is the call boundary between the HTTP layer and the
// filter and aggregation services.
package dashboard

import (
	"context"
	"time"

	"ridership/internal/models"
	"ridership/internal/services/filter"
	"ridership/internal/services/metrics"
	"ridership/internal/telemetry"
)

// Engine answers dashboard queries against one loaded dataset.
// The dataset is never modified, so an Engine is safe for concurrent use.
type Engine struct {
	dataset     *models.Dataset
	metrics     *metrics.Service
	instruments *telemetry.Instruments
}

// NewEngine creates an engine over ds. instruments may be nil.
func NewEngine(ds *models.Dataset, instruments *telemetry.Instruments) *Engine {
	if ds == nil {
		ds = models.EmptyDataset()
	}
	return &Engine{
		dataset:     ds,
		metrics:     metrics.New(),
		instruments: instruments,
	}
}

// Dataset returns the underlying dataset
func (e *Engine) Dataset() *models.Dataset {
	return e.dataset
}

// Options returns the city and depot dropdown values
func (e *Engine) Options(ctx context.Context) models.FilterOptions {
	start := time.Now()
	opts := models.FilterOptions{
		Cities: filter.CityOptions(e.dataset),
		Depots: filter.DepotOptions(e.dataset),
	}
	e.instruments.RecordComputation(ctx, "options", e.dataset.Len(), time.Since(start))
	return opts
}

// RouteOptions recomputes the route dropdown from the city and depot selection.
// The returned Value is empty so the caller clears any selected routes.
func (e *Engine) RouteOptions(ctx context.Context, cities, depots []string) models.RouteOptions {
	start := time.Now()
	routes := filter.AvailableRoutes(e.dataset, cities, depots)
	e.instruments.RecordComputation(ctx, "routes", len(routes), time.Since(start))
	return models.RouteOptions{
		Options: routes,
		Value:   []string{},
	}
}

// Dashboard computes the KPI cards and the three selection-driven charts
func (e *Engine) Dashboard(ctx context.Context, sel models.Selection) *models.DashboardData {
	start := time.Now()
	subset := filter.BySelection(e.dataset, sel)

	data := &models.DashboardData{
		Cards:        e.metrics.Cards(subset),
		PaymentModes: e.metrics.PaymentModeDistribution(subset),
		TimeBands:    e.metrics.TimeBandSeries(subset),
	}
	if dist, ok := e.metrics.PassengerTypeDistribution(subset); ok {
		data.PassengerTypes = dist
	}

	e.instruments.RecordComputation(ctx, "dashboard", subset.Len(), time.Since(start))
	return data
}

// HourWindow computes the ridership-by-hour series for [window.Start, window.End)
func (e *Engine) HourWindow(ctx context.Context, sel models.Selection, window models.HourWindow) []models.HourTotal {
	start := time.Now()
	subset := filter.BySelection(e.dataset, sel)
	series := e.metrics.HourWindowSeries(subset, window.Start, window.End)
	e.instruments.RecordComputation(ctx, "hours", subset.Len(), time.Since(start))
	return series
}
