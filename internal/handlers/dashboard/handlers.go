package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	apphttp "ridership/internal/http"
	"ridership/internal/models"
	"ridership/internal/services/charts"
	dashboardsvc "ridership/internal/services/dashboard"
	"ridership/internal/services/export"
	"ridership/internal/templates"
)

// Title is shown as the page heading
const Title = "CRUT Daily Operations Dashboard"

// Chart names accepted by /dashboard/charts/{chart}.png
const (
	ChartPaymentModes   = "payment-modes"
	ChartTimeBands      = "time-bands"
	ChartPassengerTypes = "passenger-types"
	ChartHours          = "hours"
)

// Handler serves the dashboard page and its data endpoints
type Handler struct {
	engine        *dashboardsvc.Engine
	renderer      *templates.Renderer
	defaultWindow models.HourWindow
}

// New creates a dashboard handler. renderer may be nil, in which case the
// page falls back to a plain notice while the JSON and image endpoints still work.
func New(engine *dashboardsvc.Engine, renderer *templates.Renderer, defaultWindow models.HourWindow) *Handler {
	return &Handler{
		engine:        engine,
		renderer:      renderer,
		defaultWindow: defaultWindow,
	}
}

// RegisterRoutes registers all dashboard routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/dashboard/options", h.handleOptions)
	r.Get("/dashboard/routes", h.handleRoutes)
	r.Get("/dashboard/data", h.handleData)
	r.Get("/dashboard/hours", h.handleHours)
	r.Get("/dashboard/charts/{chart}.png", h.handleChart)
	r.Get("/dashboard/export.xlsx", h.handleExport)
}

// Page is the template data of the dashboard page
type Page struct {
	Title     string
	Options   models.FilterOptions
	Routes    []string
	Selection models.Selection
	Window    models.HourWindow
	Data      *models.DashboardData
	Query     template.URL
	Error     string
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sel := apphttp.ParseSelection(r)

	page := Page{
		Title:     Title,
		Options:   h.engine.Options(ctx),
		Routes:    h.engine.RouteOptions(ctx, sel.Cities, sel.Depots).Options,
		Selection: sel,
		Data:      h.engine.Dashboard(ctx, sel),
	}

	window, err := apphttp.ParseHourWindow(r, h.defaultWindow)
	if err != nil {
		page.Error = err.Error()
	}
	page.Window = window
	page.Query = chartQuery(sel, window)

	apphttp.RenderTemplate(w, h.renderer, "dashboard", page)
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	apphttp.WriteJSON(w, h.engine.Options(r.Context()))
}

func (h *Handler) handleRoutes(w http.ResponseWriter, r *http.Request) {
	sel := apphttp.ParseSelection(r)
	apphttp.WriteJSON(w, h.engine.RouteOptions(r.Context(), sel.Cities, sel.Depots))
}

func (h *Handler) handleData(w http.ResponseWriter, r *http.Request) {
	apphttp.WriteJSON(w, h.engine.Dashboard(r.Context(), apphttp.ParseSelection(r)))
}

// HoursResponse is the JSON body of /dashboard/hours
type HoursResponse struct {
	Window models.HourWindow  `json:"window"`
	Series []models.HourTotal `json:"series"`
}

func (h *Handler) handleHours(w http.ResponseWriter, r *http.Request) {
	window, err := apphttp.ParseHourWindow(r, h.defaultWindow)
	if err != nil {
		apphttp.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	series := h.engine.HourWindow(r.Context(), apphttp.ParseSelection(r), window)
	apphttp.WriteJSON(w, HoursResponse{Window: window, Series: series})
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sel := apphttp.ParseSelection(r)

	var (
		data   models.ChartData
		layout models.ChartLayout
	)

	switch name := chi.URLParam(r, "chart"); name {
	case ChartPaymentModes:
		data, layout = charts.PaymentModes(h.engine.Dashboard(ctx, sel).PaymentModes)
	case ChartTimeBands:
		data, layout = charts.TimeBands(h.engine.Dashboard(ctx, sel).TimeBands)
	case ChartPassengerTypes:
		result := h.engine.Dashboard(ctx, sel)
		if !result.HasPassengerTypes() {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		data, layout = charts.PassengerTypes(result.PassengerTypes)
	case ChartHours:
		window, err := apphttp.ParseHourWindow(r, h.defaultWindow)
		if err != nil {
			apphttp.ErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, layout = charts.HourWindow(h.engine.HourWindow(ctx, sel, window), window)
	default:
		apphttp.ErrorResponse(w, fmt.Sprintf("Unknown chart %q", name), http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := charts.Render(&buf, data, layout); err != nil {
		if errors.Is(err, charts.ErrNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		apphttp.ErrorResponse(w, "Error rendering chart: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	window, err := apphttp.ParseHourWindow(r, h.defaultWindow)
	if err != nil {
		apphttp.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	sel := apphttp.ParseSelection(r)
	ds := h.engine.Dataset()
	now := time.Now()

	report := export.Report{
		Selection:   sel,
		Window:      window,
		Data:        h.engine.Dashboard(ctx, sel),
		Hours:       h.engine.HourWindow(ctx, sel, window),
		LoadID:      ds.LoadID,
		Source:      ds.Source,
		GeneratedAt: now,
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, report); err != nil {
		apphttp.ErrorResponse(w, "Error building workbook: "+err.Error(), http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("ridership_%s.xlsx", now.Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(buf.Bytes())
}

// chartQuery encodes the selection and window for chart and export links
func chartQuery(sel models.Selection, window models.HourWindow) template.URL {
	q := url.Values{}
	for _, c := range sel.Cities {
		q.Add("city", c)
	}
	for _, d := range sel.Depots {
		q.Add("depot", d)
	}
	for _, rt := range sel.Routes {
		q.Add("route", rt)
	}
	q.Set("start", fmt.Sprint(window.Start))
	q.Set("end", fmt.Sprint(window.End))
	return template.URL(q.Encode())
}
