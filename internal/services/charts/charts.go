// Package charts turns dashboard series into chart data and renders them as PNG.
package charts

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/samber/lo"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"ridership/internal/models"
)

// Chart types
const (
	TypePie  = "pie"
	TypeBar  = "bar"
	TypeArea = "area"
)

// ErrNoData is returned when a chart has nothing to draw
var ErrNoData = errors.New("no data to chart")

const (
	width  = 800
	height = 420
)

var fillColor = drawing.Color{R: 99, G: 110, B: 250, A: 255}

// PaymentModes builds the transaction type pie chart
func PaymentModes(dist map[string]int) (models.ChartData, models.ChartLayout) {
	labels := lo.Keys(dist)
	sort.Strings(labels)

	values := lo.Map(labels, func(l string, _ int) float64 { return float64(dist[l]) })
	return models.ChartData{Type: TypePie, Labels: labels, Values: values, Name: "Transactions"},
		models.ChartLayout{Title: "Transaction Type Distribution"}
}

// TimeBands builds the ridership by 3-hour interval bar chart
func TimeBands(series []models.BandTotal) (models.ChartData, models.ChartLayout) {
	return models.ChartData{
			Type:   TypeBar,
			Labels: lo.Map(series, func(b models.BandTotal, _ int) string { return b.Label }),
			Values: lo.Map(series, func(b models.BandTotal, _ int) float64 { return float64(b.Total) }),
			Name:   "Ridership",
		}, models.ChartLayout{
			Title:      "Ridership by 3-Hour Interval",
			XAxisTitle: "Time Interval",
			YAxisTitle: "Total Ridership",
		}
}

// PassengerTypes builds the passenger type pie chart from row shares
func PassengerTypes(dist map[string]float64) (models.ChartData, models.ChartLayout) {
	labels := lo.Keys(dist)
	sort.Strings(labels)

	values := lo.Map(labels, func(l string, _ int) float64 { return dist[l] })
	return models.ChartData{Type: TypePie, Labels: labels, Values: values, Name: "Share"},
		models.ChartLayout{Title: "Passenger Type Distribution"}
}

// HourWindow builds the ridership by hour area chart for [window.Start, window.End)
func HourWindow(series []models.HourTotal, window models.HourWindow) (models.ChartData, models.ChartLayout) {
	return models.ChartData{
			Type:   TypeArea,
			Labels: lo.Map(series, func(h models.HourTotal, _ int) string { return strconv.Itoa(h.Hour) }),
			Values: lo.Map(series, func(h models.HourTotal, _ int) float64 { return float64(h.Total) }),
			Name:   "Ridership",
		}, models.ChartLayout{
			Title:      fmt.Sprintf("Ridership Distribution from %d:00 to %d:00", window.Start, window.End),
			XAxisTitle: "Hour of Day",
			YAxisTitle: "Total Ridership",
			XMin:       float64(window.Start),
			XMax:       float64(window.End),
		}
}

// Render draws data as a PNG image into w
func Render(w io.Writer, data models.ChartData, layout models.ChartLayout) error {
	if len(data.Values) == 0 || len(data.Values) != len(data.Labels) {
		return ErrNoData
	}

	switch data.Type {
	case TypePie:
		return renderPie(w, data, layout)
	case TypeBar:
		return renderBar(w, data, layout)
	case TypeArea:
		return renderArea(w, data, layout)
	default:
		return fmt.Errorf("unknown chart type %q", data.Type)
	}
}

func renderPie(w io.Writer, data models.ChartData, layout models.ChartLayout) error {
	if lo.Sum(data.Values) <= 0 {
		return ErrNoData
	}

	values := make([]chart.Value, 0, len(data.Values))
	for i, v := range data.Values {
		if v > 0 {
			values = append(values, chart.Value{Label: data.Labels[i], Value: v})
		}
	}

	pie := chart.PieChart{
		Title:  layout.Title,
		Width:  height,
		Height: height,
		Values: values,
	}
	return pie.Render(chart.PNG, w)
}

func renderBar(w io.Writer, data models.ChartData, layout models.ChartLayout) error {
	bars := make([]chart.Value, 0, len(data.Values))
	for i, v := range data.Values {
		bars = append(bars, chart.Value{
			Label: data.Labels[i],
			Value: v,
			Style: chart.Style{FillColor: fillColor, StrokeColor: fillColor},
		})
	}

	bar := chart.BarChart{
		Title:      layout.Title,
		Width:      width,
		Height:     height,
		BarWidth:   50,
		BarSpacing: 30,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Name:  layout.YAxisTitle,
			Range: &chart.ContinuousRange{Min: 0, Max: upperBound(data.Values)},
		},
		Bars: bars,
	}
	return bar.Render(chart.PNG, w)
}

func renderArea(w io.Writer, data models.ChartData, layout models.ChartLayout) error {
	xs := make([]float64, 0, len(data.Labels))
	for _, l := range data.Labels {
		x, err := strconv.ParseFloat(l, 64)
		if err != nil {
			return fmt.Errorf("area chart label %q is not numeric: %w", l, err)
		}
		xs = append(xs, x)
	}

	// A single point needs a second one to enclose an area
	ys := data.Values
	if len(xs) == 1 {
		xs = append(xs, xs[0]+1)
		ys = append([]float64{ys[0]}, ys[0])
	}

	xMin, xMax := lo.Min(xs), lo.Max(xs)
	if layout.XMax > layout.XMin {
		xMin, xMax = layout.XMin, layout.XMax
	}
	graph := chart.Chart{
		Title:  layout.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16},
		},
		XAxis: chart.XAxis{
			Name:           layout.XAxisTitle,
			Range:          &chart.ContinuousRange{Min: xMin, Max: xMax},
			ValueFormatter: hourFormatter,
		},
		YAxis: chart.YAxis{
			Name:  layout.YAxisTitle,
			Range: &chart.ContinuousRange{Min: 0, Max: upperBound(ys)},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    data.Name,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: fillColor,
					StrokeWidth: 2,
					FillColor:   fillColor.WithAlpha(96),
				},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

// upperBound leaves headroom above the tallest value and never returns zero
func upperBound(values []float64) float64 {
	top := lo.Max(values)
	if top <= 0 {
		return 1
	}
	return top * 1.1
}

func hourFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f:00", f)
	}
	return ""
}
