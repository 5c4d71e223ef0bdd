package charts

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"ridership/internal/models"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestBuilders(t *testing.T) {
	data, layout := PaymentModes(map[string]int{"UPI": 2, "CASH": 5})
	if !reflect.DeepEqual(data.Labels, []string{"CASH", "UPI"}) || !reflect.DeepEqual(data.Values, []float64{5, 2}) {
		t.Errorf("Unexpected payment chart data: %+v", data)
	}
	if layout.Title != "Transaction Type Distribution" {
		t.Errorf("Unexpected title %q", layout.Title)
	}

	data, layout = TimeBands([]models.BandTotal{{Label: "06-09 hrs", Total: 15}, {Label: "18-21 hrs", Total: 3}})
	if data.Type != TypeBar || !reflect.DeepEqual(data.Labels, []string{"06-09 hrs", "18-21 hrs"}) {
		t.Errorf("Unexpected band chart data: %+v", data)
	}
	if layout.Title != "Ridership by 3-Hour Interval" {
		t.Errorf("Unexpected title %q", layout.Title)
	}

	_, layout = PassengerTypes(map[string]float64{"General": 1})
	if layout.Title != "Passenger Type Distribution" {
		t.Errorf("Unexpected title %q", layout.Title)
	}

	data, layout = HourWindow([]models.HourTotal{{Hour: 7, Total: 15}}, models.HourWindow{Start: 6, End: 18})
	if layout.Title != "Ridership Distribution from 6:00 to 18:00" {
		t.Errorf("Unexpected title %q", layout.Title)
	}
	if layout.XMin != 6 || layout.XMax != 18 {
		t.Errorf("Expected x range 6-18, got %v-%v", layout.XMin, layout.XMax)
	}
	if !reflect.DeepEqual(data.Labels, []string{"7"}) {
		t.Errorf("Unexpected hour labels: %v", data.Labels)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		data   models.ChartData
		layout models.ChartLayout
	}{
		{
			name: "pie",
			data: models.ChartData{Type: TypePie, Labels: []string{"CASH", "UPI"}, Values: []float64{5, 2}},
		},
		{
			name: "single slice pie",
			data: models.ChartData{Type: TypePie, Labels: []string{"General"}, Values: []float64{1}},
		},
		{
			name: "bar",
			data: models.ChartData{Type: TypeBar, Labels: []string{"06-09 hrs", "18-21 hrs"}, Values: []float64{15, 3}},
		},
		{
			name: "single bar",
			data: models.ChartData{Type: TypeBar, Labels: []string{"06-09 hrs"}, Values: []float64{15}},
		},
		{
			name:   "area",
			data:   models.ChartData{Type: TypeArea, Labels: []string{"6", "7", "12"}, Values: []float64{2, 15, 4}},
			layout: models.ChartLayout{XMin: 6, XMax: 18},
		},
		{
			name:   "single point area",
			data:   models.ChartData{Type: TypeArea, Labels: []string{"7"}, Values: []float64{15}},
			layout: models.ChartLayout{XMin: 6, XMax: 18},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Render(&buf, tt.data, tt.layout); err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
				t.Error("Output is not a PNG image")
			}
		})
	}
}

func TestRenderNoData(t *testing.T) {
	tests := []struct {
		name string
		data models.ChartData
	}{
		{"empty pie", models.ChartData{Type: TypePie}},
		{"zero pie", models.ChartData{Type: TypePie, Labels: []string{"CASH"}, Values: []float64{0}}},
		{"empty bar", models.ChartData{Type: TypeBar}},
		{"empty area", models.ChartData{Type: TypeArea}},
		{"mismatched lengths", models.ChartData{Type: TypeBar, Labels: []string{"a"}, Values: []float64{1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Render(&buf, tt.data, models.ChartLayout{}); !errors.Is(err, ErrNoData) {
				t.Errorf("Expected ErrNoData, got %v", err)
			}
		})
	}
}

func TestRenderUnknownType(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, models.ChartData{Type: "radar", Labels: []string{"a"}, Values: []float64{1}}, models.ChartLayout{})
	if err == nil || errors.Is(err, ErrNoData) {
		t.Errorf("Expected unknown type error, got %v", err)
	}
}
