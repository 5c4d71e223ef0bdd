// Package export writes the current dashboard view to an Excel workbook.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"

	"ridership/internal/models"
)

// Sheet names
const (
	SheetSummary        = "Summary"
	SheetPaymentModes   = "Payment Modes"
	SheetTimeBands      = "Time Bands"
	SheetPassengerTypes = "Passenger Types"
	SheetHours          = "Hours"
)

// percentFormat is the built-in "0.00%" number format
const percentFormat = 10

// Report is one dashboard view ready for export
type Report struct {
	Selection   models.Selection
	Window      models.HourWindow
	Data        *models.DashboardData
	Hours       []models.HourTotal
	LoadID      string
	Source      string
	GeneratedAt time.Time
}

// Write renders the report as an .xlsx workbook into w
func Write(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	percentStyle, err := f.NewStyle(&excelize.Style{NumFmt: percentFormat})
	if err != nil {
		return fmt.Errorf("creating percent style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	if err := writeRows(f, SheetSummary, headerStyle, []string{"Field", "Value"}, summaryRows(r)); err != nil {
		return err
	}

	modes := lo.Keys(r.Data.PaymentModes)
	sort.Strings(modes)
	modeRows := lo.Map(modes, func(m string, _ int) []interface{} {
		return []interface{}{m, r.Data.PaymentModes[m]}
	})
	if err := addSheet(f, SheetPaymentModes, headerStyle, []string{"Payment Mode", "Transactions"}, modeRows); err != nil {
		return err
	}

	bandRows := lo.Map(r.Data.TimeBands, func(b models.BandTotal, _ int) []interface{} {
		return []interface{}{b.Label, b.Total}
	})
	if err := addSheet(f, SheetTimeBands, headerStyle, []string{"Time Interval", "Total Ridership"}, bandRows); err != nil {
		return err
	}

	if r.Data.HasPassengerTypes() {
		types := lo.Keys(r.Data.PassengerTypes)
		sort.Strings(types)
		typeRows := lo.Map(types, func(pt string, _ int) []interface{} {
			return []interface{}{pt, r.Data.PassengerTypes[pt]}
		})
		if err := addSheet(f, SheetPassengerTypes, headerStyle, []string{"Passenger Type", "Share"}, typeRows); err != nil {
			return err
		}
		if len(typeRows) > 0 {
			end, _ := excelize.CoordinatesToCellName(2, len(typeRows)+1)
			if err := f.SetCellStyle(SheetPassengerTypes, "B2", end, percentStyle); err != nil {
				return err
			}
		}
	}

	hourRows := lo.Map(r.Hours, func(h models.HourTotal, _ int) []interface{} {
		return []interface{}{h.Hour, h.Total}
	})
	if err := addSheet(f, SheetHours, headerStyle, []string{"Hour", "Ridership"}, hourRows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func summaryRows(r Report) [][]interface{} {
	cards := r.Data.Cards
	return [][]interface{}{
		{"Generated", r.GeneratedAt.Format(time.RFC3339)},
		{"Load ID", r.LoadID},
		{"Source", r.Source},
		{"Cities", joinSelection(r.Selection.Cities)},
		{"Depots", joinSelection(r.Selection.Depots)},
		{"Routes", joinSelection(r.Selection.Routes)},
		{"Total Ridership", cards.TotalRidership},
		{"Total Revenue", cards.TotalRevenue},
		{"Peak Hour", cards.PeakLabel},
		{"Off-Peak Hour", cards.OffPeakLabel},
		{"Hour Window", fmt.Sprintf("%d:00-%d:00", r.Window.Start, r.Window.End)},
	}
}

func joinSelection(values []string) string {
	if len(values) == 0 {
		return "All"
	}
	return strings.Join(values, ", ")
}

func addSheet(f *excelize.File, name string, headerStyle int, header []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %s: %w", name, err)
	}
	return writeRows(f, name, headerStyle, header, rows)
}

// writeRows writes a bold header row followed by rows
func writeRows(f *excelize.File, sheet string, headerStyle int, header []string, rows [][]interface{}) error {
	headerRow := lo.Map(header, func(h string, _ int) interface{} { return h })
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+2, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(header))
	return f.SetColWidth(sheet, "A", lastCol, 22)
}
