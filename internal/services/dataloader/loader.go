package dataloader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"ridership/internal/models"
	"ridership/internal/services/storage"
)

// Standard column names of the ETIM transaction export
const (
	ColDepot         = "DEPOT_NAME"
	ColCity          = "CITY_NAME"
	ColRoute         = "ROUTE_NAME"
	ColPassengers    = "PASSENGER_COUNT"
	ColFare          = "FARE_COLLECTED"
	ColPaymentMode   = "PAYMENT_MODE"
	ColTimestamp     = "TICKET_TIME_STAMP"
	ColPassengerType = "Passenger Type"
)

var (
	// ErrMissingColumn is returned when a required column is absent from the header
	ErrMissingColumn = errors.New("missing required column")

	// ErrInvalidValue is returned when a cell cannot be coerced to its column type
	ErrInvalidValue = errors.New("invalid value")
)

// requiredColumns must be present in every input file
var requiredColumns = []string{
	ColDepot, ColCity, ColRoute, ColPassengers, ColFare, ColPaymentMode, ColTimestamp,
}

// columnMappings maps export column name variants to our standard names
var columnMappings = map[string][]string{
	ColDepot:         {"DEPOT_NAME", "Depot Name", "depot_name", "DEPOT"},
	ColCity:          {"CITY_NAME", "City Name", "city_name", "CITY"},
	ColRoute:         {"ROUTE_NAME", "Route Name", "route_name", "ROUTE"},
	ColPassengers:    {"PASSENGER_COUNT", "Passenger Count", "passenger_count"},
	ColFare:          {"FARE_COLLECTED", "Fare Collected", "fare_collected", "FARE"},
	ColPaymentMode:   {"PAYMENT_MODE", "Payment Mode", "payment_mode"},
	ColTimestamp:     {"TICKET_TIME_STAMP", "Ticket Time Stamp", "ticket_time_stamp", "TIMESTAMP"},
	ColPassengerType: {"Passenger Type", "PASSENGER_TYPE", "passenger_type"},
}

// missingMarkers are cell values treated as blank, matching common NA spellings
var missingMarkers = map[string]bool{
	"":    true,
	"NaN": true,
	"nan": true,
	"NA":  true,
	"N/A": true,
}

// timestampLayouts are tried in order; slash and dash dates are month-first
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/06 15:04",
	"01-02-2006 15:04:05",
	"01-02-2006 15:04",
	"2006-01-02",
}

// DataLoader reads the transaction log once and derives the time band fields
type DataLoader struct {
	Path  string
	store *storage.Storage

	once    sync.Once
	dataset *models.Dataset
	err     error
}

// New creates a new DataLoader for a single transaction file
func New(path string, store *storage.Storage) *DataLoader {
	if store == nil {
		store = storage.New()
	}
	return &DataLoader{
		Path:  path,
		store: store,
	}
}

// Load returns the dataset, reading the file on the first call only.
// A missing file yields an empty dataset with the full schema and no error.
func (dl *DataLoader) Load() (*models.Dataset, error) {
	dl.once.Do(func() {
		dl.dataset, dl.err = dl.load()
	})
	return dl.dataset, dl.err
}

func (dl *DataLoader) load() (*models.Dataset, error) {
	data, err := dl.store.ReadFile(dl.Path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("Error: the file '%s' was not found - using an empty dataset", dl.Path)
		log.Printf("Make sure the transaction export is present or set RIDERSHIP_DATA_FILE")
		ds := models.EmptyDataset()
		ds.LoadID = uuid.NewString()
		ds.Source = dl.Path
		return ds, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", dl.Path, err)
	}

	var records [][]string
	if strings.EqualFold(filepath.Ext(dl.Path), ".xlsx") {
		records, err = readXLSXRecords(data)
	} else {
		records, err = readCSVRecords(data)
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", filepath.Base(dl.Path), err)
	}

	ds, err := buildDataset(records)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", filepath.Base(dl.Path), err)
	}
	ds.LoadID = uuid.NewString()
	ds.Source = dl.Path

	log.Printf("Loaded %d transactions from %s", ds.Len(), filepath.Base(dl.Path))
	if !ds.HasPassengerType {
		log.Printf("No '%s' column in %s - passenger type chart disabled", ColPassengerType, filepath.Base(dl.Path))
	}
	return ds, nil
}

// readCSVRecords parses delimited text into rows
func readCSVRecords(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // Allow ragged rows; padded below
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return records, nil
}

// readXLSXRecords reads the first sheet of a workbook into rows
func readXLSXRecords(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xlsx open failed: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// normalizeColumnName maps an export column name to our standard name
func normalizeColumnName(col string) string {
	col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
	for standard, variants := range columnMappings {
		for _, variant := range variants {
			if col == variant {
				return standard
			}
		}
	}
	return col
}

// buildColumnIndex maps standard names to the header names as written
func buildColumnIndex(names []string) map[string]string {
	index := make(map[string]string)
	for _, name := range names {
		normalized := normalizeColumnName(name)
		// First match wins
		if _, exists := index[normalized]; !exists {
			index[normalized] = name
		}
	}
	return index
}

// buildDataset converts header+rows into typed transactions via a string frame
func buildDataset(records [][]string) (*models.Dataset, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}

	header := records[0]
	index := buildColumnIndex(header)
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	_, hasPassengerType := index[ColPassengerType]

	if len(records) == 1 {
		return models.NewDataset(nil, hasPassengerType), nil
	}

	frame := dataframe.LoadRecords(
		padRecords(records),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if frame.Err != nil {
		return nil, frame.Err
	}

	var colErr error
	column := func(standard string) []string {
		col := frame.Col(index[standard])
		if col.Err != nil || col.Len() != frame.Nrow() {
			colErr = fmt.Errorf("column %s could not be read (duplicate header?)", standard)
			return make([]string, frame.Nrow())
		}
		return col.Records()
	}

	depots := column(ColDepot)
	cities := column(ColCity)
	routes := column(ColRoute)
	counts := column(ColPassengers)
	fares := column(ColFare)
	modes := column(ColPaymentMode)
	stamps := column(ColTimestamp)
	var types []string
	if hasPassengerType {
		types = column(ColPassengerType)
	}
	if colErr != nil {
		return nil, colErr
	}

	transactions := make([]models.Transaction, 0, frame.Nrow())
	for i := 0; i < frame.Nrow(); i++ {
		line := i + 2 // header is line 1

		count, err := parseCount(counts[i])
		if err != nil {
			return nil, fmt.Errorf("line %d, %s: %w", line, ColPassengers, err)
		}
		fare, err := parseFare(fares[i])
		if err != nil {
			return nil, fmt.Errorf("line %d, %s: %w", line, ColFare, err)
		}
		ts, err := parseTimestamp(stamps[i])
		if err != nil {
			return nil, fmt.Errorf("line %d, %s: %w", line, ColTimestamp, err)
		}

		t := models.Transaction{
			DepotName:      cleanString(depots[i]),
			CityName:       cleanString(cities[i]),
			RouteName:      cleanString(routes[i]),
			PassengerCount: count,
			FareCollected:  fare,
			PaymentMode:    cleanString(modes[i]),
			Timestamp:      ts,
		}
		if hasPassengerType {
			t.PassengerType = cleanString(types[i])
		}
		t.ComputeDerivedFields()
		transactions = append(transactions, t)
	}

	return models.NewDataset(transactions, hasPassengerType), nil
}

// padRecords extends short rows to the header width
func padRecords(records [][]string) [][]string {
	width := len(records[0])
	for i, row := range records {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			records[i] = padded
		}
	}
	return records
}

// cleanString trims whitespace and folds NA markers to blank
func cleanString(s string) string {
	s = strings.TrimSpace(s)
	if missingMarkers[s] {
		return ""
	}
	return s
}

// parseCount parses a non-negative passenger count; blanks count as zero
func parseCount(s string) (int, error) {
	s = cleanString(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("%w: negative count %q", ErrInvalidValue, s)
		}
		return n, nil
	}
	// Spreadsheet exports often write integers as "12.0"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: count %q", ErrInvalidValue, s)
	}
	return int(f), nil
}

// parseFare parses a non-negative amount, tolerating currency symbols and separators
func parseFare(s string) (float64, error) {
	s = cleanString(s)
	s = strings.ReplaceAll(s, "₹", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: fare %q", ErrInvalidValue, s)
	}
	return f, nil
}

// parseTimestamp tries the known layouts, then an Excel serial date
func parseTimestamp(s string) (time.Time, error) {
	s = cleanString(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrInvalidValue)
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrInvalidValue, s)
}
