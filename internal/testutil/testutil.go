// Package testutil provides fixtures and HTTP helpers for the ridership tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"ridership/internal/models"
)

// CSVHeader is the column row of a transaction export including passenger type
const CSVHeader = "DEPOT_NAME,CITY_NAME,ROUTE_NAME,PASSENGER_COUNT,FARE_COLLECTED,PAYMENT_MODE,TICKET_TIME_STAMP,Passenger Type"

// ProjectRoot returns the root directory of the project by locating go.mod
func ProjectRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("could not get caller info")
	}

	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// TemplatesDir returns the path to the HTML templates
func TemplatesDir() string {
	return filepath.Join(ProjectRoot(), "web", "templates")
}

// Txn builds a transaction with derived fields for the given hour of 2025-09-06
func Txn(city, depot, route string, hour, passengers int, fare float64, mode, passengerType string) models.Transaction {
	t := models.Transaction{
		CityName:       city,
		DepotName:      depot,
		RouteName:      route,
		PassengerCount: passengers,
		FareCollected:  fare,
		PaymentMode:    mode,
		PassengerType:  passengerType,
		Timestamp:      time.Date(2025, 9, 6, hour, 30, 0, 0, time.UTC),
	}
	t.ComputeDerivedFields()
	return t
}

// ScenarioDataset returns the three-row dataset used across the engine tests:
// A/X/1 at 07h (10), A/Y/2 at 07h (5), B/X/1 at 20h (3)
func ScenarioDataset() *models.Dataset {
	return models.NewDataset([]models.Transaction{
		Txn("A", "X", "1", 7, 10, 100, "CASH", "Student"),
		Txn("A", "Y", "2", 7, 5, 50, "UPI", "General"),
		Txn("B", "X", "1", 20, 3, 30, "CASH", "General"),
	}, true)
}

// WriteCSV writes transactions as a CSV export into a temp dir and returns its path
func WriteCSV(t *testing.T, transactions []models.Transaction) string {
	t.Helper()

	var b strings.Builder
	b.WriteString(CSVHeader + "\n")
	for _, tx := range transactions {
		b.WriteString(strings.Join([]string{
			tx.DepotName,
			tx.CityName,
			tx.RouteName,
			strconv.Itoa(tx.PassengerCount),
			strconv.FormatFloat(tx.FareCollected, 'f', -1, 64),
			tx.PaymentMode,
			tx.Timestamp.Format("2006-01-02 15:04:05"),
			tx.PassengerType,
		}, ","))
		b.WriteString("\n")
	}

	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("Failed to write CSV fixture: %v", err)
	}
	return path
}

// TestServer wraps httptest.Server with convenience methods
type TestServer struct {
	Server  *httptest.Server
	BaseURL string
	t       *testing.T
}

// NewTestServer starts a server for the given router and closes it with the test
func NewTestServer(t *testing.T, router http.Handler) *TestServer {
	t.Helper()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:  server,
		BaseURL: server.URL,
		t:       t,
	}
}

// GET performs a GET request to the given path
func (ts *TestServer) GET(path string) *http.Response {
	ts.t.Helper()

	resp, err := ts.client().Get(ts.BaseURL + path)
	if err != nil {
		ts.t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

// GETWithQuery performs a GET request with query parameters.
// Repeated keys are sent once per value, as the dashboard's multi-selects do.
func (ts *TestServer) GETWithQuery(path string, query url.Values) *http.Response {
	ts.t.Helper()

	target := ts.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	resp, err := ts.client().Get(target)
	if err != nil {
		ts.t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

// client does not follow redirects so tests can assert on them
func (ts *TestServer) client() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
