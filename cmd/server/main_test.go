package main

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ridership/internal/config"
	"ridership/internal/handlers/dashboard"
	"ridership/internal/models"
	"ridership/internal/services/storage"
	"ridership/internal/testutil"
)

// testConfig points the server at the given data file and the project templates
func testConfig(dataFile string) *config.Config {
	return &config.Config{
		ListenAddr:         ":0",
		Debug:              true,
		DataFile:           dataFile,
		TemplatesDirectory: testutil.TemplatesDir(),
		CurrencySymbol:     "₹",
		DefaultStartHour:   6,
		DefaultEndHour:     18,
	}
}

// setupTestServer loads the scenario dataset and returns a test server
func setupTestServer(t *testing.T) *testutil.TestServer {
	t.Helper()

	path := testutil.WriteCSV(t, testutil.ScenarioDataset().Transactions)
	if err := SetupDependencies(testConfig(path)); err != nil {
		t.Fatalf("Failed to setup dependencies: %v", err)
	}

	return testutil.NewTestServer(t, SetupRouter())
}

func TestHealthEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	var health HealthResponse
	testutil.AssertResponse(t, ts.GET("/api/health")).
		StatusOK().
		ContentTypeJSON().
		JSON(&health)

	if health.Status != "ok" {
		t.Errorf("Expected status ok, got %q", health.Status)
	}
	if health.Rows != 3 {
		t.Errorf("Expected 3 rows, got %d", health.Rows)
	}
	if health.LoadID == "" {
		t.Error("Expected a load ID")
	}
}

func TestRootRedirect(t *testing.T) {
	ts := setupTestServer(t)

	testutil.AssertResponse(t, ts.GET("/")).RedirectsTo("/dashboard")
}

func TestDashboardPage(t *testing.T) {
	ts := setupTestServer(t)

	testutil.AssertResponse(t, ts.GET("/dashboard")).
		StatusOK().
		ContentTypeHTML().
		Contains(dashboard.Title, "Total Ridership", "Total Revenue", "Peak Hour", "Off-Peak Hour").
		Contains("₹ 180.00", "06-09 hrs", "18-21 hrs").
		HasElement("city-dropdown").
		HasElement("depot-dropdown").
		HasElement("route-dropdown").
		HasElement("chart-payment-modes").
		HasElement("chart-time-bands").
		HasElement("chart-passenger-types").
		HasElement("chart-hours").
		NotContains("window-error")
}

func TestDashboardPageFiltered(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GETWithQuery("/dashboard", url.Values{"city": {"B"}})
	testutil.AssertResponse(t, resp).
		StatusOK().
		Contains("₹ 30.00", "18-21 hrs").
		NotContains("06-09 hrs")
}

func TestDashboardPageBadWindow(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GETWithQuery("/dashboard", url.Values{"start": {"18"}, "end": {"6"}})
	testutil.AssertResponse(t, resp).
		StatusOK().
		HasElement("window-error")
}

func TestOptionsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	var opts models.FilterOptions
	testutil.AssertResponse(t, ts.GET("/dashboard/options")).
		StatusOK().
		ContentTypeJSON().
		JSON(&opts)

	if strings.Join(opts.Cities, ",") != "A,B" {
		t.Errorf("Expected cities A,B, got %v", opts.Cities)
	}
	if strings.Join(opts.Depots, ",") != "X,Y" {
		t.Errorf("Expected depots X,Y, got %v", opts.Depots)
	}
}

func TestRoutesEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name     string
		query    url.Values
		expected string
	}{
		{"no restriction", nil, "1,2"},
		{"city B", url.Values{"city": {"B"}}, "1"},
		{"depot Y", url.Values{"depot": {"Y"}}, "2"},
		{"unknown city", url.Values{"city": {"Z"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.GETWithQuery("/dashboard/routes", tt.query)

			var routes models.RouteOptions
			testutil.AssertResponse(t, resp).
				StatusOK().
				Contains(`"value":[]`, `"options":[`).
				JSON(&routes)

			if got := strings.Join(routes.Options, ","); got != tt.expected {
				t.Errorf("Expected routes %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDataEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GETWithQuery("/dashboard/data", url.Values{"city": {"A"}})

	var data models.DashboardData
	testutil.AssertResponse(t, resp).
		StatusOK().
		ContentTypeJSON().
		JSON(&data)

	if data.Cards.TotalRidership != 15 || data.Cards.TotalRevenue != 150 {
		t.Errorf("Unexpected totals: %+v", data.Cards)
	}
	if data.PaymentModes["CASH"] != 10 || data.PaymentModes["UPI"] != 5 {
		t.Errorf("Unexpected payment modes: %v", data.PaymentModes)
	}
	if len(data.TimeBands) != 1 || data.TimeBands[0].Label != "06-09 hrs" {
		t.Errorf("Unexpected time bands: %v", data.TimeBands)
	}
	if data.PassengerTypes["Student"] <= data.PassengerTypes["General"] {
		t.Errorf("Expected Student share above General, got %v", data.PassengerTypes)
	}
}

func TestHoursEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name       string
		query      url.Values
		wantStatus int
		wantHours  []int
	}{
		{"default window", nil, http.StatusOK, []int{7}},
		{"whole day", url.Values{"start": {"0"}, "end": {"24"}}, http.StatusOK, []int{7, 20}},
		{"evening", url.Values{"start": {"18"}, "end": {"24"}}, http.StatusOK, []int{20}},
		{"inverted", url.Values{"start": {"18"}, "end": {"6"}}, http.StatusBadRequest, nil},
		{"out of range", url.Values{"start": {"0"}, "end": {"25"}}, http.StatusBadRequest, nil},
		{"not a number", url.Values{"start": {"six"}}, http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ra := testutil.AssertResponse(t, ts.GETWithQuery("/dashboard/hours", tt.query)).
				Status(tt.wantStatus)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var hours dashboard.HoursResponse
			ra.JSON(&hours)
			if len(hours.Series) != len(tt.wantHours) {
				t.Fatalf("Expected %d points, got %v", len(tt.wantHours), hours.Series)
			}
			for i, h := range tt.wantHours {
				if hours.Series[i].Hour != h {
					t.Errorf("Point %d: expected hour %d, got %d", i, h, hours.Series[i].Hour)
				}
			}
		})
	}
}

func TestChartEndpoints(t *testing.T) {
	ts := setupTestServer(t)

	for _, chart := range []string{
		dashboard.ChartPaymentModes,
		dashboard.ChartTimeBands,
		dashboard.ChartPassengerTypes,
		dashboard.ChartHours,
	} {
		t.Run(chart, func(t *testing.T) {
			testutil.AssertResponse(t, ts.GET("/dashboard/charts/"+chart+".png")).
				StatusOK().
				IsPNG()
		})
	}
}

func TestChartEmptySelection(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GETWithQuery("/dashboard/charts/payment-modes.png", url.Values{"city": {"Z"}})
	testutil.AssertResponse(t, resp).Status(http.StatusNoContent)
}

func TestChartUnknown(t *testing.T) {
	ts := setupTestServer(t)

	testutil.AssertResponse(t, ts.GET("/dashboard/charts/revenue.png")).Status(http.StatusNotFound)
}

func TestExportEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GETWithQuery("/dashboard/export.xlsx", url.Values{"city": {"A"}})
	disposition := resp.Header.Get("Content-Disposition")

	body := testutil.AssertResponse(t, resp).
		StatusOK().
		ContentType("spreadsheetml").
		Body()

	if !strings.HasPrefix(disposition, `attachment; filename="ridership_`) {
		t.Errorf("Unexpected Content-Disposition %q", disposition)
	}
	// xlsx is a zip archive
	if !strings.HasPrefix(body, "PK") {
		t.Error("Expected a zip body")
	}
}

func TestMissingDataFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")
	if err := SetupDependencies(testConfig(path)); err != nil {
		t.Fatalf("Missing data file should not be fatal: %v", err)
	}
	ts := testutil.NewTestServer(t, SetupRouter())

	testutil.AssertResponse(t, ts.GET("/dashboard")).
		StatusOK().
		Contains("N/A", "₹ 0.00")

	testutil.AssertResponse(t, ts.GET("/dashboard/options")).
		StatusOK().
		Contains(`"cities":[]`)

	testutil.AssertResponse(t, ts.GET("/dashboard/charts/time-bands.png")).
		Status(http.StatusNoContent)
}

func TestMalformedDataFileIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.csv")
	content := testutil.CSVHeader + "\nX,A,1,10,100,CASH,not-a-date,General\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	if err := SetupDependencies(testConfig(path)); err == nil {
		t.Fatal("Expected an error for an unparseable timestamp")
	}
}

func TestEncryptedDataFile(t *testing.T) {
	path := testutil.WriteCSV(t, testutil.ScenarioDataset().Transactions)
	if err := storage.New().Seal(path, "testpassword123"); err != nil {
		t.Fatalf("Failed to seal fixture: %v", err)
	}

	// stdin is not a terminal under go test, so there is nothing to prompt
	if err := SetupDependencies(testConfig(path)); err == nil {
		t.Fatal("Expected an error without a passphrase")
	}

	cfg := testConfig(path)
	cfg.Passphrase = "testpassword123"
	if err := SetupDependencies(cfg); err != nil {
		t.Fatalf("Failed to setup with passphrase: %v", err)
	}
	ts := testutil.NewTestServer(t, SetupRouter())

	testutil.AssertResponse(t, ts.GET("/api/health")).
		StatusOK().
		Contains(`"rows":3`)
}
