package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/term"

	"ridership/internal/config"
	dashboardhandlers "ridership/internal/handlers/dashboard"
	apphttp "ridership/internal/http"
	"ridership/internal/models"
	dashboardsvc "ridership/internal/services/dashboard"
	"ridership/internal/services/dataloader"
	"ridership/internal/services/storage"
	"ridership/internal/telemetry"
	"ridership/internal/templates"
	"ridership/internal/version"
)

var (
	cfg               *config.Config
	store             *storage.Storage
	engine            *dashboardsvc.Engine
	renderer          *templates.Renderer
	meterProvider     metric.MeterProvider
	shutdownTelemetry telemetry.ShutdownFunc
)

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	log.Printf("Starting %s", version.Get().String())
	log.Printf("Data file: %s", cfg.DataFile)

	if err := SetupDependencies(cfg); err != nil {
		log.Fatalf("Error: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: server shutdown: %v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Printf("Warning: telemetry shutdown: %v", err)
	}
	store.Lock()
}

// SetupDependencies loads the dataset and builds everything the router needs.
// A data file that exists but cannot be read or parsed is a fatal error.
func SetupDependencies(c *config.Config) error {
	cfg = c

	store = storage.New()
	if err := unlockStorage(cfg.DataFile, cfg.Passphrase); err != nil {
		return err
	}

	ds, err := dataloader.New(cfg.DataFile, store).Load()
	if err != nil {
		return err
	}

	meterProvider, shutdownTelemetry, err = telemetry.Setup(context.Background(), cfg.Telemetry, version.Get().Version)
	if err != nil {
		return err
	}
	instruments, err := telemetry.NewInstruments(meterProvider)
	if err != nil {
		return fmt.Errorf("creating instruments: %w", err)
	}
	if err := telemetry.RegisterDatasetGauge(meterProvider, ds.Len); err != nil {
		return fmt.Errorf("registering dataset gauge: %w", err)
	}

	engine = dashboardsvc.NewEngine(ds, instruments)

	renderer, err = templates.New(cfg.TemplatesDirectory, cfg.CurrencySymbol, cfg.Debug)
	if err != nil {
		log.Printf("Warning: could not load templates: %v", err)
		renderer = nil
	}

	return nil
}

// unlockStorage supplies the passphrase for an encrypted data file, prompting
// on the terminal when none is configured
func unlockStorage(path, passphrase string) error {
	encrypted, err := store.IsEncrypted(path)
	if err != nil || !encrypted {
		// Missing files are handled by the loader
		return nil
	}

	if passphrase == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("%s is encrypted: set RIDERSHIP_PASSPHRASE", path)
		}
		fmt.Fprintf(os.Stderr, "Passphrase for %s: ", path)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("reading passphrase: %w", err)
		}
		passphrase = string(raw)
	}

	return store.Unlock(passphrase)
}

// SetupRouter builds the HTTP handler tree
func SetupRouter() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
	})

	window := models.HourWindow{Start: cfg.DefaultStartHour, End: cfg.DefaultEndHour}
	dashboardhandlers.New(engine, renderer, window).RegisterRoutes(r)

	// API routes
	r.Get("/api/health", handleHealth)

	return otelhttp.NewHandler(r, "ridership", otelhttp.WithMeterProvider(meterProvider))
}

// HealthResponse is the JSON body of /api/health
type HealthResponse struct {
	Status  string `json:"status"`
	Rows    int    `json:"rows"`
	LoadID  string `json:"load_id"`
	Version string `json:"version"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	ds := engine.Dataset()
	apphttp.WriteJSON(w, HealthResponse{
		Status:  "ok",
		Rows:    ds.Len(),
		LoadID:  ds.LoadID,
		Version: version.Get().Short(),
	})
}
