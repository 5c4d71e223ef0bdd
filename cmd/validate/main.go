// Package main provides a CLI tool for smoke-testing a running ridership dashboard.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"
)

type endpoint struct {
	path        string
	contentType string
	contains    []string
	// Accepted statuses besides 200; chart images answer 204 when there is nothing to draw
	alsoOK []int
}

var pngMagic = []byte("\x89PNG")

var endpoints = []endpoint{
	// Page
	{path: "/dashboard", contentType: "text/html", contains: []string{"CRUT Daily Operations Dashboard", "Total Ridership", "Off-Peak Hour"}},

	// Data
	{path: "/dashboard/options", contentType: "application/json", contains: []string{`"cities"`, `"depots"`}},
	{path: "/dashboard/routes", contentType: "application/json", contains: []string{`"options"`, `"value":[]`}},
	{path: "/dashboard/data", contentType: "application/json", contains: []string{`"cards"`, `"time_bands"`}},
	{path: "/dashboard/hours?start=6&end=18", contentType: "application/json", contains: []string{`"series"`}},

	// Charts
	{path: "/dashboard/charts/payment-modes.png", contentType: "image/png", alsoOK: []int{http.StatusNoContent}},
	{path: "/dashboard/charts/time-bands.png", contentType: "image/png", alsoOK: []int{http.StatusNoContent}},
	{path: "/dashboard/charts/passenger-types.png", contentType: "image/png", alsoOK: []int{http.StatusNoContent}},
	{path: "/dashboard/charts/hours.png?start=0&end=24", contentType: "image/png", alsoOK: []int{http.StatusNoContent}},

	// Export
	{path: "/dashboard/export.xlsx", contentType: "spreadsheetml"},

	// API
	{path: "/api/health", contentType: "application/json", contains: []string{`"status":"ok"`, `"load_id"`}},
}

type result struct {
	status   int
	duration time.Duration
	err      error
}

func main() {
	url := flag.String("url", "http://localhost:8080", "Base URL of the server to validate")
	verbose := flag.Bool("v", false, "Verbose output")
	timeout := flag.Duration("timeout", 10*time.Second, "Request timeout")
	flag.Parse()

	client := &http.Client{Timeout: *timeout}

	fmt.Printf("Validating server at %s\n", *url)
	fmt.Printf("Testing %d endpoints...\n\n", len(endpoints))

	var passed, failed int
	for _, ep := range endpoints {
		r := validateEndpoint(client, *url, ep)

		if r.err != nil {
			failed++
			fmt.Printf("FAIL GET %s\n", ep.path)
			fmt.Printf("     %v\n", r.err)
			continue
		}
		passed++
		if *verbose {
			fmt.Printf("PASS GET %s [%d] (%v)\n", ep.path, r.status, r.duration)
		}
	}

	fmt.Printf("\n========================================\n")
	fmt.Printf("Results: %d passed, %d failed\n", passed, failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func validateEndpoint(client *http.Client, baseURL string, ep endpoint) result {
	start := time.Now()

	resp, err := client.Get(baseURL + ep.path)
	if err != nil {
		return result{err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result{err: fmt.Errorf("failed to read body: %w", err)}
	}

	r := result{status: resp.StatusCode, duration: time.Since(start)}

	if resp.StatusCode != http.StatusOK {
		if !slices.Contains(ep.alsoOK, resp.StatusCode) {
			r.err = fmt.Errorf("status %d (expected 200)", resp.StatusCode)
		}
		return r
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, ep.contentType) {
		r.err = fmt.Errorf("wrong content type: got %q, expected %q", ct, ep.contentType)
		return r
	}

	switch ep.contentType {
	case "application/json":
		var js interface{}
		if err := json.Unmarshal(body, &js); err != nil {
			r.err = fmt.Errorf("invalid JSON: %w", err)
			return r
		}
	case "image/png":
		if !bytes.HasPrefix(body, pngMagic) {
			r.err = fmt.Errorf("body is not a PNG image")
			return r
		}
	}

	for _, needle := range ep.contains {
		if !strings.Contains(string(body), needle) {
			r.err = fmt.Errorf("missing expected content: %q", needle)
			return r
		}
	}

	return r
}
