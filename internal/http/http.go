package http

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"ridership/internal/models"
	"ridership/internal/templates"
)

// RenderTemplate renders a full page template with data
func RenderTemplate(w http.ResponseWriter, renderer *templates.Renderer, templateName string, data interface{}) {
	if renderer != nil {
		renderer.Render(w, templateName, data)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("<html><body><h1>" + templateName + "</h1><p>Templates not loaded. Check configuration.</p></body></html>"))
}

// ErrorResponse logs and sends an error response
func ErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	log.Printf("Error: %s (status %d)", message, statusCode)
	http.Error(w, message, statusCode)
}

// WriteJSON encodes v as the JSON response body
func WriteJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// ParseSelection reads the repeatable city, depot and route query parameters.
// Comma-separated values are split; blanks are dropped.
func ParseSelection(r *http.Request) models.Selection {
	q := r.URL.Query()
	return models.Selection{
		Cities: splitValues(q["city"]),
		Depots: splitValues(q["depot"]),
		Routes: splitValues(q["route"]),
	}
}

func splitValues(raw []string) []string {
	var values []string
	for _, item := range raw {
		for _, v := range strings.Split(item, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

// ParseHourWindow reads the start and end query parameters, falling back to
// def for missing values. Both bounds must be whole hours in 0-24 with start < end.
func ParseHourWindow(r *http.Request, def models.HourWindow) (models.HourWindow, error) {
	window := def
	q := r.URL.Query()

	if s := q.Get("start"); s != "" {
		h, err := parseHour(s)
		if err != nil {
			return def, fmt.Errorf("start: %w", err)
		}
		window.Start = h
	}
	if s := q.Get("end"); s != "" {
		h, err := parseHour(s)
		if err != nil {
			return def, fmt.Errorf("end: %w", err)
		}
		window.End = h
	}

	if window.Start >= window.End {
		return def, fmt.Errorf("start hour %d must be before end hour %d", window.Start, window.End)
	}
	return window, nil
}

func parseHour(s string) (int, error) {
	h, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid hour %q", s)
	}
	if h < 0 || h > 24 {
		return 0, fmt.Errorf("hour %d out of range 0-24", h)
	}
	return h, nil
}
