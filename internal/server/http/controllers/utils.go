package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a 200 JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// parsePositive parses an optional positive integer query value.
//
// Returns def for empty strings.
func parsePositive(name, s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}

// parseTimestamp parses an optional timestamp.
//
// Supports both RFC3339 and raw unix millisecond values. Returns the zero
// time for empty strings.
func parseTimestamp(name, ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, nil
	}
	if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%s must be RFC3339 or unix milliseconds", name)
}
