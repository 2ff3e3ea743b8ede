// Package testutil provides shared test helpers and fixtures for the
// tracking test suites.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewJSONRequest creates a test HTTP request carrying a JSON body.
func NewJSONRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WriteRouteFile writes a route document into the test's temp dir and
// returns its path. Segments are lists of [lat, lon] pairs.
func WriteRouteFile(t *testing.T, name string, segments [][][]float64) string {
	t.Helper()

	doc := map[string]interface{}{
		"name":     name,
		"segments": segments,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("failed to marshal route document: %v", err)
	}

	path := filepath.Join(t.TempDir(), "route.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write route file: %v", err)
	}
	return path
}

// NMEASentence frames a sentence body with the leading $ and its
// checksum, for building fixture data without hardcoding checksums.
func NMEASentence(body string) string {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X", body, sum)
}
