// Package testutil holds helpers shared by handler and router tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amaforum/ama/config"
	"github.com/amaforum/ama/store/sqlstore"
)

// TestSecret signs session tokens in tests.
const TestSecret = "test-secret"

// MemoryURI returns a private in-memory SQLite URI for t.
func MemoryURI(t *testing.T) string {
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	return "sqlite://file:" + name + "?mode=memory&cache=shared"
}

// SetupTestStore opens a migrated in-memory store that is closed when t ends.
func SetupTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	s, err := sqlstore.Open(MemoryURI(t), "silent")
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// GetTestConfig returns a configuration suitable for handler tests.
func GetTestConfig() config.AppConfig {
	return config.AppConfig{
		AppPort:            "0",
		JWTSecret:          TestSecret,
		TokenTTL:           time.Hour,
		GinMode:            "test",
		LogLevel:           "error",
		AllowedOrigins:     []string{"*"},
		PaymentCurrency:    "usd",
		RateLimitPerMinute: 10000,
		DefaultPostLimit:   5,
		CacheTTL:           time.Minute,
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, path, nil)
	case string:
		req = httptest.NewRequest(method, path, strings.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	default:
		jsonBody, _ := json.Marshal(b)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// Serve runs req through h and returns the recorder.
func Serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// Envelope is the decoded response envelope with raw data.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// AssertStatus checks the response status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Fatalf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// DecodeData decodes the envelope and unmarshals its data into target (when non-nil).
func DecodeData(t *testing.T, w *httptest.ResponseRecorder, target interface{}) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode envelope: %v. Body: %s", err, w.Body.String())
	}
	if target != nil {
		if err := json.Unmarshal(env.Data, target); err != nil {
			t.Fatalf("Failed to decode data: %v. Data: %s", err, string(env.Data))
		}
	}
	return env
}
