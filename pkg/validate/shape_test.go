package validate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coolbeans/taxo2rdf/pkg/store"
)

func newTestShapeValidator(endpoint string, options ...ShapeOption) *ShapeValidator {
	options = append([]ShapeOption{WithRetries(2, time.Millisecond), WithTimeout(2 * time.Second)}, options...)
	return NewShapeValidator(endpoint, "v1.0.0", options...)
}

func TestShapeValidator_Conforms(t *testing.T) {
	var received shapeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Invalid request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sh:conforms": true}`))
	}))
	defer server.Close()

	outcome := newTestShapeValidator(server.URL).Validate(context.Background(), "<a> <b> <c> .", store.FormatNTriples)

	if !outcome.Reachable || !outcome.Conforms {
		t.Errorf("Expected conforming outcome, got %+v", outcome)
	}
	if outcome.Attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", outcome.Attempts)
	}
	if received.ContentToValidate != "<a> <b> <c> ." {
		t.Errorf("Unexpected content: %q", received.ContentToValidate)
	}
	if received.ContentSyntax != "application/n-triples" {
		t.Errorf("Unexpected syntax: %q", received.ContentSyntax)
	}
	if received.ValidationType != "v1.0.0" {
		t.Errorf("Unexpected validation type: %q", received.ValidationType)
	}
}

func TestShapeValidator_DoesNotConform(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sh:conforms": false, "sh:result": [{"sh:focusNode": "http://ex.org/solar"}]}`))
	}))
	defer server.Close()

	outcome := newTestShapeValidator(server.URL).Validate(context.Background(), "", store.FormatTurtle)

	if !outcome.Reachable || outcome.Conforms {
		t.Errorf("Expected non-conforming outcome, got %+v", outcome)
	}
	if !strings.Contains(outcome.Body, "focusNode") {
		t.Errorf("Body excerpt should be kept for non-conforming graphs, got %q", outcome.Body)
	}
}

func TestShapeValidator_CustomConformsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"conforms": true}`))
	}))
	defer server.Close()

	outcome := newTestShapeValidator(server.URL, WithConformsKey("conforms")).Validate(context.Background(), "", store.FormatTurtle)
	if !outcome.Conforms {
		t.Errorf("Expected conforms with custom key, got %+v", outcome)
	}

	outcome = newTestShapeValidator(server.URL).Validate(context.Background(), "", store.FormatTurtle)
	if outcome.Conforms || outcome.Error == "" {
		t.Errorf("Missing default key should be reported, got %+v", outcome)
	}
}

func TestShapeValidator_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"sh:conforms": true}`))
	}))
	defer server.Close()

	outcome := newTestShapeValidator(server.URL).Validate(context.Background(), "", store.FormatTurtle)

	if !outcome.Conforms {
		t.Errorf("Expected success after retries, got %+v", outcome)
	}
	if outcome.Attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", outcome.Attempts)
	}
}

func TestShapeValidator_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	outcome := newTestShapeValidator(server.URL).Validate(context.Background(), "", store.FormatTurtle)

	if outcome.Reachable || outcome.Error == "" {
		t.Errorf("Expected unreachable outcome with error, got %+v", outcome)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("Expected 1 attempt plus 2 retries, got %d", calls)
	}
	if outcome.StatusCode != http.StatusInternalServerError || outcome.Body != "boom" {
		t.Errorf("Expected last status and body to be kept, got %+v", outcome)
	}
}

func TestShapeValidator_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad syntax"))
	}))
	defer server.Close()

	outcome := newTestShapeValidator(server.URL).Validate(context.Background(), "", store.FormatTurtle)

	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("4xx should not be retried, got %d calls", calls)
	}
	if outcome.StatusCode != http.StatusBadRequest || outcome.Reachable {
		t.Errorf("Unexpected outcome %+v", outcome)
	}
}

func TestShapeValidator_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	outcome := newTestShapeValidator(server.URL).Validate(context.Background(), "", store.FormatTurtle)

	if outcome.Reachable || !strings.Contains(outcome.Error, "decode") {
		t.Errorf("Expected decode error, got %+v", outcome)
	}
}

func TestShapeValidator_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	validator := NewShapeValidator(server.URL, "v1.0.0",
		WithTimeout(50*time.Millisecond),
		WithRetries(0, time.Millisecond))

	start := time.Now()
	outcome := validator.Validate(context.Background(), "", store.FormatTurtle)

	if outcome.Error == "" || outcome.Reachable {
		t.Errorf("Expected timeout error, got %+v", outcome)
	}
	if time.Since(start) > time.Second {
		t.Error("Timeout should bound the request")
	}
}

func TestShapeValidator_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	outcome := newTestShapeValidator(endpoint).Validate(context.Background(), "", store.FormatTurtle)

	if outcome.Reachable || outcome.Attempts != 3 {
		t.Errorf("Expected 3 failed attempts, got %+v", outcome)
	}
}

func TestValidator_Run_ShapeOutcomes(t *testing.T) {
	testCases := []struct {
		name     string
		handler  http.HandlerFunc
		expected ValidationStatus
	}{
		{"conforms", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"sh:conforms": true}`)) }, StatusPass},
		{"violations", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"sh:conforms": false}`)) }, StatusFail},
		{"unavailable", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) }, StatusWarn},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := httptest.NewServer(testCase.handler)
			defer server.Close()

			validator := NewValidator(newTestShapeValidator(server.URL), nil)
			report := validator.Run(context.Background(), Input{Content: "", Format: store.FormatTurtle})

			if report.Status != testCase.expected {
				t.Errorf("Expected %s, got %s (%+v)", testCase.expected, report.Status, report.Shape)
			}
		})
	}
}
