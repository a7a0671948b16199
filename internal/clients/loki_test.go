package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/recist-io/recist/internal/models"
)

func TestQueryLogs(t *testing.T) {
	start := time.Unix(1700000000, 0).UTC()
	end := start.Add(10 * time.Minute)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/query_range" {
			t.Errorf("path = %s, want /loki/api/v1/query_range", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("start"); got != strconv.FormatInt(start.UnixNano(), 10) {
			t.Errorf("start = %q, want nanosecond timestamp %d", got, start.UnixNano())
		}
		if got := q.Get("end"); got != strconv.FormatInt(end.UnixNano(), 10) {
			t.Errorf("end = %q, want nanosecond timestamp %d", got, end.UnixNano())
		}
		if got := q.Get("limit"); got != "100" {
			t.Errorf("limit = %q, want 100", got)
		}
		fmt.Fprintf(w, `{"status":"success","data":{"resultType":"streams","result":[{"stream":{"app":"web","container":"main"},"values":[["%d","ERROR connection refused"],["%d","request served"]]}]}}`,
			start.UnixNano(), start.Add(time.Second).UnixNano())
	}))
	defer server.Close()

	client := NewLokiClient(server.URL, 5*time.Second)
	entries, err := client.QueryLogs(context.Background(), `{namespace="default"}`, start, end, 100)
	if err != nil {
		t.Fatalf("QueryLogs failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Line != "ERROR connection refused" {
		t.Errorf("line = %q", entries[0].Line)
	}
	if !entries[0].Timestamp.Equal(start) {
		t.Errorf("timestamp = %v, want %v", entries[0].Timestamp, start)
	}
	if entries[0].Labels["app"] != "web" {
		t.Errorf("app label = %q, want web", entries[0].Labels["app"])
	}
}

func TestQueryLogsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewLokiClient(server.URL, 5*time.Second)
	_, err := client.QueryLogs(context.Background(), "{}", time.Now().Add(-time.Hour), time.Now(), 10)
	if err == nil {
		t.Fatal("expected error")
	}
	var lokiErr *models.LokiError
	if !errors.As(err, &lokiErr) {
		t.Errorf("error type = %T, want *models.LokiError", err)
	}
}

func TestGetErrorLogsAppliesFilter(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		fmt.Fprint(w, `{"status":"success","data":{"resultType":"streams","result":[]}}`)
	}))
	defer server.Close()

	client := NewLokiClient(server.URL, 5*time.Second)
	_, err := client.GetErrorLogs(context.Background(), "prod", "api-0", 15, 50)
	if err != nil {
		t.Fatalf("GetErrorLogs failed: %v", err)
	}
	if !strings.Contains(gotQuery, `{namespace="prod", pod="api-0"}`) {
		t.Errorf("query missing selector: %s", gotQuery)
	}
	if !strings.Contains(gotQuery, `|~`) || !strings.Contains(gotQuery, "error|exception|fatal|panic|crash") {
		t.Errorf("query missing error line filter: %s", gotQuery)
	}
}

func TestGetPodLogsStructures(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status":"success","data":{"resultType":"streams","result":[{"stream":{"app":"checkout","container":"server"},"values":[["%d","ERROR payment gateway timeout"]]}]}}`,
			now.UnixNano())
	}))
	defer server.Close()

	client := NewLokiClient(server.URL, 5*time.Second)
	logs, err := client.GetPodLogs(context.Background(), "shop", "checkout-0", 15, 100)
	if err != nil {
		t.Fatalf("GetPodLogs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(logs))
	}

	log := logs[0]
	if log.Level != models.LogLevelError {
		t.Errorf("level = %v, want ERROR", log.Level)
	}
	if log.Source != "checkout" {
		t.Errorf("source = %q, want checkout", log.Source)
	}
	if log.ContainerName != "server" {
		t.Errorf("container = %q, want server", log.ContainerName)
	}
	if log.PodName != "checkout-0" || log.Namespace != "shop" {
		t.Errorf("pod/namespace = %q/%q", log.PodName, log.Namespace)
	}
}

func TestParseLogEntryUnknownSource(t *testing.T) {
	entry := LogEntry{
		Timestamp: time.Now(),
		Labels:    map[string]string{"container": "main"},
		Line:      "hello",
	}
	structured := parseLogEntry(entry, "default", "web-1")
	if structured.Source != "unknown" {
		t.Errorf("source = %q, want unknown", structured.Source)
	}
}

func TestDetectLogLevel(t *testing.T) {
	tests := []struct {
		line string
		want models.LogLevel
	}{
		{"FATAL: out of memory", models.LogLevelFatal},
		{"panic: runtime error", models.LogLevelFatal},
		{"ERROR connection refused", models.LogLevelError},
		{"java.lang.NullPointerException thrown", models.LogLevelError},
		{"warn: slow query", models.LogLevelWarn},
		{"DEBUG cache miss", models.LogLevelDebug},
		{"trace span started", models.LogLevelDebug},
		{"request served in 4ms", models.LogLevelInfo},
	}

	for _, tt := range tests {
		if got := detectLogLevel(tt.line); got != tt.want {
			t.Errorf("detectLogLevel(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestExtractStackTrace(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"java frame", "NullPointerException at com.example.Foo.bar(Foo.java:42)", true},
		{"python traceback", `Traceback (most recent call last): File "app.py", line 3`, true},
		{"go panic", "panic: nil deref goroutine 1 [running]:", true},
		{"plain line", "request served in 4ms", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractStackTrace(tt.line)
			if (got != "") != tt.want {
				t.Errorf("extractStackTrace(%q) = %q, want match=%v", tt.line, got, tt.want)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ready" {
			t.Errorf("path = %s, want /ready", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	client := NewLokiClient(healthy.URL, 5*time.Second)
	ok, err := client.HealthCheck(context.Background())
	if err != nil || !ok {
		t.Errorf("HealthCheck = (%v, %v), want (true, nil)", ok, err)
	}

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	client = NewLokiClient(unhealthy.URL, 5*time.Second)
	ok, err = client.HealthCheck(context.Background())
	if err != nil || ok {
		t.Errorf("HealthCheck = (%v, %v), want (false, nil)", ok, err)
	}

	// Transport failures report unhealthy without erroring.
	client = NewLokiClient("http://127.0.0.1:1", 500*time.Millisecond)
	ok, err = client.HealthCheck(context.Background())
	if err != nil || ok {
		t.Errorf("HealthCheck (unreachable) = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestParseLokiTimestamp(t *testing.T) {
	ts := parseLokiTimestamp("1700000000000000000")
	if ts.Unix() != 1700000000 {
		t.Errorf("parsed = %v", ts)
	}

	// Malformed timestamps fall back to roughly now.
	before := time.Now().Add(-time.Minute)
	fallback := parseLokiTimestamp("not-a-number")
	if fallback.Before(before) {
		t.Errorf("fallback = %v, want recent", fallback)
	}
}
