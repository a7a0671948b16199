package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/recist-io/recist/internal/logging"
	"github.com/recist-io/recist/internal/models"
)

// errorLinePattern selects lines worth showing the diagnosis prompt first.
const errorLinePattern = `(?i)(error|exception|fatal|panic|crash)`

var stackTracePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)(at .+\(.+:\d+\).*)+`),
	regexp.MustCompile(`(?s)(Traceback \(most recent call last\):.*)`),
	regexp.MustCompile(`(?s)(panic:.*goroutine \d+.*)`),
}

// LokiClient queries the Loki log backend.
type LokiClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewLokiClient creates a client for the given base URL.
func NewLokiClient(baseURL string, timeout time.Duration) *LokiClient {
	return &LokiClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxConnsPerHost:     20,
				MaxIdleConnsPerHost: 10,
			},
		},
		logger: logging.GetLogger("clients.loki"),
	}
}

// LogEntry is one raw line returned by a Loki query.
type LogEntry struct {
	Timestamp time.Time
	Labels    map[string]string
	Line      string
}

type lokiQueryResponse struct {
	Status string   `json:"status"`
	Data   lokiData `json:"data"`
}

type lokiData struct {
	ResultType string       `json:"resultType"`
	Result     []lokiStream `json:"result"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

// QueryLogs executes a LogQL range query. Bounds are sent as nanosecond
// timestamps per the Loki API.
func (c *LokiClient) QueryLogs(ctx context.Context, query string, start, end time.Time, limit int64) ([]LogEntry, error) {
	c.logger.Debug("Querying Loki: %s from %s to %s", query, start.Format(time.RFC3339), end.Format(time.RFC3339))

	params := url.Values{}
	params.Set("query", query)
	params.Set("start", strconv.FormatInt(start.UnixNano(), 10))
	params.Set("end", strconv.FormatInt(end.UnixNano(), 10))
	params.Set("limit", strconv.FormatInt(limit, 10))

	reqURL := fmt.Sprintf("%s/loki/api/v1/query_range?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create log query request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute log query request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read log query response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewLokiError("Loki returned error %d: %s", resp.StatusCode, string(body))
	}

	var parsed lokiQueryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode log query response: %w", err)
	}

	var entries []LogEntry
	for _, stream := range parsed.Data.Result {
		for _, pair := range stream.Values {
			entries = append(entries, LogEntry{
				Timestamp: parseLokiTimestamp(pair[0]),
				Labels:    stream.Stream,
				Line:      pair[1],
			})
		}
	}

	c.logger.Debug("Loki query returned %d log entries", len(entries))
	return entries, nil
}

// GetPodLogs returns all recent logs for the pod over the lookback window.
func (c *LokiClient) GetPodLogs(ctx context.Context, namespace, pod string, lookbackMinutes, maxLines int64) ([]models.StructuredLog, error) {
	query := fmt.Sprintf(`{namespace="%s", pod="%s"}`, namespace, pod)
	return c.structuredQuery(ctx, query, namespace, pod, lookbackMinutes, maxLines)
}

// GetErrorLogs returns recent logs matching the error line pattern.
func (c *LokiClient) GetErrorLogs(ctx context.Context, namespace, pod string, lookbackMinutes, maxLines int64) ([]models.StructuredLog, error) {
	query := fmt.Sprintf(`{namespace="%s", pod="%s"} |~ "%s"`, namespace, pod, errorLinePattern)
	return c.structuredQuery(ctx, query, namespace, pod, lookbackMinutes, maxLines)
}

func (c *LokiClient) structuredQuery(ctx context.Context, query, namespace, pod string, lookbackMinutes, maxLines int64) ([]models.StructuredLog, error) {
	end := time.Now().UTC()
	start := end.Add(-time.Duration(lookbackMinutes) * time.Minute)

	entries, err := c.QueryLogs(ctx, query, start, end, maxLines)
	if err != nil {
		return nil, err
	}

	structured := make([]models.StructuredLog, 0, len(entries))
	for _, entry := range entries {
		structured = append(structured, parseLogEntry(entry, namespace, pod))
	}
	return structured, nil
}

// HealthCheck probes Loki's /ready endpoint. Transport failures report
// unhealthy rather than erroring.
func (c *LokiClient) HealthCheck(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ready", nil)
	if err != nil {
		return false, fmt.Errorf("create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Loki health check failed: %v", err)
		return false, nil
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

func parseLogEntry(entry LogEntry, namespace, pod string) models.StructuredLog {
	source := entry.Labels["app"]
	if source == "" {
		source = "unknown"
	}

	return models.StructuredLog{
		Timestamp:     entry.Timestamp,
		Level:         detectLogLevel(entry.Line),
		Source:        source,
		Message:       entry.Line,
		PodName:       pod,
		Namespace:     namespace,
		ContainerName: entry.Labels["container"],
		Labels:        entry.Labels,
		StackTrace:    extractStackTrace(entry.Line),
	}
}

func detectLogLevel(line string) models.LogLevel {
	upper := strings.ToUpper(line)

	switch {
	case strings.Contains(upper, "FATAL") || strings.Contains(upper, "PANIC"):
		return models.LogLevelFatal
	case strings.Contains(upper, "ERROR") || strings.Contains(upper, "EXCEPTION"):
		return models.LogLevelError
	case strings.Contains(upper, "WARN"):
		return models.LogLevelWarn
	case strings.Contains(upper, "DEBUG") || strings.Contains(upper, "TRACE"):
		return models.LogLevelDebug
	default:
		return models.LogLevelInfo
	}
}

func extractStackTrace(line string) string {
	for _, re := range stackTracePatterns {
		if match := re.FindString(line); match != "" {
			return match
		}
	}
	return ""
}

func parseLokiTimestamp(ts string) time.Time {
	nanos, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Now().UTC()
	}
	return time.Unix(0, nanos).UTC()
}
