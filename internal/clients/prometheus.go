// Package clients holds the HTTP and Redis plumbing to the operator's
// external collaborators: the Prometheus metrics backend, the Loki log
// backend, the Qdrant vector store, and the Redis recency cache.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/recist-io/recist/internal/logging"
	"github.com/recist-io/recist/internal/models"
)

// PrometheusClient queries the Prometheus HTTP API.
type PrometheusClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewPrometheusClient creates a client for the given base URL.
func NewPrometheusClient(baseURL string, timeout time.Duration) *PrometheusClient {
	return &PrometheusClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxConnsPerHost:     20,
				MaxIdleConnsPerHost: 10,
			},
		},
		logger: logging.GetLogger("clients.prometheus"),
	}
}

// MetricSample is one instant-vector sample.
type MetricSample struct {
	Labels    map[string]string
	Value     float64
	Timestamp time.Time
}

// MetricPoint is one point of a range-vector series.
type MetricPoint struct {
	Timestamp time.Time
	Value     float64
}

// MetricTimeSeries is one series of a range query result.
type MetricTimeSeries struct {
	Labels map[string]string
	Values []MetricPoint
}

// PodMetrics is the per-pod snapshot the containment sweep operates on.
type PodMetrics struct {
	PodName     string
	Namespace   string
	CPUUsage    float64
	MemoryUsage float64
	ErrorRate   float64
	LatencyMs   float64
}

// ExceedsThresholds returns a human-readable violation string for every
// metric above its threshold.
func (p *PodMetrics) ExceedsThresholds(cpuThreshold, memoryThreshold, errorRateThreshold, latencyThreshold float64) []string {
	var violations []string

	if p.CPUUsage > cpuThreshold {
		violations = append(violations, fmt.Sprintf("CPU usage %g > %g", p.CPUUsage, cpuThreshold))
	}
	if p.MemoryUsage > memoryThreshold {
		violations = append(violations, fmt.Sprintf("Memory usage %g > %g", p.MemoryUsage, memoryThreshold))
	}
	if p.ErrorRate > errorRateThreshold {
		violations = append(violations, fmt.Sprintf("Error rate %g > %g", p.ErrorRate, errorRateThreshold))
	}
	if p.LatencyMs > latencyThreshold {
		violations = append(violations, fmt.Sprintf("Latency %gms > %gms", p.LatencyMs, latencyThreshold))
	}

	return violations
}

type promResponse struct {
	Status    string   `json:"status"`
	Data      promData `json:"data"`
	ErrorType string   `json:"errorType"`
	Error     string   `json:"error"`
}

type promData struct {
	ResultType string          `json:"resultType"`
	Result     json.RawMessage `json:"result"`
}

type promVectorSample struct {
	Metric map[string]string `json:"metric"`
	Value  [2]interface{}    `json:"value"`
}

type promMatrixSeries struct {
	Metric map[string]string `json:"metric"`
	Values [][2]interface{}  `json:"values"`
}

// parseSampleValue decodes the [unix_seconds, "value"] pair Prometheus uses
// for scalar samples. The value string may be "NaN", "+Inf" or "-Inf".
func parseSampleValue(pair [2]interface{}) (time.Time, float64, error) {
	ts, ok := pair[0].(float64)
	if !ok {
		return time.Time{}, 0, fmt.Errorf("unexpected sample timestamp type %T", pair[0])
	}
	raw, ok := pair[1].(string)
	if !ok {
		return time.Time{}, 0, fmt.Errorf("unexpected sample value type %T", pair[1])
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("parse sample value %q: %w", raw, err)
	}
	return time.Unix(int64(ts), 0).UTC(), value, nil
}

func (c *PrometheusClient) get(ctx context.Context, path string, params url.Values) (*promResponse, error) {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create query request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute query request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read query response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Prometheus returned status %d: %s", resp.StatusCode, string(body))
		return nil, models.NewPrometheusError("unexpected status %d", resp.StatusCode)
	}

	var parsed promResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	if parsed.Status != "success" {
		return nil, models.NewPrometheusError("%s: %s", parsed.ErrorType, parsed.Error)
	}
	return &parsed, nil
}

// QueryInstant executes an instant query and returns the vector samples.
func (c *PrometheusClient) QueryInstant(ctx context.Context, query string) ([]MetricSample, error) {
	c.logger.Debug("Executing instant query: %s", query)

	params := url.Values{}
	params.Set("query", query)

	parsed, err := c.get(ctx, "/api/v1/query", params)
	if err != nil {
		return nil, err
	}

	var samples []MetricSample
	if parsed.Data.ResultType == "vector" {
		var vector []promVectorSample
		if err := json.Unmarshal(parsed.Data.Result, &vector); err != nil {
			return nil, fmt.Errorf("decode vector result: %w", err)
		}
		for _, s := range vector {
			ts, value, err := parseSampleValue(s.Value)
			if err != nil {
				return nil, err
			}
			samples = append(samples, MetricSample{
				Labels:    s.Metric,
				Value:     value,
				Timestamp: ts,
			})
		}
	}

	c.logger.Debug("Query returned %d samples", len(samples))
	return samples, nil
}

// QueryRange executes a range query and returns the matrix series.
func (c *PrometheusClient) QueryRange(ctx context.Context, query string, start, end time.Time, stepSeconds int64) ([]MetricTimeSeries, error) {
	c.logger.Debug("Executing range query: %s from %s to %s", query, start.Format(time.RFC3339), end.Format(time.RFC3339))

	params := url.Values{}
	params.Set("query", query)
	params.Set("start", strconv.FormatInt(start.Unix(), 10))
	params.Set("end", strconv.FormatInt(end.Unix(), 10))
	params.Set("step", strconv.FormatInt(stepSeconds, 10))

	parsed, err := c.get(ctx, "/api/v1/query_range", params)
	if err != nil {
		return nil, err
	}

	var series []MetricTimeSeries
	if parsed.Data.ResultType == "matrix" {
		var matrix []promMatrixSeries
		if err := json.Unmarshal(parsed.Data.Result, &matrix); err != nil {
			return nil, fmt.Errorf("decode matrix result: %w", err)
		}
		for _, m := range matrix {
			points := make([]MetricPoint, 0, len(m.Values))
			for _, pair := range m.Values {
				ts, value, err := parseSampleValue(pair)
				if err != nil {
					return nil, err
				}
				points = append(points, MetricPoint{Timestamp: ts, Value: value})
			}
			series = append(series, MetricTimeSeries{Labels: m.Metric, Values: points})
		}
	}

	c.logger.Debug("Range query returned %d series", len(series))
	return series, nil
}

func firstSampleValue(samples []MetricSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	return samples[0].Value
}

// GetPodCPUUsage returns the pod's CPU usage in cores over the last 5m.
func (c *PrometheusClient) GetPodCPUUsage(ctx context.Context, namespace, pod string) (float64, error) {
	query := fmt.Sprintf(
		`sum(rate(container_cpu_usage_seconds_total{namespace="%s", pod="%s"}[5m])) by (pod)`,
		namespace, pod,
	)

	samples, err := c.QueryInstant(ctx, query)
	if err != nil {
		return 0, err
	}
	return firstSampleValue(samples), nil
}

// GetPodMemoryUsage returns the pod's memory usage as a fraction of its limit.
func (c *PrometheusClient) GetPodMemoryUsage(ctx context.Context, namespace, pod string) (float64, error) {
	query := fmt.Sprintf(
		`sum(container_memory_usage_bytes{namespace="%s", pod="%s"}) by (pod) / sum(container_spec_memory_limit_bytes{namespace="%s", pod="%s"}) by (pod)`,
		namespace, pod, namespace, pod,
	)

	samples, err := c.QueryInstant(ctx, query)
	if err != nil {
		return 0, err
	}
	return firstSampleValue(samples), nil
}

// GetPodErrorRate returns the fraction of requests answered with a 5xx
// status over the last 5m. NaN (no traffic) is reported as zero.
func (c *PrometheusClient) GetPodErrorRate(ctx context.Context, namespace, pod string) (float64, error) {
	query := fmt.Sprintf(
		`sum(rate(http_requests_total{namespace="%s", pod="%s", status=~"5.."}[5m])) / sum(rate(http_requests_total{namespace="%s", pod="%s"}[5m]))`,
		namespace, pod, namespace, pod,
	)

	samples, err := c.QueryInstant(ctx, query)
	if err != nil {
		return 0, err
	}
	value := firstSampleValue(samples)
	if math.IsNaN(value) {
		return 0, nil
	}
	return value, nil
}

// GetPodLatencyP99 returns the pod's 99th percentile request latency in
// milliseconds over the last 5m.
func (c *PrometheusClient) GetPodLatencyP99(ctx context.Context, namespace, pod string) (float64, error) {
	query := fmt.Sprintf(
		`histogram_quantile(0.99, sum(rate(http_request_duration_seconds_bucket{namespace="%s", pod="%s"}[5m])) by (le))`,
		namespace, pod,
	)

	samples, err := c.QueryInstant(ctx, query)
	if err != nil {
		return 0, err
	}
	return firstSampleValue(samples) * 1000.0, nil
}

// GetAllPodMetrics returns CPU and memory snapshots for every pod in the
// namespace, merged by pod name. Pods only become visible through the CPU
// query; memory NaN is reported as zero.
func (c *PrometheusClient) GetAllPodMetrics(ctx context.Context, namespace string) ([]PodMetrics, error) {
	cpuQuery := fmt.Sprintf(
		`sum(rate(container_cpu_usage_seconds_total{namespace="%s"}[5m])) by (pod)`,
		namespace,
	)
	memoryQuery := fmt.Sprintf(
		`sum(container_memory_usage_bytes{namespace="%s"}) by (pod) / sum(container_spec_memory_limit_bytes{namespace="%s"}) by (pod)`,
		namespace, namespace,
	)

	cpuSamples, err := c.QueryInstant(ctx, cpuQuery)
	if err != nil {
		return nil, err
	}
	memorySamples, err := c.QueryInstant(ctx, memoryQuery)
	if err != nil {
		return nil, err
	}

	metricsMap := make(map[string]*PodMetrics)
	for _, sample := range cpuSamples {
		podName, ok := sample.Labels["pod"]
		if !ok {
			continue
		}
		m, ok := metricsMap[podName]
		if !ok {
			m = &PodMetrics{PodName: podName, Namespace: namespace}
			metricsMap[podName] = m
		}
		m.CPUUsage = sample.Value
	}
	for _, sample := range memorySamples {
		podName, ok := sample.Labels["pod"]
		if !ok {
			continue
		}
		m, ok := metricsMap[podName]
		if !ok {
			continue
		}
		if math.IsNaN(sample.Value) {
			m.MemoryUsage = 0
		} else {
			m.MemoryUsage = sample.Value
		}
	}

	result := make([]PodMetrics, 0, len(metricsMap))
	for _, m := range metricsMap {
		result = append(result, *m)
	}
	return result, nil
}
