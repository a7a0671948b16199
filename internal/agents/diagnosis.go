package agents

import (
	"context"
	"fmt"
	"sort"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/recist-io/recist/api/v1alpha1"
	"github.com/recist-io/recist/internal/eventbus"
	"github.com/recist-io/recist/internal/llm"
	"github.com/recist-io/recist/internal/logging"
	"github.com/recist-io/recist/internal/metrics"
	"github.com/recist-io/recist/internal/models"
)

// LogSource yields structured logs for a pod over a lookback window.
type LogSource interface {
	GetPodLogs(ctx context.Context, namespace, pod string, lookbackMinutes, maxLines int64) ([]models.StructuredLog, error)
	GetErrorLogs(ctx context.Context, namespace, pod string, lookbackMinutes, maxLines int64) ([]models.StructuredLog, error)
}

// PodMetricsSource yields the per-pod readings diagnosis snapshots.
type PodMetricsSource interface {
	GetPodCPUUsage(ctx context.Context, namespace, pod string) (float64, error)
	GetPodMemoryUsage(ctx context.Context, namespace, pod string) (float64, error)
	GetPodErrorRate(ctx context.Context, namespace, pod string) (float64, error)
	GetPodLatencyP99(ctx context.Context, namespace, pod string) (float64, error)
}

// DiagnosisAgent turns a detected fault into a root-cause hypothesis. It
// gathers logs, metric snapshots, and Kubernetes events, assembles them into
// a causal tree, and asks the language model for the diagnosis.
type DiagnosisAgent struct {
	kube       kubernetes.Interface
	prometheus PodMetricsSource
	loki       LogSource
	llm        llm.Client
	bus        *eventbus.Bus
	config     v1alpha1.DiagnosisConfig
	metrics    *metrics.Metrics
	logger     *logging.Logger
}

// NewDiagnosisAgent builds the agent.
func NewDiagnosisAgent(kube kubernetes.Interface, prometheus PodMetricsSource, loki LogSource,
	client llm.Client, bus *eventbus.Bus, cfg v1alpha1.DiagnosisConfig, m *metrics.Metrics) *DiagnosisAgent {
	cfg.SetDefaults()

	return &DiagnosisAgent{
		kube:       kube,
		prometheus: prometheus,
		loki:       loki,
		llm:        client,
		bus:        bus,
		config:     cfg,
		metrics:    m,
		logger:     logging.GetLogger("diagnosis"),
	}
}

// AgentType implements Agent.
func (a *DiagnosisAgent) AgentType() models.AgentType {
	return models.AgentDiagnosis
}

// SubscribeTo implements Agent.
func (a *DiagnosisAgent) SubscribeTo() []models.AgentEventType {
	return []models.AgentEventType{
		models.EventFaultDetected,
		models.EventContainmentComplete,
	}
}

// Start implements Agent. Diagnosis is purely event driven.
func (a *DiagnosisAgent) Start(ctx context.Context) error {
	a.logger.Info("Diagnosis agent started")
	return nil
}

// Stop implements Agent.
func (a *DiagnosisAgent) Stop(ctx context.Context) error {
	a.logger.Info("Diagnosis agent stopped")
	return nil
}

// Diagnose investigates the cluster's primary fault and returns a scored
// hypothesis. A confidence below the configured threshold is logged as a
// warning but still returned, so the pipeline can decide what to do with a
// weak diagnosis.
func (a *DiagnosisAgent) Diagnose(ctx context.Context, cluster *models.FaultCluster) (*models.DiagnosisHypothesis, error) {
	fault := cluster.PrimaryFault()
	if fault == nil {
		return nil, models.NewDiagnosisError("no faults in cluster")
	}

	a.logger.Info("Starting diagnosis for pod %s/%s", fault.Namespace, fault.PodName)

	logs, err := a.collectLogs(ctx, fault.Namespace, fault.PodName)
	if err != nil {
		return nil, err
	}
	podMetrics, err := a.collectMetrics(ctx, fault.Namespace, fault.PodName)
	if err != nil {
		return nil, err
	}
	k8sEvents, err := a.collectKubernetesEvents(ctx, fault.Namespace, fault.PodName)
	if err != nil {
		return nil, err
	}

	causalTree := a.buildCausalTree(logs, podMetrics, k8sEvents)

	request := &llm.DiagnosisRequest{
		Logs:             make([]string, 0, len(logs)),
		Metrics:          make([]llm.MetricSnapshot, 0, len(podMetrics)),
		KubernetesEvents: k8sEvents,
		PodName:          fault.PodName,
		Namespace:        fault.Namespace,
		ErrorType:        string(fault.PrimaryReason()),
	}
	for _, log := range logs {
		request.Logs = append(request.Logs, log.Message)
	}
	for _, name := range sortedMetricNames(podMetrics) {
		request.Metrics = append(request.Metrics, llm.MetricSnapshot{Name: name, Value: podMetrics[name]})
	}

	response, err := a.llm.Diagnose(ctx, request)
	if err != nil {
		return nil, err
	}

	hypothesis := models.NewDiagnosisHypothesis(response.Explanation, response.Confidence, response.RootCause)
	for _, content := range response.Evidence {
		hypothesis.AddEvidence(models.Evidence{
			Source:         models.EvidenceLog,
			Content:        content,
			Timestamp:      time.Now().UTC(),
			RelevanceScore: 0.8,
		})
	}
	hypothesis.CausalTree = causalTree

	a.logger.Info("Diagnosis complete for %s/%s: %s (confidence: %.2f)",
		fault.Namespace, fault.PodName, hypothesis.RootCause, hypothesis.Confidence)

	if !hypothesis.MeetsThreshold(a.config.ConfidenceThreshold) {
		a.logger.Warn("Diagnosis confidence %.2f below threshold %.2f",
			hypothesis.Confidence, a.config.ConfidenceThreshold)
	}

	return hypothesis, nil
}

// collectLogs merges error logs with the general stream, dropping lines that
// appear in both, ordered oldest first.
func (a *DiagnosisAgent) collectLogs(ctx context.Context, namespace, podName string) ([]models.StructuredLog, error) {
	errorLogs, err := a.loki.GetErrorLogs(ctx, namespace, podName,
		a.config.LogLookbackMinutes, a.config.MaxLogLines/2)
	if err != nil {
		return nil, err
	}
	allLogs, err := a.loki.GetPodLogs(ctx, namespace, podName,
		a.config.LogLookbackMinutes, a.config.MaxLogLines/2)
	if err != nil {
		return nil, err
	}

	combined := errorLogs
	for _, log := range allLogs {
		duplicate := false
		for _, existing := range combined {
			if existing.Message == log.Message && existing.Timestamp.Equal(log.Timestamp) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			combined = append(combined, log)
		}
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Timestamp.Before(combined[j].Timestamp)
	})

	a.logger.Debug("Collected %d logs for %s/%s", len(combined), namespace, podName)
	return combined, nil
}

func (a *DiagnosisAgent) collectMetrics(ctx context.Context, namespace, podName string) (map[string]float64, error) {
	snapshot := make(map[string]float64, 4)

	cpu, err := a.prometheus.GetPodCPUUsage(ctx, namespace, podName)
	if err != nil {
		return nil, err
	}
	snapshot["cpu_usage"] = cpu

	memory, err := a.prometheus.GetPodMemoryUsage(ctx, namespace, podName)
	if err != nil {
		return nil, err
	}
	snapshot["memory_usage"] = memory

	errorRate, err := a.prometheus.GetPodErrorRate(ctx, namespace, podName)
	if err != nil {
		return nil, err
	}
	snapshot["error_rate"] = errorRate

	latency, err := a.prometheus.GetPodLatencyP99(ctx, namespace, podName)
	if err != nil {
		return nil, err
	}
	snapshot["latency_p99_ms"] = latency

	a.logger.Debug("Collected %d metrics for %s/%s", len(snapshot), namespace, podName)
	return snapshot, nil
}

// collectKubernetesEvents lists the namespace's events and keeps the ones
// whose involved object is the pod, rendered as "[type] reason: message".
func (a *DiagnosisAgent) collectKubernetesEvents(ctx context.Context, namespace, podName string) ([]string, error) {
	list, err := a.kube.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list events in %s: %w", namespace, err)
	}

	relevant := []string{}
	for _, event := range list.Items {
		if event.InvolvedObject.Name != podName {
			continue
		}
		relevant = append(relevant, formatKubernetesEvent(&event))
	}

	a.logger.Debug("Collected %d Kubernetes events for %s/%s", len(relevant), namespace, podName)
	return relevant, nil
}

func formatKubernetesEvent(event *corev1.Event) string {
	return fmt.Sprintf("[%s] %s: %s", event.Type, event.Reason, event.Message)
}

// buildCausalTree links the collected observations: the first twenty log
// lines become nodes typed by level, each metric and event becomes a node,
// and the first ten adjacent nodes are chained with precedes edges. The
// first node is the root.
func (a *DiagnosisAgent) buildCausalTree(logs []models.StructuredLog, podMetrics map[string]float64, k8sEvents []string) models.CausalTree {
	tree := models.NewCausalTree()
	var nodeIDs []string

	for i, log := range logs {
		if i >= 20 {
			break
		}

		nodeType := models.CausalSymptom
		switch log.Level {
		case models.LogLevelError, models.LogLevelFatal:
			nodeType = models.CausalError
		case models.LogLevelWarn:
			nodeType = models.CausalWarning
		}

		id := fmt.Sprintf("log_%d", i)
		tree.AddNode(models.NewCausalNode(id, nodeType, truncateDescription(log.Message, 200), "log"))
		nodeIDs = append(nodeIDs, id)
	}

	for _, name := range sortedMetricNames(podMetrics) {
		id := fmt.Sprintf("metric_%s", name)
		description := fmt.Sprintf("%s: %.2f", name, podMetrics[name])
		tree.AddNode(models.NewCausalNode(id, models.CausalMetric, description, "prometheus"))
		nodeIDs = append(nodeIDs, id)
	}

	for i, event := range k8sEvents {
		id := fmt.Sprintf("event_%d", i)
		tree.AddNode(models.NewCausalNode(id, models.CausalEvent, event, "kubernetes"))
		nodeIDs = append(nodeIDs, id)
	}

	chain := len(nodeIDs)
	if chain > 10 {
		chain = 10
	}
	for i := 1; i < chain; i++ {
		tree.AddEdge(nodeIDs[i-1], nodeIDs[i], models.RelationPrecedes)
	}

	if len(nodeIDs) > 0 {
		tree.SetRoot(nodeIDs[0])
	}

	return tree
}

func sortedMetricNames(podMetrics map[string]float64) []string {
	names := make([]string, 0, len(podMetrics))
	for name := range podMetrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func truncateDescription(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// HandleEvent diagnoses the fault cluster announced by a FaultDetected
// event. Diagnosis failures are logged and swallowed so one bad incident
// does not wedge the pipeline.
func (a *DiagnosisAgent) HandleEvent(ctx context.Context, event models.AgentEvent) (*models.AgentEvent, error) {
	payload, ok := event.Payload.(models.FaultDetectedPayload)
	if !ok {
		return nil, nil
	}

	a.logger.Info("Received fault detection event, starting diagnosis for correlation %s", event.CorrelationID)

	fault := payload.FaultCluster.PrimaryFault()
	hypothesis, err := a.Diagnose(ctx, &payload.FaultCluster)
	if err != nil {
		a.logger.Error("Diagnosis failed: %v", err)
		return nil, nil
	}

	response := models.NewDiagnosisCompleteEvent(event.CorrelationID, *hypothesis,
		fault.PodName, fault.Namespace, string(fault.PrimaryReason()))
	return &response, nil
}
