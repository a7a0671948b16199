package agents

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/recist-io/recist/internal/clients"
	"github.com/recist-io/recist/internal/llm"
	"github.com/recist-io/recist/internal/metrics"
	"github.com/recist-io/recist/internal/models"
)

func newTestMetrics() *metrics.Metrics {
	return metrics.NewMetrics(prometheus.NewRegistry())
}

// fakeLLM is a canned llm.Client. Strategy evaluations are keyed by
// strategy type; evaluating an unconfigured strategy fails.
type fakeLLM struct {
	mu sync.Mutex

	diagnosis    *models.LLMDiagnosisResponse
	diagnosisErr error
	lastRequest  *llm.DiagnosisRequest

	evaluations   map[string]models.StrategyEvaluation
	evaluateErr   error
	evaluateCalls map[string]int

	embedding    []float32
	embeddingErr error
	embedCalls   int
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return "", nil
}

func (f *fakeLLM) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return "", nil
}

func (f *fakeLLM) Diagnose(ctx context.Context, req *llm.DiagnosisRequest) (*models.LLMDiagnosisResponse, error) {
	f.mu.Lock()
	f.lastRequest = req
	f.mu.Unlock()
	if f.diagnosisErr != nil {
		return nil, f.diagnosisErr
	}
	return f.diagnosis, nil
}

func (f *fakeLLM) EvaluateStrategy(ctx context.Context, req *llm.StrategyEvaluationRequest) (*models.StrategyEvaluation, error) {
	f.mu.Lock()
	if f.evaluateCalls == nil {
		f.evaluateCalls = make(map[string]int)
	}
	f.evaluateCalls[req.StrategyType]++
	f.mu.Unlock()

	if f.evaluateErr != nil {
		return nil, f.evaluateErr
	}
	eval, ok := f.evaluations[req.StrategyType]
	if !ok {
		return nil, fmt.Errorf("no canned evaluation for %s", req.StrategyType)
	}
	return &eval, nil
}

func (f *fakeLLM) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.embedCalls++
	f.mu.Unlock()
	if f.embeddingErr != nil {
		return nil, f.embeddingErr
	}
	return f.embedding, nil
}

func (f *fakeLLM) ProviderName() string { return "fake" }
func (f *fakeLLM) ModelName() string    { return "fake-model" }

func (f *fakeLLM) evaluateCount(strategy string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.evaluateCalls[strategy]
}

// fakeSweeper serves canned per-namespace pod metrics.
type fakeSweeper struct {
	byNamespace map[string][]clients.PodMetrics
	err         error
}

func (f *fakeSweeper) GetAllPodMetrics(ctx context.Context, namespace string) ([]clients.PodMetrics, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byNamespace[namespace], nil
}

// fakeLogSource serves canned log streams.
type fakeLogSource struct {
	errorLogs []models.StructuredLog
	allLogs   []models.StructuredLog
	err       error
}

func (f *fakeLogSource) GetPodLogs(ctx context.Context, namespace, pod string, lookbackMinutes, maxLines int64) ([]models.StructuredLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.allLogs, nil
}

func (f *fakeLogSource) GetErrorLogs(ctx context.Context, namespace, pod string, lookbackMinutes, maxLines int64) ([]models.StructuredLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.errorLogs, nil
}

// fakePodMetricsSource serves one canned reading per metric.
type fakePodMetricsSource struct {
	cpu       float64
	memory    float64
	errorRate float64
	latency   float64
	err       error
}

func (f *fakePodMetricsSource) GetPodCPUUsage(ctx context.Context, namespace, pod string) (float64, error) {
	return f.cpu, f.err
}

func (f *fakePodMetricsSource) GetPodMemoryUsage(ctx context.Context, namespace, pod string) (float64, error) {
	return f.memory, f.err
}

func (f *fakePodMetricsSource) GetPodErrorRate(ctx context.Context, namespace, pod string) (float64, error) {
	return f.errorRate, f.err
}

func (f *fakePodMetricsSource) GetPodLatencyP99(ctx context.Context, namespace, pod string) (float64, error) {
	return f.latency, f.err
}

// fakeVectorStore records upserts and serves canned search hits.
type fakeVectorStore struct {
	upserted  []models.KnowledgeEntry
	upsertErr error

	points    []clients.ScoredPoint
	searchErr error

	lastLimit     int
	lastNamespace string
	lastTopic     string
}

func (f *fakeVectorStore) UpsertEntry(ctx context.Context, entry *models.KnowledgeEntry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, *entry)
	return nil
}

func (f *fakeVectorStore) SearchSimilar(ctx context.Context, embedding []float32, limit int, namespaceFilter, topicFilter string) ([]clients.ScoredPoint, error) {
	f.lastLimit = limit
	f.lastNamespace = namespaceFilter
	f.lastTopic = topicFilter
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.points, nil
}

// fakeEntryCache mirrors the real recency cache semantics in memory:
// newest first, exact error-type match on successful entries.
type fakeEntryCache struct {
	entries []models.KnowledgeEntry
	addErr  error
}

func (f *fakeEntryCache) AddEntry(ctx context.Context, entry *models.KnowledgeEntry) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.entries = append([]models.KnowledgeEntry{*entry}, f.entries...)
	return nil
}

func (f *fakeEntryCache) GetRecentEntries(ctx context.Context, limit int64) ([]models.KnowledgeEntry, error) {
	if limit > int64(len(f.entries)) {
		limit = int64(len(f.entries))
	}
	return f.entries[:limit], nil
}

func (f *fakeEntryCache) FindSimilarInCache(ctx context.Context, errorType string) (*models.KnowledgeEntry, error) {
	for i := range f.entries {
		if f.entries[i].ErrorType == errorType && f.entries[i].Outcome.Success {
			return &f.entries[i], nil
		}
	}
	return nil, nil
}

// fakeEmbedder counts calls so memoization is observable.
type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

// stubAgent lets runner tests watch lifecycle calls and inject responses.
type stubAgent struct {
	mu sync.Mutex

	typ       models.AgentType
	subs      []models.AgentEventType
	response  *models.AgentEvent
	handleErr error

	handled []models.AgentEvent
	started bool
	stopped bool
}

func (s *stubAgent) AgentType() models.AgentType          { return s.typ }
func (s *stubAgent) SubscribeTo() []models.AgentEventType { return s.subs }

func (s *stubAgent) Start(ctx context.Context) error {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	return nil
}

func (s *stubAgent) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	return nil
}

func (s *stubAgent) HandleEvent(ctx context.Context, event models.AgentEvent) (*models.AgentEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handled = append(s.handled, event)
	if s.handleErr != nil {
		return nil, s.handleErr
	}
	return s.response, nil
}

func (s *stubAgent) handledCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handled)
}
