package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/recist-io/recist/api/v1alpha1"
	"github.com/recist-io/recist/internal/clients"
	"github.com/recist-io/recist/internal/eventbus"
	"github.com/recist-io/recist/internal/logging"
	"github.com/recist-io/recist/internal/metrics"
	"github.com/recist-io/recist/internal/models"
)

// trendAnalysisInterval is how often the knowledge agent scans its recent
// entries for degrading error types.
const trendAnalysisInterval = 5 * time.Minute

// VectorStore persists knowledge entries for similarity search.
type VectorStore interface {
	UpsertEntry(ctx context.Context, entry *models.KnowledgeEntry) error
	SearchSimilar(ctx context.Context, embedding []float32, limit int, namespaceFilter, topicFilter string) ([]clients.ScoredPoint, error)
}

// EntryCache is the bounded recency cache consulted before the vector
// store.
type EntryCache interface {
	AddEntry(ctx context.Context, entry *models.KnowledgeEntry) error
	GetRecentEntries(ctx context.Context, limit int64) ([]models.KnowledgeEntry, error)
	FindSimilarInCache(ctx context.Context, errorType string) (*models.KnowledgeEntry, error)
}

// KnowledgeAgent records healing outcomes so future incidents can reuse
// what worked. Entries are cached locally for fast exact-match recall and
// embedded into the vector store for semantic search. A background loop
// watches the recent history for error types whose healing success is
// degrading and raises proactive warnings.
type KnowledgeAgent struct {
	store    VectorStore
	cache    EntryCache
	embedder Embedder
	bus      *eventbus.Bus
	config   v1alpha1.KnowledgeConfig
	metrics  *metrics.Metrics
	logger   *logging.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewKnowledgeAgent builds the agent.
func NewKnowledgeAgent(store VectorStore, cache EntryCache, embedder Embedder, bus *eventbus.Bus,
	cfg v1alpha1.KnowledgeConfig, m *metrics.Metrics) *KnowledgeAgent {
	cfg.SetDefaults()

	return &KnowledgeAgent{
		store:    store,
		cache:    cache,
		embedder: embedder,
		bus:      bus,
		config:   cfg,
		metrics:  m,
		logger:   logging.GetLogger("knowledge"),
	}
}

// AgentType implements Agent.
func (a *KnowledgeAgent) AgentType() models.AgentType {
	return models.AgentKnowledge
}

// SubscribeTo implements Agent.
func (a *KnowledgeAgent) SubscribeTo() []models.AgentEventType {
	return []models.AgentEventType{models.EventHealingComplete}
}

// Start launches the trend analysis loop.
func (a *KnowledgeAgent) Start(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(trendAnalysisInterval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				if err := a.AnalyzeTrends(loopCtx); err != nil {
					a.logger.Warn("Trend analysis failed: %v", err)
				}
			}
		}
	}()

	a.logger.Info("Knowledge agent started")
	return nil
}

// Stop implements Agent.
func (a *KnowledgeAgent) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	a.logger.Info("Knowledge agent stopped")
	return nil
}

// RecordHealingEvent stores one incident. The entry is always cached; it
// only reaches the vector store when an embedding could be generated. The
// recorded entry is announced on the bus under the incident's correlation
// id.
func (a *KnowledgeAgent) RecordHealingEvent(ctx context.Context, correlationID, namespace, podName, errorType string,
	diagnosis models.DiagnosisSummary, solution models.SolutionSummary, outcome models.OutcomeSummary) (*models.KnowledgeEntry, error) {
	a.logger.Info("Recording healing event for %s/%s: %s", namespace, podName, errorType)

	entry := models.NewKnowledgeEntry(namespace, podName, errorType, diagnosis, solution, outcome)
	entry.SetTTLDays(a.config.KnowledgeTTLDays)

	embedding, err := a.embedder.GenerateEmbedding(ctx, entry.SummaryText())
	if err != nil {
		a.logger.Warn("Failed to generate embedding: %v", err)
	} else {
		entry.SetEmbedding(embedding)
	}

	if len(entry.Embedding) > 0 {
		entry.SetTopic(topicForRootCause(entry.Diagnosis.RootCause))
		if err := a.store.UpsertEntry(ctx, entry); err != nil {
			return nil, err
		}
	}

	if err := a.cache.AddEntry(ctx, entry); err != nil {
		return nil, err
	}

	a.metrics.KnowledgeEntries.WithLabelValues(namespace).Inc()
	a.logger.Info("Recorded knowledge entry: %s", entry.ID)

	event := models.NewKnowledgeUpdatedEvent(correlationID, *entry)
	if _, err := a.bus.Publish(event); err != nil {
		return nil, err
	}
	a.metrics.EventsPublished.WithLabelValues(string(event.EventType)).Inc()

	return entry, nil
}

// FindSimilarEvents recalls past incidents matching the error type. A
// recent successful exact match in the local cache short-circuits the
// vector search with a similarity of 1. Vector hits below the similarity
// threshold are dropped.
func (a *KnowledgeAgent) FindSimilarEvents(ctx context.Context, errorType, namespace string, limit int) ([]models.SimilaritySearchResult, error) {
	cached, err := a.cache.FindSimilarInCache(ctx, errorType)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		a.logger.Info("Found similar event in local cache: %s", cached.ID)
		return []models.SimilaritySearchResult{{Entry: *cached, SimilarityScore: 1.0}}, nil
	}

	embedding, err := a.embedder.GenerateEmbedding(ctx, errorType)
	if err != nil {
		return nil, err
	}

	points, err := a.store.SearchSimilar(ctx, embedding, limit, namespace, "")
	if err != nil {
		return nil, err
	}

	var similar []models.SimilaritySearchResult
	for _, point := range points {
		if point.Score < float32(a.config.SimilarityThreshold) {
			continue
		}
		similar = append(similar, models.SimilaritySearchResult{
			Entry:           pointToEntry(point),
			SimilarityScore: point.Score,
		})
	}

	a.logger.Info("Found %d similar events for error type: %s", len(similar), errorType)
	return similar, nil
}

// GetRecommendedStrategy returns the strategy with the best success rate
// among up to five similar successful incidents in the namespace. The
// second return is false when nothing applicable was found.
func (a *KnowledgeAgent) GetRecommendedStrategy(ctx context.Context, errorType, namespace string) (string, bool, error) {
	similar, err := a.FindSimilarEvents(ctx, errorType, namespace, 5)
	if err != nil {
		return "", false, err
	}

	var best *models.KnowledgeEntry
	for i := range similar {
		entry := &similar[i].Entry
		if !entry.Outcome.Success {
			continue
		}
		if best == nil || entry.SuccessRate > best.SuccessRate {
			best = entry
		}
	}
	if best == nil {
		return "", false, nil
	}
	return best.Solution.StrategyType, true, nil
}

// AnalyzeTrends compares the healing success of recent incidents against
// older ones per error type and publishes a proactive warning for every
// error type that is getting worse. No remediation is attached; the warning
// exists so operators see the drift before thresholds trip.
func (a *KnowledgeAgent) AnalyzeTrends(ctx context.Context) error {
	entries, err := a.cache.GetRecentEntries(ctx, a.config.MaxLocalEvents)
	if err != nil {
		return err
	}

	for _, trend := range degradingErrorTypes(entries) {
		a.logger.Warn("Healing success for %s in %s degrading: %.0f%% -> %.0f%%",
			trend.errorType, trend.namespace, trend.olderRate*100, trend.recentRate*100)

		payload := models.ProactiveWarningPayload{
			Namespace:   trend.namespace,
			WarningType: trend.errorType,
			Message: fmt.Sprintf("Healing success rate for %s dropped from %.0f%% to %.0f%% over the last %d incidents",
				trend.errorType, trend.olderRate*100, trend.recentRate*100, trend.sampleSize),
			SuggestedAction: trend.bestStrategy,
			Confidence:      trend.olderRate - trend.recentRate,
		}

		event := models.NewProactiveWarningEvent(uuid.NewString(), payload)
		if _, err := a.bus.Publish(event); err != nil {
			a.logger.Warn("Failed to publish proactive warning: %v", err)
			continue
		}
		a.metrics.EventsPublished.WithLabelValues(string(event.EventType)).Inc()
		a.metrics.ProactiveWarnings.WithLabelValues(trend.errorType).Inc()
	}

	return nil
}

// successTrend is one error type whose healing outcomes are worsening.
type successTrend struct {
	namespace    string
	errorType    string
	recentRate   float64
	olderRate    float64
	sampleSize   int
	bestStrategy string
}

// degradingErrorTypes splits each error type's entries (most recent first)
// into a newer and an older half and keeps the ones whose newer half heals
// less often. Error types with fewer than four incidents are skipped.
func degradingErrorTypes(entries []models.KnowledgeEntry) []successTrend {
	type group struct {
		namespace string
		entries   []models.KnowledgeEntry
	}
	groups := make(map[string]*group)
	var order []string

	for _, entry := range entries {
		key := entry.Namespace + "/" + entry.ErrorType
		g, ok := groups[key]
		if !ok {
			g = &group{namespace: entry.Namespace}
			groups[key] = g
			order = append(order, key)
		}
		g.entries = append(g.entries, entry)
	}
	sort.Strings(order)

	var trends []successTrend
	for _, key := range order {
		g := groups[key]
		if len(g.entries) < 4 {
			continue
		}

		half := len(g.entries) / 2
		recentRate := successRate(g.entries[:half])
		olderRate := successRate(g.entries[half:])
		if recentRate >= olderRate {
			continue
		}

		trends = append(trends, successTrend{
			namespace:    g.namespace,
			errorType:    g.entries[0].ErrorType,
			recentRate:   recentRate,
			olderRate:    olderRate,
			sampleSize:   len(g.entries),
			bestStrategy: mostSuccessfulStrategy(g.entries),
		})
	}
	return trends
}

func successRate(entries []models.KnowledgeEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	successes := 0
	for _, entry := range entries {
		if entry.Outcome.Success {
			successes++
		}
	}
	return float64(successes) / float64(len(entries))
}

// mostSuccessfulStrategy returns the strategy that healed the error type
// most often, or empty when nothing ever succeeded.
func mostSuccessfulStrategy(entries []models.KnowledgeEntry) string {
	counts := make(map[string]int)
	for _, entry := range entries {
		if entry.Outcome.Success {
			counts[entry.Solution.StrategyType]++
		}
	}

	best := ""
	bestCount := 0
	for strategy, count := range counts {
		if count > bestCount || (count == bestCount && strategy < best) {
			best = strategy
			bestCount = count
		}
	}
	return best
}

// CleanupExpiredEntries is a placeholder: expiry is enforced by the Redis
// TTL and the entry ExpiresAt stamp, so there is nothing to sweep yet.
func (a *KnowledgeAgent) CleanupExpiredEntries(ctx context.Context) (int64, error) {
	a.logger.Info("Cleaning up expired knowledge entries")
	return 0, nil
}

// topicForRootCause buckets an incident by root cause keywords.
func topicForRootCause(rootCause string) string {
	lower := strings.ToLower(rootCause)
	switch {
	case containsAny(lower, "memory", "oom", "leak"):
		return "memory_issues"
	case containsAny(lower, "cpu", "load", "capacity"):
		return "resource_saturation"
	case containsAny(lower, "connection", "network", "timeout"):
		return "network_issues"
	case containsAny(lower, "database", "query", "sql"):
		return "database_issues"
	case containsAny(lower, "dependency", "upstream", "downstream"):
		return "dependency_issues"
	case containsAny(lower, "config", "configuration"):
		return "configuration_issues"
	default:
		return "general"
	}
}

// pointToEntry rebuilds the searchable fields of an entry from a vector
// store hit. Fields not mirrored into the point payload stay zero.
func pointToEntry(point clients.ScoredPoint) models.KnowledgeEntry {
	id := point.ID
	if id == "" {
		id = uuid.NewString()
	}

	return models.KnowledgeEntry{
		ID:        id,
		Namespace: payloadString(point.Payload, "namespace"),
		PodName:   payloadString(point.Payload, "pod_name"),
		ErrorType: payloadString(point.Payload, "error_type"),
		Diagnosis: models.DiagnosisSummary{
			RootCause:   payloadString(point.Payload, "root_cause"),
			KeyEvidence: []string{},
		},
		Solution: models.SolutionSummary{
			StrategyType: payloadString(point.Payload, "strategy_type"),
			Actions:      []string{},
		},
		Outcome: models.OutcomeSummary{
			Success: payloadBool(point.Payload, "success"),
		},
		Topic:     payloadString(point.Payload, "topic"),
		CreatedAt: time.Now().UTC(),
	}
}

func payloadString(payload map[string]interface{}, key string) string {
	if value, ok := payload[key].(string); ok {
		return value
	}
	return ""
}

func payloadBool(payload map[string]interface{}, key string) bool {
	if value, ok := payload[key].(bool); ok {
		return value
	}
	return false
}

// HandleEvent records the incident a HealingComplete event describes.
// Recording failures are logged and swallowed; losing one entry must not
// disturb the pipeline.
func (a *KnowledgeAgent) HandleEvent(ctx context.Context, event models.AgentEvent) (*models.AgentEvent, error) {
	payload, ok := event.Payload.(models.HealingCompletePayload)
	if !ok {
		return nil, nil
	}

	a.logger.Info("Received healing complete event for correlation %s", event.CorrelationID)

	solution := models.NewSolutionSummary(&payload.Strategy)
	solution.DurationMs = payload.DurationMs

	outcome := models.OutcomeSummary{
		Success:         payload.Success,
		Message:         payload.Message,
		TotalDurationMs: payload.DurationMs,
	}

	if _, err := a.RecordHealingEvent(ctx, event.CorrelationID,
		payload.Namespace, payload.PodName, payload.ErrorType,
		payload.Diagnosis, solution, outcome); err != nil {
		a.logger.Error("Failed to record healing event: %v", err)
	}

	return nil, nil
}
