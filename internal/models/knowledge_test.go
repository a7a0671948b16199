package models

import (
	"math"
	"testing"
	"time"
)

func sampleEntry(success bool) *KnowledgeEntry {
	hypothesis := NewDiagnosisHypothesis("Memory limit too low for peak traffic", 0.9, "OOMKilled under load")
	hypothesis.AddEvidence(Evidence{Source: EvidenceLog, Content: "container killed: OOMKilled", RelevanceScore: 0.9})

	strategy := NewSolutionStrategy(StrategyVerticalScale, 0.8)
	strategy.AddAction(PlannedAction{
		ActionType: StrategyVerticalScale.ToActionType(),
		Target:     ActionTarget{ResourceType: ResourceDeployment, Name: "payments-api", Namespace: "payments"},
		Parameters: map[string]string{"memory": "1Gi"},
		Order:      1,
	})

	return NewKnowledgeEntry("payments", "payments-api-0", "oomKilled",
		NewDiagnosisSummary(hypothesis),
		NewSolutionSummary(strategy),
		OutcomeSummary{Success: success, Message: "healed", TotalDurationMs: 42000})
}

func TestNewKnowledgeEntryCountsItself(t *testing.T) {
	ok := sampleEntry(true)
	if ok.UsageCount != 1 {
		t.Errorf("usage count = %d, want 1", ok.UsageCount)
	}
	if ok.SuccessRate != 1.0 {
		t.Errorf("success rate = %v, want 1.0", ok.SuccessRate)
	}

	failed := sampleEntry(false)
	if failed.SuccessRate != 0.0 {
		t.Errorf("success rate after failed incident = %v, want 0.0", failed.SuccessRate)
	}
	if failed.ID == ok.ID {
		t.Error("entries share an id")
	}
}

func TestRecordUsageRunningAverage(t *testing.T) {
	entry := sampleEntry(true)

	entry.RecordUsage(false)
	if entry.UsageCount != 2 || math.Abs(entry.SuccessRate-0.5) > 1e-9 {
		t.Errorf("after one failure: count=%d rate=%v, want 2 and 0.5", entry.UsageCount, entry.SuccessRate)
	}

	entry.RecordUsage(true)
	entry.RecordUsage(true)
	// 3 successes out of 4 usages.
	if entry.UsageCount != 4 || math.Abs(entry.SuccessRate-0.75) > 1e-9 {
		t.Errorf("after four usages: count=%d rate=%v, want 4 and 0.75", entry.UsageCount, entry.SuccessRate)
	}
}

func TestSummaryTextFormat(t *testing.T) {
	entry := sampleEntry(true)
	got := entry.SummaryText()
	want := "Error: oomKilled | Root Cause: OOMKilled under load | Solution: VerticalScale | Success: true"
	if got != want {
		t.Errorf("SummaryText() = %q, want %q", got, want)
	}
}

func TestTTLAndExpiry(t *testing.T) {
	entry := sampleEntry(true)
	if entry.IsExpired() {
		t.Error("entry without expiry reports expired")
	}

	entry.SetTTLDays(90)
	if entry.ExpiresAt == nil {
		t.Fatal("expiry not set")
	}
	wantExpiry := entry.CreatedAt.Add(90 * 24 * time.Hour)
	if !entry.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expires_at = %v, want %v", entry.ExpiresAt, wantExpiry)
	}
	if entry.IsExpired() {
		t.Error("fresh entry reports expired")
	}

	past := time.Now().UTC().Add(-time.Hour)
	entry.ExpiresAt = &past
	if !entry.IsExpired() {
		t.Error("entry past its expiry reports fresh")
	}
}

func TestSolutionSummaryCondensesStrategy(t *testing.T) {
	strategy := NewSolutionStrategy(StrategyHorizontalScale, 0.7)
	strategy.AddAction(PlannedAction{ActionType: StrategyHorizontalScale.ToActionType(), Order: 1})
	strategy.AddAction(PlannedAction{ActionType: StrategyPodRestart.ToActionType(), Order: 2})

	summary := NewSolutionSummary(strategy)
	if summary.StrategyType != "HorizontalScale" {
		t.Errorf("strategy type = %q", summary.StrategyType)
	}
	if summary.DurationMs != 60000 {
		t.Errorf("duration = %d ms, want 60000", summary.DurationMs)
	}
	if len(summary.Actions) != 2 || summary.Actions[0] != "horizontalScale" || summary.Actions[1] != "podRestart" {
		t.Errorf("actions = %v", summary.Actions)
	}
}

func TestDiagnosisSummaryKeepsEvidenceContent(t *testing.T) {
	hypothesis := NewDiagnosisHypothesis("db pool exhausted", 0.85, "Connection pool too small")
	hypothesis.AddEvidence(Evidence{Source: EvidenceLog, Content: "timeout acquiring connection"})
	hypothesis.AddEvidence(Evidence{Source: EvidenceMetric, Content: "error_rate: 0.35"})

	summary := NewDiagnosisSummary(hypothesis)
	if summary.Confidence != 0.85 || summary.RootCause != "Connection pool too small" {
		t.Errorf("summary = %+v", summary)
	}
	if len(summary.KeyEvidence) != 2 || summary.KeyEvidence[1] != "error_rate: 0.35" {
		t.Errorf("key evidence = %v", summary.KeyEvidence)
	}
}

func TestTopicCentroid(t *testing.T) {
	topic := NewTopic("oom-incidents", "Memory exhaustion across payment services")

	topic.UpdateCentroid(nil)
	if topic.Centroid != nil {
		t.Error("centroid set from no embeddings")
	}

	topic.UpdateCentroid([][]float32{
		{1, 2, 3},
		{3, 4, 5},
	})
	want := []float32{2, 3, 4}
	if len(topic.Centroid) != 3 {
		t.Fatalf("centroid length = %d", len(topic.Centroid))
	}
	for i, v := range want {
		if topic.Centroid[i] != v {
			t.Errorf("centroid[%d] = %v, want %v", i, topic.Centroid[i], v)
		}
	}
	if topic.EntryCount != 2 {
		t.Errorf("entry count = %d, want 2", topic.EntryCount)
	}
}
