package models

import (
	"testing"

	"github.com/recist-io/recist/api/v1alpha1"
)

func f64(v float64) *float64 { return &v }

func TestComputeSeverity(t *testing.T) {
	tests := []struct {
		name    string
		reasons []v1alpha1.TriggerReason
		metrics v1alpha1.TriggerMetrics
		want    FaultSeverity
	}{
		{
			name:    "oom kill is critical regardless of metrics",
			reasons: []v1alpha1.TriggerReason{v1alpha1.ReasonOOMKilled},
			want:    SeverityCritical,
		},
		{
			name:    "crash loop is critical regardless of metrics",
			reasons: []v1alpha1.TriggerReason{v1alpha1.ReasonHighCPU, v1alpha1.ReasonCrashLoop},
			metrics: v1alpha1.TriggerMetrics{CPUUsage: f64(0.1)},
			want:    SeverityCritical,
		},
		{
			name:    "error rate above half is critical",
			reasons: []v1alpha1.TriggerReason{v1alpha1.ReasonHighErrorRate},
			metrics: v1alpha1.TriggerMetrics{ErrorRate: f64(0.51)},
			want:    SeverityCritical,
		},
		{
			name:    "error rate above a fifth is high",
			reasons: []v1alpha1.TriggerReason{v1alpha1.ReasonHighErrorRate},
			metrics: v1alpha1.TriggerMetrics{ErrorRate: f64(0.21)},
			want:    SeverityHigh,
		},
		{
			name:    "error rate at exactly half is only high",
			reasons: []v1alpha1.TriggerReason{v1alpha1.ReasonHighErrorRate},
			metrics: v1alpha1.TriggerMetrics{ErrorRate: f64(0.5)},
			want:    SeverityHigh,
		},
		{
			name:    "cpu saturation is high",
			reasons: []v1alpha1.TriggerReason{v1alpha1.ReasonHighCPU},
			metrics: v1alpha1.TriggerMetrics{CPUUsage: f64(0.96)},
			want:    SeverityHigh,
		},
		{
			name:    "memory saturation is high",
			reasons: []v1alpha1.TriggerReason{v1alpha1.ReasonHighMemory},
			metrics: v1alpha1.TriggerMetrics{MemoryUsage: f64(0.99)},
			want:    SeverityHigh,
		},
		{
			name:    "moderate load is medium",
			reasons: []v1alpha1.TriggerReason{v1alpha1.ReasonHighLatency},
			metrics: v1alpha1.TriggerMetrics{CPUUsage: f64(0.8), ErrorRate: f64(0.1)},
			want:    SeverityMedium,
		},
		{
			name:    "no reasons and no metrics still grades",
			reasons: nil,
			want:    SeverityMedium,
		},
		{
			name:    "absent metrics count as zero",
			reasons: []v1alpha1.TriggerReason{v1alpha1.ReasonNetworkError},
			metrics: v1alpha1.TriggerMetrics{},
			want:    SeverityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeSeverity(tt.reasons, tt.metrics); got != tt.want {
				t.Errorf("ComputeSeverity() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewFaultGradesItself(t *testing.T) {
	fault := NewFault("payments-api-0", "payments",
		[]v1alpha1.TriggerReason{v1alpha1.ReasonOOMKilled}, v1alpha1.TriggerMetrics{})

	if fault.Severity != SeverityCritical {
		t.Errorf("severity = %q, want Critical", fault.Severity)
	}
	if fault.DetectedAt.IsZero() {
		t.Error("detected_at not stamped")
	}
	if fault.Labels == nil {
		t.Error("labels map not initialized")
	}
}

func TestPrimaryReasonFallsBackToUnknown(t *testing.T) {
	fault := NewFault("web-0", "default", nil, v1alpha1.TriggerMetrics{})
	if got := fault.PrimaryReason(); got != v1alpha1.ReasonUnknown {
		t.Errorf("PrimaryReason() = %q, want unknown", got)
	}

	fault.Reasons = []v1alpha1.TriggerReason{v1alpha1.ReasonHighCPU, v1alpha1.ReasonHighMemory}
	if got := fault.PrimaryReason(); got != v1alpha1.ReasonHighCPU {
		t.Errorf("PrimaryReason() = %q, want highCpu", got)
	}
}

func TestFaultCluster(t *testing.T) {
	cluster := NewFaultCluster("payments")

	if !cluster.IsEmpty() {
		t.Error("fresh cluster not empty")
	}
	if cluster.PrimaryFault() != nil {
		t.Error("empty cluster has a primary fault")
	}

	cluster.AddFault(*NewFault("payments-api-0", "payments", []v1alpha1.TriggerReason{v1alpha1.ReasonOOMKilled}, v1alpha1.TriggerMetrics{}))
	cluster.AddFault(*NewFault("payments-api-1", "payments", []v1alpha1.TriggerReason{v1alpha1.ReasonHighCPU}, v1alpha1.TriggerMetrics{}))

	if cluster.IsEmpty() {
		t.Error("cluster with faults reports empty")
	}
	names := cluster.PodNames()
	if len(names) != 2 || names[0] != "payments-api-0" || names[1] != "payments-api-1" {
		t.Errorf("PodNames() = %v", names)
	}
	if primary := cluster.PrimaryFault(); primary == nil || primary.PodName != "payments-api-0" {
		t.Errorf("PrimaryFault() = %+v", primary)
	}
}
