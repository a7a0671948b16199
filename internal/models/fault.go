package models

import (
	"time"

	"github.com/recist-io/recist/api/v1alpha1"
)

// FaultSeverity grades how urgently a fault needs containment.
type FaultSeverity string

const (
	SeverityLow      FaultSeverity = "Low"
	SeverityMedium   FaultSeverity = "Medium"
	SeverityHigh     FaultSeverity = "High"
	SeverityCritical FaultSeverity = "Critical"
)

// Fault is one unhealthy pod observation from a detection sweep.
type Fault struct {
	PodName    string                   `json:"pod_name"`
	Namespace  string                   `json:"namespace"`
	Reasons    []v1alpha1.TriggerReason `json:"reasons"`
	Metrics    v1alpha1.TriggerMetrics  `json:"metrics"`
	DetectedAt time.Time                `json:"detected_at"`
	Severity   FaultSeverity            `json:"severity"`
	Labels     map[string]string        `json:"labels"`
}

// NewFault builds a fault and grades its severity from the trigger reasons
// and the metrics snapshot.
func NewFault(podName, namespace string, reasons []v1alpha1.TriggerReason, metrics v1alpha1.TriggerMetrics) *Fault {
	return &Fault{
		PodName:    podName,
		Namespace:  namespace,
		Reasons:    reasons,
		Metrics:    metrics,
		DetectedAt: time.Now().UTC(),
		Severity:   ComputeSeverity(reasons, metrics),
		Labels:     make(map[string]string),
	}
}

// ComputeSeverity grades a fault. OOM kills and crash loops are always
// critical, then the error rate dominates, then resource saturation.
// Absent metrics count as zero, so every fault gets a grade.
func ComputeSeverity(reasons []v1alpha1.TriggerReason, metrics v1alpha1.TriggerMetrics) FaultSeverity {
	for _, r := range reasons {
		if r == v1alpha1.ReasonOOMKilled || r == v1alpha1.ReasonCrashLoop {
			return SeverityCritical
		}
	}

	errorRate := floatOrZero(metrics.ErrorRate)
	if errorRate > 0.5 {
		return SeverityCritical
	}
	if errorRate > 0.2 {
		return SeverityHigh
	}

	if floatOrZero(metrics.CPUUsage) > 0.95 || floatOrZero(metrics.MemoryUsage) > 0.95 {
		return SeverityHigh
	}

	return SeverityMedium
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// PrimaryReason returns the first trigger reason, or unknown when none were
// recorded.
func (f *Fault) PrimaryReason() v1alpha1.TriggerReason {
	if len(f.Reasons) == 0 {
		return v1alpha1.ReasonUnknown
	}
	return f.Reasons[0]
}

// FaultCluster groups the faults found in one namespace during a single
// detection sweep.
type FaultCluster struct {
	Faults     []Fault   `json:"faults"`
	DetectedAt time.Time `json:"detected_at"`
	Namespace  string    `json:"namespace"`
}

// NewFaultCluster creates an empty cluster for a namespace.
func NewFaultCluster(namespace string) *FaultCluster {
	return &FaultCluster{
		Faults:     []Fault{},
		DetectedAt: time.Now().UTC(),
		Namespace:  namespace,
	}
}

// AddFault appends a fault to the cluster.
func (c *FaultCluster) AddFault(fault Fault) {
	c.Faults = append(c.Faults, fault)
}

// IsEmpty reports whether the sweep found nothing.
func (c *FaultCluster) IsEmpty() bool {
	return len(c.Faults) == 0
}

// PodNames lists the pods in the cluster, in detection order.
func (c *FaultCluster) PodNames() []string {
	names := make([]string, 0, len(c.Faults))
	for _, f := range c.Faults {
		names = append(names, f.PodName)
	}
	return names
}

// PrimaryFault returns the first fault, or nil for an empty cluster.
func (c *FaultCluster) PrimaryFault() *Fault {
	if len(c.Faults) == 0 {
		return nil
	}
	return &c.Faults[0]
}

// IsolationRuleType is the NetworkPolicy shape applied to a contained pod.
type IsolationRuleType string

const (
	DenyAll     IsolationRuleType = "DenyAll"
	DenyIngress IsolationRuleType = "DenyIngress"
	DenyEgress  IsolationRuleType = "DenyEgress"
)

// IsolationRule records a NetworkPolicy the containment agent applied, so
// it can be removed once healing completes.
type IsolationRule struct {
	PodName           string            `json:"pod_name"`
	Namespace         string            `json:"namespace"`
	NetworkPolicyName string            `json:"network_policy_name"`
	CreatedAt         time.Time         `json:"created_at"`
	RuleType          IsolationRuleType `json:"rule_type"`
}

// TrafficRedirect records load shifted away from an isolated pod.
type TrafficRedirect struct {
	FromPod   string    `json:"from_pod"`
	ToPods    []string  `json:"to_pods"`
	Namespace string    `json:"namespace"`
	CreatedAt time.Time `json:"created_at"`
}

// AcceptingNeighbor is a peer pod that agreed to take part of the isolated
// pod's load.
type AcceptingNeighbor struct {
	PodName           string  `json:"pod_name"`
	AvailableCapacity float64 `json:"available_capacity"`
	// AcceptedLoadFraction is the share of the redirected load this
	// neighbor takes, 0 to 1.
	AcceptedLoadFraction float64 `json:"accepted_load_fraction"`
}

// RejectedNeighbor is a peer pod that declined redirected load.
type RejectedNeighbor struct {
	PodName string `json:"pod_name"`
	Reason  string `json:"reason"`
}

// NeighborNegotiationResult is the outcome of asking an isolated pod's
// peers to absorb its traffic.
type NeighborNegotiationResult struct {
	RequestingPod string              `json:"requesting_pod"`
	AcceptingPods []AcceptingNeighbor `json:"accepting_pods"`
	RejectedPods  []RejectedNeighbor  `json:"rejected_pods"`
}
