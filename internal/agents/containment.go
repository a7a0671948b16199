package agents

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/utils/ptr"

	"github.com/recist-io/recist/api/v1alpha1"
	"github.com/recist-io/recist/internal/clients"
	"github.com/recist-io/recist/internal/eventbus"
	"github.com/recist-io/recist/internal/logging"
	"github.com/recist-io/recist/internal/metrics"
	"github.com/recist-io/recist/internal/models"
)

// podSelectorLabel is the stable per-instance label the isolation policy
// selects on.
const podSelectorLabel = "statefulset.kubernetes.io/pod-name"

// managedByValue marks network policies this operator owns.
const managedByValue = "recist"

// MetricsSweeper yields the per-pod metrics for one namespace sweep.
type MetricsSweeper interface {
	GetAllPodMetrics(ctx context.Context, namespace string) ([]clients.PodMetrics, error)
}

// ContainmentAgent detects unhealthy pods by polling metrics against
// thresholds, isolates them with NetworkPolicies, and negotiates load
// redistribution with healthy neighbors.
type ContainmentAgent struct {
	kube       kubernetes.Interface
	prometheus MetricsSweeper
	bus        *eventbus.Bus
	config     v1alpha1.ContainmentConfig
	thresholds v1alpha1.Thresholds
	namespaces []string
	metrics    *metrics.Metrics
	logger     *logging.Logger

	// isolations is guarded by mu: readers inspect, writers insert and
	// remove as policies come and go.
	mu         sync.RWMutex
	isolations map[string]models.IsolationRule

	runMu   sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewContainmentAgent builds the agent. The namespaces list is what the
// check loop sweeps.
func NewContainmentAgent(kube kubernetes.Interface, prometheus MetricsSweeper, bus *eventbus.Bus,
	cfg v1alpha1.ContainmentConfig, thresholds v1alpha1.Thresholds, namespaces []string, m *metrics.Metrics) *ContainmentAgent {
	cfg.SetDefaults()
	thresholds.SetDefaults()

	return &ContainmentAgent{
		kube:       kube,
		prometheus: prometheus,
		bus:        bus,
		config:     cfg,
		thresholds: thresholds,
		namespaces: namespaces,
		metrics:    m,
		logger:     logging.GetLogger("containment"),
		isolations: make(map[string]models.IsolationRule),
	}
}

// AgentType implements Agent.
func (a *ContainmentAgent) AgentType() models.AgentType {
	return models.AgentContainment
}

// SubscribeTo implements Agent. Containment reacts only to healing results,
// so it can lift isolations once a pod is healthy again.
func (a *ContainmentAgent) SubscribeTo() []models.AgentEventType {
	return []models.AgentEventType{models.EventHealingComplete}
}

// Start flips the running flag and launches the detection loop.
func (a *ContainmentAgent) Start(ctx context.Context) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if a.running {
		return nil
	}
	a.running = true

	loopCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.RunCheckLoop(loopCtx, a.namespaces)
	}()

	a.logger.Info("Containment agent started")
	return nil
}

// Stop flips the running flag; the loop exits at its next iteration.
func (a *ContainmentAgent) Stop(ctx context.Context) error {
	a.runMu.Lock()
	a.running = false
	if a.cancel != nil {
		a.cancel()
	}
	a.runMu.Unlock()

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

	a.logger.Info("Containment agent stopped")
	return nil
}

func (a *ContainmentAgent) isRunning() bool {
	a.runMu.RLock()
	defer a.runMu.RUnlock()
	return a.running
}

// CheckMetrics sweeps one namespace and returns the cluster of faults whose
// metrics exceed the configured thresholds.
func (a *ContainmentAgent) CheckMetrics(ctx context.Context, namespace string) (*models.FaultCluster, error) {
	podMetrics, err := a.prometheus.GetAllPodMetrics(ctx, namespace)
	if err != nil {
		return nil, err
	}

	cluster := models.NewFaultCluster(namespace)

	for _, pm := range podMetrics {
		var reasons []v1alpha1.TriggerReason

		if pm.CPUUsage > a.thresholds.CPU {
			reasons = append(reasons, v1alpha1.ReasonHighCPU)
		}
		if pm.MemoryUsage > a.thresholds.Memory {
			reasons = append(reasons, v1alpha1.ReasonHighMemory)
		}
		if pm.ErrorRate > a.thresholds.ErrorRate {
			reasons = append(reasons, v1alpha1.ReasonHighErrorRate)
		}
		if pm.LatencyMs > float64(a.thresholds.LatencyMs) {
			reasons = append(reasons, v1alpha1.ReasonHighLatency)
		}

		if len(reasons) == 0 {
			continue
		}

		fault := models.NewFault(pm.PodName, namespace, reasons, v1alpha1.TriggerMetrics{
			CPUUsage:    ptr.To(pm.CPUUsage),
			MemoryUsage: ptr.To(pm.MemoryUsage),
			ErrorRate:   ptr.To(pm.ErrorRate),
			LatencyMs:   ptr.To(int64(pm.LatencyMs)),
		})

		a.logger.Info("Fault detected in pod %s/%s: %v", namespace, pm.PodName, reasons)
		for _, reason := range reasons {
			a.metrics.FaultsDetected.WithLabelValues(namespace, string(reason)).Inc()
		}

		cluster.AddFault(*fault)
	}

	return cluster, nil
}

// IsolatePod applies a NetworkPolicy cutting the faulty pod off and records
// the rule. An existing policy with the same name is replaced.
func (a *ContainmentAgent) IsolatePod(ctx context.Context, fault *models.Fault) (*models.IsolationRule, error) {
	strategy := a.determineIsolationStrategy(fault)
	policyName := fmt.Sprintf("isolate-%s", fault.PodName)

	a.logger.Info("Isolating pod %s/%s with strategy %s", fault.Namespace, fault.PodName, strategy)

	policy := a.buildNetworkPolicy(policyName, fault.PodName, strategy)
	api := a.kube.NetworkingV1().NetworkPolicies(fault.Namespace)

	_, err := api.Create(ctx, policy, metav1.CreateOptions{})
	switch {
	case err == nil:
		a.logger.Info("Created NetworkPolicy %s for pod %s", policyName, fault.PodName)
	case apierrors.IsAlreadyExists(err):
		a.logger.Debug("NetworkPolicy %s already exists, replacing", policyName)
		_ = api.Delete(ctx, policyName, metav1.DeleteOptions{})
		if _, err := api.Create(ctx, policy, metav1.CreateOptions{}); err != nil {
			return nil, fmt.Errorf("failed to recreate NetworkPolicy %s: %w", policyName, err)
		}
	default:
		return nil, fmt.Errorf("failed to create NetworkPolicy %s: %w", policyName, err)
	}

	ruleType := models.DenyIngress
	if strategy == v1alpha1.IsolationHard {
		ruleType = models.DenyAll
	}

	rule := models.IsolationRule{
		PodName:           fault.PodName,
		Namespace:         fault.Namespace,
		NetworkPolicyName: policyName,
		CreatedAt:         time.Now().UTC(),
		RuleType:          ruleType,
	}

	a.mu.Lock()
	_, replaced := a.isolations[fault.PodName]
	a.isolations[fault.PodName] = rule
	a.mu.Unlock()

	if !replaced {
		a.metrics.IsolationsActive.Inc()
	}
	a.metrics.IsolationsTotal.WithLabelValues(string(strategy)).Inc()

	return &rule, nil
}

// RemoveIsolation deletes the pod's isolation policy. A missing policy
// counts as removed.
func (a *ContainmentAgent) RemoveIsolation(ctx context.Context, podName, namespace string) error {
	policyName := fmt.Sprintf("isolate-%s", podName)
	api := a.kube.NetworkingV1().NetworkPolicies(namespace)

	err := api.Delete(ctx, policyName, metav1.DeleteOptions{})
	switch {
	case err == nil:
		a.logger.Info("Removed NetworkPolicy %s for pod %s", policyName, podName)
	case apierrors.IsNotFound(err):
		a.logger.Debug("NetworkPolicy %s not found, already removed", policyName)
	default:
		return fmt.Errorf("failed to delete NetworkPolicy %s: %w", policyName, err)
	}

	a.mu.Lock()
	_, existed := a.isolations[podName]
	delete(a.isolations, podName)
	a.mu.Unlock()

	if existed {
		a.metrics.IsolationsActive.Dec()
	}

	return nil
}

// ActiveIsolations returns a snapshot of the isolation rules currently in
// force, keyed by pod name.
func (a *ContainmentAgent) ActiveIsolations() map[string]models.IsolationRule {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snapshot := make(map[string]models.IsolationRule, len(a.isolations))
	for pod, rule := range a.isolations {
		snapshot[pod] = rule
	}
	return snapshot
}

// NegotiateWithNeighbors asks the faulty pod's peers to absorb its load.
// Each neighbor with available capacity at or above the configured threshold
// accepts a bounded fraction; the rest are rejected with a reason.
func (a *ContainmentAgent) NegotiateWithNeighbors(ctx context.Context, faultyPod, namespace string) (*models.NeighborNegotiationResult, error) {
	allMetrics, err := a.prometheus.GetAllPodMetrics(ctx, namespace)
	if err != nil {
		return nil, err
	}

	threshold := a.config.NeighborCapacityThreshold
	result := &models.NeighborNegotiationResult{
		RequestingPod: faultyPod,
		AcceptingPods: []models.AcceptingNeighbor{},
		RejectedPods:  []models.RejectedNeighbor{},
	}

	for _, pm := range allMetrics {
		if pm.PodName == faultyPod {
			continue
		}

		used := pm.CPUUsage
		if pm.MemoryUsage > used {
			used = pm.MemoryUsage
		}
		available := 1.0 - used

		if available >= threshold {
			fraction := (available - threshold) / (1.0 - threshold)
			if fraction > 0.5 {
				fraction = 0.5
			}
			result.AcceptingPods = append(result.AcceptingPods, models.AcceptingNeighbor{
				PodName:              pm.PodName,
				AvailableCapacity:    available,
				AcceptedLoadFraction: fraction,
			})
		} else {
			result.RejectedPods = append(result.RejectedPods, models.RejectedNeighbor{
				PodName: pm.PodName,
				Reason:  fmt.Sprintf("Insufficient capacity: %.2f%% available", available*100.0),
			})
		}
	}

	a.logger.Info("Neighbor negotiation for %s: %d accepting, %d rejected",
		faultyPod, len(result.AcceptingPods), len(result.RejectedPods))

	return result, nil
}

// determineIsolationStrategy resolves auto to hard for critical faults and
// soft for everything else.
func (a *ContainmentAgent) determineIsolationStrategy(fault *models.Fault) v1alpha1.IsolationStrategy {
	if a.config.IsolationStrategy != v1alpha1.IsolationAuto {
		return a.config.IsolationStrategy
	}
	if fault.Severity == models.SeverityCritical {
		return v1alpha1.IsolationHard
	}
	return v1alpha1.IsolationSoft
}

// buildNetworkPolicy shapes the isolation policy: soft denies ingress only,
// hard denies both directions. Empty rule lists mean nothing is allowed.
func (a *ContainmentAgent) buildNetworkPolicy(name, podName string, strategy v1alpha1.IsolationStrategy) *networkingv1.NetworkPolicy {
	policyTypes := []networkingv1.PolicyType{networkingv1.PolicyTypeIngress}
	if strategy == v1alpha1.IsolationHard {
		policyTypes = append(policyTypes, networkingv1.PolicyTypeEgress)
	}

	spec := networkingv1.NetworkPolicySpec{
		PodSelector: metav1.LabelSelector{
			MatchLabels: map[string]string{podSelectorLabel: podName},
		},
		PolicyTypes: policyTypes,
		Ingress:     []networkingv1.NetworkPolicyIngressRule{},
	}
	if strategy == v1alpha1.IsolationHard {
		spec.Egress = []networkingv1.NetworkPolicyEgressRule{}
	}

	return &networkingv1.NetworkPolicy{
		ObjectMeta: metav1.ObjectMeta{
			Name: name,
			Labels: map[string]string{
				"app.kubernetes.io/managed-by": managedByValue,
			},
		},
		Spec: spec,
	}
}

// RunCheckLoop sweeps the given namespaces every check interval while the
// running flag is set. Per-namespace metric failures are logged and skipped;
// per-fault isolation failures are logged and do not stop the sweep.
func (a *ContainmentAgent) RunCheckLoop(ctx context.Context, namespaces []string) {
	interval := time.Duration(a.config.CheckIntervalSeconds) * time.Second

	for {
		if !a.isRunning() {
			return
		}

		for _, namespace := range namespaces {
			cluster, err := a.CheckMetrics(ctx, namespace)
			if err != nil {
				a.logger.Warn("Failed to check metrics for namespace %s: %v", namespace, err)
				continue
			}
			if cluster.IsEmpty() {
				continue
			}

			for i := range cluster.Faults {
				if _, err := a.IsolatePod(ctx, &cluster.Faults[i]); err != nil {
					a.logger.Error("Failed to isolate pod %s: %v", cluster.Faults[i].PodName, err)
				}
			}

			correlationID := uuid.NewString()
			event := models.NewFaultDetectedEvent(correlationID, *cluster)
			if _, err := a.bus.Publish(event); err != nil {
				a.logger.Error("Failed to publish fault event: %v", err)
			} else {
				a.metrics.EventsPublished.WithLabelValues(string(event.EventType)).Inc()
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// HandleEvent lifts the isolation once a pod healed successfully. Failed
// healings keep the pod contained for the next attempt.
func (a *ContainmentAgent) HandleEvent(ctx context.Context, event models.AgentEvent) (*models.AgentEvent, error) {
	payload, ok := event.Payload.(models.HealingCompletePayload)
	if !ok {
		return nil, nil
	}

	if !payload.Success {
		a.logger.Debug("Healing failed for correlation %s, keeping isolation", event.CorrelationID)
		return nil, nil
	}

	a.logger.Info("Healing complete, removing isolation for pod %s/%s (correlation %s)",
		payload.Namespace, payload.PodName, event.CorrelationID)

	if err := a.RemoveIsolation(ctx, payload.PodName, payload.Namespace); err != nil {
		return nil, err
	}
	return nil, nil
}
