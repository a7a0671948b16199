package agents

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8sfake "k8s.io/client-go/kubernetes/fake"
	"k8s.io/utils/ptr"

	"github.com/recist-io/recist/api/v1alpha1"
	"github.com/recist-io/recist/internal/clients"
	"github.com/recist-io/recist/internal/eventbus"
	"github.com/recist-io/recist/internal/models"
)

func defaultThresholds() v1alpha1.Thresholds {
	t := v1alpha1.Thresholds{}
	t.SetDefaults()
	return t
}

func newContainmentForTest(kube *k8sfake.Clientset, sweeper MetricsSweeper, cfg v1alpha1.ContainmentConfig) *ContainmentAgent {
	return NewContainmentAgent(kube, sweeper, eventbus.New(), cfg, defaultThresholds(), []string{"prod"}, newTestMetrics())
}

func podReading(name string, cpu, memory, errorRate, latency float64) clients.PodMetrics {
	return clients.PodMetrics{
		PodName:     name,
		Namespace:   "prod",
		CPUUsage:    cpu,
		MemoryUsage: memory,
		ErrorRate:   errorRate,
		LatencyMs:   latency,
	}
}

func TestCheckMetricsThresholdSweep(t *testing.T) {
	sweeper := &fakeSweeper{byNamespace: map[string][]clients.PodMetrics{
		"prod": {
			podReading("healthy", 0.5, 0.5, 0.01, 100),
			podReading("boundary", 0.9, 0.85, 0.05, 500),
			podReading("hot-cpu", 0.95, 0.1, 0.01, 100),
			podReading("hot-mem", 0.1, 0.90, 0.01, 100),
			podReading("errors", 0.1, 0.1, 0.10, 100),
			podReading("slow", 0.1, 0.1, 0.01, 600),
			podReading("burning", 0.95, 0.90, 0.10, 600),
		},
	}}
	agent := newContainmentForTest(k8sfake.NewSimpleClientset(), sweeper, v1alpha1.ContainmentConfig{})

	cluster, err := agent.CheckMetrics(context.Background(), "prod")
	if err != nil {
		t.Fatalf("CheckMetrics failed: %v", err)
	}

	want := map[string][]v1alpha1.TriggerReason{
		"hot-cpu": {v1alpha1.ReasonHighCPU},
		"hot-mem": {v1alpha1.ReasonHighMemory},
		"errors":  {v1alpha1.ReasonHighErrorRate},
		"slow":    {v1alpha1.ReasonHighLatency},
		"burning": {v1alpha1.ReasonHighCPU, v1alpha1.ReasonHighMemory, v1alpha1.ReasonHighErrorRate, v1alpha1.ReasonHighLatency},
	}

	if len(cluster.Faults) != len(want) {
		t.Fatalf("fault count = %d, want %d (pods: %v)", len(cluster.Faults), len(want), cluster.PodNames())
	}
	for _, fault := range cluster.Faults {
		reasons, ok := want[fault.PodName]
		if !ok {
			t.Errorf("unexpected fault for pod %s", fault.PodName)
			continue
		}
		if len(fault.Reasons) != len(reasons) {
			t.Errorf("pod %s reasons = %v, want %v", fault.PodName, fault.Reasons, reasons)
			continue
		}
		for i, reason := range reasons {
			if fault.Reasons[i] != reason {
				t.Errorf("pod %s reason[%d] = %s, want %s", fault.PodName, i, fault.Reasons[i], reason)
			}
		}
		if fault.Metrics.CPUUsage == nil || fault.Metrics.MemoryUsage == nil {
			t.Errorf("pod %s metrics snapshot incomplete", fault.PodName)
		}
	}
}

func TestCheckMetricsAllHealthy(t *testing.T) {
	sweeper := &fakeSweeper{byNamespace: map[string][]clients.PodMetrics{
		"prod": {podReading("healthy", 0.2, 0.2, 0.0, 50)},
	}}
	agent := newContainmentForTest(k8sfake.NewSimpleClientset(), sweeper, v1alpha1.ContainmentConfig{})

	cluster, err := agent.CheckMetrics(context.Background(), "prod")
	if err != nil {
		t.Fatalf("CheckMetrics failed: %v", err)
	}
	if !cluster.IsEmpty() {
		t.Errorf("expected empty cluster, got %v", cluster.PodNames())
	}
}

func TestIsolatePodSoftPolicyShape(t *testing.T) {
	kube := k8sfake.NewSimpleClientset()
	agent := newContainmentForTest(kube, &fakeSweeper{}, v1alpha1.ContainmentConfig{
		IsolationStrategy: v1alpha1.IsolationSoft,
	})
	fault := models.NewFault("api-1", "prod", []v1alpha1.TriggerReason{v1alpha1.ReasonHighCPU}, v1alpha1.TriggerMetrics{})

	rule, err := agent.IsolatePod(context.Background(), fault)
	if err != nil {
		t.Fatalf("IsolatePod failed: %v", err)
	}
	if rule.NetworkPolicyName != "isolate-api-1" {
		t.Errorf("policy name = %s, want isolate-api-1", rule.NetworkPolicyName)
	}
	if rule.RuleType != models.DenyIngress {
		t.Errorf("rule type = %s, want %s", rule.RuleType, models.DenyIngress)
	}

	policy, err := kube.NetworkingV1().NetworkPolicies("prod").Get(context.Background(), "isolate-api-1", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("policy not created: %v", err)
	}
	if got := policy.Spec.PodSelector.MatchLabels["statefulset.kubernetes.io/pod-name"]; got != "api-1" {
		t.Errorf("pod selector = %q, want api-1", got)
	}
	if got := policy.Labels["app.kubernetes.io/managed-by"]; got != "recist" {
		t.Errorf("managed-by label = %q, want recist", got)
	}
	if len(policy.Spec.PolicyTypes) != 1 || policy.Spec.PolicyTypes[0] != networkingv1.PolicyTypeIngress {
		t.Errorf("policy types = %v, want [Ingress]", policy.Spec.PolicyTypes)
	}
	if policy.Spec.Ingress == nil || len(policy.Spec.Ingress) != 0 {
		t.Errorf("ingress rules = %v, want empty allow-list", policy.Spec.Ingress)
	}
	if policy.Spec.Egress != nil {
		t.Errorf("egress rules = %v, want unset for soft isolation", policy.Spec.Egress)
	}

	if _, ok := agent.ActiveIsolations()["api-1"]; !ok {
		t.Error("isolation not tracked")
	}
}

func TestIsolatePodAutoCriticalUsesHard(t *testing.T) {
	kube := k8sfake.NewSimpleClientset()
	agent := newContainmentForTest(kube, &fakeSweeper{}, v1alpha1.ContainmentConfig{
		IsolationStrategy: v1alpha1.IsolationAuto,
	})
	fault := models.NewFault("api-1", "prod", []v1alpha1.TriggerReason{v1alpha1.ReasonHighErrorRate},
		v1alpha1.TriggerMetrics{ErrorRate: ptr.To(0.9)})
	if fault.Severity != models.SeverityCritical {
		t.Fatalf("fault severity = %s, want Critical", fault.Severity)
	}

	rule, err := agent.IsolatePod(context.Background(), fault)
	if err != nil {
		t.Fatalf("IsolatePod failed: %v", err)
	}
	if rule.RuleType != models.DenyAll {
		t.Errorf("rule type = %s, want %s", rule.RuleType, models.DenyAll)
	}

	policy, err := kube.NetworkingV1().NetworkPolicies("prod").Get(context.Background(), "isolate-api-1", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("policy not created: %v", err)
	}
	if len(policy.Spec.PolicyTypes) != 2 {
		t.Fatalf("policy types = %v, want [Ingress Egress]", policy.Spec.PolicyTypes)
	}
	if policy.Spec.PolicyTypes[0] != networkingv1.PolicyTypeIngress || policy.Spec.PolicyTypes[1] != networkingv1.PolicyTypeEgress {
		t.Errorf("policy types = %v, want [Ingress Egress]", policy.Spec.PolicyTypes)
	}
	if policy.Spec.Egress == nil || len(policy.Spec.Egress) != 0 {
		t.Errorf("egress rules = %v, want empty allow-list", policy.Spec.Egress)
	}
}

func TestIsolatePodAutoMediumUsesSoft(t *testing.T) {
	kube := k8sfake.NewSimpleClientset()
	agent := newContainmentForTest(kube, &fakeSweeper{}, v1alpha1.ContainmentConfig{
		IsolationStrategy: v1alpha1.IsolationAuto,
	})
	fault := models.NewFault("api-1", "prod", []v1alpha1.TriggerReason{v1alpha1.ReasonHighCPU},
		v1alpha1.TriggerMetrics{CPUUsage: ptr.To(0.91)})

	rule, err := agent.IsolatePod(context.Background(), fault)
	if err != nil {
		t.Fatalf("IsolatePod failed: %v", err)
	}
	if rule.RuleType != models.DenyIngress {
		t.Errorf("rule type = %s, want %s", rule.RuleType, models.DenyIngress)
	}
}

func TestIsolatePodReplacesExistingPolicy(t *testing.T) {
	kube := k8sfake.NewSimpleClientset()
	agent := newContainmentForTest(kube, &fakeSweeper{}, v1alpha1.ContainmentConfig{})
	fault := models.NewFault("api-1", "prod", []v1alpha1.TriggerReason{v1alpha1.ReasonHighCPU}, v1alpha1.TriggerMetrics{})

	if _, err := agent.IsolatePod(context.Background(), fault); err != nil {
		t.Fatalf("first IsolatePod failed: %v", err)
	}
	if _, err := agent.IsolatePod(context.Background(), fault); err != nil {
		t.Fatalf("second IsolatePod failed: %v", err)
	}

	if _, err := kube.NetworkingV1().NetworkPolicies("prod").Get(context.Background(), "isolate-api-1", metav1.GetOptions{}); err != nil {
		t.Fatalf("policy missing after replacement: %v", err)
	}
	if got := testutil.ToFloat64(agent.metrics.IsolationsActive); got != 1 {
		t.Errorf("active isolations gauge = %v, want 1", got)
	}
	if got := len(agent.ActiveIsolations()); got != 1 {
		t.Errorf("tracked isolations = %d, want 1", got)
	}
}

func TestRemoveIsolation(t *testing.T) {
	kube := k8sfake.NewSimpleClientset()
	agent := newContainmentForTest(kube, &fakeSweeper{}, v1alpha1.ContainmentConfig{})
	fault := models.NewFault("api-1", "prod", []v1alpha1.TriggerReason{v1alpha1.ReasonHighCPU}, v1alpha1.TriggerMetrics{})

	if _, err := agent.IsolatePod(context.Background(), fault); err != nil {
		t.Fatalf("IsolatePod failed: %v", err)
	}
	if err := agent.RemoveIsolation(context.Background(), "api-1", "prod"); err != nil {
		t.Fatalf("RemoveIsolation failed: %v", err)
	}

	if _, err := kube.NetworkingV1().NetworkPolicies("prod").Get(context.Background(), "isolate-api-1", metav1.GetOptions{}); err == nil {
		t.Error("policy still exists after removal")
	}
	if got := len(agent.ActiveIsolations()); got != 0 {
		t.Errorf("tracked isolations = %d, want 0", got)
	}
	if got := testutil.ToFloat64(agent.metrics.IsolationsActive); got != 0 {
		t.Errorf("active isolations gauge = %v, want 0", got)
	}

	// Deleting a policy that never existed counts as removed.
	if err := agent.RemoveIsolation(context.Background(), "ghost", "prod"); err != nil {
		t.Errorf("RemoveIsolation for missing policy = %v, want nil", err)
	}
}

func TestNegotiateWithNeighbors(t *testing.T) {
	sweeper := &fakeSweeper{byNamespace: map[string][]clients.PodMetrics{
		"prod": {
			podReading("api-1", 0.99, 0.9, 0.5, 900),
			podReading("api-2", 0.2, 0.1, 0, 0),
			podReading("api-3", 0.1, 0.0, 0, 0),
			podReading("api-4", 0.5, 0.3, 0, 0),
			podReading("api-5", 0.3, 0.3, 0, 0),
		},
	}}
	agent := newContainmentForTest(k8sfake.NewSimpleClientset(), sweeper, v1alpha1.ContainmentConfig{
		NeighborCapacityThreshold: 0.7,
	})

	result, err := agent.NegotiateWithNeighbors(context.Background(), "api-1", "prod")
	if err != nil {
		t.Fatalf("NegotiateWithNeighbors failed: %v", err)
	}
	if result.RequestingPod != "api-1" {
		t.Errorf("requesting pod = %s, want api-1", result.RequestingPod)
	}
	if len(result.AcceptingPods) != 3 {
		t.Fatalf("accepting pods = %d, want 3", len(result.AcceptingPods))
	}
	if len(result.RejectedPods) != 1 {
		t.Fatalf("rejected pods = %d, want 1", len(result.RejectedPods))
	}

	wantFractions := map[string]float64{
		"api-2": (0.8 - 0.7) / 0.3, // available 0.8
		"api-3": 0.5,               // available 0.9, fraction capped
		"api-5": 0.0,               // available exactly at threshold
	}
	for _, accepting := range result.AcceptingPods {
		want, ok := wantFractions[accepting.PodName]
		if !ok {
			t.Errorf("unexpected accepting pod %s", accepting.PodName)
			continue
		}
		if math.Abs(accepting.AcceptedLoadFraction-want) > 1e-9 {
			t.Errorf("pod %s fraction = %v, want %v", accepting.PodName, accepting.AcceptedLoadFraction, want)
		}
	}

	rejected := result.RejectedPods[0]
	if rejected.PodName != "api-4" {
		t.Errorf("rejected pod = %s, want api-4", rejected.PodName)
	}
	if rejected.Reason != "Insufficient capacity: 50.00% available" {
		t.Errorf("reject reason = %q", rejected.Reason)
	}
}

func TestHandleEventLiftsIsolationOnSuccess(t *testing.T) {
	kube := k8sfake.NewSimpleClientset()
	agent := newContainmentForTest(kube, &fakeSweeper{}, v1alpha1.ContainmentConfig{})
	fault := models.NewFault("api-1", "prod", []v1alpha1.TriggerReason{v1alpha1.ReasonHighCPU}, v1alpha1.TriggerMetrics{})

	if _, err := agent.IsolatePod(context.Background(), fault); err != nil {
		t.Fatalf("IsolatePod failed: %v", err)
	}

	failure := models.NewHealingCompleteEvent("corr-1", models.HealingCompletePayload{
		Success: false, Message: "strategy failed", PodName: "api-1", Namespace: "prod",
	})
	if _, err := agent.HandleEvent(context.Background(), failure); err != nil {
		t.Fatalf("HandleEvent(failure) returned error: %v", err)
	}
	if len(agent.ActiveIsolations()) != 1 {
		t.Fatal("isolation lifted despite failed healing")
	}

	success := models.NewHealingCompleteEvent("corr-1", models.HealingCompletePayload{
		Success: true, Message: "ok", PodName: "api-1", Namespace: "prod",
	})
	if _, err := agent.HandleEvent(context.Background(), success); err != nil {
		t.Fatalf("HandleEvent(success) returned error: %v", err)
	}
	if len(agent.ActiveIsolations()) != 0 {
		t.Fatal("isolation not lifted after successful healing")
	}
	if _, err := kube.NetworkingV1().NetworkPolicies("prod").Get(context.Background(), "isolate-api-1", metav1.GetOptions{}); err == nil {
		t.Error("policy still exists after successful healing")
	}
}

func TestHandleEventIgnoresOtherPayloads(t *testing.T) {
	agent := newContainmentForTest(k8sfake.NewSimpleClientset(), &fakeSweeper{}, v1alpha1.ContainmentConfig{})

	event := models.NewFaultDetectedEvent("corr-1", *models.NewFaultCluster("prod"))
	response, err := agent.HandleEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}
	if response != nil {
		t.Errorf("response = %v, want nil", response)
	}
}

func TestRunLoopPublishesFaultEvents(t *testing.T) {
	kube := k8sfake.NewSimpleClientset()
	sweeper := &fakeSweeper{byNamespace: map[string][]clients.PodMetrics{
		"prod": {podReading("api-1", 0.95, 0.1, 0, 0)},
	}}
	bus := eventbus.New()
	agent := NewContainmentAgent(kube, sweeper, bus, v1alpha1.ContainmentConfig{CheckIntervalSeconds: 1},
		defaultThresholds(), []string{"prod"}, newTestMetrics())

	receiver := bus.Subscribe(models.AgentDiagnosis, models.EventFaultDetected)
	defer receiver.Close()

	if err := agent.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := agent.Stop(ctx); err != nil {
			t.Errorf("Stop failed: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	event, err := receiver.Recv(ctx)
	if err != nil {
		t.Fatalf("no fault event published: %v", err)
	}

	if event.EventType != models.EventFaultDetected {
		t.Errorf("event type = %s, want %s", event.EventType, models.EventFaultDetected)
	}
	if event.SourceAgent != models.AgentContainment {
		t.Errorf("source agent = %s, want %s", event.SourceAgent, models.AgentContainment)
	}
	if event.CorrelationID == "" {
		t.Error("correlation id is empty")
	}

	payload, ok := event.Payload.(models.FaultDetectedPayload)
	if !ok {
		t.Fatalf("payload type = %T", event.Payload)
	}
	if len(payload.FaultCluster.Faults) != 1 || payload.FaultCluster.Faults[0].PodName != "api-1" {
		t.Errorf("fault cluster = %v", payload.FaultCluster.PodNames())
	}

	// The sweep isolates before publishing.
	if _, err := kube.NetworkingV1().NetworkPolicies("prod").Get(context.Background(), "isolate-api-1", metav1.GetOptions{}); err != nil {
		t.Errorf("loop did not isolate the faulty pod: %v", err)
	}
}
