package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"

	"github.com/recist-io/recist/api/v1alpha1"
	"github.com/recist-io/recist/internal/eventbus"
	"github.com/recist-io/recist/internal/llm"
	"github.com/recist-io/recist/internal/logging"
	"github.com/recist-io/recist/internal/metrics"
	"github.com/recist-io/recist/internal/models"
)

// MetaCognitiveAgent turns a diagnosis into an executed healing strategy.
// It spawns micro agents to evaluate candidate strategies in parallel, picks
// the most confident one above the decision threshold, executes it, and
// verifies the pod recovered.
type MetaCognitiveAgent struct {
	kube    kubernetes.Interface
	llm     llm.Client
	bus     *eventbus.Bus
	config  v1alpha1.MetaCognitiveConfig
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewMetaCognitiveAgent builds the agent.
func NewMetaCognitiveAgent(kube kubernetes.Interface, client llm.Client, bus *eventbus.Bus,
	cfg v1alpha1.MetaCognitiveConfig, m *metrics.Metrics) *MetaCognitiveAgent {
	cfg.SetDefaults()

	return &MetaCognitiveAgent{
		kube:    kube,
		llm:     client,
		bus:     bus,
		config:  cfg,
		metrics: m,
		logger:  logging.GetLogger("metacognitive"),
	}
}

// AgentType implements Agent.
func (a *MetaCognitiveAgent) AgentType() models.AgentType {
	return models.AgentMetaCognitive
}

// SubscribeTo implements Agent.
func (a *MetaCognitiveAgent) SubscribeTo() []models.AgentEventType {
	return []models.AgentEventType{models.EventDiagnosisComplete}
}

// Start implements Agent. The agent is purely event driven.
func (a *MetaCognitiveAgent) Start(ctx context.Context) error {
	a.logger.Info("MetaCognitive agent started")
	return nil
}

// Stop implements Agent.
func (a *MetaCognitiveAgent) Stop(ctx context.Context) error {
	a.logger.Info("MetaCognitive agent stopped")
	return nil
}

// DetermineStrategy evaluates candidate strategies with parallel micro
// agents and assembles the winning one into an executable plan. Micro agent
// failures are logged; selection proceeds with the survivors. An empty
// survivor set above the threshold is a healing error.
func (a *MetaCognitiveAgent) DetermineStrategy(ctx context.Context, hypothesis *models.DiagnosisHypothesis,
	namespace, podName string) (*models.SolutionStrategy, error) {
	a.logger.Info("Determining healing strategy for %s/%s with root cause: %s",
		namespace, podName, hypothesis.RootCause)

	candidates := a.generateCandidateStrategies(hypothesis)
	if len(candidates) > int(a.config.MaxMicroAgents) {
		candidates = candidates[:a.config.MaxMicroAgents]
	}

	results := make([]*models.MicroAgentResult, len(candidates))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, candidate := range candidates {
		agent := NewMicroAgent(candidate, *hypothesis, a.llm, a.config.MaxReasoningDepth)
		group.Go(func() error {
			result, err := agent.Evaluate(groupCtx)
			if err != nil {
				a.logger.Warn("Micro-agent evaluation failed: %v", err)
				return nil
			}
			results[i] = result
			return nil
		})
	}
	_ = group.Wait()

	var best *models.MicroAgentResult
	for _, result := range results {
		if result == nil || result.Confidence < a.config.DecisionThreshold {
			continue
		}
		if best == nil || result.Confidence > best.Confidence {
			best = result
		}
	}
	if best == nil {
		return nil, models.NewHealingError("No strategy met confidence threshold")
	}

	a.logger.Info("Selected strategy: %s with confidence %.2f", best.StrategyType, best.Confidence)

	strategy := models.NewSolutionStrategy(best.StrategyType, best.Confidence)
	strategy.AddAction(a.createActionForStrategy(best.StrategyType, namespace, podName))
	strategy.SetRollbackPlan(a.createRollbackPlan(best.StrategyType, namespace, podName))

	return strategy, nil
}

// generateCandidateStrategies maps root cause keywords to the strategies
// worth evaluating, falling back to a pod restart when nothing matches.
func (a *MetaCognitiveAgent) generateCandidateStrategies(hypothesis *models.DiagnosisHypothesis) []models.StrategyType {
	rootCause := strings.ToLower(hypothesis.RootCause)
	var candidates []models.StrategyType

	if containsAny(rootCause, "memory", "leak", "oom") {
		candidates = append(candidates, models.StrategyPodRestart, models.StrategyVerticalScale)
	}
	if containsAny(rootCause, "cpu", "load", "capacity") {
		candidates = append(candidates, models.StrategyHorizontalScale, models.StrategyVerticalScale)
	}
	if containsAny(rootCause, "connection", "pool", "timeout") {
		candidates = append(candidates, models.StrategyConfigUpdate, models.StrategyPodRestart)
	}
	if containsAny(rootCause, "dependency", "upstream", "downstream") {
		candidates = append(candidates, models.StrategyDependencyRestart, models.StrategyNetworkIsolation)
	}

	if len(candidates) == 0 {
		candidates = append(candidates, models.StrategyPodRestart)
	}
	return candidates
}

func (a *MetaCognitiveAgent) createActionForStrategy(strategy models.StrategyType, namespace, podName string) models.PlannedAction {
	var resourceType models.ResourceType
	switch strategy {
	case models.StrategyHorizontalScale, models.StrategyVerticalScale:
		resourceType = models.ResourceDeployment
	case models.StrategyConfigUpdate:
		resourceType = models.ResourceConfigMap
	case models.StrategyNetworkIsolation:
		resourceType = models.ResourceNetworkPolicy
	default:
		resourceType = models.ResourcePod
	}

	return models.PlannedAction{
		ActionType: strategy.ToActionType(),
		Target: models.ActionTarget{
			ResourceType: resourceType,
			Name:         podName,
			Namespace:    namespace,
		},
		Parameters: map[string]string{},
		Order:      1,
		DependsOn:  []int32{},
	}
}

func (a *MetaCognitiveAgent) createRollbackPlan(strategy models.StrategyType, namespace, podName string) models.RollbackPlan {
	actionType := models.RollbackRestartPod
	switch strategy {
	case models.StrategyHorizontalScale, models.StrategyVerticalScale:
		actionType = models.RollbackRestoreReplicas
	case models.StrategyConfigUpdate:
		actionType = models.RollbackRestoreConfig
	case models.StrategyNetworkIsolation:
		actionType = models.RollbackDeleteNetworkPolicy
	}

	return models.RollbackPlan{
		Actions: []models.RollbackAction{{
			ActionType: actionType,
			Target: models.ActionTarget{
				ResourceType: models.ResourcePod,
				Name:         podName,
				Namespace:    namespace,
			},
			OriginalState: "{}",
		}},
		TimeoutSeconds: 60,
	}
}

// ExecuteStrategy applies the strategy's leading action. Failures are
// captured into the result rather than returned, so the pipeline always has
// an outcome to report.
func (a *MetaCognitiveAgent) ExecuteStrategy(ctx context.Context, strategy *models.SolutionStrategy,
	namespace, podName string) *models.ActionResult {
	a.logger.Info("Executing strategy %s for %s/%s", strategy.StrategyType, namespace, podName)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(a.config.ActionTimeoutSeconds)*time.Second)
	defer cancel()

	start := time.Now()

	var err error
	switch strategy.StrategyType {
	case models.StrategyPodRestart:
		err = a.executePodRestart(ctx, namespace, podName)
	case models.StrategyHorizontalScale:
		err = a.executeHorizontalScale(ctx, namespace, podName, 2)
	case models.StrategyVerticalScale:
		err = a.executeVerticalScale(ctx, namespace, podName)
	case models.StrategyNetworkIsolation:
		// The containment agent already holds the isolation policy.
	default:
		err = a.executePodRestart(ctx, namespace, podName)
	}

	duration := time.Since(start)
	result := &models.ActionResult{
		ActionType: strategy.StrategyType.ToActionType(),
		ExecutedAt: time.Now().UTC(),
		DurationMs: duration.Milliseconds(),
	}

	if err != nil {
		a.logger.Error("Strategy %s failed: %v", strategy.StrategyType, err)
		result.Success = false
		result.Message = fmt.Sprintf("Strategy failed: %v", err)
		return result
	}

	a.logger.Info("Strategy %s executed successfully in %s", strategy.StrategyType, duration)
	result.Success = true
	result.Message = fmt.Sprintf("Strategy executed successfully in %s", duration)
	return result
}

func (a *MetaCognitiveAgent) executePodRestart(ctx context.Context, namespace, podName string) error {
	err := a.kube.CoreV1().Pods(namespace).Delete(ctx, podName, metav1.DeleteOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete pod %s/%s: %w", namespace, podName, err)
	}
	a.logger.Info("Deleted pod %s/%s for restart", namespace, podName)
	return nil
}

// deploymentNameForPod strips the ReplicaSet hash and pod suffix from a pod
// name. Pods with fewer than three segments yield an empty name and the
// action fails downstream.
func deploymentNameForPod(podName string) string {
	parts := strings.Split(podName, "-")
	if len(parts) <= 2 {
		return ""
	}
	return strings.Join(parts[:len(parts)-2], "-")
}

func (a *MetaCognitiveAgent) executeHorizontalScale(ctx context.Context, namespace, podName string, additionalReplicas int32) error {
	deploymentName := deploymentNameForPod(podName)
	api := a.kube.AppsV1().Deployments(namespace)

	deployment, err := api.Get(ctx, deploymentName, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get deployment %s/%s: %w", namespace, deploymentName, err)
	}

	currentReplicas := int32(1)
	if deployment.Spec.Replicas != nil {
		currentReplicas = *deployment.Spec.Replicas
	}
	newReplicas := currentReplicas + additionalReplicas

	patch := fmt.Sprintf(`{"spec":{"replicas":%d}}`, newReplicas)
	if _, err := api.Patch(ctx, deploymentName, types.MergePatchType, []byte(patch), metav1.PatchOptions{}); err != nil {
		return fmt.Errorf("failed to scale deployment %s/%s: %w", namespace, deploymentName, err)
	}

	a.logger.Info("Scaled deployment %s/%s from %d to %d replicas",
		namespace, deploymentName, currentReplicas, newReplicas)
	return nil
}

func (a *MetaCognitiveAgent) executeVerticalScale(ctx context.Context, namespace, podName string) error {
	deploymentName := deploymentNameForPod(podName)
	api := a.kube.AppsV1().Deployments(namespace)

	patch, err := json.Marshal(map[string]interface{}{
		"spec": map[string]interface{}{
			"template": map[string]interface{}{
				"spec": map[string]interface{}{
					"containers": []map[string]interface{}{{
						"name": deploymentName,
						"resources": map[string]interface{}{
							"limits": map[string]string{
								"cpu":    "1000m",
								"memory": "1Gi",
							},
							"requests": map[string]string{
								"cpu":    "500m",
								"memory": "512Mi",
							},
						},
					}},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to build resource patch: %w", err)
	}

	if _, err := api.Patch(ctx, deploymentName, types.StrategicMergePatchType, patch, metav1.PatchOptions{}); err != nil {
		return fmt.Errorf("failed to update resources of deployment %s/%s: %w", namespace, deploymentName, err)
	}

	a.logger.Info("Updated resource limits for deployment %s/%s", namespace, deploymentName)
	return nil
}

// VerifyHealing waits out the verification window and checks the pod is
// running with every container ready. A missing pod verifies as healed
// since restart strategies replace it under a new name.
func (a *MetaCognitiveAgent) VerifyHealing(ctx context.Context, namespace, podName string) (bool, error) {
	wait := time.Duration(a.config.VerificationWaitSeconds) * time.Second
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-time.After(wait):
	}

	pod, err := a.kube.CoreV1().Pods(namespace).Get(ctx, podName, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		a.logger.Debug("Pod %s/%s not found during verification (may have been recreated)", namespace, podName)
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get pod %s/%s: %w", namespace, podName, err)
	}

	isRunning := pod.Status.Phase == corev1.PodRunning
	allReady := len(pod.Status.ContainerStatuses) > 0
	for _, status := range pod.Status.ContainerStatuses {
		if !status.Ready {
			allReady = false
			break
		}
	}

	a.logger.Info("Verification for %s/%s: phase=%s, all_ready=%t",
		namespace, podName, pod.Status.Phase, allReady)

	return isRunning && allReady, nil
}

// HandleEvent heals the pod a diagnosis names: pick a strategy, execute it,
// verify, and report the outcome. Strategy selection failures are logged
// and swallowed so the incident simply ends without a healing event.
func (a *MetaCognitiveAgent) HandleEvent(ctx context.Context, event models.AgentEvent) (*models.AgentEvent, error) {
	payload, ok := event.Payload.(models.DiagnosisCompletePayload)
	if !ok {
		return nil, nil
	}

	a.logger.Info("Received diagnosis, determining strategy for correlation %s", event.CorrelationID)

	strategy, err := a.DetermineStrategy(ctx, &payload.Hypothesis, payload.Namespace, payload.PodName)
	if err != nil {
		a.logger.Error("Failed to determine strategy: %v", err)
		return nil, nil
	}

	result := a.ExecuteStrategy(ctx, strategy, payload.Namespace, payload.PodName)

	success := false
	if result.Success {
		verified, err := a.VerifyHealing(ctx, payload.Namespace, payload.PodName)
		if err != nil {
			a.logger.Warn("Verification failed for %s/%s: %v", payload.Namespace, payload.PodName, err)
		}
		success = verified && err == nil
	}

	response := models.NewHealingCompleteEvent(event.CorrelationID, models.HealingCompletePayload{
		Strategy:   *strategy,
		Success:    success,
		Message:    result.Message,
		PodName:    payload.PodName,
		Namespace:  payload.Namespace,
		ErrorType:  payload.ErrorType,
		Diagnosis:  models.NewDiagnosisSummary(&payload.Hypothesis),
		DurationMs: result.DurationMs,
	})
	return &response, nil
}
