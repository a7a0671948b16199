package controller

import (
	"context"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/recist-io/recist/api/v1alpha1"
	"github.com/recist-io/recist/internal/logging"
)

const (
	// policyResyncInterval is how often a policy status is refreshed when
	// nothing else changes.
	policyResyncInterval = 300 * time.Second

	// policyErrorRetry is the fixed requeue delay after a failed pass.
	policyErrorRetry = 60 * time.Second
)

// PolicyReconciler keeps each SelfHealingPolicy status current. The healing
// counters are recomputed on every pass from the HealingEvents referencing
// the policy, so deleted or externally edited events never leave the
// counters stale.
type PolicyReconciler struct {
	client.Client

	logger *logging.Logger
}

// NewPolicyReconciler returns a reconciler backed by the given client.
func NewPolicyReconciler(c client.Client) *PolicyReconciler {
	return &PolicyReconciler{
		Client: c,
		logger: logging.GetLogger("controller.policy"),
	}
}

// +kubebuilder:rbac:groups=recist.io,resources=selfhealingpolicies,verbs=get;list;watch
// +kubebuilder:rbac:groups=recist.io,resources=selfhealingpolicies/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=recist.io,resources=healingevents,verbs=get;list;watch

// Reconcile recomputes the policy status and merge-patches the status
// subresource. Failures are logged and retried on a fixed delay rather than
// handed to the workqueue backoff.
func (r *PolicyReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	policy := &v1alpha1.SelfHealingPolicy{}
	if err := r.Get(ctx, req.NamespacedName, policy); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		r.logger.Error("failed to fetch policy %s: %v", req.NamespacedName, err)
		return ctrl.Result{RequeueAfter: policyErrorRetry}, nil
	}

	persisted := policy.DeepCopy()

	status, err := r.observedStatus(ctx, policy)
	if err != nil {
		r.logger.Error("failed to compute status for policy %s: %v", req.NamespacedName, err)
		return ctrl.Result{RequeueAfter: policyErrorRetry}, nil
	}
	policy.Status = status

	if err := r.Status().Patch(ctx, policy, client.MergeFrom(persisted)); err != nil {
		r.logger.Error("failed to patch status for policy %s: %v", req.NamespacedName, err)
		return ctrl.Result{RequeueAfter: policyErrorRetry}, nil
	}

	r.logger.DebugWithFields("policy reconciled",
		logging.Field("policy", req.NamespacedName.String()),
		logging.Field("active_healings", status.ActiveHealings),
		logging.Field("total_healings", status.TotalHealings),
	)
	return ctrl.Result{RequeueAfter: policyResyncInterval}, nil
}

// observedStatus rebuilds the policy status from every HealingEvent whose
// policyRef names this policy, in any namespace. Events without a terminal
// phase count as active; LastHealingTime is the newest terminal EndTime.
func (r *PolicyReconciler) observedStatus(ctx context.Context, policy *v1alpha1.SelfHealingPolicy) (v1alpha1.SelfHealingPolicyStatus, error) {
	events := &v1alpha1.HealingEventList{}
	if err := r.List(ctx, events); err != nil {
		return v1alpha1.SelfHealingPolicyStatus{}, err
	}

	status := v1alpha1.SelfHealingPolicyStatus{
		ObservedGeneration: policy.Generation,
		Conditions: []v1alpha1.PolicyCondition{{
			ConditionType:      "Ready",
			Status:             "True",
			LastTransitionTime: metav1.Now(),
			Reason:             "Reconciled",
			Message:            "Policy is ready and monitoring",
		}},
	}

	for i := range events.Items {
		event := &events.Items[i]
		if event.Spec.PolicyRef != policy.Name {
			continue
		}
		status.TotalHealings++
		if !event.Status.Phase.IsTerminal() {
			status.ActiveHealings++
			continue
		}
		if event.Status.Phase == v1alpha1.PhaseCompleted {
			status.SuccessfulHealings++
		}
		if event.Status.EndTime != nil &&
			(status.LastHealingTime == nil || event.Status.EndTime.After(status.LastHealingTime.Time)) {
			status.LastHealingTime = event.Status.EndTime
		}
	}

	return status, nil
}

// SetupWithManager registers the reconciler for cluster-wide policy watches.
func (r *PolicyReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		Named("selfhealingpolicy").
		For(&v1alpha1.SelfHealingPolicy{}).
		Complete(r)
}
