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
	"github.com/recist-io/recist/internal/metrics"
	"github.com/recist-io/recist/internal/models"
)

const (
	// eventAdvanceInterval paces the pipeline: one phase per tick.
	eventAdvanceInterval = 5 * time.Second

	// eventErrorRetry is the fixed requeue delay after a failed pass.
	eventErrorRetry = 30 * time.Second
)

// HealingEventReconciler walks each HealingEvent through the pipeline
// phases, one transition per reconciliation. Terminal events are left
// untouched until something external changes them. StartTime is stamped on
// the first transition, EndTime and DurationMs on reaching a terminal phase.
type HealingEventReconciler struct {
	client.Client

	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewHealingEventReconciler returns a reconciler backed by the given client.
func NewHealingEventReconciler(c client.Client, m *metrics.Metrics) *HealingEventReconciler {
	return &HealingEventReconciler{
		Client:  c,
		metrics: m,
		logger:  logging.GetLogger("controller.healingevent"),
	}
}

// +kubebuilder:rbac:groups=recist.io,resources=healingevents,verbs=get;list;watch
// +kubebuilder:rbac:groups=recist.io,resources=healingevents/status,verbs=get;update;patch

// Reconcile advances the event one phase and merge-patches the status
// subresource. A status carrying a phase outside the pipeline is refused as
// an invalid transition. Failures are logged and retried on a fixed delay.
func (r *HealingEventReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	event := &v1alpha1.HealingEvent{}
	if err := r.Get(ctx, req.NamespacedName, event); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		r.logger.Error("failed to fetch healing event %s: %v", req.NamespacedName, err)
		return ctrl.Result{RequeueAfter: eventErrorRetry}, nil
	}

	phase := event.Status.Phase
	if phase == "" {
		phase = v1alpha1.PhasePending
	}
	if phase.IsTerminal() {
		return ctrl.Result{}, nil
	}

	next, ok := models.NextPhase(phase)
	if !ok || !models.ValidTransition(phase, next) {
		stErr := &models.StateTransitionError{From: phase, To: next}
		r.logger.Error("refusing to advance healing event %s: %v", req.NamespacedName, stErr)
		return ctrl.Result{RequeueAfter: eventErrorRetry}, nil
	}

	persisted := event.DeepCopy()
	now := metav1.Now()

	event.Status.Phase = next
	if event.Status.StartTime == nil {
		event.Status.StartTime = &now
	}
	if next.IsTerminal() {
		event.Status.EndTime = &now
		duration := event.Status.EndTime.Sub(event.Status.StartTime.Time).Milliseconds()
		event.Status.DurationMs = &duration
	}

	if err := r.Status().Patch(ctx, event, client.MergeFrom(persisted)); err != nil {
		r.logger.Error("failed to patch status for healing event %s: %v", req.NamespacedName, err)
		return ctrl.Result{RequeueAfter: eventErrorRetry}, nil
	}

	r.metrics.HealingPhaseTotal.WithLabelValues(string(next)).Inc()
	if next.IsTerminal() {
		outcome := "failure"
		if next == v1alpha1.PhaseCompleted {
			outcome = "success"
		}
		r.metrics.HealingOutcomes.WithLabelValues(outcome).Inc()
		r.logger.InfoWithFields("healing event finished",
			logging.Field("healing_event", req.NamespacedName.String()),
			logging.Field("phase", string(next)),
			logging.Field("duration_ms", *event.Status.DurationMs),
		)
	} else {
		r.logger.DebugWithFields("healing event advanced",
			logging.Field("healing_event", req.NamespacedName.String()),
			logging.Field("from", string(phase)),
			logging.Field("to", string(next)),
		)
	}

	return ctrl.Result{RequeueAfter: eventAdvanceInterval}, nil
}

// SetupWithManager registers the reconciler for cluster-wide healing event
// watches.
func (r *HealingEventReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		Named("healingevent").
		For(&v1alpha1.HealingEvent{}).
		Complete(r)
}
