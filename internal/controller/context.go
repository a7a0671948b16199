// Package controller hosts the reconcilers behind the two custom resource
// kinds. The policy reconciler keeps SelfHealingPolicy statuses in step with
// the healing activity recorded against each policy; the healing event
// reconciler walks every HealingEvent one phase forward per tick until it
// reaches Completed or Failed. Both watch cluster-wide and patch only the
// status subresource.
package controller

import (
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/recist-io/recist/api/v1alpha1"
	"github.com/recist-io/recist/internal/metrics"
)

// NewScheme returns a runtime scheme holding the built-in Kubernetes types
// and the recist.io group.
func NewScheme() (*runtime.Scheme, error) {
	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		return nil, fmt.Errorf("failed to register built-in types: %w", err)
	}
	if err := v1alpha1.AddToScheme(scheme); err != nil {
		return nil, fmt.Errorf("failed to register %s types: %w", v1alpha1.GroupVersion, err)
	}
	return scheme, nil
}

// RegisterAll wires both reconcilers into the manager.
func RegisterAll(mgr ctrl.Manager, m *metrics.Metrics) error {
	if err := NewPolicyReconciler(mgr.GetClient()).SetupWithManager(mgr); err != nil {
		return fmt.Errorf("failed to set up policy reconciler: %w", err)
	}
	if err := NewHealingEventReconciler(mgr.GetClient(), m).SetupWithManager(mgr); err != nil {
		return fmt.Errorf("failed to set up healing event reconciler: %w", err)
	}
	return nil
}
