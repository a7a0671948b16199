// Package v1alpha1 contains the API schema definitions for the recist.io
// v1alpha1 API group: SelfHealingPolicy configures what the operator watches
// and how it may remediate, HealingEvent records one healing pipeline run.
// +kubebuilder:object:generate=true
// +groupName=recist.io
package v1alpha1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/scheme"
)

var (
	// GroupVersion is the group version used to register these objects.
	GroupVersion = schema.GroupVersion{Group: "recist.io", Version: "v1alpha1"}

	// SchemeBuilder is used to add go types to the GroupVersionKind scheme.
	SchemeBuilder = &scheme.Builder{GroupVersion: GroupVersion}

	// AddToScheme adds the types in this group-version to the given scheme.
	AddToScheme = SchemeBuilder.AddToScheme
)
