// Package lifecycle orchestrates startup and shutdown of the operator's
// long-lived pieces. Components declare what they depend on at registration;
// the manager guarantees dependencies start first and stop last.
package lifecycle

import "context"

// Component is anything the manager can bring up and tear down. Implemented
// by the agent runners, the metrics server, the tracing provider, the config
// watcher, and the controller-manager adapter.
type Component interface {
	// Start brings the component up. Long-running work belongs on the
	// component's own goroutines; Start should return once the component
	// is usable. Calling Start on a started component must be harmless.
	Start(ctx context.Context) error

	// Stop shuts the component down, finishing in-flight work within the
	// context deadline. A Stop error is logged by the manager but never
	// prevents the remaining components from stopping.
	Stop(ctx context.Context) error

	// Name identifies the component in logs and dependency declarations.
	// Must be non-empty.
	Name() string
}
