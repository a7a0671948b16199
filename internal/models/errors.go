package models

import (
	"errors"
	"fmt"

	"github.com/recist-io/recist/api/v1alpha1"
)

// ValidationError represents malformed input, such as an empty pod name or
// a confidence outside 0 to 1.
type ValidationError struct {
	message string
}

// NewValidationError creates a new validation error
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		message: fmt.Sprintf(format, args...),
	}
}

// Error returns the error message
func (e *ValidationError) Error() string {
	return "Validation error: " + e.message
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// EventBusError represents a failure to move an event between agents, most
// commonly a publish that found no subscribers.
type EventBusError struct {
	message string
}

// NewEventBusError creates a new event bus error
func NewEventBusError(format string, args ...interface{}) *EventBusError {
	return &EventBusError{
		message: fmt.Sprintf(format, args...),
	}
}

// Error returns the error message
func (e *EventBusError) Error() string {
	return "Agent communication error: " + e.message
}

// LLMError represents a failed call to the language model backend.
type LLMError struct {
	message string
}

// NewLLMError creates a new LLM error
func NewLLMError(format string, args ...interface{}) *LLMError {
	return &LLMError{
		message: fmt.Sprintf(format, args...),
	}
}

// Error returns the error message
func (e *LLMError) Error() string {
	return "LLM request failed: " + e.message
}

// DiagnosisError represents failed evidence collection or hypothesis
// generation for an incident.
type DiagnosisError struct {
	message string
}

// NewDiagnosisError creates a new diagnosis error
func NewDiagnosisError(format string, args ...interface{}) *DiagnosisError {
	return &DiagnosisError{
		message: fmt.Sprintf(format, args...),
	}
}

// Error returns the error message
func (e *DiagnosisError) Error() string {
	return "Diagnosis failed: " + e.message
}

// HealingError represents a failed remediation action.
type HealingError struct {
	message string
}

// NewHealingError creates a new healing error
func NewHealingError(format string, args ...interface{}) *HealingError {
	return &HealingError{
		message: fmt.Sprintf(format, args...),
	}
}

// Error returns the error message
func (e *HealingError) Error() string {
	return "Healing action failed: " + e.message
}

// PrometheusError represents a failed metrics query.
type PrometheusError struct {
	message string
}

// NewPrometheusError creates a new Prometheus error
func NewPrometheusError(format string, args ...interface{}) *PrometheusError {
	return &PrometheusError{
		message: fmt.Sprintf(format, args...),
	}
}

// Error returns the error message
func (e *PrometheusError) Error() string {
	return "Prometheus query failed: " + e.message
}

// LokiError represents a failed log query.
type LokiError struct {
	message string
}

// NewLokiError creates a new Loki error
func NewLokiError(format string, args ...interface{}) *LokiError {
	return &LokiError{
		message: fmt.Sprintf(format, args...),
	}
}

// Error returns the error message
func (e *LokiError) Error() string {
	return "Loki query failed: " + e.message
}

// QdrantError represents a failed vector store operation.
type QdrantError struct {
	message string
}

// NewQdrantError creates a new Qdrant error
func NewQdrantError(format string, args ...interface{}) *QdrantError {
	return &QdrantError{
		message: fmt.Sprintf(format, args...),
	}
}

// Error returns the error message
func (e *QdrantError) Error() string {
	return "Vector database error: " + e.message
}

// TimeoutError represents an operation that exceeded its deadline.
type TimeoutError struct {
	message string
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(format string, args ...interface{}) *TimeoutError {
	return &TimeoutError{
		message: fmt.Sprintf(format, args...),
	}
}

// Error returns the error message
func (e *TimeoutError) Error() string {
	return "Timeout: " + e.message
}

// NotFoundError represents a missing domain resource. Kubernetes object
// lookups report absence through apierrors.IsNotFound instead.
type NotFoundError struct {
	Resource string
	Name     string
}

// Error returns the error message
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Resource not found: %s %q", e.Resource, e.Name)
}

// IsNotFound checks if an error is a domain not-found error
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// StateTransitionError represents an attempt to move a healing pipeline to
// a phase the state machine does not allow.
type StateTransitionError struct {
	From v1alpha1.HealingPhase
	To   v1alpha1.HealingPhase
}

// Error returns the error message
func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("Invalid state transition from %q to %q", e.From, e.To)
}
