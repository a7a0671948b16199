package models

import (
	"time"

	"github.com/google/uuid"
)

// AgentEventType represents the kind of message exchanged between agents
type AgentEventType string

const (
	// EventFaultDetected announces a cluster of unhealthy pods
	EventFaultDetected AgentEventType = "FaultDetected"
	// EventContainmentComplete announces that a pod was isolated, or that
	// isolation was skipped
	EventContainmentComplete AgentEventType = "ContainmentComplete"
	// EventDiagnosisComplete carries the accepted hypothesis
	EventDiagnosisComplete AgentEventType = "DiagnosisComplete"
	// EventHealingComplete carries the executed strategy and its outcome
	EventHealingComplete AgentEventType = "HealingComplete"
	// EventKnowledgeUpdated announces a recorded incident
	EventKnowledgeUpdated AgentEventType = "KnowledgeUpdated"
	// EventProactiveWarning predicts a fault before thresholds trip
	EventProactiveWarning AgentEventType = "ProactiveWarning"
)

// AgentType identifies the publisher of an event
type AgentType string

const (
	AgentContainment   AgentType = "Containment"
	AgentDiagnosis     AgentType = "Diagnosis"
	AgentMetaCognitive AgentType = "MetaCognitive"
	AgentKnowledge     AgentType = "Knowledge"
	AgentController    AgentType = "Controller"
)

// AgentEvent is one message on the agent bus. Payload holds the typed
// payload struct for the event type.
type AgentEvent struct {
	ID            string         `json:"id"`
	EventType     AgentEventType `json:"event_type"`
	Timestamp     time.Time      `json:"timestamp"`
	SourceAgent   AgentType      `json:"source_agent"`
	CorrelationID string         `json:"correlation_id"`
	Payload       interface{}    `json:"payload"`
}

// NewAgentEvent assembles an event with a fresh ID and timestamp. The
// correlation ID ties all events of one incident together.
func NewAgentEvent(eventType AgentEventType, sourceAgent AgentType, correlationID string, payload interface{}) AgentEvent {
	return AgentEvent{
		ID:            uuid.NewString(),
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
		SourceAgent:   sourceAgent,
		CorrelationID: correlationID,
		Payload:       payload,
	}
}

// Validate checks that the event is well-formed enough to publish
func (e *AgentEvent) Validate() error {
	if e.EventType == "" {
		return NewValidationError("event type must not be empty")
	}
	if e.SourceAgent == "" {
		return NewValidationError("source agent must not be empty")
	}
	if e.CorrelationID == "" {
		return NewValidationError("correlation id must not be empty")
	}
	return nil
}

// FaultDetectedPayload rides a FaultDetected event.
type FaultDetectedPayload struct {
	FaultCluster FaultCluster `json:"fault_cluster"`
}

// ContainmentCompletePayload rides a ContainmentComplete event.
type ContainmentCompletePayload struct {
	PodName   string `json:"pod_name"`
	Namespace string `json:"namespace"`
	Isolated  bool   `json:"isolated"`
	// IsolationMethod is set only when the pod was actually isolated.
	IsolationMethod string `json:"isolation_method,omitempty"`
}

// DiagnosisCompletePayload rides a DiagnosisComplete event. It names the
// diagnosed pod so downstream agents never have to guess the target.
type DiagnosisCompletePayload struct {
	Hypothesis DiagnosisHypothesis `json:"hypothesis"`
	PodName    string              `json:"pod_name"`
	Namespace  string              `json:"namespace"`
	// ErrorType is the primary trigger reason of the diagnosed fault.
	ErrorType string `json:"error_type"`
}

// HealingCompletePayload rides a HealingComplete event. It carries enough of
// the incident for the knowledge agent to record it without re-querying.
type HealingCompletePayload struct {
	Strategy   SolutionStrategy `json:"strategy"`
	Success    bool             `json:"success"`
	Message    string           `json:"message"`
	PodName    string           `json:"pod_name"`
	Namespace  string           `json:"namespace"`
	ErrorType  string           `json:"error_type"`
	Diagnosis  DiagnosisSummary `json:"diagnosis"`
	DurationMs int64            `json:"duration_ms"`
}

// KnowledgeUpdatedPayload rides a KnowledgeUpdated event.
type KnowledgeUpdatedPayload struct {
	Entry KnowledgeEntry `json:"entry"`
}

// ProactiveWarningPayload rides a ProactiveWarning event.
type ProactiveWarningPayload struct {
	Namespace       string  `json:"namespace"`
	PodName         string  `json:"pod_name,omitempty"`
	WarningType     string  `json:"warning_type"`
	Message         string  `json:"message"`
	SuggestedAction string  `json:"suggested_action,omitempty"`
	Confidence      float64 `json:"confidence"`
}

// NewFaultDetectedEvent announces a detection sweep's findings.
func NewFaultDetectedEvent(correlationID string, cluster FaultCluster) AgentEvent {
	return NewAgentEvent(EventFaultDetected, AgentContainment, correlationID,
		FaultDetectedPayload{FaultCluster: cluster})
}

// NewContainmentCompleteEvent reports whether a pod ended up isolated.
func NewContainmentCompleteEvent(correlationID, podName, namespace string, isolated bool) AgentEvent {
	payload := ContainmentCompletePayload{
		PodName:   podName,
		Namespace: namespace,
		Isolated:  isolated,
	}
	if isolated {
		payload.IsolationMethod = "NetworkPolicy"
	}
	return NewAgentEvent(EventContainmentComplete, AgentContainment, correlationID, payload)
}

// NewDiagnosisCompleteEvent publishes the accepted hypothesis for a pod.
func NewDiagnosisCompleteEvent(correlationID string, hypothesis DiagnosisHypothesis, podName, namespace, errorType string) AgentEvent {
	return NewAgentEvent(EventDiagnosisComplete, AgentDiagnosis, correlationID,
		DiagnosisCompletePayload{Hypothesis: hypothesis, PodName: podName, Namespace: namespace, ErrorType: errorType})
}

// NewHealingCompleteEvent reports the executed strategy and its verdict.
func NewHealingCompleteEvent(correlationID string, payload HealingCompletePayload) AgentEvent {
	return NewAgentEvent(EventHealingComplete, AgentMetaCognitive, correlationID, payload)
}

// NewKnowledgeUpdatedEvent announces that an incident was recorded.
func NewKnowledgeUpdatedEvent(correlationID string, entry KnowledgeEntry) AgentEvent {
	return NewAgentEvent(EventKnowledgeUpdated, AgentKnowledge, correlationID, KnowledgeUpdatedPayload{Entry: entry})
}

// NewProactiveWarningEvent predicts a threshold breach before it happens.
func NewProactiveWarningEvent(correlationID string, payload ProactiveWarningPayload) AgentEvent {
	return NewAgentEvent(EventProactiveWarning, AgentKnowledge, correlationID, payload)
}
