package models

import (
	"time"
)

// EvidenceSource tells where a piece of evidence came from.
type EvidenceSource string

const (
	EvidenceLog              EvidenceSource = "Log"
	EvidenceMetric           EvidenceSource = "Metric"
	EvidenceKubernetesEvent  EvidenceSource = "KubernetesEvent"
	EvidenceTraceSpan        EvidenceSource = "TraceSpan"
	EvidencePreviousIncident EvidenceSource = "PreviousIncident"
)

// Evidence is one observation supporting a hypothesis.
type Evidence struct {
	Source         EvidenceSource `json:"source"`
	Content        string         `json:"content"`
	Timestamp      time.Time      `json:"timestamp"`
	RelevanceScore float64        `json:"relevance_score"`
}

// DiagnosisHypothesis is a candidate explanation for an incident, scored by
// the language model and backed by collected evidence.
type DiagnosisHypothesis struct {
	Hypothesis string     `json:"hypothesis"`
	Confidence float64    `json:"confidence"`
	RootCause  string     `json:"root_cause"`
	Evidence   []Evidence `json:"evidence"`
	CausalTree CausalTree `json:"causal_tree"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewDiagnosisHypothesis creates a hypothesis with an empty causal tree.
func NewDiagnosisHypothesis(hypothesis string, confidence float64, rootCause string) *DiagnosisHypothesis {
	return &DiagnosisHypothesis{
		Hypothesis: hypothesis,
		Confidence: confidence,
		RootCause:  rootCause,
		Evidence:   []Evidence{},
		CausalTree: NewCausalTree(),
		CreatedAt:  time.Now().UTC(),
	}
}

// AddEvidence appends one observation.
func (h *DiagnosisHypothesis) AddEvidence(e Evidence) {
	h.Evidence = append(h.Evidence, e)
}

// MeetsThreshold reports whether the hypothesis is confident enough to act
// on.
func (h *DiagnosisHypothesis) MeetsThreshold(threshold float64) bool {
	return h.Confidence >= threshold
}

// CausalNodeKind classifies a node in the causal tree.
type CausalNodeKind string

const (
	CausalError     CausalNodeKind = "Error"
	CausalWarning   CausalNodeKind = "Warning"
	CausalInfo      CausalNodeKind = "Info"
	CausalSymptom   CausalNodeKind = "Symptom"
	CausalRootCause CausalNodeKind = "RootCause"
	CausalMetric    CausalNodeKind = "Metric"
	CausalEvent     CausalNodeKind = "Event"
)

// CausalRelation labels an edge in the causal tree.
type CausalRelation string

const (
	RelationCauses     CausalRelation = "Causes"
	RelationPrecedes   CausalRelation = "Precedes"
	RelationCorrelates CausalRelation = "Correlates"
	RelationTriggers   CausalRelation = "Triggers"
	RelationDependsOn  CausalRelation = "DependsOn"
)

// CausalNode is one observation in the causal tree.
type CausalNode struct {
	ID          string            `json:"id"`
	NodeType    CausalNodeKind    `json:"node_type"`
	Description string            `json:"description"`
	Timestamp   time.Time         `json:"timestamp"`
	Source      string            `json:"source"`
	Severity    string            `json:"severity,omitempty"`
	Metadata    map[string]string `json:"metadata"`
}

// NewCausalNode creates a node stamped with the current time.
func NewCausalNode(id string, nodeType CausalNodeKind, description, source string) CausalNode {
	return CausalNode{
		ID:          id,
		NodeType:    nodeType,
		Description: description,
		Timestamp:   time.Now().UTC(),
		Source:      source,
		Metadata:    make(map[string]string),
	}
}

// CausalEdge relates two nodes in the causal tree.
type CausalEdge struct {
	FromNodeID string         `json:"from_node_id"`
	ToNodeID   string         `json:"to_node_id"`
	Relation   CausalRelation `json:"relation"`
	Confidence *float64       `json:"confidence,omitempty"`
}

// CausalTree is the evidence graph assembled during diagnosis. Nodes are
// keyed by ID, edges point from cause toward effect.
type CausalTree struct {
	Nodes      map[string]CausalNode `json:"nodes"`
	Edges      []CausalEdge          `json:"edges"`
	RootNodeID string                `json:"root_node_id,omitempty"`
}

// NewCausalTree creates an empty tree.
func NewCausalTree() CausalTree {
	return CausalTree{
		Nodes: make(map[string]CausalNode),
		Edges: []CausalEdge{},
	}
}

// AddNode inserts or replaces a node, keyed by its ID.
func (t *CausalTree) AddNode(node CausalNode) {
	t.Nodes[node.ID] = node
}

// AddEdge relates two nodes by ID. The edge carries no confidence until a
// later pass scores it.
func (t *CausalTree) AddEdge(from, to string, relation CausalRelation) {
	t.Edges = append(t.Edges, CausalEdge{
		FromNodeID: from,
		ToNodeID:   to,
		Relation:   relation,
	})
}

// SetRoot marks the node the chain walk starts from.
func (t *CausalTree) SetRoot(nodeID string) {
	t.RootNodeID = nodeID
}

// RootCauseChain walks the tree depth first from the root, following edges
// in insertion order, and returns every reachable node. Empty when no root
// is set.
func (t *CausalTree) RootCauseChain() []CausalNode {
	var chain []CausalNode
	if t.RootNodeID == "" {
		return chain
	}
	visited := make(map[string]bool)
	t.collectChain(t.RootNodeID, visited, &chain)
	return chain
}

func (t *CausalTree) collectChain(nodeID string, visited map[string]bool, chain *[]CausalNode) {
	if visited[nodeID] {
		return
	}
	visited[nodeID] = true
	node, ok := t.Nodes[nodeID]
	if !ok {
		return
	}
	*chain = append(*chain, node)
	for _, edge := range t.Edges {
		if edge.FromNodeID == nodeID {
			t.collectChain(edge.ToNodeID, visited, chain)
		}
	}
}

// LogLevel grades a structured log line.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
	LogLevelFatal LogLevel = "FATAL"
)

// StructuredLog is one parsed log line from the log store.
type StructuredLog struct {
	Timestamp     time.Time         `json:"timestamp"`
	Level         LogLevel          `json:"level"`
	Source        string            `json:"source"`
	Message       string            `json:"message"`
	PodName       string            `json:"pod_name"`
	Namespace     string            `json:"namespace"`
	ContainerName string            `json:"container_name,omitempty"`
	Labels        map[string]string `json:"labels"`
	StackTrace    string            `json:"stack_trace,omitempty"`
}

// LogAnalysisRequest bundles the evidence handed to the language model for
// one diagnosis.
type LogAnalysisRequest struct {
	Logs             []StructuredLog    `json:"logs"`
	Metrics          map[string]float64 `json:"metrics"`
	KubernetesEvents []string           `json:"kubernetes_events"`
	PodName          string             `json:"pod_name"`
	Namespace        string             `json:"namespace"`
	LookbackMinutes  int64              `json:"lookback_minutes"`
}

// LLMDiagnosisResponse is the JSON document the diagnosis prompt instructs
// the model to return. Confidence arrives on a 0 to 100 scale.
type LLMDiagnosisResponse struct {
	RootCause        string   `json:"root_cause"`
	Confidence       float64  `json:"confidence"`
	Evidence         []string `json:"evidence"`
	Explanation      string   `json:"explanation"`
	SuggestedActions []string `json:"suggested_actions"`
}
