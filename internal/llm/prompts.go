package llm

import (
	"fmt"
	"strings"
)

const diagnosisSystemPrompt = `You are an expert Site Reliability Engineer (SRE) analyzing system failures. Your task is to:

1. Analyze the provided logs, metrics, and Kubernetes events
2. Identify the root cause of the issue
3. Provide a confidence score (0-100) for your diagnosis
4. List supporting evidence from the logs

Respond in JSON format:
{
    "root_cause": "Brief description of the root cause",
    "confidence": 85,
    "evidence": ["Evidence line 1", "Evidence line 2"],
    "explanation": "Detailed explanation of the diagnosis",
    "suggested_actions": ["Action 1", "Action 2"]
}`

const strategyEvaluationSystemPrompt = `You are an expert Site Reliability Engineer evaluating healing strategies. Your task is to:

1. Evaluate if the proposed strategy is appropriate for the diagnosed issue
2. Estimate success probability based on the evidence
3. Identify any risks or prerequisites
4. Provide a risk score (0-100)

Respond in JSON format:
{
    "success_probability": 0.85,
    "risk_score": 0.2,
    "estimated_time_seconds": 30,
    "reasoning": "Why this strategy is appropriate",
    "prerequisites_met": true
}`

// maxPromptLogs caps how many log lines make it into the prompt.
const maxPromptLogs = 50

func buildDiagnosisPrompt(req *DiagnosisRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the following issue for pod '%s' in namespace '%s'.\n\n",
		req.PodName, req.Namespace)
	fmt.Fprintf(&b, "Error Type: %s\n\n", req.ErrorType)

	b.WriteString("=== LOGS ===\n")
	for i, log := range req.Logs {
		if i >= maxPromptLogs {
			break
		}
		fmt.Fprintf(&b, "[%d] %s\n", i+1, log)
	}
	b.WriteByte('\n')

	b.WriteString("=== METRICS ===\n")
	for _, metric := range req.Metrics {
		threshold := ""
		if metric.Threshold != nil {
			threshold = fmt.Sprintf(" (threshold: %v)", *metric.Threshold)
		}
		fmt.Fprintf(&b, "%s: %v%s\n", metric.Name, metric.Value, threshold)
	}
	b.WriteByte('\n')

	b.WriteString("=== KUBERNETES EVENTS ===\n")
	for _, event := range req.KubernetesEvents {
		fmt.Fprintf(&b, "- %s\n", event)
	}
	b.WriteByte('\n')

	b.WriteString("Based on the above information, provide your diagnosis in JSON format.")

	return b.String()
}

func buildStrategyEvaluationPrompt(req *StrategyEvaluationRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Evaluate the '%s' strategy for the following issue:\n\n", req.StrategyType)
	fmt.Fprintf(&b, "Diagnosis: %s\n", req.Diagnosis)
	fmt.Fprintf(&b, "Root Cause: %s\n\n", req.RootCause)

	b.WriteString("=== CURRENT METRICS ===\n")
	for _, metric := range req.CurrentMetrics {
		fmt.Fprintf(&b, "%s: %v\n", metric.Name, metric.Value)
	}
	b.WriteByte('\n')

	if req.HistoricalSuccessRate != nil {
		fmt.Fprintf(&b, "Historical success rate for this strategy: %.1f%%\n\n",
			*req.HistoricalSuccessRate*100.0)
	}

	b.WriteString("Evaluate if this strategy is appropriate and provide your assessment in JSON format.")

	return b.String()
}
