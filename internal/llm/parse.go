package llm

import (
	"encoding/json"
	"strings"

	"github.com/recist-io/recist/internal/models"
)

// extractJSON cuts the model's answer down to the outermost JSON object.
// Models often wrap the object in prose or markdown fences; everything
// before the first '{' and after the last '}' is dropped. Text without
// braces passes through unchanged so the JSON decoder reports it.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

func stringOr(parsed map[string]interface{}, key, fallback string) string {
	if v, ok := parsed[key].(string); ok {
		return v
	}
	return fallback
}

func floatOr(parsed map[string]interface{}, key string, fallback float64) float64 {
	if v, ok := parsed[key].(float64); ok {
		return v
	}
	return fallback
}

func boolOr(parsed map[string]interface{}, key string, fallback bool) bool {
	if v, ok := parsed[key].(bool); ok {
		return v
	}
	return fallback
}

func stringSlice(parsed map[string]interface{}, key string) []string {
	arr, ok := parsed[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// parseDiagnosisResponse decodes the model's diagnosis JSON. Missing fields
// fall back to neutral values; the confidence score arrives on a 0-100
// scale and is normalized to 0-1.
func parseDiagnosisResponse(response string) (*models.LLMDiagnosisResponse, error) {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(extractJSON(response)), &parsed); err != nil {
		return nil, models.NewLLMError("failed to parse diagnosis JSON: %v", err)
	}

	return &models.LLMDiagnosisResponse{
		RootCause:        stringOr(parsed, "root_cause", "Unknown"),
		Confidence:       floatOr(parsed, "confidence", 0) / 100.0,
		Evidence:         stringSlice(parsed, "evidence"),
		Explanation:      stringOr(parsed, "explanation", ""),
		SuggestedActions: stringSlice(parsed, "suggested_actions"),
	}, nil
}

// parseStrategyType maps the free-form strategy name the caller used onto
// the typed constant. Unrecognized names fall back to pod restart.
func parseStrategyType(strategyType string) models.StrategyType {
	switch strings.ToLower(strategyType) {
	case "podrestart", "pod_restart":
		return models.StrategyPodRestart
	case "horizontalscale", "horizontal_scale":
		return models.StrategyHorizontalScale
	case "verticalscale", "vertical_scale":
		return models.StrategyVerticalScale
	case "configupdate", "config_update":
		return models.StrategyConfigUpdate
	case "dependencyrestart", "dependency_restart":
		return models.StrategyDependencyRestart
	case "networkisolation", "network_isolation":
		return models.StrategyNetworkIsolation
	default:
		return models.StrategyPodRestart
	}
}

// parseStrategyEvaluation decodes the model's evaluation JSON. Defaults are
// deliberately permissive: a half risk score, a 30 second estimate, and
// prerequisites assumed met.
func parseStrategyEvaluation(response, strategyType string) (*models.StrategyEvaluation, error) {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(extractJSON(response)), &parsed); err != nil {
		return nil, models.NewLLMError("failed to parse evaluation JSON: %v", err)
	}

	return &models.StrategyEvaluation{
		StrategyType:         parseStrategyType(strategyType),
		SuccessProbability:   floatOr(parsed, "success_probability", 0),
		RiskScore:            floatOr(parsed, "risk_score", 0.5),
		EstimatedTimeSeconds: int64(floatOr(parsed, "estimated_time_seconds", 30)),
		Reasoning:            stringOr(parsed, "reasoning", ""),
		PrerequisitesMet:     boolOr(parsed, "prerequisites_met", true),
	}, nil
}
