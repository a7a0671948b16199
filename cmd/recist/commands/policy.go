package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/recist-io/recist/api/v1alpha1"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Work with SelfHealingPolicy manifests",
}

var policyLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate a SelfHealingPolicy manifest offline",
	Long: `Parse a SelfHealingPolicy manifest, apply the schema defaults, and report
everything an admission pass would reject. Nothing is sent to a cluster.

Examples:
  recist policy lint -f policy.yaml
`,
	RunE: runPolicyLint,
}

var policyLintFile string

func init() {
	policyCmd.AddCommand(policyLintCmd)

	policyLintCmd.Flags().StringVarP(&policyLintFile, "filename", "f", "",
		"Path to the manifest (YAML)")
	_ = policyLintCmd.MarkFlagRequired("filename")
}

func runPolicyLint(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(policyLintFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", policyLintFile, err)
	}

	var policy v1alpha1.SelfHealingPolicy
	if err := yaml.UnmarshalStrict(raw, &policy); err != nil {
		return fmt.Errorf("failed to parse %s: %w", policyLintFile, err)
	}

	problems := lintPolicy(&policy)
	if len(problems) > 0 {
		for _, problem := range problems {
			fmt.Fprintf(os.Stderr, "%s: %s\n", policyLintFile, problem)
		}
		return fmt.Errorf("%d problem(s) found", len(problems))
	}

	fmt.Printf("%s: SelfHealingPolicy %q is valid\n", policyLintFile, policy.Name)
	return nil
}

// lintPolicy checks one manifest after applying the schema defaults, so a
// field left to its default never reports.
func lintPolicy(policy *v1alpha1.SelfHealingPolicy) []string {
	var problems []string

	if policy.APIVersion != "" && policy.APIVersion != v1alpha1.GroupVersion.String() {
		problems = append(problems, fmt.Sprintf("apiVersion is %q, want %q",
			policy.APIVersion, v1alpha1.GroupVersion.String()))
	}
	if policy.Kind != "" && policy.Kind != "SelfHealingPolicy" {
		problems = append(problems, fmt.Sprintf("kind is %q, want \"SelfHealingPolicy\"", policy.Kind))
	}
	if policy.Name == "" {
		problems = append(problems, "metadata.name is required")
	}

	spec := policy.Spec.DeepCopy()
	spec.SetDefaults()

	if len(spec.TargetNamespaces) == 0 {
		problems = append(problems, "spec.targetNamespaces is empty; the policy matches nothing")
	}

	switch spec.LLM.Provider {
	case v1alpha1.ProviderClaude, v1alpha1.ProviderOpenAI, v1alpha1.ProviderGemini:
		if spec.LLM.APIKeySecret == "" {
			problems = append(problems, fmt.Sprintf(
				"spec.llmConfig.apiKeySecret is required for provider %q", spec.LLM.Provider))
		}
	case v1alpha1.ProviderOllama:
	case "":
		problems = append(problems, "spec.llmConfig.provider is required (claude, openai, gemini, or ollama)")
	default:
		problems = append(problems, fmt.Sprintf(
			"spec.llmConfig.provider %q is not one of claude, openai, gemini, ollama", spec.LLM.Provider))
	}
	if spec.LLM.Model == "" {
		problems = append(problems, "spec.llmConfig.model is required")
	}

	for _, action := range spec.AllowedActions {
		switch action {
		case v1alpha1.AllowedActionRestart, v1alpha1.AllowedActionScale,
			v1alpha1.AllowedActionUpdateConfig, v1alpha1.AllowedActionUpdateResources,
			v1alpha1.AllowedActionIsolate:
		default:
			problems = append(problems, fmt.Sprintf(
				"spec.allowedActions entry %q is not a known action", action))
		}
	}

	problems = append(problems, lintRatio("spec.thresholds.cpu", spec.Thresholds.CPU)...)
	problems = append(problems, lintRatio("spec.thresholds.memory", spec.Thresholds.Memory)...)
	problems = append(problems, lintRatio("spec.thresholds.errorRate", spec.Thresholds.ErrorRate)...)
	if spec.Thresholds.LatencyMs <= 0 {
		problems = append(problems, fmt.Sprintf(
			"spec.thresholds.latencyMs must be positive, got %d", spec.Thresholds.LatencyMs))
	}

	switch spec.Containment.IsolationStrategy {
	case v1alpha1.IsolationSoft, v1alpha1.IsolationHard, v1alpha1.IsolationAuto:
	default:
		problems = append(problems, fmt.Sprintf(
			"spec.containmentConfig.isolationStrategy %q is not one of soft, hard, auto",
			spec.Containment.IsolationStrategy))
	}
	problems = append(problems, lintRatio("spec.containmentConfig.neighborCapacityThreshold",
		spec.Containment.NeighborCapacityThreshold)...)
	problems = append(problems, lintRatio("spec.diagnosisConfig.confidenceThreshold",
		spec.Diagnosis.ConfidenceThreshold)...)
	problems = append(problems, lintRatio("spec.metacognitiveConfig.decisionThreshold",
		spec.MetaCognitive.DecisionThreshold)...)
	problems = append(problems, lintRatio("spec.knowledgeConfig.similarityThreshold",
		spec.Knowledge.SimilarityThreshold)...)

	if spec.Notifications != nil && spec.Notifications.Enabled &&
		spec.Notifications.SlackWebhook == "" && spec.Notifications.Email == "" &&
		spec.Notifications.PagerdutyKey == "" {
		problems = append(problems, "spec.notifications is enabled but no channel is configured")
	}

	return problems
}

// lintRatio flags values outside (0, 1].
func lintRatio(field string, value float64) []string {
	if value <= 0 || value > 1 {
		return []string{fmt.Sprintf("%s must be in (0, 1], got %v", field, value)}
	}
	return nil
}
