package commands

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"k8s.io/client-go/kubernetes"
	ctrl "sigs.k8s.io/controller-runtime"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"github.com/recist-io/recist/api/v1alpha1"
	"github.com/recist-io/recist/internal/agents"
	"github.com/recist-io/recist/internal/clients"
	"github.com/recist-io/recist/internal/config"
	"github.com/recist-io/recist/internal/controller"
	"github.com/recist-io/recist/internal/eventbus"
	"github.com/recist-io/recist/internal/lifecycle"
	"github.com/recist-io/recist/internal/llm"
	"github.com/recist-io/recist/internal/logging"
	"github.com/recist-io/recist/internal/metrics"
	"github.com/recist-io/recist/internal/tracing"
)

var operatorCmd = &cobra.Command{
	Use:   "operator",
	Short: "Run the self-healing operator",
	Long: `Run the operator process: the four healing agents, the event bus, the
SelfHealingPolicy and HealingEvent reconcilers, and the metrics endpoint.

The language model API key is read from the LLM_API_KEY environment
variable. The ollama backend needs no key.

Examples:
  # Run against the current kubeconfig context with a local Ollama
  recist operator --watch-namespaces default

  # Run with Claude and a config file
  LLM_API_KEY=... recist operator --config /etc/recist/config.yaml \
    --llm-provider claude --llm-model claude-sonnet-4-20250514 \
    --watch-namespaces prod,staging
`,
	Run: runOperator,
}

var (
	operatorKubeconfig         string
	operatorConfigFile         string
	operatorNamespace          string
	operatorWatchNamespaces    []string
	operatorMetricsPort        int
	operatorLLMProvider        string
	operatorLLMModel           string
	operatorLLMBaseURL         string
	operatorLLMTimeout         int
	operatorTracingEnabled     bool
	operatorTracingEndpoint    string
	operatorTracingTLSCA       string
	operatorTracingTLSInsecure bool
)

// minClusterVersion is the oldest Kubernetes release the isolation and
// remediation paths are exercised against.
var minClusterVersion = goversion.Must(goversion.NewVersion("1.25.0"))

// embeddingCacheSize bounds the memoized embeddings kept in memory.
const embeddingCacheSize = 512

func init() {
	operatorCmd.Flags().StringVar(&operatorKubeconfig, "kubeconfig", "",
		"Path to a kubeconfig file (defaults to in-cluster config, then $HOME/.kube/config)")
	operatorCmd.Flags().StringVar(&operatorConfigFile, "config", "",
		"Path to the operator config file (YAML)")
	operatorCmd.Flags().StringVar(&operatorNamespace, "namespace", "",
		"Namespace the operator stores knowledge under (overrides config)")
	operatorCmd.Flags().StringSliceVar(&operatorWatchNamespaces, "watch-namespaces", nil,
		"Namespaces the containment agent sweeps for faults")
	operatorCmd.Flags().IntVar(&operatorMetricsPort, "metrics-port", 0,
		"Port for the /metrics endpoint (overrides config)")

	// Language model flags
	operatorCmd.Flags().StringVar(&operatorLLMProvider, "llm-provider", "ollama",
		"Language model backend: claude, openai, gemini, or ollama")
	operatorCmd.Flags().StringVar(&operatorLLMModel, "llm-model", "llama3",
		"Model name for the language model backend")
	operatorCmd.Flags().StringVar(&operatorLLMBaseURL, "llm-base-url", "",
		"Base URL override for the openai and ollama backends")
	operatorCmd.Flags().IntVar(&operatorLLMTimeout, "llm-timeout", v1alpha1.DefaultLLMTimeoutSeconds,
		"Language model request timeout in seconds")

	// Tracing flags
	operatorCmd.Flags().BoolVar(&operatorTracingEnabled, "tracing-enabled", false,
		"Enable OpenTelemetry tracing")
	operatorCmd.Flags().StringVar(&operatorTracingEndpoint, "tracing-endpoint", "",
		"OTLP gRPC endpoint for traces (implies --tracing-enabled)")
	operatorCmd.Flags().StringVar(&operatorTracingTLSCA, "tracing-tls-ca", "",
		"Path to a CA certificate for the tracing endpoint")
	operatorCmd.Flags().BoolVar(&operatorTracingTLSInsecure, "tracing-tls-insecure", false,
		"Skip TLS verification for the tracing endpoint")
}

func runOperator(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(operatorConfigFile)
	HandleError(err, "Configuration error")

	if operatorNamespace != "" {
		cfg.Namespace = operatorNamespace
	}
	if operatorMetricsPort > 0 {
		cfg.Metrics.Port = operatorMetricsPort
	}
	if operatorTracingEnabled {
		cfg.Tracing.Enabled = true
	}
	if operatorTracingEndpoint != "" {
		cfg.Tracing.Endpoint = operatorTracingEndpoint
		cfg.Tracing.Enabled = true
	}
	if operatorTracingTLSCA != "" {
		cfg.Tracing.TLSCAPath = operatorTracingTLSCA
	}

	// Setup logging. An explicit --log-level wins over the config file.
	logFlags := logLevelFlags
	if !cmd.Flags().Changed("log-level") && cfg.Logging.Level != "" {
		logFlags = []string{cfg.Logging.Level}
	}
	err = setupLog(logFlags)
	HandleError(err, "Failed to setup logging")
	logger := logging.GetLogger("operator")

	logger.Info("Starting ReCiSt v%s", Version)
	logger.Debug("Configuration loaded: Namespace=%s MetricsPort=%d", cfg.Namespace, cfg.Metrics.Port)

	// Kubernetes clients
	restConfig, err := agents.BuildClientConfig(operatorKubeconfig)
	HandleError(err, "Kubernetes client configuration error")
	kube, err := kubernetes.NewForConfig(restConfig)
	HandleError(err, "Kubernetes client error")
	checkClusterVersion(logger, kube)

	manager := lifecycle.NewManager()
	logger.Info("Lifecycle manager created")

	// Reload log levels when the config file changes. Backend endpoints are
	// bound at startup and stay fixed until restart.
	if operatorConfigFile != "" {
		applyLogLevel := !cmd.Flags().Changed("log-level")
		watcher, err := config.NewWatcher(config.WatcherConfig{FilePath: operatorConfigFile},
			func(reloaded *config.AppConfig) error {
				if !applyLogLevel || reloaded.Logging.Level == "" {
					return nil
				}
				return setupLog([]string{reloaded.Logging.Level})
			})
		HandleError(err, "Config watcher error")
		err = manager.Register(watcher)
		HandleError(err, "Config watcher registration error")
	}

	// Initialize tracing provider
	tracingCfg := tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		TLSCAPath:   cfg.Tracing.TLSCAPath,
		TLSInsecure: operatorTracingTLSInsecure,
	}
	tracingProvider, err := tracing.NewTracingProvider(tracingCfg)
	if err != nil {
		logger.Warn("Failed to initialize tracing (continuing without tracing): %v", err)
		tracingProvider = nil
	}
	if tracingProvider != nil {
		err = manager.Register(tracingProvider)
		HandleError(err, "Tracing registration error")
	}

	// Operator metrics and the event bus
	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)
	bus := eventbus.New()
	m.ObserveBus(bus)

	metricsComponent := metrics.NewServer(cfg.Metrics.Port, registry)
	err = manager.Register(metricsComponent)
	HandleError(err, "Metrics server registration error")

	// Backend clients
	prometheusClient := clients.NewPrometheusClient(cfg.Prometheus.URL,
		time.Duration(cfg.Prometheus.TimeoutSeconds)*time.Second)
	lokiClient := clients.NewLokiClient(cfg.Loki.URL,
		time.Duration(cfg.Loki.TimeoutSeconds)*time.Second)
	qdrantClient := clients.NewQdrantClient(cfg.Qdrant.URL, cfg.Qdrant.CollectionName,
		v1alpha1.DefaultEmbeddingDimensions,
		time.Duration(cfg.Qdrant.TimeoutSeconds)*time.Second)
	redisClient, err := clients.NewRedisClient(cfg.Redis.URL,
		time.Duration(cfg.Redis.DefaultTTLSeconds)*time.Second)
	HandleError(err, "Redis client error")
	knowledgeCache := clients.NewKnowledgeCache(redisClient, cfg.Namespace, v1alpha1.DefaultMaxLocalEvents)

	checkBackends(logger, cfg, lokiClient, redisClient, qdrantClient)

	// Language model backend
	apiKey := os.Getenv("LLM_API_KEY")
	provider := v1alpha1.LLMProvider(strings.ToLower(operatorLLMProvider))
	if apiKey == "" && provider != v1alpha1.ProviderOllama {
		logger.Warn("LLM_API_KEY is not set; %s requests will fail until it is provided", provider)
	}
	llmClient, err := llm.New(llm.Config{
		Provider: provider,
		APIKey:   apiKey,
		Model:    operatorLLMModel,
		BaseURL:  operatorLLMBaseURL,
		Timeout:  time.Duration(operatorLLMTimeout) * time.Second,
	})
	HandleError(err, "Language model client error")
	logger.Info("Language model backend: %s (%s)", llmClient.ProviderName(), llmClient.ModelName())

	embedder, err := agents.NewMemoizingEmbedder(llmClient, embeddingCacheSize)
	HandleError(err, "Embedder error")

	// Agents. Tuning fields left zero pick up the schema defaults.
	if len(operatorWatchNamespaces) == 0 {
		logger.Warn("No --watch-namespaces configured; containment sweeps are disabled")
	}
	containmentRunner := agents.NewRunner(agents.NewContainmentAgent(
		kube, prometheusClient, bus, v1alpha1.ContainmentConfig{}, v1alpha1.Thresholds{},
		operatorWatchNamespaces, m), bus, m)
	diagnosisRunner := agents.NewRunner(agents.NewDiagnosisAgent(
		kube, prometheusClient, lokiClient, llmClient, bus, v1alpha1.DiagnosisConfig{}, m), bus, m)
	metaCognitiveRunner := agents.NewRunner(agents.NewMetaCognitiveAgent(
		kube, llmClient, bus, v1alpha1.MetaCognitiveConfig{}, m), bus, m)
	knowledgeRunner := agents.NewRunner(agents.NewKnowledgeAgent(
		qdrantClient, knowledgeCache, embedder, bus, v1alpha1.KnowledgeConfig{}, m), bus, m)

	runners := []*agents.Runner{knowledgeRunner, metaCognitiveRunner, diagnosisRunner, containmentRunner}
	for _, runner := range runners {
		err = manager.Register(runner)
		HandleError(err, "Agent registration error")
	}

	// Reconcilers. The manager's own metrics endpoint stays off; the
	// metrics server component above serves the operator registry.
	ctrl.SetLogger(controller.NewLogr("controller-runtime"))
	scheme, err := controller.NewScheme()
	HandleError(err, "Scheme registration error")
	mgr, err := ctrl.NewManager(restConfig, ctrl.Options{
		Scheme:  scheme,
		Metrics: metricsserver.Options{BindAddress: "0"},
	})
	HandleError(err, "Controller manager error")
	err = controller.RegisterAll(mgr, m)
	HandleError(err, "Controller registration error")

	// Reconcilers come up last so detected faults already have handlers.
	controllerComponent := newControllerComponent(mgr)
	err = manager.Register(controllerComponent,
		knowledgeRunner, metaCognitiveRunner, diagnosisRunner, containmentRunner)
	HandleError(err, "Controller manager registration error")

	logger.Info("All components registered with dependencies")
	ctx, cancel := context.WithCancel(context.Background())
	if err := manager.Start(ctx); err != nil {
		logger.Error("Failed to start components: %v", err)
		HandleError(err, "Startup error")
	}

	logger.Info("Operator started successfully")
	logger.Info("Watching SelfHealingPolicy and HealingEvent resources...")

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	<-sigChan
	logger.Info("Shutdown signal received, gracefully shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := manager.Stop(shutdownCtx); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		logger.Error("Failed to close Redis client: %v", err)
	}

	logger.Info("Shutdown complete")
}

// checkClusterVersion warns when the cluster is older than the supported
// minimum. Failures to read the version never block startup.
func checkClusterVersion(logger *logging.Logger, kube kubernetes.Interface) {
	info, err := kube.Discovery().ServerVersion()
	if err != nil {
		logger.Warn("Could not determine cluster version: %v", err)
		return
	}
	current, err := goversion.NewVersion(strings.TrimPrefix(info.GitVersion, "v"))
	if err != nil {
		logger.Warn("Could not parse cluster version %q: %v", info.GitVersion, err)
		return
	}
	if current.Core().LessThan(minClusterVersion) {
		logger.Warn("Cluster version %s is below the supported minimum v%s", info.GitVersion, minClusterVersion)
		return
	}
	logger.Debug("Cluster version %s", info.GitVersion)
}

// checkBackends probes the observability backends once at startup. The
// operator starts regardless; degraded backends only cost diagnosis depth.
func checkBackends(logger *logging.Logger, cfg *config.AppConfig, loki *clients.LokiClient,
	redis *clients.RedisClient, qdrant *clients.QdrantClient) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if ready, err := loki.HealthCheck(ctx); err != nil {
		logger.Warn("Loki health check failed: %v", err)
	} else if !ready {
		logger.Warn("Loki is not ready at %s", cfg.Loki.URL)
	}

	if _, err := redis.Ping(ctx); err != nil {
		logger.Warn("Redis is not reachable at %s: %v", cfg.Redis.URL, err)
	}

	if err := qdrant.EnsureCollection(ctx); err != nil {
		logger.Warn("Qdrant collection %q is not available: %v", cfg.Qdrant.CollectionName, err)
	} else if info, err := qdrant.GetCollectionInfo(ctx); err == nil {
		logger.Info("Qdrant collection %q ready with %d vectors", info.Name, info.VectorsCount)
	}
}

// controllerComponent adapts the blocking controller-runtime manager to the
// lifecycle.Component contract.
type controllerComponent struct {
	mgr    ctrl.Manager
	logger *logging.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

func newControllerComponent(mgr ctrl.Manager) *controllerComponent {
	return &controllerComponent{
		mgr:    mgr,
		logger: logging.GetLogger("controller"),
		done:   make(chan struct{}),
	}
}

// Name implements the lifecycle.Component interface.
func (c *controllerComponent) Name() string {
	return "Controller Manager"
}

// Start implements the lifecycle.Component interface. The manager blocks in
// Start, so it runs on its own goroutine with a cancel owned by Stop.
func (c *controllerComponent) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go func() {
		defer close(c.done)
		if err := c.mgr.Start(runCtx); err != nil {
			c.logger.Error("Controller manager exited with error: %v", err)
		}
	}()

	c.logger.Info("Controller manager started")
	return nil
}

// Stop implements the lifecycle.Component interface.
func (c *controllerComponent) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	select {
	case <-c.done:
		c.logger.Info("Controller manager stopped")
		return nil
	case <-ctx.Done():
		c.logger.Warn("Controller manager shutdown timeout")
		return ctx.Err()
	}
}
