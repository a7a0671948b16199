// Package agents implements the four cooperating healing agents:
// containment sweeps metrics and isolates faulty pods, diagnosis turns
// evidence into a root-cause hypothesis, the meta-cognitive agent selects
// and executes a remediation strategy, and the knowledge agent records the
// outcome for future incidents. Agents never reference one another; all
// coordination flows through the event bus under a shared correlation id.
package agents

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/recist-io/recist/internal/eventbus"
	"github.com/recist-io/recist/internal/logging"
	"github.com/recist-io/recist/internal/metrics"
	"github.com/recist-io/recist/internal/models"
	"github.com/recist-io/recist/internal/tracing"
)

// EventHandler processes one bus event. A non-nil return value is published
// back onto the bus by the runner.
type EventHandler interface {
	HandleEvent(ctx context.Context, event models.AgentEvent) (*models.AgentEvent, error)
}

// Agent is the contract every healing agent implements. Start and Stop flip
// the agent's cooperative running flag and manage any background loops it
// owns; event delivery is handled by a Runner.
type Agent interface {
	EventHandler

	AgentType() models.AgentType

	// SubscribeTo lists the event types the agent reacts to. The bus
	// delivers every published event, so the runner wraps the receiver in
	// a filter built from this list.
	SubscribeTo() []models.AgentEventType

	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner owns one agent's bus subscription: it pumps events through the
// agent's handler and publishes whatever the handler returns. Runner
// implements lifecycle.Component so agents start and stop with the rest of
// the operator.
type Runner struct {
	agent    Agent
	bus      *eventbus.Bus
	metrics  *metrics.Metrics
	receiver *eventbus.FilteredReceiver
	logger   *logging.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewRunner wires an agent to the bus.
func NewRunner(agent Agent, bus *eventbus.Bus, m *metrics.Metrics) *Runner {
	return &Runner{
		agent:   agent,
		bus:     bus,
		metrics: m,
		logger:  logging.GetLogger("agents"),
	}
}

// Name implements lifecycle.Component.
func (r *Runner) Name() string {
	return "agent-" + strings.ToLower(string(r.agent.AgentType()))
}

// Start starts the agent and begins pumping its subscribed events.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.agent.Start(ctx); err != nil {
		return err
	}

	types := r.agent.SubscribeTo()
	receiver := r.bus.Subscribe(r.agent.AgentType(), types...)
	r.receiver = eventbus.NewFilteredReceiver(receiver, eventbus.NewEventFilter(types...))

	pumpCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.wg.Add(1)
	go r.pump(pumpCtx)

	r.logger.Info("%s agent running, subscribed to %v", r.agent.AgentType(), types)
	return nil
}

func (r *Runner) pump(ctx context.Context) {
	defer r.wg.Done()

	tracer := tracing.Tracer("recist.agents")

	for {
		event, err := r.receiver.Recv(ctx)
		if err != nil {
			return
		}

		handleCtx, span := tracer.Start(ctx, "agent.handle_event")
		span.SetAttributes(
			attribute.String("agent.type", string(r.agent.AgentType())),
			attribute.String("event.type", string(event.EventType)),
			attribute.String("event.correlation_id", event.CorrelationID),
		)
		response, err := r.agent.HandleEvent(handleCtx, event)
		span.End()
		if err != nil {
			r.logger.Error("%s agent failed handling %s: %v",
				r.agent.AgentType(), event.EventType, err)
			continue
		}
		if response == nil {
			continue
		}

		if _, err := r.bus.Publish(*response); err != nil {
			r.logger.Error("%s agent failed to publish %s: %v",
				r.agent.AgentType(), response.EventType, err)
			continue
		}
		r.metrics.EventsPublished.WithLabelValues(string(response.EventType)).Inc()
	}
}

// Stop closes the subscription, waits for the pump to drain, then stops the
// agent.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.receiver != nil {
		r.receiver.Close()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		r.logger.Warn("%s agent shutdown timeout", r.agent.AgentType())
		return ctx.Err()
	}

	return r.agent.Stop(ctx)
}

// BuildClientConfig resolves the Kubernetes client configuration. An
// explicit kubeconfig path wins, then in-cluster config, then
// $HOME/.kube/config.
func BuildClientConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig != "" {
		cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build client config from %s: %w", kubeconfig, err)
		}
		return cfg, nil
	}

	cfg, err := rest.InClusterConfig()
	if err == nil {
		return cfg, nil
	}

	path := ""
	if home := os.Getenv("HOME"); home != "" {
		path = fmt.Sprintf("%s/.kube/config", home)
	}
	cfg, err = clientcmd.BuildConfigFromFlags("", path)
	if err != nil {
		return nil, fmt.Errorf("failed to build client config: %w", err)
	}
	return cfg, nil
}
