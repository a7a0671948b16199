package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/recist-io/recist/internal/logging"
)

// defaultShutdownTimeout is the per-component grace period during Stop.
const defaultShutdownTimeout = 30 * time.Second

// rollbackTimeout bounds each Stop call while unwinding a failed Start.
const rollbackTimeout = 5 * time.Second

// Manager starts registered components in dependency order and stops them in
// reverse. A component starts only after everything it depends on is up; a
// failed Start unwinds the components already started. The operator registers
// the metrics server, the tracing provider, the four agent runners, and the
// controller manager through one Manager.
type Manager struct {
	registry []*registration
	timeout  time.Duration
	started  []*registration
	logger   *logging.Logger

	// opMu serializes Register/Start/Stop; stateMu guards the running flags
	// read by IsRunning.
	opMu    sync.Mutex
	stateMu sync.RWMutex
}

type registration struct {
	component Component
	dependsOn []*registration
	running   bool
}

// NewManager returns an empty manager with the default shutdown timeout.
func NewManager() *Manager {
	return &Manager{
		timeout: defaultShutdownTimeout,
		logger:  logging.GetLogger("lifecycle.manager"),
	}
}

// Register adds a component. Dependencies must already be registered, the
// component must be named and not registered twice, and the resulting graph
// must stay acyclic.
func (m *Manager) Register(component Component, dependsOn ...Component) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if component == nil {
		return fmt.Errorf("cannot register nil component")
	}
	if component.Name() == "" {
		return fmt.Errorf("component must have a non-empty name")
	}
	if m.lookup(component) != nil {
		return fmt.Errorf("component %s is already registered", component.Name())
	}

	deps := make([]*registration, 0, len(dependsOn))
	for _, dep := range dependsOn {
		reg := m.lookup(dep)
		if reg == nil {
			return fmt.Errorf("dependency %s is not registered", dep.Name())
		}
		deps = append(deps, reg)
	}

	if m.wouldCreateCycle(component, dependsOn) {
		return fmt.Errorf("registering %s would create a circular dependency", component.Name())
	}

	m.registry = append(m.registry, &registration{component: component, dependsOn: deps})
	m.logger.Debug("Registered component %s with %d dependencies", component.Name(), len(dependsOn))
	return nil
}

func (m *Manager) lookup(component Component) *registration {
	for _, reg := range m.registry {
		if reg.component == component {
			return reg
		}
	}
	return nil
}

// wouldCreateCycle reports whether giving component the listed dependencies
// would make the graph cyclic, i.e. whether component is reachable from any
// of them.
func (m *Manager) wouldCreateCycle(component Component, dependencies []Component) bool {
	seen := make(map[*registration]bool)
	stack := make([]*registration, 0, len(dependencies))
	for _, dep := range dependencies {
		if dep == component {
			return true
		}
		if reg := m.lookup(dep); reg != nil {
			stack = append(stack, reg)
		}
	}

	for len(stack) > 0 {
		reg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[reg] {
			continue
		}
		seen[reg] = true
		for _, dep := range reg.dependsOn {
			if dep.component == component {
				return true
			}
			stack = append(stack, dep)
		}
	}
	return false
}

// Start brings every component up, dependencies first. On the first failure
// the already-started components are stopped again in reverse order and the
// failure is returned.
func (m *Manager) Start(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.started = nil

	for _, reg := range m.startOrder() {
		name := reg.component.Name()
		m.logger.Info("Starting %s", name)
		begin := time.Now()

		if err := reg.component.Start(ctx); err != nil {
			m.logger.Error("Failed to start %s: %v", name, err)
			m.rollback()
			return fmt.Errorf("initialization failed for %s: %w", name, err)
		}

		m.setRunning(reg, true)
		m.started = append(m.started, reg)
		m.logger.Info("%s started successfully (took %dms)", name, time.Since(begin).Milliseconds())
	}

	m.logger.Info("All components started successfully")
	return nil
}

// startOrder lists registrations so every dependency precedes its dependents.
// Registration order breaks ties, keeping startup deterministic.
func (m *Manager) startOrder() []*registration {
	order := make([]*registration, 0, len(m.registry))
	placed := make(map[*registration]bool, len(m.registry))

	var place func(reg *registration)
	place = func(reg *registration) {
		if placed[reg] {
			return
		}
		placed[reg] = true
		for _, dep := range reg.dependsOn {
			place(dep)
		}
		order = append(order, reg)
	}

	for _, reg := range m.registry {
		place(reg)
	}
	return order
}

// rollback unwinds a failed Start: everything started so far is stopped in
// reverse order on a short per-component deadline.
func (m *Manager) rollback() {
	for i := len(m.started) - 1; i >= 0; i-- {
		reg := m.started[i]
		m.logger.Debug("Rolling back: stopping %s", reg.component.Name())

		ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
		if err := reg.component.Stop(ctx); err != nil {
			m.logger.Warn("Error stopping %s during rollback: %v", reg.component.Name(), err)
		}
		cancel()

		m.setRunning(reg, false)
	}
	m.started = nil
}

// Stop shuts the started components down in reverse start order. Every
// component gets its own shutdown-timeout deadline; one component hanging or
// failing never blocks the rest, so Stop always returns nil.
func (m *Manager) Stop(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.logger.Info("Stopping all components")

	for i := len(m.started) - 1; i >= 0; i-- {
		reg := m.started[i]
		if !m.IsRunning(reg.component) {
			continue
		}
		name := reg.component.Name()

		m.logger.Info("Stopping %s", name)
		begin := time.Now()

		stopCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := reg.component.Stop(stopCtx)
		cancel()

		switch {
		case err == context.DeadlineExceeded:
			m.logger.Warn("Component %s exceeded grace period (%dms timeout), abandoning it",
				name, m.timeout.Milliseconds())
		case err != nil:
			m.logger.Error("Error stopping %s: %v", name, err)
		default:
			m.logger.Info("%s stopped successfully (took %dms)", name, time.Since(begin).Milliseconds())
		}

		m.setRunning(reg, false)
	}

	m.logger.Info("All components stopped")
	return nil
}

func (m *Manager) setRunning(reg *registration, running bool) {
	m.stateMu.Lock()
	reg.running = running
	m.stateMu.Unlock()
}

// IsRunning reports whether the component started and has not stopped.
func (m *Manager) IsRunning(component Component) bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	reg := m.lookup(component)
	return reg != nil && reg.running
}

// SetShutdownTimeout overrides the per-component grace period used by Stop.
func (m *Manager) SetShutdownTimeout(timeout time.Duration) {
	m.stateMu.Lock()
	m.timeout = timeout
	m.stateMu.Unlock()
	m.logger.Debug("Shutdown timeout set to %dms", timeout.Milliseconds())
}
