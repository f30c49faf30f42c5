// Package agents provides the specialist agent registry and the built-in
// runners that execute delegated operational work.
package agents

import (
	"sort"
	"sync"

	"github.com/shieldops/shieldops/internal/core"
	"github.com/shieldops/shieldops/internal/logging"
)

// Registry maps task types to specialist agents. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	agents map[core.TaskType]core.SpecialistAgent
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[core.TaskType]core.SpecialistAgent)}
}

// Register adds an agent. A second agent for the same task type replaces the
// first.
func (r *Registry) Register(agent core.SpecialistAgent) error {
	if agent == nil {
		return core.ErrValidation("NIL_AGENT", "agent must not be nil")
	}
	if agent.Name() == "" {
		return core.ErrValidation("UNNAMED_AGENT", "agent must have a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agent.TaskType()] = agent
	return nil
}

// ForTaskType retrieves the agent serving a task type.
func (r *Registry) ForTaskType(tt core.TaskType) (core.SpecialistAgent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[tt]
	if !ok {
		return nil, core.ErrDispatch(core.CodeAgentUnavailable,
			"no agent registered for task type "+string(tt))
	}
	return agent, nil
}

// List returns registered agent names sorted alphabetically.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.agents))
	for _, agent := range r.agents {
		names = append(names, agent.Name())
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry with all built-in runners registered.
func DefaultRegistry(logger *logging.Logger) *Registry {
	r := NewRegistry()
	for _, agent := range []core.SpecialistAgent{
		NewInvestigationRunner(logger),
		NewRemediationRunner(logger),
		NewSecurityScanRunner(logger),
		NewMonitoringRunner(logger),
	} {
		// Register only fails on nil/unnamed agents; the builtins are neither.
		_ = r.Register(agent)
	}
	return r
}
