// Package agents implements the capability matcher and agent pool: the
// registry tying agent capability sets to task requirements, and the
// state machine enforcing one task per agent at a time.
package agents

import (
	"sync"

	domain "github.com/R3E-Network/agentsvc/domain/agent"
)

// Matcher matches agents to tasks based on registered capability sets,
// translating axon's CapabilityMatcher into Go.
type Matcher struct {
	mu               sync.RWMutex
	agentCaps        map[string]map[domain.Capability]bool
	taskRequirements map[string]map[domain.Capability]bool
}

// NewMatcher creates an empty Matcher.
func NewMatcher() *Matcher {
	return &Matcher{
		agentCaps:        make(map[string]map[domain.Capability]bool),
		taskRequirements: make(map[string]map[domain.Capability]bool),
	}
}

// Register records an agent's capability set, replacing any prior
// registration for the same id.
func (m *Matcher) Register(agentID string, caps []domain.Capability) {
	set := make(map[domain.Capability]bool, len(caps))
	for _, c := range caps {
		set[c] = true
	}
	m.mu.Lock()
	m.agentCaps[agentID] = set
	m.mu.Unlock()
}

// Unregister removes an agent from the matcher.
func (m *Matcher) Unregister(agentID string) {
	m.mu.Lock()
	delete(m.agentCaps, agentID)
	m.mu.Unlock()
}

// RegisterTaskRequirements associates a task type with the capability
// set it requires.
func (m *Matcher) RegisterTaskRequirements(taskType string, caps []domain.Capability) {
	set := make(map[domain.Capability]bool, len(caps))
	for _, c := range caps {
		set[c] = true
	}
	m.mu.Lock()
	m.taskRequirements[taskType] = set
	m.mu.Unlock()
}

// RequirementsFor returns the registered capability set for a task
// type, or nil if none was registered.
func (m *Matcher) RequirementsFor(taskType string) map[domain.Capability]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.taskRequirements[taskType]
}

func toSet(caps []domain.Capability) map[domain.Capability]bool {
	set := make(map[domain.Capability]bool, len(caps))
	for _, c := range caps {
		set[c] = true
	}
	return set
}

// FindCapable returns every agent whose capability set is a superset of
// required.
func (m *Matcher) FindCapable(required []domain.Capability) []string {
	req := toSet(required)
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []string
	for id, caps := range m.agentCaps {
		if isSuperset(caps, req) {
			result = append(result, id)
		}
	}
	return result
}

// FindBest returns the capable agent with the fewest extra (unrequired)
// capabilities, i.e. the closest specialist. Returns "", false if no
// agent qualifies.
func (m *Matcher) FindBest(required []domain.Capability) (string, bool) {
	req := toSet(required)
	m.mu.RLock()
	defer m.mu.RUnlock()

	best := ""
	bestExtra := -1
	for id, caps := range m.agentCaps {
		if !isSuperset(caps, req) {
			continue
		}
		extra := len(caps) - len(req)
		if bestExtra == -1 || extra < bestExtra {
			best = id
			bestExtra = extra
		}
	}
	if bestExtra == -1 {
		return "", false
	}
	return best, true
}

// Score returns |caps ∩ required| / |required| for the given agent.
func (m *Matcher) Score(agentID string, required []domain.Capability) float64 {
	req := toSet(required)
	if len(req) == 0 {
		return 0
	}
	m.mu.RLock()
	caps := m.agentCaps[agentID]
	m.mu.RUnlock()
	if caps == nil {
		return 0
	}

	matched := 0
	for c := range req {
		if caps[c] {
			matched++
		}
	}
	return float64(matched) / float64(len(req))
}

// AgentsByCategory returns every registered agent that has at least one
// capability in the given category.
func (m *Matcher) AgentsByCategory(category domain.Category) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []string
	for id, caps := range m.agentCaps {
		for c := range caps {
			if domain.CategoryOf(c) == category {
				result = append(result, id)
				break
			}
		}
	}
	return result
}

func isSuperset(caps, required map[domain.Capability]bool) bool {
	for c := range required {
		if !caps[c] {
			return false
		}
	}
	return true
}
