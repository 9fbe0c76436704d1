package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Check produces a point-in-time status for one part of the system.
// Checks run on every aggregation, so they must be cheap.
type Check func() Status

// Monitor tracks health of multiple components in a thread-safe manner.
// Components either push statuses with Update or register a Check that is
// pulled on aggregation.
type Monitor struct {
	system string

	mu       sync.RWMutex
	statuses map[string]Status
	checks   map[string]Check
}

// NewMonitor creates a health monitor aggregating under the given system
// name.
func NewMonitor(system string) *Monitor {
	return &Monitor{
		system:   system,
		statuses: make(map[string]Status),
		checks:   make(map[string]Check),
	}
}

// Update records the pushed health status for a named component.
func (m *Monitor) Update(name string, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}

	m.statuses[name] = status
}

// UpdateHealthy is a convenience method to update a component as healthy
func (m *Monitor) UpdateHealthy(name, message string) {
	m.Update(name, NewHealthy(name, message))
}

// UpdateUnhealthy is a convenience method to update a component as unhealthy
func (m *Monitor) UpdateUnhealthy(name, message string) {
	m.Update(name, NewUnhealthy(name, message))
}

// UpdateDegraded is a convenience method to update a component as degraded
func (m *Monitor) UpdateDegraded(name, message string) {
	m.Update(name, NewDegraded(name, message))
}

// RegisterCheck registers a pull-based check for a named component. The
// check result overrides any pushed status of the same name.
func (m *Monitor) RegisterCheck(name string, check Check) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checks[name] = check
}

// Get retrieves the last pushed health status for a named component.
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, exists := m.statuses[name]
	return status, exists
}

// Remove removes a component from monitoring
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.statuses, name)
	delete(m.checks, name)
}

// Count returns the number of components being monitored
func (m *Monitor) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make(map[string]struct{}, len(m.statuses)+len(m.checks))
	for name := range m.statuses {
		names[name] = struct{}{}
	}
	for name := range m.checks {
		names[name] = struct{}{}
	}
	return len(names)
}

// Snapshot runs all registered checks, merges them with pushed statuses and
// returns the aggregated system status.
func (m *Monitor) Snapshot() Status {
	m.mu.RLock()
	merged := make(map[string]Status, len(m.statuses)+len(m.checks))
	for name, status := range m.statuses {
		merged[name] = status
	}
	checks := make(map[string]Check, len(m.checks))
	for name, check := range m.checks {
		checks[name] = check
	}
	m.mu.RUnlock()

	// Checks run outside the lock; they may call back into the monitor.
	for name, check := range checks {
		status := check()
		status.Component = name
		if status.Timestamp.IsZero() {
			status.Timestamp = time.Now()
		}
		merged[name] = status
	}

	subStatuses := make([]Status, 0, len(merged))
	for _, status := range merged {
		subStatuses = append(subStatuses, status)
	}

	return Aggregate(m.system, subStatuses)
}

// ServeHTTP serves the aggregated status as JSON. Healthy aggregates get
// 200, anything else 503, so the endpoint doubles as a readiness probe.
func (m *Monitor) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	snapshot := m.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	if snapshot.IsHealthy() {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	// Headers are already written; an encode failure here only truncates
	// the body.
	_ = json.NewEncoder(w).Encode(snapshot)
}
