// Package health exposes liveness and readiness probes for the autopilot
// simulator. Readiness aggregates named checks over the simulation loop, the
// navigation journal and occupant delivery.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// Check states reported in HealthStatus and ComponentHealth.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusAlive     = "alive"
)

// DefaultCheckTimeout bounds a single check run by ReadinessHandler.
const DefaultCheckTimeout = 2 * time.Second

// HealthCheck is one named probe. Check returns nil when the component is usable.
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthStatus is the aggregated readiness report.
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth is the outcome of a single check.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker holds the registered checks.
type HealthChecker struct {
	mu     sync.RWMutex
	checks map[string]HealthCheck

	// CheckTimeout bounds each check; zero means only the caller's context applies.
	CheckTimeout time.Duration
}

// NewHealthChecker returns a checker with no checks and DefaultCheckTimeout.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks:       make(map[string]HealthCheck),
		CheckTimeout: DefaultCheckTimeout,
	}
}

// AddCheck registers check, replacing any check with the same name.
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck drops the named check.
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// Names lists the registered checks in sorted order.
func (hc *HealthChecker) Names() []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckHealth runs every check in name order. The report is healthy only when
// all of them pass.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status: StatusHealthy,
		Checks: make(map[string]ComponentHealth),
	}

	for _, name := range hc.Names() {
		hc.mu.RLock()
		check, ok := hc.checks[name]
		hc.mu.RUnlock()
		if !ok {
			continue
		}

		if err := hc.run(ctx, check); err != nil {
			status.Status = StatusUnhealthy
			status.Checks[name] = ComponentHealth{Status: StatusUnhealthy, Message: err.Error()}
			continue
		}
		status.Checks[name] = ComponentHealth{Status: StatusHealthy}
	}
	return status
}

func (hc *HealthChecker) run(ctx context.Context, check HealthCheck) error {
	if hc.CheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, hc.CheckTimeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return check.Check(ctx)
}

// LivenessHandler answers 200 while the process can serve HTTP at all.
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": StatusAlive})
}

// ReadinessHandler runs every check and answers 200 or 503 with the report.
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	health := hc.CheckHealth(r.Context())

	code := http.StatusOK
	if health.Status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// SimulationHealthCheck implements HealthCheck for the simulation loop.
type SimulationHealthCheck struct {
	running func() bool
}

// NewSimulationHealthCheck creates a health check for the simulation loop.
func NewSimulationHealthCheck(running func() bool) *SimulationHealthCheck {
	return &SimulationHealthCheck{
		running: running,
	}
}

// Name returns the name of this health check.
func (s *SimulationHealthCheck) Name() string {
	return "simulation"
}

// Check verifies that the simulation is stepping.
func (s *SimulationHealthCheck) Check(ctx context.Context) error {
	if !s.running() {
		return fmt.Errorf("simulation is not running")
	}
	return nil
}

// Pinger is anything that can report whether its backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JournalHealthCheck implements HealthCheck for the navigation journal.
type JournalHealthCheck struct {
	journal Pinger
}

// NewJournalHealthCheck creates a health check for the navigation journal.
func NewJournalHealthCheck(journal Pinger) *JournalHealthCheck {
	return &JournalHealthCheck{
		journal: journal,
	}
}

// Name returns the name of this health check.
func (j *JournalHealthCheck) Name() string {
	return "journal"
}

// Check verifies that the journal database answers.
func (j *JournalHealthCheck) Check(ctx context.Context) error {
	if err := j.journal.Ping(ctx); err != nil {
		return fmt.Errorf("journal unavailable: %w", err)
	}
	return nil
}

// DeliveryHealthCheck implements HealthCheck for occupant message delivery.
type DeliveryHealthCheck struct {
	state func() gobreaker.State
}

// NewDeliveryHealthCheck creates a health check over a delivery circuit breaker.
func NewDeliveryHealthCheck(state func() gobreaker.State) *DeliveryHealthCheck {
	return &DeliveryHealthCheck{
		state: state,
	}
}

// Name returns the name of this health check.
func (d *DeliveryHealthCheck) Name() string {
	return "delivery"
}

// Check fails while the delivery circuit breaker is open.
func (d *DeliveryHealthCheck) Check(ctx context.Context) error {
	if state := d.state(); state == gobreaker.StateOpen {
		return fmt.Errorf("delivery circuit breaker is %s", state)
	}
	return nil
}

// MemoryHealthCheck implements HealthCheck for memory usage monitoring.
type MemoryHealthCheck struct {
	maxMemoryMB    int64
	getMemoryUsage func() int64
}

// NewMemoryHealthCheck creates a health check for memory usage.
func NewMemoryHealthCheck(maxMemoryMB int64, getMemoryUsage func() int64) *MemoryHealthCheck {
	return &MemoryHealthCheck{
		maxMemoryMB:    maxMemoryMB,
		getMemoryUsage: getMemoryUsage,
	}
}

// Name returns the name of this health check.
func (m *MemoryHealthCheck) Name() string {
	return "memory"
}

// Check verifies that memory usage is within acceptable limits.
func (m *MemoryHealthCheck) Check(ctx context.Context) error {
	currentMB := m.getMemoryUsage()
	if currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}
	return nil
}
