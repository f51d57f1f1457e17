package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthChecker tracks the liveness of a rolling evaluation for the
// /health endpoint next to /metrics.
type HealthChecker struct {
	mu         sync.RWMutex
	started    time.Time
	lastWindow time.Time
	completed  int
	planned    int
	running    bool
	errors     []string
}

type HealthStatus struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	Running    bool      `json:"running"`
	Completed  int       `json:"completed"`
	Planned    int       `json:"planned"`
	LastWindow time.Time `json:"last_window,omitempty"`
	Uptime     string    `json:"uptime"`
	Errors     []string  `json:"errors,omitempty"`
}

// DefaultHealth is the process-wide checker the engine reports into and
// the /health endpoint serves.
var DefaultHealth = NewHealthChecker()

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		started: time.Now(),
		errors:  make([]string, 0),
	}
}

// RunStarted marks a run as in progress with the planned window count.
func (h *HealthChecker) RunStarted(planned int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = true
	h.planned = planned
	h.completed = 0
}

// WindowCompleted advances the completion counter.
func (h *HealthChecker) WindowCompleted() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completed++
	h.lastWindow = time.Now()
}

// RunFinished marks the run as done.
func (h *HealthChecker) RunFinished() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = false
}

// RecordError keeps the most recent errors for the status payload.
func (h *HealthChecker) RecordError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > 10 {
		h.errors = h.errors[len(h.errors)-10:]
	}
}

func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "ok"
	if len(h.errors) > 0 {
		status = "degraded"
	}
	return HealthStatus{
		Status:     status,
		Timestamp:  time.Now(),
		Running:    h.running,
		Completed:  h.completed,
		Planned:    h.planned,
		LastWindow: h.lastWindow,
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Errors:     h.errors,
	}
}

// ServeHTTP implements the /health endpoint.
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Status())
}
