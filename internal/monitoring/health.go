package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

type HealthChecker struct {
	mu           sync.RWMutex
	lastDecision time.Time
	breakerState string
	errors       []string
}

type HealthStatus struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	LastDecision time.Time `json:"last_decision"`
	BreakerState string    `json:"breaker_state"`
	Uptime       string    `json:"uptime"`
	Errors       []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		breakerState: "ARMED",
		errors:       make([]string, 0),
	}
}

// RecordDecision notes that an approval pass completed.
func (h *HealthChecker) RecordDecision() {
	h.mu.Lock()
	h.lastDecision = time.Now()
	h.mu.Unlock()
}

// SetBreakerState mirrors the breaker position into health reports.
func (h *HealthChecker) SetBreakerState(state string) {
	h.mu.Lock()
	h.breakerState = state
	h.mu.Unlock()
}

// RecordError appends an error to the health report.
func (h *HealthChecker) RecordError(msg string) {
	h.mu.Lock()
	h.errors = append(h.errors, msg)
	h.mu.Unlock()
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status, code := "healthy", http.StatusOK
	if h.breakerState == "TRIPPED" {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	if len(h.errors) > 0 {
		status, code = "unhealthy", http.StatusInternalServerError
	}

	health := HealthStatus{
		Status:       status,
		Timestamp:    time.Now(),
		LastDecision: h.lastDecision,
		BreakerState: h.breakerState,
		Uptime:       time.Since(startTime).String(),
		Errors:       h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(health)
}
