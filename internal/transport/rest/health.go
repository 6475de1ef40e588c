package rest

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

// BreakerReporter exposes a circuit breaker's state.
type BreakerReporter interface {
	BreakerState() string
}

type HealthHandler struct {
	db       *sql.DB
	redis    redis.Cmdable
	notifier BreakerReporter
}

// NewHealthHandler reports on postgres and, when configured, redis and the
// fee ledger notifier. Only postgres makes the service unhealthy.
func NewHealthHandler(db *sql.DB, redisClient redis.Cmdable, notifier BreakerReporter) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, notifier: notifier}
}

// HandleLiveness → just says service is up
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "OK"}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func check(ctx context.Context, failure HealthStatus, probe func(context.Context) error) CheckEntry {
	start := time.Now()
	err := probe(ctx)

	entry := CheckEntry{
		Status:     HealthHealthy,
		CheckedAt:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = failure
		entry.Message = err.Error()
	}
	return entry
}

// HandleReadiness → checks dependencies
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := map[string]CheckEntry{
		"postgres": check(ctx, HealthUnhealthy, h.db.PingContext),
	}
	if h.redis != nil {
		components["redis"] = check(ctx, HealthDegraded, func(ctx context.Context) error {
			return h.redis.Ping(ctx).Err()
		})
	}
	if h.notifier != nil {
		state := h.notifier.BreakerState()
		entry := CheckEntry{
			Status:    HealthHealthy,
			CheckedAt: time.Now(),
			Details:   map[string]any{"breaker": state},
		}
		if state != "closed" {
			entry.Status = HealthDegraded
		}
		components["fee_ledger"] = entry
	}

	status := HealthHealthy
	for _, entry := range components {
		if entry.Status == HealthUnhealthy {
			status = HealthUnhealthy
			break
		}
		if entry.Status == HealthDegraded {
			status = HealthDegraded
		}
	}

	resp := HealthResponse{
		Status:     status,
		CheckedAt:  time.Now(),
		Components: components,
	}

	statusCode := http.StatusOK
	if status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}
