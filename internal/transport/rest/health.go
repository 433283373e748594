package rest

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/sekreterlik/sekreterlik/internal/transport"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

const healthCheckTimeout = 2 * time.Second

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

type probe struct {
	name string
	ping func(context.Context) error
}

// HealthHandler probes Postgres and, when sessions live there, Redis.
type HealthHandler struct {
	*transport.BaseHandler
	probes []probe
	memory bool
}

func NewHealthHandler(db *sql.DB, rdb redis.UniversalClient) *HealthHandler {
	h := &HealthHandler{BaseHandler: transport.NewBaseHandler(nil)}
	h.probes = append(h.probes, probe{name: "postgres", ping: db.PingContext})
	if rdb != nil {
		h.probes = append(h.probes, probe{name: "redis", ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	} else {
		h.memory = true
	}
	return h
}

func (h *HealthHandler) pingHandler(w http.ResponseWriter, _ *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// healthCheckHandler runs every probe concurrently; any failure answers 503.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	var mu sync.Mutex
	resp := HealthResponse{Status: HealthHealthy, Components: make(map[string]CheckEntry, len(h.probes)+1)}

	var g errgroup.Group
	for _, p := range h.probes {
		p := p
		g.Go(func() error {
			entry := run(ctx, p.ping)
			mu.Lock()
			resp.Components[p.name] = entry
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if h.memory {
		resp.Components["sessions"] = CheckEntry{
			Status:    HealthHealthy,
			Details:   map[string]any{"backend": "memory"},
			CheckedAt: time.Now(),
		}
	}
	for name, c := range resp.Components {
		if c.Status == HealthUnhealthy {
			resp.Status = HealthUnhealthy
			h.Log(r).Warn("health check failed", "component", name, "error", c.Message)
		}
	}
	resp.CheckedAt = time.Now()

	status := http.StatusOK
	if resp.Status == HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	h.WriteJSON(w, status, resp)
}

func run(ctx context.Context, ping func(context.Context) error) CheckEntry {
	start := time.Now()
	entry := CheckEntry{Status: HealthHealthy}
	if err := ping(ctx); err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}
	entry.CheckedAt = time.Now()
	entry.DurationMs = time.Since(start).Milliseconds()
	return entry
}
