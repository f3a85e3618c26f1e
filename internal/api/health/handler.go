package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"

	"minerva/pkg/logger"
)

// EngineChecker is the health slice of the workflow engine client.
type EngineChecker interface {
	CheckHealth(ctx context.Context, request *client.CheckHealthRequest) (*client.CheckHealthResponse, error)
}

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	engine      EngineChecker
	redis       *redis.Client
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler
func New(log *logger.Logger, engine EngineChecker, redisClient *redis.Client, serviceName, version string) *Handler {
	return &Handler{
		log:         log,
		engine:      engine,
		redis:       redisClient,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // "healthy" or "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Register mounts the probe routes.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health/live", h.HandleLiveness)
	mux.HandleFunc("GET /health/ready", h.HandleReadiness)
}

// HandleLiveness returns 200 OK if service is running
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// HandleReadiness checks if service is ready to accept traffic
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]ComponentHealth{
		"temporal": h.checkEngine(ctx),
		"redis":    h.checkRedis(ctx),
	}

	status := "healthy"
	code := http.StatusOK
	for _, check := range checks {
		if check.Status != "healthy" {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(HealthStatus{
		Status:    status,
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

func (h *Handler) checkEngine(ctx context.Context) ComponentHealth {
	if h.engine == nil {
		return ComponentHealth{Status: "unknown"}
	}

	started := time.Now()
	if _, err := h.engine.CheckHealth(ctx, &client.CheckHealthRequest{}); err != nil {
		return ComponentHealth{Status: "unhealthy", Error: err.Error()}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: time.Since(started).String()}
}

func (h *Handler) checkRedis(ctx context.Context) ComponentHealth {
	if h.redis == nil {
		return ComponentHealth{Status: "unknown"}
	}

	started := time.Now()
	if err := h.redis.Ping(ctx).Err(); err != nil {
		return ComponentHealth{Status: "unhealthy", Error: err.Error()}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: time.Since(started).String()}
}
