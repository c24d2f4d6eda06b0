package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HealthChecker checks the health of one dependency.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) HealthCheckResult
}

// HealthCheckResult is the outcome of a single dependency check.
type HealthCheckResult struct {
	Status       HealthStatus           `json:"status"`
	Message      string                 `json:"message,omitempty"`
	Error        string                 `json:"error,omitempty"`
	ResponseTime time.Duration          `json:"response_time"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	LastChecked  time.Time              `json:"last_checked"`
}

type HealthStatus string

const (
	HealthStatusPass HealthStatus = "pass"
	HealthStatusWarn HealthStatus = "warn"
	HealthStatusFail HealthStatus = "fail"
)

// HealthService runs registered dependency checks and serves the
// liveness and readiness endpoints.
type HealthService struct {
	checkers  map[string]HealthChecker
	cache     sync.Map
	config    HealthConfig
	tracer    trace.Tracer
	startTime time.Time
}

// HealthConfig configures the health service.
type HealthConfig struct {
	// CacheDuration is how long a check result stays fresh.
	CacheDuration time.Duration

	// Timeout bounds each individual check.
	Timeout time.Duration

	ServiceName    string
	ServiceVersion string
	Environment    string
}

func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		CacheDuration:  10 * time.Second,
		Timeout:        5 * time.Second,
		ServiceName:    "healthcare-dr",
		ServiceVersion: "1.0.0",
		Environment:    "production",
	}
}

func NewHealthService(config HealthConfig) *HealthService {
	return &HealthService{
		checkers:  make(map[string]HealthChecker),
		config:    config,
		tracer:    otel.Tracer("hdr.api.health"),
		startTime: time.Now(),
	}
}

// RegisterChecker adds a dependency check. Not safe to call once the
// server is running.
func (h *HealthService) RegisterChecker(name string, checker HealthChecker) {
	h.checkers[name] = checker
}

// HealthResponse is the body served on the health endpoints.
type HealthResponse struct {
	Status      HealthStatus                 `json:"status"`
	Version     string                       `json:"version"`
	ServiceID   string                       `json:"service_id"`
	ServiceName string                       `json:"service_name"`
	Description string                       `json:"description,omitempty"`
	Checks      map[string]HealthCheckResult `json:"checks,omitempty"`
	Metadata    map[string]interface{}       `json:"metadata,omitempty"`
}

// LivenessHandler reports that the process is up. It never touches
// dependencies.
func (h *HealthService) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := h.tracer.Start(r.Context(), "health.liveness")
		defer span.End()

		response := HealthResponse{
			Status:      HealthStatusPass,
			Version:     h.config.ServiceVersion,
			ServiceID:   uuid.New().String(),
			ServiceName: h.config.ServiceName,
			Metadata: map[string]interface{}{
				"uptime_seconds": time.Since(h.startTime).Seconds(),
				"timestamp":      time.Now().UTC(),
			},
		}

		w.Header().Set("Content-Type", "application/health+json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)

		span.SetAttributes(
			attribute.String("health.status", string(response.Status)),
			attribute.Float64("health.uptime", time.Since(h.startTime).Seconds()),
		)
	}
}

// ReadinessHandler runs every registered check and reports 503 when
// any dependency fails.
func (h *HealthService) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.tracer.Start(r.Context(), "health.readiness")
		defer span.End()

		checks := h.runChecks(ctx)

		status := HealthStatusPass
		statusCode := http.StatusOK
		for _, result := range checks {
			if result.Status == HealthStatusFail {
				status = HealthStatusFail
				statusCode = http.StatusServiceUnavailable
				break
			} else if result.Status == HealthStatusWarn && status == HealthStatusPass {
				status = HealthStatusWarn
			}
		}

		response := HealthResponse{
			Status:      status,
			Version:     h.config.ServiceVersion,
			ServiceID:   uuid.New().String(),
			ServiceName: h.config.ServiceName,
			Description: fmt.Sprintf("%s readiness check", h.config.ServiceName),
			Checks:      checks,
			Metadata: map[string]interface{}{
				"uptime_seconds": time.Since(h.startTime).Seconds(),
				"timestamp":      time.Now().UTC(),
				"environment":    h.config.Environment,
			},
		}

		w.Header().Set("Content-Type", "application/health+json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(response)

		span.SetAttributes(
			attribute.String("health.status", string(response.Status)),
			attribute.Int("health.checks_count", len(checks)),
			attribute.Int("http.status_code", statusCode),
		)
	}
}

// runChecks runs all checks in parallel, serving cached results while
// they are fresh.
func (h *HealthService) runChecks(ctx context.Context) map[string]HealthCheckResult {
	results := make(map[string]HealthCheckResult)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, checker := range h.checkers {
		wg.Add(1)
		go func(n string, c HealthChecker) {
			defer wg.Done()

			if cached, ok := h.getCachedResult(n); ok {
				mu.Lock()
				results[n] = cached
				mu.Unlock()
				return
			}

			checkCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
			defer cancel()

			result := c.Check(checkCtx)
			result.LastChecked = time.Now()

			h.cacheResult(n, result)

			mu.Lock()
			results[n] = result
			mu.Unlock()
		}(name, checker)
	}

	wg.Wait()
	return results
}

func (h *HealthService) getCachedResult(name string) (HealthCheckResult, bool) {
	if val, ok := h.cache.Load(name); ok {
		cached := val.(cachedHealthResult)
		if time.Since(cached.timestamp) < h.config.CacheDuration {
			return cached.result, true
		}
	}
	return HealthCheckResult{}, false
}

func (h *HealthService) cacheResult(name string, result HealthCheckResult) {
	h.cache.Store(name, cachedHealthResult{
		result:    result,
		timestamp: time.Now(),
	})
}

type cachedHealthResult struct {
	result    HealthCheckResult
	timestamp time.Time
}

// Built-in health checkers

// PingHealthChecker adapts a dependency's ping function, such as the
// DynamoDB table describe or the S3 bucket head.
type PingHealthChecker struct {
	name string
	ping func(ctx context.Context) error
}

func NewPingHealthChecker(name string, ping func(ctx context.Context) error) *PingHealthChecker {
	return &PingHealthChecker{name: name, ping: ping}
}

func (p *PingHealthChecker) Name() string {
	return p.name
}

func (p *PingHealthChecker) Check(ctx context.Context) HealthCheckResult {
	start := time.Now()
	err := p.ping(ctx)
	responseTime := time.Since(start)

	if err != nil {
		return HealthCheckResult{
			Status:       HealthStatusFail,
			Error:        err.Error(),
			ResponseTime: responseTime,
			LastChecked:  time.Now(),
		}
	}

	return HealthCheckResult{
		Status:       HealthStatusPass,
		Message:      fmt.Sprintf("%s is reachable", p.name),
		ResponseTime: responseTime,
		LastChecked:  time.Now(),
	}
}

// SystemHealthChecker reports on process-level resources.
type SystemHealthChecker struct{}

func NewSystemHealthChecker() *SystemHealthChecker {
	return &SystemHealthChecker{}
}

func (s *SystemHealthChecker) Name() string {
	return "system"
}

func (s *SystemHealthChecker) Check(ctx context.Context) HealthCheckResult {
	start := time.Now()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status := HealthStatusPass
	message := "system resources nominal"

	heapUsagePercent := float64(m.HeapAlloc) / float64(m.HeapSys) * 100
	if heapUsagePercent > 90 {
		status = HealthStatusFail
		message = "memory usage critical"
	} else if heapUsagePercent > 75 {
		status = HealthStatusWarn
		message = "memory usage high"
	}

	numGoroutines := runtime.NumGoroutine()
	if numGoroutines > 10000 {
		status = HealthStatusWarn
		message = "goroutine count high"
	}

	return HealthCheckResult{
		Status:       status,
		Message:      message,
		ResponseTime: time.Since(start),
		Metadata: map[string]interface{}{
			"goroutines":         numGoroutines,
			"heap_alloc_mb":      m.HeapAlloc / 1024 / 1024,
			"heap_sys_mb":        m.HeapSys / 1024 / 1024,
			"heap_usage_percent": fmt.Sprintf("%.2f", heapUsagePercent),
			"gc_runs":            m.NumGC,
		},
		LastChecked: time.Now(),
	}
}
