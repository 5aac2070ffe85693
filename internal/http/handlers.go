package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// handleHealth performs a basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.startedAt).String(),
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(health)
}

// handleReady performs a readiness check with dependency verification.
// The store probe reads the budget worksheet, the cheaper of the two.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.store != nil {
		if _, err := s.store.ListBudgets(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "failed: store not configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	checks["cache"] = map[string]int{
		"snapshot_entries": s.snapshotCache.Size(),
		"overview_entries": s.overviewCache.Size(),
	}
	checks["rate_limiter"] = map[string]int{
		"active_clients": s.limiter.ActiveClients(),
	}

	ready := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(ready)
}

// handleMetrics exposes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	traceMetrics := s.tracer.GetMetrics()
	limiterMetrics := s.limiter.GetMetrics()
	detectionMetrics := s.detector.GetMetrics()

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP transactions_total Total number of transactions created\n")
	fmt.Fprintf(w, "# TYPE transactions_total counter\n")
	fmt.Fprintf(w, "transactions_total %d\n\n", atomic.LoadInt64(&s.metrics.transactionsCreated))

	fmt.Fprintf(w, "# HELP cache_hits_total Total number of cache hits\n")
	fmt.Fprintf(w, "# TYPE cache_hits_total counter\n")
	fmt.Fprintf(w, "cache_hits_total %d\n\n", atomic.LoadInt64(&s.metrics.cacheHits))

	fmt.Fprintf(w, "# HELP cache_misses_total Total number of cache misses\n")
	fmt.Fprintf(w, "# TYPE cache_misses_total counter\n")
	fmt.Fprintf(w, "cache_misses_total %d\n\n", atomic.LoadInt64(&s.metrics.cacheMisses))

	fmt.Fprintf(w, "# HELP cache_entries Current number of cache entries\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries{type=\"snapshot\"} %d\n", s.snapshotCache.Size())
	fmt.Fprintf(w, "cache_entries{type=\"overview\"} %d\n\n", s.overviewCache.Size())

	fmt.Fprintf(w, "# HELP rate_limit_rejected_total Total number of rate limited requests\n")
	fmt.Fprintf(w, "# TYPE rate_limit_rejected_total counter\n")
	fmt.Fprintf(w, "rate_limit_rejected_total %d\n\n", limiterMetrics.RejectedRequests)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total number of suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", detectionMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Current number of tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", limiterMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Time since server start in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.metrics.startedAt).Seconds())
}
