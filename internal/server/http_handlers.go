package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"resumetrack/internal/ai"
)

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	return s.AppConfig.Observability.HealthCheck.Timeout
}

// healthHandler provides a comprehensive health check endpoint including AI model and database status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "healthy",
		"service": "resumetrack",
		"version": s.Version,
	}

	overallHealthy := true

	// Check AI model availability for the score operation
	aiStatus := s.checkAIModelHealth()
	response["ai_models"] = aiStatus

	// Check circuit breaker status
	response["circuit_breakers"] = s.checkCircuitBreakerHealth()

	// Check database connectivity
	dbStatus := s.checkDatabaseHealth()
	response["database"] = dbStatus
	if healthy, ok := dbStatus["healthy"].(bool); ok && !healthy {
		overallHealthy = false
	}

	// Check certificate status if a certificate reloader is running
	certStatus := s.checkCertificateHealth()
	if certStatus != nil {
		response["certificates"] = certStatus
		if healthy, ok := certStatus["healthy"].(bool); ok && !healthy {
			overallHealthy = false
		}
	}

	for _, modelStatus := range aiStatus {
		if modelInfo, ok := modelStatus.(map[string]any); ok {
			if available, exists := modelInfo["available"]; exists {
				if avail, ok := available.(bool); ok && !avail {
					overallHealthy = false
					break
				}
			}
		}
	}

	if !overallHealthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// checkAIModelHealth checks the health of the AI model behind the score operation
func (s *Server) checkAIModelHealth() map[string]any {
	// Use configurable health check timeout
	timeout := s.getHealthCheckTimeout()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	aiStatus := make(map[string]any)

	scoreConfig := s.AppConfig.GetScoreConfig()
	if scoreService, err := ai.NewService(&scoreConfig, "score", s.Logger); err == nil {
		modelInfo := scoreService.GetModelInfo(ctx)
		aiStatus["score"] = modelInfo
	} else {
		aiStatus["score"] = map[string]any{
			"available": false,
			"error":     fmt.Sprintf("Failed to create score service: %v", err),
		}
	}

	return aiStatus
}

// checkCircuitBreakerHealth checks the health of the score operation's circuit breaker
func (s *Server) checkCircuitBreakerHealth() map[string]any {
	circuitBreakerStatus := make(map[string]any)

	scoreConfig := s.AppConfig.GetScoreConfig()
	if _, err := ai.NewService(&scoreConfig, "score", s.Logger); err == nil {
		circuitBreakerStatus["score"] = map[string]any{
			"available": true,
			"message":   "Circuit breaker integrated with score service",
		}
	} else {
		circuitBreakerStatus["score"] = map[string]any{
			"available": false,
			"error":     fmt.Sprintf("Failed to create score service: %v", err),
		}
	}

	return circuitBreakerStatus
}

// checkDatabaseHealth pings the underlying database connection
func (s *Server) checkDatabaseHealth() map[string]any {
	dbStatus := make(map[string]any)

	if s.DB == nil {
		dbStatus["healthy"] = false
		dbStatus["error"] = "database not connected"
		return dbStatus
	}

	sqlDB, err := s.DB.DB()
	if err != nil {
		dbStatus["healthy"] = false
		dbStatus["error"] = fmt.Sprintf("failed to access connection pool: %v", err)
		return dbStatus
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.getHealthCheckTimeout())
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus["healthy"] = false
		dbStatus["error"] = fmt.Sprintf("ping failed: %v", err)
		return dbStatus
	}

	stats := sqlDB.Stats()
	dbStatus["healthy"] = true
	dbStatus["open_connections"] = stats.OpenConnections
	dbStatus["in_use"] = stats.InUse
	dbStatus["idle"] = stats.Idle

	return dbStatus
}

// checkCertificateHealth checks the health of TLS certificates
func (s *Server) checkCertificateHealth() map[string]any {
	if s.CertReloader == nil {
		return nil
	}

	certStatus := make(map[string]any)

	timeToExpiry, err := s.CertReloader.CheckExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return certStatus
	}

	// Consider certificates unhealthy if they expire within 24 hours
	criticalThreshold := 24 * time.Hour
	warningThreshold := 7 * 24 * time.Hour // 7 days

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())
	certStatus["time_to_expiry"] = timeToExpiry.String()

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
		certStatus["message"] = "Certificate has expired"
	case timeToExpiry <= criticalThreshold:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
		certStatus["message"] = "Certificate expires within 24 hours"
	case timeToExpiry <= warningThreshold:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
		certStatus["message"] = "Certificate expires within 7 days"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
		certStatus["message"] = "Certificate is valid"
	}

	if s.TLSConfig.AutoReload.Enabled {
		autoReload := map[string]any{
			"enabled":              true,
			"file_watcher_enabled": s.TLSConfig.AutoReload.FileWatcher.Enabled,
		}
		if watcher := s.CertReloader.Watcher(); watcher != nil {
			autoReload["file_watcher_running"] = watcher.IsRunning()
			autoReload["watched_files"] = watcher.GetWatchedFiles()
		}
		certStatus["auto_reload"] = autoReload
	} else {
		certStatus["auto_reload"] = map[string]any{
			"enabled": false,
		}
	}

	// Add reload metrics
	metrics := s.CertReloader.GetMetrics()
	if metrics != nil {
		certStatus["metrics"] = map[string]any{
			"reload_count":         metrics.ReloadCount,
			"reload_success_count": metrics.ReloadSuccessCount,
			"reload_failure_count": metrics.ReloadFailureCount,
			"last_reload_time":     metrics.LastReloadTime,
			"last_reload_success":  metrics.LastReloadSuccess,
			"last_reload_error":    metrics.LastReloadError,
		}
	}

	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "resumetrack",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	// Add rate limiting stats if enabled
	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	// Add configuration info
	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
			"by_user":          s.RateLimit.ByUser,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeJSONResponse writes a JSON response with the given status code
func writeJSONResponse(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
