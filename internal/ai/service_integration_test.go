package ai

import (
	"log/slog"
	"testing"
	"time"

	"resumetrack/internal/config"
	"resumetrack/internal/errors"
)

// Helper functions to create pointers for test values
func timePtr(d time.Duration) *time.Duration { return &d }
func intPtr(i int) *int                      { return &i }
func float32Ptr(f float32) *float32          { return &f }
func boolPtr(b bool) *bool                   { return &b }

var testLogger = errors.NewLogger(slog.LevelDebug)

// TestScoreConfigDerivation verifies that the score operation's configuration
// is correctly derived, with fallbacks to the global configuration.
func TestScoreConfigDerivation(t *testing.T) {
	testConfig := &config.Config{
		AI: config.AIConfig{
			// Global defaults that should be used as fallbacks
			Provider:         "gemini",
			Model:            "global-model",
			Timeout:          60 * time.Second,
			APIKey:           "global-api-key",
			MaxRetries:       5,
			Temperature:      0.9,
			UseSystemPrompts: true,

			// Operation-specific configuration that overrides globals
			Score: config.OperationAIConfig{
				Model:       "score-specific-model",    // Override
				Timeout:     timePtr(90 * time.Second), // Override
				Temperature: float32Ptr(0.2),           // Override
				// APIKey and MaxRetries should fall back to global values.
			},
		},
	}

	cfg := testConfig.GetScoreConfig()

	if cfg.Model != "score-specific-model" {
		t.Errorf("Expected Model 'score-specific-model', got '%s'", cfg.Model)
	}
	if *cfg.Timeout != 90*time.Second {
		t.Errorf("Expected Timeout 90s, got %v", *cfg.Timeout)
	}
	if *cfg.Temperature != float32(0.2) {
		t.Errorf("Expected Temperature 0.2, got %f", *cfg.Temperature)
	}

	// Fallbacks
	if cfg.APIKey != "global-api-key" {
		t.Errorf("Expected APIKey 'global-api-key', got '%s'", cfg.APIKey)
	}
	if *cfg.MaxRetries != 5 {
		t.Errorf("Expected MaxRetries 5, got %d", *cfg.MaxRetries)
	}
	if !*cfg.UseSystemPrompts {
		t.Error("Expected UseSystemPrompts to fall back to global true")
	}

	// Confirm the factory function can consume the derived config.
	if _, err := NewService(&cfg, "score", testLogger); err != nil {
		// We expect an error due to the dummy API key, but not a panic.
		t.Logf("Received expected error when creating service with test key: %v", err)
	}
}

func TestScoreConfigNoOverrides(t *testing.T) {
	testConfig := &config.Config{
		AI: config.AIConfig{
			Provider:    "gemini",
			Model:       "global-model",
			Timeout:     60 * time.Second,
			APIKey:      "global-api-key",
			MaxRetries:  3,
			Temperature: 0.7,
		},
	}

	cfg := testConfig.GetScoreConfig()

	if cfg.Model != "global-model" {
		t.Errorf("Expected Model to fall back to 'global-model', got '%s'", cfg.Model)
	}
	if *cfg.Timeout != 60*time.Second {
		t.Errorf("Expected Timeout to fall back to 60s, got %v", *cfg.Timeout)
	}
	if cfg.APIKey != "global-api-key" {
		t.Errorf("Expected APIKey to fall back to 'global-api-key', got '%s'", cfg.APIKey)
	}
}

func TestCircuitBreakerIntegrationWithService(t *testing.T) {
	// Create a service with specific circuit breaker config
	testOpConfig := &config.OperationAIConfig{
		Provider:         "gemini",
		Model:            "test-model",
		Timeout:          timePtr(30 * time.Second),
		APIKey:           "test-key",
		MaxRetries:       intPtr(1),
		Temperature:      float32Ptr(0.5),
		UseSystemPrompts: boolPtr(true),
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          45 * time.Second,
			MinRequests:      2,
			FailureThreshold: 0.8,
		},
	}

	service, err := NewService(testOpConfig, "score", testLogger)
	if err != nil {
		t.Logf("Received expected error when creating service with test key: %v", err)
	}

	// Verify the service has the correct configuration
	if service.config.CircuitBreaker.MaxRequests != 5 {
		t.Errorf("Expected circuit breaker max requests 5, got %d", service.config.CircuitBreaker.MaxRequests)
	}
	if service.config.CircuitBreaker.FailureThreshold != 0.8 {
		t.Errorf("Expected circuit breaker failure threshold 0.8, got %f", service.config.CircuitBreaker.FailureThreshold)
	}

	// Test that the provider has a circuit breaker
	if geminiProvider, ok := service.Provider.(*GeminiProvider); ok {
		stats := geminiProvider.GetCircuitBreakerStats()

		aiOpsStats, ok := stats["ai_operations"].(map[string]any)
		if !ok {
			t.Fatal("AI operations stats should exist and be a map")
		}
		if name, _ := aiOpsStats["name"].(string); name != "AI-score" {
			t.Errorf("Expected circuit breaker name 'AI-score', got '%s'", name)
		}

		modelOpsStats, ok := stats["model_operations"].(map[string]any)
		if !ok {
			t.Fatal("Model operations stats should exist and be a map")
		}
		if name, _ := modelOpsStats["name"].(string); name != "AI-Model-score" {
			t.Errorf("Expected model circuit breaker name 'AI-Model-score', got '%s'", name)
		}

		// Check overall health
		if overallHealthy, _ := stats["overall_healthy"].(bool); !overallHealthy {
			t.Error("Circuit breaker should be healthy initially")
		}
	} else {
		t.Fatal("Service provider is not of type *GeminiProvider")
	}
}
