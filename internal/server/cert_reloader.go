package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"sync"
	"time"

	"resumetrack/internal/config"
	"resumetrack/internal/errors"
	"resumetrack/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ReloadMetrics tracks certificate reload statistics
type ReloadMetrics struct {
	ReloadCount        int64
	ReloadSuccessCount int64
	ReloadFailureCount int64
	LastReloadTime     time.Time
	LastReloadSuccess  bool
	LastReloadError    string
}

// CertReloader keeps the server certificate fresh. It loads the certificate
// once at startup and, when file watching is enabled, reloads it whenever the
// certificate files change on disk.
type CertReloader struct {
	mu sync.RWMutex

	tlsConfig  *config.TLSConfig
	autoReload *config.AutoReloadConfig

	cert *tls.Certificate
	leaf *x509.Certificate

	watcher *CertWatcher
	metrics ReloadMetrics

	reloadCallbacks []func(success bool, err error)

	om     *observability.ObservabilityManager
	logger *errors.Logger

	running bool
}

// NewCertReloader creates a certificate reloader for the given TLS configuration
func NewCertReloader(tlsConfig *config.TLSConfig, autoReload *config.AutoReloadConfig, om *observability.ObservabilityManager, logger *errors.Logger) *CertReloader {
	return &CertReloader{
		tlsConfig:  tlsConfig,
		autoReload: autoReload,
		om:         om,
		logger:     logger,
	}
}

// Start loads the initial certificate and begins watching for changes
func (cr *CertReloader) Start() error {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.running {
		return fmt.Errorf("certificate reloader is already running")
	}

	if err := cr.loadCertificateLocked(); err != nil {
		return fmt.Errorf("failed to load initial certificate: %w", err)
	}

	if cr.autoReload.FileWatcher.Enabled && cr.tlsConfig.CertFile != "" {
		watcher, err := NewCertWatcher(
			cr.tlsConfig.CertFile,
			cr.tlsConfig.KeyFile,
			cr.tlsConfig.CAFile,
			cr.autoReload.FileWatcher.DebounceDelay,
			cr.onFilesChanged,
			cr.logger,
		)
		if err != nil {
			return fmt.Errorf("failed to create certificate watcher: %w", err)
		}
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("failed to start certificate watcher: %w", err)
		}
		cr.watcher = watcher
	}

	cr.running = true
	return nil
}

// Stop shuts down the file watcher
func (cr *CertReloader) Stop() error {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if !cr.running {
		return nil
	}

	if cr.watcher != nil {
		if err := cr.watcher.Stop(); err != nil {
			return err
		}
		cr.watcher = nil
	}

	cr.running = false
	return nil
}

// GetServerCertificate returns the current certificate for TLS handshakes
func (cr *CertReloader) GetServerCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	if cr.cert == nil {
		return nil, fmt.Errorf("no certificate loaded")
	}
	return cr.cert, nil
}

// CheckExpiry returns the time remaining until the current certificate expires
func (cr *CertReloader) CheckExpiry() (time.Duration, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	if cr.leaf == nil {
		return 0, fmt.Errorf("no certificate loaded")
	}
	return time.Until(cr.leaf.NotAfter), nil
}

// GetMetrics returns a snapshot of reload statistics
func (cr *CertReloader) GetMetrics() *ReloadMetrics {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	snapshot := cr.metrics
	return &snapshot
}

// Watcher returns the underlying file watcher, nil when watching is disabled
func (cr *CertReloader) Watcher() *CertWatcher {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.watcher
}

// AddReloadCallback registers a callback invoked after every reload attempt
func (cr *CertReloader) AddReloadCallback(cb func(success bool, err error)) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.reloadCallbacks = append(cr.reloadCallbacks, cb)
}

// onFilesChanged is invoked by the file watcher after the debounce delay
func (cr *CertReloader) onFilesChanged() {
	cr.logger.Info("Certificate files changed, reloading")

	err := cr.reloadWithRetries()

	cr.mu.Lock()
	cr.metrics.ReloadCount++
	cr.metrics.LastReloadTime = time.Now()
	if err != nil {
		cr.metrics.ReloadFailureCount++
		cr.metrics.LastReloadSuccess = false
		cr.metrics.LastReloadError = err.Error()
	} else {
		cr.metrics.ReloadSuccessCount++
		cr.metrics.LastReloadSuccess = true
		cr.metrics.LastReloadError = ""
	}
	callbacks := make([]func(bool, error), len(cr.reloadCallbacks))
	copy(callbacks, cr.reloadCallbacks)
	cr.mu.Unlock()

	cr.recordObservabilityMetrics(err == nil)

	for _, cb := range callbacks {
		cb(err == nil, err)
	}
}

// reloadWithRetries attempts a reload, retrying per the auto-reload config
func (cr *CertReloader) reloadWithRetries() error {
	maxRetries := cr.autoReload.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		cr.mu.Lock()
		lastErr = cr.loadCertificateLocked()
		cr.mu.Unlock()

		if lastErr == nil {
			return nil
		}

		cr.logger.Warn("Certificate reload attempt failed",
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", lastErr)

		if attempt < maxRetries && cr.autoReload.RetryDelay > 0 {
			time.Sleep(cr.autoReload.RetryDelay)
		}
	}

	return lastErr
}

// loadCertificateLocked loads the certificate pair. Caller holds cr.mu.
func (cr *CertReloader) loadCertificateLocked() error {
	var cert tls.Certificate
	var err error

	if cr.tlsConfig.CertContent != "" && cr.tlsConfig.KeyContent != "" {
		cert, err = tls.X509KeyPair([]byte(cr.tlsConfig.CertContent), []byte(cr.tlsConfig.KeyContent))
	} else {
		cert, err = tls.LoadX509KeyPair(cr.tlsConfig.CertFile, cr.tlsConfig.KeyFile)
	}
	if err != nil {
		return fmt.Errorf("failed to load certificate pair: %w", err)
	}

	leaf := cert.Leaf
	if leaf == nil && len(cert.Certificate) > 0 {
		leaf, err = x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return fmt.Errorf("failed to parse certificate: %w", err)
		}
	}

	cr.cert = &cert
	cr.leaf = leaf

	if leaf != nil {
		cr.logger.Info("TLS certificate loaded",
			"subject", leaf.Subject.CommonName,
			"not_after", leaf.NotAfter)
	}

	return nil
}

// recordObservabilityMetrics records reload count and expiry gauge
func (cr *CertReloader) recordObservabilityMetrics(success bool) {
	if cr.om == nil {
		return
	}
	metrics := cr.om.GetMetrics()

	ctx := context.Background()
	if metrics.CertReloadCount != nil {
		metrics.CertReloadCount.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool("success", success)))
	}

	cr.mu.RLock()
	leaf := cr.leaf
	cr.mu.RUnlock()

	if metrics.CertExpiryTime != nil && leaf != nil {
		metrics.CertExpiryTime.Record(ctx, time.Until(leaf.NotAfter).Seconds())
	}
}
