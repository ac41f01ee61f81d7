// Package health provides periodic health checking for the external
// capabilities the pipeline depends on (speech recognition, text generation,
// ffmpeg) with configurable intervals and failure thresholds.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Target is anything that can report its own health.
type Target interface {
	HealthCheck(ctx context.Context) (bool, error)
	Name() string
}

// errorCheck 将只返回 error 的健康检查适配为 Target
type errorCheck struct {
	name  string
	check func(ctx context.Context) error
}

func (p errorCheck) HealthCheck(ctx context.Context) (bool, error) {
	if err := p.check(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (p errorCheck) Name() string { return p.name }

// FromErrorCheck adapts a check that only returns an error.
func FromErrorCheck(name string, check func(ctx context.Context) error) Target {
	return errorCheck{name: name, check: check}
}

// ServiceStatus represents the current health state of a monitored service.
type ServiceStatus struct {
	Name             string    `json:"name"`
	IsHealthy        bool      `json:"is_healthy"`
	LastCheckTime    time.Time `json:"last_check_time"`
	ConsecutiveFails int       `json:"consecutive_fails"`
	ErrorMessage     string    `json:"error_message"`
}

// HealthChecker performs periodic health checks on a Target and tracks
// consecutive failures. All public methods are safe for concurrent use.
type HealthChecker struct {
	target        Target
	status        *ServiceStatus
	mu            sync.RWMutex
	checkInterval time.Duration
	failThreshold int
	stopChan      chan struct{}
	stopOnce      sync.Once
	logger        *slog.Logger
}

// NewHealthChecker creates a checker. It starts in a healthy state; call
// Start to begin probing.
func NewHealthChecker(target Target, checkInterval time.Duration, failThreshold int, logger *slog.Logger) *HealthChecker {
	if failThreshold <= 0 {
		failThreshold = 1
	}
	if checkInterval <= 0 {
		checkInterval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthChecker{
		target:        target,
		checkInterval: checkInterval,
		failThreshold: failThreshold,
		stopChan:      make(chan struct{}),
		logger:        logger.With("service", target.Name()),
		status: &ServiceStatus{
			Name:          target.Name(),
			IsHealthy:     true,
			LastCheckTime: time.Now(),
		},
	}
}

// Start performs an immediate check, then checks at regular intervals until
// Stop is called or ctx is cancelled. It blocks; run it in a goroutine.
func (hc *HealthChecker) Start(ctx context.Context) {
	ticker := time.NewTicker(hc.checkInterval)
	defer ticker.Stop()

	hc.CheckNow(ctx)

	for {
		select {
		case <-ticker.C:
			hc.CheckNow(ctx)
		case <-hc.stopChan:
			hc.logger.Info("health checker stopped")
			return
		case <-ctx.Done():
			hc.logger.Info("health checker context cancelled")
			return
		}
	}
}

// CheckNow executes a single health check and updates the status.
func (hc *HealthChecker) CheckNow(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	isHealthy, err := hc.target.HealthCheck(checkCtx)

	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.status.LastCheckTime = time.Now()

	if isHealthy {
		if !hc.status.IsHealthy {
			hc.logger.Info("service recovered")
		}
		hc.status.IsHealthy = true
		hc.status.ConsecutiveFails = 0
		hc.status.ErrorMessage = ""
		return
	}

	hc.status.ConsecutiveFails++
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	hc.status.ErrorMessage = fmt.Sprintf("Health check failed: %s", errMsg)

	if hc.status.ConsecutiveFails >= hc.failThreshold {
		hc.status.IsHealthy = false
		hc.logger.Error("health check failed, marking as unhealthy", "consecutive_fails", hc.status.ConsecutiveFails)
	} else {
		hc.logger.Warn("health check failed",
			"consecutive_fails", hc.status.ConsecutiveFails,
			"threshold", hc.failThreshold,
			"error", errMsg,
		)
	}
}

// GetStatus returns a copy of the current health status.
func (hc *HealthChecker) GetStatus() ServiceStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return *hc.status
}

// Stop terminates the checking loop. Safe to call multiple times.
func (hc *HealthChecker) Stop() {
	hc.stopOnce.Do(func() { close(hc.stopChan) })
}

// Set groups the checkers behind the readiness endpoint.
type Set []*HealthChecker

// Start launches every checker in its own goroutine.
func (s Set) Start(ctx context.Context) {
	for _, hc := range s {
		go hc.Start(ctx)
	}
}

// Stop stops every checker.
func (s Set) Stop() {
	for _, hc := range s {
		hc.Stop()
	}
}

// Ready reports whether every checker is healthy.
func (s Set) Ready() bool {
	for _, hc := range s {
		if !hc.GetStatus().IsHealthy {
			return false
		}
	}
	return true
}

// Statuses returns a snapshot of every checker.
func (s Set) Statuses() []ServiceStatus {
	out := make([]ServiceStatus, 0, len(s))
	for _, hc := range s {
		out = append(out, hc.GetStatus())
	}
	return out
}
