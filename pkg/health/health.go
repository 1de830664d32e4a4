// Package health serves an aggregated liveness endpoint for the studio's
// stores and brokers.
package health

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Koyo-os/form-studio/pkg/logger"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type (
	// Healther is implemented by every component that can report its state.
	// IsHealthy must return quickly.
	Healther interface {
		IsHealthy() bool
	}

	component struct {
		name     string
		healther Healther
	}

	// HealthChecker reports healthy only when every registered component does
	HealthChecker struct {
		logger     *logger.Logger
		components []component
	}
)

func NewHealthChecker(logger *logger.Logger) *HealthChecker {
	return &HealthChecker{
		logger: logger,
	}
}

// Register adds a named component, nil healthers are skipped
func (h *HealthChecker) Register(name string, healther Healther) *HealthChecker {
	if healther != nil {
		h.components = append(h.components, component{name: name, healther: healther})
	}
	return h
}

// HealthCheck answers 200 "OK" or 500 "Not OK". Every component is checked
// so each failure gets logged.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ok := true

	for _, c := range h.components {
		if !c.healther.IsHealthy() {
			ok = false
			h.logger.Error("health check failed", zap.String("component", c.name))
		}
	}

	if ok {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	} else {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Not OK"))
	}
}

// Run serves GET /health on addr until ctx is done
func (h *HealthChecker) Run(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.HealthCheck)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	h.logger.Info("Starting health check server", zap.String("addr", addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		h.logger.Error("Failed to start health check server", zap.Error(err))
		return err
	}

	return nil
}
