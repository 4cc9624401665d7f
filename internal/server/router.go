// Package server exposes the budget service as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/budgetctl/budgetctl/internal/logging"
	"github.com/budgetctl/budgetctl/internal/service"
)

// maxUploadSize bounds a single statement upload.
const maxUploadSize = 10 << 20

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc *service.Service, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthzHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyses", createAnalysisHandler(svc, logger))
		r.Get("/analyses", listAnalysesHandler(svc, logger))
		r.Get("/analyses/{analysisId}", getAnalysisHandler(svc, logger))
		r.Get("/analyses/{analysisId}/comparison", compareHandler(svc, logger))

		r.Get("/transactions/unassigned", listUnassignedHandler(svc, logger))
		r.Post("/transactions/{transactionId}/category", assignCategoryHandler(svc, logger))

		r.Get("/rules", listRulesHandler(svc, logger))
		r.Get("/rules/{ruleId}", getRuleHandler(svc, logger))
		r.Delete("/rules/{ruleId}", deleteRuleHandler(svc, logger))

		r.Get("/categories", listCategoriesHandler(svc))
	})

	return r
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
