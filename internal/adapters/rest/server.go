package rest

import (
	"context"
	"fmt"
	"net/http"

	core_port "search-service/internal/core/port"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

// Server - наш REST API сервер.
type Server struct {
	httpServer *http.Server
	logger     core_port.LoggerPort
}

// NewServer создает новый экземпляр сервера.
func NewServer(
	port string,
	searchHandler *SearchHandler,
	savedSearchHandler *SavedSearchHandler,
	schedulerHandler *SchedulerHandler,
	baseLogger core_port.LoggerPort,
) *Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(LoggerMiddleware(baseLogger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Публичные роуты: поиск и справочники не требуют владельца.
		r.Post("/search", searchHandler.Search)
		r.Get("/dictionaries", searchHandler.GetDictionaries)

		// Служебный запуск прохода планировщика.
		r.Post("/scheduler/tick", schedulerHandler.RunTick)

		// Приватные роуты: идентификация через API Gateway (X-User-ID).
		r.Route("/saved-searches", func(r chi.Router) {
			r.Use(AuthMiddleware)

			r.Get("/", savedSearchHandler.List)
			r.Post("/", savedSearchHandler.Create)
			r.Get("/{searchID}", savedSearchHandler.Get)
			r.Patch("/{searchID}", savedSearchHandler.Update)
			r.Delete("/{searchID}", savedSearchHandler.Delete)
			r.Post("/{searchID}/execute", savedSearchHandler.Execute)
		})
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	return &Server{
		httpServer: srv,
		logger:     baseLogger,
	}
}

// Start запускает HTTP-сервер.
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", core_port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
