package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/longregen/promptforge/internal/adapters/http/handlers"
	"github.com/longregen/promptforge/internal/adapters/http/middleware"
	"github.com/longregen/promptforge/internal/application/services"
	"github.com/longregen/promptforge/internal/config"
	"github.com/longregen/promptforge/internal/ports"
)

type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	optimizer  ports.PromptOptimizer
	analyzer   ports.Analyzer
	generator  ports.Generator
	ingestion  *services.IngestionService
}

func NewServer(
	cfg *config.Config,
	optimizer ports.PromptOptimizer,
	analyzer ports.Analyzer,
	generator ports.Generator,
	ingestion *services.IngestionService,
) *Server {
	s := &Server{
		config:    cfg,
		optimizer: optimizer,
		analyzer:  analyzer,
		generator: generator,
		ingestion: ingestion,
	}

	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(s.config.Server.CORSOrigins))
	r.Use(middleware.Metrics)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	defaults := ports.RunConfig{
		MinIterations:    s.config.Optimization.MinIterations,
		MaxIterations:    s.config.Optimization.MaxIterations,
		SuccessThreshold: s.config.Optimization.SuccessThreshold,
		TopK:             s.config.Optimization.TopK,
		Model:            s.config.LLM.Model,
		Temperature:      s.config.LLM.Temperature,
		MaxTokens:        s.config.LLM.MaxTokens,
	}

	r.Route("/api/v1", func(r chi.Router) {
		promptsHandler := handlers.NewPromptsHandler(s.optimizer, s.analyzer, s.generator, defaults)
		r.Post("/prompts/optimize", promptsHandler.Optimize)
		r.Post("/prompts/analyze", promptsHandler.Analyze)
		r.Post("/prompts/export", promptsHandler.Export)
		r.Post("/prompts/test", promptsHandler.Test)

		documentsHandler := handlers.NewDocumentsHandler(s.ingestion)
		r.Post("/documents", documentsHandler.Upload)
		r.Get("/documents", documentsHandler.List)
		r.Delete("/documents/{id}", documentsHandler.Delete)
		r.Get("/documents/stats", documentsHandler.Stats)
	})

	s.router = r
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // optimization runs are synchronous
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting HTTP server on %s", addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *chi.Mux {
	return s.router
}
