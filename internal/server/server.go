// Package server provides the HTTP server and routing for mandiprice.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"mandiprice/internal/facade"
	"mandiprice/internal/warming"
)

// Config holds server configuration
type Config struct {
	Log         zerolog.Logger
	Facade      *facade.Service
	Warmer      *warming.Warmer
	Commodities []string
	State       string
	Port        string
	TrendLimit  int
}

// Server represents the HTTP server
type Server struct {
	router      *chi.Mux
	server      *http.Server
	log         zerolog.Logger
	facade      *facade.Service
	warmer      *warming.Warmer
	commodities []string
	state       string
	trendLimit  int
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		log:         cfg.Log.With().Str("component", "server").Logger(),
		facade:      cfg.Facade,
		warmer:      cfg.Warmer,
		commodities: cfg.Commodities,
		state:       cfg.State,
		trendLimit:  cfg.TrendLimit,
	}
	if s.trendLimit <= 0 {
		s.trendLimit = 100
	}
	if s.state == "" {
		s.state = "Karnataka"
	}

	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// The upstream client bounds itself at ~23s; leave headroom for
		// serialization so slow upstream calls still get a response out.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/market-prices", s.handleMarketPrices)
		r.Get("/price-trends", s.handlePriceTrends)
		r.Get("/price", s.handlePrice)
		r.Post("/update-cache", s.handleUpdateCache)
		r.Post("/update-cache/all", s.handleUpdateCacheAll)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// Start begins listening; it blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("server listening")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router exposes the mux for tests.
func (s *Server) Router() http.Handler { return s.router }
