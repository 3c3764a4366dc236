// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

// package server assembles and runs the site's HTTP surface: health
// endpoints, the collected static files, and the session-based auth API.
package server // import "siteman/internal/server"

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"siteman/internal/config"
	"siteman/internal/db"
	"siteman/internal/logging"
)

// Server wraps the gin engine together with the settings and store it
// serves from.
type Server struct {
	settings *config.Settings
	store    db.Store
	engine   *gin.Engine
	limiters *rateLimiterStore
}

// New builds the router. Debug settings leave gin in its verbose debug
// mode; otherwise release mode is selected before the engine is created.
func New(settings *config.Settings, store db.Store) *Server {
	if !settings.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{settings: settings, store: store, engine: engine, limiters: newRateLimiterStore()}

	engine.Use(requestIDMiddleware())
	engine.Use(requestLogMiddleware())
	engine.Use(securityHeadersMiddleware())
	engine.Use(allowedHostsMiddleware(settings))
	engine.Use(s.rateLimitMiddleware())
	if settings.Debug {
		engine.Use(cors.Default())
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.healthzHandler)
	s.engine.GET("/readyz", s.readyzHandler)

	s.engine.Static(staticRoute(s.settings.Static.URL), s.settings.Static.Root)

	api := s.engine.Group("/api")
	{
		api.POST("/login", s.loginHandler)
		api.POST("/logout", s.logoutHandler)

		authed := api.Group("")
		authed.Use(s.sessionMiddleware())
		authed.GET("/me", s.meHandler)
		authed.GET("/users", s.requireSuperuser(), s.usersHandler)
	}
}

// staticRoute normalizes STATIC_URL into a gin route prefix.
func staticRoute(url string) string {
	if len(url) > 1 && url[len(url)-1] == '/' {
		return url[:len(url)-1]
	}
	return url
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully. Production mode applies conservative server timeouts and
// caps GOMAXPROCS at the configured worker count; the development server
// runs without timeouts so long debugger pauses don't kill connections.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.settings.Addr,
		Handler: s.engine,
	}

	if !s.settings.Debug {
		if s.settings.WorkerCount < runtime.NumCPU() {
			runtime.GOMAXPROCS(s.settings.WorkerCount)
		}
		srv.ReadHeaderTimeout = 5 * time.Second
		srv.ReadTimeout = 30 * time.Second
		srv.WriteTimeout = 30 * time.Second
		srv.IdleTimeout = 120 * time.Second
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info("server is shutting down..")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
