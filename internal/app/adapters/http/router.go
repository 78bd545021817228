package http

import (
	"context"
	"errors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"
	"net/http"
	"time"
	"tirc/internal/app/adapters/http/handlers"
	"tirc/internal/app/adapters/http/middlewares"
	"tirc/internal/app/infrastructure/config"
	"tirc/internal/app/ports"
	"tirc/pkg/logger"
)

type Router struct {
	router      *gin.Engine
	handlers    *handlers.Handlers
	middlewares *middlewares.Middlewares

	log     logger.Logger
	manager *config.Manager
}

func NewRouter(log logger.Logger, manager *config.Manager, s handlers.Session, chat ports.ChatPort, catalog ports.CatalogPort, prefs ports.PreferencesPort) *Router {
	r := &Router{
		router:      gin.New(),
		handlers:    handlers.New(log, manager, s, chat, catalog, prefs),
		middlewares: middlewares.New(log),
		log:         log,
		manager:     manager,
	}
	cfg := manager.Get()

	r.router.Use(gin.Recovery(), r.middlewares.RequestLog())

	// Without a token the debug endpoints stay off instead of being open.
	if cfg.HTTP.AuthToken != "" {
		accounts := gin.Accounts{"admin": cfg.HTTP.AuthToken}

		pprofGroup := r.router.Group("/", gin.BasicAuth(accounts))
		pprof.Register(pprofGroup)

		r.router.GET("/metrics", gin.BasicAuth(accounts), gin.WrapH(promhttp.Handler()))
	} else {
		log.Warn("HTTP auth token is empty, /metrics and pprof are disabled")
	}

	api := r.router.Group("/api", r.middlewares.Auth(cfg.HTTP.AuthToken))
	api.GET("/status", r.handlers.Status)

	api.GET("/channels", r.handlers.Channels)
	api.POST("/channels/:name", r.handlers.JoinChannel)
	api.DELETE("/channels/:name", r.handlers.PartChannel)

	api.GET("/messages", r.handlers.Messages)
	api.POST("/messages", r.handlers.SendMessage)

	api.GET("/emotes", r.handlers.Emotes)
	api.GET("/emotes/:name", r.handlers.Emote)
	api.POST("/emotes/reload", r.handlers.ReloadEmotes)

	api.GET("/preferences", r.handlers.Preferences)
	api.PUT("/preferences", r.handlers.UpdatePreferences)

	api.GET("/settings", r.handlers.Settings)
	api.PUT("/settings", r.handlers.UpdateSettings)

	r.router.GET("/ws", r.middlewares.Auth(cfg.HTTP.AuthToken), r.handlers.Stream)

	return r
}

func (r *Router) Handler() http.Handler {
	return r.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (r *Router) Run(ctx context.Context) error {
	srv := r.newServer(r.manager.Get().HTTP.Listen, r.router)

	errCh := make(chan error, 1)
	go func() {
		r.log.Info("HTTP server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (r *Router) newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}
