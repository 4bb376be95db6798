package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/weiawesome/sketch-relay/internal/config"
	"github.com/weiawesome/sketch-relay/internal/handler"
	"github.com/weiawesome/sketch-relay/internal/history"
	"github.com/weiawesome/sketch-relay/internal/hub"
	"github.com/weiawesome/sketch-relay/internal/registry"
	"github.com/weiawesome/sketch-relay/internal/relay"
	pkglog "github.com/weiawesome/sketch-relay/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	cfg.Log.ServiceName = "sketch-relay"
	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting sketch-relay")

	// History is a replay cache, not a system of record: a missing
	// Redis degrades to an in-process store instead of aborting.
	var store history.Store
	redisStore, err := history.NewRedisStore(cfg.Redis.URL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, history will not survive restarts")
		store = history.NewMemoryStore()
	} else {
		defer redisStore.Close()
		logger.Info().Msg("connected to redis history store")
		store = redisStore
	}

	wsHub := hub.NewHub(cfg.WebSocket)
	reg := registry.New()
	coordinator := relay.New(wsHub, reg, store)

	wsHandler := handler.NewWSHandler(wsHub, coordinator, cfg.WebSocket.SendBuffer)

	mux := http.NewServeMux()
	wsHandler.RegisterRoutes(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Canvas client and its assets.
	staticFS := http.FileServer(http.Dir(cfg.Static.Dir))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.ServeFile(w, r, filepath.Join(cfg.Static.Dir, "canvas.html"))
			return
		}
		staticFS.ServeHTTP(w, r)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      pkglog.HTTPMiddleware(logger)(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("sketch-relay listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down sketch-relay")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	// Let queued history writes settle before the store goes away.
	coordinator.Drain()

	logger.Info().Msg("sketch-relay stopped")
}
