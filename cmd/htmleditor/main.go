package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"htmleditor/internal/app"
	"htmleditor/internal/config"
	"htmleditor/internal/export"
	"htmleditor/internal/live"
	"htmleditor/internal/session"
)

func main() {
	cfg := config.Load()

	verbosity := cfg.LogVerbosity
	if cfg.Debug {
		verbosity = 2
	}
	var logPath *string
	if cfg.LogFile != "" {
		logPath = &cfg.LogFile
	}
	commonlog.Configure(verbosity, logPath)
	log := commonlog.GetLogger("htmleditor")

	var store session.Store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Info("using redis for session storage")
		redisStore, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			log.Criticalf("redis connection failed: %v", err)
			os.Exit(1)
		}
		store = redisStore
	} else {
		log.Info("using memory for session storage")
		store = session.NewMemoryStore(cfg.SessionTTL)
	}
	defer store.Close()

	hub := live.NewHub(cfg.CORSOrigin)
	exporter := export.NewService(cfg.ChromeTimeout, cfg.PandocPath)
	service := app.NewService(cfg, store, hub, exporter)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if cfg.SweepInterval > 0 {
		go service.Run(sweepCtx, cfg.SweepInterval)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// PDF export can run up to the chrome timeout.
		WriteTimeout: cfg.ChromeTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("htmleditor listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Criticalf("server failed: %v", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown error: %v", err)
	}
}
