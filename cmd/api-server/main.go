package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jlvsolutions/WorldCities-sub000/internal/logger"
	"github.com/jlvsolutions/WorldCities-sub000/internal/server"
	"github.com/jlvsolutions/WorldCities-sub000/pkg/util"
)

func main() {
	_ = godotenv.Load()
	cfg := server.ConfigFromEnv()

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	flag.StringVar(&cfg.SeedFile, "seed", cfg.SeedFile, "YAML dataset replacing the built-in seed")
	openapi := flag.String("openapi", "", "write OpenAPI JSON and exit")
	level := flag.String("log-level", util.GetEnv("LOG_LEVEL", "info"), "log level")
	format := flag.String("log-format", util.GetEnv("LOG_FORMAT", "json"), "log format (json|console)")
	flag.Parse()

	l, err := logger.New(*level, *format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger.Set(l)
	defer func() { _ = l.Sync() }()

	if *openapi != "" && cfg.JWTSecret == "" {
		// the document does not depend on the secret
		cfg.JWTSecret = "openapi"
	}
	s, err := server.New(cfg)
	if err != nil {
		logger.L.Errorw("Application cannot start", "err", err)
		os.Exit(1)
	}
	defer s.Close()

	if *openapi != "" {
		data, err := json.MarshalIndent(s.API.OpenAPI(), "", "  ")
		if err != nil {
			logger.L.Errorw("marshal openapi", "err", err)
			os.Exit(1)
		}
		p := filepath.Clean(*openapi)
		if err := os.WriteFile(p, data, 0o600); err != nil {
			logger.L.Errorw("write openapi", "err", err)
			os.Exit(1)
		}
		return
	}

	sched, err := s.StartJobs(cfg.PurgeEvery)
	if err != nil {
		logger.L.Errorw("schedule refresh token purge", "err", err)
		os.Exit(1)
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	logger.L.Infow("listening", "addr", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.L.Errorw("server error", "err", err)
		os.Exit(1)
	}
	s.Events.Wait()
}
