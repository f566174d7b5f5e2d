package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/obsidianstack/holecheck/server/internal/api"
	"github.com/obsidianstack/holecheck/server/internal/auth"
	"github.com/obsidianstack/holecheck/server/internal/config"
	"github.com/obsidianstack/holecheck/server/internal/store"
	"github.com/obsidianstack/holecheck/server/internal/ws"
)

const (
	shutdownTimeout = 10 * time.Second
	wsPollInterval  = 2 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	envFile := flag.String("env-file", ".env", "optional dotenv file holding secrets such as the API key")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Existing environment variables win over the file.
	if err := godotenv.Load(*envFile); err != nil {
		slog.Debug("no env file loaded", "path", *envFile, "err", err)
	} else {
		slog.Info("loaded env file", "path", *envFile)
	}

	slog.Info("holecheck-server starting", "config", *configPath)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"run_ttl", cfg.Server.Runs.TTL,
		"poor_ratio", cfg.Server.Rules.Poor,
		"critical_ratio", cfg.Server.Rules.Critical,
		"workers", cfg.Server.Rules.Workers,
	)
	if cfg.Server.Auth.Mode == "apikey" && cfg.Server.Auth.Key() == "" {
		slog.Warn("auth mode is apikey but no key is set; requests are not authenticated",
			"key_env", cfg.Server.Auth.KeyEnv)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Run store with background TTL eviction.
	st := store.New(cfg.Server.Runs.TTL)
	go st.Run(ctx)

	// WebSocket hub pushes the run list to clients when it changes.
	hub := ws.New(st, wsPollInterval)
	go hub.Run(ctx)

	// Combined HTTP server: REST API, /metrics and the WebSocket stream.
	requireKey := auth.APIKey(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
	)
	httpMux := http.NewServeMux()
	httpMux.Handle("/", api.New(st, cfg.Server))
	httpMux.Handle("/ws/runs", requireKey(hub))

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("holecheck-server shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown", "err", err)
	}
}
