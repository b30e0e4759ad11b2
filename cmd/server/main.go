package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/mcoot/impostor/internal/api"
	"github.com/mcoot/impostor/internal/config"
	"github.com/mcoot/impostor/internal/factory"
)

// flagKeys maps server flags onto config keys
var flagKeys = map[string]string{
	"host":      "server.host",
	"port":      "server.port",
	"log-level": "log.level",
	"storage":   "storage.type",
	"provider":  "content.provider",
	"word-bank": "content.word_bank_path",
	"strict":    "content.strict",
	"seed":      "game.seed",
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("impostor-server", pflag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file (default: ./impostor.yaml if present)")
	envFile := fs.String("env-file", ".env", "Path to .env file")
	fs.String("host", "", "Host to listen on (env: IMPOSTOR_SERVER_HOST)")
	fs.Int("port", 8080, "Port to listen on (env: IMPOSTOR_SERVER_PORT, PORT)")
	fs.String("log-level", "info", "Log level: debug, info, warn, error (env: IMPOSTOR_LOG_LEVEL)")
	fs.String("storage", config.StorageMemory, "Session storage: memory, redis (env: IMPOSTOR_STORAGE_TYPE)")
	fs.String("provider", config.ProviderStatic, "Content provider: llm, wordbank, static (env: IMPOSTOR_CONTENT_PROVIDER)")
	fs.String("word-bank", "", "Word bank YAML file for the wordbank provider (env: IMPOSTOR_CONTENT_WORD_BANK_PATH)")
	fs.Bool("strict", false, "Return to setup instead of using fallback content (env: IMPOSTOR_CONTENT_STRICT)")
	fs.Uint64("seed", 0, "Seed for reproducible rounds, 0 for random (env: IMPOSTOR_GAME_SEED)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		return fmt.Errorf("load %s: %w", *envFile, err)
	}

	v := config.NewViper()
	if err := config.BindFlags(v, fs, flagKeys); err != nil {
		return err
	}
	cfg, err := config.Load(v, *configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	app, err := factory.New(factory.FromConfig(cfg, logger))
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close error", slog.String("error", err.Error()))
		}
	}()

	go app.Hub.Run()

	// Every process serves one fresh session, whatever the storage backend holds
	sess, err := app.OpenSession(context.Background())
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:     logger,
		Controller: app.Controller,
		Hub:        app.Hub,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	serverConfig.ReadTimeout = cfg.Server.ReadTimeout
	serverConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	server := api.NewServer(router, serverConfig, logger)
	server.RegisterOnShutdown(app.Hub.Close)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("session_id", string(sess.ID)),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	level, _ := config.ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
