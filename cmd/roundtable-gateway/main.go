// Command roundtable-gateway serves the strategic round table API: REST
// session control plus the per-session WebSocket live feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/centaurus-ai/roundtable/internal/dotenv"
	"github.com/centaurus-ai/roundtable/pkg/core/providers/gemini"
	"github.com/centaurus-ai/roundtable/pkg/core/report"
	"github.com/centaurus-ai/roundtable/pkg/core/session"
	"github.com/centaurus-ai/roundtable/pkg/gateway/config"
	"github.com/centaurus-ai/roundtable/pkg/gateway/live"
	"github.com/centaurus-ai/roundtable/pkg/gateway/runtime"
	gatewayserver "github.com/centaurus-ai/roundtable/pkg/gateway/server"
	"github.com/centaurus-ai/roundtable/pkg/gateway/storage"
)

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(ctx context.Context, stderr io.Writer) error {
	if err := dotenv.LoadDefault(); err != nil {
		return err
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	var db *storage.Store
	if cfg.DBPath != "" {
		db, err = storage.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
	}

	if cfg.RecordingDir != "" {
		if err := os.MkdirAll(cfg.RecordingDir, 0o755); err != nil {
			return fmt.Errorf("create recording dir: %w", err)
		}
	}

	// A stored proxy setting routes Gemini traffic unless the
	// environment already pins a base URL.
	baseURL := cfg.GeminiBaseURL
	if baseURL == "" && db != nil {
		if proxy, ok, err := db.Setting(storage.SettingProxy); err == nil && ok {
			baseURL = proxy
		}
	}

	provider := gemini.New(cfg.GeminiAPIKey,
		gemini.WithBaseURL(baseURL),
		gemini.WithTextModel(cfg.TextModel),
		gemini.WithTTSModel(cfg.TTSModel),
	)

	reports, err := report.NewGenAI(ctx, cfg.GeminiAPIKey, cfg.ReportModel)
	if err != nil {
		return fmt.Errorf("init report generator: %w", err)
	}

	store := session.NewStore()
	hub := live.NewHub(logger)
	manager := runtime.NewManager(runtime.Deps{
		Store:          store,
		Hub:            hub,
		Gen:            runtime.GeminiGenerator{Provider: provider},
		Synth:          provider,
		Reports:        reports,
		DB:             db,
		TickInterval:   cfg.TickInterval,
		ReportInterval: cfg.ReportInterval,
		RecordingDir:   cfg.RecordingDir,
		Logger:         logger,
	})
	defer manager.Shutdown()

	gw := gatewayserver.New(cfg, logger, store, manager, hub, db)
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}

	logger.Info("starting gateway", "addr", cfg.Addr)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("gateway stopped")
	return nil
}

func main() {
	if err := run(context.Background(), os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "roundtable-gateway: %v\n", err)
		os.Exit(1)
	}
}
