package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/datalens-ai/lens/internal/api"
	"github.com/datalens-ai/lens/internal/config"
	"github.com/datalens-ai/lens/internal/domain/activity"
	"github.com/datalens-ai/lens/internal/domain/blog"
	"github.com/datalens-ai/lens/internal/domain/project"
	"github.com/datalens-ai/lens/internal/domain/session"
	"github.com/datalens-ai/lens/internal/notify"
	"github.com/datalens-ai/lens/internal/sqlite"
	"github.com/datalens-ai/lens/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	stateRepo := sqlite.NewStateRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	notifier := notify.NewLogNotifier(logger)
	activitySvc := activity.NewService(activityRepo, logger)

	tokens := session.NewTokens(stateRepo)
	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, tokens, logger)
	sessionSvc := session.NewService(client, tokens, stateRepo, activitySvc, notifier, logger)
	client.OnSessionExpired(func() { sessionSvc.Expire(context.Background()) })

	projectStore := project.NewStore(client, stateRepo, activitySvc, notifier, logger)
	blogStore := blog.NewStore(client, activitySvc, notifier, logger)

	ctx := context.Background()
	if err := sessionSvc.Load(ctx); err != nil {
		logger.Error("failed to load session", "error", err)
		os.Exit(1)
	}
	if err := projectStore.Load(ctx); err != nil {
		logger.Error("failed to load project selection", "error", err)
		os.Exit(1)
	}

	// Revalidate a restored session in the background; a stale token pair
	// tears itself down through the expiry hook.
	if sessionSvc.IsAuthenticated() {
		go func() {
			if err := sessionSvc.RefreshUser(context.Background()); err != nil {
				logger.Warn("restored session could not be refreshed", "error", err)
			}
		}()
	}

	server := web.NewServer(sessionSvc, projectStore, blogStore, activitySvc, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	go func() {
		logger.Info("dashboard listening", "addr", addr, "api", cfg.API.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
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
