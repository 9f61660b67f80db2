package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/foodwheel/internal/config"
	"github.com/dukerupert/foodwheel/internal/database"
	"github.com/dukerupert/foodwheel/internal/logging"
	"github.com/dukerupert/foodwheel/internal/server"
	"github.com/dukerupert/foodwheel/internal/store"
)

func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if cfg.AllowsAnyOrigin() {
		slog.Warn("CORS allows any origin; set CORS_ORIGINS to restrict the admin API")
	}
	if cfg.TrustProxy {
		slog.Info("trusting forwarding headers for client addresses")
	}

	backend, db, err := openBackend(cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}
	docs := store.NewDocuments(backend)

	srv, err := server.New(cfg, docs, logger)
	if err != nil {
		slog.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := srv.PrizeStore().Seed(seedCtx); err != nil {
		slog.Error("failed to seed foods", "error", err)
		os.Exit(1)
	}
	if err := srv.CodeStore().Seed(seedCtx); err != nil {
		slog.Error("failed to seed codes", "error", err)
		os.Exit(1)
	}
	seedCancel()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	srv.BackupManager().Start(bgCtx)

	// Background cleanup goroutine
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, rl := range srv.RateLimiters() {
					rl.Cleanup()
				}
			case <-bgCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("foodwheel starting", "addr", ":"+cfg.Port, "store", cfg.StoreDriver)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	bgCancel()
	srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// openBackend returns the document backend for the configured driver. The
// *sql.DB is nil for the file driver.
func openBackend(cfg config.Config) (store.Backend, *sql.DB, error) {
	if cfg.StoreDriver == config.DriverSQLite {
		db, err := database.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		version, err := database.Version(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		slog.Info("database ready", "path", cfg.DBPath, "schema_version", version)
		return store.NewSQLiteBackend(db), db, nil
	}

	b, err := store.NewFileBackend(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return b, nil, nil
}
