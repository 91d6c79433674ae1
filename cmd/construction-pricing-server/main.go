package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/construction-pricing/internal/logging"
	"github.com/iwvelando/construction-pricing/internal/server"
	"github.com/iwvelando/construction-pricing/internal/store"
	"github.com/iwvelando/construction-pricing/pkg/constants"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	envFile := flag.String("env-file", ".env", "path to an optional dotenv file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	if err := server.LoadDotEnv(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load environment file\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open project database",
			zap.String("op", "main"),
			zap.String("path", cfg.DatabasePath),
			zap.Error(err),
		)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := store.Migrate(db); err != nil {
		logger.Fatal("failed to migrate project database",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	handler := server.NewHandler(logger, cfg.UploadSizeBytes(), version, store.NewRepository(db, logger))
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down server",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	logger.Info("pricing server listening",
		zap.String("op", "main"),
		zap.String("address", cfg.Address),
		zap.String("database", cfg.DatabasePath),
		zap.String("version", version),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
