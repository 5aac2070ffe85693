package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nan5895/church-budget-app/internal/backend"
	"github.com/nan5895/church-budget-app/internal/blob"
	"github.com/nan5895/church-budget-app/internal/blob/drive"
	"github.com/nan5895/church-budget-app/internal/cli"
	apphttp "github.com/nan5895/church-budget-app/internal/http"
	"github.com/nan5895/church-budget-app/internal/log"
	"github.com/nan5895/church-budget-app/internal/ocr"
	"github.com/nan5895/church-budget-app/internal/ocr/vision"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting budget-server")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	// Receipt OCR and Drive uploads are optional features. Missing
	// credentials disable them; expenses can still be entered by hand.
	var recognizer ocr.TextRecognizer
	if client, err := vision.NewFromEnv(ctx); err != nil {
		logger.Warn("Receipt OCR disabled", log.FieldError, err)
	} else {
		recognizer = client
		logger.Info("Receipt OCR enabled")
	}

	var uploader blob.Uploader
	if client, err := drive.NewFromEnv(ctx); err != nil {
		logger.Warn("Receipt uploads disabled", log.FieldError, err)
	} else {
		uploader = client
		logger.Info("Receipt uploads enabled", "folder_id", cfg.GoogleDriveFolderID)
	}

	srv := apphttp.NewServer(":"+cfg.Port, result.Backend, apphttp.Options{
		Recognizer:         recognizer,
		Uploader:           uploader,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheTTL:           cfg.CacheTTL,
		TrustedProxies:     cfg.TrustedProxies,
	})

	// Receipt scans hold the response open while the Vision call runs, and
	// phone uploads of 10MB receipts can be slow, so both directions get
	// generous timeouts.
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", log.FieldError, err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}
		cancel()
	}()

	logger.Info("Server listening",
		"addr", srv.Addr,
		log.FieldBackend, cfg.DataBackend,
		"ocr", recognizer != nil,
		"drive", uploader != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", log.FieldError, err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
