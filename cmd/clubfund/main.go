package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"clubfund/internal/cli"
	apphttp "clubfund/internal/http"
	applog "clubfund/internal/log"
	"clubfund/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.BootstrapLogger(applog.ComponentApp))
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	result := cli.InitBackend(context.Background(), logger, cfg)
	store := result.Backend

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Services{
		Members:    services.NewMemberService(store, result.Publisher),
		Sessions:   services.NewSessionService(store, store, result.Publisher),
		Fund:       services.NewFundService(store, store, result.Publisher, cfg.Location()),
		Calculator: services.NewCalculatorService(store),
		Health:     store,
	})

	ctx, done := cli.GracefulShutdown(context.Background(), logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", applog.FieldError, err)
			}
		}
	})

	logger.Info("Starting clubfund server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", cfg.Location().String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
