package main

import (
	"context"
	"errors"
	"os"

	"clubfund/internal/amqp"
	"clubfund/internal/cli"
	applog "clubfund/internal/log"
	"clubfund/internal/notifier"
	"clubfund/internal/scheduler"
	"clubfund/internal/services"
	"clubfund/internal/sheets"
	gsheet "clubfund/internal/sheets/google"
	"clubfund/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.BootstrapLogger(applog.ComponentWorker))
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	logger.Info("Starting clubfund-worker")

	// The worker only reads; ledger events are consumed, never published.
	backendCfg := *cfg
	backendCfg.AMQPURL = ""
	result := cli.InitBackend(context.Background(), logger, &backendCfg)

	fund := services.NewFundService(result.Backend, result.Backend, nil, cfg.Location())

	var exporter sheets.BalanceExporter
	if cfg.SheetsExportEnabled {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Google Sheets export disabled")
	}

	var (
		sender  worker.Sender
		discord *notifier.DiscordNotifier
	)
	if cfg.DiscordEnabled {
		var err error
		discord, err = notifier.NewDiscord(cfg.DiscordBotToken, cfg.DiscordChannelID)
		if err != nil {
			logger.Error("Failed to initialize Discord notifier", applog.FieldError, err)
			os.Exit(1)
		}
		sender = discord
		logger.Info("Discord digest enabled", "channel_id", cfg.DiscordChannelID)
	}

	ledgerWorker := worker.NewLedgerWorker(fund, exporter, sender, cfg.DigestDebtors)

	var consumer *amqp.Client
	if cfg.AMQPEnabled() {
		var err error
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
	}

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	sched := scheduler.New(runCtx, ledgerWorker, cfg.Location())
	digestCron := cfg.DigestCron
	if sender == nil {
		digestCron = ""
	}
	exportCron := cfg.ExportCron
	if exporter == nil {
		exportCron = ""
	}
	if err := sched.Register(exportCron, digestCron); err != nil {
		logger.Error("Failed to register scheduled tasks", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(runCtx, logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		sched.Stop(shutdownCtx)
		if consumer != nil {
			if err := consumer.Close(); err != nil {
				logger.Error("AMQP close error", applog.FieldError, err)
			}
		}
		if discord != nil {
			if err := discord.Close(); err != nil {
				logger.Error("Discord close error", applog.FieldError, err)
			}
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", applog.FieldError, err)
			}
		}
	})

	// Catch up on anything changed while the worker was down.
	if exporter != nil {
		sched.RunExportNow()
	}
	sched.Start()

	if consumer != nil {
		go func() {
			err := consumer.ConsumeLedgerChanged(ctx, ledgerWorker.HandleLedgerChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", applog.FieldError, err)
			}
			stop()
		}()
		logger.Info("Consuming ledger events", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled, relying on scheduled exports only")
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
