package worker

import (
	"context"
	"fmt"
	"time"

	"clubfund/internal/amqp"
	applog "clubfund/internal/log"
	"clubfund/internal/notifier"
	"clubfund/internal/services"
	"clubfund/internal/sheets"
)

type (
	// BalanceSource recomputes the fund report from the full history.
	BalanceSource interface {
		Balances(ctx context.Context) (services.BalanceReport, error)
	}

	Sender interface {
		Send(ctx context.Context, content string) error
	}
)

// LedgerWorker reacts to ledger changes by re-exporting balances, and
// posts the periodic digest. Exporter and sender are optional.
type LedgerWorker struct {
	balances BalanceSource
	exporter sheets.BalanceExporter
	sender   Sender
	debtors  int
	log      *applog.Logger
}

func NewLedgerWorker(balances BalanceSource, exporter sheets.BalanceExporter, sender Sender, debtors int) *LedgerWorker {
	return &LedgerWorker{
		balances: balances,
		exporter: exporter,
		sender:   sender,
		debtors:  debtors,
		log:      applog.Default(applog.ComponentWorker),
	}
}

// HandleLedgerChanged processes a single ledger change message from AMQP.
// Every kind triggers the same full recomputation.
func (w *LedgerWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.log.InfoContext(ctx, "Processing ledger change",
		applog.FieldMessageID, msg.ID,
		applog.FieldEventKind, msg.Kind,
		applog.FieldEntityID, msg.EntityID)

	if err := w.ExportSnapshot(ctx); err != nil {
		return fmt.Errorf("export after %s: %w", msg.Kind, err)
	}
	return nil
}

// ExportSnapshot recomputes the fund summary and overwrites the export sheet.
func (w *LedgerWorker) ExportSnapshot(ctx context.Context) error {
	if w.exporter == nil {
		w.log.DebugContext(ctx, "No balance exporter configured, skipping export")
		return nil
	}

	start := time.Now()
	report, err := w.balances.Balances(ctx)
	if err != nil {
		return fmt.Errorf("compute balances: %w", err)
	}
	if err := w.exporter.ExportBalances(ctx, report.FundSummary, report.GeneratedAt); err != nil {
		w.log.ErrorContext(ctx, "Failed to export balances", applog.FieldError, err)
		return fmt.Errorf("export balances: %w", err)
	}

	w.log.InfoContext(ctx, "Balances exported",
		"members", len(report.Balances),
		applog.FieldOperation, applog.OpExport,
		applog.FieldAmountDong, report.TotalFundBalance.Dong,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// SendDigest posts the fund digest through the configured sender.
func (w *LedgerWorker) SendDigest(ctx context.Context) error {
	if w.sender == nil {
		w.log.DebugContext(ctx, "No notifier configured, skipping digest")
		return nil
	}

	report, err := w.balances.Balances(ctx)
	if err != nil {
		return fmt.Errorf("compute balances: %w", err)
	}
	content := notifier.FormatDigest(notifier.Digest{
		Summary:     report.FundSummary,
		Stats:       report.Stats,
		Orphans:     report.OrphanedContributions,
		GeneratedAt: report.GeneratedAt,
		Debtors:     w.debtors,
	})
	if err := w.sender.Send(ctx, content); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	return nil
}
