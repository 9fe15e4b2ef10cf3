package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"clubfund/internal/amqp"
	"clubfund/internal/core"
	"clubfund/internal/ledger"
	"clubfund/internal/services"
	"clubfund/internal/sheets/memory"
	storemem "clubfund/internal/store/memory"
)

type fakeSender struct {
	messages []string
	err      error
}

func (f *fakeSender) Send(_ context.Context, content string) error {
	f.messages = append(f.messages, content)
	return f.err
}

type failingExporter struct{}

func (failingExporter) ExportBalances(context.Context, ledger.FundSummary, time.Time) error {
	return errors.New("quota exceeded")
}

func seededFund(t *testing.T) *services.FundService {
	t.Helper()
	st := storemem.New()
	ctx := context.Background()
	an, err := st.CreateMember(ctx, core.Member{Name: "An"})
	if err != nil {
		t.Fatal(err)
	}
	binh, _ := st.CreateMember(ctx, core.Member{Name: "Bình"})
	_, _ = st.CreateContribution(ctx, core.Contribution{MemberID: an.ID, Amount: core.VND(300000), Type: core.Deposit, ContributionDate: "2025-03-01"})
	_, _ = st.CreateContribution(ctx, core.Contribution{MemberID: binh.ID, Amount: core.VND(80000), Type: core.SessionPayment, ContributionDate: "2025-03-02"})
	return services.NewFundService(st, st, nil, time.UTC)
}

func TestHandleLedgerChanged_Exports(t *testing.T) {
	exporter := memory.New()
	w := NewLedgerWorker(seededFund(t), exporter, nil, 5)

	msg := amqp.NewLedgerChangedMessage(amqp.KindContributionCreated, 1, 1)
	if err := w.HandleLedgerChanged(context.Background(), msg); err != nil {
		t.Fatalf("HandleLedgerChanged: %v", err)
	}
	rows := exporter.Rows()
	if len(rows) != 4 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[3][4] != int64(220000) {
		t.Errorf("total = %v", rows[3][4])
	}
}

func TestHandleLedgerChanged_ExportFailureIsReturned(t *testing.T) {
	w := NewLedgerWorker(seededFund(t), failingExporter{}, nil, 5)
	err := w.HandleLedgerChanged(context.Background(), amqp.NewLedgerChangedMessage(amqp.KindSessionChanged, 3, 0))
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected export error, got %v", err)
	}
}

func TestExportSnapshot_NoExporter(t *testing.T) {
	w := NewLedgerWorker(seededFund(t), nil, nil, 5)
	if err := w.ExportSnapshot(context.Background()); err != nil {
		t.Fatalf("ExportSnapshot without exporter: %v", err)
	}
}

func TestSendDigest(t *testing.T) {
	sender := &fakeSender{}
	w := NewLedgerWorker(seededFund(t), nil, sender, 5)

	if err := w.SendDigest(context.Background()); err != nil {
		t.Fatalf("SendDigest: %v", err)
	}
	if len(sender.messages) != 1 {
		t.Fatalf("messages = %v", sender.messages)
	}
	msg := sender.messages[0]
	if !strings.Contains(msg, "220.000đ") || !strings.Contains(msg, "Bình: -80.000đ") {
		t.Errorf("digest = %s", msg)
	}

	sender.err = errors.New("discord down")
	if err := w.SendDigest(context.Background()); err == nil {
		t.Error("expected send error")
	}
}
