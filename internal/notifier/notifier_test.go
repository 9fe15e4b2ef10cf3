package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"clubfund/internal/core"
	"clubfund/internal/ledger"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

type fakeSession struct {
	errs    []error
	calls   int
	channel string
	content string
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.calls++
	f.channel, f.content = channelID, content
	if len(f.errs) >= f.calls && f.errs[f.calls-1] != nil {
		return nil, f.errs[f.calls-1]
	}
	return &discordgo.Message{ID: "m1", ChannelID: channelID, Content: content}, nil
}

func newTestNotifier(s *fakeSession) *DiscordNotifier {
	n := newDiscordNotifier(s, "chan-1")
	n.sleep = func(time.Duration) {}
	return n
}

func TestSendWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"first attempt succeeds", nil, 1, false},
		{"timeout then success", []error{timeoutErr{}}, 2, false},
		{"timeout twice", []error{timeoutErr{}, timeoutErr{}}, 2, true},
		{"permanent error is not retried", []error{errors.New("HTTP 403 Forbidden")}, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSession{errs: tt.errs}
			err := newTestNotifier(s).Send(context.Background(), "hello")
			if (err != nil) != tt.wantErr {
				t.Errorf("Send() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", s.calls, tt.wantCalls)
			}
			if s.channel != "chan-1" {
				t.Errorf("channel = %q", s.channel)
			}
		})
	}
}

func TestSendEmptyContentIsNoop(t *testing.T) {
	s := &fakeSession{}
	if err := newTestNotifier(s).Send(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if s.calls != 0 {
		t.Errorf("empty message should not be sent")
	}
}

func TestFormatDigest(t *testing.T) {
	d := Digest{
		Summary: ledger.FundSummary{
			TotalFundBalance: core.VND(1250000),
			Balances: []ledger.MemberBalance{
				{MemberID: 1, MemberName: "An", CurrentBalance: core.VND(1400000)},
				{MemberID: 2, MemberName: "Bình", CurrentBalance: core.VND(-50000)},
				{MemberID: 3, MemberName: "Chi", CurrentBalance: core.VND(-100000)},
			},
		},
		Stats:       ledger.FundStats{MembersWithFund: 1, MembersInDebt: 2, TransactionsThisMonth: 7},
		Orphans:     1,
		GeneratedAt: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
		Debtors:     5,
	}
	msg := FormatDigest(d)

	for _, want := range []string{
		"10/03/2025",
		"Tổng quỹ: **1.250.000đ**",
		"Thành viên đang nợ: 2",
		"Giao dịch tháng này: 7",
		"1. Chi: -100.000đ",
		"2. Bình: -50.000đ",
		"1 khoản đóng góp",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("digest missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "An:") {
		t.Errorf("members with positive balance should not be listed:\n%s", msg)
	}
}

func TestFormatDigestWithoutDebtorList(t *testing.T) {
	msg := FormatDigest(Digest{
		Summary: ledger.FundSummary{Balances: []ledger.MemberBalance{{MemberName: "Bình", CurrentBalance: core.VND(-1)}}},
		Debtors: 0,
	})
	if strings.Contains(msg, "Cần nạp thêm") {
		t.Errorf("debtor list should be omitted:\n%s", msg)
	}
}
