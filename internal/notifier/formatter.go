package notifier

import (
	"fmt"
	"strings"
	"time"

	"clubfund/internal/ledger"
)

// Digest is what the weekly message reports.
type Digest struct {
	Summary     ledger.FundSummary
	Stats       ledger.FundStats
	Orphans     int
	GeneratedAt time.Time
	// Debtors caps the listed negative balances; 0 lists none.
	Debtors int
}

// FormatDigest renders the weekly fund digest in Vietnamese.
func FormatDigest(d Digest) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🏸 **Quỹ CLB cầu lông** | %s\n\n", d.GeneratedAt.Format("02/01/2006")))
	b.WriteString(fmt.Sprintf("💰 Tổng quỹ: **%s**\n", d.Summary.TotalFundBalance))
	b.WriteString(fmt.Sprintf("✅ Thành viên còn quỹ: %d\n", d.Stats.MembersWithFund))
	b.WriteString(fmt.Sprintf("⚠️ Thành viên đang nợ: %d\n", d.Stats.MembersInDebt))
	b.WriteString(fmt.Sprintf("📒 Giao dịch tháng này: %d\n", d.Stats.TransactionsThisMonth))

	if debtors := ledger.Debtors(d.Summary.Balances, d.Debtors); d.Debtors > 0 && len(debtors) > 0 {
		b.WriteString("\n📌 **Cần nạp thêm:**\n")
		for i, m := range debtors {
			b.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, m.MemberName, m.CurrentBalance))
		}
	}

	if d.Orphans > 0 {
		b.WriteString(fmt.Sprintf("\n❗ %d khoản đóng góp không khớp thành viên nào, chưa tính vào quỹ.\n", d.Orphans))
	}
	return b.String()
}
