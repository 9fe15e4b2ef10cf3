package sheets

import (
	"context"
	"fmt"
	"time"

	"clubfund/internal/ledger"
)

// Ports for outbound adapters.
type (
	// BalanceExporter overwrites an external sheet with the current
	// fund summary.
	BalanceExporter interface {
		ExportBalances(ctx context.Context, summary ledger.FundSummary, generatedAt time.Time) error
	}
)

var Header = []interface{}{"Thành viên", "Nạp quỹ", "Rút quỹ", "Tiền buổi chơi", "Số dư"}

// Rows lays out a summary as header, one row per member in summary order,
// then the total row. Amounts are whole đồng.
func Rows(summary ledger.FundSummary, generatedAt time.Time) [][]interface{} {
	rows := make([][]interface{}, 0, len(summary.Balances)+2)
	rows = append(rows, Header)
	for _, b := range summary.Balances {
		rows = append(rows, []interface{}{
			b.MemberName,
			b.TotalDeposits.Dong,
			b.TotalWithdrawals.Dong,
			b.TotalSessionPayments.Dong,
			b.CurrentBalance.Dong,
		})
	}
	rows = append(rows, []interface{}{
		fmt.Sprintf("Tổng quỹ (%s)", generatedAt.Format("02/01/2006 15:04")),
		"", "", "",
		summary.TotalFundBalance.Dong,
	})
	return rows
}
