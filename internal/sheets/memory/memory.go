package memory

import (
	"context"
	"sync"
	"time"

	"clubfund/internal/ledger"
	"clubfund/internal/sheets"
)

// Exporter keeps the last exported sheet in memory. Used when no
// spreadsheet is configured and in tests.
type Exporter struct {
	mu      sync.Mutex
	rows    [][]interface{}
	exports int
}

var _ sheets.BalanceExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ExportBalances(_ context.Context, summary ledger.FundSummary, generatedAt time.Time) error {
	rows := sheets.Rows(summary, generatedAt)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = rows
	e.exports++
	return nil
}

// Rows returns a copy of the last exported sheet.
func (e *Exporter) Rows() [][]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]interface{}, len(e.rows))
	for i, r := range e.rows {
		out[i] = append([]interface{}(nil), r...)
	}
	return out
}

// Exports counts completed exports.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
