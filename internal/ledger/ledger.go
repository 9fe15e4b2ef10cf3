// Package ledger derives member balances from the club's contribution history.
//
// Balances are recomputed from the full contribution set on every call;
// there is no stored running balance. Every function here is a pure
// transform of its inputs.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"clubfund/internal/core"
)

const (
	OrphanUnknownMember = "unknown_member"
	OrphanInvalidType   = "invalid_type"
)

type (
	// MemberBalance holds per-type totals for one member. CurrentBalance is
	// always TotalDeposits - TotalWithdrawals - TotalSessionPayments.
	MemberBalance struct {
		MemberID             int64      `json:"memberId"`
		MemberName           string     `json:"memberName"`
		TotalDeposits        core.Money `json:"totalDeposits"`
		TotalWithdrawals     core.Money `json:"totalWithdrawals"`
		TotalSessionPayments core.Money `json:"totalSessionPayments"`
		CurrentBalance       core.Money `json:"currentBalance"`
	}

	FundSummary struct {
		TotalFundBalance core.Money      `json:"totalFundBalance"`
		Balances         []MemberBalance `json:"balances"`
	}

	// Orphan is a contribution left out of aggregation.
	Orphan struct {
		ContributionID int64      `json:"contributionId"`
		MemberID       int64      `json:"memberId"`
		Amount         core.Money `json:"amount"`
		Reason         string     `json:"reason"`
	}

	Aggregation struct {
		Balances []MemberBalance `json:"balances"`
		Orphans  []Orphan        `json:"orphans"`
	}
)

var ErrOrphanedReference = errors.New("contribution references an unknown member")

// OrphanCount is the number of contributions excluded from the balances.
func (a Aggregation) OrphanCount() int {
	return len(a.Orphans)
}

// Err reports excluded contributions as an error wrapping
// ErrOrphanedReference. Balances are still valid when Err is non-nil.
func (a Aggregation) Err() error {
	if len(a.Orphans) == 0 {
		return nil
	}
	return fmt.Errorf("%d contribution(s) excluded: %w", len(a.Orphans), ErrOrphanedReference)
}

// Aggregate groups contributions by member and sums them per type.
//
// Only members with at least one aggregated contribution appear in the
// result. Contributions whose member is not in roster, or whose type is
// not recognised, are excluded and listed as orphans. Balances are
// ordered by member name (case-insensitive) then id.
func Aggregate(contributions []core.Contribution, roster []core.PlayerRef) Aggregation {
	names := make(map[int64]string, len(roster))
	for _, p := range roster {
		if _, dup := names[p.ID]; dup {
			continue
		}
		names[p.ID] = p.Name
	}

	byMember := make(map[int64]*MemberBalance)
	orphans := []Orphan{}
	for _, c := range contributions {
		name, known := names[c.MemberID]
		if !known {
			orphans = append(orphans, Orphan{ContributionID: c.ID, MemberID: c.MemberID, Amount: c.Amount, Reason: OrphanUnknownMember})
			continue
		}
		if !c.Type.IsValid() {
			orphans = append(orphans, Orphan{ContributionID: c.ID, MemberID: c.MemberID, Amount: c.Amount, Reason: OrphanInvalidType})
			continue
		}

		b, ok := byMember[c.MemberID]
		if !ok {
			b = &MemberBalance{MemberID: c.MemberID, MemberName: name}
			byMember[c.MemberID] = b
		}
		switch c.Type {
		case core.Deposit:
			b.TotalDeposits = b.TotalDeposits.Add(c.Amount)
		case core.Withdrawal:
			b.TotalWithdrawals = b.TotalWithdrawals.Add(c.Amount)
		case core.SessionPayment:
			b.TotalSessionPayments = b.TotalSessionPayments.Add(c.Amount)
		}
	}

	balances := make([]MemberBalance, 0, len(byMember))
	for _, b := range byMember {
		b.CurrentBalance = b.TotalDeposits.Sub(b.TotalWithdrawals).Sub(b.TotalSessionPayments)
		balances = append(balances, *b)
	}
	sort.Slice(balances, func(i, j int) bool {
		ni, nj := strings.ToLower(balances[i].MemberName), strings.ToLower(balances[j].MemberName)
		if ni != nj {
			return ni < nj
		}
		return balances[i].MemberID < balances[j].MemberID
	})

	return Aggregation{Balances: balances, Orphans: orphans}
}

// Summarize totals the current balances, negative ones included.
func Summarize(balances []MemberBalance) FundSummary {
	var total core.Money
	out := make([]MemberBalance, len(balances))
	copy(out, balances)
	for _, b := range out {
		total = total.Add(b.CurrentBalance)
	}
	return FundSummary{TotalFundBalance: total, Balances: out}
}

// Find returns the balance for memberID, if the member has any activity.
func Find(balances []MemberBalance, memberID int64) (MemberBalance, bool) {
	for _, b := range balances {
		if b.MemberID == memberID {
			return b, true
		}
	}
	return MemberBalance{}, false
}
