package ledger

import (
	"sort"
	"time"

	"clubfund/internal/core"
)

// FundStats are the headline figures of the fund page.
type FundStats struct {
	MembersWithFund       int `json:"membersWithFund"`
	MembersInDebt         int `json:"membersInDebt"`
	TransactionsThisMonth int `json:"transactionsThisMonth"`
}

// Stats counts members with a positive or negative balance and the
// contributions dated in the calendar month of now.
func Stats(contributions []core.Contribution, balances []MemberBalance, now time.Time) FundStats {
	var s FundStats
	for _, b := range balances {
		switch {
		case b.CurrentBalance.Dong > 0:
			s.MembersWithFund++
		case b.CurrentBalance.Dong < 0:
			s.MembersInDebt++
		}
	}
	year, month, _ := now.Date()
	for _, c := range contributions {
		d, err := core.ParseDate(c.ContributionDate)
		if err != nil {
			continue
		}
		if d.Year() == year && d.Month() == month {
			s.TransactionsThisMonth++
		}
	}
	return s
}

// Debtors returns up to limit members with a negative balance, most negative first.
func Debtors(balances []MemberBalance, limit int) []MemberBalance {
	var out []MemberBalance
	for _, b := range balances {
		if b.CurrentBalance.Dong < 0 {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CurrentBalance.Dong < out[j].CurrentBalance.Dong
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
