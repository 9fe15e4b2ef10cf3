// Package calculator splits ad-hoc costs evenly across selected players.
//
// The split is an estimate for display: every player gets the same
// nominal share from plain float division and any rounding remainder is
// left where it falls.
package calculator

import (
	"errors"
	"math"
	"strings"

	"clubfund/internal/core"
)

type (
	// CostItem is one named expense line entered by the caller.
	CostItem struct {
		Name   string  `json:"name"`
		Amount float64 `json:"amount"`
	}

	PlayerCost struct {
		PlayerID   int64   `json:"playerId"`
		PlayerName string  `json:"playerName"`
		Cost       float64 `json:"cost"`
	}

	// SplitResult is built fresh for every call and never shared.
	SplitResult struct {
		TotalCost     float64      `json:"totalCost"`
		TotalPlayers  int          `json:"totalPlayers"`
		CostPerPlayer float64      `json:"costPerPlayer"`
		PlayerCosts   []PlayerCost `json:"playerCosts"`
	}
)

var (
	ErrEmptySelection   = errors.New("no selected player matches the roster")
	ErrNoValidCostItems = errors.New("no cost item with a name and a positive amount")
	ErrTotalOutOfRange  = errors.New("cost total is too large to represent")
)

// Calculate totals the usable cost items and divides the total evenly among
// the players in playerIDs that exist in roster.
//
// Unknown ids are dropped without error and repeated ids count once. The
// output follows the order of playerIDs, not the roster order.
func Calculate(items []CostItem, playerIDs []int64, roster []core.PlayerRef) (SplitResult, error) {
	players := resolvePlayers(playerIDs, roster)
	if len(players) == 0 {
		return SplitResult{}, ErrEmptySelection
	}

	valid := ValidItems(items)
	if len(valid) == 0 {
		return SplitResult{}, ErrNoValidCostItems
	}

	var total float64
	for _, it := range valid {
		total += it.Amount
	}
	if math.IsInf(total, 0) {
		return SplitResult{}, ErrTotalOutOfRange
	}

	per := total / float64(len(players))
	out := SplitResult{
		TotalCost:     total,
		TotalPlayers:  len(players),
		CostPerPlayer: per,
		PlayerCosts:   make([]PlayerCost, 0, len(players)),
	}
	for _, p := range players {
		out.PlayerCosts = append(out.PlayerCosts, PlayerCost{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Cost:       per,
		})
	}
	return out, nil
}

// ValidItems keeps items with a non-blank name and a finite amount above zero.
func ValidItems(items []CostItem) []CostItem {
	out := make([]CostItem, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			continue
		}
		if !(it.Amount > 0) || math.IsInf(it.Amount, 0) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func resolvePlayers(ids []int64, roster []core.PlayerRef) []core.PlayerRef {
	byID := make(map[int64]core.PlayerRef, len(roster))
	for _, p := range roster {
		if _, dup := byID[p.ID]; dup {
			continue
		}
		byID[p.ID] = p
	}

	seen := make(map[int64]struct{}, len(ids))
	out := make([]core.PlayerRef, 0, len(ids))
	for _, id := range ids {
		if _, done := seen[id]; done {
			continue
		}
		p, ok := byID[id]
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, p)
	}
	return out
}
