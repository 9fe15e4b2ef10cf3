package services

import (
	"context"
	"fmt"

	"clubfund/internal/calculator"
	applog "clubfund/internal/log"
	"clubfund/internal/store"
)

// CalculatorService runs ad-hoc equal splits against the current roster.
// Nothing is persisted.
type CalculatorService struct {
	members store.MemberDirectory
	log     *applog.Logger
}

func NewCalculatorService(members store.MemberDirectory) *CalculatorService {
	return &CalculatorService{
		members: members,
		log:     applog.Default(applog.ComponentCalculator),
	}
}

func (s *CalculatorService) Calculate(ctx context.Context, items []calculator.CostItem, playerIDs []int64) (calculator.SplitResult, error) {
	members, err := s.members.ListMembers(ctx)
	if err != nil {
		return calculator.SplitResult{}, fmt.Errorf("list members: %w", err)
	}
	result, err := calculator.Calculate(items, playerIDs, store.Roster(members))
	if err != nil {
		return calculator.SplitResult{}, err
	}
	s.log.DebugContext(ctx, "Split calculated",
		applog.FieldPlayerCount, result.TotalPlayers,
		applog.FieldTotalCost, result.TotalCost)
	return result, nil
}
