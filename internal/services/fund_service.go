package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"clubfund/internal/amqp"
	"clubfund/internal/core"
	"clubfund/internal/ledger"
	applog "clubfund/internal/log"
	"clubfund/internal/store"
)

type (
	// ContributionView is a contribution with its member's display name.
	// MemberName is empty when the member no longer exists.
	ContributionView struct {
		core.Contribution
		MemberName string `json:"memberName"`
	}

	// BalanceReport is the fund page payload: summary, orphans and stats.
	BalanceReport struct {
		ledger.FundSummary
		OrphanedContributions int              `json:"orphanedContributions"`
		Orphans               []ledger.Orphan  `json:"orphans"`
		Stats                 ledger.FundStats `json:"stats"`
		GeneratedAt           time.Time        `json:"generatedAt"`
	}

	ContributionRepository interface {
		store.ContributionStore
		store.ContributionWriter
	}
)

// FundService records contributions and derives balances from the full history.
type FundService struct {
	members       store.MemberDirectory
	contributions ContributionRepository
	publisher     EventPublisher
	log           *applog.Logger
	location      *time.Location
	now           func() time.Time
}

func NewFundService(members store.MemberDirectory, contributions ContributionRepository, publisher EventPublisher, location *time.Location) *FundService {
	if location == nil {
		location = time.UTC
	}
	return &FundService{
		members:       members,
		contributions: contributions,
		publisher:     publisher,
		log:           applog.Default(applog.ComponentFund),
		location:      location,
		now:           time.Now,
	}
}

// ListContributions returns every contribution, newest first. A non-empty
// query keeps those whose member name or description contains it,
// ignoring case.
func (s *FundService) ListContributions(ctx context.Context, query string) ([]ContributionView, error) {
	members, contributions, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]ContributionView, 0, len(contributions))
	for _, c := range contributions {
		v := ContributionView{Contribution: c, MemberName: names[c.MemberID]}
		if q != "" && !strings.Contains(strings.ToLower(v.MemberName), q) && !strings.Contains(strings.ToLower(c.Description), q) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// RecordContribution validates and stores a fund movement for an existing member.
func (s *FundService) RecordContribution(ctx context.Context, c core.Contribution) (core.Contribution, error) {
	c.Description = strings.TrimSpace(c.Description)
	if err := c.Validate(); err != nil {
		return core.Contribution{}, invalid(err)
	}
	if _, err := s.members.GetMember(ctx, c.MemberID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Contribution{}, invalid(fmt.Errorf("member %d: %w", c.MemberID, core.ErrUnknownMember))
		}
		return core.Contribution{}, fmt.Errorf("look up member: %w", err)
	}

	saved, err := s.contributions.CreateContribution(ctx, c)
	if err != nil {
		return core.Contribution{}, fmt.Errorf("save contribution: %w", err)
	}

	applog.NewStructuredLogger(s.log).LogContributionCreated(ctx, saved.ID, saved.MemberID, saved.Amount.Dong, string(saved.Type))
	notify(ctx, s.log, s.publisher, amqp.KindContributionCreated, saved.ID, saved.MemberID)
	return saved, nil
}

func (s *FundService) DeleteContribution(ctx context.Context, id int64) error {
	if err := s.contributions.DeleteContribution(ctx, id); err != nil {
		return fmt.Errorf("delete contribution: %w", err)
	}
	s.log.InfoContext(ctx, "Contribution deleted", applog.FieldContributionID, id)
	notify(ctx, s.log, s.publisher, amqp.KindContributionDeleted, id, 0)
	return nil
}

// Balances recomputes every member balance from the complete history.
func (s *FundService) Balances(ctx context.Context) (BalanceReport, error) {
	members, contributions, err := s.load(ctx)
	if err != nil {
		return BalanceReport{}, err
	}

	agg := ledger.Aggregate(contributions, store.Roster(members))
	if err := agg.Err(); err != nil {
		s.log.WarnContext(ctx, "Contributions excluded from balances",
			applog.FieldOrphanCount, agg.OrphanCount(),
			applog.FieldError, err)
	}

	now := s.now().In(s.location)
	return BalanceReport{
		FundSummary:           ledger.Summarize(agg.Balances),
		OrphanedContributions: agg.OrphanCount(),
		Orphans:               agg.Orphans,
		Stats:                 ledger.Stats(contributions, agg.Balances, now),
		GeneratedAt:           now,
	}, nil
}

// MemberBalance returns one member's balance. Members without any
// aggregated contribution yield an error wrapping core.ErrNotFound.
func (s *FundService) MemberBalance(ctx context.Context, memberID int64) (ledger.MemberBalance, error) {
	report, err := s.Balances(ctx)
	if err != nil {
		return ledger.MemberBalance{}, err
	}
	b, ok := ledger.Find(report.Balances, memberID)
	if !ok {
		return ledger.MemberBalance{}, fmt.Errorf("member %d has no fund activity: %w", memberID, core.ErrNotFound)
	}
	return b, nil
}

// load fetches roster and history concurrently.
func (s *FundService) load(ctx context.Context) ([]core.Member, []core.Contribution, error) {
	var (
		members       []core.Member
		contributions []core.Contribution
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = s.members.ListMembers(gctx)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		contributions, err = s.contributions.ListContributions(gctx)
		if err != nil {
			return fmt.Errorf("list contributions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return members, contributions, nil
}
