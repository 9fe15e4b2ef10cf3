package services

import (
	"context"
	"fmt"
	"strings"

	"clubfund/internal/amqp"
	"clubfund/internal/core"
	applog "clubfund/internal/log"
	"clubfund/internal/store"
)

type MemberRepository interface {
	store.MemberDirectory
	store.MemberWriter
}

type MemberService struct {
	repo      MemberRepository
	publisher EventPublisher
	log       *applog.Logger
}

func NewMemberService(repo MemberRepository, publisher EventPublisher) *MemberService {
	return &MemberService{
		repo:      repo,
		publisher: publisher,
		log:       applog.Default(applog.ComponentMember),
	}
}

func normalizeMember(m core.Member) core.Member {
	m.Name = strings.TrimSpace(m.Name)
	m.Phone = strings.TrimSpace(m.Phone)
	m.AvatarURL = strings.TrimSpace(m.AvatarURL)
	return m
}

func (s *MemberService) List(ctx context.Context) ([]core.Member, error) {
	members, err := s.repo.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (s *MemberService) Get(ctx context.Context, id int64) (core.Member, error) {
	return s.repo.GetMember(ctx, id)
}

func (s *MemberService) Create(ctx context.Context, m core.Member) (core.Member, error) {
	m = normalizeMember(m)
	m.ID = 0
	if err := m.Validate(); err != nil {
		return core.Member{}, invalid(err)
	}
	saved, err := s.repo.CreateMember(ctx, m)
	if err != nil {
		return core.Member{}, fmt.Errorf("create member: %w", err)
	}
	s.log.InfoContext(ctx, "Member created", applog.FieldMemberID, saved.ID)
	return saved, nil
}

// Update replaces a member's profile. Name changes show up in balances,
// so a ledger change is announced.
func (s *MemberService) Update(ctx context.Context, m core.Member) (core.Member, error) {
	m = normalizeMember(m)
	if err := m.Validate(); err != nil {
		return core.Member{}, invalid(err)
	}
	saved, err := s.repo.UpdateMember(ctx, m)
	if err != nil {
		return core.Member{}, fmt.Errorf("update member: %w", err)
	}
	notify(ctx, s.log, s.publisher, amqp.KindMemberChanged, saved.ID, saved.ID)
	return saved, nil
}

// Delete removes the member. Their contributions are kept and will be
// reported as orphaned by later balance computations.
func (s *MemberService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteMember(ctx, id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	s.log.InfoContext(ctx, "Member deleted", applog.FieldMemberID, id)
	notify(ctx, s.log, s.publisher, amqp.KindMemberDeleted, id, id)
	return nil
}
