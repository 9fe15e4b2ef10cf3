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

type (
	// SessionView is a session with resolved participants and a breakdown
	// recomputed from its sub-costs.
	SessionView struct {
		core.Session
		Participants []core.PlayerRef          `json:"participants"`
		Breakdown    core.SessionCostBreakdown `json:"breakdown"`
	}

	SessionRepository interface {
		store.SessionStore
		store.SessionWriter
	}
)

type SessionService struct {
	sessions  SessionRepository
	members   store.MemberDirectory
	publisher EventPublisher
	log       *applog.Logger
}

func NewSessionService(sessions SessionRepository, members store.MemberDirectory, publisher EventPublisher) *SessionService {
	return &SessionService{
		sessions:  sessions,
		members:   members,
		publisher: publisher,
		log:       applog.Default(applog.ComponentSession),
	}
}

func view(s core.Session, names map[int64]string) SessionView {
	v := SessionView{Session: s, Breakdown: s.Breakdown(), Participants: make([]core.PlayerRef, 0, len(s.ParticipantIDs))}
	for _, id := range s.ParticipantIDs {
		v.Participants = append(v.Participants, core.PlayerRef{ID: id, Name: names[id]})
	}
	return v
}

func (s *SessionService) names(ctx context.Context) (map[int64]string, error) {
	members, err := s.members.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	names := make(map[int64]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}
	return names, nil
}

func (s *SessionService) List(ctx context.Context) ([]SessionView, error) {
	sessions, err := s.sessions.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	names, err := s.names(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SessionView, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, view(sess, names))
	}
	return out, nil
}

func (s *SessionService) Get(ctx context.Context, id int64) (SessionView, error) {
	sess, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	names, err := s.names(ctx)
	if err != nil {
		return SessionView{}, err
	}
	return view(sess, names), nil
}

// prepare normalises and validates a session, rejecting participants
// that are not club members.
func (s *SessionService) prepare(ctx context.Context, sess core.Session) (core.Session, map[int64]string, error) {
	sess.CourtName = strings.TrimSpace(sess.CourtName)
	sess.Notes = strings.TrimSpace(sess.Notes)
	sess.ParticipantIDs = core.DedupeIDs(sess.ParticipantIDs)
	if err := sess.Validate(); err != nil {
		return core.Session{}, nil, invalid(err)
	}
	names, err := s.names(ctx)
	if err != nil {
		return core.Session{}, nil, err
	}
	for _, id := range sess.ParticipantIDs {
		if _, ok := names[id]; !ok {
			return core.Session{}, nil, invalid(fmt.Errorf("participant %d: %w", id, core.ErrUnknownMember))
		}
	}
	return sess, names, nil
}

func (s *SessionService) Create(ctx context.Context, sess core.Session) (SessionView, error) {
	sess, names, err := s.prepare(ctx, sess)
	if err != nil {
		return SessionView{}, err
	}
	saved, err := s.sessions.CreateSession(ctx, sess)
	if err != nil {
		return SessionView{}, fmt.Errorf("create session: %w", err)
	}
	v := view(saved, names)
	s.log.InfoContext(ctx, "Session created",
		applog.FieldSessionID, saved.ID,
		applog.FieldPlayerCount, v.Breakdown.ParticipantCount,
		applog.FieldAmountDong, v.Breakdown.TotalCost.Dong)
	notify(ctx, s.log, s.publisher, amqp.KindSessionChanged, saved.ID, 0)
	return v, nil
}

func (s *SessionService) Update(ctx context.Context, sess core.Session) (SessionView, error) {
	sess, names, err := s.prepare(ctx, sess)
	if err != nil {
		return SessionView{}, err
	}
	saved, err := s.sessions.UpdateSession(ctx, sess)
	if err != nil {
		return SessionView{}, fmt.Errorf("update session: %w", err)
	}
	notify(ctx, s.log, s.publisher, amqp.KindSessionChanged, saved.ID, 0)
	return view(saved, names), nil
}

func (s *SessionService) Delete(ctx context.Context, id int64) error {
	if err := s.sessions.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.log.InfoContext(ctx, "Session deleted", applog.FieldSessionID, id)
	notify(ctx, s.log, s.publisher, amqp.KindSessionChanged, id, 0)
	return nil
}
