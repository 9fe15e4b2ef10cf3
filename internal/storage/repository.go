package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"clubfund/internal/core"
	"clubfund/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Backend = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func notFound(kind string, id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", kind, id, core.ErrNotFound)
	}
	return fmt.Errorf("get %s %d: %w", kind, id, err)
}

func toMember(m Member) core.Member {
	return core.Member{
		ID:              m.ID,
		Name:            m.Name,
		Phone:           m.Phone,
		BirthDate:       m.BirthDate,
		Gender:          core.Gender(m.Gender),
		SkillLevel:      core.SkillLevel(m.SkillLevel),
		PlayingPosition: core.PlayingPosition(m.PlayingPosition),
		AvatarURL:       m.AvatarURL,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func memberParams(m core.Member, now time.Time) CreateMemberParams {
	return CreateMemberParams{
		Name:            m.Name,
		Phone:           m.Phone,
		BirthDate:       m.BirthDate,
		Gender:          string(m.Gender),
		SkillLevel:      string(m.SkillLevel),
		PlayingPosition: string(m.PlayingPosition),
		AvatarURL:       m.AvatarURL,
		Now:             now,
	}
}

func (r *SQLiteRepository) ListMembers(ctx context.Context) ([]core.Member, error) {
	rows, err := r.queries.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := make([]core.Member, 0, len(rows))
	for _, m := range rows {
		out = append(out, toMember(m))
	}
	return out, nil
}

func (r *SQLiteRepository) GetMember(ctx context.Context, id int64) (core.Member, error) {
	m, err := r.queries.GetMember(ctx, id)
	if err != nil {
		return core.Member{}, notFound("member", id, err)
	}
	return toMember(m), nil
}

func (r *SQLiteRepository) CreateMember(ctx context.Context, m core.Member) (core.Member, error) {
	row, err := r.queries.CreateMember(ctx, memberParams(m, r.now().UTC()))
	if err != nil {
		return core.Member{}, fmt.Errorf("create member: %w", err)
	}
	slog.InfoContext(ctx, "Member saved to SQLite", "id", row.ID, "name", row.Name)
	return toMember(row), nil
}

func (r *SQLiteRepository) UpdateMember(ctx context.Context, m core.Member) (core.Member, error) {
	row, err := r.queries.UpdateMember(ctx, UpdateMemberParams{ID: m.ID, CreateMemberParams: memberParams(m, r.now().UTC())})
	if err != nil {
		return core.Member{}, notFound("member", m.ID, err)
	}
	return toMember(row), nil
}

// DeleteMember removes the member and their session participations.
// Contributions are left in place.
func (r *SQLiteRepository) DeleteMember(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(q *Queries) error {
		n, err := q.DeleteMember(ctx, id)
		if err != nil {
			return fmt.Errorf("delete member: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("member %d: %w", id, core.ErrNotFound)
		}
		if err := q.DeleteMemberParticipations(ctx, id); err != nil {
			return fmt.Errorf("delete member participations: %w", err)
		}
		return nil
	})
}

func toSession(s Session, participants []int64) core.Session {
	return core.Session{
		ID:               s.ID,
		CourtName:        s.CourtName,
		SessionDate:      s.SessionDate,
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		ShuttlecockCount: int(s.ShuttlecockCount),
		SessionCosts: core.SessionCosts{
			CourtCost:       core.VND(s.CourtCost),
			ShuttlecockCost: core.VND(s.ShuttlecockCost),
			WaterCost:       core.VND(s.WaterCost),
			OtherCost:       core.VND(s.OtherCost),
		},
		Notes:          s.Notes,
		ParticipantIDs: participants,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func sessionParams(s core.Session, now time.Time) CreateSessionParams {
	return CreateSessionParams{
		CourtName:        s.CourtName,
		SessionDate:      s.SessionDate,
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		ShuttlecockCount: int64(s.ShuttlecockCount),
		CourtCost:        s.CourtCost.Dong,
		ShuttlecockCost:  s.ShuttlecockCost.Dong,
		WaterCost:        s.WaterCost.Dong,
		OtherCost:        s.OtherCost.Dong,
		Notes:            s.Notes,
		Now:              now,
	}
}

func (r *SQLiteRepository) ListSessions(ctx context.Context) ([]core.Session, error) {
	rows, err := r.queries.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	parts, err := r.queries.ListParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	bySession := make(map[int64][]int64)
	for _, p := range parts {
		bySession[p.SessionID] = append(bySession[p.SessionID], p.MemberID)
	}
	out := make([]core.Session, 0, len(rows))
	for _, s := range rows {
		out = append(out, toSession(s, bySession[s.ID]))
	}
	return out, nil
}

func (r *SQLiteRepository) GetSession(ctx context.Context, id int64) (core.Session, error) {
	s, err := r.queries.GetSession(ctx, id)
	if err != nil {
		return core.Session{}, notFound("session", id, err)
	}
	ids, err := r.queries.GetSessionParticipants(ctx, id)
	if err != nil {
		return core.Session{}, fmt.Errorf("get session participants: %w", err)
	}
	return toSession(s, ids), nil
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, s core.Session) (core.Session, error) {
	var out core.Session
	err := r.inTx(ctx, func(q *Queries) error {
		row, err := q.CreateSession(ctx, sessionParams(s, r.now().UTC()))
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		ids, err := replaceParticipants(ctx, q, row.ID, s.ParticipantIDs)
		if err != nil {
			return err
		}
		out = toSession(row, ids)
		return nil
	})
	if err != nil {
		return core.Session{}, err
	}
	slog.InfoContext(ctx, "Session saved to SQLite", "id", out.ID, "participants", len(out.ParticipantIDs))
	return out, nil
}

func (r *SQLiteRepository) UpdateSession(ctx context.Context, s core.Session) (core.Session, error) {
	var out core.Session
	err := r.inTx(ctx, func(q *Queries) error {
		row, err := q.UpdateSession(ctx, UpdateSessionParams{ID: s.ID, CreateSessionParams: sessionParams(s, r.now().UTC())})
		if err != nil {
			return notFound("session", s.ID, err)
		}
		ids, err := replaceParticipants(ctx, q, row.ID, s.ParticipantIDs)
		if err != nil {
			return err
		}
		out = toSession(row, ids)
		return nil
	})
	return out, err
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(q *Queries) error {
		if err := q.ClearSessionParticipants(ctx, id); err != nil {
			return fmt.Errorf("clear participants: %w", err)
		}
		n, err := q.DeleteSession(ctx, id)
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("session %d: %w", id, core.ErrNotFound)
		}
		return nil
	})
}

func replaceParticipants(ctx context.Context, q *Queries, sessionID int64, ids []int64) ([]int64, error) {
	if err := q.ClearSessionParticipants(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("clear participants: %w", err)
	}
	ids = core.DedupeIDs(ids)
	for i, id := range ids {
		if err := q.AddSessionParticipant(ctx, sessionID, id, i); err != nil {
			return nil, fmt.Errorf("add participant %d: %w", id, err)
		}
	}
	return ids, nil
}

func toContribution(c FundContribution) core.Contribution {
	out := core.Contribution{
		ID:               c.ID,
		MemberID:         c.MemberID,
		Amount:           core.VND(c.AmountDong),
		Type:             core.ContributionType(c.Type),
		Description:      c.Description,
		ContributionDate: c.ContributionDate,
		CreatedAt:        c.CreatedAt,
	}
	if c.SessionID.Valid {
		id := c.SessionID.Int64
		out.SessionID = &id
	}
	return out
}

func (r *SQLiteRepository) ListContributions(ctx context.Context) ([]core.Contribution, error) {
	rows, err := r.queries.ListContributions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	out := make([]core.Contribution, 0, len(rows))
	for _, c := range rows {
		out = append(out, toContribution(c))
	}
	return out, nil
}

func (r *SQLiteRepository) CreateContribution(ctx context.Context, c core.Contribution) (core.Contribution, error) {
	var sessionID sql.NullInt64
	if c.SessionID != nil {
		sessionID = sql.NullInt64{Int64: *c.SessionID, Valid: true}
	}
	row, err := r.queries.CreateContribution(ctx, CreateContributionParams{
		MemberID:         c.MemberID,
		AmountDong:       c.Amount.Dong,
		Type:             string(c.Type),
		Description:      c.Description,
		ContributionDate: c.ContributionDate,
		SessionID:        sessionID,
		Now:              r.now().UTC(),
	})
	if err != nil {
		return core.Contribution{}, fmt.Errorf("create contribution: %w", err)
	}

	slog.InfoContext(ctx, "Contribution saved to SQLite",
		"id", row.ID,
		"member_id", row.MemberID,
		"amount_dong", row.AmountDong,
		"type", row.Type)

	return toContribution(row), nil
}

func (r *SQLiteRepository) DeleteContribution(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteContribution(ctx, id)
	if err != nil {
		return fmt.Errorf("delete contribution: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("contribution %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
