// Package postgres stores club records in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clubfund/internal/core"
	"clubfund/internal/store"
)

var _ store.Backend = (*DB)(nil)

type DB struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// RunMigrations creates the schema if it does not exist yet.
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS members (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			birth_date TEXT NOT NULL DEFAULT '',
			gender TEXT NOT NULL DEFAULT '',
			skill_level TEXT NOT NULL DEFAULT '',
			playing_position TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS sessions (
			id BIGSERIAL PRIMARY KEY,
			court_name TEXT NOT NULL,
			session_date TEXT NOT NULL,
			start_time TEXT NOT NULL DEFAULT '',
			end_time TEXT NOT NULL DEFAULT '',
			shuttlecock_count INTEGER NOT NULL DEFAULT 0,
			court_cost BIGINT NOT NULL DEFAULT 0,
			shuttlecock_cost BIGINT NOT NULL DEFAULT 0,
			water_cost BIGINT NOT NULL DEFAULT 0,
			other_cost BIGINT NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS session_participants (
			session_id BIGINT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			member_id BIGINT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (session_id, member_id)
		);
		CREATE TABLE IF NOT EXISTS fund_contributions (
			id BIGSERIAL PRIMARY KEY,
			member_id BIGINT NOT NULL,
			amount_dong BIGINT NOT NULL CHECK (amount_dong > 0),
			type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			contribution_date TEXT NOT NULL,
			session_id BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_fund_contributions_member ON fund_contributions(member_id);
		CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(session_date);
	`)
	return err
}

func wrapNotFound(kind string, id int64, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", kind, id, core.ErrNotFound)
	}
	return fmt.Errorf("%s %d: %w", kind, id, err)
}

const memberColumns = `id, name, phone, birth_date, gender, skill_level, playing_position, avatar_url, created_at, updated_at`

func scanMember(row pgx.Row) (core.Member, error) {
	var m core.Member
	err := row.Scan(&m.ID, &m.Name, &m.Phone, &m.BirthDate, &m.Gender, &m.SkillLevel,
		&m.PlayingPosition, &m.AvatarURL, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (db *DB) ListMembers(ctx context.Context) ([]core.Member, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+memberColumns+` FROM members ORDER BY lower(name), id`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []core.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (db *DB) GetMember(ctx context.Context, id int64) (core.Member, error) {
	m, err := scanMember(db.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
	if err != nil {
		return core.Member{}, wrapNotFound("member", id, err)
	}
	return m, nil
}

func (db *DB) CreateMember(ctx context.Context, m core.Member) (core.Member, error) {
	out, err := scanMember(db.pool.QueryRow(ctx,
		`INSERT INTO members (name, phone, birth_date, gender, skill_level, playing_position, avatar_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+memberColumns,
		m.Name, m.Phone, m.BirthDate, string(m.Gender), string(m.SkillLevel), string(m.PlayingPosition), m.AvatarURL,
	))
	if err != nil {
		return core.Member{}, fmt.Errorf("create member: %w", err)
	}
	return out, nil
}

func (db *DB) UpdateMember(ctx context.Context, m core.Member) (core.Member, error) {
	out, err := scanMember(db.pool.QueryRow(ctx,
		`UPDATE members
		 SET name = $2, phone = $3, birth_date = $4, gender = $5, skill_level = $6,
		     playing_position = $7, avatar_url = $8, updated_at = $9
		 WHERE id = $1
		 RETURNING `+memberColumns,
		m.ID, m.Name, m.Phone, m.BirthDate, string(m.Gender), string(m.SkillLevel),
		string(m.PlayingPosition), m.AvatarURL, time.Now().UTC(),
	))
	if err != nil {
		return core.Member{}, wrapNotFound("member", m.ID, err)
	}
	return out, nil
}

// DeleteMember removes the member and their participations. Contributions stay.
func (db *DB) DeleteMember(ctx context.Context, id int64) error {
	return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete member: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("member %d: %w", id, core.ErrNotFound)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM session_participants WHERE member_id = $1`, id); err != nil {
			return fmt.Errorf("delete member participations: %w", err)
		}
		return nil
	})
}

const sessionColumns = `id, court_name, session_date, start_time, end_time, shuttlecock_count,
	court_cost, shuttlecock_cost, water_cost, other_cost, notes, created_at, updated_at`

func scanSession(row pgx.Row) (core.Session, error) {
	var (
		s                         core.Session
		court, shuttle, water, ot int64
	)
	err := row.Scan(&s.ID, &s.CourtName, &s.SessionDate, &s.StartTime, &s.EndTime, &s.ShuttlecockCount,
		&court, &shuttle, &water, &ot, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	s.SessionCosts = core.SessionCosts{
		CourtCost:       core.VND(court),
		ShuttlecockCost: core.VND(shuttle),
		WaterCost:       core.VND(water),
		OtherCost:       core.VND(ot),
	}
	return s, err
}

func (db *DB) participants(ctx context.Context, q interface {
	Query(context.Context, string, ...any) (pgx.Rows, error)
}) (map[int64][]int64, error) {
	rows, err := q.Query(ctx, `SELECT session_id, member_id FROM session_participants ORDER BY session_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]int64)
	for rows.Next() {
		var sid, mid int64
		if err := rows.Scan(&sid, &mid); err != nil {
			return nil, err
		}
		out[sid] = append(out[sid], mid)
	}
	return out, rows.Err()
}

func (db *DB) ListSessions(ctx context.Context) ([]core.Session, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY session_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var sessions []core.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		sessions = append(sessions, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	parts, err := db.participants(ctx, db.pool)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].ParticipantIDs = parts[sessions[i].ID]
	}
	return sessions, nil
}

func (db *DB) GetSession(ctx context.Context, id int64) (core.Session, error) {
	s, err := scanSession(db.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		return core.Session{}, wrapNotFound("session", id, err)
	}
	rows, err := db.pool.Query(ctx, `SELECT member_id FROM session_participants WHERE session_id = $1 ORDER BY position`, id)
	if err != nil {
		return core.Session{}, fmt.Errorf("get session participants: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return core.Session{}, fmt.Errorf("get session participants: %w", err)
	}
	s.ParticipantIDs = ids
	return s, nil
}

func writeParticipants(ctx context.Context, tx pgx.Tx, sessionID int64, ids []int64) ([]int64, error) {
	if _, err := tx.Exec(ctx, `DELETE FROM session_participants WHERE session_id = $1`, sessionID); err != nil {
		return nil, fmt.Errorf("clear participants: %w", err)
	}
	ids = core.DedupeIDs(ids)
	for i, id := range ids {
		if _, err := tx.Exec(ctx,
			`INSERT INTO session_participants (session_id, member_id, position) VALUES ($1, $2, $3)`,
			sessionID, id, i,
		); err != nil {
			return nil, fmt.Errorf("add participant %d: %w", id, err)
		}
	}
	return ids, nil
}

func (db *DB) CreateSession(ctx context.Context, s core.Session) (core.Session, error) {
	var out core.Session
	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		row, err := scanSession(tx.QueryRow(ctx,
			`INSERT INTO sessions (court_name, session_date, start_time, end_time, shuttlecock_count,
			     court_cost, shuttlecock_cost, water_cost, other_cost, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING `+sessionColumns,
			s.CourtName, s.SessionDate, s.StartTime, s.EndTime, s.ShuttlecockCount,
			s.CourtCost.Dong, s.ShuttlecockCost.Dong, s.WaterCost.Dong, s.OtherCost.Dong, s.Notes,
		))
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		row.ParticipantIDs, err = writeParticipants(ctx, tx, row.ID, s.ParticipantIDs)
		out = row
		return err
	})
	return out, err
}

func (db *DB) UpdateSession(ctx context.Context, s core.Session) (core.Session, error) {
	var out core.Session
	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		row, err := scanSession(tx.QueryRow(ctx,
			`UPDATE sessions
			 SET court_name = $2, session_date = $3, start_time = $4, end_time = $5, shuttlecock_count = $6,
			     court_cost = $7, shuttlecock_cost = $8, water_cost = $9, other_cost = $10, notes = $11,
			     updated_at = $12
			 WHERE id = $1
			 RETURNING `+sessionColumns,
			s.ID, s.CourtName, s.SessionDate, s.StartTime, s.EndTime, s.ShuttlecockCount,
			s.CourtCost.Dong, s.ShuttlecockCost.Dong, s.WaterCost.Dong, s.OtherCost.Dong, s.Notes,
			time.Now().UTC(),
		))
		if err != nil {
			return wrapNotFound("session", s.ID, err)
		}
		row.ParticipantIDs, err = writeParticipants(ctx, tx, row.ID, s.ParticipantIDs)
		out = row
		return err
	})
	return out, err
}

func (db *DB) DeleteSession(ctx context.Context, id int64) error {
	ct, err := db.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("session %d: %w", id, core.ErrNotFound)
	}
	return nil
}

const contributionColumns = `id, member_id, amount_dong, type, description, contribution_date, session_id, created_at`

func scanContribution(row pgx.Row) (core.Contribution, error) {
	var (
		c      core.Contribution
		amount int64
	)
	err := row.Scan(&c.ID, &c.MemberID, &amount, &c.Type, &c.Description, &c.ContributionDate, &c.SessionID, &c.CreatedAt)
	c.Amount = core.VND(amount)
	return c, err
}

func (db *DB) ListContributions(ctx context.Context) ([]core.Contribution, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+contributionColumns+` FROM fund_contributions ORDER BY contribution_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var out []core.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (db *DB) CreateContribution(ctx context.Context, c core.Contribution) (core.Contribution, error) {
	out, err := scanContribution(db.pool.QueryRow(ctx,
		`INSERT INTO fund_contributions (member_id, amount_dong, type, description, contribution_date, session_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+contributionColumns,
		c.MemberID, c.Amount.Dong, string(c.Type), c.Description, c.ContributionDate, c.SessionID,
	))
	if err != nil {
		return core.Contribution{}, fmt.Errorf("create contribution: %w", err)
	}
	return out, nil
}

func (db *DB) DeleteContribution(ctx context.Context, id int64) error {
	ct, err := db.pool.Exec(ctx, `DELETE FROM fund_contributions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contribution: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("contribution %d: %w", id, core.ErrNotFound)
	}
	return nil
}
