package storage

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type (
	Member struct {
		ID              int64
		Name            string
		Phone           string
		BirthDate       string
		Gender          string
		SkillLevel      string
		PlayingPosition string
		AvatarURL       string
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	Session struct {
		ID               int64
		CourtName        string
		SessionDate      string
		StartTime        string
		EndTime          string
		ShuttlecockCount int64
		CourtCost        int64
		ShuttlecockCost  int64
		WaterCost        int64
		OtherCost        int64
		Notes            string
		CreatedAt        time.Time
		UpdatedAt        time.Time
	}

	SessionParticipant struct {
		SessionID int64
		MemberID  int64
	}

	FundContribution struct {
		ID               int64
		MemberID         int64
		AmountDong       int64
		Type             string
		Description      string
		ContributionDate string
		SessionID        sql.NullInt64
		CreatedAt        time.Time
	}
)

const memberColumns = `id, name, phone, birth_date, gender, skill_level, playing_position, avatar_url, created_at, updated_at`

func scanMember(row interface{ Scan(...any) error }) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.Name, &m.Phone, &m.BirthDate, &m.Gender, &m.SkillLevel,
		&m.PlayingPosition, &m.AvatarURL, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

const listMembers = `SELECT ` + memberColumns + ` FROM members ORDER BY name COLLATE NOCASE, id`

func (q *Queries) ListMembers(ctx context.Context) ([]Member, error) {
	rows, err := q.db.QueryContext(ctx, listMembers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const getMember = `SELECT ` + memberColumns + ` FROM members WHERE id = ?`

func (q *Queries) GetMember(ctx context.Context, id int64) (Member, error) {
	return scanMember(q.db.QueryRowContext(ctx, getMember, id))
}

type CreateMemberParams struct {
	Name            string
	Phone           string
	BirthDate       string
	Gender          string
	SkillLevel      string
	PlayingPosition string
	AvatarURL       string
	Now             time.Time
}

const createMember = `INSERT INTO members (name, phone, birth_date, gender, skill_level, playing_position, avatar_url, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + memberColumns

func (q *Queries) CreateMember(ctx context.Context, arg CreateMemberParams) (Member, error) {
	return scanMember(q.db.QueryRowContext(ctx, createMember,
		arg.Name, arg.Phone, arg.BirthDate, arg.Gender, arg.SkillLevel,
		arg.PlayingPosition, arg.AvatarURL, arg.Now, arg.Now))
}

type UpdateMemberParams struct {
	ID int64
	CreateMemberParams
}

const updateMember = `UPDATE members
SET name = ?, phone = ?, birth_date = ?, gender = ?, skill_level = ?, playing_position = ?, avatar_url = ?, updated_at = ?
WHERE id = ?
RETURNING ` + memberColumns

func (q *Queries) UpdateMember(ctx context.Context, arg UpdateMemberParams) (Member, error) {
	return scanMember(q.db.QueryRowContext(ctx, updateMember,
		arg.Name, arg.Phone, arg.BirthDate, arg.Gender, arg.SkillLevel,
		arg.PlayingPosition, arg.AvatarURL, arg.Now, arg.ID))
}

const deleteMember = `DELETE FROM members WHERE id = ?`

func (q *Queries) DeleteMember(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteMember, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteMemberParticipations = `DELETE FROM session_participants WHERE member_id = ?`

func (q *Queries) DeleteMemberParticipations(ctx context.Context, memberID int64) error {
	_, err := q.db.ExecContext(ctx, deleteMemberParticipations, memberID)
	return err
}

const sessionColumns = `id, court_name, session_date, start_time, end_time, shuttlecock_count,
court_cost, shuttlecock_cost, water_cost, other_cost, notes, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.CourtName, &s.SessionDate, &s.StartTime, &s.EndTime, &s.ShuttlecockCount,
		&s.CourtCost, &s.ShuttlecockCost, &s.WaterCost, &s.OtherCost, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

const listSessions = `SELECT ` + sessionColumns + ` FROM sessions ORDER BY session_date DESC, id DESC`

func (q *Queries) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := q.db.QueryContext(ctx, listSessions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const getSession = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`

func (q *Queries) GetSession(ctx context.Context, id int64) (Session, error) {
	return scanSession(q.db.QueryRowContext(ctx, getSession, id))
}

type CreateSessionParams struct {
	CourtName        string
	SessionDate      string
	StartTime        string
	EndTime          string
	ShuttlecockCount int64
	CourtCost        int64
	ShuttlecockCost  int64
	WaterCost        int64
	OtherCost        int64
	Notes            string
	Now              time.Time
}

const createSession = `INSERT INTO sessions (court_name, session_date, start_time, end_time, shuttlecock_count,
court_cost, shuttlecock_cost, water_cost, other_cost, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + sessionColumns

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	return scanSession(q.db.QueryRowContext(ctx, createSession,
		arg.CourtName, arg.SessionDate, arg.StartTime, arg.EndTime, arg.ShuttlecockCount,
		arg.CourtCost, arg.ShuttlecockCost, arg.WaterCost, arg.OtherCost, arg.Notes, arg.Now, arg.Now))
}

type UpdateSessionParams struct {
	ID int64
	CreateSessionParams
}

const updateSession = `UPDATE sessions
SET court_name = ?, session_date = ?, start_time = ?, end_time = ?, shuttlecock_count = ?,
    court_cost = ?, shuttlecock_cost = ?, water_cost = ?, other_cost = ?, notes = ?, updated_at = ?
WHERE id = ?
RETURNING ` + sessionColumns

func (q *Queries) UpdateSession(ctx context.Context, arg UpdateSessionParams) (Session, error) {
	return scanSession(q.db.QueryRowContext(ctx, updateSession,
		arg.CourtName, arg.SessionDate, arg.StartTime, arg.EndTime, arg.ShuttlecockCount,
		arg.CourtCost, arg.ShuttlecockCost, arg.WaterCost, arg.OtherCost, arg.Notes, arg.Now, arg.ID))
}

const deleteSession = `DELETE FROM sessions WHERE id = ?`

func (q *Queries) DeleteSession(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSession, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listParticipants = `SELECT session_id, member_id FROM session_participants ORDER BY session_id, position`

func (q *Queries) ListParticipants(ctx context.Context) ([]SessionParticipant, error) {
	rows, err := q.db.QueryContext(ctx, listParticipants)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SessionParticipant
	for rows.Next() {
		var p SessionParticipant
		if err := rows.Scan(&p.SessionID, &p.MemberID); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const getSessionParticipants = `SELECT member_id FROM session_participants WHERE session_id = ? ORDER BY position`

func (q *Queries) GetSessionParticipants(ctx context.Context, sessionID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, getSessionParticipants, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const clearSessionParticipants = `DELETE FROM session_participants WHERE session_id = ?`

func (q *Queries) ClearSessionParticipants(ctx context.Context, sessionID int64) error {
	_, err := q.db.ExecContext(ctx, clearSessionParticipants, sessionID)
	return err
}

const addSessionParticipant = `INSERT INTO session_participants (session_id, member_id, position) VALUES (?, ?, ?)`

func (q *Queries) AddSessionParticipant(ctx context.Context, sessionID, memberID int64, position int) error {
	_, err := q.db.ExecContext(ctx, addSessionParticipant, sessionID, memberID, position)
	return err
}

const contributionColumns = `id, member_id, amount_dong, type, description, contribution_date, session_id, created_at`

func scanContribution(row interface{ Scan(...any) error }) (FundContribution, error) {
	var c FundContribution
	err := row.Scan(&c.ID, &c.MemberID, &c.AmountDong, &c.Type, &c.Description,
		&c.ContributionDate, &c.SessionID, &c.CreatedAt)
	return c, err
}

const listContributions = `SELECT ` + contributionColumns + ` FROM fund_contributions ORDER BY contribution_date DESC, id DESC`

func (q *Queries) ListContributions(ctx context.Context) ([]FundContribution, error) {
	rows, err := q.db.QueryContext(ctx, listContributions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FundContribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

type CreateContributionParams struct {
	MemberID         int64
	AmountDong       int64
	Type             string
	Description      string
	ContributionDate string
	SessionID        sql.NullInt64
	Now              time.Time
}

const createContribution = `INSERT INTO fund_contributions (member_id, amount_dong, type, description, contribution_date, session_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + contributionColumns

func (q *Queries) CreateContribution(ctx context.Context, arg CreateContributionParams) (FundContribution, error) {
	return scanContribution(q.db.QueryRowContext(ctx, createContribution,
		arg.MemberID, arg.AmountDong, arg.Type, arg.Description, arg.ContributionDate, arg.SessionID, arg.Now))
}

const deleteContribution = `DELETE FROM fund_contributions WHERE id = ?`

func (q *Queries) DeleteContribution(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteContribution, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
