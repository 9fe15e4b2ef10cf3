package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"clubfund/internal/core"
	"clubfund/internal/store"
)

var _ store.Backend = (*Store)(nil)

// Store keeps every record in process memory.
type Store struct {
	mu            sync.Mutex
	members       map[int64]core.Member
	sessions      map[int64]core.Session
	contributions map[int64]core.Contribution
	nextID        int64
	now           func() time.Time
}

func New() *Store {
	return &Store{
		members:       make(map[int64]core.Member),
		sessions:      make(map[int64]core.Session),
		contributions: make(map[int64]core.Contribution),
		now:           time.Now,
	}
}

type (
	seedFile struct {
		Members       []seedMember       `yaml:"members"`
		Contributions []seedContribution `yaml:"contributions"`
	}

	seedMember struct {
		ID         int64  `yaml:"id"`
		Name       string `yaml:"name"`
		Phone      string `yaml:"phone"`
		Gender     string `yaml:"gender"`
		SkillLevel string `yaml:"skill_level"`
		Position   string `yaml:"playing_position"`
	}

	seedContribution struct {
		MemberID    int64  `yaml:"member_id"`
		Amount      string `yaml:"amount"`
		Type        string `yaml:"type"`
		Description string `yaml:"description"`
		Date        string `yaml:"date"`
	}
)

// NewFromFile builds a store seeded from a YAML file. A missing file
// yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	ctx := context.Background()
	for _, sm := range seed.Members {
		m := core.Member{
			ID:              sm.ID,
			Name:            strings.TrimSpace(sm.Name),
			Phone:           sm.Phone,
			Gender:          core.Gender(sm.Gender),
			SkillLevel:      core.SkillLevel(sm.SkillLevel),
			PlayingPosition: core.PlayingPosition(sm.Position),
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("seed member %q: %w", sm.Name, err)
		}
		if _, err := s.CreateMember(ctx, m); err != nil {
			return nil, err
		}
	}
	for i, sc := range seed.Contributions {
		amount, err := core.ParseMoney(sc.Amount)
		if err != nil {
			return nil, fmt.Errorf("seed contribution %d: %w", i, err)
		}
		c := core.Contribution{
			MemberID:         sc.MemberID,
			Amount:           amount,
			Type:             core.ContributionType(sc.Type),
			Description:      sc.Description,
			ContributionDate: sc.Date,
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("seed contribution %d: %w", i, err)
		}
		if _, err := s.CreateContribution(ctx, c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) id(requested int64) int64 {
	if requested > s.nextID {
		s.nextID = requested
		return requested
	}
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) ListMembers(_ context.Context) ([]core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetMember(_ context.Context, id int64) (core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return core.Member{}, fmt.Errorf("member %d: %w", id, core.ErrNotFound)
	}
	return m, nil
}

func (s *Store) CreateMember(_ context.Context, m core.Member) (core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.members[m.ID]; taken && m.ID != 0 {
		return core.Member{}, fmt.Errorf("member %d already exists", m.ID)
	}
	m.ID = s.id(m.ID)
	m.CreatedAt = s.now().UTC()
	m.UpdatedAt = m.CreatedAt
	s.members[m.ID] = m
	return m, nil
}

func (s *Store) UpdateMember(_ context.Context, m core.Member) (core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.members[m.ID]
	if !ok {
		return core.Member{}, fmt.Errorf("member %d: %w", m.ID, core.ErrNotFound)
	}
	m.CreatedAt = old.CreatedAt
	m.UpdatedAt = s.now().UTC()
	s.members[m.ID] = m
	return m, nil
}

// DeleteMember removes the member only. Their contributions stay and
// become orphans in later aggregations.
func (s *Store) DeleteMember(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return fmt.Errorf("member %d: %w", id, core.ErrNotFound)
	}
	delete(s.members, id)
	for sid, sess := range s.sessions {
		sess.ParticipantIDs = without(sess.ParticipantIDs, id)
		s.sessions[sid] = sess
	}
	return nil
}

func (s *Store) ListSessions(_ context.Context) ([]core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, cloneSession(sess))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SessionDate != out[j].SessionDate {
			return out[i].SessionDate > out[j].SessionDate
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) GetSession(_ context.Context, id int64) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return core.Session{}, fmt.Errorf("session %d: %w", id, core.ErrNotFound)
	}
	return cloneSession(sess), nil
}

func (s *Store) CreateSession(_ context.Context, sess core.Session) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess = cloneSession(sess)
	sess.ID = s.id(0)
	sess.CreatedAt = s.now().UTC()
	sess.UpdatedAt = sess.CreatedAt
	s.sessions[sess.ID] = sess
	return cloneSession(sess), nil
}

func (s *Store) UpdateSession(_ context.Context, sess core.Session) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.sessions[sess.ID]
	if !ok {
		return core.Session{}, fmt.Errorf("session %d: %w", sess.ID, core.ErrNotFound)
	}
	sess = cloneSession(sess)
	sess.CreatedAt = old.CreatedAt
	sess.UpdatedAt = s.now().UTC()
	s.sessions[sess.ID] = sess
	return cloneSession(sess), nil
}

func (s *Store) DeleteSession(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session %d: %w", id, core.ErrNotFound)
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) ListContributions(_ context.Context) ([]core.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Contribution, 0, len(s.contributions))
	for _, c := range s.contributions {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ContributionDate != out[j].ContributionDate {
			return out[i].ContributionDate > out[j].ContributionDate
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) CreateContribution(_ context.Context, c core.Contribution) (core.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id(0)
	c.CreatedAt = s.now().UTC()
	s.contributions[c.ID] = c
	return c, nil
}

func (s *Store) DeleteContribution(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contributions[id]; !ok {
		return fmt.Errorf("contribution %d: %w", id, core.ErrNotFound)
	}
	delete(s.contributions, id)
	return nil
}

func cloneSession(s core.Session) core.Session {
	s.ParticipantIDs = append([]int64(nil), s.ParticipantIDs...)
	return s
}

func without(ids []int64, id int64) []int64 {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
