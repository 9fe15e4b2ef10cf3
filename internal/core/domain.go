package core

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	Deposit        ContributionType = "deposit"
	Withdrawal     ContributionType = "withdrawal"
	SessionPayment ContributionType = "session_payment"
)

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

const (
	Beginner     SkillLevel = "beginner"
	Intermediate SkillLevel = "intermediate"
	Advanced     SkillLevel = "advanced"
	Expert       SkillLevel = "expert"
)

const (
	Singles PlayingPosition = "singles"
	Doubles PlayingPosition = "doubles"
	Both    PlayingPosition = "both"
)

// DateLayout is the wire and storage layout for calendar dates.
const DateLayout = "2006-01-02"

type (
	ContributionType string
	Gender           string
	SkillLevel       string
	PlayingPosition  string

	// PlayerRef is the {id, name} projection of a member handed to the engine.
	PlayerRef struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	Member struct {
		ID              int64           `json:"id"`
		Name            string          `json:"name"`
		Phone           string          `json:"phone,omitempty"`
		BirthDate       string          `json:"birthDate,omitempty"`
		Gender          Gender          `json:"gender,omitempty"`
		SkillLevel      SkillLevel      `json:"skillLevel,omitempty"`
		PlayingPosition PlayingPosition `json:"playingPosition,omitempty"`
		AvatarURL       string          `json:"avatarUrl,omitempty"`
		CreatedAt       time.Time       `json:"createdAt"`
		UpdatedAt       time.Time       `json:"updatedAt"`
	}

	Session struct {
		ID               int64     `json:"id"`
		CourtName        string    `json:"courtName"`
		SessionDate      string    `json:"sessionDate"`
		StartTime        string    `json:"startTime"`
		EndTime          string    `json:"endTime"`
		ShuttlecockCount int       `json:"shuttlecockCount"`
		SessionCosts
		Notes          string    `json:"notes,omitempty"`
		ParticipantIDs []int64   `json:"participantIds"`
		CreatedAt      time.Time `json:"createdAt"`
		UpdatedAt      time.Time `json:"updatedAt"`
	}

	Contribution struct {
		ID               int64            `json:"id"`
		MemberID         int64            `json:"memberId"`
		Amount           Money            `json:"amount"`
		Type             ContributionType `json:"type"`
		Description      string           `json:"description,omitempty"`
		ContributionDate string           `json:"contributionDate"`
		SessionID        *int64           `json:"sessionId,omitempty"`
		CreatedAt        time.Time        `json:"createdAt"`
	}
)

var (
	ErrEmptyName               = errors.New("empty name")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidContributionType = errors.New("invalid contribution type")
	ErrInvalidGender           = errors.New("invalid gender")
	ErrInvalidSkillLevel       = errors.New("invalid skill level")
	ErrInvalidPosition         = errors.New("invalid playing position")
	ErrInvalidDate             = errors.New("invalid date")
	ErrInvalidTimeRange        = errors.New("end time must be after start time")
	ErrNoParticipants          = errors.New("session needs at least one participant")
	ErrUnknownMember           = errors.New("unknown member")
	ErrNotFound                = errors.New("not found")
)

func (t ContributionType) IsValid() bool {
	switch t {
	case Deposit, Withdrawal, SessionPayment:
		return true
	}
	return false
}

func (g Gender) Validate() error {
	switch g {
	case "", GenderMale, GenderFemale, GenderOther:
		return nil
	}
	return ErrInvalidGender
}

func (s SkillLevel) Validate() error {
	switch s {
	case "", Beginner, Intermediate, Advanced, Expert:
		return nil
	}
	return ErrInvalidSkillLevel
}

func (p PlayingPosition) Validate() error {
	switch p {
	case "", Singles, Doubles, Both:
		return nil
	}
	return ErrInvalidPosition
}

// Ref projects the member to the shape the split calculator and ledger consume.
func (m Member) Ref() PlayerRef {
	return PlayerRef{ID: m.ID, Name: m.Name}
}

func (m Member) Validate() error {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if len(m.Phone) > 20 {
		return errors.New("phone too long (max 20 characters)")
	}
	if m.BirthDate != "" {
		if _, err := ParseDate(m.BirthDate); err != nil {
			return fmt.Errorf("birth date: %w", err)
		}
	}
	if err := m.Gender.Validate(); err != nil {
		return err
	}
	if err := m.SkillLevel.Validate(); err != nil {
		return err
	}
	if err := m.PlayingPosition.Validate(); err != nil {
		return err
	}
	if m.AvatarURL != "" {
		u, err := url.Parse(m.AvatarURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.New("avatar url must be an absolute http(s) URL")
		}
	}
	return nil
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.CourtName) == "" {
		return ErrEmptyName
	}
	if _, err := ParseDate(s.SessionDate); err != nil {
		return fmt.Errorf("session date: %w", err)
	}
	start, err := time.Parse("15:04", s.StartTime)
	if err != nil {
		return fmt.Errorf("start time: %w", ErrInvalidDate)
	}
	end, err := time.Parse("15:04", s.EndTime)
	if err != nil {
		return fmt.Errorf("end time: %w", ErrInvalidDate)
	}
	if !end.After(start) {
		return ErrInvalidTimeRange
	}
	if s.ShuttlecockCount < 0 {
		return errors.New("shuttlecock count cannot be negative")
	}
	if err := s.SessionCosts.Validate(); err != nil {
		return err
	}
	if len(s.ParticipantIDs) == 0 {
		return ErrNoParticipants
	}
	return nil
}

// Breakdown recomputes the cost totals from the sub-costs and participant list.
func (s Session) Breakdown() SessionCostBreakdown {
	return ComputeSessionCost(s.SessionCosts, len(s.ParticipantIDs))
}

func (c Contribution) Validate() error {
	if c.MemberID <= 0 {
		return ErrUnknownMember
	}
	if err := c.Amount.Validate(); err != nil {
		return err
	}
	if !c.Type.IsValid() {
		return ErrInvalidContributionType
	}
	if len(c.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	if _, err := ParseDate(c.ContributionDate); err != nil {
		return fmt.Errorf("contribution date: %w", err)
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// DedupeIDs drops non-positive and repeated ids, keeping first occurrences in order.
func DedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
