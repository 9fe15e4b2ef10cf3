package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestMoneyValidate(t *testing.T) {
	if err := VND(1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := VND(0).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := VND(-10).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestMemberValidate(t *testing.T) {
	good := Member{
		Name:            "Nguyễn Văn An",
		Phone:           "0901234567",
		BirthDate:       "1995-04-12",
		Gender:          GenderMale,
		SkillLevel:      Intermediate,
		PlayingPosition: Doubles,
		AvatarURL:       "https://example.com/a.png",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Member{Name: "Minimal"}).Validate(); err != nil {
		t.Fatalf("optional fields should be optional: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(m *Member)
		wantErr error
	}{
		{"blank name", func(m *Member) { m.Name = "   " }, ErrEmptyName},
		{"bad gender", func(m *Member) { m.Gender = "robot" }, ErrInvalidGender},
		{"bad skill", func(m *Member) { m.SkillLevel = "pro" }, ErrInvalidSkillLevel},
		{"bad position", func(m *Member) { m.PlayingPosition = "mixed" }, ErrInvalidPosition},
		{"bad birth date", func(m *Member) { m.BirthDate = "12/04/1995" }, ErrInvalidDate},
		{"bad avatar", func(m *Member) { m.AvatarURL = "ftp://x/y.png" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := good
			tt.mutate(&m)
			err := m.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSessionValidate(t *testing.T) {
	good := Session{
		CourtName:      "Sân Cầu Lông Quận 7",
		SessionDate:    "2025-03-01",
		StartTime:      "18:00",
		EndTime:        "20:00",
		SessionCosts:   SessionCosts{CourtCost: VND(200000)},
		ParticipantIDs: []int64{1, 2},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(s *Session)
		wantErr error
	}{
		{"no court", func(s *Session) { s.CourtName = "" }, ErrEmptyName},
		{"bad date", func(s *Session) { s.SessionDate = "2025-13-01" }, ErrInvalidDate},
		{"end before start", func(s *Session) { s.EndTime = "17:00" }, ErrInvalidTimeRange},
		{"equal times", func(s *Session) { s.EndTime = "18:00" }, ErrInvalidTimeRange},
		{"negative cost", func(s *Session) { s.WaterCost = VND(-1) }, ErrNegativeCost},
		{"cost above bound", func(s *Session) { s.CourtCost = MaxMoney.Add(VND(1)) }, ErrInvalidAmount},
		{"no participants", func(s *Session) { s.ParticipantIDs = nil }, ErrNoParticipants},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := good
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestContributionValidate(t *testing.T) {
	good := Contribution{MemberID: 1, Amount: VND(100000), Type: Deposit, ContributionDate: "2025-03-01"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		c       Contribution
		wantErr error
	}{
		{Contribution{MemberID: 0, Amount: VND(1), Type: Deposit, ContributionDate: "2025-03-01"}, ErrUnknownMember},
		{Contribution{MemberID: 1, Amount: VND(0), Type: Deposit, ContributionDate: "2025-03-01"}, ErrInvalidAmount},
		{Contribution{MemberID: 1, Amount: VND(5_000_000_000_000_000_000), Type: Deposit, ContributionDate: "2025-03-01"}, ErrInvalidAmount},
		{Contribution{MemberID: 1, Amount: VND(1), Type: "refund", ContributionDate: "2025-03-01"}, ErrInvalidContributionType},
		{Contribution{MemberID: 1, Amount: VND(1), Type: Withdrawal, ContributionDate: ""}, ErrInvalidDate},
	}
	for i, tc := range bads {
		if err := tc.c.Validate(); !errors.Is(err, tc.wantErr) {
			t.Fatalf("case %d expected %v, got %v", i, tc.wantErr, err)
		}
	}
}

func TestDedupeIDs(t *testing.T) {
	got := DedupeIDs([]int64{3, 1, 3, 0, -2, 2, 1})
	want := []int64{3, 1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DedupeIDs = %v, want %v", got, want)
	}
}
