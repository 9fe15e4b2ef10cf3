package store

import (
	"context"

	"clubfund/internal/core"
)

// Ports for the record sources the engine reads from and the CRUD
// collaborators that write them. Lookups of missing records return an
// error wrapping core.ErrNotFound.
type (
	MemberDirectory interface {
		ListMembers(ctx context.Context) ([]core.Member, error)
		GetMember(ctx context.Context, id int64) (core.Member, error)
	}

	MemberWriter interface {
		CreateMember(ctx context.Context, m core.Member) (core.Member, error)
		UpdateMember(ctx context.Context, m core.Member) (core.Member, error)
		DeleteMember(ctx context.Context, id int64) error
	}

	// SessionStore supplies sessions with their participant ids.
	SessionStore interface {
		ListSessions(ctx context.Context) ([]core.Session, error)
		GetSession(ctx context.Context, id int64) (core.Session, error)
	}

	SessionWriter interface {
		CreateSession(ctx context.Context, s core.Session) (core.Session, error)
		UpdateSession(ctx context.Context, s core.Session) (core.Session, error)
		DeleteSession(ctx context.Context, id int64) error
	}

	// ContributionStore supplies the complete, unpaginated contribution history.
	ContributionStore interface {
		ListContributions(ctx context.Context) ([]core.Contribution, error)
	}

	ContributionWriter interface {
		CreateContribution(ctx context.Context, c core.Contribution) (core.Contribution, error)
		DeleteContribution(ctx context.Context, id int64) error
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Backend is everything a storage adapter provides.
	Backend interface {
		MemberDirectory
		MemberWriter
		SessionStore
		SessionWriter
		ContributionStore
		ContributionWriter
		Pinger
	}
)

// Roster projects members to the {id, name} pairs the engine consumes.
func Roster(members []core.Member) []core.PlayerRef {
	out := make([]core.PlayerRef, 0, len(members))
	for _, m := range members {
		out = append(out, m.Ref())
	}
	return out
}
