package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kinds of ledger change. Consumers recompute the whole fund summary
// whatever the kind; it is carried for logging and filtering.
const (
	KindContributionCreated = "contribution_created"
	KindContributionDeleted = "contribution_deleted"
	KindSessionChanged      = "session_changed"
	KindMemberChanged       = "member_changed"
	KindMemberDeleted       = "member_deleted"
)

var ErrUnknownKind = errors.New("unknown ledger change kind")

// LedgerChangedMessage announces that inputs to the fund balances changed.
// It carries identifiers only; consumers reload state from the store.
type LedgerChangedMessage struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	EntityID  int64     `json:"entityId"`
	MemberID  int64     `json:"memberId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(kind string, entityID, memberID int64) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		ID:        uuid.NewString(),
		Kind:      kind,
		EntityID:  entityID,
		MemberID:  memberID,
		Timestamp: time.Now().UTC(),
	}
}

func validKind(kind string) bool {
	switch kind {
	case KindContributionCreated, KindContributionDeleted, KindSessionChanged, KindMemberChanged, KindMemberDeleted:
		return true
	}
	return false
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes and checks a message body.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !validKind(msg.Kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, msg.Kind)
	}
	return &msg, nil
}
