package services

import (
	"context"
	"errors"
	"fmt"

	applog "clubfund/internal/log"
)

// ErrInvalidInput marks errors caused by the caller's data.
var ErrInvalidInput = errors.New("invalid input")

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// EventPublisher announces ledger changes. amqp.Client implements it.
type EventPublisher interface {
	PublishLedgerChanged(ctx context.Context, kind string, entityID, memberID int64) error
}

// notify publishes without failing the caller; the write already succeeded.
func notify(ctx context.Context, log *applog.Logger, pub EventPublisher, kind string, entityID, memberID int64) {
	if pub == nil {
		log.DebugContext(ctx, "No event publisher configured, skipping ledger changed message", applog.FieldEventKind, kind)
		return
	}
	if err := pub.PublishLedgerChanged(ctx, kind, entityID, memberID); err != nil {
		log.ErrorContext(ctx, "Failed to publish ledger changed message",
			applog.FieldEventKind, kind,
			applog.FieldEntityID, entityID,
			applog.FieldError, err)
	}
}
