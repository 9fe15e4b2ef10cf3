package notifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/bwmarrin/discordgo"

	applog "clubfund/internal/log"
)

// Minimal session interface for sending channel messages.
type channelSession interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts fund digests to one channel.
type DiscordNotifier struct {
	session   channelSession
	channelID string
	log       *applog.Logger
	sleep     func(time.Duration)
	closer    func() error
}

// NewDiscord creates a REST-only bot session. No gateway connection is
// opened since the notifier only sends messages.
func NewDiscord(token, channelID string) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	n := newDiscordNotifier(session, channelID)
	n.closer = session.Close
	return n, nil
}

func newDiscordNotifier(session channelSession, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
		log:       applog.Default(applog.ComponentNotifier),
		sleep:     time.Sleep,
	}
}

// Send posts content, retrying once on timeouts and temporary network errors.
func (n *DiscordNotifier) Send(ctx context.Context, content string) error {
	if content == "" {
		return nil
	}
	msg, err := n.sendWithRetry(ctx, content)
	if err != nil {
		n.log.ErrorContext(ctx, "Failed to send discord message", applog.FieldError, err)
		return err
	}
	n.log.InfoContext(ctx, "Discord message sent", applog.FieldMessageID, msg.ID)
	return nil
}

func (n *DiscordNotifier) Close() error {
	if n.closer == nil {
		return nil
	}
	return n.closer()
}

func (n *DiscordNotifier) sendWithRetry(ctx context.Context, content string) (*discordgo.Message, error) {
	const attemptTimeout = 12 * time.Second
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		msg, err := n.session.ChannelMessageSend(n.channelID, content, discordgo.WithContext(sendCtx))
		cancel()
		if err == nil {
			return msg, nil
		}
		lastErr = err
		if !isTemporaryOrTimeout(err) || ctx.Err() != nil {
			return nil, err
		}
		n.sleep(time.Duration(300+rand.Intn(500)) * time.Millisecond)
	}
	return nil, lastErr
}

func isTemporaryOrTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
