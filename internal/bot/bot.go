// Package bot connects parsed chat messages to the duty rotation: it filters
// messages addressed elsewhere, enforces the administrator check and renders
// the replies of every command.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/duty-bot/internal/application"
	"github.com/example/duty-bot/internal/command"
	"github.com/example/duty-bot/internal/logging"
	"github.com/example/duty-bot/internal/metrics"
)

// Sender delivers a reply to a conversation.
type Sender interface {
	SendText(ctx context.Context, peerID int64, text string) error
}

// Incoming is a chat message as the bot sees it.
type Incoming struct {
	PeerID  int64
	FromID  int64
	Text    string
	Payload string
	// Invited is set when the message is the service notice of someone being
	// invited to the conversation.
	Invited bool
}

// Config wires the bot to its collaborators.
type Config struct {
	GroupID  int64
	Duty     *application.DutyService
	Admins   *application.AdminService
	Throttle *application.Throttle
	Profiles *application.ProfileDirectory
	Sender   Sender
	// Revision is printed at the end of the help text. Defaults to the VCS
	// revision stamped into the binary.
	Revision string
	Logger   *slog.Logger
}

// Bot is the command.Facade of one floor.
type Bot struct {
	groupID  int64
	duty     *application.DutyService
	admins   *application.AdminService
	throttle *application.Throttle
	profiles *application.ProfileDirectory
	sender   Sender
	revision string
	logger   *slog.Logger
}

var _ command.Facade = (*Bot)(nil)

// New validates cfg and returns a bot.
func New(cfg Config) (*Bot, error) {
	switch {
	case cfg.Duty == nil:
		return nil, errors.New("bot: duty service is required")
	case cfg.Admins == nil:
		return nil, errors.New("bot: admin service is required")
	case cfg.Throttle == nil:
		return nil, errors.New("bot: throttle is required")
	case cfg.Sender == nil:
		return nil, errors.New("bot: sender is required")
	}
	profiles := cfg.Profiles
	if profiles == nil {
		profiles = application.NewProfileDirectory(nil, 0, nil, cfg.Logger)
	}
	revision := cfg.Revision
	if revision == "" {
		revision = BuildRevision()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		groupID:  cfg.GroupID,
		duty:     cfg.Duty,
		admins:   cfg.Admins,
		throttle: cfg.Throttle,
		profiles: profiles,
		sender:   cfg.Sender,
		revision: revision,
		logger:   logger,
	}, nil
}

func (b *Bot) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContextOr(ctx, b.logger)
	pairs := []any{"component", "bot", "operation", operation}
	return logger.With(append(pairs, attrs...)...)
}

// HandleMessage runs the command carried by in. Messages that do not parse,
// that mention another community, or that ask a non-administrator for a
// privileged command are dropped without a reply. The returned error is a
// storage or rotation failure; reply delivery failures are only logged.
func (b *Bot) HandleMessage(ctx context.Context, in Incoming) error {
	logger := b.loggerWith(ctx, "HandleMessage", "peer_id", in.PeerID, "from_id", in.FromID)

	if in.Invited {
		b.reply(ctx, in.PeerID, greetingText)
		return nil
	}

	cmd, ok := command.FromPayload(in.Payload)
	if !ok {
		msg, err := command.Parse(in.Text)
		if err != nil {
			metrics.DroppedMessages.WithLabelValues(metrics.DropUnparsed).Inc()
			logger.DebugContext(ctx, "message ignored", "reason", metrics.DropUnparsed, "error", err)
			return nil
		}
		if msg.Mention != nil && !b.isMentioned(*msg.Mention) {
			metrics.DroppedMessages.WithLabelValues(metrics.DropForeignMention).Inc()
			logger.DebugContext(ctx, "message ignored", "reason", metrics.DropForeignMention, "mention", msg.Mention.String())
			return nil
		}
		cmd = msg.Command
	}

	if cmd.Privileged() {
		admin, err := b.admins.IsAdmin(ctx, in.FromID)
		if err != nil {
			return fmt.Errorf("check admin %d: %w", in.FromID, err)
		}
		if !admin {
			metrics.DroppedMessages.WithLabelValues(metrics.DropForbidden).Inc()
			logger.DebugContext(ctx, "message ignored", "reason", metrics.DropForbidden, "command", cmd.String())
			return nil
		}
	}

	start := time.Now()
	if err := cmd.Perform(ctx, b, in.PeerID); err != nil {
		metrics.CommandsTotal.WithLabelValues(cmd.Kind.String(), "error").Inc()
		logger.ErrorContext(ctx, "command failed", "command", cmd.String(), "error", err, "error_kind", application.ErrorKind(err))
		return err
	}
	metrics.CommandsTotal.WithLabelValues(cmd.Kind.String(), "ok").Inc()
	logger.InfoContext(ctx, "command performed", "command", cmd.String(), "duration", time.Since(start))
	return nil
}

// isMentioned reports whether mention addresses this community.
func (b *Bot) isMentioned(mention command.Mention) bool {
	return mention.Type == "club" && mention.ID == b.groupID
}

func (b *Bot) reply(ctx context.Context, peerID int64, text string) {
	if err := b.sender.SendText(ctx, peerID, text); err != nil {
		metrics.SendErrors.Inc()
		b.loggerWith(ctx, "reply", "peer_id", peerID).
			ErrorContext(ctx, "failed to send reply", "error", err)
	}
}
