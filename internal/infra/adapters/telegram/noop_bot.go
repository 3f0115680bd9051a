package telegram

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/antsif-a/schizontology-bot/internal/domain/model"
	"github.com/antsif-a/schizontology-bot/internal/domain/ports/adapter"
	"github.com/antsif-a/schizontology-bot/internal/infra/logging"
)

var _ adapter.Messenger = (*NoopMessenger)(nil)

// NoopMessenger implements adapter.Messenger for dry runs.
// It logs outbound messages instead of sending them.
type NoopMessenger struct {
	log   *zerolog.Logger
	delay time.Duration
}

func NewNoopMessenger(logger *zerolog.Logger) *NoopMessenger {
	if logger == nil {
		logger = logging.Nop()
	}
	return &NoopMessenger{log: logger, delay: 100 * time.Millisecond}
}

func (b *NoopMessenger) SendMessage(ctx context.Context, p adapter.SendMessageParams) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	logging.With(ctx, b.log).Info().
		Int64("to", p.ChatID).
		Str("parse_mode", p.ParseMode).
		Str("text", p.Text).
		Msg("[noop-telegram] send")
	return nil
}

func (b *NoopMessenger) Forward(ctx context.Context, toChatID int64, ref model.MessageRef) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	logging.With(ctx, b.log).Info().
		Int64("to", toChatID).
		Int64("from_chat", ref.ChatID).
		Int("message_id", ref.MessageID).
		Msg("[noop-telegram] forward")
	return nil
}

// wait simulates a network round trip and respects ctx.
func (b *NoopMessenger) wait(ctx context.Context) error {
	select {
	case <-time.After(b.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
