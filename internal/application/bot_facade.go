package application

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/antsif-a/schizontology-bot/internal/domain"
	"github.com/antsif-a/schizontology-bot/internal/domain/model"
	"github.com/antsif-a/schizontology-bot/internal/domain/ports/adapter"
	"github.com/antsif-a/schizontology-bot/internal/infra/i18n"
	"github.com/antsif-a/schizontology-bot/internal/infra/logging"
	"github.com/antsif-a/schizontology-bot/internal/infra/metrics"
)

// Outcome describes what happened to one event. Route is set for routed
// personal messages; Report is set whenever the operator was notified.
type Outcome struct {
	Kind   model.EventKind
	Route  *model.RouteResult
	Report *model.DiagnosticReport
}

// BotFacade is the single entry point the transport calls. It dispatches the
// classified event and guarantees that any failure, panics included, ends up
// with the operator instead of vanishing.
type BotFacade struct {
	Router   RouterIface
	Reporter ReporterIface
	Bot      adapter.Messenger
	Replies  RepliesIface
	log      *zerolog.Logger
}

func NewBotFacade(router RouterIface, reporter ReporterIface, bot adapter.Messenger, replies RepliesIface, logger *zerolog.Logger) *BotFacade {
	if logger == nil {
		logger = logging.Nop()
	}
	return &BotFacade{
		Router:   router,
		Reporter: reporter,
		Bot:      bot,
		Replies:  replies,
		log:      logger,
	}
}

func (b *BotFacade) HandleEvent(ctx context.Context, ev model.Event) (out Outcome) {
	out.Kind = ev.Kind
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithEvent(ctx, ev.Kind.String())
	if ev.Message != nil {
		ctx = logging.WithTgID(ctx, ev.Message.Sender.ID)
		ctx = logging.WithChatID(ctx, ev.Message.Ref.ChatID)
	}
	metrics.IncEvent(ev.Kind.String())

	defer func() {
		if rec := recover(); rec != nil {
			out.Report = b.report(ctx, domain.NewPanicError(rec), snapshotOf(ev))
		}
	}()

	var err error
	switch ev.Kind {
	case model.EventCommand:
		err = b.handleCommand(ctx, ev)
	case model.EventPersonalMessage:
		var res model.RouteResult
		res, err = b.Router.Route(ctx, ev.Message)
		if err == nil {
			out.Route = &res
		}
	default:
		logging.With(ctx, b.log).Debug().Msg("ignoring update")
		return out
	}

	if err != nil {
		out.Report = b.report(ctx, err, snapshotOf(ev))
	}
	return out
}

// HandleError reports a failure that happened outside event handling, such as
// an update the transport could not dispatch.
func (b *BotFacade) HandleError(ctx context.Context, err error, raw any) model.DiagnosticReport {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	if report := b.report(ctx, err, raw); report != nil {
		return *report
	}
	return model.DiagnosticReport{Err: err}
}

// report is the terminal path: a panic inside the reporter is logged here and
// goes no further.
func (b *BotFacade) report(ctx context.Context, err error, raw any) (out *model.DiagnosticReport) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.With(ctx, b.log).Error().
				Err(err).
				AnErr("report_panic", domain.NewPanicError(rec)).
				Msg("failed to report error")
			out = nil
		}
	}()
	report := b.Reporter.Report(ctx, err, raw)
	return &report
}

func (b *BotFacade) handleCommand(ctx context.Context, ev model.Event) error {
	if ev.Message == nil {
		return fmt.Errorf("command %q without message: %w", ev.Command, domain.ErrInvalidArgument)
	}
	switch ev.Command {
	case "start":
		chatID := ev.Message.Ref.ChatID
		err := b.Bot.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: chatID,
			Text:   b.Replies.T(i18n.KeyStart),
		})
		if err != nil {
			return domain.NewDeliveryError("reply", strconv.FormatInt(chatID, 10), err)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", ev.Command, domain.ErrInvalidArgument)
	}
}

// snapshotOf prefers the raw transport payload for diagnostics.
func snapshotOf(ev model.Event) any {
	if ev.Raw != nil {
		return ev.Raw
	}
	return ev
}
