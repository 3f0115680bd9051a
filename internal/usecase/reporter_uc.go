package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/antsif-a/schizontology-bot/internal/domain"
	"github.com/antsif-a/schizontology-bot/internal/domain/model"
	"github.com/antsif-a/schizontology-bot/internal/domain/ports/adapter"
	"github.com/antsif-a/schizontology-bot/internal/infra/i18n"
	"github.com/antsif-a/schizontology-bot/internal/infra/logging"
	"github.com/antsif-a/schizontology-bot/internal/infra/metrics"
)

// Compile-time check
var _ ReporterUseCase = (*reporterUC)(nil)

const (
	// DefaultTraceFrames bounds the stack attached to a diagnostic.
	DefaultTraceFrames = 3

	// Telegram caps a message at 4096 characters after entity parsing.
	maxEventRunes = 3000
	maxErrorRunes = 600
)

type ReporterUseCase interface {
	// Report logs err, builds a diagnostic from it and the triggering event and
	// sends it to the operator chat. Delivery failures are logged, never retried.
	Report(ctx context.Context, err error, event any) model.DiagnosticReport
}

type reporterUC struct {
	bot      adapter.Messenger
	operator model.Destination
	replies  Replies
	frames   int
	log      *zerolog.Logger
	now      func() time.Time
}

func NewReporterUseCase(bot adapter.Messenger, operator model.Destination, replies Replies, logger *zerolog.Logger) ReporterUseCase {
	return &reporterUC{
		bot:      bot,
		operator: operator,
		replies:  replies,
		frames:   DefaultTraceFrames,
		log:      logger,
		now:      time.Now,
	}
}

func (uc *reporterUC) Report(ctx context.Context, err error, event any) model.DiagnosticReport {
	l := logging.With(ctx, uc.log)
	l.Error().Err(err).Msg("unhandled error while handling update")

	trace := domain.TraceOf(err)
	if trace == nil {
		trace = domain.CaptureTrace(1)
	}

	now := uc.now()
	report := model.DiagnosticReport{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Err:       err,
		Event:     SnapshotEvent(event),
		Trace:     trace.Limit(uc.frames),
		CreatedAt: now,
	}
	report.Body = uc.render(report)

	sendErr := uc.bot.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:    uc.operator.ChatID,
		Text:      report.Body,
		ParseMode: adapter.ParseModeHTML,
	})
	if sendErr != nil {
		// Terminal path: reporting this failure would recurse.
		metrics.IncDiagnostic("failed")
		l.Error().Err(sendErr).Str("report_id", report.ID).Msg("failed to deliver diagnostic to operator")
		return report
	}
	report.Delivered = true
	metrics.IncDiagnostic("delivered")
	return report
}

// render produces the operator message. Every piece of user- or trace-derived
// text is HTML-escaped.
func (uc *reporterUC) render(r model.DiagnosticReport) string {
	var errText string
	if r.Err != nil {
		errText = r.Err.Error()
	}
	details := truncateRunes(errText, maxErrorRunes)
	if len(r.Trace) > 0 {
		details += "\n\n" + r.Trace.String()
	}

	var b strings.Builder
	b.WriteString(html.EscapeString(uc.replies.T(i18n.KeyError)))
	b.WriteString(" <code>")
	b.WriteString(html.EscapeString(r.ID))
	b.WriteString("</code>\n")
	b.WriteString("<pre>update = ")
	b.WriteString(html.EscapeString(truncateRunes(r.Event, maxEventRunes)))
	b.WriteString("</pre>\n\n<pre>")
	b.WriteString(html.EscapeString(details))
	b.WriteString("</pre>")
	return b.String()
}

// SnapshotEvent serializes an event as indented JSON, falling back to its Go
// representation when it cannot be marshaled.
func SnapshotEvent(event any) string {
	if s, ok := event.(string); ok {
		return s
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(event); err != nil {
		return fmt.Sprintf("%+v", event)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + "…"
		}
		i++
	}
	return s
}
