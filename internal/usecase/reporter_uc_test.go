//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/antsif-a/schizontology-bot/internal/domain"
	"github.com/antsif-a/schizontology-bot/internal/domain/model"
	"github.com/antsif-a/schizontology-bot/internal/domain/ports/adapter"
	"github.com/antsif-a/schizontology-bot/internal/usecase"
)

var operator = model.Destination{Identifier: "999", ChatID: 999}

// deepFailure builds an error whose trace is deeper than the report limit.
func deepFailure(depth int) error {
	if depth == 0 {
		return domain.NewClassificationError("chan", "user42", errors.New("dial tcp: i/o timeout"))
	}
	return deepFailure(depth - 1)
}

func TestReporterUseCase(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	t.Run("should deliver one escaped diagnostic to the operator", func(t *testing.T) {
		bot := &MockMessenger{}
		uc := usecase.NewReporterUseCase(bot, operator, newTestTranslator(), logger)

		event := map[string]any{"text": "<b>bold</b> & <script>x</script>"}
		report := uc.Report(ctx, deepFailure(5), event)

		sent := bot.sent()
		if len(sent) != 1 {
			t.Fatalf("expected exactly one diagnostic, got %d", len(sent))
		}
		msg := sent[0]
		if msg.ChatID != operator.ChatID || msg.ParseMode != adapter.ParseModeHTML {
			t.Errorf("unexpected destination or parse mode: %+v", msg)
		}
		if !report.Delivered || report.Body != msg.Text {
			t.Errorf("report should be delivered and carry the sent body")
		}
		if strings.Contains(msg.Text, "<b>bold</b>") || strings.Contains(msg.Text, "<script>") {
			t.Errorf("user markup leaked unescaped:\n%s", msg.Text)
		}
		if !strings.Contains(msg.Text, "&lt;b&gt;bold&lt;/b&gt; &amp; &lt;script&gt;") {
			t.Errorf("expected escaped user text in body:\n%s", msg.Text)
		}
		if !strings.HasPrefix(msg.Text, testErrTitle) {
			t.Errorf("expected error header, got:\n%s", msg.Text)
		}
		if !strings.Contains(msg.Text, "i/o timeout") {
			t.Errorf("expected fault description in body:\n%s", msg.Text)
		}
		if !strings.Contains(msg.Text, report.ID) || report.ID == "" {
			t.Errorf("expected report id %q in body", report.ID)
		}
	})

	t.Run("trace should be truncated to three innermost frames", func(t *testing.T) {
		bot := &MockMessenger{}
		uc := usecase.NewReporterUseCase(bot, operator, newTestTranslator(), logger)

		err := deepFailure(10)
		if full := domain.TraceOf(err); len(full) <= usecase.DefaultTraceFrames {
			t.Fatalf("test setup: expected a deep trace, got %d frames", len(full))
		}
		report := uc.Report(ctx, err, nil)

		if len(report.Trace) == 0 || len(report.Trace) > usecase.DefaultTraceFrames {
			t.Fatalf("expected 1..%d frames, got %d", usecase.DefaultTraceFrames, len(report.Trace))
		}
		if !strings.HasSuffix(report.Trace[0].Function, "deepFailure") {
			t.Errorf("innermost frame should be the failing function, got %s", report.Trace[0].Function)
		}
	})

	t.Run("errors without a trace get the reporting call site", func(t *testing.T) {
		uc := usecase.NewReporterUseCase(&MockMessenger{}, operator, newTestTranslator(), logger)
		report := uc.Report(ctx, errors.New("plain"), "raw update")
		if len(report.Trace) == 0 {
			t.Fatal("expected a fallback trace")
		}
		if report.Event != "raw update" {
			t.Errorf("string events should be used verbatim, got %q", report.Event)
		}
	})

	t.Run("delivery failure is logged and not retried", func(t *testing.T) {
		calls := 0
		bot := &MockMessenger{
			SendMessageFunc: func(ctx context.Context, p adapter.SendMessageParams) error {
				calls++
				return errors.New("Bad Request: chat not found")
			},
		}
		uc := usecase.NewReporterUseCase(bot, operator, newTestTranslator(), logger)

		report := uc.Report(ctx, errors.New("boom"), nil)

		if report.Delivered {
			t.Error("report must not be marked delivered")
		}
		if calls != 1 {
			t.Errorf("expected a single attempt, got %d", calls)
		}
	})

	t.Run("long events are truncated", func(t *testing.T) {
		bot := &MockMessenger{}
		uc := usecase.NewReporterUseCase(bot, operator, newTestTranslator(), logger)

		report := uc.Report(ctx, errors.New("boom"), strings.Repeat("я", 10000))

		if n := len([]rune(report.Body)); n > 4096 {
			t.Errorf("body has %d runes, exceeds the message limit", n)
		}
	})
}

func TestSnapshotEvent(t *testing.T) {
	t.Run("marshals as indented JSON without HTML escaping", func(t *testing.T) {
		got := usecase.SnapshotEvent(struct {
			Text string `json:"text"`
		}{Text: "<i>"})
		want := "{\n  \"text\": \"<i>\"\n}"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("falls back to the Go representation", func(t *testing.T) {
		got := usecase.SnapshotEvent(struct{ C chan int }{})
		if !strings.Contains(got, "C:") {
			t.Errorf("expected %%+v fallback, got %q", got)
		}
	})
}
