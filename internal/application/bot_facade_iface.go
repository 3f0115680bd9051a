package application

import (
	"context"

	"github.com/antsif-a/schizontology-bot/internal/domain/model"
)

// ---- small interfaces to decouple the facade from concrete usecase structs ----
// These describe the minimal surface that the facade needs. Using interfaces
// enables tests to pass in light-weight mocks.
type RouterIface interface {
	Route(ctx context.Context, msg *model.InboundMessage) (model.RouteResult, error)
}

type ReporterIface interface {
	Report(ctx context.Context, err error, event any) model.DiagnosticReport
}

type RepliesIface interface {
	T(key string, args ...interface{}) string
}

// EventHandler is what the transport calls for each inbound event and for
// transport-level failures.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev model.Event) Outcome
	HandleError(ctx context.Context, err error, raw any) model.DiagnosticReport
}

var _ EventHandler = (*BotFacade)(nil)
