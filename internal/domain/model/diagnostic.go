package model

import (
	"time"

	"github.com/antsif-a/schizontology-bot/internal/domain"
)

// DiagnosticReport is what the operator chat receives for an unhandled failure.
type DiagnosticReport struct {
	ID        string
	Err       error
	Event     string // serialized snapshot of the triggering event
	Trace     domain.Trace
	CreatedAt time.Time

	// Body is the rendered, escaped payload that was (or would have been) sent.
	Body      string
	Delivered bool
}
