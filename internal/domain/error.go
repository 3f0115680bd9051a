package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrChatUnavailable = errors.New("chat unavailable")
)

// ClassificationError means the administrator list for the gating channel could
// not be fetched, so no reply or forward decision can be made.
type ClassificationError struct {
	ChannelID string
	Handle    string
	Err       error
	trace     Trace
}

func NewClassificationError(channelID, handle string, err error) *ClassificationError {
	return &ClassificationError{ChannelID: channelID, Handle: handle, Err: err, trace: CaptureTrace(1)}
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify %q against channel %s: %v", e.Handle, e.ChannelID, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }
func (e *ClassificationError) Trace() Trace  { return e.trace }

// ResolutionError names the configured recipient identifier that failed to resolve.
type ResolutionError struct {
	Identifier string
	Err        error
	trace      Trace
}

func NewResolutionError(identifier string, err error) *ResolutionError {
	return &ResolutionError{Identifier: identifier, Err: err, trace: CaptureTrace(1)}
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve recipient %s: %v", e.Identifier, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
func (e *ResolutionError) Trace() Trace  { return e.trace }

// DeliveryError is a failed send or forward to an already known chat.
type DeliveryError struct {
	Op     string // "reply" | "forward" | "report"
	Target string
	Err    error
	trace  Trace
}

func NewDeliveryError(op, target string, err error) *DeliveryError {
	return &DeliveryError{Op: op, Target: target, Err: err, trace: CaptureTrace(1)}
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s to %s: %v", e.Op, e.Target, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
func (e *DeliveryError) Trace() Trace  { return e.trace }

// PanicError wraps a value recovered from a panic together with the stack at
// the point of recovery.
type PanicError struct {
	Value any
	trace Trace
}

func NewPanicError(v any) *PanicError {
	return &PanicError{Value: v, trace: CaptureTrace(2)}
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return "panic: " + err.Error()
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func (e *PanicError) Trace() Trace { return e.trace }
