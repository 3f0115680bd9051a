package domain

import (
	"fmt"
	"runtime"
	"strings"
)

// Frame is one resolved call site.
type Frame struct {
	Function string
	File     string
	Line     int
}

func (f Frame) String() string {
	return fmt.Sprintf("%s\n\t%s:%d", f.Function, f.File, f.Line)
}

// Trace is a call stack ordered innermost first.
type Trace []Frame

const maxCapturedFrames = 32

// CaptureTrace records the stack of its caller. skip counts additional frames
// above the caller to omit. Runtime-internal frames are dropped so that traces
// captured during a panic start at the panicking function.
func CaptureTrace(skip int) Trace {
	pcs := make([]uintptr, maxCapturedFrames)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	out := make(Trace, 0, n)
	for {
		f, more := frames.Next()
		if f.Function != "" && !strings.HasPrefix(f.Function, "runtime.") {
			out = append(out, Frame{Function: f.Function, File: f.File, Line: f.Line})
		}
		if !more {
			break
		}
	}
	return out
}

// Limit returns at most n innermost frames.
func (t Trace) Limit(n int) Trace {
	if n < 0 || len(t) <= n {
		return t
	}
	return t[:n]
}

func (t Trace) String() string {
	var b strings.Builder
	for i, f := range t {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.String())
	}
	return b.String()
}

type tracer interface{ Trace() Trace }

// TraceOf returns the stack recorded by the innermost traced error in err's
// chain, or nil when none of them carries one. For joined errors only the
// first branch is followed.
func TraceOf(err error) Trace {
	var found Trace
	for err != nil {
		if t, ok := err.(tracer); ok && len(t.Trace()) > 0 {
			found = t.Trace()
		}
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		case interface{ Unwrap() []error }:
			errs := u.Unwrap()
			if len(errs) == 0 {
				return found
			}
			err = errs[0]
		default:
			err = nil
		}
	}
	return found
}
