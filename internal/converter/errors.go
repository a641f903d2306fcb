// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converter

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a conversion failure.
type Kind string

const (
	KindBinaryNotFound     Kind = "binary_not_found"
	KindInputNotFound      Kind = "input_not_found"
	KindInputInvalid       Kind = "input_invalid"
	KindTimeout            Kind = "timeout"
	KindExternalTool       Kind = "external_tool"
	KindOutputMissing      Kind = "output_missing"
	KindOutputRenameFailed Kind = "output_rename_failed"
	KindOutputCorrupt      Kind = "output_corrupt"
	KindCancelled          Kind = "cancelled"
	KindInternal           Kind = "internal"
)

// Kinds lists every failure kind in a stable order.
var Kinds = []Kind{
	KindBinaryNotFound,
	KindInputNotFound,
	KindInputInvalid,
	KindTimeout,
	KindExternalTool,
	KindOutputMissing,
	KindOutputRenameFailed,
	KindOutputCorrupt,
	KindCancelled,
	KindInternal,
}

// Message returns the human-readable summary for the kind.
func (k Kind) Message() string {
	switch k {
	case KindBinaryNotFound:
		return "LibreOffice converter not found; install LibreOffice or set binary_path (DITTO_BINARY)"
	case KindInputNotFound:
		return "input file not found"
	case KindInputInvalid:
		return "invalid conversion request"
	case KindTimeout:
		return "conversion timed out; the converter was terminated"
	case KindExternalTool:
		return "converter exited with an error"
	case KindOutputMissing:
		return "converter reported success but produced no PDF"
	case KindOutputRenameFailed:
		return "could not move the produced PDF to the requested path"
	case KindOutputCorrupt:
		return "produced file is not a valid PDF"
	case KindCancelled:
		return "conversion cancelled"
	default:
		return "internal error"
	}
}

// Error is the failure half of a conversion outcome. Every error returned by
// Converter.Convert is an *Error.
type Error struct {
	Kind Kind
	// Path is the file the failure refers to, if any.
	Path string
	// Msg overrides Kind.Message when set.
	Msg string
	// ExitCode and Stderr are set for KindExternalTool.
	ExitCode int
	Stderr   string
	// Staging is the directory left behind when cleanup is disabled.
	Staging string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Message()
	}
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Kind == KindExternalTool && e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so the Err*
// sentinels below can be used with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrBinaryNotFound     = &Error{Kind: KindBinaryNotFound}
	ErrInputNotFound      = &Error{Kind: KindInputNotFound}
	ErrInputInvalid       = &Error{Kind: KindInputInvalid}
	ErrTimeout            = &Error{Kind: KindTimeout}
	ErrExternalTool       = &Error{Kind: KindExternalTool}
	ErrOutputMissing      = &Error{Kind: KindOutputMissing}
	ErrOutputRenameFailed = &Error{Kind: KindOutputRenameFailed}
	ErrOutputCorrupt      = &Error{Kind: KindOutputCorrupt}
	ErrCancelled          = &Error{Kind: KindCancelled}
)

func newError(kind Kind, path, msg string, err error) *Error {
	return &Error{Kind: kind, Path: path, Msg: msg, Err: err}
}

// KindFromError maps an error to its conversion kind. Bare context errors
// map to timeout and cancelled; anything else unknown is internal.
func KindFromError(err error) Kind {
	if err == nil {
		return ""
	}

	var convErr *Error
	if errors.As(err, &convErr) {
		return convErr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}

	return KindInternal
}
