package beatmap

import (
	"errors"
	"fmt"
)

// Parse errors. A *ParseError wraps one of these, so callers can match
// with errors.Is.
var (
	ErrIO                       = errors.New("beatmap stream unreadable")
	ErrUnsupportedFormatVersion = errors.New("unsupported beatmap format version")
	ErrUnsupportedMode          = errors.New("unsupported game mode")
	ErrInvalidBool              = errors.New("invalid bool")
	ErrInvalidInt               = errors.New("invalid int")
	ErrInvalidFloat             = errors.New("invalid float")
	ErrInvalidEnum              = errors.New("invalid enum value")
	ErrInvalidTimingPoint       = errors.New("invalid timing point")
)

// ParseError describes a failure while reading a chart.
type ParseError struct {
	Kind error // one of the Err* sentinels
	Line int   // 1-based source line, 0 when not tied to a line
	Err  error // underlying cause, may be nil
}

func (e *ParseError) Error() string {
	msg := e.Kind.Error()
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newParseError(kind error, line int, cause error) *ParseError {
	return &ParseError{Kind: kind, Line: line, Err: cause}
}
