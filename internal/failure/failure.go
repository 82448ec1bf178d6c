// Package failure defines the error kinds a pipeline run can end with.
//
// Every stage wraps its errors in *Error so the pipeline and the notifier can
// report a reason without string matching. Kinds survive further wrapping
// with fmt.Errorf("...: %w", err).
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindAmbiguous is reserved: classification is total and never produces it.
	KindAmbiguous
	KindEncoding
	KindIO
	KindNetwork
	KindProtocol
	KindClipboard
)

func (k Kind) String() string {
	switch k {
	case KindAmbiguous:
		return "classification ambiguity"
	case KindEncoding:
		return "encoding error"
	case KindIO:
		return "i/o error"
	case KindNetwork:
		return "network error"
	case KindProtocol:
		return "protocol error"
	case KindClipboard:
		return "clipboard error"
	default:
		return "error"
	}
}

// Error is a failure of one pipeline stage.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with kind and op. A nil err yields nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is New with a formatted cause.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
