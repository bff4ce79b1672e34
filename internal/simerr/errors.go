package simerr

import (
	"errors"
	"fmt"
)

// Kind tags an error with its failure class. The simulation runner treats
// KindRetryable as recoverable via step cutback; everything else aborts.
type Kind int

const (
	KindUnknown Kind = iota
	KindProblemSetup
	KindConvergenceFailed
	KindInvalidState
	KindNumeric
	KindInvalidArg
	KindRetryable
)

func (k Kind) String() string {
	switch k {
	case KindProblemSetup:
		return "problem setup"
	case KindConvergenceFailed:
		return "convergence failed"
	case KindInvalidState:
		return "invalid state"
	case KindNumeric:
		return "numeric"
	case KindInvalidArg:
		return "invalid argument"
	case KindRetryable:
		return "retryable"
	}
	return "unknown"
}

// Error carries a failure kind plus enough context (node or component index,
// offending values) to diagnose without re-running.
type Error struct {
	Kind Kind
	Node int // node index, -1 if not applicable
	Comp int // component index, -1 if not applicable
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String() + ": " + e.Msg
	if e.Node >= 0 {
		s = fmt.Sprintf("%s (node %d)", s, e.Node)
	}
	if e.Comp >= 0 {
		s = fmt.Sprintf("%s (component %d)", s, e.Comp)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Node: -1, Comp: -1, Msg: fmt.Sprintf(format, args...)}
}

func Setupf(format string, args ...any) *Error {
	return newf(KindProblemSetup, format, args...)
}

func Convergencef(format string, args ...any) *Error {
	return newf(KindConvergenceFailed, format, args...)
}

func InvalidStatef(format string, args ...any) *Error {
	return newf(KindInvalidState, format, args...)
}

func Numericf(format string, args ...any) *Error {
	return newf(KindNumeric, format, args...)
}

func InvalidArgf(format string, args ...any) *Error {
	return newf(KindInvalidArg, format, args...)
}

// AtNode attaches a node index to the error and returns it.
func (e *Error) AtNode(node int) *Error {
	e.Node = node
	return e
}

// AtComp attaches a component index to the error and returns it.
func (e *Error) AtComp(comp int) *Error {
	e.Comp = comp
	return e
}

// AsRetryable re-classifies err as recoverable by step cutback. The original
// error stays reachable through Unwrap.
func AsRetryable(err error) *Error {
	return &Error{Kind: KindRetryable, Node: -1, Comp: -1, Msg: "transient step failed", Err: err}
}

// IsRetryable reports whether err is eligible for step cutback. Only the
// outermost classification counts: a fatal wrapper around a retryable cause
// stays fatal.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindRetryable
	}
	return false
}

// KindOf returns the kind of the outermost classified error, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
