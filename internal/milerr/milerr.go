// Package milerr defines the error kinds named by Milton's specification
// (spec.md §7), so callers can discriminate failure modes with errors.As
// instead of matching on message text.
package milerr

import "fmt"

// Kind identifies one of the named failure modes of the thermal control
// core and its ambient collaborators.
type Kind int

const (
	ConfigNotFound Kind = iota
	ConfigParse
	CircularInclude
	ConnectFailure
	ProtocolTimeout
	SetpointRejected
	ResistanceUnavailable
	CalibrationMissing
	InsufficientData
	SearchDepthExceeded
	ThermalCutoff
	Interrupted
	Empty
)

func (k Kind) String() string {
	switch k {
	case ConfigNotFound:
		return "ConfigNotFound"
	case ConfigParse:
		return "ConfigParse"
	case CircularInclude:
		return "CircularInclude"
	case ConnectFailure:
		return "ConnectFailure"
	case ProtocolTimeout:
		return "ProtocolTimeout"
	case SetpointRejected:
		return "SetpointRejected"
	case ResistanceUnavailable:
		return "ResistanceUnavailable"
	case CalibrationMissing:
		return "CalibrationMissing"
	case InsufficientData:
		return "InsufficientData"
	case SearchDepthExceeded:
		return "SearchDepthExceeded"
	case ThermalCutoff:
		return "ThermalCutoff"
	case Interrupted:
		return "Interrupted"
	case Empty:
		return "Empty"
	default:
		return "Unknown"
	}
}

// Error wraps a Kind with context, matching the style of the teacher's
// fmt.Errorf("...: %w", err) wrapping but with a discriminable kind.
type Error struct {
	Kind    Kind
	Message string
	Wrapped error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Wrapped: err}
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is allows errors.Is(err, milerr.Kind) style matching via a sentinel
// wrapper, used by tests that only care about the kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Sentinel returns a zero-message *Error of the given kind, suitable for
// errors.Is(err, milerr.Sentinel(milerr.Empty)) comparisons.
func Sentinel(kind Kind) *Error {
	return &Error{Kind: kind}
}
