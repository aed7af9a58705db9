package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Kind int

// KindUnknown is the zero value so an Error built without a kind is not
// mistaken for a planning failure.
const (
	KindUnknown Kind = iota
	KindMatch
	KindAmbiguousKey
	KindMissingSubtitle
	KindDurationProbe
	KindUserAbort
	KindEncode
	KindSlice
	KindParse
	KindConfig
	KindLock
)

// Error is the typed error shared by planning and execution.
type Error struct {
	Kind    Kind
	Message string
	Context map[string]any
	Cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Context: make(map[string]any),
	}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

func Wrap(err error, kind Kind, message string) *Error {
	e := New(kind, message)
	e.Cause = err
	return e
}

func (e *Error) Error() string {
	parts := []string{fmt.Sprintf("[%s] %s", e.Kind, e.Message)}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ctxParts := make([]string, 0, len(keys))
		for _, k := range keys {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, "context: "+strings.Join(ctxParts, ", "))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

func (k Kind) String() string {
	switch k {
	case KindMatch:
		return "MatchError"
	case KindAmbiguousKey:
		return "AmbiguousKeyError"
	case KindMissingSubtitle:
		return "MissingSubtitleError"
	case KindDurationProbe:
		return "DurationProbeError"
	case KindUserAbort:
		return "UserAbort"
	case KindEncode:
		return "EncodeFailure"
	case KindSlice:
		return "SliceFailure"
	case KindParse:
		return "ParseError"
	case KindConfig:
		return "ConfigError"
	case KindLock:
		return "LockError"
	default:
		return "Unknown"
	}
}

// Is reports whether any error in err's chain is an *Error of kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// SafeExecute runs fn and turns a panic into an error of kind.
func SafeExecute(kind Kind, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Newf(kind, "runtime error: %v", r)
		}
	}()

	return fn()
}
