package source

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure categories the fetch layer can surface.
// Callers branch on the kind; the message is for humans and for the
// persisted SourceRecord.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindRateLimited       Kind = "rate_limited"
	KindTransport         Kind = "transport"
	KindMissingCredential Kind = "missing_credential"
)

// Error is a categorized fetch failure.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Errorf builds a categorized error with a formatted message.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from err, or KindTransport when err is
// not a categorized source error (plain transport and parse failures).
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransport
}
