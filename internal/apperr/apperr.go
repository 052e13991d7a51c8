// Package apperr classifies domain errors so the HTTP layer can pick a
// status code without knowing every sentinel.
package apperr

import "errors"

type Kind int

const (
	Internal Kind = iota
	Validation
	NotFound
	Conflict
)

type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// KindOf returns the kind of the first *Error in err's chain, Internal if none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}
