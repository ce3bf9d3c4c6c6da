// Package model defines the typed conversation model (users, chats, messages
// and updates) and decodes it from raw platform payloads.
package model

import (
	"errors"
	"fmt"
)

// Decode failure kinds. ErrNotSupported and ErrUnsupportedUpdate are expected
// outcomes for content the model does not implement; the others mean the
// payload is malformed.
var (
	ErrMissingField      = errors.New("missing field")
	ErrUnknownChatKind   = errors.New("unknown chat kind")
	ErrEmptyMessage      = errors.New("message has no recognized content")
	ErrNotSupported      = errors.New("content kind not supported")
	ErrUnsupportedUpdate = errors.New("update kind not supported")
)

// DecodeError reports which entity and field could not be decoded.
type DecodeError struct {
	Entity string
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode %s: %v", e.Entity, e.Err)
	}
	return fmt.Sprintf("decode %s: %v %q", e.Entity, e.Err, e.Field)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsExpected reports whether err is a known-unimplemented outcome that callers
// should skip quietly rather than report.
func IsExpected(err error) bool {
	return errors.Is(err, ErrNotSupported) || errors.Is(err, ErrUnsupportedUpdate)
}

func missing(entity, field string) error {
	return &DecodeError{Entity: entity, Field: field, Err: ErrMissingField}
}
