// Package errors defines the typed error taxonomy shared across the
// selfupdate engine. The engine's check/download/install operations
// return either nil or an *Error so callers can switch on Kind instead
// of string-matching; pkg/config and pkg/template return plain errors.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies what went wrong during a check/download/install cycle.
type Kind string

const (
	Config              Kind = "config"
	UnsupportedPlatform Kind = "unsupported_platform"
	Network             Kind = "network"
	Manifest            Kind = "manifest"
	Version             Kind = "version"
	MalformedSignature  Kind = "malformed_signature"
	KeyMismatch         Kind = "key_mismatch"
	SignatureInvalid    Kind = "signature_invalid"
	Extract             Kind = "extract"
	Io                  Kind = "io"
	Spawn               Kind = "spawn"
)

// Error is the typed error returned by the engine's packages. It carries a Kind for programmatic dispatch, a human message,
// an optional wrapped source error, and (for Kind == Network) the HTTP
// status code when one was observed.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Source  error
}

func (e *Error) Error() string {
	if e.Kind == Network && e.Status != 0 {
		if e.Source != nil {
			return fmt.Sprintf("%s: %s (status %d): %v", e.Kind, e.Message, e.Status, e.Source)
		}
		return fmt.Sprintf("%s: %s (status %d)", e.Kind, e.Message, e.Status)
	}
	if e.Source != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Source)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Source
}

// New builds an *Error with no wrapped source.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error that chains a source error via %w semantics.
func Wrap(kind Kind, message string, source error) *Error {
	return &Error{Kind: kind, Message: message, Source: source}
}

// WrapNetwork is like Wrap but also records an HTTP status code.
func WrapNetwork(message string, status int, source error) *Error {
	return &Error{Kind: Network, Message: message, Status: status, Source: source}
}

// Is reports whether err is an *Error of the given Kind. It is the
// idiomatic switch point for callers that want to branch on failure
// category without type-asserting themselves.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
