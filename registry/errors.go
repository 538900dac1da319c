// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"fmt"
)

// ErrorKind taxonomizes the ways a registry operation can fail, per spec §7.
// It is a classification, not a concrete error type: wrap it with fmt.Errorf
// or construct an *Error to attach it to a specific failure.
type ErrorKind int

const (
	// KindInvalidArgument covers nil-where-forbidden, malformed filters,
	// and empty service names.
	KindInvalidArgument ErrorKind = iota

	// KindIllegalState covers operating on an UNREGISTERED reference or
	// using a tracker/registry after it has been closed.
	KindIllegalState

	// KindNotFound covers a lookup miss. Most registry APIs prefer an
	// empty result over this error; it's used where an operation
	// specifically targets one identifier that doesn't exist.
	KindNotFound

	// KindBundleException covers a user callback (factory, listener,
	// component hook) reporting failure. The registry logs a failed
	// factory call and returns this kind to the caller; the owning bundle
	// and its other services are left as they are.
	KindBundleException
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindIllegalState:
		return "ILLEGAL_STATE"
	case KindNotFound:
		return "NOT_FOUND"
	case KindBundleException:
		return "BUNDLE_EXCEPTION"
	default:
		return "UNKNOWN"
	}
}

// Error lets a bare ErrorKind itself satisfy the error interface, so
// errors.Is(err, KindIllegalState) type-checks as a sentinel comparison
// without callers needing to wrap it in an *Error.
func (k ErrorKind) Error() string { return k.String() }

// Error is a kind-tagged error. Use errors.Is against the sentinel Kind
// errors (e.g. errors.Is(err, KindIllegalState)) or errors.As against *Error
// to recover the wrapped cause.
type Error struct {
	Kind  ErrorKind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Kind.String()
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, KindIllegalState) and similar sentinel comparisons
// by treating a bare ErrorKind as a match for any *Error with that Kind.
func (e *Error) Is(target error) bool {
	if k, ok := target.(ErrorKind); ok {
		return e.Kind == k
	}

	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}

	return false
}

func newError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// Sentinel causes for the most common failures, used both standalone and
// wrapped inside an *Error.
var (
	ErrEmptyServiceName  = errors.New("registry: a service must have at least one, non-empty name")
	ErrNilHandle         = errors.New("registry: a service handle or factory is required")
	ErrNoSuchService     = errors.New("registry: no such service")
	ErrAlreadyRegistered = errors.New("registry: already registered")
	ErrUnregistered      = errors.New("registry: already unregistered")
	ErrNilFilter         = errors.New("registry: malformed filter")
	ErrNilListener       = errors.New("registry: a listener is required")
)
