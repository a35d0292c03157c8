// Package faults defines the error taxonomy shared by the request lifecycle
// and the hierarchy services.
//
// Every business failure is a *Error carrying a Kind (how the caller should
// react) and a stable Code (what happened). errors.Is compares codes, so a
// sentinel such as ErrDonorBusy matches any *Error with the same code even
// when it carries a different message or Ref.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the service boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindRaceLoss
	KindForbidden
	KindUnauthenticated
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindRaceLoss:
		return "race_lost"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Error is a classified business error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Ref identifies the conflicting entity when there is one
	// (for example the team that already holds a user).
	Ref string
}

func (e *Error) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Ref)
	}
	return e.Message
}

// Is matches on Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// Retriable reports whether a caller may retry the same operation unchanged.
func (e *Error) Retriable() bool {
	return e.Kind == KindRaceLoss || e.Kind == KindRateLimited
}

// WithMessage returns a copy of e with a different message.
func (e *Error) WithMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

// WithRef returns a copy of e that names the conflicting entity.
func (e *Error) WithRef(ref string) *Error {
	c := *e
	c.Ref = ref
	return &c
}

// Validation builds a validation error with a descriptive reason.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Code: "validation", Message: msg}
}

// NotFound builds a not-found error for the named entity.
func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Code: "not_found", Message: what + " not found"}
}

// KindOf returns the kind of err, KindInternal when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Request lifecycle.
var (
	ErrInvalidState     = &Error{Kind: KindConflict, Code: "invalid_state", Message: "request is not in a state that allows this operation"}
	ErrSelfFulfillment  = &Error{Kind: KindConflict, Code: "self_fulfillment", Message: "requester cannot donate to their own request"}
	ErrDonorBusy        = &Error{Kind: KindConflict, Code: "donor_busy", Message: "donor is already processing another request"}
	ErrAlreadyFulfilled = &Error{Kind: KindConflict, Code: "already_fulfilled", Message: "request is already fulfilled"}
	ErrNotFulfilled     = &Error{Kind: KindConflict, Code: "not_fulfilled", Message: "request has no fulfilling donor"}
	ErrIneligible       = &Error{Kind: KindConflict, Code: "ineligible", Message: "donor is not eligible to donate"}
	ErrNotProcessor     = &Error{Kind: KindForbidden, Code: "not_processor", Message: "only the processing donor or an admin can do this"}
	ErrIDSpaceExhausted = &Error{Kind: KindInternal, Code: "id_space_exhausted", Message: "could not allocate a unique request id"}
	ErrNotParticipant   = &Error{Kind: KindForbidden, Code: "not_participant", Message: "only the requester, the assigned volunteer or an admin can do this"}
	ErrAdminOnly        = &Error{Kind: KindForbidden, Code: "admin_only", Message: "only an admin can do this"}
)

// Hierarchy.
var (
	ErrAlreadyAssigned = &Error{Kind: KindConflict, Code: "already_assigned", Message: "user already holds a slot in a team at this level"}
	ErrRoleMismatch    = &Error{Kind: KindConflict, Code: "role_mismatch", Message: "user does not hold the role required by this slot"}
	ErrAlreadyLinked   = &Error{Kind: KindConflict, Code: "already_linked", Message: "team already belongs to another parent team"}
	ErrForbidden       = &Error{Kind: KindForbidden, Code: "forbidden", Message: "you are not allowed to manage teams at this level"}
	ErrDuplicateTeam   = &Error{Kind: KindConflict, Code: "duplicate_team", Message: "a team with this name already exists at this level"}
)

// ErrSignInRequired is returned when the caller has no usable session.
var ErrSignInRequired = &Error{Kind: KindUnauthenticated, Code: "unauthorized", Message: "sign in required"}

// ErrTooManyRequests is returned when a caller exceeds a route's rate limit.
var ErrTooManyRequests = &Error{Kind: KindRateLimited, Code: "rate_limited", Message: "too many requests, please wait a minute and try again"}

// ErrRaceLost reports that a concurrent writer changed the document between
// our read and our conditional write. Callers may retry.
var ErrRaceLost = &Error{Kind: KindRaceLoss, Code: "race_lost", Message: "the record was changed by another operation, please retry"}
