package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// UpstreamUnavailableError means the remote identity source could not be
// reached. It is an infrastructure failure, never a rejection: callers must
// surface it as "try again", not "identity rejected".
type UpstreamUnavailableError struct {
	Cause error
}

func (e UpstreamUnavailableError) Error() string {
	if e.Cause == nil {
		return "identity source unavailable"
	}
	return fmt.Sprintf("identity source unavailable: %v", e.Cause)
}

func (e UpstreamUnavailableError) Unwrap() error {
	return e.Cause
}

// Is enables errors.Is matching on UpstreamUnavailableError.
func (e UpstreamUnavailableError) Is(target error) bool {
	_, ok := target.(UpstreamUnavailableError)
	if ok {
		return true
	}
	_, ok = target.(*UpstreamUnavailableError)
	return ok
}

// ErrUpstreamUnavailable is the sentinel for unreachable identity sources.
var ErrUpstreamUnavailable = UpstreamUnavailableError{}

// AlreadyExistsError represents a uniqueness violation on account creation.
type AlreadyExistsError struct {
	Resource string
}

func (e AlreadyExistsError) Error() string {
	if e.Resource == "" {
		return "already exists"
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

func (e AlreadyExistsError) Is(target error) bool {
	_, ok := target.(AlreadyExistsError)
	if ok {
		return true
	}
	_, ok = target.(*AlreadyExistsError)
	return ok
}

var ErrAlreadyExists = AlreadyExistsError{}

// ValidationError represents rejected user input at the boundary.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string {
	if e.Msg == "" {
		return "invalid input"
	}
	return e.Msg
}

func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

var ErrValidation = ValidationError{}

// ForbiddenError means the requester may not perform the operation.
type ForbiddenError struct {
	Msg string
}

func (e ForbiddenError) Error() string {
	if e.Msg == "" {
		return "forbidden"
	}
	return e.Msg
}

func (e ForbiddenError) Is(target error) bool {
	_, ok := target.(ForbiddenError)
	if ok {
		return true
	}
	_, ok = target.(*ForbiddenError)
	return ok
}

var ErrForbidden = ForbiddenError{}
