package domain

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ValidationError is a user-correctable rejection of a single field.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

// RateLimitedError means the caller exhausted the window for Action.
// It carries no promise about when the window frees up.
type RateLimitedError struct {
	Action string
}

func (e RateLimitedError) Error() string {
	if e.Action == "" {
		return "too many attempts, try again later"
	}
	return fmt.Sprintf("too many %s attempts, try again later", e.Action)
}

// CaptchaRequiredError means the bot-verification token was absent or cleared.
type CaptchaRequiredError struct{}

func (CaptchaRequiredError) Error() string { return "captcha required" }

// ConsentRequiredError means the terms checkbox was not accepted.
type ConsentRequiredError struct{}

func (ConsentRequiredError) Error() string { return "terms must be accepted" }

// InvalidInputError rejects malformed numeric input to the estimator.
type InvalidInputError struct {
	Field string
	Msg   string
}

func (e InvalidInputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Msg
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// UpstreamError wraps a failure of the store or another collaborator.
// It is never retried here.
type UpstreamError struct {
	Op  string
	Err error
}

func (e UpstreamError) Error() string {
	if e.Err == nil {
		return e.Op + ": upstream failure"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e UpstreamError) Unwrap() error { return e.Err }

type UnauthorizedError struct {
	Msg string
}

func (e UnauthorizedError) Error() string {
	if e.Msg == "" {
		return "unauthorized"
	}
	return e.Msg
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

func IsRateLimited(err error) bool {
	var target RateLimitedError
	return errors.As(err, &target)
}

func IsCaptchaRequired(err error) bool {
	var target CaptchaRequiredError
	return errors.As(err, &target)
}

func IsConsentRequired(err error) bool {
	var target ConsentRequiredError
	return errors.As(err, &target)
}

func IsInvalidInput(err error) bool {
	var target InvalidInputError
	return errors.As(err, &target)
}

func IsUpstream(err error) bool {
	var target UpstreamError
	return errors.As(err, &target)
}

func IsUnauthorized(err error) bool {
	var target UnauthorizedError
	return errors.As(err, &target)
}

// Upstream wraps err as an UpstreamError unless it already carries a domain kind.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsValidation(err) || IsNotFound(err) || IsConflict(err) || IsUpstream(err) {
		return err
	}
	return UpstreamError{Op: op, Err: err}
}
