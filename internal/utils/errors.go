package utils

import (
	"errors"
	"fmt"
)

// Op identifies the service operation an error escaped from.
type Op string

const (
	OpAnalyze   Op = "analyze"
	OpReviews   Op = "reviews"
	OpLatestRun Op = "latest_run"
)

// AppError is a service-boundary error: the operation it escaped from, a
// caller-facing message, and the underlying cause when there is one.
type AppError struct {
	Op  Op
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(op Op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}

// OpOf extracts the operation from an error chain, or "" when no AppError
// is present.
func OpOf(err error) Op {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Op
	}
	return ""
}
