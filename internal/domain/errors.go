package domain

import "errors"

// Error kinds shared by every component of the engine.
// Package-level errors of usecases and services wrap one of these,
// so callers can branch on the kind with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrCapacityExceeded    = errors.New("capacity exceeded")
	ErrLockExpired         = errors.New("reservation lock expired")
	ErrLockMismatch        = errors.New("reservation lock mismatch")
	ErrEmployeeUnavailable = errors.New("employee unavailable")
	ErrNotFound            = errors.New("not found")
	ErrInvalidSlot         = errors.New("no active schedule template")
	ErrTransient           = errors.New("transient conflict, retry the operation")
	ErrInternal            = errors.New("internal error")
)
