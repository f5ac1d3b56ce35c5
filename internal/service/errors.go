package service

import "errors"

var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrChildNotFound         = errors.New("child not found")
	ErrNotSessionOwner       = errors.New("session belongs to another child")
	ErrSessionNotCompleted   = errors.New("session is not completed")
	ErrSessionNotStartable   = errors.New("session cannot be started now")
	ErrSessionNotInProgress  = errors.New("session is not in progress")
	ErrStepNotFound          = errors.New("step not found")
	ErrStepNotOptional       = errors.New("only optional steps can be skipped")
	ErrMandatoryStepsPending = errors.New("mandatory steps are still pending")
	ErrInvalidDate           = errors.New("invalid session date")
)
