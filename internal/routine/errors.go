package routine

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSessionData means the board references a session absent from the session list.
	ErrMissingSessionData = errors.New("missing session data")
	// ErrInvalidBoardState means the board holds duplicate or contradictory entries.
	ErrInvalidBoardState = errors.New("invalid board state")
	// ErrDependencyUnavailable means a collaborator read failed at the transport or storage level.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrInvalidTimezone means the family timezone is not a known IANA zone.
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// DependencyError records which collaborator failed during summary resolution
type DependencyError struct {
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDependencyUnavailable, e.Dependency, e.Err)
}

// Is lets errors.Is match the ErrDependencyUnavailable sentinel
func (e *DependencyError) Is(target error) bool {
	return target == ErrDependencyUnavailable
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

func dependencyUnavailable(dependency string, err error) error {
	return &DependencyError{Dependency: dependency, Err: err}
}

func missingSession(sessionID string) error {
	return fmt.Errorf("%w: session %q is on the board but was not supplied", ErrMissingSessionData, sessionID)
}

func invalidBoard(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidBoardState, fmt.Sprintf(format, args...))
}
