package scheduler

import (
	"errors"
)

var (
	// ErrUnavailable is returned when the scheduler has not published its programs yet.
	ErrUnavailable = errors.New("scheduler unavailable")
	// ErrUnknown matches every ErrUnknownProgram.
	ErrUnknown = &ErrUnknownProgram{}
)

type ErrUnknownProgram struct {
	ID string
}

func (e *ErrUnknownProgram) Error() string {
	return "unknown program: " + e.ID
}

func (e *ErrUnknownProgram) Is(err error) bool {
	return err == ErrUnknown
}
