package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBrief is returned for a blank brief.
	ErrEmptyBrief = errors.New("brief is empty")
	// ErrNoResults is returned when every job of a run failed.
	ErrNoResults = errors.New("no render succeeded")
)

// StageError names the stage a run failed in.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
