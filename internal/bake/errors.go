package bake

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRule is returned when a symbol must be built but carries no
	// command.
	ErrNoRule = errors.New("no rule to build target")

	// ErrChildSignalled is returned when a Bakefile command was terminated
	// by a signal.
	ErrChildSignalled = errors.New("terminated by signal")

	// ErrChildNonZero is returned when a Bakefile command exited with a
	// non-zero status.
	ErrChildNonZero = errors.New("exited with abnormal status")

	// ErrBuildFailure is returned when a build command failed.
	ErrBuildFailure = errors.New("build failure")

	// ErrNoOutputProduced is returned when a build command exited normally
	// but the target's modification time did not advance.
	ErrNoOutputProduced = errors.New("build appeared to complete successfully but did not modify file")
)

func buildErrorf(kind error, subject string) error {
	return fmt.Errorf("%s: %w", subject, kind)
}
