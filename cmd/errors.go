package cmd

import (
	"errors"

	"marketplace/cli/internal/httperrors"
)

// errReported marks an error whose message was already printed.
var errReported = errors.New("")

// presentErr prints a friendly message for err and returns an error that
// makes the command exit non-zero without printing it again.
func presentErr(err error, action string) error {
	if err == nil {
		return nil
	}
	_ = httperrors.Present(err, action)
	return errReported
}
