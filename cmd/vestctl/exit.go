package main

import (
	"errors"
	"fmt"

	"github.com/bitfsorg/libvest-go/ledger"
)

// Process exit codes.
const (
	exitOK           = 0
	exitFailure      = 1
	exitUsage        = 2
	exitLocked       = 3
	exitUnauthorized = 4
	exitSignature    = 5
)

// usageError marks a bad invocation rather than a failed operation.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ue):
		return exitUsage
	case errors.Is(err, ledger.ErrExceedsUnlocked), errors.Is(err, ledger.ErrInsufficientLockedBalance):
		return exitLocked
	case errors.Is(err, ledger.ErrUnauthorized), errors.Is(err, ledger.ErrBypassDestinationNotAllowed):
		return exitUnauthorized
	case errors.Is(err, ledger.ErrExpired), errors.Is(err, ledger.ErrInvalidSignature):
		return exitSignature
	default:
		return exitFailure
	}
}
