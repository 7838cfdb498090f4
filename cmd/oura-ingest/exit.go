// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package main

import (
	"errors"
	"fmt"

	"github.com/MaximeMichaud/oura-dashboard/internal/catalog"
)

// Exit codes.
const (
	ExitSuccess         = 0
	ExitFailure         = 1 // sync failure or startup error
	ExitUnknownEndpoint = 2
)

// ExitError carries a process exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// wrapExit wraps err with an exit code.
func wrapExit(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, catalog.ErrUnknownEndpoint) {
		return ExitUnknownEndpoint
	}
	return ExitFailure
}
