/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package command

// Type is command error type.
type Type int32

const (
	// ValidationError is error type for command validation errors.
	ValidationError Type = iota

	// ExecuteError is error type for command execution failure.
	ExecuteError Type = iota
)

// Code is the error code of command errors.
type Code int32

const (
	// UnknownStatus default error code for unknown errors.
	UnknownStatus Code = iota
)

// Group is the error groups.
// Note: recommended to use [0-9]*000 pattern for any new entries
// Example: 2000, 3000, 4000 ...... 25000.
type Group int32

const (
	// Common error group for general command errors.
	Common Group = 1000

	// DIDRegistry error group for DID registry command errors.
	DIDRegistry Group = 2000

	// VC error group for verifiable credential command errors.
	VC Group = 3000
)

// Error is the interface for representing a command error condition, with the nil value representing no error.
type Error interface {
	error
	// Code returns error code for this command error.
	Code() Code
	// Type returns error type for this command error.
	Type() Type
	// StatusCode returns the HTTP status a REST transport should use for
	// this error. Zero means no recommendation; the transport falls back
	// to its default mapping by Type.
	StatusCode() int
}

// NewValidationError returns new command validation error.
func NewValidationError(code Code, err error) Error {
	return &commandError{err, code, ValidationError, 0}
}

// NewExecuteError returns new command execute error.
func NewExecuteError(code Code, err error) Error {
	return &commandError{err, code, ExecuteError, 0}
}

// NewExecuteErrorWithStatus returns a new command execute error carrying an
// HTTP status recommendation for REST transports.
func NewExecuteErrorWithStatus(code Code, status int, err error) Error {
	return &commandError{err, code, ExecuteError, status}
}

// commandError implements basic command Error.
type commandError struct {
	error
	code    Code
	errType Type
	status  int
}

func (c *commandError) Code() Code {
	return c.code
}

func (c *commandError) Type() Type {
	return c.errType
}

func (c *commandError) StatusCode() int {
	return c.status
}
