/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ledger defines the client contract for the external
// ownership-checked registry that durably anchors DID records. The registry
// state machine talks to the ledger exclusively through this contract; the
// ledger is the authority on ownership and lifecycle state, and rejections
// are based on the state it observes at commit time.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codemtn/did-registry/pkg/crypto"
)

// Operation identifies a state-transition transaction type.
type Operation string

// Supported ledger operations.
const (
	OperationRegister           Operation = "register"
	OperationUpdateDocumentHash Operation = "updateDocumentHash"
	OperationChangeController   Operation = "changeController"
	OperationDeactivate         Operation = "deactivate"
)

// Revert reasons surfaced by the ledger. The core interprets these and maps
// them onto the typed errors below.
const (
	RevertAlreadyRegistered = "DID already registered"
	RevertNotAuthorized     = "Not authorized"
	RevertNotFound          = "DID not found"
	RevertDeactivated       = "DID is deactivated"
)

var (
	// ErrNotFound is returned when no record exists for a DID.
	ErrNotFound = errors.New("DID not found")

	// ErrAlreadyRegistered is returned on a duplicate registration attempt.
	// Deactivation does not free an identifier, so a tombstoned DID rejects
	// re-registration with this error as well.
	ErrAlreadyRegistered = errors.New("DID already registered")

	// ErrNotAuthorized is returned when the caller is not the current controller.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrDeactivated is returned for mutating operations on a tombstoned DID.
	ErrDeactivated = errors.New("DID is deactivated")

	// ErrUnavailable signals a transient infrastructure failure. It is the
	// only error class callers may retry, using the idempotency key carried
	// by the submission.
	ErrUnavailable = errors.New("ledger unavailable")

	// ErrTimeout signals that the ledger did not answer in time. Retryable,
	// same as ErrUnavailable.
	ErrTimeout = errors.New("ledger timeout")
)

// Record is the ledger-resident view of a DID.
type Record struct {
	DID          string    `json:"did"`
	Controller   string    `json:"controller"`
	DocumentHash string    `json:"documentHash"`
	LastUpdated  time.Time `json:"lastUpdated"`
	Active       bool      `json:"active"`
}

// Args carries the arguments of a state-transition transaction.
type Args struct {
	DID           string `json:"did"`
	DocumentHash  string `json:"documentHash,omitempty"`
	NewController string `json:"newController,omitempty"`
}

// Commitment is a handle on a submitted transaction. The underlying
// mutation, once submitted, is not retractable: abandoning the wait does not
// undo it, and callers that cancel locally must reconcile via a later read.
type Commitment interface {
	// ID identifies the submission.
	ID() string
}

// Client is the interface to the external ownership-checked registry.
type Client interface {
	// ReadRecord returns the record for didID, or ErrNotFound.
	ReadRecord(ctx context.Context, didID string) (*Record, error)

	// Submit submits a state-transition transaction signed by the given
	// capability. Submissions are idempotent per (operation, DID, target
	// state): resubmitting the same transition returns the original
	// commitment instead of applying it twice.
	Submit(ctx context.Context, op Operation, args Args, signer crypto.Signer) (Commitment, error)

	// AwaitCommitment blocks until the commitment is final and returns nil on
	// success or the typed revert error. A context cancellation returns
	// ctx.Err() without retracting the submission.
	AwaitCommitment(ctx context.Context, c Commitment) error
}

// Authorizer decides whether a caller may mutate a record. The default is a
// controller-equality check; multi-sig or delegated-key schemes substitute
// their own implementation without touching the state machine.
type Authorizer interface {
	Authorize(rec *Record, caller string) error
}

type controllerAuthorizer struct{}

func (controllerAuthorizer) Authorize(rec *Record, caller string) error {
	if !strings.EqualFold(rec.Controller, caller) {
		return ErrNotAuthorized
	}

	return nil
}

// ControllerAuthorizer returns the default authorizer: only the record's
// current controller may mutate it.
func ControllerAuthorizer() Authorizer {
	return controllerAuthorizer{}
}

// IdempotencyKey derives the deduplication key of a submission from the
// operation, the DID and the target state.
func IdempotencyKey(op Operation, args Args) string {
	return fmt.Sprintf("%s|%s|%s|%s", op, args.DID, args.DocumentHash, args.NewController)
}

// RevertError maps a revert reason reported by a remote ledger onto the
// typed error the core interprets. Unknown reasons are passed through as
// opaque errors.
func RevertError(reason string) error {
	switch reason {
	case RevertAlreadyRegistered:
		return ErrAlreadyRegistered
	case RevertNotAuthorized:
		return ErrNotAuthorized
	case RevertNotFound:
		return ErrNotFound
	case RevertDeactivated:
		return ErrDeactivated
	default:
		return fmt.Errorf("ledger revert: %s", reason)
	}
}
