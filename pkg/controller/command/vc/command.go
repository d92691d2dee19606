/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package vc contains the controller commands for credential issuance,
// verification and retrieval.
package vc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hyperledger/aries-framework-go/component/log"
	spistorage "github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/codemtn/did-registry/pkg/controller/command"
	"github.com/codemtn/did-registry/pkg/controller/internal/cmdutil"
	"github.com/codemtn/did-registry/pkg/credential"
	"github.com/codemtn/did-registry/pkg/crypto"
	"github.com/codemtn/did-registry/pkg/internal/logutil"
	"github.com/codemtn/did-registry/pkg/registry"
	"github.com/codemtn/did-registry/pkg/store/document"
)

var logger = log.New("did-registry/command/vc")

// Error codes.
const (
	// InvalidRequestErrorCode is typically a code for invalid requests.
	InvalidRequestErrorCode = command.Code(iota + command.VC)

	// IssueCredentialErrorCode for issue credential errors.
	IssueCredentialErrorCode

	// VerifyCredentialErrorCode for verify credential errors.
	VerifyCredentialErrorCode

	// GetCredentialErrorCode for get credential errors.
	GetCredentialErrorCode
)

// constants for the VC controller's methods.
const (
	// command name.
	CommandName = "vc"

	// command methods.
	IssueCredentialCommandMethod  = "IssueCredential"
	VerifyCredentialCommandMethod = "VerifyCredential"
	GetCredentialCommandMethod    = "GetCredential"

	// error messages.
	errEmptyCredentialID = "credential id is mandatory"

	// log constants.
	vcID = "vcID"
)

// provider contains dependencies for the VC controller command operations.
type provider interface {
	StorageProvider() spistorage.Provider
	Crypto() crypto.Crypto
	DIDRegistry() *registry.Registry
	DocumentStore() *document.Store
}

// Command contains command operations provided by the VC controller.
type Command struct {
	engine *credential.Engine
}

// New returns new VC controller command instance.
func New(ctx provider) (*Command, error) {
	engine, err := credential.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("new credential engine : %w", err)
	}

	return &Command{engine: engine}, nil
}

// GetHandlers returns list of all commands supported by this controller command.
func (o *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, IssueCredentialCommandMethod, o.IssueCredential),
		cmdutil.NewCommandHandler(CommandName, VerifyCredentialCommandMethod, o.VerifyCredential),
		cmdutil.NewCommandHandler(CommandName, GetCredentialCommandMethod, o.GetCredential),
	}
}

// IssueCredential issues a credential binding claims about a subject DID to
// an issuer DID.
func (o *Command) IssueCredential(rw io.Writer, req io.Reader) command.Error {
	var request credential.IssueRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, IssueCredentialCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if request.Issuer == "" || request.Subject == "" || request.Type == "" {
		logutil.LogDebug(logger, CommandName, IssueCredentialCommandMethod,
			"issuer, subject and type are mandatory")

		return command.NewValidationError(InvalidRequestErrorCode,
			errors.New("issuer, subject and type are mandatory"))
	}

	vc, err := o.engine.Issue(context.Background(), &request)
	if err != nil {
		logutil.LogError(logger, CommandName, IssueCredentialCommandMethod, "issue credential: "+err.Error())

		return executeError(IssueCredentialErrorCode, fmt.Errorf("issue credential: %w", err))
	}

	vcBytes, err := vc.MarshalJSON()
	if err != nil {
		logutil.LogError(logger, CommandName, IssueCredentialCommandMethod, "marshal credential: "+err.Error())

		return command.NewExecuteError(IssueCredentialErrorCode, fmt.Errorf("marshal credential: %w", err))
	}

	command.WriteNillableResponse(rw, &IssueCredentialResponse{
		CredentialID: vc.ID,
		Credential:   vcBytes,
	}, logger)

	logutil.LogDebug(logger, CommandName, IssueCredentialCommandMethod, "success",
		logutil.CreateKeyValueString(vcID, vc.ID))

	return nil
}

// VerifyCredential verifies a stored credential. Verification failure is
// reported inside the result, not as a command error.
func (o *Command) VerifyCredential(rw io.Writer, req io.Reader) command.Error {
	var request credential.VerifyRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, VerifyCredentialCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if request.CredentialID == "" {
		logutil.LogDebug(logger, CommandName, VerifyCredentialCommandMethod, errEmptyCredentialID)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyCredentialID))
	}

	result, err := o.engine.Verify(context.Background(), &request)
	if err != nil {
		logutil.LogError(logger, CommandName, VerifyCredentialCommandMethod, "verify credential: "+err.Error(),
			logutil.CreateKeyValueString(vcID, request.CredentialID))

		return executeError(VerifyCredentialErrorCode, fmt.Errorf("verify credential: %w", err))
	}

	command.WriteNillableResponse(rw, result, logger)

	logutil.LogDebug(logger, CommandName, VerifyCredentialCommandMethod, "success",
		logutil.CreateKeyValueString(vcID, request.CredentialID))

	return nil
}

// GetCredential returns a stored credential by id.
func (o *Command) GetCredential(rw io.Writer, req io.Reader) command.Error {
	var request IDArg

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, GetCredentialCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if request.ID == "" {
		logutil.LogDebug(logger, CommandName, GetCredentialCommandMethod, errEmptyCredentialID)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyCredentialID))
	}

	vc, err := o.engine.Get(request.ID)
	if err != nil {
		logutil.LogError(logger, CommandName, GetCredentialCommandMethod, "get credential: "+err.Error(),
			logutil.CreateKeyValueString(vcID, request.ID))

		return executeError(GetCredentialErrorCode, fmt.Errorf("get credential: %w", err))
	}

	vcBytes, err := vc.MarshalJSON()
	if err != nil {
		logutil.LogError(logger, CommandName, GetCredentialCommandMethod, "marshal credential: "+err.Error())

		return command.NewExecuteError(GetCredentialErrorCode, fmt.Errorf("marshal credential: %w", err))
	}

	command.WriteNillableResponse(rw, &CredentialResponse{Credential: vcBytes}, logger)

	logutil.LogDebug(logger, CommandName, GetCredentialCommandMethod, "success",
		logutil.CreateKeyValueString(vcID, request.ID))

	return nil
}

// executeError maps credential engine error kinds to the HTTP status a REST
// transport should surface.
func executeError(code command.Code, err error) command.Error {
	switch {
	case errors.Is(err, credential.ErrNotFound):
		return command.NewExecuteErrorWithStatus(code, http.StatusNotFound, err)
	case errors.Is(err, credential.ErrIssuerNotActive), errors.Is(err, credential.ErrSubjectNotActive):
		return command.NewExecuteErrorWithStatus(code, http.StatusConflict, err)
	default:
		return command.NewExecuteError(code, err)
	}
}
