/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package didregistry contains the controller commands for the DID registry:
// DID creation, registration, document mutation, controller transfer,
// deactivation and resolution.
package didregistry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/codemtn/did-registry/pkg/controller/command"
	"github.com/codemtn/did-registry/pkg/controller/internal/cmdutil"
	"github.com/codemtn/did-registry/pkg/crypto"
	diddoc "github.com/codemtn/did-registry/pkg/doc/did"
	"github.com/codemtn/did-registry/pkg/internal/logutil"
	"github.com/codemtn/did-registry/pkg/ledger"
	"github.com/codemtn/did-registry/pkg/registry"
	"github.com/codemtn/did-registry/pkg/store/document"
)

var logger = log.New("did-registry/command/didregistry")

// Error codes.
const (
	// InvalidRequestErrorCode is typically a code for invalid requests.
	InvalidRequestErrorCode = command.Code(iota + command.DIDRegistry)

	// CreateDIDErrorCode for create DID errors.
	CreateDIDErrorCode

	// RegisterDIDErrorCode for register DID errors.
	RegisterDIDErrorCode

	// UpdateDocumentErrorCode for document mutation errors.
	UpdateDocumentErrorCode

	// ChangeControllerErrorCode for controller transfer errors.
	ChangeControllerErrorCode

	// DeactivateDIDErrorCode for deactivate DID errors.
	DeactivateDIDErrorCode

	// ResolveDIDErrorCode for resolve DID errors.
	ResolveDIDErrorCode
)

// constants for the DID registry controller's methods.
const (
	// command name.
	CommandName = "didregistry"

	// command methods.
	CreateDIDCommandMethod             = "CreateDID"
	RegisterDIDCommandMethod           = "RegisterDID"
	RegisterWithDocumentCommandMethod  = "RegisterWithDocument"
	UpdateDocumentHashCommandMethod    = "UpdateDocumentHash"
	UpdateDocumentCommandMethod        = "UpdateDocument"
	AddServiceCommandMethod            = "AddService"
	AddVerificationMethodCommandMethod = "AddVerificationMethod"
	ChangeControllerCommandMethod      = "ChangeController"
	DeactivateDIDCommandMethod         = "DeactivateDID"
	ResolveDIDCommandMethod            = "ResolveDID"
	IsActiveCommandMethod              = "IsActive"

	// error messages.
	errEmptyDIDID   = "did is mandatory"
	errEmptyAddress = "address is mandatory"

	// log constants.
	didID = "did"
)

// provider contains dependencies for the DID registry controller command
// operations.
type provider interface {
	DIDRegistry() *registry.Registry
	DocumentStore() *document.Store
}

// Command contains command operations provided by the DID registry
// controller.
type Command struct {
	registry *registry.Registry
	docs     *document.Store
}

// New returns new DID registry controller command instance.
func New(ctx provider) *Command {
	return &Command{
		registry: ctx.DIDRegistry(),
		docs:     ctx.DocumentStore(),
	}
}

// GetHandlers returns list of all commands supported by this controller command.
func (o *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, CreateDIDCommandMethod, o.CreateDID),
		cmdutil.NewCommandHandler(CommandName, RegisterDIDCommandMethod, o.RegisterDID),
		cmdutil.NewCommandHandler(CommandName, RegisterWithDocumentCommandMethod, o.RegisterWithDocument),
		cmdutil.NewCommandHandler(CommandName, UpdateDocumentHashCommandMethod, o.UpdateDocumentHash),
		cmdutil.NewCommandHandler(CommandName, UpdateDocumentCommandMethod, o.UpdateDocument),
		cmdutil.NewCommandHandler(CommandName, AddServiceCommandMethod, o.AddService),
		cmdutil.NewCommandHandler(CommandName, AddVerificationMethodCommandMethod, o.AddVerificationMethod),
		cmdutil.NewCommandHandler(CommandName, ChangeControllerCommandMethod, o.ChangeController),
		cmdutil.NewCommandHandler(CommandName, DeactivateDIDCommandMethod, o.DeactivateDID),
		cmdutil.NewCommandHandler(CommandName, ResolveDIDCommandMethod, o.ResolveDID),
		cmdutil.NewCommandHandler(CommandName, IsActiveCommandMethod, o.IsActive),
	}
}

// CreateDID derives a DID from the caller's address, creates its default
// document and registers it.
func (o *Command) CreateDID(rw io.Writer, req io.Reader) command.Error {
	var request CreateDIDRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, CreateDIDCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if request.Address == "" {
		logutil.LogDebug(logger, CommandName, CreateDIDCommandMethod, errEmptyAddress)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyAddress))
	}

	result, err := o.registry.CreateDID(context.Background(), crypto.StaticSigner(request.Address))
	if err != nil {
		logutil.LogError(logger, CommandName, CreateDIDCommandMethod, "create did: "+err.Error())

		return executeError(CreateDIDErrorCode, fmt.Errorf("create did: %w", err))
	}

	docBytes, err := result.Document.JSONBytes()
	if err != nil {
		logutil.LogError(logger, CommandName, CreateDIDCommandMethod, "marshal did doc: "+err.Error())

		return command.NewExecuteError(CreateDIDErrorCode, fmt.Errorf("marshal did doc: %w", err))
	}

	command.WriteNillableResponse(rw, &CreateDIDResponse{
		DID:          result.DID,
		Document:     docBytes,
		DocumentHash: result.DocumentHash,
	}, logger)

	logutil.LogDebug(logger, CommandName, CreateDIDCommandMethod, "success",
		logutil.CreateKeyValueString(didID, result.DID))

	return nil
}

// RegisterDID registers a DID with an externally computed document hash.
func (o *Command) RegisterDID(rw io.Writer, req io.Reader) command.Error {
	var request RegisterRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, RegisterDIDCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if cmdErr := validateDIDAndAddress(request.DID, request.Address, RegisterDIDCommandMethod); cmdErr != nil {
		return cmdErr
	}

	err = o.registry.Register(context.Background(), request.DID, request.DocumentHash,
		crypto.StaticSigner(request.Address))
	if err != nil {
		logutil.LogError(logger, CommandName, RegisterDIDCommandMethod, "register did: "+err.Error(),
			logutil.CreateKeyValueString(didID, request.DID))

		return executeError(RegisterDIDErrorCode, fmt.Errorf("register did: %w", err))
	}

	command.WriteNillableResponse(rw, &RegisterResponse{
		DID:          request.DID,
		DocumentHash: request.DocumentHash,
	}, logger)

	logutil.LogDebug(logger, CommandName, RegisterDIDCommandMethod, "success",
		logutil.CreateKeyValueString(didID, request.DID))

	return nil
}

// RegisterWithDocument validates and stores the supplied document, then
// registers its canonical hash.
func (o *Command) RegisterWithDocument(rw io.Writer, req io.Reader) command.Error {
	var request RegisterWithDocumentRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, RegisterWithDocumentCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if cmdErr := validateDIDAndAddress(request.DID, request.Address,
		RegisterWithDocumentCommandMethod); cmdErr != nil {
		return cmdErr
	}

	doc, err := diddoc.ParseDocument(request.Document)
	if err != nil {
		logutil.LogError(logger, CommandName, RegisterWithDocumentCommandMethod, "parse did doc: "+err.Error())

		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("parse did doc: %w", err))
	}

	documentHash, err := o.registry.RegisterWithDocument(context.Background(), request.DID, doc,
		crypto.StaticSigner(request.Address))
	if err != nil {
		logutil.LogError(logger, CommandName, RegisterWithDocumentCommandMethod, "register did: "+err.Error(),
			logutil.CreateKeyValueString(didID, request.DID))

		return executeError(RegisterDIDErrorCode, fmt.Errorf("register did: %w", err))
	}

	command.WriteNillableResponse(rw, &RegisterResponse{
		DID:          request.DID,
		DocumentHash: documentHash,
	}, logger)

	logutil.LogDebug(logger, CommandName, RegisterWithDocumentCommandMethod, "success",
		logutil.CreateKeyValueString(didID, request.DID))

	return nil
}

// UpdateDocumentHash anchors a new document hash for a DID.
func (o *Command) UpdateDocumentHash(rw io.Writer, req io.Reader) command.Error {
	var request UpdateDocumentHashRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, UpdateDocumentHashCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if cmdErr := validateDIDAndAddress(request.DID, request.Address,
		UpdateDocumentHashCommandMethod); cmdErr != nil {
		return cmdErr
	}

	err = o.registry.UpdateDocumentHash(context.Background(), request.DID, request.DocumentHash,
		crypto.StaticSigner(request.Address))
	if err != nil {
		logutil.LogError(logger, CommandName, UpdateDocumentHashCommandMethod, "update hash: "+err.Error(),
			logutil.CreateKeyValueString(didID, request.DID))

		return executeError(UpdateDocumentErrorCode, fmt.Errorf("update hash: %w", err))
	}

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogDebug(logger, CommandName, UpdateDocumentHashCommandMethod, "success",
		logutil.CreateKeyValueString(didID, request.DID))

	return nil
}

// UpdateDocument merges fields into the stored document and anchors the new
// hash on the ledger.
func (o *Command) UpdateDocument(rw io.Writer, req io.Reader) command.Error {
	var request UpdateDocumentRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, UpdateDocumentCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if cmdErr := validateDIDAndAddress(request.DID, request.Address, UpdateDocumentCommandMethod); cmdErr != nil {
		return cmdErr
	}

	return o.mutateDocument(rw, request.DID, UpdateDocumentCommandMethod,
		func() (*diddoc.Doc, string, error) {
			return o.registry.UpdateDocument(context.Background(), request.DID, request.Fields,
				crypto.StaticSigner(request.Address))
		})
}

// AddService appends a service endpoint to the document and anchors the new
// hash on the ledger.
func (o *Command) AddService(rw io.Writer, req io.Reader) command.Error {
	var request AddServiceRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, AddServiceCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if cmdErr := validateDIDAndAddress(request.DID, request.Address, AddServiceCommandMethod); cmdErr != nil {
		return cmdErr
	}

	return o.mutateDocument(rw, request.DID, AddServiceCommandMethod,
		func() (*diddoc.Doc, string, error) {
			return o.registry.AddService(context.Background(), request.DID, request.Service,
				crypto.StaticSigner(request.Address))
		})
}

// AddVerificationMethod appends a verification method to the document and
// anchors the new hash on the ledger.
func (o *Command) AddVerificationMethod(rw io.Writer, req io.Reader) command.Error {
	var request AddVerificationMethodRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, AddVerificationMethodCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if cmdErr := validateDIDAndAddress(request.DID, request.Address,
		AddVerificationMethodCommandMethod); cmdErr != nil {
		return cmdErr
	}

	return o.mutateDocument(rw, request.DID, AddVerificationMethodCommandMethod,
		func() (*diddoc.Doc, string, error) {
			return o.registry.AddVerificationMethod(context.Background(), request.DID,
				request.VerificationMethod, crypto.StaticSigner(request.Address))
		})
}

// ChangeController transfers control of a DID.
func (o *Command) ChangeController(rw io.Writer, req io.Reader) command.Error {
	var request ChangeControllerRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, ChangeControllerCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if cmdErr := validateDIDAndAddress(request.DID, request.Address, ChangeControllerCommandMethod); cmdErr != nil {
		return cmdErr
	}

	if request.NewController == "" {
		logutil.LogDebug(logger, CommandName, ChangeControllerCommandMethod, "new controller is mandatory")
		return command.NewValidationError(InvalidRequestErrorCode, errors.New("new controller is mandatory"))
	}

	err = o.registry.ChangeController(context.Background(), request.DID, request.NewController,
		crypto.StaticSigner(request.Address))
	if err != nil {
		logutil.LogError(logger, CommandName, ChangeControllerCommandMethod, "change controller: "+err.Error(),
			logutil.CreateKeyValueString(didID, request.DID))

		return executeError(ChangeControllerErrorCode, fmt.Errorf("change controller: %w", err))
	}

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogDebug(logger, CommandName, ChangeControllerCommandMethod, "success",
		logutil.CreateKeyValueString(didID, request.DID))

	return nil
}

// DeactivateDID tombstones a DID irreversibly.
func (o *Command) DeactivateDID(rw io.Writer, req io.Reader) command.Error {
	var request DeactivateRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, DeactivateDIDCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if cmdErr := validateDIDAndAddress(request.DID, request.Address, DeactivateDIDCommandMethod); cmdErr != nil {
		return cmdErr
	}

	err = o.registry.Deactivate(context.Background(), request.DID, crypto.StaticSigner(request.Address))
	if err != nil {
		logutil.LogError(logger, CommandName, DeactivateDIDCommandMethod, "deactivate did: "+err.Error(),
			logutil.CreateKeyValueString(didID, request.DID))

		return executeError(DeactivateDIDErrorCode, fmt.Errorf("deactivate did: %w", err))
	}

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogDebug(logger, CommandName, DeactivateDIDCommandMethod, "success",
		logutil.CreateKeyValueString(didID, request.DID))

	return nil
}

// ResolveDID returns the ledger record for a DID together with its
// off-ledger document when one exists.
func (o *Command) ResolveDID(rw io.Writer, req io.Reader) command.Error {
	var request IDArg

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, ResolveDIDCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if request.DID == "" {
		logutil.LogDebug(logger, CommandName, ResolveDIDCommandMethod, errEmptyDIDID)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyDIDID))
	}

	record, err := o.registry.GetInfo(context.Background(), request.DID)
	if err != nil {
		logutil.LogError(logger, CommandName, ResolveDIDCommandMethod, "resolve did: "+err.Error(),
			logutil.CreateKeyValueString(didID, request.DID))

		return executeError(ResolveDIDErrorCode, fmt.Errorf("resolve did: %w", err))
	}

	response := &ResolveResponse{Record: record}

	// Documents for deactivated DIDs remain readable, so a resolve always
	// attempts the document lookup.
	doc, err := o.docs.Get(request.DID)
	if err == nil {
		docBytes, marshalErr := doc.JSONBytes()
		if marshalErr != nil {
			logutil.LogError(logger, CommandName, ResolveDIDCommandMethod, "marshal did doc: "+marshalErr.Error())

			return command.NewExecuteError(ResolveDIDErrorCode, fmt.Errorf("marshal did doc: %w", marshalErr))
		}

		response.Document = docBytes
	} else if !errors.Is(err, document.ErrNotFound) {
		logutil.LogError(logger, CommandName, ResolveDIDCommandMethod, "get did doc: "+err.Error(),
			logutil.CreateKeyValueString(didID, request.DID))

		return command.NewExecuteError(ResolveDIDErrorCode, fmt.Errorf("get did doc: %w", err))
	}

	command.WriteNillableResponse(rw, response, logger)

	logutil.LogDebug(logger, CommandName, ResolveDIDCommandMethod, "success",
		logutil.CreateKeyValueString(didID, request.DID))

	return nil
}

// IsActive reports whether a DID is registered and active.
func (o *Command) IsActive(rw io.Writer, req io.Reader) command.Error {
	var request IDArg

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, IsActiveCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if request.DID == "" {
		logutil.LogDebug(logger, CommandName, IsActiveCommandMethod, errEmptyDIDID)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyDIDID))
	}

	active, err := o.registry.IsActive(context.Background(), request.DID)
	if err != nil {
		logutil.LogError(logger, CommandName, IsActiveCommandMethod, "is active: "+err.Error(),
			logutil.CreateKeyValueString(didID, request.DID))

		return executeError(ResolveDIDErrorCode, fmt.Errorf("is active: %w", err))
	}

	command.WriteNillableResponse(rw, &IsActiveResponse{Active: active}, logger)

	logutil.LogDebug(logger, CommandName, IsActiveCommandMethod, "success",
		logutil.CreateKeyValueString(didID, request.DID))

	return nil
}

// mutateDocument runs a registry document mutation. The registry anchors the
// new hash before the stored document changes, so a rejected caller leaves
// both the ledger and the store untouched.
func (o *Command) mutateDocument(rw io.Writer, did, method string,
	mutate func() (*diddoc.Doc, string, error)) command.Error {
	doc, documentHash, err := mutate()
	if err != nil {
		logutil.LogError(logger, CommandName, method, "update document: "+err.Error(),
			logutil.CreateKeyValueString(didID, did))

		return executeError(UpdateDocumentErrorCode, fmt.Errorf("update document: %w", err))
	}

	docBytes, err := doc.JSONBytes()
	if err != nil {
		logutil.LogError(logger, CommandName, method, "marshal did doc: "+err.Error())

		return command.NewExecuteError(UpdateDocumentErrorCode, fmt.Errorf("marshal did doc: %w", err))
	}

	command.WriteNillableResponse(rw, &UpdateDocumentResponse{
		Document:     docBytes,
		DocumentHash: documentHash,
	}, logger)

	logutil.LogDebug(logger, CommandName, method, "success", logutil.CreateKeyValueString(didID, did))

	return nil
}

func validateDIDAndAddress(did, address, method string) command.Error {
	if did == "" {
		logutil.LogDebug(logger, CommandName, method, errEmptyDIDID)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyDIDID))
	}

	if address == "" {
		logutil.LogDebug(logger, CommandName, method, errEmptyAddress)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyAddress))
	}

	return nil
}

// executeError maps core error kinds to the HTTP status a REST transport
// should surface: not-found, unauthorized, conflict, bad gateway.
func executeError(code command.Code, err error) command.Error {
	switch {
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, document.ErrNotFound):
		return command.NewExecuteErrorWithStatus(code, http.StatusNotFound, err)
	case errors.Is(err, ledger.ErrNotAuthorized):
		return command.NewExecuteErrorWithStatus(code, http.StatusUnauthorized, err)
	case errors.Is(err, ledger.ErrAlreadyRegistered), errors.Is(err, ledger.ErrDeactivated),
		errors.Is(err, document.ErrExists):
		return command.NewExecuteErrorWithStatus(code, http.StatusConflict, err)
	case errors.Is(err, ledger.ErrUnavailable), errors.Is(err, ledger.ErrTimeout):
		return command.NewExecuteErrorWithStatus(code, http.StatusBadGateway, err)
	default:
		return command.NewExecuteError(code, err)
	}
}
