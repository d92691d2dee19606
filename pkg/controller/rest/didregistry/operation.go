/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package didregistry exposes the DID registry controller commands as REST
// API endpoints.
package didregistry

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/codemtn/did-registry/pkg/controller/command"
	didregistrycmd "github.com/codemtn/did-registry/pkg/controller/command/didregistry"
	"github.com/codemtn/did-registry/pkg/controller/internal/cmdutil"
	"github.com/codemtn/did-registry/pkg/controller/rest"
	"github.com/codemtn/did-registry/pkg/registry"
	"github.com/codemtn/did-registry/pkg/store/document"
)

// constants for the DID registry operations.
const (
	didOperationID            = "/did"
	CreateDIDPath             = didOperationID + "/create"
	RegisterDIDPath           = didOperationID + "/register"
	RegisterWithDocumentPath  = didOperationID + "/registerWithDocument"
	UpdateDocumentHashPath    = didOperationID + "/updateDocumentHash"
	UpdateDocumentPath        = didOperationID + "/updateDocument"
	AddServicePath            = didOperationID + "/addService"
	AddVerificationMethodPath = didOperationID + "/addVerificationMethod"
	ChangeControllerPath      = didOperationID + "/changeController"
	DeactivateDIDPath         = didOperationID + "/deactivate"
	ResolveDIDPath            = didOperationID + "/resolve/{id}"
	IsActivePath              = didOperationID + "/active/{id}"
)

type provider interface {
	DIDRegistry() *registry.Registry
	DocumentStore() *document.Store
}

// Operation contains the REST operations provided by the DID registry
// controller.
type Operation struct {
	handlers []rest.Handler
	command  *didregistrycmd.Command
}

// New returns new DID registry rest client instance.
func New(ctx provider) *Operation {
	o := &Operation{command: didregistrycmd.New(ctx)}
	o.registerHandler()

	return o
}

// GetRESTHandlers get all controller API handler available for this service.
func (o *Operation) GetRESTHandlers() []rest.Handler {
	return o.handlers
}

// registerHandler register handlers to be exposed from this service as REST API endpoints.
func (o *Operation) registerHandler() {
	o.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(CreateDIDPath, http.MethodPost, o.CreateDID),
		cmdutil.NewHTTPHandler(RegisterDIDPath, http.MethodPost, o.RegisterDID),
		cmdutil.NewHTTPHandler(RegisterWithDocumentPath, http.MethodPost, o.RegisterWithDocument),
		cmdutil.NewHTTPHandler(UpdateDocumentHashPath, http.MethodPost, o.UpdateDocumentHash),
		cmdutil.NewHTTPHandler(UpdateDocumentPath, http.MethodPost, o.UpdateDocument),
		cmdutil.NewHTTPHandler(AddServicePath, http.MethodPost, o.AddService),
		cmdutil.NewHTTPHandler(AddVerificationMethodPath, http.MethodPost, o.AddVerificationMethod),
		cmdutil.NewHTTPHandler(ChangeControllerPath, http.MethodPost, o.ChangeController),
		cmdutil.NewHTTPHandler(DeactivateDIDPath, http.MethodPost, o.DeactivateDID),
		cmdutil.NewHTTPHandler(ResolveDIDPath, http.MethodGet, o.ResolveDID),
		cmdutil.NewHTTPHandler(IsActivePath, http.MethodGet, o.IsActive),
	}
}

// CreateDID swagger:route POST /did/create did createDIDReq
//
// Creates and registers a DID for a ledger address.
//
// Responses:
//    default: genericError
//        200: createDIDRes
func (o *Operation) CreateDID(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.CreateDID, rw, req.Body)
}

// RegisterDID swagger:route POST /did/register did registerDIDReq
//
// Registers a DID with a document hash.
//
// Responses:
//    default: genericError
//        200: registerDIDRes
func (o *Operation) RegisterDID(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.RegisterDID, rw, req.Body)
}

// RegisterWithDocument swagger:route POST /did/registerWithDocument did registerWithDocumentReq
//
// Registers a DID together with its full document.
//
// Responses:
//    default: genericError
//        200: registerDIDRes
func (o *Operation) RegisterWithDocument(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.RegisterWithDocument, rw, req.Body)
}

// UpdateDocumentHash swagger:route POST /did/updateDocumentHash did updateDocumentHashReq
//
// Anchors a new document hash for a DID.
//
// Responses:
//    default: genericError
//        200: emptyRes
func (o *Operation) UpdateDocumentHash(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.UpdateDocumentHash, rw, req.Body)
}

// UpdateDocument swagger:route POST /did/updateDocument did updateDocumentReq
//
// Merges fields into the DID document and anchors the new hash.
//
// Responses:
//    default: genericError
//        200: updateDocumentRes
func (o *Operation) UpdateDocument(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.UpdateDocument, rw, req.Body)
}

// AddService swagger:route POST /did/addService did addServiceReq
//
// Appends a service endpoint to the DID document.
//
// Responses:
//    default: genericError
//        200: updateDocumentRes
func (o *Operation) AddService(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.AddService, rw, req.Body)
}

// AddVerificationMethod swagger:route POST /did/addVerificationMethod did addVerificationMethodReq
//
// Appends a verification method to the DID document.
//
// Responses:
//    default: genericError
//        200: updateDocumentRes
func (o *Operation) AddVerificationMethod(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.AddVerificationMethod, rw, req.Body)
}

// ChangeController swagger:route POST /did/changeController did changeControllerReq
//
// Transfers control of a DID.
//
// Responses:
//    default: genericError
//        200: emptyRes
func (o *Operation) ChangeController(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.ChangeController, rw, req.Body)
}

// DeactivateDID swagger:route POST /did/deactivate did deactivateDIDReq
//
// Tombstones a DID irreversibly.
//
// Responses:
//    default: genericError
//        200: emptyRes
func (o *Operation) DeactivateDID(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.DeactivateDID, rw, req.Body)
}

// ResolveDID swagger:route GET /did/resolve/{id} did resolveDIDReq
//
// Returns the ledger record and document for a DID.
//
// Responses:
//    default: genericError
//        200: resolveDIDRes
func (o *Operation) ResolveDID(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.ResolveDID, rw, idArgReader(rw, req))
}

// IsActive swagger:route GET /did/active/{id} did isActiveReq
//
// Reports whether a DID is registered and active.
//
// Responses:
//    default: genericError
//        200: isActiveRes
func (o *Operation) IsActive(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.IsActive, rw, idArgReader(rw, req))
}

// idArgReader turns the path variable into the command's JSON request body.
func idArgReader(rw http.ResponseWriter, req *http.Request) *bytes.Buffer {
	reqBytes, err := json.Marshal(didregistrycmd.IDArg{DID: mux.Vars(req)["id"]})
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusBadRequest, command.UnknownStatus, err)
		return bytes.NewBuffer(nil)
	}

	return bytes.NewBuffer(reqBytes)
}
