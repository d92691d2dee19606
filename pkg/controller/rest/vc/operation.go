/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package vc exposes the credential controller commands as REST API
// endpoints.
package vc

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	spistorage "github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/codemtn/did-registry/pkg/controller/command"
	vccmd "github.com/codemtn/did-registry/pkg/controller/command/vc"
	"github.com/codemtn/did-registry/pkg/controller/internal/cmdutil"
	"github.com/codemtn/did-registry/pkg/controller/rest"
	"github.com/codemtn/did-registry/pkg/crypto"
	"github.com/codemtn/did-registry/pkg/registry"
	"github.com/codemtn/did-registry/pkg/store/document"
)

// constants for the VC operations.
const (
	vcOperationID        = "/vc"
	IssueCredentialPath  = vcOperationID + "/issue"
	VerifyCredentialPath = vcOperationID + "/verify"
	GetCredentialPath    = vcOperationID + "/credential/{id}"
)

type provider interface {
	StorageProvider() spistorage.Provider
	Crypto() crypto.Crypto
	DIDRegistry() *registry.Registry
	DocumentStore() *document.Store
}

// Operation contains the REST operations provided by the VC controller.
type Operation struct {
	handlers []rest.Handler
	command  *vccmd.Command
}

// New returns new VC rest client instance.
func New(ctx provider) (*Operation, error) {
	cmd, err := vccmd.New(ctx)
	if err != nil {
		return nil, err
	}

	o := &Operation{command: cmd}
	o.registerHandler()

	return o, nil
}

// GetRESTHandlers get all controller API handler available for this service.
func (o *Operation) GetRESTHandlers() []rest.Handler {
	return o.handlers
}

// registerHandler register handlers to be exposed from this service as REST API endpoints.
func (o *Operation) registerHandler() {
	o.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(IssueCredentialPath, http.MethodPost, o.IssueCredential),
		cmdutil.NewHTTPHandler(VerifyCredentialPath, http.MethodPost, o.VerifyCredential),
		cmdutil.NewHTTPHandler(GetCredentialPath, http.MethodGet, o.GetCredential),
	}
}

// IssueCredential swagger:route POST /vc/issue vc issueCredentialReq
//
// Issues a credential binding claims about a subject DID to an issuer DID.
//
// Responses:
//    default: genericError
//        200: issueCredentialRes
func (o *Operation) IssueCredential(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.IssueCredential, rw, req.Body)
}

// VerifyCredential swagger:route POST /vc/verify vc verifyCredentialReq
//
// Verifies a stored credential.
//
// Responses:
//    default: genericError
//        200: verificationResultRes
func (o *Operation) VerifyCredential(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.VerifyCredential, rw, req.Body)
}

// GetCredential swagger:route GET /vc/credential/{id} vc getCredentialReq
//
// Returns a stored credential by id.
//
// Responses:
//    default: genericError
//        200: credentialRes
func (o *Operation) GetCredential(rw http.ResponseWriter, req *http.Request) {
	reqBytes, err := json.Marshal(vccmd.IDArg{ID: mux.Vars(req)["id"]})
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusBadRequest, command.UnknownStatus, err)
		return
	}

	rest.Execute(o.command.GetCredential, rw, bytes.NewBuffer(reqBytes))
}
