/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didregistry

import (
	"encoding/json"

	diddoc "github.com/codemtn/did-registry/pkg/doc/did"
	"github.com/codemtn/did-registry/pkg/ledger"
)

// CreateDIDRequest is the request for creating a DID for a ledger address.
type CreateDIDRequest struct {
	// Address is the caller's ledger account address.
	Address string `json:"address"`
}

// CreateDIDResponse is the response of a create DID request.
type CreateDIDResponse struct {
	DID          string          `json:"did"`
	Document     json.RawMessage `json:"document"`
	DocumentHash string          `json:"documentHash"`
}

// RegisterRequest is the request for registering a DID with a document hash.
type RegisterRequest struct {
	DID          string `json:"did"`
	DocumentHash string `json:"documentHash"`
	Address      string `json:"address"`
}

// RegisterWithDocumentRequest is the request for registering a DID together
// with its full document.
type RegisterWithDocumentRequest struct {
	DID      string          `json:"did"`
	Document json.RawMessage `json:"document"`
	Address  string          `json:"address"`
}

// RegisterResponse is the response of a register request.
type RegisterResponse struct {
	DID          string `json:"did"`
	DocumentHash string `json:"documentHash"`
}

// UpdateDocumentHashRequest is the request for anchoring a new document hash.
type UpdateDocumentHashRequest struct {
	DID          string `json:"did"`
	DocumentHash string `json:"documentHash"`
	Address      string `json:"address"`
}

// UpdateDocumentRequest is the request for merging fields into a DID
// document. The new document hash is anchored on the ledger.
type UpdateDocumentRequest struct {
	DID     string                 `json:"did"`
	Fields  map[string]interface{} `json:"fields"`
	Address string                 `json:"address"`
}

// AddServiceRequest is the request for appending a service endpoint.
type AddServiceRequest struct {
	DID     string         `json:"did"`
	Service diddoc.Service `json:"service"`
	Address string         `json:"address"`
}

// AddVerificationMethodRequest is the request for appending a verification
// method.
type AddVerificationMethodRequest struct {
	DID                string                    `json:"did"`
	VerificationMethod diddoc.VerificationMethod `json:"verificationMethod"`
	Address            string                    `json:"address"`
}

// UpdateDocumentResponse is the response of a document mutation request.
type UpdateDocumentResponse struct {
	Document     json.RawMessage `json:"document"`
	DocumentHash string          `json:"documentHash"`
}

// ChangeControllerRequest is the request for transferring control of a DID.
type ChangeControllerRequest struct {
	DID           string `json:"did"`
	NewController string `json:"newController"`
	Address       string `json:"address"`
}

// DeactivateRequest is the request for tombstoning a DID.
type DeactivateRequest struct {
	DID     string `json:"did"`
	Address string `json:"address"`
}

// IDArg is a request carrying only a DID.
type IDArg struct {
	DID string `json:"did"`
}

// ResolveResponse is the response of a resolve request: the ledger record
// plus the off-ledger document when one exists.
type ResolveResponse struct {
	Record   *ledger.Record  `json:"record"`
	Document json.RawMessage `json:"document,omitempty"`
}

// IsActiveResponse is the response of an is-active request.
type IsActiveResponse struct {
	Active bool `json:"active"`
}
