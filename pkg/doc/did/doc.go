/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package did contains the W3C DID document model used by the registry and
// the document store, along with the generic DID syntax parser and the
// canonical serialization that document hashes are computed over.
package did

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// Context of the DID document.
	Context = "https://www.w3.org/ns/did/v1"
	// ContextEd25519 is the ed25519-2020 security suite context.
	ContextEd25519 = "https://w3id.org/security/suites/ed25519-2020/v1"

	// DefaultKeyFragment is the fragment of the verification method minted for
	// a freshly created DID.
	DefaultKeyFragment = "keys-1"

	// ProfileServiceType is the service type attached to default documents.
	ProfileServiceType = "SocialNetworkProfile"
)

// VerificationMethod expresses a public key bound to a DID document.
type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
}

// Service describes a service endpoint of a DID document.
type Service struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

// Doc is a DID document definition.
type Doc struct {
	Context            []string             `json:"@context,omitempty"`
	ID                 string               `json:"id"`
	Controller         string               `json:"controller,omitempty"`
	VerificationMethod []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication     []string             `json:"authentication,omitempty"`
	AssertionMethod    []string             `json:"assertionMethod,omitempty"`
	Service            []Service            `json:"service,omitempty"`
	Created            *time.Time           `json:"created,omitempty"`
	Updated            *time.Time           `json:"updated,omitempty"`
}

// JSONBytes converts the document to its JSON representation.
func (doc *Doc) JSONBytes() ([]byte, error) {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("JSON marshalling of document failed: %w", err)
	}

	return docBytes, nil
}

// CanonicalBytes returns the canonical serialization of the document:
// the JSON representation with object keys in lexicographic order.
// Hashes anchored on the ledger are computed over these bytes, so the
// ordering must be stable across implementations.
func (doc *Doc) CanonicalBytes() ([]byte, error) {
	docBytes, err := doc.JSONBytes()
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}

	if err := json.Unmarshal(docBytes, &raw); err != nil {
		return nil, fmt.Errorf("canonicalization of document failed: %w", err)
	}

	// encoding/json sorts map keys lexicographically on marshal.
	canonical, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalization of document failed: %w", err)
	}

	return canonical, nil
}

// VerificationMethodByID returns the verification method with the given id.
func (doc *Doc) VerificationMethodByID(id string) (*VerificationMethod, bool) {
	for i := range doc.VerificationMethod {
		if doc.VerificationMethod[i].ID == id {
			return &doc.VerificationMethod[i], true
		}
	}

	return nil, false
}

// ParseDocument creates an instance of a DID document by reading a JSON document from bytes.
func ParseDocument(data []byte) (*Doc, error) {
	doc := &Doc{}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("JSON unmarshalling of document failed: %w", err)
	}

	if doc.ID == "" {
		return nil, fmt.Errorf("document id is mandatory")
	}

	if _, err := Parse(doc.ID); err != nil {
		return nil, err
	}

	return doc, nil
}

// BuildDoc constructs a default DID document for the given DID and its
// ledger account address: a single verification method referenced by both
// the authentication and assertion method relationships, plus a profile
// service endpoint derived from the address.
func BuildDoc(didID, address string, method VerificationMethod) *Doc {
	now := time.Now().UTC()

	return &Doc{
		Context:            []string{Context, ContextEd25519},
		ID:                 didID,
		Controller:         didID,
		VerificationMethod: []VerificationMethod{method},
		Authentication:     []string{method.ID},
		AssertionMethod:    []string{method.ID},
		Service: []Service{
			{
				ID:              didID + "#profile",
				Type:            ProfileServiceType,
				ServiceEndpoint: "https://codemtn.com/profile/" + address,
			},
		},
		Created: &now,
		Updated: &now,
	}
}
