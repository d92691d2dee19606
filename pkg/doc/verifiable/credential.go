/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package verifiable contains the verifiable credential model. Credentials
// are immutable once issued; their validity window is recognized at
// verification time rather than enforced by storage.
package verifiable

import (
	"encoding/json"
	"fmt"
	"time"
)

// ProofPurposeAssertion is the proof purpose attached to issued credentials.
const ProofPurposeAssertion = "assertionMethod"

// Subject is the credential subject: the DID the claims are about.
type Subject struct {
	ID     string                 `json:"id"`
	Claims map[string]interface{} `json:"claims"`
}

// Proof is the cryptographic proof attached to a credential, attesting
// issuer authenticity.
type Proof struct {
	Type               string    `json:"type"`
	Created            time.Time `json:"created"`
	ProofPurpose       string    `json:"proofPurpose"`
	VerificationMethod string    `json:"verificationMethod"`
	SignatureValue     string    `json:"signatureValue"`
}

// Credential is a verifiable credential issued by one DID about another.
type Credential struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	Issuer         string     `json:"issuer"`
	IssuanceDate   time.Time  `json:"issuanceDate"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	Subject        Subject    `json:"credentialSubject"`
	Proof          Proof      `json:"proof"`
}

// Expired reports whether the credential's validity window has passed at
// the given instant. Credentials without an expiration date never expire.
func (vc *Credential) Expired(now time.Time) bool {
	return vc.ExpirationDate != nil && vc.ExpirationDate.Before(now)
}

// MarshalJSON converts the credential to its JSON representation.
func (vc *Credential) MarshalJSON() ([]byte, error) {
	type alias Credential

	bytes, err := json.Marshal((*alias)(vc))
	if err != nil {
		return nil, fmt.Errorf("JSON marshalling of credential failed: %w", err)
	}

	return bytes, nil
}

// ParseCredential creates a credential instance from its JSON representation.
func ParseCredential(data []byte) (*Credential, error) {
	vc := &Credential{}

	if err := json.Unmarshal(data, vc); err != nil {
		return nil, fmt.Errorf("JSON unmarshalling of credential failed: %w", err)
	}

	if vc.ID == "" {
		return nil, fmt.Errorf("credential id is mandatory")
	}

	return vc, nil
}

// SigningPayload returns the canonical byte payload the issuer signs and a
// verifier checks: the issuer/subject/type/claims tuple with the issuance
// timestamp, serialized with lexicographic key order.
func SigningPayload(issuer, subject, credentialType string, claims map[string]interface{},
	timestamp time.Time) ([]byte, error) {
	payload := map[string]interface{}{
		"issuer":    issuer,
		"subject":   subject,
		"type":      credentialType,
		"claims":    claims,
		"timestamp": timestamp.UTC().Format(time.RFC3339Nano),
	}

	// encoding/json sorts map keys, so the payload is deterministic.
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal signing payload: %w", err)
	}

	return payloadBytes, nil
}
