/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import "time"

// IssueRequest carries the parameters for issuing a credential.
type IssueRequest struct {
	// Issuer is the DID signing the credential.
	Issuer string `json:"issuer"`
	// Subject is the DID the claims are about.
	Subject string `json:"subject"`
	// Type is the credential type, e.g. "ProofOfResidence".
	Type string `json:"type"`
	// Claims is the claim set asserted about the subject.
	Claims map[string]interface{} `json:"claims"`
	// ExpirationDate bounds the validity window. Nil means no expiry.
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
}

// VerifyRequest carries the parameters for verifying a credential.
// VerifierDID and PresentationContext are recorded on the result for
// audit purposes; they do not influence the outcome.
type VerifyRequest struct {
	CredentialID        string `json:"credentialId"`
	VerifierDID         string `json:"verifierDid,omitempty"`
	PresentationContext string `json:"presentationContext,omitempty"`
}

// VerificationResult is the outcome of a credential verification.
// Verification failure is data, not control flow: a failed check sets
// Verified to false and appends a human-readable message to Errors.
type VerificationResult struct {
	Verified            bool                   `json:"verified"`
	Issuer              string                 `json:"issuer,omitempty"`
	Subject             string                 `json:"subject,omitempty"`
	Claims              map[string]interface{} `json:"claims,omitempty"`
	ValidUntil          *time.Time             `json:"validUntil,omitempty"`
	VerifierDID         string                 `json:"verifierDid,omitempty"`
	PresentationContext string                 `json:"presentationContext,omitempty"`
	Errors              []string               `json:"errors,omitempty"`
}
