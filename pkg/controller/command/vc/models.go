/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vc

import (
	"encoding/json"
)

// IssueCredentialResponse is the response of an issue credential request.
type IssueCredentialResponse struct {
	CredentialID string          `json:"credentialId"`
	Credential   json.RawMessage `json:"credential"`
}

// IDArg is a request carrying only a credential id.
type IDArg struct {
	ID string `json:"id"`
}

// CredentialResponse is the response of a get credential request.
type CredentialResponse struct {
	Credential json.RawMessage `json:"credential"`
}
