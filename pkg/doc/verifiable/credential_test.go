/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExpired(t *testing.T) {
	now := time.Now()

	t.Run("no expiration date never expires", func(t *testing.T) {
		vc := &Credential{}
		require.False(t, vc.Expired(now))
	})

	t.Run("past expiration", func(t *testing.T) {
		past := now.Add(-time.Second)
		vc := &Credential{ExpirationDate: &past}
		require.True(t, vc.Expired(now))
	})

	t.Run("future expiration", func(t *testing.T) {
		future := now.Add(time.Hour)
		vc := &Credential{ExpirationDate: &future}
		require.False(t, vc.Expired(now))
	})
}

func TestParseCredential(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		issued := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)

		vc := &Credential{
			ID:           "vc:ethr:codemtn:degree:abc123",
			Type:         "Degree",
			Issuer:       "did:ethr:codemtn:issuer",
			IssuanceDate: issued,
			Subject: Subject{
				ID:     "did:ethr:codemtn:subject",
				Claims: map[string]interface{}{"degree": "MSc"},
			},
			Proof: Proof{
				Type:               "Ed25519Signature2020",
				Created:            issued,
				ProofPurpose:       ProofPurposeAssertion,
				VerificationMethod: "did:ethr:codemtn:issuer#keys-1",
				SignatureValue:     "eyJh..sig",
			},
		}

		vcBytes, err := vc.MarshalJSON()
		require.NoError(t, err)

		parsed, err := ParseCredential(vcBytes)
		require.NoError(t, err)
		require.Equal(t, vc.ID, parsed.ID)
		require.Equal(t, vc.Subject.Claims["degree"], parsed.Subject.Claims["degree"])
		require.Equal(t, vc.Proof.SignatureValue, parsed.Proof.SignatureValue)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := ParseCredential([]byte(`{"type":"Degree"}`))
		require.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseCredential([]byte(`}`))
		require.Error(t, err)
	})
}

func TestSigningPayload(t *testing.T) {
	ts := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	claims := map[string]interface{}{"b": "2", "a": "1"}

	first, err := SigningPayload("did:a", "did:b", "Degree", claims, ts)
	require.NoError(t, err)

	second, err := SigningPayload("did:a", "did:b", "Degree", map[string]interface{}{"a": "1", "b": "2"}, ts)
	require.NoError(t, err)

	// Key order in the input map does not affect the canonical payload.
	require.Equal(t, first, second)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(first, &decoded))
	require.Equal(t, "did:a", decoded["issuer"])
	require.Equal(t, "did:b", decoded["subject"])

	changed, err := SigningPayload("did:a", "did:b", "Degree", map[string]interface{}{"a": "1"}, ts)
	require.NoError(t, err)
	require.NotEqual(t, first, changed)
}
