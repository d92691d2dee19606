/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"fmt"
	"testing"
	"time"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/stretchr/testify/require"

	docverifiable "github.com/codemtn/did-registry/pkg/doc/verifiable"
	mockprovider "github.com/codemtn/did-registry/pkg/mock/provider"
	mockstorage "github.com/codemtn/did-registry/pkg/mock/storage"
)

func TestNew(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s, err := New(&mockprovider.Provider{StorageProviderValue: mem.NewProvider()})
		require.NoError(t, err)
		require.NotNil(t, s)
	})

	t.Run("open store error", func(t *testing.T) {
		_, err := New(&mockprovider.Provider{
			StorageProviderValue: &mockstorage.MockStoreProvider{
				ErrOpenStoreHandle: fmt.Errorf("failed to open store"),
			},
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to open store")
	})
}

func TestSaveAndGetCredential(t *testing.T) {
	s, err := New(&mockprovider.Provider{StorageProviderValue: mem.NewProvider()})
	require.NoError(t, err)

	vc := &docverifiable.Credential{
		ID:           "vc:ethr:codemtn:degree:abc123",
		Type:         "Degree",
		Issuer:       "did:ethr:codemtn:issuer",
		IssuanceDate: time.Now().UTC(),
		Subject: docverifiable.Subject{
			ID:     "did:ethr:codemtn:subject",
			Claims: map[string]interface{}{"degree": "MSc"},
		},
	}

	require.NoError(t, s.SaveCredential(vc))

	got, err := s.GetCredential(vc.ID)
	require.NoError(t, err)
	require.Equal(t, vc.ID, got.ID)
	require.Equal(t, "MSc", got.Subject.Claims["degree"])

	_, err = s.GetCredential("vc:ethr:codemtn:unknown")
	require.ErrorIs(t, err, ErrNotFound)
}
