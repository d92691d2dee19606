/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package context

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codemtn/did-registry/pkg/crypto"
	"github.com/codemtn/did-registry/pkg/ledger"
	mockledger "github.com/codemtn/did-registry/pkg/mock/ledger"
	mockstorage "github.com/codemtn/did-registry/pkg/mock/storage"
)

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		prov, err := New()
		require.NoError(t, err)
		require.NotNil(t, prov.StorageProvider())
		require.NotNil(t, prov.Crypto())
		require.NotNil(t, prov.KeyCreator())
		require.NotNil(t, prov.LedgerClient())
		require.NotNil(t, prov.DocumentStore())
		require.NotNil(t, prov.DIDRegistry())
	})

	t.Run("end to end against defaults", func(t *testing.T) {
		prov, err := New()
		require.NoError(t, err)

		result, err := prov.DIDRegistry().CreateDID(context.Background(),
			crypto.StaticSigner("0xABC123"))
		require.NoError(t, err)
		require.Equal(t, "did:ethr:codemtn:abc123", result.DID)
	})

	t.Run("injected ledger client", func(t *testing.T) {
		client := &mockledger.MockClient{}

		prov, err := New(WithLedgerClient(client))
		require.NoError(t, err)
		require.Equal(t, ledger.Client(client), prov.LedgerClient())
	})

	t.Run("storage failure surfaces", func(t *testing.T) {
		_, err := New(WithStorageProvider(&mockstorage.MockStoreProvider{
			ErrOpenStoreHandle: errors.New("open store failed"),
		}))
		require.Error(t, err)
		require.Contains(t, err.Error(), "create crypto suite")
	})
}
