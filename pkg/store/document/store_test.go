/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package document_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/stretchr/testify/require"

	"github.com/codemtn/did-registry/pkg/crypto/ed25519suite"
	diddoc "github.com/codemtn/did-registry/pkg/doc/did"
	mockprovider "github.com/codemtn/did-registry/pkg/mock/provider"
	. "github.com/codemtn/did-registry/pkg/store/document"
)

const (
	testDID     = "did:ethr:codemtn:0f4b2a"
	testAddress = "0f4b2a"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	storageProvider := mem.NewProvider()

	suite, err := ed25519suite.New(&mockprovider.Provider{StorageProviderValue: storageProvider})
	require.NoError(t, err)

	s, err := New(&mockprovider.Provider{
		StorageProviderValue: storageProvider,
		CryptoValue:          suite,
		KeyCreatorValue:      suite,
	})
	require.NoError(t, err)

	return s
}

func TestCreate(t *testing.T) {
	t.Run("creates a default document", func(t *testing.T) {
		s := newStore(t)

		doc, err := s.Create(testDID, testAddress)
		require.NoError(t, err)
		require.Equal(t, testDID, doc.ID)
		require.Len(t, doc.VerificationMethod, 1)
		require.Equal(t, testDID+"#"+diddoc.DefaultKeyFragment, doc.VerificationMethod[0].ID)
		require.NotEmpty(t, doc.VerificationMethod[0].PublicKeyMultibase)
		require.Len(t, doc.Service, 1)
	})

	t.Run("idempotent: existing document is returned unchanged", func(t *testing.T) {
		s := newStore(t)

		first, err := s.Create(testDID, testAddress)
		require.NoError(t, err)

		_, err = s.AddService(testDID, diddoc.Service{
			ID:              testDID + "#messaging",
			Type:            "MessagingService",
			ServiceEndpoint: "https://example.com/inbox",
		}, nil)
		require.NoError(t, err)

		again, err := s.Create(testDID, testAddress)
		require.NoError(t, err)

		// The established document survives, including the added service.
		require.Equal(t, first.VerificationMethod, again.VerificationMethod)
		require.Len(t, again.Service, 2)
	})
}

func TestGet(t *testing.T) {
	s := newStore(t)

	_, err := s.Get(testDID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Create(testDID, testAddress)
	require.NoError(t, err)

	doc, err := s.Get(testDID)
	require.NoError(t, err)
	require.Equal(t, testDID, doc.ID)
}

func TestUpdate(t *testing.T) {
	t.Run("merges fields and refreshes updated", func(t *testing.T) {
		s := newStore(t)

		created, err := s.Create(testDID, testAddress)
		require.NoError(t, err)

		updated, err := s.Update(testDID, map[string]interface{}{
			"controller": "did:ethr:codemtn:other",
		}, nil)
		require.NoError(t, err)
		require.Equal(t, "did:ethr:codemtn:other", updated.Controller)
		require.Equal(t, created.VerificationMethod, updated.VerificationMethod)
		require.True(t, updated.Updated.After(*created.Created) || updated.Updated.Equal(*created.Created))
	})

	t.Run("id is immutable", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Create(testDID, testAddress)
		require.NoError(t, err)

		fields := map[string]interface{}{
			"id":         "did:ethr:codemtn:hijacked",
			"controller": "did:ethr:codemtn:other",
		}

		doc, err := s.Update(testDID, fields, nil)
		require.NoError(t, err)
		require.Equal(t, testDID, doc.ID)

		// The caller's map is left intact.
		require.Contains(t, fields, "id")
	})

	t.Run("rejected anchor leaves the stored document untouched", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Create(testDID, testAddress)
		require.NoError(t, err)

		anchorErr := errors.New("not authorized")

		var anchoredHash string

		_, err = s.Update(testDID, map[string]interface{}{
			"controller": "did:ethr:codemtn:mallory",
		}, func(documentHash string) error {
			anchoredHash = documentHash
			return anchorErr
		})
		require.ErrorIs(t, err, anchorErr)
		require.NotEmpty(t, anchoredHash)

		stored, err := s.Get(testDID)
		require.NoError(t, err)
		require.NotEqual(t, "did:ethr:codemtn:mallory", stored.Controller)
	})

	t.Run("accepted anchor hash matches the written document", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Create(testDID, testAddress)
		require.NoError(t, err)

		var anchoredHash string

		updated, err := s.Update(testDID, map[string]interface{}{
			"controller": "did:ethr:codemtn:other",
		}, func(documentHash string) error {
			anchoredHash = documentHash
			return nil
		})
		require.NoError(t, err)

		writtenHash, err := s.Hash(updated)
		require.NoError(t, err)
		require.Equal(t, anchoredHash, writtenHash)
	})

	t.Run("unknown DID", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Update(testDID, map[string]interface{}{"controller": "x"}, nil)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAddServiceAndVerificationMethod(t *testing.T) {
	s := newStore(t)

	_, err := s.Create(testDID, testAddress)
	require.NoError(t, err)

	doc, err := s.AddService(testDID, diddoc.Service{
		ID:              testDID + "#messaging",
		Type:            "MessagingService",
		ServiceEndpoint: "https://example.com/inbox",
	}, nil)
	require.NoError(t, err)
	require.Len(t, doc.Service, 2)

	doc, err = s.AddVerificationMethod(testDID, diddoc.VerificationMethod{
		ID:         testDID + "#keys-2",
		Type:       ed25519suite.KeyType,
		Controller: testDID,
	}, nil)
	require.NoError(t, err)
	require.Len(t, doc.VerificationMethod, 2)

	t.Run("concurrent appends are not lost", func(t *testing.T) {
		var wg sync.WaitGroup

		const appends = 8

		for i := 0; i < appends; i++ {
			wg.Add(1)

			go func(i int) {
				defer wg.Done()

				_, _ = s.AddService(testDID, diddoc.Service{
					ID:              fmt.Sprintf("%s#svc-%d", testDID, i),
					Type:            "MessagingService",
					ServiceEndpoint: "https://example.com/inbox",
				}, nil)
			}(i)
		}

		wg.Wait()

		doc, err := s.Get(testDID)
		require.NoError(t, err)
		require.Len(t, doc.Service, 2+appends)
	})
}

func TestHash(t *testing.T) {
	s := newStore(t)

	doc, err := s.Create(testDID, testAddress)
	require.NoError(t, err)

	first, err := s.Hash(doc)
	require.NoError(t, err)
	require.Len(t, first, 64) // hex-encoded sha256

	second, err := s.Hash(doc)
	require.NoError(t, err)
	require.Equal(t, first, second)

	changed, err := s.AddService(testDID, diddoc.Service{
		ID:              testDID + "#extra",
		Type:            "MessagingService",
		ServiceEndpoint: "https://example.com/inbox",
	}, nil)
	require.NoError(t, err)

	changedHash, err := s.Hash(changed)
	require.NoError(t, err)
	require.NotEqual(t, first, changedHash)
}

func TestSave(t *testing.T) {
	s := newStore(t)

	doc := diddoc.BuildDoc(testDID, testAddress, diddoc.VerificationMethod{
		ID:         testDID + "#keys-1",
		Type:       ed25519suite.KeyType,
		Controller: testDID,
	})

	require.NoError(t, s.Save(doc))

	got, err := s.Get(testDID)
	require.NoError(t, err)
	require.Equal(t, doc.ID, got.ID)

	t.Run("identical content is a no-op", func(t *testing.T) {
		require.NoError(t, s.Save(doc))
	})

	t.Run("different content is refused", func(t *testing.T) {
		other := diddoc.BuildDoc(testDID, testAddress, diddoc.VerificationMethod{
			ID:         testDID + "#keys-2",
			Type:       ed25519suite.KeyType,
			Controller: testDID,
		})

		require.ErrorIs(t, s.Save(other), ErrExists)

		// The established document survives.
		stored, err := s.Get(testDID)
		require.NoError(t, err)
		require.Equal(t, testDID+"#keys-1", stored.VerificationMethod[0].ID)
	})
}
