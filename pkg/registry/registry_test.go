/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/stretchr/testify/require"

	"github.com/codemtn/did-registry/pkg/crypto"
	"github.com/codemtn/did-registry/pkg/crypto/ed25519suite"
	diddoc "github.com/codemtn/did-registry/pkg/doc/did"
	"github.com/codemtn/did-registry/pkg/ledger"
	"github.com/codemtn/did-registry/pkg/ledger/memledger"
	mockledger "github.com/codemtn/did-registry/pkg/mock/ledger"
	mockprovider "github.com/codemtn/did-registry/pkg/mock/provider"
	"github.com/codemtn/did-registry/pkg/registry"
	"github.com/codemtn/did-registry/pkg/store/document"
)

const (
	testDID  = "did:example:abc"
	hashOne  = "a1b2c3"
	hashTwo  = "d4e5f6"
	userAAA  = "0xAAA"
	userBBB  = "0xBBB"
	userAddr = "0xF4B2A91c9e7281EC"
)

func newRegistry(t *testing.T) (*registry.Registry, *document.Store) {
	t.Helper()

	storageProvider := mem.NewProvider()

	suite, err := ed25519suite.New(&mockprovider.Provider{StorageProviderValue: storageProvider})
	require.NoError(t, err)

	docs, err := document.New(&mockprovider.Provider{
		StorageProviderValue: storageProvider,
		CryptoValue:          suite,
		KeyCreatorValue:      suite,
	})
	require.NoError(t, err)

	r := registry.New(&mockprovider.Provider{
		LedgerClientValue:  memledger.New(),
		DocumentStoreValue: docs,
	})

	return r, docs
}

func TestRegister(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r, _ := newRegistry(t)

		require.NoError(t, r.Register(context.Background(), testDID, hashOne, crypto.StaticSigner(userAAA)))

		rec, err := r.GetInfo(context.Background(), testDID)
		require.NoError(t, err)
		require.Equal(t, userAAA, rec.Controller)
		require.Equal(t, hashOne, rec.DocumentHash)
		require.True(t, rec.Active)
	})

	t.Run("duplicate registration rejected regardless of args", func(t *testing.T) {
		r, _ := newRegistry(t)

		require.NoError(t, r.Register(context.Background(), testDID, hashOne, crypto.StaticSigner(userAAA)))

		err := r.Register(context.Background(), testDID, hashTwo, crypto.StaticSigner(userBBB))
		require.ErrorIs(t, err, ledger.ErrAlreadyRegistered)
	})

	t.Run("invalid DID syntax rejected", func(t *testing.T) {
		r, _ := newRegistry(t)

		require.Error(t, r.Register(context.Background(), "not-a-did", hashOne, crypto.StaticSigner(userAAA)))
	})
}

func TestUpdateDocumentHash(t *testing.T) {
	r, _ := newRegistry(t)

	require.NoError(t, r.Register(context.Background(), testDID, hashOne, crypto.StaticSigner(userAAA)))

	infoBefore, err := r.GetInfo(context.Background(), testDID)
	require.NoError(t, err)

	t.Run("non-controller rejected", func(t *testing.T) {
		err := r.UpdateDocumentHash(context.Background(), testDID, hashTwo, crypto.StaticSigner(userBBB))
		require.ErrorIs(t, err, ledger.ErrNotAuthorized)
	})

	t.Run("controller succeeds and lastUpdated advances", func(t *testing.T) {
		require.NoError(t, r.UpdateDocumentHash(context.Background(), testDID, hashTwo,
			crypto.StaticSigner(userAAA)))

		info, err := r.GetInfo(context.Background(), testDID)
		require.NoError(t, err)
		require.Equal(t, userAAA, info.Controller)
		require.Equal(t, hashTwo, info.DocumentHash)
		require.True(t, info.LastUpdated.After(infoBefore.LastUpdated))
	})

	t.Run("unknown DID", func(t *testing.T) {
		err := r.UpdateDocumentHash(context.Background(), "did:example:ghost", hashTwo,
			crypto.StaticSigner(userAAA))
		require.ErrorIs(t, err, ledger.ErrNotFound)
	})
}

func TestChangeController(t *testing.T) {
	r, _ := newRegistry(t)

	require.NoError(t, r.Register(context.Background(), testDID, hashOne, crypto.StaticSigner(userAAA)))

	require.NoError(t, r.ChangeController(context.Background(), testDID, userBBB, crypto.StaticSigner(userAAA)))

	rec, err := r.GetInfo(context.Background(), testDID)
	require.NoError(t, err)
	require.Equal(t, userBBB, rec.Controller)

	// The previous controller lost the capability.
	err = r.ChangeController(context.Background(), testDID, userAAA, crypto.StaticSigner(userAAA))
	require.ErrorIs(t, err, ledger.ErrNotAuthorized)
}

func TestDeactivate(t *testing.T) {
	r, _ := newRegistry(t)

	require.NoError(t, r.Register(context.Background(), testDID, hashOne, crypto.StaticSigner(userAAA)))
	require.NoError(t, r.Deactivate(context.Background(), testDID, crypto.StaticSigner(userAAA)))

	active, err := r.IsActive(context.Background(), testDID)
	require.NoError(t, err)
	require.False(t, active)

	t.Run("terminal: all mutations rejected", func(t *testing.T) {
		require.ErrorIs(t, r.UpdateDocumentHash(context.Background(), testDID, hashTwo,
			crypto.StaticSigner(userAAA)), ledger.ErrDeactivated)
		require.ErrorIs(t, r.ChangeController(context.Background(), testDID, userBBB,
			crypto.StaticSigner(userAAA)), ledger.ErrDeactivated)
	})

	t.Run("identifier is never recycled", func(t *testing.T) {
		err := r.Register(context.Background(), testDID, hashOne, crypto.StaticSigner(userAAA))
		require.ErrorIs(t, err, ledger.ErrAlreadyRegistered)
	})
}

func TestIsActive(t *testing.T) {
	r, _ := newRegistry(t)

	t.Run("unknown DID is inactive without error", func(t *testing.T) {
		active, err := r.IsActive(context.Background(), "did:example:ghost")
		require.NoError(t, err)
		require.False(t, active)
	})

	t.Run("ledger failure is surfaced", func(t *testing.T) {
		broken := registry.New(&mockprovider.Provider{
			LedgerClientValue: &mockledger.MockClient{
				ReadRecordFunc: func(context.Context, string) (*ledger.Record, error) {
					return nil, ledger.ErrUnavailable
				},
			},
		})

		_, err := broken.IsActive(context.Background(), testDID)
		require.ErrorIs(t, err, ledger.ErrUnavailable)
	})
}

func TestGetInfoUnknown(t *testing.T) {
	r, _ := newRegistry(t)

	_, err := r.GetInfo(context.Background(), "did:example:ghost")
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestCreateDID(t *testing.T) {
	r, docs := newRegistry(t)

	result, err := r.CreateDID(context.Background(), crypto.StaticSigner(userAddr))
	require.NoError(t, err)
	require.Equal(t, "did:ethr:codemtn:f4b2a91c9e7281ec", result.DID)
	require.NotNil(t, result.Document)
	require.NotEmpty(t, result.DocumentHash)

	t.Run("ledger and document hashes agree", func(t *testing.T) {
		rec, err := r.GetInfo(context.Background(), result.DID)
		require.NoError(t, err)

		doc, err := docs.Get(result.DID)
		require.NoError(t, err)

		hash, err := docs.Hash(doc)
		require.NoError(t, err)
		require.Equal(t, rec.DocumentHash, hash)
	})

	t.Run("second create for the same address converges", func(t *testing.T) {
		_, err := r.CreateDID(context.Background(), crypto.StaticSigner(userAddr))
		require.ErrorIs(t, err, ledger.ErrAlreadyRegistered)

		// The established document is untouched.
		doc, err := docs.Get(result.DID)
		require.NoError(t, err)
		require.Equal(t, result.Document.VerificationMethod, doc.VerificationMethod)
	})

	t.Run("failed ledger write leaves a retriable document", func(t *testing.T) {
		storageProvider := mem.NewProvider()

		suite, err := ed25519suite.New(&mockprovider.Provider{StorageProviderValue: storageProvider})
		require.NoError(t, err)

		docStore, err := document.New(&mockprovider.Provider{
			StorageProviderValue: storageProvider,
			CryptoValue:          suite,
			KeyCreatorValue:      suite,
		})
		require.NoError(t, err)

		failing := &mockledger.MockClient{
			SubmitFunc: func(context.Context, ledger.Operation, ledger.Args,
				crypto.Signer) (ledger.Commitment, error) {
				return nil, ledger.ErrUnavailable
			},
		}

		flaky := registry.New(&mockprovider.Provider{
			LedgerClientValue:  failing,
			DocumentStoreValue: docStore,
		})

		_, err = flaky.CreateDID(context.Background(), crypto.StaticSigner(userAddr))
		require.ErrorIs(t, err, ledger.ErrUnavailable)

		// Document survived the failure.
		doc, err := docStore.Get("did:ethr:codemtn:f4b2a91c9e7281ec")
		require.NoError(t, err)

		// Retry with a healthy ledger converges without clobbering it.
		healthy := registry.New(&mockprovider.Provider{
			LedgerClientValue:  memledger.New(),
			DocumentStoreValue: docStore,
		})

		result, err := healthy.CreateDID(context.Background(), crypto.StaticSigner(userAddr))
		require.NoError(t, err)
		require.Equal(t, doc.VerificationMethod, result.Document.VerificationMethod)
	})
}

func TestRegisterWithDocument(t *testing.T) {
	r, docs := newRegistry(t)

	buildDoc := func(didID string) *diddoc.Doc {
		return diddoc.BuildDoc(didID, "f4b2a", diddoc.VerificationMethod{
			ID:         didID + "#keys-1",
			Type:       ed25519suite.KeyType,
			Controller: didID,
		})
	}

	t.Run("round trip: anchored hash matches document hash", func(t *testing.T) {
		doc := buildDoc(testDID)

		hash, err := r.RegisterWithDocument(context.Background(), testDID, doc, crypto.StaticSigner(userAAA))
		require.NoError(t, err)

		rec, err := r.GetInfo(context.Background(), testDID)
		require.NoError(t, err)
		require.Equal(t, hash, rec.DocumentHash)

		stored, err := docs.Get(testDID)
		require.NoError(t, err)

		storedHash, err := docs.Hash(stored)
		require.NoError(t, err)
		require.Equal(t, rec.DocumentHash, storedHash)
	})

	t.Run("existing record never clobbers the stored document", func(t *testing.T) {
		other := buildDoc(testDID)
		other.Controller = "did:example:mallory"

		_, err := r.RegisterWithDocument(context.Background(), testDID, other, crypto.StaticSigner(userBBB))
		require.ErrorIs(t, err, ledger.ErrAlreadyRegistered)

		stored, err := docs.Get(testDID)
		require.NoError(t, err)
		require.Equal(t, testDID, stored.Controller)
	})

	t.Run("document id must match", func(t *testing.T) {
		doc := buildDoc("did:example:other")

		_, err := r.RegisterWithDocument(context.Background(), testDID, doc, crypto.StaticSigner(userAAA))
		require.Error(t, err)
	})

	t.Run("invalid document rejected", func(t *testing.T) {
		doc := buildDoc("did:example:fresh")
		doc.Service = []diddoc.Service{{ID: "did:example:fresh#profile"}}

		_, err := r.RegisterWithDocument(context.Background(), "did:example:fresh", doc,
			crypto.StaticSigner(userAAA))
		require.Error(t, err)
		require.False(t, errors.Is(err, ledger.ErrAlreadyRegistered))
	})

	t.Run("stored document is never overwritten by a losing registrant", func(t *testing.T) {
		storageProvider := mem.NewProvider()

		suite, err := ed25519suite.New(&mockprovider.Provider{StorageProviderValue: storageProvider})
		require.NoError(t, err)

		docStore, err := document.New(&mockprovider.Provider{
			StorageProviderValue: storageProvider,
			CryptoValue:          suite,
			KeyCreatorValue:      suite,
		})
		require.NoError(t, err)

		// A ledger that reports no record yet rejects every write, standing in
		// for the registrant that loses the anchoring race.
		racing := registry.New(&mockprovider.Provider{
			LedgerClientValue: &mockledger.MockClient{
				SubmitFunc: func(context.Context, ledger.Operation, ledger.Args,
					crypto.Signer) (ledger.Commitment, error) {
					return nil, ledger.ErrAlreadyRegistered
				},
			},
			DocumentStoreValue: docStore,
		})

		winner := buildDoc(testDID)

		_, err = racing.RegisterWithDocument(context.Background(), testDID, winner, crypto.StaticSigner(userAAA))
		require.ErrorIs(t, err, ledger.ErrAlreadyRegistered)

		// Retrying the identical document converges on the stored content.
		_, err = racing.RegisterWithDocument(context.Background(), testDID, winner, crypto.StaticSigner(userAAA))
		require.ErrorIs(t, err, ledger.ErrAlreadyRegistered)

		// A different document for the same DID cannot displace it.
		loser := buildDoc(testDID)
		loser.Controller = "did:example:mallory"

		_, err = racing.RegisterWithDocument(context.Background(), testDID, loser, crypto.StaticSigner(userBBB))
		require.ErrorIs(t, err, document.ErrExists)

		stored, err := docStore.Get(testDID)
		require.NoError(t, err)
		require.Equal(t, winner.Controller, stored.Controller)
	})
}

func TestDocumentMutations(t *testing.T) {
	r, docs := newRegistry(t)

	result, err := r.CreateDID(context.Background(), crypto.StaticSigner(userAddr))
	require.NoError(t, err)

	t.Run("controller mutation anchors the new hash", func(t *testing.T) {
		doc, hash, err := r.AddService(context.Background(), result.DID, diddoc.Service{
			ID:              result.DID + "#messaging",
			Type:            "MessagingService",
			ServiceEndpoint: "https://example.com/inbox",
		}, crypto.StaticSigner(userAddr))
		require.NoError(t, err)
		require.Len(t, doc.Service, 2)

		rec, err := r.GetInfo(context.Background(), result.DID)
		require.NoError(t, err)
		require.Equal(t, hash, rec.DocumentHash)

		stored, err := docs.Get(result.DID)
		require.NoError(t, err)

		storedHash, err := docs.Hash(stored)
		require.NoError(t, err)
		require.Equal(t, rec.DocumentHash, storedHash)
	})

	t.Run("non-controller mutation leaves the document untouched", func(t *testing.T) {
		before, err := docs.Get(result.DID)
		require.NoError(t, err)

		recBefore, err := r.GetInfo(context.Background(), result.DID)
		require.NoError(t, err)

		_, _, err = r.AddService(context.Background(), result.DID, diddoc.Service{
			ID:              result.DID + "#intruder",
			Type:            "MessagingService",
			ServiceEndpoint: "https://evil.example",
		}, crypto.StaticSigner(userBBB))
		require.ErrorIs(t, err, ledger.ErrNotAuthorized)

		after, err := docs.Get(result.DID)
		require.NoError(t, err)
		require.Equal(t, len(before.Service), len(after.Service))

		rec, err := r.GetInfo(context.Background(), result.DID)
		require.NoError(t, err)
		require.Equal(t, recBefore.DocumentHash, rec.DocumentHash)
	})

	t.Run("update document merges fields and anchors", func(t *testing.T) {
		doc, hash, err := r.UpdateDocument(context.Background(), result.DID, map[string]interface{}{
			"controller": "did:ethr:codemtn:other",
		}, crypto.StaticSigner(userAddr))
		require.NoError(t, err)
		require.Equal(t, "did:ethr:codemtn:other", doc.Controller)

		rec, err := r.GetInfo(context.Background(), result.DID)
		require.NoError(t, err)
		require.Equal(t, hash, rec.DocumentHash)
	})

	t.Run("add verification method", func(t *testing.T) {
		doc, _, err := r.AddVerificationMethod(context.Background(), result.DID, diddoc.VerificationMethod{
			ID:         result.DID + "#keys-2",
			Type:       ed25519suite.KeyType,
			Controller: result.DID,
		}, crypto.StaticSigner(userAddr))
		require.NoError(t, err)
		require.Len(t, doc.VerificationMethod, 2)
	})

	t.Run("mutations on a deactivated DID are rejected before the store", func(t *testing.T) {
		require.NoError(t, r.Deactivate(context.Background(), result.DID, crypto.StaticSigner(userAddr)))

		before, err := docs.Get(result.DID)
		require.NoError(t, err)

		_, _, err = r.UpdateDocument(context.Background(), result.DID, map[string]interface{}{
			"controller": "did:ethr:codemtn:late",
		}, crypto.StaticSigner(userAddr))
		require.ErrorIs(t, err, ledger.ErrDeactivated)

		after, err := docs.Get(result.DID)
		require.NoError(t, err)
		require.Equal(t, before.Controller, after.Controller)
	})
}
