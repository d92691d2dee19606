/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package document provides the off-ledger DID document store. The registry
// state machine keeps the canonical hash of the stored document in sync with
// the hash anchored on the ledger; documents survive DID deactivation so
// historical credentials stay verifiable.
package document

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"
	spistorage "github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/mitchellh/mapstructure"

	"github.com/codemtn/did-registry/pkg/crypto"
	diddoc "github.com/codemtn/did-registry/pkg/doc/did"
)

const nameSpace = "diddoc"

var logger = log.New("did-registry/docstore")

// ErrNotFound signals that no document exists for the given DID.
var ErrNotFound = errors.New("did document not found")

// ErrExists signals an attempt to replace an established document with
// different content.
var ErrExists = errors.New("did document already exists")

type provider interface {
	StorageProvider() spistorage.Provider
	Crypto() crypto.Crypto
	KeyCreator() crypto.KeyCreator
}

// Store holds DID documents keyed by DID. Operations on the same DID are
// mutually exclusive; operations on different DIDs never contend.
type Store struct {
	store  spistorage.Store
	crypto crypto.Crypto
	keys   crypto.KeyCreator

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a new DID document store.
func New(ctx provider) (*Store, error) {
	store, err := ctx.StorageProvider().OpenStore(nameSpace)
	if err != nil {
		return nil, fmt.Errorf("failed to open did document store: %w", err)
	}

	return &Store{
		store:  store,
		crypto: ctx.Crypto(),
		keys:   ctx.KeyCreator(),
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// Create builds and stores the default document for didID. Create is
// idempotent: when a document already exists it is returned unchanged, so a
// retry after a failed ledger write can never clobber an established
// document with a default one.
func (s *Store) Create(didID, ownerAddress string) (*diddoc.Doc, error) {
	lock := s.keyLock(didID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.read(didID)
	if err == nil {
		return existing, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	method, err := s.keys.CreateKey(didID, diddoc.DefaultKeyFragment)
	if err != nil {
		return nil, fmt.Errorf("create signing key for %s: %w", didID, err)
	}

	doc := diddoc.BuildDoc(didID, ownerAddress, *method)

	if err := s.write(doc); err != nil {
		return nil, err
	}

	logger.Debugf("created DID document for %s", didID)

	return doc, nil
}

// Save stores an externally supplied document under its own id. Saving
// content identical to the stored document is a no-op, so a retry after a
// failed ledger write converges; replacing an established document with
// different content fails with ErrExists.
func (s *Store) Save(doc *diddoc.Doc) error {
	lock := s.keyLock(doc.ID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.read(doc.ID)
	if err == nil {
		same, cmpErr := sameContent(existing, doc)
		if cmpErr != nil {
			return cmpErr
		}

		if same {
			return nil
		}

		return fmt.Errorf("%w: %s", ErrExists, doc.ID)
	}

	if !errors.Is(err, ErrNotFound) {
		return err
	}

	return s.write(doc)
}

// Get returns the document for didID, or ErrNotFound.
func (s *Store) Get(didID string) (*diddoc.Doc, error) {
	return s.read(didID)
}

// Update merges the given fields into the stored document. The document id
// is immutable; updated is always refreshed. A non-nil anchor is invoked
// with the new canonical hash before the document is written: a rejected
// anchor leaves the stored document untouched.
func (s *Store) Update(didID string, fields map[string]interface{},
	anchor func(documentHash string) error) (*diddoc.Doc, error) {
	lock := s.keyLock(didID)
	lock.Lock()
	defer lock.Unlock()

	return s.updateLocked(didID, func(*diddoc.Doc) map[string]interface{} {
		return fields
	}, anchor)
}

// AddService appends a service endpoint to the document.
func (s *Store) AddService(didID string, service diddoc.Service,
	anchor func(documentHash string) error) (*diddoc.Doc, error) {
	lock := s.keyLock(didID)
	lock.Lock()
	defer lock.Unlock()

	return s.updateLocked(didID, func(doc *diddoc.Doc) map[string]interface{} {
		return map[string]interface{}{
			"service": append(doc.Service, service),
		}
	}, anchor)
}

// AddVerificationMethod appends a verification method to the document.
func (s *Store) AddVerificationMethod(didID string, method diddoc.VerificationMethod,
	anchor func(documentHash string) error) (*diddoc.Doc, error) {
	lock := s.keyLock(didID)
	lock.Lock()
	defer lock.Unlock()

	return s.updateLocked(didID, func(doc *diddoc.Doc) map[string]interface{} {
		return map[string]interface{}{
			"verificationMethod": append(doc.VerificationMethod, method),
		}
	}, anchor)
}

// updateLocked merges fields produced from the current document state into
// the stored document. The caller holds the per-DID lock, so the
// read-merge-anchor-write cycle is atomic with respect to other writers.
// The anchor callback runs before the write: the stored document only
// changes once the new hash has been accepted.
func (s *Store) updateLocked(didID string, buildFields func(*diddoc.Doc) map[string]interface{},
	anchor func(documentHash string) error) (*diddoc.Doc, error) {
	doc, err := s.read(didID)
	if err != nil {
		return nil, err
	}

	fields := buildFields(doc)

	// The id is immutable; strip it from a copy so the caller's map is not
	// mutated.
	merged := make(map[string]interface{}, len(fields))

	for k, v := range fields {
		if k == "id" {
			continue
		}

		merged[k] = v
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     doc,
		TagName:    "json",
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("create document decoder: %w", err)
	}

	if err := decoder.Decode(merged); err != nil {
		return nil, fmt.Errorf("merge document fields: %w", err)
	}

	now := time.Now().UTC()
	doc.Updated = &now

	if anchor != nil {
		documentHash, err := s.Hash(doc)
		if err != nil {
			return nil, err
		}

		if err := anchor(documentHash); err != nil {
			return nil, err
		}
	}

	if err := s.write(doc); err != nil {
		return nil, err
	}

	logger.Debugf("updated DID document for %s", didID)

	return doc, nil
}

// Hash computes the hex-encoded content hash of the document's canonical
// serialization. This is the value anchored on the ledger.
func (s *Store) Hash(doc *diddoc.Doc) (string, error) {
	canonical, err := doc.CanonicalBytes()
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(s.crypto.Hash(canonical)), nil
}

func sameContent(a, b *diddoc.Doc) (bool, error) {
	aBytes, err := a.CanonicalBytes()
	if err != nil {
		return false, err
	}

	bBytes, err := b.CanonicalBytes()
	if err != nil {
		return false, err
	}

	return bytes.Equal(aBytes, bBytes), nil
}

func (s *Store) read(didID string) (*diddoc.Doc, error) {
	docBytes, err := s.store.Get(didID)
	if err != nil {
		if errors.Is(err, spistorage.ErrDataNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, didID)
		}

		return nil, fmt.Errorf("failed to get did document: %w", err)
	}

	return diddoc.ParseDocument(docBytes)
}

func (s *Store) write(doc *diddoc.Doc) error {
	docBytes, err := doc.JSONBytes()
	if err != nil {
		return err
	}

	if err := s.store.Put(doc.ID, docBytes); err != nil {
		return fmt.Errorf("failed to put did document: %w", err)
	}

	return nil
}

func (s *Store) keyLock(didID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[didID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[didID] = lock
	}

	return lock
}
