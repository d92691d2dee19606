/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package verifiable provides persistence for issued credentials, keyed by
// credential id. Credentials are written once at issuance and never updated
// or deleted; expiry is recognized at verification time.
package verifiable

import (
	"errors"
	"fmt"

	spistorage "github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/codemtn/did-registry/pkg/doc/verifiable"
)

const nameSpace = "credential"

// ErrNotFound signals that no credential exists under the given id.
var ErrNotFound = errors.New("credential not found")

type provider interface {
	StorageProvider() spistorage.Provider
}

// Store stores verifiable credentials.
type Store struct {
	store spistorage.Store
}

// New returns a new credential store.
func New(ctx provider) (*Store, error) {
	store, err := ctx.StorageProvider().OpenStore(nameSpace)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	return &Store{store: store}, nil
}

// SaveCredential saves a verifiable credential under its id.
func (s *Store) SaveCredential(vc *verifiable.Credential) error {
	vcBytes, err := vc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	if err := s.store.Put(vc.ID, vcBytes); err != nil {
		return fmt.Errorf("failed to put credential: %w", err)
	}

	return nil
}

// GetCredential returns the credential stored under vcID, or ErrNotFound.
func (s *Store) GetCredential(vcID string) (*verifiable.Credential, error) {
	vcBytes, err := s.store.Get(vcID)
	if err != nil {
		if errors.Is(err, spistorage.ErrDataNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, vcID)
		}

		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	vc, err := verifiable.ParseCredential(vcBytes)
	if err != nil {
		return nil, fmt.Errorf("parse credential failed: %w", err)
	}

	return vc, nil
}
