/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package provider contains a mock framework provider for tests.
package provider

import (
	spistorage "github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/codemtn/did-registry/pkg/crypto"
	"github.com/codemtn/did-registry/pkg/ledger"
	"github.com/codemtn/did-registry/pkg/registry"
	"github.com/codemtn/did-registry/pkg/store/document"
)

// Provider mocks the dependency provider handed to constructors.
type Provider struct {
	StorageProviderValue spistorage.Provider
	CryptoValue          crypto.Crypto
	KeyCreatorValue      crypto.KeyCreator
	LedgerClientValue    ledger.Client
	DocumentStoreValue   *document.Store
	DIDRegistryValue     *registry.Registry
}

// StorageProvider returns the mock storage provider.
func (p *Provider) StorageProvider() spistorage.Provider {
	return p.StorageProviderValue
}

// Crypto returns the mock hashing/signing adapter.
func (p *Provider) Crypto() crypto.Crypto {
	return p.CryptoValue
}

// KeyCreator returns the mock key creator.
func (p *Provider) KeyCreator() crypto.KeyCreator {
	return p.KeyCreatorValue
}

// LedgerClient returns the mock ledger client.
func (p *Provider) LedgerClient() ledger.Client {
	return p.LedgerClientValue
}

// DocumentStore returns the mock document store.
func (p *Provider) DocumentStore() *document.Store {
	return p.DocumentStoreValue
}

// DIDRegistry returns the mock registry state machine.
func (p *Provider) DIDRegistry() *registry.Registry {
	return p.DIDRegistryValue
}
