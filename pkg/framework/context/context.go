/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package context assembles the framework dependencies into a Provider and
// exposes simple accessor methods to them. Components are built in
// dependency order; any of them can be swapped through a ProviderOption.
package context

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	spistorage "github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/codemtn/did-registry/pkg/crypto"
	"github.com/codemtn/did-registry/pkg/crypto/ed25519suite"
	"github.com/codemtn/did-registry/pkg/ledger"
	"github.com/codemtn/did-registry/pkg/ledger/memledger"
	"github.com/codemtn/did-registry/pkg/registry"
	"github.com/codemtn/did-registry/pkg/store/document"
)

// Provider supplies the framework configuration to client objects.
type Provider struct {
	storeProvider spistorage.Provider
	cryptoSuite   crypto.Crypto
	keyCreator    crypto.KeyCreator
	ledgerClient  ledger.Client
	documentStore *document.Store
	didRegistry   *registry.Registry
	registryOpts  []registry.Option
}

// ProviderOption configures the framework context provider.
type ProviderOption func(*Provider)

// New instantiates a new context provider. Components that were not supplied
// through options are built with their defaults: in-memory storage, the
// in-process ledger, and the ed25519 suite.
func New(opts ...ProviderOption) (*Provider, error) {
	ctxProvider := &Provider{}

	for _, opt := range opts {
		opt(ctxProvider)
	}

	if ctxProvider.storeProvider == nil {
		ctxProvider.storeProvider = mem.NewProvider()
	}

	if ctxProvider.ledgerClient == nil {
		ctxProvider.ledgerClient = memledger.New()
	}

	if ctxProvider.cryptoSuite == nil {
		suite, err := ed25519suite.New(ctxProvider)
		if err != nil {
			return nil, fmt.Errorf("create crypto suite: %w", err)
		}

		ctxProvider.cryptoSuite = suite

		if ctxProvider.keyCreator == nil {
			ctxProvider.keyCreator = suite
		}
	}

	if ctxProvider.documentStore == nil {
		docs, err := document.New(ctxProvider)
		if err != nil {
			return nil, fmt.Errorf("create document store: %w", err)
		}

		ctxProvider.documentStore = docs
	}

	if ctxProvider.didRegistry == nil {
		ctxProvider.didRegistry = registry.New(ctxProvider, ctxProvider.registryOpts...)
	}

	return ctxProvider, nil
}

// WithStorageProvider injects a storage provider into the context.
func WithStorageProvider(s spistorage.Provider) ProviderOption {
	return func(p *Provider) {
		p.storeProvider = s
	}
}

// WithLedgerClient injects a ledger client into the context.
func WithLedgerClient(c ledger.Client) ProviderOption {
	return func(p *Provider) {
		p.ledgerClient = c
	}
}

// WithCrypto injects a hashing/signing adapter and key creator into the
// context.
func WithCrypto(c crypto.Crypto, k crypto.KeyCreator) ProviderOption {
	return func(p *Provider) {
		p.cryptoSuite = c
		p.keyCreator = k
	}
}

// WithRegistryOptions passes options to the DID registry built by the
// context.
func WithRegistryOptions(opts ...registry.Option) ProviderOption {
	return func(p *Provider) {
		p.registryOpts = opts
	}
}

// StorageProvider returns the storage provider.
func (p *Provider) StorageProvider() spistorage.Provider {
	return p.storeProvider
}

// Crypto returns the hashing/signing adapter.
func (p *Provider) Crypto() crypto.Crypto {
	return p.cryptoSuite
}

// KeyCreator returns the key creator.
func (p *Provider) KeyCreator() crypto.KeyCreator {
	return p.keyCreator
}

// LedgerClient returns the ledger client.
func (p *Provider) LedgerClient() ledger.Client {
	return p.ledgerClient
}

// DocumentStore returns the DID document store.
func (p *Provider) DocumentStore() *document.Store {
	return p.documentStore
}

// DIDRegistry returns the DID registry state machine.
func (p *Provider) DIDRegistry() *registry.Registry {
	return p.didRegistry
}
