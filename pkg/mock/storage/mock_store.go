/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package storage contains a mock storage provider for tests.
package storage

import (
	"errors"
	"sync"

	spi "github.com/hyperledger/aries-framework-go/spi/storage"
)

// MockStoreProvider is a mock implementation of the storage provider.
type MockStoreProvider struct {
	Store              *MockStore
	Custom             spi.Store
	ErrOpenStoreHandle error
	ErrClose           error
}

// NewMockStoreProvider returns a new mock store provider.
func NewMockStoreProvider() *MockStoreProvider {
	return &MockStoreProvider{Store: &MockStore{Store: make(map[string][]byte)}}
}

// OpenStore opens and returns the store.
func (s *MockStoreProvider) OpenStore(string) (spi.Store, error) {
	if s.ErrOpenStoreHandle != nil {
		return nil, s.ErrOpenStoreHandle
	}

	if s.Custom != nil {
		return s.Custom, nil
	}

	return s.Store, nil
}

// SetStoreConfig is a no-op.
func (s *MockStoreProvider) SetStoreConfig(string, spi.StoreConfiguration) error {
	return nil
}

// GetStoreConfig returns an empty configuration.
func (s *MockStoreProvider) GetStoreConfig(string) (spi.StoreConfiguration, error) {
	return spi.StoreConfiguration{}, nil
}

// GetOpenStores returns the open stores.
func (s *MockStoreProvider) GetOpenStores() []spi.Store {
	if s.Store == nil {
		return nil
	}

	return []spi.Store{s.Store}
}

// Close closes the provider.
func (s *MockStoreProvider) Close() error {
	return s.ErrClose
}

// MockStore is a mock store.
type MockStore struct {
	Store  map[string][]byte
	lock   sync.RWMutex
	ErrPut error
	ErrGet error
}

// Put stores the key-value pair.
func (s *MockStore) Put(k string, v []byte, _ ...spi.Tag) error {
	if k == "" {
		return errors.New("key is mandatory")
	}

	if s.ErrPut != nil {
		return s.ErrPut
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.Store[k] = v

	return nil
}

// Get returns the value stored under the given key.
func (s *MockStore) Get(k string) ([]byte, error) {
	if s.ErrGet != nil {
		return nil, s.ErrGet
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	val, ok := s.Store[k]
	if !ok {
		return nil, spi.ErrDataNotFound
	}

	return val, nil
}

// GetTags is not implemented.
func (s *MockStore) GetTags(string) ([]spi.Tag, error) {
	return nil, errors.New("not implemented")
}

// GetBulk is not implemented.
func (s *MockStore) GetBulk(...string) ([][]byte, error) {
	return nil, errors.New("not implemented")
}

// Query is not implemented.
func (s *MockStore) Query(string, ...spi.QueryOption) (spi.Iterator, error) {
	return nil, errors.New("not implemented")
}

// Delete removes the key.
func (s *MockStore) Delete(k string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.Store, k)

	return nil
}

// Batch is not implemented.
func (s *MockStore) Batch([]spi.Operation) error {
	return errors.New("not implemented")
}

// Flush is a no-op.
func (s *MockStore) Flush() error {
	return nil
}

// Close is a no-op.
func (s *MockStore) Close() error {
	return nil
}

// ensure interface compliance at compile time.
var (
	_ spi.Provider = (*MockStoreProvider)(nil)
	_ spi.Store    = (*MockStore)(nil)
)
