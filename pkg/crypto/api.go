/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package crypto defines the hashing/signing adapter contract the registry
// and the credential engine depend on. Key material never crosses this
// boundary: callers hand over payloads and key references, implementations
// return opaque hashes and signatures.
package crypto

import (
	diddoc "github.com/codemtn/did-registry/pkg/doc/did"
)

// Crypto is the hashing/signing adapter.
type Crypto interface {
	// Hash computes a fixed-width, collision-resistant content hash.
	Hash(data []byte) []byte

	// Sign signs payload with the key referenced by keyID (a DID-relative
	// verification method reference) and returns an opaque signature value.
	Sign(payload []byte, keyID string) ([]byte, error)

	// Verify checks signature over payload against the public key carried by
	// the given verification method. A failed check returns a non-nil error.
	Verify(payload, signature []byte, vm *diddoc.VerificationMethod) error
}

// KeyCreator mints signing keys and exposes them as verification methods.
type KeyCreator interface {
	// CreateKey generates a new signing key for the given DID and returns the
	// verification method describing its public part. The private part stays
	// behind the adapter, addressable through the verification method id.
	CreateKey(didID, fragment string) (*diddoc.VerificationMethod, error)
}

// Signer is the capability an external wallet hands to the core to submit
// ledger transactions on behalf of an account.
type Signer interface {
	// Address is the ledger account the capability signs for.
	Address() string
}

type staticSigner struct {
	address string
}

func (s *staticSigner) Address() string { return s.address }

// StaticSigner returns a Signer bound to the given ledger address.
func StaticSigner(address string) Signer {
	return &staticSigner{address: address}
}
