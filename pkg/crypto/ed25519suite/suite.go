/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ed25519suite implements the hashing/signing adapter with SHA-256
// content hashes and Ed25519 signatures carried as compact JWS. Signing keys
// are held in a store opened from the framework storage provider, keyed by
// their verification method id.
package ed25519suite

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/go-jose/go-jose/v3"
	spistorage "github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/multiformats/go-multibase"

	diddoc "github.com/codemtn/did-registry/pkg/doc/did"
)

const (
	nameSpace = "signingkey"

	// KeyType is the verification method type produced by this suite.
	KeyType = "Ed25519VerificationKey2020"

	// SignatureType is the proof type produced by this suite.
	SignatureType = "Ed25519Signature2020"
)

// ed25519 multicodec prefix, per the multicodec table.
var multicodecEd25519Pub = []byte{0xed, 0x01} //nolint:gochecknoglobals

// ErrSignatureMismatch is returned by Verify when the signature does not
// match the payload under the given verification method.
var ErrSignatureMismatch = errors.New("signature does not verify")

type provider interface {
	StorageProvider() spistorage.Provider
}

// Suite provides SHA-256 hashing and Ed25519 JWS signing/verification.
type Suite struct {
	store spistorage.Store
}

type storedKey struct {
	Seed      []byte `json:"seed"`
	PublicKey []byte `json:"publicKey"`
}

// New returns a new ed25519 suite backed by the given storage provider.
func New(ctx provider) (*Suite, error) {
	store, err := ctx.StorageProvider().OpenStore(nameSpace)
	if err != nil {
		return nil, fmt.Errorf("failed to open signing key store: %w", err)
	}

	return &Suite{store: store}, nil
}

// Hash computes the SHA-256 digest of data.
func (s *Suite) Hash(data []byte) []byte {
	digest := sha256.Sum256(data)

	return digest[:]
}

// CreateKey generates a new Ed25519 signing key for the given DID. The
// fragment names the verification method; when empty, a base58 fingerprint
// of the public key is used instead.
func (s *Suite) CreateKey(didID, fragment string) (*diddoc.VerificationMethod, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("ed25519 key generation failed: %w", err)
	}

	if fragment == "" {
		fragment = fingerprint(pub)
	}

	keyID := didID + "#" + fragment

	encodedPub, err := encodePublicKey(pub)
	if err != nil {
		return nil, err
	}

	keyBytes, err := json.Marshal(storedKey{Seed: priv.Seed(), PublicKey: pub})
	if err != nil {
		return nil, fmt.Errorf("marshal signing key: %w", err)
	}

	if err := s.store.Put(keyID, keyBytes); err != nil {
		return nil, fmt.Errorf("store signing key: %w", err)
	}

	return &diddoc.VerificationMethod{
		ID:                 keyID,
		Type:               KeyType,
		Controller:         didID,
		PublicKeyMultibase: encodedPub,
	}, nil
}

// Sign signs payload with the key referenced by keyID and returns the
// compact JWS serialization as the signature value.
func (s *Suite) Sign(payload []byte, keyID string) ([]byte, error) {
	keyBytes, err := s.store.Get(keyID)
	if err != nil {
		if errors.Is(err, spistorage.ErrDataNotFound) {
			return nil, fmt.Errorf("no signing key for %s", keyID)
		}

		return nil, fmt.Errorf("get signing key: %w", err)
	}

	var key storedKey
	if err := json.Unmarshal(keyBytes, &key); err != nil {
		return nil, fmt.Errorf("unmarshal signing key: %w", err)
	}

	signer, err := jose.NewSigner(jose.SigningKey{
		Algorithm: jose.EdDSA,
		Key:       ed25519.NewKeyFromSeed(key.Seed),
	}, (&jose.SignerOptions{}).WithHeader("kid", keyID))
	if err != nil {
		return nil, fmt.Errorf("create jose signer: %w", err)
	}

	jws, err := signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("sign payload: %w", err)
	}

	compact, err := jws.CompactSerialize()
	if err != nil {
		return nil, fmt.Errorf("serialize jws: %w", err)
	}

	return []byte(compact), nil
}

// Verify checks a compact JWS signature over payload against the public key
// carried by the verification method.
func (s *Suite) Verify(payload, signature []byte, vm *diddoc.VerificationMethod) error {
	if vm == nil {
		return errors.New("verification method is mandatory")
	}

	pub, err := decodePublicKey(vm.PublicKeyMultibase)
	if err != nil {
		return err
	}

	jws, err := jose.ParseSigned(string(signature))
	if err != nil {
		return fmt.Errorf("parse jws: %w", err)
	}

	verified, err := jws.Verify(ed25519.PublicKey(pub))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSignatureMismatch, err)
	}

	if !bytes.Equal(verified, payload) {
		return fmt.Errorf("%w: payload mismatch", ErrSignatureMismatch)
	}

	return nil
}

func encodePublicKey(pub ed25519.PublicKey) (string, error) {
	prefixed := append(append([]byte{}, multicodecEd25519Pub...), pub...)

	encoded, err := multibase.Encode(multibase.Base58BTC, prefixed)
	if err != nil {
		return "", fmt.Errorf("multibase encode public key: %w", err)
	}

	return encoded, nil
}

func decodePublicKey(encoded string) (ed25519.PublicKey, error) {
	if encoded == "" {
		return nil, errors.New("verification method has no public key")
	}

	_, decoded, err := multibase.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("multibase decode public key: %w", err)
	}

	if !bytes.HasPrefix(decoded, multicodecEd25519Pub) {
		return nil, errors.New("public key is not an ed25519 multicodec key")
	}

	keyBytes := decoded[len(multicodecEd25519Pub):]
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid ed25519 public key length %d", len(keyBytes))
	}

	return keyBytes, nil
}

// fingerprint returns a short base58 fingerprint of the public key, used to
// name verification methods that were not given an explicit fragment.
func fingerprint(pub ed25519.PublicKey) string {
	digest := sha256.Sum256(pub)

	return base58.Encode(digest[:16])
}
