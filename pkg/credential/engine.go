/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credential implements the credential issuance and verification
// engine. Issuance checks that both parties are active and signs a canonical
// payload with the issuer's registered key; verification re-derives the
// payload and checks the signature against the issuer's current document.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	spistorage "github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/codemtn/did-registry/pkg/crypto"
	diddoc "github.com/codemtn/did-registry/pkg/doc/did"
	"github.com/codemtn/did-registry/pkg/doc/verifiable"
	"github.com/codemtn/did-registry/pkg/registry"
	"github.com/codemtn/did-registry/pkg/store/document"
	vcstore "github.com/codemtn/did-registry/pkg/store/verifiable"
)

var logger = log.New("did-registry/credential")

const (
	defaultProofType = "Ed25519Signature2020"
	defaultMethod    = "ethr"
	defaultNetwork   = "codemtn"

	keyCacheSize = 256
	keyCacheTTL  = 5 * time.Minute
)

// Verification failure messages returned inside VerificationResult.Errors.
const (
	MsgCredentialNotFound = "Credential not found"
	MsgIssuerNotActive    = "Issuer DID is not active"
	MsgCredentialExpired  = "Credential has expired"
	MsgProofInvalid       = "Credential proof is invalid"
)

// ErrIssuerNotActive is returned by Issue when the issuer DID is not active.
var ErrIssuerNotActive = errors.New("issuer DID is not active")

// ErrSubjectNotActive is returned by Issue when the subject DID is not active.
var ErrSubjectNotActive = errors.New("subject DID is not active")

// ErrNotFound signals that no credential exists under the given id.
var ErrNotFound = vcstore.ErrNotFound

type provider interface {
	StorageProvider() spistorage.Provider
	Crypto() crypto.Crypto
	DIDRegistry() *registry.Registry
	DocumentStore() *document.Store
}

// Option is a credential engine instance option.
type Option func(*Engine)

// Engine issues and verifies credentials. It owns credential persistence;
// DID activity is delegated to the registry and signatures to the
// hashing/signing adapter.
type Engine struct {
	registry  *registry.Registry
	docs      *document.Store
	store     *vcstore.Store
	crypto    crypto.Crypto
	keyCache  gcache.Cache
	proofType string
	method    string
	network   string
}

// New returns a new credential engine.
func New(ctx provider, opts ...Option) (*Engine, error) {
	store, err := vcstore.New(ctx)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		registry:  ctx.DIDRegistry(),
		docs:      ctx.DocumentStore(),
		store:     store,
		crypto:    ctx.Crypto(),
		proofType: defaultProofType,
		method:    defaultMethod,
		network:   defaultNetwork,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.keyCache = gcache.New(keyCacheSize).ARC().Expiration(keyCacheTTL).Build()

	return e, nil
}

// WithProofType overrides the proof type recorded on issued credentials.
func WithProofType(proofType string) Option {
	return func(e *Engine) {
		e.proofType = proofType
	}
}

// WithMethod overrides the method segment of issued credential ids.
func WithMethod(method string) Option {
	return func(e *Engine) {
		e.method = method
	}
}

// WithNetwork overrides the network segment of issued credential ids.
func WithNetwork(network string) Option {
	return func(e *Engine) {
		e.network = network
	}
}

// Issue signs and persists a credential binding claims about the subject to
// the issuer. Both DIDs must be active at issuance time. The returned
// credential is immutable; callers identify it by its id.
func (e *Engine) Issue(ctx context.Context, req *IssueRequest) (*verifiable.Credential, error) {
	if req.Issuer == "" || req.Subject == "" || req.Type == "" {
		return nil, errors.New("issuer, subject and type are mandatory")
	}

	active, err := e.registry.IsActive(ctx, req.Issuer)
	if err != nil {
		return nil, fmt.Errorf("check issuer %s: %w", req.Issuer, err)
	}

	if !active {
		return nil, fmt.Errorf("issue credential: %w", ErrIssuerNotActive)
	}

	active, err = e.registry.IsActive(ctx, req.Subject)
	if err != nil {
		return nil, fmt.Errorf("check subject %s: %w", req.Subject, err)
	}

	if !active {
		return nil, fmt.Errorf("issue credential: %w", ErrSubjectNotActive)
	}

	issuedAt := time.Now().UTC()

	payload, err := verifiable.SigningPayload(req.Issuer, req.Subject, req.Type, req.Claims, issuedAt)
	if err != nil {
		return nil, err
	}

	keyID := req.Issuer + "#" + diddoc.DefaultKeyFragment

	signature, err := e.crypto.Sign(payload, keyID)
	if err != nil {
		return nil, fmt.Errorf("sign credential payload: %w", err)
	}

	vc := &verifiable.Credential{
		ID:             e.credentialID(req.Type),
		Type:           req.Type,
		Issuer:         req.Issuer,
		IssuanceDate:   issuedAt,
		ExpirationDate: req.ExpirationDate,
		Subject: verifiable.Subject{
			ID:     req.Subject,
			Claims: req.Claims,
		},
		Proof: verifiable.Proof{
			Type:               e.proofType,
			Created:            issuedAt,
			ProofPurpose:       verifiable.ProofPurposeAssertion,
			VerificationMethod: keyID,
			SignatureValue:     string(signature),
		},
	}

	if err := e.store.SaveCredential(vc); err != nil {
		return nil, err
	}

	logger.Infof("credential %s issued by %s for %s", vc.ID, req.Issuer, req.Subject)

	return vc, nil
}

// Verify checks the credential identified by req.CredentialID. Verification
// failure never surfaces as an error: the result carries verified=false and
// the failed check's message. The checks run in order and short-circuit:
// credential exists, issuer still active, not expired, proof valid. A non-nil
// error means an infrastructure fault, not a verdict.
func (e *Engine) Verify(ctx context.Context, req *VerifyRequest) (*VerificationResult, error) {
	result := &VerificationResult{
		VerifierDID:         req.VerifierDID,
		PresentationContext: req.PresentationContext,
	}

	vc, err := e.store.GetCredential(req.CredentialID)
	if err != nil {
		if errors.Is(err, vcstore.ErrNotFound) {
			result.Errors = append(result.Errors, MsgCredentialNotFound)
			return result, nil
		}

		return nil, err
	}

	result.Issuer = vc.Issuer
	result.Subject = vc.Subject.ID
	result.ValidUntil = vc.ExpirationDate

	active, err := e.registry.IsActive(ctx, vc.Issuer)
	if err != nil {
		return nil, fmt.Errorf("check issuer %s: %w", vc.Issuer, err)
	}

	if !active {
		result.Errors = append(result.Errors, MsgIssuerNotActive)
		return result, nil
	}

	if vc.Expired(time.Now()) {
		result.Errors = append(result.Errors, MsgCredentialExpired)
		return result, nil
	}

	if err := e.verifyProof(vc); err != nil {
		logger.Debugf("proof check for credential %s failed: %s", vc.ID, err)

		result.Errors = append(result.Errors, MsgProofInvalid)

		return result, nil
	}

	result.Verified = true
	result.Claims = vc.Subject.Claims

	return result, nil
}

// Get returns the credential stored under vcID, or ErrNotFound.
func (e *Engine) Get(vcID string) (*verifiable.Credential, error) {
	return e.store.GetCredential(vcID)
}

// verifyProof re-derives the signing payload and checks the signature
// against the issuer's registered verification key. A stale cached key is
// evicted and the check retried once against the issuer's current document.
func (e *Engine) verifyProof(vc *verifiable.Credential) error {
	payload, err := verifiable.SigningPayload(vc.Issuer, vc.Subject.ID, vc.Type, vc.Subject.Claims,
		vc.Proof.Created)
	if err != nil {
		return err
	}

	vm, cached, err := e.verificationMethod(vc.Issuer, vc.Proof.VerificationMethod)
	if err != nil {
		return err
	}

	err = e.crypto.Verify(payload, []byte(vc.Proof.SignatureValue), vm)
	if err != nil && cached {
		e.keyCache.Remove(vc.Proof.VerificationMethod)

		vm, _, err = e.verificationMethod(vc.Issuer, vc.Proof.VerificationMethod)
		if err != nil {
			return err
		}

		return e.crypto.Verify(payload, []byte(vc.Proof.SignatureValue), vm)
	}

	return err
}

func (e *Engine) verificationMethod(issuerDID, vmID string) (*diddoc.VerificationMethod, bool, error) {
	if v, err := e.keyCache.Get(vmID); err == nil {
		if vm, ok := v.(diddoc.VerificationMethod); ok {
			return &vm, true, nil
		}
	}

	doc, err := e.docs.Get(issuerDID)
	if err != nil {
		return nil, false, fmt.Errorf("load issuer document %s: %w", issuerDID, err)
	}

	vm, ok := doc.VerificationMethodByID(vmID)
	if !ok {
		return nil, false, fmt.Errorf("verification method %s not found in issuer document", vmID)
	}

	if err := e.keyCache.Set(vmID, *vm); err != nil {
		logger.Warnf("cache verification method %s: %s", vmID, err)
	}

	return vm, false, nil
}

func (e *Engine) credentialID(credentialType string) string {
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")

	return fmt.Sprintf("vc:%s:%s:%s:%s", e.method, e.network, strings.ToLower(credentialType), nonce)
}
