/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package registry implements the DID lifecycle state machine. A DID moves
// from unregistered to active, may have its document hash and controller
// updated while active, and ends in a terminal deactivated state. The ledger
// is the authority on lifecycle state: rejections derive from the state the
// ledger observes at commit time, never from a client-side pre-read.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/codemtn/did-registry/pkg/crypto"
	diddoc "github.com/codemtn/did-registry/pkg/doc/did"
	"github.com/codemtn/did-registry/pkg/ledger"
	"github.com/codemtn/did-registry/pkg/store/document"
)

var logger = log.New("did-registry/registry")

const (
	defaultMethod  = "ethr"
	defaultNetwork = "codemtn"
)

// Option is a registry instance option.
type Option func(*Registry)

type provider interface {
	LedgerClient() ledger.Client
	DocumentStore() *document.Store
}

// Registry coordinates the ledger and the document store. It holds no
// persistent state of its own.
type Registry struct {
	ledger  ledger.Client
	docs    *document.Store
	method  string
	network string
}

// CreateDIDResult is the outcome of CreateDID.
type CreateDIDResult struct {
	DID          string
	Document     *diddoc.Doc
	DocumentHash string
}

// New returns a new registry state machine.
func New(ctx provider, opts ...Option) *Registry {
	r := &Registry{
		ledger:  ctx.LedgerClient(),
		docs:    ctx.DocumentStore(),
		method:  defaultMethod,
		network: defaultNetwork,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// WithMethod overrides the DID method used for created DIDs.
func WithMethod(method string) Option {
	return func(r *Registry) {
		r.method = method
	}
}

// WithNetwork overrides the network segment of created DIDs.
func WithNetwork(network string) Option {
	return func(r *Registry) {
		r.network = network
	}
}

// Register anchors a new DID with the given document hash. The caller
// becomes the controller. Fails with ledger.ErrAlreadyRegistered if a record
// exists for didID, active or tombstoned.
func (r *Registry) Register(ctx context.Context, didID, documentHash string, signer crypto.Signer) error {
	if _, err := diddoc.Parse(didID); err != nil {
		return err
	}

	err := r.submit(ctx, ledger.OperationRegister, ledger.Args{DID: didID, DocumentHash: documentHash}, signer)
	if err != nil {
		return fmt.Errorf("register DID %s: %w", didID, err)
	}

	logger.Infof("DID %s registered", didID)

	return nil
}

// UpdateDocumentHash anchors a new document hash for didID. Only the current
// controller may update; deactivated DIDs reject the update.
func (r *Registry) UpdateDocumentHash(ctx context.Context, didID, newHash string, signer crypto.Signer) error {
	err := r.submit(ctx, ledger.OperationUpdateDocumentHash,
		ledger.Args{DID: didID, DocumentHash: newHash}, signer)
	if err != nil {
		return fmt.Errorf("update document hash of %s: %w", didID, err)
	}

	logger.Infof("DID %s document hash updated", didID)

	return nil
}

// ChangeController transfers control of didID. A same-value change is an
// idempotent write and still bumps the record's lastUpdated.
func (r *Registry) ChangeController(ctx context.Context, didID, newController string, signer crypto.Signer) error {
	err := r.submit(ctx, ledger.OperationChangeController,
		ledger.Args{DID: didID, NewController: newController}, signer)
	if err != nil {
		return fmt.Errorf("change controller of %s: %w", didID, err)
	}

	logger.Infof("controller for DID %s changed", didID)

	return nil
}

// UpdateDocument merges fields into the stored document and anchors the new
// canonical hash. The ledger authorizes the caller before the stored
// document changes: a rejected anchor leaves the document untouched.
func (r *Registry) UpdateDocument(ctx context.Context, didID string, fields map[string]interface{},
	signer crypto.Signer) (*diddoc.Doc, string, error) {
	var documentHash string

	doc, err := r.docs.Update(didID, fields, r.anchor(ctx, didID, signer, &documentHash))
	if err != nil {
		return nil, "", fmt.Errorf("update document of %s: %w", didID, err)
	}

	logger.Infof("DID %s document updated", didID)

	return doc, documentHash, nil
}

// AddService appends a service endpoint to the document and anchors the new
// canonical hash.
func (r *Registry) AddService(ctx context.Context, didID string, service diddoc.Service,
	signer crypto.Signer) (*diddoc.Doc, string, error) {
	var documentHash string

	doc, err := r.docs.AddService(didID, service, r.anchor(ctx, didID, signer, &documentHash))
	if err != nil {
		return nil, "", fmt.Errorf("add service to %s: %w", didID, err)
	}

	logger.Infof("service added to DID %s", didID)

	return doc, documentHash, nil
}

// AddVerificationMethod appends a verification method to the document and
// anchors the new canonical hash.
func (r *Registry) AddVerificationMethod(ctx context.Context, didID string, method diddoc.VerificationMethod,
	signer crypto.Signer) (*diddoc.Doc, string, error) {
	var documentHash string

	doc, err := r.docs.AddVerificationMethod(didID, method, r.anchor(ctx, didID, signer, &documentHash))
	if err != nil {
		return nil, "", fmt.Errorf("add verification method to %s: %w", didID, err)
	}

	logger.Infof("verification method added to DID %s", didID)

	return doc, documentHash, nil
}

// anchor builds the document store callback that submits the new hash to the
// ledger. The store invokes it before writing, so an unauthorized or
// tombstoned mutation never reaches the stored document.
func (r *Registry) anchor(ctx context.Context, didID string, signer crypto.Signer,
	anchored *string) func(string) error {
	return func(documentHash string) error {
		err := r.submit(ctx, ledger.OperationUpdateDocumentHash,
			ledger.Args{DID: didID, DocumentHash: documentHash}, signer)
		if err != nil {
			return err
		}

		*anchored = documentHash

		return nil
	}
}

// Deactivate tombstones didID irreversibly. The identifier is never freed
// for reuse and the document remains readable for historical verification.
func (r *Registry) Deactivate(ctx context.Context, didID string, signer crypto.Signer) error {
	err := r.submit(ctx, ledger.OperationDeactivate, ledger.Args{DID: didID}, signer)
	if err != nil {
		return fmt.Errorf("deactivate DID %s: %w", didID, err)
	}

	logger.Infof("DID %s deactivated", didID)

	return nil
}

// GetInfo returns the ledger record for didID, or ledger.ErrNotFound.
func (r *Registry) GetInfo(ctx context.Context, didID string) (*ledger.Record, error) {
	rec, err := r.ledger.ReadRecord(ctx, didID)
	if err != nil {
		return nil, fmt.Errorf("get DID info for %s: %w", didID, err)
	}

	return rec, nil
}

// IsActive reports whether didID is registered and active. An unknown DID is
// reported as inactive without an error; callers that must distinguish an
// absent record use GetInfo.
func (r *Registry) IsActive(ctx context.Context, didID string) (bool, error) {
	rec, err := r.ledger.ReadRecord(ctx, didID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("check DID %s active: %w", didID, err)
	}

	return rec.Active, nil
}

// CreateDID derives a DID from the signer's address, creates its default
// document, and registers the document hash as one logical unit. If the
// ledger step fails the stored document is left behind harmlessly: document
// creation is idempotent, so retrying the whole operation converges.
func (r *Registry) CreateDID(ctx context.Context, signer crypto.Signer) (*CreateDIDResult, error) {
	if signer == nil {
		return nil, errors.New("signer capability is mandatory")
	}

	address := strings.ToLower(strings.TrimPrefix(signer.Address(), "0x"))
	didID := fmt.Sprintf("did:%s:%s:%s", r.method, r.network, address)

	doc, err := r.docs.Create(didID, address)
	if err != nil {
		return nil, fmt.Errorf("create document for %s: %w", didID, err)
	}

	documentHash, err := r.docs.Hash(doc)
	if err != nil {
		return nil, fmt.Errorf("hash document for %s: %w", didID, err)
	}

	if err := r.Register(ctx, didID, documentHash, signer); err != nil {
		return nil, err
	}

	logger.Infof("new DID created: %s with document hash: %s", didID, documentHash)

	return &CreateDIDResult{DID: didID, Document: doc, DocumentHash: documentHash}, nil
}

// RegisterWithDocument validates and stores the supplied document, then
// anchors its canonical hash. The document write and the ledger write are
// not atomic: on a partial failure the document stays reachable and
// re-hashable, so retrying the ledger step alone is sufficient.
func (r *Registry) RegisterWithDocument(ctx context.Context, didID string, doc *diddoc.Doc,
	signer crypto.Signer) (string, error) {
	if doc == nil || doc.ID != didID {
		return "", fmt.Errorf("document id must match DID %s", didID)
	}

	docBytes, err := doc.JSONBytes()
	if err != nil {
		return "", err
	}

	if err := diddoc.ValidateDocument(docBytes); err != nil {
		return "", err
	}

	// Fast-fail on an existing record so an established document is never
	// overwritten; the ledger still enforces uniqueness at commit time.
	if _, err := r.ledger.ReadRecord(ctx, didID); err == nil {
		return "", fmt.Errorf("register DID %s: %w", didID, ledger.ErrAlreadyRegistered)
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return "", fmt.Errorf("register DID %s: %w", didID, err)
	}

	if err := r.docs.Save(doc); err != nil {
		return "", fmt.Errorf("store document for %s: %w", didID, err)
	}

	documentHash, err := r.docs.Hash(doc)
	if err != nil {
		return "", fmt.Errorf("hash document for %s: %w", didID, err)
	}

	if err := r.Register(ctx, didID, documentHash, signer); err != nil {
		return "", err
	}

	return documentHash, nil
}

func (r *Registry) submit(ctx context.Context, op ledger.Operation, args ledger.Args,
	signer crypto.Signer) error {
	commitment, err := r.ledger.Submit(ctx, op, args, signer)
	if err != nil {
		return err
	}

	return r.ledger.AwaitCommitment(ctx, commitment)
}
