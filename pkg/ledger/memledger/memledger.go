/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package memledger provides an in-process implementation of the ledger
// client contract, used by tests and single-node deployments. Commits on the
// same DID are serialized per key; commits on different DIDs do not contend.
package memledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/codemtn/did-registry/pkg/crypto"
	"github.com/codemtn/did-registry/pkg/ledger"
)

var logger = log.New("did-registry/memledger")

// Option configures the ledger.
type Option func(*Ledger)

// Ledger is an in-memory ownership-checked DID registry.
type Ledger struct {
	mu        sync.RWMutex
	records   map[string]*ledger.Record
	inflight  map[string]*commitment
	keyLocks  map[string]*sync.Mutex
	authorize ledger.Authorizer
	clock     func() time.Time
}

type commitment struct {
	id   string
	done chan struct{}
	err  error
}

func (c *commitment) ID() string { return c.id }

// New returns a new in-memory ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		records:   make(map[string]*ledger.Record),
		inflight:  make(map[string]*commitment),
		keyLocks:  make(map[string]*sync.Mutex),
		authorize: ledger.ControllerAuthorizer(),
		clock:     time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// WithAuthorizer substitutes the ownership check applied at commit time.
func WithAuthorizer(a ledger.Authorizer) Option {
	return func(l *Ledger) {
		l.authorize = a
	}
}

// WithClock substitutes the commit timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// ReadRecord returns a copy of the record for didID, or ledger.ErrNotFound.
func (l *Ledger) ReadRecord(_ context.Context, didID string) (*ledger.Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[didID]
	if !ok {
		return nil, ledger.ErrNotFound
	}

	recCopy := *rec

	return &recCopy, nil
}

// Submit schedules a state-transition transaction. Resubmitting an in-flight
// (caller, operation, DID, target state) returns the pending commitment, so a
// retry after a transient failure cannot double-apply. Once a commitment is
// final a resubmission is applied against the observed state and re-rejected
// by the ownership and lifecycle checks.
func (l *Ledger) Submit(_ context.Context, op ledger.Operation, args ledger.Args,
	signer crypto.Signer) (ledger.Commitment, error) {
	if args.DID == "" {
		return nil, errors.New("did is mandatory")
	}

	if signer == nil {
		return nil, errors.New("signer capability is mandatory")
	}

	switch op {
	case ledger.OperationRegister, ledger.OperationUpdateDocumentHash,
		ledger.OperationChangeController, ledger.OperationDeactivate:
	default:
		return nil, fmt.Errorf("unsupported ledger operation %q", op)
	}

	key := signer.Address() + "|" + ledger.IdempotencyKey(op, args)

	l.mu.Lock()

	if c, ok := l.inflight[key]; ok {
		l.mu.Unlock()
		logger.Debugf("duplicate submission for %s, returning pending commitment %s", args.DID, c.id)

		return c, nil
	}

	c := &commitment{id: uuid.New().String(), done: make(chan struct{})}
	l.inflight[key] = c

	l.mu.Unlock()

	// The mutation is applied regardless of whether the caller keeps waiting.
	go l.commit(key, c, op, args, signer.Address())

	return c, nil
}

// AwaitCommitment blocks until the commitment is final. Cancelling the
// context abandons the wait, not the mutation.
func (l *Ledger) AwaitCommitment(ctx context.Context, c ledger.Commitment) error {
	mc, ok := c.(*commitment)
	if !ok {
		return errors.New("commitment was not issued by this ledger")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-mc.done:
		return mc.err
	}
}

func (l *Ledger) commit(key string, c *commitment, op ledger.Operation, args ledger.Args, caller string) {
	lock := l.keyLock(args.DID)
	lock.Lock()
	defer lock.Unlock()

	c.err = l.apply(op, args, caller)
	if c.err != nil {
		logger.Debugf("commit %s reverted: %s", c.id, c.err)
	}

	// The dedupe window closes with the commitment: a later resubmission is
	// applied against the observed state rather than served from a cache.
	l.mu.Lock()
	delete(l.inflight, key)
	l.mu.Unlock()

	close(c.done)
}

func (l *Ledger) apply(op ledger.Operation, args ledger.Args, caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, exists := l.records[args.DID]

	if op == ledger.OperationRegister {
		if exists {
			return ledger.ErrAlreadyRegistered
		}

		l.records[args.DID] = &ledger.Record{
			DID:          args.DID,
			Controller:   caller,
			DocumentHash: args.DocumentHash,
			LastUpdated:  l.commitTime(time.Time{}),
			Active:       true,
		}

		return nil
	}

	if !exists {
		return ledger.ErrNotFound
	}

	if err := l.authorize.Authorize(rec, caller); err != nil {
		return err
	}

	if !rec.Active {
		return ledger.ErrDeactivated
	}

	// Mutate a copy so a record never partially changes.
	updated := *rec
	updated.LastUpdated = l.commitTime(rec.LastUpdated)

	switch op {
	case ledger.OperationUpdateDocumentHash:
		updated.DocumentHash = args.DocumentHash
	case ledger.OperationChangeController:
		// Same-value controller writes are idempotent and still bump lastUpdated.
		updated.Controller = args.NewController
	case ledger.OperationDeactivate:
		updated.Active = false
	}

	l.records[args.DID] = &updated

	return nil
}

// commitTime returns a commit timestamp strictly after the previous one for
// the record, keeping the observable lastUpdated sequence monotonic and
// consistent with commit order.
func (l *Ledger) commitTime(last time.Time) time.Time {
	now := l.clock()
	if !now.After(last) {
		now = last.Add(time.Nanosecond)
	}

	return now
}

func (l *Ledger) keyLock(didID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.keyLocks[didID]
	if !ok {
		lock = &sync.Mutex{}
		l.keyLocks[didID] = lock
	}

	return lock
}
