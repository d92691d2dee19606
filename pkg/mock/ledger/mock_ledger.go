/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ledger contains a mock ledger client for tests.
package ledger

import (
	"context"

	"github.com/codemtn/did-registry/pkg/crypto"
	"github.com/codemtn/did-registry/pkg/ledger"
)

// MockCommitment is a mock ledger commitment.
type MockCommitment struct {
	IDValue string
}

// ID returns the commitment id.
func (c *MockCommitment) ID() string { return c.IDValue }

// MockClient is a mock ledger client.
type MockClient struct {
	ReadRecordFunc func(ctx context.Context, didID string) (*ledger.Record, error)
	SubmitFunc     func(ctx context.Context, op ledger.Operation, args ledger.Args,
		signer crypto.Signer) (ledger.Commitment, error)
	AwaitFunc func(ctx context.Context, c ledger.Commitment) error
}

// ReadRecord calls ReadRecordFunc.
func (m *MockClient) ReadRecord(ctx context.Context, didID string) (*ledger.Record, error) {
	if m.ReadRecordFunc != nil {
		return m.ReadRecordFunc(ctx, didID)
	}

	return nil, ledger.ErrNotFound
}

// Submit calls SubmitFunc.
func (m *MockClient) Submit(ctx context.Context, op ledger.Operation, args ledger.Args,
	signer crypto.Signer) (ledger.Commitment, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, op, args, signer)
	}

	return &MockCommitment{IDValue: "mock-commitment"}, nil
}

// AwaitCommitment calls AwaitFunc.
func (m *MockClient) AwaitCommitment(ctx context.Context, c ledger.Commitment) error {
	if m.AwaitFunc != nil {
		return m.AwaitFunc(ctx, c)
	}

	return nil
}

var _ ledger.Client = (*MockClient)(nil)
