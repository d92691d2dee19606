/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package httpbinding implements the ledger client contract against a remote
// registry gateway over HTTP. Transient transport failures are retried with
// exponential backoff; structural reverts are surfaced verbatim and never
// retried.
package httpbinding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/codemtn/did-registry/pkg/crypto"
	"github.com/codemtn/did-registry/pkg/ledger"
)

var logger = log.New("did-registry/ledger-http")

const (
	contentTypeJSON = "application/json"

	defaultPollInterval = 500 * time.Millisecond
	defaultMaxInterval  = 5 * time.Second
)

// Option configures the client.
type Option func(*Client)

// Client talks to a remote registry gateway.
type Client struct {
	endpointURL  string
	client       *http.Client
	authToken    string
	pollInterval time.Duration
}

type submitRequest struct {
	Operation      ledger.Operation `json:"operation"`
	Args           ledger.Args      `json:"args"`
	SignerAddress  string           `json:"signerAddress"`
	IdempotencyKey string           `json:"idempotencyKey"`
}

type submitResponse struct {
	CommitmentID string `json:"commitmentId"`
}

type commitmentStatus struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type httpCommitment struct {
	id string
}

func (c *httpCommitment) ID() string { return c.id }

// New creates a new ledger client for the gateway at endpointURL.
func New(endpointURL string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(endpointURL); err != nil {
		return nil, fmt.Errorf("base URL invalid: %w", err)
	}

	c := &Client{
		endpointURL:  endpointURL,
		client:       &http.Client{},
		pollInterval: defaultPollInterval,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithAuthToken adds an authorization header to gateway requests.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = "Bearer " + token
	}
}

// WithPollInterval sets the initial commitment poll interval.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = interval
	}
}

// ReadRecord fetches the record for didID from the gateway.
func (c *Client) ReadRecord(ctx context.Context, didID string) (*ledger.Record, error) {
	body, err := c.get(ctx, c.endpoint("registry", "dids", didID))
	if err != nil {
		return nil, err
	}

	rec := &ledger.Record{}
	if err := json.Unmarshal(body, rec); err != nil {
		return nil, fmt.Errorf("unmarshal DID record: %w", err)
	}

	return rec, nil
}

// Submit posts a state-transition transaction to the gateway. The submission
// carries an idempotency key over (operation, DID, target state), so a retry
// after a transient failure cannot double-apply.
func (c *Client) Submit(ctx context.Context, op ledger.Operation, args ledger.Args,
	signer crypto.Signer) (ledger.Commitment, error) {
	if signer == nil {
		return nil, errors.New("signer capability is mandatory")
	}

	reqBytes, err := json.Marshal(submitRequest{
		Operation:      op,
		Args:           args,
		SignerAddress:  signer.Address(),
		IdempotencyKey: ledger.IdempotencyKey(op, args),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal submit request: %w", err)
	}

	var resp submitResponse

	operation := func() error {
		body, err := c.post(ctx, c.endpoint("registry", "operations"), reqBytes)
		if err != nil {
			if retryable(err) {
				return err
			}

			return backoff.Permanent(err)
		}

		if err := json.Unmarshal(body, &resp); err != nil {
			return backoff.Permanent(fmt.Errorf("unmarshal submit response: %w", err))
		}

		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		return nil, err
	}

	return &httpCommitment{id: resp.CommitmentID}, nil
}

// AwaitCommitment polls the gateway until the commitment is final.
func (c *Client) AwaitCommitment(ctx context.Context, commitment ledger.Commitment) error {
	uri := c.endpoint("registry", "commitments", commitment.ID())

	for {
		body, err := c.get(ctx, uri)
		if err != nil && !retryable(err) {
			return err
		}

		if err == nil {
			var status commitmentStatus
			if err := json.Unmarshal(body, &status); err != nil {
				return fmt.Errorf("unmarshal commitment status: %w", err)
			}

			switch status.Status {
			case "committed":
				return nil
			case "reverted":
				return ledger.RevertError(status.Reason)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) endpoint(parts ...string) string {
	u, err := url.Parse(c.endpointURL)
	if err != nil {
		// Already validated in New.
		return c.endpointURL
	}

	u.Path = path.Join(append([]string{u.Path}, parts...)...)

	return u.String()
}

func (c *Client) get(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("create get request: %w", err)
	}

	return c.do(req)
}

func (c *Client) post(ctx context.Context, uri string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create post request: %w", err)
	}

	req.Header.Set("Content-Type", contentTypeJSON)

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.authToken != "" {
		req.Header.Set("Authorization", c.authToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ledger.ErrTimeout, err)
		}

		return nil, fmt.Errorf("%w: %s", ledger.ErrUnavailable, err)
	}

	defer closeResponseBody(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body failed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ledger.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return nil, revertFromBody(body)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: gateway returned %d", ledger.ErrUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("unsupported response from registry gateway [%d] body [%s]",
			resp.StatusCode, body)
	}
}

func revertFromBody(body []byte) error {
	var status commitmentStatus

	if err := json.Unmarshal(body, &status); err == nil && status.Reason != "" {
		return ledger.RevertError(status.Reason)
	}

	return ledger.RevertError(string(body))
}

func retryable(err error) bool {
	return errors.Is(err, ledger.ErrUnavailable) || errors.Is(err, ledger.ErrTimeout)
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.pollInterval
	b.MaxInterval = defaultMaxInterval

	return b
}

func closeResponseBody(respBody io.Closer) {
	if err := respBody.Close(); err != nil {
		logger.Errorf("failed to close response body: %s", err)
	}
}
