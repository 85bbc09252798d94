package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	applogger "SignalDesk/pkg/logger"
)

const DefaultRPCURL = "https://api.mainnet-beta.solana.com"

// Commitment levels, weakest first.
const (
	CommitmentProcessed = string(rpc.CommitmentProcessed)
	CommitmentConfirmed = string(rpc.CommitmentConfirmed)
	CommitmentFinalized = string(rpc.CommitmentFinalized)
)

var (
	ErrTransactionFailed    = errors.New("Transaction failed")
	ErrMalformedTransaction = errors.New("malformed transaction")
)

// RPCError is a JSON-RPC error object returned by the node.
type RPCError = jsonrpc.RPCError

var commitmentRank = map[string]int{CommitmentProcessed: 1, CommitmentConfirmed: 2, CommitmentFinalized: 3}

// statusReached reports whether st is at least the given commitment.
func statusReached(st *rpc.SignatureStatusesResult, commitment string) bool {
	return commitmentRank[commitment] > 0 && commitmentRank[string(st.ConfirmationStatus)] >= commitmentRank[commitment]
}

// Client submits transactions and tracks them until they land.
type Client struct {
	rpc        *rpc.Client
	url        string
	commitment string
	poll       time.Duration
	l          *applogger.Logger
}

// Option configures Client.
type Option func(*Client)

func WithURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.url = u
		}
	}
}

// WithCommitment sets the level AwaitConfirmation waits for.
func WithCommitment(level string) Option {
	return func(c *Client) {
		if level != "" {
			c.commitment = level
		}
	}
}

// WithPollInterval sets how often AwaitConfirmation asks for status.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.poll = d
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		url:        DefaultRPCURL,
		commitment: CommitmentConfirmed,
		poll:       500 * time.Millisecond,
		l:          applogger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rpc = rpc.New(c.url)
	return c
}

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *applogger.Logger) { c.l = l }

// SendTransaction submits a signed base64 transaction with preflight checks on and returns
// its signature.
func (c *Client) SendTransaction(ctx context.Context, signedB64 string) (string, error) {
	tx, err := decodeTransaction(signedB64)
	if err != nil {
		return "", err
	}
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentType(c.commitment),
	})
	if err != nil {
		return "", err
	}
	return sig.String(), nil
}

// AwaitConfirmation polls until sig reaches the configured commitment. A landed transaction
// with an error yields ErrTransactionFailed; ctx bounds the wait.
func (c *Client) AwaitConfirmation(ctx context.Context, sig string) error {
	parsed, err := solanago.SignatureFromBase58(sig)
	if err != nil {
		return fmt.Errorf("invalid signature %q: %w", sig, err)
	}

	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()
	for {
		res, err := c.rpc.GetSignatureStatuses(ctx, false, parsed)
		if err != nil {
			c.l.Debug("signature status poll failed", applogger.String("signature", sig), applogger.Error(err))
		} else if len(res.Value) > 0 && res.Value[0] != nil {
			st := res.Value[0]
			if st.Err != nil {
				return fmt.Errorf("%w: %v", ErrTransactionFailed, st.Err)
			}
			if statusReached(st, c.commitment) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation of %s: %w", sig, ctx.Err())
		case <-ticker.C:
		}
	}
}

// SendAndConfirm submits and waits for confirmation.
func (c *Client) SendAndConfirm(ctx context.Context, signedB64 string) (string, error) {
	sig, err := c.SendTransaction(ctx, signedB64)
	if err != nil {
		return "", err
	}
	if err := c.AwaitConfirmation(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}
