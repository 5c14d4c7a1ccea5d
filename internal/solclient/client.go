// Package solclient wraps the Solana JSON-RPC client with the narrow surface
// the trading core needs: raw account reads, blockhash anchors, broadcast,
// and signature status queries. The client is stateless and safe to share
// across concurrent trades; the network serializes execution.
package solclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// ErrAccountNotFound is returned when the queried account does not exist at
// the requested commitment level.
var ErrAccountNotFound = errors.New("solclient: account not found")

// Client is a thin wrapper over rpc.Client.
type Client struct {
	rpc        *rpc.Client
	logger     *zap.Logger
	commitment rpc.CommitmentType
}

// New creates a client against a single RPC endpoint.
func New(endpoint string, commitment rpc.CommitmentType, logger *zap.Logger) *Client {
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	return &Client{
		rpc:        rpc.New(endpoint),
		logger:     logger.Named("solclient"),
		commitment: commitment,
	}
}

// AccountData fetches the raw binary contents and owner of an account.
func (c *Client) AccountData(ctx context.Context, address solana.PublicKey) ([]byte, solana.PublicKey, error) {
	res, err := c.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Commitment: c.commitment,
	})
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("get account info %s: %w", address, err)
	}
	if res == nil || res.Value == nil {
		return nil, solana.PublicKey{}, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	return res.Value.Data.GetBinary(), res.Value.Owner, nil
}

// MultipleAccountData fetches several accounts in one request, giving a
// consistent view across them: vault balances read this way come from the
// same ledger state. Missing accounts yield ErrAccountNotFound.
func (c *Client) MultipleAccountData(ctx context.Context, addresses ...solana.PublicKey) ([][]byte, error) {
	res, err := c.rpc.GetMultipleAccountsWithOpts(ctx, addresses, &rpc.GetMultipleAccountsOpts{
		Commitment: c.commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("get multiple accounts: %w", err)
	}
	if res == nil || len(res.Value) != len(addresses) {
		return nil, fmt.Errorf("get multiple accounts: short response")
	}
	out := make([][]byte, len(addresses))
	for i, acc := range res.Value {
		if acc == nil {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addresses[i])
		}
		out[i] = acc.Data.GetBinary()
	}
	return out, nil
}

// Anchor is a short-lived freshness token. Every broadcast transaction must
// carry one fetched immediately before signing; the network rejects anchors
// older than its validity window.
type Anchor struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// LatestAnchor fetches a fresh blockhash and its expiry height.
func (c *Client) LatestAnchor(ctx context.Context) (Anchor, error) {
	res, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return Anchor{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	return Anchor{
		Blockhash:            res.Value.Blockhash,
		LastValidBlockHeight: res.Value.LastValidBlockHeight,
	}, nil
}

// Broadcast submits fully signed transaction bytes and returns the signature
// used as the correlation key for confirmation polling. Preflight is skipped:
// the submitter does its own confirmation and preflight races fresh pools.
func (c *Client) Broadcast(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	c.logger.Debug("broadcast transaction", zap.String("signature", sig.String()))
	return sig, nil
}

// SignatureStatus is the ledger's view of a broadcast transaction.
type SignatureStatus struct {
	// Found is false while the ledger has no record of the signature.
	Found bool
	// Err carries the execution error verbatim if the transaction ran and
	// failed; empty on success.
	Err  string
	Slot uint64
}

// Status queries the ledger for a signature. A missing record is not an
// error: the transaction may simply not have landed yet.
func (c *Client) Status(ctx context.Context, sig solana.Signature) (SignatureStatus, error) {
	res, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		return SignatureStatus{}, fmt.Errorf("get signature statuses: %w", err)
	}
	if res == nil || len(res.Value) == 0 || res.Value[0] == nil {
		return SignatureStatus{}, nil
	}
	st := res.Value[0]
	out := SignatureStatus{Found: true, Slot: st.Slot}
	if st.Err != nil {
		out.Err = fmt.Sprintf("%v", st.Err)
	}
	return out, nil
}

// TokenBalance returns the raw integer balance of an SPL token account.
func (c *Client) TokenBalance(ctx context.Context, tokenAccount solana.PublicKey) (uint64, error) {
	res, err := c.rpc.GetTokenAccountBalance(ctx, tokenAccount, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("get token account balance %s: %w", tokenAccount, err)
	}
	if res == nil || res.Value == nil || res.Value.Amount == "" {
		return 0, fmt.Errorf("no balance for token account %s", tokenAccount)
	}
	balance, err := strconv.ParseUint(res.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token balance %q: %w", res.Value.Amount, err)
	}
	return balance, nil
}
