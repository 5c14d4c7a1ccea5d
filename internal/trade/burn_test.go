package trade

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vistara-dev/agentipy/internal/submit"
)

func TestBurnAndCloseAccount(t *testing.T) {
	f := newFixture(t)
	tokenAccount := solana.NewWallet().PublicKey()
	f.reader.accounts[tokenAccount] = fakeAccount{
		data:  encodeTokenAccount(f.mint, f.wallet.PublicKey, 42_000),
		owner: solana.TokenProgramID,
	}

	receipt, err := f.svc.BurnAndCloseAccount(context.Background(), tokenAccount)
	require.NoError(t, err)
	assert.Equal(t, submit.StatusConfirmed, receipt.Status)

	// Burn then close, one transaction.
	require.Len(t, f.submitter.instructions, 2)
	burnData := instructionData(t, f.submitter.instructions[0])
	assert.Equal(t, byte(8), burnData[0])
	assert.Equal(t, uint64(42_000), binary.LittleEndian.Uint64(burnData[1:9]))

	closeData := instructionData(t, f.submitter.instructions[1])
	assert.Equal(t, []byte{9}, closeData)
	// Rent returns to the wallet.
	assert.Equal(t, f.wallet.PublicKey, f.submitter.instructions[1].Accounts()[1].PublicKey)
}

func TestBurnAndCloseAccount_EmptyBalanceJustCloses(t *testing.T) {
	f := newFixture(t)
	tokenAccount := solana.NewWallet().PublicKey()
	f.reader.accounts[tokenAccount] = fakeAccount{
		data:  encodeTokenAccount(f.mint, f.wallet.PublicKey, 0),
		owner: solana.TokenProgramID,
	}

	_, err := f.svc.BurnAndCloseAccount(context.Background(), tokenAccount)
	require.NoError(t, err)

	require.Len(t, f.submitter.instructions, 1)
	data := instructionData(t, f.submitter.instructions[0])
	assert.Equal(t, []byte{9}, data)
}

func TestBurnAndCloseAccount_ForeignAccountRejected(t *testing.T) {
	f := newFixture(t)
	tokenAccount := solana.NewWallet().PublicKey()
	f.reader.accounts[tokenAccount] = fakeAccount{
		data:  encodeTokenAccount(f.mint, solana.NewWallet().PublicKey(), 10),
		owner: solana.TokenProgramID,
	}

	_, err := f.svc.BurnAndCloseAccount(context.Background(), tokenAccount)
	assert.ErrorContains(t, err, "not owned by wallet")
	assert.Zero(t, f.submitter.calls)
}

func TestBurnAndCloseAll(t *testing.T) {
	f := newFixture(t)
	accounts := make([]solana.PublicKey, 3)
	for i := range accounts {
		accounts[i] = solana.NewWallet().PublicKey()
		f.reader.accounts[accounts[i]] = fakeAccount{
			data:  encodeTokenAccount(solana.NewWallet().PublicKey(), f.wallet.PublicKey, uint64(i)),
			owner: solana.TokenProgramID,
		}
	}

	results, err := f.svc.BurnAndCloseAll(context.Background(), accounts)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, accounts[i], r.TokenAccount)
		assert.NoError(t, r.Err)
		assert.Equal(t, submit.StatusConfirmed, r.Receipt.Status)
	}
}

func TestBurnAndCloseAll_ReportsFailures(t *testing.T) {
	f := newFixture(t)
	good := solana.NewWallet().PublicKey()
	f.reader.accounts[good] = fakeAccount{
		data:  encodeTokenAccount(f.mint, f.wallet.PublicKey, 5),
		owner: solana.TokenProgramID,
	}
	missing := solana.NewWallet().PublicKey()

	results, err := f.svc.BurnAndCloseAll(context.Background(), []solana.PublicKey{good, missing})
	require.Error(t, err)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.ErrorContains(t, err, missing.String())
}
