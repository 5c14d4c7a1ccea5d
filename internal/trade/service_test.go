package trade

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vistara-dev/agentipy/internal/curve"
	"github.com/vistara-dev/agentipy/internal/derive"
	"github.com/vistara-dev/agentipy/internal/solclient"
	"github.com/vistara-dev/agentipy/internal/submit"
	"github.com/vistara-dev/agentipy/internal/wallet"
)

type fakeAccount struct {
	data  []byte
	owner solana.PublicKey
}

// fakeReader serves scripted account state; unknown addresses report not
// found, matching the RPC surface.
type fakeReader struct {
	accounts map[solana.PublicKey]fakeAccount
	balances map[solana.PublicKey]uint64
}

func (f *fakeReader) AccountData(ctx context.Context, address solana.PublicKey) ([]byte, solana.PublicKey, error) {
	acc, ok := f.accounts[address]
	if !ok {
		return nil, solana.PublicKey{}, solclient.ErrAccountNotFound
	}
	return acc.data, acc.owner, nil
}

func (f *fakeReader) MultipleAccountData(ctx context.Context, addresses ...solana.PublicKey) ([][]byte, error) {
	out := make([][]byte, len(addresses))
	for i, addr := range addresses {
		acc, ok := f.accounts[addr]
		if !ok {
			return nil, solclient.ErrAccountNotFound
		}
		out[i] = acc.data
	}
	return out, nil
}

func (f *fakeReader) TokenBalance(ctx context.Context, tokenAccount solana.PublicKey) (uint64, error) {
	return f.balances[tokenAccount], nil
}

type fakeSubmitter struct {
	mu           sync.Mutex
	instructions []solana.Instruction
	receipt      submit.Receipt
	err          error
	calls        int
}

func (f *fakeSubmitter) Submit(ctx context.Context, instructions []solana.Instruction, extraSigners ...solana.PrivateKey) (submit.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.instructions = instructions
	return f.receipt, f.err
}

func encodeCurveGlobal(feeRecipient solana.PublicKey, feeBps uint64) []byte {
	data := make([]byte, 0, 113)
	data = append(data, make([]byte, 8)...)
	data = append(data, 1) // initialized
	data = append(data, solana.NewWallet().PublicKey().Bytes()...)
	data = append(data, feeRecipient.Bytes()...)
	for _, v := range []uint64{1_073_000_000_000_000, 30_000_000_000, 793_100_000_000_000, 1_000_000_000_000_000, feeBps} {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], v)
		data = append(data, buf[:]...)
	}
	return data
}

func encodeCurveState(virtualToken, virtualSol uint64) []byte {
	data := []byte{0x17, 0xb7, 0xf8, 0x37, 0x60, 0xd8, 0xac, 0x60}
	for _, v := range []uint64{virtualToken, virtualSol, 793_100_000_000_000, 0, 1_000_000_000_000_000} {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], v)
		data = append(data, buf[:]...)
	}
	return append(data, 0)
}

func encodeTokenAccount(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, 165)
	copy(data[0:32], mint.Bytes())
	copy(data[32:64], owner.Bytes())
	binary.LittleEndian.PutUint64(data[64:72], amount)
	return data
}

type fixture struct {
	svc       *Service
	reader    *fakeReader
	submitter *fakeSubmitter
	wallet    *wallet.Wallet
	mint      solana.PublicKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	w, err := wallet.New(solana.NewWallet().PrivateKey.String())
	require.NoError(t, err)

	reader := &fakeReader{
		accounts: map[solana.PublicKey]fakeAccount{},
		balances: map[solana.PublicKey]uint64{},
	}
	submitter := &fakeSubmitter{receipt: submit.Receipt{Status: submit.StatusConfirmed}}

	return &fixture{
		svc:       NewService(reader, w, submitter, DefaultOptions(), zap.NewNop()),
		reader:    reader,
		submitter: submitter,
		wallet:    w,
		mint:      solana.NewWallet().PublicKey(),
	}
}

// seedCurve installs the global account and a bonding curve for the fixture
// mint, returning the wallet's token account for it.
func (f *fixture) seedCurve(t *testing.T) solana.PublicKey {
	t.Helper()
	f.reader.accounts[CurveGlobalAddress] = fakeAccount{
		data:  encodeCurveGlobal(solana.NewWallet().PublicKey(), 100),
		owner: CurveProgramID,
	}
	bondingCurve, _, err := derive.BondingCurve(f.mint, CurveProgramID)
	require.NoError(t, err)
	f.reader.accounts[bondingCurve] = fakeAccount{
		data:  encodeCurveState(1_073_000_000_000_000, 30_000_000_000),
		owner: CurveProgramID,
	}
	userATA, err := f.wallet.ATA(f.mint)
	require.NoError(t, err)
	return userATA
}

func instructionData(t *testing.T, ix solana.Instruction) []byte {
	t.Helper()
	data, err := ix.Data()
	require.NoError(t, err)
	return data
}

func TestBuyOnCurve(t *testing.T) {
	f := newFixture(t)
	userATA := f.seedCurve(t)
	f.reader.accounts[userATA] = fakeAccount{data: encodeTokenAccount(f.mint, f.wallet.PublicKey, 0)}

	receipt, err := f.svc.BuyOnCurve(context.Background(), f.mint, 1_000_000_000, 500)
	require.NoError(t, err)
	assert.Equal(t, submit.StatusConfirmed, receipt.Status)

	require.Len(t, f.submitter.instructions, 1)
	data := instructionData(t, f.submitter.instructions[0])
	require.Len(t, data, 24)
	assert.Equal(t, uint64(34_277_831_558_568), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint64(1_050_000_000), binary.LittleEndian.Uint64(data[16:24]))

	metas := f.submitter.instructions[0].Accounts()
	require.Len(t, metas, 12)
	assert.Equal(t, CurveGlobalAddress, metas[0].PublicKey)
	assert.Equal(t, f.mint, metas[2].PublicKey)
	assert.Equal(t, f.wallet.PublicKey, metas[6].PublicKey)
	assert.True(t, metas[6].IsSigner)
}

func TestBuyOnCurve_CreatesMissingTokenAccount(t *testing.T) {
	f := newFixture(t)
	f.seedCurve(t)
	// The wallet's token account is absent from the reader.

	_, err := f.svc.BuyOnCurve(context.Background(), f.mint, 1_000_000_000, 500)
	require.NoError(t, err)

	require.Len(t, f.submitter.instructions, 2)
	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, f.submitter.instructions[0].ProgramID())
	assert.Equal(t, CurveProgramID, f.submitter.instructions[1].ProgramID())
}

func TestSellOnCurve_FullBalance(t *testing.T) {
	f := newFixture(t)
	userATA := f.seedCurve(t)
	f.reader.balances[userATA] = 34_277_831_558_568

	_, err := f.svc.SellOnCurve(context.Background(), f.mint, 0, 500)
	require.NoError(t, err)

	require.Len(t, f.submitter.instructions, 1)
	data := instructionData(t, f.submitter.instructions[0])
	assert.Equal(t, uint64(34_277_831_558_568), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint64(873_717_943), binary.LittleEndian.Uint64(data[16:24]))
}

func TestSellOnCurve_NoBalance(t *testing.T) {
	f := newFixture(t)
	f.seedCurve(t)

	_, err := f.svc.SellOnCurve(context.Background(), f.mint, 0, 500)
	assert.Error(t, err)
	assert.Zero(t, f.submitter.calls)
}

func TestBuyOnCurve_CompletedCurveRejected(t *testing.T) {
	f := newFixture(t)
	f.seedCurve(t)
	bondingCurve, _, err := derive.BondingCurve(f.mint, CurveProgramID)
	require.NoError(t, err)
	data := encodeCurveState(1_073_000_000_000_000, 30_000_000_000)
	data[len(data)-1] = 1 // complete flag
	f.reader.accounts[bondingCurve] = fakeAccount{data: data, owner: CurveProgramID}

	_, err = f.svc.BuyOnCurve(context.Background(), f.mint, 1_000_000_000, 500)
	assert.ErrorIs(t, err, curve.ErrInvalidCurveState)
	assert.Zero(t, f.submitter.calls)
}

func TestFetchCurveState_WrongOwner(t *testing.T) {
	f := newFixture(t)
	f.seedCurve(t)
	bondingCurve, _, err := derive.BondingCurve(f.mint, CurveProgramID)
	require.NoError(t, err)
	f.reader.accounts[bondingCurve] = fakeAccount{
		data:  encodeCurveState(1, 1),
		owner: solana.TokenProgramID,
	}

	_, err = f.svc.BuyOnCurve(context.Background(), f.mint, 1_000_000_000, 500)
	assert.ErrorContains(t, err, "owned by")
}

func TestSwapOnPool(t *testing.T) {
	f := newFixture(t)
	keys := PoolKeys{
		AmmID:            solana.NewWallet().PublicKey(),
		BaseMint:         f.mint,
		QuoteMint:        WrappedSolMint,
		BaseDecimals:     6,
		QuoteDecimals:    9,
		OpenOrders:       solana.NewWallet().PublicKey(),
		TargetOrders:     solana.NewWallet().PublicKey(),
		BaseVault:        solana.NewWallet().PublicKey(),
		QuoteVault:       solana.NewWallet().PublicKey(),
		MarketID:         solana.NewWallet().PublicKey(),
		MarketAuthority:  solana.NewWallet().PublicKey(),
		MarketBaseVault:  solana.NewWallet().PublicKey(),
		MarketQuoteVault: solana.NewWallet().PublicKey(),
		Bids:             solana.NewWallet().PublicKey(),
		Asks:             solana.NewWallet().PublicKey(),
		EventQueue:       solana.NewWallet().PublicKey(),
	}
	f.reader.accounts[keys.BaseVault] = fakeAccount{
		data: encodeTokenAccount(keys.BaseMint, keys.AmmID, 1_000_000),
	}
	f.reader.accounts[keys.QuoteVault] = fakeAccount{
		data: encodeTokenAccount(keys.QuoteMint, keys.AmmID, 2_000_000),
	}
	destATA, err := f.wallet.ATA(WrappedSolMint)
	require.NoError(t, err)
	f.reader.accounts[destATA] = fakeAccount{
		data: encodeTokenAccount(WrappedSolMint, f.wallet.PublicKey, 0),
	}

	receipt, err := f.svc.SwapOnPool(context.Background(), keys, 10_000, curve.BaseToQuote, 500)
	require.NoError(t, err)
	assert.Equal(t, submit.StatusConfirmed, receipt.Status)

	require.Len(t, f.submitter.instructions, 1)
	ix := f.submitter.instructions[0]
	assert.Equal(t, AmmV4ProgramID, ix.ProgramID())

	data := instructionData(t, ix)
	require.Len(t, data, 17)
	assert.Equal(t, byte(9), data[0])
	assert.Equal(t, uint64(10_000), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, uint64(18_765), binary.LittleEndian.Uint64(data[9:17]))

	metas := ix.Accounts()
	require.Len(t, metas, 18)
	assert.Equal(t, solana.TokenProgramID, metas[0].PublicKey)
	assert.Equal(t, keys.AmmID, metas[1].PublicKey)
	assert.Equal(t, f.wallet.PublicKey, metas[17].PublicKey)
}
