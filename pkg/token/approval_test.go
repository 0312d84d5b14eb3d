package token

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stable-net/stableweb/pkg/events"
	"github.com/stable-net/stableweb/pkg/signer"
)

func TestToken_MintWithApproval(t *testing.T) {
	f := newTestToken(t)

	approval := f.newApproval(aliceAddr, big.NewInt(100))
	sig, err := f.oracle.SignMintApproval(approval)
	require.NoError(t, err)

	err = f.token.MintWithApproval(relayerAddr, approval, sig)
	require.NoError(t, err)

	assert.Equal(t, int64(100), f.token.BalanceOf(aliceAddr).Int64())
	assert.Equal(t, int64(100), f.token.TotalSupply().Int64())
	assert.Equal(t, uint64(1), f.token.NonceOf(aliceAddr))
	assert.True(t, f.token.IsProcessed(approval.RequestID))

	last, ok := f.journal.Last()
	require.True(t, ok)
	assert.Equal(t, events.KindMintWithApproval, last.Kind)
	assert.Equal(t, aliceAddr, last.Account)
	assert.Equal(t, f.oracle.Address(), last.Counterparty)
	assert.Equal(t, int64(100), last.Amount.ToInt().Int64())
	assert.Equal(t, approval.RequestID, last.RequestID)
	assert.Equal(t, f.clock.now, last.Time)
}

func TestToken_MintWithApproval_SequentialNonces(t *testing.T) {
	f := newTestToken(t)

	f.mint(t, aliceAddr, 100)
	f.mint(t, aliceAddr, 200)

	assert.Equal(t, int64(300), f.token.BalanceOf(aliceAddr).Int64())
	assert.Equal(t, uint64(2), f.token.NonceOf(aliceAddr))
}

func TestToken_MintWithApproval_Replay(t *testing.T) {
	f := newTestToken(t)

	approval := f.newApproval(aliceAddr, big.NewInt(100))
	sig, err := f.oracle.SignMintApproval(approval)
	require.NoError(t, err)
	require.NoError(t, f.token.MintWithApproval(relayerAddr, approval, sig))

	// The consumed nonce rejects the replay before the request id is
	// even consulted
	err = f.token.MintWithApproval(relayerAddr, approval, sig)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidNonce, err)

	assert.Equal(t, int64(100), f.token.BalanceOf(aliceAddr).Int64())
	assert.Equal(t, int64(100), f.token.TotalSupply().Int64())
}

func TestToken_MintWithApproval_DuplicateRequestID(t *testing.T) {
	f := newTestToken(t)

	first := f.newApproval(aliceAddr, big.NewInt(100))
	sig, err := f.oracle.SignMintApproval(first)
	require.NoError(t, err)
	require.NoError(t, f.token.MintWithApproval(relayerAddr, first, sig))

	// Fresh nonce, reused request id
	second := f.newApproval(aliceAddr, big.NewInt(100))
	second.RequestID = first.RequestID
	sig, err = f.oracle.SignMintApproval(second)
	require.NoError(t, err)

	err = f.token.MintWithApproval(relayerAddr, second, sig)
	require.Error(t, err)
	assert.Equal(t, ErrDuplicateRequest, err)
}

func TestToken_MintWithApproval_WrongSigner(t *testing.T) {
	f := newTestToken(t)

	rogue, err := signer.FromMnemonic(testMnemonic, 5, f.token.Domain())
	require.NoError(t, err)

	approval := f.newApproval(aliceAddr, big.NewInt(100))
	sig, err := rogue.SignMintApproval(approval)
	require.NoError(t, err)

	err = f.token.MintWithApproval(relayerAddr, approval, sig)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidSignature, err)
	assert.Equal(t, int64(0), f.token.TotalSupply().Int64())
}

func TestToken_MintWithApproval_TamperedAmount(t *testing.T) {
	f := newTestToken(t)

	approval := f.newApproval(aliceAddr, big.NewInt(100))
	sig, err := f.oracle.SignMintApproval(approval)
	require.NoError(t, err)

	// Recovery lands on a different address, not an oracle
	approval.Amount = big.NewInt(100_000)
	err = f.token.MintWithApproval(relayerAddr, approval, sig)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidSignature, err)
}

func TestToken_MintWithApproval_Expired(t *testing.T) {
	f := newTestToken(t)

	approval := f.newApproval(aliceAddr, big.NewInt(100))
	approval.Expiry = f.clock.now + 10
	sig, err := f.oracle.SignMintApproval(approval)
	require.NoError(t, err)

	f.clock.now += 11
	err = f.token.MintWithApproval(relayerAddr, approval, sig)
	require.Error(t, err)
	assert.Equal(t, ErrExpiredApproval, err)
}

func TestToken_MintWithApproval_ExpiryBoundary(t *testing.T) {
	f := newTestToken(t)

	// An approval expiring exactly now is still valid
	approval := f.newApproval(aliceAddr, big.NewInt(100))
	approval.Expiry = f.clock.now
	sig, err := f.oracle.SignMintApproval(approval)
	require.NoError(t, err)

	require.NoError(t, f.token.MintWithApproval(relayerAddr, approval, sig))
}

func TestToken_MintWithApproval_FutureNonce(t *testing.T) {
	f := newTestToken(t)

	approval := f.newApproval(aliceAddr, big.NewInt(100))
	approval.Nonce = 5
	sig, err := f.oracle.SignMintApproval(approval)
	require.NoError(t, err)

	err = f.token.MintWithApproval(relayerAddr, approval, sig)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidNonce, err)
}

func TestToken_MintWithApproval_StaleNonce(t *testing.T) {
	f := newTestToken(t)
	f.mint(t, aliceAddr, 100)

	approval := f.newApproval(aliceAddr, big.NewInt(100))
	approval.Nonce = 0
	sig, err := f.oracle.SignMintApproval(approval)
	require.NoError(t, err)

	err = f.token.MintWithApproval(relayerAddr, approval, sig)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidNonce, err)
}

func TestToken_MintWithApproval_ChainMismatch(t *testing.T) {
	f := newTestToken(t)

	approval := f.newApproval(aliceAddr, big.NewInt(100))
	approval.ChainID = big.NewInt(999)
	sig, err := f.oracle.SignMintApproval(approval)
	require.NoError(t, err)

	err = f.token.MintWithApproval(relayerAddr, approval, sig)
	require.Error(t, err)
	assert.Equal(t, ErrChainMismatch, err)

	approval.ChainID = nil
	err = f.token.MintWithApproval(relayerAddr, approval, []byte{0x01})
	require.Error(t, err)
	assert.Equal(t, ErrChainMismatch, err)
}

func TestToken_MintWithApproval_ZeroRequestID(t *testing.T) {
	f := newTestToken(t)

	approval := f.newApproval(aliceAddr, big.NewInt(100))
	approval.RequestID = common.Hash{}
	sig, err := f.oracle.SignMintApproval(approval)
	require.NoError(t, err)

	err = f.token.MintWithApproval(relayerAddr, approval, sig)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidRequestID, err)
}

func TestToken_MintWithApproval_ZeroAmount(t *testing.T) {
	f := newTestToken(t)

	approval := f.newApproval(aliceAddr, big.NewInt(0))
	sig, err := f.oracle.SignMintApproval(approval)
	require.NoError(t, err)

	err = f.token.MintWithApproval(relayerAddr, approval, sig)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidAmount, err)
}

func TestToken_MintWithApproval_CallerNotIssuer(t *testing.T) {
	f := newTestToken(t)

	approval := f.newApproval(aliceAddr, big.NewInt(100))
	sig, err := f.oracle.SignMintApproval(approval)
	require.NoError(t, err)

	err = f.token.MintWithApproval(aliceAddr, approval, sig)
	require.Error(t, err)
	assert.Equal(t, ErrUnauthorized, err)
}

func TestToken_MintWithApproval_RecipientNotWhitelisted(t *testing.T) {
	f := newTestToken(t)

	approval := f.newApproval(carolAddr, big.NewInt(100))
	sig, err := f.oracle.SignMintApproval(approval)
	require.NoError(t, err)

	err = f.token.MintWithApproval(relayerAddr, approval, sig)
	require.Error(t, err)
	assert.Equal(t, ErrNotWhitelisted, err)
	assert.Equal(t, int64(0), f.token.BalanceOf(carolAddr).Int64())
}

func TestToken_MintWithApproval_CapExceeded(t *testing.T) {
	f := newTestToken(t)
	f.reserve.ceiling = big.NewInt(150)

	f.mint(t, aliceAddr, 100)

	approval := f.newApproval(aliceAddr, big.NewInt(100))
	sig, err := f.oracle.SignMintApproval(approval)
	require.NoError(t, err)

	err = f.token.MintWithApproval(relayerAddr, approval, sig)
	require.Error(t, err)
	assert.Equal(t, ErrCapExceeded, err)
	assert.Equal(t, int64(100), f.token.TotalSupply().Int64())

	// A raised cap makes the very same signed approval valid: the failed
	// attempt consumed neither the nonce nor the request id
	f.reserve.ceiling = big.NewInt(300)
	require.NoError(t, f.token.MintWithApproval(relayerAddr, approval, sig))
	assert.Equal(t, int64(200), f.token.TotalSupply().Int64())
}

func TestToken_MintWithApproval_ExactCapBoundary(t *testing.T) {
	f := newTestToken(t)
	f.reserve.ceiling = big.NewInt(200)

	f.mint(t, aliceAddr, 100)
	f.mint(t, aliceAddr, 100)

	assert.Equal(t, int64(200), f.token.TotalSupply().Int64())
}

func TestToken_MintWithApproval_FrozenRecipient(t *testing.T) {
	f := newTestToken(t)
	require.NoError(t, f.token.Freeze(adminAddr, aliceAddr))

	// The freeze gate fires before any signature work
	approval := f.newApproval(aliceAddr, big.NewInt(100))
	err := f.token.MintWithApproval(relayerAddr, approval, []byte{0x01})
	require.Error(t, err)
	assert.Equal(t, ErrAccountFrozen, err)
}

func TestToken_MintWithApproval_WhilePaused(t *testing.T) {
	f := newTestToken(t)
	require.NoError(t, f.token.Pause(pauserAddr))

	approval := f.newApproval(aliceAddr, big.NewInt(100))
	err := f.token.MintWithApproval(relayerAddr, approval, []byte{0x01})
	require.Error(t, err)
	assert.Equal(t, ErrContractPaused, err)
}

func TestToken_MintWithApproval_NoStateOnFailure(t *testing.T) {
	f := newTestToken(t)
	f.reserve.ceiling = big.NewInt(50)

	approval := f.newApproval(aliceAddr, big.NewInt(100))
	sig, err := f.oracle.SignMintApproval(approval)
	require.NoError(t, err)

	recorded := f.journal.Len()
	err = f.token.MintWithApproval(relayerAddr, approval, sig)
	require.Error(t, err)
	assert.Equal(t, ErrCapExceeded, err)

	assert.Equal(t, int64(0), f.token.TotalSupply().Int64())
	assert.Equal(t, uint64(0), f.token.NonceOf(aliceAddr))
	assert.False(t, f.token.IsProcessed(approval.RequestID))
	assert.Equal(t, recorded, f.journal.Len())
}
