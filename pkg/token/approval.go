package token

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/stable-net/stableweb/pkg/events"
	"github.com/stable-net/stableweb/pkg/roles"
	"github.com/stable-net/stableweb/pkg/typeddata"
)

// MintWithApproval credits newly minted tokens to approval.To. The
// caller must hold ISSUER; the approval must be signed by an ORACLE
// member under this instance's EIP-712 domain, carry the recipient's
// next-expected nonce and an unused request id, not be expired, and the
// recipient must pass KYC with the new supply inside the reserve cap.
// All checks run before any state changes; on success the nonce, the
// processed set, the balance and the supply move in one step.
func (t *Token) MintWithApproval(caller common.Address, approval typeddata.MintApproval, sig []byte) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	if t.paused {
		return ErrContractPaused
	}
	if t.ledger.IsFrozen(approval.To) {
		return ErrAccountFrozen
	}
	if err := t.roles.Require(roles.RoleIssuer, caller); err != nil {
		return err
	}
	value, err := t.toAmount(approval.Amount, false)
	if err != nil {
		return err
	}
	if t.now() > approval.Expiry {
		return ErrExpiredApproval
	}
	if approval.ChainID == nil || !approval.ChainID.IsUint64() || approval.ChainID.Uint64() != t.chainID {
		return ErrChainMismatch
	}
	if approval.RequestID == (common.Hash{}) {
		return ErrInvalidRequestID
	}
	if approval.Nonce != t.ledger.Nonce(approval.To) {
		return ErrInvalidNonce
	}
	if t.processed[approval.RequestID] {
		return ErrDuplicateRequest
	}

	digest, err := t.domain.MintApprovalDigest(approval)
	if err != nil {
		return ErrInvalidSignature
	}
	signerAddr, err := typeddata.RecoverSigner(digest, sig)
	if err != nil {
		return ErrInvalidSignature
	}
	if !t.roles.Has(roles.RoleOracle, signerAddr) {
		return ErrInvalidSignature
	}
	if !t.kyc.IsApproved(approval.To) {
		return ErrNotWhitelisted
	}
	if !t.capAllows(value) {
		return ErrCapExceeded
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ledger.Mint(approval.To, value); err != nil {
		return err
	}
	t.ledger.IncrementNonce(approval.To)
	t.processed[approval.RequestID] = true
	t.emit(events.Event{
		Kind:         events.KindMintWithApproval,
		Account:      approval.To,
		Counterparty: signerAddr,
		Amount:       (*hexutil.Big)(value.ToBig()),
		RequestID:    approval.RequestID,
		Nonce:        approval.Nonce,
	})
	return nil
}
