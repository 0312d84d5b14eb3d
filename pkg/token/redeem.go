package token

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/stable-net/stableweb/pkg/events"
	"github.com/stable-net/stableweb/pkg/roles"
	"github.com/stable-net/stableweb/pkg/typeddata"
)

// RedeemRequest is an escrowed redemption awaiting off-chain settlement.
type RedeemRequest struct {
	RequestID   common.Hash    `json:"requestId"`
	Account     common.Address `json:"account"`
	Amount      *big.Int       `json:"amount"`
	RequestedAt uint64         `json:"requestedAt"`
}

func (r *RedeemRequest) copy() *RedeemRequest {
	return &RedeemRequest{
		RequestID:   r.RequestID,
		Account:     r.Account,
		Amount:      new(big.Int).Set(r.Amount),
		RequestedAt: r.RequestedAt,
	}
}

// RequestRedeem moves amount from the caller into contract custody and
// records a pending request under requestID. Supply is unchanged until
// finalization burns the escrow. Request ids are orchestrator-chosen and
// single-use.
func (t *Token) RequestRedeem(caller common.Address, requestID common.Hash, amount *big.Int) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	if t.paused {
		return ErrContractPaused
	}
	if t.ledger.IsFrozen(caller) {
		return ErrAccountFrozen
	}
	value, err := t.toAmount(amount, false)
	if err != nil {
		return err
	}
	if requestID == (common.Hash{}) {
		return ErrInvalidRequestID
	}
	if t.processed[requestID] {
		return ErrDuplicateRequest
	}
	if _, exists := t.pending[requestID]; exists {
		return ErrDuplicateRequest
	}
	if t.ledger.Balance(caller).Lt(value) {
		return ErrInsufficientBalance
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ledger.Transfer(caller, t.address, value); err != nil {
		return err
	}
	t.pending[requestID] = &RedeemRequest{
		RequestID:   requestID,
		Account:     caller,
		Amount:      value.ToBig(),
		RequestedAt: t.now(),
	}
	t.emit(events.Event{
		Kind:      events.KindRedeemRequested,
		Account:   caller,
		Amount:    (*hexutil.Big)(value.ToBig()),
		RequestID: requestID,
	})
	return nil
}

// FinalizeRedeem burns the escrow of a pending request after off-chain
// settlement. The caller must hold ISSUER and the payload must be signed
// by an ORACLE member, unexpired, and match the pending request exactly.
func (t *Token) FinalizeRedeem(caller common.Address, fin typeddata.RedeemFinalize, sig []byte) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	if t.paused {
		return ErrContractPaused
	}
	if t.ledger.IsFrozen(fin.Account) {
		return ErrAccountFrozen
	}
	if err := t.roles.Require(roles.RoleIssuer, caller); err != nil {
		return err
	}
	value, err := t.toAmount(fin.Amount, false)
	if err != nil {
		return err
	}
	if t.now() > fin.Expiry {
		return ErrExpiredApproval
	}
	if t.processed[fin.RequestID] {
		return ErrDuplicateRequest
	}
	req, exists := t.pending[fin.RequestID]
	if !exists {
		return ErrUnknownRequest
	}
	if req.Account != fin.Account || req.Amount.Cmp(fin.Amount) != 0 {
		return ErrUnknownRequest
	}

	digest, err := t.domain.RedeemFinalizeDigest(fin)
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

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ledger.Burn(t.address, value); err != nil {
		return err
	}
	delete(t.pending, fin.RequestID)
	t.processed[fin.RequestID] = true
	t.emit(events.Event{
		Kind:         events.KindRedeemFinalized,
		Account:      fin.Account,
		Counterparty: signerAddr,
		Amount:       (*hexutil.Big)(value.ToBig()),
		RequestID:    fin.RequestID,
		BankRef:      fin.BankRef,
	})
	return nil
}

// CancelRedeem returns the escrow of a pending request to its account.
// It exists for settlement failure; only ADMIN may cancel. The request
// id is consumed, so a retried redemption needs a fresh id.
func (t *Token) CancelRedeem(caller common.Address, requestID common.Hash) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	if t.paused {
		return ErrContractPaused
	}
	if err := t.roles.Require(roles.RoleAdmin, caller); err != nil {
		return err
	}
	req, exists := t.pending[requestID]
	if !exists {
		return ErrUnknownRequest
	}
	if t.ledger.IsFrozen(req.Account) {
		return ErrAccountFrozen
	}
	value, err := t.toAmount(req.Amount, false)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ledger.Transfer(t.address, req.Account, value); err != nil {
		return err
	}
	delete(t.pending, requestID)
	t.processed[requestID] = true
	t.emit(events.Event{
		Kind:         events.KindRedeemCancelled,
		Account:      req.Account,
		Counterparty: caller,
		Amount:       (*hexutil.Big)(value.ToBig()),
		RequestID:    requestID,
	})
	return nil
}

// PendingRedeem returns the pending request under id, if any.
func (t *Token) PendingRedeem(id common.Hash) (*RedeemRequest, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	req, exists := t.pending[id]
	if !exists {
		return nil, false
	}
	return req.copy(), true
}

// PendingRedeems returns every pending request in a stable order.
func (t *Token) PendingRedeems() []*RedeemRequest {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*RedeemRequest, 0, len(t.pending))
	for _, req := range t.pending {
		out = append(out, req.copy())
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].RequestID[:], out[j].RequestID[:]) < 0
	})
	return out
}

// Escrowed returns the total value held in contract custody for pending
// redemptions.
func (t *Token) Escrowed() *big.Int {
	return t.ledger.Balance(t.address).ToBig()
}
