package token

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/stable-net/stableweb/pkg/events"
	"github.com/stable-net/stableweb/pkg/roles"
)

// CrossChainTransfer records a burn on a source chain awaiting resume on
// its target chain.
type CrossChainTransfer struct {
	CorrelationID common.Hash    `json:"correlationId"`
	Sender        common.Address `json:"sender"`
	Recipient     common.Address `json:"recipient"`
	Amount        *big.Int       `json:"amount"`
	SourceChain   uint64         `json:"sourceChain"`
	TargetChain   uint64         `json:"targetChain"`
	Counter       uint64         `json:"counter"`
	SentAt        uint64         `json:"sentAt"`
}

func (x *CrossChainTransfer) copy() *CrossChainTransfer {
	copied := *x
	copied.Amount = new(big.Int).Set(x.Amount)
	return &copied
}

// DeriveCorrelationID computes the deterministic id of a cross-chain
// transfer from its content and the sender's outbound counter. The id
// carries no block metadata, so re-deriving it for the same transfer
// always yields the same value on any fork.
func DeriveCorrelationID(sender, recipient common.Address, amount *big.Int, source, target, counter uint64) (common.Hash, error) {
	if amount == nil || amount.Sign() < 0 {
		return common.Hash{}, ErrInvalidAmount
	}
	value, overflow := uint256.FromBig(amount)
	if overflow {
		return common.Hash{}, ErrInvalidAmount
	}

	buf := make([]byte, 0, 96)
	buf = append(buf, sender.Bytes()...)
	buf = append(buf, recipient.Bytes()...)
	amountBytes := value.Bytes32()
	buf = append(buf, amountBytes[:]...)
	buf = binary.BigEndian.AppendUint64(buf, source)
	buf = binary.BigEndian.AppendUint64(buf, target)
	buf = binary.BigEndian.AppendUint64(buf, counter)

	return crypto.Keccak256Hash(buf), nil
}

// TransferCrossChain burns amount from the caller and records an
// outbound transfer destined for targetChain. The returned record is
// what a bridge presents to the target chain's ResumeCrossChain.
func (t *Token) TransferCrossChain(caller, recipient common.Address, amount *big.Int, targetChain uint64) (*CrossChainTransfer, error) {
	if err := t.beginCall(); err != nil {
		return nil, err
	}
	defer t.endCall()

	if t.paused {
		return nil, ErrContractPaused
	}
	if t.ledger.IsFrozen(caller) {
		return nil, ErrAccountFrozen
	}
	value, err := t.toAmount(amount, false)
	if err != nil {
		return nil, err
	}
	if targetChain == 0 {
		return nil, ErrChainMismatch
	}
	if targetChain == t.chainID {
		return nil, ErrSameChain
	}
	if t.ledger.Balance(caller).Lt(value) {
		return nil, ErrInsufficientBalance
	}

	counter := t.outNonces[caller]
	corrID, err := DeriveCorrelationID(caller, recipient, value.ToBig(), t.chainID, targetChain, counter)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ledger.Burn(caller, value); err != nil {
		return nil, err
	}
	t.outNonces[caller] = counter + 1
	xfer := &CrossChainTransfer{
		CorrelationID: corrID,
		Sender:        caller,
		Recipient:     recipient,
		Amount:        value.ToBig(),
		SourceChain:   t.chainID,
		TargetChain:   targetChain,
		Counter:       counter,
		SentAt:        t.now(),
	}
	t.outbound[corrID] = xfer
	t.emit(events.Event{
		Kind:         events.KindCrossChainSent,
		Account:      caller,
		Counterparty: recipient,
		Amount:       (*hexutil.Big)(value.ToBig()),
		RequestID:    corrID,
		SourceChain:  t.chainID,
		TargetChain:  targetChain,
	})
	return xfer.copy(), nil
}

// ResumeCrossChain credits a transfer burned on its source chain. The
// caller must hold BRIDGE. Admission rests on role membership alone:
// there is no proof-of-inclusion of the source burn, which is the
// platform's known bridge trust gap. The correlation id is recomputed
// from the transfer's content and deduplicated through the shared
// processed set, and the recipient passes the same KYC and cap gates as
// a mint.
func (t *Token) ResumeCrossChain(caller common.Address, xfer CrossChainTransfer) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	if t.paused {
		return ErrContractPaused
	}
	if t.ledger.IsFrozen(xfer.Recipient) {
		return ErrAccountFrozen
	}
	if err := t.roles.Require(roles.RoleBridge, caller); err != nil {
		return err
	}
	value, err := t.toAmount(xfer.Amount, false)
	if err != nil {
		return err
	}
	if xfer.TargetChain != t.chainID || xfer.SourceChain == t.chainID {
		return ErrChainMismatch
	}

	corrID, err := DeriveCorrelationID(xfer.Sender, xfer.Recipient, xfer.Amount, xfer.SourceChain, xfer.TargetChain, xfer.Counter)
	if err != nil {
		return err
	}
	if corrID != xfer.CorrelationID {
		return ErrCorrelationMismatch
	}
	if t.processed[corrID] {
		return ErrDuplicateRequest
	}
	if !t.kyc.IsApproved(xfer.Recipient) {
		return ErrNotWhitelisted
	}
	if !t.capAllows(value) {
		return ErrCapExceeded
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ledger.Mint(xfer.Recipient, value); err != nil {
		return err
	}
	t.processed[corrID] = true
	t.emit(events.Event{
		Kind:         events.KindCrossChainReceived,
		Account:      xfer.Recipient,
		Counterparty: xfer.Sender,
		Amount:       (*hexutil.Big)(value.ToBig()),
		RequestID:    corrID,
		SourceChain:  xfer.SourceChain,
		TargetChain:  xfer.TargetChain,
	})
	return nil
}

// OutboundTransfer returns the outbound record under corrID, if any.
func (t *Token) OutboundTransfer(corrID common.Hash) (*CrossChainTransfer, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	xfer, exists := t.outbound[corrID]
	if !exists {
		return nil, false
	}
	return xfer.copy(), true
}

// OutboundCounter returns how many cross-chain transfers addr has sent.
func (t *Token) OutboundCounter(addr common.Address) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.outNonces[addr]
}
