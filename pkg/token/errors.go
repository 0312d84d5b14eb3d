package token

import (
	"errors"

	"github.com/stable-net/stableweb/pkg/ledger"
	"github.com/stable-net/stableweb/pkg/roles"
)

// Policy gate errors. Every failed check aborts the operation before any
// state change.
var (
	ErrUnauthorized        = roles.ErrUnauthorized
	ErrInvalidSignature    = errors.New("invalid signature: not an authorized approval signer")
	ErrExpiredApproval     = errors.New("approval expired")
	ErrInvalidNonce        = errors.New("invalid nonce")
	ErrDuplicateRequest    = errors.New("duplicate request id")
	ErrNotWhitelisted      = errors.New("recipient not kyc-approved")
	ErrCapExceeded         = errors.New("reserve cap exceeded")
	ErrAccountFrozen       = errors.New("account frozen")
	ErrContractPaused      = errors.New("contract paused")
	ErrInsufficientBalance = ledger.ErrInsufficientBalance
)

// State machine errors.
var (
	ErrReentrantCall         = errors.New("reentrant call")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidRequestID      = errors.New("invalid request id")
	ErrUnknownRequest        = errors.New("no pending redeem request matches the payload")
	ErrChainMismatch         = errors.New("payload bound to a different chain")
	ErrSameChain             = errors.New("cross-chain transfer targets its own chain")
	ErrCorrelationMismatch   = errors.New("correlation id does not match transfer fields")
	ErrNotFrozen             = errors.New("account not frozen")
	ErrNotPaused             = errors.New("contract not paused")
	ErrInvalidOracle         = errors.New("collaborator oracle is nil")
	ErrInsufficientAllowance = ledger.ErrInsufficientAllowance
)
