package rpc

import (
	"errors"

	"github.com/stable-net/stableweb/pkg/chainweb"
	"github.com/stable-net/stableweb/pkg/kyc"
	"github.com/stable-net/stableweb/pkg/ledger"
	"github.com/stable-net/stableweb/pkg/reserve"
	"github.com/stable-net/stableweb/pkg/roles"
	"github.com/stable-net/stableweb/pkg/token"
	"github.com/stable-net/stableweb/pkg/typeddata"
)

func invalidParams(message string) *ErrorObject {
	return &ErrorObject{Code: ErrCodeInvalidParams, Message: message}
}

func internalError(err error) *ErrorObject {
	return &ErrorObject{Code: ErrCodeInternal, Message: err.Error(), Reason: "Internal"}
}

// rejection wraps a policy-gate failure with its machine-readable tag so
// clients can branch on the reason instead of parsing message text.
func rejection(err error) *ErrorObject {
	return &ErrorObject{Code: ErrCodeRejected, Message: err.Error(), Reason: reason(err)}
}

func reason(err error) string {
	switch {
	case errors.Is(err, token.ErrUnauthorized),
		errors.Is(err, kyc.ErrUnauthorized),
		errors.Is(err, reserve.ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, token.ErrInvalidSignature),
		errors.Is(err, typeddata.ErrMalformedSignature):
		return "InvalidSignature"
	case errors.Is(err, token.ErrExpiredApproval):
		return "ExpiredApproval"
	case errors.Is(err, token.ErrInvalidNonce):
		return "InvalidNonce"
	case errors.Is(err, token.ErrDuplicateRequest):
		return "DuplicateRequest"
	case errors.Is(err, token.ErrNotWhitelisted):
		return "NotWhitelisted"
	case errors.Is(err, token.ErrCapExceeded):
		return "CapExceeded"
	case errors.Is(err, token.ErrAccountFrozen):
		return "AccountFrozen"
	case errors.Is(err, token.ErrContractPaused):
		return "ContractPaused"
	case errors.Is(err, token.ErrInsufficientAllowance):
		return "InsufficientAllowance"
	case errors.Is(err, token.ErrInsufficientBalance):
		return "InsufficientBalance"
	case errors.Is(err, token.ErrReentrantCall):
		return "ReentrantCall"
	case errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, ledger.ErrAmountOverflow):
		return "InvalidAmount"
	case errors.Is(err, token.ErrInvalidRequestID):
		return "InvalidRequestID"
	case errors.Is(err, token.ErrUnknownRequest):
		return "UnknownRequest"
	case errors.Is(err, token.ErrChainMismatch):
		return "ChainMismatch"
	case errors.Is(err, token.ErrSameChain):
		return "SameChain"
	case errors.Is(err, token.ErrCorrelationMismatch):
		return "CorrelationMismatch"
	case errors.Is(err, token.ErrNotFrozen):
		return "NotFrozen"
	case errors.Is(err, token.ErrNotPaused):
		return "NotPaused"
	case errors.Is(err, token.ErrInvalidOracle):
		return "InvalidOracle"
	case errors.Is(err, roles.ErrUnknownRole):
		return "UnknownRole"
	case errors.Is(err, reserve.ErrInvalidCap):
		return "InvalidCap"
	case errors.Is(err, ledger.ErrSupplyMismatch):
		return "SupplyMismatch"
	case errors.Is(err, typeddata.ErrIncompletePayload):
		return "IncompletePayload"
	case errors.Is(err, chainweb.ErrUnknownChain):
		return "UnknownChain"
	case errors.Is(err, chainweb.ErrUnknownTransfer):
		return "UnknownTransfer"
	default:
		return "Internal"
	}
}
