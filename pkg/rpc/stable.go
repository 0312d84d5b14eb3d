package rpc

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/stable-net/stableweb/pkg/signer"
)

// stable_name returns the token name.
func (s *Server) stableName(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	return dep.Token.Name(), nil
}

// stable_symbol returns the token symbol.
func (s *Server) stableSymbol(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	return dep.Token.Symbol(), nil
}

// stable_decimals returns the token decimals.
func (s *Server) stableDecimals(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	return dep.Token.Decimals(), nil
}

// stable_address returns the token contract address.
func (s *Server) stableAddress(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	return dep.Token.Address().Hex(), nil
}

// stable_domainSeparator returns the EIP-712 domain separator.
func (s *Server) stableDomainSeparator(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	separator, err := dep.Token.DomainSeparator()
	if err != nil {
		return nil, internalError(err)
	}
	return separator.Hex(), nil
}

// stable_totalSupply returns the circulating supply.
func (s *Server) stableTotalSupply(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	return hexutil.EncodeBig(dep.Token.TotalSupply()), nil
}

// stable_balanceOf returns an account balance.
func (s *Server) stableBalanceOf(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 2, "[chainId, address]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	addr, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid address")
	}
	return hexutil.EncodeBig(dep.Token.BalanceOf(addr)), nil
}

// stable_nonceOf returns the next expected approval nonce for a
// recipient.
func (s *Server) stableNonceOf(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 2, "[chainId, address]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	addr, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid address")
	}
	return hexutil.EncodeUint64(dep.Token.NonceOf(addr)), nil
}

// stable_allowance returns a spender allowance.
func (s *Server) stableAllowance(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 3, "[chainId, owner, spender]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	owner, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid owner address")
	}
	spender, err := decodeAddress(args[2])
	if err != nil {
		return nil, invalidParams("Invalid spender address")
	}
	return hexutil.EncodeBig(dep.Token.Allowance(owner, spender)), nil
}

// stable_isFrozen reports whether an account is frozen.
func (s *Server) stableIsFrozen(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 2, "[chainId, address]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	addr, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid address")
	}
	return dep.Token.IsFrozen(addr), nil
}

// stable_paused reports whether the contract is paused.
func (s *Server) stablePaused(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	return dep.Token.Paused(), nil
}

// stable_isProcessed reports whether a request id has been consumed.
func (s *Server) stableIsProcessed(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 2, "[chainId, requestId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	id, err := decodeHash(args[1])
	if err != nil {
		return nil, invalidParams("Invalid request id")
	}
	return dep.Token.IsProcessed(id), nil
}

// stable_pendingRedeems returns the open redeem requests.
func (s *Server) stablePendingRedeems(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	pending := dep.Token.PendingRedeems()
	out := make([]redeemRequestJSON, len(pending))
	for i, req := range pending {
		out[i] = encodeRedeemRequest(req)
	}
	return out, nil
}

// stable_escrowed returns the value held in redeem escrow.
func (s *Server) stableEscrowed(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	return hexutil.EncodeBig(dep.Token.Escrowed()), nil
}

// stable_outboundTransfer returns a burn record by correlation id.
func (s *Server) stableOutboundTransfer(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 2, "[chainId, correlationId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	id, err := decodeHash(args[1])
	if err != nil {
		return nil, invalidParams("Invalid correlation id")
	}
	xfer, ok := dep.Token.OutboundTransfer(id)
	if !ok {
		return nil, nil
	}
	return encodeCrossChainTransfer(xfer), nil
}

// stable_outboundCounter returns a sender's cross-chain counter.
func (s *Server) stableOutboundCounter(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 2, "[chainId, address]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	addr, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid address")
	}
	return hexutil.EncodeUint64(dep.Token.OutboundCounter(addr)), nil
}

// stable_transfer moves value between accounts.
func (s *Server) stableTransfer(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 4, "[chainId, from, to, amount]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	from, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid from address")
	}
	to, err := decodeAddress(args[2])
	if err != nil {
		return nil, invalidParams("Invalid to address")
	}
	amount, err := decodeBig(args[3])
	if err != nil {
		return nil, invalidParams("Invalid amount")
	}

	if err := dep.Token.Transfer(from, to, amount); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// stable_approve sets a spender allowance.
func (s *Server) stableApprove(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 4, "[chainId, owner, spender, amount]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	owner, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid owner address")
	}
	spender, err := decodeAddress(args[2])
	if err != nil {
		return nil, invalidParams("Invalid spender address")
	}
	amount, err := decodeBig(args[3])
	if err != nil {
		return nil, invalidParams("Invalid amount")
	}

	if err := dep.Token.Approve(owner, spender, amount); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// stable_transferFrom spends an allowance.
func (s *Server) stableTransferFrom(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 5, "[chainId, caller, from, to, amount]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}
	from, err := decodeAddress(args[2])
	if err != nil {
		return nil, invalidParams("Invalid from address")
	}
	to, err := decodeAddress(args[3])
	if err != nil {
		return nil, invalidParams("Invalid to address")
	}
	amount, err := decodeBig(args[4])
	if err != nil {
		return nil, invalidParams("Invalid amount")
	}

	if err := dep.Token.TransferFrom(caller, from, to, amount); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// stable_mintWithApproval submits a signed mint approval.
func (s *Server) stableMintWithApproval(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 4, "[chainId, caller, approval, signature]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}
	approval, err := decodeMintApproval(args[2])
	if err != nil {
		return nil, invalidParams("Invalid approval payload")
	}
	sig, err := decodeBytes(args[3])
	if err != nil {
		return nil, invalidParams("Invalid signature")
	}

	if err := dep.Token.MintWithApproval(caller, approval, sig); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// stable_requestRedeem escrows value for redemption and returns the
// request id. A missing or zero requestId is filled in by the server.
func (s *Server) stableRequestRedeem(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 3, "[chainId, caller, amount, requestId?]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}
	amount, err := decodeBig(args[2])
	if err != nil {
		return nil, invalidParams("Invalid amount")
	}

	requestID := signer.NewRequestID()
	if len(args) > 3 {
		id, err := decodeHash(args[3])
		if err != nil {
			return nil, invalidParams("Invalid request id")
		}
		requestID = id
	}

	if err := dep.Token.RequestRedeem(caller, requestID, amount); err != nil {
		return nil, rejection(err)
	}
	return requestID.Hex(), nil
}

// stable_finalizeRedeem burns escrowed value against a signed
// finalization.
func (s *Server) stableFinalizeRedeem(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 4, "[chainId, caller, finalization, signature]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}
	fin, err := decodeRedeemFinalize(args[2])
	if err != nil {
		return nil, invalidParams("Invalid finalization payload")
	}
	sig, err := decodeBytes(args[3])
	if err != nil {
		return nil, invalidParams("Invalid signature")
	}

	if err := dep.Token.FinalizeRedeem(caller, fin, sig); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// stable_transferCrossChain burns value for transport to another chain
// and returns the outbound record.
func (s *Server) stableTransferCrossChain(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 5, "[chainId, caller, recipient, amount, targetChainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}
	recipient, err := decodeAddress(args[2])
	if err != nil {
		return nil, invalidParams("Invalid recipient address")
	}
	amount, err := decodeBig(args[3])
	if err != nil {
		return nil, invalidParams("Invalid amount")
	}
	targetChain, err := decodeUint64(args[4])
	if err != nil {
		return nil, invalidParams("Invalid target chain id")
	}

	xfer, err := dep.Token.TransferCrossChain(caller, recipient, amount, targetChain)
	if err != nil {
		return nil, rejection(err)
	}
	return encodeCrossChainTransfer(xfer), nil
}

// stable_resumeCrossChain mints a transported burn on its target chain.
func (s *Server) stableResumeCrossChain(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 3, "[chainId, caller, transfer]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}
	xfer, err := decodeCrossChainTransfer(args[2])
	if err != nil {
		return nil, invalidParams("Invalid transfer payload")
	}

	if err := dep.Token.ResumeCrossChain(caller, xfer); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}
