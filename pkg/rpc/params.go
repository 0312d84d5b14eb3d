package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/stable-net/stableweb/pkg/roles"
	"github.com/stable-net/stableweb/pkg/token"
	"github.com/stable-net/stableweb/pkg/typeddata"
)

// splitParams decodes a positional params array and checks arity. usage
// names the expected parameter list for the error message.
func splitParams(params json.RawMessage, n int, usage string) ([]json.RawMessage, *ErrorObject) {
	var args []json.RawMessage
	if len(params) > 0 {
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, invalidParams("Invalid params: " + usage)
		}
	}
	if len(args) < n {
		return nil, invalidParams("Invalid params: " + usage)
	}
	return args, nil
}

// decodeUint64 accepts a hex string, a decimal string or a JSON number.
func decodeUint64(raw json.RawMessage) (uint64, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if strings.HasPrefix(str, "0x") {
			return hexutil.DecodeUint64(str)
		}
		var n uint64
		if _, err := fmt.Sscanf(str, "%d", &n); err != nil {
			return 0, fmt.Errorf("invalid number %q", str)
		}
		return n, nil
	}
	var n uint64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("invalid number")
	}
	return n, nil
}

// decodeBig accepts a 0x-prefixed hex quantity.
func decodeBig(raw json.RawMessage) (*big.Int, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return nil, fmt.Errorf("invalid quantity")
	}
	return hexutil.DecodeBig(str)
}

func decodeAddress(raw json.RawMessage) (common.Address, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return common.Address{}, fmt.Errorf("invalid address")
	}
	if !common.IsHexAddress(str) {
		return common.Address{}, fmt.Errorf("invalid address %q", str)
	}
	return common.HexToAddress(str), nil
}

func decodeHash(raw json.RawMessage) (common.Hash, error) {
	var h common.Hash
	if err := json.Unmarshal(raw, &h); err != nil {
		return common.Hash{}, fmt.Errorf("invalid hash")
	}
	return h, nil
}

// decodeBytes accepts 0x-prefixed hex data, e.g. a signature.
func decodeBytes(raw json.RawMessage) ([]byte, error) {
	var b hexutil.Bytes
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("invalid hex data")
	}
	return b, nil
}

func decodeString(raw json.RawMessage) (string, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return "", fmt.Errorf("invalid string")
	}
	return str, nil
}

func decodeRole(raw json.RawMessage) (roles.Role, error) {
	str, err := decodeString(raw)
	if err != nil {
		return "", err
	}
	role := roles.Role(strings.ToUpper(str))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", str)
	}
	return role, nil
}

// mintApprovalJSON is the wire form of a mint approval. Quantities are
// 0x-prefixed hex so 256-bit values survive the trip.
type mintApprovalJSON struct {
	To        common.Address `json:"to"`
	Amount    *hexutil.Big   `json:"amount"`
	Nonce     hexutil.Uint64 `json:"nonce"`
	Expiry    hexutil.Uint64 `json:"expiry"`
	ChainID   *hexutil.Big   `json:"chainId"`
	RequestID common.Hash    `json:"requestId"`
}

func decodeMintApproval(raw json.RawMessage) (typeddata.MintApproval, error) {
	var wire mintApprovalJSON
	if err := json.Unmarshal(raw, &wire); err != nil {
		return typeddata.MintApproval{}, err
	}
	if wire.Amount == nil || wire.ChainID == nil {
		return typeddata.MintApproval{}, fmt.Errorf("approval is missing amount or chainId")
	}
	return typeddata.MintApproval{
		To:        wire.To,
		Amount:    wire.Amount.ToInt(),
		Nonce:     uint64(wire.Nonce),
		Expiry:    uint64(wire.Expiry),
		ChainID:   wire.ChainID.ToInt(),
		RequestID: wire.RequestID,
	}, nil
}

// redeemFinalizeJSON is the wire form of a redeem finalization.
type redeemFinalizeJSON struct {
	RequestID common.Hash    `json:"requestId"`
	Account   common.Address `json:"account"`
	Amount    *hexutil.Big   `json:"amount"`
	Expiry    hexutil.Uint64 `json:"expiry"`
	BankRef   string         `json:"bankRef"`
}

func decodeRedeemFinalize(raw json.RawMessage) (typeddata.RedeemFinalize, error) {
	var wire redeemFinalizeJSON
	if err := json.Unmarshal(raw, &wire); err != nil {
		return typeddata.RedeemFinalize{}, err
	}
	if wire.Amount == nil {
		return typeddata.RedeemFinalize{}, fmt.Errorf("finalization is missing amount")
	}
	return typeddata.RedeemFinalize{
		RequestID: wire.RequestID,
		Account:   wire.Account,
		Amount:    wire.Amount.ToInt(),
		Expiry:    uint64(wire.Expiry),
		BankRef:   wire.BankRef,
	}, nil
}

// redeemRequestJSON is the wire form of a pending redeem request.
type redeemRequestJSON struct {
	RequestID   common.Hash    `json:"requestId"`
	Account     common.Address `json:"account"`
	Amount      *hexutil.Big   `json:"amount"`
	RequestedAt hexutil.Uint64 `json:"requestedAt"`
}

func encodeRedeemRequest(req *token.RedeemRequest) redeemRequestJSON {
	return redeemRequestJSON{
		RequestID:   req.RequestID,
		Account:     req.Account,
		Amount:      (*hexutil.Big)(req.Amount),
		RequestedAt: hexutil.Uint64(req.RequestedAt),
	}
}

// crossChainTransferJSON is the wire form of an outbound burn record. The
// output of stable_transferCrossChain feeds stable_resumeCrossChain on
// the target chain unchanged.
type crossChainTransferJSON struct {
	CorrelationID common.Hash    `json:"correlationId"`
	Sender        common.Address `json:"sender"`
	Recipient     common.Address `json:"recipient"`
	Amount        *hexutil.Big   `json:"amount"`
	SourceChain   hexutil.Uint64 `json:"sourceChain"`
	TargetChain   hexutil.Uint64 `json:"targetChain"`
	Counter       hexutil.Uint64 `json:"counter"`
	SentAt        hexutil.Uint64 `json:"sentAt"`
}

func encodeCrossChainTransfer(xfer *token.CrossChainTransfer) crossChainTransferJSON {
	return crossChainTransferJSON{
		CorrelationID: xfer.CorrelationID,
		Sender:        xfer.Sender,
		Recipient:     xfer.Recipient,
		Amount:        (*hexutil.Big)(xfer.Amount),
		SourceChain:   hexutil.Uint64(xfer.SourceChain),
		TargetChain:   hexutil.Uint64(xfer.TargetChain),
		Counter:       hexutil.Uint64(xfer.Counter),
		SentAt:        hexutil.Uint64(xfer.SentAt),
	}
}

func decodeCrossChainTransfer(raw json.RawMessage) (token.CrossChainTransfer, error) {
	var wire crossChainTransferJSON
	if err := json.Unmarshal(raw, &wire); err != nil {
		return token.CrossChainTransfer{}, err
	}
	if wire.Amount == nil {
		return token.CrossChainTransfer{}, fmt.Errorf("transfer is missing amount")
	}
	return token.CrossChainTransfer{
		CorrelationID: wire.CorrelationID,
		Sender:        wire.Sender,
		Recipient:     wire.Recipient,
		Amount:        wire.Amount.ToInt(),
		SourceChain:   uint64(wire.SourceChain),
		TargetChain:   uint64(wire.TargetChain),
		Counter:       uint64(wire.Counter),
		SentAt:        uint64(wire.SentAt),
	}, nil
}

// eventFilterJSON narrows an events_query. All fields are optional.
type eventFilterJSON struct {
	From  uint64 `json:"from,omitempty"`
	Kind  string `json:"kind,omitempty"`
	Limit int    `json:"limit,omitempty"`
}
