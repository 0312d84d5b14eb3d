// Package typeddata implements the EIP-712 structured payloads exchanged
// between off-chain approval signers and the token contract. The contract
// and the signer tooling build the identical domain and type schema, so a
// digest computed on either side verifies against the other.
package typeddata

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Version is the EIP-712 domain version all payloads sign under.
const Version = "1"

// Primary type names.
const (
	TypeMintApproval   = "MintApproval"
	TypeRedeemFinalize = "RedeemFinalize"
)

// Payload errors.
var (
	ErrMalformedSignature = errors.New("malformed signature: want 65 bytes")
	ErrIncompletePayload  = errors.New("payload is missing required fields")
)

// payloadTypes declares the typed-data schema shared with signer tooling.
var payloadTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	TypeMintApproval: {
		{Name: "to", Type: "address"},
		{Name: "amount", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "expiry", Type: "uint64"},
		{Name: "chainId", Type: "uint256"},
		{Name: "requestId", Type: "bytes32"},
	},
	TypeRedeemFinalize: {
		{Name: "requestId", Type: "bytes32"},
		{Name: "account", Type: "address"},
		{Name: "amount", Type: "uint256"},
		{Name: "expiry", Type: "uint64"},
		{Name: "bankRef", Type: "string"},
	},
}

// Domain identifies one token instance for signing purposes. Signatures
// bind to the token name, the chain and the contract address, so a
// payload signed for one deployment never verifies on another.
type Domain struct {
	Name     string
	ChainID  *big.Int
	Contract common.Address
}

func (d Domain) typedDataDomain() apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              d.Name,
		Version:           Version,
		ChainId:           (*math.HexOrDecimal256)(d.ChainID),
		VerifyingContract: d.Contract.Hex(),
	}
}

// Separator returns the EIP-712 domain separator hash.
func (d Domain) Separator() (common.Hash, error) {
	if d.ChainID == nil {
		return common.Hash{}, ErrIncompletePayload
	}
	td := apitypes.TypedData{
		Types:  payloadTypes,
		Domain: d.typedDataDomain(),
	}
	hash, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(hash), nil
}

// MintApproval authorizes crediting newly minted tokens to a recipient.
// Nonce is the recipient's next-expected value and RequestID ties the
// approval to one off-chain issuance request.
type MintApproval struct {
	To        common.Address `json:"to"`
	Amount    *big.Int       `json:"amount"`
	Nonce     uint64         `json:"nonce"`
	Expiry    uint64         `json:"expiry"`
	ChainID   *big.Int       `json:"chainId"`
	RequestID common.Hash    `json:"requestId"`
}

// RedeemFinalize authorizes burning escrowed value after off-chain bank
// settlement identified by BankRef.
type RedeemFinalize struct {
	RequestID common.Hash    `json:"requestId"`
	Account   common.Address `json:"account"`
	Amount    *big.Int       `json:"amount"`
	Expiry    uint64         `json:"expiry"`
	BankRef   string         `json:"bankRef"`
}

// MintApprovalDigest returns the signing digest for a mint approval.
func (d Domain) MintApprovalDigest(a MintApproval) ([]byte, error) {
	if d.ChainID == nil || a.Amount == nil || a.ChainID == nil {
		return nil, ErrIncompletePayload
	}
	td := apitypes.TypedData{
		Types:       payloadTypes,
		PrimaryType: TypeMintApproval,
		Domain:      d.typedDataDomain(),
		Message: apitypes.TypedDataMessage{
			"to":        a.To.Hex(),
			"amount":    (*math.HexOrDecimal256)(a.Amount),
			"nonce":     (*math.HexOrDecimal256)(new(big.Int).SetUint64(a.Nonce)),
			"expiry":    (*math.HexOrDecimal256)(new(big.Int).SetUint64(a.Expiry)),
			"chainId":   (*math.HexOrDecimal256)(a.ChainID),
			"requestId": a.RequestID[:],
		},
	}
	digest, _, err := apitypes.TypedDataAndHash(td)
	return digest, err
}

// RedeemFinalizeDigest returns the signing digest for a redeem
// finalization.
func (d Domain) RedeemFinalizeDigest(f RedeemFinalize) ([]byte, error) {
	if d.ChainID == nil || f.Amount == nil {
		return nil, ErrIncompletePayload
	}
	td := apitypes.TypedData{
		Types:       payloadTypes,
		PrimaryType: TypeRedeemFinalize,
		Domain:      d.typedDataDomain(),
		Message: apitypes.TypedDataMessage{
			"requestId": f.RequestID[:],
			"account":   f.Account.Hex(),
			"amount":    (*math.HexOrDecimal256)(f.Amount),
			"expiry":    (*math.HexOrDecimal256)(new(big.Int).SetUint64(f.Expiry)),
			"bankRef":   f.BankRef,
		},
	}
	digest, _, err := apitypes.TypedDataAndHash(td)
	return digest, err
}

// RecoverSigner returns the address that produced sig over digest. Both
// 0/1 and 27/28 recovery identifiers are accepted.
func RecoverSigner(digest []byte, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrMalformedSignature
	}
	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}

	pub, err := crypto.SigToPub(digest, normalized)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}
