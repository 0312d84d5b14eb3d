// Package signer provides the off-chain side of the issuance protocol:
// an HSM stand-in that signs approval payloads, deterministic development
// accounts, and request-id generation for orchestrators.
package signer

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/tyler-smith/go-bip39"

	"github.com/stable-net/stableweb/pkg/typeddata"
)

// Account represents a derived account with its private key.
type Account struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
}

// DeriveAccounts derives deterministic accounts from a mnemonic. The
// same mnemonic always yields the same accounts, so configs can pin role
// addresses by index.
func DeriveAccounts(mnemonic string, count int) ([]*Account, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}

	seed := bip39.NewSeed(mnemonic, "")
	accounts := make([]*Account, count)

	for i := 0; i < count; i++ {
		key, err := deriveKey(seed, uint32(i))
		if err != nil {
			return nil, fmt.Errorf("failed to derive key %d: %w", i, err)
		}

		accounts[i] = &Account{
			Address:    crypto.PubkeyToAddress(key.PublicKey),
			PrivateKey: key,
		}
	}

	return accounts, nil
}

// deriveKey derives a private key from seed at the given index.
// Uses simplified derivation for development; production keys live in
// the issuer's HSM and never touch this code path.
func deriveKey(seed []byte, index uint32) (*ecdsa.PrivateKey, error) {
	indexBytes := make([]byte, 4)
	indexBytes[0] = byte(index >> 24)
	indexBytes[1] = byte(index >> 16)
	indexBytes[2] = byte(index >> 8)
	indexBytes[3] = byte(index)

	combined := append(seed, indexBytes...)
	hash := crypto.Keccak256(combined)

	return crypto.ToECDSA(hash)
}

// Signer signs approval payloads for one token domain. It stands in for
// the issuer's HSM during development and testing.
type Signer struct {
	key    *ecdsa.PrivateKey
	domain typeddata.Domain
}

// New creates a signer for domain holding key.
func New(key *ecdsa.PrivateKey, domain typeddata.Domain) *Signer {
	return &Signer{key: key, domain: domain}
}

// FromMnemonic derives the account at index from a mnemonic and wraps it
// in a signer for domain.
func FromMnemonic(mnemonic string, index int, domain typeddata.Domain) (*Signer, error) {
	accounts, err := DeriveAccounts(mnemonic, index+1)
	if err != nil {
		return nil, err
	}
	return New(accounts[index].PrivateKey, domain), nil
}

// Address returns the signing address, the one to register under the
// ORACLE role on the matching token instance.
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// Domain returns the domain payloads sign under.
func (s *Signer) Domain() typeddata.Domain {
	return s.domain
}

// SignMintApproval returns the 65-byte [R||S||V] signature over the
// approval digest.
func (s *Signer) SignMintApproval(a typeddata.MintApproval) ([]byte, error) {
	digest, err := s.domain.MintApprovalDigest(a)
	if err != nil {
		return nil, err
	}
	return crypto.Sign(digest, s.key)
}

// SignRedeemFinalize returns the signature over the finalize digest.
func (s *Signer) SignRedeemFinalize(f typeddata.RedeemFinalize) ([]byte, error) {
	digest, err := s.domain.RedeemFinalizeDigest(f)
	if err != nil {
		return nil, err
	}
	return crypto.Sign(digest, s.key)
}

// NewRequestID returns a fresh 32-byte request id derived from a random
// UUID. Request ids are orchestrator-chosen; the processed set on the
// token enforces uniqueness.
func NewRequestID() common.Hash {
	id := uuid.New()
	return crypto.Keccak256Hash(id[:])
}
