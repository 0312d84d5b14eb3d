// Package token implements the stablecoin contract state machine: an
// ERC20-compatible ledger with role-gated issuance, EIP-712 approval
// verification, freeze/pause interlocks, KYC and reserve-cap gating,
// two-phase redemption and cross-chain burn/resume.
//
// Each Token is a single sequential state machine. Mutating entry points
// hold an exclusive in-call flag for their full duration; an overlapping
// mutating call, including a collaborator re-entering during a
// synchronous oracle query, fails closed with ErrReentrantCall. Callers
// are expected to serialize transitions per chain and treat retries as
// an orchestrator concern. Views may run concurrently and never observe
// a partially applied transition.
package token

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/stable-net/stableweb/pkg/events"
	"github.com/stable-net/stableweb/pkg/ledger"
	"github.com/stable-net/stableweb/pkg/roles"
	"github.com/stable-net/stableweb/pkg/typeddata"
)

// KYCOracle reports whether an account may receive newly created value.
// Queried synchronously on every mint-class credit, never cached.
type KYCOracle interface {
	IsApproved(addr common.Address) bool
}

// ReserveOracle reports the ceiling total supply may not exceed.
// Queried synchronously on every mint-class credit, never cached.
type ReserveOracle interface {
	CurrentCap() *big.Int
}

// Clock supplies the chain timestamp used for expiry checks and event
// times.
type Clock interface {
	Now() uint64
}

// Config describes one token instance.
type Config struct {
	Name     string
	Symbol   string
	Decimals uint8

	// ChainID identifies the chain this instance lives on. It binds the
	// EIP-712 domain and routes cross-chain transfers.
	ChainID uint64

	// Address is the instance's own address: the EIP-712 verifying
	// contract and the custody account for redeem escrow.
	Address common.Address

	// Admin is the initial holder of the ADMIN role.
	Admin common.Address

	KYC     KYCOracle     // required
	Reserve ReserveOracle // optional; nil disables the cap gate
	Clock   Clock         // optional; nil falls back to wall time
	Journal *events.Journal
}

// Token is the stablecoin contract state machine for one chain.
type Token struct {
	name     string
	symbol   string
	decimals uint8
	chainID  uint64
	address  common.Address
	domain   typeddata.Domain

	ledger  *ledger.Ledger
	roles   *roles.Set
	kyc     KYCOracle
	reserve ReserveOracle
	clock   Clock
	journal *events.Journal

	paused    bool
	relayer   common.Address
	processed map[common.Hash]bool
	pending   map[common.Hash]*RedeemRequest
	outbound  map[common.Hash]*CrossChainTransfer
	outNonces map[common.Address]uint64

	// inCall is the per-call exclusive guard taken by every mutating
	// entry point. mu additionally protects all fields against
	// concurrent views.
	inCall bool
	mu     sync.RWMutex
}

// New creates a token instance from cfg.
func New(cfg Config) (*Token, error) {
	if cfg.Name == "" || cfg.Symbol == "" {
		return nil, fmt.Errorf("token name and symbol are required")
	}
	if cfg.ChainID == 0 {
		return nil, fmt.Errorf("chain id is required")
	}
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("token address is required")
	}
	if cfg.Admin == (common.Address{}) {
		return nil, fmt.Errorf("admin address is required")
	}
	if cfg.KYC == nil {
		return nil, fmt.Errorf("kyc oracle is required")
	}

	return &Token{
		name:     cfg.Name,
		symbol:   cfg.Symbol,
		decimals: cfg.Decimals,
		chainID:  cfg.ChainID,
		address:  cfg.Address,
		domain: typeddata.Domain{
			Name:     cfg.Name,
			ChainID:  new(big.Int).SetUint64(cfg.ChainID),
			Contract: cfg.Address,
		},
		ledger:    ledger.NewLedger(),
		roles:     roles.NewSet(cfg.Admin),
		kyc:       cfg.KYC,
		reserve:   cfg.Reserve,
		clock:     cfg.Clock,
		journal:   cfg.Journal,
		processed: make(map[common.Hash]bool),
		pending:   make(map[common.Hash]*RedeemRequest),
		outbound:  make(map[common.Hash]*CrossChainTransfer),
		outNonces: make(map[common.Address]uint64),
	}, nil
}

// beginCall takes the exclusive in-call guard. A mutating entry point
// that observes the guard already taken fails closed instead of blocking
// or interleaving.
func (t *Token) beginCall() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inCall {
		return ErrReentrantCall
	}
	t.inCall = true
	return nil
}

func (t *Token) endCall() {
	t.mu.Lock()
	t.inCall = false
	t.mu.Unlock()
}

func (t *Token) now() uint64 {
	if t.clock != nil {
		return t.clock.Now()
	}
	return uint64(time.Now().Unix())
}

// emit appends an audit record. Must be called with t.mu held so record
// order matches state transition order.
func (t *Token) emit(ev events.Event) {
	if t.journal == nil {
		return
	}
	ev.Time = t.now()
	t.journal.Append(ev)
}

// toAmount validates an API-boundary amount and converts it to uint256.
func (t *Token) toAmount(v *big.Int, allowZero bool) (*uint256.Int, error) {
	if v == nil || v.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if !allowZero && v.Sign() == 0 {
		return nil, ErrInvalidAmount
	}
	value, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrInvalidAmount
	}
	return value, nil
}

// capAllows reports whether minting amount keeps the total supply within
// the reserve cap. With no reserve oracle wired there is no cap gate; an
// unusable oracle reading fails closed.
func (t *Token) capAllows(amount *uint256.Int) bool {
	if t.reserve == nil {
		return true
	}
	reading := t.reserve.CurrentCap()
	if reading == nil || reading.Sign() < 0 {
		return false
	}
	ceiling, overflow := uint256.FromBig(reading)
	if overflow {
		// A cap beyond uint256 cannot be exceeded by a uint256 supply.
		return true
	}
	supply := t.ledger.TotalSupply()
	if supply.Gt(ceiling) {
		return false
	}
	headroom := new(uint256.Int).Sub(ceiling, supply)
	return !headroom.Lt(amount)
}

// Name returns the token name.
func (t *Token) Name() string { return t.name }

// Symbol returns the token symbol.
func (t *Token) Symbol() string { return t.symbol }

// Decimals returns the token's decimal places.
func (t *Token) Decimals() uint8 { return t.decimals }

// ChainID returns the chain this instance lives on.
func (t *Token) ChainID() uint64 { return t.chainID }

// Address returns the instance's own address.
func (t *Token) Address() common.Address { return t.address }

// Domain returns the EIP-712 domain approvals must be signed under.
func (t *Token) Domain() typeddata.Domain { return t.domain }

// DomainSeparator returns the EIP-712 domain separator hash.
func (t *Token) DomainSeparator() (common.Hash, error) {
	return t.domain.Separator()
}

// BalanceOf returns the balance of an account.
func (t *Token) BalanceOf(addr common.Address) *big.Int {
	return t.ledger.Balance(addr).ToBig()
}

// TotalSupply returns the total minted supply.
func (t *Token) TotalSupply() *big.Int {
	return t.ledger.TotalSupply().ToBig()
}

// NonceOf returns the next-expected mint approval nonce for an account.
func (t *Token) NonceOf(addr common.Address) uint64 {
	return t.ledger.Nonce(addr)
}

// Allowance returns what spender may transfer on behalf of owner.
func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	return t.ledger.Allowance(owner, spender).ToBig()
}

// IsFrozen reports whether an account is frozen.
func (t *Token) IsFrozen(addr common.Address) bool {
	return t.ledger.IsFrozen(addr)
}

// FrozenAccounts returns every frozen account in a stable order.
func (t *Token) FrozenAccounts() []common.Address {
	return t.ledger.FrozenAccounts()
}

// Paused reports whether the instance is paused.
func (t *Token) Paused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.paused
}

// IsProcessed reports whether a request or correlation id was already
// the basis of a successful credit or burn.
func (t *Token) IsProcessed(id common.Hash) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.processed[id]
}

// HasRole reports whether addr holds role.
func (t *Token) HasRole(role roles.Role, addr common.Address) bool {
	return t.roles.Has(role, addr)
}

// RoleMembers returns the holders of role in a stable order.
func (t *Token) RoleMembers(role roles.Role) []common.Address {
	return t.roles.Members(role)
}

// Relayer returns the address currently registered as the submitting
// relayer, if any.
func (t *Token) Relayer() common.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.relayer
}

// Ledger exposes the underlying value state for snapshotting and state
// export. Mutating it directly bypasses every policy gate; it is meant
// for node tooling, not for transaction paths.
func (t *Token) Ledger() *ledger.Ledger {
	return t.ledger
}

// GrantRole adds addr to role. The caller must hold the role's admin
// role.
func (t *Token) GrantRole(caller common.Address, role roles.Role, addr common.Address) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	if err := t.roles.Grant(caller, role, addr); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.emit(events.Event{
		Kind:         events.KindRoleGranted,
		Account:      addr,
		Counterparty: caller,
		Role:         string(role),
	})
	return nil
}

// RevokeRole removes addr from role. The caller must hold the role's
// admin role.
func (t *Token) RevokeRole(caller common.Address, role roles.Role, addr common.Address) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	if err := t.roles.Revoke(caller, role, addr); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.emit(events.Event{
		Kind:         events.KindRoleRevoked,
		Account:      addr,
		Counterparty: caller,
		Role:         string(role),
	})
	return nil
}

// SetRelayer registers the relayer allowed to submit signed approvals:
// the ISSUER role moves from the previous relayer to the new one.
func (t *Token) SetRelayer(caller, next common.Address) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	if err := t.roles.Require(roles.RoleAdmin, caller); err != nil {
		return err
	}

	previous := t.relayer
	if previous != (common.Address{}) {
		if err := t.roles.Revoke(caller, roles.RoleIssuer, previous); err != nil {
			return err
		}
	}
	if err := t.roles.Grant(caller, roles.RoleIssuer, next); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.relayer = next
	t.emit(events.Event{
		Kind:         events.KindRelayerUpdated,
		Account:      next,
		Counterparty: previous,
	})
	return nil
}

// SetKYCOracle swaps the KYC collaborator. The oracle is mandatory and
// cannot be removed.
func (t *Token) SetKYCOracle(caller common.Address, oracle KYCOracle) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	if err := t.roles.Require(roles.RoleAdmin, caller); err != nil {
		return err
	}
	if oracle == nil {
		return ErrInvalidOracle
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.kyc = oracle
	return nil
}

// SetReserveOracle swaps the reserve-cap collaborator. A nil oracle
// removes the cap gate.
func (t *Token) SetReserveOracle(caller common.Address, oracle ReserveOracle) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	if err := t.roles.Require(roles.RoleAdmin, caller); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.reserve = oracle
	return nil
}

// Pause halts every mint, burn and transfer-class operation. Admin
// toggles that move no value stay available while paused.
func (t *Token) Pause(caller common.Address) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	if err := t.roles.Require(roles.RolePauser, caller); err != nil {
		return err
	}
	if t.paused {
		return ErrContractPaused
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.paused = true
	t.emit(events.Event{Kind: events.KindPaused, Account: caller})
	return nil
}

// Unpause resumes operations.
func (t *Token) Unpause(caller common.Address) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	if err := t.roles.Require(roles.RolePauser, caller); err != nil {
		return err
	}
	if !t.paused {
		return ErrNotPaused
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.paused = false
	t.emit(events.Event{Kind: events.KindUnpaused, Account: caller})
	return nil
}

// Freeze blocks an account from sending and receiving value. Freezing an
// already-frozen account is a no-op.
func (t *Token) Freeze(caller, addr common.Address) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	if err := t.roles.Require(roles.RoleAdmin, caller); err != nil {
		return err
	}
	if t.ledger.IsFrozen(addr) {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.ledger.SetFrozen(addr, true)
	t.emit(events.Event{
		Kind:         events.KindAccountFrozen,
		Account:      addr,
		Counterparty: caller,
	})
	return nil
}

// Unfreeze lifts a freeze. Unfreezing an account that is not frozen is a
// no-op.
func (t *Token) Unfreeze(caller, addr common.Address) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	if err := t.roles.Require(roles.RoleAdmin, caller); err != nil {
		return err
	}
	if !t.ledger.IsFrozen(addr) {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.ledger.SetFrozen(addr, false)
	t.emit(events.Event{
		Kind:         events.KindAccountUnfrozen,
		Account:      addr,
		Counterparty: caller,
	})
	return nil
}

// WipeFrozen burns the entire balance of a frozen account. This is the
// one operation that bypasses the freeze interlock; it exists for
// sanction seizure and only applies to accounts currently frozen.
func (t *Token) WipeFrozen(caller, addr common.Address) (*big.Int, error) {
	if err := t.beginCall(); err != nil {
		return nil, err
	}
	defer t.endCall()

	if t.paused {
		return nil, ErrContractPaused
	}
	if err := t.roles.Require(roles.RoleAdmin, caller); err != nil {
		return nil, err
	}
	if !t.ledger.IsFrozen(addr) {
		return nil, ErrNotFrozen
	}
	balance := t.ledger.Balance(addr)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ledger.Burn(addr, balance); err != nil {
		return nil, err
	}
	t.emit(events.Event{
		Kind:         events.KindFrozenWiped,
		Account:      addr,
		Counterparty: caller,
		Amount:       (*hexutil.Big)(balance.ToBig()),
	})
	return balance.ToBig(), nil
}

// Transfer moves value from the caller to another account.
func (t *Token) Transfer(caller, to common.Address, amount *big.Int) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	value, err := t.toAmount(amount, true)
	if err != nil {
		return err
	}
	if t.paused {
		return ErrContractPaused
	}
	if t.ledger.IsFrozen(caller) || t.ledger.IsFrozen(to) {
		return ErrAccountFrozen
	}
	if t.ledger.Balance(caller).Lt(value) {
		return ErrInsufficientBalance
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ledger.Transfer(caller, to, value); err != nil {
		return err
	}
	t.emit(events.Event{
		Kind:         events.KindTransfer,
		Account:      caller,
		Counterparty: to,
		Amount:       (*hexutil.Big)(value.ToBig()),
	})
	return nil
}

// Approve sets spender's allowance over the caller's balance.
func (t *Token) Approve(caller, spender common.Address, amount *big.Int) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	value, err := t.toAmount(amount, true)
	if err != nil {
		return err
	}
	if t.paused {
		return ErrContractPaused
	}
	if t.ledger.IsFrozen(caller) || t.ledger.IsFrozen(spender) {
		return ErrAccountFrozen
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.ledger.SetAllowance(caller, spender, value)
	t.emit(events.Event{
		Kind:         events.KindApproval,
		Account:      caller,
		Counterparty: spender,
		Amount:       (*hexutil.Big)(value.ToBig()),
	})
	return nil
}

// TransferFrom moves value from one account to another inside the
// caller's allowance.
func (t *Token) TransferFrom(caller, from, to common.Address, amount *big.Int) error {
	if err := t.beginCall(); err != nil {
		return err
	}
	defer t.endCall()

	value, err := t.toAmount(amount, true)
	if err != nil {
		return err
	}
	if t.paused {
		return ErrContractPaused
	}
	if t.ledger.IsFrozen(caller) || t.ledger.IsFrozen(from) || t.ledger.IsFrozen(to) {
		return ErrAccountFrozen
	}
	if t.ledger.Balance(from).Lt(value) {
		return ErrInsufficientBalance
	}
	if t.ledger.Allowance(from, caller).Lt(value) {
		return ErrInsufficientAllowance
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ledger.SpendAllowance(from, caller, value); err != nil {
		return err
	}
	if err := t.ledger.Transfer(from, to, value); err != nil {
		return err
	}
	t.emit(events.Event{
		Kind:         events.KindTransfer,
		Account:      from,
		Counterparty: to,
		Amount:       (*hexutil.Big)(value.ToBig()),
	})
	return nil
}
