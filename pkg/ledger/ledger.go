// Package ledger provides the account value state backing a token
// instance: balances, total supply, mint nonces, freeze flags and
// spending allowances.
package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Ledger errors.
var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrAmountOverflow        = errors.New("amount overflows uint256")
	ErrSupplyMismatch        = errors.New("dump total supply does not match balances")
)

// maxUint256 marks the unlimited-allowance convention.
var maxUint256 = new(uint256.Int).SetAllOne()

// accountState holds the value state of a single account.
type accountState struct {
	Balance    *uint256.Int
	Nonce      uint64
	Frozen     bool
	Allowances map[common.Address]*uint256.Int
}

func (a *accountState) copy() *accountState {
	copied := &accountState{
		Balance: a.Balance.Clone(),
		Nonce:   a.Nonce,
		Frozen:  a.Frozen,
	}
	if len(a.Allowances) > 0 {
		copied.Allowances = make(map[common.Address]*uint256.Int, len(a.Allowances))
		for spender, amount := range a.Allowances {
			copied.Allowances[spender] = amount.Clone()
		}
	}
	return copied
}

// snapshot holds a point-in-time capture of the ledger.
type snapshot struct {
	id       int
	accounts map[common.Address]*accountState
	supply   *uint256.Int
}

// Ledger is the in-memory value state of one token instance. All amounts
// are uint256; balances can never go negative and the sum of balances
// always equals the total supply.
type Ledger struct {
	accounts   map[common.Address]*accountState
	supply     *uint256.Int
	snapshots  []*snapshot
	nextSnapID int

	mu sync.RWMutex
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		accounts:  make(map[common.Address]*accountState),
		supply:    uint256.NewInt(0),
		snapshots: make([]*snapshot, 0),
	}
}

func (l *Ledger) getOrCreateAccount(addr common.Address) *accountState {
	if acc, exists := l.accounts[addr]; exists {
		return acc
	}
	acc := &accountState{Balance: uint256.NewInt(0)}
	l.accounts[addr] = acc
	return acc
}

// Balance returns the balance of an account.
func (l *Ledger) Balance(addr common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if acc, exists := l.accounts[addr]; exists {
		return acc.Balance.Clone()
	}
	return uint256.NewInt(0)
}

// TotalSupply returns the total minted supply.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.supply.Clone()
}

// Mint credits newly created value to an account and grows the supply.
func (l *Ledger) Mint(addr common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	newSupply := new(uint256.Int)
	if _, overflow := newSupply.AddOverflow(l.supply, amount); overflow {
		return ErrAmountOverflow
	}

	acc := l.getOrCreateAccount(addr)
	acc.Balance = new(uint256.Int).Add(acc.Balance, amount)
	l.supply = newSupply
	return nil
}

// Burn destroys value held by an account and shrinks the supply.
func (l *Ledger) Burn(addr common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.getOrCreateAccount(addr)
	if acc.Balance.Lt(amount) {
		return ErrInsufficientBalance
	}
	acc.Balance = new(uint256.Int).Sub(acc.Balance, amount)
	l.supply = new(uint256.Int).Sub(l.supply, amount)
	return nil
}

// Transfer moves value between accounts without changing the supply.
func (l *Ledger) Transfer(from, to common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	src := l.getOrCreateAccount(from)
	if src.Balance.Lt(amount) {
		return ErrInsufficientBalance
	}
	src.Balance = new(uint256.Int).Sub(src.Balance, amount)

	dst := l.getOrCreateAccount(to)
	dst.Balance = new(uint256.Int).Add(dst.Balance, amount)
	return nil
}

// Nonce returns the next expected mint-approval nonce for an account.
func (l *Ledger) Nonce(addr common.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if acc, exists := l.accounts[addr]; exists {
		return acc.Nonce
	}
	return 0
}

// IncrementNonce consumes the current nonce and returns the new value.
func (l *Ledger) IncrementNonce(addr common.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.getOrCreateAccount(addr)
	acc.Nonce++
	return acc.Nonce
}

// SetNonce overwrites the nonce of an account.
func (l *Ledger) SetNonce(addr common.Address, nonce uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.getOrCreateAccount(addr).Nonce = nonce
}

// IsFrozen reports whether an account is frozen.
func (l *Ledger) IsFrozen(addr common.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if acc, exists := l.accounts[addr]; exists {
		return acc.Frozen
	}
	return false
}

// SetFrozen toggles the freeze flag of an account.
func (l *Ledger) SetFrozen(addr common.Address, frozen bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.getOrCreateAccount(addr).Frozen = frozen
}

// FrozenAccounts returns every frozen account in a stable order.
func (l *Ledger) FrozenAccounts() []common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]common.Address, 0)
	for addr, acc := range l.accounts {
		if acc.Frozen {
			out = append(out, addr)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

// Allowance returns what spender may still transfer on behalf of owner.
func (l *Ledger) Allowance(owner, spender common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if acc, exists := l.accounts[owner]; exists && acc.Allowances != nil {
		if amount, ok := acc.Allowances[spender]; ok {
			return amount.Clone()
		}
	}
	return uint256.NewInt(0)
}

// SetAllowance overwrites spender's allowance from owner.
func (l *Ledger) SetAllowance(owner, spender common.Address, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.getOrCreateAccount(owner)
	if acc.Allowances == nil {
		acc.Allowances = make(map[common.Address]*uint256.Int)
	}
	acc.Allowances[spender] = amount.Clone()
}

// SpendAllowance consumes part of spender's allowance from owner. An
// allowance of max uint256 is treated as unlimited and never shrinks.
func (l *Ledger) SpendAllowance(owner, spender common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.getOrCreateAccount(owner)
	var current *uint256.Int
	if acc.Allowances != nil {
		current = acc.Allowances[spender]
	}
	if current == nil {
		current = uint256.NewInt(0)
	}
	if current.Eq(maxUint256) {
		return nil
	}
	if current.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if acc.Allowances == nil {
		acc.Allowances = make(map[common.Address]*uint256.Int)
	}
	acc.Allowances[spender] = new(uint256.Int).Sub(current, amount)
	return nil
}

// Snapshot creates an in-memory snapshot for revert.
func (l *Ledger) Snapshot() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts := make(map[common.Address]*accountState, len(l.accounts))
	for addr, acc := range l.accounts {
		accounts[addr] = acc.copy()
	}

	snap := &snapshot{
		id:       l.nextSnapID,
		accounts: accounts,
		supply:   l.supply.Clone(),
	}
	l.snapshots = append(l.snapshots, snap)
	l.nextSnapID++

	return snap.id
}

// RevertToSnapshot restores a previous snapshot. Reverting discards the
// snapshot and every later one; an unknown id is ignored.
func (l *Ledger) RevertToSnapshot(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapIdx := -1
	for i, snap := range l.snapshots {
		if snap.id == id {
			snapIdx = i
			break
		}
	}
	if snapIdx == -1 {
		return
	}

	snap := l.snapshots[snapIdx]
	l.accounts = make(map[common.Address]*accountState, len(snap.accounts))
	for addr, acc := range snap.accounts {
		l.accounts[addr] = acc.copy()
	}
	l.supply = snap.supply.Clone()
	l.snapshots = l.snapshots[:snapIdx]
}

// AccountDump represents an account in a ledger dump.
type AccountDump struct {
	Balance    string            `json:"balance"`
	Nonce      uint64            `json:"nonce,omitempty"`
	Frozen     bool              `json:"frozen,omitempty"`
	Allowances map[string]string `json:"allowances,omitempty"`
}

// Dump represents a complete ledger dump.
type Dump struct {
	TotalSupply string                 `json:"totalSupply"`
	Accounts    map[string]AccountDump `json:"accounts"`
}

// Dump exports the ledger as a serializable structure.
func (l *Ledger) Dump() *Dump {
	l.mu.RLock()
	defer l.mu.RUnlock()

	dump := &Dump{
		TotalSupply: l.supply.Hex(),
		Accounts:    make(map[string]AccountDump),
	}
	for addr, acc := range l.accounts {
		accountDump := AccountDump{
			Balance: acc.Balance.Hex(),
			Nonce:   acc.Nonce,
			Frozen:  acc.Frozen,
		}
		if len(acc.Allowances) > 0 {
			accountDump.Allowances = make(map[string]string)
			for spender, amount := range acc.Allowances {
				accountDump.Allowances[spender.Hex()] = amount.Hex()
			}
		}
		dump.Accounts[addr.Hex()] = accountDump
	}
	return dump
}

// DumpJSON exports the ledger as JSON.
func (l *Ledger) DumpJSON() ([]byte, error) {
	return json.Marshal(l.Dump())
}

// Load replaces the ledger contents with a dump. The dump's total supply
// must equal the sum of its balances.
func (l *Ledger) Load(dump *Dump) error {
	if dump == nil {
		return nil
	}

	accounts := make(map[common.Address]*accountState)
	sum := uint256.NewInt(0)
	for addrHex, accDump := range dump.Accounts {
		addr := common.HexToAddress(addrHex)

		balance := uint256.NewInt(0)
		if accDump.Balance != "" {
			parsed, err := uint256.FromHex(accDump.Balance)
			if err != nil {
				return err
			}
			balance = parsed
		}
		sum = new(uint256.Int).Add(sum, balance)

		acc := &accountState{
			Balance: balance,
			Nonce:   accDump.Nonce,
			Frozen:  accDump.Frozen,
		}
		for spenderHex, amountHex := range accDump.Allowances {
			amount, err := uint256.FromHex(amountHex)
			if err != nil {
				return err
			}
			if acc.Allowances == nil {
				acc.Allowances = make(map[common.Address]*uint256.Int)
			}
			acc.Allowances[common.HexToAddress(spenderHex)] = amount
		}
		accounts[addr] = acc
	}

	supply := sum
	if dump.TotalSupply != "" {
		parsed, err := uint256.FromHex(dump.TotalSupply)
		if err != nil {
			return err
		}
		if !parsed.Eq(sum) {
			return ErrSupplyMismatch
		}
		supply = parsed
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts = accounts
	l.supply = supply
	l.snapshots = make([]*snapshot, 0)
	return nil
}

// LoadJSON replaces the ledger contents with a JSON dump.
func (l *Ledger) LoadJSON(data []byte) error {
	var dump Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return err
	}
	return l.Load(&dump)
}

// Clear removes all accounts, supply and snapshots.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts = make(map[common.Address]*accountState)
	l.supply = uint256.NewInt(0)
	l.snapshots = make([]*snapshot, 0)
	l.nextSnapID = 0
}

// AccountCount returns the number of accounts with recorded state.
func (l *Ledger) AccountCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.accounts)
}
