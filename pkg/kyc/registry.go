// Package kyc implements the allow-list registry consulted before any
// mint-class credit of stablecoin value.
package kyc

import (
	"bytes"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/stable-net/stableweb/pkg/events"
)

// Registry errors.
var (
	ErrUnauthorized = errors.New("unauthorized: caller is not the registry admin")
)

// Clock supplies the timestamp recorded on registry events.
type Clock interface {
	Now() uint64
}

// Registry is an admin-gated KYC allow-list. Approval is a prerequisite
// for receiving newly created tokens; it does not gate peer transfers.
type Registry struct {
	admin    common.Address
	approved map[common.Address]bool
	journal  *events.Journal
	clock    Clock

	mu sync.RWMutex
}

// NewRegistry creates a registry administered by admin. The journal may
// be nil, in which case no audit records are emitted; a nil clock falls
// back to wall time.
func NewRegistry(admin common.Address, journal *events.Journal, clock Clock) *Registry {
	return &Registry{
		admin:    admin,
		approved: make(map[common.Address]bool),
		journal:  journal,
		clock:    clock,
	}
}

// Admin returns the current registry admin.
func (r *Registry) Admin() common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.admin
}

// TransferAdmin hands registry administration to a new address.
func (r *Registry) TransferAdmin(caller, next common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.admin {
		return ErrUnauthorized
	}
	r.admin = next
	return nil
}

// Approve marks addr as KYC-approved. Approving an already-approved
// address is a no-op and emits nothing.
func (r *Registry) Approve(caller, addr common.Address) error {
	r.mu.Lock()

	if caller != r.admin {
		r.mu.Unlock()
		return ErrUnauthorized
	}
	if r.approved[addr] {
		r.mu.Unlock()
		return nil
	}
	r.approved[addr] = true
	r.mu.Unlock()

	r.emit(events.KindKYCApproved, caller, addr)
	return nil
}

// Revoke removes addr from the allow-list. Revoking an address that is
// not approved is a no-op and emits nothing.
func (r *Registry) Revoke(caller, addr common.Address) error {
	r.mu.Lock()

	if caller != r.admin {
		r.mu.Unlock()
		return ErrUnauthorized
	}
	if !r.approved[addr] {
		r.mu.Unlock()
		return nil
	}
	delete(r.approved, addr)
	r.mu.Unlock()

	r.emit(events.KindKYCRevoked, caller, addr)
	return nil
}

// IsApproved reports whether addr is on the allow-list.
func (r *Registry) IsApproved(addr common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.approved[addr]
}

// Approved returns the allow-list in a stable order.
func (r *Registry) Approved() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]common.Address, 0, len(r.approved))
	for addr := range r.approved {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

func (r *Registry) emit(kind events.Kind, caller, subject common.Address) {
	if r.journal == nil {
		return
	}
	r.journal.Append(events.Event{
		Kind:         kind,
		Time:         r.now(),
		Account:      subject,
		Counterparty: caller,
	})
}

func (r *Registry) now() uint64 {
	if r.clock != nil {
		return r.clock.Now()
	}
	return uint64(time.Now().Unix())
}
