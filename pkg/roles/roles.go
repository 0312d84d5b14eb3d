// Package roles implements role-based access control for the platform's
// contract instances.
package roles

import (
	"bytes"
	"errors"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Role names a capability grant. Separation of duties is expressed by
// composition: an address may hold several roles.
type Role string

// Platform roles.
const (
	RoleAdmin  Role = "ADMIN"
	RoleIssuer Role = "ISSUER"
	RoleOracle Role = "ORACLE"
	RoleBridge Role = "BRIDGE"
	RolePauser Role = "PAUSER"
)

// Access control errors.
var (
	ErrUnauthorized = errors.New("unauthorized: caller lacks required role")
	ErrUnknownRole  = errors.New("unknown role")
)

// All returns every role the platform defines.
func All() []Role {
	return []Role{RoleAdmin, RoleIssuer, RoleOracle, RoleBridge, RolePauser}
}

// Valid reports whether r names a platform role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleIssuer, RoleOracle, RoleBridge, RolePauser:
		return true
	}
	return false
}

// Set tracks role membership. Every role, ADMIN included, is administered
// by ADMIN; the admin table is fixed at construction.
type Set struct {
	members map[Role]map[common.Address]bool
	admins  map[Role]Role

	mu sync.RWMutex
}

// NewSet creates a role set with addr as the initial ADMIN.
func NewSet(admin common.Address) *Set {
	members := make(map[Role]map[common.Address]bool)
	admins := make(map[Role]Role)
	for _, role := range All() {
		members[role] = make(map[common.Address]bool)
		admins[role] = RoleAdmin
	}
	members[RoleAdmin][admin] = true

	return &Set{
		members: members,
		admins:  admins,
	}
}

// Has reports whether addr holds role.
func (s *Set) Has(role Role, addr common.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.members[role][addr]
}

// Require returns ErrUnauthorized unless addr holds role.
func (s *Set) Require(role Role, addr common.Address) error {
	if !s.Has(role, addr) {
		return ErrUnauthorized
	}
	return nil
}

// AdminRole returns the role that administers role.
func (s *Set) AdminRole(role Role) Role {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.admins[role]
}

// Grant adds addr to role. The caller must hold the role's admin role.
// Granting an already-held role is a no-op.
func (s *Set) Grant(caller common.Address, role Role, addr common.Address) error {
	if !role.Valid() {
		return ErrUnknownRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.members[s.admins[role]][caller] {
		return ErrUnauthorized
	}
	s.members[role][addr] = true
	return nil
}

// Revoke removes addr from role. The caller must hold the role's admin
// role. Revoking a role not held is a no-op.
func (s *Set) Revoke(caller common.Address, role Role, addr common.Address) error {
	if !role.Valid() {
		return ErrUnknownRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.members[s.admins[role]][caller] {
		return ErrUnauthorized
	}
	delete(s.members[role], addr)
	return nil
}

// Members returns the holders of role in a stable order.
func (s *Set) Members(role Role) []common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]common.Address, 0, len(s.members[role]))
	for addr := range s.members[role] {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
