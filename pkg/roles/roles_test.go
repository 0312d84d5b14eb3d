package roles

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	issuer   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	outsider = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func TestNewSet(t *testing.T) {
	set := NewSet(admin)
	require.NotNil(t, set)

	// The constructor seeds exactly one ADMIN
	assert.True(t, set.Has(RoleAdmin, admin))
	assert.False(t, set.Has(RoleIssuer, admin))
	assert.False(t, set.Has(RoleAdmin, outsider))
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleOracle.Valid())
	assert.True(t, RolePauser.Valid())
	assert.False(t, Role("MINTER").Valid())
}

func TestSet_Grant(t *testing.T) {
	set := NewSet(admin)

	err := set.Grant(admin, RoleIssuer, issuer)
	require.NoError(t, err)
	assert.True(t, set.Has(RoleIssuer, issuer))

	// Granting twice is a no-op
	err = set.Grant(admin, RoleIssuer, issuer)
	require.NoError(t, err)
	assert.True(t, set.Has(RoleIssuer, issuer))
}

func TestSet_Grant_Unauthorized(t *testing.T) {
	set := NewSet(admin)

	// Non-admin cannot grant
	err := set.Grant(outsider, RoleIssuer, issuer)
	assert.Equal(t, ErrUnauthorized, err)
	assert.False(t, set.Has(RoleIssuer, issuer))

	// Holding the target role itself is not enough
	require.NoError(t, set.Grant(admin, RoleIssuer, issuer))
	err = set.Grant(issuer, RoleIssuer, outsider)
	assert.Equal(t, ErrUnauthorized, err)
}

func TestSet_Grant_UnknownRole(t *testing.T) {
	set := NewSet(admin)

	err := set.Grant(admin, Role("MINTER"), issuer)
	assert.Equal(t, ErrUnknownRole, err)
}

func TestSet_Revoke(t *testing.T) {
	set := NewSet(admin)
	require.NoError(t, set.Grant(admin, RoleIssuer, issuer))

	err := set.Revoke(admin, RoleIssuer, issuer)
	require.NoError(t, err)
	assert.False(t, set.Has(RoleIssuer, issuer))

	// Revoking a role not held is a no-op
	err = set.Revoke(admin, RoleIssuer, issuer)
	require.NoError(t, err)
}

func TestSet_Revoke_Unauthorized(t *testing.T) {
	set := NewSet(admin)
	require.NoError(t, set.Grant(admin, RoleIssuer, issuer))

	err := set.Revoke(outsider, RoleIssuer, issuer)
	assert.Equal(t, ErrUnauthorized, err)
	assert.True(t, set.Has(RoleIssuer, issuer))
}

func TestSet_Require(t *testing.T) {
	set := NewSet(admin)

	assert.NoError(t, set.Require(RoleAdmin, admin))
	assert.Equal(t, ErrUnauthorized, set.Require(RoleAdmin, outsider))
}

func TestSet_AdminRole(t *testing.T) {
	set := NewSet(admin)

	// Every role is administered by ADMIN, including ADMIN itself
	for _, role := range All() {
		assert.Equal(t, RoleAdmin, set.AdminRole(role))
	}
}

func TestSet_Members_Sorted(t *testing.T) {
	set := NewSet(admin)
	a := common.HexToAddress("0x9999999999999999999999999999999999999999")
	b := common.HexToAddress("0x0000000000000000000000000000000000000001")

	require.NoError(t, set.Grant(admin, RoleOracle, a))
	require.NoError(t, set.Grant(admin, RoleOracle, b))

	members := set.Members(RoleOracle)
	require.Len(t, members, 2)
	assert.Equal(t, b, members[0])
	assert.Equal(t, a, members[1])
}

func TestSet_AdminCanRenounceSelf(t *testing.T) {
	set := NewSet(admin)

	err := set.Revoke(admin, RoleAdmin, admin)
	require.NoError(t, err)

	// Nobody can grant anything afterwards
	err = set.Grant(admin, RoleIssuer, issuer)
	assert.Equal(t, ErrUnauthorized, err)
}
