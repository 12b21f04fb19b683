// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsdcore/lsd/builtin/reverts"
	"github.com/lsdcore/lsd/builtin/solidity"
	"github.com/lsdcore/lsd/lsd"
	"github.com/lsdcore/lsd/test/datagen"
	"github.com/lsdcore/lsd/test/teststate"
)

func newRoles(t *testing.T) *Roles {
	return New(solidity.NewContext(lsd.BytesToAddress([]byte("policy")), teststate.New(t)))
}

func TestBootstrap(t *testing.T) {
	roles := newRoles(t)
	admin := datagen.RandAddress()

	assert.True(t, errors.Is(roles.Bootstrap(lsd.Address{}), reverts.ErrZeroAddress))
	require.NoError(t, roles.Bootstrap(admin))

	for _, role := range AllRoles {
		assert.NoError(t, roles.Authorize(admin, role), role.String())
	}
	assert.Len(t, roles.sctx.State().Events(), len(AllRoles))
}

func TestGrantRevoke(t *testing.T) {
	roles := newRoles(t)
	admin := datagen.RandAddress()
	oracle := datagen.RandAddress()
	require.NoError(t, roles.Bootstrap(admin))

	err := roles.Authorize(oracle, RoleReportSubmit)
	assert.True(t, errors.Is(err, reverts.ErrUnauthorized))
	assert.Contains(t, err.Error(), "REPORT_SUBMIT_ROLE")

	// only admins grant
	assert.True(t, errors.Is(roles.Grant(oracle, RoleReportSubmit, oracle), reverts.ErrUnauthorized))

	require.NoError(t, roles.Grant(admin, RoleReportSubmit, oracle))
	assert.NoError(t, roles.Authorize(oracle, RoleReportSubmit))
	assert.Error(t, roles.Authorize(oracle, RoleManageQuorum))

	// granting twice emits once
	before := len(roles.sctx.State().Events())
	require.NoError(t, roles.Grant(admin, RoleReportSubmit, oracle))
	assert.Len(t, roles.sctx.State().Events(), before)

	require.NoError(t, roles.Revoke(admin, RoleReportSubmit, oracle))
	assert.True(t, errors.Is(roles.Authorize(oracle, RoleReportSubmit), reverts.ErrUnauthorized))
}

func TestAllowAll(t *testing.T) {
	var a Authorizer = AllowAll{}
	assert.NoError(t, a.Authorize(datagen.RandAddress(), RoleAdmin))
}
