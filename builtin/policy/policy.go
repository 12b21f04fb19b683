// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package policy implements role based authorization for the builtin components.
package policy

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/lsdcore/lsd/builtin/reverts"
	"github.com/lsdcore/lsd/builtin/solidity"
	"github.com/lsdcore/lsd/log"
	"github.com/lsdcore/lsd/lsd"
)

var logger = log.WithContext("pkg", "policy")

// SetLogger replaces the package logger.
func SetLogger(l log.Logger) { logger = l }

// Role names a permission.
type Role lsd.Bytes32

func NewRole(name string) Role {
	return Role(lsd.Keccak256([]byte(name)))
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return lsd.Bytes32(r).AbbrevString()
}

var (
	RoleAdmin          = NewRole("ADMIN_ROLE")
	RoleStakingControl = NewRole("STAKING_CONTROL_ROLE")
	RoleManageMembers  = NewRole("MANAGE_MEMBERS_ROLE")
	RoleManageQuorum   = NewRole("MANAGE_QUORUM_ROLE")
	RoleReportSubmit   = NewRole("REPORT_SUBMIT_ROLE")

	// AllRoles are granted to the admin at initialization.
	AllRoles = []Role{RoleAdmin, RoleStakingControl, RoleManageMembers, RoleManageQuorum, RoleReportSubmit}

	roleNames = map[Role]string{
		RoleAdmin:          "ADMIN_ROLE",
		RoleStakingControl: "STAKING_CONTROL_ROLE",
		RoleManageMembers:  "MANAGE_MEMBERS_ROLE",
		RoleManageQuorum:   "MANAGE_QUORUM_ROLE",
		RoleReportSubmit:   "REPORT_SUBMIT_ROLE",
	}
)

// Authorizer decides whether caller holds role.
// It returns a reverts.ErrUnauthorized revert on denial, other errors are infrastructure faults.
type Authorizer interface {
	Authorize(caller lsd.Address, role Role) error
}

// AllowAll authorizes every caller.
type AllowAll struct{}

func (AllowAll) Authorize(lsd.Address, Role) error { return nil }

var (
	RoleGrantedEvent = lsd.EventTopic("RoleGranted(bytes32,address,address)")
	RoleRevokedEvent = lsd.EventTopic("RoleRevoked(bytes32,address,address)")
)

type grant struct {
	role    Role
	account lsd.Address
}

func (g grant) Bytes() []byte {
	return append(lsd.Bytes32(g.role).Bytes(), g.account.Bytes()...)
}

// Roles is the state backed Authorizer. Grants are managed by holders of RoleAdmin.
type Roles struct {
	sctx   *solidity.Context
	grants *solidity.Mapping[grant, bool]
}

func New(sctx *solidity.Context) *Roles {
	return &Roles{
		sctx:   sctx,
		grants: solidity.NewMapping[grant, bool](sctx, lsd.BytesToBytes32([]byte("grants"))),
	}
}

func (r *Roles) HasRole(role Role, account lsd.Address) (bool, error) {
	return r.grants.Get(grant{role, account})
}

func (r *Roles) Authorize(caller lsd.Address, role Role) error {
	ok, err := r.HasRole(role, caller)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.Errorf(reverts.ErrUnauthorized, "%s lacks %s", caller, role)
	}
	return nil
}

// Bootstrap grants every role to admin without any check. It is only called while initializing the pool.
func (r *Roles) Bootstrap(admin lsd.Address) error {
	if admin.IsZero() {
		return reverts.ErrZeroAddress
	}
	for _, role := range AllRoles {
		if err := r.set(role, admin, admin, true); err != nil {
			return err
		}
	}
	return nil
}

func (r *Roles) Grant(caller lsd.Address, role Role, account lsd.Address) error {
	if err := r.Authorize(caller, RoleAdmin); err != nil {
		return err
	}
	if account.IsZero() {
		return reverts.ErrZeroAddress
	}
	return r.set(role, account, caller, true)
}

func (r *Roles) Revoke(caller lsd.Address, role Role, account lsd.Address) error {
	if err := r.Authorize(caller, RoleAdmin); err != nil {
		return err
	}
	return r.set(role, account, caller, false)
}

func (r *Roles) set(role Role, account, sender lsd.Address, granted bool) error {
	current, err := r.HasRole(role, account)
	if err != nil {
		return err
	}
	if current == granted {
		return nil
	}

	key := grant{role, account}
	topic := RoleRevokedEvent
	if granted {
		if err := r.grants.Set(key, true); err != nil {
			return err
		}
		topic = RoleGrantedEvent
	} else {
		r.grants.Delete(key)
	}

	data, err := rlp.EncodeToBytes(sender)
	if err != nil {
		return err
	}
	r.sctx.Emit([]lsd.Bytes32{topic, lsd.Bytes32(role), lsd.BytesToBytes32(account.Bytes())}, data)
	logger.Info("role updated", "role", role, "account", account, "granted", granted)
	return nil
}
