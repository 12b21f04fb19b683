// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/lsdcore/lsd/builtin/accounting"
	"github.com/lsdcore/lsd/builtin/committee"
	"github.com/lsdcore/lsd/builtin/ledger"
	"github.com/lsdcore/lsd/builtin/policy"
	"github.com/lsdcore/lsd/builtin/ratelimit"
	"github.com/lsdcore/lsd/builtin/solidity"
	"github.com/lsdcore/lsd/lsd"
	"github.com/lsdcore/lsd/state"
)

// Builtin components binding.
var (
	Policy     = &policyContract{newContract("Policy")}
	Ledger     = &ledgerContract{newContract("Ledger")}
	RateLimit  = &rateLimitContract{newContract("RateLimit")}
	Committee  = &committeeContract{newContract("Committee")}
	Accounting = &accountingContract{newContract("Accounting")}
	Pool       = newContract("Pool")
)

type (
	policyContract     struct{ *contract }
	ledgerContract     struct{ *contract }
	rateLimitContract  struct{ *contract }
	committeeContract  struct{ *contract }
	accountingContract struct{ *contract }
)

// Addresses lists the address of every component.
func Addresses() []lsd.Address {
	return []lsd.Address{
		Policy.Address,
		Ledger.Address,
		RateLimit.Address,
		Committee.Address,
		Accounting.Address,
		Pool.Address,
	}
}

func (p *policyContract) WithState(state *state.State) *policy.Roles {
	return policy.New(solidity.NewContext(p.Address, state))
}

func (l *ledgerContract) WithState(state *state.State) *ledger.Ledger {
	return ledger.New(l.Address, state)
}

func (r *rateLimitContract) WithState(state *state.State, auth policy.Authorizer) *ratelimit.Limiter {
	return ratelimit.New(r.Address, state, auth)
}

func (c *committeeContract) WithState(state *state.State, auth policy.Authorizer) *committee.Committee {
	return committee.New(c.Address, state, auth)
}

func (a *accountingContract) WithState(state *state.State, auth policy.Authorizer) *accounting.Reconciler {
	return accounting.New(a.Address, state, auth, Ledger.WithState(state))
}
