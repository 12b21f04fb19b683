// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pool composes the builtin components into the entry points of the
// staking pool. Every entry point runs inside a state checkpoint and either
// applies all of its writes and events or none of them.
package pool

import (
	"github.com/holiman/uint256"

	"github.com/lsdcore/lsd/builtin"
	"github.com/lsdcore/lsd/builtin/accounting"
	"github.com/lsdcore/lsd/builtin/committee"
	"github.com/lsdcore/lsd/builtin/ledger"
	"github.com/lsdcore/lsd/builtin/policy"
	"github.com/lsdcore/lsd/builtin/ratelimit"
	"github.com/lsdcore/lsd/builtin/reverts"
	"github.com/lsdcore/lsd/builtin/solidity"
	"github.com/lsdcore/lsd/log"
	"github.com/lsdcore/lsd/lsd"
	"github.com/lsdcore/lsd/state"
)

var (
	logger = log.WithContext("pkg", "pool")

	slotSchemaVersion = lsd.BytesToBytes32([]byte("schema-version"))
)

func SetLogger(l log.Logger) {
	logger = l
}

// StakeLimit is the initial stake rate limit.
type StakeLimit struct {
	MaxLimit       *uint256.Int
	GrowthPerBlock *uint256.Int
}

// Params initializes a pool.
type Params struct {
	Admin       lsd.Address // granted every role
	BlockNumber uint64
	Limits      accounting.Limits
	StakeLimit  *StakeLimit // nil leaves staking unlimited
	Members     []lsd.Address
	Quorum      uint64
}

// Pool is the facade of the staking pool.
type Pool struct {
	state         *state.State
	sctx          *solidity.Context
	schemaVersion *solidity.Value[uint64]

	roles      *policy.Roles
	ledger     *ledger.Ledger
	limiter    *ratelimit.Limiter
	committee  *committee.Committee
	reconciler *accounting.Reconciler

	collaborators accounting.Collaborators
	allocator     accounting.ValidatorAllocator
}

// New create a new instance. allocator may be nil when Deposit is not used.
func New(state *state.State, collaborators accounting.Collaborators, allocator accounting.ValidatorAllocator) *Pool {
	sctx := solidity.NewContext(builtin.Pool.Address, state)
	roles := builtin.Policy.WithState(state)
	return &Pool{
		state:         state,
		sctx:          sctx,
		schemaVersion: solidity.NewValue[uint64](sctx, slotSchemaVersion),
		roles:         roles,
		ledger:        builtin.Ledger.WithState(state),
		limiter:       builtin.RateLimit.WithState(state, roles),
		committee:     builtin.Committee.WithState(state, roles),
		reconciler:    builtin.Accounting.WithState(state, roles),
		collaborators: collaborators,
		allocator:     allocator,
	}
}

func (p *Pool) Roles() *policy.Roles               { return p.roles }
func (p *Pool) Ledger() *ledger.Ledger             { return p.ledger }
func (p *Pool) Limiter() *ratelimit.Limiter        { return p.limiter }
func (p *Pool) Committee() *committee.Committee    { return p.committee }
func (p *Pool) Reconciler() *accounting.Reconciler { return p.reconciler }

// run executes fn inside a checkpoint, reverting every write and event of fn on error.
func (p *Pool) run(op string, fn func() error) error {
	checkpoint := p.state.NewCheckpoint()
	if err := fn(); err != nil {
		p.state.RevertTo(checkpoint)
		metricEntryPoints().AddWithLabel(1, map[string]string{"op": op, "result": "reverted"})
		if reverts.IsRevertErr(err) {
			logger.Debug("entry point reverted", "op", op, "err", err)
		} else {
			logger.Warn("entry point failed", "op", op, "err", err)
		}
		return err
	}
	metricEntryPoints().AddWithLabel(1, map[string]string{"op": op, "result": "applied"})
	return nil
}

// runInitialized is run for entry points that need an initialized schema.
func (p *Pool) runInitialized(op string, fn func() error) error {
	return p.run(op, func() error {
		if err := p.requireInitialized(); err != nil {
			return err
		}
		return fn()
	})
}

func (p *Pool) requireInitialized() error {
	version, err := p.schemaVersion.Get()
	if err != nil {
		return err
	}
	if version == 0 {
		return reverts.ErrNotInitialized
	}
	if version != LatestSchemaVersion() {
		return reverts.Errorf(reverts.ErrNotInitialized, "schema version %d needs migration to %d", version, LatestSchemaVersion())
	}
	return nil
}

//
// Getters - no state change
//

func (p *Pool) SchemaVersion() (uint64, error) {
	return p.schemaVersion.Get()
}

func (p *Pool) TotalPooledValue() (*uint256.Int, error) {
	return p.ledger.TotalPooledValue()
}

func (p *Pool) TotalShares() (*uint256.Int, error) {
	return p.ledger.TotalShares()
}

func (p *Pool) SharesOf(holder lsd.Address) (*uint256.Int, error) {
	return p.ledger.SharesOf(holder)
}

// BalanceOf returns the pooled value owned by holder.
func (p *Pool) BalanceOf(holder lsd.Address) (*uint256.Int, error) {
	shares, err := p.ledger.SharesOf(holder)
	if err != nil {
		return nil, err
	}
	return p.ledger.ValueOfShares(shares)
}

func (p *Pool) CurrentStakeLimit(blockNumber uint64) (*uint256.Int, error) {
	return p.limiter.CurrentAvailable(blockNumber)
}

//
// Setters - state change
//

// Initialize bootstraps the roles and the configuration of a new pool.
func (p *Pool) Initialize(params *Params) error {
	return p.run("initialize", func() error {
		version, err := p.schemaVersion.Get()
		if err != nil {
			return err
		}
		if version != 0 {
			return reverts.Errorf(reverts.ErrAlreadyInitialized, "schema version %d", version)
		}

		admin := params.Admin
		if err := p.roles.Bootstrap(admin); err != nil {
			return err
		}
		if err := p.reconciler.SetLimits(admin, params.Limits); err != nil {
			return err
		}
		if sl := params.StakeLimit; sl != nil {
			if err := p.limiter.SetLimit(admin, params.BlockNumber, sl.MaxLimit, sl.GrowthPerBlock); err != nil {
				return err
			}
		}
		for _, m := range params.Members {
			if err := p.committee.AddMember(admin, m); err != nil {
				return err
			}
		}
		if err := p.committee.SetQuorum(admin, params.Quorum); err != nil {
			return err
		}
		if err := p.schemaVersion.Set(1); err != nil {
			return err
		}
		p.emitInitialized(admin, 1)
		logger.Info("pool initialized", "admin", admin, "members", len(params.Members), "quorum", params.Quorum)
		return nil
	})
}

// Submit stakes value on behalf of sender and returns the minted shares.
func (p *Pool) Submit(sender lsd.Address, blockNumber uint64, value *uint256.Int) (*uint256.Int, error) {
	var shares *uint256.Int
	err := p.runInitialized("submit", func() error {
		if value == nil || value.IsZero() {
			return reverts.Errorf(reverts.ErrInvalidAmount, "zero value")
		}
		if err := p.limiter.Consume(blockNumber, value); err != nil {
			return err
		}
		minted, err := p.ledger.Mint(sender, value)
		if err != nil {
			return err
		}
		if err := p.ledger.AddBuffered(value); err != nil {
			return err
		}
		if err := p.emitSubmitted(sender, value, minted); err != nil {
			return err
		}
		shares = minted
		return nil
	})
	return shares, err
}

// Deposit moves up to maxCount deposits worth of buffered value to new validators
// and returns the granted count and the key material of each validator.
func (p *Pool) Deposit(caller lsd.Address, maxCount uint64) (uint64, [][]byte, error) {
	var (
		granted uint64
		keys    [][]byte
	)
	err := p.runInitialized("deposit", func() error {
		if err := p.roles.Authorize(caller, policy.RoleStakingControl); err != nil {
			return err
		}
		if p.allocator == nil {
			return reverts.Errorf(reverts.ErrInvalidConfig, "no validator allocator")
		}
		buffered, err := p.ledger.Buffered()
		if err != nil {
			return err
		}
		count := new(uint256.Int).Div(buffered, lsd.DepositSize)
		if count.IsUint64() && count.Uint64() < maxCount {
			maxCount = count.Uint64()
		}
		if maxCount == 0 {
			return nil
		}

		g, k, err := p.allocator.Allocate(maxCount)
		if err != nil {
			return err
		}
		if g > maxCount {
			return reverts.Errorf(reverts.ErrInvalidConfig, "allocator granted %d of %d", g, maxCount)
		}
		if g == 0 {
			return nil
		}
		value := new(uint256.Int).Mul(lsd.DepositSize, uint256.NewInt(g))
		if err := p.ledger.SubBuffered(value); err != nil {
			return err
		}
		if err := p.ledger.AddDeposited(g); err != nil {
			return err
		}
		if err := p.emitDeposited(g, value); err != nil {
			return err
		}
		logger.Info("validators deposited", "count", g, "value", value)
		granted, keys = g, k
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return granted, keys, nil
}

func (p *Pool) TransferShares(from, to lsd.Address, shares *uint256.Int) error {
	return p.runInitialized("transfer-shares", func() error {
		return p.ledger.TransferShares(from, to, shares)
	})
}

func (p *Pool) GrantRole(caller lsd.Address, role policy.Role, account lsd.Address) error {
	return p.runInitialized("grant-role", func() error {
		return p.roles.Grant(caller, role, account)
	})
}

func (p *Pool) RevokeRole(caller lsd.Address, role policy.Role, account lsd.Address) error {
	return p.runInitialized("revoke-role", func() error {
		return p.roles.Revoke(caller, role, account)
	})
}

func (p *Pool) SetStakeLimit(caller lsd.Address, blockNumber uint64, maxLimit, growthPerBlock *uint256.Int) error {
	return p.runInitialized("set-stake-limit", func() error {
		return p.limiter.SetLimit(caller, blockNumber, maxLimit, growthPerBlock)
	})
}

func (p *Pool) RemoveStakeLimit(caller lsd.Address) error {
	return p.runInitialized("remove-stake-limit", func() error {
		return p.limiter.RemoveLimit(caller)
	})
}

func (p *Pool) PauseStaking(caller lsd.Address) error {
	return p.runInitialized("pause-staking", func() error {
		return p.limiter.Pause(caller)
	})
}

func (p *Pool) ResumeStaking(caller lsd.Address) error {
	return p.runInitialized("resume-staking", func() error {
		return p.limiter.Resume(caller)
	})
}

func (p *Pool) SetLimits(caller lsd.Address, limits accounting.Limits) error {
	return p.runInitialized("set-limits", func() error {
		return p.reconciler.SetLimits(caller, limits)
	})
}

func (p *Pool) AddMember(caller, member lsd.Address) error {
	return p.runInitialized("add-member", func() error {
		return p.committee.AddMember(caller, member)
	})
}

func (p *Pool) RemoveMember(caller, member lsd.Address) error {
	return p.runInitialized("remove-member", func() error {
		return p.committee.RemoveMember(caller, member)
	})
}

func (p *Pool) SetQuorum(caller lsd.Address, quorum uint64) error {
	return p.runInitialized("set-quorum", func() error {
		return p.committee.SetQuorum(caller, quorum)
	})
}

// SubmitReport records the report hash of member for epoch.
func (p *Pool) SubmitReport(member lsd.Address, epoch uint64, hash lsd.Bytes32) error {
	return p.runInitialized("submit-report", func() error {
		return p.committee.SubmitReport(member, epoch, hash)
	})
}

// Reconcile applies report, which must be the consensus report of the committee,
// and closes its round.
func (p *Pool) Reconcile(caller lsd.Address, report *committee.Report) (*accounting.Result, error) {
	var result *accounting.Result
	err := p.runInitialized("reconcile", func() error {
		hash, epoch, ok, err := p.committee.ConsensusReport()
		if err != nil {
			return err
		}
		if !ok {
			return reverts.ErrNoConsensus
		}
		if report.EpochID != epoch || report.Hash() != hash {
			return reverts.Errorf(reverts.ErrNoConsensus, "report of epoch %d does not match consensus %s of epoch %d",
				report.EpochID, hash.AbbrevString(), epoch)
		}
		if err := p.committee.MarkProcessed(); err != nil {
			return err
		}

		res, err := p.reconciler.Reconcile(caller, inputOf(report), p.collaborators)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	return result, err
}

func inputOf(r *committee.Report) *accounting.Input {
	return &accounting.Input{
		TimeElapsed:        r.TimeElapsed,
		ReportedValidators: r.ReportedValidators,
		ExternalBalance:    r.ExternalBalance,
		WithdrawalVault:    r.WithdrawalVault,
		RewardsVault:       r.RewardsVault,
		FinalizeUpToID:     r.FinalizeUpToID,
		FinalizationRate:   r.FinalizationRate,
	}
}
