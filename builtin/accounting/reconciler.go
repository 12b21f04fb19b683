// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounting

import (
	"math/big"
	"time"

	"github.com/holiman/uint256"

	"github.com/lsdcore/lsd/builtin/ledger"
	"github.com/lsdcore/lsd/builtin/policy"
	"github.com/lsdcore/lsd/builtin/rebase"
	"github.com/lsdcore/lsd/builtin/reverts"
	"github.com/lsdcore/lsd/builtin/solidity"
	"github.com/lsdcore/lsd/log"
	"github.com/lsdcore/lsd/lsd"
	"github.com/lsdcore/lsd/state"
)

var (
	logger = log.WithContext("pkg", "accounting")

	slotMaxPositiveRebase    = lsd.BytesToBytes32([]byte("max-positive-rebase"))
	slotAnnualIncreaseBP     = lsd.BytesToBytes32([]byte("annual-increase-bp"))
	slotPendingWithdrawBurn  = lsd.BytesToBytes32([]byte("pending-withdrawal-burn"))
	slotLastReportedBalances = lsd.BytesToBytes32([]byte("last-reconciliation"))
)

func SetLogger(l log.Logger) {
	logger = l
}

// Input is one external state report.
type Input struct {
	TimeElapsed        uint64 // seconds since the previous report, 0 skips the growth check
	ReportedValidators uint64
	ExternalBalance    *uint256.Int
	WithdrawalVault    *uint256.Int
	RewardsVault       *uint256.Int
	FinalizeUpToID     uint64 // 0 finalizes nothing
	FinalizationRate   *uint256.Int
}

// Result is the outcome of a reconciliation.
type Result struct {
	PostPooledValue       *uint256.Int
	PostShares            *uint256.Int
	WithdrawalsProcessed  *uint256.Int
	ExtraRewardsProcessed *uint256.Int
	WithdrawalValue       *uint256.Int
	FeeShares             *uint256.Int
	SharesBurnt           *uint256.Int
}

// Snapshot records the last applied reconciliation.
type Snapshot struct {
	PreValue   *uint256.Int
	PreShares  *uint256.Int
	PostValue  *uint256.Int
	PostShares *uint256.Int
}

// Limits are the sanity bounds of a reconciliation.
type Limits struct {
	MaxPositiveRebase uint64 // parts per lsd.RebasePrecision
	AnnualIncreaseBP  uint64 // 0 disables the check
}

// Reconciler applies external state reports to the ledger.
type Reconciler struct {
	sctx   *solidity.Context
	auth   policy.Authorizer
	ledger *ledger.Ledger

	maxPositiveRebase   *solidity.Value[uint64]
	annualIncreaseBP    *solidity.Value[uint64]
	pendingWithdrawBurn *solidity.Uint256
	last                *solidity.Value[*Snapshot]
}

// New create a new instance.
func New(addr lsd.Address, state *state.State, auth policy.Authorizer, ledger *ledger.Ledger) *Reconciler {
	sctx := solidity.NewContext(addr, state)
	return &Reconciler{
		sctx:                sctx,
		auth:                auth,
		ledger:              ledger,
		maxPositiveRebase:   solidity.NewValue[uint64](sctx, slotMaxPositiveRebase),
		annualIncreaseBP:    solidity.NewValue[uint64](sctx, slotAnnualIncreaseBP),
		pendingWithdrawBurn: solidity.NewUint256(sctx, slotPendingWithdrawBurn),
		last:                solidity.NewValue[*Snapshot](sctx, slotLastReportedBalances),
	}
}

//
// Getters - no state change
//

func (r *Reconciler) Limits() (*Limits, error) {
	maxRebase, err := r.maxPositiveRebase.Get()
	if err != nil {
		return nil, err
	}
	annual, err := r.annualIncreaseBP.Get()
	if err != nil {
		return nil, err
	}
	return &Limits{MaxPositiveRebase: maxRebase, AnnualIncreaseBP: annual}, nil
}

// PendingWithdrawalBurn is the count of finalized withdrawal shares still waiting to be burnt.
func (r *Reconciler) PendingWithdrawalBurn() (*uint256.Int, error) {
	return r.pendingWithdrawBurn.Get()
}

// LastSnapshot returns the totals around the last reconciliation, nil before the first one.
func (r *Reconciler) LastSnapshot() (*Snapshot, error) {
	return r.last.Get()
}

//
// Setters - state change
//

func (r *Reconciler) SetLimits(caller lsd.Address, limits Limits) error {
	if err := r.auth.Authorize(caller, policy.RoleAdmin); err != nil {
		return err
	}
	if limits.MaxPositiveRebase == 0 {
		return reverts.Errorf(reverts.ErrInvalidConfig, "zero max positive rebase")
	}
	if err := r.maxPositiveRebase.Set(limits.MaxPositiveRebase); err != nil {
		return err
	}
	if err := r.annualIncreaseBP.Set(limits.AnnualIncreaseBP); err != nil {
		return err
	}
	logger.Info("reconciliation limits set", "maxPositiveRebase", limits.MaxPositiveRebase, "annualIncreaseBP", limits.AnnualIncreaseBP)
	return nil
}

// Reconcile applies one report. Collaborator side effects run last, so a
// failure anywhere leaves only writes the caller's checkpoint reverts.
func (r *Reconciler) Reconcile(caller lsd.Address, in *Input, c Collaborators) (*Result, error) {
	start := time.Now()
	if err := r.auth.Authorize(caller, policy.RoleReportSubmit); err != nil {
		return nil, err
	}
	if c.Fees == nil {
		return nil, reverts.Errorf(reverts.ErrInvalidConfig, "no fee distribution")
	}
	in = in.normalized()

	preValue, err := r.ledger.TotalPooledValue()
	if err != nil {
		return nil, err
	}
	preShares, err := r.ledger.TotalShares()
	if err != nil {
		return nil, err
	}
	preExternal, err := r.ledger.ExternalBalance()
	if err != nil {
		return nil, err
	}

	// 1. validator counters only move forward and never pass the deposits
	newlyReported, err := r.ledger.SetReported(in.ReportedValidators)
	if err != nil {
		logger.Warn("report rejected", "validators", in.ReportedValidators, "err", err)
		return nil, err
	}

	// 2. balance delta against what the pool expects externally
	preCL, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(newlyReported), lsd.DepositSize)
	if overflow {
		return nil, reverts.ErrOverflow
	}
	if _, overflow := preCL.AddOverflow(preCL, preExternal); overflow {
		return nil, reverts.ErrOverflow
	}
	delta := new(big.Int).Sub(in.ExternalBalance.ToBig(), preCL.ToBig())

	limits, err := r.Limits()
	if err != nil {
		return nil, err
	}
	if err := checkAnnualIncrease(delta, preCL, in.TimeElapsed, limits.AnnualIncreaseBP); err != nil {
		logger.Warn("report rejected", "preBalance", preCL, "postBalance", in.ExternalBalance, "elapsed", in.TimeElapsed)
		return nil, err
	}
	// 3. bound the growth; vault balances are admitted withdrawals first
	maxRebase := limits.MaxPositiveRebase
	if maxRebase == 0 {
		maxRebase = lsd.UnlimitedRebase
	}
	limiter, err := rebase.New(maxRebase, preValue, preShares)
	if err != nil {
		return nil, err
	}
	applied, err := limiter.ApplyBalanceDelta(delta)
	if err != nil {
		return nil, err
	}
	// a gain beyond the budget is left out of the recorded balance and shows up
	// again in the delta of the next report
	postCL, overflow := uint256.FromBig(new(big.Int).Add(preCL.ToBig(), applied))
	if overflow {
		return nil, reverts.ErrOverflow
	}
	r.ledger.SetExternalBalance(postCL)
	withdrawals, err := limiter.AppendPositiveValue(in.WithdrawalVault)
	if err != nil {
		return nil, err
	}
	elRewards, err := limiter.AppendPositiveValue(in.RewardsVault)
	if err != nil {
		return nil, err
	}

	// 4. collect vaults into the buffer, lock value for finalized withdrawals
	collected, overflow := new(uint256.Int).AddOverflow(withdrawals, elRewards)
	if overflow {
		return nil, reverts.ErrOverflow
	}
	if err := r.ledger.AddBuffered(collected); err != nil {
		return nil, err
	}
	withdrawalValue, err := r.lockWithdrawals(in, c.Escrow, limiter)
	if err != nil {
		return nil, err
	}

	// 5. fees on positive consensus layer rewards
	clRewards := new(big.Int).Add(applied, withdrawals.ToBig())
	feeShares := new(uint256.Int)
	if clRewards.Sign() > 0 {
		rewards, overflow := uint256.FromBig(clRewards)
		if overflow {
			return nil, reverts.ErrOverflow
		}
		if _, overflow := rewards.AddOverflow(rewards, elRewards); overflow {
			return nil, reverts.ErrOverflow
		}
		if feeShares, err = r.distributeFees(rewards, preValue, preShares, c.Fees); err != nil {
			return nil, err
		}
		if err := limiter.AddShares(feeShares); err != nil {
			return nil, err
		}
	}

	// 6. burn within the remaining budget, withdrawals before coverage
	burnt, coverageBurnt, err := r.burnShares(limiter, c.Escrow, c.Coverage)
	if err != nil {
		return nil, err
	}

	// 7. post state
	postValue, err := r.ledger.TotalPooledValue()
	if err != nil {
		return nil, err
	}
	postShares, err := r.ledger.TotalShares()
	if err != nil {
		return nil, err
	}
	postBuffered, err := r.ledger.Buffered()
	if err != nil {
		return nil, err
	}
	if err := r.last.Set(&Snapshot{preValue, preShares, postValue, postShares}); err != nil {
		return nil, err
	}

	// side effects on collaborators, once every computation succeeded
	if c.WithdrawalVault != nil && !withdrawals.IsZero() {
		if err := c.WithdrawalVault.Collect(withdrawals); err != nil {
			return nil, err
		}
	}
	if c.RewardsVault != nil && !elRewards.IsZero() {
		if err := c.RewardsVault.Collect(elRewards); err != nil {
			return nil, err
		}
	}
	if in.FinalizeUpToID != 0 {
		if err := c.Escrow.Finalize(in.FinalizeUpToID, withdrawalValue); err != nil {
			return nil, err
		}
	}
	if !coverageBurnt.IsZero() {
		if err := c.Coverage.CommitBurn(coverageBurnt); err != nil {
			return nil, err
		}
	}

	if err := r.emitETHDistributed(&ETHDistributed{
		PreCLBalance:    preCL,
		PostCLBalance:   postCL,
		Withdrawals:     withdrawals,
		ELRewards:       elRewards,
		PostBufferedETH: postBuffered,
	}); err != nil {
		return nil, err
	}
	if err := r.emitTokenRebased(&TokenRebased{
		TimeElapsed:   in.TimeElapsed,
		PreValue:      preValue,
		PreShares:     preShares,
		PostValue:     postValue,
		PostShares:    postShares,
		FeeShares:     feeShares,
		SharesBurnt:   burnt,
		WithdrawValue: withdrawalValue,
	}); err != nil {
		return nil, err
	}

	metricReconcileDuration().Observe(time.Since(start).Milliseconds())
	observeFeeShares(feeShares)
	logger.Info("reconciliation applied",
		"validators", in.ReportedValidators,
		"delta", delta,
		"applied", applied,
		"withdrawals", withdrawals,
		"elRewards", elRewards,
		"feeShares", feeShares,
		"burnt", burnt,
		"postValue", postValue,
		"postShares", postShares,
	)

	return &Result{
		PostPooledValue:       postValue,
		PostShares:            postShares,
		WithdrawalsProcessed:  withdrawals,
		ExtraRewardsProcessed: elRewards,
		WithdrawalValue:       withdrawalValue,
		FeeShares:             feeShares,
		SharesBurnt:           burnt,
	}, nil
}

// lockWithdrawals moves the value of finalized requests out of the buffer and
// queues their shares for burning.
func (r *Reconciler) lockWithdrawals(in *Input, escrow WithdrawalEscrow, limiter *rebase.Limiter) (*uint256.Int, error) {
	if in.FinalizeUpToID == 0 {
		return new(uint256.Int), nil
	}
	if escrow == nil {
		return nil, reverts.Errorf(reverts.ErrInvalidConfig, "finalization requested without escrow")
	}
	value, shares, err := escrow.QuoteFinalization(in.FinalizeUpToID, in.FinalizationRate)
	if err != nil {
		return nil, err
	}
	if err := limiter.RemoveValue(value); err != nil {
		return nil, err
	}
	if err := r.ledger.SubBuffered(value); err != nil {
		return nil, err
	}
	if _, err := r.pendingWithdrawBurn.Add(shares); err != nil {
		return nil, err
	}
	return value, nil
}

func (r *Reconciler) distributeFees(rewards, preValue, preShares *uint256.Int, fees FeeDistributionConfig) (*uint256.Int, error) {
	totalBP, err := fees.TotalFeeBasisPoints()
	if err != nil {
		return nil, err
	}
	recipients, err := fees.Recipients()
	if err != nil {
		return nil, err
	}
	if err := ValidateFees(totalBP, fees.Treasury(), recipients); err != nil {
		return nil, err
	}
	feeShares, err := FeeShares(rewards, totalBP, preValue, preShares)
	if err != nil {
		return nil, err
	}
	for _, split := range SplitFeeShares(feeShares, totalBP, fees.Treasury(), recipients) {
		if err := r.ledger.MintShares(split.Address, split.Shares); err != nil {
			return nil, err
		}
	}
	return feeShares, nil
}

// burnShares burns pending withdrawal shares then coverage shares, as far as the limiter admits.
func (r *Reconciler) burnShares(limiter *rebase.Limiter, escrow WithdrawalEscrow, coverage CoverageRequester) (burnt, coverageBurnt *uint256.Int, err error) {
	pending, err := r.pendingWithdrawBurn.Get()
	if err != nil {
		return nil, nil, err
	}
	if escrow == nil {
		// shares stay pending until an escrow is wired again
		pending.Clear()
	}
	requested := new(uint256.Int)
	if coverage != nil {
		if requested, err = coverage.PendingBurnRequest(); err != nil {
			return nil, nil, err
		}
	}
	total, overflow := new(uint256.Int).AddOverflow(pending, requested)
	if overflow {
		return nil, nil, reverts.ErrOverflow
	}
	if total.IsZero() {
		return new(uint256.Int), new(uint256.Int), nil
	}
	admitted, err := limiter.DeductShares(total)
	if err != nil {
		return nil, nil, err
	}

	withdrawalBurnt := new(uint256.Int).Set(admitted)
	if withdrawalBurnt.Gt(pending) {
		withdrawalBurnt.Set(pending)
	}
	coverageBurnt = new(uint256.Int).Sub(admitted, withdrawalBurnt)

	if !withdrawalBurnt.IsZero() {
		if _, err := r.ledger.Burn(escrow.Holder(), withdrawalBurnt); err != nil {
			return nil, nil, err
		}
		if _, err := r.pendingWithdrawBurn.Sub(withdrawalBurnt); err != nil {
			return nil, nil, err
		}
	}
	if !coverageBurnt.IsZero() {
		if _, err := r.ledger.Burn(coverage.Holder(), coverageBurnt); err != nil {
			return nil, nil, err
		}
	}
	return admitted, coverageBurnt, nil
}

// checkAnnualIncrease rejects consensus layer growth that annualizes above limitBP.
func checkAnnualIncrease(delta *big.Int, preCL *uint256.Int, elapsed, limitBP uint64) error {
	if limitBP == 0 || elapsed == 0 || delta.Sign() <= 0 || preCL.IsZero() {
		return nil
	}
	// delta * year * 10000 / (preCL * elapsed)
	annual := new(big.Int).Mul(delta, new(big.Int).SetUint64(lsd.SecondsPerYear))
	annual.Mul(annual, new(big.Int).SetUint64(lsd.TotalBasisPoints))
	annual.Div(annual, new(big.Int).Mul(preCL.ToBig(), new(big.Int).SetUint64(elapsed)))
	if annual.Cmp(new(big.Int).SetUint64(limitBP)) > 0 {
		return reverts.Errorf(reverts.ErrIncorrectCLBalanceIncrease, "annualized %s bp above %d bp", annual, limitBP)
	}
	return nil
}

func (in *Input) normalized() *Input {
	cpy := *in
	for _, v := range []**uint256.Int{&cpy.ExternalBalance, &cpy.WithdrawalVault, &cpy.RewardsVault, &cpy.FinalizationRate} {
		if *v == nil {
			*v = new(uint256.Int)
		}
	}
	return &cpy
}
