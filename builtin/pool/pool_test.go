// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsdcore/lsd/builtin/accounting"
	"github.com/lsdcore/lsd/builtin/committee"
	"github.com/lsdcore/lsd/builtin/policy"
	"github.com/lsdcore/lsd/builtin/reverts"
	"github.com/lsdcore/lsd/lsd"
	"github.com/lsdcore/lsd/state"
	"github.com/lsdcore/lsd/test/datagen"
	"github.com/lsdcore/lsd/test/teststate"
)

var (
	admin    = lsd.BytesToAddress([]byte("admin"))
	treasury = lsd.BytesToAddress([]byte("treasury"))
	member   = lsd.BytesToAddress([]byte("member"))
)

func ether(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1e18))
}

type fakeAllocator struct {
	limit uint64
	calls []uint64
}

func (a *fakeAllocator) Allocate(requested uint64) (uint64, [][]byte, error) {
	a.calls = append(a.calls, requested)
	granted := min(requested, a.limit)
	keys := make([][]byte, granted)
	for i := range keys {
		keys[i] = datagen.RandomHash().Bytes()
	}
	return granted, keys, nil
}

type failingEscrow struct{}

func (failingEscrow) QuoteFinalization(uint64, *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	return ether(1), new(uint256.Int), nil
}
func (failingEscrow) Finalize(uint64, *uint256.Int) error { return errors.New("escrow offline") }
func (failingEscrow) Holder() lsd.Address                 { return lsd.BytesToAddress([]byte("escrow")) }

type fixture struct {
	st        *state.State
	pool      *Pool
	allocator *fakeAllocator
}

func newFixture(t *testing.T, collaborators accounting.Collaborators) *fixture {
	st := teststate.New(t)
	if collaborators.Fees == nil {
		fees, err := accounting.NewStaticFees(1000, treasury, nil)
		require.NoError(t, err)
		collaborators.Fees = fees
	}
	allocator := &fakeAllocator{limit: 100}
	return &fixture{st: st, pool: New(st, collaborators, allocator), allocator: allocator}
}

func (f *fixture) initialize(t *testing.T) {
	require.NoError(t, f.pool.Initialize(&Params{
		Admin:   admin,
		Limits:  accounting.Limits{MaxPositiveRebase: lsd.RebasePrecision / 10, AnnualIncreaseBP: 1000},
		Members: []lsd.Address{member},
		Quorum:  1,
	}))
}

// staked submits 64 ether and deposits them on 2 validators.
func (f *fixture) staked(t *testing.T) lsd.Address {
	alice := datagen.RandAddress()
	_, err := f.pool.Submit(alice, 1, ether(64))
	require.NoError(t, err)
	granted, _, err := f.pool.Deposit(admin, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(2), granted)
	return alice
}

func (f *fixture) agree(t *testing.T, report *committee.Report) {
	require.NoError(t, f.pool.SubmitReport(member, report.EpochID, report.Hash()))
}

type snapshot struct {
	staged int
	events int
	pooled *uint256.Int
	shares *uint256.Int
}

func (f *fixture) snapshot(t *testing.T) snapshot {
	pooled, err := f.pool.TotalPooledValue()
	require.NoError(t, err)
	shares, err := f.pool.TotalShares()
	require.NoError(t, err)
	return snapshot{
		staged: f.st.Stage().Len(),
		events: len(f.st.Events()),
		pooled: pooled,
		shares: shares,
	}
}

func TestInitialize(t *testing.T) {
	f := newFixture(t, accounting.Collaborators{})

	version, err := f.pool.SchemaVersion()
	require.NoError(t, err)
	assert.Zero(t, version)

	f.initialize(t)

	version, err = f.pool.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)

	for _, role := range policy.AllRoles {
		ok, err := f.pool.Roles().HasRole(role, admin)
		require.NoError(t, err)
		assert.True(t, ok, role.String())
	}
	members, err := f.pool.Committee().Members()
	require.NoError(t, err)
	assert.Equal(t, []lsd.Address{member}, members)

	before := f.snapshot(t)
	err = f.pool.Initialize(&Params{Admin: admin, Quorum: 1})
	assert.ErrorIs(t, err, reverts.ErrAlreadyInitialized)
	assert.Equal(t, before, f.snapshot(t))
}

func TestInitializeRejectedLeavesNothing(t *testing.T) {
	f := newFixture(t, accounting.Collaborators{})

	err := f.pool.Initialize(&Params{
		Admin:   admin,
		Limits:  accounting.Limits{MaxPositiveRebase: lsd.RebasePrecision},
		Members: []lsd.Address{member},
		Quorum:  0,
	})
	assert.ErrorIs(t, err, reverts.ErrInvalidQuorum)

	assert.Zero(t, f.st.Stage().Len())
	assert.Empty(t, f.st.Events())
	ok, err := f.pool.Roles().HasRole(policy.RoleAdmin, admin)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNotInitialized(t *testing.T) {
	f := newFixture(t, accounting.Collaborators{})

	_, err := f.pool.Submit(datagen.RandAddress(), 0, ether(1))
	assert.ErrorIs(t, err, reverts.ErrNotInitialized)
	_, err = f.pool.Migrate(admin)
	assert.ErrorIs(t, err, reverts.ErrNotInitialized)
}

func TestSubmit(t *testing.T) {
	f := newFixture(t, accounting.Collaborators{})
	f.initialize(t)

	alice, bob := datagen.RandAddress(), datagen.RandAddress()

	shares, err := f.pool.Submit(alice, 1, uint256.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(100), shares)

	shares, err = f.pool.Submit(bob, 1, uint256.NewInt(50))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(50), shares)

	buffered, err := f.pool.Ledger().Buffered()
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(150), buffered)

	balance, err := f.pool.BalanceOf(bob)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(50), balance)

	_, err = f.pool.Submit(alice, 1, new(uint256.Int))
	assert.ErrorIs(t, err, reverts.ErrInvalidAmount)
}

func TestSubmitRateLimited(t *testing.T) {
	f := newFixture(t, accounting.Collaborators{})
	f.initialize(t)
	require.NoError(t, f.pool.SetStakeLimit(admin, 0, uint256.NewInt(1000), uint256.NewInt(10)))

	alice := datagen.RandAddress()
	_, err := f.pool.Submit(alice, 0, uint256.NewInt(1000))
	require.NoError(t, err)

	before := f.snapshot(t)
	_, err = f.pool.Submit(alice, 0, uint256.NewInt(1))
	assert.ErrorIs(t, err, reverts.ErrLimitExceeded)
	assert.Equal(t, before, f.snapshot(t))

	available, err := f.pool.CurrentStakeLimit(50)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(500), available)

	require.NoError(t, f.pool.PauseStaking(admin))
	_, err = f.pool.Submit(alice, 50, uint256.NewInt(1))
	assert.ErrorIs(t, err, reverts.ErrStakingPaused)
	require.NoError(t, f.pool.ResumeStaking(admin))
	_, err = f.pool.Submit(alice, 50, uint256.NewInt(500))
	assert.NoError(t, err)
}

func TestDeposit(t *testing.T) {
	f := newFixture(t, accounting.Collaborators{})
	f.initialize(t)

	_, err := f.pool.Submit(datagen.RandAddress(), 1, ether(100))
	require.NoError(t, err)

	_, _, err = f.pool.Deposit(datagen.RandAddress(), 10)
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	f.allocator.limit = 2
	granted, keys, err := f.pool.Deposit(admin, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), granted)
	assert.Len(t, keys, 2)
	assert.Equal(t, []uint64{3}, f.allocator.calls)

	buffered, err := f.pool.Ledger().Buffered()
	require.NoError(t, err)
	assert.Equal(t, ether(36), buffered)
	deposited, err := f.pool.Ledger().DepositedValidators()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), deposited)

	pooled, err := f.pool.TotalPooledValue()
	require.NoError(t, err)
	assert.Equal(t, ether(100), pooled)

	// 36 ether buffer only covers one more deposit
	f.allocator.limit = 100
	granted, _, err = f.pool.Deposit(admin, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), granted)

	granted, _, err = f.pool.Deposit(admin, 10)
	require.NoError(t, err)
	assert.Zero(t, granted)
	assert.Len(t, f.allocator.calls, 2)
}

func TestReconcile(t *testing.T) {
	f := newFixture(t, accounting.Collaborators{})
	f.initialize(t)
	alice := f.staked(t)

	report := &committee.Report{
		EpochID:            1,
		TimeElapsed:        24 * 60 * 60,
		ReportedValidators: 2,
		ExternalBalance:    ether(64),
	}

	_, err := f.pool.Reconcile(admin, report)
	assert.ErrorIs(t, err, reverts.ErrNoConsensus)

	f.agree(t, report)

	other := *report
	other.ExternalBalance = ether(65)
	_, err = f.pool.Reconcile(admin, &other)
	assert.ErrorIs(t, err, reverts.ErrNoConsensus)

	res, err := f.pool.Reconcile(admin, report)
	require.NoError(t, err)
	assert.Equal(t, ether(64), res.PostPooledValue)
	assert.Equal(t, ether(64), res.PostShares)

	balance, err := f.pool.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, ether(64), balance)

	processed, err := f.pool.Committee().IsProcessed(1)
	require.NoError(t, err)
	assert.True(t, processed)
	_, agreed, err := f.pool.Committee().MemberStats(member)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), agreed)

	_, err = f.pool.Reconcile(admin, report)
	assert.ErrorIs(t, err, reverts.ErrEpochTooOld)
}

func TestReconcileFewerValidatorsLeavesNothing(t *testing.T) {
	f := newFixture(t, accounting.Collaborators{})
	f.initialize(t)
	f.staked(t)

	first := &committee.Report{EpochID: 1, TimeElapsed: 60, ReportedValidators: 2, ExternalBalance: ether(64)}
	f.agree(t, first)
	_, err := f.pool.Reconcile(admin, first)
	require.NoError(t, err)

	second := &committee.Report{EpochID: 2, TimeElapsed: 60, ReportedValidators: 1, ExternalBalance: ether(32)}
	f.agree(t, second)

	before := f.snapshot(t)
	_, err = f.pool.Reconcile(admin, second)
	assert.ErrorIs(t, err, reverts.ErrReportedFewerValidators)
	assert.Equal(t, before, f.snapshot(t))

	reported, err := f.pool.Ledger().ReportedValidators()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), reported)
	processed, err := f.pool.Committee().IsProcessed(2)
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestReconcileCollaboratorFailureLeavesNothing(t *testing.T) {
	f := newFixture(t, accounting.Collaborators{Escrow: failingEscrow{}})
	f.initialize(t)
	f.staked(t)

	report := &committee.Report{
		EpochID:            1,
		TimeElapsed:        60,
		ReportedValidators: 2,
		ExternalBalance:    ether(63),
		WithdrawalVault:    ether(1),
		FinalizeUpToID:     1,
		FinalizationRate:   ether(1),
	}
	f.agree(t, report)

	before := f.snapshot(t)
	_, err := f.pool.Reconcile(admin, report)
	assert.EqualError(t, err, "escrow offline")
	assert.Equal(t, before, f.snapshot(t))

	processed, err := f.pool.Committee().IsProcessed(1)
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestReconcileUnauthorized(t *testing.T) {
	f := newFixture(t, accounting.Collaborators{})
	f.initialize(t)
	f.staked(t)

	report := &committee.Report{EpochID: 1, ReportedValidators: 2, ExternalBalance: ether(64)}
	f.agree(t, report)

	outsider := datagen.RandAddress()
	_, err := f.pool.Reconcile(outsider, report)
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	require.NoError(t, f.pool.GrantRole(admin, policy.RoleReportSubmit, outsider))
	_, err = f.pool.Reconcile(outsider, report)
	assert.NoError(t, err)
}

func TestMigrate(t *testing.T) {
	f := newFixture(t, accounting.Collaborators{})
	f.initialize(t)

	from, err := f.pool.Migrate(admin)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), from)

	var ran int
	migrations = append(migrations, func(p *Pool) error {
		ran++
		return p.committee.AddMember(admin, lsd.BytesToAddress([]byte("migrated")))
	})
	t.Cleanup(func() { migrations = migrations[:len(migrations)-1] })

	_, err = f.pool.Submit(datagen.RandAddress(), 0, ether(1))
	assert.ErrorIs(t, err, reverts.ErrNotInitialized)

	_, err = f.pool.Migrate(datagen.RandAddress())
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)
	assert.Zero(t, ran)

	from, err = f.pool.Migrate(admin)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), from)
	assert.Equal(t, 1, ran)

	version, err := f.pool.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, LatestSchemaVersion(), version)
	ok, err := f.pool.Committee().IsMember(lsd.BytesToAddress([]byte("migrated")))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.pool.Submit(datagen.RandAddress(), 0, ether(1))
	assert.NoError(t, err)
}
