// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"errors"
	"testing"
	"testing/quick"

	"github.com/davecgh/go-spew/spew"
	fuzz "github.com/google/gofuzz"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsdcore/lsd/builtin/reverts"
	"github.com/lsdcore/lsd/lsd"
	"github.com/lsdcore/lsd/test/datagen"
	"github.com/lsdcore/lsd/test/teststate"
)

func newLedger(t *testing.T) *Ledger {
	return New(lsd.BytesToAddress([]byte("ledger")), teststate.New(t))
}

// deposit mints and buffers value, the way the pool accepts stake.
func deposit(t *testing.T, l *Ledger, holder lsd.Address, value uint64) *uint256.Int {
	shares, err := l.Mint(holder, uint256.NewInt(value))
	require.NoError(t, err)
	require.NoError(t, l.AddBuffered(uint256.NewInt(value)))
	return shares
}

func TestBootstrapDeposit(t *testing.T) {
	l := newLedger(t)
	alice := datagen.RandAddress()

	v, err := l.ValueOfShares(uint256.NewInt(10))
	require.NoError(t, err)
	assert.True(t, v.IsZero(), "no shares, no value")

	shares := deposit(t, l, alice, 100)
	assert.Equal(t, uint64(100), shares.Uint64())

	shares = deposit(t, l, datagen.RandAddress(), 50)
	assert.Equal(t, uint64(50), shares.Uint64())

	total, err := l.TotalShares()
	require.NoError(t, err)
	assert.Equal(t, uint64(150), total.Uint64())
	pooled, err := l.TotalPooledValue()
	require.NoError(t, err)
	assert.Equal(t, uint64(150), pooled.Uint64())

	events := l.sctx.State().Events()
	require.Len(t, events, 2)
	assert.Equal(t, TransferSharesEvent, events[0].Topics[0])
	assert.True(t, events[0].Topics[1].IsZero(), "mint comes from the zero address")
}

func TestMintRejects(t *testing.T) {
	l := newLedger(t)
	_, err := l.Mint(datagen.RandAddress(), new(uint256.Int))
	assert.True(t, errors.Is(err, reverts.ErrInvalidAmount))

	// 1 share worth 10 value: minting 9 yields zero shares
	deposit(t, l, datagen.RandAddress(), 1)
	require.NoError(t, l.AddBuffered(uint256.NewInt(9)))
	_, err = l.Mint(datagen.RandAddress(), uint256.NewInt(9))
	assert.True(t, errors.Is(err, reverts.ErrInvalidAmount))

	_, err = l.Mint(lsd.Address{}, uint256.NewInt(100))
	assert.True(t, errors.Is(err, reverts.ErrZeroAddress))
}

func TestMintAfterAllSharesBurnt(t *testing.T) {
	l := newLedger(t)
	alice := datagen.RandAddress()
	shares := deposit(t, l, alice, 100)
	_, err := l.Burn(alice, shares)
	require.NoError(t, err)

	// value is left in the buffer without shares
	pooled, err := l.TotalPooledValue()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), pooled.Uint64())

	shares = deposit(t, l, datagen.RandAddress(), 40)
	assert.Equal(t, uint64(40), shares.Uint64(), "a pool without shares mints 1:1")
}

func TestBurn(t *testing.T) {
	l := newLedger(t)
	alice, bob := datagen.RandAddress(), datagen.RandAddress()
	deposit(t, l, alice, 100)
	deposit(t, l, bob, 100)

	_, err := l.Burn(alice, uint256.NewInt(101))
	assert.True(t, errors.Is(err, reverts.ErrInsufficientShares))

	value, err := l.Burn(alice, uint256.NewInt(50))
	require.NoError(t, err)
	assert.Equal(t, uint64(50), value.Uint64())

	// pooled value stays, bob's shares appreciate
	bobValue, err := l.ValueOfShares(uint256.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, uint64(133), bobValue.Uint64())

	events := l.sctx.State().Events()
	last := events[len(events)-1]
	assert.Equal(t, SharesBurntEvent, last.Topics[0])
}

func TestTransferShares(t *testing.T) {
	l := newLedger(t)
	alice, bob := datagen.RandAddress(), datagen.RandAddress()
	deposit(t, l, alice, 100)

	assert.True(t, errors.Is(l.TransferShares(alice, lsd.Address{}, uint256.NewInt(1)), reverts.ErrZeroAddress))
	assert.True(t, errors.Is(l.TransferShares(bob, alice, uint256.NewInt(1)), reverts.ErrInsufficientShares))

	require.NoError(t, l.TransferShares(alice, bob, uint256.NewInt(40)))
	a, _ := l.SharesOf(alice)
	b, _ := l.SharesOf(bob)
	assert.Equal(t, uint64(60), a.Uint64())
	assert.Equal(t, uint64(40), b.Uint64())
}

func TestValidatorCounters(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.AddDeposited(3))

	transient, err := l.Transient()
	require.NoError(t, err)
	assert.Equal(t, new(uint256.Int).Mul(uint256.NewInt(3), lsd.DepositSize), transient)

	_, err = l.SetReported(4)
	assert.True(t, errors.Is(err, reverts.ErrReportedMoreThanDeposited))

	n, err := l.SetReported(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	_, err = l.SetReported(1)
	assert.True(t, errors.Is(err, reverts.ErrReportedFewerValidators))

	n, err = l.SetReported(2)
	require.NoError(t, err)
	assert.Zero(t, n)

	transient, err = l.Transient()
	require.NoError(t, err)
	assert.Equal(t, lsd.DepositSize, transient)
}

func TestSubBuffered(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.AddBuffered(uint256.NewInt(5)))
	assert.True(t, errors.Is(l.SubBuffered(uint256.NewInt(6)), reverts.ErrInsufficientBuffer))
	require.NoError(t, l.SubBuffered(uint256.NewInt(5)))
}

func TestRoundTripNeverCreatesValue(t *testing.T) {
	f := func(value, totalShares, pooled uint64) bool {
		v := uint256.NewInt(value)
		ts := uint256.NewInt(totalShares)
		p := uint256.NewInt(pooled)
		shares, err := SharesForValue(v, ts, p)
		if err != nil {
			return false
		}
		back, err := ValueOfShares(shares, ts, p)
		if err != nil {
			return false
		}
		return !back.Gt(v) || p.IsZero()
	}
	require.NoError(t, quick.Check(f, nil))
}

type ledgerOp struct {
	Kind   uint8
	From   uint8
	To     uint8
	Amount uint32
}

// Random mint/burn/transfer sequences keep totalShares equal to the sum of balances.
func TestConservation(t *testing.T) {
	l := newLedger(t)
	holders := datagen.RandAddresses(4)

	var ops []ledgerOp
	fuzz.NewWithSeed(int64(datagen.RandInt())).NilChance(0).NumElements(50, 100).Fuzz(&ops)

	for i, op := range ops {
		from := holders[int(op.From)%len(holders)]
		to := holders[int(op.To)%len(holders)]
		amount := uint256.NewInt(uint64(op.Amount) + 1)

		var err error
		switch op.Kind % 3 {
		case 0:
			_, err = l.Mint(from, amount)
			if err == nil {
				err = l.AddBuffered(amount)
			}
		case 1:
			_, err = l.Burn(from, amount)
		case 2:
			err = l.TransferShares(from, to, amount)
		}
		if err != nil {
			require.True(t, reverts.IsRevertErr(err), "op %d: %v", i, err)
		}

		sum := new(uint256.Int)
		for _, h := range holders {
			b, err := l.SharesOf(h)
			require.NoError(t, err)
			sum.Add(sum, b)
		}
		total, err := l.TotalShares()
		require.NoError(t, err)
		require.Equal(t, total, sum, "after op %d\n%s", i, spew.Sdump(ops[:i+1]))
	}
}
