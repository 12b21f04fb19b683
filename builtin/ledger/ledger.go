// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"

	"github.com/lsdcore/lsd/builtin/packedstats"
	"github.com/lsdcore/lsd/builtin/reverts"
	"github.com/lsdcore/lsd/builtin/solidity"
	"github.com/lsdcore/lsd/log"
	"github.com/lsdcore/lsd/lsd"
	"github.com/lsdcore/lsd/state"
)

var (
	logger = log.WithContext("pkg", "ledger")

	slotTotalShares     = lsd.BytesToBytes32([]byte("total-shares"))
	slotBuffered        = lsd.BytesToBytes32([]byte("buffered"))
	slotExternalBalance = lsd.BytesToBytes32([]byte("external-balance"))
	slotBalances        = lsd.BytesToBytes32([]byte("share-balances"))
)

func SetLogger(l log.Logger) {
	logger = l
}

const (
	FieldDeposited packedstats.Field = 0
	FieldReported  packedstats.Field = 1
)

func validateCounters(c packedstats.Counters) error {
	if c[FieldReported] > c[FieldDeposited] {
		return reverts.Errorf(reverts.ErrReportedMoreThanDeposited, "reported %d, deposited %d", c[FieldReported], c[FieldDeposited])
	}
	return nil
}

// Ledger implements the share ledger: proportional ownership of the pooled value.
//
// totalPooledValue = buffered + externalBalance + (deposited - reported) * DepositSize
type Ledger struct {
	sctx *solidity.Context

	totalShares     *solidity.Uint256
	buffered        *solidity.Uint256
	externalBalance *solidity.Uint256
	validators      *packedstats.Store
}

// New create a new instance.
func New(addr lsd.Address, state *state.State) *Ledger {
	sctx := solidity.NewContext(addr, state)
	return &Ledger{
		sctx:            sctx,
		totalShares:     solidity.NewUint256(sctx, slotTotalShares),
		buffered:        solidity.NewUint256(sctx, slotBuffered),
		externalBalance: solidity.NewUint256(sctx, slotExternalBalance),
		validators:      packedstats.New(sctx, "validators", validateCounters),
	}
}

func (l *Ledger) Address() lsd.Address {
	return l.sctx.Address()
}

func (l *Ledger) balance(holder lsd.Address) *solidity.Uint256 {
	return solidity.NewUint256(l.sctx, lsd.Blake2b(holder.Bytes(), slotBalances.Bytes()))
}

//
// Getters - no state change
//

func (l *Ledger) TotalShares() (*uint256.Int, error) {
	return l.totalShares.Get()
}

func (l *Ledger) SharesOf(holder lsd.Address) (*uint256.Int, error) {
	return l.balance(holder).Get()
}

func (l *Ledger) Buffered() (*uint256.Int, error) {
	return l.buffered.Get()
}

func (l *Ledger) ExternalBalance() (*uint256.Int, error) {
	return l.externalBalance.Get()
}

func (l *Ledger) DepositedValidators() (uint64, error) {
	c, err := l.validators.Get(l.Address())
	return c[FieldDeposited], err
}

func (l *Ledger) ReportedValidators() (uint64, error) {
	c, err := l.validators.Get(l.Address())
	return c[FieldReported], err
}

// Transient is the value sent to deposited validators that the external report does not cover yet.
func (l *Ledger) Transient() (*uint256.Int, error) {
	c, err := l.validators.Get(l.Address())
	if err != nil {
		return nil, err
	}
	// reported <= deposited is kept by validateCounters
	pending := uint256.NewInt(c[FieldDeposited] - c[FieldReported])
	if _, overflow := pending.MulOverflow(pending, lsd.DepositSize); overflow {
		return nil, reverts.ErrOverflow
	}
	return pending, nil
}

func (l *Ledger) TotalPooledValue() (*uint256.Int, error) {
	buffered, err := l.buffered.Get()
	if err != nil {
		return nil, err
	}
	external, err := l.externalBalance.Get()
	if err != nil {
		return nil, err
	}
	transient, err := l.Transient()
	if err != nil {
		return nil, err
	}
	total, overflow := new(uint256.Int).AddOverflow(buffered, external)
	if overflow {
		return nil, reverts.ErrOverflow
	}
	if _, overflow := total.AddOverflow(total, transient); overflow {
		return nil, reverts.ErrOverflow
	}
	return total, nil
}

// SharesForValue converts value into shares at the current rate, rounding down.
// A pool without shares converts 1:1.
func (l *Ledger) SharesForValue(value *uint256.Int) (*uint256.Int, error) {
	pooled, err := l.TotalPooledValue()
	if err != nil {
		return nil, err
	}
	totalShares, err := l.totalShares.Get()
	if err != nil {
		return nil, err
	}
	return SharesForValue(value, totalShares, pooled)
}

// ValueOfShares converts shares into value at the current rate, rounding down.
func (l *Ledger) ValueOfShares(shares *uint256.Int) (*uint256.Int, error) {
	pooled, err := l.TotalPooledValue()
	if err != nil {
		return nil, err
	}
	totalShares, err := l.totalShares.Get()
	if err != nil {
		return nil, err
	}
	return ValueOfShares(shares, totalShares, pooled)
}

// SharesForValue is value * totalShares / pooled, 1:1 when pooled or
// totalShares is zero.
func SharesForValue(value, totalShares, pooled *uint256.Int) (*uint256.Int, error) {
	if pooled.IsZero() || totalShares.IsZero() {
		return new(uint256.Int).Set(value), nil
	}
	shares, overflow := new(uint256.Int).MulDivOverflow(value, totalShares, pooled)
	if overflow {
		return nil, reverts.ErrOverflow
	}
	return shares, nil
}

// ValueOfShares is shares * pooled / totalShares, zero when totalShares is zero.
func ValueOfShares(shares, totalShares, pooled *uint256.Int) (*uint256.Int, error) {
	if totalShares.IsZero() {
		return new(uint256.Int), nil
	}
	value, overflow := new(uint256.Int).MulDivOverflow(shares, pooled, totalShares)
	if overflow {
		return nil, reverts.ErrOverflow
	}
	return value, nil
}

//
// Setters - state change
//

// Mint issues shares worth value to holder at the current rate.
// The caller accounts the value itself, usually through AddBuffered.
func (l *Ledger) Mint(holder lsd.Address, value *uint256.Int) (*uint256.Int, error) {
	if value.IsZero() {
		return nil, reverts.Errorf(reverts.ErrInvalidAmount, "zero value")
	}
	shares, err := l.SharesForValue(value)
	if err != nil {
		return nil, err
	}
	if shares.IsZero() {
		return nil, reverts.Errorf(reverts.ErrInvalidAmount, "value %s mints no shares", value)
	}
	if err := l.MintShares(holder, shares); err != nil {
		return nil, err
	}
	logger.Debug("minted", "holder", holder, "value", value, "shares", shares)
	return shares, nil
}

// MintShares issues shares to holder without value backing them, diluting other holders.
func (l *Ledger) MintShares(holder lsd.Address, shares *uint256.Int) error {
	if holder.IsZero() {
		return reverts.ErrZeroAddress
	}
	total, err := l.totalShares.Add(shares)
	if err != nil {
		return err
	}
	if _, err := l.balance(holder).Add(shares); err != nil {
		return err
	}
	if err := l.emitTransferShares(lsd.Address{}, holder, shares); err != nil {
		return err
	}
	metricSharesMinted().Add(1)
	observeTotalShares(total)
	return nil
}

// Burn destroys shares of holder and returns their value before the burn.
// Pooled value is left untouched, so the remaining shares appreciate.
func (l *Ledger) Burn(holder lsd.Address, shares *uint256.Int) (*uint256.Int, error) {
	balance, err := l.balance(holder).Get()
	if err != nil {
		return nil, err
	}
	if balance.Lt(shares) {
		return nil, reverts.Errorf(reverts.ErrInsufficientShares, "%s holds %s, burning %s", holder, balance, shares)
	}
	pooled, err := l.TotalPooledValue()
	if err != nil {
		return nil, err
	}
	preTotal, err := l.totalShares.Get()
	if err != nil {
		return nil, err
	}
	preValue, err := ValueOfShares(shares, preTotal, pooled)
	if err != nil {
		return nil, err
	}

	if _, err := l.balance(holder).Sub(shares); err != nil {
		return nil, err
	}
	postTotal, err := l.totalShares.Sub(shares)
	if err != nil {
		return nil, err
	}
	postValue, err := ValueOfShares(shares, postTotal, pooled)
	if err != nil {
		return nil, err
	}
	if err := l.emitSharesBurnt(holder, preValue, postValue, shares); err != nil {
		return nil, err
	}
	observeTotalShares(postTotal)
	logger.Debug("burnt", "holder", holder, "shares", shares, "value", preValue)
	return preValue, nil
}

func (l *Ledger) TransferShares(from, to lsd.Address, shares *uint256.Int) error {
	if to.IsZero() {
		return reverts.ErrZeroAddress
	}
	balance, err := l.balance(from).Get()
	if err != nil {
		return err
	}
	if balance.Lt(shares) {
		return reverts.Errorf(reverts.ErrInsufficientShares, "%s holds %s, sending %s", from, balance, shares)
	}
	if _, err := l.balance(from).Sub(shares); err != nil {
		return err
	}
	if _, err := l.balance(to).Add(shares); err != nil {
		return err
	}
	return l.emitTransferShares(from, to, shares)
}

func (l *Ledger) AddBuffered(value *uint256.Int) error {
	_, err := l.buffered.Add(value)
	return err
}

func (l *Ledger) SubBuffered(value *uint256.Int) error {
	if _, err := l.buffered.Sub(value); err != nil {
		if reverts.CodeOf(err) == reverts.CodeUnderflow {
			return reverts.Errorf(reverts.ErrInsufficientBuffer, "need %s", value)
		}
		return err
	}
	return nil
}

func (l *Ledger) SetExternalBalance(value *uint256.Int) {
	l.externalBalance.Set(value)
}

// AddDeposited records count newly deposited validators.
func (l *Ledger) AddDeposited(count uint64) error {
	_, err := l.validators.Add(l.Address(), FieldDeposited, count)
	return err
}

// SetReported records the externally visible validator count.
// It fails when the count decreases or exceeds the deposited count.
func (l *Ledger) SetReported(count uint64) (newlyReported uint64, err error) {
	c, err := l.validators.Get(l.Address())
	if err != nil {
		return 0, err
	}
	if count > c[FieldDeposited] {
		return 0, reverts.Errorf(reverts.ErrReportedMoreThanDeposited, "reported %d, deposited %d", count, c[FieldDeposited])
	}
	next := c
	next[FieldReported] = count
	inc, dec, err := l.validators.Diff(l.Address(), next)
	if err != nil {
		return 0, err
	}
	if dec[FieldReported] > 0 {
		return 0, reverts.Errorf(reverts.ErrReportedFewerValidators, "reported %d, previously %d", count, c[FieldReported])
	}
	if err := l.validators.Set(l.Address(), next); err != nil {
		return 0, err
	}
	return inc[FieldReported], nil
}
