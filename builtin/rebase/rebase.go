// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rebase bounds the positive rebase of one reconciliation.
//
// With P = lsd.RebasePrecision and r the max positive rebase ratio, the pooled
// value reachable for s shares is
//
//	maxValue(s) = s * preValue * (P + r) / (preShares * P)
//
// so the share rate never grows by more than r/P within one reconciliation.
// Losses are never limited.
package rebase

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/lsdcore/lsd/builtin/reverts"
	"github.com/lsdcore/lsd/lsd"
)

// Limiter is the working state of one reconciliation. It is never persisted.
type Limiter struct {
	maxRatio  uint64
	preValue  *uint256.Int
	preShares *uint256.Int

	curValue  *uint256.Int
	curShares *uint256.Int

	accumulated *uint256.Int // positive value admitted so far
	burnt       *uint256.Int // shares admitted through DeductShares
}

// New initializes a limiter from the pre reconciliation totals.
// maxRatio is in parts per lsd.RebasePrecision, lsd.UnlimitedRebase disables the bound.
func New(maxRatio uint64, preValue, preShares *uint256.Int) (*Limiter, error) {
	if maxRatio == 0 {
		return nil, reverts.Errorf(reverts.ErrInvalidConfig, "zero max positive rebase")
	}
	return &Limiter{
		maxRatio:    maxRatio,
		preValue:    new(uint256.Int).Set(preValue),
		preShares:   new(uint256.Int).Set(preShares),
		curValue:    new(uint256.Int).Set(preValue),
		curShares:   new(uint256.Int).Set(preShares),
		accumulated: new(uint256.Int),
		burnt:       new(uint256.Int),
	}, nil
}

// Unlimited reports whether the bound is disabled, either by configuration or
// because the pool is still empty.
func (l *Limiter) Unlimited() bool {
	return l.maxRatio == lsd.UnlimitedRebase || l.preValue.IsZero() || l.preShares.IsZero()
}

func (l *Limiter) CurrentValue() *uint256.Int  { return new(uint256.Int).Set(l.curValue) }
func (l *Limiter) CurrentShares() *uint256.Int { return new(uint256.Int).Set(l.curShares) }
func (l *Limiter) Accumulated() *uint256.Int   { return new(uint256.Int).Set(l.accumulated) }
func (l *Limiter) SharesBurnt() *uint256.Int   { return new(uint256.Int).Set(l.burnt) }

func (l *Limiter) ratioPlusOne() *uint256.Int {
	return new(uint256.Int).Add(uint256.NewInt(lsd.RebasePrecision), uint256.NewInt(l.maxRatio))
}

// MaxValue is the highest pooled value the current shares may represent.
func (l *Limiter) MaxValue() (*uint256.Int, error) {
	if l.Unlimited() {
		return new(uint256.Int).SetAllOne(), nil
	}
	num, overflow := new(uint256.Int).MulOverflow(l.curShares, l.ratioPlusOne())
	if overflow {
		return nil, reverts.ErrOverflow
	}
	den, overflow := new(uint256.Int).MulOverflow(l.preShares, uint256.NewInt(lsd.RebasePrecision))
	if overflow {
		return nil, reverts.ErrOverflow
	}
	maxValue, overflow := num.MulDivOverflow(num, l.preValue, den)
	if overflow {
		return nil, reverts.ErrOverflow
	}
	return maxValue, nil
}

// Remaining is the positive value still admissible, zero once the limit is reached.
func (l *Limiter) Remaining() (*uint256.Int, error) {
	maxValue, err := l.MaxValue()
	if err != nil {
		return nil, err
	}
	if maxValue.Lt(l.curValue) {
		return new(uint256.Int), nil
	}
	return maxValue.Sub(maxValue, l.curValue), nil
}

func (l *Limiter) LimitReached() (bool, error) {
	remaining, err := l.Remaining()
	if err != nil {
		return false, err
	}
	return remaining.IsZero(), nil
}

// ApplyBalanceDelta accounts a reported balance change and returns the part
// that was accounted. A loss is taken in full. A gain is admitted up to the
// remaining budget; the rest stays unaccounted until a later reconciliation.
func (l *Limiter) ApplyBalanceDelta(delta *big.Int) (*big.Int, error) {
	abs, overflow := uint256.FromBig(new(big.Int).Abs(delta))
	if overflow {
		return nil, reverts.ErrOverflow
	}
	if delta.Sign() < 0 {
		if err := l.RemoveValue(abs); err != nil {
			return nil, err
		}
		return new(big.Int).Set(delta), nil
	}
	admitted, err := l.AppendPositiveValue(abs)
	if err != nil {
		return nil, err
	}
	return admitted.ToBig(), nil
}

// AppendPositiveValue admits up to amount of new value and returns what was admitted.
// The rest is left for a later reconciliation.
func (l *Limiter) AppendPositiveValue(amount *uint256.Int) (*uint256.Int, error) {
	admitted := new(uint256.Int).Set(amount)
	if !l.Unlimited() {
		remaining, err := l.Remaining()
		if err != nil {
			return nil, err
		}
		if remaining.Lt(admitted) {
			admitted.Set(remaining)
		}
	}
	if _, overflow := l.curValue.AddOverflow(l.curValue, admitted); overflow {
		return nil, reverts.ErrOverflow
	}
	l.accumulated.Add(l.accumulated, admitted)
	return admitted, nil
}

// RemoveValue accounts value leaving the pool, such as finalized withdrawals.
func (l *Limiter) RemoveValue(amount *uint256.Int) error {
	if _, underflow := l.curValue.SubOverflow(l.curValue, amount); underflow {
		return reverts.ErrUnderflow
	}
	return nil
}

// AddShares accounts newly minted shares, such as protocol fees.
func (l *Limiter) AddShares(shares *uint256.Int) error {
	if _, overflow := l.curShares.AddOverflow(l.curShares, shares); overflow {
		return reverts.ErrOverflow
	}
	return nil
}

// DeductShares admits up to requested shares to be burnt and returns the admitted count.
// Burning shares raises the rate, so admission is bounded by the remaining budget.
func (l *Limiter) DeductShares(requested *uint256.Int) (*uint256.Int, error) {
	admitted := new(uint256.Int).Set(requested)
	if !l.Unlimited() {
		// the fewest shares that keep curValue within maxValue, rounded up
		num, overflow := new(uint256.Int).MulOverflow(l.preShares, uint256.NewInt(lsd.RebasePrecision))
		if overflow {
			return nil, reverts.ErrOverflow
		}
		den, overflow := new(uint256.Int).MulOverflow(l.preValue, l.ratioPlusOne())
		if overflow {
			return nil, reverts.ErrOverflow
		}
		minShares, overflow := new(uint256.Int).MulDivOverflow(l.curValue, num, den)
		if overflow {
			return nil, reverts.ErrOverflow
		}
		if !new(uint256.Int).MulMod(l.curValue, num, den).IsZero() {
			minShares.AddUint64(minShares, 1)
		}

		admissible := new(uint256.Int)
		if l.curShares.Gt(minShares) {
			admissible.Sub(l.curShares, minShares)
		}
		if admissible.Lt(admitted) {
			admitted.Set(admissible)
		}
	}
	if admitted.Gt(l.curShares) {
		admitted.Set(l.curShares)
	}
	l.curShares.Sub(l.curShares, admitted)
	l.burnt.Add(l.burnt, admitted)
	return admitted, nil
}
