// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ratelimit gates inbound stake with a linearly refilling limit.
//
// The available limit at block b is
//
//	min(maxLimit, prevLimit + growthPerBlock * (b - prevBlockNumber))
//
// and every consumption moves prevLimit and prevBlockNumber forward.
package ratelimit

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/lsdcore/lsd/builtin/policy"
	"github.com/lsdcore/lsd/builtin/reverts"
	"github.com/lsdcore/lsd/builtin/solidity"
	"github.com/lsdcore/lsd/log"
	"github.com/lsdcore/lsd/lsd"
	"github.com/lsdcore/lsd/metrics"
	"github.com/lsdcore/lsd/state"
)

var (
	logger = log.WithContext("pkg", "ratelimit")

	metricConsumed = metrics.LazyLoadCounterVec("ratelimit_consumed_count", []string{"result"})

	slotMaxLimit       = lsd.BytesToBytes32([]byte("max-limit"))
	slotGrowthPerBlock = lsd.BytesToBytes32([]byte("growth-per-block"))
	slotPrevLimit      = lsd.BytesToBytes32([]byte("prev-limit"))
	slotPrevBlock      = lsd.BytesToBytes32([]byte("prev-block"))
	slotPaused         = lsd.BytesToBytes32([]byte("paused"))

	// Unlimited is reported by CurrentAvailable when no limit is configured.
	Unlimited = new(uint256.Int).SetAllOne()

	LimitSetEvent     = lsd.EventTopic("StakingLimitSet(uint256,uint256)")
	LimitRemovedEvent = lsd.EventTopic("StakingLimitRemoved()")
	PausedEvent       = lsd.EventTopic("StakingPaused()")
	ResumedEvent      = lsd.EventTopic("StakingResumed()")
)

func SetLogger(l log.Logger) {
	logger = l
}

// Limit is a snapshot of the limiter configuration.
type Limit struct {
	MaxLimit        *uint256.Int
	GrowthPerBlock  *uint256.Int
	PrevLimit       *uint256.Int
	PrevBlockNumber uint64
	Paused          bool
}

// Limiter implements the stake rate limiter.
type Limiter struct {
	sctx *solidity.Context
	auth policy.Authorizer

	maxLimit       *solidity.Uint256
	growthPerBlock *solidity.Uint256
	prevLimit      *solidity.Uint256
	prevBlock      *solidity.Value[uint64]
	paused         *solidity.Value[bool]
}

// New create a new instance.
func New(addr lsd.Address, state *state.State, auth policy.Authorizer) *Limiter {
	sctx := solidity.NewContext(addr, state)
	return &Limiter{
		sctx:           sctx,
		auth:           auth,
		maxLimit:       solidity.NewUint256(sctx, slotMaxLimit),
		growthPerBlock: solidity.NewUint256(sctx, slotGrowthPerBlock),
		prevLimit:      solidity.NewUint256(sctx, slotPrevLimit),
		prevBlock:      solidity.NewValue[uint64](sctx, slotPrevBlock),
		paused:         solidity.NewValue[bool](sctx, slotPaused),
	}
}

//
// Getters - no state change
//

func (l *Limiter) Limit() (*Limit, error) {
	maxLimit, err := l.maxLimit.Get()
	if err != nil {
		return nil, err
	}
	growth, err := l.growthPerBlock.Get()
	if err != nil {
		return nil, err
	}
	prevLimit, err := l.prevLimit.Get()
	if err != nil {
		return nil, err
	}
	prevBlock, err := l.prevBlock.Get()
	if err != nil {
		return nil, err
	}
	paused, err := l.paused.Get()
	if err != nil {
		return nil, err
	}
	return &Limit{
		MaxLimit:        maxLimit,
		GrowthPerBlock:  growth,
		PrevLimit:       prevLimit,
		PrevBlockNumber: prevBlock,
		Paused:          paused,
	}, nil
}

// CurrentAvailable returns how much stake may enter at blockNumber.
// It is zero while paused and Unlimited when no limit is set.
func (l *Limiter) CurrentAvailable(blockNumber uint64) (*uint256.Int, error) {
	limit, err := l.Limit()
	if err != nil {
		return nil, err
	}
	return limit.Available(blockNumber), nil
}

// Available evaluates the limit formula, saturating at MaxLimit.
func (lim *Limit) Available(blockNumber uint64) *uint256.Int {
	if lim.Paused {
		return new(uint256.Int)
	}
	if lim.MaxLimit.IsZero() {
		return new(uint256.Int).Set(Unlimited)
	}
	var elapsed uint64
	if blockNumber > lim.PrevBlockNumber {
		elapsed = blockNumber - lim.PrevBlockNumber
	}
	grown, overflow := new(uint256.Int).MulOverflow(lim.GrowthPerBlock, uint256.NewInt(elapsed))
	if !overflow {
		_, overflow = grown.AddOverflow(grown, lim.PrevLimit)
	}
	if overflow || grown.Gt(lim.MaxLimit) {
		return new(uint256.Int).Set(lim.MaxLimit)
	}
	return grown
}

//
// Setters - state change
//

// SetLimit configures the limit. A first limit starts full, changing an active
// limit rescales what is currently available to the new maximum.
func (l *Limiter) SetLimit(caller lsd.Address, blockNumber uint64, maxLimit, growthPerBlock *uint256.Int) error {
	if err := l.auth.Authorize(caller, policy.RoleStakingControl); err != nil {
		return err
	}
	if err := ValidateLimit(maxLimit, growthPerBlock); err != nil {
		return err
	}

	current, err := l.Limit()
	if err != nil {
		return err
	}
	prevLimit := new(uint256.Int).Set(maxLimit)
	if !current.MaxLimit.IsZero() {
		// available is read unpaused so a paused limiter keeps its budget
		unpaused := *current
		unpaused.Paused = false
		available := unpaused.Available(blockNumber)
		if _, overflow := prevLimit.MulDivOverflow(available, maxLimit, current.MaxLimit); overflow {
			return reverts.ErrOverflow
		}
	}

	l.maxLimit.Set(maxLimit)
	l.growthPerBlock.Set(growthPerBlock)
	l.prevLimit.Set(prevLimit)
	if blockNumber > current.PrevBlockNumber || current.MaxLimit.IsZero() {
		if err := l.prevBlock.Set(blockNumber); err != nil {
			return err
		}
	}

	data, err := rlp.EncodeToBytes([]*uint256.Int{maxLimit, growthPerBlock})
	if err != nil {
		return err
	}
	l.sctx.Emit([]lsd.Bytes32{LimitSetEvent}, data)
	logger.Info("stake limit set", "max", maxLimit, "growthPerBlock", growthPerBlock, "available", prevLimit)
	return nil
}

// ValidateLimit checks a limit configuration without touching state.
func ValidateLimit(maxLimit, growthPerBlock *uint256.Int) error {
	if maxLimit.IsZero() {
		return reverts.Errorf(reverts.ErrInvalidConfig, "zero max limit")
	}
	if growthPerBlock.Gt(maxLimit) {
		return reverts.Errorf(reverts.ErrInvalidConfig, "growth %s above max limit %s", growthPerBlock, maxLimit)
	}
	if !growthPerBlock.IsZero() {
		blocks := new(uint256.Int).Div(maxLimit, growthPerBlock)
		if blocks.Gt(uint256.NewInt(lsd.MaxLimitGrowthBlocks)) {
			return reverts.Errorf(reverts.ErrInvalidConfig, "refill takes %s blocks", blocks)
		}
	}
	return nil
}

// RemoveLimit disables limiting. The pause flag is kept.
func (l *Limiter) RemoveLimit(caller lsd.Address) error {
	if err := l.auth.Authorize(caller, policy.RoleStakingControl); err != nil {
		return err
	}
	zero := new(uint256.Int)
	l.maxLimit.Set(zero)
	l.growthPerBlock.Set(zero)
	l.prevLimit.Set(zero)
	l.prevBlock.Clear()

	l.sctx.Emit([]lsd.Bytes32{LimitRemovedEvent}, nil)
	logger.Info("stake limit removed")
	return nil
}

func (l *Limiter) Pause(caller lsd.Address) error {
	return l.setPaused(caller, true)
}

func (l *Limiter) Resume(caller lsd.Address) error {
	return l.setPaused(caller, false)
}

func (l *Limiter) setPaused(caller lsd.Address, paused bool) error {
	if err := l.auth.Authorize(caller, policy.RoleStakingControl); err != nil {
		return err
	}
	current, err := l.paused.Get()
	if err != nil {
		return err
	}
	if current == paused {
		return nil
	}
	event := ResumedEvent
	if paused {
		event = PausedEvent
		if err := l.paused.Set(true); err != nil {
			return err
		}
	} else {
		l.paused.Clear()
	}
	l.sctx.Emit([]lsd.Bytes32{event}, nil)
	logger.Info("staking pause changed", "paused", paused)
	return nil
}

// Consume takes amount out of the limit available at blockNumber.
func (l *Limiter) Consume(blockNumber uint64, amount *uint256.Int) error {
	limit, err := l.Limit()
	if err != nil {
		return err
	}
	if limit.Paused {
		metricConsumed().AddWithLabel(1, map[string]string{"result": "paused"})
		return reverts.ErrStakingPaused
	}
	if limit.MaxLimit.IsZero() {
		metricConsumed().AddWithLabel(1, map[string]string{"result": "unlimited"})
		return nil
	}
	available := limit.Available(blockNumber)
	if amount.Gt(available) {
		metricConsumed().AddWithLabel(1, map[string]string{"result": "exceeded"})
		return reverts.Errorf(reverts.ErrLimitExceeded, "available %s, requested %s", available, amount)
	}
	l.prevLimit.Set(available.Sub(available, amount))
	// the clock never moves backwards, a late block must not refill twice
	if blockNumber > limit.PrevBlockNumber {
		if err := l.prevBlock.Set(blockNumber); err != nil {
			return err
		}
	}
	metricConsumed().AddWithLabel(1, map[string]string{"result": "ok"})
	logger.Debug("stake limit consumed", "block", blockNumber, "amount", amount, "left", available)
	return nil
}
