// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounting

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/lsdcore/lsd/lsd"
)

var (
	ETHDistributedEvent = lsd.EventTopic("ETHDistributed(uint256,uint256,uint256,uint256,uint256)")
	TokenRebasedEvent   = lsd.EventTopic("TokenRebased(uint256,uint256,uint256,uint256,uint256,uint256)")
)

// ETHDistributed is the data of ETHDistributedEvent.
type ETHDistributed struct {
	PreCLBalance    *uint256.Int
	PostCLBalance   *uint256.Int
	Withdrawals     *uint256.Int
	ELRewards       *uint256.Int
	PostBufferedETH *uint256.Int
}

// TokenRebased is the data of TokenRebasedEvent.
type TokenRebased struct {
	TimeElapsed   uint64
	PreValue      *uint256.Int
	PreShares     *uint256.Int
	PostValue     *uint256.Int
	PostShares    *uint256.Int
	FeeShares     *uint256.Int
	SharesBurnt   *uint256.Int
	WithdrawValue *uint256.Int
}

func (r *Reconciler) emitETHDistributed(ev *ETHDistributed) error {
	data, err := rlp.EncodeToBytes(ev)
	if err != nil {
		return err
	}
	r.sctx.Emit([]lsd.Bytes32{ETHDistributedEvent}, data)
	return nil
}

func (r *Reconciler) emitTokenRebased(ev *TokenRebased) error {
	data, err := rlp.EncodeToBytes(ev)
	if err != nil {
		return err
	}
	r.sctx.Emit([]lsd.Bytes32{TokenRebasedEvent}, data)
	return nil
}
