// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/lsdcore/lsd/lsd"
)

var (
	TransferSharesEvent = lsd.EventTopic("TransferShares(address,address,uint256)")
	SharesBurntEvent    = lsd.EventTopic("SharesBurnt(address,uint256,uint256,uint256)")
)

// SharesBurnt is the data of SharesBurntEvent.
type SharesBurnt struct {
	PreValue  *uint256.Int
	PostValue *uint256.Int
	Shares    *uint256.Int
}

func addressTopic(addr lsd.Address) lsd.Bytes32 {
	return lsd.BytesToBytes32(addr.Bytes())
}

func (l *Ledger) emitTransferShares(from, to lsd.Address, shares *uint256.Int) error {
	data, err := rlp.EncodeToBytes(shares)
	if err != nil {
		return err
	}
	l.sctx.Emit([]lsd.Bytes32{TransferSharesEvent, addressTopic(from), addressTopic(to)}, data)
	return nil
}

func (l *Ledger) emitSharesBurnt(holder lsd.Address, preValue, postValue, shares *uint256.Int) error {
	data, err := rlp.EncodeToBytes(&SharesBurnt{preValue, postValue, shares})
	if err != nil {
		return err
	}
	l.sctx.Emit([]lsd.Bytes32{SharesBurntEvent, addressTopic(holder)}, data)
	return nil
}
