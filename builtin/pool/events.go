// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/lsdcore/lsd/lsd"
)

var (
	InitializedEvent = lsd.EventTopic("Initialized(address,uint256)")
	MigratedEvent    = lsd.EventTopic("Migrated(uint256,uint256)")
	SubmittedEvent   = lsd.EventTopic("Submitted(address,uint256,uint256)")
	DepositedEvent   = lsd.EventTopic("Deposited(uint256,uint256)")
)

// Submitted is the data of SubmittedEvent.
type Submitted struct {
	Value  *uint256.Int
	Shares *uint256.Int
}

func (p *Pool) emitInitialized(admin lsd.Address, version uint64) {
	p.sctx.Emit([]lsd.Bytes32{InitializedEvent, lsd.BytesToBytes32(admin.Bytes()), uint64Topic(version)}, nil)
}

func (p *Pool) emitMigrated(from, to uint64) {
	p.sctx.Emit([]lsd.Bytes32{MigratedEvent, uint64Topic(from), uint64Topic(to)}, nil)
}

func (p *Pool) emitSubmitted(sender lsd.Address, value, shares *uint256.Int) error {
	data, err := rlp.EncodeToBytes(&Submitted{value, shares})
	if err != nil {
		return err
	}
	p.sctx.Emit([]lsd.Bytes32{SubmittedEvent, lsd.BytesToBytes32(sender.Bytes())}, data)
	return nil
}

func (p *Pool) emitDeposited(count uint64, value *uint256.Int) error {
	data, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	p.sctx.Emit([]lsd.Bytes32{DepositedEvent, uint64Topic(count)}, data)
	return nil
}

func uint64Topic(v uint64) lsd.Bytes32 {
	return lsd.Bytes32(uint256.NewInt(v).Bytes32())
}
