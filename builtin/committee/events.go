// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package committee

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/lsdcore/lsd/lsd"
)

var (
	MemberAddedEvent      = lsd.EventTopic("MemberAdded(address,uint256)")
	MemberRemovedEvent    = lsd.EventTopic("MemberRemoved(address,uint256)")
	QuorumChangedEvent    = lsd.EventTopic("QuorumChanged(uint256,uint256)")
	ReportSubmittedEvent  = lsd.EventTopic("ReportSubmitted(address,bytes32,uint256)")
	ConsensusReachedEvent = lsd.EventTopic("ConsensusReached(bytes32,uint256,uint256)")
)

// ConsensusReached is the data of ConsensusReachedEvent.
type ConsensusReached struct {
	Epoch   uint64
	Support uint64
}

func (c *Committee) emit(topics []lsd.Bytes32, data any) error {
	enc, err := rlp.EncodeToBytes(data)
	if err != nil {
		return err
	}
	c.sctx.Emit(topics, enc)
	return nil
}

func (c *Committee) emitMemberChanged(event lsd.Bytes32, member lsd.Address, total uint64) error {
	return c.emit([]lsd.Bytes32{event, lsd.BytesToBytes32(member.Bytes())}, total)
}

func (c *Committee) emitQuorumChanged(quorum, prev uint64) error {
	return c.emit([]lsd.Bytes32{QuorumChangedEvent}, []uint64{quorum, prev})
}

func (c *Committee) emitReportSubmitted(member lsd.Address, hash lsd.Bytes32, epoch uint64) error {
	return c.emit([]lsd.Bytes32{ReportSubmittedEvent, lsd.BytesToBytes32(member.Bytes()), hash}, epoch)
}

func (c *Committee) emitConsensusReached(hash lsd.Bytes32, epoch, support uint64) error {
	return c.emit([]lsd.Bytes32{ConsensusReachedEvent, hash}, &ConsensusReached{epoch, support})
}
