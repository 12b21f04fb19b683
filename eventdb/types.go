// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"github.com/lsdcore/lsd/lsd"
)

// MaxTopics is the count of topic columns.
const MaxTopics = 5

// Event is a committed lsd.Event with its position.
type Event struct {
	BlockNumber uint32
	Index       uint32
	Address     lsd.Address
	Topics      [MaxTopics]*lsd.Bytes32
	Data        []byte
}

func newEvent(blockNum, index uint32, ev *lsd.Event) *Event {
	e := &Event{
		BlockNumber: blockNum,
		Index:       index,
		Address:     ev.Address,
		Data:        ev.Data,
	}
	for i := 0; i < len(ev.Topics) && i < len(e.Topics); i++ {
		topic := ev.Topics[i]
		e.Topics[i] = &topic
	}
	return e
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is an inclusive block number range. To below From means no upper bound.
type Range struct {
	From uint32
	To   uint32
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events by address and topics, nil fields match anything.
type EventCriteria struct {
	Address *lsd.Address
	Topics  [MaxTopics]*lsd.Bytes32
}

// EventFilter selects events matching any of CriteriaSet.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
