// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/lsdcore/lsd/lsd"
)

// Stage abstracts the changes to be written into the store.
type Stage struct {
	state   *State
	order   []storageKey
	changes map[storageKey]rlp.RawValue
	events  []*lsd.Event
}

// Len returns the number of changed slots.
func (s *Stage) Len() int {
	return len(s.order)
}

// Events returns the events produced by the staged changes.
func (s *Stage) Events() []*lsd.Event {
	return s.events
}

// Commit writes all changes in one batch and resets the journal of the state.
func (s *Stage) Commit() error {
	bulk := s.state.store.Bulk()
	for _, k := range s.order {
		v := s.changes[k]
		var err error
		if len(v) == 0 {
			err = bulk.Delete(k.encode())
		} else {
			err = bulk.Put(k.encode(), v)
		}
		if err != nil {
			return &Error{errors.Wrap(err, "stage slot")}
		}
	}
	if err := bulk.Write(); err != nil {
		return &Error{errors.Wrap(err, "write batch")}
	}

	for _, k := range s.order {
		s.state.cache.Add(k, s.changes[k])
	}
	metricCommittedSlot().Add(int64(len(s.order)))
	s.state.reset()
	return nil
}
