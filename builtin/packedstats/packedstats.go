// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package packedstats stores fixed width counters packed into one storage word per entity.
package packedstats

import (
	"encoding/binary"

	"github.com/lsdcore/lsd/builtin/reverts"
	"github.com/lsdcore/lsd/builtin/solidity"
	"github.com/lsdcore/lsd/lsd"
)

// NumFields is the number of 64 bit fields in one 256 bit word.
const NumFields = 4

// Field indexes a counter within Counters.
type Field int

// Counters is the unpacked form of a storage word.
type Counters [NumFields]uint64

func (c Counters) pack() (word lsd.Bytes32) {
	for i, v := range c {
		binary.BigEndian.PutUint64(word[i*8:], v)
	}
	return
}

func unpack(word lsd.Bytes32) (c Counters) {
	for i := range c {
		c[i] = binary.BigEndian.Uint64(word[i*8:])
	}
	return
}

// Validator checks field level invariants before a write.
type Validator func(Counters) error

// Store keeps one packed word per key.
type Store struct {
	sctx     *solidity.Context
	basePos  lsd.Bytes32
	validate Validator
}

// New creates a store whose words live under the slot namespace derived from name.
// validate may be nil.
func New(sctx *solidity.Context, name string, validate Validator) *Store {
	return &Store{
		sctx:     sctx,
		basePos:  lsd.BytesToBytes32([]byte(name)),
		validate: validate,
	}
}

func (s *Store) position(key solidity.Key) lsd.Bytes32 {
	return lsd.Blake2b(key.Bytes(), s.basePos.Bytes())
}

func (s *Store) Get(key solidity.Key) (Counters, error) {
	word, err := s.sctx.State().GetStorage(s.sctx.Address(), s.position(key))
	if err != nil {
		return Counters{}, err
	}
	return unpack(word), nil
}

func (s *Store) Set(key solidity.Key, c Counters) error {
	if s.validate != nil {
		if err := s.validate(c); err != nil {
			return err
		}
	}
	s.sctx.State().SetStorage(s.sctx.Address(), s.position(key), c.pack())
	return nil
}

// Add increments one field and returns the updated counters.
func (s *Store) Add(key solidity.Key, f Field, delta uint64) (Counters, error) {
	c, err := s.Get(key)
	if err != nil {
		return Counters{}, err
	}
	next := c[f] + delta
	if next < c[f] {
		return Counters{}, reverts.ErrOverflow
	}
	c[f] = next
	return c, s.Set(key, c)
}

// Sub decrements one field and returns the updated counters.
func (s *Store) Sub(key solidity.Key, f Field, delta uint64) (Counters, error) {
	c, err := s.Get(key)
	if err != nil {
		return Counters{}, err
	}
	if c[f] < delta {
		return Counters{}, reverts.ErrUnderflow
	}
	c[f] -= delta
	return c, s.Set(key, c)
}

// Diff compares the stored counters with next, field by field.
// For every field exactly one of increase and decrease is non zero, unless both are.
func (s *Store) Diff(key solidity.Key, next Counters) (increase, decrease Counters, err error) {
	prev, err := s.Get(key)
	if err != nil {
		return
	}
	for i := range prev {
		if next[i] >= prev[i] {
			increase[i] = next[i] - prev[i]
		} else {
			decrease[i] = prev[i] - next[i]
		}
	}
	return
}
