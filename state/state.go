// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/lsdcore/lsd/kv"
	"github.com/lsdcore/lsd/lsd"
	"github.com/lsdcore/lsd/stackedmap"
)

// StorageBucket is the kv bucket holding committed slots.
const StorageBucket kv.Bucket = "s"

const defaultCacheSize = 4096

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr lsd.Address
	key  lsd.Bytes32
}

func (k storageKey) encode() []byte {
	return append(append(make([]byte, 0, lsd.AddressLength+32), k.addr[:]...), k.key[:]...)
}

// State manages the slots of every component.
type State struct {
	store  kv.Store
	cache  *lru.Cache                                     // committed raw values
	sm     *stackedmap.StackedMap[storageKey, rlp.RawValue] // keeps revisions of slots
	events []*lsd.Event
	marks  []int // len(events) at each checkpoint
}

// New create state object on top of the given store.
// cacheSize bounds the number of committed slots kept in memory, 0 means the default.
func New(store kv.Store, cacheSize int) (*State, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "new state cache")
	}
	s := &State{
		store: StorageBucket.NewStore(store),
		cache: cache,
	}
	s.sm = stackedmap.New[storageKey, rlp.RawValue](s.committedGetter)
	return s, nil
}

// committedGetter implements stackedmap.MapGetter.
func (s *State) committedGetter(key storageKey) (rlp.RawValue, bool, error) {
	if v, ok := s.cache.Get(key); ok {
		metricCacheCounter().AddWithLabel(1, map[string]string{"event": "hit"})
		return v.(rlp.RawValue), true, nil
	}
	metricCacheCounter().AddWithLabel(1, map[string]string{"event": "miss"})

	raw, err := s.store.Get(key.encode())
	if err != nil {
		if !s.store.IsNotFound(err) {
			return nil, false, err
		}
		raw = nil
	}
	s.cache.Add(key, rlp.RawValue(raw))
	return raw, true, nil
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr lsd.Address, key lsd.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw. Empty raw deletes the slot.
func (s *State) SetRawStorage(addr lsd.Address, key lsd.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr lsd.Address, key lsd.Bytes32) (lsd.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return lsd.Bytes32{}, err
	}
	if len(raw) == 0 {
		return lsd.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return lsd.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// structured value, expose its hash
		return lsd.Blake2b(raw), nil
	}
	return lsd.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr lsd.Address, key, value lsd.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(addr lsd.Address, key lsd.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr lsd.Address, key lsd.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// AddEvent buffers an event. It is dropped if the enclosing checkpoint is reverted.
func (s *State) AddEvent(ev *lsd.Event) {
	s.events = append(s.events, ev)
}

// Events returns the events buffered since the last commit.
func (s *State) Events() []*lsd.Event {
	return s.events
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	s.marks = append(s.marks, len(s.events))
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	if revision < 1 || revision > len(s.marks) {
		panic(fmt.Errorf("state: invalid revision %d", revision))
	}
	s.sm.PopTo(revision)
	s.events = s.events[:s.marks[revision-1]]
	s.marks = s.marks[:revision-1]
}

// Stage collects the cumulative changes since the last commit.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey]rlp.RawValue)
	var order []storageKey
	s.sm.Journal(func(k storageKey, v rlp.RawValue) bool {
		if _, ok := changes[k]; !ok {
			order = append(order, k)
		}
		changes[k] = v
		return true
	})
	return &Stage{
		state:   s,
		order:   order,
		changes: changes,
		events:  append([]*lsd.Event(nil), s.events...),
	}
}

func (s *State) reset() {
	s.sm.Reset()
	s.events = nil
	s.marks = nil
}
