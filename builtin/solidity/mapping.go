// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/qianbin/drlp"

	"github.com/lsdcore/lsd/lsd"
)

type Key interface {
	Bytes() []byte
}

// Uint64Key keys a mapping by an integer index, encoded as an rlp uint.
type Uint64Key uint64

func (k Uint64Key) Bytes() []byte {
	return drlp.AppendUint(nil, uint64(k))
}

// Mapping is a key/value storage abstraction for built-in components, similar to the mapping in Solidity.
// The slot of a key is blake2b(key, basePos), so it never collides with a fixed slot of the same component.
type Mapping[K Key, V any] struct {
	context *Context
	basePos lsd.Bytes32
}

func NewMapping[K Key, V any](context *Context, pos lsd.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) lsd.Bytes32 {
	return lsd.Blake2b(key.Bytes(), m.basePos.Bytes())
}

// Get returns the zero value of V (nil for pointer types) when the key was never set.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = decodeSlot(m.context, m.position(key), &value)
	return
}

// Set stores value under key. A nil pointer clears the entry.
func (m *Mapping[K, V]) Set(key K, value V) error {
	return encodeSlot(m.context, m.position(key), value)
}

func (m *Mapping[K, V]) Delete(key K) {
	m.context.state.SetRawStorage(m.context.address, m.position(key), nil)
}
