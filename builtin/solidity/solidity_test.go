// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsdcore/lsd/builtin/reverts"
	"github.com/lsdcore/lsd/lsd"
	"github.com/lsdcore/lsd/test/datagen"
	"github.com/lsdcore/lsd/test/teststate"
)

type TestStruct struct {
	Field1 uint64
	Field2 uint64
	Addr1  lsd.Address
	Bytes1 lsd.Bytes32
}

func newTestContext(t *testing.T) *Context {
	return NewContext(lsd.Address{1}, teststate.New(t))
}

func newRandomStruct() *TestStruct {
	return &TestStruct{
		Field1: 100,
		Field2: 200,
		Addr1:  datagen.RandAddress(),
		Bytes1: datagen.RandomHash(),
	}
}

func TestUint256(t *testing.T) {
	u := NewUint256(newTestContext(t), lsd.Bytes32{1})

	v, err := u.Get()
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	v, err = u.Add(uint256.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), v.Uint64())

	v, err = u.Sub(uint256.NewInt(4))
	require.NoError(t, err)
	assert.Equal(t, uint64(6), v.Uint64())

	_, err = u.Sub(uint256.NewInt(7))
	assert.True(t, errors.Is(err, reverts.ErrUnderflow))

	maxU := new(uint256.Int).SetAllOne()
	u.Set(maxU)
	_, err = u.Add(uint256.NewInt(1))
	assert.True(t, errors.Is(err, reverts.ErrOverflow))

	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, maxU, v, "failed arithmetic must not write")
}

func TestAddressAndBytes32(t *testing.T) {
	ctx := newTestContext(t)
	a := NewAddress(ctx, lsd.Bytes32{2})
	b := NewBytes32(ctx, lsd.Bytes32{3})

	addr := datagen.RandAddress()
	a.Set(addr)
	got, err := a.Get()
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	hash := datagen.RandomHash()
	b.Set(hash)
	gotHash, err := b.Get()
	require.NoError(t, err)
	assert.Equal(t, hash, gotHash)
}

func TestValue(t *testing.T) {
	ctx := newTestContext(t)
	v := NewValue[*TestStruct](ctx, lsd.Bytes32{4})

	got, err := v.Get()
	require.NoError(t, err)
	assert.Nil(t, got)

	value := newRandomStruct()
	require.NoError(t, v.Set(value))
	got, err = v.Get()
	require.NoError(t, err)
	assert.Equal(t, value, got)

	v.Clear()
	got, err = v.Get()
	require.NoError(t, err)
	assert.Nil(t, got)

	n := NewValue[uint64](ctx, lsd.Bytes32{5})
	require.NoError(t, n.Set(42))
	gotN, err := n.Get()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), gotN)
}

func TestMapping(t *testing.T) {
	ctx := newTestContext(t)
	mapping := NewMapping[lsd.Address, *TestStruct](ctx, lsd.Bytes32{6})
	key := datagen.RandAddress()

	got, err := mapping.Get(key)
	require.NoError(t, err)
	assert.Nil(t, got)

	value := newRandomStruct()
	require.NoError(t, mapping.Set(key, value))
	got, err = mapping.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	// other keys unaffected
	got, err = mapping.Get(datagen.RandAddress())
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, mapping.Set(key, nil))
	got, err = mapping.Get(key)
	require.NoError(t, err)
	assert.Nil(t, got)

	indexed := NewMapping[Uint64Key, lsd.Address](ctx, lsd.Bytes32{7})
	addr := datagen.RandAddress()
	require.NoError(t, indexed.Set(3, addr))
	gotAddr, err := indexed.Get(3)
	require.NoError(t, err)
	assert.Equal(t, addr, gotAddr)
	indexed.Delete(3)
	gotAddr, err = indexed.Get(3)
	require.NoError(t, err)
	assert.True(t, gotAddr.IsZero())
}

func TestEmit(t *testing.T) {
	ctx := newTestContext(t)
	topic := lsd.EventTopic("Ping()")
	ctx.Emit([]lsd.Bytes32{topic}, []byte{1})

	events := ctx.State().Events()
	require.Len(t, events, 1)
	assert.Equal(t, ctx.Address(), events[0].Address)
	assert.Equal(t, topic, events[0].Topics[0])

	assert.Panics(t, func() { ctx.Emit(make([]lsd.Bytes32, lsd.MaxTopics+1), nil) })
}
