// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/lsdcore/lsd/lsd"
)

// Value stores an arbitrary rlp encodable value in a single slot.
// An empty slot decodes to the zero value of T.
type Value[T any] struct {
	context *Context
	pos     lsd.Bytes32
}

func NewValue[T any](context *Context, pos lsd.Bytes32) *Value[T] {
	return &Value[T]{context: context, pos: pos}
}

func (v *Value[T]) Get() (value T, err error) {
	err = decodeSlot(v.context, v.pos, &value)
	return
}

func (v *Value[T]) Set(value T) error {
	return encodeSlot(v.context, v.pos, value)
}

func (v *Value[T]) Clear() {
	v.context.state.SetRawStorage(v.context.address, v.pos, nil)
}

func decodeSlot[T any](ctx *Context, pos lsd.Bytes32, value *T) error {
	return ctx.state.DecodeStorage(ctx.address, pos, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		if reflect.ValueOf(*value).Kind() == reflect.Ptr {
			*value = reflect.New(reflect.TypeOf(*value).Elem()).Interface().(T)
			return rlp.DecodeBytes(raw, *value)
		}
		return rlp.DecodeBytes(raw, value)
	})
}

func encodeSlot[T any](ctx *Context, pos lsd.Bytes32, value T) error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() == reflect.Ptr && rv.IsNil()) {
		ctx.state.SetRawStorage(ctx.address, pos, nil)
		return nil
	}
	return ctx.state.EncodeStorage(ctx.address, pos, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}
