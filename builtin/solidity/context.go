// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/lsdcore/lsd/lsd"
	"github.com/lsdcore/lsd/state"
)

// Context binds the storage of one component address.
type Context struct {
	address lsd.Address
	state   *state.State
}

func NewContext(address lsd.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) Address() lsd.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

// Emit buffers an event attributed to the component address.
func (c *Context) Emit(topics []lsd.Bytes32, data []byte) {
	if len(topics) > lsd.MaxTopics {
		panic("solidity: too many topics")
	}
	c.state.AddEvent(&lsd.Event{
		Address: c.address,
		Topics:  topics,
		Data:    data,
	})
}
