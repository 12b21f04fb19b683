// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lsdcore/lsd/lsd"
)

func TestAddresses(t *testing.T) {
	seen := make(map[lsd.Address]bool)
	for _, addr := range Addresses() {
		assert.False(t, addr.IsZero())
		assert.False(t, seen[addr], "duplicated address %v", addr)
		seen[addr] = true
	}
	assert.Equal(t, lsd.BytesToAddress([]byte("Ledger")), Ledger.Address)
	assert.Equal(t, "Committee", Committee.Name())
}
