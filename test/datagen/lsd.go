// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"

	"github.com/lsdcore/lsd/lsd"
)

func RandAddress() (addr lsd.Address) {
	rand.Read(addr[:])
	return
}

func RandAddresses(n int) []lsd.Address {
	addrs := make([]lsd.Address, n)
	for i := range addrs {
		addrs[i] = RandAddress()
	}
	return addrs
}
