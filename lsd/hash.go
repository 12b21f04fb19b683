// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lsd

import (
	"github.com/ethereum/go-ethereum/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Blake2b computes blake2b-256 checksum for given data.
// It is used to derive storage positions, never for report identity.
func Blake2b(data ...[]byte) Bytes32 {
	if len(data) == 1 {
		return blake2b.Sum256(data[0])
	}
	h, _ := blake2b.New256(nil)
	for _, b := range data {
		h.Write(b)
	}
	var out Bytes32
	h.Sum(out[:0])
	return out
}

// Keccak256 computes the legacy keccak-256 checksum for given data.
// Committee members hash report contents with it.
func Keccak256(data ...[]byte) Bytes32 {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	var out Bytes32
	h.Sum(out[:0])
	return out
}
