// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lsd

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr := BytesToAddress([]byte("holder"))

	parsed, err := ParseAddress(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, *parsed)

	parsed, err = ParseAddress(addr.String()[2:])
	require.NoError(t, err)
	assert.Equal(t, addr, *parsed)

	_, err = ParseAddress("0x1234")
	assert.EqualError(t, err, "invalid length")

	_, err = ParseAddress("1x" + addr.String()[2:])
	assert.EqualError(t, err, "invalid prefix")
}

func TestAddressText(t *testing.T) {
	addr := BytesToAddress([]byte("member"))
	text, err := addr.MarshalText()
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, addr, decoded)
	assert.False(t, decoded.IsZero())
	assert.True(t, Address{}.IsZero())
}

func TestBytes32(t *testing.T) {
	b := BytesToBytes32([]byte("slot"))
	parsed, err := ParseBytes32(b.String())
	require.NoError(t, err)
	assert.Equal(t, b, parsed)
	assert.False(t, b.IsZero())

	_, err = ParseBytes32("0x00")
	assert.Error(t, err)
}

func TestHashes(t *testing.T) {
	// keccak256("")
	assert.Equal(t,
		"c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		hex.EncodeToString(Keccak256().Bytes()))

	assert.Equal(t, Blake2b([]byte("ab")), Blake2b([]byte("a"), []byte("b")))
	assert.NotEqual(t, Blake2b([]byte("a")), Keccak256([]byte("a")))
}

func TestDepositSize(t *testing.T) {
	assert.Equal(t, "32000000000000000000", DepositSize.Dec())
}
