// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package teststate builds in-memory states for component tests.
package teststate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsdcore/lsd/lvldb"
	"github.com/lsdcore/lsd/state"
)

// New returns an empty state over an in-memory leveldb closed at test cleanup.
func New(t testing.TB) *state.State {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st, err := state.New(db, 0)
	require.NoError(t, err)
	return st
}
