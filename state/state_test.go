// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsdcore/lsd/lsd"
	"github.com/lsdcore/lsd/lvldb"
)

func newState(t *testing.T) (*State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st, err := New(db, 0)
	require.NoError(t, err)
	return st, db
}

func TestStorage(t *testing.T) {
	st, _ := newState(t)
	addr := lsd.BytesToAddress([]byte("ledger"))
	key := lsd.BytesToBytes32([]byte("total-shares"))

	v, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	st.SetStorage(addr, key, lsd.BytesToBytes32([]byte{1, 2}))
	v, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, lsd.BytesToBytes32([]byte{1, 2}), v)

	st.SetStorage(addr, key, lsd.Bytes32{})
	raw, err := st.GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestStructuredStorage(t *testing.T) {
	st, _ := newState(t)
	addr := lsd.BytesToAddress([]byte("committee"))
	key := lsd.BytesToBytes32([]byte("members"))

	members := []lsd.Address{lsd.BytesToAddress([]byte("a")), lsd.BytesToAddress([]byte("b"))}
	require.NoError(t, st.EncodeStorage(addr, key, func() ([]byte, error) {
		return rlp.EncodeToBytes(members)
	}))

	var decoded []lsd.Address
	require.NoError(t, st.DecodeStorage(addr, key, func(raw []byte) error {
		return rlp.DecodeBytes(raw, &decoded)
	}))
	assert.Equal(t, members, decoded)

	h, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.False(t, h.IsZero())

	// a failing decoder surfaces as a state error
	err = st.DecodeStorage(addr, key, func(raw []byte) error {
		var n uint64
		return rlp.DecodeBytes(raw, &n)
	})
	var serr *Error
	assert.ErrorAs(t, err, &serr)
}

func TestCheckpointRevert(t *testing.T) {
	st, _ := newState(t)
	addr := lsd.BytesToAddress([]byte("ledger"))
	k1 := lsd.BytesToBytes32([]byte("k1"))
	k2 := lsd.BytesToBytes32([]byte("k2"))

	st.SetStorage(addr, k1, lsd.BytesToBytes32([]byte{1}))
	st.AddEvent(&lsd.Event{Address: addr})

	rev := st.NewCheckpoint()
	st.SetStorage(addr, k1, lsd.BytesToBytes32([]byte{2}))
	st.SetStorage(addr, k2, lsd.BytesToBytes32([]byte{3}))
	st.AddEvent(&lsd.Event{Address: addr})
	assert.Len(t, st.Events(), 2)

	nested := st.NewCheckpoint()
	st.SetStorage(addr, k2, lsd.BytesToBytes32([]byte{4}))
	st.RevertTo(nested)

	v, _ := st.GetStorage(addr, k2)
	assert.Equal(t, lsd.BytesToBytes32([]byte{3}), v)

	st.RevertTo(rev)
	v, _ = st.GetStorage(addr, k1)
	assert.Equal(t, lsd.BytesToBytes32([]byte{1}), v)
	v, _ = st.GetStorage(addr, k2)
	assert.True(t, v.IsZero())
	assert.Len(t, st.Events(), 1)

	assert.Panics(t, func() { st.RevertTo(5) })
}

func TestStageCommit(t *testing.T) {
	st, db := newState(t)
	addr := lsd.BytesToAddress([]byte("ledger"))
	k1 := lsd.BytesToBytes32([]byte("k1"))
	k2 := lsd.BytesToBytes32([]byte("k2"))

	st.SetStorage(addr, k1, lsd.BytesToBytes32([]byte{1}))
	st.SetStorage(addr, k1, lsd.BytesToBytes32([]byte{9}))
	st.SetStorage(addr, k2, lsd.BytesToBytes32([]byte{2}))
	st.AddEvent(&lsd.Event{Address: addr})

	stage := st.Stage()
	assert.Equal(t, 2, stage.Len())
	assert.Len(t, stage.Events(), 1)
	require.NoError(t, stage.Commit())
	assert.Empty(t, st.Events())

	// a fresh state over the same store sees committed values
	other, err := New(db, 16)
	require.NoError(t, err)
	v, err := other.GetStorage(addr, k1)
	require.NoError(t, err)
	assert.Equal(t, lsd.BytesToBytes32([]byte{9}), v)

	// deletes are committed too
	st.SetStorage(addr, k2, lsd.Bytes32{})
	require.NoError(t, st.Stage().Commit())
	other, err = New(db, 16)
	require.NoError(t, err)
	v, err = other.GetStorage(addr, k2)
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}

func TestPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	addr := lsd.BytesToAddress([]byte("ratelimit"))
	key := lsd.BytesToBytes32([]byte("limit"))

	db, err := lvldb.New(path, lvldb.Options{})
	require.NoError(t, err)
	st, err := New(db, 0)
	require.NoError(t, err)
	st.SetStorage(addr, key, lsd.BytesToBytes32([]byte{7}))
	require.NoError(t, st.Stage().Commit())
	require.NoError(t, db.Close())

	db, err = lvldb.New(path, lvldb.Options{})
	require.NoError(t, err)
	defer db.Close()
	st, err = New(db, 0)
	require.NoError(t, err)
	v, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, lsd.BytesToBytes32([]byte{7}), v)
}
