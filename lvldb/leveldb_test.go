// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsdcore/lsd/kv"
)

func TestLevelDB(t *testing.T) {
	var (
		key        = []byte("123")
		value      = []byte("456")
		inValidKey = []byte("abc")
	)

	disk, err := New(filepath.Join(t.TempDir(), "db"), Options{16, 16})
	require.NoError(t, err)
	defer disk.Close()

	mem, err := NewMem()
	require.NoError(t, err)
	defer mem.Close()

	for _, ldb := range []*LevelDB{disk, mem} {
		require.NoError(t, ldb.Put(key, value))

		got, err := ldb.Get(key)
		assert.NoError(t, err)
		assert.Equal(t, value, got)

		has, err := ldb.Has(key)
		assert.NoError(t, err)
		assert.True(t, has)

		has, err = ldb.Has(inValidKey)
		assert.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, ldb.Delete(key))
		_, err = ldb.Get(key)
		assert.True(t, ldb.IsNotFound(err))
	}
}

func TestBulkAndIterate(t *testing.T) {
	ldb, err := NewMem()
	require.NoError(t, err)
	defer ldb.Close()

	store := kv.Bucket("s").NewStore(ldb)
	bulk := store.Bulk()
	require.NoError(t, bulk.Put([]byte("a"), []byte("1")))
	require.NoError(t, bulk.Put([]byte("b"), []byte("2")))
	require.NoError(t, ldb.Put([]byte("t"), []byte("outside")))
	assert.Equal(t, 2, bulk.Len())

	// nothing visible before write
	_, err = store.Get([]byte("a"))
	assert.True(t, store.IsNotFound(err))

	require.NoError(t, bulk.Write())

	raw, err := ldb.Get([]byte("sa"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), raw)

	var keys []string
	require.NoError(t, store.Iterate(kv.Range{}, func(p kv.Pair) bool {
		keys = append(keys, string(p.Key()))
		return true
	}))
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	ldb, err := New(path, Options{})
	require.NoError(t, err)
	require.NoError(t, ldb.Put([]byte("k"), []byte("v")))
	require.NoError(t, ldb.Close())

	ldb, err = New(path, Options{})
	require.NoError(t, err)
	defer ldb.Close()

	v, err := ldb.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}
