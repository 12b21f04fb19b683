// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket provides logical bucket for kv store.
type Bucket string

func (b Bucket) key(k []byte) []byte {
	return append(append(make([]byte, 0, len(b)+len(k)), b...), k...)
}

// NewStore creates a bucket store from the source store.
// Keys passed to the returned store are transparently prefixed.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{b, src}
}

// Range returns the range covering all keys of the bucket.
func (b Bucket) Range() Range {
	start := []byte(b)
	limit := make([]byte, len(start))
	copy(limit, start)
	for i := len(limit) - 1; i >= 0; i-- {
		if limit[i] < 0xff {
			limit[i]++
			return Range{Start: start, Limit: limit[:i+1]}
		}
	}
	return Range{Start: start}
}

type bucketStore struct {
	b   Bucket
	src Store
}

func (s *bucketStore) Get(key []byte) ([]byte, error) { return s.src.Get(s.b.key(key)) }
func (s *bucketStore) Has(key []byte) (bool, error)   { return s.src.Has(s.b.key(key)) }
func (s *bucketStore) IsNotFound(err error) bool      { return s.src.IsNotFound(err) }
func (s *bucketStore) Put(key, val []byte) error      { return s.src.Put(s.b.key(key), val) }
func (s *bucketStore) Delete(key []byte) error        { return s.src.Delete(s.b.key(key)) }

func (s *bucketStore) Bulk() Bulk {
	return &bucketBulk{s.b, s.src.Bulk()}
}

func (s *bucketStore) Iterate(r Range, fn func(Pair) bool) error {
	rng := Range{Start: s.b.key(r.Start)}
	if len(r.Limit) > 0 {
		rng.Limit = s.b.key(r.Limit)
	} else {
		rng.Limit = s.b.Range().Limit
	}
	return s.src.Iterate(rng, func(p Pair) bool {
		return fn(&pair{p.Key()[len(s.b):], p.Value()})
	})
}

type bucketBulk struct {
	b   Bucket
	src Bulk
}

func (bb *bucketBulk) Put(key, val []byte) error { return bb.src.Put(bb.b.key(key), val) }
func (bb *bucketBulk) Delete(key []byte) error   { return bb.src.Delete(bb.b.key(key)) }
func (bb *bucketBulk) Len() int                  { return bb.src.Len() }
func (bb *bucketBulk) Write() error              { return bb.src.Write() }

type pair struct {
	k, v []byte
}

func (p *pair) Key() []byte   { return p.k }
func (p *pair) Value() []byte { return p.v }
