package store

import (
	"testing"

	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/weavetest/assert"
)

func readAll(t *testing.T, it Iterator) []Model {
	t.Helper()
	defer it.Release()
	var res []Model
	for {
		k, v, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return res
		}
		assert.Nil(t, err)
		res = append(res, Model{Key: k, Value: v})
	}
}

func TestCacheIteratorMergesLayers(t *testing.T) {
	base := MemStore()
	for _, k := range []string{"a", "c", "e", "g"} {
		assert.Nil(t, base.Set([]byte(k), []byte("base-"+k)))
	}
	cache := base.CacheWrap()
	assert.Nil(t, cache.Set([]byte("b"), []byte("cache-b")))
	assert.Nil(t, cache.Set([]byte("c"), []byte("cache-c")))
	assert.Nil(t, cache.Delete([]byte("e")))

	cases := map[string]struct {
		start, end []byte
		reverse    bool
		want       []Model
	}{
		"full range ascending": {
			want: []Model{
				{Key: []byte("a"), Value: []byte("base-a")},
				{Key: []byte("b"), Value: []byte("cache-b")},
				{Key: []byte("c"), Value: []byte("cache-c")},
				{Key: []byte("g"), Value: []byte("base-g")},
			},
		},
		"full range descending": {
			reverse: true,
			want: []Model{
				{Key: []byte("g"), Value: []byte("base-g")},
				{Key: []byte("c"), Value: []byte("cache-c")},
				{Key: []byte("b"), Value: []byte("cache-b")},
				{Key: []byte("a"), Value: []byte("base-a")},
			},
		},
		"bounded range excludes end": {
			start: []byte("b"),
			end:   []byte("g"),
			want: []Model{
				{Key: []byte("b"), Value: []byte("cache-b")},
				{Key: []byte("c"), Value: []byte("cache-c")},
			},
		},
		"empty range": {
			start: []byte("h"),
			end:   []byte("z"),
			want:  nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var (
				it  Iterator
				err error
			)
			if tc.reverse {
				it, err = cache.ReverseIterator(tc.start, tc.end)
			} else {
				it, err = cache.Iterator(tc.start, tc.end)
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.want, readAll(t, it))
		})
	}
}

func TestCacheIteratorRelease(t *testing.T) {
	db := MemStore()
	assert.Nil(t, db.Set([]byte("a"), []byte("A")))
	cache := db.CacheWrap()

	it, err := cache.Iterator([]byte("a"), []byte("z"))
	if err != nil {
		t.Fatalf("cannot create iterator: %s", err)
	}
	// Release must be a synchronous operation.
	it.Release()
	assert.Nil(t, db.Delete([]byte("a")))

	rit, err := cache.ReverseIterator([]byte("a"), []byte("z"))
	if err != nil {
		t.Fatalf("cannot create iterator: %s", err)
	}
	rit.Release()
}
