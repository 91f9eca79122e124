package iavl

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
	"github.com/iov-one/weave-escrow/weavetest/assert"
)

func assertGetHas(t testing.TB, kv store.ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

// TestCacheGetSet does basic sanity checks on our cache
func TestCacheGetSet(t *testing.T) {
	commit := NewMemCommitStore()
	base := commit.Adapter()

	k, v := []byte("french"), []byte("fry")
	assertGetHas(t, base, k, nil, false)
	assert.Nil(t, base.Set(k, v))
	assertGetHas(t, base, k, v, true)

	// now layer another btree on top and make sure that we get
	// base data
	cache := base.CacheWrap()
	assertGetHas(t, cache, k, v, true)

	// writing more data is only visible in the cache
	k2, v2 := []byte("LA"), []byte("Dodgers")
	assert.Nil(t, cache.Set(k2, v2))
	assertGetHas(t, cache, k2, v2, true)
	assertGetHas(t, base, k2, nil, false)

	// we can write the cache to the base layer...
	assert.Nil(t, cache.Write())
	assertGetHas(t, base, k2, v2, true)

	// a discarded cache leaves no trace
	c2 := base.CacheWrap()
	assert.Nil(t, c2.Delete(k))
	c2.Discard()
	assertGetHas(t, base, k, v, true)
}

func TestCommitVersions(t *testing.T) {
	commit := NewMemCommitStore()

	id, err := commit.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, int64(0), id.Version)

	cache := commit.CacheWrap()
	assert.Nil(t, cache.Set([]byte("escrow"), []byte("1")))
	assert.Nil(t, cache.Write())

	first, err := commit.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(1), first.Version)

	cache = commit.CacheWrap()
	assert.Nil(t, cache.Set([]byte("escrow"), []byte("2")))
	assert.Nil(t, cache.Write())
	second, err := commit.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(2), second.Version)
	if string(first.Hash) == string(second.Hash) {
		t.Fatal("different state must produce a different hash")
	}

	val, err := commit.Get([]byte("escrow"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("2"), val)
}

func TestIteratorRange(t *testing.T) {
	commit := NewMemCommitStore()
	base := commit.Adapter()
	for _, k := range []string{"a", "b", "c", "d"} {
		assert.Nil(t, base.Set([]byte(k), []byte(k)))
	}

	it, err := base.Iterator([]byte("b"), []byte("d"))
	assert.Nil(t, err)
	var keys []string
	for {
		k, _, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			break
		}
		assert.Nil(t, err)
		keys = append(keys, string(k))
	}
	it.Release()
	assert.Equal(t, []string{"b", "c"}, keys)

	rit, err := base.ReverseIterator(nil, nil)
	assert.Nil(t, err)
	keys = nil
	for {
		k, _, err := rit.Next()
		if errors.ErrIteratorDone.Is(err) {
			break
		}
		assert.Nil(t, err)
		keys = append(keys, string(k))
	}
	rit.Release()
	assert.Equal(t, []string{"d", "c", "b", "a"}, keys)
}

func TestPersistence(t *testing.T) {
	dir, err := ioutil.TempDir("", "iavl-adapter-")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	commit, err := NewCommitStore(dir, "state")
	assert.Nil(t, err)
	assert.Nil(t, commit.LoadLatestVersion())
	cache := commit.CacheWrap()
	assert.Nil(t, cache.Set([]byte("k"), []byte("v")))
	assert.Nil(t, cache.Write())
	want, err := commit.Commit()
	assert.Nil(t, err)
	commit.Close()

	reopened, err := NewCommitStore(dir, "state")
	assert.Nil(t, err)
	defer reopened.Close()
	assert.Nil(t, reopened.LoadLatestVersion())
	got, err := reopened.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, want, got)
	assertGetHas(t, reopened.Adapter(), []byte("k"), []byte("v"), true)
}
