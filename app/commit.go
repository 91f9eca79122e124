package app

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// CommitStore handles loading from a CommitKVStore and running state
// changes in isolated cache wraps. A change is written and committed only
// if it succeeds as a whole.
type CommitStore struct {
	committed weave.CommitKVStore
}

// NewCommitStore loads the latest persisted version of the store.
func NewCommitStore(store weave.CommitKVStore) (*CommitStore, error) {
	if err := store.LoadLatestVersion(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return &CommitStore{committed: store}, nil
}

// CommitInfo returns the current height and hash
func (cs *CommitStore) CommitInfo() (weave.CommitID, error) {
	return cs.committed.LatestVersion()
}

// Apply runs fn against a fresh cache wrap. When fn succeeds the changes
// are flushed and committed to disk as a new version, otherwise they are
// discarded and the committed state is left untouched.
func (cs *CommitStore) Apply(fn func(weave.KVStore) error) (weave.CommitID, error) {
	cache := cs.committed.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return weave.CommitID{}, err
	}
	if err := cache.Write(); err != nil {
		return weave.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	id, err := cs.committed.Commit()
	if err != nil {
		return id, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return id, nil
}

// View runs fn against a cache wrap that is always discarded. Use it for
// queries and checks that must not leave any trace.
func (cs *CommitStore) View(fn func(weave.KVStore) error) error {
	cache := cs.committed.CacheWrap()
	defer cache.Discard()
	return fn(cache)
}

//------- storing chainID ---------

// _wv: is a prefix for weave internal data
const chainIDKey = "_wv:chainID"

// loadChainID returns the chain id stored if any
func loadChainID(kv weave.ReadOnlyKVStore) (string, error) {
	v, err := kv.Get([]byte(chainIDKey))
	if err != nil {
		return "", errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return string(v), nil
}

// saveChainID stores a chain id in the kv store.
// Returns error if already set, or invalid name
func saveChainID(kv weave.KVStore, chainID string) error {
	if !weave.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}
	k := []byte(chainIDKey)
	exists, err := kv.Has(k)
	if err != nil {
		return errors.Wrap(err, "load chainId")
	}
	if exists {
		return errors.Wrap(errors.ErrUnauthorized, "can't modify chain id after genesis init")
	}
	err = kv.Set(k, []byte(chainID))
	if err != nil {
		return errors.Wrap(err, "save chainId")
	}
	return nil
}
