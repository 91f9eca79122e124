package orm

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

const compactIdxPrefix = "_i."

// compactIndex stores all indexed entities as a set, serialized and stored
// under single key. This implementation should be used only for small
// sized index collections.
//
// It is indexed by an arbitrary key returned by Indexer.
// The value is one primary key (unique),
// Or a MultiRef of primary keys (!unique).
type compactIndex struct {
	name   string
	id     []byte
	unique bool
	index  Indexer
}

func newCompactIndex(bucket, name string, indexer Indexer, unique bool) compactIndex {
	return compactIndex{
		name:   name,
		id:     []byte(compactIdxPrefix + bucket + "_" + name + ":"),
		index:  indexer,
		unique: unique,
	}
}

// indexKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (i compactIndex) indexKey(key []byte) []byte {
	l := len(i.id)
	out := make([]byte, l+len(key))
	copy(out, i.id)
	copy(out[l:], key)
	return out
}

// Update handles updating the reference to the model in
// the secondary index.
//
// prev == nil means insert
// save == nil means delete
// both == nil is error
func (i compactIndex) Update(db weave.KVStore, pk []byte, prev, save Model) error {
	if prev == nil && save == nil {
		return errors.Wrap(errors.ErrHuman, "update requires at least one non-nil model")
	}
	var before, after []byte
	if prev != nil {
		k, err := i.index(prev)
		if err != nil {
			return errors.Wrapf(err, "index %q", i.name)
		}
		before = k
	}
	if save != nil {
		k, err := i.index(save)
		if err != nil {
			return errors.Wrapf(err, "index %q", i.name)
		}
		after = k
	}

	if prev != nil && save != nil && string(before) == string(after) {
		return nil
	}
	if before != nil {
		if err := i.remove(db, before, pk); err != nil {
			return err
		}
	}
	if after != nil {
		if err := i.insert(db, after, pk); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns a list of all primary keys that were indexed under given
// value.
func (i compactIndex) Keys(db weave.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	raw, err := db.Get(i.indexKey(value))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return nil, nil
	}
	if i.unique {
		return [][]byte{raw}, nil
	}
	var refs MultiRef
	if err := weave.Unmarshal(raw, &refs); err != nil {
		return nil, err
	}
	return refs.Refs, nil
}

func (i compactIndex) insert(db weave.KVStore, value, pk []byte) error {
	key := i.indexKey(value)
	raw, err := db.Get(key)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}

	if i.unique {
		if raw != nil {
			return errors.Wrapf(errors.ErrDuplicate, "index %q: %X", i.name, value)
		}
		return db.Set(key, pk)
	}

	var refs MultiRef
	if raw != nil {
		if err := weave.Unmarshal(raw, &refs); err != nil {
			return err
		}
	}
	if err := refs.Add(pk); err != nil {
		return err
	}
	bz, err := weave.Marshal(&refs)
	if err != nil {
		return err
	}
	return db.Set(key, bz)
}

func (i compactIndex) remove(db weave.KVStore, value, pk []byte) error {
	key := i.indexKey(value)
	raw, err := db.Get(key)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "index %q: %X", i.name, value)
	}

	if i.unique {
		return db.Delete(key)
	}

	var refs MultiRef
	if err := weave.Unmarshal(raw, &refs); err != nil {
		return err
	}
	if err := refs.Remove(pk); err != nil {
		return err
	}
	if len(refs.Refs) == 0 {
		return db.Delete(key)
	}
	bz, err := weave.Marshal(&refs)
	if err != nil {
		return err
	}
	return db.Set(key, bz)
}
