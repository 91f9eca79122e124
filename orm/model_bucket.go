package orm

import (
	"fmt"
	"reflect"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// ModelBucket is implemented by buckets that operates on Models rather than
// raw bytes.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity, ErrType
	// is returned.
	One(db weave.ReadOnlyKVStore, key []byte, dest Model) error

	// ByIndex returns all models that are referenced by given index
	// value. Destination must be a pointer to a slice of models.
	// Primary keys of the loaded models are returned in the same order.
	ByIndex(db weave.ReadOnlyKVStore, indexName string, key []byte, dest interface{}) ([][]byte, error)

	// Put saves given model in the database. Before inserting into the
	// database, model is validated using its Validate method.
	// If the key is nil or zero length then a sequence generator is used
	// to create a unique key value.
	// Using a key that already exists in the database cause the value to
	// be overwritten.
	Put(db weave.KVStore, key []byte, m Model) ([]byte, error)

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db weave.KVStore, key []byte) error

	// Has returns nil if an entity with given primary key value exists. It
	// returns ErrNotFound if no entity can be found.
	Has(db weave.ReadOnlyKVStore, key []byte) error

	// Register registers this buckets content to be accessible via query
	// requests under the given name.
	Register(name string, r weave.QueryRouter)
}

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *modelBucket)

// WithIndex configures the bucket to build an index with given name. All
// entities stored in the bucket are indexed using value returned by the
// indexer function. If an index is unique, there can be only one entity
// referenced per index value.
func WithIndex(name string, indexer Indexer, unique bool) ModelBucketOption {
	return func(mb *modelBucket) {
		if _, ok := mb.indexes[name]; ok {
			panic(fmt.Sprintf("index %q registered twice", name))
		}
		mb.indexes[name] = newCompactIndex(mb.b.name, name, indexer, unique)
	}
}

// WithIDSequence configures the bucket to use the given sequence instance for
// generating ID.
func WithIDSequence(s Sequence) ModelBucketOption {
	return func(mb *modelBucket) {
		mb.idSeq = s
	}
}

// NewModelBucket returns a ModelBucket instance storing given model type
// under given bucket name.
func NewModelBucket(name string, m Model, opts ...ModelBucketOption) ModelBucket {
	tp := reflect.TypeOf(m)
	if tp.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("model must be a pointer, got %T", m))
	}
	mb := &modelBucket{
		b:       NewBucket(name),
		idSeq:   NewSequence(name, "id"),
		model:   tp,
		indexes: make(map[string]compactIndex),
	}
	for _, fn := range opts {
		fn(mb)
	}
	return mb
}

type modelBucket struct {
	b       Bucket
	idSeq   Sequence
	model   reflect.Type
	indexes map[string]compactIndex
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) Register(name string, r weave.QueryRouter) {
	if name == "" {
		name = mb.b.name
	}
	root := "/" + name
	r.Register(root, mb.b)
	for iname, idx := range mb.indexes {
		r.Register(root+"/"+iname, indexQuery{idx: idx, b: mb.b})
	}
}

func (mb *modelBucket) One(db weave.ReadOnlyKVStore, key []byte, dest Model) error {
	if reflect.TypeOf(dest) != mb.model {
		return errors.Wrapf(errors.ErrType, "%s cannot be represented as %T", mb.model, dest)
	}
	raw, err := db.Get(mb.b.DBKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	// Reset the destination, decoding into a dirty value could leave
	// fields that are absent in the stored entity.
	v := reflect.ValueOf(dest).Elem()
	v.Set(reflect.Zero(v.Type()))
	if err := weave.Unmarshal(raw, dest); err != nil {
		return errors.Wrapf(err, "cannot decode %X", key)
	}
	return nil
}

func (mb *modelBucket) ByIndex(db weave.ReadOnlyKVStore, indexName string, key []byte, dest interface{}) ([][]byte, error) {
	idx, ok := mb.indexes[indexName]
	if !ok {
		return nil, errors.Wrapf(errors.ErrInput, "unknown index %q", indexName)
	}

	dst := reflect.ValueOf(dest)
	if dst.Kind() != reflect.Ptr || dst.IsNil() || dst.Elem().Kind() != reflect.Slice {
		return nil, errors.Wrapf(errors.ErrType, "destination must be a pointer to a slice, got %T", dest)
	}
	slice := dst.Elem()
	elem := slice.Type().Elem()
	byPointer := elem == mb.model
	if !byPointer && reflect.PtrTo(elem) != mb.model {
		return nil, errors.Wrapf(errors.ErrType, "%s cannot hold %s", slice.Type(), mb.model)
	}

	refs, err := idx.Keys(db, key)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		m := reflect.New(mb.model.Elem())
		if err := mb.One(db, ref, m.Interface().(Model)); err != nil {
			return nil, errors.Wrapf(err, "index %q reference %X", indexName, ref)
		}
		if byPointer {
			slice = reflect.Append(slice, m)
		} else {
			slice = reflect.Append(slice, m.Elem())
		}
	}
	dst.Elem().Set(slice)
	return refs, nil
}

func (mb *modelBucket) Put(db weave.KVStore, key []byte, m Model) ([]byte, error) {
	if reflect.TypeOf(m) != mb.model {
		return nil, errors.Wrapf(errors.ErrType, "cannot store %T in %q bucket", m, mb.b.name)
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}

	if len(key) == 0 {
		next, err := mb.idSeq.NextVal(db)
		if err != nil {
			return nil, errors.Wrap(err, "ID sequence")
		}
		key = next
	}

	prev, err := mb.load(db, key)
	if err != nil {
		return nil, err
	}

	raw, err := weave.Marshal(m)
	if err != nil {
		return nil, err
	}
	if err := db.Set(mb.b.DBKey(key), raw); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	for _, idx := range mb.indexes {
		if err := idx.Update(db, key, prev, m); err != nil {
			return nil, err
		}
	}
	return key, nil
}

func (mb *modelBucket) Delete(db weave.KVStore, key []byte) error {
	prev, err := mb.load(db, key)
	if err != nil {
		return err
	}
	if prev == nil {
		return errors.Wrapf(errors.ErrNotFound, "%X in %q bucket", key, mb.b.name)
	}
	if err := db.Delete(mb.b.DBKey(key)); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	for _, idx := range mb.indexes {
		if err := idx.Update(db, key, prev, nil); err != nil {
			return err
		}
	}
	return nil
}

func (mb *modelBucket) Has(db weave.ReadOnlyKVStore, key []byte) error {
	if key == nil {
		// nil key is a special case that would cause the store API to panic.
		return errors.ErrNotFound
	}
	ok, err := db.Has(mb.b.DBKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if !ok {
		return errors.ErrNotFound
	}
	return nil
}

// load returns the stored model or nil if it does not exist.
func (mb *modelBucket) load(db weave.ReadOnlyKVStore, key []byte) (Model, error) {
	m := reflect.New(mb.model.Elem()).Interface().(Model)
	switch err := mb.One(db, key, m); {
	case err == nil:
		return m, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
}

// indexQuery exposes an index via the query router. It returns all
// entities referenced by the queried index value.
type indexQuery struct {
	idx compactIndex
	b   Bucket
}

func (q indexQuery) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	if mod != weave.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
	refs, err := q.idx.Keys(db, data)
	if err != nil {
		return nil, err
	}
	res := make([]weave.Model, 0, len(refs))
	for _, ref := range refs {
		key := q.b.DBKey(ref)
		value, err := db.Get(key)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		if value != nil {
			res = append(res, weave.Model{Key: key, Value: value})
		}
	}
	return res, nil
}
