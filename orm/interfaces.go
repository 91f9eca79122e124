package orm

// Model is implemented by any entity that can be stored using ModelBucket.
// Models are serialized with the weave codec, so all persisted fields must
// be exported.
type Model interface {
	// Validate returns error if the object is not in a valid
	// state to save to the db (eg. field missing, out of range, ...)
	Validate() error
}

// Indexer calculates the secondary index key for a given model. Returning
// a nil key excludes the model from the index.
type Indexer func(Model) ([]byte, error)
