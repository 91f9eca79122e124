package store

import (
	"bytes"

	"github.com/iov-one/weave-escrow/errors"
)

// mergeIterator combines the items cached in a btree with the results of
// the parent store. Cached items take precedence over the parent values
// and deleted items hide them.
type mergeIterator struct {
	local     []keyer
	parent    Iterator
	ascending bool

	// Next parent element, loaded ahead to compare with the local one.
	pKey   []byte
	pValue []byte
	pReady bool
	pDone  bool
}

var _ Iterator = (*mergeIterator)(nil)

func newMergeIterator(local []keyer, parent Iterator, ascending bool) *mergeIterator {
	return &mergeIterator{
		local:     local,
		parent:    parent,
		ascending: ascending,
	}
}

func (m *mergeIterator) Next() (key, value []byte, err error) {
	for {
		if err := m.loadParent(); err != nil {
			return nil, nil, err
		}

		if len(m.local) == 0 {
			if m.pDone {
				return nil, nil, errors.ErrIteratorDone
			}
			return m.takeParent()
		}

		if !m.pDone {
			cmp := bytes.Compare(m.local[0].Key(), m.pKey)
			if !m.ascending {
				cmp = -cmp
			}
			if cmp > 0 {
				return m.takeParent()
			}
			if cmp == 0 {
				// Overwritten or deleted in the cache.
				m.pReady = false
			}
		}

		item := m.local[0]
		m.local = m.local[1:]
		if set, ok := item.(setItem); ok {
			return set.key, set.value, nil
		}
	}
}

func (m *mergeIterator) loadParent() error {
	if m.pReady || m.pDone {
		return nil
	}
	key, value, err := m.parent.Next()
	switch {
	case errors.ErrIteratorDone.Is(err):
		m.pDone = true
	case err != nil:
		return err
	default:
		m.pKey, m.pValue, m.pReady = key, value, true
	}
	return nil
}

func (m *mergeIterator) takeParent() ([]byte, []byte, error) {
	m.pReady = false
	return m.pKey, m.pValue, nil
}

func (m *mergeIterator) Release() {
	m.parent.Release()
	m.local = nil
}
