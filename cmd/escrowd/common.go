package main

import (
	"encoding/binary"
	"io"

	"github.com/iov-one/weave-escrow/app"
	"github.com/iov-one/weave-escrow/errors"
)

// writeTx serialize the transaction. First bytes written contain the
// information how much space the transaction takes, so that many
// transactions can be streamed through a single pipe.
func writeTx(w io.Writer, tx *app.Tx) (int, error) {
	b, err := tx.Marshal()
	if err != nil {
		return 0, err
	}

	var size [txHeaderSize]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(b)))

	if n, err := w.Write(size[:]); err != nil {
		return n, err
	}
	if n, err := w.Write(b); err != nil {
		return n + txHeaderSize, err
	}
	return txHeaderSize + len(b), nil
}

// readTx reads a single transaction written by writeTx. io.EOF is returned
// when the input contains no more transactions.
func readTx(r io.Reader) (*app.Tx, []byte, error) {
	var size [txHeaderSize]byte
	if _, err := io.ReadFull(r, size[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, nil, errors.Wrap(errors.ErrInput, "truncated transaction header")
		}
		return nil, nil, err
	}
	msgSize := binary.BigEndian.Uint32(size[:])
	if msgSize > maxTxSize {
		return nil, nil, errors.Wrapf(errors.ErrInput, "transaction too big: %d", msgSize)
	}
	raw := make([]byte, msgSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, nil, errors.Wrapf(errors.ErrInput, "read transaction: %s", err)
	}

	tx, err := app.DecodeTx(raw)
	if err != nil {
		return nil, nil, err
	}
	return tx.(*app.Tx), raw, nil
}

const (
	txHeaderSize = 4
	maxTxSize    = 1 << 20
)
