package weavetest

import "github.com/iov-one/weave-escrow"

// Tx is an unsigned transaction carrying a single message. Use it to drive
// handlers and decorators directly, without the application envelope.
type Tx struct {
	Msg weave.Msg
	// Err, when set, is returned by GetMsg in place of the message.
	Err error
}

var _ weave.Tx = (*Tx)(nil)

// TxFor returns a transaction carrying a Msg routed to path.
func TxFor(path string) *Tx {
	return &Tx{Msg: &Msg{RoutePath: path}}
}

func (tx *Tx) GetMsg() (weave.Msg, error) {
	if tx.Err != nil {
		return nil, tx.Err
	}
	return tx.Msg, nil
}

// Msg is a message with no payload. The router and the decorators only
// look at its path.
type Msg struct {
	RoutePath string
	// Err is returned by Validate.
	Err error
}

var _ weave.Msg = (*Msg)(nil)

func (m *Msg) Path() string {
	return m.RoutePath
}

func (m *Msg) Validate() error {
	return m.Err
}
