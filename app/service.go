package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendermint/tendermint/crypto/tmhash"
	"github.com/tendermint/tendermint/libs/log"
)

var committedHeight = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "escrow",
	Name:      "committed_height",
	Help:      "Version of the last committed state.",
})

func init() {
	prometheus.MustRegister(committedHeight)
}

// Service executes transactions against a commit store. Transactions are
// processed one at a time. Every delivered transaction runs in its own
// cache wrap and is committed as a new version only if it succeeds, so two
// conflicting transactions always observe each other in a total order.
type Service struct {
	mu        sync.Mutex
	store     *CommitStore
	handler   weave.Handler
	decoder   TxDecoder
	queries   weave.QueryRouter
	publisher notify.Publisher
	logger    log.Logger
	chainID   string
}

// ServiceOption configures a Service during creation.
type ServiceOption func(*Service)

// WithQueries sets the query router used by Query.
func WithQueries(qr weave.QueryRouter) ServiceOption {
	return func(s *Service) {
		s.queries = qr
	}
}

// WithPublisher sets the publisher that receives an event for every
// committed transaction.
func WithPublisher(p notify.Publisher) ServiceOption {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithServiceLogger sets the logger passed to handlers.
func WithServiceLogger(l log.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService loads the latest state of given store and returns a service
// that dispatches decoded transactions to handler.
func NewService(store weave.CommitKVStore, handler weave.Handler, decoder TxDecoder, opts ...ServiceOption) (*Service, error) {
	cs, err := NewCommitStore(store)
	if err != nil {
		return nil, err
	}
	s := &Service{
		store:     cs,
		handler:   handler,
		decoder:   decoder,
		queries:   weave.NewQueryRouter(),
		publisher: notify.NopPublisher{},
		logger:    weave.DefaultLogger,
	}
	for _, fn := range opts {
		fn(s)
	}
	err = cs.View(func(db weave.KVStore) error {
		s.chainID, err = loadChainID(db)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ChainID returns the chain id set at genesis. It is empty until the chain
// was initialized.
func (s *Service) ChainID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chainID
}

// CommitInfo returns the last committed version.
func (s *Service) CommitInfo() (weave.CommitID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.CommitInfo()
}

// InitChain stores the chain id and loads the application state from
// genesis. A chain can be initialized only once.
func (s *Service) InitChain(gen Genesis, init weave.Initializer) (weave.CommitID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chainID != "" {
		return weave.CommitID{}, errors.Wrapf(errors.ErrUnauthorized, "chain %q already initialized", s.chainID)
	}
	if err := gen.Validate(); err != nil {
		return weave.CommitID{}, err
	}
	id, err := s.store.Apply(func(db weave.KVStore) error {
		if err := saveChainID(db, gen.ChainID); err != nil {
			return err
		}
		return init.FromGenesis(gen.AppState, db)
	})
	if err != nil {
		return id, errors.Wrap(err, "genesis")
	}
	s.chainID = gen.ChainID
	committedHeight.Set(float64(id.Version))
	s.logger.Info("chain initialized", "chain_id", gen.ChainID, "height", id.Version)
	return id, nil
}

// CheckTx validates a transaction against the committed state without
// persisting anything.
func (s *Service) CheckTx(ctx context.Context, raw []byte) (*weave.CheckResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.prepare(raw)
	if err != nil {
		return nil, err
	}
	info, err := s.store.CommitInfo()
	if err != nil {
		return nil, err
	}
	ctx = s.txContext(ctx, info.Version+1, tmhash.Sum(raw))

	var res *weave.CheckResult
	err = s.store.View(func(db weave.KVStore) error {
		res, err = s.handler.Check(ctx, db, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DeliverTx executes a transaction and commits its changes. Nothing is
// written if the transaction fails. The event describing a committed
// transaction is published afterwards, a publishing failure is only
// logged because the state change is already final.
func (s *Service) DeliverTx(ctx context.Context, raw []byte) (*weave.DeliverResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.prepare(raw)
	if err != nil {
		return nil, err
	}
	info, err := s.store.CommitInfo()
	if err != nil {
		return nil, err
	}
	hash := tmhash.Sum(raw)
	ctx = s.txContext(ctx, info.Version+1, hash)

	var res *weave.DeliverResult
	id, err := s.store.Apply(func(db weave.KVStore) error {
		res, err = s.handler.Deliver(ctx, db, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	committedHeight.Set(float64(id.Version))

	ev := notify.NewEvent(id.Version, hash, weave.GetPath(tx), res.Tags)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		weave.GetLogger(ctx).Error("cannot publish event", "path", ev.Path, "err", err)
	}
	return res, nil
}

// Query runs a read only query against the committed state.
func (s *Service) Query(path string, data []byte) ([]weave.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var models []weave.Model
	err := s.store.View(func(db weave.KVStore) error {
		var err error
		models, err = s.queries.Query(db, path, data)
		return err
	})
	return models, err
}

// View runs fn against the committed state. All writes are discarded.
func (s *Service) View(fn func(weave.ReadOnlyKVStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.View(func(db weave.KVStore) error {
		return fn(db)
	})
}

func (s *Service) prepare(raw []byte) (weave.Tx, error) {
	if s.chainID == "" {
		return nil, errors.Wrap(errors.ErrState, "chain not initialized")
	}
	tx, err := s.decoder(raw)
	if err != nil {
		return nil, errors.Wrap(err, "decode tx")
	}
	return tx, nil
}

func (s *Service) txContext(ctx context.Context, height int64, hash []byte) context.Context {
	ctx = weave.WithChainID(ctx, s.chainID)
	ctx = weave.WithHeight(ctx, height)
	ctx = weave.WithTxHash(ctx, hash)
	return weave.WithLogger(ctx, s.logger.With("height", height, "tx", fmt.Sprintf("%X", hash)))
}
