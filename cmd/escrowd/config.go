package main

import (
	"flag"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/iov-one/weave-escrow/app"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/notify"
	"github.com/iov-one/weave-escrow/store/iavl"
	"github.com/iov-one/weave-escrow/x/ledger"
	"github.com/tendermint/tendermint/libs/log"
	yaml "gopkg.in/yaml.v2"
)

// Config is the node configuration, read from a YAML file.
type Config struct {
	// Home is the directory the state database is kept in.
	Home string `yaml:"home"`
	// ChainID if set must match the chain id stored at genesis.
	ChainID string `yaml:"chain_id"`
	// LogLevel is one of debug, info, error or none.
	LogLevel string `yaml:"log_level"`
	// MetricsAddr is the address the prometheus endpoint listens on.
	MetricsAddr string `yaml:"metrics_addr"`
	// AMQPURL enables publishing of committed events when set.
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Home:        filepath.Join(os.Getenv("HOME"), ".escrowd"),
		LogLevel:    "info",
		MetricsAddr: "localhost:9102",
	}
}

// LoadConfig reads the configuration file. A missing file is not an error,
// the defaults are used instead. Values present in the file override the
// defaults.
func LoadConfig(path string) (Config, error) {
	conf := DefaultConfig()
	raw, err := ioutil.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return conf, nil
	case err != nil:
		return conf, errors.Wrapf(errors.ErrInput, "read config: %s", err)
	}
	if err := yaml.UnmarshalStrict(raw, &conf); err != nil {
		return conf, errors.Wrapf(errors.ErrInput, "parse config: %s", err)
	}
	if conf.Home == "" {
		return conf, errors.Wrap(errors.ErrEmpty, "home")
	}
	return conf, nil
}

// flConfig registers the config file flag shared by all commands that
// operate on the local store.
func flConfig(fl *flag.FlagSet) *string {
	return fl.String("config", env("ESCROWD_CONFIG", filepath.Join(os.Getenv("HOME"), ".escrowd", "config.yaml")),
		"Path to the YAML configuration file. You can use ESCROWD_CONFIG environment variable to set it.")
}

// NewLogger returns a logfmt logger writing to stderr, filtered to the
// configured level.
func (c Config) NewLogger() (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stderr)).With("module", "escrowd")
	level := c.LogLevel
	if level == "" {
		level = "info"
	}
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return log.NewFilter(logger, opt), nil
}

// node groups everything a command needs to work with the local state.
type node struct {
	conf    Config
	logger  log.Logger
	ctrl    *ledger.BaseController
	service *app.Service
	close   func()
}

// openNode opens the state database in the configured home directory and
// builds the application service on top of it.
func openNode(conf Config, publish bool) (*node, error) {
	logger, err := conf.NewLogger()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(conf.Home, 0700); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "home: %s", err)
	}
	db, err := iavl.NewCommitStore(conf.Home, "state")
	if err != nil {
		return nil, err
	}
	closers := []func(){db.Close}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var pub notify.Publisher = notify.NopPublisher{}
	if publish && conf.AMQPURL != "" {
		p, err := notify.DialAMQP(conf.AMQPURL, conf.AMQPExchange)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, func() { p.Close() })
		pub = p
	}

	ctrl := ledger.NewController()
	svc, err := app.NewService(db, app.Stack(ctrl), app.DecodeTx,
		app.WithQueries(app.Queries()),
		app.WithPublisher(pub),
		app.WithServiceLogger(logger),
	)
	if err != nil {
		closeAll()
		return nil, err
	}
	if conf.ChainID != "" {
		if got := svc.ChainID(); got != "" && got != conf.ChainID {
			closeAll()
			return nil, errors.Wrapf(errors.ErrInput, "configured chain %q, store holds %q", conf.ChainID, got)
		}
	}
	return &node{
		conf:    conf,
		logger:  logger,
		ctrl:    ctrl,
		service: svc,
		close:   closeAll,
	}, nil
}

func env(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}
