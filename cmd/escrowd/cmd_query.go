package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/orm"
	"github.com/iov-one/weave-escrow/x/escrow"
	"github.com/iov-one/weave-escrow/x/ledger"
	"github.com/iov-one/weave-escrow/x/sigs"
)

// queries maps the root of a query path to the model stored under it.
var queries = map[string]func() orm.Model{
	"escrows":     func() orm.Model { return &escrow.Escrow{} },
	"resolutions": func() orm.Model { return &escrow.Resolution{} },
	"assets":      func() orm.Model { return &ledger.Asset{} },
	"accounts":    func() orm.Model { return &ledger.Account{} },
	"reserves":    func() orm.Model { return &ledger.Reserve{} },
	"auth":        func() orm.Model { return &sigs.UserData{} },
}

func cmdQuery(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Query the committed state and print the result in JSON format.

Path is the bucket path, optionally followed by an index name, for example
/escrows or /escrows/initializer. Exactly one of -id, -address or -hex
selects the queried key. Use -prefix to list everything under a key prefix.
`)
		fl.PrintDefaults()
	}
	var (
		confFl   = flConfig(fl)
		pathFl   = fl.String("path", "/escrows", "Query path.")
		idFl     = flSeq(fl, "id", "", "Decimal sequence ID to query for.")
		addrFl   = flAddress(fl, "address", "", "Address to query for.")
		hexFl    = fl.String("hex", "", "Hex encoded key to query for.")
		prefixFl = fl.Bool("prefix", false, "Run a prefix query.")
	)
	fl.Parse(args)

	root := strings.SplitN(strings.TrimPrefix(*pathFl, "/"), "/", 2)[0]
	newModel, ok := queries[root]
	if !ok {
		return fmt.Errorf("unknown query path %q", *pathFl)
	}

	var data []byte
	switch {
	case len(*idFl) != 0:
		data = *idFl
	case len(*addrFl) != 0:
		data = *addrFl
	case *hexFl != "":
		raw, err := hex.DecodeString(*hexFl)
		if err != nil {
			return fmt.Errorf("cannot decode hex key: %s", err)
		}
		data = raw
	}
	path := *pathFl
	if *prefixFl {
		path += "?" + weave.PrefixQueryMod
	}

	conf, err := LoadConfig(*confFl)
	if err != nil {
		return err
	}
	n, err := openNode(conf, false)
	if err != nil {
		return err
	}
	defer n.close()

	models, err := n.service.Query(path, data)
	if err != nil {
		return fmt.Errorf("cannot query: %s", err)
	}
	return printModels(output, models, newModel)
}

type queryResult struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

func printModels(output io.Writer, models []weave.Model, newModel func() orm.Model) error {
	results := make([]queryResult, 0, len(models))
	for _, m := range models {
		obj := newModel()
		if err := weave.Unmarshal(m.Value, obj); err != nil {
			return fmt.Errorf("cannot decode %X: %s", m.Key, err)
		}
		results = append(results, queryResult{Key: formatKey(m.Key), Value: obj})
	}
	pretty, err := json.MarshalIndent(results, "", "\t")
	if err != nil {
		return fmt.Errorf("cannot JSON serialize: %s", err)
	}
	_, err = output.Write(append(pretty, '\n'))
	return err
}

// formatKey strips the bucket prefix and prints sequence keys as numbers.
func formatKey(key []byte) string {
	if i := strings.IndexByte(string(key), ':'); i >= 0 {
		key = key[i+1:]
	}
	return formatData(key)
}

func cmdState(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print the state of an escrow: uninitialized, active, settled or cancelled.
`)
		fl.PrintDefaults()
	}
	var (
		confFl   = flConfig(fl)
		escrowFl = flSeq(fl, "escrow", "", "ID of the escrow.")
	)
	fl.Parse(args)

	conf, err := LoadConfig(*confFl)
	if err != nil {
		return err
	}
	n, err := openNode(conf, false)
	if err != nil {
		return err
	}
	defer n.close()

	var state escrow.State
	err = n.service.View(func(db weave.ReadOnlyKVStore) error {
		var err error
		state, err = escrow.StateOf(db, *escrowFl)
		return err
	})
	if err != nil {
		return fmt.Errorf("cannot load state: %s", err)
	}
	_, err = fmt.Fprintln(output, state)
	return err
}
