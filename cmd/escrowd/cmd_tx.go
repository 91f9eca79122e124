package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/orm"
	"github.com/iov-one/weave-escrow/x/sigs"
)

func cmdSign(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Read a binary serialized transaction from standard input, sign it and write
it back to standard output.

Chain ID and the signer sequence are read from the local store unless both
are given.
`)
		fl.PrintDefaults()
	}
	var (
		keyPathFl = flKey(fl)
		confFl    = flConfig(fl)
		chainFl   = fl.String("chain-id", "", "Chain ID the transaction is signed for.")
		seqFl     = fl.Int64("seq", -1, "Sequence of the signer. Read from the store when negative.")
	)
	fl.Parse(args)

	tx, _, err := readTx(input)
	if err != nil {
		return fmt.Errorf("cannot read transaction from input: %s", err)
	}
	key, err := readPrivateKey(*keyPathFl)
	if err != nil {
		return err
	}

	chainID, seq := *chainFl, *seqFl
	if chainID == "" || seq < 0 {
		conf, err := LoadConfig(*confFl)
		if err != nil {
			return err
		}
		n, err := openNode(conf, false)
		if err != nil {
			return err
		}
		defer n.close()

		if chainID == "" {
			chainID = n.service.ChainID()
		}
		if seq < 0 {
			err := n.service.View(func(db weave.ReadOnlyKVStore) error {
				var err error
				seq, err = sigs.NextNonce(db, key.PublicKey().Address())
				return err
			})
			if err != nil {
				return fmt.Errorf("cannot load sequence: %s", err)
			}
		}
	}

	if err := tx.Sign(key, chainID, seq); err != nil {
		return err
	}
	_, err = writeTx(output, tx)
	return err
}

func cmdSubmit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Read binary serialized transactions from standard input, execute and commit
each of them. A result line is printed out for every transaction. Processing
stops at the first failure.

Make sure to collect enough signatures before submitting the transaction.
`)
		fl.PrintDefaults()
	}
	var (
		confFl  = flConfig(fl)
		checkFl = fl.Bool("check", false, "Only check the transactions, do not commit them.")
	)
	fl.Parse(args)

	conf, err := LoadConfig(*confFl)
	if err != nil {
		return err
	}
	n, err := openNode(conf, !*checkFl)
	if err != nil {
		return err
	}
	defer n.close()

	return submitAll(context.Background(), n, input, output, *checkFl)
}

// submitAll executes all transactions read from input.
func submitAll(ctx context.Context, n *node, input io.Reader, output io.Writer, check bool) error {
	for {
		tx, raw, err := readTx(input)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("cannot read transaction from input: %s", err)
		}
		path := weave.GetPath(tx)

		if check {
			if _, err := n.service.CheckTx(ctx, raw); err != nil {
				return fmt.Errorf("%s: %s", path, err)
			}
			fmt.Fprintf(output, "%s\tok\n", path)
			continue
		}

		res, err := n.service.DeliverTx(ctx, raw)
		if err != nil {
			return fmt.Errorf("%s: %s", path, err)
		}
		fmt.Fprintf(output, "%s\t%s\n", path, formatData(res.Data))
	}
}

// formatData prints IDs returned by handlers as decimal sequence values.
func formatData(data []byte) string {
	if len(data) == 0 {
		return "-"
	}
	if n, err := orm.DecodeSequence(data); err == nil {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%X", data)
}

func cmdView(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Read binary serialized transaction from standard input and print it out in a
human readable JSON format.
`)
		fl.PrintDefaults()
	}
	fl.Parse(args)

	tx, _, err := readTx(input)
	if err != nil {
		return fmt.Errorf("cannot read transaction from input: %s", err)
	}
	pretty, err := json.MarshalIndent(tx, "", "\t")
	if err != nil {
		return fmt.Errorf("cannot JSON serialize: %s", err)
	}
	_, err = output.Write(append(pretty, '\n'))
	return err
}
