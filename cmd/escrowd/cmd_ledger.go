package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/x/ledger"
)

func cmdTransfer(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Create a transaction that moves an amount between two accounts holding the
same asset. The source account owner must sign it.
		`)
		fl.PrintDefaults()
	}
	var (
		srcFl    = flSeq(fl, "src", "", "ID of the source account.")
		dstFl    = flSeq(fl, "dst", "", "ID of the destination account.")
		amountFl = fl.Uint64("amount", 0, "Amount to transfer.")
	)
	fl.Parse(args)

	msg := &ledger.TransferMsg{
		Metadata:    &weave.Metadata{Schema: 1},
		Source:      *srcFl,
		Destination: *dstFl,
		Amount:      *amountFl,
	}
	return writeMsgTx(output, msg)
}
