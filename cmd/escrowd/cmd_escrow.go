package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/app"
	"github.com/iov-one/weave-escrow/x/escrow"
)

func cmdInitializeEscrow(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Create a transaction that locks one unit of the offered asset in a new
custody account and publishes the amount of the requested asset accepted in
return.
		`)
		fl.PrintDefaults()
	}
	var (
		initializerFl = flAddress(fl, "initializer", "", "Address of the escrow initializer, owner of both accounts.")
		depositFl     = flSeq(fl, "deposit", "", "ID of the account holding the offered asset.")
		offeredFl     = flSeq(fl, "offered", "", "ID of the offered asset.")
		requestedFl   = flSeq(fl, "requested", "", "ID of the requested asset.")
		amountFl      = fl.Uint64("amount", 0, "Amount of the requested asset that settles the escrow.")
		receiveFl     = flSeq(fl, "receive", "", "ID of the account the payment is sent to.")
	)
	fl.Parse(args)

	msg := &escrow.InitializeMsg{
		Metadata:        &weave.Metadata{Schema: 1},
		Initializer:     *initializerFl,
		DepositAccount:  *depositFl,
		OfferedAsset:    *offeredFl,
		RequestedAsset:  *requestedFl,
		RequestedAmount: *amountFl,
		ReceiveAccount:  *receiveFl,
	}
	return writeMsgTx(output, msg)
}

func cmdExchange(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Create a transaction that settles an escrow. The requested amount is paid
from the taker account to the initializer and the escrowed unit is released
to the taker. Initializer and custody references must match the escrow.
		`)
		fl.PrintDefaults()
	}
	var (
		escrowFl      = flSeq(fl, "escrow", "", "ID of the escrow to settle.")
		takerFl       = flAddress(fl, "taker", "", "Address of the taker.")
		payFl         = flSeq(fl, "pay", "", "ID of the taker account holding the requested asset.")
		takerRecvFl   = flSeq(fl, "taker-receive", "", "ID of the taker account the escrowed unit is sent to.")
		initializerFl = flAddress(fl, "initializer", "", "Address of the escrow initializer.")
		initRecvFl    = flSeq(fl, "initializer-receive", "", "ID of the initializer account the payment is sent to.")
		custodyFl     = flSeq(fl, "custody", "", "ID of the custody account of the escrow.")
	)
	fl.Parse(args)

	msg := &escrow.ExchangeMsg{
		Metadata:                  &weave.Metadata{Schema: 1},
		EscrowID:                  *escrowFl,
		Taker:                     *takerFl,
		TakerPayAccount:           *payFl,
		TakerReceiveAccount:       *takerRecvFl,
		Initializer:               *initializerFl,
		InitializerReceiveAccount: *initRecvFl,
		CustodyAccount:            *custodyFl,
	}
	return writeMsgTx(output, msg)
}

func cmdCancel(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Create a transaction that cancels an escrow and returns the escrowed unit to
the deposit account. Only the initializer can cancel.
		`)
		fl.PrintDefaults()
	}
	var (
		escrowFl      = flSeq(fl, "escrow", "", "ID of the escrow to cancel.")
		initializerFl = flAddress(fl, "initializer", "", "Address of the escrow initializer.")
		depositFl     = flSeq(fl, "deposit", "", "ID of the account the escrowed unit came from.")
		custodyFl     = flSeq(fl, "custody", "", "ID of the custody account of the escrow.")
	)
	fl.Parse(args)

	msg := &escrow.CancelMsg{
		Metadata:       &weave.Metadata{Schema: 1},
		EscrowID:       *escrowFl,
		Initializer:    *initializerFl,
		DepositAccount: *depositFl,
		CustodyAccount: *custodyFl,
	}
	return writeMsgTx(output, msg)
}

// writeMsgTx validates the message and writes it wrapped in a transaction.
func writeMsgTx(output io.Writer, msg weave.Msg) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %s", err)
	}
	tx, err := app.NewTx(msg)
	if err != nil {
		return err
	}
	_, err = writeTx(output, tx)
	return err
}
