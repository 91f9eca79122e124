package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/iov-one/weave-escrow/app"
)

func cmdInit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Initialize the local store from a genesis file. The genesis holds the chain
ID and the initial state of all extensions. A store can be initialized only
once.
`)
		fl.PrintDefaults()
	}
	var (
		confFl    = flConfig(fl)
		genesisFl = fl.String("genesis", "genesis.json", "Path to the genesis file.")
	)
	fl.Parse(args)

	gen, err := app.LoadGenesis(*genesisFl)
	if err != nil {
		return err
	}
	conf, err := LoadConfig(*confFl)
	if err != nil {
		return err
	}
	if conf.ChainID != "" && conf.ChainID != gen.ChainID {
		return fmt.Errorf("configured chain %q, genesis declares %q", conf.ChainID, gen.ChainID)
	}
	n, err := openNode(conf, false)
	if err != nil {
		return err
	}
	defer n.close()

	id, err := n.service.InitChain(gen, app.Initializers(n.ctrl))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(output, "%s\t%d\t%X\n", gen.ChainID, id.Version, id.Hash)
	return err
}
