package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/orm"
)

// flAddress returns a value that is being initialized with given default value
// and optionally overwritten by a command line argument if provided. This
// function follows Go's flag package convention.
// If given value cannot be deserialized to required type, process is
// terminated.
func flAddress(fl *flag.FlagSet, name, defaultVal, usage string) *weave.Address {
	var a weave.Address
	if defaultVal != "" {
		var err error
		a, err = weave.ParseAddress(defaultVal)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot parse %q weave.Address flag value. %s", name, err)
			os.Exit(2)
		}
	}
	fl.Var(&a, name, usage)
	return &a
}

// flSeq returns a value that is being initialized with given default value
// and optionally overwritten by a command line argument if provided. The
// value is a decimal sequence number, encoded the way the orm package
// encodes IDs.
func flSeq(fl *flag.FlagSet, name, defaultVal, usage string) *[]byte {
	var b []byte
	if defaultVal != "" {
		n, err := strconv.ParseInt(defaultVal, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot parse %q sequence flag value. %s", name, err)
			os.Exit(2)
		}
		b = orm.EncodeSequence(n)
	}
	fs := &flagseq{b: &b}
	fl.Var(fs, name, usage)
	return &b
}

type flagseq struct {
	b *[]byte
}

func (s *flagseq) String() string {
	if s.b == nil || len(*s.b) == 0 {
		return ""
	}
	n, err := orm.DecodeSequence(*s.b)
	if err != nil {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

func (s *flagseq) Set(raw string) error {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return err
	}
	if n < 1 {
		return fmt.Errorf("sequence must be positive, got %d", n)
	}
	*s.b = orm.EncodeSequence(n)
	return nil
}
