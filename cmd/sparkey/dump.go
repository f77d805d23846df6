package main

import (
	"fmt"

	"github.com/dflemstr/sparkey-go/sparkey"
)

type dumpCmd struct {
	Path        string `arg:"" help:"Path to the .spl log."`
	KeyFormat   string `help:"Encoding to print keys in: utf8, hex or base64." default:"utf8" enum:"utf8,hex,base64"`
	ValueFormat string `help:"Encoding to print values in: utf8, hex or base64." default:"utf8" enum:"utf8,hex,base64"`
}

func (c *dumpCmd) Run() error {
	keyFmt, err := sparkey.ParseFormat(c.KeyFormat)
	if err != nil {
		return err
	}
	valueFmt, err := sparkey.ParseFormat(c.ValueFormat)
	if err != nil {
		return err
	}

	r, err := sparkey.Open(c.Path)
	if err != nil {
		return err
	}
	defer r.Close()

	return r.Entries(func(key, value []byte) error {
		k, err := sparkey.EncodeString(keyFmt, key)
		if err != nil {
			return err
		}
		v, err := sparkey.EncodeString(valueFmt, value)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", k, v)
		return nil
	})
}
