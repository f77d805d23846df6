package main

import (
	"fmt"

	"github.com/dflemstr/sparkey-go/sparkey"
)

type getCmd struct {
	Path        string `arg:"" help:"Path to the .spl log."`
	Key         string `arg:"" help:"Key to look up."`
	KeyFormat   string `help:"Encoding of Key: utf8, hex or base64." default:"utf8" enum:"utf8,hex,base64"`
	ValueFormat string `help:"Encoding to print the value in: utf8, hex or base64." default:"utf8" enum:"utf8,hex,base64"`
}

func (c *getCmd) Run() error {
	keyFmt, err := sparkey.ParseFormat(c.KeyFormat)
	if err != nil {
		return err
	}
	valueFmt, err := sparkey.ParseFormat(c.ValueFormat)
	if err != nil {
		return err
	}
	key, err := sparkey.DecodeString(keyFmt, c.Key)
	if err != nil {
		return err
	}

	r, err := sparkey.Open(c.Path)
	if err != nil {
		return err
	}
	defer r.Close()

	value, found, err := r.Get(key)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("key not found")
	}
	out, err := sparkey.EncodeString(valueFmt, value)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
