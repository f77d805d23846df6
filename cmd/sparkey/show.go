package main

import (
	"fmt"

	"github.com/dflemstr/sparkey-go/sparkey"
)

type showCmd struct {
	Path string `arg:"" help:"Path to the .spl log (the .spi index is derived)."`
}

func (c *showCmd) Run() error {
	logf("opening %s", c.Path)
	r, err := sparkey.Open(c.Path)
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Printf("entries:           %d\n", r.NumEntries())
	fmt.Printf("hash collisions:   %d\n", r.NumCollisions())
	fmt.Printf("max displacement:  %d\n", r.MaxDisplacement())
	return nil
}
