package main

import (
	"github.com/dflemstr/sparkey-go/hashstore"
	"github.com/dflemstr/sparkey-go/sparkey"
)

type indexCmd struct {
	Path          string `arg:"" help:"Path to the .spl log to index."`
	HashAlgorithm string `help:"Hash algorithm: murmur3_32 or murmur3_64." default:"murmur3_64" enum:"murmur3_32,murmur3_64"`
	HashSeed      uint32 `help:"Hash seed; 0 picks a random one." default:"0"`
}

func (c *indexCmd) Run() error {
	algorithm := hashstore.Murmur3_64
	if c.HashAlgorithm == "murmur3_32" {
		algorithm = hashstore.Murmur3_32
	}
	logf("building index for %s", c.Path)
	return sparkey.Index(c.Path, algorithm, c.HashSeed)
}
