package main

import (
	"github.com/dflemstr/sparkey-go/hashstore"
	"github.com/dflemstr/sparkey-go/logstore"
	"github.com/dflemstr/sparkey-go/sparkey"
)

type pruneCmd struct {
	Path          string `arg:"" help:"Path to the source .spl log."`
	Output        string `arg:"" help:"Path of the pruned .spl log to write."`
	HashAlgorithm string `help:"Hash algorithm for the pruned log's index: murmur3_32 or murmur3_64." default:"murmur3_64" enum:"murmur3_32,murmur3_64"`
	Compression   string `help:"Compression for the pruned log: none or snappy." default:"none" enum:"none,snappy"`
}

func (c *pruneCmd) Run() error {
	algorithm := hashstore.Murmur3_64
	if c.HashAlgorithm == "murmur3_32" {
		algorithm = hashstore.Murmur3_32
	}
	compression := logstore.CompressionNone
	if c.Compression == "snappy" {
		compression = logstore.CompressionSnappy
	}
	logf("pruning %s -> %s", c.Path, c.Output)
	return sparkey.Prune(c.Path, c.Output, sparkey.WriterOptions{
		Compression:          compression,
		CompressionBlockSize: 65536,
		AutoIndex:            true,
		Algorithm:            algorithm,
	})
}
