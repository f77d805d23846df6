package main

import (
	"github.com/dflemstr/sparkey-go/hashstore"
	"github.com/dflemstr/sparkey-go/logstore"
	"github.com/dflemstr/sparkey-go/sparkey"
)

type createCmd struct {
	Path                 string `arg:"" help:"Path of the .spl log to create."`
	Index                bool   `help:"Also build an (empty) index."`
	Compression          string `help:"Compression: none or snappy." default:"none" enum:"none,snappy"`
	CompressionBlockSize uint32 `help:"Max decompressed block size for snappy compression." default:"65536"`
}

func (c *createCmd) Run() error {
	compression := logstore.CompressionNone
	if c.Compression == "snappy" {
		compression = logstore.CompressionSnappy
	}
	w, err := sparkey.Create(c.Path, sparkey.WriterOptions{
		Compression:          compression,
		CompressionBlockSize: c.CompressionBlockSize,
		AutoIndex:            c.Index,
		Algorithm:            hashstore.Murmur3_64,
	})
	if err != nil {
		return err
	}
	return w.Close()
}
