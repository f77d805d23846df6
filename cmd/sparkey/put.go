package main

import (
	"errors"
	"os"

	"github.com/dflemstr/sparkey-go/hashstore"
	"github.com/dflemstr/sparkey-go/logstore"
	"github.com/dflemstr/sparkey-go/sparkey"
)

type putCmd struct {
	Path        string `arg:"" help:"Path to the .spl log."`
	Key         string `arg:"" help:"Key to write."`
	Value       string `arg:"" help:"Value to write."`
	KeyFormat   string `help:"Encoding of Key: utf8, hex or base64." default:"utf8" enum:"utf8,hex,base64"`
	ValueFormat string `help:"Encoding of Value: utf8, hex or base64." default:"utf8" enum:"utf8,hex,base64"`

	AutoCreate           bool   `help:"Create the log if it doesn't already exist."`
	AutoIndex            bool   `help:"Rebuild the index after writing." default:"true" negatable:""`
	Compression          string `help:"Compression for a newly created log: none or snappy." default:"none" enum:"none,snappy"`
	CompressionBlockSize uint32 `help:"Max decompressed block size for snappy compression." default:"65536"`
}

func (c *putCmd) Run() error {
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
	value, err := sparkey.DecodeString(valueFmt, c.Value)
	if err != nil {
		return err
	}

	compression := logstore.CompressionNone
	if c.Compression == "snappy" {
		compression = logstore.CompressionSnappy
	}
	opts := sparkey.WriterOptions{
		Compression:          compression,
		CompressionBlockSize: c.CompressionBlockSize,
		AutoIndex:            c.AutoIndex,
		Algorithm:            hashstore.Murmur3_64,
	}

	w, err := sparkey.Append(c.Path, opts)
	if err != nil {
		if !c.AutoCreate || !errors.Is(err, os.ErrNotExist) {
			return err
		}
		logf("log missing, creating %s", c.Path)
		w, err = sparkey.Create(c.Path, opts)
		if err != nil {
			return err
		}
	}

	if err := w.Put(key, value); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
