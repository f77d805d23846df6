// Command sparkey is a CLI over the logstore/hashstore/sparkey packages:
// create, write, index, inspect and prune .spl/.spi file pairs.
package main

import (
	"log"
	"os"

	"github.com/alecthomas/kong"
)

var cli struct {
	Verbose bool `help:"Log diagnostic output to stderr." short:"v"`

	Show   showCmd   `cmd:"" help:"Print entry count, hash collisions and max displacement of a log's index."`
	Get    getCmd    `cmd:"" help:"Look up a single key."`
	Put    putCmd    `cmd:"" help:"Append a single put to a log."`
	Dump   dumpCmd   `cmd:"" help:"Print every live entry of a log."`
	Create createCmd `cmd:"" help:"Create an empty log, optionally indexed."`
	Index  indexCmd  `cmd:"" help:"Build (or rebuild) the index of a log."`
	Prune  pruneCmd  `cmd:"" help:"Write a tombstone-free copy of a log."`
}

// verboseLog is the package-level diagnostic logger gated by -verbose;
// logstore/hashstore/sparkey themselves never write to it or any other
// logger, they only return errors.
var verboseLog = log.New(os.Stderr, "sparkey: ", 0)

func logf(format string, args ...interface{}) {
	if cli.Verbose {
		verboseLog.Printf(format, args...)
	}
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("sparkey"),
		kong.Description("Inspect and manipulate sparkey log/index file pairs."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
