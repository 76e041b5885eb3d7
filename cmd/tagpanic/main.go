package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/tagtools/internal/cli"
	"github.com/danmuck/tagtools/internal/panicblk"
)

type options struct {
	prefix string
}

func tool() cli.Tool {
	var opts options
	return cli.Tool{
		Name: "tagpanic",
		Args: "<panic dump>",
		Raw:  true,
		Flags: func(fs *flag.FlagSet) {
			fs.StringVar(&opts.prefix, "prefix", "", "path prefix for the region files (default the dump path)")
		},
		Run: func(env *cli.Env) error { return run(env, opts) },
	}
}

func main() {
	os.Exit(tool().Main(os.Args[1:], os.Stdout, os.Stderr))
}

func run(env *cli.Env, opts options) error {
	prefix := opts.prefix
	if prefix == "" {
		prefix = env.Input
	}
	written, err := panicblk.Extract(env.Input, prefix)
	if err != nil {
		return err
	}
	for i, path := range written {
		r := panicblk.Regions[i]
		if _, err := fmt.Fprintf(env.Out, "%-5s %#06x..%#06x %6d  %s\n", r.Name, r.Start, r.End, r.Len(), path); err != nil {
			return err
		}
	}
	return nil
}
