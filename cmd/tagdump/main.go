package main

import (
	"flag"
	"os"

	"github.com/danmuck/tagtools/internal/cli"
	"github.com/danmuck/tagtools/internal/tagstream"
)

type options struct {
	rtypes      cli.List
	startSector int
	endSector   int
	startTime   string
	endTime     string
	noResync    bool
}

func tool() cli.Tool {
	var opts options
	return cli.Tool{
		Name: "tagdump",
		Args: "<tag data stream>",
		Flags: func(fs *flag.FlagSet) {
			fs.Var(&opts.rtypes, "rtypes", "record types to show, codes or names, comma separated")
			fs.IntVar(&opts.startSector, "start_sector", 0, "first 512-byte sector to walk")
			fs.IntVar(&opts.endSector, "end_sector", 0, "last sector to walk, 0 for the end of the file")
			fs.StringVar(&opts.startTime, "start_time", "", "hide records before this time (RFC 3339)")
			fs.StringVar(&opts.endTime, "end_time", "", "hide records after this time (RFC 3339)")
			fs.BoolVar(&opts.noResync, "no_resync", false, "decode at start_sector without looking for a SYNC record")
		},
		Run: func(env *cli.Env) error { return run(env, opts) },
	}
}

func main() {
	os.Exit(tool().Main(os.Args[1:], os.Stdout, os.Stderr))
}

func run(env *cli.Env, opts options) error {
	walkOpts, err := walkOptions(env, opts)
	if err != nil {
		return &cli.UsageError{Err: err}
	}
	rc := tagstream.Render{
		Level:    env.Level(),
		Format:   env.Config.Format,
		HexWidth: env.Config.HexWidth,
	}
	wk := tagstream.NewWalker()
	sum, walkErr := wk.Walk(env.Data, walkOpts, func(r tagstream.Result) error {
		return tagstream.Emit(env.Out, r, rc)
	})
	if err := tagstream.WriteSummary(env.Out, sum, wk); err != nil {
		return err
	}
	return walkErr
}

func walkOptions(env *cli.Env, opts options) (tagstream.Options, error) {
	var out tagstream.Options
	entries := []string(opts.rtypes)
	if len(entries) == 0 {
		entries = env.Config.RTypes
	}
	types, err := tagstream.ParseTypes(entries)
	if err != nil {
		return out, err
	}
	from, err := tagstream.ParseTime(opts.startTime)
	if err != nil {
		return out, err
	}
	to, err := tagstream.ParseTime(opts.endTime)
	if err != nil {
		return out, err
	}
	start, end, err := tagstream.SectorRange(opts.startSector, opts.endSector)
	if err != nil {
		return out, err
	}
	out.Start, out.End, out.NoResync = start, end, opts.noResync
	out.Filter = tagstream.Filter{Types: types, From: from, To: to}
	return out, nil
}
