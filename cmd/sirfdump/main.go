package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/tagtools/internal/cli"
	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/sirf"
)

type options struct {
	mids cli.List
}

func tool() cli.Tool {
	var opts options
	return cli.Tool{
		Name: "sirfdump",
		Args: "<sirf capture>",
		Flags: func(fs *flag.FlagSet) {
			fs.Var(&opts.mids, "mids", "message ids to show, numbers or names, comma separated")
		},
		Run: func(env *cli.Env) error { return run(env, opts) },
	}
}

func main() {
	os.Exit(tool().Main(os.Args[1:], os.Stdout, os.Stderr))
}

func run(env *cli.Env, opts options) error {
	entries := []string(opts.mids)
	if len(entries) == 0 {
		entries = env.Config.Mids
	}
	mids := make(map[uint8]bool, len(entries))
	for _, raw := range entries {
		mid, err := sirf.ParseMid(raw)
		if err != nil {
			return &cli.UsageError{Err: err}
		}
		mids[mid] = true
	}

	d := sirf.NewDecoder()
	stats, err := d.Walk(env.Data, func(p sirf.Packet) error {
		if len(mids) > 0 && p.Obj != nil {
			if mid, ok := sirf.Mid(p.Obj); ok && !mids[mid] {
				return nil
			}
		}
		return emitPacket(env.Out, d, p, env)
	})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(env.Out, "packets %d  skipped %d  false_sync %d  errors %d  truncated %t\n",
		stats.Packets, stats.Skipped, stats.FalseSync, stats.Errors, stats.Truncated); err != nil {
		return err
	}
	return writeUnknown(env.Out, d)
}

func emitPacket(w io.Writer, d *sirf.Decoder, p sirf.Packet, env *cli.Env) error {
	if _, err := fmt.Fprintf(w, "%08x  %-20s %4d\n", p.Offset, packetName(p), len(p.Raw)); err != nil {
		return err
	}
	e := emit.Emission{
		Level:    env.Level(),
		Offset:   p.Offset,
		Raw:      p.Raw,
		Obj:      p.Obj,
		Format:   env.Config.Format,
		HexWidth: env.Config.HexWidth,
	}
	if p.Err != nil {
		return emit.Fallback(w, e, p.Err)
	}
	if err := d.Emit(w, e, p.Obj); err != nil {
		return emit.Fallback(w, e, err)
	}
	if e.Level >= 2 {
		return emit.Hex(w, p.Offset, p.Raw, e.HexWidth)
	}
	return nil
}

func packetName(p sirf.Packet) string {
	if p.Obj == nil {
		return "?"
	}
	mid, ok := sirf.Mid(p.Obj)
	if !ok {
		return "?"
	}
	if name := sirf.MidName(mid); name != "" {
		return name
	}
	return fmt.Sprintf("%d", mid)
}

func writeUnknown(w io.Writer, d *sirf.Decoder) error {
	report := d.Unknown.Report()
	if len(report) == 0 {
		return nil
	}
	if _, err := fmt.Fprint(w, "  unrecognized mids:"); err != nil {
		return err
	}
	for _, c := range report {
		if _, err := fmt.Fprintf(w, " %d(%d)", c.Code, c.Count); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
