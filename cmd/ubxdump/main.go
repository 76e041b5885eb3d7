package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/tagtools/internal/cli"
	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/ubx"
)

type options struct {
	ids cli.List
}

func tool() cli.Tool {
	var opts options
	return cli.Tool{
		Name: "ubxdump",
		Args: "<ubx capture>",
		Flags: func(fs *flag.FlagSet) {
			fs.Var(&opts.ids, "ids", "class/id keys to show, e.g. NAV-PVT or 0x0107, comma separated")
		},
		Run: func(env *cli.Env) error { return run(env, opts) },
	}
}

func main() {
	os.Exit(tool().Main(os.Args[1:], os.Stdout, os.Stderr))
}

func run(env *cli.Env, opts options) error {
	entries := []string(opts.ids)
	if len(entries) == 0 {
		entries = env.Config.IDs
	}
	keys := make(map[uint16]bool, len(entries))
	for _, raw := range entries {
		key, err := ubx.ParseKey(raw)
		if err != nil {
			return &cli.UsageError{Err: err}
		}
		keys[key] = true
	}

	d := ubx.NewDecoder()
	stats, err := d.Walk(env.Data, func(p ubx.Packet) error {
		if len(keys) > 0 && p.Obj != nil {
			if key, ok := ubx.PacketKey(p.Obj); ok && !keys[key] {
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
	report := d.Unknown.Report()
	if len(report) == 0 {
		return nil
	}
	if _, err := fmt.Fprint(env.Out, "  unrecognized ids:"); err != nil {
		return err
	}
	for _, c := range report {
		if _, err := fmt.Fprintf(env.Out, " 0x%04x(%d)", c.Code, c.Count); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(env.Out)
	return err
}

func emitPacket(w io.Writer, d *ubx.Decoder, p ubx.Packet, env *cli.Env) error {
	name := "?"
	if p.Obj != nil {
		if key, ok := ubx.PacketKey(p.Obj); ok {
			name = ubx.KeyName(key)
		}
	}
	if _, err := fmt.Fprintf(w, "%08x  %-12s %4d\n", p.Offset, name, len(p.Raw)); err != nil {
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
