package cli

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/testutil/testlog"
)

func parse(t *testing.T, args ...string) (*flag.FlagSet, *Common) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var c Common
	c.Register(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return fs, &c
}

func TestVerbosityCounts(t *testing.T) {
	testlog.Start(t)
	cases := map[string][]string{
		"0": {},
		"1": {"-v"},
		"2": {"-v", "--verbosity"},
		"3": {"-vvv"},
	}
	for want, args := range cases {
		_, c := parse(t, args...)
		if c.Verbosity.String() != want {
			t.Fatalf("%v: verbosity %s, want %s", args, c.Verbosity.String(), want)
		}
	}
	_, c := parse(t, "-v=2")
	if c.Verbosity != 2 {
		t.Fatalf("explicit count: %d", c.Verbosity)
	}
}

func TestListSplitsAndRepeats(t *testing.T) {
	testlog.Start(t)
	var l List
	for _, v := range []string{"SYNC, EVENT", "", "32"} {
		if err := l.Set(v); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	if l.String() != "SYNC,EVENT,32" {
		t.Fatalf("unexpected list: %q", l.String())
	}
}

func TestResolveFlagsOverrideFile(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "tools.toml")
	if err := os.WriteFile(path, []byte("verbosity = 1\nformat = \"yaml\"\nhex_width = 8\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	fs, c := parse(t, "--config", path, "-vv", "--hex-width", "32")
	cfg, err := c.Resolve(fs)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Verbosity != 2 || cfg.Format != emit.FormatYAML || cfg.HexWidth != 32 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	fs, c = parse(t, "--format", "xml")
	_, err = c.Resolve(fs)
	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestMainExitCodes(t *testing.T) {
	testlog.Start(t)
	input := filepath.Join(t.TempDir(), "in.bin")
	if err := os.WriteFile(input, []byte("data"), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	var seen []byte
	tool := Tool{
		Name: "sample",
		Args: "<file>",
		Run: func(env *Env) error {
			seen = env.Data
			if env.Level() > 0 {
				return Usagef("too loud")
			}
			_, err := io.WriteString(env.Out, "ok\n")
			return err
		},
	}

	var out, errOut bytes.Buffer
	if code := tool.Main([]string{input}, &out, &errOut); code != ExitOK {
		t.Fatalf("run: exit %d: %s", code, errOut.String())
	}
	if string(seen) != "data" || out.String() != "ok\n" {
		t.Fatalf("unexpected run: %q %q", seen, out.String())
	}

	out.Reset()
	if code := tool.Main([]string{"-V"}, &out, &errOut); code != ExitOK || out.String() != "sample "+Version+"\n" {
		t.Fatalf("version: exit %d, %q", code, out.String())
	}
	if code := tool.Main(nil, &out, &errOut); code != ExitUsage {
		t.Fatalf("missing input: exit %d", code)
	}
	if code := tool.Main([]string{"--bogus", input}, &out, &errOut); code != ExitUsage {
		t.Fatalf("bad flag: exit %d", code)
	}
	if code := tool.Main([]string{"-v", input}, &out, &errOut); code != ExitUsage {
		t.Fatalf("usage error from run: exit %d", code)
	}
	errOut.Reset()
	if code := tool.Main([]string{filepath.Join(t.TempDir(), "missing")}, &out, &errOut); code != ExitInput {
		t.Fatalf("unreadable input: exit %d", code)
	}
	if !strings.HasPrefix(errOut.String(), "sample: read input:") {
		t.Fatalf("unexpected stderr: %q", errOut.String())
	}
}

func TestMainWritesOutputFile(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "in.bin")
	output := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(input, nil, 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	tool := Tool{Name: "sample", Raw: true, Run: func(env *Env) error {
		if env.Data != nil {
			return errors.New("raw tool got data")
		}
		_, err := io.WriteString(env.Out, env.Input)
		return err
	}}
	var out, errOut bytes.Buffer
	if code := tool.Main([]string{"-o", output, input}, &out, &errOut); code != ExitOK {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	got, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != input || out.Len() != 0 {
		t.Fatalf("unexpected output: %q / %q", got, out.String())
	}
}

func TestMainFailedRunLeavesNoOutput(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.img")
	if err := os.WriteFile(input, []byte{1, 2, 3}, 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	for name, run := range map[string]func(env *Env) error{
		"before writing": func(env *Env) error { return errors.New("not an image") },
		"after writing": func(env *Env) error {
			if _, err := io.WriteString(env.Out, "partial\n"); err != nil {
				return err
			}
			return errors.New("cut short")
		},
	} {
		output := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".txt")
		tool := Tool{Name: "sample", Run: run}
		var out, errOut bytes.Buffer
		if code := tool.Main([]string{"-o", output, input}, &out, &errOut); code != ExitInput {
			t.Fatalf("%s: exit %d", name, code)
		}
		if _, err := os.Stat(output); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("%s: output left behind: %v", name, err)
		}
	}
}

func TestMainEmptyRunStillCreatesOutput(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "in.bin")
	output := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(input, nil, 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	tool := Tool{Name: "sample", Run: func(env *Env) error { return nil }}
	var out, errOut bytes.Buffer
	if code := tool.Main([]string{"-o", output, input}, &out, &errOut); code != ExitOK {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if info, err := os.Stat(output); err != nil || info.Size() != 0 {
		t.Fatalf("expected empty output file: %v", err)
	}
}
