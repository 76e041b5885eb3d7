// Package cli holds the flag handling and run loop shared by the dump tools.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/tagtools/internal/config"
	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/logging"
	"github.com/danmuck/tagtools/internal/observability"
	"github.com/rs/zerolog/log"
)

// Version is reported by -V.
const Version = "0.4.0"

// Exit codes.
const (
	ExitOK    = 0
	ExitUsage = 1
	ExitInput = 2
)

// UsageError marks a bad invocation; Main exits with ExitUsage for it. Any
// other error from a tool exits with ExitInput.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func Usagef(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// Env is what a tool's Run sees once flags, config and files are settled.
type Env struct {
	Name   string
	Config config.ToolConfig
	Input  string
	Data   []byte
	Out    io.Writer
	Err    io.Writer
}

// Level is the resolved verbosity.
func (e *Env) Level() int {
	return e.Config.Verbosity
}

// Tool describes one command. Flags registers tool-specific flags on the
// shared set. When Raw is set Main does not read the input file and Data
// stays nil.
type Tool struct {
	Name  string
	Args  string
	Raw   bool
	Flags func(fs *flag.FlagSet)
	Run   func(env *Env) error
}

// Common are the flags every tool accepts.
type Common struct {
	Version   bool
	Verbosity Counter
	Output    string
	Config    string
	Format    string
	Metrics   bool
	LogLevel  string
	HexWidth  int
}

// Register installs the common flags on fs, each under its short and long
// name where it has both.
func (c *Common) Register(fs *flag.FlagSet) {
	fs.BoolVar(&c.Version, "V", false, "print the version and exit")
	fs.BoolVar(&c.Version, "version", false, "print the version and exit")
	fs.Var(&c.Verbosity, "v", "verbosity, repeat for more detail")
	fs.Var(&c.Verbosity, "verbosity", "verbosity, repeat for more detail")
	fs.Var(c.Verbosity.Step(2), "vv", "verbosity 2")
	fs.Var(c.Verbosity.Step(3), "vvv", "verbosity 3")
	fs.StringVar(&c.Output, "o", "", "output file (default stdout)")
	fs.StringVar(&c.Output, "output", "", "output file (default stdout)")
	fs.StringVar(&c.Config, "config", "", "TOML settings file")
	fs.StringVar(&c.Format, "format", "", "output format: text | yaml")
	fs.BoolVar(&c.Metrics, "metrics", false, "print decode counters after the run")
	fs.StringVar(&c.LogLevel, "log-level", "", "diagnostic log level on stderr")
	fs.IntVar(&c.HexWidth, "hex-width", 0, "bytes per hex dump line")
}

// Resolve loads the config file, if any, then applies the flags that were
// given on the command line.
func (c *Common) Resolve(fs *flag.FlagSet) (config.ToolConfig, error) {
	cfg := config.DefaultToolConfig()
	if c.Config != "" {
		loaded, err := config.LoadToolConfig(c.Config)
		if err != nil {
			return config.ToolConfig{}, err
		}
		cfg = loaded
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["v"] || set["verbosity"] || set["vv"] || set["vvv"] {
		cfg.Verbosity = min(int(c.Verbosity), config.MaxVerbosity)
	}
	if set["format"] {
		f, err := emit.ParseFormat(c.Format)
		if err != nil {
			return config.ToolConfig{}, &UsageError{Err: err}
		}
		cfg.Format = f
	}
	if set["metrics"] {
		cfg.Metrics = c.Metrics
	}
	if set["log-level"] {
		cfg.LogLevel = strings.TrimSpace(c.LogLevel)
	}
	if set["hex-width"] {
		cfg.HexWidth = c.HexWidth
	}
	if err := config.ValidateToolConfig(cfg); err != nil {
		return config.ToolConfig{}, &UsageError{Err: err}
	}
	return cfg, nil
}

// Main parses args, runs the tool and returns the process exit code.
func (t Tool) Main(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(t.Name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s [flags] %s\n", t.Name, t.Args)
		fs.PrintDefaults()
	}
	var common Common
	common.Register(fs)
	if t.Flags != nil {
		t.Flags(fs)
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}
	if common.Version {
		fmt.Fprintf(stdout, "%s %s\n", t.Name, Version)
		return ExitOK
	}

	logging.ConfigureRuntime()
	observability.InitLogger(t.Name)

	cfg, err := common.Resolve(fs)
	if err != nil {
		return t.fail(stderr, err)
	}
	if cfg.LogLevel != "" {
		logging.SetLevel(cfg.LogLevel)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return ExitUsage
	}

	env := &Env{Name: t.Name, Config: cfg, Input: fs.Arg(0), Out: stdout, Err: stderr}
	if !t.Raw {
		data, err := os.ReadFile(env.Input)
		if err != nil {
			return t.fail(stderr, fmt.Errorf("read input: %w", err))
		}
		env.Data = data
	}
	var out *outputFile
	if common.Output != "" {
		out = &outputFile{path: common.Output}
		env.Out = out
	}

	log.Debug().Str("input", env.Input).Int("verbosity", cfg.Verbosity).Str("format", cfg.Format.String()).Msg("run")
	err = t.Run(env)
	if err == nil && cfg.Metrics {
		err = observability.WriteSummary(env.Out)
	}
	if out != nil {
		if err != nil {
			out.discard()
		} else if cerr := out.Close(); cerr != nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}
	if err != nil {
		return t.fail(stderr, err)
	}
	return ExitOK
}

// outputFile creates its file on the first write, so a run that fails before
// producing anything leaves no file behind.
type outputFile struct {
	path string
	f    *os.File
}

func (o *outputFile) Write(p []byte) (int, error) {
	if o.f == nil {
		f, err := os.Create(o.path)
		if err != nil {
			return 0, fmt.Errorf("open output: %w", err)
		}
		o.f = f
	}
	return o.f.Write(p)
}

// Close creates an empty file when nothing was written.
func (o *outputFile) Close() error {
	if o.f == nil {
		if _, err := o.Write(nil); err != nil {
			return err
		}
	}
	return o.f.Close()
}

func (o *outputFile) discard() {
	if o.f == nil {
		return
	}
	o.f.Close()
	if err := os.Remove(o.path); err != nil {
		log.Warn().Err(err).Str("path", o.path).Msg("remove partial output")
	}
}

func (t Tool) fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "%s: %v\n", t.Name, err)
	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsage
	}
	return ExitInput
}
