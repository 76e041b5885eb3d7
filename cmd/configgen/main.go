package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/tagtools/internal/cli"
	"github.com/danmuck/tagtools/internal/config"
	"github.com/danmuck/tagtools/internal/logging"
	"github.com/danmuck/tagtools/internal/observability"
	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("configgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	kind := fs.String("kind", "tagdump", "config kind: "+strings.Join(config.Kinds, "|"))
	output := fs.String("output", "", "output path for config template (default <kind>.toml)")
	validate := fs.Bool("validate", false, "validate an existing config file")
	input := fs.String("input", "", "config path for validation (default <kind>.toml)")
	force := fs.Bool("force", false, "overwrite existing config file")
	if err := fs.Parse(args); err != nil {
		return cli.ExitUsage
	}

	logging.ConfigureRuntime()
	observability.InitLogger("configgen")

	if _, err := config.Template(*kind); err != nil {
		fmt.Fprintf(stderr, "configgen: %v\n", err)
		return cli.ExitUsage
	}

	if *validate {
		path := *input
		if path == "" {
			path = *kind + ".toml"
		}
		if _, err := config.LoadToolConfig(path); err != nil {
			fmt.Fprintf(stderr, "configgen: %v\n", err)
			return cli.ExitInput
		}
		if err := config.CheckStrict(path); err != nil {
			fmt.Fprintf(stderr, "configgen: %v\n", err)
			return cli.ExitInput
		}
		log.Info().Str("kind", *kind).Str("path", path).Msg("validated config")
		return cli.ExitOK
	}

	target := *output
	if target == "" {
		target = *kind + ".toml"
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		fmt.Fprintf(stderr, "configgen: %v\n", err)
		return cli.ExitInput
	}
	log.Info().Str("kind", *kind).Str("path", target).Msg("wrote config template")
	return cli.ExitOK
}
