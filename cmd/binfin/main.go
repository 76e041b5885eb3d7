package main

import (
	"fmt"
	"os"

	"github.com/danmuck/tagtools/internal/cli"
	"github.com/danmuck/tagtools/internal/imageinfo"
	"github.com/rs/zerolog/log"
)

func tool() cli.Tool {
	return cli.Tool{
		Name: "binfin",
		Args: "<image file>",
		Run:  run,
	}
}

func main() {
	os.Exit(tool().Main(os.Args[1:], os.Stdout, os.Stderr))
}

func run(env *cli.Env) error {
	info, err := imageinfo.Parse(env.Data)
	if err != nil {
		return fmt.Errorf("%s: %w", env.Input, err)
	}
	log.Debug().Str("version", info.Version()).Int("plus", len(info.Plus)).Msg("image info valid")
	return info.Render(env.Out, env.Level(), env.Config.Format)
}
