package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/logging"
	pelletier "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	DefaultHexWidth = 16
	MaxVerbosity    = 3
)

// ToolConfig holds the settings shared by the dump tools. Flags given on the
// command line override whatever a file sets. An empty LogLevel leaves the
// level from the environment alone. RTypes filters tagdump, Mids sirfdump
// and IDs ubxdump.
type ToolConfig struct {
	Verbosity int
	Format    emit.Format
	RTypes    []string
	Mids      []string
	IDs       []string
	HexWidth  int
	Metrics   bool
	LogLevel  string
}

type fileConfig struct {
	Verbosity int      `toml:"verbosity"`
	Format    string   `toml:"format"`
	RTypes    []string `toml:"rtypes"`
	Mids      []string `toml:"mids"`
	IDs       []string `toml:"ids"`
	HexWidth  int      `toml:"hex_width"`
	Metrics   bool     `toml:"metrics"`
	LogLevel  string   `toml:"log_level"`
}

func DefaultToolConfig() ToolConfig {
	return ToolConfig{
		Format:   emit.FormatText,
		RTypes:   []string{},
		Mids:     []string{},
		IDs:      []string{},
		HexWidth: DefaultHexWidth,
	}
}

// LoadToolConfig overlays the keys defined in path on the defaults. Keys it
// does not know are logged and skipped; CheckStrict rejects them.
func LoadToolConfig(path string) (ToolConfig, error) {
	cfg := DefaultToolConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ToolConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		log.Warn().Str("path", path).Str("key", key.String()).Msg("config key ignored")
	}

	if meta.IsDefined("verbosity") {
		cfg.Verbosity = raw.Verbosity
	}

	if meta.IsDefined("format") {
		f, err := emit.ParseFormat(strings.TrimSpace(raw.Format))
		if err != nil {
			return ToolConfig{}, fmt.Errorf("parse format: %w", err)
		}
		cfg.Format = f
	}

	if meta.IsDefined("rtypes") {
		cfg.RTypes = normalizeList(raw.RTypes)
	}
	if meta.IsDefined("mids") {
		cfg.Mids = normalizeList(raw.Mids)
	}
	if meta.IsDefined("ids") {
		cfg.IDs = normalizeList(raw.IDs)
	}

	if meta.IsDefined("hex_width") {
		cfg.HexWidth = raw.HexWidth
	}

	if meta.IsDefined("metrics") {
		cfg.Metrics = raw.Metrics
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if err := ValidateToolConfig(cfg); err != nil {
		return ToolConfig{}, err
	}
	return cfg, nil
}

func ValidateToolConfig(cfg ToolConfig) error {
	if cfg.Verbosity < 0 || cfg.Verbosity > MaxVerbosity {
		return fmt.Errorf("verbosity %d out of range 0..%d", cfg.Verbosity, MaxVerbosity)
	}
	if cfg.HexWidth <= 0 || cfg.HexWidth > 64 {
		return fmt.Errorf("hex_width %d out of range 1..64", cfg.HexWidth)
	}
	if _, ok := logging.ParseLevel(cfg.LogLevel); cfg.LogLevel != "" && !ok {
		return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
	}
	return nil
}

var ErrStrictKeys = errors.New("config has keys no tool reads")

// CheckStrict decodes path with unknown keys disallowed and reports every
// offending key, not only the first.
func CheckStrict(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	var raw fileConfig
	dec := pelletier.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		var strict *pelletier.StrictMissingError
		if errors.As(err, &strict) {
			keys := make([]string, 0, len(strict.Errors))
			for _, e := range strict.Errors {
				keys = append(keys, strings.Join(e.Key(), "."))
			}
			return fmt.Errorf("%w (%s): %s", ErrStrictKeys, path, strings.Join(keys, ", "))
		}
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
