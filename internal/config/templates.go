package config

import (
	"fmt"
	"os"
	"strings"
)

// Kinds lists the tools with a config template.
var Kinds = []string{"tagdump", "sirfdump", "ubxdump"}

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "tagdump":
		return tagdumpTemplate, nil
	case "sirfdump":
		return sirfdumpTemplate, nil
	case "ubxdump":
		return ubxdumpTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const tagdumpTemplate = `# tagdump settings; command line flags win
verbosity = 0
format = "text"
rtypes = ["SYNC", "REBOOT", "EVENT", "GPS_RAW"]
hex_width = 16
metrics = false
log_level = "info"
`

const sirfdumpTemplate = `# sirfdump settings; mids holds message ids or names
verbosity = 1
format = "text"
mids = ["4", "41"]
hex_width = 16
metrics = false
log_level = "info"
`

const ubxdumpTemplate = `# ubxdump settings; ids holds class/id keys
verbosity = 1
format = "text"
ids = ["NAV-PVT", "NAV-SAT"]
hex_width = 16
metrics = false
log_level = "info"
`
