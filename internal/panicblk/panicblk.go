// Package panicblk carves the fixed regions of a panic dump into separate
// files.
package panicblk

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

var ErrShortDump = errors.New("panicblk: dump shorter than the panic block")

// Region is a named byte range of a dump, [Start, End).
type Region struct {
	Name  string
	Start int
	End   int
}

func (r Region) Len() int {
	return r.End - r.Start
}

// Regions are the panic block regions in file order.
var Regions = []Region{
	{Name: "regs", Start: 0x0000, End: 0x0200},
	{Name: "ram", Start: 0x0200, End: 0x10200},
	{Name: "io", Start: 0x10200, End: 0x14200},
}

// BlockLen is the minimum dump size.
func BlockLen() int {
	return Regions[len(Regions)-1].End
}

// Carve returns each region's bytes, in Regions order. The dump must hold
// the whole block; a short dump yields no regions.
func Carve(dump []byte) ([][]byte, error) {
	if len(dump) < BlockLen() {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrShortDump, len(dump), BlockLen())
	}
	out := make([][]byte, len(Regions))
	for i, r := range Regions {
		out[i] = dump[r.Start:r.End]
	}
	return out, nil
}

// OutputPath is where region r of out is written.
func OutputPath(out string, r Region) string {
	return out + "." + r.Name
}

// Extract reads the dump at path and writes every region to
// OutputPath(out, region). Nothing is written when the dump is unreadable
// or short. It returns the paths written.
func Extract(path, out string) ([]string, error) {
	dump, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dump: %w", err)
	}
	parts, err := Carve(dump)
	if err != nil {
		return nil, err
	}
	written := make([]string, 0, len(parts))
	for i, r := range Regions {
		target := OutputPath(out, r)
		if err := os.WriteFile(target, parts[i], 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", r.Name, err)
		}
		log.Debug().Str("region", r.Name).Str("path", target).Int("bytes", r.Len()).Msg("panic region written")
		written = append(written, target)
	}
	return written, nil
}
