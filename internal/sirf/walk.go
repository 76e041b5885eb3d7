package sirf

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/danmuck/tagtools/internal/layout"
	"github.com/danmuck/tagtools/internal/observability"
	"github.com/rs/zerolog/log"
)

var startBytes = []byte{0xa0, 0xa2}

// Packet is one framed packet found by Walk. Raw covers the whole frame,
// sentinels included. Err is set when the frame could not be decoded; Obj
// may still hold the packet header in that case.
type Packet struct {
	Offset int
	Raw    []byte
	Obj    *layout.Aggregate
	Err    error
}

type WalkStats struct {
	Packets   int
	Skipped   int
	FalseSync int
	Errors    int
	Truncated bool
}

// Walk scans buf for back-to-back packets and calls fn for each frame in
// order. Bytes between frames are skipped and counted. A start sentinel
// followed by an impossible length is treated as a false sync and scanning
// resumes right after it. A frame running past the end of buf ends the walk.
// A non-nil error from fn stops the walk and is returned.
func (d *Decoder) Walk(buf []byte, fn func(Packet) error) (WalkStats, error) {
	var stats WalkStats
	off := 0
	for off < len(buf) {
		idx := bytes.Index(buf[off:], startBytes)
		if idx < 0 {
			stats.Skipped += len(buf) - off
			break
		}
		stats.Skipped += idx
		off += idx
		if len(buf)-off < 4 {
			stats.Truncated = true
			break
		}
		plen := int(binary.BigEndian.Uint16(buf[off+2:]))
		if err := CheckLength(plen); err != nil {
			log.Debug().Err(err).Int("offset", off).Int("len", plen).Msg("sirf: false sync")
			stats.FalseSync++
			stats.Skipped += 2
			off += 2
			continue
		}
		total := plen + Overhead
		if off+total > len(buf) {
			log.Debug().Int("offset", off).Int("need", total).Int("have", len(buf)-off).Msg("sirf: truncated tail")
			stats.Truncated = true
			break
		}
		raw := buf[off : off+total]
		pkt, _, err := d.Decode(raw)
		p := Packet{Offset: off, Raw: raw, Obj: pkt, Err: err}
		status := "ok"
		switch {
		case err != nil:
			stats.Errors++
			status = "malformed"
		case pkt.Sub("msg") == nil:
			status = "unknown"
		case len(pkt.Anomalies) > 0:
			status = "partial"
		}
		observability.RecordDecode("sirf", kindOf(raw), status)
		observability.RecordBytes("sirf", total)
		stats.Packets++
		if err := fn(p); err != nil {
			return stats, err
		}
		off += total
	}
	return stats, nil
}

func kindOf(raw []byte) string {
	if len(raw) < HeaderLen {
		return "?"
	}
	if name := midNames[raw[4]]; name != "" {
		return name
	}
	return fmt.Sprintf("%d", raw[4])
}

// CheckLength reports whether a declared payload length can belong to a
// real packet.
func CheckLength(plen int) error {
	if plen == 0 || plen > MaxPayload {
		return fmt.Errorf("%w: %d", ErrBadLength, plen)
	}
	return nil
}
