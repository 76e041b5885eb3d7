package ubx

import (
	"bytes"
	"encoding/binary"

	"github.com/danmuck/tagtools/internal/layout"
	"github.com/danmuck/tagtools/internal/observability"
	"github.com/rs/zerolog/log"
)

var syncBytes = []byte{Sync1, Sync2}

// Packet is one framed packet found by Walk; Raw spans sync to checksum.
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

// Walk scans buf for back-to-back packets and calls fn for each in order.
// Garbage between frames is skipped and counted; a sync pair followed by an
// implausible length is a false sync. A frame running past the end of buf
// ends the walk. An error from fn stops the walk and is returned.
func (d *Decoder) Walk(buf []byte, fn func(Packet) error) (WalkStats, error) {
	var stats WalkStats
	off := 0
	for off < len(buf) {
		idx := bytes.Index(buf[off:], syncBytes)
		if idx < 0 {
			stats.Skipped += len(buf) - off
			break
		}
		stats.Skipped += idx
		off += idx
		if len(buf)-off < HeaderLen {
			stats.Truncated = true
			break
		}
		plen := int(binary.LittleEndian.Uint16(buf[off+4:]))
		if err := CheckLength(plen); err != nil {
			log.Debug().Err(err).Int("offset", off).Msg("ubx: false sync")
			stats.FalseSync++
			stats.Skipped += 2
			off += 2
			continue
		}
		total := plen + Overhead
		if off+total > len(buf) {
			log.Debug().Int("offset", off).Int("need", total).Int("have", len(buf)-off).Msg("ubx: truncated tail")
			stats.Truncated = true
			break
		}
		raw := buf[off : off+total]
		pkt, _, err := d.Decode(raw)
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
		observability.RecordDecode("ubx", KeyName(Key(raw[2], raw[3])), status)
		observability.RecordBytes("ubx", total)
		stats.Packets++
		if err := fn(Packet{Offset: off, Raw: raw, Obj: pkt, Err: err}); err != nil {
			return stats, err
		}
		off += total
	}
	return stats, nil
}
