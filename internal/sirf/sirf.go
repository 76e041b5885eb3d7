// Package sirf decodes SiRF binary (OSP) packets:
//
//	A0 A2 | len u16 | mid u8 + payload | checksum u16 | B0 B3
//
// All multi-byte fields are big-endian. len counts the mid byte and the
// payload, and the checksum is the 15-bit sum of those len bytes.
package sirf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/danmuck/tagtools/internal/layout"
	"github.com/danmuck/tagtools/internal/observability"
	"github.com/danmuck/tagtools/internal/registry"
	"github.com/rs/zerolog/log"
)

const (
	StartSentinel uint16 = 0xa0a2
	EndSentinel   uint16 = 0xb0b3
	MaxPayload           = 2047

	// HeaderLen covers the start sentinel, the length and the mid byte.
	HeaderLen = 5
	// Overhead is every framing byte around the len bytes.
	Overhead = 8
)

var (
	ErrBadLength = errors.New("sirf: payload length out of range")
)

var headerStruct = layout.NewStruct("sirf",
	layout.BE.U16("start").Fmt("%#06x"),
	layout.BE.U16("len"),
	layout.U8("mid").Show(showMid),
)

// Checksum is the OSP checksum of the len bytes starting at the mid.
func Checksum(b []byte) uint16 {
	var sum uint16
	for _, c := range b {
		sum += uint16(c)
	}
	return sum & 0x7fff
}

// Decoder dispatches packets on the message id. Unregistered ids are counted
// in Unknown. A Decoder is not safe for concurrent use because of the tally.
type Decoder struct {
	Table   *registry.Registry[uint8]
	Unknown *registry.Tally[uint8]
}

func NewDecoder() *Decoder {
	return &Decoder{Table: Table(), Unknown: registry.NewTally[uint8]()}
}

// Decode decodes the packet starting at buf[0]. It returns the packet
// aggregate (fields start, len, mid and the decoded message under "msg") and
// the bytes consumed by the packet header plus the message.
//
// A missing start sentinel is not an error: the aggregate carries an anomaly
// and the consumed count is 0, leaving resynchronization to the caller. An
// unregistered mid consumes only the header.
func (d *Decoder) Decode(buf []byte) (*layout.Aggregate, int, error) {
	if len(buf) >= 2 {
		if start := binary.BigEndian.Uint16(buf); start != StartSentinel {
			pkt := layout.NewAggregate("sirf")
			pkt.Note("sirf: start sentinel %#06x, want %#06x", start, StartSentinel)
			return pkt, 0, nil
		}
	}
	pkt, n, err := headerStruct.Decode(buf)
	if err != nil {
		return nil, n, fmt.Errorf("sirf header: %w", err)
	}
	plen := int(pkt.Uint("len"))
	if err := CheckLength(plen); err != nil {
		pkt.Note("%v", err)
		return pkt, n, nil
	}
	mid := uint8(pkt.Uint("mid"))
	body := payload(pkt, buf, plen)

	entry, ok := d.Table.Lookup(mid)
	if !ok {
		if d.Unknown == nil {
			d.Unknown = registry.NewTally[uint8]()
		}
		count := d.Unknown.Note(mid)
		observability.RecordUnknown("sirf", strconv.Itoa(int(mid)))
		log.Debug().Uint8("mid", mid).Int("seen", count).Msg("sirf: unrecognized mid")
		pkt.Note("unrecognized id %d", mid)
		return pkt, n, nil
	}
	msg, m, err := entry.Run(body)
	if err != nil {
		return nil, n + m, fmt.Errorf("sirf %s: %w", entry.Name, err)
	}
	pkt.Attach("msg", msg)
	pkt.Consume(m)
	return pkt, n + m, nil
}

// payload returns the message bytes after the mid and records trailer
// anomalies when the whole packet is present.
func payload(pkt *layout.Aggregate, buf []byte, plen int) []byte {
	end := 4 + plen
	if end > len(buf) {
		pkt.Note("sirf: packet truncated, len %d but %d bytes present", plen, len(buf)-4)
		return buf[HeaderLen:]
	}
	body := buf[HeaderLen:end]
	if end+4 > len(buf) {
		pkt.Note("sirf: trailer missing")
		return body
	}
	if got, want := binary.BigEndian.Uint16(buf[end:]), Checksum(buf[4:end]); got != want {
		pkt.Note("sirf: checksum %#06x, computed %#06x", got, want)
	}
	if tail := binary.BigEndian.Uint16(buf[end+2:]); tail != EndSentinel {
		pkt.Note("sirf: end sentinel %#06x, want %#06x", tail, EndSentinel)
	}
	return body
}

// Mid returns the message id of a decoded packet.
func Mid(pkt *layout.Aggregate) (uint8, bool) {
	f, ok := pkt.Field("mid")
	if !ok {
		return 0, false
	}
	return uint8(f.Value.Uint), true
}
