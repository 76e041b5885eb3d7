// Package ubx decodes u-blox UBX packets:
//
//	B5 62 | class u8 | id u8 | len u16 | payload | ck_a ck_b
//
// Multi-byte fields are little-endian. The two checksum bytes are an 8-bit
// Fletcher sum over class, id, len and payload.
package ubx

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/danmuck/tagtools/internal/layout"
	"github.com/danmuck/tagtools/internal/observability"
	"github.com/danmuck/tagtools/internal/registry"
	"github.com/rs/zerolog/log"
)

const (
	Sync1 byte = 0xb5
	Sync2 byte = 0x62

	// HeaderLen covers the sync bytes, class, id and len.
	HeaderLen = 6
	// Overhead is the header plus the checksum.
	Overhead = 8
	// MaxPayload bounds the lengths the walker accepts as a real frame.
	MaxPayload = 4096
)

var ErrBadLength = errors.New("ubx: payload length out of range")

var headerStruct = layout.NewStruct("ubx",
	layout.U8("sync1").Fmt("%#04x"),
	layout.U8("sync2").Fmt("%#04x"),
	layout.U8("class").Fmt("%#04x"),
	layout.U8("id").Fmt("%#04x"),
	layout.LE.U16("len"),
)

// Key is the registry key of a class/id pair.
func Key(class, id uint8) uint16 {
	return uint16(class)<<8 | uint16(id)
}

// Checksum is the Fletcher checksum over b (class through payload).
func Checksum(b []byte) (uint8, uint8) {
	var a, c uint8
	for _, x := range b {
		a += x
		c += a
	}
	return a, c
}

// Decoder dispatches packets on class/id. Unregistered keys are counted in
// Unknown. A Decoder is not safe for concurrent use because of the tally.
type Decoder struct {
	Table   *registry.Registry[uint16]
	Unknown *registry.Tally[uint16]
}

func NewDecoder() *Decoder {
	return &Decoder{Table: Table(), Unknown: registry.NewTally[uint16]()}
}

// Decode decodes the packet at buf[0]. The returned aggregate holds the
// header fields, a derived "name" and the message under "msg". The consumed
// count covers the header and the decoded message; a bad sync consumes 0 and
// an unregistered class/id consumes the header only.
func (d *Decoder) Decode(buf []byte) (*layout.Aggregate, int, error) {
	if len(buf) >= 2 && (buf[0] != Sync1 || buf[1] != Sync2) {
		pkt := layout.NewAggregate("ubx")
		pkt.Note("ubx: sync %#04x %#04x, want %#04x %#04x", buf[0], buf[1], Sync1, Sync2)
		return pkt, 0, nil
	}
	pkt, n, err := headerStruct.Decode(buf)
	if err != nil {
		return nil, n, fmt.Errorf("ubx header: %w", err)
	}
	key := Key(uint8(pkt.Uint("class")), uint8(pkt.Uint("id")))
	pkt.SetDerived("name", "%s", layout.TextValue(KeyName(key)))
	body := payload(pkt, buf, int(pkt.Uint("len")))

	entry, ok := d.Table.Lookup(key)
	if !ok {
		if d.Unknown == nil {
			d.Unknown = registry.NewTally[uint16]()
		}
		count := d.Unknown.Note(key)
		observability.RecordUnknown("ubx", fmt.Sprintf("0x%04x", key))
		log.Debug().Uint16("key", key).Int("seen", count).Msg("ubx: unrecognized class/id")
		pkt.Note("unrecognized id 0x%04x", key)
		return pkt, n, nil
	}
	msg, m, err := entry.Run(body)
	if err != nil {
		return nil, n + m, fmt.Errorf("ubx %s: %w", entry.Name, err)
	}
	pkt.Attach("msg", msg)
	pkt.Consume(m)
	return pkt, n + m, nil
}

func payload(pkt *layout.Aggregate, buf []byte, plen int) []byte {
	end := HeaderLen + plen
	if end > len(buf) {
		pkt.Note("ubx: packet truncated, len %d but %d bytes present", plen, len(buf)-HeaderLen)
		return buf[HeaderLen:]
	}
	body := buf[HeaderLen:end]
	if end+2 > len(buf) {
		pkt.Note("ubx: checksum missing")
		return body
	}
	a, b := Checksum(buf[2:end])
	if buf[end] != a || buf[end+1] != b {
		pkt.Note("ubx: checksum %02x%02x, computed %02x%02x", buf[end], buf[end+1], a, b)
	}
	return body
}

// CheckLength reports whether a declared payload length is plausible for a
// frame found by scanning.
func CheckLength(plen int) error {
	if plen > MaxPayload {
		return fmt.Errorf("%w: %d", ErrBadLength, plen)
	}
	return nil
}

// PacketKey returns the class/id key of a decoded packet.
func PacketKey(pkt *layout.Aggregate) (uint16, bool) {
	if _, ok := pkt.Field("class"); !ok {
		return 0, false
	}
	return Key(uint8(pkt.Uint("class")), uint8(pkt.Uint("id"))), true
}

// ParseKey accepts "0x0107", "263" or a message name such as "NAV-PVT".
func ParseKey(raw string) (uint16, error) {
	for key, name := range keyNames {
		if name == raw {
			return key, nil
		}
	}
	v, err := strconv.ParseUint(raw, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("ubx: unknown message %q", raw)
	}
	return uint16(v), nil
}
