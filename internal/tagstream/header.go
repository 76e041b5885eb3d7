// Package tagstream walks a Tag Data Stream: back-to-back records, each a
// 20-byte little-endian header followed by a payload whose layout depends on
// the record's dtype.
package tagstream

import (
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/tagtools/internal/layout"
)

const (
	HeaderLen = 20
	// SectorSize is the unit of --start_sector and --end_sector.
	SectorSize = 512
)

var ErrShortHeader = errors.New("tagstream: short record header")

var le = layout.LE

// RTCStruct is the on-the-wire real time clock.
var RTCStruct = layout.NewStruct("rt",
	le.U16("sub_sec"),
	layout.U8("sec"),
	layout.U8("min"),
	layout.U8("hr"),
	layout.U8("dow"),
	layout.U8("day"),
	layout.U8("mon"),
	le.U16("year"),
)

// HeaderStruct is the common record header.
var HeaderStruct = layout.NewStruct("hdr",
	le.U16("len"),
	le.U16("dtype").Show(showDtype),
).
	Add(le.U32("recnum")).
	Nest("rt", RTCStruct).
	Add(le.U16("recsum").Fmt("%#06x"))

// RTC is a decoded real time clock. SubSec counts 1/32768 s ticks.
type RTC struct {
	SubSec uint16
	Sec    uint8
	Min    uint8
	Hr     uint8
	Dow    uint8
	Day    uint8
	Mon    uint8
	Year   uint16
}

// Time converts the clock to UTC. Out-of-range fields normalize the way
// time.Date does.
func (r RTC) Time() time.Time {
	nsec := int(int64(r.SubSec) * int64(time.Second) / 32768)
	return time.Date(int(r.Year), time.Month(r.Mon), int(r.Day), int(r.Hr), int(r.Min), int(r.Sec), nsec, time.UTC)
}

func (r RTC) String() string {
	return fmt.Sprintf("%04d/%02d/%02d %02d:%02d:%02d.%03d",
		r.Year, r.Mon, r.Day, r.Hr, r.Min, r.Sec, int(r.SubSec)*1000/32768)
}

// RTCFrom reads an RTC out of a decoded RTCStruct aggregate.
func RTCFrom(a *layout.Aggregate) RTC {
	if a == nil {
		return RTC{}
	}
	return RTC{
		SubSec: uint16(a.Uint("sub_sec")),
		Sec:    uint8(a.Uint("sec")),
		Min:    uint8(a.Uint("min")),
		Hr:     uint8(a.Uint("hr")),
		Dow:    uint8(a.Uint("dow")),
		Day:    uint8(a.Uint("day")),
		Mon:    uint8(a.Uint("mon")),
		Year:   uint16(a.Uint("year")),
	}
}

// Header is the typed view of a decoded record header.
type Header struct {
	Len    uint16
	Dtype  uint16
	RecNum uint32
	RT     RTC
	RecSum uint16
}

// ParseHeader decodes the header at buf[0]. The aggregate is returned for
// rendering alongside the typed view.
func ParseHeader(buf []byte) (Header, *layout.Aggregate, error) {
	if len(buf) < HeaderLen {
		return Header{}, nil, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(buf))
	}
	agg, _, err := HeaderStruct.Decode(buf)
	if err != nil {
		return Header{}, nil, fmt.Errorf("%w: %w", ErrShortHeader, err)
	}
	return Header{
		Len:    uint16(agg.Uint("len")),
		Dtype:  uint16(agg.Uint("dtype")),
		RecNum: uint32(agg.Uint("recnum")),
		RT:     RTCFrom(agg.Sub("rt")),
		RecSum: uint16(agg.Uint("recsum")),
	}, agg, nil
}
