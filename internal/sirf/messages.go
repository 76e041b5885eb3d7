package sirf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/layout"
	"github.com/danmuck/tagtools/internal/registry"
)

// Message ids.
const (
	MidNavData       uint8 = 2
	MidNavTrack      uint8 = 4
	MidSwVersion     uint8 = 6
	MidClockStatus   uint8 = 7
	MidCPUThroughput uint8 = 9
	MidAck           uint8 = 11
	MidNack          uint8 = 12
	MidVisible       uint8 = 13
	MidGeodetic      uint8 = 41
	MidPPSTime       uint8 = 52
	MidDevData       uint8 = 255
)

// NavTrackCnoCount is the number of C/N0 samples per tracked channel.
const NavTrackCnoCount = 10

var be = layout.BE

func scaled(div float64, format string) func(layout.Value) string {
	return func(v layout.Value) string {
		return fmt.Sprintf(format, v.AsFloat()/div)
	}
}

var (
	navDataProto = layout.NewStruct("navdata",
		be.I32("x"), be.I32("y"), be.I32("z"),
		be.I16("vx").Show(scaled(8, "%.3f")),
		be.I16("vy").Show(scaled(8, "%.3f")),
		be.I16("vz").Show(scaled(8, "%.3f")),
		layout.U8("mode1").Fmt("%#04x"),
		layout.U8("hdop").Show(scaled(5, "%.1f")),
		layout.U8("mode2").Fmt("%#04x"),
		be.U16("week"),
		be.U32("tow").Show(scaled(100, "%.2f")),
		layout.U8("nsats"),
		layout.Bytes("prn", 12).Fmt("%v"),
	)

	navTrackHeader = layout.NewStruct("navtrack",
		be.U16("week"),
		be.U32("tow").Show(scaled(100, "%.2f")),
		layout.U8("chans"),
	)

	navTrackChannel = layout.NewStruct("chan",
		layout.U8("svid"),
		layout.U8("az").Show(func(v layout.Value) string { return fmt.Sprintf("%.1f", v.AsFloat()*1.5) }),
		layout.U8("el").Show(scaled(2, "%.1f")),
		be.U16("state").Fmt("%#06x"),
		layout.Bytes("cno", NavTrackCnoCount).Fmt("%v"),
	)

	clockStatusProto = layout.NewStruct("clockstatus",
		be.U16("week"),
		be.U32("tow").Show(scaled(100, "%.2f")),
		layout.U8("nsats"),
		be.U32("drift"),
		be.U32("bias"),
		be.U32("gpstime"),
	)

	cpuThroughputProto = layout.NewStruct("cpu_throughput",
		be.U16("seg_stat_max"),
		be.U16("seg_stat_lat"),
		be.U16("avg_trk_time"),
		be.U16("last_ms"),
	)

	ackProto  = layout.NewStruct("ack", layout.U8("ack_id"))
	nackProto = layout.NewStruct("nack", layout.U8("nack_id"))

	visibleHeader = layout.NewStruct("visible", layout.U8("count"))
	visibleSat    = layout.NewStruct("sat", layout.U8("svid"), be.I16("az"), be.I16("el"))

	geodeticProto = layout.NewStruct("geodetic",
		be.U16("nav_valid").Fmt("%#06x"),
		be.U16("nav_type").Fmt("%#06x"),
		be.U16("week"),
		be.U32("tow").Show(scaled(1000, "%.3f")),
		be.U16("utc_year"),
		layout.U8("utc_month"),
		layout.U8("utc_day"),
		layout.U8("utc_hour"),
		layout.U8("utc_min"),
		be.U16("utc_ms"),
		be.U32("sat_mask").Fmt("%#010x"),
		be.I32("lat").Show(scaled(1e7, "%.7f")),
		be.I32("lon").Show(scaled(1e7, "%.7f")),
		be.I32("alt_elipsoid").Show(scaled(100, "%.2f")),
		be.I32("alt_msl").Show(scaled(100, "%.2f")),
		layout.U8("map_datum"),
		be.U16("sog"),
		be.U16("cog"),
		be.I16("mag_var"),
		be.I16("climb"),
		be.I16("heading_rate"),
		be.U32("ehpe"),
		be.U32("evpe"),
		be.U32("ete"),
		be.U16("ehve"),
		be.I32("clock_bias"),
		be.U32("clock_bias_err"),
		be.I32("clock_drift"),
		be.U32("clock_drift_err"),
		be.U32("distance"),
		be.U16("distance_err"),
		be.U16("heading_err"),
		layout.U8("nsats"),
		layout.U8("hdop").Show(scaled(5, "%.1f")),
		layout.U8("mode_info").Fmt("%#04x"),
	)

	ppsTimeProto = layout.NewStruct("pps_time",
		layout.U8("hour"),
		layout.U8("min"),
		layout.U8("sec"),
		layout.U8("day"),
		layout.U8("month"),
		be.U16("year"),
		be.I16("utc_off_int"),
		be.U32("utc_off_frac"),
		layout.U8("status").Fmt("%#04x"),
		be.U32("reserved"),
	)
)

// Table builds the message-id dispatch table.
func Table() *registry.Registry[uint8] {
	detail := emit.Emitter{Level: 1, Fn: emit.Fields}
	return registry.NewBuilder[uint8]("sirf").
		Add(MidNavData, registry.Entry{
			Length: navDataProto.Len(), Proto: navDataProto, Name: midNames[MidNavData],
			Emitters: []emit.Emitter{{Fn: emitNavData}, detail},
		}).
		Add(MidNavTrack, registry.Entry{
			Decode: decodeNavTrack, Proto: navTrackHeader, Name: midNames[MidNavTrack],
			Emitters: []emit.Emitter{{Fn: emitNavTrack}, {Level: 1, Fn: emitNavTrackChannels}},
		}).
		Add(MidSwVersion, registry.Entry{
			Decode: decodeText, Name: midNames[MidSwVersion], Object: "swver",
			Emitters: []emit.Emitter{{Fn: emitText}},
		}).
		Add(MidClockStatus, registry.Entry{
			Length: clockStatusProto.Len(), Proto: clockStatusProto, Name: midNames[MidClockStatus],
			Emitters: []emit.Emitter{detail},
		}).
		Add(MidCPUThroughput, registry.Entry{
			Length: cpuThroughputProto.Len(), Proto: cpuThroughputProto, Name: midNames[MidCPUThroughput],
			Emitters: []emit.Emitter{detail},
		}).
		Add(MidAck, registry.Entry{
			Length: ackProto.Len(), Proto: ackProto, Name: midNames[MidAck],
			Emitters: []emit.Emitter{{Fn: emitAck}},
		}).
		Add(MidNack, registry.Entry{
			Length: nackProto.Len(), Proto: nackProto, Name: midNames[MidNack],
			Emitters: []emit.Emitter{{Fn: emitAck}},
		}).
		Add(MidVisible, registry.Entry{
			Decode: decodeVisible, Proto: visibleHeader, Name: midNames[MidVisible],
			Emitters: []emit.Emitter{{Fn: emitVisible}, detail},
		}).
		Add(MidGeodetic, registry.Entry{
			Length: geodeticProto.Len(), Proto: geodeticProto, Name: midNames[MidGeodetic],
			Emitters: []emit.Emitter{{Fn: emitGeodetic}, detail},
		}).
		Add(MidPPSTime, registry.Entry{
			Length: ppsTimeProto.Len(), Proto: ppsTimeProto, Name: midNames[MidPPSTime],
			Emitters: []emit.Emitter{{Fn: emitPPSTime}},
		}).
		Add(MidDevData, registry.Entry{
			Decode: decodeText, Name: midNames[MidDevData], Object: "devdata",
			Emitters: []emit.Emitter{{Fn: emitText}},
		}).
		Build()
}

var midNames = map[uint8]string{
	MidNavData:       "MID_NAVDATA",
	MidNavTrack:      "MID_NAVTRACK",
	MidSwVersion:     "MID_SWVER",
	MidClockStatus:   "MID_CLOCKSTATUS",
	MidCPUThroughput: "MID_CPU_THROUGHPUT",
	MidAck:           "MID_ACK",
	MidNack:          "MID_NACK",
	MidVisible:       "MID_VISIBLE",
	MidGeodetic:      "MID_GEODETIC",
	MidPPSTime:       "MID_PPS_TIME",
	MidDevData:       "MID_DEV_DATA",
}

// MidName returns the symbolic name of a message id, or "".
func MidName(mid uint8) string {
	return midNames[mid]
}

// ParseMid accepts a message id as a number or a name such as "MID_GEODETIC"
// or "geodetic".
func ParseMid(raw string) (uint8, error) {
	raw = strings.TrimSpace(raw)
	for mid, name := range midNames {
		if strings.EqualFold(name, raw) || strings.EqualFold(strings.TrimPrefix(name, "MID_"), raw) {
			return mid, nil
		}
	}
	v, err := strconv.ParseUint(raw, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("sirf: unknown message %q", raw)
	}
	return uint8(v), nil
}

func showMid(v layout.Value) string {
	if name := midNames[uint8(v.Uint)]; name != "" {
		return fmt.Sprintf("%s(%d)", name, v.Uint)
	}
	return fmt.Sprintf("%d", v.Uint)
}

func decodeNavTrack(e registry.Entry, buf []byte) (*layout.Aggregate, int, error) {
	agg, n, err := e.Proto.Decode(buf)
	if err != nil {
		return nil, n, err
	}
	chans := int(agg.Uint("chans"))
	for i := 0; i < chans; i++ {
		ch, m, err := navTrackChannel.Decode(buf[n:])
		if err != nil {
			return nil, n + m, fmt.Errorf("navtrack channel %d: %w", i, err)
		}
		n += m
		ch.SetDerived("avg_cno", "%.1f", layout.FloatValue(AverageCno(ch.Value("cno").Bytes)))
		agg.Append(ch)
		agg.Consume(m)
	}
	return agg, n, nil
}

// AverageCno is the mean of the per-channel C/N0 samples.
func AverageCno(cno []byte) float64 {
	if len(cno) == 0 {
		return 0
	}
	sum := 0
	for _, c := range cno {
		sum += int(c)
	}
	return float64(sum) / float64(len(cno))
}

func decodeVisible(e registry.Entry, buf []byte) (*layout.Aggregate, int, error) {
	agg, n, err := e.Proto.Decode(buf)
	if err != nil {
		return nil, n, err
	}
	count := int(agg.Uint("count"))
	for i := 0; i < count; i++ {
		sat, m, err := visibleSat.Decode(buf[n:])
		if err != nil {
			return nil, n + m, fmt.Errorf("visible sat %d: %w", i, err)
		}
		n += m
		agg.Append(sat)
		agg.Consume(m)
	}
	return agg, n, nil
}

func decodeText(e registry.Entry, buf []byte) (*layout.Aggregate, int, error) {
	s := layout.NewStruct(e.Object, layout.Text("text", len(buf)))
	msg, n, err := s.Decode(buf)
	if err != nil {
		return nil, n, err
	}
	if tail := msg.Value("text").Trailing(); tail != nil {
		msg.Note("sirf: %d bytes after text terminator", len(tail))
		msg.SetDerived("tail", "% x", layout.BytesValue(tail))
	}
	return msg, n, nil
}
