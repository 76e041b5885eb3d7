package ubx

import (
	"fmt"

	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/layout"
	"github.com/danmuck/tagtools/internal/registry"
)

const (
	ClassNav uint8 = 0x01
	ClassAck uint8 = 0x05
	ClassMon uint8 = 0x0a
)

var (
	KeyNavStatus  = Key(ClassNav, 0x03)
	KeyNavPVT     = Key(ClassNav, 0x07)
	KeyNavTimeGPS = Key(ClassNav, 0x20)
	KeyNavSat     = Key(ClassNav, 0x35)
	KeyAckNak     = Key(ClassAck, 0x00)
	KeyAckAck     = Key(ClassAck, 0x01)
	KeyMonVer     = Key(ClassMon, 0x04)
)

var keyNames = map[uint16]string{
	KeyNavStatus:  "NAV-STATUS",
	KeyNavPVT:     "NAV-PVT",
	KeyNavTimeGPS: "NAV-TIMEGPS",
	KeyNavSat:     "NAV-SAT",
	KeyAckNak:     "ACK-NAK",
	KeyAckAck:     "ACK-ACK",
	KeyMonVer:     "MON-VER",
}

// KeyName returns the message name for key, or its hex form.
func KeyName(key uint16) string {
	if name, ok := keyNames[key]; ok {
		return name
	}
	return fmt.Sprintf("0x%04x", key)
}

var le = layout.LE

func degrees(v layout.Value) string {
	return fmt.Sprintf("%.7f", v.AsFloat()*1e-7)
}

var (
	navStatusProto = layout.NewStruct("nav_status",
		le.U32("itow"),
		layout.U8("gps_fix"),
		layout.U8("flags").Fmt("%#04x"),
		layout.U8("fix_stat").Fmt("%#04x"),
		layout.U8("flags2").Fmt("%#04x"),
		le.U32("ttff"),
		le.U32("msss"),
	)

	navPVTProto = layout.NewStruct("nav_pvt",
		le.U32("itow"),
		le.U16("year"),
		layout.U8("month"),
		layout.U8("day"),
		layout.U8("hour"),
		layout.U8("min"),
		layout.U8("sec"),
		layout.U8("valid").Fmt("%#04x"),
		le.U32("t_acc"),
		le.I32("nano"),
		layout.U8("fix_type"),
		layout.U8("flags").Fmt("%#04x"),
		layout.U8("flags2").Fmt("%#04x"),
		layout.U8("num_sv"),
		le.I32("lon").Show(degrees),
		le.I32("lat").Show(degrees),
		le.I32("height"),
		le.I32("h_msl"),
		le.U32("h_acc"),
		le.U32("v_acc"),
		le.I32("vel_n"),
		le.I32("vel_e"),
		le.I32("vel_d"),
		le.I32("g_speed"),
		le.I32("head_mot"),
		le.U32("s_acc"),
		le.U32("head_acc"),
		le.U16("p_dop"),
		layout.U8("flags3").Fmt("%#04x"),
		layout.Bytes("reserved", 5),
		le.I32("head_veh"),
		le.I16("mag_dec"),
		le.U16("mag_acc"),
	)

	navTimeGPSProto = layout.NewStruct("nav_timegps",
		le.U32("itow"),
		le.I32("ftow"),
		le.I16("week"),
		layout.I8("leap_s"),
		layout.U8("valid").Fmt("%#04x"),
		le.U32("t_acc"),
	)

	navSatHeader = layout.NewStruct("nav_sat",
		le.U32("itow"),
		layout.U8("version"),
		layout.U8("num_svs"),
		le.U16("reserved"),
	)
	navSatElem = layout.NewStruct("sv",
		layout.U8("gnss_id"),
		layout.U8("sv_id"),
		layout.U8("cno"),
		layout.I8("elev"),
		le.I16("azim"),
		le.I16("pr_res"),
		le.U32("flags").Fmt("%#010x"),
	)

	ackProto = layout.NewStruct("ack",
		layout.U8("cls_id").Fmt("%#04x"),
		layout.U8("msg_id").Fmt("%#04x"),
	)

	monVerHeader = layout.NewStruct("mon_ver",
		layout.Text("sw_version", 30),
		layout.Text("hw_version", 10),
	)
	monVerExt = layout.NewStruct("ext", layout.Text("extension", 30))
)

// Table builds the class/id dispatch table.
func Table() *registry.Registry[uint16] {
	detail := emit.Emitter{Level: 1, Fn: emit.Fields}
	return registry.NewBuilder[uint16]("ubx").
		Add(KeyNavStatus, registry.Entry{
			Length: navStatusProto.Len(), Proto: navStatusProto, Name: keyNames[KeyNavStatus],
			Emitters: []emit.Emitter{{Fn: emitNavStatus}, detail},
		}).
		Add(KeyNavPVT, registry.Entry{
			Length: navPVTProto.Len(), Proto: navPVTProto, Name: keyNames[KeyNavPVT],
			Emitters: []emit.Emitter{{Fn: emitNavPVT}, detail},
		}).
		Add(KeyNavTimeGPS, registry.Entry{
			Length: navTimeGPSProto.Len(), Proto: navTimeGPSProto, Name: keyNames[KeyNavTimeGPS],
			Emitters: []emit.Emitter{{Fn: emitNavTimeGPS}, detail},
		}).
		Add(KeyNavSat, registry.Entry{
			Decode: decodeNavSat, Proto: navSatHeader, Name: keyNames[KeyNavSat],
			Emitters: []emit.Emitter{{Fn: emitNavSat}, {Level: 1, Fn: emitNavSatSvs}},
		}).
		Add(KeyAckNak, registry.Entry{
			Length: ackProto.Len(), Proto: ackProto, Name: keyNames[KeyAckNak],
			Emitters: []emit.Emitter{{Fn: emitAck}},
		}).
		Add(KeyAckAck, registry.Entry{
			Length: ackProto.Len(), Proto: ackProto, Name: keyNames[KeyAckAck],
			Emitters: []emit.Emitter{{Fn: emitAck}},
		}).
		Add(KeyMonVer, registry.Entry{
			Decode: decodeMonVer, Proto: monVerHeader, Name: keyNames[KeyMonVer],
			Emitters: []emit.Emitter{{Fn: emitMonVer}},
		}).
		Build()
}

// repeat decodes e.Proto followed by count elements of elem, or by as many
// whole elements as buf holds when count is negative.
func repeat(e registry.Entry, elem *layout.Struct, buf []byte, count func(*layout.Aggregate) int) (*layout.Aggregate, int, error) {
	agg, n, err := e.Proto.Decode(buf)
	if err != nil {
		return nil, n, err
	}
	want := count(agg)
	if want < 0 {
		want = (len(buf) - n) / elem.Len()
	}
	for i := 0; i < want; i++ {
		item, m, err := elem.Decode(buf[n:])
		if err != nil {
			return nil, n + m, fmt.Errorf("%s %s %d: %w", e.Name, elem.Name, i, err)
		}
		n += m
		agg.Append(item)
		agg.Consume(m)
	}
	return agg, n, nil
}

func decodeNavSat(e registry.Entry, buf []byte) (*layout.Aggregate, int, error) {
	return repeat(e, navSatElem, buf, func(a *layout.Aggregate) int { return int(a.Uint("num_svs")) })
}

func decodeMonVer(e registry.Entry, buf []byte) (*layout.Aggregate, int, error) {
	return repeat(e, monVerExt, buf, func(*layout.Aggregate) int { return -1 })
}
