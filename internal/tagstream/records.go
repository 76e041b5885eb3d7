package tagstream

import (
	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/imageinfo"
	"github.com/danmuck/tagtools/internal/layout"
	"github.com/danmuck/tagtools/internal/registry"
	"github.com/danmuck/tagtools/internal/sensor"
	"github.com/danmuck/tagtools/internal/sirf"
	"github.com/danmuck/tagtools/internal/ubx"
)

var (
	rebootProto = layout.NewStruct("reboot",
		le.U32("majik").Fmt("%#010x"),
		le.U32("prev_sync"),
		le.U16("dt_rev"),
		le.U16("pad"),
		le.U32("boot_count"),
		le.U32("reset_status").Fmt("%#010x"),
		le.U32("reset_others").Fmt("%#010x"),
		le.U32("from_base").Fmt("%#010x"),
	)

	versionProto = layout.NewStruct("version", le.U32("base").Fmt("%#010x")).
		Nest("image_info", imageinfo.Basic)

	syncProto = layout.NewStruct("sync",
		le.U32("majik").Fmt("%#010x"),
		le.U32("prev_sync"),
	).Nest("datetime", RTCStruct)

	eventProto = layout.NewStruct("event",
		le.U16("ev").Show(showEvent),
		layout.U8("pcode"),
		layout.U8("w"),
		le.U32("arg0").Fmt("%#x"),
		le.U32("arg1").Fmt("%#x"),
		le.U32("arg2").Fmt("%#x"),
		le.U32("arg3").Fmt("%#x"),
	)

	gpsTimeProto = layout.NewStruct("gps_time",
		le.U32("mark"),
		le.U32("tow"),
		le.U16("week"),
		le.U16("utc_year"),
		layout.U8("utc_month"),
		layout.U8("utc_day"),
		layout.U8("utc_hour"),
		layout.U8("utc_min"),
		le.U16("utc_ms"),
		layout.U8("nsats"),
		layout.U8("pad"),
	)

	gpsGeoProto = layout.NewStruct("gps_geo",
		le.U32("mark"),
		le.U32("tow"),
		le.U16("week"),
		layout.U8("nsats"),
		layout.U8("mode"),
		le.I32("lat").Show(scaledDeg),
		le.I32("lon").Show(scaledDeg),
		le.I32("alt"),
		le.U32("ehpe"),
	)

	gpsXYZProto = layout.NewStruct("gps_xyz",
		le.U32("mark"),
		le.U32("tow"),
		le.U16("week"),
		le.I32("x"),
		le.I32("y"),
		le.I32("z"),
		layout.U8("nsats"),
		layout.U8("mode"),
	)

	noteHeader = layout.NewStruct("note",
		le.U16("note_len"),
		le.U16("year"),
		layout.U8("month"),
		layout.U8("day"),
		layout.U8("hour"),
		layout.U8("min"),
		layout.U8("sec"),
		layout.U8("pad"),
	)

	gpsRawHeader = layout.NewStruct("gps_raw",
		le.U32("mark"),
		layout.U8("chip").Show(showChip),
		layout.U8("dir").Show(showDir),
		le.U16("pad"),
	)

	sensorHeader = layout.NewStruct("sensor_data",
		le.U16("sns_id"),
		le.U16("pad"),
		le.U32("sched_delta"),
	)
)

// Nested holds the second-level decoders used by GPS_RAW and SENSOR_DATA
// records, with their unknown-id tallies.
type Nested struct {
	Sirf   *sirf.Decoder
	UBX    *ubx.Decoder
	Sensor *sensor.Decoder
}

func NewNested() *Nested {
	return &Nested{
		Sirf:   sirf.NewDecoder(),
		UBX:    ubx.NewDecoder(),
		Sensor: sensor.NewDecoder(),
	}
}

// Table builds the dtype dispatch table. Entry lengths are whole-record
// lengths, header included; 0 marks variable-length records.
func Table(n *Nested) *registry.Registry[uint16] {
	detail := emit.Emitter{Level: 1, Fn: emit.Fields}
	return registry.NewBuilder[uint16]("tagstream").
		Add(DtReboot, registry.Entry{
			Length: HeaderLen + rebootProto.Len(), Proto: rebootProto, Name: dtypeNames[DtReboot],
			Emitters: []emit.Emitter{{Fn: emitReboot}, detail},
		}).
		Add(DtVersion, registry.Entry{
			Length: HeaderLen + versionProto.Len(), Proto: versionProto, Name: dtypeNames[DtVersion],
			Decode: decodeVersion, Emitters: []emit.Emitter{{Fn: emitVersion}, detail},
		}).
		Add(DtSync, registry.Entry{
			Length: HeaderLen + syncProto.Len(), Proto: syncProto, Name: dtypeNames[DtSync],
			Emitters: []emit.Emitter{{Fn: emitSync}, detail},
		}).
		Add(DtEvent, registry.Entry{
			Length: HeaderLen + eventProto.Len(), Proto: eventProto, Name: dtypeNames[DtEvent],
			Emitters: []emit.Emitter{{Fn: emitEvent}},
		}).
		Add(DtDebug, registry.Entry{
			Decode: decodeText, Name: dtypeNames[DtDebug], Object: "debug",
			Emitters: []emit.Emitter{{Fn: emitText}},
		}).
		Add(DtGPSVersion, registry.Entry{
			Decode: decodeText, Name: dtypeNames[DtGPSVersion], Object: "gps_version",
			Emitters: []emit.Emitter{{Fn: emitText}},
		}).
		Add(DtGPSTime, registry.Entry{
			Length: HeaderLen + gpsTimeProto.Len(), Proto: gpsTimeProto, Name: dtypeNames[DtGPSTime],
			Emitters: []emit.Emitter{{Fn: emitGPSTime}, detail},
		}).
		Add(DtGPSGeo, registry.Entry{
			Length: HeaderLen + gpsGeoProto.Len(), Proto: gpsGeoProto, Name: dtypeNames[DtGPSGeo],
			Emitters: []emit.Emitter{{Fn: emitGPSGeo}, detail},
		}).
		Add(DtGPSXYZ, registry.Entry{
			Length: HeaderLen + gpsXYZProto.Len(), Proto: gpsXYZProto, Name: dtypeNames[DtGPSXYZ],
			Emitters: []emit.Emitter{{Fn: emitGPSXYZ}, detail},
		}).
		Add(DtSensorData, registry.Entry{
			Proto: sensorHeader, Name: dtypeNames[DtSensorData],
			Decode: n.decodeSensorData, Emitters: []emit.Emitter{{Fn: n.emitSensorData}},
		}).
		Add(DtTest, registry.Entry{
			Decode: decodeRaw, Name: dtypeNames[DtTest], Object: "test",
			Emitters: []emit.Emitter{{Fn: emitRaw}},
		}).
		Add(DtNote, registry.Entry{
			Proto: noteHeader, Name: dtypeNames[DtNote],
			Decode: decodeNote, Emitters: []emit.Emitter{{Fn: emitNote}},
		}).
		Add(DtConfig, registry.Entry{
			Decode: decodeRaw, Name: dtypeNames[DtConfig], Object: "config",
			Emitters: []emit.Emitter{{Fn: emitRaw}},
		}).
		Add(DtGPSRaw, registry.Entry{
			Proto: gpsRawHeader, Name: dtypeNames[DtGPSRaw],
			Decode: n.decodeGPSRaw, Emitters: []emit.Emitter{{Fn: n.emitGPSRaw}},
		}).
		Build()
}

func decodeVersion(e registry.Entry, buf []byte) (*layout.Aggregate, int, error) {
	agg, n, err := e.Proto.Decode(buf)
	if err != nil {
		return nil, n, err
	}
	if info := agg.Sub("image_info"); info != nil {
		agg.SetDerived("version", "%s", layout.TextValue(imageinfo.FormatVersion(info)))
	}
	return agg, n, nil
}

func decodeText(e registry.Entry, buf []byte) (*layout.Aggregate, int, error) {
	agg, n, err := layout.NewStruct(e.Object, layout.Text("text", len(buf))).Decode(buf)
	if err != nil {
		return nil, n, err
	}
	keepTail(agg, agg.Value("text"))
	return agg, n, nil
}

// keepTail records bytes found after a text terminator so nothing in the
// payload is lost.
func keepTail(agg *layout.Aggregate, v layout.Value) {
	if tail := v.Trailing(); tail != nil {
		agg.Note("text: %d bytes after terminator", len(tail))
		agg.SetDerived("tail", "% x", layout.BytesValue(tail))
	}
}

func decodeRaw(e registry.Entry, buf []byte) (*layout.Aggregate, int, error) {
	return layout.NewStruct(e.Object, layout.Bytes("data", len(buf))).Decode(buf)
}

func decodeNote(e registry.Entry, buf []byte) (*layout.Aggregate, int, error) {
	agg, n, err := e.Proto.Decode(buf)
	if err != nil {
		return nil, n, err
	}
	rest := buf[n:]
	if want := int(agg.Uint("note_len")); want < len(rest) {
		rest = rest[:want]
	} else if want > len(rest) {
		agg.Note("note: note_len %d, %d bytes present", want, len(rest))
	}
	text, err := layout.Text("text", len(rest)).Decode(rest)
	if err != nil {
		return nil, n, err
	}
	agg.SetDerived("text", "%q", text)
	keepTail(agg, text)
	agg.Consume(len(rest))
	return agg, n + len(rest), nil
}
