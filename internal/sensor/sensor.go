// Package sensor decodes the payloads carried by SENSOR_DATA records. The
// sensor id comes from the enclosing record; payloads are little-endian.
package sensor

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/layout"
	"github.com/danmuck/tagtools/internal/observability"
	"github.com/danmuck/tagtools/internal/registry"
	"github.com/rs/zerolog/log"
)

const (
	Batt   uint16 = 1
	TempPX uint16 = 2
	Sal    uint16 = 3
	Accel  uint16 = 4
	Gyro   uint16 = 5
	Mag    uint16 = 6
	PTemp  uint16 = 7
	Press  uint16 = 8
	Speed  uint16 = 9
)

var le = layout.LE

func centi(v layout.Value) string {
	return fmt.Sprintf("%.2f", float64(v.AsInt())/100)
}

var (
	battProto  = layout.NewStruct("batt", le.U16("mv"))
	tempProto  = layout.NewStruct("temp", le.I16("centi_c").Show(centi))
	salProto   = layout.NewStruct("sal", le.U16("sal1"), le.U16("sal2"))
	pressProto = layout.NewStruct("press", le.U32("pa"))
	speedProto = layout.NewStruct("speed", le.U16("speed1"), le.U16("speed2"))

	sample = layout.NewStruct("xyz", le.I16("x"), le.I16("y"), le.I16("z"))
)

// Table builds the sensor-id dispatch table.
func Table() *registry.Registry[uint16] {
	detail := emit.Emitter{Level: 1, Fn: emit.Fields}
	scalar := []emit.Emitter{{Fn: emitScalar}, detail}
	samples := []emit.Emitter{{Fn: emitSamples}, {Level: 1, Fn: emitSampleRows}}
	return registry.NewBuilder[uint16]("sensor").
		Add(Batt, registry.Entry{Length: battProto.Len(), Proto: battProto, Name: "BATT", Emitters: scalar}).
		Add(TempPX, registry.Entry{Length: tempProto.Len(), Proto: tempProto, Name: "TEMP_PX", Emitters: scalar}).
		Add(Sal, registry.Entry{Length: salProto.Len(), Proto: salProto, Name: "SAL", Emitters: scalar}).
		Add(Accel, registry.Entry{Decode: decodeSamples, Name: "ACCEL_N8S", Object: "accel", Emitters: samples}).
		Add(Gyro, registry.Entry{Decode: decodeSamples, Name: "GYRO_N", Object: "gyro", Emitters: samples}).
		Add(Mag, registry.Entry{Decode: decodeSamples, Name: "MAG_N", Object: "mag", Emitters: samples}).
		Add(PTemp, registry.Entry{Length: tempProto.Len(), Proto: tempProto, Name: "PTEMP", Emitters: scalar}).
		Add(Press, registry.Entry{Length: pressProto.Len(), Proto: pressProto, Name: "PRESS", Emitters: scalar}).
		Add(Speed, registry.Entry{Length: speedProto.Len(), Proto: speedProto, Name: "SPEED", Emitters: scalar}).
		Build()
}

// decodeSamples reads whole xyz triples until the payload runs out. A
// trailing partial sample is left unconsumed.
func decodeSamples(e registry.Entry, buf []byte) (*layout.Aggregate, int, error) {
	agg := layout.NewAggregate(e.Object)
	n := 0
	for len(buf)-n >= sample.Len() {
		s, m, err := sample.Decode(buf[n:])
		if err != nil {
			return nil, n, err
		}
		agg.Append(s)
		agg.Consume(m)
		n += m
	}
	agg.SetDerived("count", "%d", layout.UintValue(uint64(len(agg.Items))))
	if rest := len(buf) - n; rest > 0 {
		agg.Note("sensor: %d trailing bytes after %d samples", rest, len(agg.Items))
	}
	return agg, n, nil
}

// Decoder dispatches sensor payloads on the sensor id. It is not safe for
// concurrent use because of the tally.
type Decoder struct {
	Table   *registry.Registry[uint16]
	Unknown *registry.Tally[uint16]
}

func NewDecoder() *Decoder {
	return &Decoder{Table: Table(), Unknown: registry.NewTally[uint16]()}
}

// Decode decodes the payload of sensor id. An unregistered id is tallied and
// yields a nil aggregate with no error; the caller renders the raw bytes.
func (d *Decoder) Decode(id uint16, buf []byte) (*layout.Aggregate, int, error) {
	entry, ok := d.Table.Lookup(id)
	if !ok {
		if d.Unknown == nil {
			d.Unknown = registry.NewTally[uint16]()
		}
		count := d.Unknown.Note(id)
		observability.RecordUnknown("sensor", strconv.Itoa(int(id)))
		log.Debug().Uint16("sns_id", id).Int("seen", count).Msg("sensor: unrecognized id")
		return nil, 0, nil
	}
	obj, n, err := entry.Run(buf)
	if err != nil {
		return nil, n, fmt.Errorf("sensor %s: %w", entry.Name, err)
	}
	return obj, n, nil
}

// Name returns the sensor's display name, or its id in decimal.
func (d *Decoder) Name(id uint16) string {
	if name := d.Table.NameOf(id); name != "" {
		return name
	}
	return strconv.Itoa(int(id))
}

// Emit renders obj through the emitters registered for id.
func (d *Decoder) Emit(w io.Writer, e emit.Emission, id uint16, obj *layout.Aggregate) error {
	entry, ok := d.Table.Lookup(id)
	if !ok || obj == nil {
		return nil
	}
	e.Obj = obj
	return emit.Run(w, entry.Emitters, e)
}

func emitScalar(w io.Writer, e emit.Emission) error {
	if e.Obj == nil {
		return fmt.Errorf("sensor: nothing decoded")
	}
	var parts []string
	e.Obj.Each(func(name string, n layout.Node) {
		parts = append(parts, name+" "+n.String())
	})
	_, err := fmt.Fprintf(w, "    %s %s\n", e.Obj.Name, strings.Join(parts, " "))
	return err
}

func emitSamples(w io.Writer, e emit.Emission) error {
	if e.Obj == nil {
		return fmt.Errorf("sensor: nothing decoded")
	}
	if len(e.Obj.Items) == 0 {
		_, err := fmt.Fprintf(w, "    %s no samples\n", e.Obj.Name)
		return err
	}
	first := e.Obj.Items[0]
	_, err := fmt.Fprintf(w, "    %s %d samples, first (%d, %d, %d)\n", e.Obj.Name, len(e.Obj.Items),
		first.Int("x"), first.Int("y"), first.Int("z"))
	return err
}

func emitSampleRows(w io.Writer, e emit.Emission) error {
	if e.Obj == nil {
		return fmt.Errorf("sensor: nothing decoded")
	}
	if e.Format == emit.FormatYAML {
		return emit.YAML(w, e.Obj)
	}
	for i, s := range e.Obj.Items {
		if _, err := fmt.Fprintf(w, "    %3d: %6d %6d %6d\n", i, s.Int("x"), s.Int("y"), s.Int("z")); err != nil {
			return err
		}
	}
	return nil
}
