package tagstream

import (
	"fmt"
	"io"

	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/layout"
	"github.com/danmuck/tagtools/internal/registry"
)

// decodeGPSRaw decodes the GPS_RAW header and redispatches the embedded
// packet on the chip byte. The nested packet is attached as "sirf" or "ubx".
// A nested framing problem is carried as an anomaly on the nested packet and
// never fails the record; the walker still advances by the record length.
func (n *Nested) decodeGPSRaw(e registry.Entry, buf []byte) (*layout.Aggregate, int, error) {
	agg, hn, err := e.Proto.Decode(buf)
	if err != nil {
		return nil, hn, err
	}
	body := buf[hn:]
	switch chip := uint8(agg.Uint("chip")); chip {
	case ChipSirf:
		pkt, m, err := n.Sirf.Decode(body)
		if err != nil {
			return nil, hn + m, fmt.Errorf("gps_raw: %w", err)
		}
		agg.Attach("sirf", pkt)
		agg.Consume(m)
		return agg, hn + m, nil
	case ChipUBX:
		pkt, m, err := n.UBX.Decode(body)
		if err != nil {
			return nil, hn + m, fmt.Errorf("gps_raw: %w", err)
		}
		agg.Attach("ubx", pkt)
		agg.Consume(m)
		return agg, hn + m, nil
	default:
		agg.Note("gps_raw: unknown chip %d, %d packet bytes not decoded", chip, len(body))
		return agg, hn, nil
	}
}

func (n *Nested) emitGPSRaw(w io.Writer, e emit.Emission) error {
	o := e.Obj
	if o == nil {
		return fmt.Errorf("gps_raw: nothing decoded")
	}
	if _, err := fmt.Fprintf(w, "    %s %s mark %d\n", fieldString(o, "chip"), fieldString(o, "dir"), o.Uint("mark")); err != nil {
		return err
	}
	for _, note := range o.Anomalies {
		if _, err := fmt.Fprintf(w, "    -- %s\n", note); err != nil {
			return err
		}
	}
	if pkt := o.Sub("sirf"); pkt != nil {
		if e.Level >= 1 {
			if err := emit.Text(w, "    ", headerOnly(pkt)); err != nil {
				return err
			}
		}
		return n.Sirf.Emit(w, e, pkt)
	}
	if pkt := o.Sub("ubx"); pkt != nil {
		if _, err := fmt.Fprintf(w, "    %s\n", pkt.Text("name")); err != nil {
			return err
		}
		return n.UBX.Emit(w, e, pkt)
	}
	return nil
}

// headerOnly copies the flat fields of a nested packet, leaving out the
// attached message.
func headerOnly(pkt *layout.Aggregate) *layout.Aggregate {
	out := layout.NewAggregate(pkt.Name)
	pkt.Each(func(name string, node layout.Node) {
		if _, ok := node.(*layout.Aggregate); !ok {
			out.Set(name, node)
		}
	})
	return out
}

// decodeSensorData decodes the sensor header, then the sensor payload keyed
// by sns_id, attached as "data". Unknown sensors are tallied by the nested
// decoder and noted here.
func (n *Nested) decodeSensorData(e registry.Entry, buf []byte) (*layout.Aggregate, int, error) {
	agg, hn, err := e.Proto.Decode(buf)
	if err != nil {
		return nil, hn, err
	}
	id := uint16(agg.Uint("sns_id"))
	agg.SetDerived("sensor", "%s", layout.TextValue(n.Sensor.Name(id)))
	obj, m, err := n.Sensor.Decode(id, buf[hn:])
	if err != nil {
		return nil, hn + m, err
	}
	if obj == nil {
		agg.Note("unrecognized id %d", id)
		return agg, hn, nil
	}
	agg.Attach("data", obj)
	agg.Consume(m)
	return agg, hn + m, nil
}

func (n *Nested) emitSensorData(w io.Writer, e emit.Emission) error {
	o := e.Obj
	if o == nil {
		return fmt.Errorf("sensor_data: nothing decoded")
	}
	if _, err := fmt.Fprintf(w, "    %s delta %d\n", o.Text("sensor"), o.Uint("sched_delta")); err != nil {
		return err
	}
	for _, note := range o.Anomalies {
		if _, err := fmt.Fprintf(w, "    -- %s\n", note); err != nil {
			return err
		}
	}
	return n.Sensor.Emit(w, e, uint16(o.Uint("sns_id")), o.Sub("data"))
}
