package ubx

import (
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/layout"
)

// Emit renders a decoded packet through the emitters of its class/id entry,
// after any anomalies recorded while framing it.
func (d *Decoder) Emit(w io.Writer, e emit.Emission, pkt *layout.Aggregate) error {
	for _, note := range pkt.Anomalies {
		if _, err := fmt.Fprintf(w, "    -- %s\n", note); err != nil {
			return err
		}
	}
	msg := pkt.Sub("msg")
	if msg == nil {
		return nil
	}
	key, _ := PacketKey(pkt)
	entry, ok := d.Table.Lookup(key)
	if !ok {
		return nil
	}
	e.Obj = msg
	return emit.Run(w, entry.Emitters, e)
}

func need(e emit.Emission, names ...string) error {
	if e.Obj == nil {
		return fmt.Errorf("ubx: nothing decoded")
	}
	for _, name := range names {
		if _, ok := e.Obj.Field(name); !ok {
			return fmt.Errorf("ubx: %s missing field %q", e.Obj.Name, name)
		}
	}
	return nil
}

func field(a *layout.Aggregate, name string) string {
	f, ok := a.Field(name)
	if !ok {
		return "?"
	}
	return f.String()
}

var fixTypes = map[uint64]string{
	0: "no-fix", 1: "dr", 2: "2d", 3: "3d", 4: "gnss+dr", 5: "time",
}

func fixName(v uint64) string {
	if name, ok := fixTypes[v]; ok {
		return name
	}
	return fmt.Sprintf("fix(%d)", v)
}

func emitNavStatus(w io.Writer, e emit.Emission) error {
	if err := need(e, "itow", "gps_fix", "ttff"); err != nil {
		return err
	}
	o := e.Obj
	_, err := fmt.Fprintf(w, "    itow %d fix %s flags %s ttff %d msss %d\n",
		o.Uint("itow"), fixName(o.Uint("gps_fix")), field(o, "flags"), o.Uint("ttff"), o.Uint("msss"))
	return err
}

func emitNavPVT(w io.Writer, e emit.Emission) error {
	if err := need(e, "year", "fix_type", "lat", "lon", "num_sv"); err != nil {
		return err
	}
	o := e.Obj
	_, err := fmt.Fprintf(w, "    %04d/%02d/%02d %02d:%02d:%02d  %s  lat %s lon %s msl %dmm  nsv %d\n",
		o.Uint("year"), o.Uint("month"), o.Uint("day"), o.Uint("hour"), o.Uint("min"), o.Uint("sec"),
		fixName(o.Uint("fix_type")), field(o, "lat"), field(o, "lon"), o.Int("h_msl"), o.Uint("num_sv"))
	return err
}

func emitNavTimeGPS(w io.Writer, e emit.Emission) error {
	if err := need(e, "itow", "week", "leap_s"); err != nil {
		return err
	}
	o := e.Obj
	_, err := fmt.Fprintf(w, "    week %d itow %d leap %d valid %s\n",
		o.Int("week"), o.Uint("itow"), o.Int("leap_s"), field(o, "valid"))
	return err
}

func emitNavSat(w io.Writer, e emit.Emission) error {
	if err := need(e, "num_svs"); err != nil {
		return err
	}
	svs := make([]string, 0, len(e.Obj.Items))
	for _, sv := range e.Obj.Items {
		svs = append(svs, fmt.Sprintf("%d:%d/%d", sv.Uint("gnss_id"), sv.Uint("sv_id"), sv.Uint("cno")))
	}
	_, err := fmt.Fprintf(w, "    itow %d svs %d  %s\n", e.Obj.Uint("itow"), e.Obj.Uint("num_svs"), strings.Join(svs, " "))
	return err
}

func emitNavSatSvs(w io.Writer, e emit.Emission) error {
	if err := need(e, "num_svs"); err != nil {
		return err
	}
	if e.Format == emit.FormatYAML {
		return emit.YAML(w, e.Obj)
	}
	for i, sv := range e.Obj.Items {
		if _, err := fmt.Fprintf(w, "    %2d: gnss %d sv %3d cno %2d elev %3d azim %4d flags %s\n",
			i, sv.Uint("gnss_id"), sv.Uint("sv_id"), sv.Uint("cno"), sv.Int("elev"), sv.Int("azim"),
			field(sv, "flags")); err != nil {
			return err
		}
	}
	return nil
}

func emitAck(w io.Writer, e emit.Emission) error {
	if err := need(e, "cls_id", "msg_id"); err != nil {
		return err
	}
	key := Key(uint8(e.Obj.Uint("cls_id")), uint8(e.Obj.Uint("msg_id")))
	_, err := fmt.Fprintf(w, "    for %s\n", KeyName(key))
	return err
}

func emitMonVer(w io.Writer, e emit.Emission) error {
	if err := need(e, "sw_version", "hw_version"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "    sw %q hw %q\n", e.Obj.Text("sw_version"), e.Obj.Text("hw_version")); err != nil {
		return err
	}
	if e.Level < 1 {
		return nil
	}
	for _, ext := range e.Obj.Items {
		if _, err := fmt.Fprintf(w, "      %s\n", ext.Text("extension")); err != nil {
			return err
		}
	}
	return nil
}
