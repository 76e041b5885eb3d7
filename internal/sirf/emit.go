package sirf

import (
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/layout"
)

// Emit renders a decoded packet through the emitters of its message entry.
// Packets without a decoded message print their anomalies instead.
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
	mid, _ := Mid(pkt)
	entry, ok := d.Table.Lookup(mid)
	if !ok {
		return nil
	}
	e.Obj = msg
	return emit.Run(w, entry.Emitters, e)
}

func need(e emit.Emission, names ...string) error {
	if e.Obj == nil {
		return fmt.Errorf("sirf: nothing decoded")
	}
	for _, name := range names {
		if _, ok := e.Obj.Field(name); !ok {
			return fmt.Errorf("sirf: %s missing field %q", e.Obj.Name, name)
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

func emitNavData(w io.Writer, e emit.Emission) error {
	if err := need(e, "x", "y", "z", "nsats"); err != nil {
		return err
	}
	o := e.Obj
	_, err := fmt.Fprintf(w, "    xyz %d %d %d  nsats %d  week %d tow %s\n",
		o.Int("x"), o.Int("y"), o.Int("z"), o.Uint("nsats"), o.Uint("week"), field(o, "tow"))
	return err
}

func emitNavTrack(w io.Writer, e emit.Emission) error {
	if err := need(e, "week", "tow", "chans"); err != nil {
		return err
	}
	o := e.Obj
	var sats []string
	for _, ch := range o.Items {
		if ch.Uint("svid") == 0 {
			continue
		}
		sats = append(sats, fmt.Sprintf("%d/%s", ch.Uint("svid"), field(ch, "avg_cno")))
	}
	_, err := fmt.Fprintf(w, "    week %d tow %s chans %d  %s\n",
		o.Uint("week"), field(o, "tow"), o.Uint("chans"), strings.Join(sats, " "))
	return err
}

func emitNavTrackChannels(w io.Writer, e emit.Emission) error {
	if err := need(e, "chans"); err != nil {
		return err
	}
	if e.Format == emit.FormatYAML {
		return emit.YAML(w, e.Obj)
	}
	for i, ch := range e.Obj.Items {
		if _, err := fmt.Fprintf(w, "    %2d: sv %3d az %6s el %5s state %s cno %s avg %s\n",
			i, ch.Uint("svid"), field(ch, "az"), field(ch, "el"), field(ch, "state"),
			field(ch, "cno"), field(ch, "avg_cno")); err != nil {
			return err
		}
	}
	return nil
}

func emitVisible(w io.Writer, e emit.Emission) error {
	if err := need(e, "count"); err != nil {
		return err
	}
	svs := make([]string, 0, len(e.Obj.Items))
	for _, sat := range e.Obj.Items {
		svs = append(svs, fmt.Sprintf("%d", sat.Uint("svid")))
	}
	_, err := fmt.Fprintf(w, "    visible %d: %s\n", e.Obj.Uint("count"), strings.Join(svs, " "))
	return err
}

func emitGeodetic(w io.Writer, e emit.Emission) error {
	if err := need(e, "lat", "lon", "alt_msl", "nsats"); err != nil {
		return err
	}
	o := e.Obj
	_, err := fmt.Fprintf(w, "    %04d/%02d/%02d %02d:%02d  lat %s lon %s alt %s  nsats %d valid %s\n",
		o.Uint("utc_year"), o.Uint("utc_month"), o.Uint("utc_day"), o.Uint("utc_hour"), o.Uint("utc_min"),
		field(o, "lat"), field(o, "lon"), field(o, "alt_msl"), o.Uint("nsats"), field(o, "nav_valid"))
	return err
}

func emitPPSTime(w io.Writer, e emit.Emission) error {
	if err := need(e, "year", "status"); err != nil {
		return err
	}
	o := e.Obj
	_, err := fmt.Fprintf(w, "    %04d/%02d/%02d %02d:%02d:%02d  utc offset %d status %s\n",
		o.Uint("year"), o.Uint("month"), o.Uint("day"), o.Uint("hour"), o.Uint("min"), o.Uint("sec"),
		o.Int("utc_off_int"), field(o, "status"))
	return err
}

func emitAck(w io.Writer, e emit.Emission) error {
	if e.Obj == nil {
		return fmt.Errorf("sirf: nothing decoded")
	}
	names := e.Obj.Names()
	if len(names) != 1 {
		return fmt.Errorf("sirf: %s has %d fields", e.Obj.Name, len(names))
	}
	_, err := fmt.Fprintf(w, "    %s %s\n", e.Obj.Name, showMid(e.Obj.Value(names[0])))
	return err
}

func emitText(w io.Writer, e emit.Emission) error {
	if err := need(e, "text"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "    %q\n", e.Obj.Text("text")); err != nil {
		return err
	}
	for _, note := range e.Obj.Anomalies {
		if _, err := fmt.Fprintf(w, "    -- %s\n", note); err != nil {
			return err
		}
	}
	return nil
}
