package tagstream

import (
	"fmt"
	"io"

	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/layout"
)

func scaledDeg(v layout.Value) string {
	return fmt.Sprintf("%.7f", float64(v.AsInt())/1e7)
}

func fieldString(a *layout.Aggregate, name string) string {
	f, ok := a.Field(name)
	if !ok {
		return "?"
	}
	return f.String()
}

func need(e emit.Emission, names ...string) error {
	if e.Obj == nil {
		return fmt.Errorf("tagstream: nothing decoded")
	}
	for _, name := range names {
		if _, ok := e.Obj.Get(name); !ok {
			return fmt.Errorf("tagstream: %s missing %q", e.Obj.Name, name)
		}
	}
	return nil
}

// SummaryLine is the per-record line printed before any emitter runs.
func SummaryLine(w io.Writer, off int, h Header, name string) error {
	if name == "" {
		name = fmt.Sprintf("dt_%d", h.Dtype)
	}
	_, err := fmt.Fprintf(w, "%08x %8d  %s  %-12s %4d\n", off, h.RecNum, h.RT, name, h.Len)
	return err
}

func emitReboot(w io.Writer, e emit.Emission) error {
	if err := need(e, "boot_count", "from_base"); err != nil {
		return err
	}
	o := e.Obj
	_, err := fmt.Fprintf(w, "    boot %d  from %s  prev_sync %d  reset %s\n",
		o.Uint("boot_count"), fieldString(o, "from_base"), o.Uint("prev_sync"), fieldString(o, "reset_status"))
	return err
}

func emitVersion(w io.Writer, e emit.Emission) error {
	if err := need(e, "base", "image_info"); err != nil {
		return err
	}
	info := e.Obj.Sub("image_info")
	_, err := fmt.Fprintf(w, "    version %s  base %s  hw %d/%d\n",
		e.Obj.Text("version"), fieldString(e.Obj, "base"), info.Uint("hw_model"), info.Uint("hw_rev"))
	return err
}

func emitSync(w io.Writer, e emit.Emission) error {
	if err := need(e, "majik", "prev_sync", "datetime"); err != nil {
		return err
	}
	o := e.Obj
	_, err := fmt.Fprintf(w, "    prev_sync %d  %s\n", o.Uint("prev_sync"), RTCFrom(o.Sub("datetime")))
	return err
}

func emitEvent(w io.Writer, e emit.Emission) error {
	if err := need(e, "ev", "arg0"); err != nil {
		return err
	}
	o := e.Obj
	_, err := fmt.Fprintf(w, "    %-14s %s %s %s %s  pcode %d w %d\n",
		fieldString(o, "ev"), fieldString(o, "arg0"), fieldString(o, "arg1"),
		fieldString(o, "arg2"), fieldString(o, "arg3"), o.Uint("pcode"), o.Uint("w"))
	return err
}

func emitGPSTime(w io.Writer, e emit.Emission) error {
	if err := need(e, "utc_year", "nsats"); err != nil {
		return err
	}
	o := e.Obj
	_, err := fmt.Fprintf(w, "    %04d/%02d/%02d %02d:%02d %05.3f  week %d tow %d nsats %d\n",
		o.Uint("utc_year"), o.Uint("utc_month"), o.Uint("utc_day"), o.Uint("utc_hour"), o.Uint("utc_min"),
		float64(o.Uint("utc_ms"))/1000, o.Uint("week"), o.Uint("tow"), o.Uint("nsats"))
	return err
}

func emitGPSGeo(w io.Writer, e emit.Emission) error {
	if err := need(e, "lat", "lon", "nsats"); err != nil {
		return err
	}
	o := e.Obj
	_, err := fmt.Fprintf(w, "    lat %s lon %s alt %d  nsats %d mode %d ehpe %d\n",
		fieldString(o, "lat"), fieldString(o, "lon"), o.Int("alt"), o.Uint("nsats"), o.Uint("mode"), o.Uint("ehpe"))
	return err
}

func emitGPSXYZ(w io.Writer, e emit.Emission) error {
	if err := need(e, "x", "y", "z"); err != nil {
		return err
	}
	o := e.Obj
	_, err := fmt.Fprintf(w, "    xyz %d %d %d  nsats %d mode %d\n",
		o.Int("x"), o.Int("y"), o.Int("z"), o.Uint("nsats"), o.Uint("mode"))
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

func emitNote(w io.Writer, e emit.Emission) error {
	if err := need(e, "year", "text"); err != nil {
		return err
	}
	o := e.Obj
	if _, err := fmt.Fprintf(w, "    %04d/%02d/%02d %02d:%02d:%02d %q\n",
		o.Uint("year"), o.Uint("month"), o.Uint("day"), o.Uint("hour"), o.Uint("min"), o.Uint("sec"),
		o.Text("text")); err != nil {
		return err
	}
	for _, note := range o.Anomalies {
		if _, err := fmt.Fprintf(w, "    -- %s\n", note); err != nil {
			return err
		}
	}
	return nil
}

func emitRaw(w io.Writer, e emit.Emission) error {
	if err := need(e, "data"); err != nil {
		return err
	}
	data := e.Obj.Value("data").Bytes
	if _, err := fmt.Fprintf(w, "    %d bytes\n", len(data)); err != nil {
		return err
	}
	if e.Level < 1 {
		return nil
	}
	return emit.Hex(w, e.Offset+HeaderLen, data, e.HexWidth)
}
