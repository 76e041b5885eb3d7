package tagstream

import (
	"fmt"
	"io"

	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/registry"
	"github.com/rs/zerolog/log"
)

// fatalDumpLen caps the hex shown for a header the walker cannot get past.
const fatalDumpLen = 64

// Render is the output setting for Emit.
type Render struct {
	Level    int
	Format   emit.Format
	HexWidth int
}

// Emit prints one record: the summary line, then the entry's emitters
// enabled at the render level. Records that failed to decode, unknown types
// and emitter failures fall back to a hex dump; the record's own output ends
// there and the caller moves on. From level 2 every record is also dumped
// in hex.
func Emit(w io.Writer, r Result, rc Render) error {
	if err := SummaryLine(w, r.Offset, r.Header, r.Name()); err != nil {
		return err
	}
	e := emit.Emission{
		Level:    rc.Level,
		Offset:   r.Offset,
		Raw:      r.Raw,
		Head:     r.Head,
		Obj:      r.Obj,
		Format:   rc.Format,
		HexWidth: rc.HexWidth,
	}
	if r.Fatal && len(e.Raw) > fatalDumpLen {
		e.Raw = e.Raw[:fatalDumpLen]
	}
	switch {
	case r.Err != nil:
		return emit.Fallback(w, e, r.Err)
	case !r.Known:
		return emit.Fallback(w, e, fmt.Errorf("unrecognized id %d", r.Header.Dtype))
	}
	for _, note := range r.Anomalies {
		if _, err := fmt.Fprintf(w, "    !! %s\n", note); err != nil {
			return err
		}
	}
	if err := emit.Run(w, r.Entry.Emitters, e); err != nil {
		log.Debug().Err(err).Int("offset", r.Offset).Str("dtype", r.Name()).Msg("tagstream: emitter failed")
		return emit.Fallback(w, e, err)
	}
	if rc.Level >= 2 {
		return emit.Hex(w, r.Offset, r.Raw, rc.HexWidth)
	}
	return nil
}

// WriteSummary prints the walk totals and every unknown-id tally that saw
// something.
func WriteSummary(w io.Writer, sum Summary, wk *Walker) error {
	if _, err := fmt.Fprintf(w, "records %d  emitted %d  bytes %d  skipped %d  trailing %d\n",
		sum.Records, sum.Emitted, sum.Bytes, sum.Skipped, sum.Trailing); err != nil {
		return err
	}
	if sum.Stopped != nil {
		if _, err := fmt.Fprintf(w, "  stopped: %v\n", sum.Stopped); err != nil {
			return err
		}
	}
	for s := StatusOK; s <= StatusTruncated; s++ {
		if n := sum.ByStatus[s]; n > 0 {
			if _, err := fmt.Fprintf(w, "  %-10s %d\n", s, n); err != nil {
				return err
			}
		}
	}
	if err := writeTally(w, "record types", wk.Unknown, func(c uint16) string { return fmt.Sprintf("%d", c) }); err != nil {
		return err
	}
	if wk.Nested == nil {
		return nil
	}
	if err := writeTally(w, "sirf mids", wk.Nested.Sirf.Unknown, func(c uint8) string { return fmt.Sprintf("%d", c) }); err != nil {
		return err
	}
	if err := writeTally(w, "ubx ids", wk.Nested.UBX.Unknown, func(c uint16) string { return fmt.Sprintf("0x%04x", c) }); err != nil {
		return err
	}
	return writeTally(w, "sensor ids", wk.Nested.Sensor.Unknown, func(c uint16) string { return fmt.Sprintf("%d", c) })
}

func writeTally[K uint8 | uint16](w io.Writer, label string, t *registry.Tally[K], show func(K) string) error {
	report := t.Report()
	if len(report) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "  unrecognized %s:", label); err != nil {
		return err
	}
	for _, c := range report {
		if _, err := fmt.Fprintf(w, " %s(%d)", show(c.Code), c.Count); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
