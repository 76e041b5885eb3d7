package tagstream

import (
	"fmt"
	"strings"
	"time"
)

// Filter selects which records reach the emitters. The zero Filter accepts
// everything. Filtering never changes how the cursor moves.
type Filter struct {
	Types map[uint16]bool
	From  time.Time
	To    time.Time
}

// Match reports whether r passes the filter. Records without a decoded
// header always pass so failures stay visible.
func (f Filter) Match(r Result) bool {
	if r.Head == nil {
		return true
	}
	if len(f.Types) > 0 && !f.Types[r.Header.Dtype] {
		return false
	}
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	t := r.Header.RT.Time()
	if !f.From.IsZero() && t.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.After(f.To) {
		return false
	}
	return true
}

// ParseTypes reads record types given as codes or names, each entry
// possibly a comma separated list.
func ParseTypes(entries []string) (map[uint16]bool, error) {
	out := make(map[uint16]bool)
	for _, entry := range entries {
		for _, raw := range strings.Split(entry, ",") {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			dt, err := ParseDtype(raw)
			if err != nil {
				return nil, err
			}
			out[dt] = true
		}
	}
	return out, nil
}

// ParseTime accepts RFC 3339 or "2006-01-02 15:04:05", taken as UTC.
func ParseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateTime, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("tagstream: bad time %q: want RFC 3339", raw)
	}
	return t, nil
}

// SectorRange converts a sector window to byte offsets. end 0 leaves the
// window open.
func SectorRange(start, end int) (int, int, error) {
	if start < 0 || end < 0 {
		return 0, 0, fmt.Errorf("tagstream: negative sector")
	}
	if end != 0 && end < start {
		return 0, 0, fmt.Errorf("tagstream: end sector %d before start sector %d", end, start)
	}
	if end == 0 {
		return start * SectorSize, 0, nil
	}
	return start * SectorSize, (end + 1) * SectorSize, nil
}
