package tagstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/danmuck/tagtools/internal/layout"
	"github.com/danmuck/tagtools/internal/observability"
	"github.com/danmuck/tagtools/internal/registry"
	"github.com/rs/zerolog/log"
)

var (
	ErrBadLength = errors.New("tagstream: record length out of range")
	ErrNoSync    = errors.New("tagstream: no sync record found")
)

// Status classifies the outcome of one record.
type Status int

const (
	StatusOK Status = iota
	StatusUnknown
	StatusPartial
	StatusMalformed
	StatusTruncated
)

var statusNames = [...]string{"ok", "unknown", "partial", "malformed", "truncated"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// RecordError locates a failure in the stream.
type RecordError struct {
	Offset int
	Dtype  uint16
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record at %#x (dtype %d): %v", e.Offset, e.Dtype, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Result is the outcome of decoding one record. Raw spans the whole record
// when its length is usable, else whatever bytes remain. Fatal marks a
// header the walker cannot advance past.
type Result struct {
	Offset    int
	Header    Header
	Head      *layout.Aggregate
	Raw       []byte
	Entry     registry.Entry
	Known     bool
	Obj       *layout.Aggregate
	Consumed  int
	Status    Status
	Err       error
	Anomalies []string
	Fatal     bool
}

// Name is the record type name, or dt_<n> for unknown types.
func (r Result) Name() string {
	if r.Known {
		return r.Entry.Name
	}
	return fmt.Sprintf("dt_%d", r.Header.Dtype)
}

// Walker decodes records through an injected dtype registry. Nested holds
// the second-level decoders referenced by that registry.
type Walker struct {
	Table   *registry.Registry[uint16]
	Nested  *Nested
	Unknown *registry.Tally[uint16]
}

// NewWalker builds a walker over the standard record table.
func NewWalker() *Walker {
	n := NewNested()
	return NewWalkerWith(Table(n), n)
}

// NewWalkerWith builds a walker over a caller-supplied table.
func NewWalkerWith(table *registry.Registry[uint16], nested *Nested) *Walker {
	return &Walker{Table: table, Nested: nested, Unknown: registry.NewTally[uint16]()}
}

// Decode decodes the record starting at buf[off]. It never panics on bad
// input; failures are reported through the Result.
func (w *Walker) Decode(buf []byte, off int) Result {
	r := Result{Offset: off, Raw: buf[off:]}
	h, head, err := ParseHeader(buf[off:])
	if err != nil {
		r.Status, r.Fatal = StatusTruncated, true
		r.Err = &RecordError{Offset: off, Err: err}
		return r
	}
	r.Header, r.Head = h, head
	remaining := len(buf) - off
	if int(h.Len) < HeaderLen || int(h.Len) > remaining {
		r.Status, r.Fatal = StatusMalformed, true
		if int(h.Len) > remaining {
			r.Status = StatusTruncated
		}
		r.Err = &RecordError{Offset: off, Dtype: h.Dtype,
			Err: fmt.Errorf("%w: len %d, %d bytes remain", ErrBadLength, h.Len, remaining)}
		return r
	}
	r.Raw = buf[off : off+int(h.Len)]
	r.Consumed = HeaderLen
	defer func() {
		observability.RecordDecode("tagstream", r.Name(), r.Status.String())
		observability.RecordBytes("tagstream", len(r.Raw))
	}()

	entry, ok := w.Table.Lookup(h.Dtype)
	if !ok {
		if w.Unknown == nil {
			w.Unknown = registry.NewTally[uint16]()
		}
		count := w.Unknown.Note(h.Dtype)
		observability.RecordUnknown("tagstream", strconv.Itoa(int(h.Dtype)))
		log.Debug().Int("offset", off).Uint16("dtype", h.Dtype).Int("seen", count).Msg("tagstream: unrecognized record type")
		r.Status = StatusUnknown
		return r
	}
	r.Entry, r.Known = entry, true
	if entry.Length != 0 && int(h.Len) != entry.Length {
		r.Anomalies = append(r.Anomalies, fmt.Sprintf("length %d, expected %d", h.Len, entry.Length))
	}
	obj, m, err := entry.Run(r.Raw[HeaderLen:])
	if err != nil {
		r.Status = StatusMalformed
		if errors.Is(err, layout.ErrTruncated) {
			r.Status = StatusTruncated
		}
		r.Err = &RecordError{Offset: off, Dtype: h.Dtype, Err: err}
		log.Debug().Err(err).Int("offset", off).Uint16("dtype", h.Dtype).Msg("tagstream: record decode failed")
		return r
	}
	r.Obj = obj
	r.Consumed += m
	if len(r.Anomalies) > 0 || hasAnomalies(obj) {
		r.Status = StatusPartial
	}
	return r
}

func hasAnomalies(a *layout.Aggregate) bool {
	if a == nil {
		return false
	}
	if len(a.Anomalies) > 0 {
		return true
	}
	found := false
	a.Each(func(_ string, n layout.Node) {
		if sub, ok := n.(*layout.Aggregate); ok && !found {
			found = hasAnomalies(sub)
		}
	})
	return found
}

// Options bound a walk. Start and End are byte offsets; End 0 means the end
// of the buffer. A walk starting past 0 first resynchronizes on a SYNC or
// REBOOT record unless NoResync is set.
type Options struct {
	Start    int
	End      int
	NoResync bool
	Filter   Filter
}

// Summary counts what a walk saw. Stopped holds the error of a header the
// walk could not get past after at least one good record; the bytes from
// that header on are counted in Trailing.
type Summary struct {
	Records  int
	Emitted  int
	Bytes    int
	Skipped  int
	Trailing int
	ByStatus map[Status]int
	Stopped  error
}

// Walk decodes records from opts.Start and passes every record accepted by
// opts.Filter to fn. The cursor always advances by the declared record
// length. A header whose length is unusable ends the walk after fn has seen
// it: on the first record the stream is invalid and its error is returned,
// later on it is kept in Summary.Stopped. An error from fn also ends the
// walk.
func (w *Walker) Walk(buf []byte, opts Options, fn func(Result) error) (Summary, error) {
	sum := Summary{ByStatus: make(map[Status]int)}
	end := len(buf)
	if opts.End > 0 && opts.End < end {
		end = opts.End
	}
	off := opts.Start
	if off > len(buf) {
		return sum, nil
	}
	if off > 0 && !opts.NoResync {
		found, ok := FindSync(buf, off)
		if !ok {
			sum.Skipped = len(buf) - off
			return sum, fmt.Errorf("%w after offset %#x", ErrNoSync, off)
		}
		sum.Skipped = found - off
		off = found
	}
	for off < end {
		if len(buf)-off < HeaderLen {
			sum.Trailing = len(buf) - off
			break
		}
		r := w.Decode(buf, off)
		sum.Records++
		sum.ByStatus[r.Status]++
		if opts.Filter.Match(r) || r.Fatal {
			sum.Emitted++
			if err := fn(r); err != nil {
				return sum, err
			}
		}
		if r.Fatal {
			if sum.Records == 1 {
				return sum, r.Err
			}
			log.Warn().Err(r.Err).Int("offset", off).Msg("tagstream: walk stopped")
			sum.Stopped = r.Err
			sum.Trailing = len(buf) - off
			return sum, nil
		}
		sum.Bytes += int(r.Header.Len)
		off += int(r.Header.Len)
	}
	return sum, nil
}

var majikBytes = binary.LittleEndian.AppendUint32(nil, SyncMajik)

// FindSync returns the offset of the first SYNC or REBOOT record header at
// or after from, located by its majik.
func FindSync(buf []byte, from int) (int, bool) {
	pos := from + HeaderLen
	for pos <= len(buf) {
		idx := bytes.Index(buf[pos:], majikBytes)
		if idx < 0 {
			return 0, false
		}
		cand := pos + idx - HeaderLen
		if isSyncHeader(buf[cand:]) {
			return cand, true
		}
		pos += idx + 1
	}
	return 0, false
}

func isSyncHeader(b []byte) bool {
	if len(b) < HeaderLen {
		return false
	}
	l := int(binary.LittleEndian.Uint16(b))
	switch binary.LittleEndian.Uint16(b[2:]) {
	case DtSync:
		return l == HeaderLen+syncProto.Len()
	case DtReboot:
		return l == HeaderLen+rebootProto.Len()
	}
	return false
}
