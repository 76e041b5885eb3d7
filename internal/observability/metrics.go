package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tagtools"

var (
	registerOnce sync.Once

	decodeRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decode",
			Name:      "records_total",
			Help:      "Decoded records by protocol, kind and outcome.",
		},
		[]string{"protocol", "kind", "status"},
	)
	decodeUnknown = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decode",
			Name:      "unknown_total",
			Help:      "Records or messages with no registered decoder.",
		},
		[]string{"protocol", "id"},
	)
	decodeBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decode",
			Name:      "bytes_total",
			Help:      "Bytes walked by protocol.",
		},
		[]string{"protocol"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(decodeRecords, decodeUnknown, decodeBytes)
	})
}

func RecordDecode(protocol, kind, status string) {
	RegisterMetrics()
	decodeRecords.WithLabelValues(protocol, kind, status).Inc()
}

func RecordUnknown(protocol, id string) {
	RegisterMetrics()
	decodeUnknown.WithLabelValues(protocol, id).Inc()
}

func RecordBytes(protocol string, n int) {
	RegisterMetrics()
	decodeBytes.WithLabelValues(protocol).Add(float64(n))
}

// WriteSummary prints every tagtools counter with a non-zero value, one per
// line, sorted.
func WriteSummary(w io.Writer) error {
	RegisterMetrics()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), namespace+"_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			v := m.GetCounter().GetValue()
			if v == 0 {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", mf.GetName(), strings.Join(labels, ","), v))
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
