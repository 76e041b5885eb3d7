package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/tagtools/internal/cli"
	"github.com/danmuck/tagtools/internal/sirf"
	"github.com/danmuck/tagtools/internal/testutil/testlog"
)

func packet(mid uint8, body []byte) []byte {
	inner := append([]byte{mid}, body...)
	out := []byte{0xa0, 0xa2}
	out = binary.BigEndian.AppendUint16(out, uint16(len(inner)))
	out = append(out, inner...)
	out = binary.BigEndian.AppendUint16(out, sirf.Checksum(inner))
	return append(out, 0xb0, 0xb3)
}

func capture(t *testing.T) string {
	t.Helper()
	var buf []byte
	buf = append(buf, 0x00, 0x11)
	buf = append(buf, packet(sirf.MidAck, []byte{sirf.MidGeodetic})...)
	buf = append(buf, packet(201, []byte{1, 2})...)
	buf = append(buf, packet(sirf.MidNack, []byte{sirf.MidNavTrack})...)
	path := filepath.Join(t.TempDir(), "capture.bin")
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		t.Fatalf("write capture: %v", err)
	}
	return path
}

func TestSirfdumpWalksCapture(t *testing.T) {
	testlog.Start(t)
	var out, errOut bytes.Buffer
	if code := tool().Main([]string{capture(t)}, &out, &errOut); code != cli.ExitOK {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	got := out.String()
	for _, want := range []string{
		"00000002  MID_ACK",
		"    ack MID_GEODETIC(41)\n",
		"    -- unrecognized id 201\n",
		"    nack MID_NAVTRACK(4)\n",
		"packets 3  skipped 2  false_sync 0  errors 0  truncated false\n",
		"  unrecognized mids: 201(1)\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}

func TestSirfdumpFiltersMids(t *testing.T) {
	testlog.Start(t)
	var out, errOut bytes.Buffer
	if code := tool().Main([]string{"--mids", "MID_NACK", capture(t)}, &out, &errOut); code != cli.ExitOK {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if strings.Contains(out.String(), "    ack ") || !strings.Contains(out.String(), "    nack ") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if code := tool().Main([]string{"--mids", "nope", capture(t)}, &out, &errOut); code != cli.ExitUsage {
		t.Fatalf("bad mid: exit %d", code)
	}
}

func TestSirfdumpIgnoresTagdumpTypes(t *testing.T) {
	testlog.Start(t)
	cfg := filepath.Join(t.TempDir(), "shared.toml")
	if err := os.WriteFile(cfg, []byte("rtypes = [\"GPS_RAW\"]\nmids = [\"MID_ACK\"]\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	var out, errOut bytes.Buffer
	if code := tool().Main([]string{"--config", cfg, capture(t)}, &out, &errOut); code != cli.ExitOK {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "    ack ") || strings.Contains(out.String(), "    nack ") {
		t.Fatalf("mids from config not applied:\n%s", out.String())
	}
}
