package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/tagtools/internal/cli"
	"github.com/danmuck/tagtools/internal/testutil/testlog"
	"github.com/danmuck/tagtools/internal/ubx"
)

func frame(key uint16, body []byte) []byte {
	out := []byte{ubx.Sync1, ubx.Sync2, byte(key >> 8), byte(key)}
	out = binary.LittleEndian.AppendUint16(out, uint16(len(body)))
	out = append(out, body...)
	a, b := ubx.Checksum(out[2:])
	return append(out, a, b)
}

func capture(t *testing.T) string {
	t.Helper()
	var buf []byte
	buf = append(buf, frame(ubx.KeyAckAck, []byte{0x01, 0x07})...)
	buf = append(buf, 0xff)
	buf = append(buf, frame(0x0215, []byte{9})...)
	path := filepath.Join(t.TempDir(), "capture.ubx")
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		t.Fatalf("write capture: %v", err)
	}
	return path
}

func TestUbxdumpWalksCapture(t *testing.T) {
	testlog.Start(t)
	path := capture(t)

	var out, errOut bytes.Buffer
	if code := tool().Main([]string{path}, &out, &errOut); code != cli.ExitOK {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	got := out.String()
	for _, want := range []string{
		"00000000  ACK-ACK",
		"    for NAV-PVT\n",
		"0000000b  0x0215",
		"packets 2  skipped 1",
		"  unrecognized ids: 0x0215(1)\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}

	out.Reset()
	if code := tool().Main([]string{"--ids", "0x0215", path}, &out, &errOut); code != cli.ExitOK {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if strings.Contains(out.String(), "ACK-ACK") {
		t.Fatalf("filter let ACK-ACK through:\n%s", out.String())
	}
}

func TestUbxdumpIgnoresTagdumpTypes(t *testing.T) {
	testlog.Start(t)
	cfg := filepath.Join(t.TempDir(), "shared.toml")
	if err := os.WriteFile(cfg, []byte("rtypes = [\"GPS_RAW\"]\nids = [\"0x0215\"]\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	var out, errOut bytes.Buffer
	if code := tool().Main([]string{"--config", cfg, capture(t)}, &out, &errOut); code != cli.ExitOK {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if strings.Contains(out.String(), "ACK-ACK") || !strings.Contains(out.String(), "0000000b  0x0215") {
		t.Fatalf("ids from config not applied:\n%s", out.String())
	}
}
