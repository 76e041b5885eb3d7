package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/tagtools/internal/cli"
	"github.com/danmuck/tagtools/internal/tagstream"
	"github.com/danmuck/tagtools/internal/testutil/testlog"
)

var rt = []byte{0x00, 0x40, 30, 15, 8, 1, 19, 10, 0xea, 0x07}

func record(dtype uint16, recnum uint32, payload []byte) []byte {
	b := binary.LittleEndian.AppendUint16(nil, uint16(tagstream.HeaderLen+len(payload)))
	b = binary.LittleEndian.AppendUint16(b, dtype)
	b = binary.LittleEndian.AppendUint32(b, recnum)
	b = append(b, rt...)
	b = binary.LittleEndian.AppendUint16(b, 0)
	return append(b, payload...)
}

func stream() []byte {
	sync := binary.LittleEndian.AppendUint32(nil, tagstream.SyncMajik)
	sync = binary.LittleEndian.AppendUint32(sync, 0)
	sync = append(sync, rt...)
	event := binary.LittleEndian.AppendUint16(nil, tagstream.EvGPSBoot)
	event = append(event, make([]byte, 18)...)

	var buf []byte
	buf = append(buf, record(tagstream.DtSync, 1, sync)...)
	buf = append(buf, record(tagstream.DtEvent, 2, event)...)
	buf = append(buf, record(200, 3, []byte{1, 2, 3, 4})...)
	return buf
}

func writeInput(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stream.bin")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestTagdumpWalksStream(t *testing.T) {
	testlog.Start(t)
	path := writeInput(t, stream())
	var out, errOut bytes.Buffer
	if code := tool().Main([]string{path}, &out, &errOut); code != cli.ExitOK {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	got := out.String()
	for _, want := range []string{"SYNC", "EVENT", "GPS_BOOT", "dt_200", "records 3  emitted 3", "unrecognized record types: 200(1)"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}

func TestTagdumpFiltersTypes(t *testing.T) {
	testlog.Start(t)
	path := writeInput(t, stream())
	var out, errOut bytes.Buffer
	if code := tool().Main([]string{"--rtypes", "EVENT", path}, &out, &errOut); code != cli.ExitOK {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if strings.Contains(out.String(), "SYNC ") || !strings.Contains(out.String(), "records 3  emitted 1") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if code := tool().Main([]string{"--rtypes", "BOGUS", path}, &out, &errOut); code != cli.ExitUsage {
		t.Fatalf("bad rtypes: exit %d", code)
	}
	if code := tool().Main([]string{"--start_time", "yesterday", path}, &out, &errOut); code != cli.ExitUsage {
		t.Fatalf("bad time: exit %d", code)
	}
}

func TestTagdumpBadStream(t *testing.T) {
	testlog.Start(t)
	bad := record(tagstream.DtEvent, 1, make([]byte, 20))
	binary.LittleEndian.PutUint16(bad, 4)
	var out, errOut bytes.Buffer
	if code := tool().Main([]string{writeInput(t, bad)}, &out, &errOut); code != cli.ExitInput {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if !strings.Contains(errOut.String(), "record length out of range") {
		t.Fatalf("unexpected stderr: %q", errOut.String())
	}
}

func TestTagdumpTruncatedLastRecord(t *testing.T) {
	testlog.Start(t)
	event := binary.LittleEndian.AppendUint16(nil, tagstream.EvGPSBoot)
	event = append(event, make([]byte, 18)...)
	data := append(stream(), record(tagstream.DtEvent, 4, event)[:25]...)

	var out, errOut bytes.Buffer
	if code := tool().Main([]string{writeInput(t, data)}, &out, &errOut); code != cli.ExitOK {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	got := out.String()
	for _, want := range []string{"records 4", "trailing 25", "stopped: record at ", "record length out of range"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}
