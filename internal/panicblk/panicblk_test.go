package panicblk

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/tagtools/internal/testutil/testlog"
)

func TestCarveRegions(t *testing.T) {
	testlog.Start(t)
	dump := make([]byte, BlockLen()+16)
	for i := range dump {
		dump[i] = byte(i >> 9)
	}
	parts, err := Carve(dump)
	if err != nil {
		t.Fatalf("carve: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("expected 3 regions, got %d", len(parts))
	}
	if len(parts[0]) != 0x200 || len(parts[1]) != 0x10000 || len(parts[2]) != 0x4000 {
		t.Fatalf("unexpected sizes %d %d %d", len(parts[0]), len(parts[1]), len(parts[2]))
	}
	if parts[1][0] != 1 || parts[2][0] != byte(0x10200>>9) {
		t.Fatalf("regions carved from wrong offsets")
	}
}

func TestCarveShortDump(t *testing.T) {
	testlog.Start(t)
	if _, err := Carve(make([]byte, BlockLen()-1)); !errors.Is(err, ErrShortDump) {
		t.Fatalf("expected ErrShortDump, got %v", err)
	}
}

func TestExtractWritesRegions(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "dump.bin")
	if err := os.WriteFile(in, make([]byte, BlockLen()), 0o644); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	out := filepath.Join(dir, "panic")
	written, err := Extract(in, out)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(written) != 3 {
		t.Fatalf("expected 3 files, got %v", written)
	}
	info, err := os.Stat(out + ".ram")
	if err != nil || info.Size() != 0x10000 {
		t.Fatalf("ram region not written correctly: %v", err)
	}
}

func TestExtractShortDumpWritesNothing(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "dump.bin")
	if err := os.WriteFile(in, make([]byte, 100), 0o644); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	out := filepath.Join(dir, "panic")
	if _, err := Extract(in, out); !errors.Is(err, ErrShortDump) {
		t.Fatalf("expected ErrShortDump, got %v", err)
	}
	if _, err := os.Stat(out + ".regs"); !os.IsNotExist(err) {
		t.Fatalf("no region should be written, stat err=%v", err)
	}
}
