package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/tagtools/internal/cli"
	"github.com/danmuck/tagtools/internal/panicblk"
	"github.com/danmuck/tagtools/internal/testutil/testlog"
)

func TestTagpanicExtractsRegions(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	dump := filepath.Join(dir, "panic.bin")
	if err := os.WriteFile(dump, make([]byte, panicblk.BlockLen()), 0o600); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	prefix := filepath.Join(dir, "out", "p0")
	if err := os.MkdirAll(filepath.Dir(prefix), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	var out, errOut bytes.Buffer
	if code := tool().Main([]string{"--prefix", prefix, dump}, &out, &errOut); code != cli.ExitOK {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != len(panicblk.Regions) {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	for _, r := range panicblk.Regions {
		info, err := os.Stat(panicblk.OutputPath(prefix, r))
		if err != nil {
			t.Fatalf("%s: %v", r.Name, err)
		}
		if int(info.Size()) != r.Len() {
			t.Fatalf("%s: size %d, want %d", r.Name, info.Size(), r.Len())
		}
	}
}

func TestTagpanicShortDump(t *testing.T) {
	testlog.Start(t)
	dump := filepath.Join(t.TempDir(), "short.bin")
	if err := os.WriteFile(dump, make([]byte, 100), 0o600); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	var out, errOut bytes.Buffer
	if code := tool().Main([]string{dump}, &out, &errOut); code != cli.ExitInput {
		t.Fatalf("exit %d", code)
	}
	if _, err := os.Stat(dump + ".regs"); !os.IsNotExist(err) {
		t.Fatalf("short dump wrote regions: %v", err)
	}
}
