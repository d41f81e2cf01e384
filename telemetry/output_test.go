package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dong-David/the-last-echo/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Errorf("nil manager should ignore writes: %v", err)
	}
	if om.Dir() != "" || om.Close() != nil {
		t.Error("nil manager should report no directory and close cleanly")
	}
}

func TestOutputManagerWritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	if err := om.WriteConfig(config.Defaults()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	for i := int32(1); i <= 2; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: i * 300, Agents: int(i)}); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
		if err := om.WritePerf(PerfStats{}, i*300); err != nil {
			t.Fatalf("WritePerf: %v", err)
		}
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkCapReached, Tick: 600, Description: "cap"}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	telemetry := readLines(t, filepath.Join(dir, "telemetry.csv"))
	if len(telemetry) != 3 {
		t.Fatalf("telemetry.csv has %d lines, want header plus 2 rows", len(telemetry))
	}
	if !strings.HasPrefix(telemetry[0], "window_end,sim_time,agents") {
		t.Errorf("telemetry header = %q", telemetry[0])
	}
	if !strings.HasPrefix(telemetry[2], "600,") {
		t.Errorf("second row = %q", telemetry[2])
	}

	perf := readLines(t, filepath.Join(dir, "perf.csv"))
	if len(perf) != 3 || !strings.Contains(perf[0], "steering_pct") {
		t.Errorf("perf.csv = %v", perf)
	}

	bookmarks := readLines(t, filepath.Join(dir, "bookmarks.csv"))
	if len(bookmarks) != 2 || bookmarks[1] != "cap_reached,600,cap" {
		t.Errorf("bookmarks.csv = %v", bookmarks)
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config snapshot does not load: %v", err)
	}
}

func TestOutputManagerCreateFailure(t *testing.T) {
	dir := t.TempDir()
	// A directory where perf.csv should go makes os.Create fail
	if err := os.Mkdir(filepath.Join(dir, "perf.csv"), 0755); err != nil {
		t.Fatal(err)
	}

	om, err := NewOutputManager(dir)
	if err == nil || om != nil {
		t.Fatalf("NewOutputManager = %v, %v; want nil and an error", om, err)
	}
	if !strings.Contains(err.Error(), "perf.csv") {
		t.Errorf("error %q does not name the failing file", err)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}
