package csvstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trafficsim/persist"
)

func TestSnapshotStoreWritesHeaderOnceAndAppendsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.csv")

	s, err := NewSnapshotStore(path)
	if err != nil {
		t.Fatalf("NewSnapshotStore failed: %v", err)
	}
	s.Append([]persist.TrafficSnapshot{{Timestamp: 10, RoadID: 1, VehicleCount: 3}})
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopening the same path must not duplicate the header row.
	s2, err := NewSnapshotStore(path)
	if err != nil {
		t.Fatalf("reopen NewSnapshotStore failed: %v", err)
	}
	s2.Append([]persist.TrafficSnapshot{{Timestamp: 20, RoadID: 1, VehicleCount: 5}})
	if err := s2.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 data rows, got %d lines: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "timestamp,") {
		t.Fatalf("expected first line to be the header, got %q", lines[0])
	}
}

func TestSnapshotStoreQueryReadsFromMirrorNotDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.csv")
	s, err := NewSnapshotStore(path)
	if err != nil {
		t.Fatalf("NewSnapshotStore failed: %v", err)
	}
	defer s.Close()

	s.Append([]persist.TrafficSnapshot{{Timestamp: 5, RoadID: 2}, {Timestamp: 50, RoadID: 2}})

	got := s.Query(0, 10)
	if len(got) != 1 || got[0].Timestamp != 5 {
		t.Fatalf("expected only the in-range row from the mirror, got %+v", got)
	}
}

func TestRunLogAppendsOneRowPerRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.csv")
	l, err := NewRunLog(path)
	if err != nil {
		t.Fatalf("NewRunLog failed: %v", err)
	}
	l.Append(persist.OptimizationRun{RunID: "run-1", Mode: "reactive", Status: "COMPLETE"})
	l.Append(persist.OptimizationRun{RunID: "run-2", Mode: "predictive", Status: "ERROR"})
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 run rows, got %d: %q", len(lines), lines)
	}
}
