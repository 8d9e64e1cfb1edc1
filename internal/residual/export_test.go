package residual

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bella-recon/trackfit/internal/geom"
	"github.com/bella-recon/trackfit/internal/track"
	"github.com/bella-recon/trackfit/internal/truth"
)

func newTestExporter(t *testing.T) (*Exporter, string, string) {
	t.Helper()
	dir := t.TempDir()
	rp := filepath.Join(dir, "residual.csv")
	sp := filepath.Join(dir, "state.csv")
	e, err := NewExporter(rp, sp)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	return e, rp, sp
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestExporterHeaders(t *testing.T) {
	e, rp, sp := newTestExporter(t)
	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	rLines := readLines(t, rp)
	if rLines[0] != "fit_qop, fit_qopT, fit_qopz, truth_qop, truth_qopT, truth_qopz, qop_residual, qopT_residual, qopz_residual" {
		t.Errorf("residual header = %q", rLines[0])
	}
	sLines := readLines(t, sp)
	if sLines[0] != "event_id, fit_track_id, x, y, z" {
		t.Errorf("state header = %q", sLines[0])
	}
}

func TestExporterWriteRow(t *testing.T) {
	e, rp, _ := newTestExporter(t)
	row := Row{
		FitQOP: 1, FitQOPT: 2, FitQOPZ: 3,
		TruthQOP: 1, TruthQOPT: 2, TruthQOPZ: 4,
	}
	if err := e.WriteRow(row); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	lines := readLines(t, rp)
	if len(lines) != 2 {
		t.Fatalf("residual file has %d lines, want 2", len(lines))
	}
	if lines[1] != "1,2,3,1,2,4,0,0,-1" {
		t.Errorf("residual row = %q, want \"1,2,3,1,2,4,0,0,-1\"", lines[1])
	}
}

func TestExporterWriteStates(t *testing.T) {
	e, _, sp := newTestExporter(t)
	geo := geom.Telescope(3, 20)

	trk := track.Fitted{States: []track.State{
		{
			Smoothed: track.BoundParams{Loc0: 1, Loc1: 2},
			Meas:     truth.Measurement{MeasurementID: 10, SurfaceID: 1},
		},
		{
			Smoothed: track.BoundParams{Loc0: 3, Loc1: 4},
			Meas:     truth.Measurement{MeasurementID: 11, SurfaceID: 2},
		},
	}}
	if err := e.WriteStates(5, 0, trk, geo); err != nil {
		t.Fatalf("WriteStates failed: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	lines := readLines(t, sp)
	if len(lines) != 3 {
		t.Fatalf("state file has %d lines, want 3", len(lines))
	}
	// Telescope plane 1 at x=0, plane 2 at x=20; local maps to (y,z).
	if lines[1] != "5,0,0,1,2" {
		t.Errorf("state row 1 = %q, want \"5,0,0,1,2\"", lines[1])
	}
	if lines[2] != "5,0,20,3,4" {
		t.Errorf("state row 2 = %q, want \"5,0,20,3,4\"", lines[2])
	}
}

func TestExporterWriteStatesUnknownSurface(t *testing.T) {
	e, _, _ := newTestExporter(t)
	defer e.Close()

	trk := track.Fitted{States: []track.State{{
		Meas: truth.Measurement{MeasurementID: 10, SurfaceID: 42},
	}}}
	if err := e.WriteStates(0, 0, trk, geom.Telescope(2, 10)); err == nil {
		t.Error("expected error for unknown surface")
	}
}

func TestExporterCloseIdempotent(t *testing.T) {
	e, _, _ := newTestExporter(t)
	if err := e.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
