package geom

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalToGlobalIdentity(t *testing.T) {
	s := Surface{
		ID: 1,
		Transform: [16]float64{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, 1,
		},
	}
	got := s.LocalToGlobal(3.5, -2.0)
	if got.X != 3.5 || got.Y != -2.0 || got.Z != 0 {
		t.Errorf("LocalToGlobal(3.5, -2.0) = %v, want (3.5, -2, 0)", got)
	}
}

func TestLocalToGlobalTranslation(t *testing.T) {
	s := Surface{
		ID: 2,
		Transform: [16]float64{
			1, 0, 0, 10,
			0, 1, 0, 20,
			0, 0, 1, 30,
			0, 0, 0, 1,
		},
	}
	got := s.LocalToGlobal(1, 2)
	if got.X != 11 || got.Y != 22 || got.Z != 30 {
		t.Errorf("LocalToGlobal(1, 2) = %v, want (11, 22, 30)", got)
	}
}

func TestTelescopePlanes(t *testing.T) {
	g := Telescope(3, 20)
	if len(g) != 3 {
		t.Fatalf("Telescope(3, 20) has %d surfaces, want 3", len(g))
	}

	// Third plane sits at x=40; local (l0,l1) map to global (y,z).
	s, ok := g.Surface(3)
	if !ok {
		t.Fatal("surface 3 missing from telescope")
	}
	got := s.LocalToGlobal(5, -7)
	if got.X != 40 || got.Y != 5 || got.Z != -7 {
		t.Errorf("plane 3 LocalToGlobal(5, -7) = %v, want (40, 5, -7)", got)
	}
}

func TestMustSurfaceUnknown(t *testing.T) {
	g := Telescope(2, 10)
	if _, err := MustSurface(g, 99); !errors.Is(err, ErrUnknownSurface) {
		t.Errorf("MustSurface(99) error = %v, want ErrUnknownSurface", err)
	}
}

func TestLoadGeometryFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "geometry.json")

	testJSON := `[
  {"geometry_id": 1, "transform": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1]},
  {"geometry_id": 7, "transform": [0,0,1,100, 1,0,0,0, 0,1,0,0, 0,0,0,1]}
]`
	if err := os.WriteFile(path, []byte(testJSON), 0644); err != nil {
		t.Fatalf("failed to write geometry file: %v", err)
	}

	g, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(g) != 2 {
		t.Fatalf("loaded %d surfaces, want 2", len(g))
	}

	s, ok := g.Surface(7)
	if !ok {
		t.Fatal("surface 7 missing")
	}
	got := s.LocalToGlobal(2, 3)
	if got.X != 100 || got.Y != 2 || got.Z != 3 {
		t.Errorf("surface 7 LocalToGlobal(2, 3) = %v, want (100, 2, 3)", got)
	}
}

func TestLoadGeometryRejectsBadExtension(t *testing.T) {
	if _, err := Load("geometry.txt"); err == nil {
		t.Error("expected error for non-JSON geometry file")
	}
}

func TestLoadGeometryRejectsDuplicateSurface(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "dup.json")
	testJSON := `[
  {"geometry_id": 1, "transform": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1]},
  {"geometry_id": 1, "transform": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1]}
]`
	if err := os.WriteFile(path, []byte(testJSON), 0644); err != nil {
		t.Fatalf("failed to write geometry file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for duplicate surface ID")
	}
}

func TestTelescopeSpacingIsExact(t *testing.T) {
	g := Telescope(9, 20)
	for i := 1; i <= 9; i++ {
		s, _ := g.Surface(SurfaceID(i))
		origin := s.LocalToGlobal(0, 0)
		want := float64(i-1) * 20
		if math.Abs(origin.X-want) > 1e-12 {
			t.Errorf("plane %d origin x = %g, want %g", i, origin.X, want)
		}
	}
}
