// Package geom provides the detector surface description consumed by the
// residual pipeline: surfaces with local-to-global transforms, resolved by
// surface ID. Geometry construction itself is owned by external tooling;
// this package only loads and applies the resulting description.
package geom

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUnknownSurface is returned when a surface ID has no entry in the
// loaded geometry.
var ErrUnknownSurface = errors.New("unknown surface")

// SurfaceID identifies one detector surface.
type SurfaceID uint64

// Surface is a planar detector surface with a row-major 4x4 local-to-global
// transform T: t00,t01,t02,t03, t10,... A bound-local position (l0,l1) lives
// at (l0,l1,0) in the surface frame.
type Surface struct {
	ID        SurfaceID
	Transform [16]float64
}

// LocalToGlobal maps a bound-local position on the surface into global
// coordinates.
func (s Surface) LocalToGlobal(loc0, loc1 float64) r3.Vec {
	t := s.Transform
	return r3.Vec{
		X: t[0]*loc0 + t[1]*loc1 + t[3],
		Y: t[4]*loc0 + t[5]*loc1 + t[7],
		Z: t[8]*loc0 + t[9]*loc1 + t[11],
	}
}

// Geometry resolves surfaces by ID. The pipeline depends only on this
// capability, never on how the geometry was built.
type Geometry interface {
	Surface(id SurfaceID) (Surface, bool)
}

// StaticGeometry is a fixed, map-backed Geometry.
type StaticGeometry map[SurfaceID]Surface

// Surface implements Geometry.
func (g StaticGeometry) Surface(id SurfaceID) (Surface, bool) {
	s, ok := g[id]
	return s, ok
}

// MustSurface resolves a surface or returns an error wrapping
// ErrUnknownSurface with the offending ID.
func MustSurface(g Geometry, id SurfaceID) (Surface, error) {
	s, ok := g.Surface(id)
	if !ok {
		return Surface{}, fmt.Errorf("surface %d: %w", id, ErrUnknownSurface)
	}
	return s, nil
}

// Telescope builds a telescope geometry of n planes normal to the global x
// axis, spaced along x starting at the origin. Local (l0,l1) map to global
// (y,z). Surface IDs count from 1.
func Telescope(n int, spacing float64) StaticGeometry {
	g := make(StaticGeometry, n)
	for i := 0; i < n; i++ {
		id := SurfaceID(i + 1)
		g[id] = Surface{
			ID: id,
			Transform: [16]float64{
				0, 0, 1, float64(i) * spacing,
				1, 0, 0, 0,
				0, 1, 0, 0,
				0, 0, 0, 1,
			},
		}
	}
	return g
}
