package bfield

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// GridSpec is a regular sampling grid over a half-open bounding volume
// [Start, End) with uniform spacing on every axis.
type GridSpec struct {
	StartX, EndX float64
	StartY, EndY float64
	StartZ, EndZ float64
	Spacing      float64
}

// DefaultGridSpec covers the beamline volume at 10 mm spacing.
func DefaultGridSpec() GridSpec {
	return GridSpec{
		StartX: -100, EndX: 1000,
		StartY: -500, EndY: 500,
		StartZ: -500, EndZ: 500,
		Spacing: 10,
	}
}

// Counts returns the number of samples per axis.
func (g GridSpec) Counts() (nx, ny, nz int) {
	nx = int(math.Ceil((g.EndX - g.StartX) / g.Spacing))
	ny = int(math.Ceil((g.EndY - g.StartY) / g.Spacing))
	nz = int(math.Ceil((g.EndZ - g.StartZ) / g.Spacing))
	return nx, ny, nz
}

// WriteGrid samples f over the grid and writes one line per sample:
// "x y z bx by bz", x as the outer axis, y middle, z inner, no header.
// Coordinates are computed from integer indices, never accumulated, so the
// sample count per axis is exact regardless of the float spacing.
func WriteGrid(w io.Writer, g GridSpec, f Field) error {
	bw := bufio.NewWriter(w)
	nx, ny, nz := g.Counts()
	for ix := 0; ix < nx; ix++ {
		x := g.StartX + float64(ix)*g.Spacing
		for iy := 0; iy < ny; iy++ {
			y := g.StartY + float64(iy)*g.Spacing
			for iz := 0; iz < nz; iz++ {
				z := g.StartZ + float64(iz)*g.Spacing
				b := f.At(r3.Vec{X: x, Y: y, Z: z})
				if _, err := fmt.Fprintf(bw, "%g %g %g %g %g %g\n",
					x, y, z, b.X, b.Y, b.Z); err != nil {
					return fmt.Errorf("failed to write field sample: %w", err)
				}
			}
		}
	}
	return bw.Flush()
}
