// Package bfield describes the beamline magnetic field: a pair of dipole
// magnets on the x axis, and a regular grid sampler that dumps the field
// for the external propagation tooling.
package bfield

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bella-recon/trackfit/internal/units"
)

// Field provides the magnetic field vector at a global position. The
// pipeline passes this capability through to the fitter unchanged.
type Field interface {
	At(pos r3.Vec) r3.Vec
}

// DipoleStrength is the field inside the magnets, along +y.
const DipoleStrength = 0.5 * units.Tesla

// InMagnet reports whether a point falls inside either dipole: x in
// [40,50] or [210,220] (inclusive), |y| <= 10 and |z| <= 10.
func InMagnet(x, y, z float64) bool {
	inX := (x >= 40 && x <= 50) || (x >= 210 && x <= 220)
	return inX && math.Abs(y) <= 10 && math.Abs(z) <= 10
}

// Magnet is the fixed dipole-pair field.
type Magnet struct{}

// At implements Field.
func (Magnet) At(pos r3.Vec) r3.Vec {
	if InMagnet(pos.X, pos.Y, pos.Z) {
		return r3.Vec{Y: DipoleStrength}
	}
	return r3.Vec{}
}
