// Package track defines the trajectory state types shared between the seed
// generator, the external fitter contract, and the residual extraction.
package track

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bella-recon/trackfit/internal/truth"
)

// BoundParams is a trajectory state in a surface-local frame: local
// position, direction angles, signed inverse momentum and time.
type BoundParams struct {
	Loc0, Loc1 float64 // local position (mm)
	Phi        float64 // azimuthal direction angle (rad)
	Theta      float64 // polar direction angle (rad)
	QOverP     float64 // signed inverse momentum (1/GeV)
	Time       float64 // ns
}

// Dir returns the unit direction vector for the parameter angles.
func (p BoundParams) Dir() r3.Vec {
	sinTheta := math.Sin(p.Theta)
	return r3.Vec{
		X: sinTheta * math.Cos(p.Phi),
		Y: sinTheta * math.Sin(p.Phi),
		Z: math.Cos(p.Theta),
	}
}

// QOverPT returns the signed inverse transverse momentum.
func (p BoundParams) QOverPT() float64 {
	return p.QOverP / math.Sin(p.Theta)
}

// QOverPZ returns the signed inverse longitudinal momentum. cos(theta) is
// signed, so the sign of the result carries the direction along z.
func (p BoundParams) QOverPZ() float64 {
	return p.QOverP / math.Cos(p.Theta)
}

// State is one fitted state on a surface: the smoothed bound parameters
// plus the measurement that constrained them.
type State struct {
	Smoothed BoundParams
	Meas     truth.Measurement
}

// Header summarizes the fit of one track.
type Header struct {
	Chi2 float64
	NDF  float64
}

// Fitted is one fitted track: a summary header plus the ordered smoothed
// states. Produced by the external fitter; read-only to the pipeline.
type Fitted struct {
	Header Header
	States []State
}
