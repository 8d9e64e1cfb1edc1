// Package seed turns a truth particle's trajectory at its first measurement
// into a smeared initial estimate for the fitter, with a diagonal
// uncertainty model.
package seed

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/bella-recon/trackfit/internal/geom"
	"github.com/bella-recon/trackfit/internal/track"
	"github.com/bella-recon/trackfit/internal/truth"
	"github.com/bella-recon/trackfit/internal/units"
)

// ErrZeroMomentum means a truth particle has zero momentum magnitude, so
// the q/p uncertainty scale is undefined.
var ErrZeroMomentum = errors.New("zero-momentum truth particle")

// Default seed uncertainty model: fixed position, angle and time widths,
// and a 5% relative width on the truth inverse momentum.
const (
	DefaultLocStddev     = 0.02 * units.Millimeter
	DefaultAngleStddev   = 0.0085
	DefaultTimeStddev    = 1.0 * units.Nanosecond
	QOverPRelativeStddev = 0.05
)

// Stddevs holds the six bound-parameter standard deviations. Stored next to
// the smeared parameters, they are the diagonal of the seed covariance.
type Stddevs struct {
	Loc0, Loc1 float64
	Phi, Theta float64
	QOverP     float64
	Time       float64
}

// State is a smeared seed estimate: perturbed bound parameters plus the
// diagonal covariance they were drawn with, anchored to the surface of the
// particle's first measurement.
type State struct {
	Params    track.BoundParams
	Stddevs   Stddevs
	SurfaceID geom.SurfaceID
}

// Generator produces seed states with a deterministic pseudo-random source:
// the same seed and the same generation order reproduce identical states.
type Generator struct {
	loc   float64
	angle float64
	time  float64
	norm  distuv.Normal
}

// NewGenerator returns a Generator with the default uncertainty model and
// the given RNG seed.
func NewGenerator(rngSeed uint64) *Generator {
	return NewGeneratorWithStddevs(rngSeed, DefaultLocStddev, DefaultAngleStddev, DefaultTimeStddev)
}

// NewGeneratorWithStddevs returns a Generator with overridden fixed widths.
// The q/p width always scales with the particle (see Generate).
func NewGeneratorWithStddevs(rngSeed uint64, loc, angle, timeStd float64) *Generator {
	return &Generator{
		loc:   loc,
		angle: angle,
		time:  timeStd,
		norm:  distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(rngSeed)},
	}
}

// Generate builds the smeared seed for a particle at its first measurement.
// The q/p width is QOverPRelativeStddev * |q| / |p|; a zero-momentum
// particle fails with an error wrapping ErrZeroMomentum.
func (g *Generator) Generate(p truth.Particle, first truth.Measurement) (State, error) {
	pm := r3.Norm(p.Momentum)
	if pm == 0 {
		return State{}, fmt.Errorf("particle %d: %w", p.ID, ErrZeroMomentum)
	}

	stddevs := Stddevs{
		Loc0:   g.loc,
		Loc1:   g.loc,
		Phi:    g.angle,
		Theta:  g.angle,
		QOverP: QOverPRelativeStddev * math.Abs(p.Charge) / pm,
		Time:   g.time,
	}

	exact := track.BoundParams{
		Loc0:   first.Loc0,
		Loc1:   first.Loc1,
		Phi:    math.Atan2(p.Momentum.Y, p.Momentum.X),
		Theta:  math.Acos(p.Momentum.Z / pm),
		QOverP: p.Charge / pm,
		Time:   0,
	}

	smeared := track.BoundParams{
		Loc0:   exact.Loc0 + stddevs.Loc0*g.norm.Rand(),
		Loc1:   exact.Loc1 + stddevs.Loc1*g.norm.Rand(),
		Phi:    exact.Phi + stddevs.Phi*g.norm.Rand(),
		Theta:  exact.Theta + stddevs.Theta*g.norm.Rand(),
		QOverP: exact.QOverP + stddevs.QOverP*g.norm.Rand(),
		Time:   exact.Time + stddevs.Time*g.norm.Rand(),
	}

	return State{Params: smeared, Stddevs: stddevs, SurfaceID: first.SurfaceID}, nil
}
