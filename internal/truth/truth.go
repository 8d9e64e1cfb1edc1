// Package truth holds the per-event truth index: the simulated particles,
// the detector measurements they produced, and the mappings between them
// that the residual extraction needs. One index is built per event and
// discarded when the event is done.
package truth

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bella-recon/trackfit/internal/geom"
)

var (
	// ErrNoParticles means an event's truth population is empty. The
	// pipeline cannot seed anything without at least one particle.
	ErrNoParticles = errors.New("no truth particles in event")

	// ErrUnknownParticle means a hit references a particle ID that is not
	// in the event's particle table.
	ErrUnknownParticle = errors.New("hit references unknown particle")

	// ErrUnknownMeasurement means a measurement has no entry in the
	// index even though something referenced it.
	ErrUnknownMeasurement = errors.New("measurement not in truth index")
)

// Particle is one simulated truth particle. Immutable once loaded.
type Particle struct {
	ID       uint64
	Momentum r3.Vec // GeV
	Charge   float64
}

// QOverP returns the particle's signed inverse momentum, or an error if the
// momentum magnitude is zero.
func (p Particle) QOverP() (float64, error) {
	norm := r3.Norm(p.Momentum)
	if norm == 0 {
		return 0, fmt.Errorf("particle %d has zero momentum", p.ID)
	}
	return p.Charge / norm, nil
}

// Measurement is a 2D local position on a detector surface. The full value
// is the identity: Measurement is comparable and used directly as a map key.
type Measurement struct {
	MeasurementID uint64
	SurfaceID     geom.SurfaceID
	Loc0, Loc1    float64
}

// Contributor is one truth particle that contributed to a measurement,
// with the number of contributions (shared-hit frequency).
type Contributor struct {
	Particle Particle
	Count    int
}
