package truth

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// EventIndex links one event's truth particles to the measurements they
// produced. Contributor lists preserve first-seen order from the load
// stream; that order decides which particle is treated as "the" truth for
// a shared measurement under the first-seen policy.
type EventIndex struct {
	event uint64

	particles map[uint64]Particle
	order     []uint64 // particle IDs in load order

	contributors map[Measurement][]Contributor
	momenta      map[Measurement]r3.Vec

	paths map[uint64][]Measurement // per particle, in path order
}

// NewEventIndex returns an empty index for the given event number. The
// loader is the usual producer; simulation collaborators and tests can
// populate one directly through AddParticle and AddHit.
func NewEventIndex(event uint64) *EventIndex {
	return &EventIndex{
		event:        event,
		particles:    make(map[uint64]Particle),
		contributors: make(map[Measurement][]Contributor),
		momenta:      make(map[Measurement]r3.Vec),
		paths:        make(map[uint64][]Measurement),
	}
}

// Event returns the event number this index was built for.
func (idx *EventIndex) Event() uint64 { return idx.event }

// Particle looks up a truth particle by ID.
func (idx *EventIndex) Particle(id uint64) (Particle, bool) {
	p, ok := idx.particles[id]
	return p, ok
}

// ParticleOrder returns the particle IDs in load order. Callers must not
// mutate the returned slice.
func (idx *EventIndex) ParticleOrder() []uint64 { return idx.order }

// ReferenceParticle returns the first particle in load order. The load
// fails on an empty population, so a populated index always has one.
func (idx *EventIndex) ReferenceParticle() Particle {
	return idx.particles[idx.order[0]]
}

// ContributingParticles returns the particles that contributed to a
// measurement with their contribution counts, in first-seen order.
func (idx *EventIndex) ContributingParticles(m Measurement) []Contributor {
	return idx.contributors[m]
}

// GlobalMomentum returns the truth momentum at the point that produced the
// measurement, or an error wrapping ErrUnknownMeasurement.
func (idx *EventIndex) GlobalMomentum(m Measurement) (r3.Vec, error) {
	mom, ok := idx.momenta[m]
	if !ok {
		return r3.Vec{}, fmt.Errorf("measurement %d: %w", m.MeasurementID, ErrUnknownMeasurement)
	}
	return mom, nil
}

// Measurements returns a particle's measurements in path order. Callers
// must not mutate the returned slice.
func (idx *EventIndex) Measurements(particleID uint64) []Measurement {
	return idx.paths[particleID]
}

// AddParticle records a particle, preserving insertion order.
func (idx *EventIndex) AddParticle(p Particle) {
	if _, exists := idx.particles[p.ID]; !exists {
		idx.order = append(idx.order, p.ID)
	}
	idx.particles[p.ID] = p
}

// AddHit records one (measurement, contributing particle) pair. The first
// hit seen for a measurement fixes its global truth momentum.
func (idx *EventIndex) AddHit(m Measurement, p Particle, globalMom r3.Vec) {
	if _, seen := idx.momenta[m]; !seen {
		idx.momenta[m] = globalMom
	}

	found := false
	for i := range idx.contributors[m] {
		if idx.contributors[m][i].Particle.ID == p.ID {
			idx.contributors[m][i].Count++
			found = true
			break
		}
	}
	if !found {
		idx.contributors[m] = append(idx.contributors[m], Contributor{Particle: p, Count: 1})
	}

	idx.paths[p.ID] = append(idx.paths[p.ID], m)
}

// Validate checks the index invariants: a non-empty particle population and
// a momentum entry for every measurement with contributors.
func (idx *EventIndex) Validate() error {
	if len(idx.particles) == 0 {
		return fmt.Errorf("event %d: %w", idx.event, ErrNoParticles)
	}
	for m := range idx.contributors {
		if _, ok := idx.momenta[m]; !ok {
			return fmt.Errorf("event %d measurement %d has contributors but no momentum: %w",
				idx.event, m.MeasurementID, ErrUnknownMeasurement)
		}
	}
	return nil
}
