// Package candidate assembles the per-particle fitter inputs: the ordered
// measurement sequence a truth particle produced plus its smeared seed.
package candidate

import (
	"errors"
	"fmt"

	"github.com/bella-recon/trackfit/internal/seed"
	"github.com/bella-recon/trackfit/internal/truth"
)

// ErrDuplicateMeasurement means the same measurement was attributed to one
// particle more than once. That signals inconsistent upstream data, so the
// build fails rather than deduplicating silently.
var ErrDuplicateMeasurement = errors.New("duplicate measurement in candidate")

// Candidate is one truth particle's fitter input: its path-ordered
// measurements and the seed evaluated at the first of them.
type Candidate struct {
	ParticleID   uint64
	Measurements []truth.Measurement
	Seed         seed.State
}

// Builder builds the candidate set for an event.
type Builder struct {
	gen *seed.Generator
}

// NewBuilder returns a Builder using the given seed generator.
func NewBuilder(gen *seed.Generator) *Builder {
	return &Builder{gen: gen}
}

// Build returns one candidate per truth particle with at least one
// measurement, in particle load order. Particles without measurements are
// skipped. Candidate ordering and measurement ordering are both inherited
// from the load stream, so identical input reproduces identical output.
func (b *Builder) Build(idx *truth.EventIndex) ([]Candidate, error) {
	var cands []Candidate
	for _, pid := range idx.ParticleOrder() {
		path := idx.Measurements(pid)
		if len(path) == 0 {
			continue
		}

		seen := make(map[truth.Measurement]struct{}, len(path))
		for _, m := range path {
			if _, dup := seen[m]; dup {
				return nil, fmt.Errorf("particle %d measurement %d: %w",
					pid, m.MeasurementID, ErrDuplicateMeasurement)
			}
			seen[m] = struct{}{}
		}

		p, _ := idx.Particle(pid)
		s, err := b.gen.Generate(p, path[0])
		if err != nil {
			return nil, fmt.Errorf("seeding particle %d: %w", pid, err)
		}

		cands = append(cands, Candidate{
			ParticleID:   pid,
			Measurements: path,
			Seed:         s,
		})
	}
	return cands, nil
}
