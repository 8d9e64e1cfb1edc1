// Package residual compares fitted tracks against truth: it recovers the
// truth momentum behind each fitted track, computes the inverse-momentum
// residuals, and appends them to the run's output sinks.
package residual

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bella-recon/trackfit/internal/track"
	"github.com/bella-recon/trackfit/internal/truth"
)

// ErrEmptyTrack means a fitted track has no states, so there is nothing to
// compare against truth.
var ErrEmptyTrack = errors.New("fitted track has no states")

// Policy selects which contributing particle is authoritative for the truth
// charge when a measurement is shared between particles.
type Policy string

const (
	// PolicyFirstSeen picks the contributor seen first in the hit stream.
	PolicyFirstSeen Policy = "first-seen"
	// PolicyMaxCount picks the contributor with the most contributions,
	// breaking ties by first-seen order.
	PolicyMaxCount Policy = "max-count"
)

// ParsePolicy validates a policy string.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyFirstSeen, PolicyMaxCount:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown contributor policy %q (want %q or %q)",
		s, PolicyFirstSeen, PolicyMaxCount)
}

// Select applies the policy to a contributor list.
func (p Policy) Select(contribs []truth.Contributor) (truth.Contributor, error) {
	if len(contribs) == 0 {
		return truth.Contributor{}, fmt.Errorf("no contributing particles: %w", truth.ErrUnknownMeasurement)
	}
	switch p {
	case PolicyMaxCount:
		best := contribs[0]
		for _, c := range contribs[1:] {
			if c.Count > best.Count {
				best = c
			}
		}
		return best, nil
	default:
		return contribs[0], nil
	}
}

// Row holds the per-track comparison: the fitted and truth inverse-momentum
// triples. Written once, never mutated.
type Row struct {
	FitQOP, FitQOPT, FitQOPZ       float64
	TruthQOP, TruthQOPT, TruthQOPZ float64
}

// Residuals returns the three signed differences (fit minus truth).
func (r Row) Residuals() (dQOP, dQOPT, dQOPZ float64) {
	return r.FitQOP - r.TruthQOP, r.FitQOPT - r.TruthQOPT, r.FitQOPZ - r.TruthQOPZ
}

// Extract computes the comparison row for one fitted track. The fit triple
// comes from the first state's smoothed parameters; the truth triple from
// the global truth momentum behind the first state's measurement and the
// charge of the policy-selected contributor. The longitudinal components
// keep their sign on both sides.
func Extract(trk track.Fitted, idx *truth.EventIndex, pol Policy) (Row, error) {
	if len(trk.States) == 0 {
		return Row{}, ErrEmptyTrack
	}
	first := trk.States[0]

	mom, err := idx.GlobalMomentum(first.Meas)
	if err != nil {
		return Row{}, err
	}
	contrib, err := pol.Select(idx.ContributingParticles(first.Meas))
	if err != nil {
		return Row{}, fmt.Errorf("measurement %d: %w", first.Meas.MeasurementID, err)
	}

	q := contrib.Particle.Charge
	p := r3.Norm(mom)
	pT := math.Hypot(mom.X, mom.Y)
	pz := mom.Z // signed

	return Row{
		FitQOP:    first.Smoothed.QOverP,
		FitQOPT:   first.Smoothed.QOverPT(),
		FitQOPZ:   first.Smoothed.QOverPZ(),
		TruthQOP:  q / p,
		TruthQOPT: q / pT,
		TruthQOPZ: q / pz,
	}, nil
}
