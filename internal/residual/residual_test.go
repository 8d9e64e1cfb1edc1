package residual

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bella-recon/trackfit/internal/track"
	"github.com/bella-recon/trackfit/internal/truth"
)

const tol = 1e-12

// indexWithParticle builds a one-particle index with a single measurement.
func indexWithParticle(p truth.Particle, m truth.Measurement) *truth.EventIndex {
	idx := truth.NewEventIndex(0)
	idx.AddParticle(p)
	idx.AddHit(m, p, p.Momentum)
	return idx
}

func TestExtractZeroResiduals(t *testing.T) {
	// Fit parameters exactly equal to truth: all residuals must vanish.
	p := truth.Particle{ID: 1, Momentum: r3.Vec{X: 3, Y: 4, Z: 5}, Charge: 1}
	m := truth.Measurement{MeasurementID: 10, SurfaceID: 1, Loc0: 0.1, Loc1: 0.2}
	idx := indexWithParticle(p, m)

	pm := r3.Norm(p.Momentum)
	params := track.BoundParams{
		Loc0:   m.Loc0,
		Loc1:   m.Loc1,
		Phi:    math.Atan2(p.Momentum.Y, p.Momentum.X),
		Theta:  math.Acos(p.Momentum.Z / pm),
		QOverP: p.Charge / pm,
	}
	trk := track.Fitted{States: []track.State{{Smoothed: params, Meas: m}}}

	row, err := Extract(trk, idx, PolicyFirstSeen)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	dQOP, dQOPT, dQOPZ := row.Residuals()
	for name, d := range map[string]float64{"qop": dQOP, "qopT": dQOPT, "qopz": dQOPZ} {
		if math.Abs(d) > tol {
			t.Errorf("%s residual = %g, want 0", name, d)
		}
	}
}

func TestExtractTruthTriple(t *testing.T) {
	p := truth.Particle{ID: 1, Momentum: r3.Vec{X: 3, Y: 4, Z: -5}, Charge: -1}
	m := truth.Measurement{MeasurementID: 10, SurfaceID: 1}
	idx := indexWithParticle(p, m)

	trk := track.Fitted{States: []track.State{{
		Smoothed: track.BoundParams{Theta: math.Pi / 4, QOverP: 0.1},
		Meas:     m,
	}}}
	row, err := Extract(trk, idx, PolicyFirstSeen)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	pm := math.Sqrt(3*3 + 4*4 + 5*5)
	if got, want := row.TruthQOP, -1/pm; math.Abs(got-want) > tol {
		t.Errorf("TruthQOP = %g, want %g", got, want)
	}
	if got, want := row.TruthQOPT, -1.0/5; math.Abs(got-want) > tol {
		t.Errorf("TruthQOPT = %g, want %g", got, want)
	}
	// pz is signed: q/pz = -1 / -5 = +0.2.
	if got, want := row.TruthQOPZ, 0.2; math.Abs(got-want) > tol {
		t.Errorf("TruthQOPZ = %g, want %g", got, want)
	}
}

// Flipping the charge flips all three truth q/p signs and keeps magnitudes.
func TestChargeSignConsistency(t *testing.T) {
	m := truth.Measurement{MeasurementID: 10, SurfaceID: 1}
	trk := track.Fitted{States: []track.State{{
		Smoothed: track.BoundParams{Theta: math.Pi / 3, QOverP: 0.1},
		Meas:     m,
	}}}

	extract := func(charge float64) Row {
		p := truth.Particle{ID: 1, Momentum: r3.Vec{X: 1, Y: 2, Z: 3}, Charge: charge}
		row, err := Extract(trk, indexWithParticle(p, m), PolicyFirstSeen)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		return row
	}

	plus, minus := extract(1), extract(-1)
	pairs := [][2]float64{
		{plus.TruthQOP, minus.TruthQOP},
		{plus.TruthQOPT, minus.TruthQOPT},
		{plus.TruthQOPZ, minus.TruthQOPZ},
	}
	for i, pair := range pairs {
		if math.Abs(pair[0]+pair[1]) > tol {
			t.Errorf("component %d: %g and %g are not sign-opposite", i, pair[0], pair[1])
		}
		if math.Abs(math.Abs(pair[0])-math.Abs(pair[1])) > tol {
			t.Errorf("component %d: magnitudes %g and %g differ", i, math.Abs(pair[0]), math.Abs(pair[1]))
		}
	}
}

func TestExtractEmptyTrack(t *testing.T) {
	idx := truth.NewEventIndex(0)
	idx.AddParticle(truth.Particle{ID: 1, Momentum: r3.Vec{X: 1}, Charge: 1})

	if _, err := Extract(track.Fitted{}, idx, PolicyFirstSeen); !errors.Is(err, ErrEmptyTrack) {
		t.Errorf("Extract error = %v, want ErrEmptyTrack", err)
	}
}

func TestExtractUnknownMeasurement(t *testing.T) {
	idx := truth.NewEventIndex(0)
	idx.AddParticle(truth.Particle{ID: 1, Momentum: r3.Vec{X: 1}, Charge: 1})

	trk := track.Fitted{States: []track.State{{
		Meas: truth.Measurement{MeasurementID: 99, SurfaceID: 1},
	}}}
	if _, err := Extract(trk, idx, PolicyFirstSeen); !errors.Is(err, truth.ErrUnknownMeasurement) {
		t.Errorf("Extract error = %v, want ErrUnknownMeasurement", err)
	}
}

func TestPolicySelect(t *testing.T) {
	p1 := truth.Particle{ID: 1, Charge: 1}
	p2 := truth.Particle{ID: 2, Charge: -1}
	contribs := []truth.Contributor{
		{Particle: p1, Count: 1},
		{Particle: p2, Count: 3},
	}

	got, err := PolicyFirstSeen.Select(contribs)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got.Particle.ID != 1 {
		t.Errorf("first-seen selected particle %d, want 1", got.Particle.ID)
	}

	got, err = PolicyMaxCount.Select(contribs)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got.Particle.ID != 2 {
		t.Errorf("max-count selected particle %d, want 2", got.Particle.ID)
	}

	// Ties break by first-seen order.
	contribs[1].Count = 1
	got, err = PolicyMaxCount.Select(contribs)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got.Particle.ID != 1 {
		t.Errorf("max-count tie selected particle %d, want 1", got.Particle.ID)
	}
}

func TestParsePolicy(t *testing.T) {
	for _, valid := range []string{"first-seen", "max-count"} {
		if _, err := ParsePolicy(valid); err != nil {
			t.Errorf("ParsePolicy(%q) failed: %v", valid, err)
		}
	}
	if _, err := ParsePolicy("loudest"); err == nil {
		t.Error("ParsePolicy accepted an unknown policy")
	}
}

func TestQOverPZSigned(t *testing.T) {
	// theta > pi/2 means a backward-going direction: cos is negative and
	// the longitudinal inverse momentum must keep that sign.
	params := track.BoundParams{Theta: 3 * math.Pi / 4, QOverP: 0.5}
	if params.QOverPZ() >= 0 {
		t.Errorf("QOverPZ = %g, want negative for theta > pi/2", params.QOverPZ())
	}
}
