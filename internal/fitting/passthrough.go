package fitting

import (
	"github.com/bella-recon/trackfit/internal/bfield"
	"github.com/bella-recon/trackfit/internal/candidate"
	"github.com/bella-recon/trackfit/internal/geom"
	"github.com/bella-recon/trackfit/internal/track"
)

// Passthrough is a fitter that performs no estimation: every candidate
// becomes one fitted track whose smoothed parameters equal the seed, with
// the local position replaced by each measurement's position along the
// path. Useful for validating the export chain without a real fitter.
type Passthrough struct{}

// Fit implements Fitter.
func (Passthrough) Fit(_ geom.Geometry, _ bfield.Field, cands []candidate.Candidate) ([]track.Fitted, error) {
	tracks := make([]track.Fitted, 0, len(cands))
	for _, c := range cands {
		states := make([]track.State, 0, len(c.Measurements))
		for i, m := range c.Measurements {
			params := c.Seed.Params
			if i > 0 {
				params.Loc0 = m.Loc0
				params.Loc1 = m.Loc1
			}
			states = append(states, track.State{Smoothed: params, Meas: m})
		}

		ndf := 2*float64(len(states)) - 6
		if ndf < 0 {
			ndf = 0
		}
		tracks = append(tracks, track.Fitted{
			Header: track.Header{NDF: ndf},
			States: states,
		})
	}
	return tracks, nil
}
