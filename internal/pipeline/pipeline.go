// Package pipeline orchestrates one run of the truth-matched fitting
// residual analysis: per event it loads the truth index, builds seeded
// candidates, hands them to the fitter, and exports residual and position
// rows. Processing is single-threaded; the first error aborts the run.
package pipeline

import (
	"fmt"
	"log"

	"github.com/bella-recon/trackfit/internal/bfield"
	"github.com/bella-recon/trackfit/internal/candidate"
	"github.com/bella-recon/trackfit/internal/config"
	"github.com/bella-recon/trackfit/internal/fitting"
	"github.com/bella-recon/trackfit/internal/geom"
	"github.com/bella-recon/trackfit/internal/residual"
	"github.com/bella-recon/trackfit/internal/seed"
	"github.com/bella-recon/trackfit/internal/storage/sqlite"
	"github.com/bella-recon/trackfit/internal/truth"
)

// Summary reports what a completed run processed.
type Summary struct {
	Events int
	Tracks int
}

// Pipeline runs the event loop against a fixed set of collaborators. The
// exporter is owned by the caller, which closes it on all exit paths.
type Pipeline struct {
	cfg      *config.RunConfig
	geo      geom.Geometry
	field    bfield.Field
	fitter   fitting.Fitter
	exporter *residual.Exporter

	store *sqlite.RunStore // nil disables persistence
	runID string

	policy residual.Policy
	gen    *seed.Generator
}

// New assembles a pipeline. store and runID may be zero to skip run
// persistence.
func New(cfg *config.RunConfig, geo geom.Geometry, field bfield.Field,
	fitter fitting.Fitter, exporter *residual.Exporter,
	store *sqlite.RunStore, runID string) (*Pipeline, error) {

	policy, err := residual.ParsePolicy(cfg.GetContributorPolicy())
	if err != nil {
		return nil, err
	}

	loc, angle, timeStd := seed.DefaultLocStddev, seed.DefaultAngleStddev, seed.DefaultTimeStddev
	if cfg.LocStddev != nil {
		loc = *cfg.LocStddev
	}
	if cfg.AngleStddev != nil {
		angle = *cfg.AngleStddev
	}
	if cfg.TimeStddev != nil {
		timeStd = *cfg.TimeStddev
	}

	return &Pipeline{
		cfg:      cfg,
		geo:      geo,
		field:    field,
		fitter:   fitter,
		exporter: exporter,
		store:    store,
		runID:    runID,
		policy:   policy,
		gen:      seed.NewGeneratorWithStddevs(cfg.GetRNGSeed(), loc, angle, timeStd),
	}, nil
}

// Run processes the configured event window. Any error is fatal to the
// run and returned as-is; the caller closes the sinks.
func (p *Pipeline) Run() (Summary, error) {
	log.Printf("contributor policy: %s", p.policy)

	builder := candidate.NewBuilder(p.gen)
	var sum Summary

	skip := uint64(p.cfg.GetSkip())
	events := uint64(p.cfg.GetEvents())
	for event := skip; event < skip+events; event++ {
		if err := p.runEvent(event, builder, &sum); err != nil {
			return sum, fmt.Errorf("event %d: %w", event, err)
		}
		sum.Events++
	}
	return sum, nil
}

func (p *Pipeline) runEvent(event uint64, builder *candidate.Builder, sum *Summary) error {
	idx, err := truth.Load(p.cfg.GetInputDir(), event)
	if err != nil {
		return err
	}

	ref := idx.ReferenceParticle()
	log.Printf("reference truth particle %d: charge %+g, momentum (%g, %g, %g)",
		ref.ID, ref.Charge, ref.Momentum.X, ref.Momentum.Y, ref.Momentum.Z)

	cands, err := builder.Build(idx)
	if err != nil {
		return err
	}

	tracks, err := p.fitter.Fit(p.geo, p.field, cands)
	if err != nil {
		return fitting.WrapCollaborator("fitter", err)
	}
	log.Printf("Number of fitted tracks: %d", len(tracks))

	for i, trk := range tracks {
		row, err := residual.Extract(trk, idx, p.policy)
		if err != nil {
			return fmt.Errorf("track %d: %w", i, err)
		}
		if err := p.exporter.WriteRow(row); err != nil {
			return err
		}
		if err := p.exporter.WriteStates(event, i, trk, p.geo); err != nil {
			return err
		}
		if p.store != nil {
			if err := p.store.InsertResidual(p.runID, event, i, row); err != nil {
				return err
			}
		}
		sum.Tracks++
	}
	return nil
}
