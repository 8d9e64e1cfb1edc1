// Command truthfit runs the truth-matched track fitting residual pipeline:
// it seeds truth candidates per event, hands them to the fitter, and writes
// residual.csv and state.csv (plus an optional sqlite run store).
//
// The real Kalman fitter is an external collaborator; this binary ships
// with the passthrough validation fitter so the export chain can be
// exercised end to end.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/bella-recon/trackfit/internal/bfield"
	"github.com/bella-recon/trackfit/internal/config"
	"github.com/bella-recon/trackfit/internal/fitting"
	"github.com/bella-recon/trackfit/internal/geom"
	"github.com/bella-recon/trackfit/internal/pipeline"
	"github.com/bella-recon/trackfit/internal/residual"
	"github.com/bella-recon/trackfit/internal/storage/sqlite"
)

var (
	configPath  = flag.String("config", "", "JSON run config file (optional)")
	inputDir    = flag.String("input-dir", "", "event data directory")
	events      = flag.Int("events", 0, "number of events to process")
	skip        = flag.Int("skip", 0, "events to skip before processing")
	geometry    = flag.String("geometry", "", "geometry JSON file (default: built-in telescope)")
	residualOut = flag.String("residual-out", "", "residual CSV path")
	stateOut    = flag.String("state-out", "", "state trace CSV path")
	runStore    = flag.String("db", "", "sqlite run store path (optional)")
	rngSeed     = flag.Uint64("seed", 0, "RNG seed for seed smearing")
	policy      = flag.String("policy", "", "contributor policy: first-seen or max-count")
)

// Built-in telescope fallback when no geometry file is given.
const (
	telescopePlanes  = 9
	telescopeSpacing = 20.0 // mm
)

func main() {
	flag.Parse()

	cfg := config.EmptyRunConfig()
	if *configPath != "" {
		loaded, err := config.LoadRunConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}
	applyFlags(cfg)

	geo, err := loadGeometry(cfg)
	if err != nil {
		log.Fatalf("failed to load geometry: %v", err)
	}

	exporter, err := residual.NewExporter(cfg.GetResidualFile(), cfg.GetStateFile())
	if err != nil {
		log.Fatalf("failed to open output sinks: %v", err)
	}
	defer exporter.Close()

	var store *sqlite.RunStore
	var runID string
	if path := cfg.GetRunStore(); path != "" {
		db, err := sqlite.Open(path)
		if err != nil {
			log.Fatalf("failed to open run store: %v", err)
		}
		defer db.Close()

		store = sqlite.NewRunStore(db)
		params, _ := json.Marshal(cfg)
		run := &sqlite.Run{ParamsJSON: params}
		if err := store.InsertRun(run); err != nil {
			log.Fatalf("failed to record run: %v", err)
		}
		runID = run.RunID
		log.Printf("run store: %s, run %s", path, runID)
	}

	p, err := pipeline.New(cfg, geo, bfield.Magnet{}, fitting.Passthrough{}, exporter, store, runID)
	if err != nil {
		log.Fatalf("failed to build pipeline: %v", err)
	}

	sum, err := p.Run()
	if err != nil {
		// Flush what was written before aborting.
		if cerr := exporter.Close(); cerr != nil {
			log.Printf("failed to close sinks: %v", cerr)
		}
		log.Printf("output is incomplete: run aborted")
		log.Fatalf("run failed after %d events, %d tracks: %v", sum.Events, sum.Tracks, err)
	}

	if err := exporter.Close(); err != nil {
		log.Fatalf("failed to close sinks: %v", err)
	}
	if store != nil {
		if err := store.UpdateRunCounts(runID, sum.Events, sum.Tracks); err != nil {
			log.Fatalf("failed to update run counts: %v", err)
		}
	}
	log.Printf("processed %d events, %d fitted tracks", sum.Events, sum.Tracks)
	os.Exit(0)
}

// applyFlags copies explicitly-set flags over the loaded config.
func applyFlags(cfg *config.RunConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input-dir":
			cfg.InputDir = inputDir
		case "events":
			cfg.Events = events
		case "skip":
			cfg.Skip = skip
		case "geometry":
			cfg.GeometryFile = geometry
		case "residual-out":
			cfg.ResidualFile = residualOut
		case "state-out":
			cfg.StateFile = stateOut
		case "db":
			cfg.RunStore = runStore
		case "seed":
			cfg.RNGSeed = rngSeed
		case "policy":
			cfg.ContributorPolicy = policy
		}
	})
}

func loadGeometry(cfg *config.RunConfig) (geom.Geometry, error) {
	if path := cfg.GetGeometryFile(); path != "" {
		return geom.Load(path)
	}
	log.Printf("no geometry file given, using built-in %d-plane telescope", telescopePlanes)
	return geom.Telescope(telescopePlanes, telescopeSpacing), nil
}
