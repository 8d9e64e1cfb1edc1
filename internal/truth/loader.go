package truth

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bella-recon/trackfit/internal/geom"
)

// Per-event file naming in the input directory. Hits rows are one
// (measurement, contributing particle) pair each, in path order along the
// particle, so shared measurements appear on multiple rows.
const (
	particleFilePattern = "event%09d-particles.csv"
	hitFilePattern      = "event%09d-hits.csv"
)

// ParticleFile returns the particle file name for an event number.
func ParticleFile(event uint64) string { return fmt.Sprintf(particleFilePattern, event) }

// HitFile returns the hit file name for an event number.
func HitFile(event uint64) string { return fmt.Sprintf(hitFilePattern, event) }

// Load reads one event's truth data from dir and builds its index.
// It fails with an error wrapping ErrNoParticles if the particle file holds
// no particles, and wrapping ErrUnknownParticle if a hit references a
// particle that was never declared.
func Load(dir string, event uint64) (*EventIndex, error) {
	idx := NewEventIndex(event)

	if err := loadParticles(filepath.Join(dir, ParticleFile(event)), idx); err != nil {
		return nil, fmt.Errorf("event %d: %w", event, err)
	}
	if len(idx.particles) == 0 {
		return nil, fmt.Errorf("event %d: %w", event, ErrNoParticles)
	}

	if err := loadHits(filepath.Join(dir, HitFile(event)), idx); err != nil {
		return nil, fmt.Errorf("event %d: %w", event, err)
	}

	if err := idx.Validate(); err != nil {
		return nil, err
	}
	return idx, nil
}

// loadParticles parses particle_id,q,px,py,pz rows.
func loadParticles(path string, idx *EventIndex) error {
	rows, err := readCSV(path, 5)
	if err != nil {
		return err
	}
	for i, row := range rows {
		id, err := strconv.ParseUint(row[0], 10, 64)
		if err != nil {
			return fmt.Errorf("%s row %d: bad particle_id %q: %v", filepath.Base(path), i+1, row[0], err)
		}
		q, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return fmt.Errorf("%s row %d: bad charge %q: %v", filepath.Base(path), i+1, row[1], err)
		}
		mom, err := parseVec(row[2], row[3], row[4])
		if err != nil {
			return fmt.Errorf("%s row %d: bad momentum: %v", filepath.Base(path), i+1, err)
		}
		idx.AddParticle(Particle{ID: id, Momentum: mom, Charge: q})
	}
	return nil
}

// loadHits parses measurement_id,geometry_id,loc0,loc1,particle_id,gpx,gpy,gpz rows.
func loadHits(path string, idx *EventIndex) error {
	rows, err := readCSV(path, 8)
	if err != nil {
		return err
	}
	for i, row := range rows {
		measID, err := strconv.ParseUint(row[0], 10, 64)
		if err != nil {
			return fmt.Errorf("%s row %d: bad measurement_id %q: %v", filepath.Base(path), i+1, row[0], err)
		}
		geoID, err := strconv.ParseUint(row[1], 10, 64)
		if err != nil {
			return fmt.Errorf("%s row %d: bad geometry_id %q: %v", filepath.Base(path), i+1, row[1], err)
		}
		loc0, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return fmt.Errorf("%s row %d: bad loc0 %q: %v", filepath.Base(path), i+1, row[2], err)
		}
		loc1, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return fmt.Errorf("%s row %d: bad loc1 %q: %v", filepath.Base(path), i+1, row[3], err)
		}
		partID, err := strconv.ParseUint(row[4], 10, 64)
		if err != nil {
			return fmt.Errorf("%s row %d: bad particle_id %q: %v", filepath.Base(path), i+1, row[4], err)
		}
		mom, err := parseVec(row[5], row[6], row[7])
		if err != nil {
			return fmt.Errorf("%s row %d: bad global momentum: %v", filepath.Base(path), i+1, err)
		}

		p, ok := idx.Particle(partID)
		if !ok {
			return fmt.Errorf("%s row %d: particle %d: %w", filepath.Base(path), i+1, partID, ErrUnknownParticle)
		}

		m := Measurement{
			MeasurementID: measID,
			SurfaceID:     geom.SurfaceID(geoID),
			Loc0:          loc0,
			Loc1:          loc1,
		}
		idx.AddHit(m, p, mom)
	}
	return nil
}

// readCSV reads all data rows from a CSV file, skipping the header row and
// requiring exactly wantCols columns per row.
func readCSV(path string, wantCols int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = wantCols

	// Header row.
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header of %s: %v", filepath.Base(path), err)
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", filepath.Base(path), err)
	}
	return rows, nil
}

func parseVec(x, y, z string) (r3.Vec, error) {
	vx, err := strconv.ParseFloat(x, 64)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("bad x %q: %v", x, err)
	}
	vy, err := strconv.ParseFloat(y, 64)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("bad y %q: %v", y, err)
	}
	vz, err := strconv.ParseFloat(z, 64)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("bad z %q: %v", z, err)
	}
	return r3.Vec{X: vx, Y: vy, Z: vz}, nil
}
