// Command write-bfield dumps the beamline magnetic field on a regular grid
// as plain text, one "x y z bx by bz" line per sample, for consumption by
// the external field-map tooling.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/bella-recon/trackfit/internal/bfield"
)

func main() {
	output := flag.String("o", "bfield.txt", "output path")
	flag.Parse()

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *output, err)
	}

	grid := bfield.DefaultGridSpec()
	if err := bfield.WriteGrid(f, grid, bfield.Magnet{}); err != nil {
		f.Close()
		log.Fatalf("failed to write field grid: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("failed to close %s: %v", *output, err)
	}

	nx, ny, nz := grid.Counts()
	log.Printf("wrote %d samples to %s", nx*ny*nz, *output)
}
