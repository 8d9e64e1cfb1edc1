// Command residual-plot renders histograms of the three q/p residual
// columns from a residual.csv produced by truthfit.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	input  = flag.String("in", "residual.csv", "residual CSV file")
	outDir = flag.String("out-dir", "plots", "output directory for PNGs")
	bins   = flag.Int("bins", 40, "histogram bins")
)

// residual.csv column layout: fit triple, truth triple, residual triple.
var residualColumns = []struct {
	index int
	name  string
	title string
}{
	{6, "qop_residual", "q/p residual (fit - truth)"},
	{7, "qopT_residual", "q/pT residual (fit - truth)"},
	{8, "qopz_residual", "q/pz residual (fit - truth)"},
}

func main() {
	flag.Parse()

	rows, err := readRows(*input)
	if err != nil {
		log.Fatalf("failed to read %s: %v", *input, err)
	}
	if len(rows) == 0 {
		log.Fatalf("%s has no data rows", *input)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("failed to create %s: %v", *outDir, err)
	}

	for _, col := range residualColumns {
		vals, err := column(rows, col.index)
		if err != nil {
			log.Fatalf("failed to extract %s: %v", col.name, err)
		}
		out := filepath.Join(*outDir, col.name+".png")
		if err := plotHistogram(vals, col.title, out, *bins); err != nil {
			log.Fatalf("failed to plot %s: %v", col.name, err)
		}
		log.Printf("wrote %s (%d entries)", out, len(vals))
	}
}

func readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[1:], nil // drop header
}

func column(rows [][]string, idx int) (plotter.Values, error) {
	vals := make(plotter.Values, 0, len(rows))
	for i, row := range rows {
		if idx >= len(row) {
			return nil, fmt.Errorf("row %d has %d columns, want at least %d", i+1, len(row), idx+1)
		}
		v, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d column %d: %v", i+1, idx, err)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func plotHistogram(vals plotter.Values, title, path string, bins int) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "residual"
	p.Y.Label.Text = "tracks"

	h, err := plotter.NewHist(vals, bins)
	if err != nil {
		return err
	}
	p.Add(h)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
