package residual

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/bella-recon/trackfit/internal/geom"
	"github.com/bella-recon/trackfit/internal/track"
)

// Fixed column headers, written once when a sink is opened.
const (
	residualHeader = "fit_qop, fit_qopT, fit_qopz, truth_qop, truth_qopT, truth_qopz, qop_residual, qopT_residual, qopz_residual"
	stateHeader    = "event_id, fit_track_id, x, y, z"
)

// Exporter owns the two output sinks of a run: the per-track residual file
// and the per-state global-position trace. Both are append-only for the
// run's lifetime and closed exactly once.
type Exporter struct {
	residualFile *os.File
	stateFile    *os.File
	residual     *bufio.Writer
	state        *bufio.Writer
	closed       bool
}

// NewExporter opens (truncating) both sinks and writes their headers.
func NewExporter(residualPath, statePath string) (*Exporter, error) {
	rf, err := os.Create(residualPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open residual file: %w", err)
	}
	sf, err := os.Create(statePath)
	if err != nil {
		rf.Close()
		return nil, fmt.Errorf("failed to open state file: %w", err)
	}

	e := &Exporter{
		residualFile: rf,
		stateFile:    sf,
		residual:     bufio.NewWriter(rf),
		state:        bufio.NewWriter(sf),
	}
	if _, err := fmt.Fprintln(e.residual, residualHeader); err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to write residual header: %w", err)
	}
	if _, err := fmt.Fprintln(e.state, stateHeader); err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to write state header: %w", err)
	}
	return e, nil
}

// WriteRow appends one residual row: fit triple, truth triple, differences.
func (e *Exporter) WriteRow(r Row) error {
	dQOP, dQOPT, dQOPZ := r.Residuals()
	vals := []float64{
		r.FitQOP, r.FitQOPT, r.FitQOPZ,
		r.TruthQOP, r.TruthQOPT, r.TruthQOPZ,
		dQOP, dQOPT, dQOPZ,
	}
	for i, v := range vals {
		if i > 0 {
			if err := e.residual.WriteByte(','); err != nil {
				return fmt.Errorf("failed to write residual row: %w", err)
			}
		}
		if _, err := e.residual.WriteString(strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
			return fmt.Errorf("failed to write residual row: %w", err)
		}
	}
	if err := e.residual.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write residual row: %w", err)
	}
	return nil
}

// WriteStates appends one position-trace row per fitted state: the state's
// bound-local position mapped through its surface's local-to-global
// transform. Rows keep the fitter's state order.
func (e *Exporter) WriteStates(eventID uint64, trackID int, trk track.Fitted, geo geom.Geometry) error {
	for _, st := range trk.States {
		sf, err := geom.MustSurface(geo, st.Meas.SurfaceID)
		if err != nil {
			return err
		}
		xyz := sf.LocalToGlobal(st.Smoothed.Loc0, st.Smoothed.Loc1)
		if _, err := fmt.Fprintf(e.state, "%d,%d,%s,%s,%s\n",
			eventID, trackID,
			strconv.FormatFloat(xyz.X, 'g', -1, 64),
			strconv.FormatFloat(xyz.Y, 'g', -1, 64),
			strconv.FormatFloat(xyz.Z, 'g', -1, 64)); err != nil {
			return fmt.Errorf("failed to write state row: %w", err)
		}
	}
	return nil
}

// Close flushes and closes both sinks. Safe to call more than once; only
// the first call does the work, so deferred and explicit closes coexist.
func (e *Exporter) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	var firstErr error
	for _, flush := range []func() error{e.residual.Flush, e.state.Flush} {
		if err := flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, f := range []*os.File{e.residualFile, e.stateFile} {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
