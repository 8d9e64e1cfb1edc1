// Package fitting defines the contract between the pipeline and the
// external track fitter. The fitter itself (propagation, navigation,
// Kalman smoothing) is an external collaborator; this package carries only
// its interface, the error wrapper for collaborator failures, and a
// passthrough implementation used for validation runs and tests.
package fitting

import (
	"fmt"

	"github.com/bella-recon/trackfit/internal/bfield"
	"github.com/bella-recon/trackfit/internal/candidate"
	"github.com/bella-recon/trackfit/internal/geom"
	"github.com/bella-recon/trackfit/internal/track"
)

// Fitter refines truth candidates into fitted tracks against the detector
// geometry and magnetic field.
type Fitter interface {
	Fit(geo geom.Geometry, field bfield.Field, cands []candidate.Candidate) ([]track.Fitted, error)
}

// CollaboratorError wraps a failure surfaced by an external geometry, field
// or fitter collaborator. The underlying error is propagated unchanged.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s collaborator: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// WrapCollaborator wraps err as a CollaboratorError unless it already is
// one or is nil.
func WrapCollaborator(collaborator string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*CollaboratorError); ok {
		return err
	}
	return &CollaboratorError{Collaborator: collaborator, Err: err}
}
