// Package units defines the unit conventions shared across the pipeline.
// Lengths are millimeters, times nanoseconds, momenta GeV, fields Tesla.
package units

// Base units. All quantities in the pipeline are multiples of these.
const (
	Millimeter = 1.0
	Meter      = 1e3 * Millimeter

	Nanosecond = 1.0
	Second     = 1e9 * Nanosecond

	GeV = 1.0
	MeV = 1e-3 * GeV

	Tesla = 1.0
)
