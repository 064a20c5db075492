// Package errs defines the sentinel error taxonomy shared across the
// pipeline so callers can classify failures with errors.Is.
package errs

import "errors"

var (
	// ErrDecode is returned when an audio container cannot be decoded
	// into PCM samples (unsupported format, truncated file, 24-bit PCM).
	ErrDecode = errors.New("shazoom: decode failed")

	// ErrAcquisition is returned when a song descriptor cannot be
	// produced by an acquisition source (missing file, network error).
	ErrAcquisition = errors.New("shazoom: acquisition failed")

	// ErrStore is returned for fingerprint store failures (connection,
	// constraint violation on a path other than the expected upsert).
	ErrStore = errors.New("shazoom: store failed")

	// ErrInvalidFilter is returned when a query's duration comparator is
	// not one of the known comparator values.
	ErrInvalidFilter = errors.New("shazoom: invalid query filter")

	// ErrInvalidConfig is returned for out-of-range configuration values.
	ErrInvalidConfig = errors.New("shazoom: invalid configuration")

	// ErrCancelled is returned when a pipeline stage observes context
	// cancellation at a suspension point.
	ErrCancelled = errors.New("shazoom: cancelled")
)
