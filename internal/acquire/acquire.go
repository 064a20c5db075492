// Package acquire models ingestion sources: the Source interface feeds
// song descriptors into the pipeline's Q_fp queue. The remote-video
// acquirer itself stays an external collaborator per spec.md §1/§6;
// only its message contract is modeled here alongside a local-path
// source, grounded on tefkah-seek-tune/server/cmdHandlers.go's
// directory-expansion CLI behavior.
package acquire

import (
	"context"
	"os"
	"path/filepath"

	"shazoom/internal/errs"
)

// SongDescriptor is a path plus optional metadata, the unit a Source
// produces and the Fingerprint Engine consumes. Path is absent (empty)
// when acquisition failed for that entry.
type SongDescriptor struct {
	SourceID *string
	Title    *string
	Duration *float64
	SourceURL *string
	Path      string
}

// Source produces a stream of descriptors, closing the returned channel
// when exhausted (the in-process equivalent of spec.md §4.8's
// end-of-stream sentinel — a closed Go channel already carries that
// signal without a sentinel value).
type Source interface {
	Descriptors(ctx context.Context) (<-chan SongDescriptor, error)
}

// LocalPathSource walks a list of file/directory paths. A directory is
// expanded to its immediate children only, per spec.md §6's CLI surface.
type LocalPathSource struct {
	Paths []string
}

// Descriptors implements Source.
func (l LocalPathSource) Descriptors(ctx context.Context) (<-chan SongDescriptor, error) {
	var expanded []string
	for _, p := range l.Paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, errWrap(err)
		}
		if !info.IsDir() {
			expanded = append(expanded, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, errWrap(err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				expanded = append(expanded, filepath.Join(p, e.Name()))
			}
		}
	}

	out := make(chan SongDescriptor)
	go func() {
		defer close(out)
		for _, path := range expanded {
			select {
			case <-ctx.Done():
				return
			case out <- SongDescriptor{Path: path}:
			}
		}
	}()
	return out, nil
}

func errWrap(err error) error {
	return &acquisitionError{err: err}
}

type acquisitionError struct{ err error }

func (e *acquisitionError) Error() string { return errs.ErrAcquisition.Error() + ": " + e.err.Error() }
func (e *acquisitionError) Unwrap() error { return errs.ErrAcquisition }
