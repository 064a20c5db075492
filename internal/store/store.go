// Package store implements the Fingerprint Store (C6): persisting songs
// and (song_id, hash, offset) fingerprints with bulk insert and
// hash-indexed lookup. Two backends are provided: PostgresStore
// (grounded on Prayush09-MusicRecognition/db/postgres.go) and
// SQLiteStore (grounded on
// IAMAMZ-aalice-drone-detection-knn-backend/server/db/sqlite.go).
package store

import (
	"context"

	"shazoom/pkg/models"
)

// SongDescriptor is the input to InsertSong; any field may be absent.
type SongDescriptor struct {
	Duration float64
	FilePath string
	FileHash string
	Title    *string
	SourceID *string
}

// StoredFingerprint is a single (song_id, hash, offset) row returned by
// Lookup.
type StoredFingerprint struct {
	SongID int64
	Hash   string
	Offset float64
}

// DurationComparator selects how Filters.Duration constrains query_songs.
type DurationComparator int

const (
	DurationNone DurationComparator = iota
	DurationEqual
	DurationGreaterThan
	DurationLessThan
)

// Filters narrows query_songs. At most one of the Duration comparator
// fields may be active; CompareOp == DurationNone means "no duration
// filter".
type Filters struct {
	IDs        []int64
	FileHashes []string
	Titles     []string
	SourceIDs  []string
	CompareOp  DurationComparator
	Duration   float64
}

// Store is the C6 contract.
type Store interface {
	InsertSong(ctx context.Context, desc SongDescriptor) (int64, error)
	InsertFingerprints(ctx context.Context, songID int64, fps []models.Fingerprint) error
	Lookup(ctx context.Context, hashes []string) ([]StoredFingerprint, error)
	// GetSong fetches a song row; withFingerprints additionally populates
	// models.Song.NumFingerprints via a COUNT(*) aggregate.
	GetSong(ctx context.Context, songID int64, withFingerprints bool) (*models.Song, error)
	QuerySongs(ctx context.Context, filters Filters) ([]models.Song, error)
	DeleteAll(ctx context.Context) error
	Close() error
}
