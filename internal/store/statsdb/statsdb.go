// Package statsdb is a secondary reporting store for per-query
// statistics, adapted from Prayush09-MusicRecognition/main/db/db.go's
// GORM models (QuerySession/QueryResult). The primary fingerprint store
// (internal/store) is raw database/sql for the hot ingest/lookup path;
// this package keeps the teacher's GORM iteration alive for the kind of
// ad hoc reporting query GORM is pleasant for, rather than discarding it
// once the hot path moved to raw SQL.
package statsdb

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// QuerySession records one identify invocation.
type QuerySession struct {
	ID        int64 `gorm:"primaryKey"`
	StartedAt time.Time
	FilePath  string
	NumFingerprints int
}

// QueryResult records the aligner's verdict for a QuerySession.
type QueryResult struct {
	ID                      int64 `gorm:"primaryKey"`
	QuerySessionID          int64 `gorm:"index"`
	MatchedSongID           *int64
	Confidence              float64
	RelativeOffset          float64
	NumMatchingFingerprints int
}

// DB wraps a GORM connection scoped to the statistics schema.
type DB struct {
	gorm *gorm.DB
}

// Open connects to dsn and migrates the statistics tables.
func Open(dsn string) (*DB, error) {
	g, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := g.AutoMigrate(&QuerySession{}, &QueryResult{}); err != nil {
		return nil, err
	}
	return &DB{gorm: g}, nil
}

// RecordSession inserts a new query session and returns its id.
func (d *DB) RecordSession(ctx context.Context, filePath string, numFingerprints int) (int64, error) {
	s := QuerySession{StartedAt: time.Now(), FilePath: filePath, NumFingerprints: numFingerprints}
	if err := d.gorm.WithContext(ctx).Create(&s).Error; err != nil {
		return 0, err
	}
	return s.ID, nil
}

// RecordResult attaches an identify verdict to an existing session.
func (d *DB) RecordResult(ctx context.Context, sessionID int64, matchedSongID *int64, confidence, relOffset float64, numMatching int) error {
	r := QueryResult{
		QuerySessionID:          sessionID,
		MatchedSongID:           matchedSongID,
		Confidence:              confidence,
		RelativeOffset:          relOffset,
		NumMatchingFingerprints: numMatching,
	}
	return d.gorm.WithContext(ctx).Create(&r).Error
}

// SessionsForSong returns every query session that matched songID,
// useful for offline accuracy reporting.
func (d *DB) SessionsForSong(ctx context.Context, songID int64) ([]QueryResult, error) {
	var out []QueryResult
	err := d.gorm.WithContext(ctx).Where("matched_song_id = ?", songID).Find(&out).Error
	return out, err
}

// Close releases the underlying connection pool.
func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
