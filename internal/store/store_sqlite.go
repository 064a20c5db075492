package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"shazoom/internal/errs"
	"shazoom/pkg/models"
)

// SQLiteStore is a local/dev-mode C6 backend requiring no external
// database process, grounded on
// IAMAMZ-aalice-drone-detection-knn-backend/server/db/sqlite.go.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the sqlite file at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: mkdir: %v", errs.ErrStore, err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", errs.ErrStore, err)
	}
	// sqlite3 has no real connection pooling; serialize writers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.createTables(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS song (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			duration   REAL,
			filepath   TEXT,
			filehash   TEXT,
			title      TEXT,
			source_id  TEXT
		);
		CREATE TABLE IF NOT EXISTS fingerprint (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			song_id  INTEGER NOT NULL REFERENCES song(id),
			hash     TEXT NOT NULL,
			offset_s REAL NOT NULL,
			UNIQUE(song_id, hash, offset_s)
		);
		CREATE INDEX IF NOT EXISTS fingerprint_hash_idx ON fingerprint(hash);
	`)
	if err != nil {
		return fmt.Errorf("%w: create tables: %v", errs.ErrStore, err)
	}
	return nil
}

func (s *SQLiteStore) InsertSong(ctx context.Context, desc SongDescriptor) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO song (duration, filepath, filehash, title, source_id)
		VALUES (?, ?, ?, ?, ?)
	`, nullableFloat(desc.Duration), desc.FilePath, desc.FileHash, desc.Title, desc.SourceID)
	if err != nil {
		return 0, fmt.Errorf("%w: insert song: %v", errs.ErrStore, err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) InsertFingerprints(ctx context.Context, songID int64, fps []models.Fingerprint) error {
	if len(fps) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", errs.ErrStore, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO fingerprint (song_id, hash, offset_s) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: prepare: %v", errs.ErrStore, err)
	}
	defer stmt.Close()

	for _, fp := range fps {
		if _, err := stmt.ExecContext(ctx, songID, fp.Hash, fp.Offset); err != nil {
			return fmt.Errorf("%w: insert fingerprint: %v", errs.ErrStore, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Lookup(ctx context.Context, hashes []string) ([]StoredFingerprint, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(hashes))
	args := make([]any, len(hashes))
	for i, h := range hashes {
		placeholders[i] = "?"
		args[i] = h
	}
	query := fmt.Sprintf(
		`SELECT song_id, hash, offset_s FROM fingerprint WHERE hash IN (%s)`,
		strings.Join(placeholders, ","),
	)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup: %v", errs.ErrStore, err)
	}
	defer rows.Close()

	var out []StoredFingerprint
	for rows.Next() {
		var f StoredFingerprint
		if err := rows.Scan(&f.SongID, &f.Hash, &f.Offset); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", errs.ErrStore, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetSong(ctx context.Context, songID int64, withFingerprints bool) (*models.Song, error) {
	var song models.Song
	var duration sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, duration, filepath, filehash, title, source_id FROM song WHERE id = ?
	`, songID).Scan(&song.ID, &duration, &song.FilePath, &song.FileHash, &song.Title, &song.SourceID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get song: %v", errs.ErrStore, err)
	}
	song.Duration = duration.Float64
	if withFingerprints {
		if err := s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM fingerprint WHERE song_id = ?
		`, songID).Scan(&song.NumFingerprints); err != nil {
			return nil, fmt.Errorf("%w: count fingerprints: %v", errs.ErrStore, err)
		}
	}
	return &song, nil
}

func (s *SQLiteStore) QuerySongs(ctx context.Context, filters Filters) ([]models.Song, error) {
	// sqlite mode is intended for local/dev use with modest catalogs;
	// filtering is applied in Go rather than building dialect-specific
	// dynamic SQL twice.
	all, err := s.allSongs(ctx)
	if err != nil {
		return nil, err
	}
	if filters.CompareOp != DurationNone {
		switch filters.CompareOp {
		case DurationEqual, DurationGreaterThan, DurationLessThan:
		default:
			return nil, fmt.Errorf("%w: unknown duration comparator", errs.ErrInvalidFilter)
		}
	}
	idSet := toSet(filters.IDs)
	hashSet := toSetStr(filters.FileHashes)
	titleSet := toSetStr(filters.Titles)
	sourceSet := toSetStr(filters.SourceIDs)

	var out []models.Song
	for _, song := range all {
		if len(idSet) > 0 && !idSet[song.ID] {
			continue
		}
		if len(hashSet) > 0 && !hashSet[song.FileHash] {
			continue
		}
		if len(titleSet) > 0 && (song.Title == nil || !titleSet[*song.Title]) {
			continue
		}
		if len(sourceSet) > 0 && (song.SourceID == nil || !sourceSet[*song.SourceID]) {
			continue
		}
		switch filters.CompareOp {
		case DurationEqual:
			if song.Duration != filters.Duration {
				continue
			}
		case DurationGreaterThan:
			if song.Duration <= filters.Duration {
				continue
			}
		case DurationLessThan:
			if song.Duration >= filters.Duration {
				continue
			}
		}
		out = append(out, song)
	}
	return out, nil
}

func (s *SQLiteStore) allSongs(ctx context.Context) ([]models.Song, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, duration, filepath, filehash, title, source_id FROM song`)
	if err != nil {
		return nil, fmt.Errorf("%w: query songs: %v", errs.ErrStore, err)
	}
	defer rows.Close()
	var out []models.Song
	for rows.Next() {
		var song models.Song
		var duration sql.NullFloat64
		if err := rows.Scan(&song.ID, &duration, &song.FilePath, &song.FileHash, &song.Title, &song.SourceID); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", errs.ErrStore, err)
		}
		song.Duration = duration.Float64
		out = append(out, song)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", errs.ErrStore, err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM fingerprint`); err != nil {
		return fmt.Errorf("%w: delete fingerprints: %v", errs.ErrStore, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM song`); err != nil {
		return fmt.Errorf("%w: delete songs: %v", errs.ErrStore, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func toSet(ids []int64) map[int64]bool {
	m := make(map[int64]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func toSetStr(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}
