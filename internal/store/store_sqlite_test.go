package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"shazoom/pkg/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreInsertAndLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	title := "song one"
	songID, err := s.InsertSong(ctx, SongDescriptor{Duration: 4.0, FilePath: "/tmp/a.wav", FileHash: "abc", Title: &title})
	require.NoError(t, err)
	require.NotZero(t, songID)

	fps := []models.Fingerprint{
		{Hash: "aaaa", Offset: 0},
		{Hash: "bbbb", Offset: 1},
		{Hash: "cccc", Offset: 2},
	}
	require.NoError(t, s.InsertFingerprints(ctx, songID, fps))

	got, err := s.Lookup(ctx, []string{"aaaa", "bbbb", "cccc", "zzzz"})
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestStoreInsertingNFingerprintsExposesExactlyN(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	songID, err := s.InsertSong(ctx, SongDescriptor{FilePath: "/tmp/b.wav"})
	require.NoError(t, err)

	hashes := []string{"h1", "h2", "h3", "h4", "h5"}
	var fps []models.Fingerprint
	for i, h := range hashes {
		fps = append(fps, models.Fingerprint{Hash: h, Offset: float64(i)})
	}
	require.NoError(t, s.InsertFingerprints(ctx, songID, fps))

	got, err := s.Lookup(ctx, hashes)
	require.NoError(t, err)
	require.Len(t, got, len(hashes))
	for _, f := range got {
		require.Equal(t, songID, f.SongID)
	}
}

func TestStoreDeleteAllRemovesFingerprints(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	songID, err := s.InsertSong(ctx, SongDescriptor{FilePath: "/tmp/c.wav"})
	require.NoError(t, err)
	require.NoError(t, s.InsertFingerprints(ctx, songID, []models.Fingerprint{{Hash: "h1", Offset: 0}}))

	require.NoError(t, s.DeleteAll(ctx))

	got, err := s.Lookup(ctx, []string{"h1"})
	require.NoError(t, err)
	require.Empty(t, got)

	song, err := s.GetSong(ctx, songID, false)
	require.NoError(t, err)
	require.Nil(t, song)
}

func TestGetSongWithFingerprintsCountsAggregateOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	songID, err := s.InsertSong(ctx, SongDescriptor{FilePath: "/tmp/d.wav"})
	require.NoError(t, err)
	require.NoError(t, s.InsertFingerprints(ctx, songID, []models.Fingerprint{
		{Hash: "h1", Offset: 0}, {Hash: "h2", Offset: 1}, {Hash: "h3", Offset: 2},
	}))

	without, err := s.GetSong(ctx, songID, false)
	require.NoError(t, err)
	require.Zero(t, without.NumFingerprints)

	with, err := s.GetSong(ctx, songID, true)
	require.NoError(t, err)
	require.Equal(t, 3, with.NumFingerprints)
}

func TestQuerySongsFiltersByDuration(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.InsertSong(ctx, SongDescriptor{FilePath: "/tmp/short.wav", Duration: 10})
	require.NoError(t, err)
	_, err = s.InsertSong(ctx, SongDescriptor{FilePath: "/tmp/long.wav", Duration: 100})
	require.NoError(t, err)

	longer, err := s.QuerySongs(ctx, Filters{CompareOp: DurationGreaterThan, Duration: 50})
	require.NoError(t, err)
	require.Len(t, longer, 1)
	require.Equal(t, "/tmp/long.wav", longer[0].FilePath)
}
