package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"

	"shazoom/internal/acquire"
	"shazoom/internal/align"
	"shazoom/internal/fingerprint"
	"shazoom/internal/pipeline"
	"shazoom/internal/store"
	"shazoom/internal/testsignal"
)

func writeWAV(t *testing.T, dir, name string, samples []int16, sampleRate int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   make([]int, len(samples)),
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}

// TestIngestIdentifyRoundTrip covers spec.md §8's E1 scenario: ingesting
// a synthetic sawtooth and then identifying the same byte-for-byte file
// must match with confidence 1.0.
func TestIngestIdentifyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sawtooth := testsignal.Generate(testsignal.Params{
		Shape: testsignal.Sawtooth, Duration: 4, SampleRate: 10000,
		Frequency: 440, Amplitude: 0.6, Width: 0.7,
	})
	songPath := writeWAV(t, dir, "song.wav", sawtooth, 10000)

	s, err := store.NewSQLiteStore(context.Background(), filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	defer s.Close()

	engine, err := fingerprint.NewEngine(fingerprint.DefaultConfig())
	require.NoError(t, err)

	ingest := &pipeline.Pipeline{
		Store: s, Engine: engine, Mode: pipeline.ModeIngest, Workers: 2,
	}
	ingestResults, err := ingest.Run(context.Background(), []acquire.Source{
		acquire.LocalPathSource{Paths: []string{songPath}},
	})
	require.NoError(t, err)
	require.Len(t, ingestResults, 1)
	require.NoError(t, ingestResults[0].Err)
	require.NotZero(t, ingestResults[0].SongID)

	identify := &pipeline.Pipeline{
		Store: s, Engine: engine, Mode: pipeline.ModeIdentify, Workers: 2,
		AlignConfig: align.DefaultConfig(), ConfThreshold: 0.01,
	}
	identifyResults, err := identify.Run(context.Background(), []acquire.Source{
		acquire.LocalPathSource{Paths: []string{songPath}},
	})
	require.NoError(t, err)
	require.Len(t, identifyResults, 1)
	require.NotNil(t, identifyResults[0].Match)
	require.Equal(t, ingestResults[0].SongID, identifyResults[0].Match.SongID)
	require.InDelta(t, 1.0, identifyResults[0].Confidence, 1e-9)
	require.InDelta(t, 1.0, identifyResults[0].IoU, 1e-9)
}

// TestIdentifyPrefixQueryHasLowerIoUThanConfidence covers spec.md §8's
// prefix-query scenario: a query built from a prefix of a longer ingested
// song matches with confidence 1.0 (every query fingerprint is found) but
// IoU strictly below 1.0, since the matched song has more fingerprints
// than the query. This distinguishes IoU's |match_fps| term from
// num_matching_fingerprints.
func TestIdentifyPrefixQueryHasLowerIoUThanConfidence(t *testing.T) {
	dir := t.TempDir()
	full := testsignal.Generate(testsignal.Params{
		Shape: testsignal.Sawtooth, Duration: 8, SampleRate: 10000,
		Frequency: 440, Amplitude: 0.6, Width: 0.7,
	})
	songPath := writeWAV(t, dir, "song.wav", full, 10000)
	prefixPath := writeWAV(t, dir, "prefix.wav", full[:len(full)/4], 10000)

	s, err := store.NewSQLiteStore(context.Background(), filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	defer s.Close()

	engine, err := fingerprint.NewEngine(fingerprint.DefaultConfig())
	require.NoError(t, err)

	ingest := &pipeline.Pipeline{Store: s, Engine: engine, Mode: pipeline.ModeIngest, Workers: 2}
	_, err = ingest.Run(context.Background(), []acquire.Source{
		acquire.LocalPathSource{Paths: []string{songPath}},
	})
	require.NoError(t, err)

	identify := &pipeline.Pipeline{
		Store: s, Engine: engine, Mode: pipeline.ModeIdentify, Workers: 2,
		AlignConfig: align.DefaultConfig(), ConfThreshold: 0.01,
	}
	results, err := identify.Run(context.Background(), []acquire.Source{
		acquire.LocalPathSource{Paths: []string{prefixPath}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Match)
	require.Less(t, results[0].IoU, results[0].Confidence)
}

// TestTwoSongDiscrimination covers spec.md §8's E5 scenario: querying
// one ingested song's file must match that song, not an unrelated song
// also present in the store.
func TestTwoSongDiscrimination(t *testing.T) {
	dir := t.TempDir()
	sawtooth := testsignal.Generate(testsignal.Params{
		Shape: testsignal.Sawtooth, Duration: 4, SampleRate: 10000,
		Frequency: 440, Amplitude: 0.6, Width: 0.7,
	})
	sine := testsignal.Generate(testsignal.Params{
		Shape: testsignal.Sine, Duration: 4, SampleRate: 10000, Frequency: 440, Amplitude: 0.6,
	})
	song1 := writeWAV(t, dir, "song1.wav", sawtooth, 10000)
	song2 := writeWAV(t, dir, "song2.wav", sine, 10000)

	s, err := store.NewSQLiteStore(context.Background(), filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	defer s.Close()

	engine, err := fingerprint.NewEngine(fingerprint.DefaultConfig())
	require.NoError(t, err)

	ingest := &pipeline.Pipeline{Store: s, Engine: engine, Mode: pipeline.ModeIngest, Workers: 2}
	_, err = ingest.Run(context.Background(), []acquire.Source{
		acquire.LocalPathSource{Paths: []string{song1, song2}},
	})
	require.NoError(t, err)

	songs, err := s.QuerySongs(context.Background(), store.Filters{})
	require.NoError(t, err)
	require.Len(t, songs, 2)

	var sineSongID int64
	for _, song := range songs {
		if song.FilePath == song2 {
			sineSongID = song.ID
		}
	}
	require.NotZero(t, sineSongID)

	identify := &pipeline.Pipeline{
		Store: s, Engine: engine, Mode: pipeline.ModeIdentify, Workers: 2,
		AlignConfig: align.DefaultConfig(), ConfThreshold: 0.01,
	}
	results, err := identify.Run(context.Background(), []acquire.Source{
		acquire.LocalPathSource{Paths: []string{song2}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Match)
	require.Equal(t, sineSongID, results[0].Match.SongID)
}

// TestAcquisitionFailurePropagatesEmptyFingerprints covers spec.md
// §4.8's rule that a descriptor with an absent path is forwarded with
// an empty fingerprint set rather than fingerprinted.
func TestAcquisitionFailurePropagatesEmptyFingerprints(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewSQLiteStore(context.Background(), filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	defer s.Close()

	engine, err := fingerprint.NewEngine(fingerprint.DefaultConfig())
	require.NoError(t, err)

	p := &pipeline.Pipeline{Store: s, Engine: engine, Mode: pipeline.ModeIngest, Workers: 1}

	failing := fakeSource{descriptors: []acquire.SongDescriptor{{Path: ""}}}
	results, err := p.Run(context.Background(), []acquire.Source{failing})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Zero(t, results[0].SongID)
	require.NoError(t, results[0].Err)
}

type fakeSource struct {
	descriptors []acquire.SongDescriptor
}

func (f fakeSource) Descriptors(ctx context.Context) (<-chan acquire.SongDescriptor, error) {
	out := make(chan acquire.SongDescriptor, len(f.descriptors))
	for _, d := range f.descriptors {
		out <- d
	}
	close(out)
	return out, nil
}
