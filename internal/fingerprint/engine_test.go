package fingerprint_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"

	"shazoom/internal/fingerprint"
	"shazoom/internal/testsignal"
)

func writeTestWAV(t *testing.T, samples []int16, sampleRate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "signal.wav")
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

func TestFingerprintFileDeterminism(t *testing.T) {
	samples := testsignal.Generate(testsignal.Params{
		Shape: testsignal.Sawtooth, Duration: 4, SampleRate: 10000,
		Frequency: 440, Amplitude: 0.6, Width: 0.7,
	})
	path := writeTestWAV(t, samples, 10000)

	engine, err := fingerprint.NewEngine(fingerprint.DefaultConfig())
	require.NoError(t, err)

	fps1, hash1, err := engine.FingerprintFile(context.Background(), path)
	require.NoError(t, err)
	fps2, hash2, err := engine.FingerprintFile(context.Background(), path)
	require.NoError(t, err)

	require.Equal(t, hash1, hash2)
	require.Equal(t, fps1, fps2)
	require.NotEmpty(t, fps1)
}

func TestFingerprintOffsetsWithinDuration(t *testing.T) {
	samples := testsignal.Generate(testsignal.Params{
		Shape: testsignal.Sine, Duration: 2, SampleRate: 10000, Frequency: 440, Amplitude: 1,
	})
	path := writeTestWAV(t, samples, 10000)

	engine, err := fingerprint.NewEngine(fingerprint.DefaultConfig())
	require.NoError(t, err)

	fps, _, err := engine.FingerprintFile(context.Background(), path)
	require.NoError(t, err)
	require.NotEmpty(t, fps)

	maxOffset := 2.0 + float64(engine.Config.Spectrogram.WindowSize)/10000
	for _, fp := range fps {
		require.GreaterOrEqual(t, fp.Offset, 0.0)
		require.LessOrEqual(t, fp.Offset, maxOffset)
	}
}
