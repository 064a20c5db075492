package fingerprint

import (
	"context"
	"fmt"
	"sort"

	"shazoom/internal/errs"
	"shazoom/internal/peaks"
	"shazoom/internal/spectrogram"
	"shazoom/internal/wav"
	"shazoom/pkg/models"
)

// Config bundles the per-stage configuration needed to fingerprint a
// file end to end, per spec.md §9's "three small configuration
// structures" design note (spectrogram+peak config here, hash config
// folded in since both feed C5 directly).
type Config struct {
	Spectrogram spectrogram.Config
	Peaks       peaks.Config
	Hash        HashConfig
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Spectrogram: spectrogram.DefaultConfig(),
		Peaks:       peaks.DefaultConfig(),
		Hash:        DefaultHashConfig(),
	}
}

// Validate checks all three nested configs are in range.
func (c Config) Validate() error {
	if c.Spectrogram.WindowSize <= 0 || c.Spectrogram.HopSize <= 0 {
		return fmt.Errorf("%w: spectrogram window/hop must be positive", errs.ErrInvalidConfig)
	}
	if c.Peaks.Dilation < 1 || c.Peaks.Erosion < 0 {
		return fmt.Errorf("%w: peak dilation must be >= 1 and erosion >= 0", errs.ErrInvalidConfig)
	}
	return c.Hash.Validate()
}

// Engine composes the Decoder (C1), Spectrogram (C2), Peak Picker (C3)
// and Hasher (C4) into a per-file fingerprinter (C5), adapted from
// Prayush09-MusicRecognition's core/fingerprinting.go GenerateFingerprints.
type Engine struct {
	Config Config
}

// NewEngine constructs an Engine, validating cfg.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{Config: cfg}, nil
}

// FingerprintFile decodes path, fingerprints every channel and
// concatenates the results, and returns the file's SHA-1 hash alongside
// the fingerprints. Sample rate is taken entirely from the decoder.
func (e *Engine) FingerprintFile(ctx context.Context, path string) ([]models.Fingerprint, string, error) {
	channels, sampleRate, fileHash, err := wav.Decode(ctx, path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", errs.ErrDecode, err)
	}

	var all []models.Fingerprint
	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return nil, "", fmt.Errorf("%w: %v", errs.ErrCancelled, err)
		}
		fps, err := e.fingerprintChannel(ch, sampleRate)
		if err != nil {
			return nil, "", err
		}
		all = append(all, fps...)
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Offset < all[j].Offset })
	return all, fileHash, nil
}

// fingerprintChannel runs C2-C4 over a single channel's samples.
func (e *Engine) fingerprintChannel(samples []int16, sampleRate int) ([]models.Fingerprint, error) {
	floats := make([]float64, len(samples))
	for i, s := range samples {
		floats[i] = float64(s) / 32768.0
	}

	s, times, freqs, err := spectrogram.Compute(floats, sampleRate, e.Config.Spectrogram)
	if err != nil {
		return nil, fmt.Errorf("spectrogram: %w", err)
	}

	mask := peaks.Find(s, e.Config.Peaks)
	peakTimes, peakFreqs := peaks.Coordinates(mask, times, freqs)

	return Hash(peakTimes, peakFreqs, e.Config.Hash), nil
}
