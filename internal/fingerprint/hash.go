// Package fingerprint implements the Hasher (C4) and Fingerprint Engine
// (C5). The hash algorithm is ported from
// original_source/youtube_audio_matcher/audio/fingerprint.py's
// hash_peaks: quantize the anchor/target frequency bins and the time
// delta, canonicalize into a string, and truncate a SHA-1 digest to
// hash_length hex characters. This replaces the teacher's
// (Prayush09-MusicRecognition core/fingerprinting.go) 32-bit bit-packed
// address scheme, which spec.md's data model and the original this spec
// was distilled from both reject in favor of the hex-digest form; see
// DESIGN.md.
package fingerprint

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"

	"shazoom/internal/errs"
	"shazoom/pkg/models"
)

// HashConfig controls target-zone hashing.
type HashConfig struct {
	Fanout      int     // F >= 1
	MinTimeDelta float64 // seconds
	MaxTimeDelta float64 // seconds, must be > MinTimeDelta
	TimeBin      float64 // tau > 0
	FreqBin      float64 // phi > 0
	HashLength   int     // L in [1, 40]
}

// DefaultHashConfig returns the configuration used when none is supplied.
func DefaultHashConfig() HashConfig {
	return HashConfig{
		Fanout:       5,
		MinTimeDelta: 0,
		MaxTimeDelta: 10,
		TimeBin:      1.0 / 200,
		FreqBin:      1.0,
		HashLength:   20,
	}
}

// Validate rejects out-of-range parameters per spec.md's invalid-config
// error kind.
func (c HashConfig) Validate() error {
	switch {
	case c.Fanout < 1:
		return fmt.Errorf("%w: fanout must be >= 1", errs.ErrInvalidConfig)
	case c.MaxTimeDelta <= c.MinTimeDelta:
		return fmt.Errorf("%w: max_time_delta must exceed min_time_delta", errs.ErrInvalidConfig)
	case c.TimeBin <= 0 || c.FreqBin <= 0:
		return fmt.Errorf("%w: time_bin and freq_bin must be positive", errs.ErrInvalidConfig)
	case c.HashLength < 1 || c.HashLength > 40:
		return fmt.Errorf("%w: hash_length must be in [1, 40]", errs.ErrInvalidConfig)
	}
	return nil
}

// Hash pairs each anchor peak with up to Fanout subsequent peaks inside
// the target zone [MinTimeDelta, MaxTimeDelta], emitting one
// models.Fingerprint per pair, ordered by ascending anchor time. peakTimes
// and peakFreqs must already be sorted by time ascending (stable
// tie-break by frequency), as produced by peaks.Coordinates.
func Hash(peakTimes, peakFreqs []float64, cfg HashConfig) []models.Fingerprint {
	var out []models.Fingerprint
	n := len(peakTimes)
	for i := 0; i < n; i++ {
		ti, fi := peakTimes[i], peakFreqs[i]
		limit := i + cfg.Fanout
		if limit > n-1 {
			limit = n - 1
		}
		for j := i + 1; j <= limit; j++ {
			dt := peakTimes[j] - ti
			if dt < cfg.MinTimeDelta || dt > cfg.MaxTimeDelta {
				continue
			}
			qdt := math.Floor(dt / cfg.TimeBin)
			qfi := math.Floor(fi / cfg.FreqBin)
			qfj := math.Floor(peakFreqs[j] / cfg.FreqBin)
			canonical := fmt.Sprintf("%d%d%d", int64(qfi), int64(qfj), int64(qdt))
			sum := sha1.Sum([]byte(canonical))
			digest := hex.EncodeToString(sum[:])
			out = append(out, models.Fingerprint{Hash: digest[:cfg.HashLength], Offset: ti})
		}
	}
	return out
}
