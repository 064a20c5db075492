// Package align implements the Aligner (C7): given a query's
// fingerprints and the store's hash matches, it computes the best
// candidate song and the alignment offset, by taking the mode of the
// offset-delta histogram per candidate, per spec.md §4.7. The teacher's
// core/shazoom.go sketches the same signatures (Match, FindMatches) but
// its FindMatchesUsingFingerPrints body was never completed (a dangling
// duplicated-iteration artifact); the body below is written fresh from
// the specification and from original_source's description of the
// matching step.
package align

import (
	"math"
	"sort"

	"shazoom/pkg/models"
)

// Config controls the quantization bin used when comparing offsets.
type Config struct {
	BinWidth float64 // beta, seconds, default 0.2
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{BinWidth: 0.2}
}

// QueryFingerprint is a (hash, offset) pair from the unknown recording.
type QueryFingerprint struct {
	Hash   string
	Offset float64
}

// CandidateFingerprint is a (song_id, hash, offset) row returned by the
// store for the set of query hashes.
type CandidateFingerprint struct {
	SongID int64
	Hash   string
	Offset float64
}

// Result is the aligner's verdict for one query.
type Result struct {
	SongID                  int64
	NumMatchingFingerprints int
	RelativeOffset          float64
}

// Align runs the six-step histogram algorithm of spec.md §4.7 and
// reports whether any (song_id, hash) pair overlapped at all.
func Align(queryFPs []QueryFingerprint, candidateFPs []CandidateFingerprint, cfg Config) (Result, bool) {
	if cfg.BinWidth <= 0 {
		cfg.BinWidth = DefaultConfig().BinWidth
	}

	// Q[hash] -> [floor(offset/beta)...]
	q := make(map[string][]int)
	for _, fp := range queryFPs {
		q[fp.Hash] = append(q[fp.Hash], quantize(fp.Offset, cfg.BinWidth))
	}

	// C[songID][hash] -> [floor(offset/beta)...]
	c := make(map[int64]map[string][]int)
	for _, fp := range candidateFPs {
		bySong, ok := c[fp.SongID]
		if !ok {
			bySong = make(map[string][]int)
			c[fp.SongID] = bySong
		}
		bySong[fp.Hash] = append(bySong[fp.Hash], quantize(fp.Offset, cfg.BinWidth))
	}

	type histogram map[int]int // delta -> count
	r := make(map[int64]histogram)
	matched := false

	for songID, bySong := range c {
		for hash, candOffsets := range bySong {
			queryOffsets, ok := q[hash]
			if !ok {
				continue
			}
			matched = true
			hist, ok := r[songID]
			if !ok {
				hist = histogram{}
				r[songID] = hist
			}
			for _, qOff := range queryOffsets {
				for _, cOff := range candOffsets {
					delta := cOff - qOff
					hist[delta]++
				}
			}
		}
	}

	if !matched {
		return Result{}, false
	}

	var bestSongID int64
	var bestPeakCount, bestPeakDelta int
	first := true
	// Deterministic iteration, smallest song_id wins ties (song_id is
	// assigned in insertion order at the store, per spec.md §4.7 step 5).
	ids := make([]int64, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, songID := range ids {
		peakDelta, peakCount := mode(r[songID])
		if first || peakCount > bestPeakCount {
			bestSongID, bestPeakCount, bestPeakDelta = songID, peakCount, peakDelta
			first = false
		}
	}

	numMatching := bestPeakCount
	if numMatching > len(queryFPs) {
		numMatching = len(queryFPs)
	}

	return Result{
		SongID:                  bestSongID,
		NumMatchingFingerprints: numMatching,
		RelativeOffset:          float64(bestPeakDelta) * cfg.BinWidth,
	}, true
}

// Confidence computes num_matching_fingerprints / |query_fps|.
func Confidence(numMatching, numQueryFPs int) float64 {
	if numQueryFPs == 0 {
		return 0
	}
	return float64(numMatching) / float64(numQueryFPs)
}

// IoU computes num_matching / (|query_fps| + |match_fps| - num_matching).
func IoU(numMatching, numQueryFPs, numMatchFPs int) float64 {
	denom := numQueryFPs + numMatchFPs - numMatching
	if denom <= 0 {
		return 0
	}
	return float64(numMatching) / float64(denom)
}

func quantize(offset, beta float64) int {
	return int(math.Floor(offset / beta))
}

// mode returns the most common delta and its multiplicity; ties are
// broken by smallest delta for determinism (spec.md does not specify a
// tie-break within a single song's histogram).
func mode(h map[int]int) (peakDelta, peakCount int) {
	first := true
	for delta, count := range h {
		if first || count > peakCount || (count == peakCount && delta < peakDelta) {
			peakDelta, peakCount = delta, count
			first = false
		}
	}
	return peakDelta, peakCount
}

// FromModels adapts models.Fingerprint query results into the aligner's
// input shape.
func FromModels(fps []models.Fingerprint) []QueryFingerprint {
	out := make([]QueryFingerprint, len(fps))
	for i, fp := range fps {
		out[i] = QueryFingerprint{Hash: fp.Hash, Offset: fp.Offset}
	}
	return out
}
