// Package models holds the value types shared across the fingerprinting
// pipeline: songs, peaks, fingerprints and the final match result.
package models

// Peak is a single local maximum picked out of a spectrogram.
type Peak struct {
	TimeBin   int
	FreqBin   int
	Time      float64 // seconds
	Freq      float64 // hertz
	Amplitude float64 // dB
}

// Fingerprint is one landmark hash anchored at Offset seconds into the
// channel it was extracted from.
type Fingerprint struct {
	Hash   string
	Offset float64
}

// Song is a row in the song catalog. NumFingerprints is populated only
// when GetSong is called with withFingerprints=true (an aggregate
// count, not the fingerprint rows themselves).
type Song struct {
	ID              int64
	Duration        float64
	FilePath        string
	FileHash        string
	Title           *string
	SourceID        *string
	NumFingerprints int
}

// Match describes the song, if any, that a query was aligned against.
type Match struct {
	Song                    Song
	Offset                  float64
	NumMatchingFingerprints int
	Confidence              float64
}
