// Package matchresult defines the JSON match result object emitted to
// callers, per spec.md §6.
package matchresult

// MatchingSong is the nested song summary inside a Result.
type MatchingSong struct {
	ID              int64   `json:"id"`
	Title           *string `json:"title"`
	SourceID        *string `json:"source_id"`
	Duration        *float64 `json:"duration"`
	FileHash        string  `json:"filehash"`
	NumFingerprints int     `json:"num_fingerprints"`
}

// Stats is the nested match_stats object inside a Result.
type Stats struct {
	NumMatchingFingerprints int     `json:"num_matching_fingerprints"`
	Confidence              float64 `json:"confidence"`
	IoU                     float64 `json:"iou"`
	RelativeOffset          float64 `json:"relative_offset"`
}

// Result is the top-level match result object, emitted as JSON.
type Result struct {
	SourceID        *string       `json:"source_id"`
	Title           *string       `json:"title"`
	Duration        *float64      `json:"duration"`
	Path            string        `json:"path"`
	FileHash        string        `json:"filehash"`
	NumFingerprints int           `json:"num_fingerprints"`
	MatchingSong    *MatchingSong `json:"matching_song"`
	MatchStats      *Stats        `json:"match_stats"`
}
