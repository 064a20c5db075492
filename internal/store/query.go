package store

import (
	"fmt"
	"strings"

	"shazoom/internal/errs"
)

// buildQuerySongsSQL renders filters into a parameterized SELECT. Filters
// carries a single CompareOp, so at most one duration comparator is ever
// active; an unknown CompareOp value is rejected with ErrInvalidFilter.
func buildQuerySongsSQL(filters Filters) (string, []any, error) {
	var clauses []string
	var args []any
	n := 0
	next := func() int { n++; return n }

	if len(filters.IDs) > 0 {
		clauses = append(clauses, fmt.Sprintf("id = ANY($%d)", next()))
		args = append(args, pqInt64Array(filters.IDs))
	}
	if len(filters.FileHashes) > 0 {
		clauses = append(clauses, fmt.Sprintf("filehash = ANY($%d)", next()))
		args = append(args, pqTextArray(filters.FileHashes))
	}
	if len(filters.Titles) > 0 {
		clauses = append(clauses, fmt.Sprintf("title = ANY($%d)", next()))
		args = append(args, pqTextArray(filters.Titles))
	}
	if len(filters.SourceIDs) > 0 {
		clauses = append(clauses, fmt.Sprintf("source_id = ANY($%d)", next()))
		args = append(args, pqTextArray(filters.SourceIDs))
	}

	switch filters.CompareOp {
	case DurationNone:
	case DurationEqual:
		clauses = append(clauses, fmt.Sprintf("duration = $%d", next()))
		args = append(args, filters.Duration)
	case DurationGreaterThan:
		clauses = append(clauses, fmt.Sprintf("duration > $%d", next()))
		args = append(args, filters.Duration)
	case DurationLessThan:
		clauses = append(clauses, fmt.Sprintf("duration < $%d", next()))
		args = append(args, filters.Duration)
	default:
		return "", nil, fmt.Errorf("%w: unknown duration comparator", errs.ErrInvalidFilter)
	}

	query := "SELECT id, duration, filepath, filehash, title, source_id FROM song"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	return query, args, nil
}
