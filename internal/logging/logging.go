// Package logging wires the process-wide structured logger. Errors are
// wrapped with go-xerrors before being attached to a log record so the
// resulting record carries a stack trace, matching the pattern used
// throughout the song-recognition family this project descends from.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/mdobak/go-xerrors"
)

// New builds a JSON slog.Logger at the given level, writing to w (os.Stdout
// if w is nil).
func New(level slog.Level, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// Wrap attaches a stack trace to err, or returns nil unchanged.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return xerrors.New(err)
}

// Error logs msg at error level with err wrapped and attached as the
// "error" attribute, plus any additional attrs.
func Error(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...slog.Attr) {
	args := make([]any, 0, len(attrs)+1)
	args = append(args, slog.Any("error", Wrap(err)))
	for _, a := range attrs {
		args = append(args, a)
	}
	logger.ErrorContext(ctx, msg, args...)
}
