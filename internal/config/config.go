// Package config loads the application's layered configuration (file +
// environment) via koanf, grounded on go-musicfox's
// koanf-based config loading (the only pack example using a layered
// config library; the teacher itself reads os.Getenv directly in
// db/client.go, so koanf is adopted from the wider example pack rather
// than the teacher).
package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"shazoom/internal/align"
	"shazoom/internal/errs"
	"shazoom/internal/fingerprint"
)

// App is the top-level application configuration: the three small
// structures spec.md §9 calls for (spectrogram+peak+hash folded into
// fingerprint.Config, plus alignment config), constructed once at the
// entry point and passed by value to workers.
type App struct {
	Fingerprint fingerprint.Config
	Align       align.Config

	DatabaseDSN   string
	DatabaseKind  string // "postgres" or "sqlite"
	Workers       int
	ConfThreshold float64

	// StatsDSN, when set, opens internal/store/statsdb for per-query
	// reporting alongside the primary store. Empty disables it.
	StatsDSN string
}

// DefaultApp returns the configuration used when no file/env overrides
// are present.
func DefaultApp() App {
	return App{
		Fingerprint:   fingerprint.DefaultConfig(),
		Align:         align.DefaultConfig(),
		DatabaseKind:  "sqlite",
		DatabaseDSN:   "shazoom.db",
		Workers:       0, // 0 means runtime.NumCPU()
		ConfThreshold: 0.01,
	}
}

// Load layers a TOML file (if path is non-empty) and SHAZOOM_*
// environment variables over DefaultApp(), in that order, matching
// koanf's documented file-then-env precedence.
func Load(path string) (App, error) {
	app := DefaultApp()

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return app, fmt.Errorf("%w: load config file: %v", errs.ErrInvalidConfig, err)
		}
	}
	if err := k.Load(env.Provider("SHAZOOM_", ".", normalizeEnvKey), nil); err != nil {
		return app, fmt.Errorf("%w: load env: %v", errs.ErrInvalidConfig, err)
	}

	if v := k.String("database.dsn"); v != "" {
		app.DatabaseDSN = v
	}
	if v := k.String("database.kind"); v != "" {
		app.DatabaseKind = v
	}
	if v := k.String("stats.dsn"); v != "" {
		app.StatsDSN = v
	}
	if k.Exists("workers") {
		app.Workers = k.Int("workers")
	}
	if k.Exists("conf_threshold") {
		app.ConfThreshold = k.Float64("conf_threshold")
	}
	if k.Exists("fingerprint.hash.length") {
		app.Fingerprint.Hash.HashLength = k.Int("fingerprint.hash.length")
	}
	if k.Exists("align.bin_width") {
		app.Align.BinWidth = k.Float64("align.bin_width")
	}

	if err := app.Fingerprint.Validate(); err != nil {
		return app, err
	}
	return app, nil
}

func normalizeEnvKey(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s[len("SHAZOOM_"):] {
		if r == '_' {
			out = append(out, '.')
			continue
		}
		out = append(out, toLower(r))
	}
	return string(out)
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
