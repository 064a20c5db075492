package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shazoom/internal/acquire"
	"shazoom/internal/config"
	"shazoom/internal/fingerprint"
	"shazoom/internal/matchresult"
	"shazoom/internal/pipeline"
	"shazoom/internal/store"
	"shazoom/internal/store/statsdb"
)

func newIngestCmd(logger *slog.Logger, configPath *string) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "ingest [paths...]",
		Short: "Fingerprint and store one or more songs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), logger, *configPath, pipeline.ModeIngest, args, workers, "text")
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "CPU worker pool size (default: number of CPUs)")
	return cmd
}

func newIdentifyCmd(logger *slog.Logger, configPath *string) *cobra.Command {
	var workers int
	var output string
	cmd := &cobra.Command{
		Use:   "identify [paths...]",
		Short: "Identify one or more unknown recordings against the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), logger, *configPath, pipeline.ModeIdentify, args, workers, output)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "CPU worker pool size (default: number of CPUs)")
	cmd.Flags().StringVar(&output, "output", "text", `result format: "text" or "json"`)
	return cmd
}

func runPipeline(parent context.Context, logger *slog.Logger, configPath string, mode pipeline.Mode, paths []string, workers int, output string) error {
	if len(paths) == 0 {
		return fmt.Errorf("at least one file or directory path is required")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := fingerprint.NewEngine(cfg.Fingerprint)
	if err != nil {
		return err
	}

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	var stats *statsdb.DB
	if mode == pipeline.ModeIdentify && cfg.StatsDSN != "" {
		stats, err = statsdb.Open(cfg.StatsDSN)
		if err != nil {
			logger.Warn("stats db unavailable, continuing without it", "error", err)
		} else {
			defer stats.Close()
		}
	}

	p := &pipeline.Pipeline{
		Store:         s,
		Engine:        engine,
		AlignConfig:   cfg.Align,
		Mode:          mode,
		Workers:       workers,
		ConfThreshold: cfg.ConfThreshold,
		Logger:        logger,
		ShowProgress:  true,
	}

	results, err := p.Run(ctx, []acquire.Source{acquire.LocalPathSource{Paths: paths}})
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Err != nil {
			logger.Error("song failed", "path", r.Descriptor.Path, "error", r.Err)
			continue
		}
		if mode == pipeline.ModeIdentify && stats != nil {
			recordStats(ctx, stats, r, logger)
		}
	}

	switch output {
	case "json":
		return printJSON(ctx, s, results)
	default:
		printText(results, mode, logger)
		return nil
	}
}

func printText(results []pipeline.SongResult, mode pipeline.Mode, logger *slog.Logger) {
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		switch mode {
		case pipeline.ModeIngest:
			logger.Info("ingested", "path", r.Descriptor.Path, "song_id", r.SongID)
		default:
			if r.Match != nil {
				logger.Info("match", "path", r.Descriptor.Path, "song_id", r.Match.SongID, "confidence", r.Confidence)
			} else {
				logger.Info("no match", "path", r.Descriptor.Path)
			}
		}
	}
}

// printJSON renders each identify result as the §6 match result object,
// one JSON value per line, enriching a match with the stored song row.
// The top-level filehash field is always empty: SongResult does not carry
// the query file's hash.
func printJSON(ctx context.Context, s store.Store, results []pipeline.SongResult) error {
	enc := json.NewEncoder(os.Stdout)
	for _, r := range results {
		out := matchresult.Result{
			SourceID:        r.Descriptor.SourceID,
			Title:           r.Descriptor.Title,
			Duration:        r.Descriptor.Duration,
			Path:            r.Descriptor.Path,
			NumFingerprints: r.NumQueryFingerprints,
		}
		if r.Match != nil {
			ms := &matchresult.MatchingSong{
				ID: r.Match.SongID,
			}
			if song, err := s.GetSong(ctx, r.Match.SongID, true); err == nil && song != nil {
				ms.Title = song.Title
				ms.SourceID = song.SourceID
				ms.Duration = &song.Duration
				ms.FileHash = song.FileHash
				ms.NumFingerprints = song.NumFingerprints
			}
			out.MatchingSong = ms
			out.MatchStats = &matchresult.Stats{
				NumMatchingFingerprints: r.Match.NumMatchingFingerprints,
				Confidence:              r.Confidence,
				IoU:                     r.IoU,
				RelativeOffset:          r.Match.RelativeOffset,
			}
		}
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}
	return nil
}

// recordStats persists an identify verdict to the secondary reporting
// store; failures there never fail the identify command itself.
func recordStats(ctx context.Context, stats *statsdb.DB, r pipeline.SongResult, logger *slog.Logger) {
	sessionID, err := stats.RecordSession(ctx, r.Descriptor.Path, 0)
	if err != nil {
		logger.Warn("stats: record session failed", "error", err)
		return
	}
	var matchedSongID *int64
	var relOffset float64
	var numMatching int
	if r.Match != nil {
		id := r.Match.SongID
		matchedSongID = &id
		relOffset = r.Match.RelativeOffset
		numMatching = r.Match.NumMatchingFingerprints
	}
	if err := stats.RecordResult(ctx, sessionID, matchedSongID, r.Confidence, relOffset, numMatching); err != nil {
		logger.Warn("stats: record result failed", "error", err)
	}
}

func openStore(ctx context.Context, cfg config.App) (store.Store, error) {
	switch cfg.DatabaseKind {
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.DatabaseDSN)
	default:
		return store.NewSQLiteStore(ctx, cfg.DatabaseDSN)
	}
}
