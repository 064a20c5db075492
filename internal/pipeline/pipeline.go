// Package pipeline implements the Pipeline (C8): a three-stage
// directed graph — acquisition -> fingerprint workers -> terminal
// worker — connected by bounded channels, generalized from
// tefkah-seek-tune/server/cmdHandlers.go's processFilesConcurrently
// (a single jobs/results worker pool sized to runtime.NumCPU()) into
// the full acquire/fingerprint/store-or-align graph spec.md §4.8
// describes. End-of-stream is signalled the idiomatic Go way — a
// closed channel — rather than a sentinel value threaded through a
// generic queue; with N acquisition producers feeding one queue, the
// channel is closed only once every producer has finished, via a
// sync.WaitGroup, which is the fan-in pattern Go's own documentation
// uses for exactly this shape of problem.
package pipeline

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"shazoom/internal/acquire"
	"shazoom/internal/align"
	"shazoom/internal/fingerprint"
	"shazoom/internal/logging"
	"shazoom/internal/store"
	"shazoom/pkg/models"
)

// Mode selects the terminal stage.
type Mode int

const (
	ModeIngest Mode = iota
	ModeIdentify
)

// FingerprintedSong is a descriptor annotated with the Fingerprint
// Engine's output, the unit passed from the fingerprint stage to the
// terminal stage over Q_db.
type FingerprintedSong struct {
	Descriptor      acquire.SongDescriptor
	Fingerprints    []models.Fingerprint
	FileHash        string
	CorrelationID   string
}

// SongResult is one terminal-stage outcome, collected regardless of mode.
type SongResult struct {
	Descriptor           acquire.SongDescriptor
	SongID               int64         // ingest mode
	NumQueryFingerprints int           // |query_fps|, both modes
	Match                *align.Result // identify mode
	Confidence           float64
	IoU                  float64
	Err                  error
}

// Pipeline owns the worker pools and queue depths; it holds no
// process-wide state, per spec.md §9's "caller owns the lifecycle" note.
type Pipeline struct {
	Store         store.Store
	Engine        *fingerprint.Engine
	AlignConfig   align.Config
	Mode          Mode
	Workers       int // 0 means runtime.NumCPU()
	QueueDepth    int // 0 means 2*Workers
	ConfThreshold float64
	Logger        *slog.Logger
	ShowProgress  bool
}

var (
	stageQueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "shazoom_pipeline_queue_depth",
		Help: "Current number of items buffered in a pipeline stage queue.",
	}, []string{"queue"})
	stageProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shazoom_pipeline_processed_total",
		Help: "Total items processed by a pipeline stage.",
	}, []string{"stage"})
)

func init() {
	prometheus.MustRegister(stageQueueDepth, stageProcessed)
}

// Run drives sources through the pipeline and returns every collected
// SongResult, including partial results gathered before cancellation.
func (p *Pipeline) Run(ctx context.Context, sources []acquire.Source) ([]SongResult, error) {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	queueDepth := p.QueueDepth
	if queueDepth <= 0 {
		queueDepth = 2 * workers
	}
	logger := p.Logger
	if logger == nil {
		logger = logging.New(slog.LevelInfo, nil)
	}

	qFP := make(chan acquire.SongDescriptor, queueDepth)
	qDB := make(chan FingerprintedSong, queueDepth)

	var producers sync.WaitGroup
	for _, src := range sources {
		descriptors, err := src.Descriptors(ctx)
		if err != nil {
			return nil, err
		}
		producers.Add(1)
		go func(ch <-chan acquire.SongDescriptor) {
			defer producers.Done()
			for d := range ch {
				select {
				case qFP <- d:
					stageQueueDepth.WithLabelValues("qfp").Inc()
				case <-ctx.Done():
					return
				}
			}
		}(descriptors)
	}
	go func() {
		producers.Wait()
		close(qFP)
	}()

	var bar *progressbar.ProgressBar
	if p.ShowProgress {
		bar = progressbar.Default(-1, "fingerprinting")
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(workers))

	g.Go(func() error {
		defer close(qDB)
		var wg sync.WaitGroup
		for desc := range qFP {
			if err := sem.Acquire(gctx, 1); err != nil {
				wg.Wait()
				return nil //nolint:nilerr // cooperative cancellation drains cleanly
			}
			wg.Add(1)
			go func(d acquire.SongDescriptor) {
				defer sem.Release(1)
				defer wg.Done()
				p.fingerprintOne(gctx, d, qDB, logger, bar)
			}(desc)
		}
		wg.Wait()
		return nil
	})

	var results []SongResult
	var resultsMu sync.Mutex
	g.Go(func() error {
		for fs := range qDB {
			res := p.terminal(gctx, fs, logger)
			resultsMu.Lock()
			results = append(results, res)
			resultsMu.Unlock()
			stageProcessed.WithLabelValues("terminal").Inc()
		}
		return nil
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return results, err
	}
	if bar != nil {
		bar.Finish()
	}
	return results, nil
}

// fingerprintOne handles a single descriptor: absent path means
// acquisition already failed upstream, so it is forwarded with an empty
// fingerprint set rather than re-attempted, per spec.md §4.8.
func (p *Pipeline) fingerprintOne(ctx context.Context, d acquire.SongDescriptor, out chan<- FingerprintedSong, logger *slog.Logger, bar *progressbar.ProgressBar) {
	correlationID := uuid.NewString()
	fs := FingerprintedSong{Descriptor: d, CorrelationID: correlationID}

	if d.Path == "" {
		select {
		case out <- fs:
		case <-ctx.Done():
		}
		return
	}

	fps, fileHash, err := p.Engine.FingerprintFile(ctx, d.Path)
	if err != nil {
		logging.Error(ctx, logger, "fingerprinting failed", err, slog.String("correlation_id", correlationID), slog.String("path", d.Path))
	} else {
		fs.Fingerprints = fps
		fs.FileHash = fileHash
	}
	if bar != nil {
		bar.Add(1)
	}

	select {
	case out <- fs:
		stageQueueDepth.WithLabelValues("qdb").Inc()
	case <-ctx.Done():
	}
}

// terminal invokes the store (ingest mode) or the store lookup + aligner
// (identify mode).
func (p *Pipeline) terminal(ctx context.Context, fs FingerprintedSong, logger *slog.Logger) SongResult {
	switch p.Mode {
	case ModeIngest:
		return p.storeTerminal(ctx, fs, logger)
	default:
		return p.alignTerminal(ctx, fs, logger)
	}
}

func (p *Pipeline) storeTerminal(ctx context.Context, fs FingerprintedSong, logger *slog.Logger) SongResult {
	res := SongResult{Descriptor: fs.Descriptor, NumQueryFingerprints: len(fs.Fingerprints)}
	if fs.Descriptor.Path == "" || len(fs.Fingerprints) == 0 {
		return res
	}

	var duration float64
	if fs.Descriptor.Duration != nil {
		duration = *fs.Descriptor.Duration
	}
	songID, err := p.Store.InsertSong(ctx, store.SongDescriptor{
		Duration: duration,
		FilePath: fs.Descriptor.Path,
		FileHash: fs.FileHash,
		Title:    fs.Descriptor.Title,
		SourceID: fs.Descriptor.SourceID,
	})
	if err != nil {
		logging.Error(ctx, logger, "insert song failed", err, slog.String("correlation_id", fs.CorrelationID))
		res.Err = err
		return res
	}
	if err := p.Store.InsertFingerprints(ctx, songID, fs.Fingerprints); err != nil {
		logging.Error(ctx, logger, "insert fingerprints failed", err, slog.String("correlation_id", fs.CorrelationID))
		res.Err = err
		return res
	}
	res.SongID = songID
	return res
}

func (p *Pipeline) alignTerminal(ctx context.Context, fs FingerprintedSong, logger *slog.Logger) SongResult {
	res := SongResult{Descriptor: fs.Descriptor, NumQueryFingerprints: len(fs.Fingerprints)}
	if len(fs.Fingerprints) == 0 {
		return res
	}

	hashes := make([]string, len(fs.Fingerprints))
	for i, fp := range fs.Fingerprints {
		hashes[i] = fp.Hash
	}

	stored, err := p.Store.Lookup(ctx, hashes)
	if err != nil {
		logging.Error(ctx, logger, "lookup failed", err, slog.String("correlation_id", fs.CorrelationID))
		res.Err = err
		return res
	}

	candidates := make([]align.CandidateFingerprint, len(stored))
	for i, sf := range stored {
		candidates[i] = align.CandidateFingerprint{SongID: sf.SongID, Hash: sf.Hash, Offset: sf.Offset}
	}

	result, ok := align.Align(align.FromModels(fs.Fingerprints), candidates, p.AlignConfig)
	if !ok {
		return res
	}

	confThresh := p.ConfThreshold
	if confThresh == 0 {
		confThresh = 0.01
	}
	confidence := align.Confidence(result.NumMatchingFingerprints, len(fs.Fingerprints))
	if confidence < confThresh {
		return res
	}

	numMatchFPs := result.NumMatchingFingerprints
	if song, err := p.Store.GetSong(ctx, result.SongID, true); err != nil {
		logging.Error(ctx, logger, "get matched song failed", err, slog.String("correlation_id", fs.CorrelationID))
	} else if song != nil {
		numMatchFPs = song.NumFingerprints
	}

	res.Match = &result
	res.Confidence = confidence
	res.IoU = align.IoU(result.NumMatchingFingerprints, len(fs.Fingerprints), numMatchFPs)
	return res
}
