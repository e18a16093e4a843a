package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stackvity/webp-converter/pkg/util"
)

// BatchRunner converts every candidate of one input directory into the output
// directory using a fixed-size worker pool.
type BatchRunner struct {
	opts        Options
	logger      *slog.Logger
	converter   *Converter
	hooks       Hooks
	concurrency int
}

// NewBatchRunner validates the options that do not depend on the filesystem
// and resolves defaults (hooks, codec, worker count).
func NewBatchRunner(opts Options) (*BatchRunner, error) {
	if opts.Concurrency < 0 {
		return nil, fmt.Errorf("%w: concurrency cannot be negative (got %d)", ErrInvalidArgument, opts.Concurrency)
	}
	if opts.EventHooks == nil {
		opts.EventHooks = &NoOpHooks{}
	}
	logger := newLogger(opts.Logger, "batch")

	concurrency := opts.Concurrency
	if concurrency == 0 {
		concurrency = runtime.NumCPU()
		logger.Debug("Concurrency auto-detected", slog.Int("count", concurrency))
	}

	return &BatchRunner{
		opts:        opts,
		logger:      logger,
		converter:   NewConverter(opts.Codec, opts.Logger),
		hooks:       opts.EventHooks,
		concurrency: concurrency,
	}, nil
}

// Run executes the batch and streams progress to sink.
//
// It fails before doing any work when either directory argument is empty,
// when the output directory cannot be created, or when the input directory
// cannot be listed. Every other failure is item-local: it becomes an
// "Error: ..." line and an error count, and the remaining candidates still run.
//
// Cancelling ctx stops dispatching new candidates; conversions already handed
// to a worker always finish. The summary block is appended after every worker
// has returned. When candidates were left undispatched Run returns the report
// together with ctx.Err().
func (b *BatchRunner) Run(ctx context.Context, sink LogSink) (Report, error) {
	if sink == nil {
		sink = LogSinkFunc(func(string) {})
	}
	if b.opts.InputPath == "" {
		return Report{}, fmt.Errorf("%w: input path is empty", ErrInvalidArgument)
	}
	if b.opts.OutputPath == "" {
		return Report{}, fmt.Errorf("%w: output path is empty", ErrInvalidArgument)
	}
	if err := os.MkdirAll(b.opts.OutputPath, 0755); err != nil {
		return Report{}, fmt.Errorf("%w: cannot create output directory %q: %w", ErrIO, b.opts.OutputPath, err)
	}

	startTime := time.Now()
	runID := uuid.NewString()
	b.logger.Info("Starting batch conversion",
		slog.String("runID", runID),
		slog.String("input", b.opts.InputPath),
		slog.String("output", b.opts.OutputPath),
		slog.Int("concurrency", b.concurrency),
	)

	sink.Append("Starting conversion from: " + resolveDir(b.opts.InputPath))

	candidates, err := ListCandidates(b.opts.InputPath, b.logger)
	if err != nil {
		b.logger.Error("Candidate listing failed", slog.String("error", err.Error()))
		return Report{}, err
	}
	sink.Append(fmt.Sprintf("Found %d files to convert", len(candidates)))

	for _, path := range candidates {
		if hookErr := b.hooks.OnFileDiscovered(path); hookErr != nil {
			b.logger.Warn("Event hook OnFileDiscovered failed", slog.String("path", path), slog.String("error", hookErr.Error()))
		}
	}

	workerChan := make(chan ConversionRequest, b.concurrency)
	resultsChan := make(chan FileResult, b.concurrency)

	agg := &resultAggregator{}
	aggregatorDone := make(chan struct{})
	go agg.collect(resultsChan, aggregatorDone)

	var wg sync.WaitGroup
	b.startWorkers(&wg, workerChan, resultsChan, sink)

	dispatched := b.dispatch(ctx, candidates, workerChan)
	// Join barrier: nothing below runs while a worker is still converting.
	wg.Wait()
	close(resultsChan)
	<-aggregatorDone

	report := agg.report()
	report.Summary = BatchSummary{
		RunID:           runID,
		InputPath:       b.opts.InputPath,
		OutputPath:      b.opts.OutputPath,
		Quality:         ClampQuality(b.opts.Quality),
		Lossless:        b.opts.Lossless,
		Total:           len(candidates),
		SuccessCount:    len(report.Converted) + len(report.Skipped),
		SkippedCount:    len(report.Skipped),
		ErrorCount:      len(report.Errors),
		CancelledCount:  len(candidates) - dispatched,
		Concurrency:     b.concurrency,
		DurationSeconds: time.Since(startTime).Seconds(),
		Timestamp:       time.Now().UTC(),
		SchemaVersion:   ReportSchemaVersion,
	}

	sink.Append(report.Summary.SummaryBlock())

	b.logger.Info("Batch conversion finished",
		slog.String("runID", runID),
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("success", report.Summary.SuccessCount),
		slog.Int("skipped", report.Summary.SkippedCount),
		slog.Int("errors", report.Summary.ErrorCount),
		slog.Int("cancelled", report.Summary.CancelledCount),
	)
	if hookErr := b.hooks.OnRunComplete(report); hookErr != nil {
		b.logger.Warn("OnRunComplete hook returned an error", slog.String("error", hookErr.Error()))
	}

	if report.Summary.CancelledCount > 0 {
		return report, ctx.Err()
	}
	return report, nil
}

// startWorkers launches the worker goroutines.
func (b *BatchRunner) startWorkers(wg *sync.WaitGroup, workerChan <-chan ConversionRequest, resultsChan chan<- FileResult, sink LogSink) {
	b.logger.Debug("Starting worker pool", slog.Int("count", b.concurrency))
	for i := 0; i < b.concurrency; i++ {
		wg.Add(1)
		go b.worker(wg, i, workerChan, resultsChan, sink)
	}
}

// dispatch feeds one request per candidate to the pool and closes the channel.
// It returns how many candidates were handed over.
func (b *BatchRunner) dispatch(ctx context.Context, candidates []string, workerChan chan<- ConversionRequest) int {
	defer close(workerChan)
	for i, path := range candidates {
		if ctx.Err() != nil {
			b.logger.Info("Dispatch cancelled", slog.Int("remaining", len(candidates)-i))
			return i
		}
		req := ConversionRequest{
			InputPath:  path,
			OutputPath: util.OutputPathFor(b.opts.OutputPath, path, WebPExtension),
			Quality:    b.opts.Quality,
			Lossless:   b.opts.Lossless,
		}
		select {
		case workerChan <- req:
		case <-ctx.Done():
			b.logger.Info("Dispatch cancelled", slog.Int("remaining", len(candidates)-i))
			return i
		}
	}
	return len(candidates)
}

// worker converts requests until the channel is closed.
func (b *BatchRunner) worker(wg *sync.WaitGroup, workerID int, workerChan <-chan ConversionRequest, resultsChan chan<- FileResult, sink LogSink) {
	defer wg.Done()
	wLogger := b.logger.With(slog.Int("workerID", workerID))
	wLogger.Debug("Worker started")

	for req := range workerChan {
		b.notify(req.InputPath, StatusProcessing, "", 0)
		start := time.Now()

		status, err := b.safeConvert(req)
		duration := time.Since(start)

		result := FileResult{
			Path:       req.InputPath,
			OutputPath: req.OutputPath,
			Status:     status,
			DurationMs: duration.Milliseconds(),
		}
		if err != nil {
			result.Status = StatusFailed
			result.Error = err.Error()
			sink.Append(LinePrefixError + result.Error)
			wLogger.Debug("Conversion failed", slog.String("path", req.InputPath), slog.String("error", result.Error))
		} else {
			sink.Append(LinePrefixConverted + req.InputPath)
		}
		b.notify(req.InputPath, result.Status, result.Error, duration)
		resultsChan <- result
	}
	wLogger.Debug("Worker shutting down (channel closed)")
}

// safeConvert turns a panic inside one conversion into that item's failure.
func (b *BatchRunner) safeConvert(req ConversionRequest) (status Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic recovered during conversion", slog.String("path", req.InputPath), slog.Any("panicValue", r))
			status = StatusFailed
			err = fmt.Errorf("panic while converting %s: %v", req.InputPath, r)
		}
	}()
	return b.converter.Convert(req)
}

func (b *BatchRunner) notify(path string, status Status, message string, duration time.Duration) {
	if hookErr := b.hooks.OnFileStatusUpdate(path, status, message, duration); hookErr != nil {
		b.logger.Warn("Event hook OnFileStatusUpdate failed", slog.String("path", path), slog.String("error", hookErr.Error()))
	}
}

// resultAggregator folds per-item results. It is owned by a single goroutine
// until its done channel is closed.
type resultAggregator struct {
	converted []FileResult
	skipped   []FileResult
	errors    []FileResult
}

func (a *resultAggregator) collect(results <-chan FileResult, done chan<- struct{}) {
	defer close(done)
	for r := range results {
		switch r.Status {
		case StatusSuccess:
			a.converted = append(a.converted, r)
		case StatusSkipped:
			a.skipped = append(a.skipped, r)
		default:
			a.errors = append(a.errors, r)
		}
	}
}

func (a *resultAggregator) report() Report {
	return Report{
		Converted: nonNil(a.converted),
		Skipped:   nonNil(a.skipped),
		Errors:    nonNil(a.errors),
	}
}

// nonNil keeps JSON output as [] rather than null.
func nonNil(r []FileResult) []FileResult {
	if r == nil {
		return []FileResult{}
	}
	return r
}

func resolveDir(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
