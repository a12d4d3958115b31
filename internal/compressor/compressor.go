package compressor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"assetpress/internal/compression"
	"assetpress/internal/logging"
	"assetpress/internal/manifest"
	"assetpress/internal/planner"
	"assetpress/internal/services"
)

// Recorder persists produced artifacts.
type Recorder interface {
	Record(ctx context.Context, entry manifest.Entry) error
}

// Options configures a Compressor.
type Options struct {
	// Workers bounds concurrent jobs; values below one mean one.
	Workers  int
	// Levels overrides encoder levels per format.
	Levels   map[compression.Format]int
	// LockPath, when set, is locked exclusively for the duration of Run.
	LockPath string
	Manifest Recorder
	// Logger is used as given; callers attach the component attribute.
	Logger   *slog.Logger
}

// Compressor runs jobs produced by the planner.
type Compressor struct {
	opts   Options
	logger *slog.Logger
}

// JobResult is the outcome of one job.
type JobResult struct {
	Job      planner.Job
	BytesIn  int64
	BytesOut int64
	Digest   string
	Duration time.Duration
	Err      error
}

// Ratio returns output over input size, or 0 when nothing was read.
func (r JobResult) Ratio() float64 {
	if r.BytesIn <= 0 {
		return 0
	}
	return float64(r.BytesOut) / float64(r.BytesIn)
}

// Report summarizes a run. Results follow job order.
type Report struct {
	RunID     string
	Results   []JobResult
	Succeeded int
	Failed    int
	BytesIn   int64
	BytesOut  int64
	Duration  time.Duration
}

// Err joins every job failure into one compression error, or nil.
func (r Report) Err() error {
	var errs []error
	for _, result := range r.Results {
		if result.Err != nil {
			errs = append(errs, fmt.Errorf("%s (%s): %w", result.Job.Source.Identity, result.Job.Format, result.Err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return services.Wrap(services.ErrCompression, "compress", "", fmt.Sprintf("%d of %d job(s) failed", len(errs), len(r.Results)), errors.Join(errs...))
}

// New constructs a Compressor.
func New(opts Options) *Compressor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Compressor{opts: opts, logger: logger}
}

// Run executes jobs and returns a per-job report. The returned error is only
// set when the run could not start (lock held, bad lock path); job failures
// are reported through Report.Err.
func (c *Compressor) Run(ctx context.Context, jobs []planner.Job) (Report, error) {
	start := time.Now()
	runID, ok := services.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = services.WithRunID(ctx, runID)
	}
	ctx = services.WithStage(ctx, "compress")
	logger := logging.WithContext(ctx, c.logger)
	report := Report{RunID: runID, Results: make([]JobResult, len(jobs))}

	unlock, err := c.acquireLock()
	if err != nil {
		return report, err
	}
	defer unlock()

	workers := min(c.opts.Workers, len(jobs))
	indexes := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				report.Results[i] = c.runJob(ctx, logger, runID, jobs[i])
			}
		}()
	}
	for i := range jobs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	for _, result := range report.Results {
		if result.Err != nil {
			report.Failed++
			continue
		}
		report.Succeeded++
		report.BytesIn += result.BytesIn
		report.BytesOut += result.BytesOut
	}
	report.Duration = time.Since(start)

	logger.Info("compression run finished",
		logging.Int("succeeded", report.Succeeded),
		logging.Int("failed", report.Failed),
		logging.Int64("bytes_in", report.BytesIn),
		logging.Int64("bytes_out", report.BytesOut),
		logging.Duration("duration", report.Duration),
		logging.String(logging.FieldEventType, "run_complete"),
	)
	return report, nil
}

func (c *Compressor) acquireLock() (func(), error) {
	path := strings.TrimSpace(c.opts.LockPath)
	if path == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "compress", "acquire lock", "create state directory", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrLocked, "compress", "acquire lock", path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrLocked, "compress", "acquire lock", "another assetpress run holds "+path, nil)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			c.logger.Warn("failed to release lock", logging.String("path", path), logging.Error(err))
		}
	}, nil
}

func (c *Compressor) level(f compression.Format) int {
	if level, ok := c.opts.Levels[f]; ok {
		return level
	}
	return compression.DefaultLevel(f)
}

func (c *Compressor) runJob(ctx context.Context, logger *slog.Logger, runID string, job planner.Job) JobResult {
	result := JobResult{Job: job}
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	start := time.Now()
	in, out, digest, err := compressFile(ctx, job.Source.Identity, job.OutputPath, job.Format, c.level(job.Format))
	result.BytesIn, result.BytesOut, result.Digest = in, out, digest
	result.Duration = time.Since(start)

	jobLogger := logger.With(
		logging.String(logging.FieldAsset, job.Source.Identity),
		logging.String(logging.FieldFormat, job.Format.Token()),
		logging.String(logging.FieldOutput, job.OutputPath),
	)
	if err != nil {
		result.Err = err
		jobLogger.Error("compression failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_failed"),
		)
		return result
	}

	jobLogger.Info("compressed asset",
		logging.Int64("bytes_in", in),
		logging.Int64("bytes_out", out),
		logging.Duration("duration", result.Duration),
		logging.String(logging.FieldEventType, "job_complete"),
	)

	if c.opts.Manifest != nil {
		entry := manifest.Entry{
			OutputPath:   job.OutputPath,
			SourcePath:   job.Source.Identity,
			Format:       job.Format,
			SourceDigest: digest,
			SourceSize:   in,
			OutputSize:   out,
			RunID:        runID,
		}
		// The artifact stays valid without a row; discovery falls back to mtimes.
		if err := c.opts.Manifest.Record(ctx, entry); err != nil {
			jobLogger.Warn("failed to record artifact in manifest",
				logging.Error(err),
				logging.String(logging.FieldEventType, "manifest_record_failed"),
			)
		}
	}
	return result
}
