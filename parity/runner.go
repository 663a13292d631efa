package parity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/citybridge/convert"
	"github.com/c360studio/citybridge/storage"
)

// ErrTargetDirMissing is returned when the target directory does not exist.
var ErrTargetDirMissing = errors.New("target directory does not exist")

// Recorder receives per-pair statistics.
type Recorder interface {
	ObserveValidation(passed, missingTarget bool)
}

// Runner validates every input file in a directory against its
// counterpart in a target directory.
type Runner struct {
	store     *storage.Store
	validator *Validator
	pattern   string
	ext       string
	workers   int
	logger    *slog.Logger
	recorder  Recorder
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithInputPattern sets the base-name pattern selecting source files.
func WithInputPattern(pattern string) RunnerOption {
	return func(r *Runner) {
		r.pattern = pattern
	}
}

// WithTargetExtension sets the extension of counterpart files.
func WithTargetExtension(ext string) RunnerOption {
	return func(r *Runner) {
		r.ext = ext
	}
}

// WithWorkers sets how many pairs are validated at once.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// NewRunner creates a Runner.
func NewRunner(store *storage.Store, validator *Validator, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:     store,
		validator: validator,
		pattern:   convert.DefaultInputPattern,
		ext:       convert.DefaultOutputExtension,
		workers:   1,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers < 1 {
		r.workers = 1
	}
	return r
}

// TargetPath returns the counterpart location for inputPath.
func (r *Runner) TargetPath(inputPath, targetDir string) string {
	return storage.Join(targetDir, storage.Stem(inputPath)+r.ext)
}

// Run validates every pair. All pairs are evaluated; per-pair failures are
// reported in the Summary.
func (r *Runner) Run(ctx context.Context, inputDir, targetDir string) (*Summary, error) {
	inputs, err := r.store.List(ctx, inputDir, r.pattern)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrNotDirectory) {
			return nil, fmt.Errorf("%s: %w", inputDir, convert.ErrInputDirMissing)
		}
		return nil, err
	}
	isDir, err := r.store.IsDir(ctx, targetDir)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, fmt.Errorf("%s: %w", targetDir, ErrTargetDirMissing)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%s: %w", inputDir, convert.ErrNoInputFiles)
	}

	summary := &Summary{RunID: uuid.New().String(), StartedAt: time.Now()}
	r.logger.Info("Starting validation", "run_id", summary.RunID, "files", len(inputs), "workers", r.workers)

	results := make([]Result, len(inputs))
	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	for i, input := range inputs {
		g.Go(func() error {
			results[i] = r.validatePair(ctx, input, r.TargetPath(input, targetDir))
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		summary.add(res)
	}
	summary.Duration = time.Since(summary.StartedAt)

	r.logger.Info("Validation finished", "run_id", summary.RunID,
		"passed", summary.Passed, "failed", summary.Failed, "missing", summary.Missing)
	return summary, nil
}

func (r *Runner) validatePair(ctx context.Context, inputPath, targetPath string) Result {
	result := newResult(inputPath, targetPath)
	switch exists, err := r.store.Exists(ctx, targetPath); {
	case ctx.Err() != nil:
		result.Errors = append(result.Errors, fmt.Sprintf("Error reading IFC file %s: %v", inputPath, ctx.Err()))
	case err != nil:
		result.Errors = append(result.Errors, fmt.Sprintf("Error reading CityGML file %s: %v", targetPath, err))
	case !exists:
		result.MissingTarget = true
		result.Errors = append(result.Errors, "missing target file: "+targetPath)
	default:
		result = r.validator.Validate(ctx, inputPath, targetPath)
	}

	if r.recorder != nil {
		r.recorder.ObserveValidation(result.Passed(), result.MissingTarget)
	}
	if !result.Passed() {
		r.logger.Warn("Validation failed", "file", inputPath, "errors", len(result.Errors),
			"missing_target", result.MissingTarget)
	}
	return result
}
