// Package convert turns directories of IFC files into CityGML documents.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/citybridge/citygml"
	"github.com/c360studio/citybridge/ifc"
	"github.com/c360studio/citybridge/mapping"
	"github.com/c360studio/citybridge/storage"
)

// Defaults used when no option overrides them.
const (
	DefaultInputPattern    = "*.ifc"
	DefaultOutputExtension = ".gml"
)

// Batch errors.
var (
	// ErrNoInputFiles is returned when the input directory holds no file
	// matching the input pattern.
	ErrNoInputFiles = errors.New("no input files found")

	// ErrInputDirMissing is returned when the input directory does not exist.
	ErrInputDirMissing = errors.New("input directory does not exist")
)

// Recorder receives per-file statistics.
type Recorder interface {
	ObserveConversion(success bool, buildings int, d time.Duration)
}

// Converter converts IFC files. It is safe for concurrent use.
type Converter struct {
	store    *storage.Store
	mapper   *mapping.Mapper
	pattern  string
	ext      string
	workers  int
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a Converter.
type Option func(*Converter)

// WithInputPattern sets the base-name pattern selecting input files.
func WithInputPattern(pattern string) Option {
	return func(c *Converter) {
		c.pattern = pattern
	}
}

// WithOutputExtension sets the extension of written files.
func WithOutputExtension(ext string) Option {
	return func(c *Converter) {
		c.ext = ext
	}
}

// WithWorkers sets how many files are converted at once.
func WithWorkers(n int) Option {
	return func(c *Converter) {
		c.workers = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Converter) {
		c.recorder = r
	}
}

// NewConverter creates a Converter.
func NewConverter(store *storage.Store, mapper *mapping.Mapper, opts ...Option) *Converter {
	c := &Converter{
		store:   store,
		mapper:  mapper,
		pattern: DefaultInputPattern,
		ext:     DefaultOutputExtension,
		workers: 1,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers < 1 {
		c.workers = 1
	}
	return c
}

// OutputPath returns where the output for inputPath is written.
func (c *Converter) OutputPath(inputPath, outputDir string) string {
	return storage.Join(outputDir, storage.Stem(inputPath)+c.ext)
}

// ConvertFile converts one file into outputDir. Read, parse and write
// failures produce a failed Result with a single error; building-level
// failures are reported alongside a partial output.
func (c *Converter) ConvertFile(ctx context.Context, inputPath, outputDir string) Result {
	start := time.Now()
	result := c.convertFile(ctx, inputPath, outputDir)
	result.Duration = time.Since(start)

	if c.recorder != nil {
		c.recorder.ObserveConversion(result.Success, result.BuildingsProcessed, result.Duration)
	}
	if result.Success {
		c.logger.Info("Converted file", "file", inputPath, "output", result.OutputPath,
			"buildings", result.BuildingsProcessed, "warnings", len(result.Warnings))
	} else {
		c.logger.Warn("Conversion failed", "file", inputPath, "errors", len(result.Errors))
	}
	return result
}

func (c *Converter) convertFile(ctx context.Context, inputPath, outputDir string) Result {
	fail := func(err error) Result {
		result := newResult(inputPath)
		result.Errors = append(result.Errors, fmt.Sprintf("Error processing IFC file %s: %v", inputPath, err))
		return result
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	model, err := ifc.Open(ctx, c.store, inputPath)
	if err != nil {
		return fail(err)
	}
	c.logger.Debug("Parsed model", "file", inputPath, "schema", model.Schema, "entities", model.Len())

	mapped := c.mapper.Map(model)
	data, err := citygml.Marshal(mapped.Record)
	if err != nil {
		return fail(err)
	}

	outputPath := c.OutputPath(inputPath, outputDir)
	if err := c.store.Write(ctx, outputPath, data); err != nil {
		return fail(err)
	}

	result := newResult(inputPath)
	result.Success = !mapped.HasErrors()
	result.OutputPath = outputPath
	result.BuildingsProcessed = mapped.BuildingsProcessed
	result.Errors = append(result.Errors, mapped.Errors...)
	result.Warnings = append(result.Warnings, mapped.Warnings...)
	return result
}

// Inputs lists the files in inputDir matching the input pattern.
func (c *Converter) Inputs(ctx context.Context, inputDir string) ([]string, error) {
	inputs, err := c.store.List(ctx, inputDir, c.pattern)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrNotDirectory) {
			return nil, fmt.Errorf("%s: %w", inputDir, ErrInputDirMissing)
		}
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%s: %w", inputDir, ErrNoInputFiles)
	}
	return inputs, nil
}

// Run converts every matching file in inputDir. Per-file failures are
// reported in the Summary; the returned error is reserved for batch-level
// problems.
func (c *Converter) Run(ctx context.Context, inputDir, outputDir string) (*Summary, error) {
	inputs, err := c.Inputs(ctx, inputDir)
	if err != nil {
		return nil, err
	}
	if err := c.store.EnsureDir(ctx, outputDir); err != nil {
		return nil, err
	}
	return c.RunFiles(ctx, inputs, outputDir), nil
}

// RunFiles converts inputs into an existing outputDir. Results keep the
// order of inputs.
func (c *Converter) RunFiles(ctx context.Context, inputs []string, outputDir string) *Summary {
	summary := &Summary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		OutputDir: outputDir,
	}
	c.logger.Info("Starting conversion", "run_id", summary.RunID, "files", len(inputs), "workers", c.workers)

	results := make([]Result, len(inputs))
	g := new(errgroup.Group)
	g.SetLimit(c.workers)
	for i, input := range inputs {
		g.Go(func() error {
			results[i] = c.ConvertFile(ctx, input, outputDir)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		summary.add(r)
	}
	summary.Duration = time.Since(summary.StartedAt)

	c.logger.Info("Conversion finished", "run_id", summary.RunID,
		"succeeded", summary.Succeeded, "failed", summary.Failed, "buildings", summary.TotalBuildings)
	return summary
}
