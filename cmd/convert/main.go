// Package main provides the convert binary entry point.
// Convert turns a directory of IFC building models into CityGML 2.0 files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/citybridge/cli"
	"github.com/c360studio/citybridge/config"
	"github.com/c360studio/citybridge/convert"
	"github.com/c360studio/citybridge/mapping"
	"github.com/c360studio/citybridge/watch"
)

func main() {
	cli.Main(rootCmd())
}

type options struct {
	common          cli.CommonFlags
	watch           bool
	storeyOrder     string
	includeGlobalID bool
}

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "convert <input_dir> <output_dir>",
		Short: "Convert IFC building models to CityGML",
		Long: `Convert reads every IFC file in the input directory and writes a CityGML 2.0
document with the same stem to the output directory.

Buildings become Building features carrying their name, storey names, storey
elevations, description, object type and classification.

Exit codes: 0 all files converted, 1 some files failed or no input files,
2 bad arguments or missing input directory.`,
		Example: `  convert models/incoming models/outgoing
  convert --workers 4 --json models/incoming models/outgoing
  convert --watch models/incoming models/outgoing`,
		Args: cli.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts, args[0], args[1])
		},
	}

	opts.common.Register(cmd)
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Keep running and re-convert input files when they change")
	cmd.Flags().StringVar(&opts.storeyOrder, "storey-order", "", "Storey order: source or name")
	cmd.Flags().BoolVar(&opts.includeGlobalID, "include-global-id", false, "Emit building GlobalIds as generic attributes")

	return cmd
}

func run(ctx context.Context, out io.Writer, opts options, inputDir, outputDir string) error {
	env, err := cli.Setup(&opts.common, &config.Config{
		Conversion: config.ConversionConfig{
			StoreyOrder:     opts.storeyOrder,
			IncludeGlobalID: opts.includeGlobalID,
		},
	})
	if err != nil {
		return err
	}
	cfg := env.Config

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mapper := mapping.NewMapper(mapping.Options{
		StoreyOrder:     mapping.StoreyOrder(cfg.Conversion.StoreyOrder),
		IncludeGlobalID: cfg.Conversion.IncludeGlobalID,
	}, env.Logger)
	converter := convert.NewConverter(env.Store, mapper,
		convert.WithInputPattern(cfg.Conversion.InputPattern),
		convert.WithOutputExtension(cfg.Conversion.OutputExtension),
		convert.WithWorkers(cfg.Conversion.Workers),
		convert.WithLogger(env.Logger),
		convert.WithRecorder(env.Metrics),
	)

	exitCode := cli.ExitOK
	summary, err := converter.Run(ctx, inputDir, outputDir)
	switch {
	case err == nil:
		if opts.common.JSON {
			if err := cli.WriteJSON(out, summary); err != nil {
				return err
			}
		} else {
			cli.WriteConversionReport(out, summary)
		}
		env.WriteMetrics()
		exitCode = summary.ExitCode()
	case opts.watch && errors.Is(err, convert.ErrNoInputFiles):
		env.Logger.Info("No input files yet, waiting for changes", "dir", inputDir)
		if err := env.Store.EnsureDir(ctx, outputDir); err != nil {
			return err
		}
	default:
		return err
	}

	if opts.watch {
		failed, err := watchInputs(ctx, out, opts.common.JSON, env, converter, inputDir, outputDir)
		if err != nil {
			return err
		}
		if failed > 0 {
			exitCode = cli.ExitFailure
		}
	}
	return cli.Exit(exitCode)
}

// watchInputs re-converts input files as they change until ctx is done and
// returns the number of failed conversions. Per-file reports are written to
// out unless quiet is set.
func watchInputs(ctx context.Context, out io.Writer, quiet bool, env *cli.Env, converter *convert.Converter, inputDir, outputDir string) (int, error) {
	watcher, err := watch.New(watch.Config{
		Pattern:       env.Config.Conversion.InputPattern,
		DebounceDelay: env.Config.Watch.DebounceDelay,
	}, inputDir, env.Logger)
	if err != nil {
		return 0, fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(ctx); err != nil {
		return 0, fmt.Errorf("start watcher: %w", err)
	}
	if !quiet {
		fmt.Fprintf(out, "\nWatching %s for changes (Ctrl+C to stop)\n", inputDir)
	}

	failed := 0
	for event := range watcher.Events() {
		if event.Operation == watch.OpDelete {
			env.Logger.Info("Input file removed", "file", event.Path)
			continue
		}
		result := converter.ConvertFile(ctx, event.Path, outputDir)
		if !result.Success {
			failed++
		}
		if !quiet {
			cli.WriteConversionResult(out, result)
		}
		env.WriteMetrics()
	}

	if dropped := watcher.DroppedEvents(); dropped > 0 {
		env.Logger.Warn("Watch events dropped", "dir", inputDir, "dropped", dropped)
	}
	env.Logger.Info("Watch stopped", "dir", inputDir, "failed", failed)
	return failed, nil
}
