// Package main provides the validate binary entry point.
// Validate checks that CityGML files preserve the buildings, storeys and
// building names of their IFC sources.
package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/citybridge/cli"
	"github.com/c360studio/citybridge/config"
	"github.com/c360studio/citybridge/parity"
)

func main() {
	cli.Main(rootCmd())
}

func rootCmd() *cobra.Command {
	var (
		common          cli.CommonFlags
		targetExtension string
	)

	cmd := &cobra.Command{
		Use:   "validate <input_dir> <output_dir>",
		Short: "Check CityGML output against its IFC sources",
		Long: `Validate pairs every IFC file in the input directory with the CityGML file of
the same stem in the output directory and checks building count, storey count
and building name parity.

Exit codes: 0 all pairs pass, 1 any pair fails, a CityGML file is missing or
there are no input files, 2 bad arguments or missing directories.`,
		Example: `  validate models/incoming models/outgoing
  validate --json models/incoming models/outgoing`,
		Args: cli.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), &common, targetExtension, args[0], args[1])
		},
	}

	common.Register(cmd)
	cmd.Flags().StringVar(&targetExtension, "target-extension", "", "Extension of the CityGML files (default .gml)")

	return cmd
}

func run(ctx context.Context, out io.Writer, common *cli.CommonFlags, targetExtension, inputDir, targetDir string) error {
	env, err := cli.Setup(common, &config.Config{
		Validation: config.ValidationConfig{TargetExtension: targetExtension},
	})
	if err != nil {
		return err
	}
	cfg := env.Config

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	validator := parity.NewValidator(env.Store, parity.WithValidatorLogger(env.Logger))
	runner := parity.NewRunner(env.Store, validator,
		parity.WithInputPattern(cfg.Conversion.InputPattern),
		parity.WithTargetExtension(cfg.Validation.TargetExtension),
		parity.WithWorkers(cfg.Conversion.Workers),
		parity.WithLogger(env.Logger),
		parity.WithRecorder(env.Metrics),
	)

	summary, err := runner.Run(ctx, inputDir, targetDir)
	if err != nil {
		return err
	}

	if common.JSON {
		if err := cli.WriteJSON(out, summary); err != nil {
			return err
		}
	} else {
		cli.WriteValidationReport(out, summary)
	}
	env.WriteMetrics()

	return cli.Exit(summary.ExitCode())
}
