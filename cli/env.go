package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/citybridge/config"
	"github.com/c360studio/citybridge/metrics"
	"github.com/c360studio/citybridge/storage"
)

// CommonFlags are the flags shared by both commands.
type CommonFlags struct {
	ConfigPath  string
	LogLevel    string
	JSON        bool
	MetricsFile string
	Workers     int
	InitConfig  bool
}

// Register adds the shared flags to cmd.
func (f *CommonFlags) Register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.ConfigPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&f.JSON, "json", false, "Output the run summary as JSON")
	cmd.Flags().StringVar(&f.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	cmd.Flags().IntVar(&f.Workers, "workers", 0, "Number of files processed concurrently")
	cmd.Flags().BoolVar(&f.InitConfig, "init-config", false, "Write the user config file with defaults if it does not exist")
}

// Overrides returns the configuration values set by the shared flags.
func (f *CommonFlags) Overrides() *config.Config {
	return &config.Config{
		Conversion: config.ConversionConfig{Workers: f.Workers},
		Logging:    config.LoggingConfig{Level: f.LogLevel},
		Metrics:    config.MetricsConfig{Textfile: f.MetricsFile},
	}
}

// Env is the resolved runtime environment of a command.
type Env struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   *storage.Store
	Metrics *metrics.Metrics
}

// Setup loads configuration with overrides applied on top of the shared
// flags, installs the default logger and creates the shared components.
// Configuration errors are usage errors.
func Setup(flags *CommonFlags, overrides *config.Config) (*Env, error) {
	bootstrap := NewLogger(os.Stderr, flags.LogLevel, "text")

	merged := flags.Overrides()
	merged.Merge(overrides)

	loader := config.NewLoader(bootstrap)
	if flags.InitConfig {
		if err := loader.EnsureUserConfig(); err != nil {
			return nil, fmt.Errorf("init user config: %w", err)
		}
	}

	cfg, err := loader.Load(flags.ConfigPath, merged)
	if err != nil {
		return nil, UsageError(err)
	}

	logger := NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	return &Env{
		Config:  cfg,
		Logger:  logger,
		Store:   storage.NewStore(nil),
		Metrics: metrics.New(),
	}, nil
}

// WriteMetrics exports metrics when a textfile is configured. Failures are
// logged and do not change the exit code.
func (e *Env) WriteMetrics() {
	path := e.Config.Metrics.Textfile
	if path == "" {
		return
	}
	if err := e.Metrics.WriteToTextfile(path); err != nil {
		e.Logger.Error("Failed to write metrics", "path", path, "error", err)
		return
	}
	e.Logger.Debug("Wrote metrics", "path", path)
}
