package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eion/usersdb/internal/config"
)

// GlobalOptions holds the persistent flags shared by every sub-command.
type GlobalOptions struct {
	ConfigPath  string
	Output      string
	FailOnError bool
}

// Register adds the persistent flags and every sub-command to rootCmd.
// Results are written to out; logs always go to stderr.
func Register(rootCmd *cobra.Command, out io.Writer) error {
	opts := &GlobalOptions{}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "Path to a YAML config file (default usersdb.yaml or $USERSDB_CONFIG_FILE)")
	flags.StringVarP(&opts.Output, "output", "o", OutputJSON, "Result format: json or yaml")
	flags.BoolVar(&opts.FailOnError, "fail-on-error", false, "Exit non-zero when the operation fails")

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		switch opts.Output {
		case OutputJSON, OutputYAML:
			return nil
		default:
			return fmt.Errorf("unsupported output format %q (want %q or %q)", opts.Output, OutputJSON, OutputYAML)
		}
	}

	if err := InitUserCommands(rootCmd, opts, out); err != nil {
		return fmt.Errorf("failed to initialize user commands: %w", err)
	}
	InitMigrateCommand(rootCmd, opts)
	InitServeCommand(rootCmd, opts)

	return nil
}

// load reads the configuration and builds a logger from its log section.
func (o *GlobalOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	return cfg, logger, nil
}

func setupLogger(logConfig config.LogConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if logConfig.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	switch logConfig.Level {
	case "debug":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// stdout carries the operation result only
	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger, nil
}
