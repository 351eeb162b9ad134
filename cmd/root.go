package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"clipkind/pkg/clipboard"
	"clipkind/pkg/completions"
	"clipkind/pkg/config"
	"clipkind/pkg/errors"
	"clipkind/pkg/logger"
	"clipkind/pkg/ocr"
	"clipkind/pkg/service"

	"github.com/spf13/cobra"
)

const (
	unknownValue = "unknown"

	// Commands carrying this annotation run on default settings when the
	// config file cannot be loaded.
	skipConfigAnnotation = "clipkind/skip-config"
)

var (
	Version   string
	BuildTime string
	GitCommit string
)

// NewEngine builds the OCR engine. It is nil in builds without OCR support,
// which leaves OCR operations failing with ENGINE_INIT_ERROR.
var NewEngine func(tessdataPrefix string) ocr.Engine

var outputFormat string
var logLevel string
var backendFlag string
var fixtureFlag string
var timeoutFlag time.Duration
var assumeYesFlag bool

// settings is resolved once per invocation in PersistentPreRunE.
var settings = config.Default()

// sharedCounter keeps the fallback sequence monotonic across every service
// built in this process.
var sharedCounter = &clipboard.Counter{}

var rootCmd = &cobra.Command{
	Use:   "clipkind",
	Short: "Clipboard content classifier",
	Long: `Inspect the system clipboard: classify what it holds (rich text, HTML,
files, image or text), extract file paths and images, read rich text, and
recognize text in clipboard images. The serve command exposes the same
operations as a JSON-lines method channel on stdin/stdout.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			if cmd.Annotations[skipConfigAnnotation] == "" {
				return err
			}
			cfg = config.Default()
		}
		applyFlagOverrides(cmd, cfg)
		settings = cfg

		// Set log level: explicit flag takes precedence over env var and config
		level := cfg.LogLevel
		if cmd.Flags().Changed("log-level") || level == "" {
			level = logLevel
		}
		logger.SetLevel(level)
		logger.Debug().
			Str("backend", cfg.Source.Backend).
			Dur("timeout", cfg.Source.Timeout).
			Str("ocr_language", cfg.OCR.Language).
			Msg("settings resolved")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Show version information",
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		ver := Version
		if ver == "" {
			ver = "dev"
		}
		bt := BuildTime
		if bt == "" {
			bt = unknownValue
		}
		gc := GitCommit
		if gc == "" {
			gc = unknownValue
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "clipkind version %s\n", ver)
		fmt.Fprintf(out, "Built: %s\n", bt)
		fmt.Fprintf(out, "Git commit: %s\n", gc)
	},
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("backend") {
		cfg.Source.Backend = backendFlag
	}
	if cmd.Flags().Changed("fixture") {
		cfg.Source.Fixture = fixtureFlag
		if !cmd.Flags().Changed("backend") {
			cfg.Source.Backend = clipboard.BackendFixture
		}
	}
	if cmd.Flags().Changed("timeout") && timeoutFlag > 0 {
		cfg.Source.Timeout = timeoutFlag
	}
}

// newService wires the configured clipboard source and OCR engine.
func newService() (*service.Service, error) {
	src, err := clipboard.New(settings.ClipboardOptions())
	if err != nil {
		return nil, errors.NewWithError(errors.KindConfig, "failed to select clipboard backend", err)
	}

	var engine ocr.Engine
	if NewEngine != nil {
		engine = NewEngine(settings.OCR.TessdataPrefix)
	}

	return service.New(src, engine, service.Options{
		Timeout: settings.Source.Timeout,
		OCR:     settings.OCROptions(),
		Counter: sharedCounter,
	}), nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitCode := errors.HandleReturn(err)
		os.Exit(int(exitCode))
	}
}

// GetContext returns a context cancelled on interrupt. Per-operation
// timeouts are applied by the service.
func GetContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func init() {
	RegisterCommands(rootCmd)

	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Clipboard backend (auto, wayland, wl-paste, x11, windows, text, fixture)")
	rootCmd.PersistentFlags().StringVar(&fixtureFlag, "fixture", "", "Read the clipboard from a YAML fixture file")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", config.DefaultTimeout, "Timeout for each clipboard read (e.g., 500ms, 2s)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYesFlag, "yes", "y", false, "Skip confirmation prompts")

	completions.RegisterCompletions(rootCmd)
}
