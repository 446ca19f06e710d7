package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"konsilium/internal/config"
	"konsilium/internal/generator"
	"konsilium/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	endpointURL string
	timeout     time.Duration
	workspace   string

	// Logger
	logger *zap.Logger
)

// Exit codes for non-interactive commands.
const (
	exitGeneration = 1
	exitConfig     = 2
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "konsilium",
	Short: "Консилиум – помощь в лечении онкобольных",
	Long: `Konsilium sends a free-text medical query to the generation service
and shows the generated answer.

Run without arguments to open the interactive form. The endpoint URL comes
from the config file (endpoint.url), KONSILIUM_REQUEST_URL, or --url.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive form owns the terminal; its diagnostics go to files only.
		if !cmd.HasParent() {
			logger = zap.NewNop()
			return nil
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&endpointURL, "url", "", "Generation endpoint URL (overrides config and environment)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Request timeout (0 = wait indefinitely)")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory for .konsilium/logs (default: current directory)")

	rootCmd.AddCommand(askCmd, initCmd)
}

// loadConfig resolves file, environment and flag settings, in that order of precedence.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, &exitError{code: exitConfig, err: err}
	}
	applyFlagOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, &exitError{code: exitConfig, err: err}
	}

	ws, err := resolveWorkspace()
	if err != nil {
		return nil, &exitError{code: exitConfig, err: err}
	}
	if err := logging.Initialize(ws, logging.Options{
		DebugMode:  cfg.Logging.DebugMode,
		Level:      cfg.Logging.Level,
		JSONFormat: cfg.Logging.JSONFormat,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		logger.Warn("File logging unavailable", zap.Error(err))
	}
	logging.Boot("endpoint=%s timeout=%s theme=%s", cfg.Endpoint.URL, cfg.GetRequestTimeout(), cfg.UI.Theme)

	return cfg, nil
}

func applyFlagOverrides(cfg *config.Config) {
	if endpointURL != "" {
		cfg.Endpoint.URL = endpointURL
	}
	if timeout > 0 {
		cfg.Endpoint.RequestTimeout = timeout.String()
	}
}

func resolveWorkspace() (string, error) {
	if workspace != "" {
		return workspace, nil
	}
	return os.Getwd()
}

func newGenerator(cfg *config.Config) *generator.Client {
	return generator.New(generator.Config{
		URL:      cfg.Endpoint.URL,
		Timeout:  cfg.GetRequestTimeout(),
		ProxyURL: cfg.Endpoint.ProxyURL,
	})
}

// execute runs the command tree and returns the process exit code.
// Loggers are flushed on every path; cobra skips post-run hooks when RunE fails.
func execute(args []string, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	if logger != nil {
		_ = logger.Sync()
	}
	logging.CloseAll()

	if err == nil {
		return 0
	}
	code := exitGeneration
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
	}
	fmt.Fprintln(stderr, err)
	return code
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stderr))
}
