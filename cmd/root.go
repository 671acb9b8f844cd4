// Package cmd is the hostsurvey command-line front-end: a thin cobra
// tree wiring flag parsing and exit codes onto the collection,
// analysis, and validation libraries.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time via ldflags.
var Version = "0.1.0"

var logLevel string

// ExitCodeError signals a non-zero exit code without calling os.Exit
// directly, so Execute's caller controls process termination.
type ExitCodeError struct{ Code int }

func (e ExitCodeError) Error() string { return fmt.Sprintf("exit %d", e.Code) }

var rootCmd = &cobra.Command{
	Use:     "hostsurvey",
	Short:   "Host auditing and containerization-readiness survey tool",
	Version: Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(validatePlanCmd)
	rootCmd.AddCommand(validateBundleCmd)
}

// Execute runs the command tree. Errors are returned rather than
// printed so main can map ExitCodeError to a specific process exit
// code.
func Execute() error {
	return rootCmd.Execute()
}

func buildLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.TimeKey = "ts"
	return cfg.Build()
}
