package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexmercer/bookbrain/internal/api"
	"github.com/alexmercer/bookbrain/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

// ParseLogLevel converts a string log level to slog.Level.
// Supports: debug, info, warn, error (case-insensitive).
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: must be debug, info, warn, or error", level)
	}
}

// GetLogLevel returns the configured log level, checking:
// 1. CLI flag (--log-level)
// 2. Environment variable (BOOKVAULT_LOG_LEVEL)
// 3. Default (info)
func GetLogLevel() slog.Level {
	level := logLevel
	if level == "" {
		level = os.Getenv("BOOKVAULT_LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}

	parsed, err := ParseLogLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using info\n", err)
		return slog.LevelInfo
	}
	return parsed
}

// IsDebugLevel returns true if the configured log level is debug.
func IsDebugLevel() bool {
	return GetLogLevel() == slog.LevelDebug
}

var rootCmd = &cobra.Command{
	Use:   "bookbrain",
	Short: "Personal book library backend with hybrid retrieval and RAG chat",
	Long: `bookbrain ingests PDF and EPUB books, extracts and chunks their text,
embeds it for hybrid full-text + vector retrieval, and surfaces a reading
companion over the result.

The pipeline includes:
  - PDF/EPUB text extraction and page-aware chunking
  - Hybrid (full-text + pgvector) retrieval with reciprocal rank fusion
  - LLM-drafted insights, cross-book connections, and topic modeling
  - Retrieval-augmented chat over the user's library
  - A background orchestrator that drives books through processing`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.bookbrain/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "bookbrain home directory (default: ~/.bookbrain)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn, error (default: info, env: BOOKVAULT_LOG_LEVEL)",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
