package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"coderag/internal/app"
	"coderag/internal/config"

	"github.com/spf13/cobra"
)

var (
	flagConfig     string
	flagLogLevel   string
	flagEmbedModel string
	flagChatModel  string
	flagBackend    string
)

var rootCmd = &cobra.Command{
	Use:           "coderag",
	Short:         "Ask questions about a TypeScript codebase with retrieval-augmented generation",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context; an interrupted index run can be resumed by running it again.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default <project>/"+config.FileName+")")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagEmbedModel, "embed-model", "", "embedding model")
	rootCmd.PersistentFlags().StringVar(&flagChatModel, "chat-model", "", "generative model for answers")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "vector index backend: chromem or sqlite")
}

// loadConfig reads the project's config and applies flag overrides.
func loadConfig(root string) (*config.Config, error) {
	path := flagConfig
	if path == "" {
		path = filepath.Join(root, config.FileName)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagEmbedModel != "" {
		cfg.Embedding.Model = flagEmbedModel
	}
	if flagChatModel != "" {
		cfg.Generation.Model = flagChatModel
	}
	if flagBackend != "" {
		cfg.Store.Backend = flagBackend
	}
	return cfg, nil
}

// openApp loads config for the project at root, installs the logger and
// opens the application services. The caller must Close the result.
func openApp(root string, adjust func(*config.Config)) (*app.App, error) {
	return openAppLogging(root, adjust, os.Stderr)
}

func openAppLogging(root string, adjust func(*config.Config), logOut io.Writer) (*app.App, error) {
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	if adjust != nil {
		adjust(cfg)
	}
	logger := newLogger(cfg.Log, logOut)
	slog.SetDefault(logger)
	return app.Open(cfg, root, logger)
}

func newLogger(lc config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// projectRoot returns the working directory, where commands other than
// index look for the index.
func projectRoot() (string, error) {
	return os.Getwd()
}
