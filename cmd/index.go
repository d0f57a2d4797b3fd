package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"coderag/internal/config"
	"coderag/internal/index"
	"coderag/internal/progress"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var flagBatchSize int

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a codebase for search",
	Long: `Index chunks every TypeScript file under path, embeds the chunks and stores
them in the project's vector index. Chunks that are already stored are skipped,
so an interrupted run can simply be started again.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			var err error
			if path, err = promptPath(); err != nil {
				return err
			}
		}
		root, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		// Opening the app creates the store directory, so the root must be
		// checked before it.
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s", index.ErrInvalidRoot, path)
		}

		a, err := openApp(root, func(cfg *config.Config) {
			if flagBatchSize > 0 {
				cfg.Index.BatchSize = flagBatchSize
			}
		})
		if err != nil {
			return err
		}
		defer a.Close()

		reporter := progress.NewReporter()
		started := false
		onProgress := func(stage string, done, total int) {
			if stage != "embed" {
				return
			}
			if !started {
				reporter.Start(total, "Embedding chunks")
				started = true
			}
			reporter.Update(done, "")
		}

		fmt.Printf("Indexing %s...\n", root)
		start := time.Now()

		stats, err := a.Indexer(onProgress).Index(cmd.Context(), root)
		if started {
			reporter.Finish()
		}
		elapsed := time.Since(start)

		if stats != nil {
			fmt.Printf("\nDone in %s\n", elapsed.Round(time.Millisecond))
			fmt.Printf("  Files:   %d total, %d failed\n", stats.FilesTotal, stats.FilesFailed)
			fmt.Printf("  Chunks:  %d total, %d added, %d already indexed\n",
				stats.ChunksTotal, stats.ChunksAdded, stats.ChunksSkipped)
		}
		if err != nil && errors.Is(err, context.Canceled) {
			return fmt.Errorf("interrupted, run the command again to resume: %w", err)
		}
		return err
	},
}

func promptPath() (string, error) {
	prompt := promptui.Prompt{
		Label:   "Project directory to index",
		Default: ".",
		Validate: func(s string) error {
			info, err := os.Stat(s)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", s)
			}
			return nil
		},
	}
	path, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("project path: %w", err)
	}
	return path, nil
}

func init() {
	indexCmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "chunks embedded per request (default from config, 4)")
	rootCmd.AddCommand(indexCmd)
}
