package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"coderag/internal/index"

	"github.com/spf13/cobra"
)

var flagGraphOut string

var graphCmd = &cobra.Command{
	Use:   "graph [path]",
	Short: "Extract class, method, call and import relations to JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}
		root, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s", index.ErrInvalidRoot, path)
		}
		a, err := openApp(root, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		g, err := a.Graph().Build(cmd.Context(), root, a.Config.Index.Languages, a.Config.Index.Exclude)
		if err != nil {
			return err
		}
		if flagGraphOut == "-" {
			return g.WriteJSON(cmd.OutOrStdout())
		}
		if err := g.WriteFile(flagGraphOut); err != nil {
			return fmt.Errorf("write graph: %w", err)
		}
		fmt.Printf("Graph saved to %s (%d nodes, %d edges)\n", flagGraphOut, len(g.Nodes), len(g.Edges))
		if len(g.Failed) > 0 {
			fmt.Printf("%d files could not be read or parsed, see the log\n", len(g.Failed))
		}
		return nil
	},
}

func init() {
	graphCmd.Flags().StringVarP(&flagGraphOut, "out", "o", "code_graph.json", "output file, - for stdout")
	rootCmd.AddCommand(graphCmd)
}
