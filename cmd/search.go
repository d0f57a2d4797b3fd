package cmd

import (
	"fmt"
	"strings"

	"coderag/internal/rag"

	"github.com/spf13/cobra"
)

var flagSearchK int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Show the chunks nearest to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		a, err := openApp(root, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		k := flagSearchK
		if k == 0 {
			k = a.Config.Retrieval.K
		}
		query := strings.Join(args, " ")
		res, err := a.Store.Search(cmd.Context(), query, k)
		if err != nil {
			return err
		}
		fmt.Print(formatHits(query, rag.Normalize(res)))
		return nil
	},
}

// formatHits renders hits as Markdown for the terminal and MCP clients.
func formatHits(query string, hits []rag.Hit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No results found for query: %q\n", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d chunks)\n\n", query, len(hits))
	for i, h := range hits {
		fmt.Fprintf(&sb, "### Result %d: `%s`\n\n", i+1, h.FilePath())
		start, end, _ := h.Lines()
		fmt.Fprintf(&sb, "**Kind:** %s  \n**Name:** %s  \n**Lines:** %d–%d  \n**Distance:** %.4f\n\n",
			h.Kind(), h.Name(), start, end, h.Distance)
		fmt.Fprintf(&sb, "%s\n\n", rag.Render([]rag.Hit{h}, ""))
	}
	return sb.String()
}

func init() {
	searchCmd.Flags().IntVar(&flagSearchK, "k", 0, "number of chunks to return (default retrieval.k)")
	rootCmd.AddCommand(searchCmd)
}
