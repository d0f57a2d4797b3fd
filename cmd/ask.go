package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	flagShowContext bool
	flagAskK        int
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question about the indexed codebase",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		a, err := openApp(root, withK(flagAskK))
		if err != nil {
			return err
		}
		defer a.Close()

		pipeline, err := a.Pipeline()
		if err != nil {
			return err
		}

		answer, err := pipeline.Ask(cmd.Context(), strings.Join(args, " "), nil)
		if err != nil {
			return err
		}
		if flagShowContext && answer.Context != "" {
			fmt.Println(answer.Context)
			fmt.Println()
		}
		fmt.Println(answer.Text)
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&flagShowContext, "show-context", false, "print the retrieved context before the answer")
	askCmd.Flags().IntVar(&flagAskK, "k", 0, "number of chunks to retrieve (default retrieval.k)")
	rootCmd.AddCommand(askCmd)
}
