package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"coderag/internal/config"
	"coderag/internal/llm"

	"github.com/spf13/cobra"
)

const maxHistory = 20

var flagK int

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about your indexed codebase",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		a, err := openApp(root, withK(flagK))
		if err != nil {
			return err
		}
		defer a.Close()

		if n, err := a.Store.Count(cmd.Context()); err == nil && n == 0 {
			return fmt.Errorf("index at %s is empty\nRun 'coderag index <path>' first to build the index", a.Config.Store.Dir)
		}

		pipeline, err := a.Pipeline()
		if err != nil {
			return err
		}

		var history []llm.Message
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("coderag chat (type /help for commands, /exit to quit)")
		fmt.Println()

		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			question := strings.TrimSpace(scanner.Text())
			if question == "" {
				continue
			}

			switch question {
			case "/exit", "/quit":
				fmt.Println("Goodbye.")
				return nil
			case "/clear":
				history = nil
				fmt.Println("Conversation cleared.")
				continue
			case "/help":
				fmt.Println("Commands:")
				fmt.Println("  /clear  - clear conversation history")
				fmt.Println("  /exit   - quit chat")
				fmt.Println("  /help   - show this help")
				continue
			}

			fmt.Println("[Searching...]")

			answer, err := pipeline.Ask(cmd.Context(), question, history)
			if err != nil {
				if cmd.Context().Err() != nil {
					return nil
				}
				if errors.Is(err, llm.ErrGeneration) {
					fmt.Fprintf(os.Stderr, "llm error: %v\n", err)
				} else {
					fmt.Fprintf(os.Stderr, "retrieval error: %v\n", err)
				}
				continue
			}

			fmt.Println()
			fmt.Println(answer.Text)
			fmt.Println()

			history = append(history,
				llm.Message{Role: llm.RoleUser, Content: question},
				llm.Message{Role: llm.RoleAssistant, Content: answer.Text},
			)
			if len(history) > maxHistory {
				history = history[len(history)-maxHistory:]
			}
		}

		return scanner.Err()
	},
}

// withK overrides retrieval.k when k is positive.
func withK(k int) func(*config.Config) {
	return func(cfg *config.Config) {
		if k > 0 {
			cfg.Retrieval.K = k
		}
	}
}

func init() {
	chatCmd.Flags().IntVar(&flagK, "k", 0, "number of chunks to retrieve per question (default retrieval.k)")
	rootCmd.AddCommand(chatCmd)
}
