package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"coderag/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a " + config.FileName + " in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		path := filepath.Join(root, config.FileName)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}

		cfg := config.DefaultConfig()

		providerPrompt := promptui.Select{
			Label: "Select answer provider",
			Items: []string{config.ProviderOllama, config.ProviderGroq, config.ProviderOpenAI},
		}
		_, provider, err := providerPrompt.Run()
		if err != nil {
			return fmt.Errorf("provider selection: %w", err)
		}
		cfg.Generation.Provider = provider

		modelPrompt := promptui.Prompt{
			Label:   "Answer model",
			Default: defaultChatModel(provider),
		}
		if cfg.Generation.Model, err = modelPrompt.Run(); err != nil {
			return fmt.Errorf("model: %w", err)
		}

		backendPrompt := promptui.Select{
			Label: "Select vector index backend",
			Items: []string{config.BackendChromem, config.BackendSQLite},
		}
		if _, cfg.Store.Backend, err = backendPrompt.Run(); err != nil {
			return fmt.Errorf("backend selection: %w", err)
		}

		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		if env := config.APIKeyEnvVar(provider); env != "" {
			fmt.Printf("Set %s in your environment or in a .env file next to it.\n", env)
		}
		return nil
	},
}

func defaultChatModel(provider string) string {
	switch provider {
	case config.ProviderGroq:
		return "qwen/qwen3-32b"
	case config.ProviderOpenAI:
		return "gpt-4o-mini"
	default:
		return config.DefaultConfig().Generation.Model
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
}
