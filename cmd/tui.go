package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"coderag/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// tuiLogFile receives log output while the full-screen UI owns the terminal.
const tuiLogFile = ".coderag/coderag.log"

func runTUI(cmd *cobra.Command) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	logPath := filepath.Join(root, tuiLogFile)
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logOut, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logOut.Close()

	a, err := openAppLogging(root, nil, logOut)
	if err != nil {
		return err
	}
	defer a.Close()

	err = tui.Run(tui.Config{
		App:     a,
		Root:    root,
		Context: cmd.Context(),
	})
	if errors.Is(err, tea.ErrProgramKilled) && cmd.Context().Err() != nil {
		return nil
	}
	return err
}
