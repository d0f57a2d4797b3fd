package tui

import (
	"fmt"

	"coderag/internal/chunkstore"

	tea "github.com/charmbracelet/bubbletea"
)

type indexStatus int

const (
	indexNotFound indexStatus = iota
	indexReady
	indexUnavailable
)

type welcomeModel struct {
	status indexStatus
	chunks int
	model  string
	err    error
	ready  bool // true once the check has completed
}

// checkIndexMsg is sent after checking the index status.
type checkIndexMsg struct {
	status indexStatus
	chunks int
	err    error
}

func checkIndex(cfg Config) tea.Cmd {
	return func() tea.Msg {
		snap := cfg.App.Store.GetAll(cfg.Context)
		switch snap.State {
		case chunkstore.StateReady:
			return checkIndexMsg{status: indexReady, chunks: len(snap.Entries)}
		case chunkstore.StateUnavailable:
			return checkIndexMsg{status: indexUnavailable, err: snap.Err}
		default:
			return checkIndexMsg{status: indexNotFound}
		}
	}
}

func (m welcomeModel) Update(msg tea.Msg) (welcomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case checkIndexMsg:
		m.status = msg.status
		m.chunks = msg.chunks
		m.err = msg.err
		m.ready = true
	}
	return m, nil
}

func (m welcomeModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  ◆ coderag") + "\n"
	s += subtitleStyle.Render("  Ask questions about your TypeScript codebase") + "\n\n"

	if !m.ready {
		s += dimStyle.Render("  Checking index...") + "\n"
		return s
	}

	switch m.status {
	case indexReady:
		s += successStyle.Render(fmt.Sprintf("  ✓ Index ready (%d chunks)", m.chunks)) + "\n\n"
		s += dimStyle.Render("  Press Enter to chat, i to index new code, q to quit") + "\n"
		return s
	case indexNotFound:
		s += warnStyle.Render("  ✗ No index found") + "\n"
	case indexUnavailable:
		s += errorStyle.Render("  ✗ Index unavailable") + "\n"
		if m.err != nil {
			s += dimStyle.Render("    "+m.err.Error()) + "\n"
		}
		s += "\n" + dimStyle.Render("  Press q to quit") + "\n"
		return s
	}

	s += "\n"
	s += dimStyle.Render("  Press Enter to continue") + "\n"
	return s
}
