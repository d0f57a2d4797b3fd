package tui

import (
	"fmt"

	"coderag/internal/index"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type indexingModel struct {
	spinner spinner.Model
	phase   string
	done    int
	total   int
	unit    string
	stats   *index.Stats
	err     error
	// finished is set once the indexer returns.
	finished bool
}

func newIndexingModel() indexingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return indexingModel{
		spinner: sp,
		phase:   "Chunking files...",
	}
}

// indexDoneMsg is sent when indexing completes.
type indexDoneMsg struct {
	stats *index.Stats
	err   error
}

// indexProgressMsg is sent as the indexer moves through its stages.
type indexProgressMsg struct {
	stage string
	done  int
	total int
}

func runIndex(cfg Config) tea.Cmd {
	return func() tea.Msg {
		idx := cfg.App.Indexer(func(stage string, done, total int) {
			cfg.program.send(indexProgressMsg{stage: stage, done: done, total: total})
		})
		stats, err := idx.Index(cfg.Context, cfg.Root)
		return indexDoneMsg{stats: stats, err: err}
	}
}

func (m indexingModel) Update(msg tea.Msg) (indexingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case indexDoneMsg:
		m.finished = true
		m.stats = msg.stats
		m.err = msg.err
		return m, nil
	case indexProgressMsg:
		m.done = msg.done
		m.total = msg.total
		switch msg.stage {
		case "chunk":
			m.phase = "Chunking files..."
			m.unit = "files"
		case "embed":
			m.phase = "Embedding chunks..."
			m.unit = "chunks"
		default:
			m.phase = msg.stage
			m.unit = ""
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m indexingModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  Indexing") + "\n\n"

	if m.finished {
		if m.err != nil {
			s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
			s += dimStyle.Render("  Chunks stored so far are kept; indexing again resumes from them.") + "\n"
			s += dimStyle.Render("  Press Enter to continue to chat anyway, or q to quit.") + "\n"
			return s
		}
		s += successStyle.Render("  ✓ Indexing complete!") + "\n\n"
		if m.stats != nil {
			s += fmt.Sprintf("  Files: %d total, %d failed\n", m.stats.FilesTotal, m.stats.FilesFailed)
			s += fmt.Sprintf("  Chunks: %d found, %d already indexed, %d added\n",
				m.stats.ChunksTotal, m.stats.ChunksSkipped, m.stats.ChunksAdded)
		}
		s += "\n"
		s += dimStyle.Render("  Press Enter to start chatting") + "\n"
		return s
	}

	s += fmt.Sprintf("  %s %s\n", m.spinner.View(), m.phase)
	switch {
	case m.total > 0:
		s += fmt.Sprintf("  %d / %d %s\n", m.done, m.total, m.unit)
	case m.done > 0:
		s += fmt.Sprintf("  %d %s\n", m.done, m.unit)
	}
	s += "\n"
	s += dimStyle.Render("  This may take a while for large codebases...") + "\n"
	return s
}
