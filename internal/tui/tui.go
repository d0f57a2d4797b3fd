package tui

import (
	"context"

	"coderag/internal/app"
	"coderag/internal/config"

	tea "github.com/charmbracelet/bubbletea"
)

// ViewState represents which screen is active.
type ViewState int

const (
	ViewWelcome ViewState = iota
	ViewSetup
	ViewIndexing
	ViewChat
)

// programRef is an indirect pointer to the tea.Program so background goroutines
// can send messages. It must be set after tea.NewProgram returns but before Run.
type programRef struct {
	p *tea.Program
}

func (r *programRef) send(msg tea.Msg) {
	if r != nil && r.p != nil {
		r.p.Send(msg)
	}
}

// Config holds what the CLI layer hands to the TUI.
type Config struct {
	App *app.App
	// Root is the project directory that gets indexed.
	Root string
	// Context cancels background indexing and answer generation.
	Context context.Context

	program *programRef
}

// Model is the top-level Bubble Tea model.
type Model struct {
	state  ViewState
	config Config
	width  int
	height int

	welcome  welcomeModel
	setup    setupModel
	indexing indexingModel
	chat     chatModel
	err      error
}

// New creates a new TUI model with the given config.
func New(cfg Config) Model {
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	return Model{
		state:  ViewWelcome,
		config: cfg,
	}
}

func (m Model) Init() tea.Cmd {
	return checkIndex(m.config)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.state == ViewChat {
			var c tea.Cmd
			m.chat, c = m.chat.Update(msg)
			return m, c
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.state != ViewChat {
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd

	switch m.state {
	case ViewWelcome:
		m.welcome, cmd = m.welcome.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		keyMsg, ok := msg.(tea.KeyMsg)
		if !ok || !m.welcome.ready {
			return m, nil
		}
		switch {
		case keyMsg.Type == tea.KeyEnter && m.welcome.status == indexReady:
			return m, m.transitionToChat()
		case keyMsg.Type == tea.KeyEnter && m.welcome.status == indexUnavailable:
			return m, nil
		case keyMsg.Type == tea.KeyEnter && m.config.App.Config.Embedding.Provider == config.ProviderOllama:
			m.state = ViewSetup
			return m, fetchModels(m.config)
		case keyMsg.Type == tea.KeyEnter, keyMsg.String() == "i" && m.welcome.status == indexReady:
			return m, m.transitionToIndexing()
		}

	case ViewSetup:
		m.setup, cmd = m.setup.Update(msg, m.config.App.Config)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.setup.loaded && m.setup.err == nil && len(m.setup.models) > 0 {
			if m.setup.advancePage() {
				return m, nil
			}
			if err := m.config.App.UseModels(m.setup.selectedEmbedModel(), m.setup.selectedChatModel()); err != nil {
				m.err = err
				return m, nil
			}
			return m, m.transitionToIndexing()
		}

	case ViewIndexing:
		m.indexing, cmd = m.indexing.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.indexing.finished {
			return m, m.transitionToChat()
		}

	case ViewChat:
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) transitionToIndexing() tea.Cmd {
	m.state = ViewIndexing
	m.indexing = newIndexingModel()
	return tea.Batch(m.indexing.spinner.Tick, runIndex(m.config))
}

func (m *Model) transitionToChat() tea.Cmd {
	pipeline, err := m.config.App.Pipeline()
	if err != nil {
		m.err = err
		return nil
	}

	m.chat = newChatModel(m.config.Context, pipeline, m.config.App.Config)
	m.chat.initViewport(m.width, m.height)
	m.state = ViewChat
	return nil
}

func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	switch m.state {
	case ViewWelcome:
		return m.welcome.View(m.width, m.height)
	case ViewSetup:
		return m.setup.View(m.width, m.height)
	case ViewIndexing:
		return m.indexing.View(m.width, m.height)
	case ViewChat:
		return m.chat.View(m.width, m.height)
	}
	return ""
}

// Run starts the TUI program and blocks until it exits.
func Run(cfg Config) error {
	ref := &programRef{}
	cfg.program = ref
	model := New(cfg)
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.Context != nil {
		opts = append(opts, tea.WithContext(cfg.Context))
	}
	p := tea.NewProgram(model, opts...)
	ref.p = p
	_, err := p.Run()
	return err
}
