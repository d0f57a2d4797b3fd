package tui

import (
	"context"
	"fmt"
	"strings"

	"coderag/internal/config"
	"coderag/internal/llm"
	"coderag/internal/rag"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const maxHistory = 20

type chatState int

const (
	chatIdle chatState = iota
	chatSearching
	chatGenerating
)

type chatModel struct {
	ctx         context.Context
	viewport    viewport.Model
	input       textinput.Model
	spinner     spinner.Model
	renderer    *glamour.TermRenderer
	messages    []chatMessage
	history     []llm.Message
	pipeline    *rag.Pipeline
	modelName   string
	state       chatState
	width       int
	height      int
	initialized bool
}

type chatMessage struct {
	role    string
	content string
}

// retrievedMsg is sent when context for a question has been assembled.
type retrievedMsg struct {
	question  string
	hits      []rag.Hit
	assembled string
	err       error
}

// answerMsg is sent when generation completes.
type answerMsg struct {
	answer string
	err    error
}

func newChatModel(ctx context.Context, p *rag.Pipeline, cfg *config.Config) chatModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle

	ti := textinput.New()
	ti.Placeholder = "Ask a question about your codebase..."
	ti.CharLimit = 2000
	ti.Focus()

	return chatModel{
		ctx:       ctx,
		spinner:   sp,
		input:     ti,
		pipeline:  p,
		modelName: cfg.Generation.Model,
		state:     chatIdle,
	}
}

func (m *chatModel) initViewport(width, height int) {
	m.width = width
	m.height = height

	// viewport + status bar + input + gap
	vpHeight := height - 3
	if vpHeight < 5 {
		vpHeight = 5
	}
	m.viewport = viewport.New(width, vpHeight)
	m.viewport.SetContent(dimStyle.Render("Ask a question about your codebase.\n\nCommands: /help, /clear, /exit"))

	m.input.Width = width - 4

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err == nil {
		m.renderer = r
	}

	m.initialized = true
}

func retrieve(ctx context.Context, p *rag.Pipeline, question string) tea.Cmd {
	return func() tea.Msg {
		hits, assembled, err := p.Retrieve(ctx, question)
		if err != nil {
			return retrievedMsg{question: question, err: fmt.Errorf("retrieval error: %w", err)}
		}
		return retrievedMsg{question: question, hits: hits, assembled: assembled}
	}
}

func generate(ctx context.Context, p *rag.Pipeline, question, assembled string, history []llm.Message) tea.Cmd {
	return func() tea.Msg {
		answer, err := p.Answer(ctx, question, assembled, history)
		if err != nil {
			return answerMsg{err: err}
		}
		return answerMsg{answer: answer}
	}
}

func (m chatModel) Update(msg tea.Msg) (chatModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.initViewport(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case retrievedMsg:
		if msg.err != nil {
			m.state = chatIdle
			m.dropPendingQuestion()
			m.messages = append(m.messages, chatMessage{role: "error", content: msg.err.Error()})
			m.refresh()
			return m, nil
		}
		m.state = chatGenerating
		if sources := formatSources(msg.hits); sources != "" {
			m.messages = append(m.messages, chatMessage{role: "sources", content: sources})
		}
		m.refresh()
		// The question is already the last history entry.
		prior := m.history[:len(m.history)-1]
		return m, generate(m.ctx, m.pipeline, msg.question, msg.assembled, prior)

	case answerMsg:
		m.state = chatIdle
		if msg.err != nil {
			m.dropPendingQuestion()
			m.messages = append(m.messages, chatMessage{role: "error", content: msg.err.Error()})
		} else {
			m.messages = append(m.messages, chatMessage{role: "assistant", content: msg.answer})
			m.history = append(m.history, llm.Message{Role: llm.RoleAssistant, Content: msg.answer})
			if len(m.history) > maxHistory {
				m.history = m.history[len(m.history)-maxHistory:]
			}
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.state != chatIdle {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.refresh()
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.state != chatIdle {
			return m, nil
		}
		if msg.Type == tea.KeyEnter {
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.input.Reset()

			switch question {
			case "/exit", "/quit":
				return m, tea.Quit
			case "/clear":
				m.messages = nil
				m.history = nil
				m.viewport.SetContent(dimStyle.Render("Conversation cleared."))
				return m, nil
			case "/help":
				helpText := "Commands:\n  /clear  - clear conversation history\n  /exit   - quit\n  /help   - show this help"
				m.messages = append(m.messages, chatMessage{role: "system", content: helpText})
				m.refresh()
				return m, nil
			}

			m.messages = append(m.messages, chatMessage{role: "user", content: question})
			m.history = append(m.history, llm.Message{Role: llm.RoleUser, Content: question})
			m.state = chatSearching
			m.refresh()

			return m, tea.Batch(m.spinner.Tick, retrieve(m.ctx, m.pipeline, question))
		}
	}

	if m.state == chatIdle {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// dropPendingQuestion removes an unanswered question from the history so the
// next turn does not send two user messages in a row.
func (m *chatModel) dropPendingQuestion() {
	if n := len(m.history); n > 0 && m.history[n-1].Role == llm.RoleUser {
		m.history = m.history[:n-1]
	}
}

func (m *chatModel) refresh() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

// formatSources lists the chunks an answer is grounded on, one per line.
func formatSources(hits []rag.Hit) string {
	if len(hits) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Sources:")
	for _, h := range hits {
		start, end, ok := h.Lines()
		name := h.Name()
		if name == "" {
			name = "(anonymous " + h.Kind() + ")"
		}
		if ok {
			fmt.Fprintf(&sb, "\n  %s:%d-%d %s", h.FilePath(), start, end, name)
		} else {
			fmt.Fprintf(&sb, "\n  %s %s", h.FilePath(), name)
		}
	}
	return sb.String()
}

func (m chatModel) renderMarkdown(content string) string {
	if m.renderer == nil {
		return assistantMsgStyle.Render(content)
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return assistantMsgStyle.Render(content)
	}
	return strings.TrimRight(rendered, "\n")
}

func (m chatModel) renderMessages() string {
	var sb strings.Builder
	for _, msg := range m.messages {
		switch msg.role {
		case "user":
			sb.WriteString(userMsgStyle.Render("You: ") + msg.content + "\n\n")
		case "assistant":
			sb.WriteString(m.renderMarkdown(msg.content) + "\n\n")
		case "error":
			sb.WriteString(errorStyle.Render("Error: "+msg.content) + "\n\n")
		case "system":
			sb.WriteString(dimStyle.Render(msg.content) + "\n\n")
		case "sources":
			sb.WriteString(sourcesStyle.Render(msg.content) + "\n\n")
		}
	}

	if m.state != chatIdle {
		label := "Searching..."
		if m.state == chatGenerating {
			label = "Generating..."
		}
		sb.WriteString(m.spinner.View() + " " + dimStyle.Render(label) + "\n")
	}

	return sb.String()
}

func (m chatModel) View(width, height int) string {
	if !m.initialized {
		return ""
	}

	statusText := "idle"
	switch m.state {
	case chatSearching:
		statusText = "searching..."
	case chatGenerating:
		statusText = "generating..."
	}
	statusBar := statusBarStyle.
		Width(m.width).
		Render(fmt.Sprintf(" coderag chat • %s • %s", m.modelName, statusText))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		statusBar,
		m.input.View(),
	)
}
