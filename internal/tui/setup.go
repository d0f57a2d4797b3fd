package tui

import (
	"fmt"

	"coderag/internal/config"
	"coderag/internal/embedder"
	"coderag/internal/llm"

	tea "github.com/charmbracelet/bubbletea"
)

type setupPage int

const (
	setupPageEmbed setupPage = iota
	setupPageChat
)

type setupModel struct {
	models      []llm.OllamaModel
	embedModels []llm.OllamaModel
	chatModels  []llm.OllamaModel
	embedCursor int
	chatCursor  int
	page        setupPage
	loaded      bool
	err         error
}

// fetchModelsMsg is sent when models have been fetched from Ollama.
type fetchModelsMsg struct {
	models []llm.OllamaModel
	err    error
}

func fetchModels(cfg Config) tea.Cmd {
	return func() tea.Msg {
		baseURL := cfg.App.Config.Embedding.BaseURL
		if baseURL == "" {
			baseURL = embedder.DefaultOllamaURL
		}
		models, err := llm.ListOllamaModels(cfg.Context, baseURL)
		return fetchModelsMsg{models: models, err: err}
	}
}

// splitModels separates embedding models from chat models. A side left empty
// falls back to every model.
func splitModels(models []llm.OllamaModel) (embed, chat []llm.OllamaModel) {
	for _, model := range models {
		if llm.IsEmbeddingModel(model.Name) {
			embed = append(embed, model)
		} else {
			chat = append(chat, model)
		}
	}
	if len(embed) == 0 {
		embed = models
	}
	if len(chat) == 0 {
		chat = models
	}
	return embed, chat
}

// cursorFor returns the index of the model named name, matching an untagged
// name against its ":latest" form.
func cursorFor(models []llm.OllamaModel, name string) int {
	for i, model := range models {
		if model.Name == name || model.Name == name+":latest" {
			return i
		}
	}
	return 0
}

func (m setupModel) Update(msg tea.Msg, cfg *config.Config) (setupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchModelsMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.models = msg.models
		m.embedModels, m.chatModels = splitModels(msg.models)
		m.embedCursor = cursorFor(m.embedModels, cfg.Embedding.Model)
		m.chatCursor = cursorFor(m.chatModels, cfg.Generation.Model)
		if cfg.Generation.Provider != config.ProviderOllama {
			m.chatModels = nil
		}

	case tea.KeyMsg:
		if !m.loaded || m.err != nil {
			return m, nil
		}
		switch msg.String() {
		case "up", "k":
			if m.page == setupPageEmbed && m.embedCursor > 0 {
				m.embedCursor--
			} else if m.page == setupPageChat && m.chatCursor > 0 {
				m.chatCursor--
			}
		case "down", "j":
			if m.page == setupPageEmbed && m.embedCursor < len(m.embedModels)-1 {
				m.embedCursor++
			} else if m.page == setupPageChat && m.chatCursor < len(m.chatModels)-1 {
				m.chatCursor++
			}
		}
	}
	return m, nil
}

// advancePage moves from the embed page to the chat page. It reports false on
// the last page. Without an Ollama answer provider there is no chat page.
func (m *setupModel) advancePage() bool {
	if m.page == setupPageEmbed && len(m.chatModels) > 0 {
		m.page = setupPageChat
		return true
	}
	return false
}

func (m setupModel) View(width, height int) string {
	s := "\n"

	if !m.loaded {
		s += titleStyle.Render("  Model Selection") + "\n\n"
		s += dimStyle.Render("  Fetching models from Ollama...") + "\n"
		return s
	}

	if m.err != nil {
		s += titleStyle.Render("  Model Selection") + "\n\n"
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
		s += dimStyle.Render("  Make sure Ollama is running and try again.") + "\n"
		s += dimStyle.Render("  Press q to quit.") + "\n"
		return s
	}

	if len(m.models) == 0 {
		s += titleStyle.Render("  Model Selection") + "\n\n"
		s += warnStyle.Render("  No models found in Ollama.") + "\n"
		s += dimStyle.Render("  Pull a model first: ollama pull nomic-embed-text") + "\n"
		return s
	}

	if m.page == setupPageEmbed {
		s += titleStyle.Render("  Select Embedding Model") + "\n"
		s += dimStyle.Render("  Used to generate vector embeddings for code chunks") + "\n\n"
		s += renderModelList(m.embedModels, m.embedCursor)
		s += "\n"
		s += helpStyle.Render("  ↑/↓ navigate • Enter select") + "\n"
	} else {
		s += titleStyle.Render("  Select Chat Model") + "\n"
		s += dimStyle.Render("  Used for answering questions about the code") + "\n\n"
		s += renderModelList(m.chatModels, m.chatCursor)
		s += "\n"
		s += helpStyle.Render("  ↑/↓ navigate • Enter confirm") + "\n"
	}

	return s
}

func renderModelList(models []llm.OllamaModel, cursor int) string {
	var s string
	for i, model := range models {
		marker := "  "
		style := listItemStyle
		if i == cursor {
			marker = "▸ "
			style = selectedStyle
		}
		s += fmt.Sprintf("  %s%s\n", marker, style.Render(fmt.Sprintf("%s (%s)", model.Name, formatSize(model.Size))))
	}
	return s
}

func (m setupModel) selectedEmbedModel() string {
	if m.embedCursor < len(m.embedModels) {
		return m.embedModels[m.embedCursor].Name
	}
	return ""
}

func (m setupModel) selectedChatModel() string {
	if m.chatCursor < len(m.chatModels) {
		return m.chatModels[m.chatCursor].Name
	}
	return ""
}

// formatSize returns a human-readable size string.
func formatSize(bytes int64) string {
	const gb = 1024 * 1024 * 1024
	const mb = 1024 * 1024
	if bytes >= gb {
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(gb))
	}
	return fmt.Sprintf("%.0f MB", float64(bytes)/float64(mb))
}
