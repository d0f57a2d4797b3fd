package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"coderag/internal/chunkstore"
	"coderag/internal/rag"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing codebase search tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	a, err := openApp(root, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	s := mcpserver.NewMCPServer("coderag", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(searchCodebaseTool(a.Config.Retrieval.K), makeSearchHandler(a.Store, a.Config.Retrieval.K))
	s.AddTool(askCodebaseTool(), makeAskHandler(a.Pipeline))
	s.AddTool(listIndexedFilesTool(), makeListFilesHandler(a.Store))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchCodebaseTool(defaultK int) mcp.Tool {
	return mcp.NewTool("search_codebase",
		mcp.WithDescription("Semantically search the indexed codebase by vector similarity. Returns the closest classes, functions and methods with file paths and line numbers."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language or code query to search the codebase"),
		),
		mcp.WithNumber("k",
			mcp.Description(fmt.Sprintf("Maximum number of chunks to return (default %d)", defaultK)),
		),
	)
}

func askCodebaseTool() mcp.Tool {
	return mcp.NewTool("ask_codebase",
		mcp.WithDescription("Answer a question about the codebase using the configured model, grounded on retrieved code chunks."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint:    mcp.ToBoolPtr(true),
			DestructiveHint: mcp.ToBoolPtr(false),
			IdempotentHint:  mcp.ToBoolPtr(false),
			OpenWorldHint:   mcp.ToBoolPtr(true),
		}),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
	)
}

func listIndexedFilesTool() mcp.Tool {
	return mcp.NewTool("list_indexed_files",
		mcp.WithDescription("List all files in the index with their language and chunk count."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("language",
			mcp.Description("Optional language filter (e.g. 'typescript', 'tsx'). Case-insensitive."),
		),
	)
}

// --- Handler factories ---

func makeSearchHandler(st *chunkstore.Store, defaultK int) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		k := req.GetInt("k", defaultK)
		if k <= 0 {
			k = defaultK
		}

		res, err := st.Search(ctx, query, k)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}

		return mcp.NewToolResultText(formatHits(query, rag.Normalize(res))), nil
	}
}

func makeAskHandler(pipeline func() (*rag.Pipeline, error)) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question := req.GetString("question", "")
		if question == "" {
			return mcp.NewToolResultError("question is required"), nil
		}

		p, err := pipeline()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		answer, err := p.Ask(ctx, question, nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
		}
		return mcp.NewToolResultText(answer.Text), nil
	}
}

// indexedFile is a file path with its language and how many chunks it has in
// the index.
type indexedFile struct {
	Path     string
	Language string
	Chunks   int
}

// groupByFile folds a snapshot into per-file chunk counts sorted by path.
func groupByFile(snap chunkstore.Snapshot, language string) []indexedFile {
	byPath := make(map[string]*indexedFile)
	for _, e := range snap.Entries {
		path := e.Metadata.String(chunkstore.KeyFilePath)
		lang := e.Metadata.String(chunkstore.KeyLanguage)
		if language != "" && !strings.EqualFold(lang, language) {
			continue
		}
		f, ok := byPath[path]
		if !ok {
			f = &indexedFile{Path: path, Language: lang}
			byPath[path] = f
		}
		f.Chunks++
	}

	files := make([]indexedFile, 0, len(byPath))
	for _, f := range byPath {
		files = append(files, *f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

func makeListFilesHandler(st *chunkstore.Store) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		langFilter := strings.ToLower(req.GetString("language", ""))

		snap := st.GetAll(ctx)
		if snap.State == chunkstore.StateUnavailable {
			return mcp.NewToolResultError(fmt.Sprintf("list files failed: %v", snap.Err)), nil
		}
		files := groupByFile(snap, langFilter)

		var sb strings.Builder
		if langFilter != "" {
			fmt.Fprintf(&sb, "## Indexed files (%d, language: %s)\n\n", len(files), langFilter)
		} else {
			fmt.Fprintf(&sb, "## Indexed files (%d)\n\n", len(files))
		}
		for _, f := range files {
			fmt.Fprintf(&sb, "- **%s** (%s, %d chunks)\n", f.Path, f.Language, f.Chunks)
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}
