package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"coderag/internal/chunker/languages"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const controller = `import { Injectable } from '@nestjs/common';
import * as crypto from "crypto";

@Injectable()
export class AuthService {
  login(user: string) {
    return crypto.hash(user);
  }
}
`

func TestBuildFile(t *testing.T) {
	b := NewBuilder(languages.Default(), nil)
	g, err := b.BuildFile(context.Background(), "src/auth.ts", []byte(controller))
	require.NoError(t, err)

	assert.Equal(t, map[string]Node{
		"src/auth.ts:AuthService": {Type: NodeClass, Name: "AuthService", File: "src/auth.ts"},
		"src/auth.ts:login":       {Type: NodeMethod, Name: "login", File: "src/auth.ts"},
	}, g.Nodes)

	assert.Equal(t, []Edge{
		{From: "src/auth.ts", To: "@nestjs/common", Type: EdgeImport},
		{From: "src/auth.ts", To: "crypto", Type: EdgeImport},
		{From: "src/auth.ts", To: "Injectable()", Type: EdgeDecorator},
		{From: "src/auth.ts", To: "Injectable", Type: EdgeCall},
		{From: "src/auth.ts", To: "crypto.hash", Type: EdgeCall},
	}, g.Edges)
}

func TestBuildFile_UnknownLanguage(t *testing.T) {
	g, err := NewBuilder(languages.Default(), nil).BuildFile(context.Background(), "notes.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}

func TestBuildAndWrite(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "auth.ts"), []byte(controller), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "util.ts"), []byte("export class Util {}\n"), 0o644))

	g, err := NewBuilder(languages.Default(), nil).Build(context.Background(), root, []string{"typescript", "tsx"}, nil)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 3)
	assert.Contains(t, g.Nodes, "src/util.ts:Util")

	var buf bytes.Buffer
	require.NoError(t, g.WriteJSON(&buf))

	var decoded Graph
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, g.Nodes, decoded.Nodes)
	assert.Len(t, decoded.Edges, len(g.Edges))

	out := filepath.Join(t.TempDir(), "code_graph.json")
	require.NoError(t, g.WriteFile(out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(data))
}

func TestBuild_LogsUnreadableFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "auth.ts"), []byte(controller), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "gone.ts"), []byte("class Gone {}\n"), 0o644))

	var logs bytes.Buffer
	b := NewBuilder(languages.Default(), slog.New(slog.NewTextHandler(&logs, nil)))
	b.readFile = func(path string) ([]byte, error) {
		if filepath.Base(path) == "gone.ts" {
			return nil, fs.ErrPermission
		}
		return os.ReadFile(path)
	}

	g, err := b.Build(context.Background(), root, []string{"typescript"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"gone.ts"}, g.Failed)
	assert.Contains(t, g.Nodes, "auth.ts:AuthService")
	assert.NotContains(t, g.Nodes, "gone.ts:Gone")

	assert.Contains(t, logs.String(), "read failed")
	assert.Contains(t, logs.String(), "file=gone.ts")

	var buf bytes.Buffer
	require.NoError(t, g.WriteJSON(&buf))
	assert.NotContains(t, buf.String(), "gone.ts")
}
