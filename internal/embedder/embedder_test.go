package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)

		out := embedResponse{}
		for i := range req.Input {
			out.Embeddings = append(out.Embeddings, []float32{float32(i), 1})
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL+"/", "nomic-embed-text")
	vecs, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}, {2, 1}}, vecs)

	vecs, err = e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestOllamaEmbedder_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder(srv.URL, "missing").Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "ollama pull missing")
}

func TestOllamaEmbedder_SplitsLargeInputs(t *testing.T) {
	var calls, total int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Truncate)
		assert.LessOrEqual(t, len(req.Input), maxOllamaBatch)
		calls++

		out := embedResponse{}
		for range req.Input {
			total++
			out.Embeddings = append(out.Embeddings, []float32{float32(total)})
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	texts := make([]string, maxOllamaBatch+5)
	vecs, err := NewOllamaEmbedder(srv.URL, "m").Embed(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, vecs, len(texts))
	assert.Equal(t, []float32{float32(len(texts))}, vecs[len(vecs)-1])
}

func TestOllamaEmbedder_EmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings":[[]]}`))
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder(srv.URL, "m").Embed(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "empty embedding")
}

func TestOllamaEmbedder_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings":[[1,2]]}`))
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder(srv.URL, "m").Embed(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "expected 2 embeddings, got 1")
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[
			{"object":"embedding","index":0,"embedding":[0.1,0.2]},
			{"object":"embedding","index":1,"embedding":[0.3,0.4]}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("sk-test", srv.URL+"/v1", "text-embedding-3-small")
	assert.Equal(t, "text-embedding-3-small", e.Model())

	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, vecs)
}

func TestNew(t *testing.T) {
	e, err := New(Config{Model: "nomic-embed-text"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, e)

	_, err = New(Config{Provider: ProviderOpenAI, Model: "m"})
	assert.True(t, errors.Is(err, ErrMissingAPIKey))

	e, err = New(Config{Provider: ProviderOpenAI, Model: "m", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEmbedder{}, e)

	_, err = New(Config{Provider: "cohere"})
	assert.Error(t, err)

	var f Func = e.Embed
	assert.NotNil(t, f)
}
