package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Version(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/version", r.URL.Path)
		w.Write([]byte(`{"version":"0.5.1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, Config{})
	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.5.1", v.Version)
}

func TestClient_Version_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("backend overloaded"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, Config{})
	_, err := c.Version(context.Background())
	require.Error(t, err)

	var upstreamErr *UpstreamHTTPError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusServiceUnavailable, upstreamErr.StatusCode)
	assert.Contains(t, upstreamErr.Error(), "backend overloaded")
}

func TestClient_Tags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[{"model":"llama3:8b","size":4000},{"model":"mistral:7b"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, Config{})
	tags, err := c.Tags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags.Models, 2)
	assert.Equal(t, "llama3:8b", tags.Models[0].Model)
	assert.Equal(t, int64(4000), tags.Models[0].Size)
}

func TestClient_Generate_Streaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		lines := []string{
			`{"response":"hel","done":false}`,
			`not json, should be skipped`,
			`{"response":"lo","done":false}`,
			`{"response":"","done":true,"eval_count":5}`,
		}
		for _, l := range lines {
			w.Write([]byte(l + "\n"))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, Config{})
	var chunks []GenerateChunk
	err := c.Generate(context.Background(), GenerateRequest{Model: "llama3:8b", Prompt: "hi", Stream: true}, func(g GenerateChunk) error {
		chunks = append(chunks, g)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "hel", chunks[0].Response)
	assert.Equal(t, "lo", chunks[1].Response)
	assert.True(t, chunks[2].Done)
	require.NotNil(t, chunks[2].EvalCount)
	assert.Equal(t, 5, *chunks[2].EvalCount)
}

func TestClient_Generate_Unary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"full answer","done":true,"eval_count":42}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, Config{})
	var got GenerateChunk
	err := c.Generate(context.Background(), GenerateRequest{Model: "llama3:8b", Prompt: "hi", Stream: false}, func(g GenerateChunk) error {
		got = g
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "full answer", got.Response)
	assert.Equal(t, 42, *got.EvalCount)
}

func TestClient_Raw_Unary_PreservesContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "bar", r.URL.Query().Get("foo"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, Config{})
	resp, err := c.Raw(context.Background(), http.MethodPost, "/v1/chat/completions",
		map[string]string{"Content-Type": "application/json"},
		map[string]string{"foo": "bar"},
		[]byte(`{"model":"llama3:8b"}`), false, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.ContentType)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestClient_Raw_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, Config{})
	_, err := c.Raw(context.Background(), http.MethodGet, "/v1/models", nil, nil, nil, false, nil)
	var upstreamErr *UpstreamHTTPError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusBadGateway, upstreamErr.StatusCode)
}

func TestClient_Raw_Streaming_PreservesChunkOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("chunk-1\n"))
		w.Write([]byte("chunk-2\n"))
		w.Write([]byte("chunk-3\n"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, Config{})
	var received []string
	_, err := c.Raw(context.Background(), http.MethodPost, "/api/chat", nil, nil, nil, true, func(line []byte) error {
		received = append(received, string(line))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk-1", "chunk-2", "chunk-3"}, received)
}
