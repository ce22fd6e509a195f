package forwarder

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitNameTag(t *testing.T) {
	name, tag, err := splitNameTag("llama3:8b")
	require.NoError(t, err)
	assert.Equal(t, "llama3", name)
	assert.Equal(t, "8b", tag)
}

func TestSplitNameTag_RejectsMissingTag(t *testing.T) {
	_, _, err := splitNameTag("llama3")
	assert.ErrorIs(t, err, ErrBadModel)
}

func TestSplitNameTag_RejectsTrailingColon(t *testing.T) {
	_, _, err := splitNameTag("llama3:")
	assert.ErrorIs(t, err, ErrBadModel)
}

func TestResolveModelAndStream_PrefersBodyModel(t *testing.T) {
	body := []byte(`{"model":"llama3:8b","stream":false}`)
	name, tag, stream, err := resolveModelAndStream("api/generate", body)
	require.NoError(t, err)
	assert.Equal(t, "llama3", name)
	assert.Equal(t, "8b", tag)
	assert.False(t, stream)
}

func TestResolveModelAndStream_FallsBackToPathSegment(t *testing.T) {
	name, tag, stream, err := resolveModelAndStream("api/pull/llama3:8b", nil)
	require.NoError(t, err)
	assert.Equal(t, "llama3", name)
	assert.Equal(t, "8b", tag)
	assert.False(t, stream)
}

func TestResolveModelAndStream_DefaultsStreamingByPath(t *testing.T) {
	body := []byte(`{"model":"llama3:8b"}`)
	_, _, stream, err := resolveModelAndStream("api/chat", body)
	require.NoError(t, err)
	assert.True(t, stream)
}

func TestResolveModelAndStream_NonStreamingPathDefaultsFalse(t *testing.T) {
	body := []byte(`{"model":"llama3:8b"}`)
	_, _, stream, err := resolveModelAndStream("api/embeddings", body)
	require.NoError(t, err)
	assert.False(t, stream)
}

func TestScrubHeaders_RemovesHopByHopAndAuth(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer sk-xyz")
	h.Set("Content-Length", "123")
	h.Set("X-Custom", "keep-me")

	out := scrubHeaders(h)
	_, hasAuth := out["Authorization"]
	_, hasLen := out["Content-Length"]
	assert.False(t, hasAuth)
	assert.False(t, hasLen)
	assert.Equal(t, "keep-me", out["X-Custom"])
}
