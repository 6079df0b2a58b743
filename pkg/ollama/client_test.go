package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatServer(t *testing.T, content string) (*httptest.Server, *api.ChatRequest) {
	t.Helper()
	var got api.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   got.Model,
			"message": map[string]any{"role": "assistant", "content": content},
			"done":    true,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient("localhost")
	assert.Error(t, err)

	c, err := NewClient("http://localhost:11434/api/chat")
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestAnalyzeImage(t *testing.T) {
	srv, req := newChatServer(t, `{"objects":[{"label":"vase","confidence":0.7,"box":{"x":0,"y":0,"w":0.4,"h":0.5}}],"description":"a vase"}`)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	img := base64.StdEncoding.EncodeToString([]byte("fake image bytes"))
	scene, err := c.AnalyzeImage(context.Background(), "openbmb/minicpm-v4.5", "list objects", img)
	require.NoError(t, err)
	require.Len(t, scene.Objects, 1)
	assert.Equal(t, "vase", scene.Objects[0].Label)

	require.Len(t, req.Messages, 1)
	assert.Equal(t, "list objects", req.Messages[0].Content)
	require.Len(t, req.Messages[0].Images, 1)
	assert.Equal(t, "fake image bytes", string(req.Messages[0].Images[0]))
	assert.Equal(t, 0.7, req.Options["temperature"])
}

func TestSimpleQuery(t *testing.T) {
	srv, req := newChatServer(t, "a blue square")

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	text, err := c.SimpleQuery(context.Background(), "llava", "what is this", "")
	require.NoError(t, err)
	assert.Equal(t, "a blue square", text)
	assert.Empty(t, req.Options)
}

func TestAnalyzeImageBadBase64(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = c.AnalyzeImage(context.Background(), "m", "p", "%%%")
	assert.ErrorContains(t, err, "decode base64")
}
