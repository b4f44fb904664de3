package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popgate/popgate/internal/infrastructure/config"
)

func fakeEndpoint(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestComplete(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody completionRequest

	ts := fakeEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "hi there"}},
			},
		})
	})

	c := New(config.ChatConfig{BaseURL: ts.URL, APIKey: "sk-test", Model: "gpt-4o-mini"})

	reply, err := c.Complete(context.Background(), "say hi")
	require.NoError(t, err)

	assert.Equal(t, "hi there", reply)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "gpt-4o-mini", gotBody.Model)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
	assert.Equal(t, "say hi", gotBody.Messages[0].Content)
}

func TestCompleteAPIError(t *testing.T) {
	ts := fakeEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "bad key", "type": "invalid_request_error"},
		})
	})

	c := New(config.ChatConfig{BaseURL: ts.URL, Model: "gpt-4o-mini"})

	_, err := c.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestCompleteEmptyChoices(t *testing.T) {
	ts := fakeEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	c := New(config.ChatConfig{BaseURL: ts.URL, Model: "gpt-4o-mini"})

	_, err := c.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestCompleteMalformedResponse(t *testing.T) {
	ts := fakeEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	c := New(config.ChatConfig{BaseURL: ts.URL, Model: "gpt-4o-mini"})

	_, err := c.Complete(context.Background(), "hello")
	assert.Error(t, err)
}
