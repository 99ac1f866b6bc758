package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newCompletionServer(t *testing.T, status int, body string, got *recordedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenAICompleter_Success(t *testing.T) {
	var got recordedRequest
	server := newCompletionServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1700000000,
		"model": "gpt-4o-mini",
		"choices": [
			{"index": 0, "message": {"role": "assistant", "content": "first"}, "finish_reason": "stop"},
			{"index": 1, "message": {"role": "assistant", "content": "second"}, "finish_reason": "stop"}
		]
	}`, &got)

	completer := NewOpenAICompleter(NewAPIClient(server.URL, "sk-test", nil), server.Client())
	answer, err := completer.Complete(context.Background(), "gpt-4o-mini", []Turn{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "how are you?"},
	})
	require.NoError(t, err)

	assert.Equal(t, "first", answer)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, "user", got.Messages[2].Role)
	assert.Equal(t, "how are you?", got.Messages[2].Content)
}

func TestOpenAICompleter_NoChoices(t *testing.T) {
	server := newCompletionServer(t, http.StatusOK, `{"id": "chatcmpl-1", "object": "chat.completion", "choices": []}`, nil)

	completer := NewOpenAICompleter(NewAPIClient(server.URL, "sk-test", nil), server.Client())
	_, err := completer.Complete(context.Background(), "m", []Turn{{Role: RoleUser, Content: "hi"}})
	require.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestOpenAICompleter_ServerError(t *testing.T) {
	server := newCompletionServer(t, http.StatusInternalServerError,
		`{"error": {"message": "overloaded", "type": "server_error"}}`, nil)

	completer := NewOpenAICompleter(NewAPIClient(server.URL, "sk-test", nil), server.Client())
	_, err := completer.Complete(context.Background(), "m", []Turn{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrEmptyCompletion)
}

func TestThreadWithOpenAIBackend_ServerErrorBecomesSentinel(t *testing.T) {
	server := newCompletionServer(t, http.StatusBadGateway, `not json`, nil)

	completer := NewOpenAICompleter(NewAPIClient(server.URL, "sk-test", nil), server.Client())
	thread, _ := newTestThread(completer)

	assert.Equal(t, AnswerError, thread.Completion(context.Background(), "hi", chatWithHistory()))
}

func TestNewCompleter(t *testing.T) {
	completer, err := NewCompleter(NewAPIClient("https://api.openai.com/v1", "k", nil), nil)
	require.NoError(t, err)
	assert.IsType(t, OpenAICompleter{}, completer)

	completer, err = NewCompleter(NewAPIClient("https://api.anthropic.com", "k", nil), nil)
	require.NoError(t, err)
	assert.IsType(t, AnthropicCompleter{}, completer)

	_, err = NewCompleter(NewAPIClient("", "k", nil), nil)
	require.ErrorIs(t, err, ErrMissingField)
}
