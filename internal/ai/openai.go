package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const anthropicHost = "api.anthropic.com"

// OpenAICompleter talks to any endpoint implementing the OpenAI chat completion API
type OpenAICompleter struct {
	client *openai.Client
}

func NewOpenAICompleter(apiClient APIClient, httpClient *http.Client) OpenAICompleter {
	config := openai.DefaultConfig(apiClient.APIKey)
	config.BaseURL = strings.TrimSuffix(apiClient.Endpoint, "/")
	if httpClient != nil {
		config.HTTPClient = httpClient
	}
	return OpenAICompleter{client: openai.NewClientWithConfig(config)}
}

func (oc OpenAICompleter) Complete(ctx context.Context, model string, turns []Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		role, err := openAIRole(turn.Role)
		if err != nil {
			return "", err
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}

	resp, err := oc.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIRole(role Role) (string, error) {
	switch role {
	case RoleUser:
		return openai.ChatMessageRoleUser, nil
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant, nil
	}
	return "", fmt.Errorf("unsupported role %q", role)
}

// NewCompleter picks a backend for the client's endpoint. Anthropic's API is used natively; everything else is assumed
// to speak the OpenAI protocol.
func NewCompleter(apiClient APIClient, httpClient *http.Client) (Completer, error) {
	if err := apiClient.Validate(); err != nil {
		return nil, fmt.Errorf("invalid api client: %w", err)
	}
	u, err := url.Parse(apiClient.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse endpoint '%s': %w", apiClient.Endpoint, err)
	}
	if u.Hostname() == anthropicHost {
		return NewAnthropicCompleter(apiClient, httpClient, defaultMaxTokens), nil
	}
	return NewOpenAICompleter(apiClient, httpClient), nil
}
