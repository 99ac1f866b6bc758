package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 4096

// messageStreamer is the subset of the Anthropic messages service used to stream a response
type messageStreamer interface {
	NewStreaming(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) messageStream
}

type messageStream interface {
	Next() bool
	Current() anthropic.MessageStreamEventUnion
	Err() error
}

// AnthropicCompleter talks to Anthropic's native messages API, streaming the response and accumulating it into a
// single message
type AnthropicCompleter struct {
	messages  messageStreamer
	maxTokens int64
}

func NewAnthropicCompleter(apiClient APIClient, httpClient *http.Client, maxTokens int64) AnthropicCompleter {
	opts := []option.RequestOption{
		option.WithAPIKey(apiClient.APIKey),
		option.WithBaseURL(apiClient.Endpoint),
		option.WithMaxRetries(3),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	client := anthropic.NewClient(opts...)
	return AnthropicCompleter{
		messages:  sdkMessages{service: &client.Messages},
		maxTokens: maxTokens,
	}
}

func (ac AnthropicCompleter) Complete(ctx context.Context, model string, turns []Turn) (string, error) {
	messageParams := make([]anthropic.MessageParam, 0, len(turns))
	for _, turn := range turns {
		block := anthropic.NewTextBlock(turn.Content)
		switch turn.Role {
		case RoleUser:
			messageParams = append(messageParams, anthropic.NewUserMessage(block))
		case RoleAssistant:
			messageParams = append(messageParams, anthropic.NewAssistantMessage(block))
		default:
			return "", fmt.Errorf("unsupported role %q", turn.Role)
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: ac.maxTokens,
		Messages:  messageParams,
	}

	stream := ac.messages.NewStreaming(ctx, params)
	response := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		err := response.Accumulate(event)
		if err != nil {
			return "", fmt.Errorf("failed to accumulate response content stream: %w", err)
		}
	}
	if stream.Err() != nil {
		return "", fmt.Errorf("failed to stream response: %w", stream.Err())
	}
	if response.StopReason == "" {
		b, err := json.Marshal(response)
		if err != nil {
			return "", fmt.Errorf("malformed message, and failed to marshal it for inspection: %w", err)
		}
		return "", fmt.Errorf("malformed message: %s", b)
	}

	var text strings.Builder
	for _, content := range response.Content {
		if content.Type == "text" {
			text.WriteString(content.Text)
		}
	}
	if text.Len() == 0 {
		return "", ErrEmptyCompletion
	}
	return text.String(), nil
}

// sdkMessages adapts the SDK's messages service, whose streaming method returns a concrete type, to messageStreamer
type sdkMessages struct {
	service *anthropic.MessageService
}

func (m sdkMessages) NewStreaming(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) messageStream {
	return m.service.NewStreaming(ctx, params, opts...)
}
