package ai

import (
	"context"
	"errors"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/cchalm/parley/internal/chat"
)

const (
	// AnswerError is returned in place of an answer when the backend could not be reached or misbehaved
	AnswerError = "It seems like the model is unavailable or something went wrong."
	// AnswerEmpty is returned when the backend answered without any content
	AnswerEmpty = "No completion response found"
)

// Thread sends chat history to one model through a Completer
type Thread struct {
	completer Completer
	model     string

	logger *log.Logger
	tracer trace.Tracer
}

type ThreadOption func(*Thread)

// WithLogger sets the logger completion failures are reported to
func WithLogger(logger *log.Logger) ThreadOption {
	return func(t *Thread) {
		t.logger = logger
	}
}

// WithTracer records a span for every completion
func WithTracer(tracer trace.Tracer) ThreadOption {
	return func(t *Thread) {
		t.tracer = tracer
	}
}

func NewThread(completer Completer, model string, opts ...ThreadOption) *Thread {
	t := &Thread{
		completer: completer,
		model:     model,
		logger:    log.Default(),
		tracer:    noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Thread) Model() string {
	return t.model
}

// Completion asks the model to answer newMessage in the context of c's history. It never fails: errors are logged and
// replaced with AnswerError, and an empty response is replaced with AnswerEmpty.
func (t *Thread) Completion(ctx context.Context, newMessage string, c chat.Chat) string {
	ctx, span := t.tracer.Start(ctx, "ai.completion", trace.WithAttributes(
		attribute.String("model", t.model),
		attribute.Int64("chat.id", c.ID),
		attribute.Int("chat.messages", len(c.Messages)),
	))
	defer span.End()

	turns, err := BuildTurns(newMessage, c)
	if err != nil {
		t.logger.Printf("error building completion request: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid history")
		return AnswerError
	}

	answer, err := t.completer.Complete(ctx, t.model, turns)
	if errors.Is(err, ErrEmptyCompletion) {
		span.SetAttributes(attribute.Bool("completion.empty", true))
		return AnswerEmpty
	} else if err != nil {
		t.logger.Printf("error during chat completion: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return AnswerError
	}
	if answer == "" {
		return AnswerEmpty
	}

	span.SetAttributes(attribute.Int("completion.length", len(answer)))
	return answer
}
