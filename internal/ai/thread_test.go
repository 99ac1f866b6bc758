package ai

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cchalm/parley/internal/chat"
)

type completerStub struct {
	answer string
	err    error

	gotModel string
	gotTurns []Turn
}

func (cs *completerStub) Complete(_ context.Context, model string, turns []Turn) (string, error) {
	cs.gotModel = model
	cs.gotTurns = turns
	return cs.answer, cs.err
}

func newTestThread(completer Completer) (*Thread, *bytes.Buffer) {
	var logs bytes.Buffer
	return NewThread(completer, "test-model", WithLogger(log.New(&logs, "", 0))), &logs
}

func TestCompletion_Success(t *testing.T) {
	stub := &completerStub{answer: "4"}
	thread, logs := newTestThread(stub)

	c := chat.New(7, "test-model")
	c.AddMessage(chat.NewMessage(chat.User, "what is 1+1?"))
	c.AddMessage(chat.NewMessage(chat.Model, "2"))

	answer := thread.Completion(context.Background(), "and 2+2?", c)

	assert.Equal(t, "4", answer)
	assert.Equal(t, "test-model", stub.gotModel)
	assert.Equal(t, []Turn{
		{Role: RoleUser, Content: "what is 1+1?"},
		{Role: RoleAssistant, Content: "2"},
		{Role: RoleUser, Content: "and 2+2?"},
	}, stub.gotTurns)
	assert.Empty(t, logs.String())
}

func TestCompletion_FailureIsAbsorbed(t *testing.T) {
	stub := &completerStub{err: errors.New("connection refused")}
	thread, logs := newTestThread(stub)

	answer := thread.Completion(context.Background(), "hello", chat.New(1, "test-model"))

	assert.Equal(t, AnswerError, answer)
	assert.Contains(t, logs.String(), "connection refused")
}

func TestCompletion_Empty(t *testing.T) {
	stub := &completerStub{err: ErrEmptyCompletion}
	thread, _ := newTestThread(stub)

	answer := thread.Completion(context.Background(), "hello", chat.New(1, "test-model"))
	assert.Equal(t, AnswerEmpty, answer)

	stub = &completerStub{answer: ""}
	thread, _ = newTestThread(stub)

	answer = thread.Completion(context.Background(), "hello", chat.New(1, "test-model"))
	assert.Equal(t, AnswerEmpty, answer)
}

func TestCompletion_InvalidHistory(t *testing.T) {
	stub := &completerStub{answer: "unreachable"}
	thread, logs := newTestThread(stub)

	c := chat.New(1, "test-model")
	c.AddMessage(chat.Message{Sender: chat.Sender(9), Content: "?"})

	answer := thread.Completion(context.Background(), "hello", c)

	assert.Equal(t, AnswerError, answer)
	assert.Nil(t, stub.gotTurns)
	require.NotEmpty(t, logs.String())
}

func chatWithHistory() chat.Chat {
	c := chat.New(3, "test-model")
	c.AddMessage(chat.NewMessage(chat.User, "hi"))
	c.AddMessage(chat.NewMessage(chat.Model, "hello"))
	return c
}
