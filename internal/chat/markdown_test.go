package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMarkdown(t *testing.T) {
	start := time.Date(2024, time.March, 9, 9, 0, 0, 0, time.UTC)
	c := Chat{ID: 12, Model: "gpt-4o", Timestamp: start}
	c.AddMessage(Message{Sender: User, Content: "two\nlines", Timestamp: start.Add(time.Second)})
	c.AddMessage(Message{Sender: Model, Content: "an answer", Timestamp: start.Add(2 * time.Second)})

	md, err := c.ToMarkdown()
	require.NoError(t, err)

	expected := "# Chat 12\n" +
		"\n" +
		"- **Model:** gpt-4o\n" +
		"- **Started:** 2024-03-09 09:00:00 UTC\n" +
		"- **Messages:** 2\n" +
		"\n" +
		"## User (09:00:01)\n" +
		"\n" +
		"> two\n" +
		"> lines\n" +
		"\n" +
		"## Model (09:00:02)\n" +
		"\n" +
		"an answer\n"
	assert.Equal(t, expected, md)
}

func TestToMarkdown_NoMessages(t *testing.T) {
	c := Chat{ID: 1, Model: "m", Timestamp: time.Date(2024, time.March, 9, 9, 0, 0, 0, time.UTC)}

	md, err := c.ToMarkdown()
	require.NoError(t, err)
	assert.Contains(t, md, "- **Messages:** 0\n")
	assert.NotContains(t, md, "##")
}
