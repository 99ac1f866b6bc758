package chat

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"
)

//go:embed chat_template.tmpl
var chatMarkdownTemplate string

// chatMarkdownData is the flattened view of a chat the markdown template renders
type chatMarkdownData struct {
	ID        int64
	Model     string
	CreatedAt string
	Messages  []markdownMessage
}

type markdownMessage struct {
	Sender  string
	Time    string
	Content string
}

// ToMarkdown renders the chat as a markdown document with one section per message
func (c Chat) ToMarkdown() (string, error) {
	data := chatMarkdownData{
		ID:        c.ID,
		Model:     c.Model,
		CreatedAt: c.Timestamp.Format("2006-01-02 15:04:05 MST"),
		Messages:  make([]markdownMessage, 0, len(c.Messages)),
	}
	for _, msg := range c.Messages {
		data.Messages = append(data.Messages, markdownMessage{
			Sender:  msg.Sender.String(),
			Time:    msg.Timestamp.Format(time.TimeOnly),
			Content: msg.Content,
		})
	}
	return renderChatMarkdown(data)
}

func renderChatMarkdown(data chatMarkdownData) (string, error) {
	funcMap := template.FuncMap{
		"indent": func(prefix string, text string) string {
			prefixed := strings.Builder{}
			for line := range strings.Lines(text) {
				prefixed.WriteString(prefix)
				prefixed.WriteString(line)
			}
			return prefixed.String()
		},
	}

	tmpl, err := template.New("chat").Funcs(funcMap).Parse(chatMarkdownTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse chat template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute chat template: %w", err)
	}

	return buf.String(), nil
}
