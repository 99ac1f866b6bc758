package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cchalm/parley/internal/ai"
	"github.com/cchalm/parley/internal/chat"
	"github.com/cchalm/parley/internal/storage"
	"github.com/cchalm/parley/internal/telemetry"
)

const promptPrefix = "> "

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start or resume an interactive chat",
	Long: `Starts a new chat, or resumes an existing one with --id. Every exchange is saved
to the store as soon as the model answers. Type /exit or press Ctrl+D to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().Int64Var(&flags.ChatID, "id", 0, "ID of the chat to resume")
	chatCmd.Flags().IntVar(&flags.ClientIndex, "client", 0, "Index of the stored credentials to use")
	chatCmd.Flags().StringVar(&flags.Model, "model", "", "Model for a new chat (default $PARLEY_MODEL or the first model listed for the credentials)")

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	store, err := openStore()
	if err != nil {
		return err
	}
	client, err := resolveAPIClient(store, flags.ClientIndex)
	if err != nil {
		return err
	}

	var c chat.Chat
	if flags.ChatID != 0 {
		var ok bool
		c, ok = store.Chat(flags.ChatID)
		if !ok {
			return fmt.Errorf("no chat with id %d", flags.ChatID)
		}
	} else {
		model, err := resolveModel(client, config.Model)
		if err != nil {
			return err
		}
		c = chat.New(store.NextChatID(), model)
	}

	telemetryProvider, err := createTelemetryProvider(ctx)
	if err != nil {
		return fmt.Errorf("failed to create telemetry provider: %w", err)
	}
	defer func() {
		if err := telemetryProvider.Shutdown(context.Background()); err != nil {
			log.Printf("Failed to shut down telemetry: %v", err)
		}
	}()

	completer, err := ai.NewCompleter(client, createHTTPClient())
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}
	thread := ai.NewThread(completer, c.Model, ai.WithTracer(telemetryProvider.Tracer()))

	sessionID := telemetry.NewSessionID()
	if telemetryProvider.Enabled() {
		log.Printf("Tracing session %s", sessionID)
	}
	ctx, span := telemetryProvider.Tracer().Start(ctx, "chat.session", trace.WithAttributes(
		telemetry.SessionAttribute(sessionID),
		attribute.Int64("chat.id", c.ID),
	))
	defer span.End()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Chat %d with %s (%s)\n", c.ID, c.Model, client.Endpoint)
	if err := c.Render(out); err != nil {
		return err
	}

	prompt := newLinePrompt(config.HistoryFile)
	defer prompt.Close()

	return converse(ctx, prompt, thread, store, c, out)
}

// lineReader reads one line of user input after printing a prefix
type lineReader interface {
	ReadLine(prefix string) (string, error)
}

// converse runs the read/answer/save loop until the user leaves. Completion failures are part of the conversation;
// only input and persistence failures end it with an error.
func converse(ctx context.Context, in lineReader, thread *ai.Thread, store *storage.Store, c chat.Chat, out io.Writer) error {
	for {
		input, err := in.ReadLine(promptPrefix)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(out)
			return nil
		} else if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		switch input {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		userMessage := chat.NewMessage(chat.User, input)
		answer := thread.Completion(ctx, input, c)
		modelMessage := chat.NewMessage(chat.Model, answer)
		c.AddMessage(userMessage)
		c.AddMessage(modelMessage)
		fmt.Fprintln(out, modelMessage)

		store.UpdateChat(c)
		if err := saveStore(store); err != nil {
			return err
		}
	}
}

// linePrompt reads input with line editing and keeps a history of previous inputs across runs
type linePrompt struct {
	state       *liner.State
	historyFile string
}

func newLinePrompt(historyFile string) *linePrompt {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	p := &linePrompt{
		state:       state,
		historyFile: historyFile,
	}
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = state.ReadHistory(f)
			f.Close()
		}
	}
	return p
}

func (p *linePrompt) ReadLine(prefix string) (string, error) {
	input, err := p.state.Prompt(prefix)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		p.state.AppendHistory(input)
	}
	return input, nil
}

// Close saves the input history and restores the terminal
func (p *linePrompt) Close() {
	defer p.state.Close()
	if p.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(p.historyFile), 0700); err != nil {
		log.Printf("Failed to create history directory: %v", err)
		return
	}
	f, err := os.OpenFile(p.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		log.Printf("Failed to save input history: %v", err)
		return
	}
	defer f.Close()
	_, _ = p.state.WriteHistory(f)
}
