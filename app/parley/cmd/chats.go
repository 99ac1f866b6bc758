package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/cchalm/parley/internal/chat"
)

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "Inspect stored chats",
}

var chatsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored chats",
	Args:  cobra.NoArgs,
	RunE:  runChatsList,
}

var chatsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print the messages of a chat",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsShow,
}

var chatsExportCmd = &cobra.Command{
	Use:   "export ID",
	Short: "Print a chat as markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsExport,
}

func init() {
	chatsCmd.AddCommand(chatsListCmd, chatsShowCmd, chatsExportCmd)
	rootCmd.AddCommand(chatsCmd)
}

func runChatsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(store.Chats) == 0 {
		fmt.Fprintln(out, "No chats yet")
		return nil
	}
	for _, c := range store.Chats {
		fmt.Fprintf(out, "%d\t%s\t%s\t%d messages\n", c.ID, c.Timestamp.Format(time.DateTime), c.Model, len(c.Messages))
	}
	return nil
}

func runChatsShow(cmd *cobra.Command, args []string) error {
	c, err := findChat(args[0])
	if err != nil {
		return err
	}
	return c.Render(cmd.OutOrStdout())
}

func runChatsExport(cmd *cobra.Command, args []string) error {
	c, err := findChat(args[0])
	if err != nil {
		return err
	}
	md, err := c.ToMarkdown()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), md)
	return err
}

func findChat(arg string) (chat.Chat, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return chat.Chat{}, fmt.Errorf("invalid chat id '%s': %w", arg, err)
	}
	store, err := openStore()
	if err != nil {
		return chat.Chat{}, err
	}
	c, ok := store.Chat(id)
	if !ok {
		return chat.Chat{}, fmt.Errorf("no chat with id %d", id)
	}
	return c, nil
}
