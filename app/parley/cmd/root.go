package cmd

import (
	"github.com/spf13/cobra"

	appconfig "github.com/cchalm/parley/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Chat with language models from the terminal",
	Long: `Parley is a terminal chat client for OpenAI-compatible chat completion endpoints.
Conversations and API credentials are kept in a single local file, so chats can be
resumed across runs.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadRootConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func loadRootConfig(_ *cobra.Command, _ []string) error {
	config = appconfig.Load()
	// Flags take precedence over the environment
	if flags.StorePath != "" {
		config.StorePath = flags.StorePath
	}
	if flags.Model != "" {
		config.Model = flags.Model
	}
	return config.Validate()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.StorePath, "store", "", "Path of the store file (default $PARLEY_STORE or ~/.parley/store.bin)")
}
