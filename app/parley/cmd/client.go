package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cchalm/parley/internal/ai"
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Manage stored API credentials",
}

var clientAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store credentials for a completion endpoint",
	Args:  cobra.NoArgs,
	RunE:  runClientAdd,
}

var clientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials",
	Args:  cobra.NoArgs,
	RunE:  runClientList,
}

var clientImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Store the credentials given by PARLEY_ENDPOINT, PARLEY_API_KEY and PARLEY_MODELS",
	Args:  cobra.NoArgs,
	RunE:  runClientImport,
}

func init() {
	clientAddCmd.Flags().StringVar(&flags.Endpoint, "endpoint", "", "Base URL of the endpoint, e.g. https://api.openai.com/v1")
	clientAddCmd.Flags().StringVar(&flags.APIKey, "api-key", "", "API key for the endpoint")
	clientAddCmd.Flags().StringSliceVar(&flags.Models, "models", nil, "Models offered by the endpoint")
	_ = clientAddCmd.MarkFlagRequired("endpoint")
	_ = clientAddCmd.MarkFlagRequired("api-key")

	clientCmd.AddCommand(clientAddCmd, clientListCmd, clientImportCmd)
	rootCmd.AddCommand(clientCmd)
}

func runClientAdd(cmd *cobra.Command, args []string) error {
	models := flags.Models
	if models == nil {
		models = []string{}
	}
	return addClient(cmd, ai.NewAPIClient(flags.Endpoint, flags.APIKey, models))
}

func runClientImport(cmd *cobra.Command, args []string) error {
	client, err := config.APIClient()
	if err != nil {
		return err
	}
	return addClient(cmd, client)
}

func addClient(cmd *cobra.Command, client ai.APIClient) error {
	if err := client.Validate(); err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	store.AddAPIClient(client)
	if err := saveStore(store); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored credentials %d for %s\n", len(store.APIClients)-1, client.Endpoint)
	return nil
}

func runClientList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(store.APIClients) == 0 {
		fmt.Fprintln(out, "No credentials stored")
		return nil
	}
	for i, client := range store.APIClients {
		fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", i, client.Endpoint, client.MaskedKey(), strings.Join(client.Models, ", "))
	}
	return nil
}
