package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/cchalm/parley/internal/ai"
	"github.com/cchalm/parley/internal/storage"
	"github.com/cchalm/parley/internal/telemetry"
	"github.com/cchalm/parley/internal/transport"
)

const completionTimeout = 5 * time.Minute

func setupContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	// Setup graceful shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		log.Println("Interrupt signal detected, shutting down gracefully...")
		cancel()
		<-interrupt
		log.Fatal("Forcing shutdown")
	}()

	return ctx
}

func createHTTPClient() *http.Client {
	return transport.NewClient(completionTimeout)
}

func createTelemetryProvider(ctx context.Context) (*telemetry.Provider, error) {
	telemetryConfig := telemetry.TelemetryConfig{
		Enabled:  config.TelemetryEnabled,
		Endpoint: config.OTLPEndpoint,
	}
	return telemetry.NewProvider(ctx, telemetryConfig)
}

// openStore loads the configured store, starting from an empty one if the file does not exist yet
func openStore() (*storage.Store, error) {
	store := storage.New(config.StorePath)
	if err := store.LoadOrInit(); err != nil {
		return nil, fmt.Errorf("failed to load store '%s': %w", config.StorePath, err)
	}
	return store, nil
}

// saveStore writes the store back to its own path, creating the parent directory on first use
func saveStore(store *storage.Store) error {
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := store.Save(store.Path()); err != nil {
		return fmt.Errorf("failed to save store '%s': %w", store.Path(), err)
	}
	return nil
}

// resolveAPIClient picks the credentials at index i of the store. If the store has no credentials at all, they are
// imported from the environment and added to the store.
func resolveAPIClient(store *storage.Store, i int) (ai.APIClient, error) {
	if len(store.APIClients) == 0 {
		client, err := config.APIClient()
		if err != nil {
			return ai.APIClient{}, fmt.Errorf("no credentials stored; add some with 'parley client add': %w", err)
		}
		store.AddAPIClient(client)
		return client, nil
	}
	client, ok := store.APIClient(i)
	if !ok {
		return ai.APIClient{}, fmt.Errorf("no credentials at index %d, have %d", i, len(store.APIClients))
	}
	return client, nil
}

// resolveModel picks the model for a new chat: an explicit choice wins, then the first model the endpoint offers
func resolveModel(client ai.APIClient, explicit string) (string, error) {
	if explicit != "" {
		if len(client.Models) > 0 && !client.HasModel(explicit) {
			log.Printf("Model '%s' is not listed for %s, trying it anyway", explicit, client.Endpoint)
		}
		return explicit, nil
	}
	for _, m := range client.Models {
		if m != "" {
			return m, nil
		}
	}
	return "", fmt.Errorf("no model given and none listed for %s; use --model", client.Endpoint)
}
