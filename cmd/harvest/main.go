package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/custodia-labs/harvest-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/harvest-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/harvest-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/harvest-cli/internal/core/services"
	"github.com/custodia-labs/harvest-cli/internal/credentials"
	"github.com/custodia-labs/harvest-cli/internal/queue"
	"github.com/custodia-labs/harvest-cli/internal/ratelimit"
	"github.com/custodia-labs/harvest-cli/internal/sanitize"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	settings := file.ResolveSettings(cfg)

	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("closing store: %v", err)
		}
	}()

	// Finalise runs left behind by an unclean shutdown before anything
	// else looks at the run history.
	if reconciled, err := store.RunStore().ReconcileStale(ctx); err != nil {
		return fmt.Errorf("reconciling stale runs: %w", err)
	} else if reconciled > 0 {
		log.Printf("marked %d interrupted run(s) as failed", reconciled)
	}

	cipher := credentials.NewStore(settings.EncryptionKey)
	adapters := services.NewAdapterRegistry()

	var sanitizer *sanitize.Client
	if settings.SanitizeEndpoint != "" {
		sanitizer = sanitize.NewClient(settings.SanitizeEndpoint)
	}

	runner := services.NewRunnerService(
		store.CollectionStore(),
		store.RunStore(),
		cipher,
		adapters,
		queue.New(settings.QueueSize),
		sanitizer,
		ratelimit.NewRegistry(),
	)
	registry := services.NewRegistryService(store.CollectionStore(), store, cipher)
	reporter := cli.NewRunReporter()
	scheduler := services.NewSchedulerService(store.CollectionStore(), runner, reporter)

	cli.SetServices(registry, scheduler, reporter)
	return cli.Execute()
}
