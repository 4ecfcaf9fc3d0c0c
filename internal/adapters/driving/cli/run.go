package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

var runCmd = &cobra.Command{
	Use:   "run [id-or-name]",
	Short: "Run a collection now",
	Long: `Executes one collection cycle immediately, regardless of the
collection's schedule. If a run for the collection is already active
nothing is dispatched.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if schedulerService == nil {
		return errors.New("scheduler not configured")
	}

	ctx := context.Background()
	collection, err := resolveCollection(ctx, args[0])
	if err != nil {
		return err
	}

	if schedulerService.Running(collection.ID) {
		return fmt.Errorf("%w: collection %s", domain.ErrRunInProgress, collection.Name)
	}

	cmd.Printf("Running collection %s...\n", collection.Name)
	schedulerService.RunCollection(ctx, collection.ID)

	if runReporter == nil {
		return nil
	}
	result, ok, runErr := runReporter.Last(collection.ID)
	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}
	if ok {
		cmd.Printf("Run complete: %d discovered, %d extracted, %d queued (%d errors)\n",
			result.DocumentsDiscovered, result.DocumentsExtracted,
			result.DocumentsIndexed, result.ErrorCount)
	}
	return nil
}
