package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id-or-name]",
	Short: "Delete a collection and its run history",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var enableCmd = &cobra.Command{
	Use:   "enable [id-or-name]",
	Short: "Enable a collection for scheduling",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], true)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable [id-or-name]",
	Short: "Disable a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], false)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
}

// resolveCollection looks a collection up by ID first, then by name.
func resolveCollection(ctx context.Context, ref string) (*domain.Collection, error) {
	if registryService == nil {
		return nil, errors.New("collection service not configured")
	}

	collection, err := registryService.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		collection, err = registryService.GetByName(ctx, ref)
		if err != nil {
			return nil, err
		}
	}
	if collection == nil {
		return nil, fmt.Errorf("collection %q not found", ref)
	}
	return collection, nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	collection, err := resolveCollection(ctx, args[0])
	if err != nil {
		return err
	}

	if err := registryService.Delete(ctx, collection.ID); err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	if schedulerService != nil {
		schedulerService.Unschedule(collection.ID)
	}

	cmd.Printf("Deleted collection %s and its run history.\n", collection.Name)
	return nil
}

func setEnabled(cmd *cobra.Command, ref string, enabled bool) error {
	ctx := context.Background()

	collection, err := resolveCollection(ctx, ref)
	if err != nil {
		return err
	}

	updated, err := registryService.Update(ctx, collection.ID, domain.CollectionPatch{Enabled: &enabled})
	if err != nil {
		return fmt.Errorf("updating collection: %w", err)
	}

	if enabled {
		cmd.Printf("Enabled collection %s.\n", updated.Name)
	} else {
		cmd.Printf("Disabled collection %s.\n", updated.Name)
		if schedulerService != nil {
			schedulerService.Unschedule(updated.ID)
		}
	}
	return nil
}
