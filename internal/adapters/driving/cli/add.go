package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/harvest-cli/internal/core/ports/driving"
)

var (
	addName        string
	addSchedule    string
	addSettings    []string
	addCredentials []string
	addDisabled    bool
)

var addCmd = &cobra.Command{
	Use:   "add [adapter]",
	Short: "Add a new collection",
	Long: `Creates a collection for the given adapter kind.
Settings and credentials are passed as repeated key=value pairs;
credentials are encrypted before they are stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addName, "name", "n", "", "collection name (defaults to the adapter kind)")
	addCmd.Flags().StringVarP(&addSchedule, "schedule", "s", "", "cron schedule expression (empty for manual-only)")
	addCmd.Flags().StringArrayVar(&addSettings, "setting", nil, "adapter setting as key=value (repeatable)")
	addCmd.Flags().StringArrayVar(&addCredentials, "credential", nil, "credential as key=value (repeatable)")
	addCmd.Flags().BoolVar(&addDisabled, "disabled", false, "create the collection disabled")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if registryService == nil {
		return errors.New("collection service not configured")
	}

	adapter := args[0]
	name := addName
	if name == "" {
		name = adapter
	}

	settings, err := parsePairs(addSettings)
	if err != nil {
		return fmt.Errorf("invalid --setting: %w", err)
	}
	creds, err := parsePairs(addCredentials)
	if err != nil {
		return fmt.Errorf("invalid --credential: %w", err)
	}

	collection, err := registryService.Create(context.Background(), driving.NewCollection{
		Name:        name,
		Adapter:     adapter,
		Enabled:     !addDisabled,
		Schedule:    addSchedule,
		Settings:    settings,
		Credentials: creds,
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	cmd.Printf("Created collection %s (%s)\n", collection.Name, collection.ID)
	if collection.Schedule != "" {
		cmd.Printf("Schedule: %s\n", collection.Schedule)
	}
	return nil
}

// parsePairs converts repeated key=value flags into a map.
// Returns nil for an empty list so absence stays distinguishable.
func parsePairs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	result := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%q is not key=value", pair)
		}
		result[key] = value
	}
	return result, nil
}
