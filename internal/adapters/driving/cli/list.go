package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

var (
	listAdapter string
	listEnabled bool
	listJSON    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listAdapter, "adapter", "", "filter by adapter kind")
	listCmd.Flags().BoolVar(&listEnabled, "enabled", false, "show only enabled collections")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if registryService == nil {
		return errors.New("collection service not configured")
	}

	filter := domain.CollectionFilter{}
	if listAdapter != "" {
		filter.Adapter = &listAdapter
	}
	if listEnabled {
		enabled := true
		filter.Enabled = &enabled
	}

	collections, err := registryService.List(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}

	if listJSON {
		data, err := json.MarshalIndent(collectionsForOutput(collections), "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if len(collections) == 0 {
		cmd.Println("No collections configured. Use 'harvest add' to create one.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tADAPTER\tENABLED\tSTATUS\tSCHEDULE")
	for _, c := range collections {
		schedule := c.Schedule
		if schedule == "" {
			schedule = "manual"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
			c.ID, c.Name, c.Adapter, c.Enabled, c.Status, schedule)
	}
	return w.Flush()
}

// collectionOutput is the JSON shape for list output. The encrypted
// credential blob is deliberately omitted.
type collectionOutput struct {
	ID             string                  `json:"id"`
	Name           string                  `json:"name"`
	Adapter        string                  `json:"adapter"`
	Enabled        bool                    `json:"enabled"`
	HasCredentials bool                    `json:"has_credentials"`
	Schedule       string                  `json:"schedule,omitempty"`
	Status         domain.CollectionStatus `json:"status"`
	Settings       map[string]any          `json:"settings,omitempty"`
}

func collectionsForOutput(collections []domain.Collection) []collectionOutput {
	out := make([]collectionOutput, len(collections))
	for i, c := range collections {
		out[i] = collectionOutput{
			ID:             c.ID,
			Name:           c.Name,
			Adapter:        c.Adapter,
			Enabled:        c.Enabled,
			HasCredentials: c.HasCredentials(),
			Schedule:       c.Schedule,
			Status:         c.Status,
			Settings:       c.Settings,
		}
	}
	return out
}
