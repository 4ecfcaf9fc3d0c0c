// Package cli implements the harvest command-line interface.
// Commands are registered on rootCmd via init(); services are injected
// by main during wiring with SetServices.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/harvest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services injected by main.
var (
	registryService  driving.CollectionRegistry
	schedulerService driving.Scheduler
	runReporter      *RunReporter
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Collect documents from external sources",
	Long: `Harvest orchestrates document collection from external sources.
Collections bind an adapter to credentials, settings, and an optional
cron schedule; runs stream documents through sanitisation into the
processing queue.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// SetServices injects the driving services. Must be called before Execute.
func SetServices(registry driving.CollectionRegistry, scheduler driving.Scheduler, reporter *RunReporter) {
	registryService = registry
	schedulerService = scheduler
	runReporter = reporter
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
