package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

var (
	scheduleStart bool
	scheduleStop  bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show or run the collection schedule",
	Long: `Without flags, shows the collections the scheduler would trigger.
With --start, installs all triggers and runs them in the foreground
until interrupted. --stop disarms any armed triggers.`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleStart, "start", false, "run the scheduler in the foreground")
	scheduleCmd.Flags().BoolVar(&scheduleStop, "stop", false, "disarm installed triggers")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if registryService == nil || schedulerService == nil {
		return errors.New("scheduler not configured")
	}
	if scheduleStart && scheduleStop {
		return errors.New("--start and --stop are mutually exclusive")
	}

	ctx := context.Background()

	if scheduleStop {
		schedulerService.Stop()
		cmd.Println("Scheduler stopped.")
		return nil
	}

	if !scheduleStart {
		return showSchedule(ctx, cmd)
	}

	if err := schedulerService.ScheduleAll(ctx); err != nil {
		return fmt.Errorf("installing triggers: %w", err)
	}
	schedulerService.Start()
	cmd.Println("Scheduler running. Press Ctrl-C to stop.")

	waitCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-waitCtx.Done()

	cmd.Println("Stopping scheduler...")
	schedulerService.Stop()
	cmd.Println("Scheduler stopped.")
	return nil
}

func showSchedule(ctx context.Context, cmd *cobra.Command) error {
	enabled := true
	collections, err := registryService.List(ctx, domain.CollectionFilter{Enabled: &enabled})
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}

	scheduled := 0
	for _, c := range collections {
		if !c.Schedulable() {
			continue
		}
		cmd.Printf("%s\t%s\t%s\n", c.ID, c.Name, c.Schedule)
		scheduled++
	}
	if scheduled == 0 {
		cmd.Println("No scheduled collections. Set a schedule with 'harvest add --schedule'.")
	}
	return nil
}
