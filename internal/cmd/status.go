package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GeorgeBronner/golfapi-scapper/internal/storage"
)

// statusCmd prints a snapshot of crawl progress and table counts. It only
// reads persisted state; no network activity.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show crawl progress and database statistics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("no database path configured")
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", cfg.DBPath, err)
	}
	defer func() { _ = store.Close() }()

	stats, err := store.CollectStats()
	if err != nil {
		return err
	}

	fmt.Printf("Database: %s\n\n", cfg.DBPath)
	fmt.Printf("Scrape progress:\n")
	fmt.Printf("  Last scraped ID:     %d\n", stats.Progress.LastID)
	fmt.Printf("  Total courses saved: %d\n", stats.Progress.TotalSaved)
	fmt.Printf("  Consecutive 404s:    %d\n", stats.Progress.ConsecutiveMisses)
	fmt.Printf("  Complete:            %t\n\n", stats.Progress.Complete)

	fmt.Printf("Tables:\n")
	fmt.Printf("  Courses:   %d\n", stats.Courses)
	fmt.Printf("  Locations: %d\n", stats.Locations)
	fmt.Printf("  Tees:      %d\n", stats.Tees)
	fmt.Printf("  Holes:     %d\n\n", stats.Holes)

	fmt.Printf("Attempts:\n")
	fmt.Printf("  Total:      %d\n", stats.TotalAttempts)
	fmt.Printf("  Successful: %d\n", stats.SuccessAttempts)
	fmt.Printf("  Failed:     %d\n", stats.FailedAttempts)

	if stats.IncompleteHoles > 0 {
		fmt.Printf("\nWarning: %d holes have missing par/yardage/handicap values\n", stats.IncompleteHoles)
	}

	return nil
}
